package ticker

import (
	"sync"
	"sync/atomic"
	"time"
)

// Poller retries an attempt on a fixed interval until it succeeds or the
// attempt budget runs out, in which case onExhausted runs once.
type Poller struct {
	interval    time.Duration
	maxAttempts int
	attempt     func() bool
	onExhausted func()

	attempts atomic.Int32
	mu       sync.Mutex
	started  bool
	stopped  bool
	stop     chan struct{}
	done     chan struct{}
}

// NewPoller creates a stopped Poller that calls attempt every interval until it
// succeeds or maxAttempts is reached, then calls onExhausted
func NewPoller(interval time.Duration, maxAttempts int, attempt func() bool, onExhausted func()) *Poller {
	return &Poller{
		interval:    interval,
		maxAttempts: maxAttempts,
		attempt:     attempt,
		onExhausted: onExhausted,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the retry loop. Calling it twice, or after Stop, does nothing.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	go p.run()
}

// Stop cancels pending attempts and waits for the loop to exit
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		if p.started {
			<-p.done
		}
		return
	}
	p.stopped = true
	started := p.started
	close(p.stop)
	p.mu.Unlock()

	if started {
		<-p.done
	}
}

// Done is closed once the loop has exited for any reason
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Attempts returns how many attempts have run so far
func (p *Poller) Attempts() int {
	return int(p.attempts.Load())
}

func (p *Poller) run() {
	defer close(p.done)

	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-t.C:
			n := int(p.attempts.Add(1))
			if p.attempt() {
				return
			}
			if n >= p.maxAttempts {
				if p.onExhausted != nil {
					p.onExhausted()
				}
				return
			}
		}
	}
}
