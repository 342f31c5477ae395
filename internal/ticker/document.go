package ticker

import (
	"bytes"
	"io"
	"sync"

	"golang.org/x/net/html"
)

// Document is a host page held as a parsed node tree. Every change goes
// through Mutate or Update so watchers hear about it.
type Document struct {
	mu   sync.Mutex
	root *html.Node

	watchMu  sync.Mutex
	watchers map[int]chan struct{}
	nextID   int
}

// NewDocument creates a Document around an already parsed tree
func NewDocument(root *html.Node) *Document {
	return &Document{
		root:     root,
		watchers: make(map[int]chan struct{}),
	}
}

// ParseDocument parses an HTML page
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(root), nil
}

// Mutate applies a host-side change and notifies watchers
func (d *Document) Mutate(fn func(root *html.Node)) {
	d.Update(func(root *html.Node) bool {
		fn(root)
		return true
	})
}

// Update applies fn and notifies watchers only when fn reports a change
func (d *Document) Update(fn func(root *html.Node) bool) {
	d.mu.Lock()
	changed := fn(d.root)
	d.mu.Unlock()

	if changed {
		d.notify()
	}
}

// Read runs fn against the tree without notifying anyone
func (d *Document) Read(fn func(root *html.Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.root)
}

// Watch subscribes to change notifications. Notifications coalesce: a watcher
// that falls behind sees one pending signal, never a backlog.
func (d *Document) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	d.watchMu.Lock()
	id := d.nextID
	d.nextID++
	d.watchers[id] = ch
	d.watchMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			d.watchMu.Lock()
			delete(d.watchers, id)
			d.watchMu.Unlock()
		})
	}
	return ch, cancel
}

func (d *Document) notify() {
	d.watchMu.Lock()
	defer d.watchMu.Unlock()

	for _, ch := range d.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Render writes the current tree as HTML
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// HasTicker reports whether the ticker node is currently in the tree
func (d *Document) HasTicker() bool {
	var found bool
	d.Read(func(root *html.Node) {
		found = hasTicker(root)
	})
	return found
}
