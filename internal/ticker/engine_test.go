package ticker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func fastOptions() Options {
	return Options{PollInterval: 5 * time.Millisecond, MaxAttempts: 20}
}

func newDoc(t *testing.T, page string) *Document {
	t.Helper()
	doc, err := ParseDocument(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

// startEngine runs the engine in the background and returns a stop func that
// cancels it and waits for Run to return
func startEngine(t *testing.T, e *Engine) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(ctx) }()

	return func() {
		cancel()
		select {
		case err := <-errCh:
			assert.True(t, errors.Is(err, context.Canceled))
		case <-time.After(2 * time.Second):
			t.Fatal("engine did not stop")
		}
	}
}

func tickerCount(doc *Document) int {
	var n int
	doc.Read(func(root *html.Node) { n = countTickers(root) })
	return n
}

func appendElement(root *html.Node, selector string, a atom.Atom, id string) {
	parent := cascadiaFirst(root, selector)
	n := element(a)
	if id != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: id})
	}
	parent.AppendChild(n)
}

func cascadiaFirst(root *html.Node, selector string) *html.Node {
	return compileAll(selector)[0].MatchFirst(root)
}

func TestEngine_ImmediateInsertion(t *testing.T) {
	doc := newDoc(t, `<body><nav>menu</nav><p>content</p></body>`)
	e := NewEngine(doc, sampleItems, fastOptions(), zerolog.Nop())

	stop := startEngine(t, e)
	defer stop()

	require.Eventually(t, func() bool { return e.State() == StateObserving }, time.Second, time.Millisecond)
	assert.Equal(t, 1, tickerCount(doc))
}

func TestEngine_WaitsForLateAnchor(t *testing.T) {
	doc := newDoc(t, `<body><div id="root"></div></body>`)
	e := NewEngine(doc, sampleItems, Options{PollInterval: time.Hour, MaxAttempts: 20}, zerolog.Nop())

	stop := startEngine(t, e)
	defer stop()

	require.Eventually(t, func() bool { return e.State() == StateSearching }, time.Second, time.Millisecond)
	assert.Equal(t, 0, tickerCount(doc), "no fallback before polling is exhausted")

	// the app renders its header after load
	doc.Mutate(func(root *html.Node) { appendElement(root, "#root", atom.Header, "late") })

	require.Eventually(t, func() bool { return e.State() == StateObserving }, time.Second, time.Millisecond)
	assert.Equal(t, 1, tickerCount(doc))
	doc.Read(func(root *html.Node) {
		header := cascadiaFirst(root, "#late")
		require.NotNil(t, header.NextSibling)
		assert.Equal(t, MarkerID, attr(header.NextSibling, "id"))
	})
}

func TestEngine_FallbackAfterExhaustion(t *testing.T) {
	doc := newDoc(t, `<body><div id="app"><p>app</p></div></body>`)
	e := NewEngine(doc, sampleItems, Options{PollInterval: time.Millisecond, MaxAttempts: 3}, zerolog.Nop())

	stop := startEngine(t, e)
	defer stop()

	require.Eventually(t, func() bool { return tickerCount(doc) == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return e.State() == StateObserving }, time.Second, time.Millisecond)
	doc.Read(func(root *html.Node) {
		app := cascadiaFirst(root, "#app")
		assert.Equal(t, MarkerID, attr(app.FirstChild, "id"))
	})
}

func TestEngine_ReinsertsAfterRerender(t *testing.T) {
	doc := newDoc(t, `<body><div id="root"><nav>menu</nav></div></body>`)
	e := NewEngine(doc, sampleItems, fastOptions(), zerolog.Nop())

	stop := startEngine(t, e)
	defer stop()

	require.Eventually(t, func() bool { return e.State() == StateObserving }, time.Second, time.Millisecond)

	// client-side navigation wipes and rebuilds the subtree holding the anchor
	for i := 0; i < 3; i++ {
		doc.Mutate(func(root *html.Node) {
			app := cascadiaFirst(root, "#root")
			for app.FirstChild != nil {
				app.RemoveChild(app.FirstChild)
			}
			appendElement(root, "#root", atom.Nav, "")
		})

		require.Eventually(t, func() bool {
			return tickerCount(doc) == 1 && e.State() == StateObserving
		}, time.Second, time.Millisecond)
	}
	assert.Equal(t, 1, tickerCount(doc))
}

func TestEngine_EmptyFeedDoesNothing(t *testing.T) {
	doc := newDoc(t, `<body><nav>menu</nav></body>`)
	e := NewEngine(doc, nil, fastOptions(), zerolog.Nop())

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 0, tickerCount(doc))
}

func TestEngine_InsertIsIdempotent(t *testing.T) {
	doc := newDoc(t, `<body><nav>menu</nav></body>`)
	e := NewEngine(doc, sampleItems, Options{}, zerolog.Nop())

	changes, unwatch := doc.Watch()
	defer unwatch()

	assert.Equal(t, PlacementAnchor, e.Insert(false))
	<-changes

	assert.Equal(t, PlacementPresent, e.Insert(true))
	select {
	case <-changes:
		t.Error("a no-op insertion must not notify watchers")
	default:
	}
	assert.Equal(t, 1, tickerCount(doc))
	assert.Equal(t, StateInserted, e.State())
}

func TestDocument_WatchCoalesces(t *testing.T) {
	doc := newDoc(t, `<body></body>`)
	changes, unwatch := doc.Watch()

	for i := 0; i < 5; i++ {
		doc.Mutate(func(*html.Node) {})
	}
	<-changes
	select {
	case <-changes:
		t.Error("notifications should coalesce")
	default:
	}

	unwatch()
	doc.Mutate(func(*html.Node) {})
	select {
	case <-changes:
		t.Error("cancelled watcher should not be notified")
	default:
	}
}
