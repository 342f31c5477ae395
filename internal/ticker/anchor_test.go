package ticker

import (
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

var sampleItems = []Item{{ID: "a", Content: "Hello"}, {ID: "b", Content: "World"}}

func parse(t *testing.T, page string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)
	return root
}

func countTickers(root *html.Node) int {
	return len(markerSelector.MatchAll(root))
}

func TestInsertOnce_NavAnchor(t *testing.T) {
	root := parse(t, `<html><body><nav id="menu">links</nav><p>body</p></body></html>`)

	placed := InsertOnce(root, Build(sampleItems), false)
	require.Equal(t, PlacementAnchor, placed)
	assert.Equal(t, 1, countTickers(root))

	nav := cascadia.MustCompile("#menu").MatchFirst(root)
	require.NotNil(t, nav.NextSibling)
	assert.Equal(t, MarkerID, attr(nav.NextSibling, "id"), "ticker should follow the anchor")

	placed = InsertOnce(root, Build(sampleItems), true)
	assert.Equal(t, PlacementPresent, placed)
	assert.Equal(t, 1, countTickers(root))
}

func TestInsertOnce_AnchorPriority(t *testing.T) {
	root := parse(t, `<body><div class="navbar">bar</div><nav>nav</nav><header id="top">head</header></body>`)

	require.Equal(t, PlacementAnchor, InsertOnce(root, Build(sampleItems), false))

	header := cascadia.MustCompile("#top").MatchFirst(root)
	assert.Equal(t, MarkerID, attr(header.NextSibling, "id"), "header outranks nav and .navbar")
}

func TestInsertOnce_RoleAnchor(t *testing.T) {
	root := parse(t, `<body><div class="nav">x</div><div role="navigation" id="r">y</div></body>`)

	require.Equal(t, PlacementAnchor, InsertOnce(root, Build(sampleItems), false))
	assert.Equal(t, MarkerID, attr(cascadia.MustCompile("#r").MatchFirst(root).NextSibling, "id"))
}

func TestInsertOnce_Fallback(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		container string
	}{
		{name: "spa root", page: `<body><p>x</p><div id="root"><p>app</p></div></body>`, container: "#root"},
		{name: "next root", page: `<body><div id="__next"><p>app</p></div></body>`, container: "#__next"},
		{name: "main", page: `<body><main><p>m</p></main></body>`, container: "main"},
		{name: "body", page: `<body><p>plain</p></body>`, container: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parse(t, tt.page)

			assert.Equal(t, PlacementNone, InsertOnce(root, Build(sampleItems), false))
			assert.Equal(t, 0, countTickers(root))

			require.Equal(t, PlacementFallback, InsertOnce(root, Build(sampleItems), true))
			container := cascadia.MustCompile(tt.container).MatchFirst(root)
			assert.Equal(t, MarkerID, attr(container.FirstChild, "id"), "ticker should be the first child")
		})
	}
}

func TestInsertOnce_NoBody(t *testing.T) {
	root := &html.Node{Type: html.DocumentNode}

	assert.Equal(t, PlacementNone, InsertOnce(root, Build(sampleItems), true))
	assert.Nil(t, root.FirstChild)
}
