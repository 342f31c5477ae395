package ticker

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Placement describes the outcome of one insertion attempt
type Placement int

const (
	// PlacementNone means no anchor was found and no fallback was allowed or possible
	PlacementNone Placement = iota
	// PlacementPresent means a ticker was already in the tree
	PlacementPresent
	// PlacementAnchor means the ticker went in right after an anchor
	PlacementAnchor
	// PlacementFallback means the ticker went in at the top of a root container or body
	PlacementFallback
)

func (p Placement) String() string {
	switch p {
	case PlacementPresent:
		return "present"
	case PlacementAnchor:
		return "anchor"
	case PlacementFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Found reports whether the tree holds a ticker after the attempt
func (p Placement) Found() bool {
	return p != PlacementNone
}

// Anchor candidates in priority order. The first selector with any match wins.
var anchorSelectors = compileAll(
	"header",
	"[role=banner]",
	"nav",
	"[role=navigation]",
	".navbar",
	".header",
	".site-header",
	"#header",
	".nav",
)

// Containers used by client-rendered apps, tried before <body>
var rootSelectors = compileAll("#root", "#app", "#__next", "main")

var (
	bodySelector   = cascadia.MustCompile("body")
	markerSelector = cascadia.MustCompile("#" + MarkerID)
)

func compileAll(selectors ...string) []cascadia.Selector {
	compiled := make([]cascadia.Selector, 0, len(selectors))
	for _, s := range selectors {
		compiled = append(compiled, cascadia.MustCompile(s))
	}
	return compiled
}

func hasTicker(root *html.Node) bool {
	return markerSelector.MatchFirst(root) != nil
}

// FindAnchor returns the first anchor element, or nil
func FindAnchor(root *html.Node) *html.Node {
	for _, sel := range anchorSelectors {
		if n := sel.MatchFirst(root); n != nil && n.Parent != nil {
			return n
		}
	}
	return nil
}

// FindFallback returns the container the ticker is prepended to when no anchor exists
func FindFallback(root *html.Node) *html.Node {
	for _, sel := range rootSelectors {
		if n := sel.MatchFirst(root); n != nil {
			return n
		}
	}
	return bodySelector.MatchFirst(root)
}

// InsertOnce places ticker right after the first anchor. With allowFallback it
// prepends to a root container or <body> when no anchor exists. An existing
// ticker turns every call into a no-op. ticker must be a detached node.
func InsertOnce(root, ticker *html.Node, allowFallback bool) Placement {
	if hasTicker(root) {
		return PlacementPresent
	}

	if anchor := FindAnchor(root); anchor != nil {
		anchor.Parent.InsertBefore(ticker, anchor.NextSibling)
		return PlacementAnchor
	}

	if !allowFallback {
		return PlacementNone
	}

	if container := FindFallback(root); container != nil {
		container.InsertBefore(ticker, container.FirstChild)
		return PlacementFallback
	}
	return PlacementNone
}
