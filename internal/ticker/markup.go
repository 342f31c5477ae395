package ticker

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkerID identifies the injected ticker node; its presence makes insertion a no-op
const MarkerID = "submission-ticker"

const (
	baseDuration = 10 * time.Second
	perCharacter = 150 * time.Millisecond
	minDuration  = 10 * time.Second
)

// Item is one approved entry shown on the ticker
type Item struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Duration is the scroll period for one full pass:
// max(10s, 10s + 0.15s per character of the concatenated content)
func Duration(items []Item) time.Duration {
	chars := 0
	for _, it := range items {
		chars += utf8.RuneCountInString(strings.TrimSpace(it.Content))
	}
	d := baseDuration + time.Duration(chars)*perCharacter
	if d < minDuration {
		return minDuration
	}
	return d
}

// Build creates a fresh ticker node. The item list is rendered twice so the
// track can loop without a visible gap; the copy is hidden from assistive tech.
func Build(items []Item) *html.Node {
	root := element(atom.Div,
		html.Attribute{Key: "id", Val: MarkerID},
		html.Attribute{Key: "class", Val: "submission-ticker"},
		html.Attribute{Key: "role", Val: "marquee"},
		html.Attribute{Key: "aria-live", Val: "off"},
	)

	track := element(atom.Div,
		html.Attribute{Key: "class", Val: "submission-ticker__track"},
		html.Attribute{Key: "style", Val: fmt.Sprintf("animation-duration: %.2fs", Duration(items).Seconds())},
	)
	root.AppendChild(track)

	for copyIndex := 0; copyIndex < 2; copyIndex++ {
		group := element(atom.Div, html.Attribute{Key: "class", Val: "submission-ticker__group"})
		if copyIndex == 1 {
			group.Attr = append(group.Attr, html.Attribute{Key: "aria-hidden", Val: "true"})
		}
		for _, it := range items {
			span := element(atom.Span, html.Attribute{Key: "class", Val: "submission-ticker__item"})
			if it.ID != "" {
				span.Attr = append(span.Attr, html.Attribute{Key: "data-id", Val: it.ID})
			}
			span.AppendChild(&html.Node{Type: html.TextNode, Data: strings.TrimSpace(it.Content)})
			group.AppendChild(span)
		}
		track.AppendChild(group)
	}

	return root
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}
