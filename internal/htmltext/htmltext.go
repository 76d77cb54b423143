// Package htmltext turns the HTML fragments the platform embeds in workout
// notes into plain text.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Extractor converts HTML into plain text, one text node per line.
type Extractor interface {
	Text(fragment string) string
}

// Parser is the x/net/html backed Extractor.
type Parser struct{}

func (Parser) Text(fragment string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return fragment
	}
	var parts []string
	for _, n := range nodes {
		collect(n, &parts)
	}
	return strings.Join(parts, "\n")
}

func collect(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		*parts = append(*parts, n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, parts)
	}
}

// Clean trims every line and drops the blank ones.
func Clean(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
