// Package document wraps a parsed HTML page behind the small query surface
// the extractors need: CSS and XPath lookups, text and attribute reads.
package document

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Node is one element (or text node) of a parsed page.
type Node interface {
	// Find returns the descendants matching a CSS selector, in document order.
	Find(selector string) []Node
	// XPath evaluates expr with this node as context. Invalid expressions
	// match nothing.
	XPath(expr string) []Node
	// OwnTexts returns the data of the direct text children.
	OwnTexts() []string
	// Texts returns the data of every descendant text node.
	Texts() []string
	// Attr reads an attribute of the node.
	Attr(name string) (string, bool)
}

// Document is the root of a parsed page together with the URL it came from.
type Document interface {
	Node
	URL() *url.URL
	// AbsoluteURL resolves ref against the page URL.
	AbsoluteURL(ref string) string
}

// FromSelection adapts an already parsed goquery selection, such as the
// DOM of a colly HTML element.
func FromSelection(sel *goquery.Selection, pageURL *url.URL) Document {
	return &page{node: node{sel: sel}, url: pageURL}
}

// Parse reads HTML from r.
func Parse(r io.Reader, rawURL string) (Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return FromSelection(doc.Selection, u), nil
}

// ParseString is Parse over an in-memory page.
func ParseString(body, rawURL string) (Document, error) {
	return Parse(strings.NewReader(body), rawURL)
}

// First returns the first node of nodes, or nil.
func First(nodes []Node) Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// FirstOwnText returns the first non-blank direct text across nodes.
func FirstOwnText(nodes []Node) (string, bool) {
	for _, n := range nodes {
		for _, t := range n.OwnTexts() {
			if strings.TrimSpace(t) != "" {
				return t, true
			}
		}
	}
	return "", false
}

// FirstAttr returns the first present attribute value across nodes.
func FirstAttr(nodes []Node, name string) (string, bool) {
	for _, n := range nodes {
		if v, ok := n.Attr(name); ok {
			return v, true
		}
	}
	return "", false
}

type page struct {
	node
	url *url.URL
}

func (p *page) URL() *url.URL {
	return p.url
}

func (p *page) AbsoluteURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if p.url == nil || ref == "" {
		return ref
	}
	resolved, err := p.url.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}

type node struct {
	sel *goquery.Selection
}

func (n node) raw() *html.Node {
	if n.sel == nil || n.sel.Length() == 0 {
		return nil
	}
	return n.sel.Get(0)
}

func (n node) Find(selector string) []Node {
	if n.sel == nil {
		return nil
	}
	var out []Node
	n.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, node{sel: s})
	})
	return out
}

func (n node) XPath(expr string) []Node {
	root := n.raw()
	if root == nil {
		return nil
	}
	matches, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		return nil
	}
	out := make([]Node, 0, len(matches))
	for _, m := range matches {
		out = append(out, node{sel: goquery.NewDocumentFromNode(m).Selection})
	}
	return out
}

func (n node) OwnTexts() []string {
	h := n.raw()
	if h == nil {
		return nil
	}
	if h.Type == html.TextNode {
		return []string{h.Data}
	}
	var out []string
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			out = append(out, c.Data)
		}
	}
	return out
}

func (n node) Texts() []string {
	h := n.raw()
	if h == nil {
		return nil
	}
	var out []string
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			out = append(out, cur.Data)
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(h)
	return out
}

func (n node) Attr(name string) (string, bool) {
	if n.sel == nil {
		return "", false
	}
	return n.sel.Attr(name)
}
