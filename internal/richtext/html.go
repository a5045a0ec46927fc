package richtext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// el builds an element node. attrs are key/value pairs; empty values are
// skipped unless the attribute is listed in keepEmpty.
func el(a atom.Atom, class string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" && !keepEmpty[attrs[i]] {
			continue
		}
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

var keepEmpty = map[string]bool{
	"allowfullscreen": true,
	"alt":             true,
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// wrap appends children to parent and returns parent.
func wrap(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		if c != nil {
			parent.AppendChild(c)
		}
	}
	return parent
}

func classes(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func renderNodes(nodes []*html.Node) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}
