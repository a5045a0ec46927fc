package richtext

import (
	"strings"
	"unicode"
)

// PlainText returns the document's readable text. Block-level nodes are
// separated by newlines; block payload text (callouts, quotes, code,
// captions) is included.
func PlainText(doc *Document) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	for _, n := range doc.Children {
		writeText(&b, n)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

// WordCount counts whitespace-separated words in PlainText(doc).
func WordCount(doc *Document) int {
	return len(strings.FieldsFunc(PlainText(doc), unicode.IsSpace))
}

func writeText(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Text:
		b.WriteString(n.Text)
	case *LineBreak:
		b.WriteByte('\n')
	case *Paragraph:
		writeChildren(b, n.Children)
	case *Heading:
		writeChildren(b, n.Children)
	case *List:
		for _, c := range n.Children {
			writeText(b, c)
			b.WriteByte('\n')
		}
	case *ListItem:
		writeChildren(b, n.Children)
	case *Quote:
		writeChildren(b, n.Children)
	case *Link:
		writeChildren(b, n.Children)
	case *Upload:
		if n.Value.Resolved() {
			b.WriteString(n.Value.Media.Caption)
		}
	case *BlockNode:
		writeBlockText(b, n.Block)
	case *Unknown:
		writeChildren(b, n.Children)
	}
}

func writeChildren(b *strings.Builder, nodes []Node) {
	for _, c := range nodes {
		writeText(b, c)
	}
}

func writeBlockText(b *strings.Builder, blk Block) {
	var parts []string
	switch blk := blk.(type) {
	case *CodeBlock:
		parts = []string{blk.Code}
	case *Callout:
		parts = []string{blk.Title, blk.Content}
	case *QuoteBlock:
		parts = []string{blk.Quote, blk.Author}
	case *Embed:
		parts = []string{blk.Title}
	case *ImageGallery:
		for _, im := range blk.Images {
			parts = append(parts, im.Caption)
		}
	case *MediaImage:
		parts = []string{blk.Caption}
	}
	for _, p := range parts {
		if p != "" {
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}
}
