// Package richtext decodes Lexical-style rich-text JSON into a typed node tree
// and renders that tree into HTML.
//
// The walk is total: malformed input never raises, it is dropped and reported
// through Diagnostics returned next to the result.
package richtext

// Kind discriminates rich-text nodes.
type Kind string

const (
	KindText           Kind = "text"
	KindLineBreak      Kind = "linebreak"
	KindParagraph      Kind = "paragraph"
	KindHeading        Kind = "heading"
	KindList           Kind = "list"
	KindListItem       Kind = "listitem"
	KindQuote          Kind = "quote"
	KindLink           Kind = "link"
	KindUpload         Kind = "upload"
	KindHorizontalRule Kind = "horizontalrule"
	KindBlock          Kind = "block"
	KindUnknown        Kind = "unknown"
)

// Kinds lists every node kind the renderer handles.
var Kinds = []Kind{
	KindText,
	KindLineBreak,
	KindParagraph,
	KindHeading,
	KindList,
	KindListItem,
	KindQuote,
	KindLink,
	KindUpload,
	KindHorizontalRule,
	KindBlock,
	KindUnknown,
}

// Node is a closed set: only the types in this package implement it.
type Node interface {
	Kind() Kind
	isNode()
}

// Document is a decoded rich-text tree. Children are the block-level nodes
// found under root.children (or the top-level array / single node).
type Document struct {
	Children []Node
}

// Format is the set of inline text formats. Bit values match Lexical's
// numeric "format" field.
type Format uint8

const (
	FormatBold Format = 1 << iota
	FormatItalic
	FormatStrikethrough
	FormatUnderline
	FormatCode
)

// Has reports whether all bits of x are set.
func (f Format) Has(x Format) bool { return f&x == x }

// Text is a leaf carrying literal text and its inline formats.
type Text struct {
	Text   string
	Format Format
}

// LineBreak is a hard line break inside a paragraph.
type LineBreak struct{}

// Paragraph groups inline children.
type Paragraph struct {
	Children []Node
}

// Heading is h1..h6. Tag holds the raw tag from the document; an
// unrecognized tag falls back to the renderer's configured default.
type Heading struct {
	Tag      string
	Children []Node
}

// List is an ordered ("number") or unordered list.
type List struct {
	ListType string
	Children []Node
}

// Ordered reports whether the list renders as <ol>.
func (l *List) Ordered() bool { return l.ListType == "number" }

// ListItem is a single <li>.
type ListItem struct {
	Children []Node
}

// Quote is the inline editor blockquote (not the quote block).
type Quote struct {
	Children []Node
}

// Link wraps inline children in an anchor.
type Link struct {
	URL      string
	NewTab   bool
	Children []Node
}

// Upload is an inline image upload node.
type Upload struct {
	Value MediaRef
}

// HorizontalRule renders <hr>.
type HorizontalRule struct{}

// BlockNode carries a schema-defined block.
type BlockNode struct {
	Block Block
}

// Unknown keeps a node with an unrecognized type. Its children, if any, are
// still rendered; Raw is kept for debugging.
type Unknown struct {
	Type     string
	Raw      map[string]any
	Children []Node
}

func (*Text) Kind() Kind           { return KindText }
func (*LineBreak) Kind() Kind      { return KindLineBreak }
func (*Paragraph) Kind() Kind      { return KindParagraph }
func (*Heading) Kind() Kind        { return KindHeading }
func (*List) Kind() Kind           { return KindList }
func (*ListItem) Kind() Kind       { return KindListItem }
func (*Quote) Kind() Kind          { return KindQuote }
func (*Link) Kind() Kind           { return KindLink }
func (*Upload) Kind() Kind         { return KindUpload }
func (*HorizontalRule) Kind() Kind { return KindHorizontalRule }
func (*BlockNode) Kind() Kind      { return KindBlock }
func (*Unknown) Kind() Kind        { return KindUnknown }

func (*Text) isNode()           {}
func (*LineBreak) isNode()      {}
func (*Paragraph) isNode()      {}
func (*Heading) isNode()        {}
func (*List) isNode()           {}
func (*ListItem) isNode()       {}
func (*Quote) isNode()          {}
func (*Link) isNode()           {}
func (*Upload) isNode()         {}
func (*HorizontalRule) isNode() {}
func (*BlockNode) isNode()      {}
func (*Unknown) isNode()        {}

// Media is a populated media document as seen by the renderer.
type Media struct {
	ID      string
	URL     string
	Alt     string
	Caption string
	Width   int
	Height  int
}

// MediaRef is either a bare id (unresolved) or a populated Media.
type MediaRef struct {
	ID    string
	Media *Media
}

// Resolved reports whether the reference was populated.
func (r MediaRef) Resolved() bool { return r.Media != nil }

// IsZero reports whether the reference is empty.
func (r MediaRef) IsZero() bool { return r.ID == "" && r.Media == nil }
