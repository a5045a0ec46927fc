package richtext

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WrapperClass is always present on the outer <div>.
const WrapperClass = "rich-text-content prose prose-lg max-w-none"

// DefaultHeadingFallback is used for headings whose tag is not h1..h6.
const DefaultHeadingFallback = "h2"

var headingAtoms = map[string]atom.Atom{
	"h1": atom.H1,
	"h2": atom.H2,
	"h3": atom.H3,
	"h4": atom.H4,
	"h5": atom.H5,
	"h6": atom.H6,
}

var headingClasses = map[string]string{
	"h1": "text-4xl font-bold mb-6 mt-8",
	"h2": "text-3xl font-bold mb-5 mt-7",
	"h3": "text-2xl font-bold mb-4 mt-6",
	"h4": "text-xl font-bold mb-3 mt-5",
	"h5": "text-lg font-bold mb-2 mt-4",
	"h6": "text-base font-bold mb-2 mt-3",
}

// Option configures a render.
type Option func(*renderer)

// WithClassName appends extra classes to the wrapper element.
func WithClassName(class string) Option {
	return func(r *renderer) { r.className = strings.TrimSpace(class) }
}

// WithHeadingFallback sets the tag used for unrecognized heading tags.
// Values outside h1..h6 are ignored.
func WithHeadingFallback(tag string) Option {
	return func(r *renderer) {
		if _, ok := headingAtoms[tag]; ok {
			r.headingFallback = tag
		}
	}
}

// WithLogger sets the logger used when a render fails.
func WithLogger(l *slog.Logger) Option {
	return func(r *renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// Result is the output of a render.
type Result struct {
	// Root is the wrapper <div>; its children are the rendered fragments.
	Root        *html.Node
	Diagnostics Diagnostics
	// Failed is set when the walk panicked and Root holds the error panel.
	Failed bool
}

// Fragments returns the top-level rendered nodes inside the wrapper.
func (r *Result) Fragments() []*html.Node {
	var out []*html.Node
	for c := r.Root.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// HTML serialises the wrapper and its content.
func (r *Result) HTML() string {
	s, err := renderNodes([]*html.Node{r.Root})
	if err != nil {
		return ""
	}
	return s
}

// InnerHTML serialises the fragments without the wrapper.
func (r *Result) InnerHTML() string {
	s, err := renderNodes(r.Fragments())
	if err != nil {
		return ""
	}
	return s
}

type renderer struct {
	className       string
	headingFallback string
	logger          *slog.Logger
}

func newRenderer(opts []Option) *renderer {
	r := &renderer{headingFallback: DefaultHeadingFallback, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderValue decodes v and renders it. Decode diagnostics come first.
func RenderValue(v any, opts ...Option) *Result {
	doc, diags := Decode(v)
	res := Render(doc, opts...)
	res.Diagnostics = append(diags, res.Diagnostics...)
	return res
}

// RenderJSON parses raw JSON content and renders it. Parse diagnostics
// come first.
func RenderJSON(data []byte, opts ...Option) *Result {
	doc, diags := Parse(data)
	res := Render(doc, opts...)
	res.Diagnostics = append(diags, res.Diagnostics...)
	return res
}

// Render walks doc depth-first. A panic anywhere in the walk replaces the
// whole output with the error panel.
func Render(doc *Document, opts ...Option) (res *Result) {
	r := newRenderer(opts)
	root := el(atom.Div, classes(WrapperClass, r.className))
	res = &Result{Root: root}

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		r.logger.Error("rich text render failed",
			slog.String("panic", fmt.Sprint(rec)),
			slog.String("stack", string(debug.Stack())),
		)
		for c := root.FirstChild; c != nil; c = root.FirstChild {
			root.RemoveChild(c)
		}
		root.AppendChild(errorPanel())
		res.Failed = true
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:    DiagRenderFailed,
			Path:    "$",
			Message: fmt.Sprint(rec),
		})
	}()

	if doc != nil {
		r.children(root, doc.Children)
	}
	return res
}

func errorPanel() *html.Node {
	return wrap(el(atom.Div, "bg-red-50 border border-red-200 p-4 rounded"),
		wrap(el(atom.P, "text-red-700 font-semibold"), text("Content Rendering Error")),
		wrap(el(atom.P, "text-red-600 text-sm"),
			text("There was an issue rendering this content. Please try editing the post content.")),
	)
}

func (r *renderer) children(parent *html.Node, nodes []Node) {
	for _, n := range nodes {
		r.node(parent, n)
	}
}

func (r *renderer) node(parent *html.Node, n Node) {
	switch n := n.(type) {
	case *Text:
		parent.AppendChild(formatText(n))
	case *LineBreak:
		parent.AppendChild(el(atom.Br, ""))
	case *Paragraph:
		p := el(atom.P, "mb-4 leading-relaxed")
		r.children(p, n.Children)
		parent.AppendChild(p)
	case *Heading:
		tag := n.Tag
		if _, ok := headingAtoms[tag]; !ok {
			tag = r.headingFallback
		}
		h := el(headingAtoms[tag], headingClasses[tag])
		r.children(h, n.Children)
		parent.AppendChild(h)
	case *List:
		l := el(atom.Ul, "list-disc list-inside mb-4 space-y-1")
		if n.Ordered() {
			l = el(atom.Ol, "list-decimal list-inside mb-4 space-y-1")
		}
		r.children(l, n.Children)
		parent.AppendChild(l)
	case *ListItem:
		li := el(atom.Li, "mb-1")
		r.children(li, n.Children)
		parent.AppendChild(li)
	case *Quote:
		q := el(atom.Blockquote, "border-l-4 border-blue-500 pl-4 my-6 italic text-gray-700")
		r.children(q, n.Children)
		parent.AppendChild(q)
	case *Link:
		parent.AppendChild(r.link(n))
	case *Upload:
		parent.AppendChild(renderUpload(n.Value))
	case *HorizontalRule:
		parent.AppendChild(el(atom.Hr, "my-8 border-gray-300"))
	case *BlockNode:
		if b := r.block(n.Block); b != nil {
			parent.AppendChild(b)
		}
	case *Unknown:
		r.children(parent, n.Children)
	default:
		panic(fmt.Sprintf("richtext: no renderer for node %T", n))
	}
}

// formatText nests wrappers strong, em, u, s, code from the inside out.
func formatText(t *Text) *html.Node {
	n := text(t.Text)
	if t.Format.Has(FormatBold) {
		n = wrap(el(atom.Strong, ""), n)
	}
	if t.Format.Has(FormatItalic) {
		n = wrap(el(atom.Em, ""), n)
	}
	if t.Format.Has(FormatUnderline) {
		n = wrap(el(atom.U, ""), n)
	}
	if t.Format.Has(FormatStrikethrough) {
		n = wrap(el(atom.S, ""), n)
	}
	if t.Format.Has(FormatCode) {
		n = wrap(el(atom.Code, "bg-gray-100 px-1 py-0.5 rounded text-sm font-mono"), n)
	}
	return n
}

func (r *renderer) link(l *Link) *html.Node {
	href := l.URL
	if href == "" {
		href = "#"
	}
	a := el(atom.A, "text-blue-600 hover:text-blue-800 underline", "href", href)
	if l.NewTab {
		a.Attr = append(a.Attr,
			html.Attribute{Key: "target", Val: "_blank"},
			html.Attribute{Key: "rel", Val: "noopener noreferrer"},
		)
	}
	r.children(a, l.Children)
	return a
}

// NormalizeSrc prefixes a relative path with "/" unless it is absolute or
// already rooted.
func NormalizeSrc(src string) string {
	if src == "" || strings.HasPrefix(src, "http") || strings.HasPrefix(src, "/") {
		return src
	}
	return "/" + src
}

func renderUpload(ref MediaRef) *html.Node {
	if !ref.Resolved() {
		return unresolvedPlaceholder(ref.ID)
	}
	m := ref.Media
	if m.URL == "" {
		return invalidPlaceholder()
	}
	width, height := m.Width, m.Height
	if width == 0 {
		width = 800
	}
	if height == 0 {
		height = 400
	}
	div := el(atom.Div, "my-6")
	div.AppendChild(el(atom.Img, "rounded-lg shadow-md",
		"src", NormalizeSrc(m.URL),
		"alt", m.Alt,
		"width", strconv.Itoa(width),
		"height", strconv.Itoa(height),
		"loading", "lazy",
	))
	if m.Caption != "" {
		div.AppendChild(wrap(el(atom.P, "text-sm text-gray-600 mt-2 text-center italic"), text(m.Caption)))
	}
	return div
}

func unresolvedPlaceholder(id string) *html.Node {
	return wrap(el(atom.Div, "my-8 p-4 border-2 border-dashed border-gray-300 rounded-lg text-center text-gray-500",
		"data-media-id", id),
		wrap(el(atom.P, ""), text("Media not loaded (ID: "+id+")")),
		wrap(el(atom.P, "text-sm"), text("Note: Media relationships need to be populated server-side")),
	)
}

func invalidPlaceholder() *html.Node {
	return wrap(el(atom.Div, "my-8 p-4 border-2 border-dashed border-red-300 rounded-lg text-center text-red-500"),
		wrap(el(atom.P, ""), text("Invalid media object")),
	)
}
