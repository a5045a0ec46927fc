package richtext

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func (r *renderer) block(b Block) *html.Node {
	switch b := b.(type) {
	case *CodeBlock:
		return renderCodeBlock(b)
	case *Callout:
		return renderCallout(b)
	case *QuoteBlock:
		return renderQuoteBlock(b)
	case *Embed:
		return renderEmbed(b)
	case *ImageGallery:
		return renderGallery(b)
	case *MediaImage:
		return renderMediaImage(b)
	case *UnknownBlock:
		return nil
	default:
		panic(fmt.Sprintf("richtext: no renderer for block %T", b))
	}
}

func renderCodeBlock(b *CodeBlock) *html.Node {
	lang := b.Language
	if lang == "" {
		lang = "javascript"
	}
	wrapper := el(atom.Div, "code-block-wrapper my-6",
		"data-language", lang,
		"data-line-numbers", strconv.FormatBool(b.ShowLineNumbers),
		"data-highlight-lines", joinInts(b.HighlightLines),
	)
	preClass := "bg-gray-900 text-white p-4 overflow-x-auto rounded-b-lg"
	if b.Filename != "" {
		wrapper.AppendChild(wrap(
			el(atom.Div, "code-filename bg-gray-800 text-gray-200 px-4 py-2 text-sm font-mono border-b border-gray-700 rounded-t-lg"),
			text("📄 "+b.Filename),
		))
	} else {
		wrapper.AppendChild(wrap(
			el(atom.Div, "bg-gray-800 px-4 py-2 text-sm font-mono text-gray-300 rounded-t-lg"),
			text(lang),
		))
	}
	if b.ShowLineNumbers {
		preClass += " line-numbers"
	}
	code := wrap(el(atom.Code, "font-mono text-sm language-"+lang), text(b.Code))
	wrapper.AppendChild(wrap(el(atom.Pre, preClass), code))
	return wrapper
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

type calloutStyle struct {
	icon  string
	color string
}

var calloutStyles = map[CalloutType]calloutStyle{
	CalloutInfo:      {icon: "💡", color: "blue"},
	CalloutWarning:   {icon: "⚠️", color: "yellow"},
	CalloutError:     {icon: "❌", color: "red"},
	CalloutSuccess:   {icon: "✅", color: "green"},
	CalloutNote:      {icon: "📝", color: "gray"},
	CalloutTip:       {icon: "💭", color: "purple"},
	CalloutImportant: {icon: "🔥", color: "orange"},
}

func renderCallout(b *Callout) *html.Node {
	typ := b.Type
	style, ok := calloutStyles[typ]
	if !ok {
		typ = CalloutInfo
		style = calloutStyles[CalloutInfo]
	}
	icon := style.icon
	if b.Icon != "" {
		icon = b.Icon
	}
	c := style.color

	body := el(atom.Div, "flex-1 text-"+c+"-900")
	if b.Title != "" {
		body.AppendChild(wrap(el(atom.H4, "font-semibold text-base mb-2"), text(b.Title)))
	}
	body.AppendChild(wrap(el(atom.Div, "text-sm leading-relaxed whitespace-pre-wrap"), text(b.Content)))

	return wrap(el(atom.Div, classes("my-6 p-4 rounded-lg border", "bg-"+c+"-50", "border-"+c+"-200"),
		"data-callout", string(typ)),
		wrap(el(atom.Div, "flex items-start space-x-3"),
			wrap(el(atom.Div, "flex-shrink-0 w-8 h-8 rounded-full bg-"+c+"-100 flex items-center justify-center text-sm"),
				text(icon)),
			body,
		),
	)
}

func renderQuoteBlock(b *QuoteBlock) *html.Node {
	box := el(atom.Div, "my-8 p-6 bg-gray-50 rounded-xl border-l-4 border-blue-500")
	box.AppendChild(wrap(
		el(atom.Blockquote, "text-lg font-medium text-gray-900 leading-relaxed mb-6"),
		text("“"+b.Quote+"”"),
	))
	if b.Author == "" && b.Role == "" && b.Company == "" {
		return box
	}

	footer := el(atom.Footer, "flex items-center space-x-4")
	if b.Avatar.Resolved() && b.Avatar.Media.URL != "" {
		alt := b.Avatar.Media.Alt
		if alt == "" {
			alt = b.Author
		}
		if alt == "" {
			alt = "Author"
		}
		footer.AppendChild(wrap(el(atom.Div, "flex-shrink-0"),
			el(atom.Img, "w-12 h-12 rounded-full object-cover border-2 border-white shadow-sm",
				"src", NormalizeSrc(b.Avatar.Media.URL), "alt", alt, "width", "48", "height", "48"),
		))
	}
	details := el(atom.Div, "")
	if b.Author != "" {
		details.AppendChild(wrap(el(atom.Cite, "font-semibold not-italic text-gray-900"), text(b.Author)))
	}
	if b.Role != "" || b.Company != "" {
		line := b.Role
		if b.Role != "" && b.Company != "" {
			line += ", "
		}
		line += b.Company
		details.AppendChild(wrap(el(atom.Div, "text-sm text-gray-600"), text(line)))
	}
	footer.AppendChild(details)
	box.AppendChild(footer)
	return box
}

func renderEmbed(b *Embed) *html.Node {
	if b.URL == "" {
		return nil
	}
	title := b.Title
	if title == "" {
		title = "Embedded content"
	}
	box := el(atom.Div, "my-8")
	if b.Title != "" {
		box.AppendChild(wrap(el(atom.H4, "text-lg font-semibold mb-4 text-gray-900"), text(b.Title)))
	}
	box.AppendChild(wrap(
		el(atom.Div, classes("relative overflow-hidden rounded-lg shadow-lg", aspectClass(b.AspectRatio))),
		el(atom.Iframe, "absolute inset-0 w-full h-full border-0",
			"src", EmbedURL(b.URL),
			"title", title,
			"allow", "accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture",
			"allowfullscreen", "",
		),
	))
	box.AppendChild(wrap(el(atom.Div, "mt-2 text-center"),
		wrap(el(atom.A, "text-sm text-blue-600 hover:underline",
			"href", b.URL, "target", "_blank", "rel", "noopener noreferrer"),
			text("View original content ↗")),
	))
	return box
}

var gridColumns = map[int]string{
	2: "grid-cols-1 md:grid-cols-2",
	3: "grid-cols-1 md:grid-cols-2 lg:grid-cols-3",
	4: "grid-cols-1 md:grid-cols-2 lg:grid-cols-4",
}

func renderGallery(b *ImageGallery) *html.Node {
	layout := b.Layout
	switch layout {
	case LayoutCarousel, LayoutMasonry:
	default:
		layout = LayoutGrid
	}
	box := el(atom.Div, "image-gallery my-8", "data-layout", string(layout))

	var container *html.Node
	switch layout {
	case LayoutCarousel:
		container = el(atom.Div, "flex gap-4 pb-4")
		box.AppendChild(wrap(el(atom.Div, "relative"), wrap(el(atom.Div, "overflow-x-auto"), container)))
	case LayoutMasonry:
		container = el(atom.Div, "columns-1 md:columns-2 lg:columns-3 gap-4")
		box.AppendChild(container)
	default:
		cols, ok := gridColumns[b.Columns]
		if !ok {
			cols = gridColumns[3]
		}
		container = el(atom.Div, "grid gap-4 "+cols)
		box.AppendChild(container)
	}

	for _, item := range b.Images {
		container.AppendChild(galleryItem(layout, item))
	}
	return box
}

func galleryItem(layout GalleryLayout, item GalleryImage) *html.Node {
	var itemClass, frameClass, imgClass string
	switch layout {
	case LayoutCarousel:
		itemClass = "flex-shrink-0 w-80"
		frameClass = "relative aspect-video rounded-lg overflow-hidden"
		imgClass = "w-full h-full object-cover"
	case LayoutMasonry:
		itemClass = "break-inside-avoid mb-4"
		frameClass = "relative rounded-lg overflow-hidden"
		imgClass = "w-full h-auto hover:scale-105 transition-transform duration-300"
	default:
		itemClass = "group"
		frameClass = "relative overflow-hidden rounded-lg aspect-square"
		imgClass = "w-full h-full object-cover group-hover:scale-105 transition-transform duration-300"
	}

	div := el(atom.Div, itemClass)
	ref := item.Image
	switch {
	case !ref.Resolved():
		div.AppendChild(wrap(
			el(atom.Div, "aspect-square rounded-lg border-2 border-dashed border-gray-300 flex items-center justify-center text-sm text-gray-500",
				"data-media-id", ref.ID),
			text("Image not loaded (ID: "+ref.ID+")"),
		))
	case ref.Media.URL == "":
		div.AppendChild(wrap(
			el(atom.Div, "aspect-square rounded-lg border-2 border-dashed border-red-300 flex items-center justify-center text-sm text-red-500"),
			text("Invalid media object"),
		))
	default:
		alt := item.Alt
		if alt == "" {
			alt = ref.Media.Alt
		}
		div.AppendChild(wrap(el(atom.Div, frameClass),
			el(atom.Img, imgClass, "src", NormalizeSrc(ref.Media.URL), "alt", alt, "loading", "lazy"),
		))
	}
	if item.Caption != "" {
		div.AppendChild(wrap(el(atom.P, "mt-2 text-sm text-gray-600"), text(item.Caption)))
	}
	return div
}

type mediaSize struct {
	class string
	width string
}

var mediaSizes = map[string]mediaSize{
	"small":  {"max-w-sm", "384px"},
	"medium": {"max-w-2xl", "672px"},
	"large":  {"max-w-4xl", "896px"},
	"xl":     {"max-w-5xl", "1024px"},
	"full":   {"w-full", "100vw"},
}

var alignments = map[string]string{
	"left":   "mr-auto",
	"center": "mx-auto",
	"right":  "ml-auto",
}

func renderMediaImage(b *MediaImage) *html.Node {
	switch {
	case b.Media.IsZero():
		return invalidPlaceholder()
	case !b.Media.Resolved():
		return unresolvedPlaceholder(b.Media.ID)
	case b.Media.Media.URL == "":
		return invalidPlaceholder()
	}
	m := b.Media.Media

	size, ok := mediaSizes[b.Size]
	if !ok {
		size = mediaSizes["medium"]
	}
	align, ok := alignments[b.Alignment]
	if !ok {
		align = alignments["center"]
	}

	frame := "relative overflow-hidden"
	if b.Rounded {
		frame += " rounded-xl"
	}
	if b.Shadow {
		frame += " shadow-lg hover:shadow-xl"
	}
	frame += " transition-shadow duration-300"

	fig := el(atom.Figure, classes("my-8", size.class, align))
	fig.AppendChild(wrap(el(atom.Div, frame),
		el(atom.Img, "w-full h-auto object-cover",
			"src", NormalizeSrc(m.URL),
			"alt", m.Alt,
			"width", "1000",
			"height", "750",
			"sizes", "(max-width: 640px) 100vw, (max-width: 768px) 80vw, "+size.width,
			"loading", "lazy",
		),
	))
	caption := b.Caption
	if caption == "" {
		caption = m.Caption
	}
	if caption != "" {
		fig.AppendChild(wrap(el(atom.Figcaption, "mt-4 text-sm text-gray-600 text-center italic leading-relaxed"),
			text(caption)))
	}
	return fig
}
