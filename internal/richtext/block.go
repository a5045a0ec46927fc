package richtext

// BlockType discriminates schema-defined blocks.
type BlockType string

const (
	BlockCode         BlockType = "codeBlock"
	BlockCallout      BlockType = "callout"
	BlockQuote        BlockType = "quote"
	BlockEmbed        BlockType = "embed"
	BlockImageGallery BlockType = "imageGallery"
	BlockMediaImage   BlockType = "mediaImage"
)

// BlockTypes lists every canonical block type.
var BlockTypes = []BlockType{
	BlockCode,
	BlockCallout,
	BlockQuote,
	BlockEmbed,
	BlockImageGallery,
	BlockMediaImage,
}

// legacyBlockTypes maps older block slugs onto canonical ones.
var legacyBlockTypes = map[string]BlockType{
	"code":       BlockCode,
	"quoteBlock": BlockQuote,
	"imageBlock": BlockMediaImage,
}

// Block is a closed set of block records.
type Block interface {
	BlockType() BlockType
	isBlock()
}

// CodeBlock is a literal code sample.
type CodeBlock struct {
	Language        string
	Code            string
	Filename        string
	ShowLineNumbers bool
	HighlightLines  []int
}

// CalloutType is one of the fixed callout styles.
type CalloutType string

const (
	CalloutInfo      CalloutType = "info"
	CalloutWarning   CalloutType = "warning"
	CalloutError     CalloutType = "error"
	CalloutSuccess   CalloutType = "success"
	CalloutNote      CalloutType = "note"
	CalloutTip       CalloutType = "tip"
	CalloutImportant CalloutType = "important"
)

// Callout is a highlighted aside.
type Callout struct {
	Type    CalloutType
	Title   string
	Content string
	Icon    string
}

// QuoteBlock is a pull quote with attribution.
type QuoteBlock struct {
	Quote   string
	Author  string
	Role    string
	Company string
	Avatar  MediaRef
}

// Embed is an iframe embed of an external URL.
type Embed struct {
	URL         string
	Title       string
	AspectRatio string
}

// GalleryLayout selects the gallery DOM structure.
type GalleryLayout string

const (
	LayoutGrid     GalleryLayout = "grid"
	LayoutCarousel GalleryLayout = "carousel"
	LayoutMasonry  GalleryLayout = "masonry"
)

// GalleryImage is one gallery entry.
type GalleryImage struct {
	Image   MediaRef
	Alt     string
	Caption string
}

// ImageGallery is a set of images in one of three layouts.
type ImageGallery struct {
	Images  []GalleryImage
	Layout  GalleryLayout
	Columns int
}

// MediaImage is a single sized and aligned image.
type MediaImage struct {
	Media     MediaRef
	Size      string
	Alignment string
	Caption   string
	Rounded   bool
	Shadow    bool
}

// UnknownBlock keeps an unrecognized block payload.
type UnknownBlock struct {
	Type   string
	Fields map[string]any
}

func (*CodeBlock) BlockType() BlockType    { return BlockCode }
func (*Callout) BlockType() BlockType      { return BlockCallout }
func (*QuoteBlock) BlockType() BlockType   { return BlockQuote }
func (*Embed) BlockType() BlockType        { return BlockEmbed }
func (*ImageGallery) BlockType() BlockType { return BlockImageGallery }
func (*MediaImage) BlockType() BlockType   { return BlockMediaImage }
func (b *UnknownBlock) BlockType() BlockType {
	return BlockType(b.Type)
}

func (*CodeBlock) isBlock()    {}
func (*Callout) isBlock()      {}
func (*QuoteBlock) isBlock()   {}
func (*Embed) isBlock()        {}
func (*ImageGallery) isBlock() {}
func (*MediaImage) isBlock()   {}
func (*UnknownBlock) isBlock() {}
