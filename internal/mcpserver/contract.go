package mcpserver

// ContentFormat describes the rich-text JSON stored in a post's content
// field, for LLM consumers that read or build posts.
const ContentFormat = `# Folio Content Format

Post content is a rich-text tree serialised as JSON.

## Structure

` + "```" + `json
{
  "root": {
    "type": "root",
    "children": [
      {"type": "heading", "tag": "h2", "children": [{"type": "text", "text": "Intro"}]},
      {"type": "paragraph", "children": [
        {"type": "text", "text": "Plain, "},
        {"type": "text", "text": "bold", "format": 1},
        {"type": "link", "fields": {"url": "https://go.dev", "newTab": true},
         "children": [{"type": "text", "text": "a link"}]}
      ]},
      {"type": "block", "fields": {"blockType": "codeBlock", "language": "go", "code": "fmt.Println(1)"}}
    ]
  }
}
` + "```" + `

## Nodes

- ` + "`" + `paragraph` + "`" + `, ` + "`" + `heading` + "`" + ` (tag h1 to h6; anything else renders as h2), ` + "`" + `list` + "`" + ` (listType bullet or number) with ` + "`" + `listitem` + "`" + ` children, ` + "`" + `quote` + "`" + `, ` + "`" + `linebreak` + "`" + `, ` + "`" + `horizontalrule` + "`" + `.
- ` + "`" + `text` + "`" + ` carries a ` + "`" + `format` + "`" + ` bitmask: 1 bold, 2 italic, 4 strikethrough, 8 underline, 16 code.
- ` + "`" + `link` + "`" + ` reads ` + "`" + `fields.url` + "`" + ` and ` + "`" + `fields.newTab` + "`" + `.
- ` + "`" + `upload` + "`" + ` has ` + "`" + `value` + "`" + `: a media id or a populated media object.
- ` + "`" + `block` + "`" + ` has ` + "`" + `fields.blockType` + "`" + ` plus the block's own fields.

## Blocks

| blockType | fields |
|---|---|
| codeBlock | language, code, filename, showLineNumbers, highlightLines ("1,3-5") |
| callout | calloutType (info, warning, error, success, note, tip, important), title, content, icon |
| quote | quote, author, role, company, avatar (media) |
| embed | url, title, aspectRatio (16:9, 4:3, 1:1, 21:9) |
| imageGallery | images [{image, alt, caption}], layout (grid, carousel, masonry), columns |
| mediaImage | media, size, alignment, caption, rounded, shadow |

Older slugs ` + "`" + `code` + "`" + `, ` + "`" + `quoteBlock` + "`" + ` and ` + "`" + `imageBlock` + "`" + ` are still read.

## Media

- Media fields hold either an id string or a media object with at least ` + "`" + `url` + "`" + `.
- Ids that do not resolve render a "Media not loaded" placeholder.
- Import images with the ` + "`" + `import_media` + "`" + ` tool; it returns the media id to reference.
`
