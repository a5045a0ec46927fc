package richtext

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxHighlightSpan bounds a single "a-b" range in highlightLines.
const maxHighlightSpan = 1000

func (d *decoder) block(m map[string]any, path string) Block {
	payload := m
	fieldsPath := path
	fields, fromFields := m["fields"].(map[string]any)
	if fromFields {
		payload = fields
		fieldsPath = path + ".fields"
	}

	raw := getString(payload, "blockType")
	if raw == "" {
		raw = getString(m, "blockType")
	}
	if raw == "" {
		d.warn(DiagMissingBlockType, path, "block has no blockType")
		return nil
	}

	bt := BlockType(raw)
	if canonical, ok := legacyBlockTypes[raw]; ok {
		d.warn(DiagLegacyBlock, path, fmt.Sprintf("block type %q decoded as %q", raw, canonical))
		bt = canonical
	}

	switch bt {
	case BlockCode:
		return decodeCodeBlock(payload)
	case BlockCallout:
		return decodeCallout(payload, fromFields)
	case BlockQuote:
		return d.quoteBlock(payload, fieldsPath)
	case BlockEmbed:
		e := &Embed{
			URL:         getString(payload, "url"),
			Title:       getString(payload, "title"),
			AspectRatio: getString(payload, "aspectRatio"),
		}
		if e.URL == "" {
			d.warn(DiagMalformedNode, fieldsPath+".url", "embed without url")
		}
		return e
	case BlockImageGallery:
		return d.imageGallery(payload, fieldsPath)
	case BlockMediaImage:
		return d.mediaImage(payload, fieldsPath)
	default:
		d.warn(DiagUnknownBlock, path, fmt.Sprintf("unknown block type %q", raw))
		return &UnknownBlock{Type: raw, Fields: payload}
	}
}

func decodeCodeBlock(m map[string]any) *CodeBlock {
	return &CodeBlock{
		Language:        getString(m, "language"),
		Code:            getString(m, "code"),
		Filename:        getString(m, "filename"),
		ShowLineNumbers: getBoolDefault(m, "showLineNumbers", true),
		HighlightLines:  ParseLineRanges(getString(m, "highlightLines")),
	}
}

func decodeCallout(m map[string]any, fromFields bool) *Callout {
	typ := getString(m, "calloutType")
	// In the flattened shape "type" is the node discriminator.
	if typ == "" && fromFields {
		typ = getString(m, "type")
	}
	return &Callout{
		Type:    CalloutType(typ),
		Title:   getString(m, "title"),
		Content: getString(m, "content"),
		Icon:    getString(m, "icon"),
	}
}

func (d *decoder) quoteBlock(m map[string]any, path string) *QuoteBlock {
	q := &QuoteBlock{
		Quote:   getString(m, "quote"),
		Author:  getString(m, "author"),
		Role:    getString(m, "role"),
		Company: getString(m, "company"),
	}
	if q.Quote == "" {
		q.Quote = getString(m, "text")
	}
	if ref, ok := mediaRef(m["avatar"]); ok {
		d.checkMedia(ref, path+".avatar")
		q.Avatar = ref
	}
	return q
}

func (d *decoder) mediaImage(m map[string]any, path string) *MediaImage {
	mi := &MediaImage{
		Size:      getString(m, "size"),
		Alignment: getString(m, "alignment"),
		Caption:   getString(m, "caption"),
		Rounded:   getBoolDefault(m, "rounded", true),
		Shadow:    getBoolDefault(m, "shadow", true),
	}
	key := "media"
	if _, ok := m[key]; !ok {
		key = "image"
	}
	ref, ok := mediaRef(m[key])
	if !ok {
		d.warn(DiagInvalidMedia, path+"."+key, "mediaImage without media")
		return mi
	}
	d.checkMedia(ref, path+"."+key)
	mi.Media = ref
	return mi
}

func (d *decoder) imageGallery(m map[string]any, path string) *ImageGallery {
	g := &ImageGallery{
		Layout:  GalleryLayout(getString(m, "layout")),
		Columns: getInt(m, "columns"),
	}
	items, _ := m["images"].([]any)
	for i, item := range items {
		p := fmt.Sprintf("%s.images[%d]", path, i)
		im, ok := item.(map[string]any)
		if !ok {
			d.warn(DiagMalformedNode, p, "gallery item is not an object")
			continue
		}
		gi := GalleryImage{
			Alt:     getString(im, "alt"),
			Caption: getString(im, "caption"),
		}
		if ref, ok := mediaRef(im["image"]); ok {
			d.checkMedia(ref, p+".image")
			gi.Image = ref
		} else {
			d.warn(DiagInvalidMedia, p+".image", "gallery item without image")
		}
		g.Images = append(g.Images, gi)
	}
	return g
}

// ParseLineRanges parses "1,3,5-7" into a sorted, de-duplicated list of
// positive line numbers. Invalid parts are ignored.
func ParseLineRanges(s string) []int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	seen := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || a < 1 {
			continue
		}
		b := a
		if isRange {
			b, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || b < a {
				continue
			}
			if b-a > maxHighlightSpan {
				b = a + maxHighlightSpan
			}
		}
		for n := a; n <= b; n++ {
			seen[n] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
