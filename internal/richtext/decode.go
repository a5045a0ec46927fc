package richtext

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Parse decodes raw JSON content. Invalid JSON yields an empty document and
// a DiagInvalidJSON diagnostic.
func Parse(data []byte) (*Document, Diagnostics) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &Document{}, Diagnostics{{Kind: DiagInvalidJSON, Path: "$", Message: err.Error()}}
	}
	return Decode(v)
}

// Decode builds a typed Document from a generic JSON value. Accepted shapes
// are a node array, a {root:{children}} wrapper, a single node object, or a
// plain string.
func Decode(v any) (*Document, Diagnostics) {
	d := &decoder{}
	doc := &Document{}

	switch t := v.(type) {
	case nil:
		d.warn(DiagEmptyContent, "$", "no content provided")
	case string:
		if t != "" {
			doc.Children = []Node{&Text{Text: t}}
		}
	case []any:
		doc.Children = d.nodes(t, "$")
	case map[string]any:
		root, ok := t["root"]
		if !ok {
			if n := d.node(t, "$"); n != nil {
				doc.Children = []Node{n}
			}
			break
		}
		rm, ok := root.(map[string]any)
		if !ok {
			d.warn(DiagMalformedNode, "$.root", "root is not an object")
			break
		}
		children, ok := rm["children"].([]any)
		if !ok {
			d.warn(DiagEmptyContent, "$.root", "root has no children")
			break
		}
		doc.Children = d.nodes(children, "$.root.children")
	default:
		d.warn(DiagMalformedNode, "$", fmt.Sprintf("unsupported content of type %T", v))
	}

	return doc, d.diags
}

type decoder struct {
	diags Diagnostics
}

func (d *decoder) warn(kind DiagnosticKind, path, msg string) {
	d.diags = append(d.diags, Diagnostic{Kind: kind, Path: path, Message: msg})
}

func (d *decoder) nodes(items []any, path string) []Node {
	out := make([]Node, 0, len(items))
	for i, item := range items {
		p := fmt.Sprintf("%s[%d]", path, i)
		var n Node
		switch v := item.(type) {
		case string:
			n = &Text{Text: v}
		case map[string]any:
			n = d.node(v, p)
		case nil:
			d.warn(DiagMalformedNode, p, "null node")
		default:
			d.warn(DiagMalformedNode, p, fmt.Sprintf("node of type %T", item))
		}
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (d *decoder) children(m map[string]any, path string) []Node {
	items, _ := m["children"].([]any)
	return d.nodes(items, path+".children")
}

func (d *decoder) node(m map[string]any, path string) Node {
	typ, _ := m["type"].(string)

	switch Kind(typ) {
	case KindText:
		return d.text(m, path)
	case KindLineBreak:
		return &LineBreak{}
	case KindParagraph:
		return &Paragraph{Children: d.children(m, path)}
	case KindHeading:
		return &Heading{Tag: getString(m, "tag"), Children: d.children(m, path)}
	case KindList:
		return &List{ListType: getString(m, "listType"), Children: d.children(m, path)}
	case KindListItem:
		return &ListItem{Children: d.children(m, path)}
	case KindQuote:
		return &Quote{Children: d.children(m, path)}
	case KindLink:
		return d.link(m, path)
	case KindUpload:
		return d.upload(m, path)
	case KindHorizontalRule:
		return &HorizontalRule{}
	case KindBlock:
		b := d.block(m, path)
		if b == nil {
			return nil
		}
		return &BlockNode{Block: b}
	case "":
		if _, ok := m["text"]; ok {
			return d.text(m, path)
		}
		d.warn(DiagMalformedNode, path, "node has no type")
		return nil
	default:
		u := &Unknown{Type: typ, Raw: m}
		if _, ok := m["children"]; ok {
			u.Children = d.children(m, path)
		}
		d.warn(DiagUnknownNode, path, fmt.Sprintf("unknown node type %q", typ))
		return u
	}
}

func (d *decoder) text(m map[string]any, path string) Node {
	s, ok := m["text"].(string)
	if !ok {
		d.warn(DiagMalformedNode, path, "text node without string text")
		return nil
	}
	t := &Text{Text: s}
	if n, ok := m["format"].(float64); ok && n > 0 {
		t.Format = Format(int(n)) & (FormatBold | FormatItalic | FormatStrikethrough | FormatUnderline | FormatCode)
	}
	if getBool(m, "bold") {
		t.Format |= FormatBold
	}
	if getBool(m, "italic") {
		t.Format |= FormatItalic
	}
	if getBool(m, "underline") {
		t.Format |= FormatUnderline
	}
	if getBool(m, "strikethrough") {
		t.Format |= FormatStrikethrough
	}
	// code may be a bool flag or a non-empty string.
	switch c := m["code"].(type) {
	case bool:
		if c {
			t.Format |= FormatCode
		}
	case string:
		if c != "" {
			t.Format |= FormatCode
		}
	}
	return t
}

func (d *decoder) link(m map[string]any, path string) Node {
	l := &Link{
		URL:      getString(m, "url"),
		NewTab:   getBool(m, "newTab"),
		Children: d.children(m, path),
	}
	if fields, ok := m["fields"].(map[string]any); ok {
		if l.URL == "" {
			l.URL = getString(fields, "url")
		}
		if !l.NewTab {
			l.NewTab = getBool(fields, "newTab")
		}
	}
	return l
}

func (d *decoder) upload(m map[string]any, path string) Node {
	ref, ok := mediaRef(m["value"])
	if !ok {
		d.warn(DiagMalformedNode, path+".value", "upload without value")
		return nil
	}
	d.checkMedia(ref, path+".value")
	return &Upload{Value: ref}
}

// checkMedia records diagnostics for placeholders the renderer will emit.
func (d *decoder) checkMedia(ref MediaRef, path string) {
	switch {
	case ref.IsZero():
	case !ref.Resolved():
		d.warn(DiagUnresolvedMedia, path, fmt.Sprintf("media %q is not populated", ref.ID))
	case ref.Media.URL == "":
		d.warn(DiagInvalidMedia, path, "media object has no url")
	}
}

// mediaRef reads a relation value: an id string/number or a populated object.
func mediaRef(v any) (MediaRef, bool) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return MediaRef{}, false
		}
		return MediaRef{ID: t}, true
	case float64:
		return MediaRef{ID: strconv.FormatFloat(t, 'f', -1, 64)}, true
	case map[string]any:
		m := &Media{
			ID:      idString(t["id"]),
			URL:     getString(t, "url"),
			Alt:     getString(t, "alt"),
			Caption: getString(t, "caption"),
			Width:   getInt(t, "width"),
			Height:  getInt(t, "height"),
		}
		return MediaRef{ID: m.ID, Media: m}, true
	default:
		return MediaRef{}, false
	}
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func getBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// getBoolDefault returns def when the key is absent or not a bool.
func getBoolDefault(m map[string]any, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

func getInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}
