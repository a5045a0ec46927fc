package richtext

// MediaIDs returns the distinct unresolved media ids referenced by a generic
// content tree, in document order.
func MediaIDs(v any) []string {
	var ids []string
	seen := make(map[string]struct{})
	eachMediaSlot(v, func(m map[string]any, key string) {
		id, ok := unresolvedID(m[key])
		if !ok {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	})
	return ids
}

// PopulateMedia returns a deep copy of v where every unresolved media id
// found in media is replaced by a copy of its object. Ids missing from media
// are left as they are. v itself is not modified.
func PopulateMedia(v any, media map[string]map[string]any) any {
	out := deepCopy(v)
	eachMediaSlot(out, func(m map[string]any, key string) {
		id, ok := unresolvedID(m[key])
		if !ok {
			return
		}
		if obj, found := media[id]; found {
			m[key] = deepCopy(obj)
		}
	})
	return out
}

func unresolvedID(v any) (string, bool) {
	switch v.(type) {
	case string, float64:
		id := idString(v)
		return id, id != ""
	default:
		return "", false
	}
}

// eachMediaSlot calls fn for every map entry that holds a media relation:
// upload values, mediaImage media, gallery images and quote avatars.
func eachMediaSlot(v any, fn func(m map[string]any, key string)) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			eachMediaSlot(item, fn)
		}
	case map[string]any:
		if root, ok := t["root"].(map[string]any); ok {
			eachMediaSlot(root, fn)
			return
		}
		switch t["type"] {
		case string(KindUpload):
			if _, ok := t["value"]; ok {
				fn(t, "value")
			}
		case string(KindBlock):
			blockSlots(t, fn)
		}
		if children, ok := t["children"].([]any); ok {
			eachMediaSlot(children, fn)
		}
	}
}

func blockSlots(node map[string]any, fn func(m map[string]any, key string)) {
	payload := node
	if fields, ok := node["fields"].(map[string]any); ok {
		payload = fields
	}
	bt := getString(payload, "blockType")
	if bt == "" {
		bt = getString(node, "blockType")
	}
	if canonical, ok := legacyBlockTypes[bt]; ok {
		bt = string(canonical)
	}

	switch BlockType(bt) {
	case BlockMediaImage:
		for _, key := range []string{"media", "image"} {
			if _, ok := payload[key]; ok {
				fn(payload, key)
				return
			}
		}
	case BlockImageGallery:
		images, _ := payload["images"].([]any)
		for _, item := range images {
			if im, ok := item.(map[string]any); ok {
				if _, ok := im["image"]; ok {
					fn(im, "image")
				}
			}
		}
	case BlockQuote:
		if _, ok := payload["avatar"]; ok {
			fn(payload, "avatar")
		}
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
