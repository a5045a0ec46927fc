package richtext

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html/atom"
)

func contentWithMedia() map[string]any {
	return root(
		map[string]any{"type": "upload", "value": "a"},
		map[string]any{"type": "paragraph", "children": []any{
			map[string]any{"type": "upload", "value": float64(9)},
		}},
		map[string]any{"type": "block", "fields": map[string]any{"blockType": "mediaImage", "media": "b"}},
		map[string]any{"type": "block", "blockType": "imageGallery", "images": []any{
			map[string]any{"image": "c"},
			map[string]any{"image": "a"},
			map[string]any{"image": map[string]any{"id": "done", "url": "/d.png"}},
		}},
		map[string]any{"type": "block", "fields": map[string]any{"blockType": "quote", "quote": "q", "avatar": "d"}},
		map[string]any{"type": "block", "fields": map[string]any{"blockType": "imageBlock", "image": "e"}},
	)
}

func TestMediaIDs(t *testing.T) {
	got := MediaIDs(contentWithMedia())
	want := []string{"a", "9", "b", "c", "d", "e"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MediaIDs (-want +got):\n%s", diff)
	}
}

func TestPopulateMedia(t *testing.T) {
	in := contentWithMedia()
	before := deepCopy(in)

	media := map[string]map[string]any{
		"a": {"id": "a", "url": "/a.png"},
		"b": {"id": "b", "url": "/b.png", "caption": "bee"},
		"c": {"id": "c", "url": "/c.png"},
		"9": {"id": "9", "url": "/9.png"},
	}
	out := PopulateMedia(in, media)

	if diff := cmp.Diff(before, any(in)); diff != "" {
		t.Fatalf("input mutated:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"d", "e"}, MediaIDs(out)); diff != "" {
		t.Errorf("remaining ids (-want +got):\n%s", diff)
	}

	res := RenderValue(out)
	if got := res.Diagnostics.Count(DiagUnresolvedMedia); got != 2 {
		t.Errorf("unresolved after populate = %d, want 2 (%v)", got, res.Diagnostics)
	}
	if got := len(findAll(res.Root, atom.Img)); got != 6 {
		t.Errorf("images = %d, want 6", got)
	}
}
