package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/richtext"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishDocument(ev sse.DocumentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Type()+":"+ev.ID)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

var clock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	svc    *Service
	files  storage.Provider
	events *recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	_, files := testutil.TestMedia(t)
	rec := &recorder{}
	n := 0
	svc := New(testutil.TestDB(t), files,
		WithClock(func() time.Time { return clock }),
		WithEvents(rec),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id%d", n) }),
		WithMediaURLPrefix("/media"),
	)
	return &env{svc: svc, files: files, events: rec}
}

func mustCreate(t *testing.T, s *Service, doc content.Document) {
	t.Helper()
	if _, err := s.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create %s: %v", doc.CollectionName(), err)
	}
}

// seed stores one of each collection and a post that references them all.
func seed(t *testing.T, e *env) *content.Post {
	t.Helper()
	ctx := context.Background()
	hero, err := e.svc.UploadMedia(ctx, Upload{Filename: "hero.png", Data: testutil.PNG, Alt: "Hero"})
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	avatar := &content.Media{ID: "avatar", URL: "/media/ada.png", Filename: "ada.png", MimeType: "image/png"}
	mustCreate(t, e.svc, avatar)
	mustCreate(t, e.svc, &content.User{ID: "u1", Name: "Ada", Email: "ADA@example.com", Avatar: content.Ref[content.Media]("avatar")})
	mustCreate(t, e.svc, &content.Category{ID: "c1", Name: "Go Tips"})
	mustCreate(t, e.svc, &content.Tag{ID: "t1", Name: "Concurrency"})

	p := &content.Post{
		ID:            "p1",
		Title:         "Hello Folio",
		Excerpt:       "First post",
		Author:        content.Ref[content.User]("u1"),
		Category:      content.Ref[content.Category]("c1"),
		Tags:          []content.Relation[content.Tag]{content.Ref[content.Tag]("t1")},
		FeaturedImage: content.Ref[content.Media](hero.ID),
		Content: map[string]any{"root": map[string]any{"children": []any{
			map[string]any{"type": "paragraph", "children": []any{map[string]any{"text": "Hello from folio"}}},
			map[string]any{"type": "block", "fields": map[string]any{"blockType": "mediaImage", "media": hero.ID}},
			map[string]any{"type": "upload", "value": "missing"},
		}}},
	}
	mustCreate(t, e.svc, p)
	return p
}

func TestCreateRunsHooks(t *testing.T) {
	e := newEnv(t)
	seed(t, e)
	ctx := context.Background()

	p, sum, err := e.svc.Post(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if p.Slug != "hello-folio" || p.Status != content.StatusDraft || p.ReadingTime != 1 {
		t.Errorf("hooks not applied: slug=%q status=%q readingTime=%d", p.Slug, p.Status, p.ReadingTime)
	}
	if !p.CreatedAt.Equal(clock) || sum == "" {
		t.Errorf("createdAt=%v checksum=%q", p.CreatedAt, sum)
	}

	u, _, err := Get[content.User](ctx, e.svc, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "ada@example.com" || u.Role != content.RoleAuthor {
		t.Errorf("user hooks: %+v", u)
	}
}

func TestGetPopulatesByDepth(t *testing.T) {
	e := newEnv(t)
	seed(t, e)
	ctx := context.Background()

	p, _, _ := e.svc.Post(ctx, "p1", 0)
	if p.Author.Resolved() || p.Category.Resolved() {
		t.Errorf("depth 0 populated relations: %+v", p.Author)
	}

	p, _, _ = e.svc.Post(ctx, "p1", 1)
	if !p.Author.Resolved() || p.Author.Value.Name != "Ada" {
		t.Fatalf("author not populated: %+v", p.Author)
	}
	if p.Author.Value.Avatar.Resolved() {
		t.Error("avatar populated at depth 1")
	}
	if !p.Category.Resolved() || !p.Tags[0].Resolved() || !p.FeaturedImage.Resolved() {
		t.Errorf("relations not populated: %+v", p)
	}
	if p.FeaturedImage.Value.Width != 1 || p.FeaturedImage.Value.URL != "/media/hero.png" {
		t.Errorf("featured image = %+v", p.FeaturedImage.Value)
	}

	root := p.Content.(map[string]any)["root"].(map[string]any)
	block := root["children"].([]any)[1].(map[string]any)
	media, ok := block["fields"].(map[string]any)["media"].(map[string]any)
	if !ok || media["url"] != "/media/hero.png" {
		t.Errorf("content media not populated: %#v", block)
	}
	upload := root["children"].([]any)[2].(map[string]any)
	if upload["value"] != "missing" {
		t.Errorf("missing media should stay an id: %#v", upload)
	}

	p, _, _ = e.svc.Post(ctx, "p1", 2)
	if !p.Author.Value.Avatar.Resolved() {
		t.Error("avatar not populated at depth 2")
	}
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := &content.Post{
		Title:    "Orphan",
		Excerpt:  "x",
		Content:  "text",
		Author:   content.Ref[content.User]("ghost"),
		Category: content.Ref[content.Category]("nowhere"),
	}
	_, err := e.svc.Create(ctx, p)
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("no validation.Errors in %v", err)
	}
	for _, field := range []string{"author", "category"} {
		if _, ok := verrs[field]; !ok {
			t.Errorf("missing %s error: %v", field, verrs)
		}
	}
	if len(e.events.list()) != 0 {
		t.Errorf("events for rejected document: %v", e.events.list())
	}
}

func TestDuplicateSlug(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mustCreate(t, e.svc, &content.Tag{Name: "Go"})
	if _, err := e.svc.Create(ctx, &content.Tag{Name: "GO"}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestPatchPost(t *testing.T) {
	e := newEnv(t)
	seed(t, e)
	ctx := context.Background()
	_, sum, _ := e.svc.Post(ctx, "p1", 0)

	if _, _, err := e.svc.PatchPost(ctx, "p1", map[string]any{"title": "x"}, "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("stale If-Match err = %v", err)
	}

	words := strings.Repeat("word ", 450)
	p, next, err := e.svc.PatchPost(ctx, "p1", map[string]any{
		"status":    "published",
		"content":   words,
		"id":        "hijack",
		"createdAt": "1999-01-01T00:00:00Z",
	}, sum)
	if err != nil {
		t.Fatalf("PatchPost: %v", err)
	}
	if next == sum {
		t.Error("checksum unchanged after patch")
	}
	if p.ID != "p1" || !p.CreatedAt.Equal(clock) {
		t.Errorf("read-only fields changed: id=%s createdAt=%v", p.ID, p.CreatedAt)
	}
	if p.Title != "Hello Folio" || p.Slug != "hello-folio" {
		t.Errorf("untouched fields lost: %+v", p)
	}
	if p.ReadingTime != 3 || p.PublishedAt == nil || !p.PublishedAt.Equal(clock) {
		t.Errorf("hooks not rerun: readingTime=%d publishedAt=%v", p.ReadingTime, p.PublishedAt)
	}
	if !p.Author.Resolved() {
		t.Error("patched post not populated")
	}

	if _, _, err := e.svc.PatchPost(ctx, "p1", map[string]any{"status": "pending"}, ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("invalid status err = %v", err)
	}
	if _, _, err := e.svc.PatchPost(ctx, "nope", map[string]any{}, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing post err = %v", err)
	}

	evs := e.events.list()
	if evs[len(evs)-1] != "post.updated:p1" {
		t.Errorf("last event = %v", evs)
	}
}

func TestPublicPosts(t *testing.T) {
	e := newEnv(t)
	seed(t, e)
	ctx := context.Background()

	for i, title := range []string{"Older", "Newer", "Hidden"} {
		at := clock.Add(time.Duration(i) * time.Hour)
		status := content.StatusPublished
		if title == "Hidden" {
			status = content.StatusDraft
		}
		mustCreate(t, e.svc, &content.Post{
			Title:       title,
			Excerpt:     "x",
			Content:     "body",
			Author:      content.Ref[content.User]("u1"),
			Category:    content.Ref[content.Category]("c1"),
			Status:      status,
			PublishedAt: &at,
		})
	}

	page, err := e.svc.PublicPosts(ctx, 1, 1)
	if err != nil {
		t.Fatalf("PublicPosts: %v", err)
	}
	if page.TotalDocs != 2 || page.TotalPages != 2 || !page.HasNextPage || page.HasPrevPage {
		t.Errorf("page meta = %+v", page)
	}
	if len(page.Docs) != 1 || page.Docs[0].Title != "Newer" || !page.Docs[0].Author.Resolved() {
		t.Errorf("first doc = %+v", page.Docs)
	}

	page, _ = e.svc.PublicPosts(ctx, 1, 2)
	if len(page.Docs) != 1 || page.Docs[0].Title != "Older" {
		t.Errorf("second page = %+v", page.Docs)
	}

	all, _ := e.svc.Posts(ctx, ListParams{Limit: 500})
	if all.Limit != MaxLimit || all.TotalDocs != 4 {
		t.Errorf("list all = limit %d total %d", all.Limit, all.TotalDocs)
	}
}

func TestUploadMedia(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.svc.UploadMedia(ctx, Upload{Filename: "My Photo.PNG", Data: testutil.PNG, Caption: "c"})
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if m.Filename != "My-Photo.png" || m.MimeType != "image/png" || m.Width != 1 || m.Height != 1 {
		t.Errorf("media = %+v", m)
	}
	if m.URL != "/media/My-Photo.png" || m.ThumbnailURL != m.URL {
		t.Errorf("urls = %q %q", m.URL, m.ThumbnailURL)
	}

	again, err := e.svc.UploadMedia(ctx, Upload{Filename: "My Photo.PNG", Data: testutil.PNG})
	if err != nil {
		t.Fatal(err)
	}
	if again.Filename != "My-Photo-1.png" {
		t.Errorf("second upload name = %q", again.Filename)
	}

	// extension recovered from content sniffing
	sniffed, err := e.svc.UploadMedia(ctx, Upload{Filename: "blob", Data: testutil.PNG})
	if err != nil || sniffed.Filename != "blob.png" {
		t.Errorf("sniffed = %+v, %v", sniffed, err)
	}

	if _, err := e.svc.UploadMedia(ctx, Upload{Filename: "notes.txt", Data: []byte("plain text")}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("text upload err = %v", err)
	}
	if _, err := e.svc.UploadMedia(ctx, Upload{Filename: "empty.png"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty upload err = %v", err)
	}

	if err := e.svc.Delete(ctx, content.CollectionMedia, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if e.files.Exists("My-Photo.png") {
		t.Error("media file left behind after delete")
	}
}

func TestMediaThumbnailFollowsURLPrefix(t *testing.T) {
	_, files := testutil.TestMedia(t)
	svc := New(testutil.TestDB(t), files, WithMediaURLPrefix("/assets"))
	ctx := context.Background()

	mustCreate(t, svc, &content.Media{
		ID:           "m1",
		URL:          "/assets/m1.png",
		Filename:     "m1.png",
		MimeType:     "image/png",
		ThumbnailURL: "/assets/m1-thumb.png",
		Sizes:        &content.MediaSizes{Thumbnail: &content.ImageSize{CloudinaryURL: "https://res.example/m1.png"}},
	})
	m, _, err := Get[content.Media](ctx, svc, "m1", 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.ThumbnailURL != "https://res.example/m1.png" {
		t.Errorf("thumbnailUrl = %q", m.ThumbnailURL)
	}
}

func TestRegisterAndForgetFile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if err := e.files.Write("dropped.png", testutil.PNG); err != nil {
		t.Fatal(err)
	}

	m, kind, err := e.svc.RegisterFile(ctx, "dropped.png")
	if err != nil || kind != sse.Created || m.URL != "/media/dropped.png" {
		t.Fatalf("RegisterFile = %+v, %q, %v", m, kind, err)
	}
	if _, kind, _ := e.svc.RegisterFile(ctx, "dropped.png"); kind != "" {
		t.Errorf("unchanged file reported %q", kind)
	}

	_ = e.files.Write("dropped.png", append(append([]byte{}, testutil.PNG...), 0))
	if got, kind, err := e.svc.RegisterFile(ctx, "dropped.png"); err != nil || kind != sse.Updated || got.Filesize != int64(len(testutil.PNG)+1) {
		t.Errorf("rewritten file = %+v, %q, %v", got, kind, err)
	}

	// external media is never treated as a local file
	mustCreate(t, e.svc, &content.Media{Filename: "remote.png", URL: "https://cdn.example/remote.png"})
	files, _ := e.svc.LocalFiles(ctx)
	if _, ok := files["dropped.png"]; !ok || len(files) != 1 {
		t.Errorf("LocalFiles = %v", files)
	}

	if err := e.svc.ForgetFile(ctx, "dropped.png"); err != nil {
		t.Fatalf("ForgetFile: %v", err)
	}
	if _, _, err := Get[content.Media](ctx, e.svc, m.ID, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("media still stored: %v", err)
	}
}

func TestResetContent(t *testing.T) {
	e := newEnv(t)
	seed(t, e)
	ctx := context.Background()

	n, err := e.svc.ResetAllContent(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetAllContent = %d, %v", n, err)
	}
	c, err := e.svc.PostContent(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	doc, _ := richtext.Decode(c)
	if got := richtext.PlainText(doc); got != ResetMessage {
		t.Errorf("content = %q", got)
	}
}

func TestRenderPost(t *testing.T) {
	e := newEnv(t)
	seed(t, e)
	ctx := context.Background()

	var calls int
	e.svc.observe = func(res *richtext.Result, _ time.Duration) { calls++ }

	p, _, _ := e.svc.Post(ctx, "p1", 1)
	out := e.svc.RenderPost(p).HTML()
	if !strings.Contains(out, `src="/media/hero.png"`) {
		t.Errorf("populated image missing: %s", out)
	}
	if !strings.Contains(out, "Media not loaded (ID: missing)") {
		t.Errorf("placeholder missing: %s", out)
	}
	if calls != 1 {
		t.Errorf("observer calls = %d", calls)
	}

	e.svc.renderOp = []richtext.Option{richtext.WithHeadingFallback("h5")}
	res := e.svc.RenderJSON([]byte(`[{"type":"heading","tag":"x","children":[{"type":"text","text":"T"}]}]`))
	if !strings.Contains(res.HTML(), "<h5") {
		t.Errorf("RenderJSON ignored render options: %s", res.HTML())
	}
	if calls != 2 {
		t.Errorf("observer calls = %d", calls)
	}
}

func TestSearchAndDebug(t *testing.T) {
	e := newEnv(t)
	seed(t, e)
	ctx := context.Background()

	res, err := e.svc.Search(ctx, "folio", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].ID != "p1" {
		t.Errorf("search = %+v", res)
	}
	none, _ := e.svc.Search(ctx, "zebra", 10)
	if none == nil || len(none) != 0 {
		t.Errorf("empty search = %#v", none)
	}

	dbg, err := e.svc.DebugSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(dbg.Media) != 2 || dbg.Post == nil || dbg.ContentStructure == nil {
		t.Errorf("debug = %+v", dbg)
	}
}

func TestDeleteMissing(t *testing.T) {
	e := newEnv(t)
	if err := e.svc.Delete(context.Background(), content.CollectionTags, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}
