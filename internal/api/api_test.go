package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/folio/internal/blog"
	"github.com/starford/folio/internal/cloudinary"
	"github.com/starford/folio/internal/testutil"
)

type testEnv struct {
	svc      *blog.Service
	router   http.Handler
	mediaDir string
}

// newTestEnv sets up a temp media dir, SQLite DB, service, and router.
// An empty token means disabled auth mode.
func newTestEnv(t *testing.T, token string, cloud *cloudinary.Client) *testEnv {
	t.Helper()
	dir, files := testutil.TestMedia(t)
	n := 0
	svc := blog.New(testutil.TestDB(t), files,
		blog.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
		blog.WithIDGenerator(func() string { n++; return fmt.Sprintf("id%d", n) }),
	)
	router := NewRouter(Config{
		Service:     svc,
		Cloudinary:  cloud,
		AuthEnabled: token != "",
		Token:       token,
		Sanitize:    true,
	})
	return &testEnv{svc: svc, router: router, mediaDir: dir}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func multipartBody(t *testing.T, field, filename string, data []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		_ = mw.WriteField(k, v)
	}
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(data)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func paragraph(text string) map[string]any {
	return map[string]any{"root": map[string]any{"type": "root", "children": []any{
		map[string]any{"type": "paragraph", "children": []any{
			map[string]any{"type": "text", "text": text},
		}},
	}}}
}

// seedPost creates an author, a category and a post through the API and
// returns the post id.
func seedPost(t *testing.T, e *testEnv, header ...string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/users", map[string]any{"name": "Ada", "email": "ada@example.com", "role": "admin"}, header...)
	if w.Code != http.StatusCreated {
		t.Fatalf("create user = %d %s", w.Code, w.Body.String())
	}
	user := decode(t, w)["id"].(string)

	w = e.do(t, http.MethodPost, "/categories", map[string]any{"name": "Go Tips"}, header...)
	if w.Code != http.StatusCreated {
		t.Fatalf("create category = %d %s", w.Code, w.Body.String())
	}
	cat := decode(t, w)["id"].(string)

	content := paragraph("hello world")
	content["root"].(map[string]any)["children"] = append(content["root"].(map[string]any)["children"].([]any),
		map[string]any{"type": "upload", "value": "missing-media"})
	w = e.do(t, http.MethodPost, "/posts", map[string]any{
		"title":    "Hello World",
		"excerpt":  "First post",
		"content":  content,
		"author":   user,
		"category": cat,
		"status":   "published",
	}, header...)
	if w.Code != http.StatusCreated {
		t.Fatalf("create post = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("ETag") == "" {
		t.Error("create response missing ETag")
	}
	return decode(t, w)["id"].(string)
}

func TestCreateAndGetPost(t *testing.T) {
	e := newTestEnv(t, "", nil)
	id := seedPost(t, e)

	w := e.do(t, http.MethodGet, "/posts/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	post := decode(t, w)
	if post["slug"] != "hello-world" {
		t.Errorf("slug = %v", post["slug"])
	}
	author, ok := post["author"].(map[string]any)
	if !ok || author["name"] != "Ada" {
		t.Errorf("author not populated: %v", post["author"])
	}

	w = e.do(t, http.MethodGet, "/posts/"+id+"?depth=0", nil)
	if got := decode(t, w)["author"]; got != "id1" {
		t.Errorf("depth=0 author = %v, want id", got)
	}

	w = e.do(t, http.MethodGet, "/posts/slug/hello-world", nil)
	if w.Code != http.StatusOK || decode(t, w)["id"] != id {
		t.Errorf("by slug = %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/posts/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing post = %d", w.Code)
	}
}

func TestCreatePostValidation(t *testing.T) {
	e := newTestEnv(t, "", nil)
	w := e.do(t, http.MethodPost, "/posts", map[string]any{"title": "No author", "author": "ghost"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["error"] != "validation failed" {
		t.Errorf("error = %v", body["error"])
	}
	details, _ := body["details"].(map[string]any)
	if details["author"] == nil {
		t.Errorf("details = %v", details)
	}

	w = e.do(t, http.MethodPost, "/posts", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty body = %d", w.Code)
	}
}

func TestPatchPostIfMatch(t *testing.T) {
	e := newTestEnv(t, "", nil)
	id := seedPost(t, e)

	etag := e.do(t, http.MethodGet, "/posts/"+id, nil).Header().Get("ETag")

	w := e.do(t, http.MethodPatch, "/posts/"+id, map[string]any{"excerpt": "stale"}, "If-Match", `"deadbeef"`)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale If-Match = %d", w.Code)
	}

	w = e.do(t, http.MethodPatch, "/posts/"+id, map[string]any{"excerpt": "Updated", "id": "hijack"}, "If-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["excerpt"] != "Updated" || got["id"] != id {
		t.Errorf("patched = %v", got)
	}
	if next := w.Header().Get("ETag"); next == "" || next == etag {
		t.Errorf("ETag not refreshed: %q", next)
	}

	w = e.do(t, http.MethodPatch, "/posts/"+id, map[string]any{"slug": "Not A Slug"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid patch = %d", w.Code)
	}
	w = e.do(t, http.MethodPatch, "/posts/missing", map[string]any{"excerpt": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("patch missing = %d", w.Code)
	}
}

func TestDeletePost(t *testing.T) {
	e := newTestEnv(t, "", nil)
	id := seedPost(t, e)

	w := e.do(t, http.MethodDelete, "/posts/"+id, nil)
	if w.Code != http.StatusOK || decode(t, w)["success"] != true {
		t.Fatalf("delete = %d %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodGet, "/posts/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("after delete = %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/posts/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("double delete = %d", w.Code)
	}
}

func TestPublicPosts(t *testing.T) {
	e := newTestEnv(t, "", nil)
	seedPost(t, e)
	w := e.do(t, http.MethodPost, "/posts", map[string]any{
		"title": "Draft", "excerpt": "d", "content": paragraph("x"), "author": "id1", "category": "id2",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create draft = %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/public-posts?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	page := decode(t, w)
	if page["totalDocs"] != float64(1) || page["limit"] != float64(5) || page["page"] != float64(1) {
		t.Errorf("page = %v", page)
	}
	docs := page["docs"].([]any)
	if docs[0].(map[string]any)["title"] != "Hello World" {
		t.Errorf("docs = %v", docs)
	}

	w = e.do(t, http.MethodGet, "/posts?status=draft", nil)
	if got := decode(t, w)["totalDocs"]; got != float64(1) {
		t.Errorf("draft total = %v", got)
	}
}

func TestRenderPostHTML(t *testing.T) {
	e := newTestEnv(t, "", nil)
	id := seedPost(t, e)

	w := e.do(t, http.MethodGet, "/posts/"+id+"/html", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res struct {
		HTML        string `json:"html"`
		Failed      bool   `json:"failed"`
		Diagnostics []struct {
			Kind string `json:"kind"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.HTML, ">hello world</p>") {
		t.Errorf("html = %s", res.HTML)
	}
	if !strings.Contains(res.HTML, "Media not loaded (ID: missing-media)") {
		t.Errorf("placeholder missing: %s", res.HTML)
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Kind == "unresolved-media" {
			found = true
		}
	}
	if !found || res.Failed {
		t.Errorf("diagnostics = %+v failed = %v", res.Diagnostics, res.Failed)
	}
}

func TestFixContent(t *testing.T) {
	e := newTestEnv(t, "", nil)
	id := seedPost(t, e)

	w := e.do(t, http.MethodPost, "/posts/"+id+"/content", map[string]string{"action": "reset-content"})
	if w.Code != http.StatusOK || decode(t, w)["success"] != true {
		t.Fatalf("reset = %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/posts/"+id+"/content", map[string]string{"action": "get-content"})
	if w.Code != http.StatusOK {
		t.Fatalf("get-content = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), blog.ResetMessage) {
		t.Errorf("content not reset: %s", w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/posts/"+id+"/content", map[string]string{"action": "explode"})
	if w.Code != http.StatusBadRequest || decode(t, w)["message"] != "Invalid action" {
		t.Errorf("bad action = %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/reset-all-posts", nil)
	if w.Code != http.StatusOK || decode(t, w)["message"] != "Reset 1 posts successfully" {
		t.Errorf("reset all = %d %s", w.Code, w.Body.String())
	}
}

func TestAuthTokenMode(t *testing.T) {
	e := newTestEnv(t, "secret", nil)
	id := seedPost(t, e, "Authorization", "Bearer secret")

	if w := e.do(t, http.MethodGet, "/posts/"+id, nil); w.Code != http.StatusOK {
		t.Errorf("public read = %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/posts/"+id, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("delete without token = %d", w.Code)
	}
	if w := e.do(t, http.MethodPatch, "/posts/"+id, map[string]any{}, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("patch with wrong token = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/tags", map[string]any{"name": "x"}); w.Code != http.StatusUnauthorized {
		t.Errorf("create tag without token = %d", w.Code)
	}
}

func TestCollections(t *testing.T) {
	e := newTestEnv(t, "", nil)

	w := e.do(t, http.MethodPost, "/tags", map[string]any{"name": "Concurrency Patterns"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create tag = %d %s", w.Code, w.Body.String())
	}
	tag := decode(t, w)
	if tag["slug"] != "concurrency-patterns" {
		t.Errorf("slug = %v", tag["slug"])
	}

	w = e.do(t, http.MethodPost, "/tags", map[string]any{"name": "Concurrency Patterns"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate slug = %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/tags", nil)
	if got := decode(t, w)["totalDocs"]; got != float64(1) {
		t.Errorf("totalDocs = %v", got)
	}

	id := tag["id"].(string)
	w = e.do(t, http.MethodPatch, "/tags/"+id, map[string]any{"color": "#ff0000"})
	if w.Code != http.StatusOK || decode(t, w)["color"] != "#ff0000" {
		t.Errorf("patch tag = %d %s", w.Code, w.Body.String())
	}

	if w := e.do(t, http.MethodDelete, "/tags/"+id, nil); w.Code != http.StatusOK {
		t.Errorf("delete tag = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/tags/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted tag = %d", w.Code)
	}
}

func TestSearch(t *testing.T) {
	e := newTestEnv(t, "", nil)
	seedPost(t, e)

	if w := e.do(t, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d", w.Code)
	}
	w := e.do(t, http.MethodGet, "/search?q=hello", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	results := decode(t, w)["results"].([]any)
	if len(results) != 1 {
		t.Errorf("results = %v", results)
	}
}

func TestDebug(t *testing.T) {
	e := newTestEnv(t, "", nil)
	seedPost(t, e)
	w := e.do(t, http.MethodGet, "/debug", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("debug = %d", w.Code)
	}
	body := decode(t, w)
	if body["post"] == nil || body["contentStructure"] == nil {
		t.Errorf("debug = %v", body)
	}
}

func TestUploadAndServeMedia(t *testing.T) {
	e := newTestEnv(t, "", nil)

	body, ct := multipartBody(t, "file", "My Photo.png", testutil.PNG, map[string]string{"alt": "A photo"})
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	if m["alt"] != "A photo" || m["mimeType"] != "image/png" {
		t.Errorf("media = %v", m)
	}
	filename := m["filename"].(string)
	if _, err := os.Stat(filepath.Join(e.mediaDir, filename)); err != nil {
		t.Fatalf("file not stored: %v", err)
	}

	files := chi.NewRouter()
	files.Get("/media/*", MediaFiles(e.mediaDir))

	w = httptest.NewRecorder()
	files.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/"+filename, nil))
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), testutil.PNG) {
		t.Errorf("serve = %d (%d bytes)", w.Code, w.Body.Len())
	}

	_ = os.WriteFile(filepath.Join(e.mediaDir, ".hidden.png"), testutil.PNG, 0o644)
	for _, p := range []string{"/media/.hidden.png", "/media/nope.png", "/media/notes.txt"} {
		w = httptest.NewRecorder()
		files.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d", p, w.Code)
		}
	}

	body, ct = multipartBody(t, "", "", nil, map[string]string{"alt": "x"})
	req = httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("upload without file = %d", w.Code)
	}
}

func TestCloudinaryNotConfigured(t *testing.T) {
	e := newTestEnv(t, "", nil)
	body, ct := multipartBody(t, "file", "a.png", testutil.PNG, nil)
	req := httptest.NewRequest(http.MethodPost, "/cloudinary-upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode(t, w)["error"]; got != notConfiguredMessage {
		t.Errorf("error = %v", got)
	}

	w = e.do(t, http.MethodGet, "/test-upload", nil)
	env := decode(t, w)["env"].(map[string]any)
	if env["cloudinary_configured"] != false || env["cloudinary_cloud_name"] != "Not Set" {
		t.Errorf("env = %v", env)
	}
}

func TestCloudinaryUpload(t *testing.T) {
	fail := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid image file"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"public_id":"folio/a","secure_url":"https://res.example/a.png"}`))
	}))
	defer upstream.Close()

	cloud := cloudinary.New(cloudinary.Config{
		CloudName: "demo", APIKey: "key", APISecret: "secret", BaseURL: upstream.URL,
	})
	e := newTestEnv(t, "", cloud)

	post := func() *httptest.ResponseRecorder {
		body, ct := multipartBody(t, "file", "a.png", testutil.PNG, nil)
		req := httptest.NewRequest(http.MethodPost, "/cloudinary-upload", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		return w
	}

	w := post()
	if w.Code != http.StatusOK {
		t.Fatalf("upload = %d %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["secure_url"]; got != "https://res.example/a.png" {
		t.Errorf("secure_url = %v", got)
	}

	fail = true
	w = post()
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("upstream failure = %d", w.Code)
	}
	body := decode(t, w)
	if body["error"] != "Upload failed" || body["details"] != "Invalid image file" {
		t.Errorf("error body = %v", body)
	}

	req := httptest.NewRequest(http.MethodPost, "/cloudinary-upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("no file = %d", w.Code)
	}
}

func TestTestUploadEcho(t *testing.T) {
	e := newTestEnv(t, "", nil)
	body, ct := multipartBody(t, "file", "a.png", testutil.PNG, nil)
	req := httptest.NewRequest(http.MethodPost, "/test-upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode(t, w)
	if got["filename"] != "a.png" || got["size"] != float64(len(testutil.PNG)) {
		t.Errorf("echo = %v", got)
	}
}
