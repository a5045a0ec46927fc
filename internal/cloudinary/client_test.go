package cloudinary

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadNotConfigured(t *testing.T) {
	c := New(Config{CloudName: "demo"})
	if c.Configured() {
		t.Fatal("partial config reported as configured")
	}
	if _, err := c.Upload(context.Background(), "a.png", strings.NewReader("x")); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v", err)
	}
	if _, err := c.Ping(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ping err = %v", err)
	}
	if got := c.Credentials(); !got.CloudName || got.APIKey || got.APISecret {
		t.Errorf("credentials = %+v", got)
	}
}

func TestUploadForwardsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1_1/demo/") || !strings.HasSuffix(r.URL.Path, "/upload") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("api_key") != "key" || r.FormValue("folder") != "blog" || r.FormValue("signature") == "" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "image-bytes" {
			t.Errorf("file = %q", data)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.example/pic.png","public_id":"blog/pic"}`))
	}))
	defer srv.Close()

	c := New(Config{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "blog", BaseURL: srv.URL + "/"})
	raw, err := c.Upload(context.Background(), "pic.png", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.Contains(string(raw), `"secure_url":"https://res.example/pic.png"`) {
		t.Errorf("response = %s", raw)
	}
}

func TestUploadUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Signature"}}`))
	}))
	defer srv.Close()

	c := New(Config{CloudName: "demo", APIKey: "k", APISecret: "s", BaseURL: srv.URL})
	_, err := c.Upload(context.Background(), "a.png", strings.NewReader("x"))
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v", err)
	}
	if ue.Message != "Invalid Signature" {
		t.Errorf("upstream error = %+v", ue)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "k" || pass != "s" || r.URL.Path != "/v1_1/demo/ping" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"message":"forbidden"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := New(Config{CloudName: "demo", APIKey: "k", APISecret: "s", BaseURL: srv.URL})
	raw, err := c.Ping(context.Background())
	if err != nil || !strings.Contains(string(raw), `"status":"ok"`) {
		t.Errorf("Ping = %s, %v", raw, err)
	}
}
