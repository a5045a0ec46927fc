package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/starford/folio/internal/richtext"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if m.GetCounter() != nil {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestObserveRender(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewWithRegistry(reg)

	res := richtext.RenderValue(map[string]any{"root": map[string]any{"children": []any{
		map[string]any{"type": "block", "fields": map[string]any{}},
		map[string]any{"type": "upload", "value": "abc"},
	}}})
	c.ObserveRender(res, time.Millisecond)

	if got := gather(t, reg, "folio_richtext_renders_total"); got != 1 {
		t.Errorf("renders = %v", got)
	}
	if got := gather(t, reg, "folio_richtext_diagnostics_total"); got != float64(len(res.Diagnostics)) || got == 0 {
		t.Errorf("diagnostics = %v, want %d", got, len(res.Diagnostics))
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	c := New()
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/api/posts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/metrics", c.Handler().ServeHTTP)

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/posts/"+id, nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	want := `folio_http_requests_total{method="GET",route="/api/posts/{id}",status="418"} 3`
	if !strings.Contains(body, want) {
		t.Errorf("metrics output missing %q", want)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("go collector not registered")
	}
}
