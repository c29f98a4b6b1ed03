package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	secaerrors "github.com/khanhnv2901/techradar-cli/internal/shared/errors"
)

func testClient(cfg Config) *Client {
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 1000
	}
	return New(cfg, nil)
}

func TestFetchDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "nginx")
		w.Header().Set("X-Powered-By", "Express")
		w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer srv.Close()

	doc, err := testClient(Config{}).FetchDocument(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchDocument: %v", err)
	}
	if doc.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", doc.StatusCode)
	}
	if doc.Headers["server"] != "nginx" {
		t.Errorf("headers should be lowercased, got %v", doc.Headers)
	}
	if doc.Headers["x-powered-by"] != "Express" {
		t.Errorf("missing x-powered-by, got %v", doc.Headers)
	}
	if !strings.Contains(doc.Body, "<title>ok</title>") {
		t.Errorf("unexpected body %q", doc.Body)
	}
	if doc.BaseURL == nil || doc.BaseURL.Host == "" {
		t.Errorf("BaseURL not populated: %v", doc.BaseURL)
	}
}

func TestFetchDocumentForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(Config{}).FetchDocument(context.Background(), srv.URL)
	if !errors.Is(err, secaerrors.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied for a 403, got %v", err)
	}
}

func TestFetchDocumentServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(Config{}).FetchDocument(context.Background(), srv.URL)
	if !errors.Is(err, secaerrors.ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed for a 500, got %v", err)
	}
}

func TestFetchDocumentUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := testClient(Config{Timeout: time.Second}).FetchDocument(context.Background(), srv.URL)
	if !errors.Is(err, secaerrors.ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed for a refused connection, got %v", err)
	}
}

func TestFetchDocumentBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer srv.Close()

	doc, err := testClient(Config{MaxBodyBytes: 1024}).FetchDocument(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchDocument: %v", err)
	}
	if len(doc.Body) != 1024 {
		t.Errorf("body should be capped at 1024 bytes, got %d", len(doc.Body))
	}
}

func TestFetchScriptCachesFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(Config{})
	if _, ok := c.FetchScript(context.Background(), srv.URL+"/a.js"); ok {
		t.Error("a 404 script fetch should report ok=false")
	}
	if _, ok := c.FetchScript(context.Background(), srv.URL+"/a.js"); ok {
		t.Error("cached failure should still report ok=false")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected 1 request for a repeated URL, got %d", got)
	}
}

func TestFetchScriptCachesBodies(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("var react = {};"))
	}))
	defer srv.Close()

	c := testClient(Config{})
	for i := 0; i < 3; i++ {
		body, ok := c.FetchScript(context.Background(), srv.URL+"/app.js")
		if !ok || body != "var react = {};" {
			t.Fatalf("fetch %d: body=%q ok=%v", i, body, ok)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected 1 upstream request, got %d", got)
	}
}

func TestFetchScriptsBoundsConcurrency(t *testing.T) {
	var inflight, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	c := testClient(Config{Concurrency: 2, MaxScriptFetches: 8})
	reqs := make([]ScriptRequest, 0, 8)
	for i := 0; i < 8; i++ {
		reqs = append(reqs, ScriptRequest{URL: srv.URL + "/s" + string(rune('a'+i)) + ".js"})
	}

	bodies := c.FetchScripts(context.Background(), reqs)
	if len(bodies) != 8 {
		t.Errorf("expected 8 bodies, got %d", len(bodies))
	}
	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("in-flight fetches peaked at %d, limit is 2", got)
	}
}

func TestSelectScripts(t *testing.T) {
	reqs := []ScriptRequest{
		{URL: "https://e.com/vendor.js", Priority: 2},
		{URL: "https://e.com/app.js", Priority: 1},
		{URL: "https://e.com/app.js", Priority: 1}, // duplicate
		{URL: "", Priority: 0},                     // empty
		{URL: "https://e.com/main.mjs", Priority: 0},
	}

	got := selectScripts(reqs, 2)
	want := []ScriptRequest{
		{URL: "https://e.com/main.mjs", Priority: 0},
		{URL: "https://e.com/app.js", Priority: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("selectScripts = %v, want %v", got, want)
	}
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"namespaces":["wp/v2"]}`))
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}

	c := testClient(Config{})
	status, headers, body, ok := c.Probe(context.Background(), base, "/wp-json/")
	if !ok || status != 200 {
		t.Fatalf("probe: status=%d ok=%v", status, ok)
	}
	if !strings.Contains(headers["content-type"], "json") {
		t.Errorf("probe headers = %v", headers)
	}
	if !strings.Contains(body, "wp/v2") {
		t.Errorf("probe body = %q", body)
	}

	if _, _, _, ok := c.Probe(context.Background(), nil, "/x"); ok {
		t.Error("probe without a base URL must fail closed")
	}
}

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		in      string
		out     string
		wantErr error
	}{
		{"example.com", "https://example.com", nil},
		{"  example.com  ", "https://example.com", nil},
		{"example.com:8080/path", "https://example.com:8080/path", nil},
		{"http://example.com", "http://example.com", nil},
		{"https://example.com/page", "https://example.com/page", nil},
		{"", "", secaerrors.ErrMissingURL},
		{"   ", "", secaerrors.ErrMissingURL},
		{"https://", "", secaerrors.ErrInvalidURL},
		{"ht tp://bad", "", secaerrors.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeTarget(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NormalizeTarget(%q) err = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeTarget(%q): %v", tt.in, err)
			}
			if got != tt.out {
				t.Errorf("NormalizeTarget(%q) = %q, want %q", tt.in, got, tt.out)
			}
		})
	}
}
