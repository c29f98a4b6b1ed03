package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/khanhnv2901/techradar-cli/internal/detect"
	secaerrors "github.com/khanhnv2901/techradar-cli/internal/shared/errors"
)

// stubAnalyzer returns a canned report or error and counts invocations.
type stubAnalyzer struct {
	report *detect.Report
	err    error
	calls  int32
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ string) (*detect.Report, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func postAnalyze(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandleAnalyzeSuccess(t *testing.T) {
	stub := &stubAnalyzer{report: &detect.Report{
		URL:                  "https://example.com",
		CMS:                  "WordPress",
		IsWordPress:          true,
		JavascriptFrameworks: nil,
		Server:               "Nginx",
	}}
	srv := NewServer(Config{Analyzer: stub})

	rec := postAnalyze(t, srv, `{"url":"example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}

	var got detect.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.CMS != "WordPress" || !got.IsWordPress || got.Server != "Nginx" {
		t.Errorf("unexpected report %+v", got)
	}
}

func TestHandleAnalyzeEmptyReportIsOK(t *testing.T) {
	// Detecting nothing is a success, not an error.
	stub := &stubAnalyzer{report: &detect.Report{URL: "https://example.com"}}
	srv := NewServer(Config{Analyzer: stub})

	rec := postAnalyze(t, srv, `{"url":"example.com"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleAnalyzeMissingURL(t *testing.T) {
	stub := &stubAnalyzer{report: &detect.Report{}}
	srv := NewServer(Config{Analyzer: stub})

	rec := postAnalyze(t, srv, `{"url":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := atomic.LoadInt32(&stub.calls); got != 0 {
		t.Errorf("missing url must be rejected before the analyzer runs, got %d calls", got)
	}
}

func TestHandleAnalyzeMalformedBody(t *testing.T) {
	stub := &stubAnalyzer{report: &detect.Report{}}
	srv := NewServer(Config{Analyzer: stub})

	rec := postAnalyze(t, srv, `{"url":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := atomic.LoadInt32(&stub.calls); got != 0 {
		t.Errorf("malformed body must not reach the analyzer, got %d calls", got)
	}
}

func TestHandleAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid url", fmt.Errorf("%w: %q", secaerrors.ErrInvalidURL, "::"), http.StatusBadRequest},
		{"access denied", fmt.Errorf("%w: status 403", secaerrors.ErrAccessDenied), http.StatusForbidden},
		{"fetch failed", fmt.Errorf("%w: connection refused", secaerrors.ErrFetchFailed), http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(Config{Analyzer: &stubAnalyzer{err: tt.err}})
			rec := postAnalyze(t, srv, `{"url":"example.com"}`)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandleAnalyzeInternalErrorIsSanitized(t *testing.T) {
	srv := NewServer(Config{Analyzer: &stubAnalyzer{err: errors.New("pg: connection string leaked")}})
	rec := postAnalyze(t, srv, `{"url":"example.com"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "leaked") {
		t.Errorf("500 body must not expose internals: %s", rec.Body)
	}
}

func TestHandleAnalyzeMethodNotAllowed(t *testing.T) {
	srv := NewServer(Config{Analyzer: &stubAnalyzer{report: &detect.Report{}}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestAuthToken(t *testing.T) {
	srv := NewServer(Config{
		Analyzer:  &stubAnalyzer{report: &detect.Report{}},
		AuthToken: "secret-token",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"url":"example.com"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"url":"example.com"}`))
	req.Header.Set("X-Auth-Token", "wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"url":"example.com"}`))
	req.Header.Set("X-Auth-Token", "secret-token")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(Config{Analyzer: &stubAnalyzer{report: &detect.Report{}}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	srv := NewServer(Config{
		Analyzer:  &stubAnalyzer{report: &detect.Report{}},
		RateLimit: 1,
		RateBurst: 1,
	})

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := do("10.0.0.1"); got != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", got)
	}
	if got := do("10.0.0.1"); got != http.StatusTooManyRequests {
		t.Errorf("burst exceeded: status = %d, want 429", got)
	}
	// A different client has its own bucket.
	if got := do("10.0.0.2"); got != http.StatusOK {
		t.Errorf("separate client: status = %d, want 200", got)
	}
}

func TestCORSAllowlist(t *testing.T) {
	srv := NewServer(Config{
		Analyzer:    &stubAnalyzer{report: &detect.Report{}},
		CORSOrigins: []string{"https://app.example.com"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allowed origin header = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin should get no CORS header, got %q", got)
	}
}
