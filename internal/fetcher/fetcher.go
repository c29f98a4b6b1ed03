// Package fetcher retrieves the evidence an analysis run works from: the root
// document with its response headers, and a bounded, prioritized subset of the
// page's external scripts.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/techradar-cli/internal/shared/constants"
	secaerrors "github.com/khanhnv2901/techradar-cli/internal/shared/errors"
)

// Config controls timeouts, size caps, and fan-out bounds for all fetches.
type Config struct {
	Timeout           time.Duration
	MaxBodyBytes      int64
	MaxScriptFetches  int
	Concurrency       int
	ScriptBudget      time.Duration
	RequestsPerSecond int
	UserAgent         string
}

// DefaultConfig returns the defaults from the constants package.
func DefaultConfig() Config {
	return Config{
		Timeout:           constants.DefaultFetchTimeout,
		MaxBodyBytes:      constants.DefaultMaxBodyBytes,
		MaxScriptFetches:  constants.DefaultMaxScriptFetches,
		Concurrency:       constants.DefaultScriptConcurrency,
		ScriptBudget:      constants.DefaultScriptBudget,
		RequestsPerSecond: constants.DefaultRequestsPerSecond,
		UserAgent:         constants.DefaultUserAgent,
	}
}

// Document is the frozen primary evidence for one analysis run.
type Document struct {
	StatusCode int
	// Headers maps lowercased header names to comma-joined values.
	Headers map[string]string
	Body    string
	BaseURL *url.URL
}

// ScriptRequest names one external script to retrieve. Lower priority values
// are fetched first when the per-run cap truncates the list.
type ScriptRequest struct {
	URL      string
	Priority int
}

// Client performs all outbound requests for the analyzer.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	mu          sync.Mutex
	scriptCache map[string]string
}

// New builds a Client from cfg. Zero-valued fields fall back to defaults.
func New(cfg Config, logger *zap.Logger) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.MaxScriptFetches <= 0 {
		cfg.MaxScriptFetches = def.MaxScriptFetches
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.ScriptBudget <= 0 {
		cfg.ScriptBudget = def.ScriptBudget
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: false,
					MinVersion:         tls.VersionTLS12,
				},
			},
		},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		logger:      logger,
		scriptCache: make(map[string]string),
	}
}

// FetchDocument retrieves the root document for target. A 403 from the target
// maps to ErrAccessDenied; any other failure maps to ErrFetchFailed so callers
// can distinguish "site blocked us" from "couldn't reach the site".
func (c *Client) FetchDocument(ctx context.Context, target string) (*Document, error) {
	body, resp, err := c.get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", secaerrors.ErrFetchFailed, err)
	}
	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status %d", secaerrors.ErrAccessDenied, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", secaerrors.ErrFetchFailed, resp.StatusCode)
	}

	return &Document{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
		BaseURL:    resp.Request.URL,
	}, nil
}

// FetchScript retrieves one external script body. Every failure is silent:
// network errors, non-2xx responses, and oversize bodies all report ok=false
// so the detector layer treats them as "keyword absent".
func (c *Client) FetchScript(ctx context.Context, target string) (string, bool) {
	c.mu.Lock()
	if cached, ok := c.scriptCache[target]; ok {
		c.mu.Unlock()
		return cached, cached != ""
	}
	c.mu.Unlock()

	body, resp, err := c.get(ctx, target)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("script fetch failed",
			zap.String("url", target),
			zap.Error(err),
		)
		c.storeScript(target, "")
		return "", false
	}

	c.storeScript(target, body)
	return body, body != ""
}

// FetchScripts retrieves up to MaxScriptFetches script bodies with bounded
// concurrency and a wall-clock budget over the whole phase. An adversarial
// page can link hundreds of scripts; the cap and the semaphore keep fan-out
// and latency bounded regardless. Returns url -> body for successes only.
func (c *Client) FetchScripts(ctx context.Context, reqs []ScriptRequest) map[string]string {
	reqs = selectScripts(reqs, c.cfg.MaxScriptFetches)
	if len(reqs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ScriptBudget)
	defer cancel()

	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	bodies := make(map[string]string, len(reqs))

	for _, req := range reqs {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()

			// Acquire semaphore; bail out if the budget expires while queued.
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if body, ok := c.FetchScript(ctx, u); ok {
				mu.Lock()
				bodies[u] = body
				mu.Unlock()
			}
		}(req.URL)
	}

	wg.Wait()
	return bodies
}

// Probe issues a small same-host GET against path and returns the response.
// Used for out-of-band discovery checks such as the WordPress JSON endpoint.
func (c *Client) Probe(ctx context.Context, base *url.URL, path string) (int, map[string]string, string, bool) {
	if base == nil || base.Host == "" {
		return 0, nil, "", false
	}
	target := base.Scheme + "://" + base.Host + path
	body, resp, err := c.get(ctx, target)
	if err != nil {
		c.logger.Debug("probe failed", zap.String("url", target), zap.Error(err))
		return 0, nil, "", false
	}
	return resp.StatusCode, flattenHeaders(resp.Header), body, true
}

func (c *Client) get(ctx context.Context, target string) (string, *http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, c.cfg.MaxBodyBytes)
	data, err := io.ReadAll(limited)
	if err != nil {
		return "", nil, err
	}
	// Drain anything past the cap so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return string(data), resp, nil
}

func (c *Client) storeScript(target, body string) {
	c.mu.Lock()
	c.scriptCache[target] = body
	c.mu.Unlock()
}

// selectScripts dedups, orders by priority (stable on input order), and caps.
func selectScripts(reqs []ScriptRequest, max int) []ScriptRequest {
	seen := make(map[string]struct{}, len(reqs))
	unique := make([]ScriptRequest, 0, len(reqs))
	for _, r := range reqs {
		if r.URL == "" {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		unique = append(unique, r)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Priority < unique[j].Priority
	})
	if max > 0 && len(unique) > max {
		unique = unique[:max]
	}
	return unique
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return out
}

// NormalizeTarget normalizes user input into a full URL with a scheme.
// Handles bare hosts ("example.com"), hosts with ports, and full URLs.
func NormalizeTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", secaerrors.ErrMissingURL
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: %q", secaerrors.ErrInvalidURL, target)
	}
	return parsed.String(), nil
}
