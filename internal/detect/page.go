// Package detect holds the detector set and the aggregator that turn one
// page's evidence into a technology report.
package detect

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/khanhnv2901/techradar-cli/internal/markup"
)

// Page is the read-only markup query capability detectors run against.
// Detectors depend on this interface rather than on a concrete parser so the
// parser can be swapped without touching detection logic.
type Page interface {
	Contains(substr string) bool
	Has(selector string) bool
	Count(selector string) int
	AttrContains(selector, attr, substr string) bool
	HasAttrPrefix(prefix string) bool
	MetaContent(name string) string
	Title() string
	ScriptSrcs() []string
	ScriptRefs() []markup.ScriptRef
	InlineScripts() []string
	StylesheetHrefs() []string
}

// Headers maps lowercased header names to values.
type Headers map[string]string

// Get returns the value for name (any case), or "".
func (h Headers) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Contains reports whether header name exists and its value contains substr,
// case-insensitively.
func (h Headers) Contains(name, substr string) bool {
	v := h.Get(name)
	return v != "" && strings.Contains(strings.ToLower(v), strings.ToLower(substr))
}

// Has reports whether header name is present at all.
func (h Headers) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// ProbeFunc issues an out-of-band GET against a well-known path on the target
// host. ok=false means the probe could not be completed; that is a negative
// signal, never an error.
type ProbeFunc func(ctx context.Context, path string) (status int, headers Headers, body string, ok bool)

// ScriptLoader retrieves a set of external script bodies. Implemented by
// fetcher.Client; stubbed in tests.
type ScriptLoader interface {
	LoadScripts(ctx context.Context, refs []markup.ScriptRef) map[string]string
}

// ScriptSet lazily materializes the bodies of the page's prioritized external
// scripts. The first detector that asks pays for the fetch; everyone else
// shares the result. If no detector asks, no script is fetched.
type ScriptSet struct {
	once   sync.Once
	load   func() map[string]string
	bodies map[string]string
}

// NewScriptSet builds a lazy set over loader and refs. A nil loader yields an
// always-empty set, which detectors must treat as "keyword absent".
func NewScriptSet(ctx context.Context, loader ScriptLoader, refs []markup.ScriptRef) *ScriptSet {
	return &ScriptSet{
		load: func() map[string]string {
			if loader == nil || len(refs) == 0 {
				return nil
			}
			return loader.LoadScripts(ctx, refs)
		},
	}
}

// FrozenScriptSet wraps pre-fetched bodies, for replaying a frozen evidence
// bundle without network access.
func FrozenScriptSet(bodies map[string]string) *ScriptSet {
	s := &ScriptSet{}
	s.once.Do(func() {})
	s.bodies = lowercaseValues(bodies)
	return s
}

// Contains reports whether any fetched script body contains substr,
// case-insensitively. Triggers the fetch on first use.
func (s *ScriptSet) Contains(substr string) bool {
	s.once.Do(func() {
		s.bodies = lowercaseValues(s.load())
	})
	substr = strings.ToLower(substr)
	for _, body := range s.bodies {
		if strings.Contains(body, substr) {
			return true
		}
	}
	return false
}

func lowercaseValues(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = strings.ToLower(v)
	}
	return out
}

// Env is the full evidence bundle one detector examines. It is read-only from
// the detector's point of view; detectors return values and never write into
// the report themselves.
type Env struct {
	Page    Page
	Headers Headers
	Scripts *ScriptSet
	BaseURL *url.URL
	Probe   ProbeFunc
}

// srcContains reports whether any external script src contains substr.
func (e *Env) srcContains(substr string) bool {
	substr = strings.ToLower(substr)
	for _, src := range e.Page.ScriptSrcs() {
		if strings.Contains(src, substr) {
			return true
		}
	}
	return false
}

// inlineContains reports whether any inline script contains substr.
func (e *Env) inlineContains(substr string) bool {
	substr = strings.ToLower(substr)
	for _, body := range e.Page.InlineScripts() {
		if strings.Contains(body, substr) {
			return true
		}
	}
	return false
}

// stylesheetContains reports whether any stylesheet href contains substr.
func (e *Env) stylesheetContains(substr string) bool {
	substr = strings.ToLower(substr)
	for _, href := range e.Page.StylesheetHrefs() {
		if strings.Contains(href, substr) {
			return true
		}
	}
	return false
}
