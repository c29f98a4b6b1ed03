// Package markup builds a read-only queryable view over the root document's
// HTML. The view is constructed once per analysis run and shared by every
// detector; it performs no network I/O.
package markup

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ScriptRef describes one external script linked from the document. Priority
// is an ordinal used to rank fetch candidates: same-origin and module scripts
// come first because they are the most likely to carry framework runtimes.
type ScriptRef struct {
	URL        string
	SameOrigin bool
	Module     bool
	Priority   int
}

// Index is a lenient, best-effort parse of the document. Malformed HTML never
// fails construction; goquery's underlying parser recovers a tree from
// whatever it is given.
type Index struct {
	doc   *goquery.Document
	base  *url.URL
	lower string
}

// Parse builds an Index over raw HTML. base resolves relative script URLs.
func Parse(html string, base *url.URL) *Index {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// html.Parse only fails on reader errors; a string reader has none.
		// Fall back to an empty document rather than propagating.
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return &Index{
		doc:   doc,
		base:  base,
		lower: strings.ToLower(html),
	}
}

// Contains reports whether the raw document text contains substr,
// case-insensitively.
func (ix *Index) Contains(substr string) bool {
	return strings.Contains(ix.lower, strings.ToLower(substr))
}

// Has reports whether any element matches the CSS selector.
func (ix *Index) Has(selector string) bool {
	return ix.doc.Find(selector).Length() > 0
}

// Count returns the number of elements matching the CSS selector.
func (ix *Index) Count(selector string) int {
	return ix.doc.Find(selector).Length()
}

// AttrContains reports whether any element matched by selector carries attr
// with a value containing substr, case-insensitively.
func (ix *Index) AttrContains(selector, attr, substr string) bool {
	substr = strings.ToLower(substr)
	found := false
	ix.doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && strings.Contains(strings.ToLower(v), substr) {
			found = true
			return false
		}
		return true
	})
	return found
}

// HasAttrPrefix reports whether any element carries an attribute whose name
// starts with prefix. Framework runtimes leave distinctive attribute families
// behind (data-v-, ng-, x-, hx-).
func (ix *Index) HasAttrPrefix(prefix string) bool {
	found := false
	ix.doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, node := range s.Nodes {
			for _, a := range node.Attr {
				if strings.HasPrefix(a.Key, prefix) {
					found = true
					return false
				}
			}
		}
		return true
	})
	return found
}

// MetaContent returns the content of <meta name="..."> (case-insensitive
// name match), or "" when absent.
func (ix *Index) MetaContent(name string) string {
	name = strings.ToLower(name)
	content := ""
	ix.doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if n, ok := s.Attr("name"); ok && strings.ToLower(n) == name {
			content, _ = s.Attr("content")
			return false
		}
		return true
	})
	return content
}

// Title returns the document title, trimmed.
func (ix *Index) Title() string {
	return strings.TrimSpace(ix.doc.Find("title").First().Text())
}

// ScriptSrcs returns the resolved, lowercased src of every external script.
func (ix *Index) ScriptSrcs() []string {
	refs := ix.ScriptRefs()
	srcs := make([]string, 0, len(refs))
	for _, ref := range refs {
		srcs = append(srcs, strings.ToLower(ref.URL))
	}
	return srcs
}

// ScriptRefs returns every external script with origin/module metadata and a
// fetch priority. Duplicate URLs are dropped, first occurrence wins.
func (ix *Index) ScriptRefs() []ScriptRef {
	seen := make(map[string]struct{})
	var refs []ScriptRef
	ix.doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		resolved := resolveURL(src, ix.base)
		if resolved == nil {
			return
		}
		u := resolved.String()
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}

		typ, _ := s.Attr("type")
		ref := ScriptRef{
			URL:        u,
			SameOrigin: ix.base != nil && strings.EqualFold(resolved.Hostname(), ix.base.Hostname()),
			Module:     strings.EqualFold(strings.TrimSpace(typ), "module"),
		}
		ref.Priority = 2
		if ref.SameOrigin {
			ref.Priority--
		}
		if ref.Module {
			ref.Priority--
		}
		refs = append(refs, ref)
	})
	return refs
}

// InlineScripts returns the text of every inline <script>, lowercased.
func (ix *Index) InlineScripts() []string {
	var bodies []string
	ix.doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("src"); ok {
			return
		}
		if text := s.Text(); text != "" {
			bodies = append(bodies, strings.ToLower(text))
		}
	})
	return bodies
}

// StylesheetHrefs returns the lowercased href of every stylesheet link.
func (ix *Index) StylesheetHrefs() []string {
	var hrefs []string
	ix.doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			hrefs = append(hrefs, strings.ToLower(href))
		}
	})
	return hrefs
}

func resolveURL(src string, base *url.URL) *url.URL {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return nil
	}
	if strings.HasPrefix(src, "//") {
		scheme := "https"
		if base != nil && base.Scheme != "" {
			scheme = base.Scheme
		}
		src = scheme + ":" + src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return nil
	}
	if ref.Scheme == "" {
		if base == nil {
			return nil
		}
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return nil
	}
	if ref.Hostname() == "" {
		return nil
	}
	return ref
}
