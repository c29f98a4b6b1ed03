package detect

import "strings"

// Report is the technology record for a single analyzed page. Every field is
// optional; an empty report is a valid success. List fields keep detection
// order and suppress duplicates case-insensitively. The aggregator is the
// only writer; callers receive it as a finished value.
type Report struct {
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`

	CMS         string `json:"cms,omitempty"`
	IsWordPress bool   `json:"isWordPress,omitempty"`

	JavascriptFrameworks []string `json:"javascriptFrameworks,omitempty"`
	CSSFrameworks        []string `json:"cssFrameworks,omitempty"`

	Analytics  []string `json:"analytics,omitempty"`
	Marketing  []string `json:"marketing,omitempty"`
	Monitoring []string `json:"monitoring,omitempty"`
	Payments   []string `json:"payments,omitempty"`

	BuildTools  []string `json:"buildTools,omitempty"`
	Compression []string `json:"compression,omitempty"`

	Server   string   `json:"server,omitempty"`
	Platform string   `json:"platform,omitempty"`
	CDN      []string `json:"cdn,omitempty"`
	Hosting  []string `json:"hosting,omitempty"`
}

// appendUnique appends value to list unless an entry with the same
// case-insensitive identity is already present.
func appendUnique(list []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, value) {
			return list
		}
	}
	return append(list, value)
}
