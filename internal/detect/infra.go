package detect

import "strings"

// serverAlias maps a Server-header substring to a human-readable name.
// Resolution is longest-specific-match: "microsoft-iis" must win over "iis",
// "openresty" over "nginx" (OpenResty advertises both).
type serverAlias struct {
	pattern string
	name    string
}

var serverAliases = []serverAlias{
	{"microsoft-iis", "Microsoft IIS"},
	{"amazons3", "Amazon S3"},
	{"cloudflare", "Cloudflare"},
	{"cloudfront", "Amazon CloudFront"},
	{"akamaighost", "Akamai"},
	{"akamainetstorage", "Akamai"},
	{"bunnycdn", "BunnyCDN"},
	{"litespeed", "LiteSpeed"},
	{"openresty", "OpenResty"},
	{"gunicorn", "Gunicorn"},
	{"kestrel", "Kestrel"},
	{"netlify", "Netlify"},
	{"vercel", "Vercel"},
	{"varnish", "Varnish"},
	{"caddy", "Caddy"},
	{"cowboy", "Cowboy"},
	{"envoy", "Envoy"},
	{"nginx", "Nginx"},
	{"apache", "Apache"},
	{"gse", "Google Servlet Engine"},
	{"gws", "Google Web Server"},
}

// resolveServer maps a raw Server header value to a readable name. Aliases
// are pre-sorted longest first; the raw value is returned when nothing
// matches so the caller still sees something meaningful.
func resolveServer(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	best := ""
	bestLen := 0
	for _, alias := range serverAliases {
		if strings.Contains(lower, alias.pattern) && len(alias.pattern) > bestLen {
			best = alias.name
			bestLen = len(alias.pattern)
		}
	}
	if best != "" {
		return best
	}
	return raw
}

// edgeProviders names the resolved server values that identify a CDN/edge
// network rather than an origin server. Used for the final de-duplication
// pass: an edge provider is reported under cdn, never under server.
var edgeProviders = map[string]string{
	"Cloudflare":        "Cloudflare",
	"Amazon CloudFront": "Amazon CloudFront",
	"Akamai":            "Akamai",
	"BunnyCDN":          "BunnyCDN",
}

// headerFingerprint ties a provider name to the response headers it injects.
// A value of "" means presence of the header is enough; otherwise the header
// value must contain it.
type headerFingerprint struct {
	provider string
	header   string
	contains string
}

var cdnFingerprints = []headerFingerprint{
	{"Cloudflare", "cf-ray", ""},
	{"Cloudflare", "cf-cache-status", ""},
	{"Amazon CloudFront", "x-amz-cf-id", ""},
	{"Amazon CloudFront", "x-amz-cf-pop", ""},
	{"Amazon CloudFront", "via", "cloudfront"},
	{"Akamai", "x-akamai-transformed", ""},
	{"Akamai", "x-akamai-request-id", ""},
	{"Fastly", "x-fastly-request-id", ""},
	{"Fastly", "x-served-by", "cache-"},
	{"Sucuri", "x-sucuri-id", ""},
	{"Sucuri", "x-sucuri-cache", ""},
	{"Imperva", "x-iinfo", ""},
	{"BunnyCDN", "server", "bunnycdn"},
	{"Azure Front Door", "x-azure-ref", ""},
	{"KeyCDN", "x-edge-location", ""},
}

var hostingFingerprints = []headerFingerprint{
	{"Vercel", "x-vercel-id", ""},
	{"Vercel", "x-vercel-cache", ""},
	{"Netlify", "x-nf-request-id", ""},
	{"GitHub Pages", "x-github-request-id", ""},
	{"Heroku", "via", "vegur"},
	{"Fly.io", "fly-request-id", ""},
	{"Render", "x-render-origin-server", ""},
	{"Google Cloud", "via", "1.1 google"},
	{"Amazon Web Services", "x-amz-request-id", ""},
	{"WP Engine", "x-powered-by", "wp engine"},
	{"Kinsta", "x-kinsta-cache", ""},
	{"Pantheon", "x-pantheon-styx-hostname", ""},
}

// matchFingerprints returns providers whose header fingerprints are present,
// in fingerprint-table order, duplicates suppressed.
func matchFingerprints(headers Headers, prints []headerFingerprint) []string {
	var out []string
	for _, fp := range prints {
		if !headers.Has(fp.header) {
			continue
		}
		if fp.contains != "" && !headers.Contains(fp.header, fp.contains) {
			continue
		}
		out = appendUnique(out, fp.provider)
	}
	return out
}

// metaFramework maps an X-Powered-By value to a JS meta-framework that
// belongs in the framework set instead of the platform field. Returns "" for
// ordinary platforms.
func metaFramework(poweredBy string) string {
	lower := strings.ToLower(poweredBy)
	switch {
	case strings.Contains(lower, "next.js"):
		return "Next.js"
	case strings.Contains(lower, "nuxt"):
		return "Nuxt.js"
	}
	return ""
}

// resolvePlatform maps X-Powered-By to a readable platform name, excluding
// JS meta-frameworks (those fold into the framework set).
func resolvePlatform(poweredBy string) string {
	poweredBy = strings.TrimSpace(poweredBy)
	if poweredBy == "" || metaFramework(poweredBy) != "" {
		return ""
	}
	lower := strings.ToLower(poweredBy)
	for _, alias := range []serverAlias{
		{"express", "Express"},
		{"asp.net", "ASP.NET"},
		{"php", "PHP"},
		{"servlet", "Java Servlet"},
		{"phusion passenger", "Phusion Passenger"},
	} {
		if strings.Contains(lower, alias.pattern) {
			return alias.name
		}
	}
	return poweredBy
}
