package detect

import "context"

// Build-tool detection is a lightweight keyword search for tool-specific
// runtime markers in the raw document and in fetched script bodies. The
// markers are emitted by the tools' own runtimes, so one hit suffices.
var buildToolDetectors = []Detector{
	{Name: "Webpack", Match: func(_ context.Context, env *Env) bool {
		return env.Page.Contains("webpackjsonp") ||
			env.Page.Contains("__webpack_require__") ||
			env.Scripts.Contains("__webpack_require__")
	}},
	{Name: "Vite", Match: func(_ context.Context, env *Env) bool {
		return env.Page.Contains("/@vite/") ||
			env.Page.Contains("vite/modulepreload-polyfill") ||
			env.Scripts.Contains("__vite__")
	}},
	{Name: "Parcel", Match: func(_ context.Context, env *Env) bool {
		return env.Page.Contains("parcelrequire") || env.Scripts.Contains("parcelrequire")
	}},
	{Name: "esbuild", Match: func(_ context.Context, env *Env) bool {
		return env.Scripts.Contains("__esbuild") || env.Page.Contains("__esbuild")
	}},
	{Name: "Turbopack", Match: func(_ context.Context, env *Env) bool {
		return env.Page.Contains("__turbopack") || env.Scripts.Contains("__turbopack")
	}},
}

// detectCompression reads the negotiated content encoding off the response
// headers. No network, no body inspection.
func detectCompression(headers Headers) []string {
	if headers.Get("content-encoding") == "" {
		return nil
	}
	var out []string
	for _, enc := range []struct{ pattern, name string }{
		{"br", "Brotli"},
		{"gzip", "Gzip"},
		{"zstd", "Zstandard"},
	} {
		if headers.Contains("content-encoding", enc.pattern) {
			out = appendUnique(out, enc.name)
		}
	}
	return out
}
