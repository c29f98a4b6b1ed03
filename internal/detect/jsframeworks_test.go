package detect

import (
	"context"
	"testing"
)

func matchByName(t *testing.T, name string, env *Env) bool {
	t.Helper()
	for _, d := range jsFrameworkDetectors {
		if d.Name == name {
			return d.Match(context.Background(), env)
		}
	}
	t.Fatalf("no detector named %q", name)
	return false
}

func TestNextJSDataBlob(t *testing.T) {
	html := `<html><body>
		<script id="__NEXT_DATA__" type="application/json">{"props":{}}</script>
		<script src="/_next/static/chunks/main-abc123.js"></script>
	</body></html>`
	env := testEnv(html, nil)

	if !matchByName(t, "Next.js", env) {
		t.Error("expected Next.js from __NEXT_DATA__ and /_next/static")
	}
}

func TestNextJSDataBlobAlone(t *testing.T) {
	// The data blob id is unique to Next.js and decides on its own.
	html := `<html><body><script id="__NEXT_DATA__" type="application/json">{}</script></body></html>`
	env := testEnv(html, nil)

	if !matchByName(t, "Next.js", env) {
		t.Error("expected __NEXT_DATA__ alone to identify Next.js")
	}
}

func TestReactSingleSignalRejected(t *testing.T) {
	// Regression guard: one coincidental substring must not trigger a
	// detector whose threshold is two.
	html := `<html><body><script src="https://cdn.example.com/react.production.min.js"></script></body></html>`
	env := testEnv(html, nil)

	if matchByName(t, "React", env) {
		t.Error("a single src signal must not identify React")
	}
}

func TestReactTwoSignals(t *testing.T) {
	html := `<html><body>
		<div data-reactroot></div>
		<script src="https://cdn.example.com/react.production.min.js"></script>
	</body></html>`
	env := testEnv(html, nil)

	if !matchByName(t, "React", env) {
		t.Error("src plus data-reactroot should identify React")
	}
}

func TestReactScriptBodyCorroborates(t *testing.T) {
	html := `<html><body><script src="https://cdn.example.com/vendor/react.js"></script></body></html>`
	env := testEnv(html, nil)
	env.Scripts = FrozenScriptSet(map[string]string{
		"https://cdn.example.com/vendor/react.js": `/** react.production.min */`,
	})

	if !matchByName(t, "React", env) {
		t.Error("src plus fetched script body should identify React")
	}
}

func TestAngularNgVersion(t *testing.T) {
	html := `<html><body><app-root ng-version="17.1.0"></app-root></body></html>`
	env := testEnv(html, nil)

	if !matchByName(t, "Angular", env) {
		t.Error("ng-version attribute should identify Angular alone")
	}
}

func TestVueScopedAttributes(t *testing.T) {
	html := `<html><body>
		<div data-v-7ba5bd90 class="app"></div>
		<script src="/js/vue.runtime.min.js"></script>
	</body></html>`
	env := testEnv(html, nil)

	if !matchByName(t, "Vue.js", env) {
		t.Error("data-v- attributes plus vue script should identify Vue")
	}
}

func TestAlpineDirectives(t *testing.T) {
	html := `<html><body><div x-data="{open:false}"></div></body></html>`
	env := testEnv(html, nil)

	if !matchByName(t, "Alpine.js", env) {
		t.Error("x-data attribute should identify Alpine")
	}
}

func TestHTMXAttributes(t *testing.T) {
	html := `<html><body><button hx-post="/clicked" hx-swap="outerHTML">Go</button></body></html>`
	env := testEnv(html, nil)

	if !matchByName(t, "HTMX", env) {
		t.Error("hx- attributes should identify HTMX")
	}
}

func TestMeteorRuntimeConfig(t *testing.T) {
	html := `<html><body><script>__meteor_runtime_config__ = {"meteorRelease":"METEOR@2.0"};</script></body></html>`
	env := testEnv(html, nil)

	if !matchByName(t, "Meteor", env) {
		t.Error("runtime config global should identify Meteor")
	}
}

func TestJQueryFilename(t *testing.T) {
	html := `<html><body><script src="/assets/jquery-3.7.1.min.js"></script></body></html>`
	env := testEnv(html, nil)

	if !matchByName(t, "jQuery", env) {
		t.Error("jquery filename should identify jQuery")
	}
}

func TestGatsbyRootElement(t *testing.T) {
	html := `<html><body><div id="___gatsby"><div id="gatsby-focus-wrapper"></div></div></body></html>`
	env := testEnv(html, nil)

	if !matchByName(t, "Gatsby", env) {
		t.Error("___gatsby root element should identify Gatsby")
	}
}

func TestPlainPageMatchesNothing(t *testing.T) {
	env := testEnv(`<html><body><p>static page, no scripts</p></body></html>`, nil)
	for _, d := range jsFrameworkDetectors {
		if d.Match(context.Background(), env) {
			t.Errorf("detector %s matched a plain page", d.Name)
		}
	}
}
