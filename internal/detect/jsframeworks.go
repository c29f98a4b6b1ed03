package detect

import (
	"context"
	"strings"
)

// jsFrameworkDetectors combine up to four independent evidence types per
// library: script src patterns, DOM markers left by the runtime, inline
// script content, and patterns inside fetched external script bodies. The
// family threshold is two corroborations; markers that cannot occur outside
// the library (the Next.js data blob, the Meteor runtime config) carry full
// weight alone.
var jsFrameworkDetectors = []Detector{
	{Name: "React", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.srcContains("react"))
		score.Add(env.Page.Has("[data-reactroot]") || env.Page.Contains("data-reactid"))
		score.Add(env.inlineContains("react.createelement") || env.inlineContains("__react_devtools_global_hook__"))
		if score.AtLeast(2) {
			return true
		}
		score.Add(env.Scripts.Contains("react.production.min") || env.Scripts.Contains("__self:this,__source"))
		return score.AtLeast(2)
	}},
	{Name: "Vue.js", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.srcContains("vue"))
		score.Add(env.Page.HasAttrPrefix("data-v-"))
		score.Add(env.inlineContains("new vue(") || env.inlineContains("createapp("))
		if score.AtLeast(2) {
			return true
		}
		score.Add(env.Scripts.Contains("__vue__") || env.Scripts.Contains("vue.runtime"))
		return score.AtLeast(2)
	}},
	{Name: "Angular", Match: func(_ context.Context, env *Env) bool {
		var score Score
		// ng-version is stamped by the bootstrapper itself.
		score.AddWeighted(env.Page.Has("[ng-version]"), 2)
		score.Add(env.srcContains("angular"))
		score.Add(env.Page.HasAttrPrefix("ng-"))
		if score.AtLeast(2) {
			return true
		}
		score.Add(env.Scripts.Contains("platformbrowserdynamic"))
		return score.AtLeast(2)
	}},
	{Name: "Next.js", Match: func(_ context.Context, env *Env) bool {
		var score Score
		// The embedded data blob id is unique to Next.js.
		score.AddWeighted(env.Page.Has("script#__NEXT_DATA__"), 2)
		score.Add(env.srcContains("/_next/static"))
		score.Add(env.Headers.Contains("x-powered-by", "next.js"))
		return score.AtLeast(2)
	}},
	{Name: "Nuxt.js", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.AddWeighted(env.Page.Has("#__nuxt") || env.inlineContains("window.__nuxt__"), 2)
		score.Add(env.srcContains("/_nuxt/"))
		score.Add(env.Headers.Contains("x-powered-by", "nuxt"))
		return score.AtLeast(2)
	}},
	{Name: "Gatsby", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.AddWeighted(env.Page.Has("#___gatsby"), 2)
		score.Add(env.srcContains("/page-data/"))
		score.Add(env.inlineContains("___gatsby"))
		return score.AtLeast(2)
	}},
	{Name: "Svelte", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.Page.Contains("class=\"svelte-") || env.Page.Contains("svelte-h"))
		score.Add(env.srcContains("svelte"))
		if score.AtLeast(2) {
			return true
		}
		score.Add(env.Scripts.Contains("svelteht") || env.Scripts.Contains(".svelte-"))
		return score.AtLeast(2)
	}},
	{Name: "Ember.js", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.srcContains("ember"))
		score.Add(env.Page.Has("[data-ember-action]") || env.Page.Contains("id=\"ember"))
		score.Add(env.inlineContains("ember.application") || env.inlineContains("emberenv"))
		return score.AtLeast(2)
	}},
	{Name: "Polymer", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.AddWeighted(env.Page.Has("dom-module"), 2)
		score.Add(env.srcContains("polymer"))
		score.Add(env.inlineContains("polymer("))
		return score.AtLeast(2)
	}},
	{Name: "jQuery", Match: func(_ context.Context, env *Env) bool {
		var score Score
		// jquery in a script filename is the canonical marker.
		score.AddWeighted(env.srcContains("jquery"), 2)
		score.Add(env.inlineContains("jquery(") || env.inlineContains("$(document).ready"))
		if score.AtLeast(2) {
			return true
		}
		score.Add(env.Scripts.Contains("jquery.fn.jquery"))
		return score.AtLeast(2)
	}},
	{Name: "Backbone.js", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.srcContains("backbone"))
		score.Add(env.inlineContains("backbone.model") || env.inlineContains("backbone.view"))
		if score.AtLeast(2) {
			return true
		}
		score.Add(env.Scripts.Contains("backbone.history"))
		return score.AtLeast(2)
	}},
	{Name: "Dojo", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.srcContains("dojo"))
		score.Add(env.inlineContains("dojo.require") || env.inlineContains("dojoconfig"))
		score.Add(env.Page.HasAttrPrefix("data-dojo-"))
		return score.AtLeast(2)
	}},
	{Name: "Meteor", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.AddWeighted(env.inlineContains("__meteor_runtime_config__"), 2)
		score.Add(env.srcContains("meteor_runtime_config"))
		return score.AtLeast(2)
	}},
	{Name: "Astro", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.AddWeighted(env.Page.Has("astro-island"), 2)
		score.Add(env.srcContains("/_astro/"))
		score.Add(strings.Contains(strings.ToLower(env.Page.MetaContent("generator")), "astro"))
		return score.AtLeast(2)
	}},
	{Name: "Remix", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.AddWeighted(env.inlineContains("__remixcontext"), 2)
		score.Add(env.srcContains("/build/manifest-") || env.inlineContains("__remixmanifest"))
		return score.AtLeast(2)
	}},
	{Name: "Alpine.js", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.AddWeighted(env.Page.HasAttrPrefix("x-data"), 2)
		score.Add(env.srcContains("alpinejs") || env.srcContains("alpine.min.js"))
		return score.AtLeast(2)
	}},
	{Name: "HTMX", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.AddWeighted(env.Page.HasAttrPrefix("hx-"), 2)
		score.Add(env.srcContains("htmx"))
		return score.AtLeast(2)
	}},
}
