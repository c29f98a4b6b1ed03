package detect

import "context"

// cssFrameworkDetectors lean on structural evidence: vendor-specific asset
// filenames, custom property prefixes, and runtime data-attributes. Utility
// class names are prone to coincidental matches, so they only ever count as
// one corroborating signal and never decide alone. Family threshold: two,
// with weight two reserved for markers that only the vendor emits.
var cssFrameworkDetectors = []Detector{
	{Name: "Bootstrap", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.stylesheetContains("bootstrap"))
		score.Add(env.srcContains("bootstrap"))
		score.Add(env.Page.HasAttrPrefix("data-bs-"))
		score.Add(env.Page.Contains("class=\"navbar-toggler"))
		return score.AtLeast(2)
	}},
	{Name: "Tailwind CSS", Match: func(_ context.Context, env *Env) bool {
		var score Score
		// The --tw- custom property prefix is emitted only by Tailwind.
		score.AddWeighted(env.Page.Contains("--tw-"), 2)
		score.Add(env.stylesheetContains("tailwind"))
		score.Add(env.srcContains("cdn.tailwindcss.com"))
		return score.AtLeast(2)
	}},
	{Name: "Bulma", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.stylesheetContains("bulma"))
		score.Add(env.Page.Contains("class=\"hero-body"))
		score.Add(env.Page.Contains("is-fullheight") || env.Page.Contains("navbar-burger"))
		return score.AtLeast(2)
	}},
	{Name: "Foundation", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.stylesheetContains("foundation"))
		score.Add(env.srcContains("foundation"))
		score.Add(env.Page.Has("[data-whatinput]") || env.Page.Contains("data-sticky-container"))
		return score.AtLeast(2)
	}},
	{Name: "Material UI", Match: func(_ context.Context, env *Env) bool {
		var score Score
		// Generated class names share the Mui* prefix.
		score.AddWeighted(env.Page.Contains("muibox-root") || env.Page.Contains("muibutton-root"), 2)
		score.Add(env.Page.Contains("class=\"mui"))
		score.Add(env.srcContains("material-ui"))
		return score.AtLeast(2)
	}},
	{Name: "Semantic UI", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.stylesheetContains("semantic-ui") || env.stylesheetContains("semantic.min.css"))
		score.Add(env.srcContains("semantic-ui") || env.srcContains("semantic.min.js"))
		score.Add(env.Page.Contains("class=\"ui "))
		return score.AtLeast(2)
	}},
	{Name: "Materialize", Match: func(_ context.Context, env *Env) bool {
		var score Score
		score.Add(env.stylesheetContains("materialize"))
		score.Add(env.srcContains("materialize"))
		score.Add(env.Page.Contains("class=\"waves-effect"))
		return score.AtLeast(2)
	}},
}
