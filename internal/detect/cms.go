package detect

import (
	"context"
	"strings"
)

// cmsDetectors runs in fixed priority order, first match wins. Threshold
// policy for the family: at least two independent signatures, except for
// hosted platforms whose asset CDN hostname alone is globally unique
// (Shopify, Squarespace, Wix) where the distinctive marker carries the full
// weight on its own.
var cmsDetectors = []Detector{
	{Name: "WordPress", Match: matchWordPress},
	{Name: "Drupal", Match: matchDrupal},
	{Name: "Joomla", Match: matchJoomla},
	{Name: "Shopify", Match: matchShopify},
	{Name: "Squarespace", Match: matchSquarespace},
	{Name: "Wix", Match: matchWix},
}

// detectCMS returns the first matching CMS name, or "". Later detectors are
// never evaluated once one matches.
func detectCMS(ctx context.Context, env *Env) string {
	for _, d := range cmsDetectors {
		if d.Match(ctx, env) {
			return d.Name
		}
	}
	return ""
}

func matchWordPress(ctx context.Context, env *Env) bool {
	var score Score
	score.Add(env.Page.Contains("/wp-content/"))
	score.Add(env.Page.Contains("/wp-includes/"))
	score.Add(strings.Contains(strings.ToLower(env.Page.MetaContent("generator")), "wordpress"))
	score.Add(env.Page.AttrContains("link", "href", "/wp-json/"))
	if score.AtLeast(2) {
		return true
	}
	// Markup alone was inconclusive; ask the REST discovery endpoint on the
	// same host for corroboration.
	score.Add(wordPressDiscoveryProbe(ctx, env))
	return score.AtLeast(2)
}

// wordPressDiscoveryProbe checks the well-known REST index. A WordPress host
// answers /wp-json/ with a JSON document listing API namespaces.
func wordPressDiscoveryProbe(ctx context.Context, env *Env) bool {
	if env.Probe == nil {
		return false
	}
	status, headers, body, ok := env.Probe(ctx, "/wp-json/")
	if !ok || status != 200 {
		return false
	}
	if !strings.Contains(strings.ToLower(headers.Get("content-type")), "json") {
		return false
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, `"namespaces"`) || strings.Contains(lower, "wp/v2")
}

func matchDrupal(_ context.Context, env *Env) bool {
	var score Score
	score.Add(strings.Contains(strings.ToLower(env.Page.MetaContent("generator")), "drupal"))
	score.Add(env.Page.Contains("/sites/default/files"))
	score.Add(env.Page.HasAttrPrefix("data-drupal-"))
	score.Add(env.Page.Contains("drupal-settings-json"))
	return score.AtLeast(2)
}

func matchJoomla(_ context.Context, env *Env) bool {
	var score Score
	score.Add(strings.Contains(strings.ToLower(env.Page.MetaContent("generator")), "joomla"))
	score.Add(env.Page.Contains("/media/jui/"))
	score.Add(env.Page.Contains("/components/com_"))
	score.Add(env.Page.Contains("joomla-script-options"))
	return score.AtLeast(2)
}

func matchShopify(_ context.Context, env *Env) bool {
	var score Score
	// The Shopify asset CDN hostname never appears on unrelated sites.
	score.AddWeighted(env.Page.Contains("cdn.shopify.com"), 2)
	score.Add(env.inlineContains("shopify.shop"))
	score.Add(env.Page.Contains("shopify-section"))
	return score.AtLeast(2)
}

func matchSquarespace(_ context.Context, env *Env) bool {
	var score Score
	score.AddWeighted(env.Page.Contains("static1.squarespace.com"), 2)
	score.Add(strings.Contains(strings.ToLower(env.Page.MetaContent("generator")), "squarespace"))
	score.Add(env.inlineContains("squarespace-rollups"))
	return score.AtLeast(2)
}

func matchWix(_ context.Context, env *Env) bool {
	var score Score
	score.AddWeighted(env.Page.Contains("static.parastorage.com"), 2)
	score.Add(strings.Contains(strings.ToLower(env.Page.MetaContent("generator")), "wix.com"))
	score.Add(env.Headers.Has("x-wix-request-id"))
	return score.AtLeast(2)
}
