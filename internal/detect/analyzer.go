package detect

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/khanhnv2901/techradar-cli/internal/fetcher"
	"github.com/khanhnv2901/techradar-cli/internal/markup"
)

// Analyzer orchestrates detector execution and owns the report for the
// duration of a run. Detectors only return verdicts; all writes into the
// report happen here, after each group resolves.
type Analyzer struct {
	client *fetcher.Client
	logger *zap.Logger
}

// New builds an Analyzer over the given fetcher.
func New(client *fetcher.Client, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{client: client, logger: logger}
}

// Analyze fetches rawURL and classifies the technologies behind it.
// Input and fetch errors pass through as the sentinel kinds from
// internal/shared/errors; everything past the root fetch degrades gracefully
// on partial evidence.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*Report, error) {
	target, err := fetcher.NormalizeTarget(rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := a.client.FetchDocument(ctx, target)
	if err != nil {
		return nil, err
	}

	page := markup.Parse(doc.Body, doc.BaseURL)
	env := &Env{
		Page:    page,
		Headers: Headers(doc.Headers),
		BaseURL: doc.BaseURL,
		Scripts: NewScriptSet(ctx, fetcherLoader{a.client}, page.ScriptRefs()),
		Probe: func(ctx context.Context, path string) (int, Headers, string, bool) {
			status, headers, body, ok := a.client.Probe(ctx, doc.BaseURL, path)
			return status, Headers(headers), body, ok
		},
	}

	report := a.Run(ctx, env)
	report.URL = doc.BaseURL.String()
	report.Title = page.Title()
	return report, nil
}

// Bundle is a frozen evidence triple, replayable without network access.
type Bundle struct {
	HTML    string
	Headers map[string]string
	BaseURL *url.URL
	Scripts map[string]string
}

// AnalyzeBundle runs the aggregator over frozen evidence. Repeated runs over
// the same bundle produce identical reports.
func (a *Analyzer) AnalyzeBundle(ctx context.Context, b Bundle) *Report {
	page := markup.Parse(b.HTML, b.BaseURL)
	env := &Env{
		Page:    page,
		Headers: Headers(b.Headers),
		BaseURL: b.BaseURL,
		Scripts: FrozenScriptSet(b.Scripts),
	}
	report := a.Run(ctx, env)
	report.Title = page.Title()
	return report
}

// Run executes every detector group against env in the required order:
// CMS resolution (and its suppression decision) completes before the
// framework families run; the remaining groups are mutually independent.
func (a *Analyzer) Run(ctx context.Context, env *Env) *Report {
	report := &Report{}

	// CMS priority chain, first match wins.
	for _, d := range cmsDetectors {
		if a.match(ctx, env, d) {
			report.CMS = d.Name
			break
		}
	}
	report.IsWordPress = report.CMS == "WordPress"

	// A CMS-managed theme bundles whatever its vendor shipped; reporting the
	// theme's frameworks would misattribute them to the site. Suppress the
	// whole category at the source.
	if !report.IsWordPress {
		report.JavascriptFrameworks = a.runGroup(ctx, env, jsFrameworkDetectors)
		report.CSSFrameworks = a.runGroup(ctx, env, cssFrameworkDetectors)
	}

	report.Analytics = a.runGroup(ctx, env, analyticsDetectors)
	report.Marketing = a.runGroup(ctx, env, marketingDetectors)
	report.Monitoring = a.runGroup(ctx, env, monitoringDetectors)
	report.Payments = a.runGroup(ctx, env, paymentDetectors)

	for _, d := range buildToolDetectors {
		if a.match(ctx, env, d) {
			report.BuildTools = appendUnique(report.BuildTools, d.Name)
		}
	}
	report.Compression = detectCompression(env.Headers)

	a.resolveHeaders(env, report)
	return report
}

// resolveHeaders maps Server/X-Powered-By to readable names, infers CDN and
// hosting from header fingerprints, and de-duplicates edge vs. origin.
func (a *Analyzer) resolveHeaders(env *Env, report *Report) {
	report.Server = resolveServer(env.Headers.Get("server"))

	poweredBy := env.Headers.Get("x-powered-by")
	if mf := metaFramework(poweredBy); mf != "" {
		// A meta-framework banner is framework evidence, not a platform.
		if !report.IsWordPress {
			report.JavascriptFrameworks = appendUnique(report.JavascriptFrameworks, mf)
		}
	} else {
		report.Platform = resolvePlatform(poweredBy)
	}

	report.CDN = matchFingerprintsInto(report.CDN, env.Headers, cdnFingerprints)
	report.Hosting = matchFingerprintsInto(report.Hosting, env.Headers, hostingFingerprints)

	// Edge-vs-origin de-duplication: a recognized edge network is a CDN, not
	// the origin server, and must never be reported as both.
	if provider, ok := edgeProviders[report.Server]; ok {
		report.CDN = appendUnique(report.CDN, provider)
		report.Server = ""
	}
}

// runGroup evaluates independent detectors concurrently and unions the
// positives in table order, so the report's field order never depends on
// scheduling.
func (a *Analyzer) runGroup(ctx context.Context, env *Env, detectors []Detector) []string {
	matched := make([]bool, len(detectors))
	var wg sync.WaitGroup
	for i, d := range detectors {
		wg.Add(1)
		go func(i int, d Detector) {
			defer wg.Done()
			matched[i] = a.match(ctx, env, d)
		}(i, d)
	}
	wg.Wait()

	var out []string
	for i, d := range detectors {
		if matched[i] {
			out = appendUnique(out, d.Name)
		}
	}
	return out
}

// match runs one detector, converting a panic into "not detected" so a
// single misbehaving detector cannot abort the run.
func (a *Analyzer) match(ctx context.Context, env *Env, d Detector) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			matched = false
			a.logger.Warn("detector panicked",
				zap.String("detector", d.Name),
				zap.Any("panic", rec),
			)
		}
	}()
	return d.Match(ctx, env)
}

// fetcherLoader adapts fetcher.Client to the ScriptLoader interface.
type fetcherLoader struct {
	client *fetcher.Client
}

func (l fetcherLoader) LoadScripts(ctx context.Context, refs []markup.ScriptRef) map[string]string {
	reqs := make([]fetcher.ScriptRequest, 0, len(refs))
	for _, ref := range refs {
		reqs = append(reqs, fetcher.ScriptRequest{URL: ref.URL, Priority: ref.Priority})
	}
	return l.client.FetchScripts(ctx, reqs)
}

func matchFingerprintsInto(list []string, headers Headers, prints []headerFingerprint) []string {
	for _, provider := range matchFingerprints(headers, prints) {
		list = appendUnique(list, provider)
	}
	return list
}
