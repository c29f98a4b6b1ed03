package detect

import "context"

// Analytics, marketing, monitoring, and payment products are matched on
// vendor script hosts and known init-call signatures. Vendor hostnames are
// globally unique, so either evidence type decides on its own; the detectors
// are independent of each other and carry no ordering.

type serviceSignature struct {
	name  string
	hosts []string // matched against external script src
	calls []string // matched against inline script content
}

func (sig serviceSignature) detector() Detector {
	return Detector{Name: sig.name, Match: func(_ context.Context, env *Env) bool {
		for _, host := range sig.hosts {
			if env.srcContains(host) {
				return true
			}
		}
		for _, call := range sig.calls {
			if env.inlineContains(call) {
				return true
			}
		}
		return false
	}}
}

func serviceDetectors(sigs []serviceSignature) []Detector {
	out := make([]Detector, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, sig.detector())
	}
	return out
}

var analyticsDetectors = serviceDetectors([]serviceSignature{
	{name: "Google Analytics", hosts: []string{"google-analytics.com", "googletagmanager.com/gtag"}, calls: []string{"gtag('config'", "ga('create'"}},
	{name: "Google Tag Manager", hosts: []string{"googletagmanager.com/gtm.js"}, calls: []string{"'gtm-"}},
	{name: "Plausible", hosts: []string{"plausible.io/js"}, calls: []string{"plausible("}},
	{name: "Matomo", hosts: []string{"matomo.js", "piwik.js"}, calls: []string{"_paq.push"}},
	{name: "Hotjar", hosts: []string{"static.hotjar.com"}, calls: []string{"hj('", "_hjsettings"}},
	{name: "Segment", hosts: []string{"cdn.segment.com"}, calls: []string{"analytics.load("}},
	{name: "Mixpanel", hosts: []string{"cdn.mxpnl.com"}, calls: []string{"mixpanel.init("}},
	{name: "Fathom", hosts: []string{"usefathom.com"}, calls: []string{"fathom.trackpageview"}},
})

var marketingDetectors = serviceDetectors([]serviceSignature{
	{name: "HubSpot", hosts: []string{"js.hs-scripts.com", "js.hsforms.net"}, calls: []string{"_hsq.push"}},
	{name: "Intercom", hosts: []string{"widget.intercom.io"}, calls: []string{"intercomsettings"}},
	{name: "Drift", hosts: []string{"js.driftt.com"}, calls: []string{"drift.load("}},
	{name: "Facebook Pixel", hosts: []string{"connect.facebook.net"}, calls: []string{"fbq('init'"}},
	{name: "Mailchimp", hosts: []string{"chimpstatic.com", "list-manage.com"}},
	{name: "Klaviyo", hosts: []string{"static.klaviyo.com"}, calls: []string{"klaviyo.init"}},
})

var monitoringDetectors = serviceDetectors([]serviceSignature{
	{name: "Sentry", hosts: []string{"browser.sentry-cdn.com", "js.sentry-cdn.com"}, calls: []string{"sentry.init("}},
	{name: "New Relic", hosts: []string{"js-agent.newrelic.com"}, calls: []string{"nreum"}},
	{name: "Datadog", hosts: []string{"datadoghq-browser-agent.com"}, calls: []string{"dd_rum"}},
	{name: "LogRocket", hosts: []string{"cdn.logrocket.io", "cdn.logrocket.com"}, calls: []string{"logrocket.init("}},
	{name: "Bugsnag", hosts: []string{"d2wy8f7a9ursnm.cloudfront.net"}, calls: []string{"bugsnag.start("}},
})

var paymentDetectors = serviceDetectors([]serviceSignature{
	{name: "Stripe", hosts: []string{"js.stripe.com"}, calls: []string{"stripe("}},
	{name: "PayPal", hosts: []string{"paypal.com/sdk/js"}, calls: []string{"paypal.buttons("}},
	{name: "Square", hosts: []string{"web.squarecdn.com", "js.squareup.com"}},
	{name: "Braintree", hosts: []string{"js.braintreegateway.com"}, calls: []string{"braintree.client.create"}},
	{name: "Razorpay", hosts: []string{"checkout.razorpay.com"}, calls: []string{"new razorpay("}},
})
