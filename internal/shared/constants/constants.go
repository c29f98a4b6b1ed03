package constants

import "time"

const (
	// DefaultFetchTimeout bounds every outbound request, including script fetches.
	DefaultFetchTimeout = 6 * time.Second
	// DefaultMaxBodyBytes caps how much of any response body is read.
	DefaultMaxBodyBytes = 500 * 1024
	// DefaultMaxScriptFetches caps how many linked scripts are retrieved per run.
	DefaultMaxScriptFetches = 12
	// DefaultScriptConcurrency caps in-flight script fetches.
	DefaultScriptConcurrency = 5
	// DefaultScriptBudget is the wall-clock budget for the whole script-fetch phase.
	DefaultScriptBudget = 10 * time.Second
	// DefaultRequestsPerSecond is the outbound rate limit shared by all fetches in a run.
	DefaultRequestsPerSecond = 10
	// MaxRequestBodyBytes limits API request bodies.
	MaxRequestBodyBytes = 1 << 20
)

// DefaultUserAgent is sent on every outbound request. A realistic browser UA
// avoids trivially different responses from servers that fingerprint clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
