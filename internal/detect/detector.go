package detect

import "context"

// Detector tests one technology against the evidence bundle. Detectors are
// side-effect-free with respect to the report: they return a verdict and the
// aggregator decides what to record.
type Detector struct {
	Name  string
	Match func(ctx context.Context, env *Env) bool
}
