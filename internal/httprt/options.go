package httprt

// Options configures the runtime.
//
// Defaults:
// - Concurrency:        8 groups dispatched at once
// - ValidateResponses:  false
// - Dedupe:             only endpoints that declare it
type Options struct {
	Concurrency       int
	ValidateResponses bool
	// Dedupe shares one call among identical concurrent GET requests for every
	// endpoint, not only those that declare it.
	Dedupe bool
}

type Option func(*Options)

func defaultOptions() *Options {
	return &Options{Concurrency: 8}
}

func WithConcurrency(n int) Option { return func(o *Options) { o.Concurrency = n } }
func WithResponseValidation() Option {
	return func(o *Options) { o.ValidateResponses = true }
}
func WithDedupe() Option { return func(o *Options) { o.Dedupe = true } }
