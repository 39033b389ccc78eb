package httptp

import (
	"net/http"
	"time"
)

// Options configures the HTTP transport.
//
// Defaults:
// - MaxConnsPerHost: 16 idle connections kept per upstream host
// - Timeout:         3s (used only if incoming context has no deadline)
// - UserAgent:       "httpgraph"
//
// All options are safe to leave zero-valued to use defaults.
type Options struct {
	Client *http.Client

	MaxConnsPerHost int
	Timeout         time.Duration
	UserAgent       string

	// Headers are sent with every request, before the endpoint's own headers.
	Headers http.Header
}

type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		MaxConnsPerHost: 16,
		Timeout:         3 * time.Second,
		UserAgent:       "httpgraph",
	}
}

func WithClient(c *http.Client) Option   { return func(o *Options) { o.Client = c } }
func WithMaxConnsPerHost(n int) Option   { return func(o *Options) { o.MaxConnsPerHost = n } }
func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithUserAgent(ua string) Option     { return func(o *Options) { o.UserAgent = ua } }
func WithHeader(name, value string) Option {
	return func(o *Options) {
		if o.Headers == nil {
			o.Headers = http.Header{}
		}
		o.Headers.Add(name, value)
	}
}
