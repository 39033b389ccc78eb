package events

import (
	"net/http"
	"time"
)

// UpstreamStart is emitted before an HTTP request is sent upstream.
// CallID pairs it with the matching UpstreamFinish.
type UpstreamStart struct {
	CallID   string
	Endpoint string
	Request  *http.Request
}

// UpstreamFinish is emitted after the upstream call completes or fails.
type UpstreamFinish struct {
	CallID   string
	Endpoint string
	Request  *http.Request
	Status   int
	Err      error
	Duration time.Duration
}
