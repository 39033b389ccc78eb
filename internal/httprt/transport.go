package httprt

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/hanpama/httpgraph/internal/blueprint"
)

// Request is one upstream call as built by the runtime.
type Request struct {
	Endpoint blueprint.EndpointID
	Method   string
	URL      *url.URL
	Header   http.Header
	// Body is the encoded JSON body, or nil.
	Body []byte
}

// Key identifies the request for deduplication: method, full URL, headers and
// body.
func (r *Request) Key() string {
	var sb strings.Builder
	sb.WriteString(r.Method)
	sb.WriteByte(' ')
	sb.WriteString(r.URL.String())
	writeHeaders(&sb, r.Header)
	if r.Body != nil {
		sb.WriteString("\n\n")
		sb.Write(r.Body)
	}
	return sb.String()
}

func writeHeaders(sb *strings.Builder, h http.Header) {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteByte('\n')
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(h[name], ","))
	}
}

// Transport performs upstream HTTP calls and returns the decoded JSON body
// (map[string]any, []any, string, float64, bool or nil).
// Implementations MUST be safe for concurrent use: groups are dispatched in
// parallel.
//
// Provided implementations:
// - internal/httptp.Transport: net/http client with timeouts and events
// - MockTransport: recording fake for tests
type Transport interface {
	Do(ctx context.Context, req *Request) (any, error)
}
