// Package httptp is the net/http implementation of httprt.Transport.
package httptp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/hanpama/httpgraph/internal/eventbus"
	"github.com/hanpama/httpgraph/internal/events"
	"github.com/hanpama/httpgraph/internal/httprt"
	"github.com/hanpama/httpgraph/internal/reqid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// Transport sends upstream requests over HTTP and decodes JSON responses.
// It applies a default deadline, forwards the request id and publishes
// UpstreamStart/UpstreamFinish events.
type Transport struct {
	opts   *Options
	client *http.Client
	closed atomic.Bool
}

func New(opts ...Option) *Transport {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	client := o.Client
	if client == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if o.MaxConnsPerHost > 0 {
			tr.MaxIdleConnsPerHost = o.MaxConnsPerHost
		}
		client = &http.Client{Transport: tr}
	}
	return &Transport{opts: o, client: client}
}

var _ httprt.Transport = (*Transport)(nil)

func (t *Transport) Do(ctx context.Context, req *httprt.Request) (resp any, err error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	if _, ok := ctx.Deadline(); !ok && t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("httptp: %w", err)
	}
	for name, values := range t.opts.Headers {
		hreq.Header[name] = append([]string(nil), values...)
	}
	for name, values := range req.Header {
		hreq.Header[name] = append([]string(nil), values...)
	}
	hreq.Header.Set("Accept", "application/json")
	if req.Body != nil && hreq.Header.Get("Content-Type") == "" {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if t.opts.UserAgent != "" && hreq.Header.Get("User-Agent") == "" {
		hreq.Header.Set("User-Agent", t.opts.UserAgent)
	}
	if id, ok := reqid.FromContext(ctx); ok {
		hreq.Header.Set(reqid.Header, id)
	}

	callID := uuid.NewString()
	endpoint := string(req.Endpoint)
	start := time.Now()
	status := 0
	eventbus.Publish(ctx, events.UpstreamStart{CallID: callID, Endpoint: endpoint, Request: hreq})
	defer func() {
		eventbus.Publish(ctx, events.UpstreamFinish{
			CallID:   callID,
			Endpoint: endpoint,
			Request:  hreq,
			Status:   status,
			Err:      err,
			Duration: time.Since(start),
		})
	}()

	res, err := t.client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	status = res.StatusCode

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &StatusError{
			Method: req.Method,
			URL:    hreq.URL.String(),
			Status: res.StatusCode,
			Body:   string(body),
		}
	}
	if req.Method == http.MethodHead || res.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("httptp: decode %s: %w", endpoint, err)
	}
	return resp, nil
}

// Close releases idle connections. Later calls fail with ErrClosed.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.client.CloseIdleConnections()
	return nil
}
