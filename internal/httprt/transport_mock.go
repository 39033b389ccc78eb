package httprt

import (
	"context"
	"fmt"
	"sync"
)

// CallRecord captures a single Do invocation for assertions.
type CallRecord struct {
	Method string
	// URL is the full request URL, query included.
	URL     string
	Request *Request
}

// MockTransport implements Transport and answers from pre-seeded responses,
// while recording Do invocations for inspection.
type MockTransport struct {
	mu        sync.Mutex
	handler   func(*Request) (any, error)
	responses []any
	errs      []error
	idx       int
	calls     []CallRecord
}

// NewMockTransport creates a MockTransport that will return the provided
// responses in order for successive Do() invocations.
func NewMockTransport(responses ...any) *MockTransport {
	return &MockTransport{responses: append([]any(nil), responses...)}
}

// NewMockTransportWithErrors allows seeding per-call errors alongside responses.
// For call i, if errs[i] is non-nil, Do returns that error and ignores responses[i].
func NewMockTransportWithErrors(responses []any, errs []error) *MockTransport {
	return &MockTransport{
		responses: append([]any(nil), responses...),
		errs:      append([]error(nil), errs...),
	}
}

// NewMockTransportFunc answers every call with fn. Use it when calls run
// concurrently and their order is not fixed.
func NewMockTransportFunc(fn func(*Request) (any, error)) *MockTransport {
	return &MockTransport{handler: fn}
}

// Do records the invocation and returns the next queued response.
// If responses are exhausted, it returns an error.
func (m *MockTransport) Do(ctx context.Context, req *Request) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls = append(m.calls, CallRecord{Method: req.Method, URL: req.URL.String(), Request: req})
	if m.handler != nil {
		fn := m.handler
		m.mu.Unlock()
		return fn(req)
	}
	defer m.mu.Unlock()

	if m.idx >= len(m.responses) && m.idx >= len(m.errs) {
		return nil, fmt.Errorf("mock transport: no more responses")
	}
	i := m.idx
	m.idx++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return nil, nil
}

// Calls returns a snapshot of recorded Do invocations.
func (m *MockTransport) Calls() []CallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CallRecord(nil), m.calls...)
}
