// Package httprt resolves blueprint fields at query time. Synchronous fields
// are read from the parent value or a literal; HTTP fields are resolved one
// wave at a time, merging sibling resolutions of a batched endpoint into a
// single upstream call.
package httprt

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hanpama/httpgraph/internal/blueprint"
	"github.com/hanpama/httpgraph/internal/eventbus"
	"github.com/hanpama/httpgraph/internal/events"
)

// Task is one pending field resolution in a wave.
//   - ObjectType is the type name of the parent (e.g. "User"); root fields use
//     the root type name.
//   - Source is the parent value, as decoded JSON (nil for root).
//   - Args maps argument names to already-coerced values.
type Task struct {
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
}

// Result is the outcome of one Task.
type Result struct {
	Value any
	Error error
}

// Runtime serves one Blueprint.
// Invariants and boundaries:
//   - Wave model: the executor offers every HTTP task ready at a depth in one
//     BatchResolveAsync call, before any of them dispatch, so that batching
//     can occur.
//   - Atomic groups: a batched call either completes for all of its tasks or
//     fails for all of them. A key missing from the response is not a failure.
//   - Concurrency: groups run in parallel up to Options.Concurrency. Transports
//     must be concurrency-safe.
//   - Determinism: results[i] belongs to tasks[i].
//   - No retries; those belong to the transport.
type Runtime struct {
	bp        *blueprint.Blueprint
	transport Transport
	opts      *Options

	fields    map[[2]string]*blueprint.FieldDefinition
	endpoints map[blueprint.EndpointID]*blueprint.Endpoint
	flight    singleflight.Group
}

func NewRuntime(bp *blueprint.Blueprint, transport Transport, opts ...Option) *Runtime {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	r := &Runtime{
		bp:        bp,
		transport: transport,
		opts:      o,
		fields:    make(map[[2]string]*blueprint.FieldDefinition),
		endpoints: make(map[blueprint.EndpointID]*blueprint.Endpoint, len(bp.Endpoints)),
	}
	for _, d := range bp.Definitions {
		if d.Object == nil {
			continue
		}
		for _, f := range d.Object.Fields {
			r.fields[[2]string{d.Object.Name, f.Name}] = f
		}
	}
	for _, e := range bp.Endpoints {
		r.endpoints[e.ID] = e
	}
	return r
}

// IsAsync reports whether a field must go through BatchResolveAsync.
func (r *Runtime) IsAsync(objectType, field string) bool {
	fd := r.fields[[2]string{objectType, field}]
	return fd != nil && fd.Resolver != nil && fd.Resolver.Kind == blueprint.ResolverKindHttp
}

// ResolveSync resolves a field without I/O: a literal from @unsafe, or the
// value under the field's name in the parent object. A missing value yields
// (nil, nil).
func (r *Runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	_ = ctx
	_ = args

	fd := r.fields[[2]string{objectType, field}]
	if fd == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, objectType, field)
	}
	if fd.Resolver != nil {
		switch fd.Resolver.Kind {
		case blueprint.ResolverKindConst:
			return fd.Resolver.Value, nil
		case blueprint.ResolverKindHttp:
			return nil, fmt.Errorf("%w: %s.%s", ErrAsyncField, objectType, field)
		}
	}
	if source == nil {
		return nil, nil
	}
	obj, ok := source.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s got %T", ErrSourceShape, objectType, field, source)
	}
	return obj[field], nil
}

// BatchResolveAsync resolves one wave of HTTP tasks. Tasks whose batch key is
// null resolve without a call, the same way as a key the response does not
// contain: null, or an empty list for list fields.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	calls := make([]*Call, 0, len(tasks))
	for i, t := range tasks {
		ep, err := r.endpointFor(t.ObjectType, t.Field)
		if err != nil {
			results[i] = Result{Error: err}
			continue
		}
		c := NewCall(i, ep, t)
		if c.Batched() && len(c.Keys) == 0 {
			if ep.List {
				results[i] = Result{Value: []any{}}
			}
			continue
		}
		calls = append(calls, c)
	}

	batches := Group(calls)
	if len(batches) == 1 {
		r.dispatch(ctx, batches[0], results)
		return results
	}
	var g errgroup.Group
	if r.opts.Concurrency > 0 {
		g.SetLimit(r.opts.Concurrency)
	}
	for _, b := range batches {
		g.Go(func() error {
			r.dispatch(ctx, b, results)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runtime) endpointFor(objectType, field string) (*blueprint.Endpoint, error) {
	fd := r.fields[[2]string{objectType, field}]
	if fd == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, objectType, field)
	}
	if fd.Resolver == nil || fd.Resolver.Kind != blueprint.ResolverKindHttp {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoEndpoint, objectType, field)
	}
	ep := r.endpoints[fd.Resolver.Endpoint]
	if ep == nil {
		return nil, fmt.Errorf("%w: %s.%s (%s)", ErrNoEndpoint, objectType, field, fd.Resolver.Endpoint)
	}
	return ep, nil
}

// dispatch issues the batch's one upstream call and writes a result for every
// call in it. Each batch owns distinct result slots.
func (r *Runtime) dispatch(ctx context.Context, b *Batch, results []Result) {
	start := time.Now()
	var (
		resp   any
		shared bool
		values []any
	)
	req, err := b.Request()
	if err == nil {
		resp, shared, err = r.do(ctx, b.Endpoint, req)
	}
	if err == nil {
		values, err = r.distribute(b, resp)
	}
	eventbus.Publish(ctx, events.BatchDispatch{
		Endpoint: string(b.Endpoint.ID),
		Tasks:    len(b.Calls),
		Keys:     len(b.Keys),
		Shared:   shared,
		Err:      err,
		Duration: time.Since(start),
	})
	if err != nil {
		err = fmt.Errorf("%s: %w", b.Endpoint.ID, err)
		for _, c := range b.Calls {
			results[c.Index] = Result{Error: err}
		}
		return
	}

	for i, c := range b.Calls {
		results[c.Index] = r.checked(b.Endpoint, values[i])
	}
}

// do performs the call, sharing it among identical in-flight requests when
// the endpoint allows it. A shared call is detached from the cancellation of
// whichever caller started it and is bounded by the transport's own deadline;
// each caller stops waiting when its own context ends.
func (r *Runtime) do(ctx context.Context, ep *blueprint.Endpoint, req *Request) (any, bool, error) {
	if !r.dedupes(ep) {
		v, err := r.transport.Do(ctx, req)
		return v, false, err
	}
	ch := r.flight.DoChan(req.Key(), func() (any, error) {
		return r.transport.Do(context.WithoutCancel(ctx), req)
	})
	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (r *Runtime) dedupes(ep *blueprint.Endpoint) bool {
	if ep.Request.Dedupe {
		return true
	}
	return r.opts.Dedupe && (ep.Request.Method == http.MethodGet || ep.Request.Method == http.MethodHead)
}

// distribute maps the response onto the batch's calls, in call order.
func (r *Runtime) distribute(b *Batch, resp any) ([]any, error) {
	if !b.Endpoint.Batched() {
		return []any{resp}, nil
	}
	var items []any
	switch v := resp.(type) {
	case nil:
	case []any:
		items = v
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotList, resp)
	}
	requests := make([][]any, len(b.Calls))
	for i, c := range b.Calls {
		requests[i] = c.Keys
	}
	return Fanout(items, b.Endpoint.Request.BatchKey, requests, b.Endpoint.List), nil
}

func (r *Runtime) checked(ep *blueprint.Endpoint, v any) Result {
	if r.opts.ValidateResponses {
		if err := ep.Output.Validate(v); err != nil {
			return Result{Error: fmt.Errorf("%s: %w: %v", ep.ID, ErrInvalidResponse, err)}
		}
	}
	return Result{Value: v}
}
