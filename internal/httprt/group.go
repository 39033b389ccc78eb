package httprt

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hanpama/httpgraph/internal/blueprint"
)

// Call is one task rendered against its endpoint's request template.
type Call struct {
	// Index is the task's position in the wave.
	Index    int
	Endpoint *blueprint.Endpoint
	Path     string
	Header   http.Header
	// Keys holds the batch key values taken from the parent object; nil for
	// unbatched endpoints.
	Keys  []any
	query []queryPair
	scope map[string]any
	// argsBody is the body rendered without the parent value. Batched calls
	// that send different arguments must not share a request.
	argsBody string
}

type queryPair struct {
	key   string
	value string
	// batch marks where the batch parameter goes; its values come from the
	// whole group.
	batch bool
}

// NewCall renders task against ep. Templates read {{.value.x}} from
// task.Source and {{.args.x}} from task.Args. The body is rendered later by
// Batch.Request, once the batch members are known.
func NewCall(index int, ep *blueprint.Endpoint, task Task) *Call {
	scope := map[string]any{
		blueprint.RootValue: task.Source,
		blueprint.RootArgs:  task.Args,
	}
	req := ep.Request
	c := &Call{
		Index:    index,
		Endpoint: ep,
		Path:     req.Path.Render(scope),
		scope:    scope,
	}
	param := req.BatchParam()
	inQuery := false
	for _, q := range req.Query {
		if q.Key == param {
			inQuery = true
			c.Keys = keyValues(q.Value.Eval(scope))
			c.query = append(c.query, queryPair{key: q.Key, batch: true})
			continue
		}
		switch v := q.Value.Eval(scope).(type) {
		case nil:
		case []any:
			for _, it := range v {
				if it != nil {
					c.query = append(c.query, queryPair{key: q.Key, value: blueprint.FormatValue(it)})
				}
			}
		default:
			c.query = append(c.query, queryPair{key: q.Key, value: blueprint.FormatValue(v)})
		}
	}
	if len(req.Headers) > 0 {
		c.Header = make(http.Header, len(req.Headers))
		for _, h := range req.Headers {
			c.Header.Set(h.Name, h.Value.Render(scope))
		}
	}
	if ep.Batched() && req.Body != nil {
		if path := req.Body.BatchKeyExpression(); !inQuery && path != nil {
			v, _ := blueprint.Lookup(scope, path)
			c.Keys = keyValues(v)
		}
		data, _ := req.Body.Render(map[string]any{blueprint.RootArgs: task.Args})
		c.argsBody = string(data)
	}
	return c
}

// keyValues flattens an evaluated batch key into its values. A list key
// contributes each non-null element.
func keyValues(v any) []any {
	switch vv := v.(type) {
	case nil:
		return nil
	case []any:
		var out []any
		for _, it := range vv {
			if it != nil {
				out = append(out, it)
			}
		}
		return out
	default:
		return []any{v}
	}
}

// Batched reports whether the call joins a group.
func (c *Call) Batched() bool {
	return c.Endpoint.Batched()
}

// identity is the grouping key: endpoint, method, URL without the batch
// parameter values, and headers.
func (c *Call) identity() string {
	var sb strings.Builder
	sb.WriteString(string(c.Endpoint.ID))
	sb.WriteByte('\n')
	sb.WriteString(c.Endpoint.Request.Method)
	sb.WriteByte(' ')
	sb.WriteString(c.url(nil).String())
	writeHeaders(&sb, c.Header)
	if c.argsBody != "" {
		sb.WriteString("\n\n")
		sb.WriteString(c.argsBody)
	}
	return sb.String()
}

// url builds the request URL, expanding the batch parameter once per key.
func (c *Call) url(keys []any) *url.URL {
	var parts []string
	for _, q := range c.query {
		if q.batch {
			for _, k := range keys {
				parts = append(parts, url.QueryEscape(q.key)+"="+url.QueryEscape(blueprint.FormatValue(k)))
			}
			continue
		}
		parts = append(parts, url.QueryEscape(q.key)+"="+url.QueryEscape(q.value))
	}
	return &url.URL{
		Scheme:   c.Endpoint.Request.Scheme,
		Host:     c.Endpoint.Request.Host,
		Path:     c.Path,
		RawQuery: strings.Join(parts, "&"),
	}
}

// Batch is a group of calls served by one upstream request.
type Batch struct {
	Endpoint *blueprint.Endpoint
	Calls    []*Call
	// Keys are the distinct batch key values of all calls, first seen first.
	Keys []any
	// members are the calls that contributed at least one new key, in the
	// same order. A batched body lists one entry per member.
	members []*Call
}

// Request builds the single upstream request for the batch. A batched body is
// expanded once per member and evaluated with value bound to the members'
// parent values.
func (b *Batch) Request() (*Request, error) {
	lead := b.Calls[0]
	req := &Request{
		Endpoint: b.Endpoint.ID,
		Method:   b.Endpoint.Request.Method,
		URL:      lead.url(b.Keys),
		Header:   lead.Header.Clone(),
	}
	body := b.Endpoint.Request.Body
	if body == nil {
		return req, nil
	}
	var err error
	if b.Endpoint.Batched() {
		values := make([]any, len(b.members))
		for i, c := range b.members {
			values[i] = c.scope[blueprint.RootValue]
		}
		req.Body, err = body.Expand(len(values)).Render(map[string]any{
			blueprint.RootValue: values,
			blueprint.RootArgs:  lead.scope[blueprint.RootArgs],
		})
	} else {
		req.Body, err = body.Render(lead.scope)
	}
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	return req, nil
}

// Group partitions calls into batches. Batched calls with the same identity
// share a batch; every unbatched call gets its own. Batches are ordered by
// their first call.
func Group(calls []*Call) []*Batch {
	var out []*Batch
	byIdentity := map[string]*Batch{}
	seenKeys := map[*Batch]map[string]bool{}
	for _, c := range calls {
		if !c.Batched() {
			out = append(out, &Batch{Endpoint: c.Endpoint, Calls: []*Call{c}})
			continue
		}
		id := c.identity()
		b, ok := byIdentity[id]
		if !ok {
			b = &Batch{Endpoint: c.Endpoint}
			byIdentity[id] = b
			seenKeys[b] = map[string]bool{}
			out = append(out, b)
		}
		b.Calls = append(b.Calls, c)
		added := false
		for _, k := range c.Keys {
			s := blueprint.FormatValue(k)
			if !seenKeys[b][s] {
				seenKeys[b][s] = true
				b.Keys = append(b.Keys, k)
				added = true
			}
		}
		if added {
			b.members = append(b.members, c)
		}
	}
	return out
}
