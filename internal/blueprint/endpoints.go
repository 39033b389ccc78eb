package blueprint

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/hanpama/httpgraph/internal/config"
	"github.com/hanpama/httpgraph/internal/valid"
)

// buildEndpoints walks the type graph depth first from the root type and
// emits one endpoint per @http field, then covers types the root does not
// reach so that every @http field is checked and served. Types are entered
// once, so cyclic graphs terminate.
func (b *builder) buildEndpoints(h *hierarchy) valid.Valid[[]*Endpoint] {
	visited := make(map[string]bool, len(b.order))
	emitted := make(map[EndpointID]bool)
	var results []valid.Valid[*Endpoint]

	walk := func(start string) {
		stack := []string{start}
		for len(stack) > 0 {
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[name] || !b.isObject(name) {
				continue
			}
			visited[name] = true

			var next []string
			for _, f := range h.effectiveFields(name) {
				if f.Http != nil {
					id := NewEndpointID(f.Owner, f.Name)
					if !emitted[id] {
						emitted[id] = true
						results = append(results, b.endpoint(h, f))
					}
				}
				if b.isObject(f.Type) && !visited[f.Type] {
					next = append(next, f.Type)
				}
			}
			for i := len(next) - 1; i >= 0; i-- {
				stack = append(stack, next[i])
			}
		}
	}

	walk(b.cfg.QueryType())
	for _, t := range b.order {
		walk(t.Name)
	}

	return valid.Traverse(results, func(r valid.Valid[*Endpoint]) valid.Valid[*Endpoint] { return r })
}

func (b *builder) endpoint(h *hierarchy, f effectiveField) valid.Valid[*Endpoint] {
	return valid.Map(b.requestTemplate(h, f), func(req *RequestTemplate) *Endpoint {
		return &Endpoint{
			ID:      NewEndpointID(f.Owner, f.Name),
			Parent:  f.Owner,
			Field:   f.Name,
			Type:    f.Type,
			List:    f.List,
			Request: req,
			Output:  b.fieldSchema(h, f.Field, map[string]bool{}),
		}
	}).Trace(f.Owner, f.Name)
}

// fieldSchema wraps the schema of f's type: list when f is a list, optional
// unless f is required. List elements are not wrapped.
func (b *builder) fieldSchema(h *hierarchy, f *config.Field, expanded map[string]bool) *TSchema {
	node := b.typeSchema(h, f.Type, expanded)
	if f.List {
		node = ListSchema(node)
	}
	if !f.Required {
		node = OptionalSchema(node)
	}
	return node
}

// typeSchema describes the response shape of a named type. Fields resolved by
// their own endpoint or by a literal are left out; they are not part of this
// response. Each object type is expanded at most once per endpoint; any later
// reference, cyclic or not, becomes an opaque scalar.
func (b *builder) typeSchema(h *hierarchy, name string, expanded map[string]bool) *TSchema {
	if !b.isObject(name) {
		return ScalarSchema(scalarSchemaName(name))
	}
	if expanded[name] {
		return ScalarSchema(ScalarAny)
	}
	expanded[name] = true

	var fields []*TField
	for _, f := range h.effectiveFields(name) {
		if f.Http != nil || f.Unsafe != nil {
			continue
		}
		fields = append(fields, SchemaField(f.Name, b.fieldSchema(h, f.Field, expanded)))
	}
	return ObjectSchema(fields...)
}

var supportedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

type target struct {
	scheme string
	host   string
	path   *Mustache
}

func (b *builder) requestTemplate(h *hierarchy, f effectiveField) valid.Valid[*RequestTemplate] {
	directive := f.Http
	method := strings.ToUpper(directive.Method)
	if method == "" {
		method = http.MethodGet
	}
	methodCheck := valid.Ok()
	if !supportedMethods[method] {
		methodCheck = violationUnsupportedMethod[valid.Unit](directive.Method).Trace("method")
	}

	parts := valid.Zip3(
		valid.Zip(methodCheck, b.resolveTarget(directive)),
		valid.Zip(queryParams(directive.Query).Trace("query"), headerTemplates(directive.Headers).Trace("headers")),
		bodyTemplate(method, directive.Body),
	)
	req := valid.Map(parts, func(p valid.Triple[valid.Pair[valid.Unit, target], valid.Pair[[]QueryParam, []Header], *Body]) *RequestTemplate {
		t := p.First.Second
		return &RequestTemplate{
			Method:   method,
			Scheme:   t.scheme,
			Host:     t.host,
			Path:     t.path,
			Query:    p.Second.First,
			Headers:  p.Second.Second,
			Body:     p.Third,
			BatchKey: directive.BatchKey,
			Dedupe:   directive.Dedupe,
		}
	})

	return valid.AndThen(req, func(r *RequestTemplate) valid.Valid[*RequestTemplate] {
		return valid.Keep(valid.Succeed(r), valid.All(
			b.checkExpressions(h, f, r),
			b.checkBatchKey(h, f, r).Trace("batchKey"),
		))
	}).Trace("@http")
}

// resolveTarget combines the directive path with its baseURL, or with the
// upstream base URL when the directive has none. An absolute path keeps its
// own scheme and host.
func (b *builder) resolveTarget(directive *config.Http) valid.Valid[target] {
	raw := directive.Path
	if strings.Contains(raw, "?") {
		return violationQueryInPath[target]().Trace("path")
	}
	if scheme, rest, ok := strings.Cut(raw, "://"); ok {
		host, p, _ := strings.Cut(rest, "/")
		if (scheme != "http" && scheme != "https") || host == "" {
			return violationInvalidBaseURL[target](raw).Trace("path")
		}
		return parseTargetPath(scheme, host, "/"+p)
	}

	base, fromDirective := directive.BaseURL, true
	if base == "" {
		base, fromDirective = b.cfg.Upstream.BaseURL, false
	}
	if base == "" {
		return violationNoBaseURL[target]()
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v := violationInvalidBaseURL[target](base)
		if fromDirective {
			return v.Trace("baseURL")
		}
		return v
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return parseTargetPath(u.Scheme, u.Host, strings.TrimSuffix(u.Path, "/")+raw)
}

func parseTargetPath(scheme, host, path string) valid.Valid[target] {
	m, err := ParseMustache(path)
	if err != nil {
		return violationTemplate[target](err).Trace("path")
	}
	return valid.Succeed(target{scheme: scheme, host: host, path: m})
}

func queryParams(kvs []config.KeyValue) valid.Valid[[]QueryParam] {
	return valid.Traverse(kvs, func(kv config.KeyValue) valid.Valid[QueryParam] {
		m, err := ParseMustache(kv.Value)
		if err != nil {
			return violationTemplate[QueryParam](err).Trace(kv.Key)
		}
		return valid.Succeed(QueryParam{Key: kv.Key, Value: m})
	})
}

func headerTemplates(kvs []config.KeyValue) valid.Valid[[]Header] {
	return valid.Traverse(kvs, func(kv config.KeyValue) valid.Valid[Header] {
		if !httpguts.ValidHeaderFieldName(kv.Key) {
			return violationInvalidHeaderName[Header](kv.Key)
		}
		m, err := ParseMustache(kv.Value)
		if err != nil {
			return violationTemplate[Header](err).Trace(kv.Key)
		}
		return valid.Succeed(Header{Name: http.CanonicalHeaderKey(kv.Key), Value: m})
	})
}

func bodyTemplate(method, raw string) valid.Valid[*Body] {
	if raw == "" {
		return valid.Succeed[*Body](nil)
	}
	if method == http.MethodGet || method == http.MethodHead {
		return violationBodyNotAllowed[*Body](method).Trace("body")
	}
	body, err := ParseBody(raw)
	if err != nil {
		return violationTemplate[*Body](err).Trace("body")
	}
	return valid.Succeed(body)
}

// checkExpressions verifies that {{.args.x}} names a declared argument and
// {{.value.x}} names a field of the declaring type.
func (b *builder) checkExpressions(h *hierarchy, f effectiveField, r *RequestTemplate) valid.Valid[valid.Unit] {
	check := func(m *Mustache) valid.Valid[valid.Unit] {
		return valid.Traverse(m.Expressions(), func(path []string) valid.Valid[valid.Unit] {
			switch path[0] {
			case RootArgs:
				for _, a := range f.Args {
					if a.Name == path[1] {
						return valid.Ok()
					}
				}
				return violationUnknownArgument[valid.Unit](path[1], f.Owner, f.Name)
			case RootValue:
				if _, ok := h.lookupField(f.Owner, path[1]); !ok {
					return violationUnknownValueField[valid.Unit](path[1], f.Owner)
				}
			}
			return valid.Ok()
		}).Unit()
	}

	query := valid.Traverse(r.Query, func(q QueryParam) valid.Valid[valid.Unit] {
		return check(q.Value).Trace(q.Key)
	})
	headers := valid.Traverse(r.Headers, func(hd Header) valid.Valid[valid.Unit] {
		return check(hd.Value).Trace(hd.Name)
	})
	body := valid.Ok()
	if r.Body != nil {
		body = valid.Traverse(r.Body.Expressions(), func(path []string) valid.Valid[valid.Unit] {
			return check(&Mustache{segments: []segment{{path: path}}})
		}).Unit().Trace("body")
	}
	return valid.All(
		check(r.Path).Trace("path"),
		query.Unit().Trace("query"),
		headers.Unit().Trace("headers"),
		body,
	)
}

// checkBatchKey requires the first batch key segment to be a field of the
// response elements, and a source for each parent's key. A GET carries keys in
// the batch parameter (the last batch key segment), which must be a declared
// query parameter. A request with a body may instead list parents in the
// body: every {{.value.x}} there must sit inside a list, and the first one
// supplies the key.
func (b *builder) checkBatchKey(h *hierarchy, f effectiveField, r *RequestTemplate) valid.Valid[valid.Unit] {
	if len(r.BatchKey) == 0 {
		return valid.Ok()
	}
	var checks []valid.Valid[valid.Unit]
	if r.Body == nil && r.Method != http.MethodGet {
		checks = append(checks, violationBatchMethod[valid.Unit](r.Method))
	}
	if r.Body != nil {
		if path := r.Body.ValueOutsideList(); path != nil {
			checks = append(checks, violationBatchBodyValue[valid.Unit](strings.Join(path, ".")))
		}
	}
	param := r.BatchParam()
	found := false
	for _, q := range r.Query {
		if q.Key == param {
			found = true
			break
		}
	}
	switch {
	case found:
	case r.Body != nil && r.Body.BatchKeyExpression() != nil:
	case r.Body != nil:
		checks = append(checks, violationBatchKeyNoSource[valid.Unit](param))
	case r.Method == http.MethodGet:
		checks = append(checks, violationBatchKeyNotInQuery[valid.Unit](param))
	}
	if b.isObject(f.Type) {
		if _, ok := h.lookupField(f.Type, r.BatchKey[0]); !ok {
			checks = append(checks, violationBatchKeyNotOnType[valid.Unit](r.BatchKey[0], f.Type))
		}
	}
	return valid.All(checks...)
}
