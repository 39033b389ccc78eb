package blueprint

import (
	"fmt"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Body is a JSON request body template. String values are mustache templates;
// one that is exactly an expression keeps the type of the value it reads, so
// `{"id": "{{.value.id}}"}` sends a number when the parent's id is a number.
type Body struct {
	raw  string
	root any // map[string]any, []any, *Mustache or a JSON scalar
}

// ParseBody parses a JSON body template.
func ParseBody(s string) (*Body, error) {
	var doc any
	if err := json.UnmarshalFromString(s, &doc); err != nil {
		return nil, fmt.Errorf("body is not valid JSON: %w", err)
	}
	root, err := parseBodyNode(doc)
	if err != nil {
		return nil, err
	}
	return &Body{raw: s, root: root}, nil
}

func parseBodyNode(v any) (any, error) {
	switch vv := v.(type) {
	case string:
		m, err := ParseMustache(vv)
		if err != nil {
			return nil, err
		}
		if m.IsConst() {
			return vv, nil
		}
		return m, nil
	case map[string]any:
		out := make(map[string]any, len(vv))
		for _, k := range sortedKeys(vv) {
			n, err := parseBodyNode(vv[k])
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			n, err := parseBodyNode(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	return v, nil
}

func (b *Body) String() string {
	if b == nil {
		return ""
	}
	return b.raw
}

func (b *Body) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Eval renders the body into a JSON value.
func (b *Body) Eval(ctx map[string]any) any {
	return evalBodyNode(b.root, ctx)
}

func evalBodyNode(n any, ctx map[string]any) any {
	switch nn := n.(type) {
	case *Mustache:
		return nn.Eval(ctx)
	case map[string]any:
		out := make(map[string]any, len(nn))
		for k, v := range nn {
			out[k] = evalBodyNode(v, ctx)
		}
		return out
	case []any:
		out := make([]any, len(nn))
		for i, v := range nn {
			out[i] = evalBodyNode(v, ctx)
		}
		return out
	}
	return n
}

// Render evaluates the body and encodes it as JSON.
func (b *Body) Render(ctx map[string]any) ([]byte, error) {
	return json.Marshal(b.Eval(ctx))
}

// Expressions returns every expression path in the body, object keys visited
// in sorted order.
func (b *Body) Expressions() [][]string {
	var out [][]string
	walkBody(b.root, false, func(m *Mustache, _ bool) {
		out = append(out, m.Expressions()...)
	})
	return out
}

// BatchKeyExpression returns the first {{.value.x}} expression that sits inside
// a list, or nil. Its value is the batch key a parent contributes to a batched
// body.
func (b *Body) BatchKeyExpression() []string {
	var found []string
	walkBody(b.root, false, func(m *Mustache, inList bool) {
		if found != nil || !inList {
			return
		}
		for _, p := range m.Expressions() {
			if p[0] == RootValue {
				found = p
				return
			}
		}
	})
	return found
}

// ValueOutsideList returns the first {{.value.x}} expression that is not
// inside a list, or nil. Such an expression has no batch member to read from.
func (b *Body) ValueOutsideList() []string {
	var found []string
	walkBody(b.root, false, func(m *Mustache, inList bool) {
		if found != nil || inList {
			return
		}
		for _, p := range m.Expressions() {
			if p[0] == RootValue {
				found = p
				return
			}
		}
	})
	return found
}

func walkBody(n any, inList bool, fn func(m *Mustache, inList bool)) {
	switch nn := n.(type) {
	case *Mustache:
		fn(nn, inList)
	case map[string]any:
		for _, k := range sortedKeys(nn) {
			walkBody(nn[k], inList, fn)
		}
	case []any:
		for _, v := range nn {
			walkBody(v, true, fn)
		}
	}
}

// Expand prepares the body for a batch of n parents. Every list is repeated
// once per parent, its {{.value.x}} expressions rewritten to {{.value.i.x}},
// so the result is evaluated with value bound to the list of parents. Values
// outside lists are left as they are.
func (b *Body) Expand(n int) *Body {
	return &Body{raw: b.raw, root: expandBodyNode(b.root, n)}
}

func expandBodyNode(node any, n int) any {
	switch nn := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(nn))
		for k, v := range nn {
			out[k] = expandBodyNode(v, n)
		}
		return out
	case []any:
		elems := make([]any, len(nn))
		for i, v := range nn {
			elems[i] = expandBodyNode(v, n)
		}
		out := make([]any, 0, len(elems)*n)
		for i := 0; i < n; i++ {
			for _, e := range elems {
				out = append(out, indexBodyNode(e, i))
			}
		}
		return out
	}
	return node
}

func indexBodyNode(node any, i int) any {
	switch nn := node.(type) {
	case *Mustache:
		return nn.indexValue(i)
	case map[string]any:
		out := make(map[string]any, len(nn))
		for k, v := range nn {
			out[k] = indexBodyNode(v, i)
		}
		return out
	case []any:
		out := make([]any, len(nn))
		for j, v := range nn {
			out[j] = indexBodyNode(v, i)
		}
		return out
	}
	return node
}

// indexValue rewrites {{.value.x}} to {{.value.i.x}}.
func (m *Mustache) indexValue(i int) *Mustache {
	out := &Mustache{segments: make([]segment, len(m.segments))}
	for j, s := range m.segments {
		if s.path != nil && s.path[0] == RootValue {
			path := make([]string, 0, len(s.path)+1)
			path = append(path, RootValue, strconv.Itoa(i))
			path = append(path, s.path[1:]...)
			s = segment{path: path}
		}
		out.segments[j] = s
	}
	out.raw = out.source()
	return out
}

// source writes the template back out in its canonical form.
func (m *Mustache) source() string {
	var out []byte
	for _, s := range m.segments {
		if s.path == nil {
			out = append(out, s.literal...)
			continue
		}
		out = append(out, "{{."...)
		for i, p := range s.path {
			if i > 0 {
				out = append(out, '.')
			}
			out = append(out, p...)
		}
		out = append(out, "}}"...)
	}
	return string(out)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
