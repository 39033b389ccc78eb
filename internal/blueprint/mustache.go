package blueprint

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Template roots readable from an expression.
const (
	RootValue = "value"
	RootArgs  = "args"
)

// Mustache is a parsed template such as "/users/{{.value.id}}". An expression
// is a dotted path whose first segment is a root: {{.value.x}} reads the parent
// object and {{.args.x}} reads a field argument. The leading dot is optional.
type Mustache struct {
	raw      string
	segments []segment
}

type segment struct {
	literal string
	path    []string // nil for literal segments
}

// ParseMustache parses s. A string without "{{" is a constant template.
func ParseMustache(s string) (*Mustache, error) {
	m := &Mustache{raw: s}
	rest := s
	for rest != "" {
		open := strings.Index(rest, "{{")
		if open < 0 {
			m.segments = append(m.segments, segment{literal: rest})
			break
		}
		if open > 0 {
			m.segments = append(m.segments, segment{literal: rest[:open]})
		}
		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			return nil, fmt.Errorf("unterminated expression in %q", s)
		}
		expr := strings.TrimSpace(rest[open+2 : open+2+end])
		path, err := parseExpression(expr)
		if err != nil {
			return nil, fmt.Errorf("%w in %q", err, s)
		}
		m.segments = append(m.segments, segment{path: path})
		rest = rest[open+2+end+2:]
	}
	return m, nil
}

// MustParseMustache is ParseMustache for templates known to be valid.
func MustParseMustache(s string) *Mustache {
	m, err := ParseMustache(s)
	if err != nil {
		panic(err)
	}
	return m
}

func parseExpression(expr string) ([]string, error) {
	expr = strings.TrimPrefix(expr, ".")
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}
	path := strings.Split(expr, ".")
	for _, p := range path {
		if p == "" {
			return nil, fmt.Errorf("malformed expression %q", expr)
		}
	}
	switch path[0] {
	case RootValue, RootArgs:
	default:
		return nil, fmt.Errorf("unknown expression root %q", path[0])
	}
	if len(path) < 2 {
		return nil, fmt.Errorf("expression %q must select a field", expr)
	}
	return path, nil
}

func (m *Mustache) String() string {
	if m == nil {
		return ""
	}
	return m.raw
}

func (m *Mustache) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// IsConst reports whether the template has no expressions.
func (m *Mustache) IsConst() bool {
	for _, s := range m.segments {
		if s.path != nil {
			return false
		}
	}
	return true
}

// Expressions returns the expression paths in order of appearance,
// root included (e.g. ["value", "id"]).
func (m *Mustache) Expressions() [][]string {
	var out [][]string
	for _, s := range m.segments {
		if s.path != nil {
			out = append(out, s.path)
		}
	}
	return out
}

// Eval returns the raw value when the template is exactly one expression,
// and the rendered string otherwise. A lone expression that reads a missing
// value evaluates to nil.
func (m *Mustache) Eval(ctx map[string]any) any {
	if len(m.segments) == 1 && m.segments[0].path != nil {
		v, _ := Lookup(ctx, m.segments[0].path)
		return v
	}
	return m.Render(ctx)
}

// Render substitutes every expression. Missing values render as "".
func (m *Mustache) Render(ctx map[string]any) string {
	if m == nil {
		return ""
	}
	var sb strings.Builder
	for _, s := range m.segments {
		if s.path == nil {
			sb.WriteString(s.literal)
			continue
		}
		v, _ := Lookup(ctx, s.path)
		sb.WriteString(FormatValue(v))
	}
	return sb.String()
}

// Lookup walks path through nested maps. A numeric segment indexes a list.
func Lookup(v any, path []string) (any, bool) {
	cur := v
	for _, p := range path {
		switch c := cur.(type) {
		case map[string]any:
			next, ok := c[p]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// FormatValue renders a decoded JSON value the way it appears in a URL.
// Integral floats print without a fractional part so 1.0 and 1 agree.
func FormatValue(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case float64:
		if vv == math.Trunc(vv) && math.Abs(vv) < 1e15 {
			return strconv.FormatInt(int64(vv), 10)
		}
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case fmt.Stringer:
		return vv.String()
	default:
		return fmt.Sprint(vv)
	}
}
