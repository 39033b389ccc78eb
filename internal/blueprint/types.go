package blueprint

import "strings"

// Blueprint is the validated, executable form of a Config. It is immutable
// once built; a configuration change produces a fresh Blueprint.
type Blueprint struct {
	Query       string        `json:"query"`
	Definitions []*Definition `json:"definitions"`
	Endpoints   []*Endpoint   `json:"endpoints"`
	Server      *Server       `json:"server"`
}

type Definition struct {
	Object    *ObjectTypeDefinition    `json:"object,omitempty"`
	Interface *InterfaceTypeDefinition `json:"interface,omitempty"`
}

// Name returns the name of whichever definition is set.
func (d *Definition) Name() string {
	switch {
	case d.Object != nil:
		return d.Object.Name
	case d.Interface != nil:
		return d.Interface.Name
	}
	return ""
}

type ObjectTypeDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Fields      []*FieldDefinition `json:"fields"`
	Implements  []string           `json:"implements,omitempty"`
}

type InterfaceTypeDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Fields      []*FieldDefinition `json:"fields"`
}

type FieldDefinition struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Type        *TypeExpr             `json:"fieldType"`
	Args        []*ArgumentDefinition `json:"args,omitempty"`
	// Resolver is nil for fields read straight from the parent value.
	Resolver *Resolver `json:"resolver,omitempty"`
}

type ArgumentDefinition struct {
	Name string    `json:"name"`
	Type *TypeExpr `json:"type"`
}

type ResolverKind string

const (
	ResolverKindHttp  ResolverKind = "HTTP"
	ResolverKindConst ResolverKind = "CONST"
)

// Resolver tells the executor how a field gets its value.
type Resolver struct {
	Kind     ResolverKind `json:"kind"`
	Endpoint EndpointID   `json:"endpoint,omitempty"`
	Value    any          `json:"value,omitempty"`
}

// EndpointID identifies the endpoint of the field that declares @http.
// e.g. "User.posts"
type EndpointID string

func NewEndpointID(typeName, fieldName string) EndpointID {
	return EndpointID(typeName + "." + fieldName)
}

// Endpoint is one resolved upstream request template plus the shape of the
// response the graph consumes from it.
type Endpoint struct {
	ID      EndpointID       `json:"id"`
	Parent  string           `json:"parent"`
	Field   string           `json:"field"`
	Type    string           `json:"type"`
	List    bool             `json:"list,omitempty"`
	Request *RequestTemplate `json:"request"`
	// Output describes the value resolved for a single field occurrence,
	// including its optional/list wrappers.
	Output *TSchema `json:"output"`
}

// Batched reports whether sibling resolutions may share one upstream call.
func (e *Endpoint) Batched() bool {
	return len(e.Request.BatchKey) > 0
}

type RequestTemplate struct {
	Method   string       `json:"method"`
	Scheme   string       `json:"scheme"`
	Host     string       `json:"host"`
	Path     *Mustache    `json:"path"`
	Query    []QueryParam `json:"query,omitempty"`
	Headers  []Header     `json:"headers,omitempty"`
	Body     *Body        `json:"body,omitempty"`
	BatchKey []string     `json:"batchKey,omitempty"`
	Dedupe   bool         `json:"dedupe,omitempty"`
}

type QueryParam struct {
	Key   string    `json:"key"`
	Value *Mustache `json:"value"`
}

type Header struct {
	Name  string    `json:"name"`
	Value *Mustache `json:"value"`
}

// BatchParam returns the query parameter that carries batch key values, or
// the empty string for unbatched requests.
func (r *RequestTemplate) BatchParam() string {
	if len(r.BatchKey) == 0 {
		return ""
	}
	return r.BatchKey[len(r.BatchKey)-1]
}

// Server is the validated @server block.
type Server struct {
	Hostname        string            `json:"hostname"`
	Port            int               `json:"port"`
	TimeoutMillis   int               `json:"timeoutMillis,omitempty"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`
}

// Endpoint returns the endpoint with id, or nil.
func (bp *Blueprint) Endpoint(id EndpointID) *Endpoint {
	for _, e := range bp.Endpoints {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Object returns the object definition named name, or nil.
func (bp *Blueprint) Object(name string) *ObjectTypeDefinition {
	for _, d := range bp.Definitions {
		if d.Object != nil && d.Object.Name == name {
			return d.Object
		}
	}
	return nil
}

// Interface returns the interface definition named name, or nil.
func (bp *Blueprint) Interface(name string) *InterfaceTypeDefinition {
	for _, d := range bp.Definitions {
		if d.Interface != nil && d.Interface.Name == name {
			return d.Interface
		}
	}
	return nil
}

// Field returns the field named name, or nil.
func (o *ObjectTypeDefinition) Field(name string) *FieldDefinition {
	for _, f := range o.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// TypeExpr represents a GraphQL type expression (e.g. String, [String], String!).
type TypeExpr struct {
	Kind   TypeExprKind `json:"kind"`
	OfType *TypeExpr    `json:"ofType,omitempty"`
	Named  string       `json:"named,omitempty"`
}

type TypeExprKind string

const (
	TypeExprKindNamed   TypeExprKind = "NAMED"
	TypeExprKindList    TypeExprKind = "LIST"
	TypeExprKindNonNull TypeExprKind = "NON_NULL"
)

func newTypeExpr(named string, list, required bool) *TypeExpr {
	t := &TypeExpr{Kind: TypeExprKindNamed, Named: named}
	if list {
		t = &TypeExpr{Kind: TypeExprKindList, OfType: t}
	}
	if required {
		t = &TypeExpr{Kind: TypeExprKindNonNull, OfType: t}
	}
	return t
}

// NamedType unwraps list and non-null wrappers.
func (t *TypeExpr) NamedType() string {
	if t == nil {
		return ""
	}
	if t.Kind == TypeExprKindNamed {
		return t.Named
	}
	return t.OfType.NamedType()
}

// IsList reports whether the expression is a list, ignoring non-null.
func (t *TypeExpr) IsList() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeExprKindList:
		return true
	case TypeExprKindNonNull:
		return t.OfType.IsList()
	}
	return false
}

func (t *TypeExpr) String() string {
	if t == nil {
		return "Unknown"
	}

	switch t.Kind {
	case TypeExprKindNamed:
		return t.Named
	case TypeExprKindList:
		return "[" + t.OfType.String() + "]"
	case TypeExprKindNonNull:
		inner := t.OfType.String()
		if strings.HasSuffix(inner, "!") {
			return inner
		}
		return inner + "!"
	default:
		return "Unknown"
	}
}
