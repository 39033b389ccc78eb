// Package config holds the author-facing description of a composed schema:
// types, fields and the directives that bind fields to HTTP endpoints or
// inline values. It is plain data; validation happens in package blueprint.
package config

const DefaultQueryType = "Query"

// Config is one composition unit.
type Config struct {
	Server   Server     `json:"server" yaml:"server"`
	Upstream Upstream   `json:"upstream" yaml:"upstream"`
	Schema   RootSchema `json:"schema" yaml:"schema"`
	Types    []*Type    `json:"types" yaml:"-"`
}

// Upstream describes where relative @http paths are sent.
type Upstream struct {
	// BaseURL is scheme and host, e.g. "https://jsonplaceholder.typicode.com".
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL"`
}

type RootSchema struct {
	Query string `json:"query,omitempty" yaml:"query"`
}

// Server mirrors the @server block. Only the fields the transcoder checks are
// modeled.
type Server struct {
	Hostname        string     `json:"hostname,omitempty" yaml:"hostname"`
	Port            int        `json:"port,omitempty" yaml:"port"`
	Timeout         int        `json:"timeout,omitempty" yaml:"timeout"` // milliseconds
	ResponseHeaders []KeyValue `json:"responseHeaders,omitempty" yaml:"responseHeaders"`
}

// Type is a declared object type. Fields keep declaration order.
type Type struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Extends     string   `json:"extends,omitempty"`
	Fields      []*Field `json:"fields"`
}

// Field is a single field of a Type.
type Field struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"type"`
	List        bool    `json:"list,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Args        []*Arg  `json:"args,omitempty"`
	Http        *Http   `json:"http,omitempty"`
	Unsafe      *Unsafe `json:"unsafe,omitempty"`
}

// Arg is a field argument.
type Arg struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	List     bool   `json:"list,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Http binds a field to an upstream HTTP call.
//
// Path, query values and header values are mustache templates:
// {{.value.x}} reads field x of the parent object, {{.args.x}} reads argument x.
// Body is a JSON document whose string values are templates.
type Http struct {
	Method   string     `json:"method,omitempty"`
	Path     string     `json:"path"`
	BaseURL  string     `json:"baseURL,omitempty"`
	Query    []KeyValue `json:"query,omitempty"`
	Headers  []KeyValue `json:"headers,omitempty"`
	Body     string     `json:"body,omitempty"`
	BatchKey []string   `json:"batchKey,omitempty"`
	Dedupe   bool       `json:"dedupe,omitempty"`
}

// Unsafe resolves a field to a fixed literal.
type Unsafe struct {
	Value any `json:"value"`
}

type KeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// QueryType returns the configured root type name, defaulting to "Query".
func (c *Config) QueryType() string {
	if c.Schema.Query == "" {
		return DefaultQueryType
	}
	return c.Schema.Query
}

// Type returns the first declared type named name, or nil.
func (c *Config) Type(name string) *Type {
	for _, t := range c.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Field returns the own field named name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}
