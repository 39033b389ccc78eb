package config

// New returns an empty Config that sends relative paths to baseURL.
func New(baseURL string) *Config {
	return &Config{
		Upstream: Upstream{BaseURL: baseURL},
		Schema:   RootSchema{Query: DefaultQueryType},
	}
}

// AddType appends types in order and returns c for chaining.
func (c *Config) AddType(types ...*Type) *Config {
	c.Types = append(c.Types, types...)
	return c
}

func NewType(name string, fields ...*Field) *Type {
	return &Type{Name: name, Fields: fields}
}

func (t *Type) WithExtends(parent string) *Type {
	t.Extends = parent
	return t
}

func (t *Type) WithField(f *Field) *Type {
	t.Fields = append(t.Fields, f)
	return t
}

func NewField(name, typ string) *Field {
	return &Field{Name: name, Type: typ}
}

func (f *Field) AsList() *Field {
	f.List = true
	return f
}

func (f *Field) AsRequired() *Field {
	f.Required = true
	return f
}

func (f *Field) WithHttp(h *Http) *Field {
	f.Http = h
	return f
}

func (f *Field) WithUnsafe(value any) *Field {
	f.Unsafe = &Unsafe{Value: value}
	return f
}

func (f *Field) WithArg(name, typ string, required bool) *Field {
	f.Args = append(f.Args, &Arg{Name: name, Type: typ, Required: required})
	return f
}

// GET returns an Http directive for path with the default method.
func GET(path string) *Http {
	return &Http{Path: path}
}

func (h *Http) WithMethod(method string) *Http {
	h.Method = method
	return h
}

func (h *Http) WithQuery(key, value string) *Http {
	h.Query = append(h.Query, KeyValue{Key: key, Value: value})
	return h
}

func (h *Http) WithHeader(key, value string) *Http {
	h.Headers = append(h.Headers, KeyValue{Key: key, Value: value})
	return h
}

func (h *Http) WithBody(body string) *Http {
	h.Body = body
	return h
}

func (h *Http) WithBatchKey(path ...string) *Http {
	h.BatchKey = path
	return h
}

func (h *Http) WithBaseURL(u string) *Http {
	h.BaseURL = u
	return h
}
