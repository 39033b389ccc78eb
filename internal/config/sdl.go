package config

import (
	"fmt"

	language "github.com/hanpama/httpgraph/internal/language"
)

// ParseSDL reads a Config written as GraphQL SDL:
//
//	schema @server(port: 8000) @upstream(baseURL: "https://api.example.com") {
//	  query: Query
//	}
//	type Query {
//	  users: [User] @http(path: "/users")
//	}
//	type User @extends(type: "Identified") {
//	  name: String
//	}
//
// Only object type definitions are accepted. Syntax and directive argument
// errors are returned with their source position.
func ParseSDL(name, source string) (*Config, error) {
	doc, err := language.ParseSchema(name, source)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Schema: RootSchema{Query: DefaultQueryType}}
	for _, sd := range doc.Schema {
		if err := applySchemaDefinition(cfg, sd); err != nil {
			return nil, err
		}
	}
	for _, def := range doc.Definitions {
		switch def.Kind {
		case language.Object:
			t, err := typeFromDefinition(def)
			if err != nil {
				return nil, err
			}
			cfg.Types = append(cfg.Types, t)
		case language.Scalar:
			if !IsBuiltinScalar(def.Name) {
				return nil, fmt.Errorf("%s: custom scalar %q is not supported", language.Locate(def.Position), def.Name)
			}
		default:
			return nil, fmt.Errorf("%s: unsupported %s definition %q", language.Locate(def.Position), def.Kind, def.Name)
		}
	}
	for _, ext := range doc.Extensions {
		if ext.Kind != language.Object {
			return nil, fmt.Errorf("%s: unsupported %s extension %q", language.Locate(ext.Position), ext.Kind, ext.Name)
		}
		target := cfg.Type(ext.Name)
		if target == nil {
			return nil, fmt.Errorf("%s: definition %q not found for extension", language.Locate(ext.Position), ext.Name)
		}
		extra, err := typeFromDefinition(ext)
		if err != nil {
			return nil, err
		}
		target.Fields = append(target.Fields, extra.Fields...)
	}
	return cfg, nil
}

// IsBuiltinScalar reports whether name is one of the scalars known without
// declaration.
func IsBuiltinScalar(name string) bool {
	switch name {
	case "String", "Int", "Float", "Boolean", "ID", "JSON":
		return true
	}
	return false
}

func applySchemaDefinition(cfg *Config, sd *language.SchemaDefinition) error {
	for _, op := range sd.OperationTypes {
		if op.Operation == "query" {
			cfg.Schema.Query = op.Type
		}
	}
	for _, dir := range sd.Directives {
		switch dir.Name {
		case "upstream":
			for _, arg := range dir.Arguments {
				switch arg.Name {
				case "baseURL":
					s, err := stringValue(arg.Value)
					if err != nil {
						return argError(dir, arg, err)
					}
					cfg.Upstream.BaseURL = s
				default:
					return unknownArgument(dir, arg)
				}
			}
		case "server":
			for _, arg := range dir.Arguments {
				var err error
				switch arg.Name {
				case "hostname":
					cfg.Server.Hostname, err = stringValue(arg.Value)
				case "port":
					cfg.Server.Port, err = intValue(arg.Value)
				case "timeout":
					cfg.Server.Timeout, err = intValue(arg.Value)
				case "responseHeaders":
					cfg.Server.ResponseHeaders, err = keyValues(arg.Value)
				default:
					return unknownArgument(dir, arg)
				}
				if err != nil {
					return argError(dir, arg, err)
				}
			}
		default:
			return fmt.Errorf("%s: unknown directive @%s on schema", language.Locate(dir.Position), dir.Name)
		}
	}
	return nil
}

func typeFromDefinition(def *language.Definition) (*Type, error) {
	t := &Type{Name: def.Name, Description: def.Description}
	for _, dir := range def.Directives {
		if dir.Name != "extends" {
			return nil, fmt.Errorf("%s: unknown directive @%s on type %s", language.Locate(dir.Position), dir.Name, def.Name)
		}
		for _, arg := range dir.Arguments {
			if arg.Name != "type" {
				return nil, unknownArgument(dir, arg)
			}
			s, err := stringValue(arg.Value)
			if err != nil {
				return nil, argError(dir, arg, err)
			}
			t.Extends = s
		}
	}
	for _, fd := range def.Fields {
		f, err := fieldFromDefinition(def.Name, fd)
		if err != nil {
			return nil, err
		}
		t.Fields = append(t.Fields, f)
	}
	return t, nil
}

func fieldFromDefinition(typeName string, fd *language.FieldDefinition) (*Field, error) {
	named, list, required, err := unwrapType(fd.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: field %s.%s: %w", language.Locate(fd.Position), typeName, fd.Name, err)
	}
	f := &Field{
		Name:        fd.Name,
		Description: fd.Description,
		Type:        named,
		List:        list,
		Required:    required,
	}
	for _, ad := range fd.Arguments {
		named, list, required, err := unwrapType(ad.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %s.%s(%s): %w", language.Locate(ad.Position), typeName, fd.Name, ad.Name, err)
		}
		f.Args = append(f.Args, &Arg{Name: ad.Name, Type: named, List: list, Required: required})
	}
	for _, dir := range fd.Directives {
		switch dir.Name {
		case "http":
			h, err := httpFromDirective(dir)
			if err != nil {
				return nil, err
			}
			f.Http = h
		case "unsafe":
			u := &Unsafe{}
			for _, arg := range dir.Arguments {
				if arg.Name != "value" {
					return nil, unknownArgument(dir, arg)
				}
				v, err := arg.Value.Value(nil)
				if err != nil {
					return nil, argError(dir, arg, err)
				}
				u.Value = normalizeLiteral(v)
			}
			f.Unsafe = u
		default:
			return nil, fmt.Errorf("%s: unknown directive @%s on field %s.%s", language.Locate(dir.Position), dir.Name, typeName, fd.Name)
		}
	}
	return f, nil
}

func httpFromDirective(dir *language.Directive) (*Http, error) {
	h := &Http{}
	for _, arg := range dir.Arguments {
		var err error
		switch arg.Name {
		case "path":
			h.Path, err = stringValue(arg.Value)
		case "method":
			h.Method, err = stringValue(arg.Value)
		case "baseURL":
			h.BaseURL, err = stringValue(arg.Value)
		case "query":
			h.Query, err = keyValues(arg.Value)
		case "headers":
			h.Headers, err = keyValues(arg.Value)
		case "body":
			h.Body, err = stringValue(arg.Value)
		case "batchKey":
			h.BatchKey, err = stringList(arg.Value)
		case "dedupe":
			h.Dedupe, err = boolValue(arg.Value)
		default:
			return nil, unknownArgument(dir, arg)
		}
		if err != nil {
			return nil, argError(dir, arg, err)
		}
	}
	return h, nil
}

// unwrapType maps a GraphQL type reference onto the name/list/required triple.
// Nested lists are rejected; element nullability is not modeled.
func unwrapType(t *language.Type) (named string, list bool, required bool, err error) {
	if t == nil {
		return "", false, false, fmt.Errorf("missing type")
	}
	required = t.NonNull
	if t.Elem != nil {
		if t.Elem.Elem != nil {
			return "", false, false, fmt.Errorf("nested list types are not supported")
		}
		return t.Elem.NamedType, true, required, nil
	}
	return t.NamedType, false, required, nil
}

func stringValue(v *language.Value) (string, error) {
	if v == nil || (v.Kind != language.StringValue && v.Kind != language.BlockValue) {
		return "", fmt.Errorf("expected a string value")
	}
	return v.Raw, nil
}

func intValue(v *language.Value) (int, error) {
	if v == nil || v.Kind != language.IntValue {
		return 0, fmt.Errorf("expected an int value")
	}
	n, err := v.Value(nil)
	if err != nil {
		return 0, err
	}
	return int(n.(int64)), nil
}

func boolValue(v *language.Value) (bool, error) {
	if v == nil || v.Kind != language.BooleanValue {
		return false, fmt.Errorf("expected a boolean value")
	}
	return v.Raw == "true", nil
}

func stringList(v *language.Value) ([]string, error) {
	if v == nil {
		return nil, fmt.Errorf("expected a list value")
	}
	// A single string is coerced to a one-element list, as GraphQL input coercion does.
	if v.Kind == language.StringValue {
		return []string{v.Raw}, nil
	}
	if v.Kind != language.ListValue {
		return nil, fmt.Errorf("expected a list value")
	}
	out := make([]string, 0, len(v.Children))
	for _, c := range v.Children {
		s, err := stringValue(c.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func keyValues(v *language.Value) ([]KeyValue, error) {
	if v == nil || v.Kind != language.ListValue {
		return nil, fmt.Errorf("expected a list of {key, value} objects")
	}
	out := make([]KeyValue, 0, len(v.Children))
	for _, c := range v.Children {
		if c.Value == nil || c.Value.Kind != language.ObjectValue {
			return nil, fmt.Errorf("expected an object value")
		}
		var kv KeyValue
		for _, entry := range c.Value.Children {
			s, err := stringValue(entry.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", entry.Name, err)
			}
			switch entry.Name {
			case "key":
				kv.Key = s
			case "value":
				kv.Value = s
			default:
				return nil, fmt.Errorf("unexpected entry %q", entry.Name)
			}
		}
		if kv.Key == "" {
			return nil, fmt.Errorf("key must not be empty")
		}
		out = append(out, kv)
	}
	return out, nil
}

// normalizeLiteral narrows parser int64 values to int, recursively.
func normalizeLiteral(v any) any {
	switch vv := v.(type) {
	case int64:
		return int(vv)
	case []any:
		out := make([]any, len(vv))
		for i, it := range vv {
			out[i] = normalizeLiteral(it)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, it := range vv {
			out[k] = normalizeLiteral(it)
		}
		return out
	default:
		return v
	}
}

func unknownArgument(dir *language.Directive, arg *language.Argument) error {
	return fmt.Errorf("%s: unknown argument %q in @%s directive", language.Locate(arg.Position), arg.Name, dir.Name)
}

func argError(dir *language.Directive, arg *language.Argument, err error) error {
	return fmt.Errorf("%s: @%s(%s): %w", language.Locate(arg.Position), dir.Name, arg.Name, err)
}
