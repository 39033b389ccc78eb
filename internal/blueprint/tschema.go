package blueprint

import (
	"fmt"
	"math"
	"strings"
)

type TSchemaKind string

const (
	TSchemaObject   TSchemaKind = "object"
	TSchemaScalar   TSchemaKind = "scalar"
	TSchemaOptional TSchemaKind = "optional"
	TSchemaList     TSchemaKind = "list"
)

// Scalar names used in output schemas.
const (
	ScalarString  = "string"
	ScalarInt     = "int"
	ScalarFloat   = "float"
	ScalarBoolean = "boolean"
	ScalarID      = "id"
	// ScalarAny accepts any JSON value. It stands in for JSON fields and for
	// object types already expanded elsewhere in the same schema.
	ScalarAny = "any"
)

// TSchema describes the shape of an upstream JSON response, independent of
// the named blueprint types.
type TSchema struct {
	Kind   TSchemaKind `json:"kind"`
	Scalar string      `json:"scalar,omitempty"`
	Fields []*TField   `json:"fields,omitempty"`
	Of     *TSchema    `json:"of,omitempty"`
}

type TField struct {
	Name   string   `json:"name"`
	Schema *TSchema `json:"schema"`
}

func ObjectSchema(fields ...*TField) *TSchema {
	return &TSchema{Kind: TSchemaObject, Fields: fields}
}

func ScalarSchema(name string) *TSchema {
	return &TSchema{Kind: TSchemaScalar, Scalar: name}
}

func OptionalSchema(of *TSchema) *TSchema {
	return &TSchema{Kind: TSchemaOptional, Of: of}
}

func ListSchema(of *TSchema) *TSchema {
	return &TSchema{Kind: TSchemaList, Of: of}
}

func SchemaField(name string, schema *TSchema) *TField {
	return &TField{Name: name, Schema: schema}
}

// String renders the schema compactly, e.g. optional(object{b: optional(string)}).
func (s *TSchema) String() string {
	if s == nil {
		return "<nil>"
	}
	switch s.Kind {
	case TSchemaScalar:
		return s.Scalar
	case TSchemaOptional:
		return "optional(" + s.Of.String() + ")"
	case TSchemaList:
		return "list(" + s.Of.String() + ")"
	case TSchemaObject:
		parts := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			parts[i] = f.Name + ": " + f.Schema.String()
		}
		return "object{" + strings.Join(parts, ", ") + "}"
	}
	return "unknown"
}

// Validate checks a decoded JSON value against the schema. Extra object keys
// are ignored.
func (s *TSchema) Validate(v any) error {
	return s.validate(v, "$")
}

func (s *TSchema) validate(v any, at string) error {
	switch s.Kind {
	case TSchemaOptional:
		if v == nil {
			return nil
		}
		return s.Of.validate(v, at)
	case TSchemaList:
		items, ok := v.([]any)
		if !ok {
			return schemaMismatch(at, "list", v)
		}
		for i, it := range items {
			if err := s.Of.validate(it, fmt.Sprintf("%s[%d]", at, i)); err != nil {
				return err
			}
		}
		return nil
	case TSchemaObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return schemaMismatch(at, "object", v)
		}
		for _, f := range s.Fields {
			if err := f.Schema.validate(obj[f.Name], at+"."+f.Name); err != nil {
				return err
			}
		}
		return nil
	case TSchemaScalar:
		if scalarAccepts(s.Scalar, v) {
			return nil
		}
		return schemaMismatch(at, s.Scalar, v)
	}
	return fmt.Errorf("%s: unknown schema kind %q", at, s.Kind)
}

func scalarAccepts(scalar string, v any) bool {
	switch scalar {
	case ScalarAny:
		return true
	case ScalarString:
		_, ok := v.(string)
		return ok
	case ScalarBoolean:
		_, ok := v.(bool)
		return ok
	case ScalarInt:
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == math.Trunc(n)
		}
		return false
	case ScalarFloat:
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case ScalarID:
		switch v.(type) {
		case string, int, int64, float64:
			return true
		}
		return false
	}
	return false
}

func schemaMismatch(at, want string, got any) error {
	if got == nil {
		return fmt.Errorf("%s: expected %s, got null", at, want)
	}
	return fmt.Errorf("%s: expected %s, got %T", at, want, got)
}

func scalarSchemaName(graphqlName string) string {
	switch graphqlName {
	case "String":
		return ScalarString
	case "Int":
		return ScalarInt
	case "Float":
		return ScalarFloat
	case "Boolean":
		return ScalarBoolean
	case "ID":
		return ScalarID
	default:
		return ScalarAny
	}
}
