package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseYAML reads a Config from YAML. JSON input is accepted as well since it
// is a subset of YAML. Types and fields are mappings keyed by name; their
// order in the document is preserved:
//
//	upstream:
//	  baseURL: https://api.example.com
//	types:
//	  Query:
//	    fields:
//	      users: {type: User, list: true, http: {path: /users}}
func ParseYAML(source []byte) (*Config, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(source, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg := &Config{
		Server:   doc.Server,
		Upstream: doc.Upstream,
		Schema:   doc.Schema,
	}
	if cfg.Schema.Query == "" {
		cfg.Schema.Query = DefaultQueryType
	}
	if doc.Types.Kind == 0 {
		return cfg, nil
	}
	if err := eachPair(&doc.Types, func(name string, node *yaml.Node) error {
		var raw yamlType
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("type %s: %w", name, err)
		}
		t := &Type{Name: name, Description: raw.Description, Extends: raw.Extends}
		if raw.Fields.Kind != 0 {
			if err := eachPair(&raw.Fields, func(fieldName string, fn *yaml.Node) error {
				f, err := decodeYAMLField(fieldName, fn)
				if err != nil {
					return fmt.Errorf("field %s.%s: %w", name, fieldName, err)
				}
				t.Fields = append(t.Fields, f)
				return nil
			}); err != nil {
				return err
			}
		}
		cfg.Types = append(cfg.Types, t)
		return nil
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads path and dispatches on its extension: .graphql/.gql as SDL,
// .yml/.yaml/.json as YAML.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".graphql", ".gql":
		return ParseSDL(path, string(content))
	case ".yml", ".yaml", ".json":
		cfg, err := ParseYAML(content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

type yamlDocument struct {
	Server   Server     `yaml:"server"`
	Upstream Upstream   `yaml:"upstream"`
	Schema   RootSchema `yaml:"schema"`
	Types    yaml.Node  `yaml:"types"`
}

type yamlType struct {
	Description string    `yaml:"description"`
	Extends     string    `yaml:"extends"`
	Fields      yaml.Node `yaml:"fields"`
}

type yamlField struct {
	Type        string     `yaml:"type"`
	Description string     `yaml:"description"`
	List        bool       `yaml:"list"`
	Required    bool       `yaml:"required"`
	Args        yaml.Node  `yaml:"args"`
	Http        *yamlHttp  `yaml:"http"`
	Unsafe      *yamlValue `yaml:"unsafe"`
}

type yamlArg struct {
	Type     string `yaml:"type"`
	List     bool   `yaml:"list"`
	Required bool   `yaml:"required"`
}

type yamlHttp struct {
	Method   string     `yaml:"method"`
	Path     string     `yaml:"path"`
	BaseURL  string     `yaml:"baseURL"`
	Query    []KeyValue `yaml:"query"`
	Headers  []KeyValue `yaml:"headers"`
	Body     yaml.Node  `yaml:"body"`
	BatchKey []string   `yaml:"batchKey"`
	Dedupe   bool       `yaml:"dedupe"`
}

type yamlValue struct {
	Value any `yaml:"value"`
}

func decodeYAMLField(name string, node *yaml.Node) (*Field, error) {
	var raw yamlField
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("line %d: missing type", node.Line)
	}
	f := &Field{
		Name:        name,
		Description: raw.Description,
		Type:        raw.Type,
		List:        raw.List,
		Required:    raw.Required,
	}
	if raw.Args.Kind != 0 {
		if err := eachPair(&raw.Args, func(argName string, an *yaml.Node) error {
			var a yamlArg
			if err := an.Decode(&a); err != nil {
				return fmt.Errorf("argument %s: %w", argName, err)
			}
			f.Args = append(f.Args, &Arg{Name: argName, Type: a.Type, List: a.List, Required: a.Required})
			return nil
		}); err != nil {
			return nil, err
		}
	}
	if raw.Http != nil {
		body, err := yamlBody(&raw.Http.Body)
		if err != nil {
			return nil, err
		}
		f.Http = &Http{
			Method:   raw.Http.Method,
			Path:     raw.Http.Path,
			BaseURL:  raw.Http.BaseURL,
			Query:    raw.Http.Query,
			Headers:  raw.Http.Headers,
			Body:     body,
			BatchKey: raw.Http.BatchKey,
			Dedupe:   raw.Http.Dedupe,
		}
	}
	if raw.Unsafe != nil {
		f.Unsafe = &Unsafe{Value: raw.Unsafe.Value}
	}
	return f, nil
}

// yamlBody accepts a body written either as a JSON string or as a YAML
// mapping or sequence, which is re-encoded as JSON.
func yamlBody(node *yaml.Node) (string, error) {
	switch node.Kind {
	case 0:
		return "", nil
	case yaml.ScalarNode:
		return node.Value, nil
	}
	var doc any
	if err := node.Decode(&doc); err != nil {
		return "", fmt.Errorf("line %d: body: %w", node.Line, err)
	}
	out, err := json.MarshalToString(doc)
	if err != nil {
		return "", fmt.Errorf("line %d: body: %w", node.Line, err)
	}
	return out, nil
}

// eachPair walks a mapping node in document order.
func eachPair(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}
