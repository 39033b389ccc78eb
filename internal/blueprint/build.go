// Package blueprint transcodes a config.Config into a Blueprint: the type
// definitions an executor serves, with interfaces synthesized from extends,
// and one Endpoint per @http field.
//
// The whole transcoding is a single accumulating computation. Independent
// checks (types, fields, directives) all report; only checks with a real
// data dependency, such as walking the type graph after references are known
// to resolve, stop at the first failure.
package blueprint

import (
	"github.com/hanpama/httpgraph/internal/config"
	"github.com/hanpama/httpgraph/internal/valid"
)

type builder struct {
	cfg *config.Config
	// types holds the first declaration of every type name; order lists
	// those declarations in config order.
	types map[string]*config.Type
	order []*config.Type
}

func newBuilder(cfg *config.Config) *builder {
	b := &builder{cfg: cfg, types: make(map[string]*config.Type, len(cfg.Types))}
	for _, t := range cfg.Types {
		if _, ok := b.types[t.Name]; ok {
			continue
		}
		b.types[t.Name] = t
		b.order = append(b.order, t)
	}
	return b
}

// Build transcodes cfg. It never panics; every problem found is returned as a
// cause on the result. The same Config always yields the same Blueprint.
func Build(cfg *config.Config) valid.Valid[*Blueprint] {
	b := newBuilder(cfg)

	structure := valid.Zip(b.checkReferences(), b.buildHierarchy())
	graph := valid.AndThen(structure, func(p valid.Pair[valid.Unit, *hierarchy]) valid.Valid[valid.Pair[[]*Definition, []*Endpoint]] {
		return valid.Zip(b.buildDefinitions(p.Second), b.buildEndpoints(p.Second))
	})

	return valid.Map(
		valid.Zip3(graph, b.checkDirectives(), b.buildServer()),
		func(t valid.Triple[valid.Pair[[]*Definition, []*Endpoint], valid.Unit, *Server]) *Blueprint {
			return &Blueprint{
				Query:       cfg.QueryType(),
				Definitions: t.First.First,
				Endpoints:   t.First.Second,
				Server:      t.Third,
			}
		},
	)
}

// Transcode is Build in (value, error) form. The error is a
// valid.ValidationError.
func Transcode(cfg *config.Config) (*Blueprint, error) {
	return Build(cfg).Result()
}

func (b *builder) isObject(name string) bool {
	_, ok := b.types[name]
	return ok
}

func (b *builder) buildDefinitions(h *hierarchy) valid.Valid[[]*Definition] {
	perType := valid.Traverse(b.order, func(t *config.Type) valid.Valid[[]*Definition] {
		fields := h.effectiveFields(t.Name)
		if len(fields) == 0 {
			return violationNoFields[[]*Definition](t.Name).Trace(t.Name)
		}
		var defs []*Definition
		if iface := h.interfaceOf(t.Name); iface != "" {
			own := make([]*FieldDefinition, 0, len(t.Fields))
			for _, f := range t.Fields {
				fd := fieldDefinition(effectiveField{Field: f, Owner: t.Name})
				fd.Resolver = nil
				own = append(own, fd)
			}
			defs = append(defs, &Definition{Interface: &InterfaceTypeDefinition{
				Name:        iface,
				Description: t.Description,
				Fields:      own,
			}})
		}
		obj := &ObjectTypeDefinition{
			Name:        t.Name,
			Description: t.Description,
			Implements:  h.implements(t.Name),
		}
		for _, f := range fields {
			obj.Fields = append(obj.Fields, fieldDefinition(f))
		}
		defs = append(defs, &Definition{Object: obj})
		return valid.Succeed(defs)
	})
	return valid.Map(perType, func(groups [][]*Definition) []*Definition {
		var out []*Definition
		for _, g := range groups {
			out = append(out, g...)
		}
		return out
	})
}

func fieldDefinition(f effectiveField) *FieldDefinition {
	fd := &FieldDefinition{
		Name:        f.Name,
		Description: f.Description,
		Type:        newTypeExpr(f.Type, f.List, f.Required),
	}
	for _, a := range f.Args {
		fd.Args = append(fd.Args, &ArgumentDefinition{
			Name: a.Name,
			Type: newTypeExpr(a.Type, a.List, a.Required),
		})
	}
	switch {
	case f.Http != nil:
		fd.Resolver = &Resolver{Kind: ResolverKindHttp, Endpoint: NewEndpointID(f.Owner, f.Name)}
	case f.Unsafe != nil:
		fd.Resolver = &Resolver{Kind: ResolverKindConst, Value: f.Unsafe.Value}
	}
	return fd
}
