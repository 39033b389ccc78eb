package blueprint

import (
	"github.com/hanpama/httpgraph/internal/config"
	"github.com/hanpama/httpgraph/internal/valid"
)

// checkReferences verifies that the root type exists, type and field names
// are unique, and every field and argument names a known type.
func (b *builder) checkReferences() valid.Valid[valid.Unit] {
	root := valid.Ok()
	if !b.isObject(b.cfg.QueryType()) {
		root = violationTypeNotFound[valid.Unit](b.cfg.QueryType()).Trace("schema", "query")
	}

	seen := make(map[*config.Type]bool, len(b.order))
	duplicates := valid.Traverse(b.cfg.Types, func(t *config.Type) valid.Valid[valid.Unit] {
		first := b.types[t.Name]
		if first == t || seen[first] {
			return valid.Ok()
		}
		seen[first] = true
		return violationDuplicateType[valid.Unit](t.Name).Trace(t.Name)
	})

	fields := valid.Traverse(b.order, func(t *config.Type) valid.Valid[[]valid.Unit] {
		names := make(map[string]bool, len(t.Fields))
		return valid.Traverse(t.Fields, func(f *config.Field) valid.Valid[valid.Unit] {
			dup := valid.Ok()
			if names[f.Name] {
				dup = violationDuplicateField[valid.Unit](f.Name, t.Name)
			}
			names[f.Name] = true
			return valid.All(dup, b.checkFieldType(f), b.checkArgs(f)).Trace(f.Name)
		}).Trace(t.Name)
	})

	return valid.All(root, duplicates.Unit(), fields.Unit())
}

func (b *builder) checkFieldType(f *config.Field) valid.Valid[valid.Unit] {
	if config.IsBuiltinScalar(f.Type) || b.isObject(f.Type) {
		return valid.Ok()
	}
	return violationTypeNotFound[valid.Unit](f.Type)
}

func (b *builder) checkArgs(f *config.Field) valid.Valid[valid.Unit] {
	return valid.Traverse(f.Args, func(a *config.Arg) valid.Valid[valid.Unit] {
		switch {
		case config.IsBuiltinScalar(a.Type):
			return valid.Ok()
		case b.isObject(a.Type):
			return violationArgumentNotScalar[valid.Unit](a.Name, a.Type).Trace(a.Name)
		default:
			return violationTypeNotFound[valid.Unit](a.Type).Trace(a.Name)
		}
	}).Unit()
}
