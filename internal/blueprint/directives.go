package blueprint

import (
	"github.com/hanpama/httpgraph/internal/config"
	"github.com/hanpama/httpgraph/internal/valid"
)

// checkDirectives runs over every own field of every type. A non-null field
// can not carry @http or @unsafe: both resolve externally and may produce no
// value.
func (b *builder) checkDirectives() valid.Valid[valid.Unit] {
	return valid.Traverse(b.order, func(t *config.Type) valid.Valid[[]valid.Unit] {
		return valid.Traverse(t.Fields, func(f *config.Field) valid.Valid[valid.Unit] {
			return checkFieldDirectives(f).Trace(t.Name, f.Name)
		})
	}).Unit()
}

func checkFieldDirectives(f *config.Field) valid.Valid[valid.Unit] {
	var checks []valid.Valid[valid.Unit]
	if f.Http != nil && f.Unsafe != nil {
		checks = append(checks, violationConflictingDirectives[valid.Unit]())
	}
	if f.Required && f.Http != nil {
		checks = append(checks, violationNonNullable[valid.Unit]().Trace("@http"))
	}
	if f.Required && f.Unsafe != nil {
		checks = append(checks, violationNonNullable[valid.Unit]().Trace("@unsafe"))
	}
	return valid.All(checks...)
}
