package blueprint

import (
	"github.com/hanpama/httpgraph/internal/config"
	"github.com/hanpama/httpgraph/internal/valid"
)

// InterfacePrefix is prepended to an extended type's name to name its
// synthesized interface.
const InterfacePrefix = "I"

// effectiveField is a field as seen on some type, remembering which type
// declared it.
type effectiveField struct {
	*config.Field
	Owner string
}

// hierarchy is the extends forest: single parent per type, children in config
// order, and memoized effective field sets.
type hierarchy struct {
	types     map[string]*config.Type
	parent    map[string]string
	children  map[string][]string
	effective map[string][]effectiveField
}

func (b *builder) buildHierarchy() valid.Valid[*hierarchy] {
	check := valid.Traverse(b.order, func(t *config.Type) valid.Valid[valid.Unit] {
		if t.Extends == "" {
			return valid.Ok()
		}
		if !b.isObject(t.Extends) {
			return violationTypeNotFound[valid.Unit](t.Extends).Trace(t.Name, "extends")
		}
		if b.inExtendsCycle(t.Name) {
			return violationExtendsCycle[valid.Unit]().Trace(t.Name, "extends")
		}
		return valid.Ok()
	})

	return valid.AndThen(check, func([]valid.Unit) valid.Valid[*hierarchy] {
		h := &hierarchy{
			types:     b.types,
			parent:    make(map[string]string),
			children:  make(map[string][]string),
			effective: make(map[string][]effectiveField),
		}
		for _, t := range b.order {
			if t.Extends != "" {
				h.parent[t.Name] = t.Extends
				h.children[t.Extends] = append(h.children[t.Extends], t.Name)
			}
		}
		conflicts := valid.Traverse(b.order, func(t *config.Type) valid.Valid[valid.Unit] {
			iface := h.interfaceOf(t.Name)
			if iface == "" {
				return valid.Ok()
			}
			var checks []valid.Valid[valid.Unit]
			if b.isObject(iface) {
				checks = append(checks, violationInterfaceConflict[valid.Unit](iface))
			}
			if len(t.Fields) == 0 {
				checks = append(checks, violationEmptyInterface[valid.Unit](t.Name))
			}
			return valid.All(checks...).Trace(t.Name)
		})
		return valid.Map(conflicts, func([]valid.Unit) *hierarchy { return h })
	})
}

// inExtendsCycle reports whether following extends from name leads back to it.
func (b *builder) inExtendsCycle(name string) bool {
	seen := map[string]bool{}
	cur := name
	for {
		t, ok := b.types[cur]
		if !ok || t.Extends == "" {
			return false
		}
		if t.Extends == name {
			return true
		}
		if seen[t.Extends] {
			// a cycle further up that does not pass through name
			return false
		}
		seen[t.Extends] = true
		cur = t.Extends
	}
}

// interfaceOf returns the name of the interface synthesized for typeName, or
// "" when nothing extends it.
func (h *hierarchy) interfaceOf(typeName string) string {
	if len(h.children[typeName]) == 0 {
		return ""
	}
	return InterfacePrefix + typeName
}

// implements lists the interfaces typeName implements: only its immediate
// parent's.
func (h *hierarchy) implements(typeName string) []string {
	p, ok := h.parent[typeName]
	if !ok {
		return nil
	}
	return []string{InterfacePrefix + p}
}

// effectiveFields returns the parent's effective fields followed by own
// fields. An own field replaces an inherited one of the same name in place.
func (h *hierarchy) effectiveFields(typeName string) []effectiveField {
	if fs, ok := h.effective[typeName]; ok {
		return fs
	}
	t, ok := h.types[typeName]
	if !ok {
		return nil
	}
	var out []effectiveField
	if p, ok := h.parent[typeName]; ok {
		out = append(out, h.effectiveFields(p)...)
	}
	for _, f := range t.Fields {
		ef := effectiveField{Field: f, Owner: t.Name}
		replaced := false
		for i := range out {
			if out[i].Name == f.Name {
				out[i] = ef
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, ef)
		}
	}
	h.effective[typeName] = out
	return out
}

// lookupField finds a single effective field by name.
func (h *hierarchy) lookupField(typeName, fieldName string) (effectiveField, bool) {
	for _, f := range h.effectiveFields(typeName) {
		if f.Name == fieldName {
			return f, true
		}
	}
	return effectiveField{}, false
}
