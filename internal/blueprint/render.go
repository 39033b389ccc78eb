package blueprint

import (
	language "github.com/hanpama/httpgraph/internal/language"
)

// Render prints the schema the blueprint serves as GraphQL SDL, with the
// synthesized interfaces and their implementations.
func Render(bp *Blueprint) string {
	doc := &language.SchemaDocument{}
	if bp.Query != "" {
		doc.Schema = append(doc.Schema, &language.SchemaDefinition{
			OperationTypes: language.OperationTypeDefinitionList{
				{Operation: language.QueryOperation, Type: bp.Query},
			},
		})
	}
	for _, d := range bp.Definitions {
		switch {
		case d.Interface != nil:
			doc.Definitions = append(doc.Definitions, &language.Definition{
				Kind:        language.Interface,
				Name:        d.Interface.Name,
				Description: d.Interface.Description,
				Fields:      renderFields(d.Interface.Fields),
			})
		case d.Object != nil:
			doc.Definitions = append(doc.Definitions, &language.Definition{
				Kind:        language.Object,
				Name:        d.Object.Name,
				Description: d.Object.Description,
				Interfaces:  d.Object.Implements,
				Fields:      renderFields(d.Object.Fields),
			})
		}
	}
	return language.FormatSchema(doc)
}

func renderFields(fields []*FieldDefinition) language.FieldList {
	out := make(language.FieldList, 0, len(fields))
	for _, f := range fields {
		fd := &language.FieldDefinition{
			Name:        f.Name,
			Description: f.Description,
			Type:        renderType(f.Type),
		}
		for _, a := range f.Args {
			fd.Arguments = append(fd.Arguments, &language.ArgumentDefinition{
				Name: a.Name,
				Type: renderType(a.Type),
			})
		}
		out = append(out, fd)
	}
	return out
}

func renderType(t *TypeExpr) *language.Type {
	switch t.Kind {
	case TypeExprKindNonNull:
		inner := renderType(t.OfType)
		inner.NonNull = true
		return inner
	case TypeExprKindList:
		return &language.Type{Elem: renderType(t.OfType)}
	default:
		return &language.Type{NamedType: t.Named}
	}
}
