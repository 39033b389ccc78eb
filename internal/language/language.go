// Package language exposes the parts of gqlparser used to read configuration
// written as GraphQL SDL and to print the schema a blueprint serves.
package language

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseSchema parses SDL without validating it against the GraphQL type
// system; directives such as @http are interpreted by the caller.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Locate formats a position as file:line:column for loader errors.
func Locate(pos *Position) string {
	if pos == nil || pos.Src == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", pos.Src.Name, pos.Line, pos.Column)
}

// FormatSchema prints doc as SDL.
func FormatSchema(doc *SchemaDocument) string {
	var sb strings.Builder
	formatter.NewFormatter(&sb).FormatSchemaDocument(doc)
	return sb.String()
}
