package language_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/httpgraph/internal/language"
)

func TestParseSchema(t *testing.T) {
	doc, err := language.ParseSchema("app.graphql", "type Query {\n  users: [User] @http(path: \"/users\")\n}\n")
	require.NoError(t, err)
	require.Len(t, doc.Definitions, 1)

	def := doc.Definitions[0]
	require.Equal(t, language.Object, def.Kind)
	require.Equal(t, "app.graphql:2:3", language.Locate(def.Fields[0].Position))
	require.Equal(t, "http", def.Fields[0].Directives[0].Name)
}

func TestParseSchema_SyntaxError(t *testing.T) {
	_, err := language.ParseSchema("bad.graphql", "type Query {")
	require.Error(t, err)
}

func TestLocate_Unknown(t *testing.T) {
	require.Equal(t, "<unknown>", language.Locate(nil))
}

func TestFormatSchema(t *testing.T) {
	doc, err := language.ParseSchema("app.graphql", "type Query { version: String }")
	require.NoError(t, err)
	require.Contains(t, language.FormatSchema(doc), "type Query {\n\tversion: String\n}")
}
