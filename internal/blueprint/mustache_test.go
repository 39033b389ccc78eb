package blueprint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/httpgraph/internal/blueprint"
)

func TestMustacheRender(t *testing.T) {
	ctx := map[string]any{
		"value": map[string]any{"id": float64(1), "user": map[string]any{"name": "ann"}},
		"args":  map[string]any{"q": "go", "ok": true},
	}

	for _, tc := range []struct {
		template string
		want     string
	}{
		{"/users", "/users"},
		{"/users/{{.value.id}}", "/users/1"},
		{"/users/{{value.id}}/x", "/users/1/x"},
		{"{{ .value.user.name }}-{{.args.q}}", "ann-go"},
		{"{{.args.ok}}", "true"},
		{"/missing/{{.value.nope}}", "/missing/"},
	} {
		t.Run(tc.template, func(t *testing.T) {
			m, err := blueprint.ParseMustache(tc.template)
			require.NoError(t, err)
			require.Equal(t, tc.want, m.Render(ctx))
			require.Equal(t, tc.template, m.String())
		})
	}
}

func TestMustacheEvalKeepsRawValue(t *testing.T) {
	ctx := map[string]any{"value": map[string]any{"id": float64(7), "tags": []any{"a"}}}

	require.Equal(t, float64(7), blueprint.MustParseMustache("{{.value.id}}").Eval(ctx))
	require.Equal(t, []any{"a"}, blueprint.MustParseMustache("{{.value.tags}}").Eval(ctx))
	require.Nil(t, blueprint.MustParseMustache("{{.value.missing}}").Eval(ctx))
	require.Equal(t, "id-7", blueprint.MustParseMustache("id-{{.value.id}}").Eval(ctx))
}

func TestMustacheParseErrors(t *testing.T) {
	for _, tc := range []struct {
		template string
		wantErr  string
	}{
		{"/users/{{.value.id", "unterminated expression"},
		{"{{}}", "empty expression"},
		{"{{.value..id}}", "malformed expression"},
		{"{{.env.HOME}}", `unknown expression root "env"`},
		{"{{.value}}", "must select a field"},
	} {
		t.Run(tc.template, func(t *testing.T) {
			_, err := blueprint.ParseMustache(tc.template)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestMustacheExpressions(t *testing.T) {
	m := blueprint.MustParseMustache("/a/{{.value.id}}/{{.args.x}}")
	require.False(t, m.IsConst())
	require.Equal(t, [][]string{{"value", "id"}, {"args", "x"}}, m.Expressions())
	require.True(t, blueprint.MustParseMustache("/static").IsConst())
}

func TestFormatValue(t *testing.T) {
	require.Equal(t, "1", blueprint.FormatValue(float64(1)))
	require.Equal(t, "1.5", blueprint.FormatValue(1.5))
	require.Equal(t, "42", blueprint.FormatValue(42))
	require.Equal(t, "", blueprint.FormatValue(nil))
	require.Equal(t, "false", blueprint.FormatValue(false))
}
