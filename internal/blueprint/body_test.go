package blueprint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/httpgraph/internal/blueprint"
)

func TestBodyEval(t *testing.T) {
	body, err := blueprint.ParseBody(`{"id":"{{.value.id}}","title":"post by {{.value.name}}","tags":["{{.args.tag}}","x"],"draft":false}`)
	require.NoError(t, err)

	ctx := map[string]any{
		"value": map[string]any{"id": 7.0, "name": "ann"},
		"args":  map[string]any{"tag": "go"},
	}
	require.Equal(t, map[string]any{
		"id":    7.0,
		"title": "post by ann",
		"tags":  []any{"go", "x"},
		"draft": false,
	}, body.Eval(ctx))

	data, err := body.Render(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":7,"title":"post by ann","tags":["go","x"],"draft":false}`, string(data))

	require.Equal(t, [][]string{{"value", "id"}, {"args", "tag"}, {"value", "name"}}, body.Expressions())
}

func TestBodyExpand(t *testing.T) {
	parents := map[string]any{"value": []any{
		map[string]any{"id": 1.0, "userId": 10.0, "name": "ann"},
		map[string]any{"id": 2.0, "userId": 20.0, "name": "bob"},
	}}

	for _, tc := range []struct {
		name string
		body string
		want string
	}{
		{
			name: "nested list",
			body: `{"a":{"b":{"c":{"d":["{{.value.userId}}"]}}}}`,
			want: `{"a":{"b":{"c":{"d":[10,20]}}}}`,
		},
		{
			name: "top level list of objects",
			body: `[{"userId":"{{.value.id}}","title":"{{.value.name}}","content":"Hello World"}]`,
			want: `[{"userId":1,"title":"ann","content":"Hello World"},{"userId":2,"title":"bob","content":"Hello World"}]`,
		},
		{
			name: "list beside constants",
			body: `{"metadata":"xyz","items":[{"key":"id","value":"{{.value.userId}}"}]}`,
			want: `{"metadata":"xyz","items":[{"key":"id","value":10},{"key":"id","value":20}]}`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			body, err := blueprint.ParseBody(tc.body)
			require.NoError(t, err)
			data, err := body.Expand(2).Render(parents)
			require.NoError(t, err)
			require.JSONEq(t, tc.want, string(data))
		})
	}
}

func TestBodyBatchExpressions(t *testing.T) {
	body, err := blueprint.ParseBody(`{"owner":"{{.args.owner}}","ids":["{{.value.userId}}"]}`)
	require.NoError(t, err)
	require.Equal(t, []string{"value", "userId"}, body.BatchKeyExpression())
	require.Nil(t, body.ValueOutsideList())

	body, err = blueprint.ParseBody(`{"id":"{{.value.id}}"}`)
	require.NoError(t, err)
	require.Nil(t, body.BatchKeyExpression())
	require.Equal(t, []string{"value", "id"}, body.ValueOutsideList())
}

func TestParseBodyErrors(t *testing.T) {
	_, err := blueprint.ParseBody(`{"id":`)
	require.ErrorContains(t, err, "body is not valid JSON")

	_, err = blueprint.ParseBody(`{"id":"{{.other.id}}"}`)
	require.ErrorContains(t, err, `unknown expression root "other"`)
}

func TestLookupIndexesLists(t *testing.T) {
	v := map[string]any{"value": []any{map[string]any{"id": 1.0}}}

	got, ok := blueprint.Lookup(v, []string{"value", "0", "id"})
	require.True(t, ok)
	require.Equal(t, 1.0, got)

	_, ok = blueprint.Lookup(v, []string{"value", "1", "id"})
	require.False(t, ok)
	_, ok = blueprint.Lookup(v, []string{"value", "id"})
	require.False(t, ok)
}
