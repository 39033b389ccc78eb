package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const blogSDL = `
schema @upstream(baseURL: "%s") {
  query: Query
}

type Query {
  user(id: Int!): User @http(path: "/users/{{.args.id}}")
  version: String @unsafe(value: "v1")
}

type User {
  id: Int
  name: String
  posts: [Post] @http(path: "/posts", query: [{key: "userId", value: "{{.value.id}}"}], batchKey: ["userId"])
}

type Post {
  id: Int
  userId: Int
  title: String
}
`

const brokenSDL = `
type Query {
  users: [User]! @http(path: "/users")
}

type User {
  id: Int
  best: Missing
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(append([]string{"--log-level=error"}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func TestCheck_Valid(t *testing.T) {
	path := writeFile(t, "blog.graphql", fmt.Sprintf(blogSDL, "https://api.test"))
	out, err := execute(t, "check", path)
	require.NoError(t, err)
	require.Contains(t, out, "ok: "+path)
	require.Contains(t, out, "2 endpoints")
}

func TestCheck_ReportsEveryCause(t *testing.T) {
	path := writeFile(t, "broken.graphql", brokenSDL)
	out, err := execute(t, "check", path)
	require.ErrorIs(t, err, errCheckFailed)
	require.Contains(t, out, "2 problem(s)")
	require.Contains(t, out, `- Type "Missing" not found [User.best]`)
	require.Contains(t, out, "- can not be used with non-nullable fields [Query.users.@http]")
}

func TestCheck_UnreadableConfig(t *testing.T) {
	_, err := execute(t, "check", filepath.Join(t.TempDir(), "missing.graphql"))
	require.Error(t, err)
	require.NotErrorIs(t, err, errCheckFailed)
}

func TestCompile_SDL(t *testing.T) {
	path := writeFile(t, "blog.graphql", fmt.Sprintf(blogSDL, "https://api.test"))
	out, err := execute(t, "compile", path)
	require.NoError(t, err)
	require.Contains(t, out, "type Query {")
	require.Contains(t, out, "posts: [Post]")
}

func TestCompile_JSONToFile(t *testing.T) {
	path := writeFile(t, "blog.graphql", fmt.Sprintf(blogSDL, "https://api.test"))
	dest := filepath.Join(t.TempDir(), "blueprint.json")
	_, err := execute(t, "compile", path, "--format", "json", "--out", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Contains(t, string(data), `"id": "User.posts"`)
	require.Contains(t, string(data), `"path": "/users/{{.args.id}}"`)
}

func TestCompile_UnknownFormat(t *testing.T) {
	path := writeFile(t, "blog.graphql", fmt.Sprintf(blogSDL, "https://api.test"))
	_, err := execute(t, "compile", path, "--format", "proto")
	require.ErrorContains(t, err, `unknown format "proto"`)
}

func TestCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/7":
			_, _ = w.Write([]byte(`{"id":7,"name":"ann"}`))
		case "/posts":
			_, _ = w.Write([]byte(`[{"id":1,"userId":7,"title":"hello"},{"id":2,"userId":8,"title":"other"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	path := writeFile(t, "blog.graphql", fmt.Sprintf(blogSDL, srv.URL))

	out, err := execute(t, "call", path, "Query.user", "--arg", "id=7")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":7,"name":"ann"}`, out)

	out, err = execute(t, "call", path, "User.posts", "--source", "id=7")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":1,"userId":7,"title":"hello"}]`, out)

	out, err = execute(t, "call", path, "Query.version")
	require.NoError(t, err)
	require.JSONEq(t, `"v1"`, out)

	_, err = execute(t, "call", path, "Query.user", "--arg", "id=9")
	require.ErrorContains(t, err, "status 404")

	_, err = execute(t, "call", path, "user")
	require.ErrorContains(t, err, "Type.field")
}

func TestParsePairs(t *testing.T) {
	m, err := parsePairs([]string{"id=7", "name=ann", `tags=["a"]`, "empty="})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"id":    7.0,
		"name":  "ann",
		"tags":  []any{"a"},
		"empty": "",
	}, m)

	_, err = parsePairs([]string{"novalue"})
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "httpgraph dev")
}
