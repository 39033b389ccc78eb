package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/httpgraph/internal/config"
)

const usersSDL = `
schema @server(port: 8090, hostname: "localhost") @upstream(baseURL: "https://jsonplaceholder.typicode.com") {
  query: Query
}

type Query {
  users: [User] @http(path: "/users")
  user(id: Int!): User @http(path: "/users/{{.args.id}}")
  version: String @unsafe(value: "v1")
}

type Identified {
  id: Int
}

type User @extends(type: "Identified") {
  name: String
  posts: [Post] @http(path: "/posts", query: [{key: "userId", value: "{{.value.id}}"}], batchKey: ["userId"], dedupe: true)
}

type Post {
  id: Int
  userId: Int!
  title: String
}
`

func expectedUsersConfig() *config.Config {
	cfg := config.New("https://jsonplaceholder.typicode.com")
	cfg.Server = config.Server{Hostname: "localhost", Port: 8090}
	cfg.AddType(
		config.NewType("Query",
			config.NewField("users", "User").AsList().WithHttp(config.GET("/users")),
			config.NewField("user", "User").WithArg("id", "Int", true).WithHttp(config.GET("/users/{{.args.id}}")),
			config.NewField("version", "String").WithUnsafe("v1"),
		),
		config.NewType("Identified", config.NewField("id", "Int")),
		config.NewType("User",
			config.NewField("name", "String"),
			config.NewField("posts", "Post").AsList().WithHttp(&config.Http{
				Path:     "/posts",
				Query:    []config.KeyValue{{Key: "userId", Value: "{{.value.id}}"}},
				BatchKey: []string{"userId"},
				Dedupe:   true,
			}),
		).WithExtends("Identified"),
		config.NewType("Post",
			config.NewField("id", "Int"),
			config.NewField("userId", "Int").AsRequired(),
			config.NewField("title", "String"),
		),
	)
	return cfg
}

func TestParseSDL(t *testing.T) {
	cfg, err := config.ParseSDL("users.graphql", usersSDL)
	require.NoError(t, err)

	if diff := cmp.Diff(expectedUsersConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSDLErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		sdl     string
		wantErr string
	}{
		{
			name:    "unknown field directive",
			sdl:     `type Query { a: String @cache(maxAge: 1) }`,
			wantErr: "unknown directive @cache",
		},
		{
			name:    "unknown http argument",
			sdl:     `type Query { a: String @http(url: "/a") }`,
			wantErr: `unknown argument "url" in @http directive`,
		},
		{
			name:    "path must be a string",
			sdl:     `type Query { a: String @http(path: 1) }`,
			wantErr: "expected a string value",
		},
		{
			name:    "nested list",
			sdl:     `type Query { a: [[String]] }`,
			wantErr: "nested list types are not supported",
		},
		{
			name:    "interface definitions are not accepted",
			sdl:     `interface Node { id: ID }`,
			wantErr: "unsupported INTERFACE definition",
		},
		{
			name:    "syntax error",
			sdl:     `type Query {`,
			wantErr: "",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.ParseSDL("bad.graphql", tc.sdl)
			require.Error(t, err)
			if tc.wantErr != "" {
				require.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestParseSDLExtensionAppendsFields(t *testing.T) {
	cfg, err := config.ParseSDL("ext.graphql", `
type Query { a: String }
extend type Query { b: Int @unsafe(value: 3) }
`)
	require.NoError(t, err)
	q := cfg.Type("Query")
	require.Len(t, q.Fields, 2)
	require.Equal(t, "b", q.Fields[1].Name)
	require.Equal(t, 3, q.Fields[1].Unsafe.Value)
}

const usersYAML = `
server:
  hostname: localhost
  port: 8090
upstream:
  baseURL: https://jsonplaceholder.typicode.com
schema:
  query: Query
types:
  Query:
    fields:
      users: {type: User, list: true, http: {path: /users}}
      user:
        type: User
        args:
          id: {type: Int, required: true}
        http: {path: "/users/{{.args.id}}"}
      version: {type: String, unsafe: {value: v1}}
  Identified:
    fields:
      id: {type: Int}
  User:
    extends: Identified
    fields:
      name: {type: String}
      posts:
        type: Post
        list: true
        http:
          path: /posts
          query:
            - {key: userId, value: "{{.value.id}}"}
          batchKey: [userId]
          dedupe: true
  Post:
    fields:
      id: {type: Int}
      userId: {type: Int, required: true}
      title: {type: String}
`

func TestParseYAMLMatchesSDL(t *testing.T) {
	cfg, err := config.ParseYAML([]byte(usersYAML))
	require.NoError(t, err)

	if diff := cmp.Diff(expectedUsersConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseYAMLMissingType(t *testing.T) {
	_, err := config.ParseYAML([]byte("types:\n  Query:\n    fields:\n      a: {list: true}\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "field Query.a")
	require.Contains(t, err.Error(), "missing type")
}

func TestHttpBody(t *testing.T) {
	sdl, err := config.ParseSDL("body.graphql", `
type Query {
  createPost(title: String): Post @http(method: "POST", path: "/posts", body: "{\"title\":\"{{.args.title}}\"}")
}
type Post { id: Int }
`)
	require.NoError(t, err)
	require.Equal(t, `{"title":"{{.args.title}}"}`, sdl.Type("Query").Field("createPost").Http.Body)

	yml, err := config.ParseYAML([]byte(`
types:
  Query:
    fields:
      inline:
        type: Post
        http: {method: POST, path: /posts, body: '{"title":"{{.args.title}}"}'}
      structured:
        type: Post
        http:
          method: POST
          path: /posts
          body:
            userId: "{{.value.id}}"
            tags: [a, b]
`))
	require.NoError(t, err)
	q := yml.Type("Query")
	require.Equal(t, `{"title":"{{.args.title}}"}`, q.Field("inline").Http.Body)
	require.JSONEq(t, `{"userId":"{{.value.id}}","tags":["a","b"]}`, q.Field("structured").Http.Body)
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	sdlPath := filepath.Join(dir, "app.graphql")
	require.NoError(t, os.WriteFile(sdlPath, []byte(usersSDL), 0o644))
	yamlPath := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(usersYAML), 0o644))

	fromSDL, err := config.Load(sdlPath)
	require.NoError(t, err)
	fromYAML, err := config.Load(yamlPath)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(fromSDL, fromYAML))

	_, err = config.Load(filepath.Join(dir, "app.toml"))
	require.Error(t, err)
}

func TestLookupHelpers(t *testing.T) {
	cfg := expectedUsersConfig()
	require.Equal(t, "Query", cfg.QueryType())
	require.NotNil(t, cfg.Type("User").Field("posts"))
	require.Nil(t, cfg.Type("User").Field("missing"))
	require.Nil(t, cfg.Type("Missing"))

	empty := &config.Config{}
	require.Equal(t, config.DefaultQueryType, empty.QueryType())
}
