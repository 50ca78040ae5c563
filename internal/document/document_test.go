package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "openapi.json", `{
		"paths": {"/b": {}, "/a": {}},
		"components": {"schemas": {"Foo": {"type": "string", "default": 1.50}}}
	}`)

	root, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"paths", "components"}, root.Keys())
	assert.Equal(t, []string{"/b", "/a"}, root.Get("paths").Keys())
	assert.Equal(t, "string", root.Lookup("components", "schemas", "Foo", "type").Str())
	assert.Equal(t, "1.50", root.Lookup("components", "schemas", "Foo", "default").NumberLiteral())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "openapi.yaml", `
paths:
  /users:
    get:
      responses:
        200:
          description: OK
components:
  schemas:
    Base: &base
      type: object
    Copy: *base
    Flag:
      default: true
    Size:
      default: 0x10
    Ratio:
      default: 1.0
    Huge:
      default: 123456789012345678901234567890
`)

	root, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "OK", root.Lookup("paths", "/users", "get", "responses", "200", "description").Str())
	assert.True(t, root.Lookup("components", "schemas", "Base").Equal(root.Lookup("components", "schemas", "Copy")))
	assert.True(t, root.Lookup("components", "schemas", "Flag", "default").BoolOr(false))
	assert.Equal(t, "16", root.Lookup("components", "schemas", "Size", "default").NumberLiteral())
	assert.Equal(t, "1.0", root.Lookup("components", "schemas", "Ratio", "default").NumberLiteral())
	assert.Equal(t, "123456789012345678901234567890", root.Lookup("components", "schemas", "Huge", "default").NumberLiteral())
}

// aliasBomb строит документ, где каждый уровень десять раз ссылается на предыдущий
func aliasBomb(levels int) string {
	var sb strings.Builder
	sb.WriteString("a0: &a0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= levels; i++ {
		prev := fmt.Sprintf("*a%d", i-1)
		items := strings.TrimSuffix(strings.Repeat(prev+", ", 10), ", ")
		fmt.Fprintf(&sb, "a%d: &a%d [%s]\n", i, i, items)
	}
	fmt.Fprintf(&sb, "paths:\n  /p:\n    get:\n      responses:\n        200:\n          content:\n            application/json:\n              schema: {type: object, properties: {bomb: {items: *a%d}}}\n", levels)
	return sb.String()
}

func TestLoadAliasesWithinBudget(t *testing.T) {
	root, err := Parse([]byte(aliasBomb(3)), "test")
	require.NoError(t, err)
	assert.Equal(t, 10, root.Lookup("a3").Len())
	assert.Equal(t, "x", root.Lookup("a1").Items()[9].Items()[0].Str())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.True(t, cerrdefs.IsNotFound(err))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated JSON", `{"paths": {`},
		{"trailing data", `{"a": 1} {"b": 2}`},
		{"bad YAML", "paths: [unclosed"},
		{"empty", "   \n"},
		{"self-referencing anchor", "a: &x [*x]"},
		{"alias bomb", aliasBomb(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "doc", tt.content)
			_, err := Load(path)
			require.Error(t, err)

			var md *MalformedDocumentError
			assert.True(t, errors.As(err, &md))
			assert.True(t, cerrdefs.IsInvalidArgument(err))
		})
	}
}

func TestResolve(t *testing.T) {
	root, err := Parse([]byte(`{"components": {"schemas": {"Foo": {"type": "string"}}}}`), "test")
	require.NoError(t, err)
	r := NewResolver(root)

	foo := r.Resolve("#/components/schemas/Foo")
	assert.Equal(t, `{"type":"string"}`, foo.String())

	missing := r.Resolve("#/components/schemas/Bar")
	assert.True(t, missing.IsUnresolved())
	assert.Equal(t, "#/components/schemas/Bar", missing.Pointer())
	assert.Equal(t, "{}", missing.String())

	through := r.Resolve("#/components/schemas/Foo/type/deeper")
	assert.True(t, through.IsUnresolved())

	external := r.Resolve("other.yaml#/components/schemas/Foo")
	assert.True(t, external.IsUnresolved())

	assert.Same(t, root, r.Resolve("#"))
}

func TestDeref(t *testing.T) {
	root, err := Parse([]byte(`{"components": {"schemas": {"Foo": {"type": "integer"}}}}`), "test")
	require.NoError(t, err)
	r := NewResolver(root)

	target, ptr := r.Deref(Object(Field{Key: "$ref", Value: String("#/components/schemas/Foo")}))
	assert.Equal(t, "#/components/schemas/Foo", ptr)
	assert.Equal(t, "integer", target.Get("type").Str())

	inline := Object(Field{Key: "type", Value: String("boolean")})
	same, ptr := r.Deref(inline)
	assert.Empty(t, ptr)
	assert.Same(t, inline, same)

	// $ref не строка, значит это не ссылка
	notRef := Object(Field{Key: "$ref", Value: Int(1)})
	same, ptr = r.Deref(notRef)
	assert.Empty(t, ptr)
	assert.Same(t, notRef, same)
}

func TestNodeMarshal(t *testing.T) {
	n := Object(
		Field{Key: "z", Value: Int(0)},
		Field{Key: "a", Value: Array(String("string"), Bool(false), nil)},
		Field{Key: "m", Value: Unresolved("#/x")},
		Field{Key: "z", Value: Number("2.5")},
	)

	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, `{"z":2.5,"a":["string",false,null],"m":{}}`, string(data))

	out, err := yaml.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, "z: 2.5\na:\n    - string\n    - false\n    - null\nm: {}\n", string(out))
}

func TestArrayKeepsArguments(t *testing.T) {
	items := []*Node{String("a"), nil}
	arr := Array(items...)

	assert.Nil(t, items[1])
	assert.Equal(t, KindNull, arr.Items()[1].Kind())
}

func TestNodeNilSafe(t *testing.T) {
	var n *Node
	assert.Equal(t, KindNull, n.Kind())
	assert.Nil(t, n.Get("x"))
	assert.Nil(t, n.Lookup("a", "b"))
	assert.Empty(t, n.Str())
	assert.Zero(t, n.Len())
	assert.True(t, n.BoolOr(true))
	_, ok := n.Ref()
	assert.False(t, ok)
	assert.Equal(t, "null", n.String())
}

func TestNodeEqual(t *testing.T) {
	a := Object(Field{Key: "x", Value: Int(1)}, Field{Key: "y", Value: String("s")})
	b := Object(Field{Key: "y", Value: String("s")}, Field{Key: "x", Value: Int(1)})
	c := Object(Field{Key: "x", Value: Int(2)}, Field{Key: "y", Value: String("s")})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, Object().Equal(Unresolved("#/a")))
}
