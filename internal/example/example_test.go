package example

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mdwit/spec2mcp/internal/document"
)

func parse(t require.TestingT, src string) *document.Node {
	n, err := document.Parse([]byte(src), "test")
	require.NoError(t, err)
	return n
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		expected string
	}{
		{"default wins over type", `{"type": "integer", "default": 7}`, `7`},
		{"default null", `{"type": "string", "default": null}`, `null`},
		{"default object verbatim", `{"type": "object", "default": {"x": [1]}, "properties": {"y": {"type": "string"}}}`, `{"x":[1]}`},
		{"string", `{"type": "string", "format": "email", "enum": ["a@b.c"]}`, `"string"`},
		{"integer", `{"type": "integer", "minimum": 5}`, `0`},
		{"boolean", `{"type": "boolean"}`, `false`},
		{"number is not synthesized", `{"type": "number"}`, `null`},
		{"missing type", `{"description": "anything"}`, `null`},
		{"object without properties", `{"type": "object"}`, `{}`},
		{"array without items", `{"type": "array"}`, `[null]`},
		{"array of strings", `{"type": "array", "items": {"type": "string"}}`, `["string"]`},
		{
			"structural recursion",
			`{"type": "object", "properties": {"a": {"type": "boolean"}, "b": {"type": "array", "items": {"type": "string"}}}}`,
			`{"a":false,"b":["string"]}`,
		},
		{
			"property order kept",
			`{"type": "object", "properties": {"z": {"type": "integer"}, "a": {"type": "integer"}}}`,
			`{"z":0,"a":0}`,
		},
		{"ref without resolver", `{"$ref": "#/components/schemas/Foo"}`, `null`},
		{"non-object schema", `[1, 2]`, `null`},
	}

	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Synthesize(parse(t, tt.schema)).String())
		})
	}
}

func TestSynthesizeNil(t *testing.T) {
	assert.Equal(t, "null", New().Synthesize(nil).String())
}

func TestSynthesizeFollowsRefs(t *testing.T) {
	doc := parse(t, `{"components": {"schemas": {
		"Page": {"type": "object", "properties": {"limit": {"$ref": "#/components/schemas/Limit"}, "tags": {"type": "array", "items": {"$ref": "#/components/schemas/Tag"}}}},
		"Limit": {"$ref": "#/components/schemas/Count"},
		"Count": {"type": "integer", "default": 25},
		"Tag": {"type": "string"}
	}}}`)
	s := New(WithResolver(document.NewResolver(doc)))

	out := s.Synthesize(doc.Lookup("components", "schemas", "Page"))
	assert.Equal(t, `{"limit":25,"tags":["string"]}`, out.String())
}

func TestSynthesizeCycle(t *testing.T) {
	doc := parse(t, `{"components": {"schemas": {
		"Tree": {"type": "object", "properties": {
			"name": {"type": "string"},
			"children": {"type": "array", "items": {"$ref": "#/components/schemas/Tree"}}
		}},
		"A": {"type": "object", "properties": {"b": {"$ref": "#/components/schemas/B"}}},
		"B": {"type": "object", "properties": {"a": {"$ref": "#/components/schemas/A"}}},
		"Self": {"$ref": "#/components/schemas/Self"}
	}}}`)

	var truncations []Truncation
	s := New(
		WithResolver(document.NewResolver(doc)),
		WithTruncationHook(func(tr Truncation) { truncations = append(truncations, tr) }),
	)

	tree := s.Synthesize(parse(t, `{"$ref": "#/components/schemas/Tree"}`))
	assert.Equal(t, `{"name":"string","children":[null]}`, tree.String())
	require.Len(t, truncations, 1)
	assert.Equal(t, ReasonCycle, truncations[0].Reason)
	assert.Equal(t, "#/components/schemas/Tree", truncations[0].Pointer)

	ab := s.Synthesize(parse(t, `{"$ref": "#/components/schemas/A"}`))
	assert.Equal(t, `{"b":{"a":null}}`, ab.String())

	self := s.Synthesize(parse(t, `{"$ref": "#/components/schemas/Self"}`))
	assert.Equal(t, "null", self.String())
}

func TestSynthesizeSiblingsShareSchema(t *testing.T) {
	// Повторное использование схемы в соседних полях не считается циклом
	doc := parse(t, `{"components": {"schemas": {
		"Pair": {"type": "object", "properties": {
			"left": {"$ref": "#/components/schemas/Leaf"},
			"right": {"$ref": "#/components/schemas/Leaf"}
		}},
		"Leaf": {"type": "boolean"}
	}}}`)
	s := New(WithResolver(document.NewResolver(doc)))

	out := s.Synthesize(doc.Lookup("components", "schemas", "Pair"))
	assert.Equal(t, `{"left":false,"right":false}`, out.String())
}

func TestSynthesizeMaxDepth(t *testing.T) {
	// Десять вложенных объектов без ссылок
	schema := `{"type": "string"}`
	for i := 0; i < 10; i++ {
		schema = fmt.Sprintf(`{"type": "object", "properties": {"n": %s}}`, schema)
	}

	var reasons []Reason
	s := New(WithMaxDepth(3), WithTruncationHook(func(tr Truncation) { reasons = append(reasons, tr.Reason) }))

	out := s.Synthesize(parse(t, schema))
	assert.Equal(t, `{"n":{"n":{"n":{"n":null}}}}`, out.String())
	assert.Equal(t, []Reason{ReasonDepth}, reasons)
}

func TestSynthesizeMaxNodes(t *testing.T) {
	s := New(WithMaxNodes(3))
	out := s.Synthesize(parse(t, `{"type": "object", "properties": {
		"a": {"type": "integer"}, "b": {"type": "integer"}, "c": {"type": "integer"}
	}}`))
	assert.Equal(t, `{"a":0,"b":0,"c":null}`, out.String())
}

func TestSynthesizeTerminatesOnArbitraryRefGraphs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 5).Draw(t, "schemas")
		maxDepth := rapid.IntRange(1, 8).Draw(t, "maxDepth")

		ref := func(label string) string {
			return fmt.Sprintf(`{"$ref": "#/components/schemas/S%d"}`, rapid.IntRange(0, count).Draw(t, label))
		}

		defs := make([]string, count)
		for i := range defs {
			switch rapid.IntRange(0, 3).Draw(t, "shape") {
			case 0:
				props := make([]string, rapid.IntRange(0, 3).Draw(t, "props"))
				for j := range props {
					props[j] = fmt.Sprintf(`"p%d": %s`, j, ref("prop"))
				}
				defs[i] = fmt.Sprintf(`"S%d": {"type": "object", "properties": {%s}}`, i, strings.Join(props, ","))
			case 1:
				defs[i] = fmt.Sprintf(`"S%d": {"type": "array", "items": %s}`, i, ref("items"))
			case 2:
				defs[i] = fmt.Sprintf(`"S%d": %s`, i, ref("alias"))
			default:
				defs[i] = fmt.Sprintf(`"S%d": {"type": "integer"}`, i)
			}
		}

		doc := parse(t, fmt.Sprintf(`{"components": {"schemas": {%s}}}`, strings.Join(defs, ",")))
		s := New(WithResolver(document.NewResolver(doc)), WithMaxDepth(maxDepth))

		out := s.Synthesize(parse(t, ref("root")))
		if d := depth(out); d > maxDepth+1 {
			t.Fatalf("example depth %d exceeds bound %d: %s", d, maxDepth+1, out)
		}
	})
}

func depth(n *document.Node) int {
	best := 0
	for _, it := range n.Items() {
		best = max(best, depth(it))
	}
	for _, f := range n.Fields() {
		best = max(best, depth(f.Value))
	}
	if n.IsArray() || n.IsObject() {
		return best + 1
	}
	return best
}
