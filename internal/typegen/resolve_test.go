package typegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsgonest/apitypes/internal/diagnostic"
	"github.com/tsgonest/apitypes/internal/errors"
	"github.com/tsgonest/apitypes/internal/openapi"
)

// parseDoc parses an OpenAPI document from JSON source.
func parseDoc(t *testing.T, src string) *openapi.Document {
	t.Helper()
	doc, err := openapi.Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

// schemasDoc wraps component schemas in an otherwise empty document.
func schemasDoc(t *testing.T, schemas string) *openapi.Document {
	t.Helper()
	return parseDoc(t, `{"openapi": "3.0.3", "paths": {}, "components": {"schemas": `+schemas+`}}`)
}

func lookup(t *testing.T, doc *openapi.Document, name string) *openapi.Schema {
	t.Helper()
	s, err := doc.Registry.Resolve(name)
	require.NoError(t, err)
	return s
}

func TestResolveFields_OrderAndOptionality(t *testing.T) {
	doc := schemasDoc(t, `{
		"User": {
			"type": "object",
			"required": ["id", "email"],
			"properties": {
				"zeta": {"type": "string"},
				"id": {"type": "integer", "description": "Primary key"},
				"email": {"type": "string"},
				"alpha": {"type": "boolean"}
			}
		}
	}`)

	fields, err := NewResolver(doc.Registry, ResolverOptions{}).ResolveFields(lookup(t, doc, "User"))
	require.NoError(t, err)
	require.Len(t, fields, 4)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"zeta", "id", "email", "alpha"}, names)

	assert.True(t, fields[0].Optional)
	assert.False(t, fields[1].Optional)
	assert.False(t, fields[2].Optional)
	assert.True(t, fields[3].Optional)

	assert.Equal(t, "Primary key", fields[1].Doc)
	assert.Empty(t, fields[0].Doc)
	assert.Equal(t, "number", renderType(fields[1].Type, 0))
}

func TestResolveFields_RequiredNameNotAProperty(t *testing.T) {
	doc := schemasDoc(t, `{"A": {"type": "object", "required": ["ghost"], "properties": {"real": {"type": "string"}}}}`)

	fields, err := NewResolver(doc.Registry, ResolverOptions{}).ResolveFields(lookup(t, doc, "A"))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.True(t, fields[0].Optional)
}

func TestResolveFields_FollowsReferences(t *testing.T) {
	doc := schemasDoc(t, `{
		"Alias": {"$ref": "#/components/schemas/Target"},
		"Target": {"type": "object", "properties": {"x": {"type": "number"}}}
	}`)
	r := NewResolver(doc.Registry, ResolverOptions{})

	fields, err := r.ResolveFields(lookup(t, doc, "Alias"))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "x", fields[0].Name)

	fields, err = r.ResolveFields(&openapi.Schema{Kind: openapi.KindPrimitive, Primitive: openapi.PrimitiveString})
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestResolveType_Shapes(t *testing.T) {
	doc := schemasDoc(t, `{
		"Str": {"type": "string"},
		"Int": {"type": "integer"},
		"Num": {"type": "number"},
		"Bool": {"type": "boolean"},
		"Status": {"type": "string", "enum": ["b", "a", "b"]},
		"Single": {"type": "string", "enum": ["only"]},
		"Quoted": {"enum": ["it's", "back\\slash"]},
		"Grid": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}},
		"Statuses": {"type": "array", "items": {"$ref": "#/components/schemas/Status"}},
		"Singles": {"type": "array", "items": {"$ref": "#/components/schemas/Single"}},
		"Bag": {"type": "object"},
		"Nullable": {"type": ["string", "null"]},
		"MaybeStatus": {"type": "string", "nullable": true, "enum": ["a", null]},
		"Point": {"type": "object", "required": ["x"], "properties": {"x": {"type": "number"}, "y": {"type": "number"}}}
	}`)
	r := NewResolver(doc.Registry, ResolverOptions{})

	tests := []struct {
		name string
		want string
	}{
		{"Str", "string"},
		{"Int", "number"},
		{"Num", "number"},
		{"Bool", "boolean"},
		{"Status", "'b' | 'a' | 'b'"},
		{"Single", "'only'"},
		{"Quoted", `'it\'s' | 'back\\slash'`},
		{"Grid", "string[][]"},
		{"Statuses", "('b' | 'a' | 'b')[]"},
		{"MaybeStatus", "'a'"},
		{"Singles", "'only'[]"},
		{"Bag", OpenType},
		{"Nullable", "string"},
		{"Point", "{\n  x: number;\n  y?: number;\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := r.ResolveType(&openapi.Schema{Kind: openapi.KindReference, Ref: tt.name})
			require.NoError(t, err)
			assert.Equal(t, tt.want, renderType(typ, 0))
		})
	}
}

func TestResolveType_ReferenceIsTransparent(t *testing.T) {
	doc := schemasDoc(t, `{
		"Address": {
			"type": "object",
			"required": ["city"],
			"properties": {"city": {"type": "string"}, "tags": {"type": "array", "items": {"type": "string"}}}
		},
		"ByRef": {"type": "object", "properties": {"home": {"$ref": "#/components/schemas/Address"}}},
		"Inline": {"type": "object", "properties": {"home": {
			"type": "object",
			"required": ["city"],
			"properties": {"city": {"type": "string"}, "tags": {"type": "array", "items": {"type": "string"}}}
		}}}
	}`)
	r := NewResolver(doc.Registry, ResolverOptions{})

	byRef, err := r.ResolveFields(lookup(t, doc, "ByRef"))
	require.NoError(t, err)
	inline, err := r.ResolveFields(lookup(t, doc, "Inline"))
	require.NoError(t, err)

	assert.Equal(t, renderFields(inline, 1), renderFields(byRef, 1))
	assert.Equal(t, inline, byRef)
}

func TestResolveType_SharedReferenceIsNotACycle(t *testing.T) {
	doc := schemasDoc(t, `{
		"Money": {"type": "object", "properties": {"amount": {"type": "number"}}},
		"Order": {"type": "object", "properties": {
			"total": {"$ref": "#/components/schemas/Money"},
			"tax": {"$ref": "#/components/schemas/Money"},
			"lines": {"type": "array", "items": {"type": "object", "properties": {"price": {"$ref": "#/components/schemas/Money"}}}}
		}}
	}`)

	fields, err := NewResolver(doc.Registry, ResolverOptions{}).ResolveFields(lookup(t, doc, "Order"))
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, TypeObject, fields[0].Type.Kind)
	assert.Equal(t, TypeObject, fields[1].Type.Kind)
}

func TestResolveType_UnknownReference(t *testing.T) {
	doc := schemasDoc(t, `{"A": {"type": "object", "properties": {"b": {"$ref": "#/components/schemas/Missing"}}}}`)

	_, err := NewResolver(doc.Registry, ResolverOptions{}).ResolveFields(lookup(t, doc, "A"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownReference))
	assert.Contains(t, err.Error(), "Missing")
}

func TestResolveType_Unsupported(t *testing.T) {
	const schemas = `{
		"Pet": {"type": "object", "properties": {
			"kind": {"oneOf": [{"type": "string"}, {"type": "integer"}]},
			"age": {"type": "integer"}
		}}
	}`

	t.Run("lenient", func(t *testing.T) {
		doc := schemasDoc(t, schemas)
		diags := diagnostic.NewCollector(false, false)
		r := NewResolver(doc.Registry, ResolverOptions{Diagnostics: diags, Operation: "GET /pets"})

		fields, err := r.ResolveFields(lookup(t, doc, "Pet"))
		require.NoError(t, err)
		require.Len(t, fields, 2)
		assert.Equal(t, OpenType, renderType(fields[0].Type, 0))

		require.Len(t, diags.Diagnostics(), 1)
		d := diags.Diagnostics()[0]
		assert.Equal(t, diagnostic.SeverityWarning, d.Severity)
		assert.Equal(t, diagnostic.CategoryUnsupportedSchema, d.Category)
		assert.Equal(t, "GET /pets", d.Operation)
		assert.Equal(t, "#/components/schemas/Pet/properties/kind", d.Pointer)
		assert.Contains(t, d.Message, "oneOf")
	})

	t.Run("lenient warns once per schema", func(t *testing.T) {
		doc := schemasDoc(t, schemas)
		diags := diagnostic.NewCollector(false, false)
		r := NewResolver(doc.Registry, ResolverOptions{Diagnostics: diags})

		_, err := r.ResolveType(&openapi.Schema{Kind: openapi.KindReference, Ref: "Pet"})
		require.NoError(t, err)
		_, err = r.ResolveType(&openapi.Schema{Kind: openapi.KindReference, Ref: "Pet"})
		require.NoError(t, err)
		assert.Equal(t, 1, diags.WarningCount())
	})

	t.Run("strict", func(t *testing.T) {
		doc := schemasDoc(t, schemas)
		r := NewResolver(doc.Registry, ResolverOptions{Strict: true})

		_, err := r.ResolveFields(lookup(t, doc, "Pet"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrUnsupportedSchema))
		assert.Contains(t, err.Error(), "#/components/schemas/Pet/properties/kind")
		assert.NotEmpty(t, errors.GetAllHints(err))
	})

	t.Run("array without items", func(t *testing.T) {
		doc := schemasDoc(t, `{"List": {"type": "array"}}`)
		typ, err := NewResolver(doc.Registry, ResolverOptions{}).ResolveType(lookup(t, doc, "List"))
		require.NoError(t, err)
		assert.Equal(t, OpenType+"[]", renderType(typ, 0))
	})
}

const treeSchemas = `{
	"Tree": {"type": "object", "properties": {"root": {"$ref": "#/components/schemas/Node"}}},
	"Node": {
		"type": "object",
		"description": "A tree node.",
		"required": ["value"],
		"properties": {
			"value": {"type": "string"},
			"children": {"type": "array", "items": {"$ref": "#/components/schemas/Node"}}
		}
	}
}`

func TestResolveType_CycleError(t *testing.T) {
	doc := schemasDoc(t, treeSchemas)
	r := NewResolver(doc.Registry, ResolverOptions{})

	_, err := r.ResolveFields(lookup(t, doc, "Tree"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCyclicReference))
	assert.Contains(t, err.Error(), "Node -> Node")
	assert.NotContains(t, err.Error(), "Tree ->", "the chain starts at the re-entered schema")
}

func TestResolveType_CycleChain(t *testing.T) {
	doc := schemasDoc(t, `{
		"A": {"type": "object", "properties": {"b": {"$ref": "#/components/schemas/B"}}},
		"B": {"type": "object", "properties": {"c": {"$ref": "#/components/schemas/C"}}},
		"C": {"type": "object", "properties": {"a": {"$ref": "#/components/schemas/A"}}}
	}`)

	_, err := NewResolver(doc.Registry, ResolverOptions{}).ResolveType(&openapi.Schema{Kind: openapi.KindReference, Ref: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A -> B -> C -> A")
}

func TestResolveType_CycleAlias(t *testing.T) {
	doc := schemasDoc(t, treeSchemas)
	r := NewResolver(doc.Registry, ResolverOptions{Cycles: CycleAlias})

	fields, err := r.ResolveFields(lookup(t, doc, "Tree"))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "{\n  value: string;\n  children?: Node[];\n}", renderType(fields[0].Type, 0))

	aliases, err := r.Aliases()
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	assert.Equal(t, "/** A tree node. */\nexport type Node = {\n  value: string;\n  children?: Node[];\n};\n", aliases[0].Render())
}

func TestResolveType_CycleAliasBuiltinName(t *testing.T) {
	doc := schemasDoc(t, `{"Record": {"type": "object", "properties": {"next": {"$ref": "#/components/schemas/Record"}}}}`)
	r := NewResolver(doc.Registry, ResolverOptions{Cycles: CycleAlias})

	typ, err := r.ResolveType(&openapi.Schema{Kind: openapi.KindReference, Ref: "Record"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  next?: Record_;\n}", renderType(typ, 0))

	aliases, err := r.Aliases()
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	assert.Equal(t, "Record_", aliases[0].Name)
}

func TestResolveType_CycleAliasAvoidsReservedNames(t *testing.T) {
	doc := schemasDoc(t, `{"NodeResponse": {"type": "object", "properties": {
		"kids": {"type": "array", "items": {"$ref": "#/components/schemas/NodeResponse"}}
	}}}`)
	r := NewResolver(doc.Registry, ResolverOptions{Cycles: CycleAlias})
	r.Reserve("NodeRequest", "NodeResponse")

	d, err := r.Declare("NodeResponse", openapi.Payload{Schema: lookup(t, doc, "NodeResponse"), Refs: []string{"NodeResponse"}})
	require.NoError(t, err)
	assert.Equal(t, "export interface NodeResponse {\n  kids?: NodeResponse2[];\n}\n", d.Render())

	aliases, err := r.Aliases()
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	assert.Equal(t, "export type NodeResponse2 = {\n  kids?: NodeResponse2[];\n};\n", aliases[0].Render())
}

func TestResolveType_CycleAliasSanitizedNamesStayDistinct(t *testing.T) {
	doc := schemasDoc(t, `{
		"a.b": {"type": "object", "properties": {
			"self": {"$ref": "#/components/schemas/a.b"},
			"other": {"$ref": "#/components/schemas/a_b"}
		}},
		"a_b": {"type": "object", "properties": {"self": {"$ref": "#/components/schemas/a_b"}}}
	}`)
	r := NewResolver(doc.Registry, ResolverOptions{Cycles: CycleAlias})

	typ, err := r.ResolveType(&openapi.Schema{Kind: openapi.KindReference, Ref: "a.b"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  self?: a_b;\n  other?: {\n    self?: a_b2;\n  };\n}", renderType(typ, 0))

	aliases, err := r.Aliases()
	require.NoError(t, err)
	require.Len(t, aliases, 2)
	assert.Equal(t, "a_b", aliases[0].Name)
	assert.Equal(t, "a_b2", aliases[1].Name)
	assert.Equal(t, "export type a_b = {\n  self?: a_b;\n  other?: {\n    self?: a_b2;\n  };\n};\n", aliases[0].Render())
	assert.Equal(t, "export type a_b2 = {\n  self?: a_b2;\n};\n", aliases[1].Render())
}

func TestDeclare(t *testing.T) {
	doc := schemasDoc(t, treeSchemas)

	t.Run("absent payload is an empty interface", func(t *testing.T) {
		d, err := NewResolver(doc.Registry, ResolverOptions{}).Declare("PingRequest", openapi.Payload{})
		require.NoError(t, err)
		assert.Equal(t, "export interface PingRequest {\n}\n", d.Render())
	})

	t.Run("non-object payload is a type alias", func(t *testing.T) {
		d, err := NewResolver(doc.Registry, ResolverOptions{}).Declare("ListResponse", openapi.Payload{
			Schema: &openapi.Schema{Kind: openapi.KindArray, Items: &openapi.Schema{Kind: openapi.KindPrimitive, Primitive: openapi.PrimitiveString}},
		})
		require.NoError(t, err)
		assert.Equal(t, "export type ListResponse = string[];\n", d.Render())
	})

	t.Run("refs followed to reach the payload stay on the active path", func(t *testing.T) {
		node := lookup(t, doc, "Node")
		r := NewResolver(doc.Registry, ResolverOptions{Cycles: CycleAlias})

		d, err := r.Declare("GetNodeResponse", openapi.Payload{Schema: node, Refs: []string{"Node"}})
		require.NoError(t, err)
		assert.Equal(t, "export interface GetNodeResponse {\n  value: string;\n  children?: Node[];\n}\n", d.Render())
	})
}

func TestParseCyclePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want CyclePolicy
	}{
		{"", CycleError},
		{"error", CycleError},
		{"alias", CycleAlias},
		{" Alias ", CycleAlias},
	}
	for _, tt := range tests {
		got, err := ParseCyclePolicy(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseCyclePolicy("ignore")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfig))
	assert.Equal(t, `cycles: unknown policy "ignore"`, err.Error())
}
