// Package typegen turns the schemas of OpenAPI operations into TypeScript
// type declarations, one artifact file per operation.
package typegen

// TypeKind identifies the form of a resolved type expression.
type TypeKind int

const (
	TypePrimitive    TypeKind = iota // string, number, boolean
	TypeLiteralUnion                 // 'a' | 'b'
	TypeArray                        // T[]
	TypeObject                       // inline { ... } built from fields
	TypeOpen                         // Record<string, unknown>
	TypeNamed                        // reference to a cycle-breaking alias
)

// Type is a resolved type expression.
type Type struct {
	Kind     TypeKind
	Name     string   // TypePrimitive, TypeNamed
	Literals []string // TypeLiteralUnion, declared order
	Elem     *Type    // TypeArray
	Fields   []Field  // TypeObject, declared order
}

// Field is one property of an object type.
type Field struct {
	Name     string
	Optional bool
	Type     *Type
	Doc      string // property description, verbatim
}

// OpenType is the placeholder for objects without properties and for
// shapes the resolver does not understand.
const OpenType = "Record<string, unknown>"

var primitiveNames = map[string]string{
	"string":  "string",
	"integer": "number",
	"number":  "number",
	"boolean": "boolean",
}

func primitive(name string) *Type { return &Type{Kind: TypePrimitive, Name: name} }

func openType() *Type { return &Type{Kind: TypeOpen} }
