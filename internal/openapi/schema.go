package openapi

import (
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/tsgonest/apitypes/internal/errors"
)

// Kind identifies which shape a Schema takes.
type Kind int

const (
	KindUnknown Kind = iota
	KindReference
	KindPrimitive
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindReference:
		return "reference"
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Primitive is the JSON Schema type of a primitive schema.
type Primitive string

const (
	PrimitiveString  Primitive = "string"
	PrimitiveInteger Primitive = "integer"
	PrimitiveNumber  Primitive = "number"
	PrimitiveBoolean Primitive = "boolean"
)

// SchemaRefPrefix is the only $ref prefix that resolves against the registry.
const SchemaRefPrefix = "#/components/schemas/"

// Schema is one node of the schema graph. Exactly one shape applies,
// selected by Kind.
type Schema struct {
	Kind Kind

	// KindReference: the registry name the $ref points at.
	Ref string

	// KindPrimitive. Enum is only set for strings, in declared order.
	Primitive Primitive
	Enum      []string

	// KindArray
	Items *Schema

	// KindObject
	Properties []Property
	Required   map[string]bool

	// KindUnknown: why the shape was not recognized.
	Reason string

	Description string
	Pointer     string // JSON pointer of the node within its document
}

// Property is a named member of an object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Property returns the schema of the named property, or nil.
func (s *Schema) Property(name string) *Schema {
	if s == nil {
		return nil
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// IsRequired reports whether name is in the object's required set.
func (s *Schema) IsRequired(name string) bool {
	return s != nil && s.Required[name]
}

type rawSchema struct {
	Ref         string           `json:"$ref"`
	Type        jsontext.Value   `json:"type"`
	Description string           `json:"description"`
	Enum        []jsontext.Value `json:"enum"`
	Items       jsontext.Value   `json:"items"`
	Properties  *Object          `json:"properties"`
	Required    []string         `json:"required"`
	AllOf       jsontext.Value   `json:"allOf"`
	AnyOf       jsontext.Value   `json:"anyOf"`
	OneOf       jsontext.Value   `json:"oneOf"`
}

// ParseSchema parses a raw JSON schema. pointer locates the schema in its
// document and is threaded into every nested node for diagnostics.
func ParseSchema(raw jsontext.Value, pointer string) (*Schema, error) {
	var rs rawSchema
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "schema at %s", pointer), errors.ErrMalformedDocument)
	}

	if rs.Ref != "" {
		return &Schema{Kind: KindReference, Ref: RefName(rs.Ref), Pointer: pointer}, nil
	}

	s := &Schema{Description: rs.Description, Pointer: pointer}

	typ, ok := schemaType(rs.Type)
	if !ok {
		s.Reason = fmt.Sprintf("type %s is not a single type name", string(rs.Type))
		return s, nil
	}
	if typ == "" {
		switch {
		case rs.Properties != nil:
			typ = "object"
		case len(rs.Enum) > 0:
			typ = "string"
		}
	}

	switch typ {
	case "string":
		s.Kind = KindPrimitive
		s.Primitive = PrimitiveString
		for _, v := range rs.Enum {
			// null marks the enum nullable; it is not a literal.
			if v.Kind() == 'n' {
				continue
			}
			var lit string
			if err := json.Unmarshal(v, &lit); err != nil {
				return &Schema{
					Reason:      fmt.Sprintf("enum value %s is not a string", string(v)),
					Description: rs.Description,
					Pointer:     pointer,
				}, nil
			}
			s.Enum = append(s.Enum, lit)
		}
	case "integer":
		s.Kind = KindPrimitive
		s.Primitive = PrimitiveInteger
	case "number":
		s.Kind = KindPrimitive
		s.Primitive = PrimitiveNumber
	case "boolean":
		s.Kind = KindPrimitive
		s.Primitive = PrimitiveBoolean
	case "array":
		s.Kind = KindArray
		itemsPtr := pointer + "/items"
		if len(rs.Items) == 0 {
			s.Items = &Schema{Reason: "array has no items schema", Pointer: itemsPtr}
			break
		}
		items, err := ParseSchema(rs.Items, itemsPtr)
		if err != nil {
			return nil, err
		}
		s.Items = items
	case "object":
		s.Kind = KindObject
		s.Required = make(map[string]bool, len(rs.Required))
		for _, name := range rs.Required {
			s.Required[name] = true
		}
		for _, name := range rs.Properties.Keys() {
			raw, _ := rs.Properties.Get(name)
			prop, err := ParseSchema(raw, pointer+"/properties/"+escapePointer(name))
			if err != nil {
				return nil, err
			}
			s.Properties = append(s.Properties, Property{Name: name, Schema: prop})
		}
	case "":
		s.Reason = unsupportedReason(rs)
	default:
		s.Reason = fmt.Sprintf("type %q is not supported", typ)
	}
	return s, nil
}

// schemaType extracts the type name. OpenAPI 3.1 type arrays are accepted
// when they name exactly one type besides "null".
func schemaType(raw jsontext.Value) (string, bool) {
	if len(raw) == 0 {
		return "", true
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, true
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return "", false
	}
	var named []string
	for _, t := range many {
		if t != "null" {
			named = append(named, t)
		}
	}
	if len(named) != 1 {
		return "", false
	}
	return named[0], true
}

func unsupportedReason(rs rawSchema) string {
	switch {
	case len(rs.AllOf) > 0:
		return "allOf composition is not supported"
	case len(rs.AnyOf) > 0:
		return "anyOf composition is not supported"
	case len(rs.OneOf) > 0:
		return "oneOf composition is not supported"
	default:
		return "schema has no type"
	}
}

// RefName turns a $ref into a registry name. Only local references into
// components.schemas are stripped; anything else is returned unchanged and
// will not resolve.
func RefName(ref string) string {
	name, ok := strings.CutPrefix(ref, SchemaRefPrefix)
	if !ok {
		return ref
	}
	return unescapePointer(name)
}

func escapePointer(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}

func unescapePointer(s string) string {
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
}
