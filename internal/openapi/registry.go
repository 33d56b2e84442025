package openapi

import (
	"strings"

	"github.com/tsgonest/apitypes/internal/errors"
)

// Registry holds the named schema definitions of a document. It is built
// once per document and never modified afterwards.
type Registry struct {
	names   []string
	schemas map[string]*Schema
}

// NewRegistry parses every definition under components.schemas. A missing
// section is a malformed document.
func NewRegistry(definitions *Object) (*Registry, error) {
	if definitions == nil || definitions.values == nil {
		return nil, errors.WithHint(
			errors.Mark(errors.New("document has no components.schemas section"), errors.ErrMalformedDocument),
			"apitypes reads OpenAPI 3 documents; named schemas must live under components.schemas",
		)
	}

	r := &Registry{schemas: make(map[string]*Schema, definitions.Len())}
	for _, name := range definitions.Keys() {
		raw, _ := definitions.Get(name)
		s, err := ParseSchema(raw, SchemaRefPrefix+escapePointer(name))
		if err != nil {
			return nil, err
		}
		r.names = append(r.names, name)
		r.schemas[name] = s
	}
	return r, nil
}

// Resolve returns the definition registered under name.
func (r *Registry) Resolve(name string) (*Schema, error) {
	if s, ok := r.schemas[name]; ok {
		return s, nil
	}
	err := errors.Mark(errors.Newf("no schema named %q in components.schemas", name), errors.ErrUnknownReference)
	if strings.Contains(name, "#") || strings.Contains(name, ".json") || strings.Contains(name, ".yaml") {
		return nil, errors.WithHint(err, "only local references of the form #/components/schemas/<Name> are supported")
	}
	return nil, err
}

// Follow resolves s through any chain of references until it reaches a
// schema that is not a reference. A nil schema is returned unchanged.
func (r *Registry) Follow(s *Schema) (*Schema, error) {
	s, _, err := r.FollowChain(s)
	return s, err
}

// FollowChain is Follow that also returns the reference names it passed
// through, outermost first.
func (r *Registry) FollowChain(s *Schema) (*Schema, []string, error) {
	var chain []string
	for s != nil && s.Kind == KindReference {
		for _, seen := range chain {
			if seen == s.Ref {
				return nil, nil, errors.Mark(
					errors.Newf("reference chain never reaches a schema: %s", strings.Join(append(chain, s.Ref), " -> ")),
					errors.ErrCyclicReference,
				)
			}
		}
		chain = append(chain, s.Ref)
		next, err := r.Resolve(s.Ref)
		if err != nil {
			return nil, nil, err
		}
		s = next
	}
	return s, chain, nil
}

// Names returns the registered names in document order.
func (r *Registry) Names() []string {
	return r.names
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.names)
}
