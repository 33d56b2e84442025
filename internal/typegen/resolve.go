package typegen

import (
	"slices"
	"strconv"
	"strings"

	"github.com/tsgonest/apitypes/internal/diagnostic"
	"github.com/tsgonest/apitypes/internal/errors"
	"github.com/tsgonest/apitypes/internal/openapi"
)

// CyclePolicy decides what happens when a reference re-enters a schema that
// is already being expanded.
type CyclePolicy string

const (
	// CycleError fails the operation with ErrCyclicReference.
	CycleError CyclePolicy = "error"
	// CycleAlias emits a named type for the re-entered schema and declares
	// it once alongside the operation's payload types.
	CycleAlias CyclePolicy = "alias"
)

// ParseCyclePolicy accepts "error" and "alias". The empty string selects
// CycleError.
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch CyclePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CycleError:
		return CycleError, nil
	case CycleAlias:
		return CycleAlias, nil
	}
	return "", errors.WithHint(
		errors.Mark(errors.Newf("cycles: unknown policy %q", s), errors.ErrConfig),
		`valid values are "error" and "alias"`,
	)
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Strict turns unrecognized schema shapes into ErrUnsupportedSchema
	// instead of the open placeholder type.
	Strict bool
	Cycles CyclePolicy
	// Diagnostics receives lenient-mode warnings. May be nil.
	Diagnostics *diagnostic.Collector
	// Operation labels diagnostics, e.g. "GET /users".
	Operation string
}

// Resolver turns schema nodes into type expressions. It reads the registry
// and never modifies it; one Resolver is built per operation so alias
// bookkeeping does not leak between artifacts.
type Resolver struct {
	registry *openapi.Registry
	opts     ResolverOptions

	aliases []string          // schema names queued under CycleAlias, first reached first
	idents  map[string]string // queued schema name to its declared identifier
	taken   map[string]bool   // identifiers already declared in the artifact
	warned  map[string]bool   // pointers already reported as unsupported
}

// NewResolver creates a Resolver over reg.
func NewResolver(reg *openapi.Registry, opts ResolverOptions) *Resolver {
	if opts.Cycles == "" {
		opts.Cycles = CycleError
	}
	return &Resolver{
		registry: reg,
		opts:     opts,
		idents:   make(map[string]string),
		taken:    make(map[string]bool),
		warned:   make(map[string]bool),
	}
}

// expansion is the chain of reference names on the active path.
type expansion []string

// with returns a copy of e extended by name; siblings never observe each
// other's pushes.
func (e expansion) with(name string) expansion {
	next := make(expansion, len(e), len(e)+1)
	copy(next, e)
	return append(next, name)
}

// ResolveType resolves s into a type expression. A nil schema resolves to
// the open placeholder.
func (r *Resolver) ResolveType(s *openapi.Schema) (*Type, error) {
	return r.resolveType(s, nil)
}

// ResolveFields returns the fields of an object schema in declared order.
// References are followed first; a schema that is not an object has no
// fields.
func (r *Resolver) ResolveFields(s *openapi.Schema) ([]Field, error) {
	s, active, named, err := r.follow(s, nil)
	if err != nil || named != nil {
		return nil, err
	}
	return r.resolveFields(s, active)
}

func (r *Resolver) resolveType(s *openapi.Schema, active expansion) (*Type, error) {
	if s == nil {
		return openType(), nil
	}
	switch s.Kind {
	case openapi.KindReference:
		if slices.Contains(active, s.Ref) {
			return r.cycle(s.Ref, active)
		}
		target, err := r.registry.Resolve(s.Ref)
		if err != nil {
			return nil, err
		}
		return r.resolveType(target, active.with(s.Ref))

	case openapi.KindPrimitive:
		if s.Primitive == openapi.PrimitiveString && len(s.Enum) > 0 {
			return &Type{Kind: TypeLiteralUnion, Literals: s.Enum}, nil
		}
		return primitive(primitiveNames[string(s.Primitive)]), nil

	case openapi.KindArray:
		elem, err := r.resolveType(s.Items, active)
		if err != nil {
			return nil, err
		}
		return &Type{Kind: TypeArray, Elem: elem}, nil

	case openapi.KindObject:
		if len(s.Properties) == 0 {
			return openType(), nil
		}
		fields, err := r.resolveFields(s, active)
		if err != nil {
			return nil, err
		}
		return &Type{Kind: TypeObject, Fields: fields}, nil

	default:
		return r.unsupported(s)
	}
}

func (r *Resolver) resolveFields(s *openapi.Schema, active expansion) ([]Field, error) {
	if s == nil || s.Kind != openapi.KindObject {
		return nil, nil
	}
	fields := make([]Field, 0, len(s.Properties))
	for _, p := range s.Properties {
		t, err := r.resolveType(p.Schema, active)
		if err != nil {
			return nil, err
		}
		f := Field{
			Name:     p.Name,
			Optional: !s.IsRequired(p.Name),
			Type:     t,
		}
		if p.Schema != nil {
			f.Doc = p.Schema.Description
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// follow walks s through references, extending active with each name. When
// the walk re-enters the active path under CycleAlias, the named type is
// returned instead of a schema.
func (r *Resolver) follow(s *openapi.Schema, active expansion) (*openapi.Schema, expansion, *Type, error) {
	for s != nil && s.Kind == openapi.KindReference {
		if slices.Contains(active, s.Ref) {
			named, err := r.cycle(s.Ref, active)
			return nil, nil, named, err
		}
		target, err := r.registry.Resolve(s.Ref)
		if err != nil {
			return nil, nil, nil, err
		}
		active = active.with(s.Ref)
		s = target
	}
	return s, active, nil, nil
}

func (r *Resolver) cycle(name string, active expansion) (*Type, error) {
	if r.opts.Cycles == CycleAlias {
		return &Type{Kind: TypeNamed, Name: r.identifier(name)}, nil
	}

	start := slices.Index(active, name)
	chain := append(slices.Clone(active[start:]), name)
	return nil, errors.WithHint(
		errors.Mark(errors.Newf("cyclic reference: %s", strings.Join(chain, " -> ")), errors.ErrCyclicReference),
		"set cycles to \"alias\" (--cycles alias) to emit a named type for recursive schemas",
	)
}

// Reserve marks identifiers the artifact declares itself, so no alias is
// given one of them. Call it before Declare.
func (r *Resolver) Reserve(names ...string) {
	for _, n := range names {
		r.taken[n] = true
	}
}

// identifier returns the alias identifier for a schema name, queueing the
// schema on first use. Names that sanitize to an identifier already in use
// get a numeric suffix.
func (r *Resolver) identifier(name string) string {
	if id, ok := r.idents[name]; ok {
		return id
	}
	base := aliasName(name)
	id := base
	for n := 2; r.taken[id]; n++ {
		id = base + strconv.Itoa(n)
	}
	r.taken[id] = true
	r.idents[name] = id
	r.aliases = append(r.aliases, name)
	r.opts.Diagnostics.Info(diagnostic.CategoryCyclicReference, r.opts.Operation,
		"recursive schema "+name+" declared as type "+id)
	return id
}

func (r *Resolver) unsupported(s *openapi.Schema) (*Type, error) {
	if r.opts.Strict {
		return nil, errors.WithHint(
			errors.Mark(errors.Newf("unsupported schema at %s: %s", s.Pointer, s.Reason), errors.ErrUnsupportedSchema),
			"disable strict mode to emit "+OpenType+" for shapes the generator does not recognize",
		)
	}
	if !r.warned[s.Pointer] {
		r.warned[s.Pointer] = true
		r.opts.Diagnostics.WarnWithHint(
			diagnostic.CategoryUnsupportedSchema, r.opts.Operation, s.Pointer, s.Reason,
			"emitted as "+OpenType,
		)
	}
	return openType(), nil
}

// Declare builds the declaration for one payload. Object payloads, and
// absent ones, become interfaces; anything else becomes a type alias.
func (r *Resolver) Declare(name string, p openapi.Payload) (Declaration, error) {
	s, active, named, err := r.follow(p.Schema, expansion(p.Refs))
	if err != nil {
		return Declaration{}, err
	}
	if named != nil {
		return Declaration{Name: name, Type: named}, nil
	}
	if s == nil || s.Kind == openapi.KindObject {
		fields, err := r.resolveFields(s, active)
		if err != nil {
			return Declaration{}, err
		}
		return Declaration{Name: name, Fields: fields}, nil
	}
	t, err := r.resolveType(s, active)
	if err != nil {
		return Declaration{}, err
	}
	return Declaration{Name: name, Type: t}, nil
}

// Aliases declares every schema queued by a cycle under CycleAlias. Each is
// expanded with its own name on the active path; expanding one may queue
// more, which are declared in turn.
func (r *Resolver) Aliases() ([]Declaration, error) {
	var decls []Declaration
	for i := 0; i < len(r.aliases); i++ {
		name := r.aliases[i]
		target, err := r.registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		t, err := r.resolveType(target, expansion{name})
		if err != nil {
			return nil, err
		}
		decls = append(decls, Declaration{
			Name: r.idents[name],
			Doc:  target.Description,
			Type: t,
		})
	}
	return decls, nil
}
