package container

import (
	log "github.com/sirupsen/logrus"

	"github.com/km-arc/go-container/typeref"
)

// BuilderID is the id under which a builder resolves to itself.
var BuilderID = typeref.TypeKey((*Builder)(nil))

// Builder constructs and caches the object graph described by one Registry.
// It owns its instance cache and building-set exclusively; it references the
// registry, never copies it. A Builder is single-threaded by contract —
// clones share nothing mutable and may run concurrently with each other.
type Builder struct {
	reg      *Registry
	universe *typeref.Universe

	cache map[string]any

	// building is the ordered chain of type names under construction,
	// buildingSet its membership index. They bound the recursion of Get
	// calls made while resolving parameters.
	building    []string
	buildingSet map[string]bool
}

func NewBuilder(reg *Registry) *Builder {
	return &Builder{
		reg:         reg,
		universe:    reg.Universe(),
		cache:       make(map[string]any),
		buildingSet: make(map[string]bool),
	}
}

// Registry returns the registry this builder resolves against.
func (b *Builder) Registry() *Registry { return b.reg }

// Clone returns a new builder on the same registry with an empty cache.
func (b *Builder) Clone() *Builder { return NewBuilder(b.reg) }

// Has reports whether Get(id) can succeed: the registry has a binding, or
// id names a locatable type even unbound.
func (b *Builder) Has(id string) bool {
	return id == BuilderID || b.reg.Has(id) || b.universe.HasType(id)
}

// Get returns the instance for id, building and configuring it on first
// request and caching it for the builder's lifetime.
func (b *Builder) Get(id string) (any, error) {
	if !b.Has(id) {
		return nil, &NotFoundError{ID: id}
	}
	if id == BuilderID {
		return b, nil
	}
	if inst, ok := b.cache[id]; ok {
		log.Debugf("container: cache hit for %q", id)
		return inst, nil
	}
	inst, err := b.build(id)
	if err != nil {
		return nil, err
	}
	if err := b.configure(inst, id); err != nil {
		return nil, err
	}
	b.cache[id] = inst
	return inst, nil
}

// build produces a fresh instance for id without touching the cache.
func (b *Builder) build(id string) (any, error) {
	var target any
	if b.reg.Has(id) {
		expanded, err := b.reg.Expand(id)
		if err != nil {
			return nil, err
		}
		target = expanded
	} else {
		// Unbound but locatable type: the id is the type name.
		target = id
	}

	class, isName := target.(string)
	if !isName {
		// Pre-built instance target; becomes the value stored for id.
		return target, nil
	}

	if b.buildingSet[class] {
		chain := make([]string, len(b.building), len(b.building)+1)
		copy(chain, b.building)
		return nil, &CircularReferenceError{Chain: append(chain, class)}
	}
	b.building = append(b.building, class)
	b.buildingSet[class] = true
	defer func() {
		b.building = b.building[:len(b.building)-1]
		delete(b.buildingSet, class)
	}()

	cls, ok := b.universe.Class(class)
	if !ok {
		return nil, &NotFoundError{ID: class}
	}
	params, err := b.universe.Signature(cls)
	if err != nil {
		return nil, &BuildError{ID: id, Err: err}
	}

	log.Debugf("container: building %q as %s", id, class)
	overrides := b.reg.AllParametersFor(class, id)
	slots, err := resolveParams(
		b.universe, class, params, NamedArgs(overrides),
		buildLookup{b}, modeStrict, b.resolverHook(class), b.expandRef,
	)
	if err != nil {
		return nil, err
	}
	args, err := flatten(class, params, slots)
	if err != nil {
		return nil, err
	}
	inst, err := b.universe.Construct(cls, args)
	if err != nil {
		return nil, &BuildError{ID: id, Err: err}
	}
	return inst, nil
}

// buildLookup is the builder's view for the type-directed walk: only ids
// that can actually produce an instance count — a registry binding or a
// constructible class. An unbound interface is locatable but not
// constructible, so walking past it lets the parameter surface as
// unresolvable instead of failing a doomed recursive build.
type buildLookup struct {
	b *Builder
}

func (l buildLookup) Has(id string) bool {
	if l.b.reg.Has(id) {
		return true
	}
	_, ok := l.b.universe.Class(id)
	return ok
}

func (l buildLookup) Get(id string) (any, error) { return l.b.Get(id) }

// resolverHook consults the registry's resolver rules for a parameter
// before the type-directed walk, trying each non-primitive Named
// alternative of the descriptor.
func (b *Builder) resolverHook(class string) paramHook {
	return func(p typeref.Param, _ int) (any, bool, error) {
		for _, name := range namedAlternatives(p.Type) {
			id, ok, err := b.reg.ResolverLookup(p.Name, name, class)
			if err != nil {
				return nil, false, err
			}
			if ok {
				v, err := b.Get(id)
				if err != nil {
					return nil, false, err
				}
				return v, true, nil
			}
		}
		return nil, false, nil
	}
}

func namedAlternatives(d typeref.Desc) []string {
	collect := func(members []typeref.Desc) []string {
		var out []string
		for _, m := range members {
			if m.IsNamed() && !m.IsPrimitive() {
				out = append(out, m.Name())
			}
		}
		return out
	}
	switch {
	case d.IsNamed() && !d.IsPrimitive():
		return []string{d.Name()}
	case d.IsUnion(), d.IsIntersection():
		return collect(d.Members())
	}
	return nil
}

// expandRef resolves cross-reference override values through the builder.
func (b *Builder) expandRef(v any) (any, error) {
	if ref, ok := v.(Ref); ok {
		return b.Get(ref.ID)
	}
	return v, nil
}

// configure runs the registered callbacks for a freshly built instance,
// exactly once per instance. Ordering depends on what the id names:
// requesting the concrete type runs the ancestry chain only; an
// interface-like id runs its own callbacks before the ancestry chain; an
// arbitrary service name runs them after it.
func (b *Builder) configure(inst any, id string) error {
	concrete := b.universe.TypeName(inst)
	var callbacks []Callback
	switch {
	case id == concrete:
		callbacks = b.reg.CallbacksForAncestryOf(concrete)
	case b.universe.IsInterface(id):
		callbacks = append(b.reg.CallbacksFor(id), b.reg.CallbacksForAncestryOf(concrete)...)
	default:
		callbacks = append(b.reg.CallbacksForAncestryOf(concrete), b.reg.CallbacksFor(id)...)
	}
	if len(callbacks) > 0 {
		log.Debugf("container: configuring %q with %d callbacks", id, len(callbacks))
	}
	for _, cb := range callbacks {
		if err := cb(inst, b); err != nil {
			return err
		}
	}
	return nil
}
