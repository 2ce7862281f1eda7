package container

import (
	"sort"
	"strconv"
	"sync"

	"github.com/km-arc/go-container/typeref"
)

// ── Binding targets ──────────────────────────────────────────────────────────

// A binding target is one of:
//   - a type-name string, constructed on demand;
//   - a pre-built instance, returned as-is;
//   - a Factory, invoked lazily with the registry and the id's parameters.
//
// Factories must return an instance or a type-name string.
type Factory func(r *Registry, params Params) (any, error)

// Params is a parameter-override bag: values keyed by parameter name or by
// decimal position.
type Params map[string]any

// Ref marks an override value as a cross-reference: resolve another id
// instead of using a literal.
type Ref struct {
	ID string
}

// RefTo builds a cross-reference marker.
//
//	reg.SetParameter("mailer", "transport", container.RefTo("smtp"))
func RefTo(id string) Ref { return Ref{ID: id} }

// Callback post-configures a freshly built instance, mutating it in place.
type Callback func(instance any, b *Builder) error

// ResolverFunc picks the bound id satisfying a constructor parameter.
type ResolverFunc func(paramName, consumingClass string) (string, error)

// GenericObject is the generic empty-object type name; binding it directly
// is rejected since every value would satisfy it.
const GenericObject = "any"

// ── Registry ─────────────────────────────────────────────────────────────────

// Registry is the in-memory store of id→target bindings, per-id parameter
// overrides, per-id callbacks and per-type resolvers. It is assembled once
// by composition code, optionally merged from sub-registries, then
// conventionally locked; every mutator fails once Lock has been called.
//
// The registry guards its maps so independent builders may share one locked
// registry; a single Builder itself is single-threaded by contract.
type Registry struct {
	mu       sync.RWMutex
	universe *typeref.Universe

	bindings   map[string]any
	bindingIDs []string

	params   map[string]Params
	paramIDs []string

	callbacks   map[string]*callbackList
	callbackIDs []string

	resolvers   map[string]*resolverList
	resolverIDs []string

	locked bool
}

type callbackList struct {
	names  []string
	byName map[string]Callback
	next   int
}

type resolverEntry struct {
	key    string
	target any // bound id string, or a ResolverFunc
}

type resolverList struct {
	entries []resolverEntry
}

func NewRegistry(u *typeref.Universe) *Registry {
	if u == nil {
		u = typeref.NewUniverse()
	}
	return &Registry{
		universe:  u,
		bindings:  make(map[string]any),
		params:    make(map[string]Params),
		callbacks: make(map[string]*callbackList),
		resolvers: make(map[string]*resolverList),
	}
}

// Universe returns the named-type table bindings resolve against.
func (r *Registry) Universe() *typeref.Universe { return r.universe }

// Lock freezes the registry; all further mutations fail.
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

func (r *Registry) Locked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked
}

func (r *Registry) failIfLocked() error {
	if r.locked {
		return invariantf("registry is locked")
	}
	return nil
}

// ── Registration ─────────────────────────────────────────────────────────────

// Register binds an id to a target: a type-name string, an instance, or a
// Factory. Binding the generic empty-object id is rejected.
func (r *Registry) Register(id string, target any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(id, target)
}

func (r *Registry) register(id string, target any) error {
	if id == GenericObject {
		return invariantf("cannot bind the generic object id %q", id)
	}
	if err := r.failIfLocked(); err != nil {
		return err
	}
	if _, ok := r.bindings[id]; !ok {
		r.bindingIDs = append(r.bindingIDs, id)
	}
	r.bindings[id] = target
	return nil
}

// RegisterIfAbsent binds only when the id has no binding yet.
func (r *Registry) RegisterIfAbsent(id string, target any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bindings[id]; ok {
		return nil
	}
	return r.register(id, target)
}

// BindInterface binds an interface id to a concrete class. With iface empty
// the class must implement exactly one capability, which is used; otherwise
// the bind is ambiguous and fails. Optional params are stored under the
// interface id.
func (r *Registry) BindInterface(class, iface string, params ...Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failIfLocked(); err != nil {
		return err
	}
	if iface == "" {
		implemented := r.universe.InterfacesOf(class)
		switch len(implemented) {
		case 1:
			iface = implemented[0]
		case 0:
			return invariantf("class %q implements no interfaces to bind", class)
		default:
			return invariantf("class %q implements %d interfaces; name one explicitly", class, len(implemented))
		}
	}
	if err := r.register(iface, class); err != nil {
		return err
	}
	for _, bag := range params {
		for name, value := range bag {
			r.setParameter(iface, name, value)
		}
	}
	return nil
}

// BindAllImplementedInterfaces binds every capability of class to class.
func (r *Registry) BindAllImplementedInterfaces(class string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failIfLocked(); err != nil {
		return err
	}
	for _, iface := range r.universe.InterfacesOf(class) {
		if err := r.register(iface, class); err != nil {
			return err
		}
	}
	return nil
}

// RegisterInstance binds a pre-built object under its own concrete type id
// unconditionally, and under every interface it implements and every
// ancestor it extends where those ids are still free.
func (r *Registry) RegisterInstance(obj any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := r.universe.TypeName(obj)
	if name == "" {
		return invariantf("cannot register a nil instance")
	}
	if err := r.register(name, obj); err != nil {
		return err
	}
	for _, iface := range r.universe.InterfacesOf(name) {
		if _, ok := r.bindings[iface]; !ok {
			if err := r.register(iface, obj); err != nil {
				return err
			}
		}
	}
	for _, anc := range r.universe.Ancestors(name) {
		if _, ok := r.bindings[anc]; !ok {
			if err := r.register(anc, obj); err != nil {
				return err
			}
		}
	}
	return nil
}

// ── Parameter overrides ──────────────────────────────────────────────────────

// SetParameter stores one override for id, keyed by parameter name or by a
// decimal position.
func (r *Registry) SetParameter(id, name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failIfLocked(); err != nil {
		return err
	}
	r.setParameter(id, name, value)
	return nil
}

// SetParameters stores positional overrides for id, keyed "0", "1", … in
// call order. Named keys set via SetParameter may coexist in the same bag.
func (r *Registry) SetParameters(id string, values ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failIfLocked(); err != nil {
		return err
	}
	for i, v := range values {
		r.setParameter(id, strconv.Itoa(i), v)
	}
	return nil
}

// SetNamedParameters merges a named bag into id's overrides.
func (r *Registry) SetNamedParameters(id string, values Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failIfLocked(); err != nil {
		return err
	}
	for name, v := range values {
		r.setParameter(id, name, v)
	}
	return nil
}

func (r *Registry) setParameter(id, name string, value any) {
	bag, ok := r.params[id]
	if !ok {
		bag = make(Params)
		r.params[id] = bag
		r.paramIDs = append(r.paramIDs, id)
	}
	bag[name] = value
}

// ── Callbacks ────────────────────────────────────────────────────────────────

// AddCallback appends a post-construction callback for id. Without a name
// the callback gets an auto-incrementing numeric name; re-using a name
// overwrites the earlier callback in place, enabling later overrides.
func (r *Registry) AddCallback(id string, fn Callback, name ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failIfLocked(); err != nil {
		return err
	}
	list, ok := r.callbacks[id]
	if !ok {
		list = &callbackList{byName: make(map[string]Callback)}
		r.callbacks[id] = list
		r.callbackIDs = append(r.callbackIDs, id)
	}
	n := ""
	if len(name) > 0 && name[0] != "" {
		n = name[0]
	} else {
		n = strconv.Itoa(list.next)
		list.next++
	}
	if _, exists := list.byName[n]; !exists {
		list.names = append(list.names, n)
	}
	list.byName[n] = fn
	return nil
}

// ── Resolvers ────────────────────────────────────────────────────────────────

// AddResolver registers a rule selecting which bound id satisfies a
// constructor parameter of the given type. key is a parameter name, the
// wildcard "*", or a supertype name of the consuming class; target is a
// bound id or a ResolverFunc.
func (r *Registry) AddResolver(typeName, key string, target any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failIfLocked(); err != nil {
		return err
	}
	switch target.(type) {
	case string, ResolverFunc, func(string, string) (string, error):
	default:
		return invariantf("resolver target for %s/%s must be an id or a ResolverFunc", typeName, key)
	}
	list, ok := r.resolvers[typeName]
	if !ok {
		list = &resolverList{}
		r.resolvers[typeName] = list
		r.resolverIDs = append(r.resolverIDs, typeName)
	}
	for i := range list.entries {
		if list.entries[i].key == key {
			list.entries[i].target = target
			return nil
		}
	}
	list.entries = append(list.entries, resolverEntry{key: key, target: target})
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[id]
	return ok
}

func (r *Registry) Miss(id string) bool { return !r.Has(id) }

// Get returns the raw target for id, possibly an unexpanded factory.
func (r *Registry) Get(id string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bindings[id]
	return t, ok
}

// Expand returns the effective target for id: factories are invoked with
// the registry and the id's parameter bag, and must produce an instance or
// a type-name string.
func (r *Registry) Expand(id string) (any, error) {
	target, ok := r.Get(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	f := asFactory(target)
	if f == nil {
		return target, nil
	}
	result, err := f(r, r.ParametersFor(id))
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, invariantf("factory for %q produced nothing", id)
	}
	return result, nil
}

func asFactory(target any) Factory {
	switch f := target.(type) {
	case Factory:
		return f
	case func(*Registry, Params) (any, error):
		return f
	}
	return nil
}

// ParametersFor returns a copy of id's override bag.
func (r *Registry) ParametersFor(id string) Params {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyBag(r.params[id])
}

// AllParametersFor unions the class-scoped and id-scoped bags, the id's
// entries winning name collisions.
func (r *Registry) AllParametersFor(class, id string) Params {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if class == id {
		return copyBag(r.params[id])
	}
	out := copyBag(r.params[class])
	for name, v := range r.params[id] {
		out[name] = v
	}
	return out
}

func copyBag(bag Params) Params {
	out := make(Params, len(bag))
	for name, v := range bag {
		out[name] = v
	}
	return out
}

// CallbacksFor returns id's callbacks in registration order.
func (r *Registry) CallbacksFor(id string) []Callback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbacksFor(id)
}

func (r *Registry) callbacksFor(id string) []Callback {
	list, ok := r.callbacks[id]
	if !ok {
		return nil
	}
	out := make([]Callback, 0, len(list.names))
	for _, n := range list.names {
		out = append(out, list.byName[n])
	}
	return out
}

// CallbacksForAncestryOf concatenates each ancestor's callbacks, root-most
// ancestor first, followed by the class's own.
func (r *Registry) CallbacksForAncestryOf(class string) []Callback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Callback
	for _, anc := range r.universe.Ancestors(class) {
		out = append(out, r.callbacksFor(anc)...)
	}
	return append(out, r.callbacksFor(class)...)
}

// ResolverLookup scans paramTypeName's resolver entries in insertion order
// and returns the first matching bound id. A key matches when it is the
// wildcard "*", equals paramName, or names a supertype of consumingClass.
func (r *Registry) ResolverLookup(paramName, paramTypeName, consumingClass string) (string, bool, error) {
	r.mu.RLock()
	list, ok := r.resolvers[paramTypeName]
	if !ok {
		r.mu.RUnlock()
		return "", false, nil
	}
	entries := make([]resolverEntry, len(list.entries))
	copy(entries, list.entries)
	r.mu.RUnlock()

	for _, e := range entries {
		if e.key != "*" && e.key != paramName && !r.universe.IsSupertypeOf(e.key, consumingClass) {
			continue
		}
		switch t := e.target.(type) {
		case string:
			return t, true, nil
		case ResolverFunc:
			id, err := t(paramName, consumingClass)
			return id, err == nil, err
		case func(string, string) (string, error):
			id, err := t(paramName, consumingClass)
			return id, err == nil, err
		}
	}
	return "", false, nil
}

// ── Merge & Sort ─────────────────────────────────────────────────────────────

// Merge folds another registry into this one: other's plain bindings
// override same-id bindings here; parameter, callback and resolver bags are
// shallow-unioned per id with other's entries winning name collisions.
func (r *Registry) Merge(other *Registry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failIfLocked(); err != nil {
		return err
	}
	other.mu.RLock()
	defer other.mu.RUnlock()

	for _, id := range other.bindingIDs {
		if err := r.register(id, other.bindings[id]); err != nil {
			return err
		}
	}
	for _, id := range other.paramIDs {
		for name, v := range other.params[id] {
			r.setParameter(id, name, v)
		}
	}
	for _, id := range other.callbackIDs {
		src := other.callbacks[id]
		dst, ok := r.callbacks[id]
		if !ok {
			dst = &callbackList{byName: make(map[string]Callback)}
			r.callbacks[id] = dst
			r.callbackIDs = append(r.callbackIDs, id)
		}
		for _, n := range src.names {
			if _, exists := dst.byName[n]; !exists {
				dst.names = append(dst.names, n)
			}
			dst.byName[n] = src.byName[n]
		}
		if src.next > dst.next {
			dst.next = src.next
		}
	}
	for _, typeName := range other.resolverIDs {
		src := other.resolvers[typeName]
		dst, ok := r.resolvers[typeName]
		if !ok {
			dst = &resolverList{}
			r.resolvers[typeName] = dst
			r.resolverIDs = append(r.resolverIDs, typeName)
		}
	nextEntry:
		for _, e := range src.entries {
			for i := range dst.entries {
				if dst.entries[i].key == e.key {
					dst.entries[i].target = e.target
					continue nextEntry
				}
			}
			dst.entries = append(dst.entries, e)
		}
	}
	return nil
}

// Sort reorders all four maps by id for deterministic iteration.
func (r *Registry) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.Strings(r.bindingIDs)
	sort.Strings(r.paramIDs)
	sort.Strings(r.callbackIDs)
	sort.Strings(r.resolverIDs)
}

// BindingIDs returns the binding ids in iteration order, for inspection.
func (r *Registry) BindingIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.bindingIDs))
	copy(out, r.bindingIDs)
	return out
}
