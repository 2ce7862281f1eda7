package container

import (
	"reflect"
	"strconv"

	"github.com/km-arc/go-container/typeref"
)

// ── Supplied arguments ───────────────────────────────────────────────────────

// Args is a supplied-argument set: either a plain ordered sequence
// (positional mode) or a name-keyed bag (named mode), never both. Bags from
// the registry are named-mode; their decimal keys address positions.
type Args struct {
	positional []any
	named      Params
	isNamed    bool
}

// Positional wraps an ordered argument sequence.
func Positional(values ...any) Args {
	return Args{positional: values}
}

// NamedArgs wraps a name-keyed argument bag.
func NamedArgs(values Params) Args {
	return Args{named: values, isNamed: true}
}

// lookup finds the supplied entry for the parameter at index i named name:
// the positional index in positional mode, else the name with the decimal
// index as fallback.
func (a Args) lookup(name string, i int) (any, bool) {
	if a.isNamed {
		if v, ok := a.named[name]; ok {
			return v, true
		}
		v, ok := a.named[strconv.Itoa(i)]
		return v, ok
	}
	if i < len(a.positional) {
		return a.positional[i], true
	}
	return nil, false
}

// byName finds a named entry regardless of position.
func (a Args) byName(name string) (any, bool) {
	if !a.isNamed {
		return nil, false
	}
	v, ok := a.named[name]
	return v, ok
}

// rest returns the positional entries from index i on.
func (a Args) rest(i int) []any {
	if a.isNamed || i >= len(a.positional) {
		return nil
	}
	return a.positional[i:]
}

// decimalRest returns the consecutive position-keyed entries of a named bag
// from index i on, stopping at the first gap.
func (a Args) decimalRest(i int) []any {
	var out []any
	for {
		v, ok := a.named[strconv.Itoa(i)]
		if !ok {
			return out
		}
		out = append(out, v)
		i++
	}
}

// ── Resolution ───────────────────────────────────────────────────────────────

// Lookup is the capability the resolver may consult for missing
// non-primitive parameters.
type Lookup interface {
	Has(id string) bool
	Get(id string) (any, error)
}

type resolveMode int

const (
	// modeStrict raises immediately on an unresolved parameter; used for
	// object-graph construction.
	modeStrict resolveMode = iota
	// modeLenient leaves unresolved parameters omitted; a later call with
	// missing required arguments fails at call time. Used for ad-hoc
	// invocation.
	modeLenient
)

// paramHook is consulted after supplied arguments and before the
// type-directed walk; the builder injects registry resolver rules here.
type paramHook func(p typeref.Param, index int) (any, bool, error)

// transformFunc rewrites a supplied value before use; the builder expands
// cross-reference markers here.
type transformFunc func(value any) (any, error)

// resolved is one output slot: a bound value, an omission, or a variadic
// spread.
type resolved struct {
	value    any
	omitted  bool
	spread   []any
	isSpread bool
}

// resolveParams produces a complete ordered argument set for a signature.
// Per parameter, in order: supplied argument (type-checked), hook, walk of
// the descriptor's alternatives via lookup (remembering the first primitive
// alternative's default as a provisional fallback), then literal default /
// primitive fallback / nil by nullability, and finally the mode's
// unresolved policy.
func resolveParams(
	u *typeref.Universe,
	class string,
	params []typeref.Param,
	supplied Args,
	lookup Lookup,
	mode resolveMode,
	hook paramHook,
	transform transformFunc,
) ([]resolved, error) {
	out := make([]resolved, 0, len(params))
	for i, p := range params {
		if p.Variadic {
			slot, err := resolveVariadic(u, p, supplied, i, transform)
			if err != nil {
				return nil, err
			}
			out = append(out, slot)
			break
		}

		if v, ok := supplied.lookup(p.Name, i); ok {
			v, err := applyTransform(transform, v)
			if err != nil {
				return nil, err
			}
			if !matchParam(u, v, p) {
				return nil, &TypeMismatchError{Param: p.Name, Expected: p.Type.String(), Value: v}
			}
			out = append(out, resolved{value: v})
			continue
		}

		if hook != nil {
			v, ok, err := hook(p, i)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, resolved{value: v})
				continue
			}
		}

		v, ok, fallback, hasFallback, err := walkAlternatives(u, p.Type, lookup)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, resolved{value: v})
			continue
		}

		switch {
		case p.HasDefault:
			out = append(out, resolved{value: p.Default})
		case hasFallback && !p.AllowsNull():
			out = append(out, resolved{value: fallback})
		case p.AllowsNull():
			out = append(out, resolved{value: nil})
		case hasFallback:
			out = append(out, resolved{value: fallback})
		case mode == modeLenient:
			out = append(out, resolved{omitted: true})
		default:
			return nil, &UnresolvableParameterError{Class: class, Param: p.Name}
		}
	}
	return out, nil
}

// resolveVariadic fills the trailing variadic slot: a named sequence is
// adopted verbatim (elements type-checked against a simple Named
// descriptor); otherwise all remaining positional entries are consumed —
// index-addressed in positional mode, consecutive decimal keys in a named
// bag.
func resolveVariadic(u *typeref.Universe, p typeref.Param, supplied Args, i int, transform transformFunc) (resolved, error) {
	if raw, ok := supplied.byName(p.Name); ok {
		seq, ok := asSequence(raw)
		if !ok {
			return resolved{}, invariantf("variadic parameter %q requires a sequence, got %T", p.Name, raw)
		}
		out := make([]any, 0, len(seq))
		for _, el := range seq {
			el, err := applyTransform(transform, el)
			if err != nil {
				return resolved{}, err
			}
			if p.Type.IsNamed() && !matchParam(u, el, p) {
				return resolved{}, &TypeMismatchError{Param: p.Name, Expected: p.Type.String(), Value: el}
			}
			out = append(out, el)
		}
		return resolved{spread: out, isSpread: true}, nil
	}
	rest := supplied.rest(i)
	if supplied.isNamed {
		rest = supplied.decimalRest(i)
	}
	out := make([]any, 0, len(rest))
	for _, el := range rest {
		el, err := applyTransform(transform, el)
		if err != nil {
			return resolved{}, err
		}
		out = append(out, el)
	}
	return resolved{spread: out, isSpread: true}, nil
}

// walkAlternatives looks for a non-primitive Named alternative resolvable
// via lookup; the first resolution wins. The first primitive alternative's
// zero default is remembered as a provisional fallback. Intersection
// descriptors resolve only when every locatable member yields the same
// concrete instance.
func walkAlternatives(u *typeref.Universe, d typeref.Desc, lookup Lookup) (value any, ok bool, fallback any, hasFallback bool, err error) {
	if d.IsIntersection() {
		v, ok, err := resolveIntersection(u, d, lookup)
		return v, ok, nil, false, err
	}
	var alts []typeref.Desc
	switch {
	case d.IsNamed():
		alts = []typeref.Desc{d}
	case d.IsUnion():
		alts = d.Members()
	default:
		return nil, false, nil, false, nil
	}
	for _, alt := range alts {
		if alt.IsPrimitive() {
			if !hasFallback {
				fallback, hasFallback = typeref.ZeroForPrimitive(alt)
			}
			continue
		}
		if !alt.IsNamed() || lookup == nil || !lookup.Has(alt.Name()) {
			continue
		}
		v, err := lookup.Get(alt.Name())
		if err != nil {
			return nil, false, nil, false, err
		}
		return v, true, nil, false, nil
	}
	return nil, false, fallback, hasFallback, nil
}

// resolveIntersection tries each member type name via has/get and accepts
// only when every resolvable member yields an object of the same runtime
// concrete type, using that single instance.
func resolveIntersection(u *typeref.Universe, d typeref.Desc, lookup Lookup) (any, bool, error) {
	if lookup == nil {
		return nil, false, nil
	}
	var instance any
	var concrete reflect.Type
	found := false
	for _, m := range d.Members() {
		if !m.IsNamed() || m.IsPrimitive() || !lookup.Has(m.Name()) {
			continue
		}
		v, err := lookup.Get(m.Name())
		if err != nil {
			return nil, false, err
		}
		t := reflect.TypeOf(v)
		if !found {
			instance, concrete, found = v, t, true
			continue
		}
		if t != concrete {
			return nil, false, nil
		}
	}
	return instance, found, nil
}

// matchParam checks a value against a parameter, honoring nullability
// declared on either the parameter or its descriptor.
func matchParam(u *typeref.Universe, v any, p typeref.Param) bool {
	if v == nil {
		return p.AllowsNull() || p.Type.IsNone() || p.Type.IsUnset()
	}
	return u.Matches(v, p.Type)
}

func applyTransform(transform transformFunc, v any) (any, error) {
	if transform == nil {
		return v, nil
	}
	return transform(v)
}

// asSequence flattens a slice or array value into []any.
func asSequence(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// flatten converts resolver output into the final call argument list.
// Omitted slots take the parameter's literal default when declared; a
// remaining omission of a required parameter fails at call time.
func flatten(class string, params []typeref.Param, slots []resolved) ([]any, error) {
	args := make([]any, 0, len(slots))
	for i, s := range slots {
		switch {
		case s.isSpread:
			args = append(args, s.spread...)
		case s.omitted:
			p := params[i]
			if p.HasDefault {
				args = append(args, p.Default)
				continue
			}
			return nil, invariantf("missing required argument %q of %s", p.Name, class)
		default:
			args = append(args, s.value)
		}
	}
	return args, nil
}
