package container

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"github.com/km-arc/go-container/typeref"
)

// ── Callables ────────────────────────────────────────────────────────────────

// Func wraps a callable with declared parameter metadata. Go funcs carry no
// parameter names, so named invocation and per-parameter defaults need a
// wrapper; raw funcs passed to Invoke get derived, positional-only
// parameters.
type Func struct {
	fn     any
	params []typeref.Param
}

// WrapFunc declares metadata for a callable.
//
//	f := container.WrapFunc(sendMail, typeref.Param{Name: "to"}, typeref.Param{Name: "mailer"})
func WrapFunc(fn any, params ...typeref.Param) *Func {
	return &Func{fn: fn, params: params}
}

// ── Invoker ──────────────────────────────────────────────────────────────────

// Invoker builds fresh, uncached instances and calls arbitrary functions,
// resolving parameters leniently and optionally consulting an attached
// builder for missing dependencies. It never writes the builder's cache for
// the object it produces and never runs registry callbacks on it.
type Invoker struct {
	builder  *Builder
	universe *typeref.Universe
}

// NewInvoker attaches an invoker to a builder; builder may be nil, in which
// case only supplied arguments and defaults can satisfy parameters.
func NewInvoker(b *Builder) *Invoker {
	inv := &Invoker{builder: b}
	if b != nil {
		inv.universe = b.universe
	} else {
		inv.universe = typeref.NewUniverse()
	}
	return inv
}

// Invoke calls a func or *Func with positional arguments, filling missing
// parameters from the attached builder where possible.
func (inv *Invoker) Invoke(callable any, args ...any) (any, error) {
	return inv.call(callable, Positional(args...))
}

// InvokeNamed calls a *Func (or raw func, addressed by decimal keys) with a
// name-keyed argument bag.
func (inv *Invoker) InvokeNamed(callable any, args Params) (any, error) {
	return inv.call(callable, NamedArgs(args))
}

func (inv *Invoker) call(callable any, supplied Args) (any, error) {
	f, ft, err := inv.toFunc(callable)
	if err != nil {
		return nil, err
	}
	params := inv.funcSignature(ft, f.params)
	slots, err := resolveParams(inv.universe, ft.String(), params, supplied, inv.lookup(), modeLenient, nil, nil)
	if err != nil {
		return nil, err
	}
	args, err := flatten(ft.String(), params, slots)
	if err != nil {
		return nil, err
	}
	in, err := typeref.BuildCallArgs(ft, args)
	if err != nil {
		return nil, invariantf("calling %s: %v", ft, err)
	}
	return callResults(reflect.ValueOf(f.fn).Call(in))
}

func (inv *Invoker) toFunc(callable any) (*Func, reflect.Type, error) {
	f, ok := callable.(*Func)
	if !ok {
		f = &Func{fn: callable}
	}
	t := reflect.TypeOf(f.fn)
	if t == nil || t.Kind() != reflect.Func {
		return nil, nil, invariantf("callable must be a func, got %T", f.fn)
	}
	return f, t, nil
}

// funcSignature merges declared params over the callable's reflected inputs,
// the same way class signatures are introspected.
func (inv *Invoker) funcSignature(ft reflect.Type, declared []typeref.Param) []typeref.Param {
	params := make([]typeref.Param, ft.NumIn())
	for i := range params {
		var p typeref.Param
		if i < len(declared) {
			p = declared[i]
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("arg%d", i)
		}
		in := ft.In(i)
		p.Variadic = ft.IsVariadic() && i == ft.NumIn()-1
		if p.Variadic {
			in = in.Elem()
		}
		if p.Type.IsUnset() {
			p.Type = inv.universe.DeriveDesc(in)
		}
		params[i] = p
	}
	return params
}

func (inv *Invoker) lookup() Lookup {
	if inv.builder == nil {
		return nil
	}
	return buildLookup{inv.builder}
}

// Make constructs a fresh instance of typeName. Interface-like names
// delegate to a disposable clone of the attached builder, so the result is
// effectively fresh. Concrete names are constructed directly, bypassing the
// builder's cache and callbacks; missing non-primitive parameters are still
// filled via the shared builder, so sub-dependencies stay cached across
// repeated calls.
func (inv *Invoker) Make(typeName string, args ...any) (any, error) {
	if inv.universe.IsInterface(typeName) {
		if inv.builder == nil {
			return nil, invariantf("making interface %q needs an attached builder", typeName)
		}
		return inv.builder.Clone().Get(typeName)
	}
	cls, ok := inv.universe.Class(typeName)
	if !ok {
		return nil, &NotFoundError{ID: typeName}
	}
	params, err := inv.universe.Signature(cls)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: make %q", Namespace, typeName)
	}
	slots, err := resolveParams(inv.universe, typeName, params, Positional(args...), inv.lookup(), modeLenient, nil, nil)
	if err != nil {
		return nil, err
	}
	argVals, err := flatten(typeName, params, slots)
	if err != nil {
		return nil, err
	}
	inst, err := inv.universe.Construct(cls, argVals)
	if err != nil {
		return nil, &BuildError{ID: typeName, Err: err}
	}
	return inst, nil
}

// callResults maps reflect call results to (value, error): zero results
// yield nil, a trailing error result is unwrapped.
func callResults(results []reflect.Value) (any, error) {
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		if err, ok := results[0].Interface().(error); ok {
			return nil, err
		}
		return results[0].Interface(), nil
	default:
		var err error
		if last := results[len(results)-1]; last.Type().Implements(errType) && !last.IsNil() {
			err = last.Interface().(error)
		}
		return results[0].Interface(), err
	}
}

var errType = reflect.TypeOf((*error)(nil)).Elem()
