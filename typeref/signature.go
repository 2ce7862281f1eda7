package typeref

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// checkConstructor validates a constructor func and returns its result type.
// Constructors return either exactly one value, or a value and an error.
func checkConstructor(fn any) (reflect.Type, error) {
	if fn == nil {
		return nil, errors.New("constructor is nil")
	}
	t := reflect.TypeOf(fn)
	if t.Kind() != reflect.Func {
		return nil, errors.Errorf("constructor must be a func; was %v", t)
	}
	switch t.NumOut() {
	case 1:
		return t.Out(0), nil
	case 2:
		if !t.Out(1).Implements(errType) {
			return nil, errors.Errorf("constructor %v returns two results so the second must be an error", t)
		}
		return t.Out(0), nil
	}
	return nil, errors.Errorf("constructor %v must return one value or a value and an error", t)
}

// Signature introspects a class constructor and returns its fully populated
// parameter descriptors: declared Params merged over the reflected inputs.
func (u *Universe) Signature(c *Class) ([]Param, error) {
	if _, err := checkConstructor(c.New); err != nil {
		return nil, errors.Wrapf(err, "typeref: class %q", c.Name)
	}
	ft := reflect.TypeOf(c.New)
	params := make([]Param, ft.NumIn())
	for i := range params {
		var p Param
		if i < len(c.Params) {
			p = c.Params[i]
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
			p.Type = u.DeriveDesc(in)
		}
		params[i] = p
	}
	return params, nil
}

// DeriveDesc maps a Go type to a descriptor: primitive kinds for scalar,
// slice and map types, a Named descriptor for everything else. The empty
// interface derives None. Nullability is never derived; binding authors
// declare it where nil is an acceptable resolution.
func (u *Universe) DeriveDesc(t reflect.Type) Desc {
	switch t.Kind() {
	case reflect.String:
		return String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int()
	case reflect.Float32, reflect.Float64:
		return Float()
	case reflect.Bool:
		return Bool()
	case reflect.Slice, reflect.Array:
		return Slice()
	case reflect.Map:
		return Iterable()
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return None()
		}
		return Object(u.nameFor(t))
	case reflect.Ptr:
		return Object(u.nameFor(t))
	}
	return Object(u.nameFor(t))
}

// nameFor resolves a reflect type back to its universe name, preferring
// registered classes and interfaces over the raw type key.
func (u *Universe) nameFor(t reflect.Type) string {
	if c, ok := u.byType[t]; ok {
		return c.Name
	}
	for name, it := range u.ifaces {
		if it == t {
			return name
		}
	}
	return TypeKeyOf(t)
}

// ── Invocation ───────────────────────────────────────────────────────────────

// Construct calls a class constructor with fully resolved arguments.
// A panic inside the constructor is recovered into an error; an error result
// is passed through. The caller wraps either into its own failure kind.
func (u *Universe) Construct(c *Class, args []any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("constructor for %s panicked: %v", c.Name, r)
		}
	}()
	fv := reflect.ValueOf(c.New)
	in, err := BuildCallArgs(fv.Type(), args)
	if err != nil {
		return nil, errors.Wrapf(err, "constructor for %s", c.Name)
	}
	results := fv.Call(in)
	if len(results) == 2 && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// BuildCallArgs converts resolved argument values to the func's input
// types, spreading trailing args into a variadic tail.
func BuildCallArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, errors.Errorf("needs at least %d arguments, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, errors.Errorf("needs %d arguments, got %d", fixed, len(args))
	}
	in := make([]reflect.Value, 0, len(args))
	for i, a := range args {
		t := ft.In(min(i, fixed))
		if ft.IsVariadic() && i >= fixed {
			t = ft.In(fixed).Elem()
		}
		v, err := convertArg(a, t)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
		in = append(in, v)
	}
	return in, nil
}

// convertArg adapts a resolved value to a declared input type. nil becomes
// the zero value; same-family numeric and named-scalar values are converted;
// anything else must be directly assignable.
func convertArg(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if v.Type().ConvertibleTo(t) && SameKindFamily(v.Kind(), t.Kind()) {
		return v.Convert(t), nil
	}
	// Untyped empty-sequence default into a concrete slice or map type.
	if v.Kind() == reflect.Slice && v.Len() == 0 {
		switch t.Kind() {
		case reflect.Slice:
			return reflect.MakeSlice(t, 0, 0), nil
		case reflect.Map:
			return reflect.MakeMap(t), nil
		}
	}
	return reflect.Value{}, errors.Errorf("cannot use %v as %v", v.Type(), t)
}

// SameKindFamily reports whether two reflect kinds share a primitive
// family, making a lossless Convert acceptable for resolved defaults.
func SameKindFamily(a, b reflect.Kind) bool {
	return kindFamily(a) != KindNone && kindFamily(a) == kindFamily(b)
}

func kindFamily(k reflect.Kind) Kind {
	switch k {
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.Bool:
		return KindBool
	}
	return KindNone
}
