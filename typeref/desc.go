// Package typeref models the declared type shapes the container resolves
// against: parameter descriptors (with union/intersection/nullable forms Go
// reflection cannot express) and a universe of named classes and interfaces.
package typeref

import "reflect"

// ── Descriptors ──────────────────────────────────────────────────────────────

// Kind is the primitive kind carried by a Named descriptor.
// A primitive kind and a class/interface name are mutually exclusive.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindSlice
	KindIterable
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindSlice:
		return "slice"
	case KindIterable:
		return "iterable"
	}
	return "none"
}

type descOp int

const (
	opUnset descOp = iota // zero value: "not declared", fill from reflection
	opNone
	opNamed
	opUnion
	opIntersection
)

// Desc describes a declared parameter type shape:
// None | Named(name, nullable, kind) | Union(members) | Intersection(members).
//
// Go reflection cannot recover union/intersection/nullable shapes, so binding
// authors declare them explicitly; plain shapes are derived from reflect.
type Desc struct {
	op       descOp
	name     string
	nullable bool
	kind     Kind
	members  []Desc
}

// None matches any value.
func None() Desc { return Desc{op: opNone} }

// Object names a class or interface type.
func Object(name string) Desc { return Desc{op: opNamed, name: name} }

func String() Desc   { return Desc{op: opNamed, kind: KindString} }
func Int() Desc      { return Desc{op: opNamed, kind: KindInt} }
func Float() Desc    { return Desc{op: opNamed, kind: KindFloat} }
func Bool() Desc     { return Desc{op: opNamed, kind: KindBool} }
func Slice() Desc    { return Desc{op: opNamed, kind: KindSlice} }
func Iterable() Desc { return Desc{op: opNamed, kind: KindIterable} }

// Union requires at least two members; any member may satisfy a value.
func Union(members ...Desc) Desc {
	if len(members) < 2 {
		panic("typeref: union needs at least two members")
	}
	return Desc{op: opUnion, members: members}
}

// Intersection requires at least two members; every member must be satisfied.
func Intersection(members ...Desc) Desc {
	if len(members) < 2 {
		panic("typeref: intersection needs at least two members")
	}
	return Desc{op: opIntersection, members: members}
}

// Nullable returns a copy of d that additionally accepts nil.
func (d Desc) Nullable() Desc {
	d.nullable = true
	return d
}

func (d Desc) IsUnset() bool        { return d.op == opUnset }
func (d Desc) IsNone() bool         { return d.op == opNone }
func (d Desc) IsNamed() bool        { return d.op == opNamed }
func (d Desc) IsUnion() bool        { return d.op == opUnion }
func (d Desc) IsIntersection() bool { return d.op == opIntersection }
func (d Desc) IsNullable() bool     { return d.nullable }
func (d Desc) IsPrimitive() bool    { return d.op == opNamed && d.kind != KindNone }
func (d Desc) Name() string         { return d.name }
func (d Desc) Kind() Kind           { return d.kind }
func (d Desc) Members() []Desc      { return d.members }

func (d Desc) String() string {
	switch d.op {
	case opNamed:
		s := d.name
		if d.IsPrimitive() {
			s = d.kind.String()
		}
		if d.nullable {
			s = "?" + s
		}
		return s
	case opUnion:
		return joinMembers(d.members, "|")
	case opIntersection:
		return joinMembers(d.members, "&")
	}
	return "mixed"
}

func joinMembers(members []Desc, sep string) string {
	s := ""
	for i, m := range members {
		if i > 0 {
			s += sep
		}
		s += m.String()
	}
	return s
}

// ── Matching ─────────────────────────────────────────────────────────────────

// Matches reports whether a runtime value satisfies the descriptor.
// Primitive kinds match exactly, no coercion; non-primitive names match the
// value's own type or any capability it implements.
func (u *Universe) Matches(value any, d Desc) bool {
	switch d.op {
	case opUnset, opNone:
		return true
	case opUnion:
		for _, m := range d.members {
			if u.Matches(value, m) {
				return true
			}
		}
		return false
	case opIntersection:
		for _, m := range d.members {
			if !u.Matches(value, m) {
				return false
			}
		}
		return true
	}
	// Named
	if isNil(value) {
		return d.nullable
	}
	if d.IsPrimitive() {
		return kindOf(value) == d.kind ||
			(d.kind == KindIterable && kindOf(value) == KindSlice)
	}
	return u.ImplementsCapability(value, d.name)
}

// ZeroForPrimitive returns the fallback default for a primitive descriptor:
// "" / 0 / 0.0 / false / empty sequence. Reports false for anything else.
func ZeroForPrimitive(d Desc) (any, bool) {
	if !d.IsPrimitive() {
		return nil, false
	}
	switch d.kind {
	case KindString:
		return "", true
	case KindInt:
		return 0, true
	case KindFloat:
		return 0.0, true
	case KindBool:
		return false, true
	case KindSlice, KindIterable:
		return []any{}, true
	}
	return nil, false
}

// kindOf classifies a runtime value into a primitive kind, or KindNone.
// All Go integer widths count as int; float32/64 as float; slices and arrays
// as slice; maps as iterable.
func kindOf(value any) Kind {
	switch reflect.ValueOf(value).Kind() {
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.Bool:
		return KindBool
	case reflect.Slice, reflect.Array:
		return KindSlice
	case reflect.Map:
		return KindIterable
	}
	return KindNone
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
