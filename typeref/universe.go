package typeref

import (
	"reflect"

	"github.com/pkg/errors"
)

// ── Named types ──────────────────────────────────────────────────────────────

// Param is the declared metadata for one constructor input. Go reflection
// carries no parameter names or defaults, so bindings declare them here;
// anything left unset is derived from the constructor signature.
type Param struct {
	Name       string
	Type       Desc
	Default    any
	HasDefault bool
	Nullable   bool
	Variadic   bool
}

// AllowsNull reports whether the parameter accepts nil, either declared on
// the parameter itself or on its Named descriptor.
func (p Param) AllowsNull() bool {
	return p.Nullable || p.Type.IsNullable()
}

// Class is a constructible named type: a concrete Go type plus the metadata
// the engine cannot reflect (ancestry, capabilities, parameter names).
type Class struct {
	// Name is the id the class is located under, conventionally its type key.
	Name string

	// Type is the concrete type New produces, usually a pointer type.
	Type reflect.Type

	// Extends names the single ancestor class, if any.
	Extends string

	// Implements lists declared capability names. Interfaces registered in
	// the universe are additionally detected structurally.
	Implements []string

	// New is the constructor: a func returning T or (T, error).
	New any

	// Params declares per-input metadata, aligned with New's inputs.
	// Missing entries are derived from the signature.
	Params []Param
}

// Universe is the table of named types the engine can locate: classes with
// constructors and named interfaces. It is the stand-in for a class loader
// and is owned by composition code, never a process-wide singleton.
type Universe struct {
	classes map[string]*Class
	byType  map[reflect.Type]*Class
	ifaces  map[string]reflect.Type
}

func NewUniverse() *Universe {
	return &Universe{
		classes: make(map[string]*Class),
		byType:  make(map[reflect.Type]*Class),
		ifaces:  make(map[string]reflect.Type),
	}
}

// RegisterClass adds a constructible class. The constructor signature is
// validated up front so a malformed binding fails at composition time.
func (u *Universe) RegisterClass(c *Class) error {
	if c.Name == "" {
		return errors.New("typeref: class needs a name")
	}
	rt, err := checkConstructor(c.New)
	if err != nil {
		return errors.Wrapf(err, "typeref: class %q", c.Name)
	}
	if c.Type == nil {
		c.Type = rt
	}
	u.classes[c.Name] = c
	u.byType[c.Type] = c
	return nil
}

// RegisterInterface names an interface type so values can be matched
// against it by name.
//
//	u.RegisterInterface("app.Mailer", typeref.InterfaceOf[Mailer]())
func (u *Universe) RegisterInterface(name string, t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Interface {
		return errors.Errorf("typeref: %q is not an interface type", name)
	}
	u.ifaces[name] = t
	return nil
}

// InterfaceOf returns the reflect.Type of the interface type parameter.
func InterfaceOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// TypeKey returns the package-qualified name of v's type, pointers
// dereferenced. Used as the stable default class name.
func TypeKey(v any) string {
	return TypeKeyOf(reflect.TypeOf(v))
}

func TypeKeyOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (u *Universe) Class(name string) (*Class, bool) {
	c, ok := u.classes[name]
	return c, ok
}

// HasType reports whether name locates a class or an interface.
func (u *Universe) HasType(name string) bool {
	if _, ok := u.classes[name]; ok {
		return true
	}
	_, ok := u.ifaces[name]
	return ok
}

func (u *Universe) IsInterface(name string) bool {
	_, ok := u.ifaces[name]
	return ok
}

// TypeName returns the concrete class name of a value: its registered class
// name when known, its type key otherwise.
func (u *Universe) TypeName(value any) string {
	if value == nil {
		return ""
	}
	if c, ok := u.byType[reflect.TypeOf(value)]; ok {
		return c.Name
	}
	return TypeKey(value)
}

// Ancestors returns the Extends chain of a class, root-most ancestor first.
// Unknown classes have no ancestors.
func (u *Universe) Ancestors(name string) []string {
	var chain []string
	seen := map[string]bool{name: true}
	c, ok := u.classes[name]
	for ok && c.Extends != "" && !seen[c.Extends] {
		chain = append([]string{c.Extends}, chain...)
		seen[c.Extends] = true
		c, ok = u.classes[c.Extends]
	}
	return chain
}

// InterfacesOf returns every capability name a class carries: declarations
// on the class and its ancestors, plus registered interfaces its concrete
// type implements structurally.
func (u *Universe) InterfacesOf(name string) []string {
	c, ok := u.classes[name]
	if !ok {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, decl := range c.Implements {
		add(decl)
	}
	for _, anc := range u.Ancestors(name) {
		if ac, ok := u.classes[anc]; ok {
			for _, decl := range ac.Implements {
				add(decl)
			}
		}
	}
	for iname, it := range u.ifaces {
		if c.Type != nil && c.Type.Implements(it) {
			add(iname)
		}
	}
	return out
}

// ImplementsCapability is the pure is-a check: true when the value's own
// type is name, or name is among the capabilities (interfaces, ancestors)
// of its type.
func (u *Universe) ImplementsCapability(value any, name string) bool {
	if isNil(value) {
		return false
	}
	own := u.TypeName(value)
	if own == name {
		return true
	}
	if c, ok := u.byType[reflect.TypeOf(value)]; ok {
		for _, anc := range u.Ancestors(c.Name) {
			if anc == name {
				return true
			}
		}
		for _, decl := range c.Implements {
			if decl == name {
				return true
			}
		}
		for _, anc := range u.Ancestors(c.Name) {
			if ac, ok := u.classes[anc]; ok {
				for _, decl := range ac.Implements {
					if decl == name {
						return true
					}
				}
			}
		}
	}
	if it, ok := u.ifaces[name]; ok {
		return reflect.TypeOf(value).Implements(it)
	}
	return false
}

// IsSupertypeOf reports whether super names a proper supertype (ancestor or
// implemented interface) of class.
func (u *Universe) IsSupertypeOf(super, class string) bool {
	if super == class {
		return false
	}
	for _, anc := range u.Ancestors(class) {
		if anc == super {
			return true
		}
	}
	for _, in := range u.InterfacesOf(class) {
		if in == super {
			return true
		}
	}
	return false
}
