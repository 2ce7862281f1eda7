package container_test

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/km-arc/go-container/container"
)

// ── locking ──────────────────────────────────────────────────────────────────

func TestRegistry_Lock_MutatorsFail(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Lock()

	checks := map[string]error{
		"Register":     reg.Register("x", "test.MemLogger"),
		"SetParameter": reg.SetParameter("x", "a", 1),
		"AddCallback":  reg.AddCallback("x", func(any, *container.Builder) error { return nil }),
		"AddResolver":  reg.AddResolver("test.Logger", "*", "x"),
		"Merge":        reg.Merge(newTestRegistry(t)),
	}
	for op, err := range checks {
		if !errors.Is(err, container.ErrInvariant) {
			t.Errorf("%s on locked registry: got %v, want ErrInvariant", op, err)
		}
	}
}

func TestRegistry_Register_GenericObjectIDRejected(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.Register(container.GenericObject, "test.MemLogger"); !errors.Is(err, container.ErrInvariant) {
		t.Errorf("got %v, want ErrInvariant", err)
	}
}

func TestRegistry_RegisterIfAbsent_KeepsExistingBinding(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.Register("logger", "test.MemLogger"))
	mustOK(t, reg.RegisterIfAbsent("logger", "test.NullLogger"))

	target, _ := reg.Get("logger")
	if target != "test.MemLogger" {
		t.Errorf("got %v, want the original binding", target)
	}
}

// ── interface binding ────────────────────────────────────────────────────────

func TestRegistry_BindInterface_AutoDetectsSingleInterface(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.BindInterface("test.MemLogger", ""))

	target, ok := reg.Get("test.Logger")
	if !ok || target != "test.MemLogger" {
		t.Errorf("test.Logger binding: got %v %v", target, ok)
	}
}

func TestRegistry_BindInterface_AmbiguousWithoutExplicitName(t *testing.T) {
	reg := newTestRegistry(t)
	// File implements both Reader and Closer.
	if err := reg.BindInterface("test.File", ""); !errors.Is(err, container.ErrInvariant) {
		t.Errorf("got %v, want ErrInvariant", err)
	}
}

func TestRegistry_BindInterface_ParamsStoredUnderInterfaceID(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.BindInterface("test.MemLogger", "test.Logger", container.Params{"level": "debug"}))

	bag := reg.ParametersFor("test.Logger")
	if bag["level"] != "debug" {
		t.Errorf("got %v", bag)
	}
}

func TestRegistry_BindAllImplementedInterfaces(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.BindAllImplementedInterfaces("test.File"))

	for _, iface := range []string{"test.Reader", "test.Closer"} {
		if target, _ := reg.Get(iface); target != "test.File" {
			t.Errorf("%s: got %v, want test.File", iface, target)
		}
	}
}

func TestRegistry_RegisterInstance_BindsTypeInterfacesAndAncestors(t *testing.T) {
	reg := newTestRegistry(t)
	pre := NewBase()
	mustOK(t, reg.Register("test.Base", pre))

	sub := NewSub()
	mustOK(t, reg.RegisterInstance(sub))

	if target, _ := reg.Get("test.Sub"); target != sub {
		t.Error("concrete type id should be bound unconditionally")
	}
	// Ancestor already bound: kept.
	if target, _ := reg.Get("test.Base"); target != pre {
		t.Error("existing ancestor binding should not be overwritten")
	}

	logger := NewMemLogger()
	mustOK(t, reg.RegisterInstance(logger))
	if target, _ := reg.Get("test.Logger"); target != logger {
		t.Error("implemented interface should be bound when free")
	}
}

// ── parameters ───────────────────────────────────────────────────────────────

func TestRegistry_AllParametersFor_IDScopedWinsCollisions(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.SetParameter("test.Settings", "a", "class"))
	mustOK(t, reg.SetParameter("test.Settings", "b", 1))
	mustOK(t, reg.SetParameter("cfg", "a", "id"))

	bag := reg.AllParametersFor("test.Settings", "cfg")
	if bag["a"] != "id" || bag["b"] != 1 {
		t.Errorf("got %v", bag)
	}
}

func TestRegistry_SetParameters_PositionalAndNamedCoexist(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.SetParameters("cfg", "first", "second"))
	mustOK(t, reg.SetParameter("cfg", "name", "third"))

	bag := reg.ParametersFor("cfg")
	if bag["0"] != "first" || bag["1"] != "second" || bag["name"] != "third" {
		t.Errorf("got %v", bag)
	}
}

// ── callbacks ────────────────────────────────────────────────────────────────

func TestRegistry_AddCallback_NamedOverwriteKeepsPosition(t *testing.T) {
	reg := newTestRegistry(t)
	var order []string
	record := func(tag string) container.Callback {
		return func(any, *container.Builder) error {
			order = append(order, tag)
			return nil
		}
	}
	mustOK(t, reg.AddCallback("svc", record("first"), "init"))
	mustOK(t, reg.AddCallback("svc", record("second")))
	// Override "init" later: replaces the callback, keeps its slot.
	mustOK(t, reg.AddCallback("svc", record("override"), "init"))

	for _, cb := range reg.CallbacksFor("svc") {
		_ = cb(nil, nil)
	}
	if len(order) != 2 || order[0] != "override" || order[1] != "second" {
		t.Errorf("got %v, want [override second]", order)
	}
}

func TestRegistry_CallbacksForAncestryOf_RootMostFirst(t *testing.T) {
	reg := newTestRegistry(t)
	var order []string
	mustOK(t, reg.AddCallback("test.Sub", func(any, *container.Builder) error {
		order = append(order, "sub")
		return nil
	}))
	mustOK(t, reg.AddCallback("test.Base", func(any, *container.Builder) error {
		order = append(order, "base")
		return nil
	}))

	for _, cb := range reg.CallbacksForAncestryOf("test.Sub") {
		_ = cb(nil, nil)
	}
	if len(order) != 2 || order[0] != "base" || order[1] != "sub" {
		t.Errorf("got %v, want [base sub]", order)
	}
}

// ── resolvers ────────────────────────────────────────────────────────────────

func TestRegistry_ResolverLookup_FirstMatchWinsInInsertionOrder(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.AddResolver("test.Logger", "audit", "auditLogger"))
	mustOK(t, reg.AddResolver("test.Logger", "*", "defaultLogger"))

	// Param name matches the earlier entry.
	id, ok, err := reg.ResolverLookup("audit", "test.Logger", "test.Service")
	mustOK(t, err)
	if !ok || id != "auditLogger" {
		t.Errorf("got %q %v", id, ok)
	}

	// Otherwise the wildcard catches.
	id, ok, err = reg.ResolverLookup("log", "test.Logger", "test.Service")
	mustOK(t, err)
	if !ok || id != "defaultLogger" {
		t.Errorf("got %q %v", id, ok)
	}
}

func TestRegistry_ResolverLookup_FunctionTargetInvoked(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.AddResolver("test.Logger", "*", container.ResolverFunc(
		func(paramName, consumingClass string) (string, error) {
			return consumingClass + "." + paramName, nil
		})))

	id, ok, err := reg.ResolverLookup("log", "test.Logger", "test.Service")
	mustOK(t, err)
	if !ok || id != "test.Service.log" {
		t.Errorf("got %q %v", id, ok)
	}
}

func TestRegistry_ResolverLookup_SupertypeKeyMatchesSubclassConsumer(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.AddResolver("test.Logger", "test.Base", "baseLogger"))

	// test.Sub extends test.Base, so the supertype key applies.
	id, ok, err := reg.ResolverLookup("log", "test.Logger", "test.Sub")
	mustOK(t, err)
	if !ok || id != "baseLogger" {
		t.Errorf("got %q %v", id, ok)
	}

	// An unrelated consumer does not match.
	_, ok, err = reg.ResolverLookup("log", "test.Logger", "test.File")
	mustOK(t, err)
	if ok {
		t.Error("unrelated consumer should not match a supertype key")
	}
}

// ── expansion ────────────────────────────────────────────────────────────────

func TestRegistry_Expand_FactoryReceivesParametersAndMayReturnTypeName(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.Register("logger", container.Factory(
		func(r *container.Registry, p container.Params) (any, error) {
			if p["verbose"] == true {
				return "test.MemLogger", nil
			}
			return "test.NullLogger", nil
		})))
	mustOK(t, reg.SetParameter("logger", "verbose", true))

	target, err := reg.Expand("logger")
	mustOK(t, err)
	if target != "test.MemLogger" {
		t.Errorf("got %v, want the type name", target)
	}
}

func TestRegistry_Expand_NilFactoryResultIsInvariantViolation(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.Register("bad", container.Factory(
		func(*container.Registry, container.Params) (any, error) { return nil, nil })))

	if _, err := reg.Expand("bad"); !errors.Is(err, container.ErrInvariant) {
		t.Errorf("got %v, want ErrInvariant", err)
	}
}

// ── merge & sort ─────────────────────────────────────────────────────────────

func TestRegistry_Merge_OtherWinsCollisions(t *testing.T) {
	r1 := newTestRegistry(t)
	mustOK(t, r1.Register("logger", "test.NullLogger"))
	mustOK(t, r1.Register("keep", "test.Base"))
	mustOK(t, r1.SetParameter("cfg", "a", "one"))
	mustOK(t, r1.SetParameter("cfg", "b", "two"))

	r2 := newTestRegistry(t)
	mustOK(t, r2.Register("logger", "test.MemLogger"))
	mustOK(t, r2.SetParameter("cfg", "a", "override"))

	mustOK(t, r1.Merge(r2))

	if target, _ := r1.Get("logger"); target != "test.MemLogger" {
		t.Errorf("logger: got %v, want r2's binding", target)
	}
	if target, _ := r1.Get("keep"); target != "test.Base" {
		t.Errorf("keep: got %v, want r1's binding untouched", target)
	}
	bag := r1.ParametersFor("cfg")
	if bag["a"] != "override" || bag["b"] != "two" {
		t.Errorf("cfg bag: got %v", bag)
	}
}

func TestRegistry_Sort_BindingIDsDeterministic(t *testing.T) {
	reg := newTestRegistry(t)
	mustOK(t, reg.Register("zeta", "test.MemLogger"))
	mustOK(t, reg.Register("alpha", "test.NullLogger"))
	reg.Sort()

	ids := reg.BindingIDs()
	if !sort.StringsAreSorted(ids) {
		t.Errorf("ids not sorted: %v", ids)
	}
	if !reflect.DeepEqual(ids, []string{"alpha", "zeta"}) {
		t.Errorf("got %v", ids)
	}
}
