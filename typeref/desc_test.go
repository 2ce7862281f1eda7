package typeref_test

import (
	"testing"

	"github.com/km-arc/go-container/typeref"
)

func TestDesc_Matches_PrimitiveKindsAreExact(t *testing.T) {
	u := typeref.NewUniverse()

	cases := []struct {
		desc  typeref.Desc
		value any
		want  bool
	}{
		{typeref.String(), "hi", true},
		{typeref.String(), 1, false},
		{typeref.Int(), 1, true},
		{typeref.Int(), int64(1), true},
		{typeref.Int(), 1.0, false},
		{typeref.Float(), 1.5, true},
		{typeref.Float(), 1, false},
		{typeref.Bool(), true, true},
		{typeref.Bool(), "true", false},
		{typeref.Slice(), []string{"a"}, true},
		{typeref.Slice(), map[string]int{}, false},
		{typeref.Iterable(), map[string]int{}, true},
		{typeref.Iterable(), []int{1}, true},
	}
	for _, c := range cases {
		if got := u.Matches(c.value, c.desc); got != c.want {
			t.Errorf("Matches(%v, %s) = %v, want %v", c.value, c.desc, got, c.want)
		}
	}
}

func TestDesc_Matches_NilOnlyWhenNullable(t *testing.T) {
	u := typeref.NewUniverse()
	if u.Matches(nil, typeref.String()) {
		t.Error("plain string should reject nil")
	}
	if !u.Matches(nil, typeref.String().Nullable()) {
		t.Error("nullable string should accept nil")
	}
	if !u.Matches(nil, typeref.None()) {
		t.Error("None should accept everything, including nil")
	}
}

func TestDesc_Matches_UnionAnyMember(t *testing.T) {
	u := typeref.NewUniverse()
	d := typeref.Union(typeref.String(), typeref.Int())
	if !u.Matches("x", d) || !u.Matches(3, d) {
		t.Error("both members should satisfy the union")
	}
	if u.Matches(true, d) {
		t.Error("a non-member kind should not satisfy the union")
	}
}

func TestDesc_Matches_IntersectionAllMembers(t *testing.T) {
	u := typeref.NewUniverse()
	mustRegister(t, u.RegisterInterface("x.Reader", typeref.InterfaceOf[reader]()))
	mustRegister(t, u.RegisterInterface("x.Closer", typeref.InterfaceOf[closer]()))

	d := typeref.Intersection(typeref.Object("x.Reader"), typeref.Object("x.Closer"))
	if !u.Matches(&file{}, d) {
		t.Error("a type with both capabilities should match")
	}
	if u.Matches(&socket{}, d) {
		t.Error("a type with one capability should not match")
	}
}

func TestDesc_String_Forms(t *testing.T) {
	cases := []struct {
		desc typeref.Desc
		want string
	}{
		{typeref.Object("app.Mailer"), "app.Mailer"},
		{typeref.Object("app.Mailer").Nullable(), "?app.Mailer"},
		{typeref.Int(), "int"},
		{typeref.Union(typeref.String(), typeref.Int()), "string|int"},
		{typeref.Intersection(typeref.Object("a.R"), typeref.Object("a.C")), "a.R&a.C"},
		{typeref.None(), "mixed"},
	}
	for _, c := range cases {
		if got := c.desc.String(); got != c.want {
			t.Errorf("got %q, want %q", got, c.want)
		}
	}
}

func TestZeroForPrimitive(t *testing.T) {
	cases := []struct {
		desc typeref.Desc
		want any
	}{
		{typeref.String(), ""},
		{typeref.Int(), 0},
		{typeref.Float(), 0.0},
		{typeref.Bool(), false},
	}
	for _, c := range cases {
		got, ok := typeref.ZeroForPrimitive(c.desc)
		if !ok || got != c.want {
			t.Errorf("%s: got %v %v, want %v", c.desc, got, ok, c.want)
		}
	}

	seq, ok := typeref.ZeroForPrimitive(typeref.Slice())
	if !ok || len(seq.([]any)) != 0 {
		t.Errorf("slice default: got %v %v, want empty sequence", seq, ok)
	}
	if _, ok := typeref.ZeroForPrimitive(typeref.Object("app.Mailer")); ok {
		t.Error("non-primitive descriptors have no zero default")
	}
}
