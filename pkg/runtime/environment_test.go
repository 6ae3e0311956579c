package runtime

import (
	"strings"
	"testing"
)

func TestEnvironmentExtendLeavesParentUntouched(t *testing.T) {
	root := NewEnvironment(nil)
	outer := root.Extend("x", IntValue{Val: 1})
	inner := outer.Extend("x", IntValue{Val: 2})

	if got, _ := inner.Get("x"); got != (IntValue{Val: 2}) {
		t.Fatalf("inner x = %v", got)
	}
	if got, _ := outer.Get("x"); got != (IntValue{Val: 1}) {
		t.Fatalf("outer x = %v", got)
	}
	if inner.Parent() != outer {
		t.Fatalf("parent chain broken")
	}
	if _, err := root.Get("x"); err == nil {
		t.Fatalf("root should not see x")
	}
}

func TestEnvironmentGetUndefined(t *testing.T) {
	_, err := NewEnvironment(nil).Get("missing")
	if err == nil || !strings.Contains(err.Error(), "Undefined variable 'missing'") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestEnvironmentReserveAndPopulate(t *testing.T) {
	env := NewEnvironment(nil).Reserve("f")
	if _, err := env.Get("f"); err == nil || !strings.Contains(err.Error(), "used before fully bound") {
		t.Fatalf("expected unbound error, got %v", err)
	}
	if err := env.Populate("f", IntValue{Val: 1}); err != nil {
		t.Fatalf("populate: %v", err)
	}
	if got, err := env.Get("f"); err != nil || got != (IntValue{Val: 1}) {
		t.Fatalf("f = %v (%v)", got, err)
	}
	if err := env.Populate("f", IntValue{Val: 2}); err == nil {
		t.Fatalf("second populate should fail")
	}
	if err := env.Populate("g", IntValue{Val: 2}); err == nil {
		t.Fatalf("populate of unreserved name should fail")
	}
	if err := NewEnvironment(nil).Reserve("h").Populate("h", nil); err == nil {
		t.Fatalf("populate with nil should fail")
	}
}

func TestEnvironmentNames(t *testing.T) {
	env := NewEnvironment(nil).Extend("b", IntValue{}).Extend("a", IntValue{}).Extend("b", BoolValue{})
	names := env.Names()
	if strings.Join(names, ",") != "a,b" {
		t.Fatalf("names = %v", names)
	}
}
