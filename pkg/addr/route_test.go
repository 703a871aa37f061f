package addr

import "testing"

func TestRouteStep(t *testing.T) {
	r := NewRoute(NewLocal("a"), NewLocal("b"), NewLocal("c"))
	if r.Empty() {
		t.Fatalf("expected non-empty route")
	}
	if !r.Next().Equal(NewLocal("a")) {
		t.Fatalf("Next() = %v, want a", r.Next())
	}
	r = r.Step()
	if !r.Next().Equal(NewLocal("b")) {
		t.Fatalf("Next() after Step() = %v, want b", r.Next())
	}
	r = r.Step().Step()
	if !r.Empty() {
		t.Fatalf("expected route to be empty after stepping past all hops, got %v", r)
	}
	if r = r.Step(); !r.Empty() {
		t.Fatalf("Step() on empty route must stay empty")
	}
}

func TestRoutePrependAppend(t *testing.T) {
	r := NewRoute(NewLocal("worker"))
	r = r.Prepend(NewLocal("self"))
	if got, want := r.String(), "self => worker"; got != want {
		t.Fatalf("Prepend: route = %q, want %q", got, want)
	}
	r = r.Append(NewLocal("final"))
	if got, want := r.String(), "self => worker => final"; got != want {
		t.Fatalf("Append: route = %q, want %q", got, want)
	}
}

func TestRouteCloneIndependent(t *testing.T) {
	r := NewRoute(NewLocal("a"), NewLocal("b"))
	clone := r.Clone()
	clone[0] = NewLocal("mutated")
	if r[0].Equal(clone[0]) {
		t.Fatalf("expected clone mutation not to affect original route")
	}
}
