package addr

import "testing"

func TestRandomLocalUnique(t *testing.T) {
	a := RandomLocal()
	b := RandomLocal()
	if a.Equal(b) {
		t.Fatalf("expected distinct random addresses, got %v and %v", a, b)
	}
	if !a.IsLocal() || !b.IsLocal() {
		t.Fatalf("expected random addresses to be local")
	}
}

func TestAddressEqual(t *testing.T) {
	a := New(1, "peer")
	b := New(1, "peer")
	c := New(2, "peer")
	if !a.Equal(b) {
		t.Fatalf("expected %v to equal %v", a, b)
	}
	if a.Equal(c) {
		t.Fatalf("did not expect %v to equal %v", a, c)
	}
}

func TestAddressString(t *testing.T) {
	local := NewLocal("echo")
	if got, want := local.String(), "echo"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	tcp := New(1, "127.0.0.1:4000")
	if got, want := tcp.String(), "1#127.0.0.1:4000"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestSetPrimaryAndAliases(t *testing.T) {
	primary := NewLocal("main")
	alias := NewLocal("alias")
	set := NewSet(primary, alias)

	if !set.Primary().Equal(primary) {
		t.Fatalf("Primary() = %v, want %v", set.Primary(), primary)
	}
	aliases := set.Aliases()
	if len(aliases) != 1 || !aliases[0].Equal(alias) {
		t.Fatalf("Aliases() = %v, want [%v]", aliases, alias)
	}
	if !set.Contains(alias) {
		t.Fatalf("expected set to contain %v", alias)
	}
	if set.Contains(NewLocal("missing")) {
		t.Fatalf("did not expect set to contain unrelated address")
	}
}

func TestSetSingleHasNoAliases(t *testing.T) {
	set := NewSet(NewLocal("solo"))
	if aliases := set.Aliases(); aliases != nil {
		t.Fatalf("Aliases() = %v, want nil", aliases)
	}
}

func TestNewSetPanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected NewSet() to panic on empty input")
		}
	}()
	NewSet()
}
