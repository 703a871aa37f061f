package logging

import (
	"context"
	"testing"
)

func TestWithFieldsMerges(t *testing.T) {
	base := New().WithFields(map[string]interface{}{"a": 1})
	derived := base.WithFields(map[string]interface{}{"b": 2})

	impl, ok := derived.(*defaultLogger)
	if !ok {
		t.Fatalf("expected *defaultLogger, got %T", derived)
	}
	if impl.fields["a"] != 1 || impl.fields["b"] != 2 {
		t.Fatalf("fields = %v, want a=1 b=2", impl.fields)
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	base := New().WithFields(map[string]interface{}{"a": 1})
	base.WithFields(map[string]interface{}{"b": 2})

	impl := base.(*defaultLogger)
	if _, ok := impl.fields["b"]; ok {
		t.Fatalf("parent logger was mutated by a derived WithFields call")
	}
}

func TestWithContextTagsAddress(t *testing.T) {
	ctx := ContextWithAddress(context.Background(), "worker-1")
	derived := New().WithContext(ctx)

	impl := derived.(*defaultLogger)
	if impl.fields["address"] != "worker-1" {
		t.Fatalf("fields[address] = %v, want worker-1", impl.fields["address"])
	}
}

func TestWithContextNoAddress(t *testing.T) {
	derived := New().WithContext(context.Background())
	impl := derived.(*defaultLogger)
	if _, ok := impl.fields["address"]; ok {
		t.Fatalf("expected no address field when context carries none")
	}
}
