package id

import "testing"

func TestRandomGenerator_NewID(t *testing.T) {
	gen := NewRandomGenerator(0)
	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(first) != 16 {
		t.Fatalf("expected 16 hex chars, got %q", first)
	}
	second, _ := gen.NewID()
	if first == second {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}
}
