package window

import (
	"testing"
)

func TestEpochWindowEvictsSmallestKey(t *testing.T) {
	w := New[string](3)

	w.Set(10, "ten")
	w.Set(11, "eleven")
	w.Set(12, "twelve")
	if w.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", w.Len())
	}

	w.Set(13, "thirteen")
	if w.Len() != 3 {
		t.Fatalf("expected window to stay bounded at 3, got %d", w.Len())
	}
	if _, ok := w.Get(10); ok {
		t.Error("expected epoch 10 (smallest) to be evicted")
	}
	if _, ok := w.Get(11); !ok {
		t.Error("expected epoch 11 to survive")
	}
}

func TestEpochWindowOverwriteDoesNotEvict(t *testing.T) {
	w := New[int](2)
	w.Set(1, 100)
	w.Set(2, 200)
	w.Set(2, 201) // overwrite, not a new key

	if w.Len() != 2 {
		t.Fatalf("expected 2 entries after overwrite, got %d", w.Len())
	}
	v, ok := w.Get(2)
	if !ok || v != 201 {
		t.Errorf("expected overwritten value 201, got %v ok=%v", v, ok)
	}
}

func TestEpochWindowGetOrNewestFallsBack(t *testing.T) {
	w := New[string](3)
	w.Set(5, "five")
	w.Set(6, "six")
	w.Set(7, "seven")
	w.Set(8, "eight") // evicts 5

	// epoch 5 was evicted; fall back to the newest present epoch (8).
	v, ok := w.GetOrNewest(5)
	if !ok {
		t.Fatal("expected a fallback value")
	}
	if v != "eight" {
		t.Errorf("expected fallback to newest epoch's value %q, got %q", "eight", v)
	}

	// a present epoch still returns its own value, not the newest.
	v, ok = w.GetOrNewest(6)
	if !ok || v != "six" {
		t.Errorf("expected direct hit %q, got %q ok=%v", "six", v, ok)
	}
}

func TestEpochWindowEmptyGetOrNewest(t *testing.T) {
	w := New[int](3)
	if _, ok := w.GetOrNewest(1); ok {
		t.Error("expected no value in an empty window")
	}
}
