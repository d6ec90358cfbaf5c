package sparse

import "testing"

func TestSetInsertContains(t *testing.T) {
	s := NewSet(64)
	if s.Len() != 0 {
		t.Fatal("new set not empty")
	}
	s.Insert(3)
	s.Insert(60)
	s.Insert(3)
	if s.Len() != 2 {
		t.Fatalf("expected 2 elements, got %d", s.Len())
	}
	if !s.Contains(3) || !s.Contains(60) {
		t.Error("inserted values missing")
	}
	if s.Contains(4) || s.Contains(100) {
		t.Error("contains reports absent values")
	}
}

func TestSetValuesKeepInsertionOrder(t *testing.T) {
	s := NewSet(16)
	for _, v := range []uint32{9, 1, 5} {
		s.Insert(v)
	}
	values := s.Values()
	want := []uint32{9, 1, 5}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("values %v, want %v", values, want)
		}
	}
}

func TestSetClearEmptiesAndAllowsReuse(t *testing.T) {
	s := NewSet(8)
	s.Insert(1)
	s.Insert(2)
	s.Clear()
	if s.Len() != 0 || s.Contains(1) {
		t.Error("clear left elements behind")
	}
	// Stale sparse entries must not leak into a reused set.
	s.Insert(2)
	if !s.Contains(2) || s.Contains(1) {
		t.Error("reuse after clear is inconsistent")
	}
}
