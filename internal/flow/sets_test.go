package flow

import "testing"

func TestNewSetSeedsNames(t *testing.T) {
	s := NewSet("a", "b")
	if !s.Has("a") || !s.Has("b") {
		t.Errorf("expected a and b in set, got %v", s)
	}
	if s.Has("c") {
		t.Error("did not expect c in set")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewSet("a")
	clone := s.Clone()
	clone.Add("b")
	if s.Has("b") {
		t.Error("mutating a clone should not affect the original")
	}
}

func TestUnion(t *testing.T) {
	a := NewSet("x", "y")
	b := NewSet("y", "z")
	u := a.Union(b)
	for _, name := range []string{"x", "y", "z"} {
		if !u.Has(name) {
			t.Errorf("expected %s in union", name)
		}
	}
}

func TestIntersectAcrossMultipleSets(t *testing.T) {
	a := NewSet("x", "y", "z")
	b := NewSet("y", "z")
	c := NewSet("z", "w")
	got := Intersect(a, b, c)
	if len(got) != 1 || !got.Has("z") {
		t.Errorf("expected only z in the intersection, got %v", got)
	}
}

func TestIntersectOfNoSetsIsEmpty(t *testing.T) {
	got := Intersect()
	if len(got) != 0 {
		t.Errorf("expected an empty set, got %v", got)
	}
}

func TestDifference(t *testing.T) {
	a := NewSet("x", "y", "z")
	b := NewSet("y")
	d := a.Difference(b)
	if d.Has("y") {
		t.Error("difference should not contain members of the subtracted set")
	}
	if !d.Has("x") || !d.Has("z") {
		t.Errorf("expected x and z to remain, got %v", d)
	}
}
