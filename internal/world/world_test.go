package world

import "testing"

func fixtureWorld(t *testing.T) *World {
	t.Helper()
	w := New()
	mustDefine(t, w, ObjClass, ObjClass)
	w.Classes[ObjClass].Super = ObjClass // self-loop, the lattice root
	mustDefine(t, w, "Animal", ObjClass)
	mustDefine(t, w, "Dog", "Animal")
	mustDefine(t, w, "Cat", "Animal")
	mustDefine(t, w, "Puppy", "Dog")
	return w
}

func mustDefine(t *testing.T, w *World, name, super string) {
	t.Helper()
	if _, err := w.Define(name, super); err != nil {
		t.Fatalf("Define(%q, %q): %v", name, super, err)
	}
}

func TestIsSubtypeReflexive(t *testing.T) {
	w := fixtureWorld(t)
	for _, c := range []string{"Obj", "Animal", "Dog", "Cat", "Puppy"} {
		if !w.IsSubtype(c, c) {
			t.Errorf("IsSubtype(%s, %s) = false, want true (reflexivity)", c, c)
		}
	}
}

func TestIsSubtypeChain(t *testing.T) {
	w := fixtureWorld(t)
	if !w.IsSubtype("Puppy", "Dog") {
		t.Error("Puppy should be a subtype of Dog")
	}
	if !w.IsSubtype("Puppy", "Animal") {
		t.Error("Puppy should be a subtype of Animal (transitivity)")
	}
	if !w.IsSubtype("Puppy", "Obj") {
		t.Error("Puppy should be a subtype of Obj")
	}
	if w.IsSubtype("Dog", "Cat") {
		t.Error("Dog should not be a subtype of Cat")
	}
	if w.IsSubtype("Animal", "Dog") {
		t.Error("Animal should not be a subtype of its own subclass Dog")
	}
}

func TestLCAIsCommonAncestor(t *testing.T) {
	w := fixtureWorld(t)
	cases := []struct{ a, b, want string }{
		{"Dog", "Cat", "Animal"},
		{"Puppy", "Cat", "Animal"},
		{"Puppy", "Dog", "Dog"},
		{"Dog", "Dog", "Dog"},
		{"Dog", "Obj", "Obj"},
	}
	for _, c := range cases {
		got := w.LCA(c.a, c.b)
		if got != c.want {
			t.Errorf("LCA(%s, %s) = %s, want %s", c.a, c.b, got, c.want)
		}
		if !w.IsSubtype(c.a, got) {
			t.Errorf("LCA(%s, %s) = %s is not a supertype of %s", c.a, c.b, got, c.a)
		}
		if !w.IsSubtype(c.b, got) {
			t.Errorf("LCA(%s, %s) = %s is not a supertype of %s", c.a, c.b, got, c.b)
		}
	}
}

func TestLCABottomIdentity(t *testing.T) {
	w := fixtureWorld(t)
	if got := w.LCA("", "Dog"); got != "Dog" {
		t.Errorf("LCA(⊥, Dog) = %s, want Dog", got)
	}
	if got := w.LCA("Dog", ""); got != "Dog" {
		t.Errorf("LCA(Dog, ⊥) = %s, want Dog", got)
	}
	if got := w.LCA("", ""); got != "" {
		t.Errorf("LCA(⊥, ⊥) = %q, want ⊥", got)
	}
}

func TestDepth(t *testing.T) {
	w := fixtureWorld(t)
	if d := w.Depth(ObjClass); d != 0 {
		t.Errorf("Depth(Obj) = %d, want 0", d)
	}
	if d := w.Depth("Puppy"); d != 3 {
		t.Errorf("Depth(Puppy) = %d, want 3", d)
	}
}

func TestDefineDuplicateFails(t *testing.T) {
	w := fixtureWorld(t)
	if _, err := w.Define("Dog", ObjClass); err == nil {
		t.Error("Define of an existing class name should fail")
	}
}

func TestCopyMethodsAndFieldsAreDeep(t *testing.T) {
	w := fixtureWorld(t)
	src := w.Get("Dog")
	src.Methods["bark"] = &Method{Params: []string{}, Ret: ObjClass}
	src.Fields["name"] = "String"

	methods := CopyMethods(src.Methods)
	fields := CopyFields(src.Fields)

	methods["bark"].Ret = "String"
	fields["name"] = "Int"

	if src.Methods["bark"].Ret != ObjClass {
		t.Error("CopyMethods should deep-copy *Method values, not alias them")
	}
	if src.Fields["name"] != "String" {
		t.Error("CopyFields should copy values, not share the map")
	}
}
