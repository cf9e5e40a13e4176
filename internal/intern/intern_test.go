package intern

import "testing"

func TestIntern_Idempotent(t *testing.T) {
	in := New()

	words := []string{"x", "y", "+", "&", "", "x"}
	seen := make(map[string]Symbol)
	for _, w := range words {
		sym := in.Intern(w)
		if !sym.IsValid() {
			t.Fatalf("Intern(%q) returned the zero symbol", w)
		}
		if prev, ok := seen[w]; ok && prev != sym {
			t.Fatalf("Intern(%q) = %d, previously %d", w, sym, prev)
		}
		seen[w] = sym
	}

	if in.Len() != 5 {
		t.Errorf("expected 5 distinct strings, got %d", in.Len())
	}
}

func TestIntern_DistinctText(t *testing.T) {
	in := New()
	a := in.Intern("alpha")
	b := in.Intern("beta")
	if a == b {
		t.Fatalf("distinct text produced the same symbol %d", a)
	}
	if got := in.Text(a); got != "alpha" {
		t.Errorf("Text(a) = %q, want %q", got, "alpha")
	}
	if got := in.Text(b); got != "beta" {
		t.Errorf("Text(b) = %q, want %q", got, "beta")
	}
}

func TestIntern_LookupDoesNotInsert(t *testing.T) {
	in := New()
	if _, ok := in.Lookup("missing"); ok {
		t.Fatal("Lookup found text that was never interned")
	}
	if in.Len() != 0 {
		t.Fatalf("Lookup inserted text, Len = %d", in.Len())
	}
	want := in.Intern("present")
	got, ok := in.Lookup("present")
	if !ok || got != want {
		t.Fatalf("Lookup(present) = %d, %v; want %d, true", got, ok, want)
	}
}

func TestIntern_TextPanicsOnUnknown(t *testing.T) {
	in := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown symbol")
		}
	}()
	in.Text(Symbol(42))
}

func TestFresh(t *testing.T) {
	in := New()
	in.Intern("tmp.1")

	first := in.Fresh("tmp")
	second := in.Fresh("tmp")
	third := in.Fresh("tmp")

	if got := in.Text(first); got != "tmp.0" {
		t.Errorf("first fresh name = %q, want tmp.0", got)
	}
	if got := in.Text(second); got != "tmp.2" {
		t.Errorf("second fresh name = %q, want tmp.2 (tmp.1 already taken)", got)
	}
	if got := in.Text(third); got != "tmp.3" {
		t.Errorf("third fresh name = %q, want tmp.3", got)
	}

	other := in.Fresh("slot")
	if got := in.Text(other); got != "slot.0" {
		t.Errorf("counters should be per prefix, got %q", got)
	}
}

func TestFresh_IndependentInterners(t *testing.T) {
	a, b := New(), New()
	if a.Text(a.Fresh("x")) != b.Text(b.Fresh("x")) {
		t.Fatal("fresh counters leaked between interners")
	}
}
