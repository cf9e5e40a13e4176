package operators

import (
	"testing"

	"github.com/malphas-lang/quill/internal/backend"
	"github.com/malphas-lang/quill/internal/intern"
	"github.com/malphas-lang/quill/internal/types"
)

type tagValue string

func (v tagValue) String() string { return string(v) }

// tagged returns an EmitFunc whose result identifies which overload ran.
func tagged(tag string) EmitFunc {
	return func(backend.Builder, []backend.Operand) (backend.Value, error) {
		return tagValue(tag), nil
	}
}

func emitTag(t *testing.T, r Resolution) string {
	t.Helper()
	v, err := r.Emit(nil, nil)
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	return v.String()
}

type env struct {
	names *intern.Interner
	ty    *types.Interner
}

func newEnv() env {
	names := intern.New()
	return env{names: names, ty: types.NewInterner(names)}
}

func (e env) op(s string) intern.Symbol { return e.names.Intern(s) }

func TestResolve_ConcreteOverload(t *testing.T) {
	e := newEnv()
	bin := NewBinary(e.ty, e.names)
	plus := e.op("+")

	if err := bin.RegisterOverload(plus, []types.Type{e.ty.Int(), e.ty.Int()}, e.ty.Int(), tagged("int+")); err != nil {
		t.Fatal(err)
	}
	lit, ok := bin.Lookup(plus)
	if !ok {
		t.Fatal("+ not registered")
	}

	r, ok := bin.Resolve(lit, e.ty.Int(), e.ty.Int())
	if !ok {
		t.Fatal("(int, int) did not resolve")
	}
	if r.Result != e.ty.Int() || r.Generic {
		t.Fatalf("unexpected resolution %+v", r)
	}
	if emitTag(t, r) != "int+" {
		t.Fatal("wrong overload selected")
	}

	if _, ok := bin.Resolve(lit, e.ty.Bool(), e.ty.Bool()); ok {
		t.Fatal("(bool, bool) should not resolve without a matching overload")
	}
}

func TestResolve_ConcreteBeatsTemplate(t *testing.T) {
	e := newEnv()
	bin := NewBinary(e.ty, e.names)
	eq := e.op("==")
	tv := e.ty.Var(e.names.Intern("T"))
	ptrT := e.ty.Pointer(tv)
	ptrInt := e.ty.Pointer(e.ty.Int())

	if err := bin.RegisterTemplate(eq, tv, []types.Type{ptrT, ptrT}, e.ty.Bool(), tagged("generic")); err != nil {
		t.Fatal(err)
	}
	if err := bin.RegisterOverload(eq, []types.Type{ptrInt, ptrInt}, e.ty.Bool(), tagged("concrete")); err != nil {
		t.Fatal(err)
	}
	lit, _ := bin.Lookup(eq)

	r, ok := bin.Resolve(lit, ptrInt, ptrInt)
	if !ok || emitTag(t, r) != "concrete" || r.Generic {
		t.Fatalf("exact concrete match should win, got %+v", r)
	}

	ptrChar := e.ty.Pointer(e.ty.Char())
	r, ok = bin.Resolve(lit, ptrChar, ptrChar)
	if !ok || emitTag(t, r) != "generic" || !r.Generic {
		t.Fatalf("(*char, *char) should fall back to the template, got %+v", r)
	}
	if r.Binding != e.ty.Char() {
		t.Fatalf("T bound to %s, want char", e.ty.String(r.Binding))
	}
}

func TestResolve_GenericAddressOfAndDeref(t *testing.T) {
	e := newEnv()
	un := NewUnary(e.ty, e.names)
	tv := e.ty.Var(e.names.Intern("T"))
	amp, star := e.op("&"), e.op("*")

	if err := un.RegisterTemplate(amp, tv, []types.Type{tv}, e.ty.Pointer(tv), tagged("addr")); err != nil {
		t.Fatal(err)
	}
	if err := un.RegisterTemplate(star, tv, []types.Type{e.ty.Pointer(tv)}, tv, tagged("deref")); err != nil {
		t.Fatal(err)
	}

	ampLit, _ := un.Lookup(amp)
	r, ok := un.Resolve(ampLit, e.ty.Int())
	if !ok || r.Result != e.ty.Pointer(e.ty.Int()) {
		t.Fatalf("&int should yield *int, got %s", e.ty.String(r.Result))
	}

	starLit, _ := un.Lookup(star)
	r, ok = un.Resolve(starLit, e.ty.Pointer(e.ty.Int()))
	if !ok || r.Result != e.ty.Int() {
		t.Fatalf("*(*int) should yield int, got %s", e.ty.String(r.Result))
	}

	r, ok = un.Resolve(starLit, e.ty.Pointer(e.ty.Pointer(e.ty.Bool())))
	if !ok || r.Result != e.ty.Pointer(e.ty.Bool()) {
		t.Fatalf("*(**bool) should yield *bool, got %s", e.ty.String(r.Result))
	}

	if _, ok := un.Resolve(starLit, e.ty.Int()); ok {
		t.Fatal("dereferencing an int should not resolve")
	}
}

func TestResolve_TemplateBindsConsistently(t *testing.T) {
	e := newEnv()
	bin := NewBinary(e.ty, e.names)
	eq := e.op("==")
	tv := e.ty.Var(e.names.Intern("T"))
	ptrT := e.ty.Pointer(tv)

	if err := bin.RegisterTemplate(eq, tv, []types.Type{ptrT, ptrT}, e.ty.Bool(), tagged("ptr==")); err != nil {
		t.Fatal(err)
	}
	lit, _ := bin.Lookup(eq)

	if _, ok := bin.Resolve(lit, e.ty.Pointer(e.ty.Int()), e.ty.Pointer(e.ty.Bool())); ok {
		t.Fatal("(*int, *bool) must not unify with (*T, *T)")
	}
	if _, ok := bin.Resolve(lit, e.ty.Pointer(e.ty.Int()), e.ty.Pointer(e.ty.Int())); !ok {
		t.Fatal("(*int, *int) should unify with (*T, *T)")
	}
}

func TestRegisterOverload_LastRegistrationWins(t *testing.T) {
	e := newEnv()
	un := NewUnary(e.ty, e.names)
	neg := e.op("-")

	for _, tag := range []string{"first", "second"} {
		if err := un.RegisterOverload(neg, []types.Type{e.ty.Int()}, e.ty.Int(), tagged(tag)); err != nil {
			t.Fatal(err)
		}
	}
	lit, _ := un.Lookup(neg)
	if n := len(lit.Overloads()); n != 1 {
		t.Fatalf("duplicate tuple should replace, got %d overloads", n)
	}
	r, _ := un.Resolve(lit, e.ty.Int())
	if emitTag(t, r) != "second" {
		t.Fatal("last registration should win")
	}
}

func TestRegister_Idempotent(t *testing.T) {
	e := newEnv()
	un := NewUnary(e.ty, e.names)
	op := e.op("~")

	a := un.Register(op)
	b := un.Register(op)
	if a != b {
		t.Fatal("Register created a second literal")
	}
	if !a.Empty() {
		t.Fatal("fresh literal should be empty")
	}
	if _, ok := un.Resolve(a, e.ty.Int()); ok {
		t.Fatal("empty literal should never resolve")
	}
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv()
	bin := NewBinary(e.ty, e.names)
	plus := e.op("+")
	tv := e.ty.Var(e.names.Intern("T"))
	uv := e.ty.Var(e.names.Intern("U"))

	tests := []struct {
		name string
		err  error
	}{
		{"arity", bin.RegisterOverload(plus, []types.Type{e.ty.Int()}, e.ty.Int(), tagged("x"))},
		{"generic concrete", bin.RegisterOverload(plus, []types.Type{tv, e.ty.Int()}, e.ty.Int(), tagged("x"))},
		{"not a variable", bin.RegisterTemplate(plus, e.ty.Int(), []types.Type{e.ty.Int(), e.ty.Int()}, e.ty.Int(), tagged("x"))},
		{"foreign variable", bin.RegisterTemplate(plus, tv, []types.Type{tv, uv}, e.ty.Int(), tagged("x"))},
		{"unbound variable", bin.RegisterTemplate(plus, tv, []types.Type{e.ty.Int(), e.ty.Int()}, tv, tagged("x"))},
		{"unbound result", bin.RegisterTemplate(plus, tv, []types.Type{tv, tv}, uv, tagged("x"))},
	}
	for _, tt := range tests {
		if tt.err == nil {
			t.Errorf("%s: expected registration error", tt.name)
		}
	}
}

func TestUnregisterAndRemove(t *testing.T) {
	e := newEnv()
	bin := NewBinary(e.ty, e.names)
	plus := e.op("+")
	ii := []types.Type{e.ty.Int(), e.ty.Int()}
	cc := []types.Type{e.ty.Char(), e.ty.Char()}
	tv := e.ty.Var(e.names.Intern("T"))
	pp := []types.Type{e.ty.Pointer(tv), e.ty.Pointer(tv)}

	_ = bin.RegisterOverload(plus, ii, e.ty.Int(), tagged("ii"))
	_ = bin.RegisterOverload(plus, cc, e.ty.Char(), tagged("cc"))
	_ = bin.RegisterTemplate(plus, tv, pp, e.ty.Bool(), tagged("pp"))

	if !bin.RemoveOverload(plus, ii) {
		t.Fatal("RemoveOverload reported nothing removed")
	}
	if bin.RemoveOverload(plus, ii) {
		t.Fatal("second RemoveOverload should report false")
	}
	lit, _ := bin.Lookup(plus)
	if _, ok := bin.Resolve(lit, e.ty.Int(), e.ty.Int()); ok {
		t.Fatal("removed overload still resolves")
	}
	if _, ok := bin.Resolve(lit, e.ty.Char(), e.ty.Char()); !ok {
		t.Fatal("sibling overload was removed too")
	}

	if !bin.RemoveTemplate(plus, pp) {
		t.Fatal("RemoveTemplate reported nothing removed")
	}
	if len(lit.Templates()) != 0 {
		t.Fatal("template still present")
	}

	bin.Unregister(plus)
	if _, ok := bin.Lookup(plus); ok {
		t.Fatal("Unregister left the literal behind")
	}
	if bin.RemoveOverload(plus, cc) {
		t.Fatal("RemoveOverload on an unregistered op should report false")
	}
}

func TestOpsAndSignature(t *testing.T) {
	e := newEnv()
	bin := NewBinary(e.ty, e.names)
	bin.Register(e.op("||"))
	bin.Register(e.op("+"))
	bin.Register(e.op("=="))

	ops := bin.Ops()
	want := []string{"+", "==", "||"}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("Ops() = %v, want %v", ops, want)
		}
	}

	sig := bin.Signature([]types.Type{e.ty.Int(), e.ty.Pointer(e.ty.Bool())})
	if sig != "(int, *bool)" {
		t.Fatalf("Signature = %q", sig)
	}
}

func TestResolve_WrongArgumentCount(t *testing.T) {
	e := newEnv()
	bin := NewBinary(e.ty, e.names)
	plus := e.op("+")
	_ = bin.RegisterOverload(plus, []types.Type{e.ty.Int(), e.ty.Int()}, e.ty.Int(), tagged("ii"))
	lit, _ := bin.Lookup(plus)
	if _, ok := bin.Resolve(lit, e.ty.Int()); ok {
		t.Fatal("binary operator resolved with one argument")
	}
	if _, ok := bin.Resolve(nil, e.ty.Int(), e.ty.Int()); ok {
		t.Fatal("nil literal resolved")
	}
}
