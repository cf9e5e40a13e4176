package compile

import (
	"fmt"

	"github.com/malphas-lang/quill/internal/backend"
	"github.com/malphas-lang/quill/internal/operators"
	"github.com/malphas-lang/quill/internal/types"
)

// RegisterPrimitives installs the built-in operators. Running it again
// replaces every callback with a fresh one.
func (u *Unit) RegisterPrimitives() {
	ty := u.Types
	intT, boolT, charT := ty.Int(), ty.Bool(), ty.Char()
	tv := ty.Var(u.Names.Intern("T"))
	ptrT := ty.Pointer(tv)

	arith := []struct {
		op   string
		code backend.Opcode
	}{
		{"+", backend.OpAdd},
		{"-", backend.OpSub},
		{"*", backend.OpMul},
		{"/", backend.OpDiv},
		{"%", backend.OpRem},
	}
	for _, a := range arith {
		u.mustRegister(u.Binary.RegisterOverload(u.Names.Intern(a.op), []types.Type{intT, intT}, intT, u.binary(a.code)))
	}

	for _, op := range []string{"&&", "||"} {
		code := backend.OpAnd
		if op == "||" {
			code = backend.OpOr
		}
		u.mustRegister(u.Binary.RegisterOverload(u.Names.Intern(op), []types.Type{boolT, boolT}, boolT, u.binary(code)))
	}

	ordered := []struct {
		op   string
		pred backend.Predicate
	}{
		{"<", backend.CmpLT},
		{"<=", backend.CmpLE},
		{">", backend.CmpGT},
		{">=", backend.CmpGE},
	}
	for _, o := range ordered {
		for _, t := range []types.Type{intT, charT} {
			u.mustRegister(u.Binary.RegisterOverload(u.Names.Intern(o.op), []types.Type{t, t}, boolT, u.compare(o.pred)))
		}
	}

	for _, o := range []struct {
		op   string
		pred backend.Predicate
	}{{"==", backend.CmpEQ}, {"!=", backend.CmpNE}} {
		sym := u.Names.Intern(o.op)
		for _, t := range []types.Type{intT, boolT, charT} {
			u.mustRegister(u.Binary.RegisterOverload(sym, []types.Type{t, t}, boolT, u.compare(o.pred)))
		}
		u.mustRegister(u.Binary.RegisterTemplate(sym, tv, []types.Type{ptrT, ptrT}, boolT, u.compare(o.pred)))
	}

	u.mustRegister(u.Unary.RegisterOverload(u.Names.Intern("-"), []types.Type{intT}, intT, u.negate))
	u.mustRegister(u.Unary.RegisterOverload(u.Names.Intern("!"), []types.Type{boolT}, boolT, u.not))
	u.mustRegister(u.Unary.RegisterTemplate(u.Names.Intern("&"), tv, []types.Type{tv}, ptrT, u.addressOf))
	u.mustRegister(u.Unary.RegisterTemplate(u.Names.Intern("*"), tv, []types.Type{ptrT}, tv, u.deref))

	u.logger.Printf("primitives: %d unary, %d binary operators", len(u.Unary.Ops()), len(u.Binary.Ops()))
}

func (u *Unit) mustRegister(err error) {
	if err != nil {
		panic(fmt.Sprintf("compile: bad primitive: %v", err))
	}
}

func (u *Unit) binary(code backend.Opcode) operators.EmitFunc {
	return func(b backend.Builder, args []backend.Operand) (backend.Value, error) {
		lt, err := b.Lower(args[0].Type)
		if err != nil {
			return nil, err
		}
		return b.Binary(code, lt, args[0].Value, args[1].Value), nil
	}
}

func (u *Unit) compare(pred backend.Predicate) operators.EmitFunc {
	return func(b backend.Builder, args []backend.Operand) (backend.Value, error) {
		lt, err := b.Lower(args[0].Type)
		if err != nil {
			return nil, err
		}
		return b.Compare(pred, lt, args[0].Value, args[1].Value), nil
	}
}

func (u *Unit) negate(b backend.Builder, args []backend.Operand) (backend.Value, error) {
	lt, err := b.Lower(args[0].Type)
	if err != nil {
		return nil, err
	}
	return b.Binary(backend.OpSub, lt, b.ConstInt(0), args[0].Value), nil
}

func (u *Unit) not(b backend.Builder, args []backend.Operand) (backend.Value, error) {
	lt, err := b.Lower(args[0].Type)
	if err != nil {
		return nil, err
	}
	return b.Binary(backend.OpXor, lt, args[0].Value, b.ConstBool(true)), nil
}

// addressOf returns the operand's storage. Values without storage are
// spilled to a fresh slot first.
func (u *Unit) addressOf(b backend.Builder, args []backend.Operand) (backend.Value, error) {
	if args[0].Addr != nil {
		return args[0].Addr, nil
	}
	lt, err := b.Lower(args[0].Type)
	if err != nil {
		return nil, err
	}
	slot := b.Alloca(u.Names.Text(u.Names.Fresh("tmp")), lt)
	b.Store(lt, args[0].Value, slot)
	return slot, nil
}

func (u *Unit) deref(b backend.Builder, args []backend.Operand) (backend.Value, error) {
	elem := u.Types.Elem(args[0].Type)
	lt, err := b.Lower(elem)
	if err != nil {
		return nil, err
	}
	return b.Load(lt, args[0].Value), nil
}
