package compile

import (
	"github.com/malphas-lang/quill/internal/ast"
	"github.com/malphas-lang/quill/internal/backend"
	"github.com/malphas-lang/quill/internal/types"
)

// Codegen emits code for e into the unit's builder. e must have been
// typechecked; every failure here is an InternalFault.
func (u *Unit) Codegen(e ast.Expr) (backend.Value, error) {
	if _, ok := e.Memo().Get(); !ok {
		return nil, internalFault(e.Span(), "%s node reached codegen without a type", e.Kind())
	}

	switch e.Kind() {
	case ast.KindNil:
		return u.builder.ConstNil(), nil
	case ast.KindBoolean:
		return u.builder.ConstBool(e.(*ast.BoolLit).Value), nil
	case ast.KindInteger:
		return u.builder.ConstInt(e.(*ast.IntegerLit).Value), nil
	case ast.KindCharacter:
		return u.builder.ConstChar(e.(*ast.CharLit).Value), nil
	case ast.KindVariable:
		op, err := u.genVariable(e.(*ast.Variable))
		return op.Value, err
	case ast.KindBind:
		return u.genBind(e.(*ast.Bind))
	case ast.KindAssignment:
		return u.genAssignment(e.(*ast.Assignment))
	case ast.KindUnop:
		op, err := u.genUnop(e.(*ast.Unop))
		return op.Value, err
	case ast.KindBinop:
		return u.genBinop(e.(*ast.Binop))
	case ast.KindConditional:
		return u.genConditional(e.(*ast.Conditional))
	case ast.KindSequence:
		return u.genExprs(e.(*ast.Sequence).Exprs)
	case ast.KindBlock:
		var v backend.Value
		err := u.scoped(func() (err error) {
			v, err = u.genExprs(e.(*ast.Block).Exprs)
			return err
		})
		return v, err
	default:
		return nil, internalFault(e.Span(), "unknown node kind %s", e.Kind())
	}
}

// operand generates e as an operator argument, keeping its storage
// location when it has one.
func (u *Unit) operand(e ast.Expr) (backend.Operand, error) {
	switch n := e.(type) {
	case *ast.Variable:
		return u.genVariable(n)
	case *ast.Unop:
		return u.genUnop(n)
	}
	v, err := u.Codegen(e)
	if err != nil {
		return backend.Operand{}, err
	}
	t, _ := e.Memo().Get()
	return backend.Operand{Type: t, Value: v}, nil
}

// genVariable materializes a known constant directly and loads from the
// binding's slot otherwise.
func (u *Unit) genVariable(v *ast.Variable) (backend.Operand, error) {
	t, ok := v.Memo().Get()
	if !ok {
		return backend.Operand{}, internalFault(v.Span(), "variable `%s` reached codegen without a type", v.Name)
	}
	entry, ok := u.Scope.Lookup(u.Names.Intern(v.Name))
	if !ok {
		return backend.Operand{}, internalFault(v.Span(), "`%s` vanished from scope after typechecking", v.Name)
	}
	if entry.Storage == nil {
		return backend.Operand{}, internalFault(v.Span(), "`%s` has no storage", v.Name)
	}
	op := backend.Operand{Type: t, Addr: entry.Storage}
	if entry.Value != nil {
		op.Value = u.materialize(*entry.Value)
		return op, nil
	}
	lt, err := u.lower(v, t)
	if err != nil {
		return backend.Operand{}, err
	}
	op.Value = u.builder.Load(lt, entry.Storage)
	return op, nil
}

func (u *Unit) materialize(c types.Const) backend.Value {
	switch u.Types.Kind(c.Type) {
	case types.KindBool:
		return u.builder.ConstBool(c.Bits != 0)
	case types.KindChar:
		return u.builder.ConstChar(rune(c.Bits))
	case types.KindNil:
		return u.builder.ConstNil()
	default:
		return u.builder.ConstInt(c.Bits)
	}
}

func (u *Unit) genBind(b *ast.Bind) (backend.Value, error) {
	v, err := u.Codegen(b.Value)
	if err != nil {
		return nil, err
	}
	t, _ := b.Memo().Get()
	lt, err := u.lower(b, t)
	if err != nil {
		return nil, err
	}
	slot := u.builder.Alloca(u.Names.Text(u.Names.Fresh(b.Name)), lt)
	u.builder.Store(lt, v, slot)

	entry := u.Scope.Bind(u.Names.Intern(b.Name), t, u.constOf(b.Value))
	entry.Storage = slot
	return v, nil
}

// genAssignment yields the stored value.
func (u *Unit) genAssignment(a *ast.Assignment) (backend.Value, error) {
	v, err := u.Codegen(a.Value)
	if err != nil {
		return nil, err
	}
	t, _ := a.Memo().Get()
	lt, err := u.lower(a, t)
	if err != nil {
		return nil, err
	}

	var addr backend.Value
	switch target := a.Target.(type) {
	case *ast.Variable:
		entry, ok := u.Scope.Lookup(u.Names.Intern(target.Name))
		if !ok || entry.Storage == nil {
			return nil, internalFault(target.Span(), "`%s` has no storage", target.Name)
		}
		addr = entry.Storage
		entry.Value = nil
	case *ast.Unop:
		if target.Op != "*" {
			return nil, internalFault(target.Span(), "assignment through `%s`", target.Op)
		}
		if addr, err = u.Codegen(target.Operand); err != nil {
			return nil, err
		}
	default:
		return nil, internalFault(a.Target.Span(), "cannot assign to %s", a.Target.Kind())
	}

	u.builder.Store(lt, v, addr)
	return v, nil
}

// genUnop applies the resolved overload. The result of a dereference keeps
// the pointer as its location so that it can be assigned through or have
// its address taken again.
func (u *Unit) genUnop(n *ast.Unop) (backend.Operand, error) {
	t, _ := n.Memo().Get()
	res, ok := u.resolved[n]
	if !ok {
		return backend.Operand{}, internalFault(n.Span(), "operator `%s` was never resolved", n.Op)
	}
	arg, err := u.operand(n.Operand)
	if err != nil {
		return backend.Operand{}, err
	}
	if n.Op == "&" {
		u.forgetConst(n.Operand)
	}
	v, err := res.Emit(u.builder, []backend.Operand{arg})
	if err != nil {
		return backend.Operand{}, internalFault(n.Span(), "`%s`: %v", n.Op, err)
	}
	op := backend.Operand{Type: t, Value: v}
	if n.Op == "*" {
		op.Addr = arg.Value
	}
	return op, nil
}

func (u *Unit) genBinop(n *ast.Binop) (backend.Value, error) {
	res, ok := u.resolved[n]
	if !ok {
		return nil, internalFault(n.Span(), "operator `%s` was never resolved", n.Op)
	}
	left, err := u.operand(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := u.operand(n.Right)
	if err != nil {
		return nil, err
	}
	v, err := res.Emit(u.builder, []backend.Operand{left, right})
	if err != nil {
		return nil, internalFault(n.Span(), "`%s`: %v", n.Op, err)
	}
	return v, nil
}

func (u *Unit) genConditional(c *ast.Conditional) (backend.Value, error) {
	cond, err := u.Codegen(c.Test)
	if err != nil {
		return nil, err
	}
	t, _ := c.Memo().Get()
	lt, err := u.lower(c, t)
	if err != nil {
		return nil, err
	}

	thenBlk := u.builder.NewBlock("then")
	elseBlk := u.builder.NewBlock("else")
	join := u.builder.NewBlock("join")
	u.builder.CondBr(cond, thenBlk, elseBlk)

	arm := func(blk backend.Block, e ast.Expr) (backend.Incoming, error) {
		u.builder.SetInsertBlock(blk)
		var v backend.Value
		err := u.scoped(func() (err error) {
			v, err = u.Codegen(e)
			return err
		})
		if err != nil {
			return backend.Incoming{}, err
		}
		// The arm may have opened blocks of its own; the edge leaves from
		// wherever it ended.
		from := u.builder.InsertBlock()
		u.builder.Br(join)
		return backend.Incoming{Value: v, From: from}, nil
	}

	thenIn, err := arm(thenBlk, c.Then)
	if err != nil {
		return nil, err
	}
	elseIn, err := arm(elseBlk, c.Else)
	if err != nil {
		return nil, err
	}

	u.builder.SetInsertBlock(join)
	return u.builder.Phi(lt, []backend.Incoming{thenIn, elseIn}), nil
}

func (u *Unit) genExprs(exprs []ast.Expr) (backend.Value, error) {
	if len(exprs) == 0 {
		return u.builder.ConstNil(), nil
	}
	var v backend.Value
	for _, e := range exprs {
		var err error
		if v, err = u.Codegen(e); err != nil {
			return nil, err
		}
	}
	return v, nil
}
