package compile

import (
	"fmt"

	"github.com/malphas-lang/quill/internal/ast"
	"github.com/malphas-lang/quill/internal/operators"
	"github.com/malphas-lang/quill/internal/types"
)

// Typecheck resolves the type of e and its subtree. Results are memoized on
// each node: a node that already has a type is returned as is, without
// consulting the scope again. The first error aborts the traversal.
func (u *Unit) Typecheck(e ast.Expr) (types.Type, error) {
	if t, ok := e.Memo().Get(); ok {
		return t, nil
	}
	t, err := u.typecheck(e)
	if err != nil {
		return types.NoType, err
	}
	e.Memo().Set(t)
	return t, nil
}

func (u *Unit) typecheck(e ast.Expr) (types.Type, error) {
	switch e.Kind() {
	case ast.KindNil:
		return u.Types.Nil(), nil
	case ast.KindBoolean:
		return u.Types.Bool(), nil
	case ast.KindInteger:
		return u.Types.Int(), nil
	case ast.KindCharacter:
		return u.Types.Char(), nil
	case ast.KindVariable:
		return u.checkVariable(e.(*ast.Variable))
	case ast.KindBind:
		return u.checkBind(e.(*ast.Bind))
	case ast.KindAssignment:
		return u.checkAssignment(e.(*ast.Assignment))
	case ast.KindUnop:
		return u.checkUnop(e.(*ast.Unop))
	case ast.KindBinop:
		return u.checkBinop(e.(*ast.Binop))
	case ast.KindConditional:
		return u.checkConditional(e.(*ast.Conditional))
	case ast.KindSequence:
		return u.checkExprs(e.(*ast.Sequence).Exprs)
	case ast.KindBlock:
		var t types.Type
		err := u.scoped(func() (err error) {
			t, err = u.checkExprs(e.(*ast.Block).Exprs)
			return err
		})
		return t, err
	default:
		return types.NoType, internalFault(e.Span(), "unknown node kind %s", e.Kind())
	}
}

func (u *Unit) checkVariable(v *ast.Variable) (types.Type, error) {
	entry, ok := u.Scope.Lookup(u.Names.Intern(v.Name))
	if !ok {
		err := newError(NameNotBoundInScope, v.Span(), "name `%s` is not bound in scope", v.Name)
		err.Help = "bind it first with `" + v.Name + " := ...`"
		return types.NoType, err
	}
	return entry.Type, nil
}

func (u *Unit) checkBind(b *ast.Bind) (types.Type, error) {
	t, err := u.Typecheck(b.Value)
	if err != nil {
		return types.NoType, err
	}
	name := u.Names.Intern(b.Name)
	if prev, ok := u.Scope.LookupLocal(name); ok {
		u.logger.Printf("note: %s:%d:%d: `%s` redefined in the same scope (was %s)",
			b.Span().Filename, b.Span().Line, b.Span().Column, b.Name, u.Types.String(prev.Type))
	}
	u.Scope.Bind(name, t, u.constOf(b.Value))
	return t, nil
}

// checkAssignment yields the assigned type.
func (u *Unit) checkAssignment(a *ast.Assignment) (types.Type, error) {
	lt, err := u.Typecheck(a.Target)
	if err != nil {
		return types.NoType, err
	}
	rt, err := u.Typecheck(a.Value)
	if err != nil {
		return types.NoType, err
	}
	if !isLocation(a.Target) {
		err := newError(InvalidAssignmentTarget, a.Target.Span(),
			"cannot assign to %s expression", a.Target.Kind())
		err.Notes = append(err.Notes, "only a variable or a dereference such as `*p` can be assigned")
		return types.NoType, err
	}
	if lt != rt {
		err := newError(TypeMismatch, a.Value.Span(),
			"cannot assign %s to %s", u.describe(rt), u.describe(lt))
		err.Label = "this is " + u.describe(rt)
		err.Related = []Label{{Span: a.Target.Span(), Text: "target is " + u.describe(lt)}}
		return types.NoType, err
	}
	u.forgetConst(a.Target)
	return rt, nil
}

func (u *Unit) checkUnop(n *ast.Unop) (types.Type, error) {
	t, err := u.Typecheck(n.Operand)
	if err != nil {
		return types.NoType, err
	}
	res, err := u.resolve(u.Unary, n, n.Op, t)
	if err != nil {
		return types.NoType, err
	}
	if n.Op == "&" {
		u.forgetConst(n.Operand)
	}
	return res.Result, nil
}

func (u *Unit) checkBinop(n *ast.Binop) (types.Type, error) {
	lt, err := u.Typecheck(n.Left)
	if err != nil {
		return types.NoType, err
	}
	rt, err := u.Typecheck(n.Right)
	if err != nil {
		return types.NoType, err
	}
	res, err := u.resolve(u.Binary, n, n.Op, lt, rt)
	if err != nil {
		return types.NoType, err
	}
	return res.Result, nil
}

// resolve looks op up in table and records the chosen overload for codegen.
func (u *Unit) resolve(table *operators.Table, n ast.Expr, op string, args ...types.Type) (operators.Resolution, error) {
	lit, ok := table.Lookup(u.Names.Intern(op))
	if !ok {
		return operators.Resolution{}, newError(UnknownOperator, n.Span(),
			"unknown %s operator `%s`", arityName(table.Arity()), op)
	}
	res, ok := table.Resolve(lit, args...)
	if !ok {
		err := newError(ArgumentTypeMismatch, n.Span(),
			"no overload of `%s` accepts %s", op, table.Signature(args))
		for _, o := range lit.Overloads() {
			err.Notes = append(err.Notes, fmt.Sprintf("candidate: `%s` %s", op, table.Signature(o.Params)))
		}
		for _, tmpl := range lit.Templates() {
			err.Notes = append(err.Notes, fmt.Sprintf("candidate: `%s` %s", op, table.Signature(tmpl.Params)))
		}
		return operators.Resolution{}, err
	}
	u.resolved[n] = res
	return res, nil
}

func arityName(n int) string {
	if n == 1 {
		return "unary"
	}
	return "binary"
}

// checkConditional type-checks each arm in its own frame so that bindings
// made in one arm are not visible after the conditional.
func (u *Unit) checkConditional(c *ast.Conditional) (types.Type, error) {
	tt, err := u.Typecheck(c.Test)
	if err != nil {
		return types.NoType, err
	}
	if tt != u.Types.Bool() {
		return types.NoType, newError(TypeMismatch, c.Test.Span(),
			"condition must be %s, found %s", u.describe(u.Types.Bool()), u.describe(tt))
	}

	var thenT, elseT types.Type
	if err := u.scoped(func() (err error) {
		thenT, err = u.Typecheck(c.Then)
		return err
	}); err != nil {
		return types.NoType, err
	}
	if err := u.scoped(func() (err error) {
		elseT, err = u.Typecheck(c.Else)
		return err
	}); err != nil {
		return types.NoType, err
	}
	if thenT != elseT {
		err := newError(TypeMismatch, c.Else.Span(),
			"conditional arms differ: then is %s, else is %s", u.describe(thenT), u.describe(elseT))
		err.Label = "else arm is " + u.describe(elseT)
		err.Related = []Label{{Span: c.Then.Span(), Text: "then arm is " + u.describe(thenT)}}
		return types.NoType, err
	}
	return thenT, nil
}

// checkExprs yields the type of the last expression, or nil when empty.
func (u *Unit) checkExprs(exprs []ast.Expr) (types.Type, error) {
	t := u.Types.Nil()
	for _, e := range exprs {
		var err error
		if t, err = u.Typecheck(e); err != nil {
			return types.NoType, err
		}
	}
	return t, nil
}

// isLocation reports whether e denotes storage: a variable or a dereference.
func isLocation(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.Variable:
		return true
	case *ast.Unop:
		return n.Op == "*"
	default:
		return false
	}
}

// constOf returns the compile-time value of a literal, or nil.
func (u *Unit) constOf(e ast.Expr) *types.Const {
	var c types.Const
	switch n := e.(type) {
	case *ast.NilLit:
		c = u.Types.NilConst()
	case *ast.BoolLit:
		c = u.Types.BoolConst(n.Value)
	case *ast.IntegerLit:
		c = u.Types.IntConst(n.Value)
	case *ast.CharLit:
		c = u.Types.CharConst(n.Value)
	default:
		return nil
	}
	return &c
}

// forgetConst drops the compile-time value of the variable e names, if any.
// Assignment and address-of make a binding's value unknowable statically.
func (u *Unit) forgetConst(e ast.Expr) {
	v, ok := e.(*ast.Variable)
	if !ok {
		return
	}
	if entry, ok := u.Scope.Lookup(u.Names.Intern(v.Name)); ok {
		entry.Value = nil
	}
}
