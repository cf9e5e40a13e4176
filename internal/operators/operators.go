// Package operators holds the unary and binary operator tables and resolves
// an operator spelling plus concrete argument types to a single overload.
package operators

import (
	"fmt"
	"slices"
	"sort"

	"github.com/malphas-lang/quill/internal/backend"
	"github.com/malphas-lang/quill/internal/intern"
	"github.com/malphas-lang/quill/internal/types"
)

// EmitFunc generates code for one application of an overload.
type EmitFunc func(b backend.Builder, args []backend.Operand) (backend.Value, error)

// Overload is a concrete implementation keyed by its parameter types.
type Overload struct {
	Params []types.Type
	Result types.Type
	Emit   EmitFunc
}

// Template is a generic implementation whose parameter and result patterns
// mention the type variable Var.
type Template struct {
	Var    types.Type
	Params []types.Type
	Result types.Type
	Emit   EmitFunc
}

// Literal is the set of overloads registered under one operator spelling.
type Literal struct {
	Op        intern.Symbol
	overloads []*Overload
	templates []*Template
}

// Overloads returns the concrete overloads in registration order.
func (l *Literal) Overloads() []*Overload { return slices.Clone(l.overloads) }

// Templates returns the generic overloads in registration order.
func (l *Literal) Templates() []*Template { return slices.Clone(l.templates) }

// Empty reports whether the literal has no overloads of either kind.
func (l *Literal) Empty() bool { return len(l.overloads) == 0 && len(l.templates) == 0 }

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Result  types.Type
	Emit    EmitFunc
	Generic bool
	// Binding holds the type chosen for the template variable. It is NoType
	// for concrete overloads.
	Binding types.Type
}

// Table maps operator spellings of one arity to their literals.
type Table struct {
	arity    int
	types    *types.Interner
	names    *intern.Interner
	literals map[intern.Symbol]*Literal
}

// NewTable creates a table for operators taking arity arguments.
func NewTable(arity int, ty *types.Interner, names *intern.Interner) *Table {
	return &Table{
		arity:    arity,
		types:    ty,
		names:    names,
		literals: make(map[intern.Symbol]*Literal),
	}
}

// NewUnary creates a table for prefix operators.
func NewUnary(ty *types.Interner, names *intern.Interner) *Table { return NewTable(1, ty, names) }

// NewBinary creates a table for infix operators.
func NewBinary(ty *types.Interner, names *intern.Interner) *Table { return NewTable(2, ty, names) }

// Arity returns the number of arguments every operator in the table takes.
func (t *Table) Arity() int { return t.arity }

// Register ensures a literal exists for op and returns it.
func (t *Table) Register(op intern.Symbol) *Literal {
	if lit, ok := t.literals[op]; ok {
		return lit
	}
	lit := &Literal{Op: op}
	t.literals[op] = lit
	return lit
}

// RegisterOverload adds a concrete overload for op. Registering the same
// parameter tuple again replaces the earlier overload.
func (t *Table) RegisterOverload(op intern.Symbol, params []types.Type, result types.Type, emit EmitFunc) error {
	if err := t.checkArity(op, params); err != nil {
		return err
	}
	for _, p := range append(slices.Clone(params), result) {
		if t.types.IsGeneric(p) {
			return fmt.Errorf("operators: %s: concrete overload mentions type variable in %s",
				t.names.Text(op), t.types.String(p))
		}
	}

	lit := t.Register(op)
	ov := &Overload{Params: slices.Clone(params), Result: result, Emit: emit}
	for i, existing := range lit.overloads {
		if slices.Equal(existing.Params, params) {
			lit.overloads[i] = ov
			return nil
		}
	}
	lit.overloads = append(lit.overloads, ov)
	return nil
}

// RegisterTemplate adds a generic overload for op. tv must be a type
// variable, every parameter pattern may mention only tv, and tv must occur
// in at least one parameter so resolution can bind it. Registering the same
// pattern again replaces the earlier template.
func (t *Table) RegisterTemplate(op intern.Symbol, tv types.Type, params []types.Type, result types.Type, emit EmitFunc) error {
	if err := t.checkArity(op, params); err != nil {
		return err
	}
	if t.types.Kind(tv) != types.KindVar {
		return fmt.Errorf("operators: %s: %s is not a type variable", t.names.Text(op), t.types.String(tv))
	}

	bound := false
	for _, p := range params {
		vars := t.varsOf(p)
		for _, v := range vars {
			if v != tv {
				return fmt.Errorf("operators: %s: pattern %s mentions %s, only %s is allowed",
					t.names.Text(op), t.types.String(p), t.types.String(v), t.types.String(tv))
			}
		}
		bound = bound || len(vars) > 0
	}
	if !bound {
		return fmt.Errorf("operators: %s: no parameter pattern mentions %s", t.names.Text(op), t.types.String(tv))
	}
	for _, v := range t.varsOf(result) {
		if v != tv {
			return fmt.Errorf("operators: %s: result %s mentions unbound %s",
				t.names.Text(op), t.types.String(result), t.types.String(v))
		}
	}

	lit := t.Register(op)
	tmpl := &Template{Var: tv, Params: slices.Clone(params), Result: result, Emit: emit}
	for i, existing := range lit.templates {
		if existing.Var == tv && slices.Equal(existing.Params, params) {
			lit.templates[i] = tmpl
			return nil
		}
	}
	lit.templates = append(lit.templates, tmpl)
	return nil
}

// Lookup finds the literal registered for op.
func (t *Table) Lookup(op intern.Symbol) (*Literal, bool) {
	lit, ok := t.literals[op]
	return lit, ok
}

// Resolve picks the overload of lit that applies to args. An exact concrete
// match always wins; otherwise templates are tried in registration order.
func (t *Table) Resolve(lit *Literal, args ...types.Type) (Resolution, bool) {
	if lit == nil || len(args) != t.arity {
		return Resolution{}, false
	}

	for _, ov := range lit.overloads {
		if slices.Equal(ov.Params, args) {
			return Resolution{Result: ov.Result, Emit: ov.Emit}, true
		}
	}

	for _, tmpl := range lit.templates {
		subst := types.Substitution{}
		matched := true
		for i, p := range tmpl.Params {
			if err := t.types.Unify(p, args[i], subst); err != nil {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		return Resolution{
			Result:  t.types.Substitute(tmpl.Result, subst),
			Emit:    tmpl.Emit,
			Generic: true,
			Binding: subst[tmpl.Var],
		}, true
	}

	return Resolution{}, false
}

// Unregister removes op and all of its overloads.
func (t *Table) Unregister(op intern.Symbol) {
	delete(t.literals, op)
}

// RemoveOverload removes the concrete overload of op with the given
// parameter tuple. It reports whether anything was removed.
func (t *Table) RemoveOverload(op intern.Symbol, params []types.Type) bool {
	lit, ok := t.literals[op]
	if !ok {
		return false
	}
	for i, ov := range lit.overloads {
		if slices.Equal(ov.Params, params) {
			lit.overloads = slices.Delete(lit.overloads, i, i+1)
			return true
		}
	}
	return false
}

// RemoveTemplate removes the generic overload of op with the given pattern.
func (t *Table) RemoveTemplate(op intern.Symbol, params []types.Type) bool {
	lit, ok := t.literals[op]
	if !ok {
		return false
	}
	for i, tmpl := range lit.templates {
		if slices.Equal(tmpl.Params, params) {
			lit.templates = slices.Delete(lit.templates, i, i+1)
			return true
		}
	}
	return false
}

// Ops returns the spellings of every registered operator, sorted.
func (t *Table) Ops() []string {
	ops := make([]string, 0, len(t.literals))
	for op := range t.literals {
		ops = append(ops, t.names.Text(op))
	}
	sort.Strings(ops)
	return ops
}

// Signature renders an argument tuple for diagnostics, e.g. "(int, bool)".
func (t *Table) Signature(args []types.Type) string {
	s := "("
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += t.types.String(a)
	}
	return s + ")"
}

func (t *Table) checkArity(op intern.Symbol, params []types.Type) error {
	if len(params) != t.arity {
		return fmt.Errorf("operators: %s: expected %d parameter types, got %d",
			t.names.Text(op), t.arity, len(params))
	}
	return nil
}

// varsOf lists the distinct type variables mentioned in p.
func (t *Table) varsOf(p types.Type) []types.Type {
	switch t.types.Kind(p) {
	case types.KindVar:
		return []types.Type{p}
	case types.KindPointer:
		return t.varsOf(t.types.Elem(p))
	default:
		return nil
	}
}
