// Package compile holds the compilation unit: it owns the interners, the
// symbol table and the operator tables, and drives typechecking and code
// generation over a quill syntax tree.
package compile

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/malphas-lang/quill/internal/ast"
	"github.com/malphas-lang/quill/internal/backend"
	"github.com/malphas-lang/quill/internal/backend/llvmir"
	"github.com/malphas-lang/quill/internal/intern"
	"github.com/malphas-lang/quill/internal/operators"
	"github.com/malphas-lang/quill/internal/scope"
	"github.com/malphas-lang/quill/internal/types"
)

// Unit is one compilation unit. It is not safe for concurrent use; compile
// separate programs with separate units.
type Unit struct {
	Names  *intern.Interner
	Types  *types.Interner
	Scope  *scope.Table
	Unary  *operators.Table
	Binary *operators.Table

	builder backend.Builder
	logger  *log.Logger
	trace   bool
	// compiled is set once main has been generated.
	compiled bool

	// resolved records the overload chosen for each operator node.
	resolved map[ast.Expr]operators.Resolution
}

// Option configures a Unit.
type Option func(*unitOptions)

type unitOptions struct {
	logger     *log.Logger
	trace      bool
	target     llvmir.Target
	newBuilder func(*types.Interner) backend.Builder
	bare       bool
}

// WithLogger sends the unit's progress messages to l.
func WithLogger(l *log.Logger) Option {
	return func(o *unitOptions) { o.logger = l }
}

// WithTrace additionally logs every scope push and pop.
func WithTrace(on bool) Option {
	return func(o *unitOptions) { o.trace = on }
}

// WithTarget sets the module header of the default LLVM IR backend.
func WithTarget(t llvmir.Target) Option {
	return func(o *unitOptions) { o.target = t }
}

// WithBackend replaces the default LLVM IR backend.
func WithBackend(fn func(*types.Interner) backend.Builder) Option {
	return func(o *unitOptions) { o.newBuilder = fn }
}

// WithoutPrimitives leaves the operator tables empty.
func WithoutPrimitives() Option {
	return func(o *unitOptions) { o.bare = true }
}

// New creates a unit with the primitive operators registered.
func New(opts ...Option) *Unit {
	o := unitOptions{
		logger: log.New(io.Discard, "", 0),
		target: llvmir.DefaultTarget,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.newBuilder == nil {
		target := o.target
		o.newBuilder = func(ty *types.Interner) backend.Builder { return llvmir.New(ty, target) }
	}

	names := intern.New()
	ty := types.NewInterner(names)
	u := &Unit{
		Names:    names,
		Types:    ty,
		Scope:    scope.New(),
		Unary:    operators.NewUnary(ty, names),
		Binary:   operators.NewBinary(ty, names),
		builder:  o.newBuilder(ty),
		logger:   o.logger,
		trace:    o.trace,
		resolved: make(map[ast.Expr]operators.Resolution),
	}
	if !o.bare {
		u.RegisterPrimitives()
	}
	return u
}

// Builder returns the backend the unit emits into.
func (u *Unit) Builder() backend.Builder { return u.builder }

// Compile typechecks root and then generates a main function returning the
// program's value widened to a 64-bit integer. It returns the module text.
// A unit compiles one program; a second call is an InternalFault.
func (u *Unit) Compile(root ast.Expr) (out string, err error) {
	if u.compiled {
		return "", internalFault(root.Span(), "unit already compiled a program")
	}
	start := time.Now()
	t, err := u.Typecheck(root)
	if err != nil {
		return "", err
	}
	u.logger.Printf("typecheck: %d nodes, result %s (%s)", ast.Count(root), u.Types.String(t), time.Since(start))

	start = time.Now()
	u.compiled = true
	if err := u.generateMain(root, t); err != nil {
		return "", err
	}
	u.logger.Printf("codegen: done (%s)", time.Since(start))
	return u.builder.Module(), nil
}

func (u *Unit) generateMain(root ast.Expr, t types.Type) (err error) {
	// The backend panics on misuse; surface that as a fault, not a crash.
	defer func() {
		if r := recover(); r != nil {
			err = internalFault(root.Span(), "backend: %v", r)
		}
	}()

	i64, err := u.builder.Lower(u.Types.Int())
	if err != nil {
		return internalFault(root.Span(), "%v", err)
	}
	u.builder.BeginFunction("main", i64)
	defer u.builder.EndFunction()

	v, err := u.Codegen(root)
	if err != nil {
		return err
	}

	var ret backend.Value
	switch u.Types.Kind(t) {
	case types.KindInt:
		ret = v
	case types.KindBool, types.KindChar:
		lt, err := u.builder.Lower(t)
		if err != nil {
			return internalFault(root.Span(), "%v", err)
		}
		ret = u.builder.Widen(lt, v)
	default:
		ret = u.builder.ConstInt(0)
	}
	u.builder.Return(i64, ret)
	return nil
}

// TypeOf typechecks e and renders its type.
func (u *Unit) TypeOf(e ast.Expr) (string, error) {
	t, err := u.Typecheck(e)
	if err != nil {
		return "", err
	}
	return u.Types.String(t), nil
}

func (u *Unit) push() {
	u.Scope.Push()
	if u.trace {
		u.logger.Printf("scope: push (depth %d)", u.Scope.Depth())
	}
}

func (u *Unit) pop() {
	if u.trace {
		u.logger.Printf("scope: pop (depth %d)", u.Scope.Depth())
	}
	u.Scope.Pop()
}

// scoped runs fn in a fresh frame.
func (u *Unit) scoped(fn func() error) error {
	u.push()
	defer u.pop()
	return fn()
}

func (u *Unit) lower(e ast.Expr, t types.Type) (backend.Type, error) {
	lt, err := u.builder.Lower(t)
	if err != nil {
		return nil, internalFault(e.Span(), "%v", err)
	}
	return lt, nil
}

func (u *Unit) describe(t types.Type) string {
	return fmt.Sprintf("`%s`", u.Types.String(t))
}
