// Package ast defines the quill syntax tree. The variant set is closed: every
// node reports a Kind tag that passes switch on to dispatch in O(1).
package ast

import (
	"fmt"

	"github.com/malphas-lang/quill/internal/lexer"
	"github.com/malphas-lang/quill/internal/types"
)

// Kind tags each node variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNil
	KindBoolean
	KindInteger
	KindCharacter
	KindVariable
	KindBind
	KindAssignment
	KindUnop
	KindBinop
	KindConditional
	KindSequence
	KindBlock
)

var kindNames = [...]string{
	KindInvalid:     "invalid",
	KindNil:         "nil",
	KindBoolean:     "boolean",
	KindInteger:     "integer",
	KindCharacter:   "character",
	KindVariable:    "variable",
	KindBind:        "bind",
	KindAssignment:  "assignment",
	KindUnop:        "unop",
	KindBinop:       "binop",
	KindConditional: "conditional",
	KindSequence:    "sequence",
	KindBlock:       "block",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps a kind name back to its tag.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s && Kind(k) != KindInvalid {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// Node represents any AST node with an associated source span.
type Node interface {
	Span() lexer.Span
}

// Expr is every quill node; the whole language is expressions.
type Expr interface {
	Node
	Kind() Kind
	// Memo returns the node's resolved-type cell.
	Memo() *Memo
	exprNode()
}

// Memo is a write-once cache for a node's resolved type.
type Memo struct {
	typ types.Type
}

// Get returns the cached type, if any.
func (m *Memo) Get() (types.Type, bool) {
	return m.typ, m.typ != types.NoType
}

// Set records t. Setting the same type again is a no-op; overwriting with a
// different type is a programming error and panics.
func (m *Memo) Set(t types.Type) {
	if t == types.NoType {
		panic("ast: memo set to NoType")
	}
	if m.typ != types.NoType && m.typ != t {
		panic(fmt.Sprintf("ast: memo already holds type %d, refusing %d", m.typ, t))
	}
	m.typ = t
}

// header is embedded by every node.
type header struct {
	span lexer.Span
	memo Memo
}

// Span returns the node's source span.
func (h *header) Span() lexer.Span { return h.span }

// SetSpan updates the node's source span.
func (h *header) SetSpan(span lexer.Span) { h.span = span }

// Memo returns the node's type cell.
func (h *header) Memo() *Memo { return &h.memo }

// NilLit is the `nil` literal.
type NilLit struct {
	header
}

// NewNilLit constructs a nil literal node.
func NewNilLit(span lexer.Span) *NilLit {
	return &NilLit{header{span: span}}
}

func (*NilLit) Kind() Kind { return KindNil }
func (*NilLit) exprNode()  {}

// BoolLit is `true` or `false`.
type BoolLit struct {
	header
	Value bool
}

// NewBoolLit constructs a boolean literal node.
func NewBoolLit(value bool, span lexer.Span) *BoolLit {
	return &BoolLit{header: header{span: span}, Value: value}
}

func (*BoolLit) Kind() Kind { return KindBoolean }
func (*BoolLit) exprNode()  {}

// IntegerLit is an integer literal. Text keeps the source spelling.
type IntegerLit struct {
	header
	Value int64
	Text  string
}

// NewIntegerLit constructs an integer literal node.
func NewIntegerLit(value int64, text string, span lexer.Span) *IntegerLit {
	return &IntegerLit{header: header{span: span}, Value: value, Text: text}
}

func (*IntegerLit) Kind() Kind { return KindInteger }
func (*IntegerLit) exprNode()  {}

// CharLit is a character literal such as 'a'.
type CharLit struct {
	header
	Value rune
}

// NewCharLit constructs a character literal node.
func NewCharLit(value rune, span lexer.Span) *CharLit {
	return &CharLit{header: header{span: span}, Value: value}
}

func (*CharLit) Kind() Kind { return KindCharacter }
func (*CharLit) exprNode()  {}

// Variable is a reference to a bound name.
type Variable struct {
	header
	Name string
}

// NewVariable constructs a variable reference node.
func NewVariable(name string, span lexer.Span) *Variable {
	return &Variable{header: header{span: span}, Name: name}
}

func (*Variable) Kind() Kind { return KindVariable }
func (*Variable) exprNode()  {}

// Bind is `name := value`. It yields the bound value.
type Bind struct {
	header
	Name  string
	Value Expr
}

// NewBind constructs a binding node.
func NewBind(name string, value Expr, span lexer.Span) *Bind {
	return &Bind{header: header{span: span}, Name: name, Value: value}
}

func (*Bind) Kind() Kind { return KindBind }
func (*Bind) exprNode()  {}

// Assignment is `target = value`. Target must be a Variable or a
// dereference.
type Assignment struct {
	header
	Target Expr
	Value  Expr
}

// NewAssignment constructs an assignment node.
func NewAssignment(target, value Expr, span lexer.Span) *Assignment {
	return &Assignment{header: header{span: span}, Target: target, Value: value}
}

func (*Assignment) Kind() Kind { return KindAssignment }
func (*Assignment) exprNode()  {}

// Unop is a prefix operator application.
type Unop struct {
	header
	Op      string
	Operand Expr
}

// NewUnop constructs a prefix operator node.
func NewUnop(op string, operand Expr, span lexer.Span) *Unop {
	return &Unop{header: header{span: span}, Op: op, Operand: operand}
}

func (*Unop) Kind() Kind { return KindUnop }
func (*Unop) exprNode()  {}

// Binop is an infix operator application.
type Binop struct {
	header
	Op    string
	Left  Expr
	Right Expr
}

// NewBinop constructs an infix operator node.
func NewBinop(op string, left, right Expr, span lexer.Span) *Binop {
	return &Binop{header: header{span: span}, Op: op, Left: left, Right: right}
}

func (*Binop) Kind() Kind { return KindBinop }
func (*Binop) exprNode()  {}

// Conditional is `if Test then Then else Else`.
type Conditional struct {
	header
	Test Expr
	Then Expr
	Else Expr
}

// NewConditional constructs a conditional node.
func NewConditional(test, then, els Expr, span lexer.Span) *Conditional {
	return &Conditional{header: header{span: span}, Test: test, Then: then, Else: els}
}

func (*Conditional) Kind() Kind { return KindConditional }
func (*Conditional) exprNode()  {}

// Sequence evaluates Exprs in order and yields the last one.
type Sequence struct {
	header
	Exprs []Expr
}

// NewSequence constructs a sequence node.
func NewSequence(exprs []Expr, span lexer.Span) *Sequence {
	return &Sequence{header: header{span: span}, Exprs: exprs}
}

func (*Sequence) Kind() Kind { return KindSequence }
func (*Sequence) exprNode()  {}

// Block is a braced sequence with its own scope.
type Block struct {
	header
	Exprs []Expr
}

// NewBlock constructs a block node.
func NewBlock(exprs []Expr, span lexer.Span) *Block {
	return &Block{header: header{span: span}, Exprs: exprs}
}

func (*Block) Kind() Kind { return KindBlock }
func (*Block) exprNode()  {}
