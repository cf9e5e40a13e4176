// Package backend defines the contract between the semantic core and a
// native-code generator. The core only ever holds the opaque handles
// declared here; a concrete backend such as llvmir decides what they mean.
package backend

import "github.com/malphas-lang/quill/internal/types"

// Value is a computed backend value. String is for debugging only.
type Value interface {
	String() string
}

// Type is a backend-native type representation.
type Type interface {
	String() string
}

// Block is a basic block that control flow can branch to.
type Block interface {
	Name() string
}

// Opcode selects a two-operand arithmetic or bitwise instruction.
type Opcode int

const (
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
)

// Predicate selects an integer comparison.
type Predicate int

const (
	CmpEQ Predicate = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

// Incoming is one edge of a phi node.
type Incoming struct {
	Value Value
	From  Block
}

// Operand is an evaluated operator argument. Addr is the storage location
// the value was read from, or nil when the argument is not a location.
type Operand struct {
	Type  types.Type
	Value Value
	Addr  Value
}

// Builder emits code for one module. Implementations are not expected to be
// safe for concurrent use.
type Builder interface {
	// Lower translates a core type into the backend's representation.
	Lower(t types.Type) (Type, error)

	ConstBool(v bool) Value
	ConstInt(v int64) Value
	ConstChar(r rune) Value
	ConstNil() Value

	// Alloca reserves a storage slot for a value of type ty.
	Alloca(name string, ty Type) Value
	Load(ty Type, addr Value) Value
	Store(ty Type, val, addr Value)

	Binary(op Opcode, ty Type, lhs, rhs Value) Value
	Compare(pred Predicate, ty Type, lhs, rhs Value) Value
	// Widen zero-extends v from ty to the backend's widest integer type.
	Widen(ty Type, v Value) Value

	BeginFunction(name string, ret Type)
	Return(ty Type, v Value)
	EndFunction()

	NewBlock(hint string) Block
	SetInsertBlock(b Block)
	InsertBlock() Block
	Br(target Block)
	CondBr(cond Value, then, els Block)
	Phi(ty Type, incoming []Incoming) Value

	// Module returns the emitted module text.
	Module() string
}
