package types

import (
	"fmt"

	"github.com/malphas-lang/quill/internal/intern"
)

// Type is the canonical handle for an interned type shape. Two types from the
// same Interner are structurally equal if and only if their handles are equal.
type Type uint32

// NoType marks the absence of a type.
const NoType Type = 0

// IsValid reports whether t names an interned type.
func (t Type) IsValid() bool { return t != NoType }

// Kind enumerates the closed set of type shapes.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNil
	KindBool
	KindInt
	KindChar
	KindPointer
	KindVar
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindChar:
		return "char"
	case KindPointer:
		return "pointer"
	case KindVar:
		return "typevar"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// shape is the structural key of a type. Elem is set for pointers, Name for
// type variables.
type shape struct {
	Kind Kind
	Elem Type
	Name intern.Symbol
}

// Interner produces exactly one handle per distinct type shape. It is not
// safe for concurrent use.
type Interner struct {
	names  *intern.Interner
	index  map[shape]Type
	shapes []shape // shapes[0] is reserved for NoType

	nilType, boolType, intType, charType Type
}

// NewInterner creates a type interner that resolves type-variable names
// through names.
func NewInterner(names *intern.Interner) *Interner {
	in := &Interner{
		names:  names,
		index:  make(map[shape]Type),
		shapes: []shape{{Kind: KindInvalid}},
	}
	in.nilType = in.intern(shape{Kind: KindNil})
	in.boolType = in.intern(shape{Kind: KindBool})
	in.intType = in.intern(shape{Kind: KindInt})
	in.charType = in.intern(shape{Kind: KindChar})
	return in
}

func (in *Interner) intern(s shape) Type {
	if t, ok := in.index[s]; ok {
		return t
	}
	t := Type(len(in.shapes))
	in.shapes = append(in.shapes, s)
	in.index[s] = t
	return t
}

// Nil returns the nil type.
func (in *Interner) Nil() Type { return in.nilType }

// Bool returns the boolean type.
func (in *Interner) Bool() Type { return in.boolType }

// Int returns the integer type.
func (in *Interner) Int() Type { return in.intType }

// Char returns the character type.
func (in *Interner) Char() Type { return in.charType }

// Pointer returns the pointer-to-elem type.
func (in *Interner) Pointer(elem Type) Type {
	in.mustOwn(elem)
	return in.intern(shape{Kind: KindPointer, Elem: elem})
}

// Var returns the type variable called name.
func (in *Interner) Var(name intern.Symbol) Type {
	return in.intern(shape{Kind: KindVar, Name: name})
}

// Kind returns the shape kind of t.
func (in *Interner) Kind(t Type) Kind {
	if int(t) >= len(in.shapes) {
		return KindInvalid
	}
	return in.shapes[t].Kind
}

// Elem returns the pointee of a pointer type, or NoType for any other kind.
func (in *Interner) Elem(t Type) Type {
	if in.Kind(t) != KindPointer {
		return NoType
	}
	return in.shapes[t].Elem
}

// VarName returns the name of a type variable, or NoSymbol for any other kind.
func (in *Interner) VarName(t Type) intern.Symbol {
	if in.Kind(t) != KindVar {
		return intern.NoSymbol
	}
	return in.shapes[t].Name
}

// Len returns the number of distinct shapes interned so far.
func (in *Interner) Len() int {
	return len(in.shapes) - 1
}

// String renders t the way it is written in diagnostics.
func (in *Interner) String(t Type) string {
	switch in.Kind(t) {
	case KindNil, KindBool, KindInt, KindChar:
		return in.Kind(t).String()
	case KindPointer:
		return "*" + in.String(in.Elem(t))
	case KindVar:
		return in.names.Text(in.VarName(t))
	default:
		return "<invalid>"
	}
}

// IsGeneric reports whether t mentions a type variable anywhere.
func (in *Interner) IsGeneric(t Type) bool {
	switch in.Kind(t) {
	case KindVar:
		return true
	case KindPointer:
		return in.IsGeneric(in.Elem(t))
	default:
		return false
	}
}

func (in *Interner) mustOwn(t Type) {
	if t == NoType || int(t) >= len(in.shapes) {
		panic(fmt.Sprintf("types: unknown type handle %d", t))
	}
}
