package types

import (
	"fmt"
	"strconv"
)

// Const is a compile-time-known value. Bits holds the integer value, the
// character code point, or 0/1 for booleans; it is unused for nil.
type Const struct {
	Type Type
	Bits int64
}

// IntConst returns the integer constant v.
func (in *Interner) IntConst(v int64) Const { return Const{Type: in.intType, Bits: v} }

// BoolConst returns the boolean constant v.
func (in *Interner) BoolConst(v bool) Const {
	c := Const{Type: in.boolType}
	if v {
		c.Bits = 1
	}
	return c
}

// CharConst returns the character constant r.
func (in *Interner) CharConst(r rune) Const { return Const{Type: in.charType, Bits: int64(r)} }

// NilConst returns the nil constant.
func (in *Interner) NilConst() Const { return Const{Type: in.nilType} }

// FormatConst renders c as quill source.
func (in *Interner) FormatConst(c Const) string {
	switch in.Kind(c.Type) {
	case KindInt:
		return strconv.FormatInt(c.Bits, 10)
	case KindBool:
		return strconv.FormatBool(c.Bits != 0)
	case KindChar:
		return strconv.QuoteRune(rune(c.Bits))
	case KindNil:
		return "nil"
	default:
		return fmt.Sprintf("<const %d>", c.Bits)
	}
}
