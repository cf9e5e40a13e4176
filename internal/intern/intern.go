// Package intern canonicalizes identifier and operator spellings into
// comparable handles.
package intern

import (
	"fmt"
	"strconv"
)

// Symbol is the canonical handle for an interned string. Two symbols from
// the same Interner are equal if and only if their text is equal.
type Symbol uint32

// NoSymbol is the zero handle and never names interned text.
const NoSymbol Symbol = 0

// IsValid reports whether the symbol was produced by an interner.
func (s Symbol) IsValid() bool { return s != NoSymbol }

// Interner owns the text of every symbol for its whole lifetime.
// It is not safe for concurrent use.
type Interner struct {
	index map[string]Symbol
	text  []string // text[0] is reserved for NoSymbol

	fresh map[string]int // per-prefix counters for Fresh
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{
		index: make(map[string]Symbol),
		text:  []string{""},
		fresh: make(map[string]int),
	}
}

// Intern returns the canonical symbol for text, inserting it on first sight.
func (in *Interner) Intern(text string) Symbol {
	if sym, ok := in.index[text]; ok {
		return sym
	}
	sym := Symbol(len(in.text))
	in.text = append(in.text, text)
	in.index[text] = sym
	return sym
}

// Lookup returns the symbol for text without inserting it.
func (in *Interner) Lookup(text string) (Symbol, bool) {
	sym, ok := in.index[text]
	return sym, ok
}

// Text returns the spelling of sym. It panics on a symbol that did not come
// from this interner.
func (in *Interner) Text(sym Symbol) string {
	if sym == NoSymbol || int(sym) >= len(in.text) {
		panic(fmt.Sprintf("intern: unknown symbol %d", sym))
	}
	return in.text[sym]
}

// Len returns the number of distinct strings interned so far.
func (in *Interner) Len() int {
	return len(in.text) - 1
}

// Fresh returns a newly interned name of the form prefix.N that has never
// been returned before by this interner. N counts per prefix, and names that
// were already interned by other means are skipped.
func (in *Interner) Fresh(prefix string) Symbol {
	for {
		n := in.fresh[prefix]
		in.fresh[prefix] = n + 1
		name := prefix + "." + strconv.Itoa(n)
		if _, taken := in.index[name]; taken {
			continue
		}
		return in.Intern(name)
	}
}
