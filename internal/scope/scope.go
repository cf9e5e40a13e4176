// Package scope implements the lexically scoped symbol table: a LIFO stack
// of frames mirroring the traversal of the AST.
package scope

import (
	"github.com/malphas-lang/quill/internal/backend"
	"github.com/malphas-lang/quill/internal/intern"
	"github.com/malphas-lang/quill/internal/types"
)

// Entry is a single binding.
type Entry struct {
	Name  intern.Symbol
	Type  types.Type
	Value *types.Const // nil unless the bound value is known at compile time

	// Storage is the backend slot holding the value. It is only set while
	// generating code.
	Storage backend.Value
}

// Frame is one lexical level of bindings.
type Frame struct {
	parent  *Frame
	entries map[intern.Symbol]*Entry
	order   []intern.Symbol
}

func newFrame(parent *Frame) *Frame {
	return &Frame{
		parent:  parent,
		entries: make(map[intern.Symbol]*Entry),
	}
}

// Names returns the frame's bound names in first-insertion order.
func (f *Frame) Names() []intern.Symbol {
	names := make([]intern.Symbol, len(f.order))
	copy(names, f.order)
	return names
}

func (f *Frame) remove(name intern.Symbol) {
	if _, ok := f.entries[name]; !ok {
		return
	}
	delete(f.entries, name)
	for i, n := range f.order {
		if n == name {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

// Table is the symbol table. The outermost frame is the global frame and can
// never be popped.
type Table struct {
	global  *Frame
	current *Frame
	depth   int
}

// New creates a table holding only the global frame.
func New() *Table {
	g := newFrame(nil)
	return &Table{global: g, current: g}
}

// Push enters a nested frame.
func (t *Table) Push() {
	t.current = newFrame(t.current)
	t.depth++
}

// Pop leaves the innermost frame and drops its entries. Popping the global
// frame is a programming error and panics.
func (t *Table) Pop() {
	if t.current == t.global {
		panic("scope: pop of global frame")
	}
	t.current = t.current.parent
	t.depth--
}

// Scoped runs fn inside a fresh frame that is popped when fn returns,
// whatever it returns.
func (t *Table) Scoped(fn func() error) error {
	t.Push()
	defer t.Pop()
	return fn()
}

// Depth returns the number of frames above the global frame.
func (t *Table) Depth() int { return t.depth }

// Current returns the innermost frame.
func (t *Table) Current() *Frame { return t.current }

// Bind inserts or overwrites name in the innermost frame. Outer frames are
// never touched.
func (t *Table) Bind(name intern.Symbol, typ types.Type, value *types.Const) *Entry {
	f := t.current
	if _, exists := f.entries[name]; !exists {
		f.order = append(f.order, name)
	}
	e := &Entry{Name: name, Type: typ, Value: value}
	f.entries[name] = e
	return e
}

// Lookup searches the innermost frame and then each enclosing frame outward.
func (t *Table) Lookup(name intern.Symbol) (*Entry, bool) {
	for f := t.current; f != nil; f = f.parent {
		if e, ok := f.entries[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// LookupLocal searches only the innermost frame.
func (t *Table) LookupLocal(name intern.Symbol) (*Entry, bool) {
	e, ok := t.current.entries[name]
	return e, ok
}

// Unbind removes name from the innermost frame if it is there.
func (t *Table) Unbind(name intern.Symbol) {
	t.current.remove(name)
}
