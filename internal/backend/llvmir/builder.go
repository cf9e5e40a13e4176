// Package llvmir is a backend that emits textual LLVM IR.
package llvmir

import (
	"fmt"
	"strings"

	"github.com/malphas-lang/quill/internal/backend"
	"github.com/malphas-lang/quill/internal/types"
)

// Target describes the module header.
type Target struct {
	ModuleName string
	Triple     string
	DataLayout string
}

// DefaultTarget is x86-64 Linux.
var DefaultTarget = Target{
	ModuleName: "quill",
	Triple:     "x86_64-unknown-linux-gnu",
	DataLayout: "e-m:e-p270:32:32-p271:32:32-p272:64:64-i64:64-f80:128-n8:16:32:64-S128",
}

// value is a register name or a constant operand.
type value string

func (v value) String() string { return string(v) }

// irType is an LLVM first-class type name.
type irType string

func (t irType) String() string { return string(t) }

const (
	i1  irType = "i1"
	i8  irType = "i8"
	i64 irType = "i64"
	ptr irType = "ptr"
)

// Block is a basic block under construction.
type Block struct {
	name  string
	lines []string
}

// Name returns the block label.
func (b *Block) Name() string { return b.name }

// function is a function definition under construction.
type function struct {
	name    string
	ret     irType
	allocas []string
	blocks  []*Block
}

// Builder implements backend.Builder.
type Builder struct {
	types  *types.Interner
	target Target

	funcs []*function

	// Current function context
	fn    *function
	block *Block

	// Register counter for generating unique register names
	regCounter int

	// Label counter for generating unique label names
	labelCounter int
}

var _ backend.Builder = (*Builder)(nil)

// New creates a builder that lowers types owned by ty.
func New(ty *types.Interner, target Target) *Builder {
	if target.ModuleName == "" {
		target.ModuleName = DefaultTarget.ModuleName
	}
	return &Builder{types: ty, target: target}
}

// Lower translates a quill type to its LLVM representation.
func (b *Builder) Lower(t types.Type) (backend.Type, error) {
	switch b.types.Kind(t) {
	case types.KindInt:
		return i64, nil
	case types.KindBool:
		return i1, nil
	case types.KindChar:
		return i8, nil
	case types.KindPointer, types.KindNil:
		return ptr, nil
	default:
		return nil, fmt.Errorf("llvmir: cannot lower type %s", b.types.String(t))
	}
}

func (b *Builder) ConstBool(v bool) backend.Value {
	if v {
		return value("true")
	}
	return value("false")
}

func (b *Builder) ConstInt(v int64) backend.Value { return value(fmt.Sprintf("%d", v)) }

// ConstChar truncates r to a byte, matching the i8 lowering.
func (b *Builder) ConstChar(r rune) backend.Value { return value(fmt.Sprintf("%d", uint8(r))) }

func (b *Builder) ConstNil() backend.Value { return value("null") }

// Alloca reserves a slot in the entry block of the current function.
func (b *Builder) Alloca(name string, ty backend.Type) backend.Value {
	fn := b.mustFunction()
	slot := value("%" + name)
	fn.allocas = append(fn.allocas, fmt.Sprintf("  %s = alloca %s", slot, ty))
	return slot
}

func (b *Builder) Load(ty backend.Type, addr backend.Value) backend.Value {
	reg := b.nextReg()
	b.emit(fmt.Sprintf("  %s = load %s, ptr %s", reg, ty, addr))
	return reg
}

func (b *Builder) Store(ty backend.Type, val, addr backend.Value) {
	b.emit(fmt.Sprintf("  store %s %s, ptr %s", ty, val, addr))
}

var opcodes = map[backend.Opcode]string{
	backend.OpAdd: "add",
	backend.OpSub: "sub",
	backend.OpMul: "mul",
	backend.OpDiv: "sdiv",
	backend.OpRem: "srem",
	backend.OpAnd: "and",
	backend.OpOr:  "or",
	backend.OpXor: "xor",
}

func (b *Builder) Binary(op backend.Opcode, ty backend.Type, lhs, rhs backend.Value) backend.Value {
	reg := b.nextReg()
	b.emit(fmt.Sprintf("  %s = %s %s %s, %s", reg, opcodes[op], ty, lhs, rhs))
	return reg
}

// Compare emits icmp. Integers compare signed; characters and booleans
// compare unsigned.
func (b *Builder) Compare(pred backend.Predicate, ty backend.Type, lhs, rhs backend.Value) backend.Value {
	signed := ty == i64
	var p string
	switch pred {
	case backend.CmpEQ:
		p = "eq"
	case backend.CmpNE:
		p = "ne"
	case backend.CmpLT:
		p = pick(signed, "slt", "ult")
	case backend.CmpLE:
		p = pick(signed, "sle", "ule")
	case backend.CmpGT:
		p = pick(signed, "sgt", "ugt")
	case backend.CmpGE:
		p = pick(signed, "sge", "uge")
	}
	reg := b.nextReg()
	b.emit(fmt.Sprintf("  %s = icmp %s %s %s, %s", reg, p, ty, lhs, rhs))
	return reg
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

func (b *Builder) Widen(ty backend.Type, v backend.Value) backend.Value {
	if ty == i64 {
		return v
	}
	reg := b.nextReg()
	b.emit(fmt.Sprintf("  %s = zext %s %s to i64", reg, ty, v))
	return reg
}

// BeginFunction opens a function definition and positions the builder at
// its entry block.
func (b *Builder) BeginFunction(name string, ret backend.Type) {
	if b.fn != nil {
		panic("llvmir: nested function " + name)
	}
	b.fn = &function{name: name, ret: ret.(irType)}
	b.regCounter = 0
	entry := &Block{name: "entry"}
	b.fn.blocks = append(b.fn.blocks, entry)
	b.block = entry
}

func (b *Builder) Return(ty backend.Type, v backend.Value) {
	b.emit(fmt.Sprintf("  ret %s %s", ty, v))
}

// EndFunction closes the current function and adds it to the module.
func (b *Builder) EndFunction() {
	fn := b.mustFunction()
	b.funcs = append(b.funcs, fn)
	b.fn = nil
	b.block = nil
}

// NewBlock appends a fresh block to the current function without moving
// the insertion point.
func (b *Builder) NewBlock(hint string) backend.Block {
	fn := b.mustFunction()
	blk := &Block{name: b.nextLabel(hint)}
	fn.blocks = append(fn.blocks, blk)
	return blk
}

func (b *Builder) SetInsertBlock(blk backend.Block) {
	b.mustFunction()
	b.block = blk.(*Block)
}

func (b *Builder) InsertBlock() backend.Block { return b.block }

func (b *Builder) Br(target backend.Block) {
	b.emit(fmt.Sprintf("  br label %%%s", target.Name()))
}

func (b *Builder) CondBr(cond backend.Value, then, els backend.Block) {
	b.emit(fmt.Sprintf("  br i1 %s, label %%%s, label %%%s", cond, then.Name(), els.Name()))
}

func (b *Builder) Phi(ty backend.Type, incoming []backend.Incoming) backend.Value {
	edges := make([]string, len(incoming))
	for i, in := range incoming {
		edges[i] = fmt.Sprintf("[ %s, %%%s ]", in.Value, in.From.Name())
	}
	reg := b.nextReg()
	b.emit(fmt.Sprintf("  %s = phi %s %s", reg, ty, strings.Join(edges, ", ")))
	return reg
}

// Module renders the module header and every finished function.
func (b *Builder) Module() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; ModuleID = '%s'\n", b.target.ModuleName)
	fmt.Fprintf(&sb, "source_filename = \"%s\"\n", b.target.ModuleName)
	if b.target.DataLayout != "" {
		fmt.Fprintf(&sb, "target datalayout = \"%s\"\n", b.target.DataLayout)
	}
	if b.target.Triple != "" {
		fmt.Fprintf(&sb, "target triple = \"%s\"\n", b.target.Triple)
	}

	for _, fn := range b.funcs {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "define %s @%s() {\n", fn.ret, fn.name)
		for i, blk := range fn.blocks {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(blk.name + ":\n")
			if i == 0 {
				for _, line := range fn.allocas {
					sb.WriteString(line + "\n")
				}
			}
			for _, line := range blk.lines {
				sb.WriteString(line + "\n")
			}
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}

// emit writes a line to the current block.
func (b *Builder) emit(line string) {
	if b.block == nil {
		panic("llvmir: no insertion block")
	}
	b.block.lines = append(b.block.lines, line)
}

func (b *Builder) mustFunction() *function {
	if b.fn == nil {
		panic("llvmir: no current function")
	}
	return b.fn
}

// nextReg generates a unique register name.
func (b *Builder) nextReg() value {
	b.regCounter++
	return value(fmt.Sprintf("%%t%d", b.regCounter))
}

// nextLabel generates a unique label name.
func (b *Builder) nextLabel(hint string) string {
	b.labelCounter++
	return fmt.Sprintf("%s%d", hint, b.labelCounter)
}
