package ast

import (
	"strconv"
	"strings"
)

// Children returns the direct children of e in evaluation order.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case *Bind:
		return []Expr{n.Value}
	case *Assignment:
		return []Expr{n.Target, n.Value}
	case *Unop:
		return []Expr{n.Operand}
	case *Binop:
		return []Expr{n.Left, n.Right}
	case *Conditional:
		return []Expr{n.Test, n.Then, n.Else}
	case *Sequence:
		return n.Exprs
	case *Block:
		return n.Exprs
	default:
		return nil
	}
}

// Walk traverses the AST starting from node, calling fn for each node.
// If fn returns false, Walk stops traversing that branch.
func Walk(node Expr, fn func(Expr) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Walk(child, fn)
	}
}

// Count returns the number of nodes in the tree rooted at node.
func Count(node Expr) int {
	n := 0
	Walk(node, func(Expr) bool {
		n++
		return true
	})
	return n
}

// Format renders e as a parenthesised s-expression, e.g.
// (seq (bind x 5) (+ x 2)).
func Format(e Expr) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

func format(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *NilLit:
		sb.WriteString("nil")
	case *BoolLit:
		sb.WriteString(strconv.FormatBool(n.Value))
	case *IntegerLit:
		sb.WriteString(strconv.FormatInt(n.Value, 10))
	case *CharLit:
		sb.WriteString(strconv.QuoteRune(n.Value))
	case *Variable:
		sb.WriteString(n.Name)
	case *Bind:
		sb.WriteString("(bind " + n.Name + " ")
		format(sb, n.Value)
		sb.WriteByte(')')
	case *Assignment:
		list(sb, "set", n.Target, n.Value)
	case *Unop:
		list(sb, n.Op, n.Operand)
	case *Binop:
		list(sb, n.Op, n.Left, n.Right)
	case *Conditional:
		list(sb, "if", n.Test, n.Then, n.Else)
	case *Sequence:
		list(sb, "seq", n.Exprs...)
	case *Block:
		list(sb, "block", n.Exprs...)
	}
}

func list(sb *strings.Builder, head string, items ...Expr) {
	sb.WriteByte('(')
	sb.WriteString(head)
	for _, item := range items {
		sb.WriteByte(' ')
		format(sb, item)
	}
	sb.WriteByte(')')
}
