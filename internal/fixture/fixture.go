// Package fixture reads and writes quill syntax trees as YAML documents.
// Fixtures let tests and tools build trees without going through the
// parser, and `quill ast` dumps parsed programs in the same format.
package fixture

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/malphas-lang/quill/internal/ast"
	"github.com/malphas-lang/quill/internal/diag"
	"github.com/malphas-lang/quill/internal/lexer"
)

// Document is one fixture file.
type Document struct {
	Name    string       `yaml:"name,omitempty"`
	Program Node         `yaml:"program"`
	Expect  *Expectation `yaml:"expect,omitempty"`
}

// Expectation is the outcome a fixture declares for its program: either the
// rendered type or the kind of the first semantic error.
type Expectation struct {
	Type  string `yaml:"type,omitempty"`
	Error string `yaml:"error,omitempty"`
}

// Node wraps an expression for YAML encoding.
type Node struct {
	Expr ast.Expr
}

// Error is a malformed fixture, located by YAML line.
type Error struct {
	Filename string
	Line     int
	Column   int
	Message  string
}

func (e *Error) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ToDiagnostic converts a fixture error into a shared diagnostic structure.
func (e *Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageFixture,
		Severity: diag.SeverityError,
		Code:     diag.CodeFixtureMalformed,
		Message:  e.Message,
		Span:     diag.Span{Filename: e.Filename, Line: e.Line, Column: max(e.Column, 1)},
	}
}

func nodeError(n *yaml.Node, format string, args ...any) *Error {
	return &Error{Line: n.Line, Column: n.Column, Message: fmt.Sprintf(format, args...)}
}

// Load decodes a fixture document. Nodes without explicit line/column keys
// are located at their position in the YAML text, attributed to filename.
func Load(r io.Reader, filename string) (*Document, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{Filename: filename, Line: 1, Message: "fixture is empty"}
		}
		var ferr *Error
		if errors.As(err, &ferr) {
			ferr.Filename = filename
			return nil, ferr
		}
		return nil, fmt.Errorf("fixture: parse %s: %w", filename, err)
	}
	if doc.Program.Expr == nil {
		return nil, &Error{Filename: filename, Line: 1, Message: "fixture has no program"}
	}

	ast.Walk(doc.Program.Expr, func(e ast.Expr) bool {
		if s, ok := e.(interface{ SetSpan(lexer.Span) }); ok {
			span := e.Span()
			span.Filename = filename
			s.SetSpan(span)
		}
		return true
	})
	return &doc, nil
}

// Dump encodes doc as YAML.
func Dump(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("fixture: encode: %w", err)
	}
	return enc.Close()
}

var allowedKeys = map[ast.Kind][]string{
	ast.KindNil:         nil,
	ast.KindBoolean:     {"value"},
	ast.KindInteger:     {"value"},
	ast.KindCharacter:   {"value"},
	ast.KindVariable:    {"name"},
	ast.KindBind:        {"name", "value"},
	ast.KindAssignment:  {"target", "value"},
	ast.KindUnop:        {"op", "operand"},
	ast.KindBinop:       {"op", "left", "right"},
	ast.KindConditional: {"test", "then", "else"},
	ast.KindSequence:    {"exprs"},
	ast.KindBlock:       {"exprs"},
}

// UnmarshalYAML decodes one syntax tree node and its children.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode {
		return n.UnmarshalYAML(value.Alias)
	}
	if value.Kind != yaml.MappingNode {
		return nodeError(value, "expected a node mapping, found %s", value.ShortTag())
	}

	fields := make(map[string]*yaml.Node, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		fields[value.Content[i].Value] = value.Content[i+1]
	}

	kindNode, ok := fields["kind"]
	if !ok {
		return nodeError(value, "node has no kind")
	}
	kind, ok := ast.ParseKind(kindNode.Value)
	if !ok {
		return nodeError(kindNode, "unknown node kind %q", kindNode.Value)
	}

	allowed := map[string]bool{"kind": true, "line": true, "column": true}
	for _, k := range allowedKeys[kind] {
		allowed[k] = true
	}
	for key, v := range fields {
		if !allowed[key] {
			return nodeError(v, "field %q is not valid for a %s node", key, kind)
		}
	}

	span := lexer.Span{Line: value.Line, Column: value.Column}
	for key, dst := range map[string]*int{"line": &span.Line, "column": &span.Column} {
		if v, ok := fields[key]; ok {
			if err := v.Decode(dst); err != nil {
				return nodeError(v, "%s must be an integer", key)
			}
		}
	}

	d := decoder{fields: fields, parent: value}
	var e ast.Expr
	switch kind {
	case ast.KindNil:
		e = ast.NewNilLit(span)
	case ast.KindBoolean:
		var b bool
		if err := d.scalar("value", &b); err != nil {
			return err
		}
		e = ast.NewBoolLit(b, span)
	case ast.KindInteger:
		var i int64
		if err := d.scalar("value", &i); err != nil {
			return err
		}
		e = ast.NewIntegerLit(i, strconv.FormatInt(i, 10), span)
	case ast.KindCharacter:
		var s string
		if err := d.scalar("value", &s); err != nil {
			return err
		}
		runes := []rune(s)
		if len(runes) != 1 {
			return nodeError(fields["value"], "character value must be exactly one character, got %q", s)
		}
		e = ast.NewCharLit(runes[0], span)
	case ast.KindVariable:
		name, err := d.name()
		if err != nil {
			return err
		}
		e = ast.NewVariable(name, span)
	case ast.KindBind:
		name, err := d.name()
		if err != nil {
			return err
		}
		v, err := d.child("value")
		if err != nil {
			return err
		}
		e = ast.NewBind(name, v, span)
	case ast.KindAssignment:
		target, err := d.child("target")
		if err != nil {
			return err
		}
		v, err := d.child("value")
		if err != nil {
			return err
		}
		e = ast.NewAssignment(target, v, span)
	case ast.KindUnop:
		var op string
		if err := d.scalar("op", &op); err != nil {
			return err
		}
		operand, err := d.child("operand")
		if err != nil {
			return err
		}
		e = ast.NewUnop(op, operand, span)
	case ast.KindBinop:
		var op string
		if err := d.scalar("op", &op); err != nil {
			return err
		}
		left, err := d.child("left")
		if err != nil {
			return err
		}
		right, err := d.child("right")
		if err != nil {
			return err
		}
		e = ast.NewBinop(op, left, right, span)
	case ast.KindConditional:
		kids := make([]ast.Expr, 3)
		for i, key := range []string{"test", "then", "else"} {
			c, err := d.child(key)
			if err != nil {
				return err
			}
			kids[i] = c
		}
		e = ast.NewConditional(kids[0], kids[1], kids[2], span)
	case ast.KindSequence, ast.KindBlock:
		exprs, err := d.list("exprs")
		if err != nil {
			return err
		}
		if kind == ast.KindSequence {
			e = ast.NewSequence(exprs, span)
		} else {
			e = ast.NewBlock(exprs, span)
		}
	}

	n.Expr = e
	return nil
}

// decoder pulls typed fields out of one mapping node.
type decoder struct {
	fields map[string]*yaml.Node
	parent *yaml.Node
}

func (d decoder) require(key string) (*yaml.Node, error) {
	v, ok := d.fields[key]
	if !ok {
		return nil, nodeError(d.parent, "missing field %q", key)
	}
	return v, nil
}

func (d decoder) scalar(key string, dst any) error {
	v, err := d.require(key)
	if err != nil {
		return err
	}
	if v.Kind != yaml.ScalarNode {
		return nodeError(v, "field %q must be a scalar", key)
	}
	if err := v.Decode(dst); err != nil {
		return nodeError(v, "field %q: %v", key, err)
	}
	return nil
}

func (d decoder) name() (string, error) {
	var name string
	if err := d.scalar("name", &name); err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		return "", nodeError(d.fields["name"], "name must not be empty")
	}
	return name, nil
}

func (d decoder) child(key string) (ast.Expr, error) {
	v, err := d.require(key)
	if err != nil {
		return nil, err
	}
	var child Node
	if err := child.UnmarshalYAML(v); err != nil {
		return nil, err
	}
	return child.Expr, nil
}

func (d decoder) list(key string) ([]ast.Expr, error) {
	v, ok := d.fields[key]
	if !ok {
		return nil, nil
	}
	if v.Kind != yaml.SequenceNode {
		return nil, nodeError(v, "field %q must be a sequence", key)
	}
	exprs := make([]ast.Expr, 0, len(v.Content))
	for _, item := range v.Content {
		var child Node
		if err := child.UnmarshalYAML(item); err != nil {
			return nil, err
		}
		exprs = append(exprs, child.Expr)
	}
	return exprs, nil
}

// MarshalYAML encodes the node as a mapping with kind first.
func (n Node) MarshalYAML() (any, error) {
	if n.Expr == nil {
		return nil, errors.New("fixture: cannot encode an empty node")
	}
	return encodeNode(n.Expr), nil
}

func encodeNode(e ast.Expr) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, v *yaml.Node) {
		m.Content = append(m.Content, scalar("!!str", key), v)
	}

	add("kind", scalar("!!str", e.Kind().String()))
	if s := e.Span(); s.Line > 0 {
		add("line", scalar("!!int", strconv.Itoa(s.Line)))
		add("column", scalar("!!int", strconv.Itoa(s.Column)))
	}

	switch x := e.(type) {
	case *ast.BoolLit:
		add("value", scalar("!!bool", strconv.FormatBool(x.Value)))
	case *ast.IntegerLit:
		add("value", scalar("!!int", strconv.FormatInt(x.Value, 10)))
	case *ast.CharLit:
		add("value", scalar("!!str", string(x.Value)))
	case *ast.Variable:
		add("name", scalar("!!str", x.Name))
	case *ast.Bind:
		add("name", scalar("!!str", x.Name))
		add("value", encodeNode(x.Value))
	case *ast.Assignment:
		add("target", encodeNode(x.Target))
		add("value", encodeNode(x.Value))
	case *ast.Unop:
		add("op", scalar("!!str", x.Op))
		add("operand", encodeNode(x.Operand))
	case *ast.Binop:
		add("op", scalar("!!str", x.Op))
		add("left", encodeNode(x.Left))
		add("right", encodeNode(x.Right))
	case *ast.Conditional:
		add("test", encodeNode(x.Test))
		add("then", encodeNode(x.Then))
		add("else", encodeNode(x.Else))
	case *ast.Sequence:
		add("exprs", encodeList(x.Exprs))
	case *ast.Block:
		add("exprs", encodeList(x.Exprs))
	}
	return m
}

func encodeList(exprs []ast.Expr) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range exprs {
		seq.Content = append(seq.Content, encodeNode(e))
	}
	return seq
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// Kinds lists every node kind name a fixture may use, sorted.
func Kinds() []string {
	names := make([]string, 0, len(allowedKeys))
	for k := range allowedKeys {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return names
}
