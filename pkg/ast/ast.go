// Package ast defines the node types produced by the parser. A parsed tree
// is immutable and may be rendered concurrently against different contexts.
package ast

// Node is one element of a parsed template tree.
type Node interface {
	node()
}

// TextNode is literal template text, emitted verbatim.
type TextNode struct {
	Value string
}

// VariableNode is a {{ ... }} interpolation. Expression is the trimmed
// expression text; its value is HTML-escaped on output.
type VariableNode struct {
	Expression string
}

// IfNode is a {% if %} block. ElseBody is empty when no else clause was
// written.
type IfNode struct {
	Condition string
	Body      []Node
	ElseBody  []Node
}

// ForNode is a {% for %} block. Index is the optional secondary loop
// variable name and is empty when not requested.
type ForNode struct {
	Item     string
	Index    string
	Iterable string
	Body     []Node
}

func (*TextNode) node()     {}
func (*VariableNode) node() {}
func (*IfNode) node()       {}
func (*ForNode) node()      {}
