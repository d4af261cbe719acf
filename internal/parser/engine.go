package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes one node. Returning true means the handler owns the
// node's children and the walker must not descend further.
type NodeHandler func(node *sitter.Node) bool

// Engine walks a syntax tree and dispatches handlers by node kind.
type Engine struct {
	handlers map[string]NodeHandler
}

func NewEngine(handlers map[string]NodeHandler) *Engine {
	return &Engine{handlers: handlers}
}

func (e *Engine) Walk(node *sitter.Node) {
	if node == nil {
		return
	}

	stop := false
	if handler, ok := e.handlers[node.Kind()]; ok {
		stop = handler(node)
	}

	if !stop {
		for i := uint(0); i < node.ChildCount(); i++ {
			e.Walk(node.Child(i))
		}
	}
}

// Text returns the source text covered by node.
func Text(source []byte, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// Line returns the 1-based start line of node.
func Line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// ChildOfKind returns the first direct child with the given kind.
func ChildOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// ChildText returns the text of the first direct child with the given kind.
func ChildText(source []byte, node *sitter.Node, kind string) string {
	return Text(source, ChildOfKind(node, kind))
}
