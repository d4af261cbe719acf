package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"pyfacts/internal/core/errors"
)

// Parser wraps a tree-sitter Python grammar. One Parser may be shared across
// goroutines; each Parse call owns its own sitter parser instance.
type Parser struct {
	language *sitter.Language
}

func New() *Parser {
	return &Parser{language: sitter.NewLanguage(tree_sitter_python.Language())}
}

// Tree is a parsed source file. Callers must Close it.
type Tree struct {
	Source []byte
	tree   *sitter.Tree
}

func (p *Parser) Parse(content []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "set language")
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parser returned nil tree")
	}

	return &Tree{Source: content, tree: tree}, nil
}

func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

func (t *Tree) Close() {
	t.tree.Close()
}

// HasSyntaxError reports whether the parse produced ERROR or MISSING nodes.
// tree-sitter always yields a tree; this is the "did not parse" condition.
func (t *Tree) HasSyntaxError() bool {
	return t.Root().HasError()
}

// FirstErrorLine returns the 1-based line of the first ERROR or MISSING node,
// or 0 when the tree is clean.
func (t *Tree) FirstErrorLine() int {
	return firstErrorLine(t.Root())
}

func firstErrorLine(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	if node.IsError() || node.IsMissing() {
		return int(node.StartPosition().Row) + 1
	}
	if !node.HasError() {
		return 0
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if line := firstErrorLine(node.Child(i)); line > 0 {
			return line
		}
	}
	return int(node.StartPosition().Row) + 1
}
