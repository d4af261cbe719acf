package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

func TestParseCleanSource(t *testing.T) {
	p := New()
	tree, err := p.Parse([]byte("def f(x):\n    return x + 1\n"))
	require.NoError(t, err)
	defer tree.Close()

	assert.False(t, tree.HasSyntaxError())
	assert.Equal(t, 0, tree.FirstErrorLine())
	assert.Equal(t, "module", tree.Root().Kind())
}

func TestParseBrokenSource(t *testing.T) {
	p := New()
	tree, err := p.Parse([]byte("def f(:\n    ???\n"))
	require.NoError(t, err)
	defer tree.Close()

	assert.True(t, tree.HasSyntaxError())
	assert.Greater(t, tree.FirstErrorLine(), 0)
}

func TestEngineDispatchAndStop(t *testing.T) {
	p := New()
	tree, err := p.Parse([]byte("class C:\n    def m(self):\n        pass\n\ndef top():\n    pass\n"))
	require.NoError(t, err)
	defer tree.Close()

	var classes, functions []string
	engine := NewEngine(map[string]NodeHandler{
		"class_definition": func(node *sitter.Node) bool {
			classes = append(classes, ChildText(tree.Source, node, "identifier"))
			// Claim the body so the method is not seen again below.
			return true
		},
		"function_definition": func(node *sitter.Node) bool {
			functions = append(functions, ChildText(tree.Source, node, "identifier"))
			return false
		},
	})
	engine.Walk(tree.Root())

	assert.Equal(t, []string{"C"}, classes)
	assert.Equal(t, []string{"top"}, functions)
}

func TestLineAndText(t *testing.T) {
	p := New()
	source := []byte("x = 1\ny = 2\n")
	tree, err := p.Parse(source)
	require.NoError(t, err)
	defer tree.Close()

	var lines []int
	engine := NewEngine(map[string]NodeHandler{
		"assignment": func(node *sitter.Node) bool {
			lines = append(lines, Line(node))
			return false
		},
	})
	engine.Walk(tree.Root())

	assert.Equal(t, []int{1, 2}, lines)
}
