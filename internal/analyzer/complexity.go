package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// decisionKinds are the constructs that each add one independent path:
// branches, loops (sync or async), exception handlers, resource-scope
// blocks, and comprehension/generator expressions. elif clauses count
// separately because each one is its own branch.
var decisionKinds = map[string]bool{
	"if_statement":             true,
	"elif_clause":              true,
	"while_statement":          true,
	"for_statement":            true,
	"except_clause":            true,
	"with_statement":           true,
	"list_comprehension":       true,
	"set_comprehension":        true,
	"dictionary_comprehension": true,
	"generator_expression":     true,
}

var importKinds = map[string]bool{
	"import_statement":        true,
	"import_from_statement":   true,
	"future_import_statement": true,
}

// CalculateMetrics derives whole-file size and complexity numbers from the
// tree and the raw text. Cyclomatic complexity is structural over the whole
// file, starting at 1.
func CalculateMetrics(root *sitter.Node, content string) ComplexityMetrics {
	metrics := ComplexityMetrics{CyclomaticComplexity: 1}

	lines := strings.Split(content, "\n")
	metrics.TotalLines = len(lines)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "#"):
			metrics.CommentLines++
		default:
			metrics.LinesOfCode++
		}
	}

	countNodes(root, &metrics)
	return metrics
}

func countNodes(node *sitter.Node, metrics *ComplexityMetrics) {
	if node == nil {
		return
	}

	kind := node.Kind()
	switch {
	case decisionKinds[kind]:
		metrics.CyclomaticComplexity++
	case kind == "function_definition":
		metrics.FunctionCount++
	case kind == "class_definition":
		metrics.ClassCount++
	case importKinds[kind]:
		metrics.ImportCount++
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		countNodes(node.Child(i), metrics)
	}
}
