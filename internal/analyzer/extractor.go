package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pyfacts/internal/parser"
	"pyfacts/internal/shared/util"
)

var embeddedQueryKeywords = []string{"SELECT", "INSERT", "UPDATE", "DELETE"}

// Extractor walks one syntax tree and accumulates function, class, import,
// global-binding and data-operation records. State is local to one analysis
// call; a fresh Extractor is built per file.
type Extractor struct {
	source   []byte
	dataLibs []string

	functions []FunctionRecord
	classes   []ClassRecord
	imports   []ImportRecord
	globals   []string
	dataOps   []DataOperationRecord

	// scope holds the names of enclosing classes. The class visitor pushes
	// before descending into its body and pops on exit, so module scope is
	// an empty stack.
	scope []string
}

func NewExtractor(source []byte, dataLibs []string) *Extractor {
	return &Extractor{
		source:    source,
		dataLibs:  dataLibs,
		functions: []FunctionRecord{},
		classes:   []ClassRecord{},
		imports:   []ImportRecord{},
		globals:   []string{},
		dataOps:   []DataOperationRecord{},
	}
}

// Run performs the single scoped traversal. Class and function visitors
// claim their own bodies, so a method is never seen a second time as a
// stray top-level function.
func (x *Extractor) Run(root *sitter.Node) {
	engine := parser.NewEngine(map[string]parser.NodeHandler{
		"import_statement":      x.visitImport,
		"import_from_statement": x.visitFromImport,
		"function_definition":   x.visitTopLevelFunction,
		"class_definition":      x.visitClass,
		"assignment":            x.visitAssignment,
	})
	engine.Walk(root)
}

func (x *Extractor) text(node *sitter.Node) string {
	return parser.Text(x.source, node)
}

func (x *Extractor) visitImport(node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			module := x.text(child)
			x.imports = append(x.imports, ImportRecord{
				Module:     module,
				Names:      []string{module},
				LineNumber: parser.Line(node),
			})
		case "aliased_import":
			module := x.text(child.ChildByFieldName("name"))
			alias := x.text(child.ChildByFieldName("alias"))
			x.imports = append(x.imports, ImportRecord{
				Module:     module,
				Names:      []string{module},
				Alias:      alias,
				LineNumber: parser.Line(node),
			})
		}
	}
	return true
}

func (x *Extractor) visitFromImport(node *sitter.Node) bool {
	var module string
	if mod := node.ChildByFieldName("module_name"); mod != nil {
		if mod.Kind() == "relative_import" {
			module = strings.TrimLeft(x.text(mod), ".")
		} else {
			module = x.text(mod)
		}
	}
	// `from . import x` has no module path to attribute names to.
	if module == "" {
		return true
	}

	names := []string{}
	seenImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import":
			seenImport = true
		case "dotted_name", "identifier":
			if seenImport {
				names = append(names, x.text(child))
			}
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				names = append(names, x.text(name))
			}
		case "wildcard_import":
			names = append(names, "*")
		}
	}

	x.imports = append(x.imports, ImportRecord{
		Module:     module,
		Names:      names,
		LineNumber: parser.Line(node),
	})
	return true
}

func (x *Extractor) visitTopLevelFunction(node *sitter.Node) bool {
	x.functions = append(x.functions, x.function(node))
	return true
}

// function builds a FunctionRecord, performing its own bounded walk over the
// function body. Nested definitions contribute their calls and strings to
// the enclosing record but are not recorded separately.
func (x *Extractor) function(node *sitter.Node) FunctionRecord {
	rec := FunctionRecord{
		Name:           x.text(node.ChildByFieldName("name")),
		Args:           x.parameterNames(node.ChildByFieldName("parameters")),
		Returns:        normalizeExpr(x.text(node.ChildByFieldName("return_type"))),
		LineNumber:     parser.Line(node),
		Decorators:     x.decorators(node),
		CallsMade:      []string{},
		SQLQueries:     []string{},
		DataOperations: []string{},
	}

	body := node.ChildByFieldName("body")
	rec.Docstring = x.docstring(body)
	x.scanBody(body, &rec, make(map[string]bool), make(map[string]bool))
	return rec
}

// parameterNames collects declared parameter names up to the first splat or
// keyword-only separator, mirroring how the fact sheet reports positional
// parameters.
func (x *Extractor) parameterNames(params *sitter.Node) []string {
	names := []string{}
	if params == nil {
		return names
	}
	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		switch child.Kind() {
		case "identifier":
			names = append(names, x.text(child))
		case "typed_parameter":
			if child.ChildCount() > 0 && child.Child(0).Kind() == "identifier" {
				names = append(names, x.text(child.Child(0)))
			}
		case "default_parameter", "typed_default_parameter":
			if name := child.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
				names = append(names, x.text(name))
			}
		case "list_splat_pattern", "dictionary_splat_pattern", "keyword_separator":
			return names
		}
	}
	return names
}

func (x *Extractor) decorators(node *sitter.Node) []string {
	decorators := []string{}
	parent := node.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return decorators
	}
	for i := uint(0); i < parent.ChildCount(); i++ {
		child := parent.Child(i)
		if child.Kind() != "decorator" {
			continue
		}
		dec := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(x.text(child)), "@"))
		if dec != "" {
			decorators = append(decorators, dec)
		}
	}
	return decorators
}

// docstring returns the content of the body's leading string literal, if any.
func (x *Extractor) docstring(body *sitter.Node) string {
	if body == nil {
		return ""
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		if !child.IsNamed() || child.Kind() == "comment" {
			continue
		}
		if child.Kind() != "expression_statement" {
			return ""
		}
		str := parser.ChildOfKind(child, "string")
		if str == nil {
			return ""
		}
		return cleanDocstring(x.stringContent(str))
	}
	return ""
}

// cleanDocstring normalizes a docstring literal: the first line loses its
// surrounding whitespace, continuation lines lose their common indent, and
// leading and trailing blank lines are dropped.
func cleanDocstring(s string) string {
	lines := strings.Split(s, "\n")
	lines[0] = strings.TrimSpace(lines[0])

	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if indent := len(line) - len(trimmed); margin < 0 || indent < margin {
			margin = indent
		}
	}
	if margin > 0 {
		for i, line := range lines[1:] {
			if len(line) >= margin {
				lines[1+i] = line[margin:]
			} else {
				lines[1+i] = strings.TrimLeft(line, " \t")
			}
		}
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func (x *Extractor) scanBody(node *sitter.Node, rec *FunctionRecord, seenCalls, seenOps map[string]bool) {
	if node == nil {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "call":
			fn := child.ChildByFieldName("function")
			if fn != nil {
				switch fn.Kind() {
				case "identifier":
					rec.CallsMade = util.AppendUnique(rec.CallsMade, seenCalls, x.text(fn))
				case "attribute":
					name := normalizeExpr(x.text(fn))
					rec.CallsMade = util.AppendUnique(rec.CallsMade, seenCalls, name)
					if x.isDataCall(name) {
						rec.DataOperations = util.AppendUnique(rec.DataOperations, seenOps, name)
					}
				}
			}
		case "string":
			content := x.stringContent(child)
			upper := strings.ToUpper(content)
			for _, keyword := range embeddedQueryKeywords {
				if strings.Contains(upper, keyword) {
					rec.SQLQueries = append(rec.SQLQueries, content)
					break
				}
			}
		case "assignment":
			x.checkDataOp(child)
		case "class_definition":
			// A class declared in a function body is still a class record.
			// The class visitor claims the subtree, like at module level.
			x.visitClass(child)
			continue
		}
		x.scanBody(child, rec, seenCalls, seenOps)
	}
}

func (x *Extractor) visitClass(node *sitter.Node) bool {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return true
	}
	name := x.text(nameNode)

	x.scope = append(x.scope, name)
	defer func() { x.scope = x.scope[:len(x.scope)-1] }()

	// Nested classes recorded while processing the body land after this
	// record, preserving declaration order.
	at := len(x.classes)

	rec := ClassRecord{
		Name:        name,
		LineNumber:  parser.Line(node),
		Methods:     []FunctionRecord{},
		Attributes:  []string{},
		Inheritance: []string{},
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.ChildCount(); i++ {
			child := supers.Child(i)
			if !child.IsNamed() || child.Kind() == "keyword_argument" || child.Kind() == "comment" {
				continue
			}
			rec.Inheritance = append(rec.Inheritance, normalizeExpr(x.text(child)))
		}
	}

	body := node.ChildByFieldName("body")
	rec.Docstring = x.docstring(body)
	if body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			child := body.Child(i)
			switch child.Kind() {
			case "function_definition":
				rec.Methods = append(rec.Methods, x.function(child))
			case "class_definition":
				x.visitClass(child)
			case "decorated_definition":
				if def := child.ChildByFieldName("definition"); def != nil {
					switch def.Kind() {
					case "function_definition":
						rec.Methods = append(rec.Methods, x.function(def))
					case "class_definition":
						x.visitClass(def)
					}
				}
			case "expression_statement":
				if assign := parser.ChildOfKind(child, "assignment"); assign != nil {
					if left := assign.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
						rec.Attributes = append(rec.Attributes, x.text(left))
					}
					x.checkDataOp(assign)
				}
			}
		}
	}

	x.classes = append(x.classes, ClassRecord{})
	copy(x.classes[at+1:], x.classes[at:])
	x.classes[at] = rec
	return true
}

func (x *Extractor) visitAssignment(node *sitter.Node) bool {
	if len(x.scope) == 0 {
		if left := node.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
			x.globals = append(x.globals, x.text(left))
		}
	}
	x.checkDataOp(node)
	return false
}

// checkDataOp emits an assignment-kind DataOperationRecord when the
// right-hand side is a qualified call into a recognized data library. This
// applies in every scope.
func (x *Extractor) checkDataOp(node *sitter.Node) {
	right := node.ChildByFieldName("right")
	if right == nil || right.Kind() != "call" {
		return
	}
	fn := right.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "attribute" {
		return
	}
	method := normalizeExpr(x.text(fn))
	if !x.isDataCall(method) {
		return
	}

	target := "unknown"
	if left := node.ChildByFieldName("left"); left != nil {
		target = normalizeExpr(x.text(left))
	}
	x.dataOps = append(x.dataOps, DataOperationRecord{
		OperationType: "assignment",
		Target:        target,
		Method:        method,
		LineNumber:    parser.Line(node),
		Context:       strings.TrimSpace(x.text(node)),
	})
}

func (x *Extractor) isDataCall(name string) bool {
	for _, lib := range x.dataLibs {
		if strings.Contains(name, lib) {
			return true
		}
	}
	return false
}

// stringContent returns the literal content of a string node without its
// quotes or prefixes. Interpolation segments of f-strings are skipped.
func (x *Extractor) stringContent(node *sitter.Node) string {
	var sb strings.Builder
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "string_content" {
			sb.WriteString(x.text(child))
		}
	}
	return sb.String()
}

func normalizeExpr(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\n", "")
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\t", "")
	value = strings.ReplaceAll(value, " ", "")
	return value
}
