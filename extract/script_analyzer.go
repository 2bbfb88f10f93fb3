package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/michaelzixizhou/codag-sub002/registry"
)

// scriptAnalyzer is the structural walker for the JavaScript/TypeScript
// language family (.js, .jsx, .mjs, .cjs, .ts, .tsx).
type scriptAnalyzer struct {
	registry *registry.Registry
}

func newScriptAnalyzer(reg *registry.Registry) *scriptAnalyzer {
	return &scriptAnalyzer{registry: reg}
}

func scriptLanguage(filePath string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// AnalyzeSource parses the source with tree-sitter and walks the tree,
// tracking the innermost enclosing function and propagating taint forward
// within the file.
func (a *scriptAnalyzer) AnalyzeSource(source []byte, filePath string) (*FileAnalysis, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(scriptLanguage(filePath))

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	analysis := NewFileAnalysis(filePath)
	w := &scriptWalker{
		registry:  a.registry,
		source:    source,
		collector: newCollector(),
		analysis:  analysis,
	}
	w.walk(tree.RootNode(), GlobalScope)
	w.collector.finish(analysis)
	return analysis, nil
}

type scriptWalker struct {
	registry  *registry.Registry
	source    []byte
	collector *collector
	analysis  *FileAnalysis
}

func (w *scriptWalker) walk(node *sitter.Node, function string) {
	switch node.Type() {
	case "import_statement":
		w.processImport(node)
	case "variable_declarator":
		w.processDeclarator(node, function)
	case "assignment_expression":
		w.processAssignment(node, function)
	case "call_expression":
		w.processCall(node, function)
	case "new_expression":
		w.processNew(node, function)
	case "if_statement", "ternary_expression", "switch_statement":
		w.processCondition(node, function)
	case "return_statement":
		w.processReturn(node, function)
	case "export_statement":
		w.processExport(node)
	case "function_declaration", "method_definition", "generator_function_declaration":
		function = w.enterFunction(node, function)
	case "arrow_function", "function_expression", "function":
		// Anonymous functions bound to a name take that name as context.
		if parent := node.Parent(); parent != nil && parent.Type() == "variable_declarator" {
			if nameNode := parent.ChildByFieldName("name"); nameNode != nil {
				function = nameNode.Content(w.source)
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		w.walk(child, function)
	}
}

// enterFunction resolves the innermost function name and defers a trigger
// location for decorated definitions.
func (w *scriptWalker) enterFunction(node *sitter.Node, outer string) string {
	name := outer
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		name = nameNode.Content(w.source)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == "decorator" {
			w.collector.deferTrigger(CodeLocation{
				Line:        int(child.StartPoint().Row) + 1,
				Column:      int(child.StartPoint().Column) + 1,
				Description: "decorated handler: " + truncate(child.Content(w.source), 60),
				Function:    name,
			})
		}
	}
	return name
}

func (w *scriptWalker) processImport(node *sitter.Node) {
	statement := node.Content(w.source)
	if sourceNode := node.ChildByFieldName("source"); sourceNode != nil {
		w.analysis.Imports = append(w.analysis.Imports, strings.Trim(sourceNode.Content(w.source), "\"'`"))
	}
	if !w.registry.MatchesImport(statement) && !w.registry.MatchesFramework(statement) {
		return
	}
	// Every binding introduced by a provider import is a taint seed.
	for _, ident := range findNodesByType(node, "identifier") {
		w.collector.taint(ident.Content(w.source))
	}
}

func (w *scriptWalker) processDeclarator(node *sitter.Node, function string) {
	nameNode := node.ChildByFieldName("name")
	valueNode := node.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return
	}
	name := nameNode.Content(w.source)
	valueText := valueNode.Content(w.source)

	// require() is an import in disguise.
	if target, ok := requireTarget(valueNode, w.source); ok {
		w.analysis.Imports = append(w.analysis.Imports, target)
		if w.registry.MatchesImport(valueText) || w.registry.MatchesImport(target) {
			w.collector.taint(name)
		}
		return
	}

	w.bindValue(name, valueText, node, function)
}

func (w *scriptWalker) processAssignment(node *sitter.Node, function string) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return
	}
	w.bindValue(left.Content(w.source), right.Content(w.source), node, function)
}

// bindValue applies the taint-seeding and forward-propagation rules for a
// name bound to an expression.
func (w *scriptWalker) bindValue(name, valueText string, node *sitter.Node, function string) {
	switch {
	case w.registry.MatchesConstructor(valueText):
		w.collector.taint(name)
		w.collector.record(CodeLocation{
			Line:        int(node.StartPoint().Row) + 1,
			Column:      int(node.StartPoint().Column) + 1,
			Kind:        KindLLM,
			Description: "AI client initialization",
			Function:    function,
			Variable:    name,
		})
	case w.registry.MatchesMemory(valueText):
		w.collector.taint(name)
		w.collector.record(CodeLocation{
			Line:        int(node.StartPoint().Row) + 1,
			Column:      int(node.StartPoint().Column) + 1,
			Kind:        KindMemory,
			Description: "memory/vector store binding",
			Function:    function,
			Variable:    name,
		})
	case w.collector.referencesTainted(valueText):
		// Receiving AI-provider output taints the receiver.
		w.collector.taint(name)
	}
}

func (w *scriptWalker) processCall(node *sitter.Node, function string) {
	callee := node.ChildByFieldName("function")
	if callee == nil {
		return
	}
	callText := node.Content(w.source)
	loc := CodeLocation{
		Line:     int(node.StartPoint().Row) + 1,
		Column:   int(node.StartPoint().Column) + 1,
		Function: function,
	}

	if callee.Type() == "member_expression" {
		object := callee.ChildByFieldName("object")
		property := callee.ChildByFieldName("property")
		if object == nil || property == nil {
			return
		}
		objectText := object.Content(w.source)
		method := property.Content(w.source)
		receiver := rootIdentifier(objectText)
		tainted := w.collector.isTainted(receiver) || w.collector.referencesTainted(objectText)

		argsText := ""
		if args := node.ChildByFieldName("arguments"); args != nil {
			argsText = args.Content(w.source)
		}

		switch {
		case tainted && w.registry.IsToolMethod(method):
			loc.Kind = KindTool
			loc.Description = "tool registration: " + method
			loc.Variable = receiver
		case tainted && w.registry.IsCallMethod(method):
			loc.Kind = KindLLM
			loc.Description = "LLM call: " + receiver + "." + method
			loc.Variable = receiver
		case w.registry.IsParserMethod(method) && (tainted || w.collector.referencesTainted(argsText)):
			loc.Kind = KindParser
			loc.Description = "parsing AI output: " + method
			loc.Variable = receiver
		case w.registry.IsHTTPMethod(method) && (tainted || w.registry.MatchesServiceDomain(callText)):
			loc.Kind = KindIntegration
			loc.Description = "HTTP integration: " + method
			loc.Variable = receiver
		case w.registry.MatchesCall(callText) && tainted:
			loc.Kind = KindLLM
			loc.Description = "AI call shape: " + truncate(callText, 60)
			loc.Variable = receiver
		case w.registry.MatchesMemory(callText):
			loc.Kind = KindMemory
			loc.Description = "memory/vector store access"
			loc.Variable = receiver
		default:
			return
		}
		w.collector.record(loc)
		return
	}

	name := callee.Content(w.source)
	switch {
	case w.registry.MatchesConstructor(callText):
		loc.Kind = KindLLM
		loc.Description = "AI client construction: " + name
	case name == "fetch" && w.registry.MatchesServiceDomain(callText):
		loc.Kind = KindIntegration
		loc.Description = "HTTP call to AI service"
	default:
		return
	}
	w.collector.record(loc)
}

func (w *scriptWalker) processNew(node *sitter.Node, function string) {
	text := node.Content(w.source)
	loc := CodeLocation{
		Line:     int(node.StartPoint().Row) + 1,
		Column:   int(node.StartPoint().Column) + 1,
		Function: function,
	}
	switch {
	case w.registry.MatchesConstructor(text):
		loc.Kind = KindLLM
		loc.Description = "AI client construction"
	case w.registry.MatchesMemory(text):
		loc.Kind = KindMemory
		loc.Description = "memory/vector store construction"
	default:
		return
	}
	w.collector.record(loc)
}

func (w *scriptWalker) processCondition(node *sitter.Node, function string) {
	condition := node.ChildByFieldName("condition")
	if condition == nil {
		return
	}
	if !w.collector.referencesTainted(condition.Content(w.source)) {
		return
	}
	w.collector.record(CodeLocation{
		Line:        int(node.StartPoint().Row) + 1,
		Column:      int(node.StartPoint().Column) + 1,
		Kind:        KindDecision,
		Description: "branch on AI output: " + truncate(condition.Content(w.source), 60),
		Function:    function,
	})
}

func (w *scriptWalker) processReturn(node *sitter.Node, function string) {
	text := strings.TrimPrefix(node.Content(w.source), "return")
	if !w.collector.referencesTainted(text) {
		return
	}
	w.collector.record(CodeLocation{
		Line:        int(node.StartPoint().Row) + 1,
		Column:      int(node.StartPoint().Column) + 1,
		Kind:        KindOutput,
		Description: "returns AI-derived value",
		Function:    function,
	})
}

func (w *scriptWalker) processExport(node *sitter.Node) {
	for _, declared := range exportedNames(node, w.source) {
		w.analysis.Exports = append(w.analysis.Exports, declared)
	}
}

// exportedNames collects the identifiers an export statement declares.
func exportedNames(node *sitter.Node, source []byte) []string {
	var names []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "function_declaration", "class_declaration", "generator_function_declaration":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				names = append(names, nameNode.Content(source))
			}
		case "lexical_declaration", "variable_declaration":
			for _, declarator := range findNodesByType(child, "variable_declarator") {
				if nameNode := declarator.ChildByFieldName("name"); nameNode != nil {
					names = append(names, nameNode.Content(source))
				}
			}
		case "export_clause":
			for _, specifier := range findNodesByType(child, "export_specifier") {
				if nameNode := specifier.ChildByFieldName("name"); nameNode != nil {
					names = append(names, nameNode.Content(source))
				}
			}
		case "identifier":
			names = append(names, child.Content(source))
		}
	}
	return names
}

// requireTarget resolves require("module") initializers.
func requireTarget(valueNode *sitter.Node, source []byte) (string, bool) {
	node := valueNode
	if node.Type() == "await_expression" && node.NamedChildCount() > 0 {
		node = node.NamedChild(0)
	}
	if node.Type() != "call_expression" {
		return "", false
	}
	callee := node.ChildByFieldName("function")
	if callee == nil || callee.Content(source) != "require" {
		return "", false
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return "", false
	}
	for _, str := range findNodesByType(args, "string") {
		return strings.Trim(str.Content(source), "\"'`"), true
	}
	return "", false
}

// rootIdentifier returns the leading identifier of a (possibly chained)
// expression, e.g. "client" for "client.chat.completions".
func rootIdentifier(text string) string {
	if m := identifierRe.FindString(text); m != "" {
		return m
	}
	return text
}

func findNodesByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node.Type() == nodeType {
		results = append(results, node)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		results = append(results, findNodesByType(child, nodeType)...)
	}
	return results
}
