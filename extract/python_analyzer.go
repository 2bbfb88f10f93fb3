package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/michaelzixizhou/codag-sub002/registry"
)

// pythonAnalyzer is the structural walker for Python sources.
type pythonAnalyzer struct {
	registry *registry.Registry
}

func newPythonAnalyzer(reg *registry.Registry) *pythonAnalyzer {
	return &pythonAnalyzer{registry: reg}
}

func (a *pythonAnalyzer) AnalyzeSource(source []byte, filePath string) (*FileAnalysis, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	analysis := NewFileAnalysis(filePath)
	w := &pythonWalker{
		registry:  a.registry,
		source:    source,
		collector: newCollector(),
		analysis:  analysis,
	}
	root := tree.RootNode()
	w.collectExports(root)
	w.walk(root, GlobalScope)
	w.collector.finish(analysis)
	return analysis, nil
}

type pythonWalker struct {
	registry  *registry.Registry
	source    []byte
	collector *collector
	analysis  *FileAnalysis
}

func (w *pythonWalker) walk(node *sitter.Node, function string) {
	switch node.Type() {
	case "import_statement", "import_from_statement":
		w.processImport(node)
	case "assignment":
		w.processAssignment(node, function)
	case "call":
		w.processCall(node, function)
	case "if_statement", "elif_clause", "while_statement", "conditional_expression":
		w.processCondition(node, function)
	case "return_statement":
		w.processReturn(node, function)
	case "decorated_definition":
		w.processDecorated(node)
	case "function_definition":
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			function = nameNode.Content(w.source)
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

func (w *pythonWalker) processImport(node *sitter.Node) {
	statement := node.Content(w.source)
	if node.Type() == "import_from_statement" {
		if module := node.ChildByFieldName("module_name"); module != nil {
			w.analysis.Imports = append(w.analysis.Imports, module.Content(w.source))
		}
	} else {
		for _, name := range findNodesByType(node, "dotted_name") {
			w.analysis.Imports = append(w.analysis.Imports, name.Content(w.source))
		}
	}
	if !w.registry.MatchesImport(statement) && !w.registry.MatchesFramework(statement) {
		return
	}
	// Taint every binding the import introduces, including aliases.
	for _, alias := range findNodesByType(node, "aliased_import") {
		if aliasName := alias.ChildByFieldName("alias"); aliasName != nil {
			w.collector.taint(aliasName.Content(w.source))
		}
	}
	for _, ident := range findNodesByType(node, "identifier") {
		w.collector.taint(ident.Content(w.source))
	}
}

func (w *pythonWalker) processAssignment(node *sitter.Node, function string) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil {
		return
	}
	name := left.Content(w.source)
	if left.Type() != "identifier" {
		// Attribute targets like self.client still taint the full path's
		// trailing identifier so later lookups can hit it.
		parts := strings.Split(name, ".")
		name = parts[len(parts)-1]
	}
	valueText := right.Content(w.source)

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
		w.collector.taint(name)
	}
}

func (w *pythonWalker) processCall(node *sitter.Node, function string) {
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

	if callee.Type() == "attribute" {
		object := callee.ChildByFieldName("object")
		attribute := callee.ChildByFieldName("attribute")
		if object == nil || attribute == nil {
			return
		}
		objectText := object.Content(w.source)
		method := attribute.Content(w.source)
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
		case tainted && w.registry.MatchesCall(callText):
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

	switch {
	case w.registry.MatchesConstructor(callText):
		loc.Kind = KindLLM
		loc.Description = "AI client construction: " + callee.Content(w.source)
	case w.registry.MatchesMemory(callText):
		loc.Kind = KindMemory
		loc.Description = "memory/vector store construction"
	default:
		return
	}
	w.collector.record(loc)
}

func (w *pythonWalker) processCondition(node *sitter.Node, function string) {
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

func (w *pythonWalker) processReturn(node *sitter.Node, function string) {
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

// processDecorated defers a trigger per decorator; collector.finish keeps it
// only when the decorated function also produced a tainted-related location.
func (w *pythonWalker) processDecorated(node *sitter.Node) {
	definition := node.ChildByFieldName("definition")
	if definition == nil {
		return
	}
	name := GlobalScope
	if nameNode := definition.ChildByFieldName("name"); nameNode != nil {
		name = nameNode.Content(w.source)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() != "decorator" {
			continue
		}
		w.collector.deferTrigger(CodeLocation{
			Line:        int(child.StartPoint().Row) + 1,
			Column:      int(child.StartPoint().Column) + 1,
			Description: "decorated handler: " + truncate(child.Content(w.source), 60),
			Function:    name,
		})
	}
}

// collectExports records module-level definitions as the file's exported
// symbols.
func (w *pythonWalker) collectExports(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "function_definition", "class_definition":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				w.analysis.Exports = append(w.analysis.Exports, nameNode.Content(w.source))
			}
		case "decorated_definition":
			if definition := child.ChildByFieldName("definition"); definition != nil {
				if nameNode := definition.ChildByFieldName("name"); nameNode != nil {
					w.analysis.Exports = append(w.analysis.Exports, nameNode.Content(w.source))
				}
			}
		}
	}
}
