package extract

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strconv"
	"strings"

	"github.com/michaelzixizhou/codag-sub002/registry"
)

// golangAnalyzer is the structural walker for Go sources, built on go/ast
// rather than tree-sitter since the standard parser is exact for Go.
type golangAnalyzer struct {
	registry *registry.Registry
}

func newGolangAnalyzer(reg *registry.Registry) *golangAnalyzer {
	return &golangAnalyzer{registry: reg}
}

func (a *golangAnalyzer) AnalyzeSource(source []byte, filePath string) (*FileAnalysis, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, source, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	analysis := NewFileAnalysis(filePath)
	v := &golangVisitor{
		registry:  a.registry,
		fset:      fset,
		source:    source,
		collector: newCollector(),
		analysis:  analysis,
	}

	for _, imp := range file.Imports {
		v.processImport(imp)
	}
	for _, decl := range file.Decls {
		v.processDecl(decl)
	}
	v.collector.finish(analysis)
	return analysis, nil
}

type golangVisitor struct {
	registry  *registry.Registry
	fset      *token.FileSet
	source    []byte
	collector *collector
	analysis  *FileAnalysis
}

func (v *golangVisitor) text(n ast.Node) string {
	start := v.fset.Position(n.Pos()).Offset
	end := v.fset.Position(n.End()).Offset
	if start < 0 || end > len(v.source) || start > end {
		return ""
	}
	return string(v.source[start:end])
}

func (v *golangVisitor) location(n ast.Node, kind Kind, description, function, variable string) CodeLocation {
	pos := v.fset.Position(n.Pos())
	return CodeLocation{
		Line:        pos.Line,
		Column:      pos.Column,
		Kind:        kind,
		Description: description,
		Function:    function,
		Variable:    variable,
	}
}

func (v *golangVisitor) processImport(imp *ast.ImportSpec) {
	target, err := strconv.Unquote(imp.Path.Value)
	if err != nil {
		target = strings.Trim(imp.Path.Value, `"`)
	}
	v.analysis.Imports = append(v.analysis.Imports, target)
	if !v.registry.MatchesImport(target) && !v.registry.MatchesFramework(target) {
		return
	}
	// The package binding name becomes the taint seed.
	name := path.Base(target)
	if imp.Name != nil {
		name = imp.Name.Name
	}
	if idx := strings.Index(name, "go-"); idx == 0 {
		name = name[3:]
	}
	v.collector.taint(name)
}

func (v *golangVisitor) processDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if d.Name.IsExported() {
			v.analysis.Exports = append(v.analysis.Exports, d.Name.Name)
		}
		if d.Body != nil {
			v.walkStmts(d.Body.List, d.Name.Name)
		}
	case *ast.GenDecl:
		for _, spec := range d.Specs {
			switch s := spec.(type) {
			case *ast.TypeSpec:
				if s.Name.IsExported() {
					v.analysis.Exports = append(v.analysis.Exports, s.Name.Name)
				}
			case *ast.ValueSpec:
				for _, name := range s.Names {
					if name.IsExported() {
						v.analysis.Exports = append(v.analysis.Exports, name.Name)
					}
				}
				v.bindValues(s.Names, s.Values, GlobalScope)
			}
		}
	}
}

func (v *golangVisitor) walkStmts(stmts []ast.Stmt, function string) {
	for _, stmt := range stmts {
		v.walkStmt(stmt, function)
	}
}

func (v *golangVisitor) walkStmt(stmt ast.Stmt, function string) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		v.processAssign(s, function)
		for _, rhs := range s.Rhs {
			v.walkExpr(rhs, function)
		}
	case *ast.DeclStmt:
		if gen, ok := s.Decl.(*ast.GenDecl); ok {
			for _, spec := range gen.Specs {
				if value, ok := spec.(*ast.ValueSpec); ok {
					v.bindValues(value.Names, value.Values, function)
				}
			}
		}
	case *ast.IfStmt:
		if s.Cond != nil && v.collector.referencesTainted(v.text(s.Cond)) {
			v.collector.record(v.location(s, KindDecision, "branch on AI output: "+truncate(v.text(s.Cond), 60), function, ""))
		}
		if s.Init != nil {
			v.walkStmt(s.Init, function)
		}
		v.walkStmts(s.Body.List, function)
		if s.Else != nil {
			v.walkStmt(s.Else, function)
		}
	case *ast.ReturnStmt:
		for _, result := range s.Results {
			if v.collector.referencesTainted(v.text(result)) {
				v.collector.record(v.location(s, KindOutput, "returns AI-derived value", function, ""))
				break
			}
		}
	case *ast.ExprStmt:
		v.walkExpr(s.X, function)
	case *ast.BlockStmt:
		v.walkStmts(s.List, function)
	case *ast.ForStmt:
		v.walkStmts(s.Body.List, function)
	case *ast.RangeStmt:
		v.walkStmts(s.Body.List, function)
	case *ast.SwitchStmt:
		if s.Tag != nil && v.collector.referencesTainted(v.text(s.Tag)) {
			v.collector.record(v.location(s, KindDecision, "branch on AI output", function, ""))
		}
		for _, clause := range s.Body.List {
			if cc, ok := clause.(*ast.CaseClause); ok {
				v.walkStmts(cc.Body, function)
			}
		}
	case *ast.GoStmt:
		v.walkExpr(s.Call, function)
	case *ast.DeferStmt:
		v.walkExpr(s.Call, function)
	}
}

func (v *golangVisitor) processAssign(s *ast.AssignStmt, function string) {
	var names []*ast.Ident
	for _, lhs := range s.Lhs {
		if ident, ok := lhs.(*ast.Ident); ok {
			names = append(names, ident)
		}
	}
	v.bindValues(names, s.Rhs, function)
}

func (v *golangVisitor) bindValues(names []*ast.Ident, values []ast.Expr, function string) {
	if len(values) == 0 {
		return
	}
	valueText := ""
	for _, value := range values {
		valueText += v.text(value) + " "
	}
	var first string
	for _, name := range names {
		if name.Name != "_" {
			first = name.Name
			break
		}
	}
	switch {
	case v.registry.MatchesConstructor(valueText) || v.isClientFactory(valueText):
		for _, name := range names {
			v.collector.taint(name.Name)
		}
		if len(names) > 0 {
			v.collector.record(v.location(names[0], KindLLM, "AI client initialization", function, first))
		}
	case v.registry.MatchesMemory(valueText):
		for _, name := range names {
			v.collector.taint(name.Name)
		}
		if len(names) > 0 {
			v.collector.record(v.location(names[0], KindMemory, "memory/vector store binding", function, first))
		}
	case v.collector.referencesTainted(valueText):
		for _, name := range names {
			// err/ok bindings would turn every error check after an LLM
			// call into a decision location.
			if name.Name == "err" || name.Name == "ok" {
				continue
			}
			v.collector.taint(name.Name)
		}
	}
}

// isClientFactory matches Go SDK constructor shapes such as
// openai.NewClient(...) on a tainted package binding.
func (v *golangVisitor) isClientFactory(text string) bool {
	idx := strings.Index(text, ".New")
	if idx <= 0 {
		return false
	}
	return v.collector.isTainted(rootIdentifier(text[:idx]))
}

func (v *golangVisitor) walkExpr(expr ast.Expr, function string) {
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return
	}
	for _, arg := range call.Args {
		v.walkExpr(arg, function)
	}
	selector, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return
	}
	objectText := v.text(selector.X)
	method := selector.Sel.Name
	receiver := rootIdentifier(objectText)
	tainted := v.collector.isTainted(receiver) || v.collector.referencesTainted(objectText)
	callText := v.text(call)

	argsText := ""
	for _, arg := range call.Args {
		argsText += v.text(arg) + " "
	}

	switch {
	case tainted && v.registry.IsToolMethod(method):
		v.collector.record(v.location(call, KindTool, "tool registration: "+method, function, receiver))
	case tainted && (v.registry.IsCallMethod(method) || v.registry.MatchesCall(callText)):
		v.collector.record(v.location(call, KindLLM, "LLM call: "+receiver+"."+method, function, receiver))
	case v.registry.IsParserMethod(method) && (tainted || v.collector.referencesTainted(argsText)):
		v.collector.record(v.location(call, KindParser, "parsing AI output: "+method, function, receiver))
	case v.registry.IsHTTPMethod(method) && (tainted || v.registry.MatchesServiceDomain(callText)):
		v.collector.record(v.location(call, KindIntegration, "HTTP integration: "+method, function, receiver))
	case v.registry.MatchesMemory(callText):
		v.collector.record(v.location(call, KindMemory, "memory/vector store access", function, receiver))
	}
}
