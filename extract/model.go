// Package extract locates LLM-related code in source files without executing
// them. A per-language structural walk seeds and propagates tainted variables
// lexically within a file; registry-driven regex and service-domain fallbacks
// cover languages and files the walkers cannot parse.
package extract

// Kind classifies a detected code location.
type Kind string

const (
	KindTrigger     Kind = "trigger"
	KindLLM         Kind = "llm"
	KindTool        Kind = "tool"
	KindDecision    Kind = "decision"
	KindIntegration Kind = "integration"
	KindMemory      Kind = "memory"
	KindParser      Kind = "parser"
	KindOutput      Kind = "output"
)

// GlobalScope is the enclosing-function name for top-level code.
const GlobalScope = "global"

// CodeLocation is one detected point of interest in a file. Line and Column
// are 1-based source-text coordinates.
type CodeLocation struct {
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	Kind        Kind   `json:"type"`
	Description string `json:"description"`
	Function    string `json:"function"`
	Variable    string `json:"variable,omitempty"`
}

// FileAnalysis is the per-file extraction result. It is created fresh per
// analysis pass and never mutated after construction.
type FileAnalysis struct {
	FilePath         string
	Locations        []CodeLocation
	Imports          []string
	Exports          []string
	TaintedVariables map[string]bool
}

// NewFileAnalysis returns an empty analysis for the given path.
func NewFileAnalysis(filePath string) *FileAnalysis {
	return &FileAnalysis{
		FilePath:         filePath,
		TaintedVariables: make(map[string]bool),
	}
}

// HasEvidence reports whether the analysis found any workflow-relevant
// location.
func (a *FileAnalysis) HasEvidence() bool {
	return len(a.Locations) > 0
}
