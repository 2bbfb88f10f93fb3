package extract

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/michaelzixizhou/codag-sub002/registry"
)

// LanguageAnalyzer is the structural-walk capability for one language
// family. Implementations traverse the syntax tree, seed tainted variables
// from registry-matched bindings and propagate taint lexically within the
// file.
type LanguageAnalyzer interface {
	// AnalyzeSource walks the parsed source and fills the analysis. An error
	// means the walk could not run; callers fall back to the regex tiers.
	AnalyzeSource(source []byte, filePath string) (*FileAnalysis, error)
}

// Extractor dispatches files to per-language analyzers by extension and runs
// the registry-regex and service-domain fallbacks where the structural walk
// is unavailable or fails.
type Extractor struct {
	registry  *registry.Registry
	analyzers map[string]LanguageAnalyzer
	log       *logrus.Entry
}

// NewExtractor returns an extractor with the built-in language families
// registered: JavaScript/TypeScript (js, jsx, ts, tsx), Python (py) and Go
// (go).
func NewExtractor(reg *registry.Registry) *Extractor {
	if reg == nil {
		reg = registry.Default()
	}
	e := &Extractor{
		registry:  reg,
		analyzers: make(map[string]LanguageAnalyzer),
		log:       logrus.WithField("component", "extract"),
	}
	script := newScriptAnalyzer(reg)
	for _, ext := range []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"} {
		e.analyzers[ext] = script
	}
	e.analyzers[".py"] = newPythonAnalyzer(reg)
	e.analyzers[".go"] = newGolangAnalyzer(reg)
	return e
}

// Register adds or replaces the analyzer for a file extension.
func (e *Extractor) Register(ext string, analyzer LanguageAnalyzer) {
	e.analyzers[strings.ToLower(ext)] = analyzer
}

// AnalyzerFor returns the structural analyzer for the given path, or nil
// when the extension is not a supported language family.
func (e *Extractor) AnalyzerFor(filePath string) LanguageAnalyzer {
	return e.analyzers[strings.ToLower(filepath.Ext(filePath))]
}

// Analyze produces a FileAnalysis for one file's text. It never returns an
// error: a parse failure degrades to the regex fallback tiers and any
// remaining fault yields an empty analysis, which callers treat as "no
// evidence found". Unsupported extensions skip the structural walk and go
// straight to the fallback tiers.
func (e *Extractor) Analyze(source []byte, filePath string) *FileAnalysis {
	analyzer := e.AnalyzerFor(filePath)
	if analyzer == nil {
		if fallback := e.RegexFallback(source, filePath); fallback.HasEvidence() {
			return fallback
		}
		return e.DomainFallback(source, filePath)
	}
	analysis, err := analyzer.AnalyzeSource(source, filePath)
	if err == nil && analysis != nil {
		// Tier 2 corroborates the walk for files the walker saw nothing in
		// but the signature tables still flag as workflow-relevant.
		if !analysis.HasEvidence() {
			if fallback := e.RegexFallback(source, filePath); fallback.HasEvidence() {
				return fallback
			}
		}
		return analysis
	}
	if err != nil {
		e.log.WithField("file", filePath).WithError(err).Warn("structural walk failed, using regex fallback")
	}
	if fallback := e.RegexFallback(source, filePath); fallback.HasEvidence() {
		return fallback
	}
	return e.DomainFallback(source, filePath)
}
