package extract

import "strings"

// RegexFallback is tier 2: a line-oriented check of the raw text against the
// registry's import and call pattern tables. A file counts as
// workflow-relevant if it matches both an import and a call pattern, or any
// agent-framework pattern standalone.
func (e *Extractor) RegexFallback(source []byte, filePath string) *FileAnalysis {
	analysis := NewFileAnalysis(filePath)
	text := string(source)
	if !e.registry.IsWorkflowFile(text) {
		return analysis
	}

	collector := newCollector()
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		column := strings.Index(line, trimmed) + 1
		switch {
		case e.registry.MatchesCall(trimmed):
			collector.record(CodeLocation{
				Line:        i + 1,
				Column:      column,
				Kind:        KindLLM,
				Description: "AI call pattern: " + truncate(trimmed, 80),
			})
		case e.registry.MatchesImport(trimmed) || e.registry.MatchesFramework(trimmed):
			analysis.Imports = append(analysis.Imports, trimmed)
		}
	}
	collector.finish(analysis)
	return analysis
}

// DomainFallback is tier 3: a text-level match against known AI-service HTTP
// domains and endpoint shapes, for services invoked via raw HTTP rather than
// an SDK.
func (e *Extractor) DomainFallback(source []byte, filePath string) *FileAnalysis {
	analysis := NewFileAnalysis(filePath)
	collector := newCollector()
	for i, line := range strings.Split(string(source), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !e.registry.MatchesServiceDomain(trimmed) {
			continue
		}
		collector.record(CodeLocation{
			Line:        i + 1,
			Column:      strings.Index(line, trimmed) + 1,
			Kind:        KindIntegration,
			Description: "AI service endpoint: " + truncate(trimmed, 80),
		})
	}
	collector.finish(analysis)
	return analysis
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
