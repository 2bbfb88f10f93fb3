// Package remote defines the remote-analyzer collaborator: the LLM backend
// that turns batched source text into a workflow graph. The pipeline treats
// it as a black box that may fail; it never retries here.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/michaelzixizhou/codag-sub002/crossref"
	"github.com/michaelzixizhou/codag-sub002/graph"
)

// Request carries one batch to the remote analyzer.
type Request struct {
	CombinedSource string
	FilePaths      []string
	FrameworkHint  string
	Metadata       []crossref.FileMetadata
	ContextHints   []string
}

// TokenUsage reports what the remote call consumed.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Response is the remote analyzer's result for one batch.
type Response struct {
	Graph          graph.Workflow
	QuotaRemaining int
	Usage          TokenUsage
}

// Analyzer is the remote analysis backend.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Response, error)
}

// QuotaExhaustedError is the distinguished failure that, unlike ordinary
// remote faults, surfaces to the caller so the run can pause and resume
// later instead of dropping the batch.
type QuotaExhaustedError struct {
	Remaining int
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("analysis quota exhausted (remaining %d)", e.Remaining)
}

// IsQuotaExhausted reports whether err is a quota-exhaustion fault.
func IsQuotaExhausted(err error) bool {
	var quota *QuotaExhaustedError
	return errors.As(err, &quota)
}

// CombineSource joins batch files into the single text the analyzer
// receives, with per-file separators so it can attribute nodes to files.
func CombineSource(files []crossref.SourceFile) string {
	var sb strings.Builder
	for _, f := range files {
		sb.WriteString("=== ")
		sb.WriteString(f.Path)
		sb.WriteString(" ===\n")
		sb.Write(f.Content)
		if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
