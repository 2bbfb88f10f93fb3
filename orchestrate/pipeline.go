package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/michaelzixizhou/codag-sub002/batch"
	"github.com/michaelzixizhou/codag-sub002/crossref"
	"github.com/michaelzixizhou/codag-sub002/extract"
	"github.com/michaelzixizhou/codag-sub002/registry"
)

// ErrNoInput indicates a workspace with no readable candidate files.
var ErrNoInput = errors.New("no readable source files in workspace")

// FileSource enumerates and reads candidate files. The scanner package
// provides the workspace-backed implementation.
type FileSource interface {
	Scan(ctx context.Context, root string) ([]string, error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// Options tunes a pipeline run.
type Options struct {
	MaxBatchSize      int
	MaxTokensPerBatch int
	// RelatedDepth caps how many relatedFiles hops beyond the files with
	// direct workflow evidence are included in the remote payload.
	RelatedDepth int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{MaxBatchSize: 8, MaxTokensPerBatch: 60000, RelatedDepth: 2}
}

// Pipeline wires file discovery, local extraction, batching and remote
// orchestration into a single workspace analysis.
type Pipeline struct {
	source    FileSource
	registry  *registry.Registry
	extractor *extract.Extractor
	builder   *crossref.Builder
	orch      *Orchestrator
	opts      Options
	log       *logrus.Entry
}

// NewPipeline builds a pipeline around an already constructed orchestrator.
func NewPipeline(source FileSource, reg *registry.Registry, orch *Orchestrator, opts Options) *Pipeline {
	if opts.MaxBatchSize < 1 {
		opts.MaxBatchSize = DefaultOptions().MaxBatchSize
	}
	if opts.MaxTokensPerBatch < 1 {
		opts.MaxTokensPerBatch = DefaultOptions().MaxTokensPerBatch
	}
	extractor := extract.NewExtractor(reg)
	return &Pipeline{
		source:    source,
		registry:  reg,
		extractor: extractor,
		builder:   crossref.NewBuilder(extractor),
		orch:      orch,
		opts:      opts,
		log:       logrus.WithField("component", "pipeline"),
	}
}

// AnalyzeWorkspace runs the full analysis over root. Unreadable files are
// skipped with a warning; a workspace with nothing readable yields
// ErrNoInput. The session for the run is opened here, so any invalidation
// after this point marks the run's in-flight results stale.
func (p *Pipeline) AnalyzeWorkspace(ctx context.Context, root string) error {
	paths, err := p.source.Scan(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to scan workspace %v: %w", root, err)
	}
	files := p.readAll(ctx, paths)
	if len(files) == 0 {
		return ErrNoInput
	}
	return p.analyze(ctx, files)
}

// AnalyzeFiles runs the pipeline over an explicit file set, bypassing
// discovery. Retry handling and tests use it directly.
func (p *Pipeline) AnalyzeFiles(ctx context.Context, files []crossref.SourceFile) error {
	if len(files) == 0 {
		return ErrNoInput
	}
	return p.analyze(ctx, files)
}

func (p *Pipeline) analyze(ctx context.Context, files []crossref.SourceFile) error {
	startSession := p.orch.sessions.Bump()

	analyses, metadata := p.builder.Build(files)
	relevant := p.selectRelevant(files, analyses, metadata)
	if len(relevant) == 0 {
		p.log.Info("no workflow evidence found in workspace")
		return p.orch.Run(ctx, nil, metadata, "", startSession)
	}

	hint := p.frameworkHint(relevant)
	batches := batch.CreateBatches(relevant, metadata, p.opts.MaxBatchSize, p.opts.MaxTokensPerBatch)
	p.log.WithFields(logrus.Fields{
		"files":     len(relevant),
		"batches":   len(batches),
		"framework": hint,
	}).Info("starting workspace analysis")
	return p.orch.Run(ctx, batches, metadata, hint, startSession)
}

func (p *Pipeline) readAll(ctx context.Context, paths []string) []crossref.SourceFile {
	files := make([]crossref.SourceFile, 0, len(paths))
	for _, path := range paths {
		content, err := p.source.Read(ctx, path)
		if err != nil {
			p.log.WithError(err).WithField("file", path).Warn("skipping unreadable file")
			continue
		}
		files = append(files, crossref.SourceFile{Path: path, Content: content})
	}
	return files
}

// selectRelevant keeps the files with direct workflow evidence plus
// everything reachable from them through relatedFiles within RelatedDepth
// hops, preserving input order. A file with no recorded locations still
// counts when the signature tables flag it: an agent-framework import is
// workflow-relevant standalone even if no provider call pattern fires.
func (p *Pipeline) selectRelevant(files []crossref.SourceFile, analyses []*extract.FileAnalysis, metadata []crossref.FileMetadata) []crossref.SourceFile {
	keep := make(map[string]bool)
	for i, a := range analyses {
		if !a.HasEvidence() && !p.registry.IsWorkflowFile(string(files[i].Content)) {
			continue
		}
		keep[a.FilePath] = true
		for _, related := range crossref.ExpandRelated(a.FilePath, metadata, p.opts.RelatedDepth) {
			keep[related] = true
		}
	}
	var out []crossref.SourceFile
	for _, f := range files {
		if keep[f.Path] {
			out = append(out, f)
		}
	}
	return out
}

func (p *Pipeline) frameworkHint(files []crossref.SourceFile) string {
	for _, f := range files {
		if id := p.registry.DetectFramework(string(f.Content)); id != "" {
			return id
		}
	}
	return ""
}

// RetryKind selects the scope of a retry request.
type RetryKind string

const (
	// RetryFile re-analyzes a single file.
	RetryFile RetryKind = "file"
	// RetryWorkspace re-runs the full workspace analysis.
	RetryWorkspace RetryKind = "workspace"
)

// RetryRequest is a serializable ask to re-run some slice of the analysis,
// typically raised from the display after a failed or partial run.
type RetryRequest struct {
	Kind       RetryKind `json:"kind"`
	TargetPath string    `json:"targetPath"`
}

// HandleRetry dispatches a retry request. A file retry re-reads the target
// and re-analyzes it together with its cached neighbors; a workspace retry
// starts the discovery pipeline over.
func (p *Pipeline) HandleRetry(ctx context.Context, req RetryRequest) error {
	switch req.Kind {
	case RetryFile:
		content, err := p.source.Read(ctx, req.TargetPath)
		if err != nil {
			return fmt.Errorf("failed to read retry target %v: %w", req.TargetPath, err)
		}
		p.orch.cache.InvalidateFile(req.TargetPath)
		files := p.withCachedNeighbors(ctx, crossref.SourceFile{Path: req.TargetPath, Content: content})
		return p.analyze(ctx, files)
	case RetryWorkspace:
		return p.AnalyzeWorkspace(ctx, req.TargetPath)
	default:
		return fmt.Errorf("unknown retry kind %v", req.Kind)
	}
}

// withCachedNeighbors pairs the retried file with any still-cached files so
// cross-file edges can be rebuilt, skipping neighbors that no longer read.
func (p *Pipeline) withCachedNeighbors(ctx context.Context, target crossref.SourceFile) []crossref.SourceFile {
	files := []crossref.SourceFile{target}
	cached := p.orch.cache.CachedFiles()
	sort.Strings(cached)
	for _, path := range cached {
		if path == target.Path {
			continue
		}
		content, err := p.source.Read(ctx, path)
		if err != nil {
			continue
		}
		files = append(files, crossref.SourceFile{Path: path, Content: content})
	}
	return files
}
