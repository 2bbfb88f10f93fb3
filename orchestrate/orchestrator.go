// Package orchestrate drives batches through the remote analyzer with
// bounded concurrency, committing successful results to the graph cache and
// discarding results whose analysis session went stale mid-flight.
package orchestrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/michaelzixizhou/codag-sub002/batch"
	"github.com/michaelzixizhou/codag-sub002/cache"
	"github.com/michaelzixizhou/codag-sub002/crossref"
	"github.com/michaelzixizhou/codag-sub002/display"
	"github.com/michaelzixizhou/codag-sub002/graph"
	"github.com/michaelzixizhou/codag-sub002/remote"
	"github.com/michaelzixizhou/codag-sub002/session"
)

// Orchestrator runs analysis batches against the remote analyzer.
type Orchestrator struct {
	remote         remote.Analyzer
	cache          *cache.Store
	display        display.Display
	sessions       *session.Counter
	maxConcurrency int

	// commitMu makes each batch's session-compare and cache write one
	// critical section, so an out-of-band session bump cannot interleave
	// between the check and the write.
	commitMu sync.Mutex
	log      *logrus.Entry
}

// New returns an orchestrator. maxConcurrency bounds the number of remote
// calls in flight.
func New(analyzer remote.Analyzer, store *cache.Store, disp display.Display, sessions *session.Counter, maxConcurrency int) *Orchestrator {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if disp == nil {
		disp = display.NewLogDisplay()
	}
	return &Orchestrator{
		remote:         analyzer,
		cache:          store,
		display:        disp,
		sessions:       sessions,
		maxConcurrency: maxConcurrency,
		log:            logrus.WithField("component", "orchestrate"),
	}
}

// Run executes all batches with a bounded worker pool: each worker takes the
// next pending batch as soon as it frees up, so uneven remote latencies do
// not serialize the run. A failed batch is logged and skipped, never
// aborting its siblings; only quota exhaustion is surfaced, since the caller
// can pause and resume that.
func (o *Orchestrator) Run(ctx context.Context, batches []batch.Batch, metadata []crossref.FileMetadata, frameworkHint string, startSession int64) error {
	metaByFile := make(map[string]crossref.FileMetadata, len(metadata))
	for _, m := range metadata {
		metaByFile[m.File] = m
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrency)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			return o.runBatch(gCtx, i, b, metaByFile, frameworkHint, startSession)
		})
	}
	err := g.Wait()

	// Re-check the session once more before the final display refresh.
	// Cache writes already committed under valid sessions stay, but a run
	// invalidated mid-flight must not repaint the display.
	if session.IsStale(startSession, o.sessions.Current) {
		o.log.WithField("session", startSession).Info("session invalidated, skipping final graph display")
		return err
	}
	if err != nil {
		if remote.IsQuotaExhausted(err) {
			return fmt.Errorf("analysis paused: %w", err)
		}
		return err
	}
	o.display.ShowGraph(o.cache.MergedGraph())
	return nil
}

func (o *Orchestrator) runBatch(ctx context.Context, index int, b batch.Batch, metaByFile map[string]crossref.FileMetadata, frameworkHint string, startSession int64) error {
	log := o.log.WithFields(logrus.Fields{"batch": index, "files": len(b.Files)})

	var batchMeta []crossref.FileMetadata
	for _, f := range b.Files {
		if m, ok := metaByFile[f.Path]; ok {
			batchMeta = append(batchMeta, m)
		}
	}

	resp, err := o.remote.Analyze(ctx, remote.Request{
		CombinedSource: remote.CombineSource(b.Files),
		FilePaths:      b.Paths(),
		FrameworkHint:  frameworkHint,
		Metadata:       batchMeta,
	})
	if err != nil {
		if remote.IsQuotaExhausted(err) {
			return err
		}
		// Partial-failure isolation: one bad remote call must not void the
		// rest of the run.
		log.WithError(err).Warn("batch analysis failed, continuing with remaining batches")
		return nil
	}

	if !o.commit(startSession, resp.Graph, b.Files) {
		log.WithField("session", startSession).Info("discarding stale batch result")
		return nil
	}
	if !resp.Graph.IsEmpty() {
		o.display.PushIncrementalGraph(o.cache.MergedGraph())
	}
	return nil
}

// commit writes a batch result to the cache if and only if the session it
// was computed under is still live.
func (o *Orchestrator) commit(startSession int64, result graph.Workflow, files []crossref.SourceFile) bool {
	o.commitMu.Lock()
	defer o.commitMu.Unlock()
	if session.IsStale(startSession, o.sessions.Current) {
		return false
	}
	contents := make(map[string]string, len(files))
	for _, f := range files {
		contents[f.Path] = string(f.Content)
	}
	o.cache.SetAnalysisResult(result, contents)
	return true
}
