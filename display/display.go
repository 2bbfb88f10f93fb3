// Package display is the rendering collaborator boundary. The pipeline
// pushes graphs here fire-and-forget; what happens to them afterwards is the
// surface's concern.
package display

import (
	"github.com/sirupsen/logrus"

	"github.com/michaelzixizhou/codag-sub002/graph"
)

// Display receives merged workflow graphs from the pipeline.
type Display interface {
	// ShowGraph presents the final merged graph for a run.
	ShowGraph(g graph.Workflow)
	// PushIncrementalGraph delivers a mid-run update. Each push carries the
	// full merged view so pushes are idempotent and order-independent.
	PushIncrementalGraph(g graph.Workflow)
}

// LogDisplay writes graph summaries to the log; the default when no real
// rendering surface is attached.
type LogDisplay struct {
	log *logrus.Entry
}

// NewLogDisplay returns a logging display.
func NewLogDisplay() *LogDisplay {
	return &LogDisplay{log: logrus.WithField("component", "display")}
}

func (d *LogDisplay) ShowGraph(g graph.Workflow) {
	if g.IsEmpty() {
		d.log.Info("no workflow data found")
		return
	}
	d.log.WithFields(logrus.Fields{"nodes": len(g.Nodes), "edges": len(g.Edges)}).Info("workflow graph ready")
}

func (d *LogDisplay) PushIncrementalGraph(g graph.Workflow) {
	d.log.WithFields(logrus.Fields{"nodes": len(g.Nodes), "edges": len(g.Edges)}).Debug("incremental graph update")
}
