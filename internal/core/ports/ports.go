// Package ports declares the boundaries between the analysis pipeline and
// its persistence and export adapters.
package ports

import (
	"context"
	"time"

	"apiguard/internal/data/history"
	"apiguard/internal/engine/hierarchy"
	"apiguard/internal/engine/report"
)

// HistoryStore persists runs and compares them with earlier runs.
type HistoryStore interface {
	SaveRun(ctx context.Context, run history.Run, entries []history.Entry) (history.Run, error)
	Baseline(ctx context.Context, project, currentID string, current []history.Entry) (history.Diff, error)
	Close() error
}

// GraphExporter writes the hierarchy and violations to an external graph.
type GraphExporter interface {
	Export(ctx context.Context, g *hierarchy.Graph, violations []report.ViolationRecord, runID string, clean bool) error
	Close(ctx context.Context) error
}

// AnalyzeRequest selects the optional stages of one run.
type AnalyzeRequest struct {
	// Formats overrides output.formats when non-empty.
	Formats     []string
	Baseline    bool
	ExportNeo4j bool
}

// AnalyzeResult summarizes a completed run.
type AnalyzeResult struct {
	RunID      string
	Types      int
	Violations int
	Notices    int
	New        int
	Fixed      int
	Written    []string
	Duration   time.Duration
}

// AnalysisService is the surface driving adapters such as the CLI use.
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error)
	Watch(ctx context.Context, req AnalyzeRequest, onResult func(AnalyzeResult, error)) error
}
