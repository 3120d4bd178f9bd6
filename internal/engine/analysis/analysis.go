// Package analysis runs the restriction checks over a corpus: it builds
// the hierarchy, creates the run-scoped resolver and scans every consumer
// type on a bounded worker pool.
package analysis

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/description"
	"apiguard/internal/engine/hierarchy"
	"apiguard/internal/engine/model"
	"apiguard/internal/engine/report"
	"apiguard/internal/engine/restriction"
	"apiguard/internal/engine/scanner"
	"apiguard/internal/shared/observability"
)

type Options struct {
	Workers          int
	IntraComponent   bool
	IgnoreUnresolved []string
	// Notices from earlier stages (loading, descriptions) are carried into
	// the result.
	Notices []model.Notice
}

// BuildCorpus applies descriptions to loaded types and indexes them.
// Unmatched description entries are returned as notices.
func BuildCorpus(types []*model.TypeDescriptor, descs []*description.Description) (*model.Corpus, []model.Notice) {
	applied, notices := description.Apply(types, descs)
	c := model.NewCorpus(applied)
	if n := c.Shadowed(); n > 0 {
		slog.Debug("shadowed duplicate types", "count", n)
	}
	return c, notices
}

// Run analyses the corpus. Nothing but cancellation aborts a run; on
// cancellation partial results are discarded.
func Run(ctx context.Context, corpus *model.Corpus, opts Options) (*report.Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysis.Run", trace.WithAttributes(
		attribute.Int("types", corpus.Len()),
	))
	defer span.End()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	graph := hierarchy.NewGraph(corpus)
	observability.HierarchyNodes.Set(float64(graph.NodeCount()))
	observability.HierarchyEdges.Set(float64(graph.EdgeCount()))

	col := report.NewCollector()
	col.Add(nil, opts.Notices)
	col.Add(nil, cycleNotices(graph))
	if missing := graph.Missing(); len(missing) > 0 {
		slog.Debug("supertypes missing from classpath", "count", len(missing))
	}
	observability.AnalysisDuration.WithLabelValues("hierarchy").Observe(time.Since(start).Seconds())

	resolver := restriction.NewResolver(corpus, graph, restriction.Options{IntraComponent: opts.IntraComponent})
	sc, err := scanner.New(resolver, scanner.Options{IgnoreUnresolved: opts.IgnoreUnresolved})
	if err != nil {
		return nil, err
	}

	scanStart := time.Now()
	consumers := corpus.Consumers()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, t := range consumers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			col.Add(sc.Scan(t))
			observability.TypesScanned.Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeCanceled, "analysis canceled")
	}
	observability.AnalysisDuration.WithLabelValues("scan").Observe(time.Since(scanStart).Seconds())

	res := col.Result()
	for _, v := range res.Violations {
		observability.ViolationsTotal.WithLabelValues(v.Kind.String()).Inc()
	}
	for _, n := range res.Notices {
		observability.NoticesTotal.WithLabelValues(n.Kind.String()).Inc()
	}
	span.SetAttributes(
		attribute.Int("consumers", len(consumers)),
		attribute.Int("violations", len(res.Violations)),
		attribute.Int("notices", len(res.Notices)),
	)
	slog.Info("analysis complete",
		"consumers", len(consumers),
		"violations", len(res.Violations),
		"notices", len(res.Notices),
		"cached", resolver.CacheLen(),
		"duration", time.Since(start),
	)
	return res, nil
}

func cycleNotices(g *hierarchy.Graph) []model.Notice {
	var out []model.Notice
	for _, cycle := range g.DetectCycles() {
		out = append(out, model.Notice{
			Kind:    model.NoticeCycle,
			Subject: strings.Join(append(cycle, cycle[0]), " -> "),
			Reason:  "supertype cycle; traversal stops at revisited types",
		})
	}
	return out
}
