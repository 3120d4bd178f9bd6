package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/data/history"
	"apiguard/internal/engine/analysis"
	"apiguard/internal/engine/classpath"
	"apiguard/internal/engine/description"
	"apiguard/internal/engine/model"
	"apiguard/internal/engine/report"
	"apiguard/internal/shared/observability"
)

// Run is one completed analysis.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Corpus    *model.Corpus
	Result    *report.Result
	// Baseline is set when the run was compared with the previous stored
	// run.
	Baseline *history.Diff
}

// Analyze loads every configured input, analyses the corpus and records
// the run in history when enabled.
func (a *App) Analyze(ctx context.Context, baseline bool) (*Run, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.analyzeLocked(ctx, baseline)
}

func (a *App) analyzeLocked(ctx context.Context, baseline bool) (*Run, error) {
	if baseline && a.history == nil {
		return nil, apperrors.New(apperrors.CodeValidationError, "baseline comparison requires db.enabled")
	}

	run := &Run{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
	ctx, span := observability.Tracer.Start(ctx, "app.Analyze", trace.WithAttributes(
		attribute.String("run_id", run.ID),
		attribute.String("project", a.Config.Project),
	))
	defer span.End()

	types, descs, notices, err := a.loadInputs(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	corpus, descNotices := analysis.BuildCorpus(types, descs)
	result, err := analysis.Run(ctx, corpus, analysis.Options{
		Workers:          a.Config.Analysis.Workers,
		IntraComponent:   a.Config.Analysis.IntraComponent,
		IgnoreUnresolved: a.Config.Analysis.IgnoreUnresolved,
		Notices:          append(notices, descNotices...),
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	run.Corpus = corpus
	run.Result = result
	run.Duration = time.Since(run.StartedAt)

	if a.history != nil {
		if err := a.record(ctx, run, baseline); err != nil {
			if baseline {
				return nil, err
			}
			slog.Warn("failed to record run history", "run", run.ID, "error", err)
		}
	}
	return run, nil
}

// loadInputs collects types from the classpath, and descriptions from
// bundled files, configured files and source tags.
func (a *App) loadInputs(ctx context.Context) ([]*model.TypeDescriptor, []*description.Description, []model.Notice, error) {
	entries := make([]classpath.Entry, 0, len(a.Config.Classpath))
	for i, item := range a.Config.Classpath {
		entries = append(entries, classpath.Entry{
			Path:      a.Paths.Classpath[i],
			Component: item.Component,
			Version:   item.Version,
			Role:      item.Role,
		})
	}
	loaded, err := a.loader.Load(ctx, entries)
	if err != nil {
		return nil, nil, nil, err
	}
	notices := append([]model.Notice(nil), loaded.Notices...)
	descs := append([]*description.Description(nil), loaded.Descriptions...)

	for i, path := range a.Paths.Descriptions {
		d, err := description.Load(path)
		if err != nil {
			notices = append(notices, model.Notice{Kind: model.NoticeUnparseable, Subject: path, Reason: err.Error()})
			continue
		}
		if c := a.Config.Descriptions[i].Component; c != "" {
			d.Component = c
		}
		descs = append(descs, d)
	}

	if a.sources != nil {
		d, scanNotices, err := a.sources.Scan(ctx, a.Paths.Sources, "")
		if err != nil {
			return nil, nil, nil, err
		}
		notices = append(notices, scanNotices...)
		if d.Len() > 0 {
			descs = append(descs, d)
		}
	}

	slog.Debug("inputs loaded",
		"types", len(loaded.Types),
		"artifacts", loaded.Artifacts,
		"cache_hits", loaded.CacheHits,
		"descriptions", len(descs),
	)
	return loaded.Types, descs, notices, nil
}

func (a *App) record(ctx context.Context, run *Run, baseline bool) error {
	entries := history.EntriesFrom(run.Result.Violations)
	if _, err := a.history.SaveRun(ctx, history.Run{
		ID:          run.ID,
		Project:     a.Config.Project,
		CommitHash:  history.CommitHash(ctx, a.Paths.ProjectRoot),
		StartedAt:   run.StartedAt,
		Duration:    run.Duration,
		TypeCount:   run.Corpus.Len(),
		NoticeCount: len(run.Result.Notices),
	}, entries); err != nil {
		return err
	}
	if !baseline {
		return nil
	}
	d, err := a.history.Baseline(ctx, a.Config.Project, run.ID, entries)
	if err != nil {
		return err
	}
	run.Baseline = &d
	return nil
}
