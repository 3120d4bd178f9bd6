package app

import (
	"context"
	"log/slog"

	"apiguard/internal/core/ports"
	"apiguard/internal/shared/observability"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

// Analyze runs one analysis, writes its outputs and exports it when
// requested or configured.
func (s *analysisService) Analyze(ctx context.Context, req ports.AnalyzeRequest) (ports.AnalyzeResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Analyze")
	defer span.End()

	run, err := s.app.Analyze(ctx, req.Baseline)
	if err != nil {
		return ports.AnalyzeResult{}, err
	}

	res := ports.AnalyzeResult{
		RunID:      run.ID,
		Types:      run.Corpus.Len(),
		Violations: len(run.Result.Violations),
		Notices:    len(run.Result.Notices),
		Duration:   run.Duration,
	}
	if run.Baseline != nil {
		res.New = len(run.Baseline.New)
		res.Fixed = len(run.Baseline.Fixed)
	}

	written, err := s.app.WriteOutputs(run, req.Formats)
	res.Written = written
	if err != nil {
		return res, err
	}

	if req.ExportNeo4j || s.app.Config.Neo4j.Enabled {
		if err := s.app.Export(ctx, run); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Watch runs once, then again after every change of the inputs until ctx
// is done. Each outcome is passed to onResult.
func (s *analysisService) Watch(ctx context.Context, req ports.AnalyzeRequest, onResult func(ports.AnalyzeResult, error)) error {
	once := func(ctx context.Context) {
		res, err := s.Analyze(ctx, req)
		if err != nil && ctx.Err() != nil {
			slog.Debug("rerun canceled", "error", err)
			return
		}
		onResult(res, err)
	}
	once(ctx)
	return s.app.Watch(ctx, once)
}
