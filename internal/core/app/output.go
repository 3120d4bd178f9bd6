package app

import (
	"context"
	"log/slog"
	"strings"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/hierarchy"
	"apiguard/internal/ui/report"
	"apiguard/internal/ui/report/formats"
)

var defaultOutputNames = map[string]string{
	"sarif":    "apiguard.sarif",
	"tsv":      "apiguard.tsv",
	"markdown": "apiguard.md",
	"json":     "apiguard.json",
}

// WriteOutputs renders run in each format. The summary goes to Stdout;
// every other format is written to its configured file. Written paths are
// returned in format order.
func (a *App) WriteOutputs(run *Run, formatNames []string) ([]string, error) {
	if len(formatNames) == 0 {
		formatNames = a.Config.Output.Formats
	}
	if a.Config.Output.Summary && !contains(formatNames, "summary") {
		formatNames = append([]string{"summary"}, formatNames...)
	}

	data := formats.ReportData{
		Project:     a.Config.Project,
		RunID:       run.ID,
		GeneratedAt: run.StartedAt,
		TypeCount:   run.Corpus.Len(),
		Violations:  run.Result.Violations,
		Notices:     run.Result.Notices,
		Baseline:    run.Baseline,
	}

	var written []string
	for _, name := range formatNames {
		format := strings.ToLower(strings.TrimSpace(name))
		out, err := report.Render(format, data)
		if err != nil {
			return written, apperrors.Wrap(err, apperrors.CodeValidationError, "render "+format)
		}
		if format == "summary" {
			if _, err := a.Stdout.Write(out); err != nil {
				return written, apperrors.Wrap(err, apperrors.CodeInternal, "write summary")
			}
			continue
		}
		path := a.Paths.OutputPath(a.outputName(format))
		if err := report.WriteAtomic(path, out); err != nil {
			return written, apperrors.AddContext(apperrors.Wrap(err, apperrors.CodeInternal, "write "+format), apperrors.CtxPath, path)
		}
		slog.Debug("report written", "format", format, "path", path)
		written = append(written, path)
	}
	return written, nil
}

func (a *App) outputName(format string) string {
	var configured string
	switch format {
	case "sarif":
		configured = a.Config.Output.SARIF
	case "tsv":
		configured = a.Config.Output.TSV
	case "markdown":
		configured = a.Config.Output.Markdown
	case "json":
		configured = a.Config.Output.JSON
	}
	if strings.TrimSpace(configured) != "" {
		return configured
	}
	return defaultOutputNames[format]
}

// Export writes the run's hierarchy and violations to Neo4j.
func (a *App) Export(ctx context.Context, run *Run) error {
	exp, err := a.connectExporter(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "connect exporter")
	}
	defer func() {
		if err := exp.Close(ctx); err != nil {
			slog.Warn("failed to close exporter", "error", err)
		}
	}()
	return exp.Export(ctx, hierarchy.NewGraph(run.Corpus), run.Result.Violations, run.ID, a.Config.Neo4j.Clean)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), want) {
			return true
		}
	}
	return false
}
