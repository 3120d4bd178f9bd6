package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"apiguard/internal/core/app"
	"apiguard/internal/core/config"
	"apiguard/internal/core/ports"
	"apiguard/internal/shared/observability"
	"apiguard/internal/shared/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code: 0 on
// success, 1 when violations fail the run, 2 on errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("apiguard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath      = fs.String("config", "./apiguard.toml", "Path to config file")
		once            = fs.Bool("once", false, "Run a single analysis and exit (default unless -watch)")
		watch           = fs.Bool("watch", false, "Re-run the analysis whenever inputs change")
		verbose         = fs.Bool("verbose", false, "Enable verbose logging")
		showVersion     = fs.Bool("version", false, "Print version and exit")
		formatList      = fs.String("format", "", "Comma separated output formats, overriding output.formats")
		baseline        = fs.Bool("baseline", false, "Compare with the previous run stored in history (enables db)")
		exportNeo4j     = fs.Bool("export-neo4j", false, "Export the hierarchy and violations to Neo4j")
		failOnViolation = fs.Bool("fail-on-violation", false, "Exit with status 1 when violations are found")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "apiguard %s\n", version.Version)
		return 0
	}
	if *once && *watch {
		fmt.Fprintln(stderr, "-once and -watch cannot be used together")
		return 2
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		return 2
	}
	if *baseline {
		cfg.DB.Enabled = true
	}
	if *failOnViolation {
		cfg.Analysis.FailOnViolation = true
	}
	paths, err := config.ResolvePaths(cfg, filepath.Dir(*configPath))
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		return 2
	}

	if obs := cfg.Observability; obs.Enabled {
		if obs.EnableTracing {
			shutdown, err := observability.InitTracing(ctx, obs.OTLPEndpoint)
			if err != nil {
				slog.Error("failed to initialize tracing", "error", err)
				return 2
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					slog.Warn("failed to flush traces", "error", err)
				}
			}()
		}
		if obs.EnableMetrics {
			go func() {
				if err := observability.ServeMetrics(ctx, obs.Port); err != nil {
					slog.Error("metrics server stopped", "error", err)
				}
			}()
		}
	}

	a, err := app.New(cfg, paths)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 2
	}
	defer a.Close()
	a.Stdout = stdout
	a.ConfigPath = *configPath

	req := ports.AnalyzeRequest{
		Formats:     splitFormats(*formatList),
		Baseline:    *baseline,
		ExportNeo4j: *exportNeo4j,
	}
	svc := a.AnalysisService()

	if *watch {
		err := svc.Watch(ctx, req, func(res ports.AnalyzeResult, err error) {
			if err != nil {
				slog.Error("analysis failed", "error", err)
				return
			}
			logResult(res)
		})
		if err != nil {
			slog.Error("watch failed", "error", err)
			return 2
		}
		return 0
	}

	res, err := svc.Analyze(ctx, req)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return 2
	}
	logResult(res)
	if cfg.Analysis.FailOnViolation && res.Violations > 0 {
		return 1
	}
	return 0
}

func splitFormats(list string) []string {
	var out []string
	for _, f := range strings.Split(list, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func logResult(res ports.AnalyzeResult) {
	slog.Info("analysis complete",
		"run", res.RunID,
		"types", res.Types,
		"violations", res.Violations,
		"notices", res.Notices,
		"new", res.New,
		"fixed", res.Fixed,
		"written", len(res.Written),
		"duration", res.Duration,
	)
}
