// Package app wires configuration, classpath loading, description sources,
// the analysis engine and the output adapters into runs.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"apiguard/internal/core/config"
	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/core/ports"
	"apiguard/internal/data/export"
	"apiguard/internal/data/history"
	"apiguard/internal/engine/classfile"
	"apiguard/internal/engine/classpath"
	"apiguard/internal/engine/tags"
)

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	// ConfigPath enables configuration reload in watch mode.
	ConfigPath string
	// Stdout receives the summary format.
	Stdout io.Writer

	// mu serializes runs and guards the components rebuilt on reload.
	mu      sync.Mutex
	loader  *classpath.Loader
	sources *tags.Scanner
	history ports.HistoryStore

	connectExporter func(ctx context.Context) (ports.GraphExporter, error)
}

func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	if cfg == nil {
		return nil, apperrors.New(apperrors.CodeValidationError, "config is required")
	}
	a := &App{
		Config: cfg,
		Paths:  paths,
		Stdout: os.Stdout,
	}
	if err := a.build(); err != nil {
		return nil, err
	}

	if cfg.DB.Enabled {
		store, err := history.Open(paths.DBPath, cfg.DB.BusyTimeout)
		if err != nil {
			return nil, apperrors.AddContext(apperrors.Wrap(err, apperrors.CodeInternal, "open history"), apperrors.CtxPath, paths.DBPath)
		}
		a.history = store
	}

	a.connectExporter = func(ctx context.Context) (ports.GraphExporter, error) {
		n := a.Config.Neo4j
		exp, err := export.Connect(ctx, n.URI, n.User, n.Password)
		if err != nil {
			return nil, err
		}
		return exp, nil
	}
	return a, nil
}

// build creates the loader and the source scanner from the current
// configuration.
func (a *App) build() error {
	cfg := a.Config
	rules := make([]classpath.Rule, 0, len(cfg.Restricted))
	for _, r := range cfg.Restricted {
		rules = append(rules, classpath.Rule{Component: r.Component, Versions: r.Versions})
	}
	compiled, err := classpath.NewRules(rules)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeValidationError, "restricted rules")
	}

	exclude := excludePatterns(cfg.Exclude)
	loader, err := classpath.NewLoader(classpath.Options{
		Workers:   cfg.Analysis.LoadWorkers,
		Class:     classfile.Options{AnnotationPackage: cfg.Analysis.AnnotationPackage},
		Rules:     compiled,
		Exclude:   exclude,
		CacheSize: cfg.Analysis.ParseCacheSize,
	})
	if err != nil {
		return err
	}

	var sources *tags.Scanner
	if len(a.Paths.Sources) > 0 {
		sources, err = tags.NewScanner(tags.Options{
			AnnotationPackage: cfg.Analysis.AnnotationPackage,
			Workers:           cfg.Analysis.LoadWorkers,
			Exclude:           exclude,
		})
		if err != nil {
			return err
		}
	}

	a.loader = loader
	a.sources = sources
	return nil
}

// excludePatterns turns directory and file name globs into path globs
// matching at any depth.
func excludePatterns(ex config.Exclude) []string {
	out := make([]string, 0, 2*(len(ex.Dirs)+len(ex.Files)))
	for _, p := range append(append([]string(nil), ex.Dirs...), ex.Files...) {
		if p == "" {
			continue
		}
		out = append(out, p, "**/"+p)
	}
	return out
}

// Reload swaps in a new configuration. A failed rebuild keeps the previous
// configuration.
func (a *App) Reload(cfg *config.Config, paths config.ResolvedPaths) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	prevCfg, prevPaths := a.Config, a.Paths
	a.Config, a.Paths = cfg, paths
	if err := a.build(); err != nil {
		a.Config, a.Paths = prevCfg, prevPaths
		return err
	}
	return nil
}

func (a *App) Close() error {
	if a == nil || a.history == nil {
		return nil
	}
	return a.history.Close()
}
