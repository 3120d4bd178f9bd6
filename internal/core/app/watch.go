package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"apiguard/internal/core/config"
	"apiguard/internal/core/watcher"
	"apiguard/internal/shared/observability"
	"apiguard/internal/shared/util"
)

// Watch calls rerun whenever an input changes, at most once per
// watch.min_interval, until ctx is done. Changes arriving while a rerun is
// pending or in progress are coalesced into one further rerun.
func (a *App) Watch(ctx context.Context, rerun func(context.Context)) error {
	trigger := make(chan struct{}, 1)
	notify := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		func(paths []string) {
			slog.Info("inputs changed", "count", len(paths))
			notify()
		},
	)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(a.watchPaths()); err != nil {
		return err
	}

	if a.Config.Watch.ReloadConfig && a.ConfigPath != "" {
		cw := config.NewWatcher(a.ConfigPath, a.Config.Watch.Debounce, func(cfg *config.Config) {
			paths, err := config.ResolvePaths(cfg, filepath.Dir(a.ConfigPath))
			if err == nil {
				err = a.Reload(cfg, paths)
			}
			if err != nil {
				slog.Error("configuration reload rejected", "error", err)
				return
			}
			notify()
		})
		if err := cw.Start(ctx); err != nil {
			return err
		}
		defer cw.Stop()
	}

	limiter := util.NewIntervalLimiter(a.Config.Watch.MinInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			if !limiter.Allow(1) {
				observability.RerunsThrottled.Inc()
				if err := limiter.Wait(ctx, 1); err != nil {
					return nil
				}
			}
			rerun(ctx)
		}
	}
}

func (a *App) watchPaths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var paths []string
	for _, group := range [][]string{a.Paths.Classpath, a.Paths.Descriptions, a.Paths.Sources} {
		for _, p := range group {
			if _, err := os.Stat(p); err != nil {
				slog.Warn("not watching missing input", "path", p)
				continue
			}
			paths = append(paths, p)
		}
	}
	return paths
}
