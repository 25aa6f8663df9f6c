package cliapp

import (
	"context"
	"log/slog"
	"path/filepath"

	"evmc/internal/core/config"
	"evmc/internal/core/config/helpers"
	"evmc/internal/core/watcher"
	"evmc/internal/shared/util"
)

var watchExcludeDirs = []string{".git", ".evmc"}

// watch compiles once and then recompiles the full input set after every
// debounced change until ctx is cancelled. A changed config file is reloaded
// before the rebuild; new input directories need a restart.
func (s *session) watch(ctx context.Context) error {
	s.compile(ctx, false)

	cfg := s.currentConfig()
	w, err := watcher.NewWatcher(cfg.Watch.Debounce, watchExcludeDirs, cfg.Exclude, func(paths []string) {
		s.rebuild(ctx, paths)
	})
	if err != nil {
		return err
	}
	defer w.Close()
	limiter := util.NewPerMinute(cfg.Watch.MaxRebuildsPerMinute)
	w.SetLimiter(limiter)

	roots, files := watchRoots(cfg.Inputs, s.baseDir)
	w.Track(files...)
	if err := w.Watch(roots); err != nil {
		return err
	}

	if s.configFile != "" {
		cw := config.NewWatcher(s.configFile, func(next *config.Config) {
			if s.reconfigure(next, w) {
				s.rebuild(ctx, []string{s.configFile})
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config file is not watched", "path", s.configFile, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	slog.Info("watching for changes",
		"roots", len(roots),
		"debounce", cfg.Watch.Debounce,
		"max_rebuilds_per_minute", limiter.PerMinute())
	<-ctx.Done()
	slog.Info("watch stopped")
	return nil
}

func (s *session) currentConfig() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// reconfigure installs a reloaded config with the command-line overrides
// applied again. An invalid config keeps the previous one.
func (s *session) reconfigure(next *config.Config, w *watcher.Watcher) bool {
	s.override(next)
	if err := config.Validate(next); err != nil {
		slog.Error("reloaded config rejected", "path", s.configFile, "error", err)
		return false
	}
	s.mu.Lock()
	s.cfg = next
	s.mu.Unlock()
	w.SetDebounce(next.Watch.Debounce)
	w.SetLimiter(util.NewPerMinute(next.Watch.MaxRebuildsPerMinute))
	return true
}

func (s *session) rebuild(ctx context.Context, changed []string) {
	if ctx.Err() != nil {
		return
	}
	slog.Info("change detected, recompiling", "files", len(changed))
	s.compile(ctx, false)
}

// watchRoots returns the paths to watch for the configured inputs and the
// plain input files, which trigger a rebuild whatever their extension.
func watchRoots(inputs []string, baseDir string) (roots, files []string) {
	seen := make(map[string]bool)
	for _, input := range inputs {
		path := config.ResolveRelative(baseDir, input)
		root := filepath.Dir(path)
		if helpers.HasWildcard(path) {
			root = filepath.Dir(helpers.WildcardPrefix(path) + "x")
		} else {
			files = append(files, path)
		}
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots, files
}
