package cmd

import (
	"context"
	"fmt"

	"specsync/internal/config"
	"specsync/internal/engine"
	"specsync/internal/logging"
)

// withEngine runs fn against a started engine and shuts it down afterward.
// One-shot commands disable the file watcher; only `specsync watch` runs it.
func withEngine(fn func(ctx context.Context, eng *engine.Engine) error) error {
	return withEngineWatch(false, fn)
}

func withEngineWatch(watchFiles bool, fn func(ctx context.Context, eng *engine.Engine) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Watch.Enabled = watchFiles

	log, err := logging.NewLogger(cfg.Logging.Path, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer log.Close()

	eng, err := engine.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	ctx := context.Background()
	if err := eng.Start(ctx, projectName()); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer eng.Stop()

	return fn(ctx, eng)
}
