package matcher

import (
	"context"
	"fmt"
	"log/slog"

	"chronoscope-go/internal/embedding"
	"chronoscope-go/internal/snapshot"
)

type Config struct {
	Model        embedding.Config
	SnapshotPath string
}

// Bootstrap loads the model and the snapshot and builds the index. It never
// fails: any load or build error yields a DEGRADED matcher.
func Bootstrap(ctx context.Context, cfg Config, opts ...Option) *Matcher {
	model, err := embedding.Load(ctx, cfg.Model)
	if err != nil {
		return degraded(err, opts)
	}

	catalog, err := snapshot.Load(cfg.SnapshotPath)
	if err != nil {
		return degraded(fmt.Errorf("loading snapshot %s: %w", cfg.SnapshotPath, err), opts)
	}

	m, err := New(model, catalog, opts...)
	if err != nil {
		return degraded(err, opts)
	}

	slog.Info("Landmark matcher ready", "model", model.Name(), "dim", model.Dim(), "entries", m.CatalogSize())
	return m
}

func degraded(err error, opts []Option) *Matcher {
	slog.Error("Landmark matcher running in degraded mode", "error", err)
	return NewDegraded(err, opts...)
}
