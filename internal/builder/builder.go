// Package builder computes the landmark snapshot offline from labelled
// reference photos.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"chronoscope-go/internal/embedding"
	"chronoscope-go/internal/landmark"
)

var ErrEmptyBatch = errors.New("no image in the batch could be embedded")

// Item is one labelled reference photo
type Item struct {
	Path     string
	Landmark string
}

// Report summarizes a build
type Report struct {
	Total    int
	Embedded int
	Skipped  []Skipped
}

type Skipped struct {
	Item  Item
	Error error
}

type Builder struct {
	model   embedding.Model
	workers int
}

// New creates a builder. workers <= 0 uses GOMAXPROCS.
func New(model embedding.Model, workers int) *Builder {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Builder{model: model, workers: workers}
}

// Build embeds every item, skipping unreadable or undecodable images.
// The catalog keeps the input order of the items that succeeded. An
// unavailable model aborts the batch.
func (b *Builder) Build(ctx context.Context, items []Item) (*landmark.Catalog, *Report, error) {
	vectors := make([][]float32, len(items))
	failures := make([]error, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, item := range items {
		g.Go(func() error {
			data, err := os.ReadFile(item.Path)
			if err != nil {
				failures[i] = err
				return nil
			}
			vec, err := b.model.Embed(gctx, data)
			switch {
			case err == nil:
				vectors[i] = vec
			case errors.Is(err, embedding.ErrModelUnavailable):
				return fmt.Errorf("embedding %s: %w", item.Path, err)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				failures[i] = err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	report := &Report{Total: len(items)}
	catalog := &landmark.Catalog{}
	for i, item := range items {
		if failures[i] != nil {
			slog.Warn("Skipping image", "path", item.Path, "landmark", item.Landmark, "error", failures[i])
			report.Skipped = append(report.Skipped, Skipped{Item: item, Error: failures[i]})
			continue
		}
		catalog.Append(item.Landmark, vectors[i])
	}
	report.Embedded = catalog.Len()

	if catalog.Len() == 0 {
		return nil, report, ErrEmptyBatch
	}

	slog.Info("Built landmark catalog", "embedded", report.Embedded, "skipped", len(report.Skipped),
		"model", b.model.Name(), "dim", catalog.Dim())
	return catalog, report, nil
}
