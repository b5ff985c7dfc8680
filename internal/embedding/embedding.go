// Package embedding turns encoded images into unit-length feature vectors.
//
// Two providers exist. The remote provider preprocesses the image locally and
// asks a CLIP-compatible inference service for the image features. The
// thumbnail provider runs in-process: it pools the preprocessed tensor into a
// coarse grid and projects it with a seeded Gaussian matrix, which needs no
// model weights and is fully deterministic.
//
// Both providers are safe for concurrent use.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"chronoscope-go/internal/common"
)

var (
	// ErrDecode means the input bytes are not a supported image
	ErrDecode = errors.New("image could not be decoded")
	// ErrModelUnavailable means the model failed to initialize or could not
	// serve an inference call
	ErrModelUnavailable = errors.New("embedding model unavailable")
)

// Model maps raw image bytes to an L2-normalized vector of length Dim
type Model interface {
	Embed(ctx context.Context, image []byte) ([]float32, error)
	Dim() int
	Name() string
}

// Config selects and parameterizes a provider
type Config struct {
	Provider       common.ModelProvider
	ModelName      string
	Endpoint       string
	APIToken       string
	Dim            int
	ImageSize      int
	TimeoutSeconds int
	GridSize       int
	Seed           uint64
}

func (c Config) withDefaults() Config {
	if c.ImageSize <= 0 {
		c.ImageSize = DefaultImageSize
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.GridSize <= 0 {
		c.GridSize = 16
	}
	if c.ModelName == "" {
		c.ModelName = "openai/clip-vit-base-patch32"
	}
	return c
}

// Load builds the configured provider. Any failure is reported as
// ErrModelUnavailable so callers can fall back instead of aborting.
func Load(ctx context.Context, cfg Config) (Model, error) {
	cfg = cfg.withDefaults()

	switch cfg.Provider {
	case common.ModelProviderThumbnail:
		m, err := NewThumbnailModel(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		return m, nil
	case common.ModelProviderRemote:
		m, err := NewRemoteModel(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		if err := m.Probe(ctx); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrModelUnavailable, cfg.Provider)
	}
}
