package embedding

import (
	"context"
	"fmt"
	stdmath "math"
	"math/rand/v2"

	"chronoscope-go/internal/common/math"
)

// ThumbnailModel is a weight-free encoder: average-pooled grid features
// followed by a fixed random projection.
type ThumbnailModel struct {
	imageSize  int
	grid       int
	dim        int
	projection *math.Matrix32 // dim x features, nil when dim == features
}

var _ Model = (*ThumbnailModel)(nil)

func NewThumbnailModel(cfg Config) (*ThumbnailModel, error) {
	cfg = cfg.withDefaults()
	if cfg.ImageSize%cfg.GridSize != 0 {
		return nil, fmt.Errorf("image size %d is not a multiple of grid size %d", cfg.ImageSize, cfg.GridSize)
	}

	features := 3 * cfg.GridSize * cfg.GridSize
	m := &ThumbnailModel{
		imageSize: cfg.ImageSize,
		grid:      cfg.GridSize,
		dim:       cfg.Dim,
	}
	if m.dim <= 0 {
		m.dim = features
	}
	if m.dim != features {
		m.projection = gaussianProjection(m.dim, features, cfg.Seed)
	}
	return m, nil
}

func gaussianProjection(rows, cols int, seed uint64) *math.Matrix32 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	scale := 1 / stdmath.Sqrt(float64(cols))
	p := math.NewMatrix32Empty(rows, cols)
	for i := range p.Data {
		p.Data[i] = float32(rng.NormFloat64() * scale)
	}
	return p
}

func (m *ThumbnailModel) Embed(ctx context.Context, image []byte) ([]float32, error) {
	tensor, err := Preprocess(image, m.imageSize)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.EmbedTensor(tensor)
}

// EmbedTensor encodes an already preprocessed image
func (m *ThumbnailModel) EmbedTensor(t *Tensor) ([]float32, error) {
	features := m.pool(t)

	out := features
	if m.projection != nil {
		out = make([]float32, m.dim)
		for i := range out {
			out[i] = math.Dot(m.projection.Row(i), features)
		}
	}
	if math.NormalizeInPlace(out) == 0 {
		return nil, fmt.Errorf("%w: zero embedding", ErrModelUnavailable)
	}
	return out, nil
}

// pool averages each channel over grid x grid equal blocks
func (m *ThumbnailModel) pool(t *Tensor) []float32 {
	block := t.Height / m.grid
	area := float32(block * block)
	out := make([]float32, 0, t.Channels*m.grid*m.grid)
	for c := 0; c < t.Channels; c++ {
		for gy := 0; gy < m.grid; gy++ {
			for gx := 0; gx < m.grid; gx++ {
				var sum float32
				for y := gy * block; y < (gy+1)*block; y++ {
					for x := gx * block; x < (gx+1)*block; x++ {
						sum += t.At(c, y, x)
					}
				}
				out = append(out, sum/area)
			}
		}
	}
	return out
}

func (m *ThumbnailModel) Dim() int {
	return m.dim
}

func (m *ThumbnailModel) Name() string {
	return fmt.Sprintf("thumbnail-%dx%d", m.grid, m.grid)
}
