// Package embeddingtest provides synthetic images and a scripted model for tests.
package embeddingtest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
)

// SolidPNG encodes a w x h image filled with c
func SolidPNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return encodePNG(img)
}

// GradientPNG encodes a horizontal gradient tinted by c, which gives
// different embeddings for different tints
func GradientPNG(w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f := float64(x) / float64(max(w-1, 1))
			img.Set(x, y, color.RGBA{
				R: uint8(float64(c.R) * f),
				G: uint8(float64(c.G) * (1 - f)),
				B: uint8(float64(c.B) * float64(y) / float64(max(h-1, 1))),
				A: 255,
			})
		}
	}
	return encodePNG(img)
}

// GradientJPEG is GradientPNG encoded as JPEG
func GradientJPEG(w, h int, c color.RGBA) []byte {
	img, _ := png.Decode(bytes.NewReader(GradientPNG(w, h, c)))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// StubModel returns scripted vectors or errors keyed by the image bytes.
// Err, when set, is returned for every call.
type StubModel struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Errors  map[string]error
	Err     error
	Calls   int
	Dims    int
}

func (m *StubModel) Embed(ctx context.Context, image []byte) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if err, ok := m.Errors[string(image)]; ok {
		return nil, err
	}
	v, ok := m.Vectors[string(image)]
	if !ok {
		return make([]float32, m.Dims), nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, nil
}

func (m *StubModel) Dim() int {
	return m.Dims
}

func (m *StubModel) Name() string {
	return "stub"
}
