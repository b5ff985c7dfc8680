package embedding

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultImageSize is the square input side of ViT-B/32 CLIP
	DefaultImageSize = 224
	// maxPixels rejects decompression bombs before allocating the bitmap
	maxPixels = 64 << 20
)

// CLIP channel statistics
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Tensor is a channel-major (CHW) float image
type Tensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
}

func (t *Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.Height+y)*t.Width+x]
}

// Decode parses an encoded JPEG, PNG, GIF or WebP image
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%w: unsupported size %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

// Preprocess decodes data and produces the model input: the centered square
// of the image resized to size x size, scaled to [0,1] and normalized with
// the CLIP channel statistics.
func Preprocess(data []byte, size int) (*Tensor, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return ToTensor(img, size), nil
}

// ToTensor resizes and normalizes an already decoded image
func ToTensor(img image.Image, size int) *Tensor {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, centerSquare(img.Bounds()), draw.Src, nil)

	t := &Tensor{
		Channels: 3,
		Height:   size,
		Width:    size,
		Data:     make([]float32, 3*size*size),
	}
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			off := dst.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float32(dst.Pix[off+c]) / 255
				t.Data[c*plane+y*size+x] = (v - clipMean[c]) / clipStd[c]
			}
		}
	}
	return t
}

func centerSquare(b image.Rectangle) image.Rectangle {
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}
