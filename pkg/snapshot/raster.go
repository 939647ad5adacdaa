package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

// DefaultScale is the upscale factor applied when rasterizing a region.
const DefaultScale = 2.0

// DefaultMaxPixels bounds the canvas allocated for a single snapshot.
const DefaultMaxPixels = 64 << 20

// PNGContentType is the media type of degraded raster exports.
const PNGContentType = "image/png"

// Rasterizer paints a region onto a white RGBA canvas at a given scale.
type Rasterizer struct {
	MaxPixels  int
	Background color.Color
}

// NewRasterizer returns a rasterizer with the default pixel budget.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{MaxPixels: DefaultMaxPixels, Background: color.White}
}

// Rasterize draws region at scale. A region that panics while drawing
// yields an error rather than unwinding into the caller.
func (r *Rasterizer) Rasterize(ctx context.Context, region domain.Region, scale float64) (img image.Image, err error) {
	if !domain.Attached(region) {
		return nil, ErrDetached
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = DefaultScale
	}

	bounds := region.Bounds()
	w := int(math.Ceil(float64(bounds.Dx()) * scale))
	h := int(math.Ceil(float64(bounds.Dy()) * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: region has no area", ErrInvalidLayout)
	}
	maxPixels := r.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if int64(w)*int64(h) > int64(maxPixels) {
		return nil, fmt.Errorf("region of %dx%d pixels exceeds the %d pixel limit", w, h, maxPixels)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := r.Background
	if bg == nil {
		bg = color.White
	}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("region draw panicked: %v", p)
		}
	}()
	if err := region.Draw(canvas, scale); err != nil {
		return nil, fmt.Errorf("draw region: %w", err)
	}
	return canvas, nil
}

// EncodePNG encodes img with fast compression.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// crop returns the rows [y0, y1) of img, sharing pixels when possible.
func crop(img image.Image, y0, y1 int) image.Image {
	b := img.Bounds()
	rect := image.Rect(b.Min.X, b.Min.Y+y0, b.Max.X, b.Min.Y+y1)
	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}
