// Package raster provides grayscale heightmap rasters with bilinear sampling.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	ErrInvalidRaster     = errors.New("invalid raster")
	ErrUnsupportedFormat = errors.New("unsupported raster format")
)

// Raster is a read-only grid of grayscale samples in [0,1].
// Row 0 is v=0, which is the bottom row of the source image.
type Raster struct {
	Width  int
	Height int
	Pix    []float32
}

// New creates a raster from row-major samples (row 0 = v=0).
func New(width, height int, pix []float32) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidRaster, width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("%w: expected %d samples, got %d", ErrInvalidRaster, width*height, len(pix))
	}
	samples := make([]float32, len(pix))
	for i, p := range pix {
		samples[i] = clamp01(p)
	}
	return &Raster{Width: width, Height: height, Pix: samples}, nil
}

// Uniform creates a raster where every sample has the same value.
func Uniform(width, height int, value float32) (*Raster, error) {
	pix := make([]float32, width*height)
	for i := range pix {
		pix[i] = value
	}
	return New(width, height, pix)
}

// FromImage converts an image to a grayscale raster.
// The image's top row becomes the last raster row.
func FromImage(img image.Image) (*Raster, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidRaster)
	}

	pix := make([]float32, w*h)
	for y := range h {
		row := h - 1 - y
		for x := range w {
			pix[row*w+x] = Grayscale(img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return &Raster{Width: w, Height: h, Pix: pix}, nil
}

// Grayscale returns the perceptual luminance of c in [0,1].
func Grayscale(c color.Color) float32 {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return 0
	}
	if r == g && g == b {
		return clamp01(float32(r) / float32(a))
	}
	// Un-premultiply so translucent pixels keep their gray level.
	rf := float32(r) / float32(a)
	gf := float32(g) / float32(a)
	bf := float32(b) / float32(a)
	return clamp01(0.299*rf + 0.587*gf + 0.114*bf)
}

// At returns the sample at texel (x, y), clamped to the raster edges.
func (r *Raster) At(x, y int) float32 {
	x = clampi(x, 0, r.Width-1)
	y = clampi(y, 0, r.Height-1)
	return r.Pix[y*r.Width+x]
}

// Bilinear samples the raster at normalized coordinates (u, v).
// The four corners map exactly onto the corner texels; out-of-range
// coordinates are clamped to the edge.
func (r *Raster) Bilinear(u, v float32) float32 {
	fx := clamp01(u) * float32(r.Width-1)
	fy := clamp01(v) * float32(r.Height-1)

	x0 := int(fx)
	y0 := int(fy)
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	// Bottom edge (lower v): lerp along u
	bottom := r.At(x0, y0)*(1-tx) + r.At(x0+1, y0)*tx
	// Top edge (higher v)
	top := r.At(x0, y0+1)*(1-tx) + r.At(x0+1, y0+1)*tx

	return bottom*(1-ty) + top*ty
}

// Max returns the largest sample in the raster.
func (r *Raster) Max() float32 {
	var m float32
	for _, p := range r.Pix {
		if p > m {
			m = p
		}
	}
	return m
}

// Image renders the raster back to an 8-bit grayscale image (top row = highest v).
func (r *Raster) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	for y := range r.Height {
		row := r.Height - 1 - y
		for x := range r.Width {
			img.SetGray(x, y, color.Gray{Y: uint8(r.Pix[row*r.Width+x]*255 + 0.5)})
		}
	}
	return img
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
