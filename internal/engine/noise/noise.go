// Package noise provides seeded 2D coherent noise fields normalized to [0,1].
package noise

import (
	"errors"
	"fmt"
	"strings"

	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

var ErrUnknownNoise = errors.New("unknown noise kind")

// Kind names accepted by New.
const (
	KindPerlin  = "perlin"
	KindSimplex = "simplex"
)

// Field is a smooth, deterministic 2D noise function.
// Eval returns values in [0,1] and is safe for concurrent use.
type Field interface {
	Eval(x, z float64) float64
}

// New creates a field of the given kind.
func New(kind string, seed int64) (Field, error) {
	switch strings.ToLower(kind) {
	case "", KindPerlin:
		return NewPerlin(seed), nil
	case KindSimplex:
		return NewSimplex(seed), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNoise, kind)
	}
}

// Perlin is gradient noise from a single go-perlin layer.
type Perlin struct {
	p *perlin.Perlin
}

// NewPerlin creates a Perlin field. Octave layering is left to the caller,
// so the underlying generator runs one layer.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{p: perlin.NewPerlin(2, 2, 1, seed)}
}

// Eval remaps the raw [-1,1] gradient noise onto [0,1].
func (n *Perlin) Eval(x, z float64) float64 {
	return clamp01(0.5 + 0.5*n.p.Noise2D(x, z))
}

// Simplex is OpenSimplex noise.
type Simplex struct {
	s opensimplex.Noise
}

// NewSimplex creates a normalized OpenSimplex field.
func NewSimplex(seed int64) *Simplex {
	return &Simplex{s: opensimplex.NewNormalized(seed)}
}

func (n *Simplex) Eval(x, z float64) float64 {
	return clamp01(n.s.Eval2(x, z))
}

// Flat is a constant field, mostly useful in tests.
type Flat float64

func (f Flat) Eval(_, _ float64) float64 {
	return float64(f)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
