package terrain

import (
	"fmt"

	"github.com/Faultbox/terragen/internal/engine/noise"
	"github.com/Faultbox/terragen/pkg/raster"
)

// HeightSource maps a planar sample point to a height.
type HeightSource interface {
	Sample(x, z float32) float32
}

// TimedHeightSource is a height source that also depends on elapsed time.
type TimedHeightSource interface {
	SampleAt(x, z, t float32) float32
}

// ElevationSource reports raster-derived elevation, and whether a raster is
// bound at all. Decoration placement uses it to skip unbound terrain.
type ElevationSource interface {
	Elevation(x, z float32) (float32, bool)
}

// NoiseHeightSource sums octaves of coherent noise. Octave k samples at
// Frequency*2^k with weight Amplitude*0.5^k, and the sum is scaled by
// Amplitude once more.
type NoiseHeightSource struct {
	Field     noise.Field
	Amplitude float32
	Frequency float32
	Octaves   int
}

// NewNoiseHeightSource validates the octave count and returns the source.
func NewNoiseHeightSource(field noise.Field, amplitude, frequency float32, octaves int) (*NoiseHeightSource, error) {
	if octaves < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOctaves, octaves)
	}
	return &NoiseHeightSource{
		Field:     field,
		Amplitude: amplitude,
		Frequency: frequency,
		Octaves:   octaves,
	}, nil
}

func (s *NoiseHeightSource) Sample(x, z float32) float32 {
	var sum float32
	amplitude := s.Amplitude
	frequency := s.Frequency
	for range s.Octaves {
		sum += float32(s.Field.Eval(float64(x*frequency), float64(z*frequency))) * amplitude
		frequency *= 2
		amplitude *= 0.5
	}
	return sum * s.Amplitude
}

// HeightmapHeightSource samples a grayscale raster stretched over a planar
// bounding box. Without a raster it returns a flat height of 0.
type HeightmapHeightSource struct {
	raster         *raster.Raster
	bounds         Bounds
	Amplitude      float32
	VerticalOffset float32
}

// NewHeightmapHeightSource binds r (which may be nil) to the planar extent of bounds.
func NewHeightmapHeightSource(r *raster.Raster, bounds Bounds, amplitude, verticalOffset float32) *HeightmapHeightSource {
	return &HeightmapHeightSource{
		raster:         r,
		bounds:         bounds,
		Amplitude:      amplitude,
		VerticalOffset: verticalOffset,
	}
}

// Bound reports whether a raster is attached.
func (s *HeightmapHeightSource) Bound() bool {
	return s != nil && s.raster != nil
}

// Raster returns the attached raster, or nil.
func (s *HeightmapHeightSource) Raster() *raster.Raster {
	if s == nil {
		return nil
	}
	return s.raster
}

func (s *HeightmapHeightSource) Sample(x, z float32) float32 {
	h, ok := s.Elevation(x, z)
	if !ok {
		return 0
	}
	return h
}

func (s *HeightmapHeightSource) Elevation(x, z float32) (float32, bool) {
	if !s.Bound() {
		return 0, false
	}
	return s.Grayscale(x, z)*s.Amplitude + s.VerticalOffset, true
}

// Grayscale returns the raw raster value under (x, z), or 0 when unbound.
func (s *HeightmapHeightSource) Grayscale(x, z float32) float32 {
	if !s.Bound() {
		return 0
	}
	u := InverseLerp(s.bounds.Min[0], s.bounds.Max[0], x)
	v := InverseLerp(s.bounds.Min[2], s.bounds.Max[2], z)
	return s.raster.Bilinear(u, v)
}

// FlatHeightSource returns the same height everywhere.
type FlatHeightSource float32

func (f FlatHeightSource) Sample(_, _ float32) float32 {
	return float32(f)
}

// InverseLerp maps value from [a,b] onto [0,1], clamped. A degenerate range returns 0.
func InverseLerp(a, b, value float32) float32 {
	if a == b {
		return 0
	}
	return clampf((value-a)/(b-a), 0, 1)
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
