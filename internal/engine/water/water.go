// Package water animates grid surfaces with time-driven noise waves.
package water

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/terragen/internal/engine/noise"
	"github.com/Faultbox/terragen/internal/engine/terrain"
)

var ErrNoField = errors.New("wave field requires a noise source")

// Config holds wave settings.
type Config struct {
	Amplitude float32
	Frequency float32
	Speed     float32
}

// Field is a pair of counter-propagating noise layers. Layer A runs at
// Frequency with phase +t*Speed; layer B at Frequency/2 with phase -t*Speed.
type Field struct {
	A, B noise.Field
	Config
}

// NewField creates a wave field. b may be nil, in which case a drives both layers.
func NewField(cfg Config, a, b noise.Field) (*Field, error) {
	if a == nil {
		return nil, ErrNoField
	}
	if b == nil {
		b = a
	}
	return &Field{A: a, B: b, Config: cfg}, nil
}

// SampleAt returns the wave offset at (x, z) after t seconds.
func (f *Field) SampleAt(x, z, t float32) float32 {
	phase := t * f.Speed
	fa := f.Frequency
	fb := f.Frequency / 2

	a := f.A.Eval(float64(x*fa+phase), float64(z*fa+phase))
	b := f.B.Eval(float64(x*fb-phase), float64(z*fb-phase))
	return float32(a+b) * f.Amplitude
}

// Tracker supplies the world position used for proximity gating.
type Tracker interface {
	Position() mgl32.Vec3
}

// Point is a fixed Tracker.
type Point mgl32.Vec3

func (p Point) Position() mgl32.Vec3 {
	return mgl32.Vec3(p)
}

// Animator re-evaluates a water surface from its base snapshot on every call.
type Animator struct {
	mesh    *terrain.Mesh
	base    *terrain.Snapshot
	source  terrain.TimedHeightSource
	tracker Tracker
	halfW   float32
	workers int
}

// Option configures an Animator.
type Option func(*Animator)

// WithTracker enables proximity gating against t.
func WithTracker(t Tracker) Option {
	return func(a *Animator) {
		a.tracker = t
	}
}

// WithWorkers sets how many goroutines a pass may use.
func WithWorkers(n int) Option {
	return func(a *Animator) {
		a.workers = n
	}
}

// NewAnimator binds source to mesh. base must be the snapshot taken right after the grid was built.
func NewAnimator(m *terrain.Mesh, base *terrain.Snapshot, source terrain.TimedHeightSource, opts ...Option) (*Animator, error) {
	if !base.Matches(m) {
		return nil, terrain.ErrStaleSnapshot
	}
	if source == nil {
		return nil, ErrNoField
	}
	a := &Animator{
		mesh:   m,
		base:   base,
		source: source,
		// Integer halving of the cell count: odd widths round the range down.
		halfW: float32(m.Width/2) * m.CellSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Range returns the half-width of the square gating region.
func (a *Animator) Range() float32 {
	return a.halfW
}

// InRange reports whether the tracker's planar position lies within the
// gating square around the surface origin. Without a tracker it is always true.
func (a *Animator) InRange() bool {
	if a.tracker == nil {
		return true
	}
	p := a.tracker.Position()
	o := a.mesh.Origin
	return p[0] >= o[0]-a.halfW && p[0] <= o[0]+a.halfW &&
		p[2] >= o[2]-a.halfW && p[2] <= o[2]+a.halfW
}

// Animate displaces the surface for elapsed time t. It reports false and
// leaves the buffers untouched when the tracker is out of range. A non-finite
// height stops the pass with terrain.ErrNonFiniteHeight before it is written;
// vertices already processed keep their new heights.
func (a *Animator) Animate(t float32) (bool, error) {
	if !a.InRange() {
		return false, nil
	}

	m := a.mesh
	err := terrain.ParallelRange(len(m.Vertices), a.workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			v := a.base.At(i)
			y := v[1] + a.source.SampleAt(v[0], v[2], t)
			if f := float64(y); math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: vertex %d at (%v, %v)", terrain.ErrNonFiniteHeight, i, v[0], v[2])
			}
			v[1] = y
			m.Vertices[i] = v
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("animating water: %w", err)
	}

	m.Recalculate()
	return true, nil
}
