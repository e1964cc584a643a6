package terrain

import (
	"fmt"
	"math"
)

// Policy selects how a sampled height combines with the base vertex.
type Policy int

const (
	// Replace sets the vertical coordinate to the sampled height (ground).
	Replace Policy = iota
	// Additive adds the sampled height to the base vertical coordinate (debug noise ground).
	Additive
)

func (p Policy) String() string {
	switch p {
	case Replace:
		return "replace"
	case Additive:
		return "additive"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Collider receives the geometry of a solid surface after every change.
type Collider interface {
	Sync(m *Mesh)
}

// Displacer applies a height source to a mesh.
type Displacer struct {
	Source   HeightSource
	Policy   Policy
	Collider Collider // nil for non-solid surfaces
	Workers  int
}

// Apply recomputes every vertex height from the snapshot. Planar coordinates
// come from the snapshot unchanged, so repeated calls with the same inputs
// produce the same buffer. Normals and bounds are rebuilt and the collider,
// if any, is synced.
func (d *Displacer) Apply(m *Mesh, base *Snapshot) error {
	if !base.Matches(m) {
		return ErrStaleSnapshot
	}

	err := ParallelRange(len(m.Vertices), d.Workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			v := base.At(i)
			h := d.Source.Sample(v[0], v[2])
			if isNonFinite(h) {
				return fmt.Errorf("%w: vertex %d at (%v, %v)", ErrNonFiniteHeight, i, v[0], v[2])
			}

			switch d.Policy {
			case Additive:
				v[1] += h
			default:
				v[1] = h
			}
			m.Vertices[i] = v
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.Recalculate()
	if d.Collider != nil {
		d.Collider.Sync(m)
	}
	return nil
}

func isNonFinite(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}
