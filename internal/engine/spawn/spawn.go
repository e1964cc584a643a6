// Package spawn scatters decoration instances over a finished terrain surface.
package spawn

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/terragen/internal/engine/terrain"
)

var (
	ErrNoPrefabs     = errors.New("no prefabs configured")
	ErrInvalidChance = errors.New("spawn chance must be within [0,1]")
	ErrNoNormals     = errors.New("mesh has no vertex normals")
)

// Prefab identifies a decoration template owned by the host.
type Prefab struct {
	Name string
}

// Instance is one placed decoration.
type Instance struct {
	Prefab   Prefab
	Vertex   int        // Grid vertex the instance sits on
	Position mgl32.Vec3 // World position
	Rotation mgl32.Quat // Up aligned to the surface normal, then spun around it
}

// Up returns the instance's local up axis in world space.
func (in Instance) Up() mgl32.Vec3 {
	return in.Rotation.Rotate(mgl32.Vec3{0, 1, 0})
}

// Config holds spawn settings.
type Config struct {
	Prefabs         []Prefab
	Chance          float32
	HeightThreshold float32
	Seed            uint64
	Workers         int
}

// Spawner places decorations on vertices whose raster elevation exceeds the threshold.
type Spawner struct {
	cfg       Config
	elevation terrain.ElevationSource
}

// New validates cfg and binds it to an elevation source.
func New(cfg Config, elevation terrain.ElevationSource) (*Spawner, error) {
	if len(cfg.Prefabs) == 0 {
		return nil, ErrNoPrefabs
	}
	c := float64(cfg.Chance)
	if math.IsNaN(c) || c < 0 || c > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidChance, cfg.Chance)
	}
	return &Spawner{cfg: cfg, elevation: elevation}, nil
}

// Spawn runs one pass over every vertex of m, which must already be displaced
// and have current normals. m is only read. Results are ordered by vertex
// index and depend only on the seed, not on how the pass is split across
// workers.
func (s *Spawner) Spawn(m *terrain.Mesh) ([]Instance, error) {
	if s.elevation == nil {
		return nil, nil
	}
	if len(m.Normals) != len(m.Vertices) {
		return nil, fmt.Errorf("%w: %d normals for %d vertices", ErrNoNormals, len(m.Normals), len(m.Vertices))
	}

	slots := make([]*Instance, len(m.Vertices))
	err := terrain.ParallelRange(len(m.Vertices), s.cfg.Workers, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			if in, ok := s.evaluate(m, i); ok {
				slots[i] = &in
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []Instance
	for _, in := range slots {
		if in != nil {
			out = append(out, *in)
		}
	}
	return out, nil
}

// Candidate reports whether vertex i of m passes the elevation threshold.
func (s *Spawner) Candidate(m *terrain.Mesh, i int) bool {
	v := m.Vertices[i]
	h, ok := s.elevation.Elevation(v[0], v[2])
	return ok && h > s.cfg.HeightThreshold
}

func (s *Spawner) evaluate(m *terrain.Mesh, i int) (Instance, bool) {
	if !s.Candidate(m, i) {
		return Instance{}, false
	}

	rng := vertexRand(s.cfg.Seed, i)
	if rng.Float32() >= s.cfg.Chance {
		return Instance{}, false
	}
	prefab := s.cfg.Prefabs[rng.IntN(len(s.cfg.Prefabs))]
	angle := rng.Float32() * 360

	return Instance{
		Prefab:   prefab,
		Vertex:   i,
		Position: m.WorldPosition(i),
		Rotation: Orientation(m.Normals[i], angle),
	}, true
}

// Orientation aligns local +Y with normal, then rotates by degrees around it.
func Orientation(normal mgl32.Vec3, degrees float32) mgl32.Quat {
	up := mgl32.Vec3{0, 1, 0}
	align := mgl32.QuatBetweenVectors(up, normal)
	spin := mgl32.QuatRotate(mgl32.DegToRad(degrees), up)
	return align.Mul(spin).Normalize()
}

// vertexRand returns a generator seeded from (seed, vertex) so each vertex
// draws from its own stream.
func vertexRand(seed uint64, vertex int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, splitmix64(uint64(vertex))))
}

func splitmix64(v uint64) uint64 {
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}
