package collision

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/terragen/internal/engine/terrain"
)

// Hit describes a ray hit on the surface.
type Hit struct {
	Point    mgl32.Vec3 // World-space hit point
	Normal   mgl32.Vec3 // Face normal of the hit triangle
	Distance float32
	Triangle int
}

// Surface is the authoritative collision shape of a solid terrain mesh.
// It keeps its own copy of the geometry so queries stay consistent while
// the mesh is being displaced. Safe for concurrent use.
type Surface struct {
	mu       sync.RWMutex
	vertices []mgl32.Vec3 // World space
	indices  []uint32
	bounds   AABB
	width    int
	height   int
	cellSize float32
	version  uint64
}

// NewSurface creates an empty collision surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Sync replaces the collision geometry with the mesh's current vertices.
func (s *Surface) Sync(m *terrain.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cap(s.vertices) < len(m.Vertices) {
		s.vertices = make([]mgl32.Vec3, len(m.Vertices))
	}
	s.vertices = s.vertices[:len(m.Vertices)]
	for i, v := range m.Vertices {
		s.vertices[i] = v.Add(m.Origin)
	}
	s.indices = append(s.indices[:0], m.Indices...)
	s.bounds = AABB{Min: m.Bounds.Min.Add(m.Origin), Max: m.Bounds.Max.Add(m.Origin)}
	s.width = m.Width
	s.height = m.Height
	s.cellSize = m.CellSize
	s.version++
}

// Version increments on every Sync. Zero means the surface was never synced.
func (s *Surface) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Bounds returns the world-space bounding box.
func (s *Surface) Bounds() AABB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// Raycast returns the closest hit within maxDist.
func (s *Surface) Raycast(r Ray, maxDist float32) (Hit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.indices) == 0 {
		return Hit{}, false
	}
	if _, ok := r.IntersectAABB(s.bounds); !ok {
		return Hit{}, false
	}

	best := Hit{Distance: float32(math.MaxFloat32), Triangle: -1}
	for tri := 0; tri*3+2 < len(s.indices); tri++ {
		a, b, c := s.triangle(tri)
		t, ok := r.IntersectTriangle(a, b, c)
		if !ok || t > maxDist || t >= best.Distance {
			continue
		}
		best = Hit{
			Point:    r.At(t),
			Normal:   b.Sub(a).Cross(c.Sub(a)).Normalize(),
			Distance: t,
			Triangle: tri,
		}
	}
	if best.Triangle < 0 {
		return Hit{}, false
	}
	return best, true
}

// HeightAt returns the surface height under world position (x, z).
// It only tests the two triangles of the grid cell containing the point.
func (s *Surface) HeightAt(x, z float32) (float32, bool) {
	hit, ok := s.groundHit(x, z)
	if !ok {
		return 0, false
	}
	return hit.Point[1], true
}

// NormalAt returns the face normal under world position (x, z).
func (s *Surface) NormalAt(x, z float32) (mgl32.Vec3, bool) {
	hit, ok := s.groundHit(x, z)
	if !ok {
		return mgl32.Vec3{}, false
	}
	return hit.Normal, true
}

func (s *Surface) groundHit(x, z float32) (Hit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.indices) == 0 || s.cellSize <= 0 {
		return Hit{}, false
	}
	if x < s.bounds.Min[0] || x > s.bounds.Max[0] || z < s.bounds.Min[2] || z > s.bounds.Max[2] {
		return Hit{}, false
	}

	cellX := clampi(int((x-s.bounds.Min[0])/s.cellSize), 0, s.width-1)
	cellZ := clampi(int((z-s.bounds.Min[2])/s.cellSize), 0, s.height-1)

	// Cast down from above the box so the hit is the top of the surface.
	origin := mgl32.Vec3{x, s.bounds.Max[1] + 1, z}
	ray := Ray{Origin: origin, Direction: mgl32.Vec3{0, -1, 0}}

	first := (cellZ*s.width + cellX) * 2
	for tri := first; tri < first+2; tri++ {
		a, b, c := s.triangle(tri)
		if t, ok := ray.IntersectTriangle(a, b, c); ok {
			return Hit{
				Point:    ray.At(t),
				Normal:   b.Sub(a).Cross(c.Sub(a)).Normalize(),
				Distance: t,
				Triangle: tri,
			}, true
		}
	}
	return Hit{}, false
}

func (s *Surface) triangle(tri int) (a, b, c mgl32.Vec3) {
	i := tri * 3
	return s.vertices[s.indices[i]], s.vertices[s.indices[i+1]], s.vertices[s.indices[i+2]]
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
