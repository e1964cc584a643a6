package collision

import (
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/terragen/internal/engine/terrain"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestIntersectAABB(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

	tests := []struct {
		name    string
		ray     Ray
		wantT   float32
		wantHit bool
	}{
		{"hit from outside", NewRay(mgl32.Vec3{-5, 0, 0}, mgl32.Vec3{1, 0, 0}), 4, true},
		{"start inside", NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}), 1, true},
		{"pointing away", NewRay(mgl32.Vec3{-5, 0, 0}, mgl32.Vec3{-1, 0, 0}), 0, false},
		{"parallel outside slab", NewRay(mgl32.Vec3{-5, 3, 0}, mgl32.Vec3{1, 0, 0}), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotT, hit := tt.ray.IntersectAABB(box)
			if hit != tt.wantHit {
				t.Fatalf("hit = %v, want %v", hit, tt.wantHit)
			}
			if hit && !approx(gotT, tt.wantT) {
				t.Errorf("t = %v, want %v", gotT, tt.wantT)
			}
		})
	}
}

func TestIntersectTriangle(t *testing.T) {
	a := mgl32.Vec3{0, 0, 0}
	b := mgl32.Vec3{0, 0, 1}
	c := mgl32.Vec3{1, 0, 0}
	down := mgl32.Vec3{0, -1, 0}

	if tt, ok := NewRay(mgl32.Vec3{0.25, 2, 0.25}, down).IntersectTriangle(a, b, c); !ok || !approx(tt, 2) {
		t.Errorf("inside hit = %v, %v", tt, ok)
	}
	if _, ok := NewRay(mgl32.Vec3{0.9, 2, 0.9}, down).IntersectTriangle(a, b, c); ok {
		t.Error("point outside triangle reported a hit")
	}
	if _, ok := NewRay(mgl32.Vec3{0.25, -2, 0.25}, down).IntersectTriangle(a, b, c); ok {
		t.Error("triangle behind the ray reported a hit")
	}
	if _, ok := NewRay(mgl32.Vec3{0.25, 2, 0.25}, down).IntersectTriangle(a, a, c); ok {
		t.Error("degenerate triangle reported a hit")
	}
	if _, ok := NewRay(mgl32.Vec3{-1, 0, 0.25}, mgl32.Vec3{1, 0, 0}).IntersectTriangle(a, b, c); ok {
		t.Error("ray in the triangle plane reported a hit")
	}

	// Tiny triangles still hit.
	const k = 1e-5
	if tt, ok := NewRay(mgl32.Vec3{0.25 * k, 2, 0.25 * k}, down).IntersectTriangle(a, b.Mul(k), c.Mul(k)); !ok || !approx(tt, 2) {
		t.Errorf("tiny triangle hit = %v, %v", tt, ok)
	}
}

func displacedMesh(t *testing.T, heightFn func(x, z float32) float32) *terrain.Mesh {
	t.Helper()
	m, err := terrain.BuildGrid(4, 4, 1, 0)
	if err != nil {
		t.Fatalf("BuildGrid() error = %v", err)
	}
	for i := range m.Vertices {
		v := m.Vertices[i]
		m.Vertices[i][1] = heightFn(v[0], v[2])
	}
	m.Recalculate()
	return m
}

func TestSurfaceHeightAt(t *testing.T) {
	slope := func(x, z float32) float32 { return 0.5*x + 2 }
	m := displacedMesh(t, slope)
	m.Origin = mgl32.Vec3{10, 1, -3}

	s := NewSurface()
	if _, ok := s.HeightAt(0, 0); ok {
		t.Error("unsynced surface reported a height")
	}
	s.Sync(m)

	points := [][2]float32{{0, 0}, {0.5, 0.5}, {-1.25, 1.75}, {1, 1}, {-2, -2}, {2, 2}}
	for _, p := range points {
		wx, wz := p[0]+m.Origin[0], p[1]+m.Origin[2]
		got, ok := s.HeightAt(wx, wz)
		if !ok {
			t.Errorf("HeightAt(%v, %v) missed", wx, wz)
			continue
		}
		if want := slope(p[0], p[1]) + m.Origin[1]; !approx(got, want) {
			t.Errorf("HeightAt(%v, %v) = %v, want %v", wx, wz, got, want)
		}
	}

	if _, ok := s.HeightAt(100, 100); ok {
		t.Error("point outside the surface reported a height")
	}

	n, ok := s.NormalAt(10, -3)
	want := mgl32.Vec3{-0.5, 1, 0}.Normalize()
	if !ok || !n.ApproxEqualThreshold(want, 1e-4) {
		t.Errorf("NormalAt() = %v, %v, want %v", n, ok, want)
	}
}

func TestSurfaceHeightAtCellSize(t *testing.T) {
	for _, cs := range []float32{10, 1, 0.01, 0.001, 1e-4, 1e-5} {
		m, err := terrain.BuildGrid(4, 4, cs, 2)
		if err != nil {
			t.Fatalf("BuildGrid(cellSize=%v) error = %v", cs, err)
		}
		s := NewSurface()
		s.Sync(m)

		h, ok := s.HeightAt(0.3*cs, 0.3*cs)
		if !ok || !approx(h, 2) {
			t.Errorf("cellSize %v: HeightAt() = %v, %v; want 2", cs, h, ok)
		}
		n, ok := s.NormalAt(-1.7*cs, 0.6*cs)
		if !ok || !n.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-4) {
			t.Errorf("cellSize %v: NormalAt() = %v, %v; want up", cs, n, ok)
		}
	}
}

func TestSurfaceFollowsResync(t *testing.T) {
	m := displacedMesh(t, func(x, z float32) float32 { return 1 })
	base := m.Snapshot()
	s := NewSurface()

	d := &terrain.Displacer{Source: terrain.FlatHeightSource(3), Collider: s}
	if err := d.Apply(m, base); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if h, _ := s.HeightAt(0.3, 0.3); !approx(h, 3) {
		t.Errorf("HeightAt after first pass = %v, want 3", h)
	}

	d.Source = terrain.FlatHeightSource(-2)
	d.Apply(m, base)
	if h, _ := s.HeightAt(0.3, 0.3); !approx(h, -2) {
		t.Errorf("HeightAt after second pass = %v, want -2", h)
	}
	if s.Version() != 2 {
		t.Errorf("Version() = %d, want 2", s.Version())
	}
}

func TestSurfaceRaycast(t *testing.T) {
	m := displacedMesh(t, func(x, z float32) float32 { return 0 })
	s := NewSurface()
	s.Sync(m)

	hit, ok := s.Raycast(NewRay(mgl32.Vec3{0.3, 5, -0.7}, mgl32.Vec3{0, -1, 0}), 100)
	if !ok {
		t.Fatal("Raycast missed a flat surface")
	}
	if !approx(hit.Distance, 5) || !approx(hit.Point[1], 0) {
		t.Errorf("hit = %+v, want distance 5 at y=0", hit)
	}
	if !hit.Normal.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5) {
		t.Errorf("hit normal = %v, want up", hit.Normal)
	}

	if _, ok := s.Raycast(NewRay(mgl32.Vec3{0.3, 5, -0.7}, mgl32.Vec3{0, -1, 0}), 4); ok {
		t.Error("hit beyond maxDist")
	}
	if _, ok := s.Raycast(NewRay(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, 1, 0}), 100); ok {
		t.Error("ray pointing away reported a hit")
	}
}

func TestSurfaceConcurrentQueries(t *testing.T) {
	m := displacedMesh(t, func(x, z float32) float32 { return x })
	s := NewSurface()
	s.Sync(m)

	var wg sync.WaitGroup
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				x := float32(i%40)/10 - 2
				s.HeightAt(x, float32(g)-1.5)
			}
		}()
	}
	for range 20 {
		s.Sync(m)
	}
	wg.Wait()
}
