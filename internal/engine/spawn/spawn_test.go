package spawn

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/terragen/internal/engine/terrain"
	"github.com/Faultbox/terragen/pkg/raster"
)

var testPrefabs = []Prefab{{Name: "pine"}, {Name: "rock"}, {Name: "bush"}}

// groundWith builds a displaced grid and the heightmap source used to displace it.
func groundWith(t *testing.T, w, h int, r *raster.Raster, amplitude, yLevel float32) (*terrain.Mesh, *terrain.HeightmapHeightSource) {
	t.Helper()
	m, err := terrain.BuildGrid(w, h, 1, yLevel)
	if err != nil {
		t.Fatalf("BuildGrid() error = %v", err)
	}
	src := terrain.NewHeightmapHeightSource(r, m.Bounds, amplitude, yLevel)
	if err := (&terrain.Displacer{Source: src}).Apply(m, m.Snapshot()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	return m, src
}

func uniform(t *testing.T, v float32) *raster.Raster {
	t.Helper()
	r, err := raster.Uniform(2, 2, v)
	if err != nil {
		t.Fatalf("raster.Uniform() error = %v", err)
	}
	return r
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Chance: 0.5}, nil); !errors.Is(err, ErrNoPrefabs) {
		t.Errorf("empty prefabs error = %v, want ErrNoPrefabs", err)
	}
	for _, c := range []float32{-0.1, 1.5, float32(math.NaN())} {
		if _, err := New(Config{Prefabs: testPrefabs, Chance: c}, nil); !errors.Is(err, ErrInvalidChance) {
			t.Errorf("chance %v error = %v, want ErrInvalidChance", c, err)
		}
	}
}

func TestSpawnRequiresNormals(t *testing.T) {
	m, src := groundWith(t, 4, 4, uniform(t, 1), 1, 0)
	m.Normals = nil

	s, err := New(Config{Prefabs: testPrefabs, Chance: 1, HeightThreshold: 0.5}, src)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Spawn(m); !errors.Is(err, ErrNoNormals) {
		t.Errorf("Spawn() error = %v, want ErrNoNormals", err)
	}
	if m.Normals != nil {
		t.Error("Spawn() wrote normals into the mesh")
	}
}

func TestSpawnChanceConverges(t *testing.T) {
	// 316x316 cells = 100489 vertices, all above the threshold.
	m, src := groundWith(t, 316, 316, uniform(t, 1), 1, 0)

	const chance = 0.3
	s, err := New(Config{Prefabs: testPrefabs, Chance: chance, HeightThreshold: 0.5, Seed: 2024, Workers: 4}, src)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out, err := s.Spawn(m)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	n := len(m.Vertices)
	frac := float64(len(out)) / float64(n)
	if math.Abs(frac-chance) > 0.01 {
		t.Errorf("spawned fraction = %.4f over %d candidates, want %.2f ± 0.01", frac, n, chance)
	}

	counts := map[string]int{}
	for _, in := range out {
		counts[in.Prefab.Name]++
	}
	for _, p := range testPrefabs {
		share := float64(counts[p.Name]) / float64(len(out))
		if math.Abs(share-1.0/3) > 0.02 {
			t.Errorf("prefab %s share = %.3f, want ~0.333", p.Name, share)
		}
	}
}

func TestSpawnZeroChance(t *testing.T) {
	m, src := groundWith(t, 20, 20, uniform(t, 1), 5, 0)
	s, _ := New(Config{Prefabs: testPrefabs, Chance: 0, HeightThreshold: -100}, src)
	out, err := s.Spawn(m)
	if err != nil || len(out) != 0 {
		t.Errorf("Spawn() = %d instances, %v; want none", len(out), err)
	}
}

func TestSpawnThresholdAboveMax(t *testing.T) {
	// Max achievable height is 1*3 + 2 = 5.
	m, src := groundWith(t, 20, 20, uniform(t, 1), 3, 2)
	s, _ := New(Config{Prefabs: testPrefabs, Chance: 1, HeightThreshold: 5}, src)
	out, _ := s.Spawn(m)
	if len(out) != 0 {
		t.Errorf("Spawn() = %d instances, want 0 when threshold equals max height", len(out))
	}
}

func TestSpawnWithoutRaster(t *testing.T) {
	m, src := groundWith(t, 10, 10, nil, 3, 2)
	s, _ := New(Config{Prefabs: testPrefabs, Chance: 1, HeightThreshold: -1000}, src)
	out, err := s.Spawn(m)
	if err != nil || len(out) != 0 {
		t.Errorf("Spawn() without raster = %d instances, %v; want none", len(out), err)
	}
}

func TestSpawnThresholdSelectsHighGround(t *testing.T) {
	// Left column dark, right column white: only the right half qualifies.
	r, _ := raster.New(2, 1, []float32{0, 1})
	m, src := groundWith(t, 10, 4, r, 10, 0)
	s, _ := New(Config{Prefabs: testPrefabs, Chance: 1, HeightThreshold: 6}, src)

	out, _ := s.Spawn(m)
	if len(out) == 0 {
		t.Fatal("expected spawns on the bright side")
	}
	for _, in := range out {
		if in.Position[1] <= 6 {
			t.Errorf("instance at %v is below the threshold", in.Position)
		}
	}
}

func TestSpawnDeterministicAcrossWorkers(t *testing.T) {
	m, src := groundWith(t, 80, 80, uniform(t, 0.8), 2, 0)
	cfg := Config{Prefabs: testPrefabs, Chance: 0.4, HeightThreshold: 0, Seed: 77}

	cfg.Workers = 1
	serial, _ := New(cfg, src)
	a, _ := serial.Spawn(m)

	cfg.Workers = 8
	parallel, _ := New(cfg, src)
	b, _ := parallel.Spawn(m)

	if len(a) != len(b) {
		t.Fatalf("serial spawned %d, parallel %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("instance %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}

	cfg.Seed = 78
	other, _ := New(cfg, src)
	c, _ := other.Spawn(m)
	if len(c) == len(a) && len(a) > 0 && c[0] == a[0] && c[len(c)-1] == a[len(a)-1] {
		t.Error("different seeds produced the same placement")
	}
}

func TestSpawnPlacementAndOrientation(t *testing.T) {
	r, _ := raster.New(2, 2, []float32{0, 1, 0, 1})
	m, src := groundWith(t, 6, 6, r, 3, 1)
	m.Origin = mgl32.Vec3{100, 5, -50}

	s, _ := New(Config{Prefabs: testPrefabs, Chance: 1, HeightThreshold: -1, Seed: 3}, src)
	out, err := s.Spawn(m)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if len(out) != len(m.Vertices) {
		t.Fatalf("spawned %d, want every vertex (%d)", len(out), len(m.Vertices))
	}
	for _, in := range out {
		if want := m.Vertices[in.Vertex].Add(m.Origin); in.Position != want {
			t.Errorf("vertex %d position = %v, want %v", in.Vertex, in.Position, want)
		}
		if up := in.Up(); !up.ApproxEqualThreshold(m.Normals[in.Vertex], 1e-4) {
			t.Errorf("vertex %d up = %v, want normal %v", in.Vertex, up, m.Normals[in.Vertex])
		}
	}
}

func TestOrientation(t *testing.T) {
	up := mgl32.Vec3{0, 1, 0}
	tests := []struct {
		name   string
		normal mgl32.Vec3
		angle  float32
	}{
		{"flat", up, 0},
		{"flat spun", up, 90},
		{"tilted", mgl32.Vec3{1, 1, 0}.Normalize(), 45},
		{"steep", mgl32.Vec3{0, 0.2, -1}.Normalize(), 300},
		{"upside down", mgl32.Vec3{0, -1, 0}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Orientation(tt.normal, tt.angle)
			if got := q.Rotate(up); !got.ApproxEqualThreshold(tt.normal, 1e-4) {
				t.Errorf("rotated up = %v, want %v", got, tt.normal)
			}
		})
	}

	// On flat ground the spin shows up as a yaw of the local forward axis.
	fwd := Orientation(up, 90).Rotate(mgl32.Vec3{0, 0, 1})
	if !fwd.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("forward after 90° spin = %v, want +X", fwd)
	}
}
