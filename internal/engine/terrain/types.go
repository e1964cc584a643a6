// Package terrain builds grid meshes and displaces them with height sources.
package terrain

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrInvalidGridDimension = errors.New("invalid grid dimension")
	ErrInvalidOctaves       = errors.New("octave count must be at least 1")
	ErrStaleSnapshot        = errors.New("snapshot does not match mesh")
	ErrNonFiniteHeight      = errors.New("height source produced a non-finite value")
)

// Mesh holds one surface's buffers. It is owned by a single surface and
// mutated only by displacement passes.
type Mesh struct {
	Width    int     // Cells along X
	Height   int     // Cells along Z
	CellSize float32 // World units per cell
	Origin   mgl32.Vec3

	Vertices []mgl32.Vec3
	Normals  []mgl32.Vec3
	UVs      []mgl32.Vec2
	Indices  []uint32
	Bounds   Bounds
}

// Bounds holds a local-space axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Stride returns the number of vertices per grid row.
func (m *Mesh) Stride() int {
	return m.Width + 1
}

// Index returns the vertex index of grid coordinate (x, z).
func (m *Mesh) Index(x, z int) int {
	return z*m.Stride() + x
}

// GridCoord returns the grid coordinate of vertex i.
func (m *Mesh) GridCoord(i int) (x, z int) {
	return i % m.Stride(), i / m.Stride()
}

// TriangleCount returns the number of triangles in the index buffer.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// WorldPosition returns vertex i translated by the surface origin.
func (m *Mesh) WorldPosition(i int) mgl32.Vec3 {
	return m.Vertices[i].Add(m.Origin)
}

// Snapshot is an immutable copy of a mesh's undisplaced vertex positions.
type Snapshot struct {
	width     int
	height    int
	positions []mgl32.Vec3
}

// Snapshot captures the current vertex positions.
// Take it right after BuildGrid, before any displacement.
func (m *Mesh) Snapshot() *Snapshot {
	positions := make([]mgl32.Vec3, len(m.Vertices))
	copy(positions, m.Vertices)
	return &Snapshot{width: m.Width, height: m.Height, positions: positions}
}

// Len returns the number of captured vertices.
func (s *Snapshot) Len() int {
	return len(s.positions)
}

// At returns the base position of vertex i.
func (s *Snapshot) At(i int) mgl32.Vec3 {
	return s.positions[i]
}

// Matches reports whether the snapshot was taken from a mesh of m's shape.
func (s *Snapshot) Matches(m *Mesh) bool {
	return s != nil && s.width == m.Width && s.height == m.Height && len(s.positions) == len(m.Vertices)
}
