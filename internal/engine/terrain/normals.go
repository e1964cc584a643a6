package terrain

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Recalculate rebuilds normals and bounds from the current positions.
// Call it after every change to Vertices.
func (m *Mesh) Recalculate() {
	m.RecalculateNormals()
	m.RecalculateBounds()
}

// RecalculateNormals sets each vertex normal to the normalized sum of the
// face normals of the triangles that use it. Faces are unnormalized cross
// products, so larger triangles weigh more.
func (m *Mesh) RecalculateNormals() {
	if len(m.Normals) != len(m.Vertices) {
		m.Normals = make([]mgl32.Vec3, len(m.Vertices))
	} else {
		clear(m.Normals)
	}

	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		face := faceNormal(m.Vertices[a], m.Vertices[b], m.Vertices[c])
		m.Normals[a] = m.Normals[a].Add(face)
		m.Normals[b] = m.Normals[b].Add(face)
		m.Normals[c] = m.Normals[c].Add(face)
	}

	for i := range m.Normals {
		m.Normals[i] = normalize(m.Normals[i])
	}
}

// RecalculateBounds recomputes the local bounding box.
func (m *Mesh) RecalculateBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = Bounds{}
		return
	}
	b := Bounds{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		updateBounds(&b, v)
	}
	m.Bounds = b
}

// faceNormal returns the unnormalized normal of triangle (a, b, c).
// With the grid's winding this points toward +Y on a flat surface.
func faceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	return b.Sub(a).Cross(c.Sub(a))
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 0.0001 {
		return mgl32.Vec3{0, 1, 0}
	}
	return mgl32.Vec3{v[0] / l, v[1] / l, v[2] / l}
}

func updateBounds(b *Bounds, p mgl32.Vec3) {
	for axis := range 3 {
		if p[axis] < b.Min[axis] {
			b.Min[axis] = p[axis]
		}
		if p[axis] > b.Max[axis] {
			b.Max[axis] = p[axis]
		}
	}
}
