package terrain

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ValidateGrid checks grid dimensions without building anything.
func ValidateGrid(width, height int, cellSize float32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d cells", ErrInvalidGridDimension, width, height)
	}
	cs := float64(cellSize)
	if cellSize <= 0 || math.IsNaN(cs) || math.IsInf(cs, 0) {
		return fmt.Errorf("%w: cell size %v", ErrInvalidGridDimension, cellSize)
	}
	return nil
}

// BuildGrid creates a flat grid of width x height cells centered on the origin.
// All vertices start at yOffset.
func BuildGrid(width, height int, cellSize, yOffset float32) (*Mesh, error) {
	if err := ValidateGrid(width, height, cellSize); err != nil {
		return nil, err
	}

	m := &Mesh{
		Width:    width,
		Height:   height,
		CellSize: cellSize,
	}
	m.Vertices = buildVertices(width, height, cellSize, yOffset)
	m.Indices = buildTriangles(width, height)
	m.UVs = buildUVs(width, height)
	m.Recalculate()

	return m, nil
}

func buildVertices(width, height int, cellSize, yOffset float32) []mgl32.Vec3 {
	offsetX := float32(width) * cellSize * 0.5
	offsetZ := float32(height) * cellSize * 0.5

	vertices := make([]mgl32.Vec3, (width+1)*(height+1))
	i := 0
	for z := 0; z <= height; z++ {
		for x := 0; x <= width; x++ {
			vertices[i] = mgl32.Vec3{
				float32(x)*cellSize - offsetX,
				yOffset,
				float32(z)*cellSize - offsetZ,
			}
			i++
		}
	}
	return vertices
}

// buildTriangles emits two triangles per cell. vert skips one extra step at
// the end of each row so it stays aligned with the (width+1) row stride.
func buildTriangles(width, height int) []uint32 {
	indices := make([]uint32, width*height*6)
	w := uint32(width)

	var vert uint32
	tris := 0
	for z := 0; z < height; z++ {
		for x := 0; x < width; x++ {
			indices[tris+0] = vert
			indices[tris+1] = vert + w + 1
			indices[tris+2] = vert + 1

			indices[tris+3] = vert + 1
			indices[tris+4] = vert + w + 1
			indices[tris+5] = vert + w + 2

			vert++
			tris += 6
		}
		vert++
	}
	return indices
}

// buildUVs maps each vertex to its integer grid coordinate so textures tile once per cell.
func buildUVs(width, height int) []mgl32.Vec2 {
	uvs := make([]mgl32.Vec2, (width+1)*(height+1))
	i := 0
	for z := 0; z <= height; z++ {
		for x := 0; x <= width; x++ {
			uvs[i] = mgl32.Vec2{float32(x), float32(z)}
			i++
		}
	}
	return uvs
}
