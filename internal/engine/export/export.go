// Package export writes finished surfaces and decorations to disk for
// inspection in external tools.
package export

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/terragen/internal/engine/spawn"
	"github.com/Faultbox/terragen/internal/engine/terrain"
)

// Exporter writes files into one output directory.
type Exporter struct {
	outputDir string
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{outputDir: dir}
}

// OutputDir returns the target directory.
func (e *Exporter) OutputDir() string {
	return e.outputDir
}

func (e *Exporter) create(name string) (*os.File, string, error) {
	if e.outputDir != "" {
		if err := os.MkdirAll(e.outputDir, 0755); err != nil {
			return nil, "", fmt.Errorf("creating output dir: %w", err)
		}
	}
	path := filepath.Join(e.outputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("creating file: %w", err)
	}
	return f, path, nil
}

func (e *Exporter) write(name string, fn func(io.Writer) error) (string, error) {
	f, path, err := e.create(name)
	if err != nil {
		return "", err
	}
	if err := fn(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// Mesh writes m as <name>.obj and returns the file path.
func (e *Exporter) Mesh(name string, m *terrain.Mesh) (string, error) {
	return e.write(name+".obj", func(w io.Writer) error {
		return WriteOBJ(w, name, m)
	})
}

// HeightPreview writes the vertex heights of m as <name>_height.png.
func (e *Exporter) HeightPreview(name string, m *terrain.Mesh) (string, error) {
	return e.write(name+"_height.png", func(w io.Writer) error {
		if err := png.Encode(w, HeightImage(m)); err != nil {
			return fmt.Errorf("encoding PNG: %w", err)
		}
		return nil
	})
}

// Decorations writes placed instances as <name>.yaml.
func (e *Exporter) Decorations(name string, instances []spawn.Instance) (string, error) {
	return e.write(name+".yaml", func(w io.Writer) error {
		return WriteDecorations(w, instances)
	})
}

// WriteOBJ encodes m as a Wavefront OBJ object in world space. UVs are the
// grid coordinates and faces keep the mesh winding.
func WriteOBJ(w io.Writer, name string, m *terrain.Mesh) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %dx%d cells, cell size %g\n", m.Width, m.Height, m.CellSize)
	fmt.Fprintf(bw, "o %s\n", name)
	for i := range m.Vertices {
		p := m.WorldPosition(i)
		fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
	}
	for _, uv := range m.UVs {
		fmt.Fprintf(bw, "vt %g %g\n", uv[0], uv[1])
	}
	for _, n := range m.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
	}
	for t := 0; t+2 < len(m.Indices); t += 3 {
		// OBJ indices are 1-based.
		a, b, c := m.Indices[t]+1, m.Indices[t+1]+1, m.Indices[t+2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing OBJ: %w", err)
	}
	return nil
}

// HeightImage renders one pixel per vertex, scaled from the mesh's vertical
// bounds to the full 16-bit range. The image's bottom row is z = 0, matching
// how heightmaps are read back. A flat mesh renders black.
func HeightImage(m *terrain.Mesh) *image.Gray16 {
	stride := m.Stride()
	rows := m.Height + 1
	img := image.NewGray16(image.Rect(0, 0, stride, rows))

	lo, hi := m.Bounds.Min[1], m.Bounds.Max[1]
	for z := 0; z < rows; z++ {
		y := rows - 1 - z // Flip so +Z points up
		for x := 0; x < stride; x++ {
			g := terrain.InverseLerp(lo, hi, m.Vertices[m.Index(x, z)][1])
			v := uint16(g*65535 + 0.5)
			off := y*img.Stride + x*2
			img.Pix[off] = uint8(v >> 8)
			img.Pix[off+1] = uint8(v)
		}
	}
	return img
}

type decorationDoc struct {
	Prefab   string     `yaml:"prefab"`
	Vertex   int        `yaml:"vertex"`
	Position [3]float32 `yaml:"position,flow"`
	Rotation [4]float32 `yaml:"rotation,flow"` // w, x, y, z
}

// WriteDecorations encodes instances as a YAML sequence.
func WriteDecorations(w io.Writer, instances []spawn.Instance) error {
	docs := make([]decorationDoc, len(instances))
	for i, in := range instances {
		q := in.Rotation
		docs[i] = decorationDoc{
			Prefab:   in.Prefab.Name,
			Vertex:   in.Vertex,
			Position: [3]float32(in.Position),
			Rotation: [4]float32{q.W, q.V[0], q.V[1], q.V[2]},
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encoding decorations: %w", err)
	}
	return enc.Close()
}
