package meshio

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/scanforge/mesh-tools-mcp/internal/geometry"
)

// Mesh is an indexed triangle mesh. Faces index into Vertices; a mesh with
// no faces is treated as a point cloud. VertexNormals, when present, is
// parallel to Vertices.
type Mesh struct {
	Vertices      []r3.Vector
	Faces         [][3]int
	VertexNormals []r3.Vector
}

// BoundingBox is an axis-aligned box around a mesh.
type BoundingBox struct {
	Min r3.Vector `json:"min"`
	Max r3.Vector `json:"max"`
}

// Diagonal returns the length of the box diagonal, the scale reference used
// for ICP correspondence distance caps.
func (b BoundingBox) Diagonal() float64 {
	return b.Max.Sub(b.Min).Norm()
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// FaceCount returns the number of triangle faces.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// BoundingBox computes the axis-aligned bounds of the vertex set. A mesh
// with no vertices gets a zero box.
func (m *Mesh) BoundingBox() BoundingBox {
	if len(m.Vertices) == 0 {
		return BoundingBox{}
	}
	box := BoundingBox{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		if v.X < box.Min.X {
			box.Min.X = v.X
		}
		if v.Y < box.Min.Y {
			box.Min.Y = v.Y
		}
		if v.Z < box.Min.Z {
			box.Min.Z = v.Z
		}
		if v.X > box.Max.X {
			box.Max.X = v.X
		}
		if v.Y > box.Max.Y {
			box.Max.Y = v.Y
		}
		if v.Z > box.Max.Z {
			box.Max.Z = v.Z
		}
	}
	return box
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices: make([]r3.Vector, len(m.Vertices)),
		Faces:    make([][3]int, len(m.Faces)),
	}
	copy(out.Vertices, m.Vertices)
	copy(out.Faces, m.Faces)
	if m.VertexNormals != nil {
		out.VertexNormals = make([]r3.Vector, len(m.VertexNormals))
		copy(out.VertexNormals, m.VertexNormals)
	}
	return out
}

// ApplyTransform moves every vertex (and rotates every normal) by the given
// rigid transform, in place.
func (m *Mesh) ApplyTransform(tf *geometry.RigidTransform) {
	for i, v := range m.Vertices {
		m.Vertices[i] = tf.Apply(v)
	}
	if len(m.VertexNormals) > 0 {
		// Normals rotate but do not translate.
		rotOnly := &geometry.RigidTransform{R: tf.R}
		for i, n := range m.VertexNormals {
			m.VertexNormals[i] = rotOnly.Apply(n)
		}
	}
}

// Validate checks that all face indices are in range.
func (m *Mesh) Validate() error {
	for fi, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("face %d references vertex %d, mesh has %d vertices", fi, idx, len(m.Vertices))
			}
		}
	}
	return nil
}
