package repair

import (
	"github.com/golang/geo/r3"

	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
)

// RemoveDuplicateFaces deletes faces that reference the same vertex triple
// as an earlier face, regardless of winding. Returns the number removed.
func RemoveDuplicateFaces(m *meshio.Mesh) int {
	seen := make(map[[3]int]struct{}, len(m.Faces))
	kept := m.Faces[:0]
	removed := 0
	for _, f := range m.Faces {
		key := sortedTriple(f)
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, f)
	}
	m.Faces = kept
	return removed
}

// RemoveDuplicateVertices merges vertices with exactly identical coordinates,
// drops faces that collapse in the process, and removes vertices no face
// references. Point clouds (no faces) only get the coordinate merge, since
// every point is then "unreferenced". Returns the number of vertices removed.
func RemoveDuplicateVertices(m *meshio.Mesh) int {
	before := len(m.Vertices)

	// Merge coincident coordinates.
	index := make(map[r3.Vector]int, len(m.Vertices))
	remap := make([]int, len(m.Vertices))
	var verts []r3.Vector
	var normals []r3.Vector
	keepNormals := len(m.VertexNormals) == len(m.Vertices)
	for i, v := range m.Vertices {
		if j, ok := index[v]; ok {
			remap[i] = j
			continue
		}
		index[v] = len(verts)
		remap[i] = len(verts)
		verts = append(verts, v)
		if keepNormals {
			normals = append(normals, m.VertexNormals[i])
		}
	}
	m.Vertices = verts
	if keepNormals {
		m.VertexNormals = normals
	} else {
		m.VertexNormals = nil
	}

	kept := m.Faces[:0]
	for _, f := range m.Faces {
		g := [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
		if g[0] == g[1] || g[1] == g[2] || g[0] == g[2] {
			continue // collapsed by the merge
		}
		kept = append(kept, g)
	}
	m.Faces = kept

	if len(m.Faces) > 0 {
		removeUnreferencedVertices(m)
	}
	return before - len(m.Vertices)
}

// removeUnreferencedVertices drops vertices no face uses and compacts the
// index space.
func removeUnreferencedVertices(m *meshio.Mesh) int {
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		used[f[0]] = true
		used[f[1]] = true
		used[f[2]] = true
	}

	remap := make([]int, len(m.Vertices))
	keepNormals := len(m.VertexNormals) == len(m.Vertices)
	var verts, normals []r3.Vector
	for i, v := range m.Vertices {
		if !used[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(verts)
		verts = append(verts, v)
		if keepNormals {
			normals = append(normals, m.VertexNormals[i])
		}
	}
	removed := len(m.Vertices) - len(verts)
	m.Vertices = verts
	if keepNormals {
		m.VertexNormals = normals
	}
	for i, f := range m.Faces {
		m.Faces[i] = [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
	return removed
}

func sortedTriple(f [3]int) [3]int {
	a, b, c := f[0], f[1], f[2]
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return [3]int{a, b, c}
}

// edgeKey returns an undirected edge identifier.
func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
