package repair

import (
	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
)

// FillHoles closes boundary loops with at most maxHoleSize edges by fan
// triangulation, leaving larger holes open. When guard is set, candidate
// triangles with (numerically) zero area are skipped, which prevents the fan
// from stitching slivers across degenerate loops. Returns the number of
// holes closed.
//
// A boundary edge is an edge used by exactly one face. Loops are traced in
// the direction opposite the owning face's winding, so fill triangles come
// out oriented consistently with the surrounding surface.
func FillHoles(m *meshio.Mesh, maxHoleSize int, guard bool) int {
	if maxHoleSize < 3 || len(m.Faces) == 0 {
		return 0
	}

	edgeUse := make(map[[2]int]int)
	existing := make(map[[3]int]bool, len(m.Faces))
	for _, f := range m.Faces {
		edgeUse[edgeKey(f[0], f[1])]++
		edgeUse[edgeKey(f[1], f[2])]++
		edgeUse[edgeKey(f[2], f[0])]++
		existing[sortedTriple(f)] = true
	}

	// For each boundary directed edge a->b in a face, the hole is walked
	// b->a. A collision in next means a non-manifold boundary vertex; those
	// loops are skipped entirely.
	next := make(map[int]int)
	tainted := make(map[int]bool)
	for _, f := range m.Faces {
		for _, e := range [3][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}} {
			if edgeUse[edgeKey(e[0], e[1])] != 1 {
				continue
			}
			if _, exists := next[e[1]]; exists {
				tainted[e[1]] = true
				continue
			}
			next[e[1]] = e[0]
		}
	}

	filled := 0
	visited := make(map[int]bool)
	for start := range next {
		if visited[start] {
			continue
		}
		loop := []int{start}
		visited[start] = true
		ok := !tainted[start]
		for v := next[start]; v != start; {
			if visited[v] || tainted[v] {
				ok = false
				break
			}
			visited[v] = true
			loop = append(loop, v)
			nv, exists := next[v]
			if !exists {
				ok = false
				break
			}
			v = nv
		}
		if !ok || len(loop) < 3 || len(loop) > maxHoleSize {
			continue
		}

		// A loop whose patch would re-create an existing face is not a hole
		// but the rim of a free-standing sheet (a lone triangle is the
		// smallest case); patching it would double the geometry.
		var patch [][3]int
		rim := false
		for i := 1; i+1 < len(loop); i++ {
			face := [3]int{loop[0], loop[i], loop[i+1]}
			if existing[sortedTriple(face)] {
				rim = true
				break
			}
			if guard && triangleArea(m, face) == 0 {
				continue
			}
			patch = append(patch, face)
		}
		if rim || len(patch) == 0 {
			continue
		}
		m.Faces = append(m.Faces, patch...)
		filled++
	}
	return filled
}

func triangleArea(m *meshio.Mesh, f [3]int) float64 {
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	return b.Sub(a).Cross(c.Sub(a)).Norm() / 2
}
