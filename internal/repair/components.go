package repair

import (
	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
)

// RemoveIsolatedPieces deletes connected components with fewer than
// minComponentSize faces, then drops the vertices they used. Returns the
// number of faces removed.
func RemoveIsolatedPieces(m *meshio.Mesh, minComponentSize int) int {
	if minComponentSize <= 1 || len(m.Faces) == 0 {
		return 0
	}

	drop := make([]bool, len(m.Faces))
	for _, faces := range faceComponents(m) {
		if len(faces) < minComponentSize {
			for _, fi := range faces {
				drop[fi] = true
			}
		}
	}

	kept := m.Faces[:0]
	removed := 0
	for fi, f := range m.Faces {
		if drop[fi] {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept
	if removed > 0 && len(m.Faces) > 0 {
		removeUnreferencedVertices(m)
	}
	return removed
}

// faceComponents groups face indices into connected components, where faces
// are connected when they share an edge.
func faceComponents(m *meshio.Mesh) [][]int {
	edgeFaces := make(map[[2]int][]int)
	for fi, f := range m.Faces {
		edgeFaces[edgeKey(f[0], f[1])] = append(edgeFaces[edgeKey(f[0], f[1])], fi)
		edgeFaces[edgeKey(f[1], f[2])] = append(edgeFaces[edgeKey(f[1], f[2])], fi)
		edgeFaces[edgeKey(f[2], f[0])] = append(edgeFaces[edgeKey(f[2], f[0])], fi)
	}

	var comps [][]int
	visited := make([]bool, len(m.Faces))
	for seed := range m.Faces {
		if visited[seed] {
			continue
		}
		var comp []int
		queue := []int{seed}
		visited[seed] = true
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			comp = append(comp, fi)
			f := m.Faces[fi]
			for _, e := range [3][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}} {
				for _, ni := range edgeFaces[edgeKey(e[0], e[1])] {
					if !visited[ni] {
						visited[ni] = true
						queue = append(queue, ni)
					}
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// hasDirectedEdge reports whether face f contains the directed edge a->b.
func hasDirectedEdge(f [3]int, a, b int) bool {
	return (f[0] == a && f[1] == b) || (f[1] == a && f[2] == b) || (f[2] == a && f[0] == b)
}
