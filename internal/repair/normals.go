package repair

import (
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
)

// pointCloudNeighbors is the neighborhood size for point-cloud normal
// estimation.
const pointCloudNeighbors = 12

// FixNormals makes face windings coherent across each connected component
// and recomputes per-vertex normals. When flipOutward is set, components
// whose coherent orientation encloses negative volume are flipped so normals
// point outward. For point clouds (no faces), normals are estimated from a
// local plane fit instead. Returns the number of faces whose winding
// changed.
func FixNormals(m *meshio.Mesh, flipOutward bool) int {
	if len(m.Faces) == 0 {
		if len(m.Vertices) > 0 {
			estimatePointCloudNormals(m)
		}
		return 0
	}

	flipped := reorientCoherently(m)
	if flipOutward {
		flipped += flipInwardComponents(m)
	}
	computeVertexNormals(m)
	return flipped
}

// reorientCoherently breadth-first walks face adjacency (shared edges) and
// flips any face whose winding disagrees with the face it was reached from.
// Two adjacent faces agree when their shared edge runs in opposite
// directions. Edges shared by more than two faces are not crossed.
func reorientCoherently(m *meshio.Mesh) int {
	edgeFaces := make(map[[2]int][]int)
	for fi, f := range m.Faces {
		edgeFaces[edgeKey(f[0], f[1])] = append(edgeFaces[edgeKey(f[0], f[1])], fi)
		edgeFaces[edgeKey(f[1], f[2])] = append(edgeFaces[edgeKey(f[1], f[2])], fi)
		edgeFaces[edgeKey(f[2], f[0])] = append(edgeFaces[edgeKey(f[2], f[0])], fi)
	}

	flipped := 0
	visited := make([]bool, len(m.Faces))
	for seed := range m.Faces {
		if visited[seed] {
			continue
		}
		queue := []int{seed}
		visited[seed] = true
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			f := m.Faces[fi]
			for _, e := range [3][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}} {
				adj := edgeFaces[edgeKey(e[0], e[1])]
				if len(adj) != 2 {
					continue
				}
				for _, ni := range adj {
					if ni == fi || visited[ni] {
						continue
					}
					if hasDirectedEdge(m.Faces[ni], e[0], e[1]) {
						// Same direction on the shared edge: inconsistent.
						m.Faces[ni][1], m.Faces[ni][2] = m.Faces[ni][2], m.Faces[ni][1]
						flipped++
					}
					visited[ni] = true
					queue = append(queue, ni)
				}
			}
		}
	}
	return flipped
}

// flipInwardComponents flips every face of components whose signed volume is
// negative, i.e. coherently wound but facing inward.
func flipInwardComponents(m *meshio.Mesh) int {
	comps := faceComponents(m)
	flipped := 0
	for _, faces := range comps {
		var vol float64
		for _, fi := range faces {
			f := m.Faces[fi]
			a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
			vol += a.Dot(b.Cross(c)) / 6
		}
		if vol < 0 {
			for _, fi := range faces {
				m.Faces[fi][1], m.Faces[fi][2] = m.Faces[fi][2], m.Faces[fi][1]
			}
			flipped += len(faces)
		}
	}
	return flipped
}

// computeVertexNormals accumulates area-weighted face normals per vertex.
func computeVertexNormals(m *meshio.Mesh) {
	normals := make([]r3.Vector, len(m.Vertices))
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		n := b.Sub(a).Cross(c.Sub(a)) // length encodes 2x area
		normals[f[0]] = normals[f[0]].Add(n)
		normals[f[1]] = normals[f[1]].Add(n)
		normals[f[2]] = normals[f[2]].Add(n)
	}
	for i, n := range normals {
		if l := n.Norm(); l > 0 {
			normals[i] = n.Mul(1 / l)
		}
	}
	m.VertexNormals = normals
}

// estimatePointCloudNormals fits a plane to each point's nearest neighbors
// and uses the plane normal (smallest singular vector of the centered
// neighborhood). Orientation is disambiguated toward the cloud centroid's
// outside. Brute-force neighbor search: fine for tool-sized clouds, O(n^2)
// like the rest of the repair heuristics.
func estimatePointCloudNormals(m *meshio.Mesh) {
	n := len(m.Vertices)
	k := pointCloudNeighbors
	if k >= n {
		k = n - 1
	}
	if k < 2 {
		m.VertexNormals = make([]r3.Vector, n)
		return
	}

	var centroid r3.Vector
	for _, v := range m.Vertices {
		centroid = centroid.Add(v)
	}
	centroid = centroid.Mul(1 / float64(n))

	normals := make([]r3.Vector, n)
	type neighbor struct {
		dist float64
		idx  int
	}
	for i, p := range m.Vertices {
		nbrs := make([]neighbor, 0, n-1)
		for j, q := range m.Vertices {
			if j == i {
				continue
			}
			nbrs = append(nbrs, neighbor{dist: p.Sub(q).Norm2(), idx: j})
		}
		sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].dist < nbrs[b].dist })

		var mean r3.Vector
		for _, nb := range nbrs[:k] {
			mean = mean.Add(m.Vertices[nb.idx])
		}
		mean = mean.Add(p).Mul(1 / float64(k+1))

		data := make([]float64, 0, (k+1)*3)
		for _, nb := range append(nbrs[:k:k], neighbor{idx: i}) {
			d := m.Vertices[nb.idx].Sub(mean)
			data = append(data, d.X, d.Y, d.Z)
		}

		var svd mat.SVD
		if ok := svd.Factorize(mat.NewDense(k+1, 3, data), mat.SVDThin); !ok {
			continue
		}
		var v mat.Dense
		svd.VTo(&v)
		normal := r3.Vector{X: v.At(0, 2), Y: v.At(1, 2), Z: v.At(2, 2)}
		if normal.Dot(p.Sub(centroid)) < 0 {
			normal = normal.Mul(-1)
		}
		normals[i] = normal
	}
	m.VertexNormals = normals
}
