package align

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/scanforge/mesh-tools-mcp/internal/geometry"
	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
)

// Global registers a set of scans into a common frame. The first mesh
// anchors the frame and gets the identity transform; every following mesh is
// registered by ICP against the reference cloud accumulated from the scans
// aligned before it, so later scans benefit from the coverage of earlier
// ones. Results are index-aligned with the input.
//
// The input meshes are not modified. Scans are expected to roughly overlap
// their predecessors; a scan with no overlap fails the whole registration.
func Global(meshes []*meshio.Mesh, opts ICPOptions) ([]*ICPResult, error) {
	if len(meshes) < 2 {
		return nil, fmt.Errorf("global registration needs at least 2 meshes, got %d", len(meshes))
	}
	for i, m := range meshes {
		if m.VertexCount() < 3 {
			return nil, fmt.Errorf("mesh %d: %w", i, ErrTooFewPoints)
		}
	}

	results := make([]*ICPResult, len(meshes))
	results[0] = &ICPResult{Transform: geometry.IdentityTransform(), Converged: true}

	reference := append([]r3.Vector(nil), sampleVertices(meshes[0].Vertices, opts.SampleNumber)...)

	for i := 1; i < len(meshes); i++ {
		refMesh := &meshio.Mesh{Vertices: reference}
		res, err := ICP(meshes[i], refMesh, opts)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		results[i] = res

		for _, p := range sampleVertices(meshes[i].Vertices, opts.SampleNumber) {
			reference = append(reference, res.Transform.Apply(p))
		}
	}
	return results, nil
}
