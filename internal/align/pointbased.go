package align

import (
	"github.com/scanforge/mesh-tools-mcp/internal/geometry"
)

// PointBasedResult reports an alignment computed from explicit
// correspondences.
type PointBasedResult struct {
	Transform *geometry.RigidTransform `json:"-"`
	RMS       float64                  `json:"rms_error"`
	Pairs     int                      `json:"pairs"`
}

// PointBased computes the rigid transform carrying each pair's source point
// onto its target point in the least-squares sense. At least three
// non-degenerate correspondences are required; the RMS residual tells the
// caller how well the picked points actually agree.
func PointBased(pairs []geometry.PointPair) (*PointBasedResult, error) {
	tf, err := geometry.EstimateRigidTransform(pairs)
	if err != nil {
		return nil, err
	}
	return &PointBasedResult{
		Transform: tf,
		RMS:       geometry.AlignmentRMS(pairs, tf),
		Pairs:     len(pairs),
	}, nil
}
