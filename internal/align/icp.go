package align

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/scanforge/mesh-tools-mcp/internal/geometry"
	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
)

// ErrTooFewPoints is returned when a mesh has fewer than three vertices,
// which is not enough to constrain a rigid transform.
var ErrTooFewPoints = errors.New("alignment requires at least 3 points per mesh")

// ICPOptions configures iterative closest point registration. Distance
// values are fractions of the target bounding box diagonal.
type ICPOptions struct {
	SampleNumber        int     `json:"sample_number" yaml:"sample_number"`
	MaxIterations       int     `json:"max_iterations" yaml:"max_iterations"`
	MaxDistanceFraction float64 `json:"max_distance_fraction" yaml:"max_distance_fraction"`
	OutlierPercentile   float64 `json:"outlier_percentile" yaml:"outlier_percentile"`
	ConvergenceFraction float64 `json:"convergence_fraction" yaml:"convergence_fraction"`
}

// DefaultICPOptions returns the standard registration parameters: 2000
// sample points, up to 75 iterations, correspondences capped at 1% of the
// target diagonal with the worst 10% rejected.
func DefaultICPOptions() ICPOptions {
	return ICPOptions{
		SampleNumber:        2000,
		MaxIterations:       75,
		MaxDistanceFraction: 0.01,
		OutlierPercentile:   0.9,
		ConvergenceFraction: 1e-6,
	}
}

// ICPResult reports the registration outcome. Transform maps source
// coordinates into the target frame. RMS is the root-mean-square
// correspondence distance at the final transform, and Iterations counts the
// refinement steps actually performed.
type ICPResult struct {
	Transform  *geometry.RigidTransform `json:"-"`
	Iterations int                      `json:"iterations"`
	RMS        float64                  `json:"rms_error"`
	Converged  bool                     `json:"converged"`
}

// ICP registers source onto target starting from the identity transform.
// The meshes are not modified; apply the returned transform to commit the
// alignment. Fails when either mesh is too sparse or when no usable
// correspondences exist even at the initial pose (disjoint scans need a
// coarse pre-alignment first, e.g. PointBased).
func ICP(source, target *meshio.Mesh, opts ICPOptions) (*ICPResult, error) {
	src := sampleVertices(source.Vertices, opts.SampleNumber)
	tgt := sampleVertices(target.Vertices, opts.SampleNumber)
	if len(src) < 3 || len(tgt) < 3 {
		return nil, ErrTooFewPoints
	}

	diag := target.BoundingBox().Diagonal()
	if diag == 0 {
		return nil, fmt.Errorf("target mesh has zero extent: %w", ErrTooFewPoints)
	}
	maxDist := opts.MaxDistanceFraction * diag
	convergence := opts.ConvergenceFraction * diag

	current := geometry.IdentityTransform()
	prevRMS := math.MaxFloat64
	result := &ICPResult{Transform: current, RMS: prevRMS}

	for iter := 0; iter < opts.MaxIterations; iter++ {
		moved := applyToPoints(src, current)
		pairs, dists := findCorrespondences(moved, tgt, maxDist)
		if iter == 0 && len(pairs) < 3 {
			return nil, fmt.Errorf("no overlap between scans within %.4g units", maxDist)
		}
		pairs = rejectOutliers(pairs, dists, opts.OutlierPercentile)
		if len(pairs) < 3 {
			break
		}

		incremental, err := geometry.EstimateRigidTransform(pairs)
		if err != nil {
			// Degenerate correspondences this iteration; keep the best
			// transform found so far.
			break
		}
		next := incremental.Compose(current)

		rms := rmsToNearest(applyToPoints(src, next), tgt, maxDist)
		result.Iterations = iter + 1

		// At float-noise scale a one-ulp wobble can look like divergence, so
		// anything under the convergence threshold is accepted outright.
		if rms <= convergence {
			result.Transform = next
			result.RMS = rms
			result.Converged = true
			break
		}
		if rms > prevRMS*1.5 {
			break
		}
		current = next
		result.Transform = current
		result.RMS = rms

		if improvement := prevRMS - rms; improvement >= 0 && improvement < convergence {
			result.Converged = true
			break
		}
		prevRMS = rms
	}

	if result.RMS == math.MaxFloat64 {
		result.RMS = rmsToNearest(applyToPoints(src, current), tgt, maxDist)
	}
	return result, nil
}

// sampleVertices reduces a vertex set to at most max points by uniform
// stride sampling, preserving spatial coverage without randomness.
func sampleVertices(points []r3.Vector, max int) []r3.Vector {
	if max <= 0 || len(points) <= max {
		return points
	}
	if max == 1 {
		return points[:1]
	}
	out := make([]r3.Vector, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := range out {
		out[i] = points[int(float64(i)*step)]
	}
	return out
}

func applyToPoints(points []r3.Vector, tf *geometry.RigidTransform) []r3.Vector {
	out := make([]r3.Vector, len(points))
	for i, p := range points {
		out[i] = tf.Apply(p)
	}
	return out
}

// findCorrespondences pairs each source point with its nearest target point,
// dropping pairs farther apart than maxDist.
func findCorrespondences(src, tgt []r3.Vector, maxDist float64) ([]geometry.PointPair, []float64) {
	var pairs []geometry.PointPair
	var dists []float64
	for _, sp := range src {
		nearest, d := nearestPoint(sp, tgt)
		if d <= maxDist {
			pairs = append(pairs, geometry.PointPair{Source: sp, Target: nearest})
			dists = append(dists, d)
		}
	}
	return pairs, dists
}

func nearestPoint(p r3.Vector, candidates []r3.Vector) (r3.Vector, float64) {
	best := math.MaxFloat64
	var nearest r3.Vector
	for _, c := range candidates {
		if d := p.Sub(c).Norm2(); d < best {
			best = d
			nearest = c
		}
	}
	return nearest, math.Sqrt(best)
}

// rejectOutliers keeps correspondences at or below the given distance
// percentile. A percentile >= 1 keeps everything.
func rejectOutliers(pairs []geometry.PointPair, dists []float64, percentile float64) []geometry.PointPair {
	if len(dists) == 0 || percentile >= 1 {
		return pairs
	}
	sorted := make([]float64, len(dists))
	copy(sorted, dists)
	sort.Float64s(sorted)
	// Keep the best p fraction: ceil(n*p) pairs, at least one.
	keep := int(math.Ceil(float64(len(sorted)) * percentile))
	if keep < 1 {
		keep = 1
	}
	if keep > len(sorted) {
		keep = len(sorted)
	}
	threshold := sorted[keep-1]

	kept := pairs[:0]
	for i, d := range dists {
		if d <= threshold {
			kept = append(kept, pairs[i])
		}
	}
	return kept
}

// rmsToNearest measures root-mean-square nearest-neighbor distance over the
// points that have a neighbor within maxDist. Returns MaxFloat64 when
// nothing matches.
func rmsToNearest(src, tgt []r3.Vector, maxDist float64) float64 {
	var sum float64
	n := 0
	for _, sp := range src {
		if _, d := nearestPoint(sp, tgt); d <= maxDist {
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return math.MaxFloat64
	}
	return math.Sqrt(sum / float64(n))
}
