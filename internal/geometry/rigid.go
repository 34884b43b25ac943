package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrInsufficientCorrespondences is returned when fewer than three point
// pairs are supplied. Three non-collinear pairs are the theoretical minimum
// for a unique rotation; callers aligning real scans should supply four or
// more well-distributed, non-coplanar pairs for numerical robustness.
var ErrInsufficientCorrespondences = errors.New("at least 3 point correspondences are required")

// ErrDegenerateGeometry is returned when the correspondences are coincident
// or collinear, leaving the rotation axis underdetermined. The estimator
// rejects such input instead of returning an unstable matrix.
var ErrDegenerateGeometry = errors.New("degenerate correspondences: rotation is underdetermined")

// Singular values below rankTolerance times the largest singular value are
// treated as zero when deciding whether the cross-covariance matrix has
// enough rank to determine a rotation.
const rankTolerance = 1e-12

// PointPair is a single correspondence between a point on the source scan
// and a point on the target scan.
type PointPair struct {
	Source r3.Vector `json:"source"`
	Target r3.Vector `json:"target"`
}

// RigidTransform is a proper rigid-body motion: a 3x3 rotation matrix R with
// det(R) = +1 and a translation vector T. Applying it maps source-frame
// points into the target frame as R*p + T.
//
// A RigidTransform is an immutable value once constructed; it holds no
// shared state and may be used concurrently.
type RigidTransform struct {
	R *mat.Dense
	T r3.Vector
}

// IdentityTransform returns the transform that maps every point to itself.
func IdentityTransform() *RigidTransform {
	r := mat.NewDense(3, 3, nil)
	r.Set(0, 0, 1)
	r.Set(1, 1, 1)
	r.Set(2, 2, 1)
	return &RigidTransform{R: r, T: r3.Vector{}}
}

// Apply maps a point from the source frame into the target frame.
func (rt *RigidTransform) Apply(p r3.Vector) r3.Vector {
	return rotate(rt.R, p).Add(rt.T)
}

// Compose returns the transform equivalent to applying other first, then rt.
func (rt *RigidTransform) Compose(other *RigidTransform) *RigidTransform {
	r := mat.NewDense(3, 3, nil)
	r.Mul(rt.R, other.R)
	return &RigidTransform{R: r, T: rotate(rt.R, other.T).Add(rt.T)}
}

// Inverse returns the transform mapping target-frame points back to the
// source frame. The rotation inverse is its transpose since R is orthonormal.
func (rt *RigidTransform) Inverse() *RigidTransform {
	r := mat.NewDense(3, 3, nil)
	r.CloneFrom(rt.R.T())
	return &RigidTransform{R: r, T: rotate(r, rt.T).Mul(-1)}
}

// Matrix4 returns the transform as a 4x4 homogeneous matrix with R in the
// top-left 3x3 block, T in the top-right column, and [0 0 0 1] as the
// bottom row.
func (rt *RigidTransform) Matrix4() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rt.R.At(i, j))
		}
	}
	m.Set(0, 3, rt.T.X)
	m.Set(1, 3, rt.T.Y)
	m.Set(2, 3, rt.T.Z)
	m.Set(3, 3, 1)
	return m
}

// EstimateRigidTransform computes the rigid-body transform that minimizes the
// sum of squared distances between transformed source points and their
// corresponding target points (Kabsch / orthogonal Procrustes).
//
// The fit is permutation-invariant but not deduplicated: every pair
// contributes independently to the least-squares objective.
//
// Returns ErrInsufficientCorrespondences for fewer than three pairs and
// ErrDegenerateGeometry when the points are coincident or collinear.
func EstimateRigidTransform(pairs []PointPair) (*RigidTransform, error) {
	if len(pairs) < 3 {
		return nil, fmt.Errorf("%w (got %d)", ErrInsufficientCorrespondences, len(pairs))
	}

	n := float64(len(pairs))
	var srcCentroid, tgtCentroid r3.Vector
	for _, p := range pairs {
		srcCentroid = srcCentroid.Add(p.Source)
		tgtCentroid = tgtCentroid.Add(p.Target)
	}
	srcCentroid = srcCentroid.Mul(1 / n)
	tgtCentroid = tgtCentroid.Mul(1 / n)

	// Cross-covariance H = sum over pairs of centeredSource (outer) centeredTarget.
	h := mat.NewDense(3, 3, nil)
	for _, p := range pairs {
		s := p.Source.Sub(srcCentroid)
		t := p.Target.Sub(tgtCentroid)
		sv := [3]float64{s.X, s.Y, s.Z}
		tv := [3]float64{t.X, t.Y, t.Z}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				h.Set(i, j, h.At(i, j)+sv[i]*tv[j])
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return nil, fmt.Errorf("%w: SVD of cross-covariance failed", ErrDegenerateGeometry)
	}

	// Rank 1 means collinear points, rank 0 coincident; either way the
	// rotation axis is not pinned down. Rank 2 (coplanar) is fine: the
	// determinant correction below fixes the remaining sign freedom.
	values := svd.Values(nil)
	rank := 0
	for _, v := range values {
		if v > rankTolerance*values[0] {
			rank++
		}
	}
	if values[0] == 0 || rank < 2 {
		return nil, fmt.Errorf("%w (cross-covariance rank %d)", ErrDegenerateGeometry, rank)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Candidate rotation V * U^T may be a reflection; correct the sign of
	// the last singular vector so det(R) is always +1.
	var r mat.Dense
	r.Mul(&v, u.T())
	if mat.Det(&r) < 0 {
		d := mat.NewDiagDense(3, []float64{1, 1, -1})
		var vd mat.Dense
		vd.Mul(&v, d)
		r.Mul(&vd, u.T())
	}

	rot := mat.DenseCopyOf(&r)
	return &RigidTransform{
		R: rot,
		T: tgtCentroid.Sub(rotate(rot, srcCentroid)),
	}, nil
}

// AlignmentRMS reports the root-mean-square residual of the pairs under the
// given transform.
func AlignmentRMS(pairs []PointPair, tf *RigidTransform) float64 {
	if len(pairs) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pairs {
		d := tf.Apply(p.Source).Sub(p.Target)
		sum += d.Norm2()
	}
	return math.Sqrt(sum / float64(len(pairs)))
}

func rotate(r *mat.Dense, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: r.At(0, 0)*p.X + r.At(0, 1)*p.Y + r.At(0, 2)*p.Z,
		Y: r.At(1, 0)*p.X + r.At(1, 1)*p.Y + r.At(1, 2)*p.Z,
		Z: r.At(2, 0)*p.X + r.At(2, 1)*p.Y + r.At(2, 2)*p.Z,
	}
}
