// Package geometry provides the rigid-body math used for scan alignment.
//
// The central operation is EstimateRigidTransform, a closed-form solution to
// the orthogonal Procrustes problem (the Kabsch algorithm): given N >= 3
// corresponding 3-D point pairs it computes the rotation and translation that
// minimize the total squared correspondence error. No scaling, no shear, no
// reflection — the result is always a proper rigid-body motion with
// det(R) = +1.
//
// # Algorithm
//
// The estimator follows the standard recipe:
//
//  1. Compute the centroid of the source and target point sets.
//  2. Center both sets on their own centroid, isolating rotation from
//     translation.
//  3. Accumulate the 3x3 cross-covariance matrix H of the centered pairs.
//  4. Decompose H = U * Sigma * V^T via singular value decomposition.
//  5. Form R = V * D * U^T where D = diag(1, 1, det(V*U^T)). The determinant
//     correction guards against reflections that the raw SVD can produce for
//     noisy or nearly coplanar correspondences.
//  6. Recover the translation t = targetCentroid - R * sourceCentroid.
//
// All arithmetic is double precision and the SVD is gonum's dense
// decomposition, so the result is a deterministic function of the input up to
// the fixed sign convention above.
//
// # Degenerate Input
//
// Fewer than three pairs cannot determine a rotation and are rejected with
// ErrInsufficientCorrespondences. Collinear or coincident point sets leave
// the rotation axis underdetermined (the cross-covariance matrix loses rank)
// and are rejected with ErrDegenerateGeometry rather than returning an
// arbitrary unstable matrix. Coplanar point sets are fine: the determinant
// correction pins down the remaining sign freedom.
//
// # Concurrency
//
// Everything in this package is a pure computation on caller-owned values.
// There is no shared state; all functions are safe for concurrent use.
package geometry
