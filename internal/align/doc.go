// Package align registers scan meshes against each other with rigid-body
// transforms.
//
// Three entry points cover the common workflows:
//
//   - ICP aligns one mesh to another by iterative closest point: sample
//     vertices, match nearest neighbors, estimate an incremental rigid
//     transform, repeat until the RMS error stops improving.
//   - PointBased aligns from explicit point correspondences, for when the
//     caller already knows which points match (picked landmarks, markers).
//   - Global registers a whole set of scans into the frame of the first one,
//     aligning each mesh against the accumulated reference cloud.
//
// # Thresholds
//
// Distance thresholds in ICPOptions are fractions of the target's bounding
// box diagonal rather than absolute units, so the same options work for a
// tabletop scan and a room scan. They are resolved to absolute distances
// once per run.
//
// All searches are brute force. Meshes passed through the tool layer are
// downsampled to ICPOptions.SampleNumber points first, which keeps the
// quadratic nearest-neighbor cost bounded.
package align
