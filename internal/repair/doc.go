// Package repair implements the mesh cleanup steps scanners typically need
// before alignment or printing: duplicate removal, hole filling, normal
// reorientation, and small-component removal, plus a pipeline that runs a
// configurable selection of them in a fixed order.
//
// All steps mutate the mesh in place and return counts describing what they
// changed, so batch jobs can report per-file summaries.
//
// # Topology Assumptions
//
// Hole filling and coherent reorientation assume an edge is shared by at
// most two faces. Non-manifold edges are left untouched rather than guessed
// at; the duplicate-face and duplicate-vertex passes often restore
// manifoldness, which is why the pipeline runs them first.
package repair
