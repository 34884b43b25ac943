// Package meshio provides the triangle-mesh data model and file I/O for the
// MCP server.
//
// A Mesh is an indexed triangle set: a vertex array, a face array of vertex
// index triples, and optional per-vertex normals. Point clouds are meshes
// with an empty face array.
//
// # Supported Formats
//
// The format is selected by file extension:
//
//   - .ply — Stanford polygon format, ASCII (read/write)
//   - .obj — Wavefront OBJ (read/write); polygonal faces are fan-triangulated
//   - .stl — stereolithography, ASCII and binary (read), ASCII (write);
//     exactly coincident triangle corners are merged on load
//   - .off — Object File Format (read/write)
//   - .xyz — plain point list, one "x y z [nx ny nz]" per line (read/write)
//
// # Coordinate Conventions
//
// Coordinates are unitless double-precision values in whatever frame the
// scanner produced. Faces are counter-clockwise when viewed from outside for
// a consistently oriented mesh; the repair package can restore that property
// when inputs violate it.
//
// # Error Handling
//
// Load and Save return errors for unknown extensions, malformed files, and
// out-of-range face indices. Save creates missing parent directories, so
// batch jobs can write into fresh output trees.
package meshio
