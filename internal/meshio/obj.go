package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

// readOBJ parses a Wavefront OBJ file. Only v, vn, and f records matter for
// the mesh model; groups, materials, and texture coordinates are ignored.
// Polygonal faces are fan-triangulated and negative (relative) indices are
// resolved against the vertices seen so far.
func readOBJ(r io.Reader) (*Mesh, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	m := &Mesh{}
	var normals []r3.Vector
	normalOf := map[int]int{} // vertex index -> normal index
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.Vertices = append(m.Vertices, v)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			normals = append(normals, n)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				vi, ni, err := parseOBJIndex(tok, len(m.Vertices), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				idx = append(idx, vi)
				if ni >= 0 {
					normalOf[vi] = ni
				}
			}
			appendTriangulated(m, idx)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(normals) > 0 && len(normalOf) == len(m.Vertices) {
		m.VertexNormals = make([]r3.Vector, len(m.Vertices))
		for vi, ni := range normalOf {
			m.VertexNormals[vi] = normals[ni]
		}
	}
	return m, nil
}

// writeOBJ writes vertices, optional normals, and triangle faces.
func writeOBJ(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	hasNormals := len(m.VertexNormals) == len(m.Vertices) && len(m.Vertices) > 0

	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	if hasNormals {
		for _, n := range m.VertexNormals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
		}
	}
	for _, f := range m.Faces {
		if hasNormals {
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", f[0]+1, f[0]+1, f[1]+1, f[1]+1, f[2]+1, f[2]+1)
		} else {
			fmt.Fprintf(bw, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1)
		}
	}
	return bw.Flush()
}

// parseOBJIndex resolves a face token of the form "v", "v/vt", "v//vn", or
// "v/vt/vn" to zero-based vertex and normal indices (-1 when absent).
func parseOBJIndex(tok string, nVerts, nNormals int) (int, int, error) {
	parts := strings.Split(tok, "/")
	vi, err := resolveIndex(parts[0], nVerts)
	if err != nil {
		return 0, 0, err
	}
	ni := -1
	if len(parts) == 3 && parts[2] != "" {
		ni, err = resolveIndex(parts[2], nNormals)
		if err != nil {
			return 0, 0, err
		}
	}
	return vi, ni, nil
}

// resolveIndex converts a 1-based (or negative relative) OBJ index to
// 0-based.
func resolveIndex(s string, n int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("bad index %q", s)
	}
	if v < 0 {
		v = n + v + 1
	}
	if v < 1 || v > n {
		return 0, fmt.Errorf("index %q out of range (have %d)", s, n)
	}
	return v - 1, nil
}

func parseVec3(fields []string) (r3.Vector, error) {
	if len(fields) < 3 {
		return r3.Vector{}, fmt.Errorf("expected 3 coordinates, got %d", len(fields))
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return r3.Vector{}, fmt.Errorf("bad number %q", fields[i])
		}
		out[i] = v
	}
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}, nil
}
