package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// readOFF parses an Object File Format mesh.
func readOFF(r io.Reader) (*Mesh, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	line, err := nextOFFLine(sc)
	if err != nil {
		return nil, err
	}
	if line != "OFF" {
		return nil, fmt.Errorf("not an OFF file: got %q", line)
	}

	line, err = nextOFFLine(sc)
	if err != nil {
		return nil, err
	}
	counts := strings.Fields(line)
	if len(counts) < 2 {
		return nil, fmt.Errorf("malformed OFF counts line %q", line)
	}
	nVerts, err := strconv.Atoi(counts[0])
	if err != nil || nVerts < 0 {
		return nil, fmt.Errorf("bad vertex count %q", counts[0])
	}
	nFaces, err := strconv.Atoi(counts[1])
	if err != nil || nFaces < 0 {
		return nil, fmt.Errorf("bad face count %q", counts[1])
	}

	m := &Mesh{}
	for i := 0; i < nVerts; i++ {
		line, err := nextOFFLine(sc)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		v, err := parseVec3(strings.Fields(line))
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		m.Vertices = append(m.Vertices, v)
	}
	for i := 0; i < nFaces; i++ {
		line, err := nextOFFLine(sc)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		fields := strings.Fields(line)
		n, err := strconv.Atoi(fields[0])
		if err != nil || len(fields) < n+1 {
			return nil, fmt.Errorf("face %d: malformed %q", i, line)
		}
		idx := make([]int, n)
		for j := 0; j < n; j++ {
			idx[j], err = strconv.Atoi(fields[j+1])
			if err != nil {
				return nil, fmt.Errorf("face %d: bad index %q", i, fields[j+1])
			}
		}
		appendTriangulated(m, idx)
	}
	return m, nil
}

// writeOFF writes an OFF mesh.
func writeOFF(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "OFF")
	fmt.Fprintf(bw, "%d %d 0\n", len(m.Vertices), len(m.Faces))
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "%g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, f := range m.Faces {
		fmt.Fprintf(bw, "3 %d %d %d\n", f[0], f[1], f[2])
	}
	return bw.Flush()
}

// nextOFFLine returns the next line that is neither blank nor a comment.
func nextOFFLine(sc *bufio.Scanner) (string, error) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("unexpected end of file")
}

// readXYZ parses a plain point list, one point per line: "x y z" with
// optional "nx ny nz" normals. The result is a point cloud (no faces).
func readXYZ(r io.Reader) (*Mesh, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	m := &Mesh{}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		v, err := parseVec3(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		m.Vertices = append(m.Vertices, v)
		if len(fields) >= 6 {
			n, err := parseVec3(fields[3:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.VertexNormals = append(m.VertexNormals, n)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(m.VertexNormals) > 0 && len(m.VertexNormals) != len(m.Vertices) {
		return nil, fmt.Errorf("normals on some lines but not all")
	}
	return m, nil
}

// writeXYZ writes one point per line, with normals when present.
func writeXYZ(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	hasNormals := len(m.VertexNormals) == len(m.Vertices) && len(m.Vertices) > 0
	for i, v := range m.Vertices {
		if hasNormals {
			n := m.VertexNormals[i]
			fmt.Fprintf(bw, "%g %g %g %g %g %g\n", v.X, v.Y, v.Z, n.X, n.Y, n.Z)
		} else {
			fmt.Fprintf(bw, "%g %g %g\n", v.X, v.Y, v.Z)
		}
	}
	return bw.Flush()
}
