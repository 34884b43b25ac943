package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

// plyElement describes one element block from a PLY header.
type plyElement struct {
	name  string
	count int
	props []string
	list  bool
}

// readPLY parses an ASCII Stanford PLY file. Vertex properties beyond the
// coordinates (and optional normals) are skipped by position, so files with
// per-vertex color round-trip geometry correctly even though the color is
// dropped.
func readPLY(r io.Reader) (*Mesh, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "ply" {
		return nil, fmt.Errorf("not a PLY file: missing magic")
	}

	var elements []*plyElement
	var current *plyElement
	formatSeen := false
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				return nil, fmt.Errorf("unsupported PLY format %q (only ascii)", strings.Join(fields[1:], " "))
			}
			formatSeen = true
		case "comment", "obj_info":
			// ignore
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("malformed element line %q", sc.Text())
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("bad element count in %q", sc.Text())
			}
			current = &plyElement{name: fields[1], count: n}
			elements = append(elements, current)
		case "property":
			if current == nil {
				return nil, fmt.Errorf("property before any element")
			}
			if len(fields) >= 2 && fields[1] == "list" {
				current.list = true
			} else if len(fields) >= 3 {
				current.props = append(current.props, fields[len(fields)-1])
			}
		case "end_header":
			goto body
		default:
			return nil, fmt.Errorf("unexpected header line %q", sc.Text())
		}
	}
	return nil, fmt.Errorf("PLY header not terminated")

body:
	if !formatSeen {
		return nil, fmt.Errorf("PLY header missing format line")
	}

	m := &Mesh{}
	for _, el := range elements {
		switch el.name {
		case "vertex":
			xi, yi, zi := indexOf(el.props, "x"), indexOf(el.props, "y"), indexOf(el.props, "z")
			if xi < 0 || yi < 0 || zi < 0 {
				return nil, fmt.Errorf("vertex element missing x/y/z properties")
			}
			nxi, nyi, nzi := indexOf(el.props, "nx"), indexOf(el.props, "ny"), indexOf(el.props, "nz")
			hasNormals := nxi >= 0 && nyi >= 0 && nzi >= 0
			for i := 0; i < el.count; i++ {
				vals, err := scanFloats(sc, len(el.props))
				if err != nil {
					return nil, fmt.Errorf("vertex %d: %w", i, err)
				}
				m.Vertices = append(m.Vertices, r3.Vector{X: vals[xi], Y: vals[yi], Z: vals[zi]})
				if hasNormals {
					m.VertexNormals = append(m.VertexNormals, r3.Vector{X: vals[nxi], Y: vals[nyi], Z: vals[nzi]})
				}
			}
		case "face":
			for i := 0; i < el.count; i++ {
				if !sc.Scan() {
					return nil, fmt.Errorf("face %d: unexpected end of file", i)
				}
				fields := strings.Fields(sc.Text())
				if len(fields) == 0 {
					i--
					continue
				}
				n, err := strconv.Atoi(fields[0])
				if err != nil || len(fields) != n+1 {
					return nil, fmt.Errorf("face %d: malformed list %q", i, sc.Text())
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
		default:
			// Skip unknown elements line by line.
			for i := 0; i < el.count; i++ {
				if !sc.Scan() {
					return nil, fmt.Errorf("element %q truncated", el.name)
				}
			}
		}
	}
	return m, sc.Err()
}

// writePLY writes an ASCII PLY file, including normals when present.
func writePLY(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	hasNormals := len(m.VertexNormals) == len(m.Vertices) && len(m.Vertices) > 0

	fmt.Fprintln(bw, "ply")
	fmt.Fprintln(bw, "format ascii 1.0")
	fmt.Fprintf(bw, "element vertex %d\n", len(m.Vertices))
	fmt.Fprintln(bw, "property double x")
	fmt.Fprintln(bw, "property double y")
	fmt.Fprintln(bw, "property double z")
	if hasNormals {
		fmt.Fprintln(bw, "property double nx")
		fmt.Fprintln(bw, "property double ny")
		fmt.Fprintln(bw, "property double nz")
	}
	fmt.Fprintf(bw, "element face %d\n", len(m.Faces))
	fmt.Fprintln(bw, "property list uchar int vertex_indices")
	fmt.Fprintln(bw, "end_header")

	for i, v := range m.Vertices {
		if hasNormals {
			n := m.VertexNormals[i]
			fmt.Fprintf(bw, "%g %g %g %g %g %g\n", v.X, v.Y, v.Z, n.X, n.Y, n.Z)
		} else {
			fmt.Fprintf(bw, "%g %g %g\n", v.X, v.Y, v.Z)
		}
	}
	for _, f := range m.Faces {
		fmt.Fprintf(bw, "3 %d %d %d\n", f[0], f[1], f[2])
	}
	return bw.Flush()
}

// scanFloats reads the next non-empty line and parses exactly n floats.
func scanFloats(sc *bufio.Scanner, n int) ([]float64, error) {
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < n {
			return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
		}
		vals := make([]float64, n)
		for i := 0; i < n; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", fields[i])
			}
			vals[i] = v
		}
		return vals, nil
	}
	return nil, fmt.Errorf("unexpected end of file")
}

func indexOf(props []string, name string) int {
	for i, p := range props {
		if p == name {
			return i
		}
	}
	return -1
}

// appendTriangulated adds a polygon as a triangle fan.
func appendTriangulated(m *Mesh, idx []int) {
	for j := 1; j+1 < len(idx); j++ {
		m.Faces = append(m.Faces, [3]int{idx[0], idx[j], idx[j+1]})
	}
}
