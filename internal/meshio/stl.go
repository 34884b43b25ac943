package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

// readSTL detects ASCII vs binary STL and parses accordingly. STL stores a
// triangle soup; exactly coincident corners are merged so downstream
// operations see an indexed mesh with real connectivity.
func readSTL(r io.Reader) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	// An ASCII STL starts with "solid", but so can a binary file's comment
	// header; trust the triangle count arithmetic over the prefix.
	if looksLikeBinarySTL(data) {
		return readBinarySTL(data)
	}
	return readASCIISTL(data)
}

func looksLikeBinarySTL(data []byte) bool {
	if len(data) < 84 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	return len(data) == 84+int(count)*50
}

func readBinarySTL(data []byte) (*Mesh, error) {
	count := int(binary.LittleEndian.Uint32(data[80:84]))
	b := newSTLBuilder()
	off := 84
	for i := 0; i < count; i++ {
		// 12 bytes facet normal (ignored), 3 corners, 2 bytes attribute.
		var corners [3]r3.Vector
		for c := 0; c < 3; c++ {
			base := off + 12 + c*12
			corners[c] = r3.Vector{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base:]))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base+4:]))),
				Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[base+8:]))),
			}
		}
		b.addTriangle(corners)
		off += 50
	}
	return b.mesh, nil
}

func readASCIISTL(data []byte) (*Mesh, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	b := newSTLBuilder()
	var corners []r3.Vector
	lineNo := 0
	sawSolid := false
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			sawSolid = true
		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: malformed vertex", lineNo)
			}
			var v r3.Vector
			var err error
			if v.X, err = strconv.ParseFloat(fields[1], 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if v.Y, err = strconv.ParseFloat(fields[2], 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if v.Z, err = strconv.ParseFloat(fields[3], 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			corners = append(corners, v)
		case "endloop":
			if len(corners) != 3 {
				return nil, fmt.Errorf("line %d: facet with %d vertices", lineNo, len(corners))
			}
			b.addTriangle([3]r3.Vector{corners[0], corners[1], corners[2]})
			corners = corners[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawSolid {
		return nil, fmt.Errorf("not an STL file")
	}
	return b.mesh, nil
}

// writeSTL writes an ASCII STL with computed facet normals.
func writeSTL(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "solid mesh")
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Norm(); l > 0 {
			n = n.Mul(1 / l)
		}
		fmt.Fprintf(bw, "  facet normal %g %g %g\n", n.X, n.Y, n.Z)
		fmt.Fprintln(bw, "    outer loop")
		for _, v := range []r3.Vector{a, b, c} {
			fmt.Fprintf(bw, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	fmt.Fprintln(bw, "endsolid mesh")
	return bw.Flush()
}

// stlBuilder merges exactly coincident corners while accumulating triangles.
type stlBuilder struct {
	mesh  *Mesh
	index map[r3.Vector]int
}

func newSTLBuilder() *stlBuilder {
	return &stlBuilder{mesh: &Mesh{}, index: map[r3.Vector]int{}}
}

func (b *stlBuilder) addTriangle(corners [3]r3.Vector) {
	var face [3]int
	for i, v := range corners {
		idx, ok := b.index[v]
		if !ok {
			idx = len(b.mesh.Vertices)
			b.mesh.Vertices = append(b.mesh.Vertices, v)
			b.index[v] = idx
		}
		face[i] = idx
	}
	b.mesh.Faces = append(b.mesh.Faces, face)
}
