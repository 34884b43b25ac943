package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/scanforge/mesh-tools-mcp/internal/align"
	"github.com/scanforge/mesh-tools-mcp/internal/geometry"
	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
	"github.com/scanforge/mesh-tools-mcp/internal/repair"
)

func testTetrahedron() *meshio.Mesh {
	return &meshio.Mesh{
		Vertices: []r3.Vector{
			{}, {X: 1}, {Y: 1}, {Z: 1},
		},
		Faces: [][3]int{
			{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2},
		},
	}
}

func writeMesh(t *testing.T, path string, m *meshio.Mesh) {
	t.Helper()
	if err := meshio.Save(path, m); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func noop(m *meshio.Mesh) error { return nil }

func TestProcessConvertsDirectory(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeMesh(t, filepath.Join(in, "b.obj"), testTetrahedron())
	writeMesh(t, filepath.Join(in, "a.ply"), testTetrahedron())
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("not a mesh"), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := Process(in, out, ".ply", false, noop)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (txt must be ignored)", len(records))
	}
	// Sorted path order.
	if filepath.Base(records[0].Input) != "a.ply" || filepath.Base(records[1].Input) != "b.obj" {
		t.Fatalf("records out of order: %s, %s", records[0].Input, records[1].Input)
	}
	for _, rec := range records {
		if rec.Status != "ok" {
			t.Errorf("%s: status %q (%s)", rec.Input, rec.Status, rec.Error)
		}
		if filepath.Ext(rec.Output) != ".ply" {
			t.Errorf("%s: output extension not swapped: %s", rec.Input, rec.Output)
		}
		if _, err := meshio.Load(rec.Output); err != nil {
			t.Errorf("output %s unreadable: %v", rec.Output, err)
		}
	}
}

func TestProcessCollectsPerFileErrors(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeMesh(t, filepath.Join(in, "good.ply"), testTetrahedron())
	if err := os.WriteFile(filepath.Join(in, "bad.ply"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := Process(in, out, ".ply", false, noop)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	byName := map[string]Record{}
	for _, r := range records {
		byName[filepath.Base(r.Input)] = r
	}
	if byName["bad.ply"].Status != "error" || byName["bad.ply"].Error == "" {
		t.Errorf("bad.ply record = %+v, want error status with message", byName["bad.ply"])
	}
	if byName["good.ply"].Status != "ok" {
		t.Errorf("good.ply record = %+v, bad file must not poison the batch", byName["good.ply"])
	}
}

func TestProcessRecursivePreservesStructure(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	if err := os.MkdirAll(filepath.Join(in, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeMesh(t, filepath.Join(in, "top.ply"), testTetrahedron())
	writeMesh(t, filepath.Join(in, "sub", "nested.ply"), testTetrahedron())

	records, err := Process(in, out, "obj", true, noop)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	want := filepath.Join(out, "sub", "nested.obj")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("nested output missing at %s: %v", want, err)
	}
}

func TestProcessNonRecursiveSkipsSubdirs(t *testing.T) {
	in := t.TempDir()
	if err := os.MkdirAll(filepath.Join(in, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeMesh(t, filepath.Join(in, "top.ply"), testTetrahedron())
	writeMesh(t, filepath.Join(in, "sub", "nested.ply"), testTetrahedron())

	records, err := Process(in, t.TempDir(), ".ply", false, noop)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want only the top-level file", len(records))
	}
}

func TestRepairBatch(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	m := testTetrahedron()
	m.Faces = append(m.Faces, m.Faces[0]) // duplicate face
	writeMesh(t, filepath.Join(in, "dup.ply"), m)

	opts := repair.DefaultOptions()
	opts.MinComponentSize = 2 // tiny fixture, keep the tetrahedron
	records, err := Repair(in, out, ".ply", opts, false)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if len(records) != 1 || records[0].Status != "ok" {
		t.Fatalf("records = %+v", records)
	}

	repaired, err := meshio.Load(records[0].Output)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	if repaired.FaceCount() != 4 {
		t.Errorf("faces = %d, want duplicate removed", repaired.FaceCount())
	}
}

func TestAlignBatch(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	target := testTetrahedron()
	targetPath := filepath.Join(in, "target.ply")
	writeMesh(t, targetPath, target)

	offset := geometry.IdentityTransform()
	offset.T = r3.Vector{X: 0.05}
	shifted := target.Clone()
	shifted.ApplyTransform(offset)
	writeMesh(t, filepath.Join(in, "scan.ply"), shifted)

	opts := align.DefaultICPOptions()
	opts.MaxDistanceFraction = 0.2
	records, err := Align(in, out, targetPath, ".ply", opts, false)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	// The target living inside the input directory must be skipped.
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(records), records)
	}
	rec := records[0]
	if rec.Status != "ok" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Alignment == nil || rec.Alignment.Iterations == 0 {
		t.Fatalf("alignment result missing or empty: %+v", rec.Alignment)
	}

	aligned, err := meshio.Load(rec.Output)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	for i, v := range aligned.Vertices {
		d := v.Sub(target.Vertices[i]).Norm()
		if d > 1e-3 {
			t.Errorf("vertex %d off by %g after alignment", i, d)
		}
	}
}

func TestAlignBatchBadTarget(t *testing.T) {
	if _, err := Align(t.TempDir(), t.TempDir(), "/nonexistent/target.ply", ".ply", align.DefaultICPOptions(), false); err == nil {
		t.Fatal("expected error for missing target mesh")
	}
}
