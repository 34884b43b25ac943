package session

import (
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
)

// writeTestMesh saves a single-triangle mesh and returns its path.
func writeTestMesh(t *testing.T, dir, name string) string {
	t.Helper()
	m := &meshio.Mesh{
		Vertices: []r3.Vector{{}, {X: 1}, {Y: 1}},
		Faces:    [][3]int{{0, 1, 2}},
	}
	path := filepath.Join(dir, name)
	if err := meshio.Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

func TestSession_LoadMakesCurrent(t *testing.T) {
	dir := t.TempDir()
	s := New()

	if s.CurrentMeshID() != -1 {
		t.Fatalf("empty session current = %d, want -1", s.CurrentMeshID())
	}

	id0, err := s.LoadMesh(writeTestMesh(t, dir, "a.ply"))
	if err != nil {
		t.Fatalf("LoadMesh: %v", err)
	}
	id1, err := s.LoadMesh(writeTestMesh(t, dir, "b.obj"))
	if err != nil {
		t.Fatalf("LoadMesh: %v", err)
	}

	if id0 != 0 || id1 != 1 {
		t.Errorf("ids = %d, %d; want 0, 1", id0, id1)
	}
	if s.CurrentMeshID() != 1 {
		t.Errorf("current = %d, want 1", s.CurrentMeshID())
	}
	if s.MeshCount() != 2 {
		t.Errorf("count = %d, want 2", s.MeshCount())
	}
}

func TestSession_MeshInfo(t *testing.T) {
	dir := t.TempDir()
	s := New()
	if _, err := s.LoadMesh(writeTestMesh(t, dir, "a.ply")); err != nil {
		t.Fatal(err)
	}

	info, err := s.MeshInfo(0)
	if err != nil {
		t.Fatalf("MeshInfo: %v", err)
	}
	if info.VertexCount != 3 || info.FaceCount != 1 {
		t.Errorf("got %d vertices / %d faces, want 3/1", info.VertexCount, info.FaceCount)
	}
	if info.BoundingBox.Max != [3]float64{1, 1, 0} {
		t.Errorf("bbox max = %v", info.BoundingBox.Max)
	}

	if _, err := s.MeshInfo(5); err == nil {
		t.Fatal("expected error for bad id")
	}
}

func TestSession_ListMeshesPreservesCursor(t *testing.T) {
	dir := t.TempDir()
	s := New()
	for _, name := range []string{"a.ply", "b.ply", "c.ply"} {
		if _, err := s.LoadMesh(writeTestMesh(t, dir, name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SetActiveMesh(1); err != nil {
		t.Fatal(err)
	}

	infos := s.ListMeshes()
	if len(infos) != 3 {
		t.Fatalf("len = %d, want 3", len(infos))
	}
	for i, info := range infos {
		if info.MeshID != i {
			t.Errorf("info[%d].MeshID = %d", i, info.MeshID)
		}
	}
	if s.CurrentMeshID() != 1 {
		t.Errorf("cursor moved to %d during listing", s.CurrentMeshID())
	}
}

func TestSession_DeleteShiftsIDs(t *testing.T) {
	dir := t.TempDir()
	s := New()
	for _, name := range []string{"a.ply", "b.ply", "c.ply"} {
		if _, err := s.LoadMesh(writeTestMesh(t, dir, name)); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.DeleteMesh(0); err != nil {
		t.Fatalf("DeleteMesh: %v", err)
	}
	if s.MeshCount() != 2 {
		t.Fatalf("count = %d, want 2", s.MeshCount())
	}
	infos := s.ListMeshes()
	if infos[0].Source == "" || filepath.Base(infos[0].Source) != "b.ply" {
		t.Errorf("mesh 0 source = %q, want b.ply", infos[0].Source)
	}

	if err := s.DeleteMesh(9); err == nil {
		t.Fatal("expected error deleting bad id")
	}
}

func TestSession_SaveMesh(t *testing.T) {
	dir := t.TempDir()
	s := New()
	if _, err := s.LoadMesh(writeTestMesh(t, dir, "a.ply")); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out", "copy.obj")
	if err := s.SaveMesh(out, -1); err != nil {
		t.Fatalf("SaveMesh: %v", err)
	}
	m, err := meshio.Load(out)
	if err != nil {
		t.Fatalf("Load saved: %v", err)
	}
	if m.VertexCount() != 3 {
		t.Errorf("saved mesh has %d vertices", m.VertexCount())
	}

	if err := New().SaveMesh(filepath.Join(dir, "x.ply"), -1); err == nil {
		t.Fatal("expected error saving from empty session")
	}
}
