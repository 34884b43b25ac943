package server

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/scanforge/mesh-tools-mcp/internal/config"
	"github.com/scanforge/mesh-tools-mcp/internal/geometry"
	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
)

// testServer returns a server with thresholds sized for the tiny fixtures
// used here (the production defaults assume scan-sized meshes).
func testServer() *Server {
	cfg := config.Default()
	cfg.Repair.MinComponentSize = 2
	cfg.ICP.MaxDistanceFraction = 0.2
	return New(cfg)
}

func tetrahedron() *meshio.Mesh {
	return &meshio.Mesh{
		Vertices: []r3.Vector{
			{}, {X: 1}, {Y: 1}, {Z: 1},
		},
		Faces: [][3]int{
			{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2},
		},
	}
}

func writeMeshFile(t *testing.T, path string, m *meshio.Mesh) string {
	t.Helper()
	if err := meshio.Save(path, m); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}

// callTool marshals args and runs the named tool, failing the test on
// marshal problems (tool errors are returned for inspection).
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (interface{}, error) {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshaling args: %v", err)
	}
	return s.executeTool(name, raw)
}

// decodeResult round-trips a tool result through JSON into dst, the same
// shape an MCP client would see.
func decodeResult(t *testing.T, result interface{}, dst interface{}) {
	t.Helper()
	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshaling result: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
}

func TestExecuteTool_Unknown(t *testing.T) {
	s := testServer()
	if _, err := callTool(t, s, "no_such_tool", map[string]interface{}{}); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := testServer()
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name": 42}`),
	}

	resp := s.handleToolsCall(req)
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_ToolFailure(t *testing.T) {
	s := testServer()
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"get_mesh_info","arguments":{"path":"/nope/missing.ply"}}`),
	}

	resp := s.handleToolsCall(req)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("expected -32000, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_WrapsContent(t *testing.T) {
	s := testServer()
	path := writeMeshFile(t, filepath.Join(t.TempDir(), "m.ply"), tetrahedron())

	raw, _ := json.Marshal(map[string]interface{}{
		"name":      "get_mesh_info",
		"arguments": map[string]interface{}{"path": path},
	})
	resp := s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 7, Method: "tools/call", Params: raw})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content block malformed: %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("content text is not JSON: %v", err)
	}
	if decoded["vertex_count"] != float64(4) {
		t.Errorf("vertex_count: got %v, want 4", decoded["vertex_count"])
	}
}

func TestLoadMesh(t *testing.T) {
	s := testServer()
	dir := t.TempDir()
	a := writeMeshFile(t, filepath.Join(dir, "a.ply"), tetrahedron())
	b := writeMeshFile(t, filepath.Join(dir, "b.obj"), tetrahedron())

	result, err := callTool(t, s, "load_mesh", map[string]interface{}{
		"paths": []string{a, b},
	})
	if err != nil {
		t.Fatalf("load_mesh: %v", err)
	}

	var decoded struct {
		Meshes []struct {
			MeshID      int    `json:"mesh_id"`
			Source      string `json:"source"`
			VertexCount int    `json:"vertex_count"`
			FaceCount   int    `json:"face_count"`
		} `json:"meshes"`
	}
	decodeResult(t, result, &decoded)
	if len(decoded.Meshes) != 2 {
		t.Fatalf("got %d meshes, want 2", len(decoded.Meshes))
	}
	for i, info := range decoded.Meshes {
		if info.MeshID != i {
			t.Errorf("mesh %d: id = %d", i, info.MeshID)
		}
		if info.VertexCount != 4 || info.FaceCount != 4 {
			t.Errorf("mesh %d: counts = %d/%d, want 4/4", i, info.VertexCount, info.FaceCount)
		}
	}
}

func TestLoadMesh_EmptyPaths(t *testing.T) {
	s := testServer()
	if _, err := callTool(t, s, "load_mesh", map[string]interface{}{"paths": []string{}}); err == nil {
		t.Fatal("expected error for empty paths")
	}
}

func TestRepairMesh(t *testing.T) {
	s := testServer()
	dir := t.TempDir()
	m := tetrahedron()
	m.Faces = append(m.Faces, m.Faces[0]) // duplicate
	in := writeMeshFile(t, filepath.Join(dir, "in.ply"), m)
	out := filepath.Join(dir, "out.ply")

	result, err := callTool(t, s, "repair_mesh", map[string]interface{}{
		"input_path":  in,
		"output_path": out,
	})
	if err != nil {
		t.Fatalf("repair_mesh: %v", err)
	}

	repaired, err := meshio.Load(out)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	if repaired.FaceCount() != 4 {
		t.Errorf("faces = %d, want duplicate removed", repaired.FaceCount())
	}

	var decoded struct {
		RepairResults struct {
			DuplicateFaces *struct {
				Removed int `json:"removed"`
			} `json:"duplicate_faces"`
		} `json:"repair_results"`
		Output string `json:"output"`
	}
	decodeResult(t, result, &decoded)
	if decoded.Output != out {
		t.Errorf("output = %q, want %q", decoded.Output, out)
	}
	if decoded.RepairResults.DuplicateFaces == nil || decoded.RepairResults.DuplicateFaces.Removed != 1 {
		t.Errorf("duplicate_faces report = %+v", decoded.RepairResults.DuplicateFaces)
	}
}

func TestRepairMesh_ExplicitFalseDisablesStep(t *testing.T) {
	s := testServer()
	dir := t.TempDir()
	open := tetrahedron()
	open.Faces = open.Faces[:3] // leave one hole
	in := writeMeshFile(t, filepath.Join(dir, "open.ply"), open)
	out := filepath.Join(dir, "out.ply")

	_, err := callTool(t, s, "repair_mesh", map[string]interface{}{
		"input_path":       in,
		"output_path":      out,
		"fill_holes":       false,
		"reorient_normals": false,
	})
	if err != nil {
		t.Fatalf("repair_mesh: %v", err)
	}

	repaired, err := meshio.Load(out)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	if repaired.FaceCount() != 3 {
		t.Errorf("faces = %d, want hole left open when fill_holes=false", repaired.FaceCount())
	}
}

func TestAlignICP(t *testing.T) {
	s := testServer()
	dir := t.TempDir()

	target := tetrahedron()
	targetPath := writeMeshFile(t, filepath.Join(dir, "target.ply"), target)

	offset := geometry.IdentityTransform()
	offset.T = r3.Vector{X: 0.02, Y: -0.01}
	source := target.Clone()
	source.ApplyTransform(offset)
	sourcePath := writeMeshFile(t, filepath.Join(dir, "source.ply"), source)
	out := filepath.Join(dir, "aligned.ply")

	result, err := callTool(t, s, "align_icp", map[string]interface{}{
		"source_path": sourcePath,
		"target_path": targetPath,
		"output_path": out,
	})
	if err != nil {
		t.Fatalf("align_icp: %v", err)
	}

	var decoded struct {
		Alignment struct {
			Iterations int     `json:"iterations"`
			RMS        float64 `json:"rms_error"`
		} `json:"alignment"`
		Transform [4][4]float64 `json:"transform"`
		Output    string        `json:"output"`
	}
	decodeResult(t, result, &decoded)
	if decoded.Alignment.Iterations == 0 {
		t.Error("iterations not reported")
	}
	if decoded.Alignment.RMS > 1e-3 {
		t.Errorf("rms_error = %g", decoded.Alignment.RMS)
	}
	if decoded.Transform[3] != [4]float64{0, 0, 0, 1} {
		t.Errorf("transform bottom row = %v", decoded.Transform[3])
	}

	aligned, err := meshio.Load(out)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	for i, v := range aligned.Vertices {
		if d := v.Sub(target.Vertices[i]).Norm(); d > 1e-3 {
			t.Errorf("vertex %d off by %g", i, d)
		}
	}
}

func TestAlignPointBased(t *testing.T) {
	s := testServer()
	dir := t.TempDir()

	source := tetrahedron()
	sourcePath := writeMeshFile(t, filepath.Join(dir, "source.ply"), source)
	out := filepath.Join(dir, "moved.ply")

	// Pure translation by (1, 2, 3).
	pairs := []map[string]interface{}{
		{"source": []float64{0, 0, 0}, "target": []float64{1, 2, 3}},
		{"source": []float64{1, 0, 0}, "target": []float64{2, 2, 3}},
		{"source": []float64{0, 1, 0}, "target": []float64{1, 3, 3}},
		{"source": []float64{0, 0, 1}, "target": []float64{1, 2, 4}},
	}

	result, err := callTool(t, s, "align_point_based", map[string]interface{}{
		"pairs":       pairs,
		"source_path": sourcePath,
		"output_path": out,
	})
	if err != nil {
		t.Fatalf("align_point_based: %v", err)
	}

	var decoded struct {
		Alignment struct {
			RMS   float64 `json:"rms_error"`
			Pairs int     `json:"pairs"`
		} `json:"alignment"`
		Transform [4][4]float64 `json:"transform"`
		Output    string        `json:"output"`
	}
	decodeResult(t, result, &decoded)
	if decoded.Alignment.Pairs != 4 || decoded.Alignment.RMS > 1e-9 {
		t.Errorf("alignment = %+v", decoded.Alignment)
	}
	for i, want := range []float64{1, 2, 3} {
		if got := decoded.Transform[i][3]; math.Abs(got-want) > 1e-9 {
			t.Errorf("translation[%d] = %v, want %v", i, got, want)
		}
	}

	moved, err := meshio.Load(out)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	want := source.Vertices[1].Add(r3.Vector{X: 1, Y: 2, Z: 3})
	if d := moved.Vertices[1].Sub(want).Norm(); d > 1e-9 {
		t.Errorf("vertex 1 off by %g", d)
	}
}

func TestAlignICP_TinySampleNumberIsError(t *testing.T) {
	s := testServer()
	dir := t.TempDir()
	target := writeMeshFile(t, filepath.Join(dir, "target.ply"), tetrahedron())
	source := writeMeshFile(t, filepath.Join(dir, "source.ply"), tetrahedron())

	// A sample budget below 3 cannot constrain a transform; the call must
	// fail cleanly rather than crash the server.
	_, err := callTool(t, s, "align_icp", map[string]interface{}{
		"source_path":   source,
		"target_path":   target,
		"output_path":   filepath.Join(dir, "out.ply"),
		"sample_number": 1,
	})
	if err == nil {
		t.Fatal("expected error for sample_number 1")
	}
}

func TestAlignPointBased_SourceWithoutOutput(t *testing.T) {
	s := testServer()
	path := writeMeshFile(t, filepath.Join(t.TempDir(), "m.ply"), tetrahedron())

	_, err := callTool(t, s, "align_point_based", map[string]interface{}{
		"pairs": []map[string]interface{}{
			{"source": []float64{0, 0, 0}, "target": []float64{0, 0, 0}},
			{"source": []float64{1, 0, 0}, "target": []float64{1, 0, 0}},
			{"source": []float64{0, 1, 0}, "target": []float64{0, 1, 0}},
		},
		"source_path": path,
	})
	if err == nil {
		t.Fatal("expected error when source_path is given without output_path")
	}
}

func TestGlobalAlign(t *testing.T) {
	s := testServer()
	dir := t.TempDir()
	outDir := filepath.Join(dir, "aligned")

	base := tetrahedron()
	basePath := writeMeshFile(t, filepath.Join(dir, "base.ply"), base)

	offset := geometry.IdentityTransform()
	offset.T = r3.Vector{X: 0.02}
	shifted := base.Clone()
	shifted.ApplyTransform(offset)
	shiftedPath := writeMeshFile(t, filepath.Join(dir, "scan2.ply"), shifted)

	result, err := callTool(t, s, "global_align", map[string]interface{}{
		"mesh_paths": []string{basePath, shiftedPath},
		"output_dir": outDir,
	})
	if err != nil {
		t.Fatalf("global_align: %v", err)
	}

	var decoded struct {
		Alignment []struct {
			MeshID     int     `json:"mesh_id"`
			Iterations int     `json:"iterations"`
			RMS        float64 `json:"rms_error"`
		} `json:"alignment"`
		Outputs []string `json:"outputs"`
	}
	decodeResult(t, result, &decoded)
	if len(decoded.Outputs) != 2 || len(decoded.Alignment) != 2 {
		t.Fatalf("result = %+v", decoded)
	}
	if filepath.Base(decoded.Outputs[1]) != "scan2.ply" {
		t.Errorf("output name = %s", decoded.Outputs[1])
	}

	aligned, err := meshio.Load(decoded.Outputs[1])
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	for i, v := range aligned.Vertices {
		if d := v.Sub(base.Vertices[i]).Norm(); d > 1e-3 {
			t.Errorf("vertex %d off by %g after global align", i, d)
		}
	}
}

func TestBatchRepairTool(t *testing.T) {
	s := testServer()
	in := t.TempDir()
	out := t.TempDir()
	m := tetrahedron()
	m.Faces = append(m.Faces, m.Faces[0])
	writeMeshFile(t, filepath.Join(in, "dup.ply"), m)

	result, err := callTool(t, s, "batch_repair", map[string]interface{}{
		"input_dir":  in,
		"output_dir": out,
	})
	if err != nil {
		t.Fatalf("batch_repair: %v", err)
	}

	var decoded struct {
		Results []struct {
			Status string `json:"status"`
			Output string `json:"output"`
		} `json:"results"`
	}
	decodeResult(t, result, &decoded)
	if len(decoded.Results) != 1 || decoded.Results[0].Status != "ok" {
		t.Fatalf("results = %+v", decoded.Results)
	}
}

func TestBatchAlignTool(t *testing.T) {
	s := testServer()
	in := t.TempDir()
	out := t.TempDir()

	target := tetrahedron()
	targetPath := writeMeshFile(t, filepath.Join(in, "target.ply"), target)

	offset := geometry.IdentityTransform()
	offset.T = r3.Vector{X: 0.02}
	scan := target.Clone()
	scan.ApplyTransform(offset)
	writeMeshFile(t, filepath.Join(in, "scan.ply"), scan)

	result, err := callTool(t, s, "batch_align", map[string]interface{}{
		"input_dir":   in,
		"target_mesh": targetPath,
		"output_dir":  out,
	})
	if err != nil {
		t.Fatalf("batch_align: %v", err)
	}

	var decoded struct {
		Results []struct {
			Status    string `json:"status"`
			Alignment *struct {
				Iterations int `json:"iterations"`
			} `json:"alignment"`
		} `json:"results"`
	}
	decodeResult(t, result, &decoded)
	if len(decoded.Results) != 1 {
		t.Fatalf("got %d results, want target skipped", len(decoded.Results))
	}
	if decoded.Results[0].Status != "ok" || decoded.Results[0].Alignment == nil {
		t.Fatalf("result = %+v", decoded.Results[0])
	}
}
