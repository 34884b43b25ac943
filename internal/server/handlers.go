package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/scanforge/mesh-tools-mcp/internal/align"
	"github.com/scanforge/mesh-tools-mcp/internal/batch"
	"github.com/scanforge/mesh-tools-mcp/internal/geometry"
	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
	"github.com/scanforge/mesh-tools-mcp/internal/repair"
	"github.com/scanforge/mesh-tools-mcp/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "load_mesh", "align_icp").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Fills optional parameters from the server's configured defaults
//  3. Creates a fresh session, loads the named meshes
//  4. Calls the appropriate repair/align/batch function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Mesh Inspection
	case "load_mesh":
		return s.handleLoadMesh(args)
	case "get_mesh_info":
		return s.handleGetMeshInfo(args)

	// Repair
	case "repair_mesh":
		return s.handleRepairMesh(args)

	// Alignment
	case "align_icp":
		return s.handleAlignICP(args)
	case "align_point_based":
		return s.handleAlignPointBased(args)
	case "global_align":
		return s.handleGlobalAlign(args)

	// Batch Operations
	case "batch_repair":
		return s.handleBatchRepair(args)
	case "batch_align":
		return s.handleBatchAlign(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// transformRows flattens a rigid transform to its 4x4 homogeneous matrix as
// row slices, the shape callers paste into other tools.
func transformRows(tf *geometry.RigidTransform) [4][4]float64 {
	m := tf.Matrix4()
	var rows [4][4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

// === Mesh Inspection Handlers ===

type loadMeshArgs struct {
	Paths []string `json:"paths"`
}

func (s *Server) handleLoadMesh(args json.RawMessage) (interface{}, error) {
	var a loadMeshArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must name at least one mesh file")
	}

	sess := session.New()
	infos := make([]*session.MeshInfo, 0, len(a.Paths))
	for _, path := range a.Paths {
		if _, err := sess.LoadMesh(path); err != nil {
			return nil, err
		}
		info, err := sess.MeshInfo(-1)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return map[string]interface{}{"meshes": infos}, nil
}

type getMeshInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleGetMeshInfo(args json.RawMessage) (interface{}, error) {
	var a getMeshInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sess := session.New()
	if _, err := sess.LoadMesh(a.Path); err != nil {
		return nil, err
	}
	return sess.MeshInfo(-1)
}

// === Repair Handlers ===

type repairMeshArgs struct {
	InputPath             string `json:"input_path"`
	OutputPath            string `json:"output_path"`
	RemoveDuplicates      *bool  `json:"remove_duplicates"`
	FillHoles             *bool  `json:"fill_holes"`
	MaxHoleSize           *int   `json:"max_hole_size"`
	ReorientNormals       *bool  `json:"reorient_normals"`
	RemoveSmallComponents *bool  `json:"remove_small_components"`
	MinComponentSize      *int   `json:"min_component_size"`
}

// repairOptions resolves tool arguments against the configured defaults.
// Pointer fields distinguish "absent" from an explicit false/zero.
func (s *Server) repairOptions(a *repairMeshArgs) repair.Options {
	opts := s.config.Repair
	if a.RemoveDuplicates != nil {
		opts.RemoveDuplicates = *a.RemoveDuplicates
	}
	if a.FillHoles != nil {
		opts.FillHoles = *a.FillHoles
	}
	if a.MaxHoleSize != nil {
		opts.MaxHoleSize = *a.MaxHoleSize
	}
	if a.ReorientNormals != nil {
		opts.ReorientNormals = *a.ReorientNormals
	}
	if a.RemoveSmallComponents != nil {
		opts.RemoveSmallComponents = *a.RemoveSmallComponents
	}
	if a.MinComponentSize != nil {
		opts.MinComponentSize = *a.MinComponentSize
	}
	return opts
}

func (s *Server) handleRepairMesh(args json.RawMessage) (interface{}, error) {
	var a repairMeshArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	sess := session.New()
	if _, err := sess.LoadMesh(a.InputPath); err != nil {
		return nil, err
	}
	m, err := sess.Mesh(-1)
	if err != nil {
		return nil, err
	}

	report := repair.Repair(m, s.repairOptions(&a))
	if err := sess.SaveMesh(a.OutputPath, -1); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"repair_results": report,
		"output":         a.OutputPath,
	}, nil
}

// === Alignment Handlers ===

type alignICPArgs struct {
	SourcePath    string `json:"source_path"`
	TargetPath    string `json:"target_path"`
	OutputPath    string `json:"output_path"`
	SampleNumber  *int   `json:"sample_number"`
	MaxIterations *int   `json:"max_iterations"`
}

func (s *Server) icpOptions(sampleNumber, maxIterations *int) align.ICPOptions {
	opts := s.config.ICP
	if sampleNumber != nil {
		opts.SampleNumber = *sampleNumber
	}
	if maxIterations != nil {
		opts.MaxIterations = *maxIterations
	}
	return opts
}

func (s *Server) handleAlignICP(args json.RawMessage) (interface{}, error) {
	var a alignICPArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	sess := session.New()
	if _, err := sess.LoadMesh(a.TargetPath); err != nil {
		return nil, err
	}
	target, err := sess.Mesh(-1)
	if err != nil {
		return nil, err
	}
	sourceID, err := sess.LoadMesh(a.SourcePath)
	if err != nil {
		return nil, err
	}
	source, err := sess.Mesh(sourceID)
	if err != nil {
		return nil, err
	}

	res, err := align.ICP(source, target, s.icpOptions(a.SampleNumber, a.MaxIterations))
	if err != nil {
		return nil, err
	}
	source.ApplyTransform(res.Transform)
	if err := sess.SaveMesh(a.OutputPath, sourceID); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"alignment": res,
		"transform": transformRows(res.Transform),
		"output":    a.OutputPath,
	}, nil
}

type alignPointBasedArgs struct {
	Pairs []struct {
		Source [3]float64 `json:"source"`
		Target [3]float64 `json:"target"`
	} `json:"pairs"`
	SourcePath string `json:"source_path"`
	OutputPath string `json:"output_path"`
}

func (s *Server) handleAlignPointBased(args json.RawMessage) (interface{}, error) {
	var a alignPointBasedArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	pairs := make([]geometry.PointPair, len(a.Pairs))
	for i, p := range a.Pairs {
		pairs[i] = geometry.PointPair{
			Source: r3.Vector{X: p.Source[0], Y: p.Source[1], Z: p.Source[2]},
			Target: r3.Vector{X: p.Target[0], Y: p.Target[1], Z: p.Target[2]},
		}
	}

	res, err := align.PointBased(pairs)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{
		"alignment": res,
		"transform": transformRows(res.Transform),
	}

	if a.SourcePath != "" {
		if a.OutputPath == "" {
			return nil, fmt.Errorf("output_path is required when source_path is given")
		}
		sess := session.New()
		if _, err := sess.LoadMesh(a.SourcePath); err != nil {
			return nil, err
		}
		m, err := sess.Mesh(-1)
		if err != nil {
			return nil, err
		}
		m.ApplyTransform(res.Transform)
		if err := sess.SaveMesh(a.OutputPath, -1); err != nil {
			return nil, err
		}
		result["output"] = a.OutputPath
	}
	return result, nil
}

type globalAlignArgs struct {
	MeshPaths    []string `json:"mesh_paths"`
	OutputDir    string   `json:"output_dir"`
	OutputFormat string   `json:"output_format"`
}

func (s *Server) handleGlobalAlign(args json.RawMessage) (interface{}, error) {
	var a globalAlignArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputFormat == "" {
		a.OutputFormat = batch.DefaultOutputFormat
	}
	if !strings.HasPrefix(a.OutputFormat, ".") {
		a.OutputFormat = "." + a.OutputFormat
	}

	sess := session.New()
	for _, p := range a.MeshPaths {
		if _, err := sess.LoadMesh(p); err != nil {
			return nil, err
		}
	}

	meshes := make([]*meshio.Mesh, len(a.MeshPaths))
	for i := range a.MeshPaths {
		m, err := sess.Mesh(i)
		if err != nil {
			return nil, err
		}
		meshes[i] = m
	}

	results, err := align.Global(meshes, s.config.ICP)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(a.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	outputs := make([]string, 0, len(a.MeshPaths))
	alignment := make([]map[string]interface{}, 0, len(a.MeshPaths))
	for i, path := range a.MeshPaths {
		meshes[i].ApplyTransform(results[i].Transform)

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out := filepath.Join(a.OutputDir, stem+a.OutputFormat)
		if err := sess.SaveMesh(out, i); err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
		alignment = append(alignment, map[string]interface{}{
			"mesh_id":    i,
			"iterations": results[i].Iterations,
			"rms_error":  results[i].RMS,
			"converged":  results[i].Converged,
			"transform":  transformRows(results[i].Transform),
		})
	}

	return map[string]interface{}{
		"alignment": alignment,
		"outputs":   outputs,
	}, nil
}

// === Batch Operation Handlers ===

type batchRepairArgs struct {
	InputDir     string `json:"input_dir"`
	OutputDir    string `json:"output_dir"`
	OutputFormat string `json:"output_format"`
	repairMeshArgs
	Recursive bool `json:"recursive"`
}

func (s *Server) handleBatchRepair(args json.RawMessage) (interface{}, error) {
	var a batchRepairArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	records, err := batch.Repair(a.InputDir, a.OutputDir, a.OutputFormat, s.repairOptions(&a.repairMeshArgs), a.Recursive)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"results": records}, nil
}

type batchAlignArgs struct {
	InputDir         string `json:"input_dir"`
	TargetMesh       string `json:"target_mesh"`
	OutputDir        string `json:"output_dir"`
	OutputFormat     string `json:"output_format"`
	ICPSampleNumber  *int   `json:"icp_sample_number"`
	ICPMaxIterations *int   `json:"icp_max_iterations"`
	Recursive        bool   `json:"recursive"`
}

func (s *Server) handleBatchAlign(args json.RawMessage) (interface{}, error) {
	var a batchAlignArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	opts := s.icpOptions(a.ICPSampleNumber, a.ICPMaxIterations)
	records, err := batch.Align(a.InputDir, a.OutputDir, a.TargetMesh, a.OutputFormat, opts, a.Recursive)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"results": records}, nil
}
