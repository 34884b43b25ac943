package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Mesh Inspection
		{
			Name:        "load_mesh",
			Description: "Load one or more mesh files into a new session and return basic statistics (vertex/face counts, bounding box) for each mesh.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to mesh files to load",
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "get_mesh_info",
			Description: "Return vertex count, face count, and bounding-box info for a mesh file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the mesh file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Repair
		{
			Name:        "repair_mesh",
			Description: "Repair a mesh file by removing duplicates, filling holes, reorienting normals, and removing small components. Writes the result to output_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input_path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the input mesh file",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Path to write the repaired mesh",
					},
					"remove_duplicates": map[string]interface{}{
						"type":        "boolean",
						"default":     true,
						"description": "Remove duplicate faces and vertices",
					},
					"fill_holes": map[string]interface{}{
						"type":        "boolean",
						"default":     true,
						"description": "Fill boundary holes",
					},
					"max_hole_size": map[string]interface{}{
						"type":        "integer",
						"default":     30,
						"description": "Maximum boundary-edge count of holes to fill",
					},
					"reorient_normals": map[string]interface{}{
						"type":        "boolean",
						"default":     true,
						"description": "Recompute and coherently orient normals",
					},
					"remove_small_components": map[string]interface{}{
						"type":        "boolean",
						"default":     true,
						"description": "Delete small disconnected components",
					},
					"min_component_size": map[string]interface{}{
						"type":        "integer",
						"default":     25,
						"description": "Minimum face count to keep a component",
					},
				},
				"required": []string{"input_path", "output_path"},
			},
		},

		// Alignment
		{
			Name:        "align_icp",
			Description: "Align a source mesh onto a target mesh using Iterative Closest Point (ICP). Writes the aligned source mesh to output_path and reports iterations, RMS error, and the 4x4 transform.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source_path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the scan to be aligned",
					},
					"target_path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the fixed reference mesh",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Path to write the aligned source mesh",
					},
					"sample_number": map[string]interface{}{
						"type":        "integer",
						"default":     2000,
						"description": "ICP samples per iteration",
					},
					"max_iterations": map[string]interface{}{
						"type":        "integer",
						"default":     75,
						"description": "Maximum ICP iterations",
					},
				},
				"required": []string{"source_path", "target_path", "output_path"},
			},
		},
		{
			Name:        "align_point_based",
			Description: "Compute the rigid transform from explicit point correspondences (picked landmarks). Needs at least 3 pairs. Optionally applies the transform to a mesh and writes the result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pairs": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"source": map[string]interface{}{
									"type":        "array",
									"items":       map[string]interface{}{"type": "number"},
									"description": "Source point as [x, y, z]",
								},
								"target": map[string]interface{}{
									"type":        "array",
									"items":       map[string]interface{}{"type": "number"},
									"description": "Target point as [x, y, z]",
								},
							},
							"required": []string{"source", "target"},
						},
						"description": "Corresponding point pairs between source and target",
					},
					"source_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional mesh to transform with the computed alignment",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Where to write the transformed mesh (required with source_path)",
					},
				},
				"required": []string{"pairs"},
			},
		},
		{
			Name:        "global_align",
			Description: "Register a set of scans into the frame of the first one. Loads every mesh in mesh_paths, aligns them, then saves each to output_dir.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mesh_paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Paths to mesh files to align globally",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory to write the aligned meshes",
					},
					"output_format": map[string]interface{}{
						"type":        "string",
						"default":     ".ply",
						"description": "Output file extension (e.g. '.ply', '.obj')",
					},
				},
				"required": []string{"mesh_paths", "output_dir"},
			},
		},

		// Batch Operations
		{
			Name:        "batch_repair",
			Description: "Repair every mesh in an input directory and write results to an output directory.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory containing input mesh files",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory where repaired meshes are saved",
					},
					"output_format": map[string]interface{}{
						"type":        "string",
						"default":     ".ply",
						"description": "Output file extension",
					},
					"remove_duplicates":       map[string]interface{}{"type": "boolean", "default": true},
					"fill_holes":              map[string]interface{}{"type": "boolean", "default": true},
					"max_hole_size":           map[string]interface{}{"type": "integer", "default": 30},
					"reorient_normals":        map[string]interface{}{"type": "boolean", "default": true},
					"remove_small_components": map[string]interface{}{"type": "boolean", "default": true},
					"min_component_size":      map[string]interface{}{"type": "integer", "default": 25},
					"recursive": map[string]interface{}{
						"type":        "boolean",
						"default":     false,
						"description": "Process sub-directories recursively",
					},
				},
				"required": []string{"input_dir", "output_dir"},
			},
		},
		{
			Name:        "batch_align",
			Description: "ICP-align every mesh in an input directory against a single target (reference) mesh and write aligned meshes to an output directory.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory of scan files to align",
					},
					"target_mesh": map[string]interface{}{
						"type":        "string",
						"description": "Path to the fixed reference mesh",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory where aligned meshes are saved",
					},
					"output_format": map[string]interface{}{
						"type":        "string",
						"default":     ".ply",
						"description": "Output file extension",
					},
					"icp_sample_number":  map[string]interface{}{"type": "integer", "default": 2000},
					"icp_max_iterations": map[string]interface{}{"type": "integer", "default": 75},
					"recursive":          map[string]interface{}{"type": "boolean", "default": false},
				},
				"required": []string{"input_dir", "target_mesh", "output_dir"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
