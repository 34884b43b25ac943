// Package server implements the MCP (Model Context Protocol) server for mesh
// processing tools.
//
// This package provides a JSON-RPC 2.0 server that exposes scan alignment,
// mesh repair, and batch processing through the MCP protocol. It's designed
// to work with Claude and other MCP-compatible clients, enabling AI systems
// to drive mesh workflows directly.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Mesh Inspection:
//   - load_mesh: Load mesh files and get per-mesh statistics
//   - get_mesh_info: Vertex/face counts and bounding box for one file
//
// Repair:
//   - repair_mesh: Duplicate removal, hole filling, normal reorientation,
//     small-component removal
//
// Alignment:
//   - align_icp: Register a source scan onto a target via ICP
//   - align_point_based: Rigid transform from picked point correspondences
//   - global_align: Register a whole set of scans into a common frame
//
// Batch Operations:
//   - batch_repair: Repair every mesh in a directory
//   - batch_align: ICP-align every mesh in a directory against one target
//
// # Sessions
//
// Each tool call creates a fresh session, loads the meshes it names, and
// discards the session when done. Nothing is cached between calls; the file
// system is the only state that persists.
//
// # Defaults
//
// Optional tool parameters (hole sizes, ICP sample counts, and so on) fall
// back to the server's configuration, loaded at startup from the file named
// by MESH_MCP_CONFIG. Arguments present in a call always win.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(config.Default())
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
