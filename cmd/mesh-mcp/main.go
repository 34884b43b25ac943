package main

import (
	"fmt"
	"log"
	"os"

	"github.com/scanforge/mesh-tools-mcp/internal/config"
	"github.com/scanforge/mesh-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("mesh-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("mesh-tools-mcp - MCP server for scan alignment and mesh repair")
			fmt.Println()
			fmt.Println("Usage: mesh-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  MESH_MCP_CONFIG=/path/to/config.yaml   Override repair/ICP defaults")
			fmt.Println("  MESH_MCP_LOG_LEVEL=debug               Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.FromEnvironment()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if os.Getenv("MESH_MCP_LOG_LEVEL") == "debug" {
		log.Printf("Mesh MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
