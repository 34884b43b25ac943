// Package batch applies repair and alignment operations to whole
// directories of mesh files.
//
// Failures are collected, not raised: each input file yields a Record with
// status "ok" or "error", so one unreadable scan does not abort a batch of
// hundreds.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scanforge/mesh-tools-mcp/internal/align"
	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
	"github.com/scanforge/mesh-tools-mcp/internal/repair"
)

// MeshExtensions is the set of file extensions treated as mesh files during
// directory discovery. Extensions are lowercase and include the dot.
var MeshExtensions = map[string]bool{
	".ply": true, ".obj": true, ".stl": true, ".off": true,
	".xyz": true, ".pts": true, ".3ds": true, ".dae": true,
	".x3d": true, ".wrl": true, ".glb": true, ".gltf": true,
}

// DefaultOutputFormat is used when a batch call does not name one.
const DefaultOutputFormat = ".ply"

// Record is the per-file outcome of a batch run.
type Record struct {
	Input     string           `json:"input"`
	Output    string           `json:"output"`
	Status    string           `json:"status"`
	Error     string           `json:"error,omitempty"`
	Alignment *align.ICPResult `json:"alignment,omitempty"`
}

const (
	statusOK    = "ok"
	statusError = "error"
)

// Operation is applied to each loaded mesh in a Process run. The mesh is
// saved afterwards, so mutations are the point.
type Operation func(m *meshio.Mesh) error

// Process loads every mesh file in inputDir, applies op, and writes the
// result to outputDir with the given extension. When recursive is set,
// sub-directories are walked and their relative structure is mirrored under
// outputDir. Files are processed in sorted path order. Per-file failures
// land in the returned records; only setup problems (unreadable input
// directory) are returned as an error.
func Process(inputDir, outputDir, outputFormat string, recursive bool, op Operation) ([]Record, error) {
	outputFormat = normalizeFormat(outputFormat)
	files, err := listMeshFiles(inputDir, recursive)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	records := make([]Record, 0, len(files))
	for _, file := range files {
		outFile, err := outputPath(inputDir, outputDir, file, outputFormat)
		if err != nil {
			return nil, err
		}
		rec := Record{Input: file, Output: outFile}

		if err := processOne(file, outFile, op); err != nil {
			rec.Status = statusError
			rec.Error = err.Error()
		} else {
			rec.Status = statusOK
		}
		records = append(records, rec)
	}
	return records, nil
}

func processOne(inFile, outFile string, op Operation) error {
	if !meshio.CanLoad(inFile) {
		return fmt.Errorf("no reader for %s files", filepath.Ext(inFile))
	}
	m, err := meshio.Load(inFile)
	if err != nil {
		return err
	}
	if err := op(m); err != nil {
		return err
	}
	return meshio.Save(outFile, m)
}

// Repair runs the repair pipeline over every mesh in inputDir.
func Repair(inputDir, outputDir, outputFormat string, opts repair.Options, recursive bool) ([]Record, error) {
	return Process(inputDir, outputDir, outputFormat, recursive, func(m *meshio.Mesh) error {
		repair.Repair(m, opts)
		return nil
	})
}

// Align registers every mesh in inputDir against the fixed mesh at
// targetPath and writes the transformed scans to outputDir. The target mesh
// itself is skipped if it happens to live inside inputDir, and is never
// copied to the output. Successful records carry the per-file ICP result.
func Align(inputDir, outputDir, targetPath, outputFormat string, opts align.ICPOptions, recursive bool) ([]Record, error) {
	outputFormat = normalizeFormat(outputFormat)
	target, err := meshio.Load(targetPath)
	if err != nil {
		return nil, fmt.Errorf("loading target mesh: %w", err)
	}
	files, err := listMeshFiles(inputDir, recursive)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, file := range files {
		if abs, err := filepath.Abs(file); err == nil && abs == absTarget {
			continue
		}
		outFile, err := outputPath(inputDir, outputDir, file, outputFormat)
		if err != nil {
			return nil, err
		}
		rec := Record{Input: file, Output: outFile}

		res, err := alignOne(file, outFile, target, opts)
		if err != nil {
			rec.Status = statusError
			rec.Error = err.Error()
		} else {
			rec.Status = statusOK
			rec.Alignment = res
		}
		records = append(records, rec)
	}
	return records, nil
}

func alignOne(inFile, outFile string, target *meshio.Mesh, opts align.ICPOptions) (*align.ICPResult, error) {
	if !meshio.CanLoad(inFile) {
		return nil, fmt.Errorf("no reader for %s files", filepath.Ext(inFile))
	}
	source, err := meshio.Load(inFile)
	if err != nil {
		return nil, err
	}
	res, err := align.ICP(source, target, opts)
	if err != nil {
		return nil, err
	}
	source.ApplyTransform(res.Transform)
	if err := meshio.Save(outFile, source); err != nil {
		return nil, err
	}
	return res, nil
}

// listMeshFiles returns the mesh files under dir in sorted order.
func listMeshFiles(dir string, recursive bool) ([]string, error) {
	var files []string
	if recursive {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && MeshExtensions[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking input directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading input directory: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && MeshExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// outputPath maps an input file to its output location, preserving the path
// relative to inputDir and swapping the extension.
func outputPath(inputDir, outputDir, file, outputFormat string) (string, error) {
	rel, err := filepath.Rel(inputDir, file)
	if err != nil {
		return "", err
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + outputFormat
	return filepath.Join(outputDir, rel), nil
}

func normalizeFormat(format string) string {
	if format == "" {
		return DefaultOutputFormat
	}
	if !strings.HasPrefix(format, ".") {
		format = "." + format
	}
	return strings.ToLower(format)
}
