package repair

import (
	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
)

// Options selects which repair steps run and with what thresholds. The zero
// value runs nothing; use DefaultOptions for the standard pipeline.
type Options struct {
	RemoveDuplicates      bool `json:"remove_duplicates" yaml:"remove_duplicates"`
	FillHoles             bool `json:"fill_holes" yaml:"fill_holes"`
	MaxHoleSize           int  `json:"max_hole_size" yaml:"max_hole_size"`
	SelfIntersectionGuard bool `json:"self_intersection_guard" yaml:"self_intersection_guard"`
	ReorientNormals       bool `json:"reorient_normals" yaml:"reorient_normals"`
	RemoveSmallComponents bool `json:"remove_small_components" yaml:"remove_small_components"`
	MinComponentSize      int  `json:"min_component_size" yaml:"min_component_size"`
}

// DefaultOptions enables every step with the standard thresholds: holes up
// to 30 boundary edges, components under 25 faces.
func DefaultOptions() Options {
	return Options{
		RemoveDuplicates:      true,
		FillHoles:             true,
		MaxHoleSize:           30,
		SelfIntersectionGuard: true,
		ReorientNormals:       true,
		RemoveSmallComponents: true,
		MinComponentSize:      25,
	}
}

// StepCount is the per-step change summary included in a Report.
type StepCount struct {
	Removed int `json:"removed,omitempty"`
	Filled  int `json:"filled,omitempty"`
	Flipped int `json:"flipped,omitempty"`
}

// Report aggregates what each executed repair step changed. Steps that were
// not selected are omitted from the JSON encoding.
type Report struct {
	DuplicateFaces    *StepCount `json:"duplicate_faces,omitempty"`
	DuplicateVertices *StepCount `json:"duplicate_vertices,omitempty"`
	HoleFilling       *StepCount `json:"hole_filling,omitempty"`
	Normals           *StepCount `json:"normals,omitempty"`
	IsolatedPieces    *StepCount `json:"isolated_pieces,omitempty"`
}

// Repair runs the selected steps on the mesh in the canonical order:
// duplicates first (restoring manifoldness), then hole filling, normal
// reorientation, and small-component removal.
func Repair(m *meshio.Mesh, opts Options) *Report {
	report := &Report{}

	if opts.RemoveDuplicates {
		report.DuplicateFaces = &StepCount{Removed: RemoveDuplicateFaces(m)}
		report.DuplicateVertices = &StepCount{Removed: RemoveDuplicateVertices(m)}
	}
	if opts.FillHoles {
		report.HoleFilling = &StepCount{Filled: FillHoles(m, opts.MaxHoleSize, opts.SelfIntersectionGuard)}
	}
	if opts.ReorientNormals {
		report.Normals = &StepCount{Flipped: FixNormals(m, true)}
	}
	if opts.RemoveSmallComponents {
		report.IsolatedPieces = &StepCount{Removed: RemoveIsolatedPieces(m, opts.MinComponentSize)}
	}
	return report
}
