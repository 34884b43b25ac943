// Package session manages an in-memory mesh-processing session: an ordered
// list of loaded meshes with a current-mesh cursor, mirroring how the
// underlying engine tracks layers. Mesh ids are list positions and shift
// down when an earlier mesh is deleted.
package session

import (
	"fmt"
	"sync"

	"github.com/scanforge/mesh-tools-mcp/internal/meshio"
)

// Session holds the meshes for one unit of work. Tool calls typically
// create a fresh session, load what they need, operate, and save.
//
// Session is safe for concurrent use; all methods lock internally.
type Session struct {
	mu      sync.Mutex
	meshes  []*meshio.Mesh
	sources []string
	current int
}

// New creates an empty session.
func New() *Session {
	return &Session{current: -1}
}

// MeshInfo is the per-mesh statistics block returned to tool callers.
type MeshInfo struct {
	MeshID      int        `json:"mesh_id"`
	Source      string     `json:"source,omitempty"`
	VertexCount int        `json:"vertex_count"`
	FaceCount   int        `json:"face_count"`
	BoundingBox BoundsInfo `json:"bounding_box"`
}

// BoundsInfo serializes a bounding box as coordinate triples plus the
// diagonal length.
type BoundsInfo struct {
	Min      [3]float64 `json:"min"`
	Max      [3]float64 `json:"max"`
	Diagonal float64    `json:"diagonal"`
}

// LoadMesh reads a mesh file into the session, makes it current, and
// returns its id.
func (s *Session) LoadMesh(path string) (int, error) {
	m, err := meshio.Load(path)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meshes = append(s.meshes, m)
	s.sources = append(s.sources, path)
	s.current = len(s.meshes) - 1
	return s.current, nil
}

// AddMesh inserts an already-built mesh (e.g. a repaired copy), makes it
// current, and returns its id.
func (s *Session) AddMesh(m *meshio.Mesh, source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meshes = append(s.meshes, m)
	s.sources = append(s.sources, source)
	s.current = len(s.meshes) - 1
	return s.current
}

// SaveMesh writes the mesh with the given id (or the current mesh when id
// is negative) to path. The output format follows the file extension and
// parent directories are created as needed.
func (s *Session) SaveMesh(path string, id int) error {
	s.mu.Lock()
	if id >= 0 {
		if err := s.setCurrentLocked(id); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	if s.current < 0 {
		s.mu.Unlock()
		return fmt.Errorf("session has no meshes to save")
	}
	m := s.meshes[s.current]
	s.mu.Unlock()

	return meshio.Save(path, m)
}

// SetActiveMesh makes the mesh with the given id current.
func (s *Session) SetActiveMesh(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCurrentLocked(id)
}

// DeleteMesh removes a mesh from the session. Ids of later meshes shift
// down by one; the current cursor follows the deleted slot's successor.
func (s *Session) DeleteMesh(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.meshes) {
		return fmt.Errorf("no mesh with id %d (session has %d)", id, len(s.meshes))
	}
	s.meshes = append(s.meshes[:id], s.meshes[id+1:]...)
	s.sources = append(s.sources[:id], s.sources[id+1:]...)
	if len(s.meshes) == 0 {
		s.current = -1
	} else if s.current >= len(s.meshes) {
		s.current = len(s.meshes) - 1
	}
	return nil
}

// Mesh returns the mesh with the given id, or the current mesh when id is
// negative. The returned mesh is shared, not copied; callers mutating it
// are operating on session state by design.
func (s *Session) Mesh(id int) (*meshio.Mesh, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 {
		id = s.current
	}
	if id < 0 || id >= len(s.meshes) {
		return nil, fmt.Errorf("no mesh with id %d (session has %d)", id, len(s.meshes))
	}
	return s.meshes[id], nil
}

// MeshCount returns the number of meshes in the session.
func (s *Session) MeshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.meshes)
}

// CurrentMeshID returns the id of the current mesh, or -1 when the session
// is empty.
func (s *Session) CurrentMeshID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// MeshInfo returns statistics for the mesh with the given id (current mesh
// when negative). Querying makes that mesh current, matching the engine's
// cursor behavior.
func (s *Session) MeshInfo(id int) (*MeshInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= 0 {
		if err := s.setCurrentLocked(id); err != nil {
			return nil, err
		}
	}
	if s.current < 0 {
		return nil, fmt.Errorf("session has no meshes")
	}
	return s.infoLocked(s.current), nil
}

// ListMeshes returns statistics for every mesh without disturbing the
// current-mesh cursor.
func (s *Session) ListMeshes() []*MeshInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]*MeshInfo, len(s.meshes))
	for i := range s.meshes {
		infos[i] = s.infoLocked(i)
	}
	return infos
}

func (s *Session) setCurrentLocked(id int) error {
	if id < 0 || id >= len(s.meshes) {
		return fmt.Errorf("no mesh with id %d (session has %d)", id, len(s.meshes))
	}
	s.current = id
	return nil
}

func (s *Session) infoLocked(id int) *MeshInfo {
	m := s.meshes[id]
	box := m.BoundingBox()
	return &MeshInfo{
		MeshID:      id,
		Source:      s.sources[id],
		VertexCount: m.VertexCount(),
		FaceCount:   m.FaceCount(),
		BoundingBox: BoundsInfo{
			Min:      [3]float64{box.Min.X, box.Min.Y, box.Min.Z},
			Max:      [3]float64{box.Max.X, box.Max.Y, box.Max.Z},
			Diagonal: box.Diagonal(),
		},
	}
}
