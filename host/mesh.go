package host

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidMesh     = errors.New("invalid mesh data")
	ErrSectionNotFound = errors.New("mesh section not found")
)

type MeshSection struct {
	Index     int      `json:"section_index"`
	Vertices  []Vector `json:"vertices"`
	Triangles []int    `json:"triangles"`
	Material  string   `json:"material,omitempty"`
}

// ProcMesh is a procedural mesh component made of indexed sections.
type ProcMesh struct {
	Sections map[int]*MeshSection `json:"sections"`
}

func NewProcMesh() *ProcMesh {
	return &ProcMesh{Sections: map[int]*MeshSection{}}
}

// ValidateMesh checks that triangles form whole faces over existing vertices.
func ValidateMesh(vertices []Vector, triangles []int) error {
	if len(vertices) < 3 {
		return fmt.Errorf("%w: need at least 3 vertices, got %d", ErrInvalidMesh, len(vertices))
	}
	if len(triangles) == 0 || len(triangles)%3 != 0 {
		return fmt.Errorf("%w: triangle index count %d is not a positive multiple of 3", ErrInvalidMesh, len(triangles))
	}
	for i, idx := range triangles {
		if idx < 0 || idx >= len(vertices) {
			return fmt.Errorf("%w: triangle index %d at position %d is out of range [0,%d)", ErrInvalidMesh, idx, i, len(vertices))
		}
	}
	return nil
}

// CreateSection replaces the section at index. A negative index appends.
func (m *ProcMesh) CreateSection(index int, vertices []Vector, triangles []int) (*MeshSection, error) {
	if err := ValidateMesh(vertices, triangles); err != nil {
		return nil, err
	}
	if index < 0 {
		index = len(m.Sections)
		for m.Sections[index] != nil {
			index++
		}
	}
	var material string
	if old, ok := m.Sections[index]; ok {
		material = old.Material
	}
	s := &MeshSection{
		Index:     index,
		Vertices:  append([]Vector(nil), vertices...),
		Triangles: append([]int(nil), triangles...),
		Material:  material,
	}
	m.Sections[index] = s
	return s, nil
}

// Clear removes one section, or all of them when index is negative. It
// returns the number of sections removed.
func (m *ProcMesh) Clear(index int) (int, error) {
	if index < 0 {
		n := len(m.Sections)
		m.Sections = map[int]*MeshSection{}
		return n, nil
	}
	if _, ok := m.Sections[index]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrSectionNotFound, index)
	}
	delete(m.Sections, index)
	return 1, nil
}

// SetMaterial assigns material to one section, or to all when index is
// negative.
func (m *ProcMesh) SetMaterial(index int, material string) ([]int, error) {
	if index >= 0 {
		s, ok := m.Sections[index]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrSectionNotFound, index)
		}
		s.Material = material
		return []int{index}, nil
	}
	if len(m.Sections) == 0 {
		return nil, fmt.Errorf("%w: mesh has no sections", ErrSectionNotFound)
	}
	var touched []int
	for i, s := range m.Sections {
		s.Material = material
		touched = append(touched, i)
	}
	sort.Ints(touched)
	return touched, nil
}

// Stats summarises the mesh.
func (m *ProcMesh) Stats() (sections, vertices, triangles int) {
	for _, s := range m.Sections {
		vertices += len(s.Vertices)
		triangles += len(s.Triangles) / 3
	}
	return len(m.Sections), vertices, triangles
}
