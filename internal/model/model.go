package model

import (
	"fmt"
	"math"

	"github.com/basaltgeo/geopack/internal/geomutil"
)

// Model is the root container: insertion-ordered vectors of primitives,
// instances, entities, and tiles, plus name→index maps for primitives and
// entities. Nothing is deleted before serialization (spec.md §3).
type Model struct {
	Primitives []Primitive
	Instances  []PrimitiveInstance
	Entities   []Entity
	Tiles      []Tile

	// InstancedPrimitivesDecodeMatrix maps the 16-bit quantized object-space
	// positions of reused primitives back to object space. It is populated
	// by the tiler, once, after every reused primitive has been created.
	InstancedPrimitivesDecodeMatrix [16]float32

	Warnings []Warning

	primitivesByID map[string]PrimitiveIndex
	entitiesByID   map[string]EntityIndex
}

// New returns an empty Model ready for ingest.
func New() *Model {
	return &Model{
		primitivesByID: make(map[string]PrimitiveIndex),
		entitiesByID:   make(map[string]EntityIndex),
	}
}

// PrimitiveByID returns the index of the primitive with the given id, and
// whether it exists.
func (m *Model) PrimitiveByID(id string) (PrimitiveIndex, bool) {
	idx, ok := m.primitivesByID[id]
	return idx, ok
}

// EntityByID returns the index of the entity with the given id, and
// whether it exists.
func (m *Model) EntityByID(id string) (EntityIndex, bool) {
	idx, ok := m.entitiesByID[id]
	return idx, ok
}

// CreatePrimitive ingests one geometry atom (spec.md §4.2).
//
// edge_indices is derived from the input positions/indices before any
// transform is applied. If reused is false, positions are transformed in
// place by modelingMatrix and normals by its inverse-transpose before
// oct-encoding; if reused is true, positions and normals stay in object
// space and the modeling-matrix transform is skipped entirely (spec.md §9,
// Q2).
func (m *Model) CreatePrimitive(
	id string,
	reused bool,
	modelingMatrix [16]float32,
	color [3]uint8,
	opacity uint8,
	positions []float32,
	normals []float32,
	indices []uint32,
	edgeThresholdDeg float64,
) (PrimitiveIndex, error) {
	if _, exists := m.primitivesByID[id]; exists {
		return 0, fmt.Errorf("%w: %q", ErrDuplicatePrimitive, id)
	}

	if err := validateMesh(positions, normals, indices); err != nil {
		return 0, fmt.Errorf("primitive %q: %w", id, err)
	}

	edgeIndices := geomutil.ExtractEdgeIndices(positions, indices, edgeThresholdDeg)

	finalPositions := append([]float32(nil), positions...)
	finalNormals := append([]float32(nil), normals...)

	if !reused {
		transformPositions(finalPositions, modelingMatrix)
		normalMatrix := geomutil.NormalMatrix3x3(modelingMatrix)
		transformNormals(finalNormals, normalMatrix)
	}

	octNormals := geomutil.EncodeOctNormals(finalNormals)

	idx := PrimitiveIndex(len(m.Primitives))
	m.Primitives = append(m.Primitives, Primitive{
		ID:                id,
		Index:             idx,
		Color:             color,
		Opacity:           opacity,
		Reused:            reused,
		Positions:         finalPositions,
		Normals:           finalNormals,
		NormalsOctEncoded: octNormals,
		Indices:           append([]uint32(nil), indices...),
		EdgeIndices:       edgeIndices,
	})
	m.primitivesByID[id] = idx

	return idx, nil
}

// CreateEntity ingests one named object (spec.md §4.2). It builds one
// instance per referenced primitive id, appending to the model-wide
// instances list, and computes the entity's world-space AABB. Unknown
// primitive ids are skipped and reported as a Warning rather than failing
// the build.
func (m *Model) CreateEntity(
	id string,
	modelingMatrix [16]float32,
	primitiveIDs []string,
	hasReusedPrimitives bool,
) (EntityIndex, error) {
	if _, exists := m.entitiesByID[id]; exists {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateEntity, id)
	}

	entityIdx := EntityIndex(len(m.Entities))
	entity := Entity{
		ID:                  id,
		Index:               entityIdx,
		Matrix:              modelingMatrix,
		HasReusedPrimitives: hasReusedPrimitives,
		AABB:                geomutil.EmptyAABB(),
	}

	for _, primID := range primitiveIDs {
		primIdx, ok := m.primitivesByID[primID]
		if !ok {
			m.Warnings = append(m.Warnings, Warning{
				Kind:    WarningUnknownPrimitive,
				Message: fmt.Sprintf("entity %q references unknown primitive %q", id, primID),
			})
			continue
		}

		instIdx := InstanceIndex(len(m.Instances))
		m.Instances = append(m.Instances, PrimitiveInstance{
			Index:     instIdx,
			Primitive: primIdx,
			Entity:    entityIdx,
		})
		entity.PrimitiveInstances = append(entity.PrimitiveInstances, instIdx)

		prim := &m.Primitives[primIdx]
		for v := 0; v < prim.VertexCount(); v++ {
			p := [3]float32{prim.Positions[v*3], prim.Positions[v*3+1], prim.Positions[v*3+2]}
			if hasReusedPrimitives {
				p = geomutil.TransformPoint(modelingMatrix, p)
			}
			entity.AABB.ExpandPoint(p)
		}
	}

	m.Entities = append(m.Entities, entity)
	m.entitiesByID[id] = entityIdx

	return entityIdx, nil
}

// IsPrimitiveReused reports whether a primitive is actually targeted by
// two or more instances — the ground truth behind the Reused flag, used
// by tests to check the invariant in spec.md §8.
func (m *Model) IsPrimitiveReused(idx PrimitiveIndex) bool {
	count := 0
	for _, inst := range m.Instances {
		if inst.Primitive == idx {
			count++
		}
	}
	return count >= 2
}

func validateMesh(positions, normals []float32, indices []uint32) error {
	if len(positions) == 0 {
		return fmt.Errorf("%w: empty positions", ErrInvalidInput)
	}
	if len(positions)%3 != 0 {
		return fmt.Errorf("%w: positions length %d not divisible by 3", ErrInvalidInput, len(positions))
	}
	if len(positions) != len(normals) {
		return fmt.Errorf("%w: positions/normals length mismatch (%d vs %d)", ErrInvalidInput, len(positions), len(normals))
	}

	vertexCount := uint32(len(positions) / 3)
	for _, idx := range indices {
		if idx >= vertexCount {
			return fmt.Errorf("%w: index %d out of range (vertex count %d)", ErrInvalidInput, idx, vertexCount)
		}
	}

	for _, v := range positions {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: non-finite position value", ErrInvalidInput)
		}
	}
	for _, v := range normals {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: non-finite normal value", ErrInvalidInput)
		}
	}

	return nil
}

func transformPositions(positions []float32, m [16]float32) {
	for i := 0; i < len(positions)/3; i++ {
		p := [3]float32{positions[i*3], positions[i*3+1], positions[i*3+2]}
		p = geomutil.TransformPoint(m, p)
		positions[i*3], positions[i*3+1], positions[i*3+2] = p[0], p[1], p[2]
	}
}

func transformNormals(normals []float32, normalMatrix [16]float32) {
	for i := 0; i < len(normals)/3; i++ {
		n := [3]float32{normals[i*3], normals[i*3+1], normals[i*3+2]}
		n = geomutil.TransformDirection(normalMatrix, n)
		normals[i*3], normals[i*3+1], normals[i*3+2] = n[0], n[1], n[2]
	}
}
