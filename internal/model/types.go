// Package model implements the in-memory scene graph of the
// geometry-packaging pipeline: Primitive, PrimitiveInstance, Entity, Tile,
// and the Model that owns them. Every cross-reference is a dense uint32
// index into one of Model's insertion-ordered slices — never a pointer —
// so the encoder's flat wire layout is the natural on-disk form of the
// in-memory graph (spec.md §9, "Back-references").
package model

import "github.com/basaltgeo/geopack/internal/geomutil"

// PrimitiveIndex, EntityIndex, InstanceIndex, and TileIndex are dense,
// insertion-ordered arena handles. Index i always refers to
// Model.Primitives[i] / Entities[i] / Instances[i] / Tiles[i].
type (
	PrimitiveIndex uint32
	EntityIndex    uint32
	InstanceIndex  uint32
	TileIndex      uint32
)

// Primitive is a geometry atom (spec.md §3). Positions and normals are in
// world space when Reused is false (the modeling matrix has already been
// baked in at creation) and in primitive-local/object space when Reused is
// true.
type Primitive struct {
	ID    string
	Index PrimitiveIndex

	Color   [3]uint8
	Opacity uint8
	Reused  bool

	Positions []float32 // flat xyz triples
	Normals   []float32 // flat xyz triples, same frame as Positions; stored as given (after the normal-matrix transform when Reused is false), not renormalized

	NormalsOctEncoded [][2]int8
	Indices           []uint32
	EdgeIndices       []uint32

	// PositionsQuantized is populated later, by the tiler: against the
	// owning tile's AABB when Reused is false, against the model-wide
	// instanced-primitives AABB when Reused is true.
	PositionsQuantized []uint16
}

// VertexCount returns the number of vertices (len(Positions)/3).
func (p *Primitive) VertexCount() int {
	return len(p.Positions) / 3
}

// PrimitiveInstance is a (primitive, entity) usage record: a dense array
// entry that gives the list of "primitive uses" a stable ordering, which
// is the wire layout's ordering authority (spec.md §3).
type PrimitiveInstance struct {
	Index     InstanceIndex
	Primitive PrimitiveIndex
	Entity    EntityIndex
}

// Entity is a named object aggregating one or more primitive instances
// (spec.md §3).
type Entity struct {
	ID    string
	Index EntityIndex

	// Matrix is the modeling transform. It is only meaningful when
	// HasReusedPrimitives is true; otherwise it has already been baked
	// into the referenced primitives' world-space positions.
	Matrix [16]float32

	PrimitiveInstances []InstanceIndex
	AABB               geomutil.AABB

	// HasReusedPrimitives is all-or-nothing: either every primitive this
	// entity uses is shared with another entity, or none is.
	HasReusedPrimitives bool
}

// Tile is a spatial bucket produced by the kd-tree partitioner
// (spec.md §3, §4.3).
type Tile struct {
	AABB                  geomutil.AABB
	PositionsDecodeMatrix [16]float32
	Entities              []EntityIndex
}
