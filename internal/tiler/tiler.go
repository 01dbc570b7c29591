package tiler

import (
	"github.com/basaltgeo/geopack/internal/config"
	"github.com/basaltgeo/geopack/internal/geomutil"
	"github.com/basaltgeo/geopack/internal/model"
)

// BuildTiles partitions m's entities into Tiles with a kd-tree bounded to
// maxDepth (spec.md §4.3), then quantizes every primitive's positions: each
// non-reused primitive against the AABB of the tile that holds its entity,
// each reused primitive against the model-wide
// InstancedPrimitivesDecodeMatrix computed from the union of all reused
// primitives' object-space positions (spec.md §9, Q1/Q2).
//
// BuildTiles is idempotent only in the sense that calling it twice on the
// same Model recomputes Tiles and all PositionsQuantized fields from
// scratch; it is not meant to be called incrementally.
func BuildTiles(m *model.Model, maxDepth int) error {
	m.Tiles = nil

	if len(m.Entities) == 0 {
		return quantizeReused(m)
	}

	root := &node{aabb: geomutil.EmptyAABB()}
	for i := range m.Entities {
		root.aabb.ExpandAABB(m.Entities[i].AABB)
	}

	for i := range m.Entities {
		insert(root, model.EntityIndex(i), m.Entities[i].AABB, 0, maxDepth)
	}

	var tiles []model.Tile
	flatten(root, &tiles)
	m.Tiles = tiles

	if err := quantizeNonReused(m); err != nil {
		return err
	}
	return quantizeReused(m)
}

// BuildTilesWithConfig is a convenience wrapper over BuildTiles for callers
// that already hold a loaded TilerConfig.
func BuildTilesWithConfig(m *model.Model, cfg config.TilerConfig) error {
	return BuildTiles(m, cfg.MaxDepth)
}

// quantizeNonReused quantizes each non-reused primitive's positions against
// the AABB of the tile holding its (single) owning entity.
func quantizeNonReused(m *model.Model) error {
	for _, tile := range m.Tiles {
		for _, entityIdx := range tile.Entities {
			entity := &m.Entities[entityIdx]
			for _, instIdx := range entity.PrimitiveInstances {
				inst := m.Instances[instIdx]
				prim := &m.Primitives[inst.Primitive]
				if prim.Reused {
					continue
				}
				quantized, err := geomutil.QuantizePositions(prim.Positions, tile.AABB)
				if err != nil {
					return err
				}
				prim.PositionsQuantized = quantized
			}
		}
	}
	return nil
}

// quantizeReused computes Model.InstancedPrimitivesDecodeMatrix from the
// union of every reused primitive's object-space positions, then quantizes
// each reused primitive against it. A model with no reused primitives
// leaves the decode matrix at its zero value; nothing references it in
// that case.
func quantizeReused(m *model.Model) error {
	unionBox := geomutil.EmptyAABB()
	anyReused := false

	for i := range m.Primitives {
		prim := &m.Primitives[i]
		if !prim.Reused {
			continue
		}
		anyReused = true
		for v := 0; v < prim.VertexCount(); v++ {
			unionBox.ExpandPoint([3]float32{
				prim.Positions[v*3],
				prim.Positions[v*3+1],
				prim.Positions[v*3+2],
			})
		}
	}

	if !anyReused {
		return nil
	}

	m.InstancedPrimitivesDecodeMatrix = geomutil.DecodeMatrixFromAABB(unionBox)

	for i := range m.Primitives {
		prim := &m.Primitives[i]
		if !prim.Reused {
			continue
		}
		quantized, err := geomutil.QuantizePositions(prim.Positions, unionBox)
		if err != nil {
			return err
		}
		prim.PositionsQuantized = quantized
	}

	return nil
}
