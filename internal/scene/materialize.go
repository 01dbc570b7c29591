package scene

import (
	"fmt"
	"strconv"

	"github.com/basaltgeo/geopack/internal/pack"
)

// Materialize drives b through decoded's data following spec.md §4.5: a
// primitive referenced by more than one instance is materialized as
// geometry at most once (deduped by primitive index) and instanced by
// matrix-carrying meshes; a primitive referenced exactly once is
// materialized as a single self-contained mesh with its transform already
// baked in. Entities that end up with zero materialized meshes are
// skipped entirely.
//
// isObject is not carried anywhere in the decoded stream set (spec.md has
// no wire field for it); Materialize always passes true, the common case
// for a geometry-packaging scene where every entity denotes a renderable
// object rather than a logical grouping node.
func Materialize(decoded *pack.DecodedScene, b Builder) error {
	instanceCount := make(map[uint32]int, len(decoded.PrimitiveInstances))
	for _, primIdx := range decoded.PrimitiveInstances {
		instanceCount[primIdx]++
	}

	geometryCreated := make(map[uint32]bool)
	// Mesh IDs are sequential integers allocated by the decoder (spec.md
	// §4.5); Builder.CreateMesh's ID field is string-typed, so the
	// sequence is formatted as bare decimal text rather than a prefixed
	// tag.
	meshSeq := 0
	nextMeshID := func() string {
		id := strconv.Itoa(meshSeq)
		meshSeq++
		return id
	}

	for tileIdx, entityPositions := range decoded.TileEntities {
		tileDecodeMatrix := decoded.TileDecodeMatrices[tileIdx]

		for _, entityPos := range entityPositions {
			if int(entityPos) >= len(decoded.EntityIDs) {
				return fmt.Errorf("scene: entity position %d out of range", entityPos)
			}

			entityID := decoded.EntityIDs[entityPos]
			instancePositions := decoded.EntityPrimitiveInstances[entityPos]
			matrix := decoded.EntityMatrices[entityPos]

			var meshIDs []string
			for _, instPos := range instancePositions {
				if int(instPos) >= len(decoded.PrimitiveInstances) {
					return fmt.Errorf("scene: instance position %d out of range", instPos)
				}
				primIdx := decoded.PrimitiveInstances[instPos]

				meshID := nextMeshID()
				if instanceCount[primIdx] > 1 {
					geomID := fmt.Sprintf("geom-%d", primIdx)
					if !geometryCreated[primIdx] {
						if err := b.CreateGeometry(GeometrySpec{
							ID:                    geomID,
							Positions:             decoded.PrimitivePositions[primIdx],
							Normals:               decoded.PrimitiveNormals[primIdx],
							Indices:               decoded.PrimitiveIndices[primIdx],
							EdgeIndices:           decoded.PrimitiveEdgeIndices[primIdx],
							PositionsDecodeMatrix: decoded.InstancedPrimitivesDecodeMatrix,
						}); err != nil {
							return fmt.Errorf("scene: create geometry %q: %w", geomID, err)
						}
						geometryCreated[primIdx] = true
					}
					if err := b.CreateMesh(MeshSpec{
						ID:         meshID,
						GeometryID: geomID,
						Matrix:     matrix,
					}); err != nil {
						return fmt.Errorf("scene: create mesh %q: %w", meshID, err)
					}
				} else {
					if err := b.CreateMesh(MeshSpec{
						ID:                    meshID,
						Positions:             decoded.PrimitivePositions[primIdx],
						Normals:               decoded.PrimitiveNormals[primIdx],
						Indices:               decoded.PrimitiveIndices[primIdx],
						EdgeIndices:           decoded.PrimitiveEdgeIndices[primIdx],
						PositionsDecodeMatrix: tileDecodeMatrix,
						Color:                 decoded.PrimitiveColors[primIdx],
						Opacity:               decoded.PrimitiveOpacities[primIdx],
					}); err != nil {
						return fmt.Errorf("scene: create mesh %q: %w", meshID, err)
					}
				}
				meshIDs = append(meshIDs, meshID)
			}

			if len(meshIDs) == 0 {
				continue
			}
			if err := b.CreateEntity(entityID, true, meshIDs); err != nil {
				return fmt.Errorf("scene: create entity %q: %w", entityID, err)
			}
		}
	}

	return nil
}
