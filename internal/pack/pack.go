// Package pack implements the binary package-format-v6 serializer and its
// symmetric parser (spec.md §6): Encode turns a built model.Model into an
// Envelope of 17 independently compressed streams, and Decode reverses it.
package pack

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/basaltgeo/geopack/internal/geomutil"
	"github.com/basaltgeo/geopack/internal/model"
	"github.com/basaltgeo/geopack/internal/pack/wire"
)

// Encode serializes m into an Envelope. compressionLevel is passed straight
// to the zlib writer for every stream (see config.CodecConfig).
func Encode(m *model.Model, compressionLevel int) (*Envelope, []model.Warning, error) {
	raw, err := encodeRaw(m)
	if err != nil {
		return nil, m.Warnings, err
	}

	e := &Envelope{FormatVersion: FormatVersion}
	fields := e.streamFields()
	rawFields := raw.streamFields()
	for i := range fields {
		compressed, err := compressStream(*rawFields[i], compressionLevel)
		if err != nil {
			return nil, m.Warnings, err
		}
		*fields[i] = compressed
	}

	return e, m.Warnings, nil
}

// rawStreams mirrors Envelope but holds each stream's uncompressed bytes;
// only encodeRaw/decodeRaw see it.
type rawStreams struct {
	Positions                              []byte
	Normals                                []byte
	Indices                                []byte
	EdgeIndices                            []byte
	Matrices                                []byte
	InstancedPrimitivesDecodeMatrix         []byte
	EachPrimitivePositionsAndNormalsPortion []byte
	EachPrimitiveIndicesPortion             []byte
	EachPrimitiveEdgeIndicesPortion         []byte
	EachPrimitiveColorAndOpacity            []byte
	PrimitiveInstances                      []byte
	EachEntityID                            []byte
	EachEntityPrimitiveInstancesPortion     []byte
	EachEntityMatricesPortion               []byte
	EachTileAABB                            []byte
	EachTileDecodeMatrix                    []byte
	EachTileEntitiesPortion                 []byte
}

func (r *rawStreams) streamFields() []*[]byte {
	return []*[]byte{
		&r.Positions,
		&r.Normals,
		&r.Indices,
		&r.EdgeIndices,
		&r.Matrices,
		&r.InstancedPrimitivesDecodeMatrix,
		&r.EachPrimitivePositionsAndNormalsPortion,
		&r.EachPrimitiveIndicesPortion,
		&r.EachPrimitiveEdgeIndicesPortion,
		&r.EachPrimitiveColorAndOpacity,
		&r.PrimitiveInstances,
		&r.EachEntityID,
		&r.EachEntityPrimitiveInstancesPortion,
		&r.EachEntityMatricesPortion,
		&r.EachTileAABB,
		&r.EachTileDecodeMatrix,
		&r.EachTileEntitiesPortion,
	}
}

func encodeRaw(m *model.Model) (*rawStreams, error) {
	r := &rawStreams{}

	var positions, normals, indices, edgeIndices bytes.Buffer
	var primPositionsPortion, primIndicesPortion, primEdgeIndicesPortion bytes.Buffer
	var colorOpacity bytes.Buffer

	// Portion entries are starting offsets, not per-primitive counts
	// (spec.md §4.4): each entry is written before its primitive's elements
	// are appended, then the running offset advances by that primitive's
	// element count.
	var positionOffset, indexOffset, edgeOffset uint32

	for i := range m.Primitives {
		prim := &m.Primitives[i]

		if err := binary.Write(&primPositionsPortion, binary.LittleEndian, positionOffset); err != nil {
			return nil, fmt.Errorf("pack: encode positions portion: %w", err)
		}
		if err := binary.Write(&primIndicesPortion, binary.LittleEndian, indexOffset); err != nil {
			return nil, fmt.Errorf("pack: encode indices portion: %w", err)
		}
		if err := binary.Write(&primEdgeIndicesPortion, binary.LittleEndian, edgeOffset); err != nil {
			return nil, fmt.Errorf("pack: encode edge indices portion: %w", err)
		}

		for _, v := range prim.PositionsQuantized {
			if err := binary.Write(&positions, binary.LittleEndian, v); err != nil {
				return nil, fmt.Errorf("pack: encode positions: %w", err)
			}
		}
		for _, pair := range prim.NormalsOctEncoded {
			if err := binary.Write(&normals, binary.LittleEndian, pair[0]); err != nil {
				return nil, fmt.Errorf("pack: encode normals: %w", err)
			}
			if err := binary.Write(&normals, binary.LittleEndian, pair[1]); err != nil {
				return nil, fmt.Errorf("pack: encode normals: %w", err)
			}
		}
		for _, v := range prim.Indices {
			if err := binary.Write(&indices, binary.LittleEndian, v); err != nil {
				return nil, fmt.Errorf("pack: encode indices: %w", err)
			}
		}
		for _, v := range prim.EdgeIndices {
			if err := binary.Write(&edgeIndices, binary.LittleEndian, v); err != nil {
				return nil, fmt.Errorf("pack: encode edge indices: %w", err)
			}
		}
		positionOffset += uint32(prim.VertexCount())
		indexOffset += uint32(len(prim.Indices))
		edgeOffset += uint32(len(prim.EdgeIndices))

		if err := wire.WriteColorOpacity(&colorOpacity, prim.Color, prim.Opacity); err != nil {
			return nil, fmt.Errorf("pack: encode color/opacity: %w", err)
		}
	}

	r.Positions = positions.Bytes()
	r.Normals = normals.Bytes()
	r.Indices = indices.Bytes()
	r.EdgeIndices = edgeIndices.Bytes()
	r.EachPrimitivePositionsAndNormalsPortion = primPositionsPortion.Bytes()
	r.EachPrimitiveIndicesPortion = primIndicesPortion.Bytes()
	r.EachPrimitiveEdgeIndicesPortion = primEdgeIndicesPortion.Bytes()
	r.EachPrimitiveColorAndOpacity = colorOpacity.Bytes()

	var instancedMatrix bytes.Buffer
	if err := wire.WriteMatrix4(&instancedMatrix, m.InstancedPrimitivesDecodeMatrix); err != nil {
		return nil, fmt.Errorf("pack: encode instanced decode matrix: %w", err)
	}
	r.InstancedPrimitivesDecodeMatrix = instancedMatrix.Bytes()

	// Entities (and everything keyed by entity: instances, matrices, ids)
	// are written in tile order, not model-insertion order: each tile's
	// entities_portion offset only makes sense against entity-keyed streams
	// grouped the same way, since there is no separate tile->entity index
	// stream on the wire.
	entityOrder := tileEntityOrder(m)

	entityIDs := make([]string, len(entityOrder))
	var matrices bytes.Buffer
	var entityMatricesPortion bytes.Buffer
	var entityInstancesPortion bytes.Buffer
	var primitiveInstances bytes.Buffer
	var instanceOffset, matrixOffset uint32
	for i, entityIdx := range entityOrder {
		entity := &m.Entities[entityIdx]
		entityIDs[i] = entity.ID

		if err := binary.Write(&entityInstancesPortion, binary.LittleEndian, instanceOffset); err != nil {
			return nil, fmt.Errorf("pack: encode entity instances portion: %w", err)
		}
		for _, instIdx := range entity.PrimitiveInstances {
			if err := binary.Write(&primitiveInstances, binary.LittleEndian, uint32(m.Instances[instIdx].Primitive)); err != nil {
				return nil, fmt.Errorf("pack: encode primitive instances: %w", err)
			}
		}
		instanceOffset += uint32(len(entity.PrimitiveInstances))

		// each_entity_matrices_portion is a running offset into the
		// matrices stream, in floats (spec.md §4.4); it advances by 16
		// only for entities that actually append a matrix, so two
		// matrix-less entities in a row carry identical (zero-length)
		// offsets rather than a presence flag.
		if err := binary.Write(&entityMatricesPortion, binary.LittleEndian, matrixOffset); err != nil {
			return nil, fmt.Errorf("pack: encode entity matrices portion: %w", err)
		}
		if entity.HasReusedPrimitives {
			if err := wire.WriteMatrix4(&matrices, entity.Matrix); err != nil {
				return nil, fmt.Errorf("pack: encode entity matrix: %w", err)
			}
			matrixOffset += 16
		}
	}
	r.Matrices = matrices.Bytes()
	r.EachEntityMatricesPortion = entityMatricesPortion.Bytes()
	r.EachEntityPrimitiveInstancesPortion = entityInstancesPortion.Bytes()
	r.PrimitiveInstances = primitiveInstances.Bytes()

	idJSON, err := json.Marshal(entityIDs)
	if err != nil {
		return nil, fmt.Errorf("pack: encode entity ids: %w", err)
	}
	r.EachEntityID = idJSON

	var tileAABB, tileDecodeMatrix, tileEntitiesPortion bytes.Buffer
	var entityOffset uint32
	for i := range m.Tiles {
		tile := &m.Tiles[i]
		if err := wire.WriteAABB(&tileAABB, tile.AABB); err != nil {
			return nil, fmt.Errorf("pack: encode tile aabb: %w", err)
		}
		if err := wire.WriteMatrix4(&tileDecodeMatrix, tile.PositionsDecodeMatrix); err != nil {
			return nil, fmt.Errorf("pack: encode tile decode matrix: %w", err)
		}
		if err := binary.Write(&tileEntitiesPortion, binary.LittleEndian, entityOffset); err != nil {
			return nil, fmt.Errorf("pack: encode tile entities portion: %w", err)
		}
		entityOffset += uint32(len(tile.Entities))
	}
	r.EachTileAABB = tileAABB.Bytes()
	r.EachTileDecodeMatrix = tileDecodeMatrix.Bytes()
	r.EachTileEntitiesPortion = tileEntitiesPortion.Bytes()

	return r, nil
}

// tileEntityOrder returns every entity index in tile order: tiles as
// flattened by the kd-tree partitioner, and within each tile the entities
// in model-insertion order (spec.md §4.3). Models with entities but no
// tiles (the tiler was never run) fall back to insertion order.
func tileEntityOrder(m *model.Model) []model.EntityIndex {
	if len(m.Tiles) == 0 {
		order := make([]model.EntityIndex, len(m.Entities))
		for i := range order {
			order[i] = model.EntityIndex(i)
		}
		return order
	}
	var order []model.EntityIndex
	for i := range m.Tiles {
		order = append(order, m.Tiles[i].Entities...)
	}
	return order
}

// DecodedScene is the symmetric-parser output (spec.md §6): every stream
// decompressed and parsed back into typed slices, with per-primitive /
// per-entity / per-tile boundaries restored from the portion arrays.
// Entity-keyed fields (EntityIDs, EntityPrimitiveInstances, EntityMatrices)
// are in tile order, grouped the same way TileEntities splits them, not in
// original model-insertion order.
type DecodedScene struct {
	FormatVersion uint32

	PrimitivePositions         [][]uint16
	PrimitiveNormals          [][][2]int8
	PrimitiveIndices          [][]uint32
	PrimitiveEdgeIndices      [][]uint32
	PrimitiveColors           [][3]uint8
	PrimitiveOpacities        []uint8

	InstancedPrimitivesDecodeMatrix [16]float32
	PrimitiveInstances               []uint32 // primitive index, one per instance

	EntityIDs               []string
	EntityPrimitiveInstances [][]uint32 // instance indices, one slice per entity
	EntityMatrices           []*[16]float32 // nil when the entity has no reused primitives

	TileAABBs          []geomutil.AABB
	TileDecodeMatrices [][16]float32
	TileEntities       [][]uint32
}

// Decode reverses Encode. It checks the envelope's FormatVersion (already
// validated by ReadEnvelope, re-checked here for callers that construct an
// Envelope directly) before touching any stream.
func Decode(e *Envelope) (*DecodedScene, error) {
	if e.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFormatVersionMismatch, e.FormatVersion, FormatVersion)
	}

	raw := &rawStreams{}
	rawFields := raw.streamFields()
	envFields := e.streamFields()
	for i := range envFields {
		decompressed, err := decompressStream(*envFields[i])
		if err != nil {
			return nil, err
		}
		*rawFields[i] = decompressed
	}

	return decodeRaw(raw)
}

func decodeRaw(r *rawStreams) (*DecodedScene, error) {
	primPositionsOffsets, err := readU32Array(r.EachPrimitivePositionsAndNormalsPortion)
	if err != nil {
		return nil, fmt.Errorf("pack: decode positions portion: %w", err)
	}
	primIndicesOffsets, err := readU32Array(r.EachPrimitiveIndicesPortion)
	if err != nil {
		return nil, fmt.Errorf("pack: decode indices portion: %w", err)
	}
	primEdgeIndicesOffsets, err := readU32Array(r.EachPrimitiveEdgeIndicesPortion)
	if err != nil {
		return nil, fmt.Errorf("pack: decode edge indices portion: %w", err)
	}

	// Portion arrays hold starting offsets, not counts (spec.md §4.4): a
	// slice's length is the next entry's offset minus its own, or the
	// indexed stream's total element count for the final entry.
	if len(r.Positions)%6 != 0 {
		return nil, fmt.Errorf("pack: decode positions: %w", ErrTruncatedStream)
	}
	primPositionsCounts := portionLengths(primPositionsOffsets, uint32(len(r.Positions)/6))

	if len(r.Indices)%4 != 0 {
		return nil, fmt.Errorf("pack: decode indices: %w", ErrTruncatedStream)
	}
	primIndicesCounts := portionLengths(primIndicesOffsets, uint32(len(r.Indices)/4))

	if len(r.EdgeIndices)%4 != 0 {
		return nil, fmt.Errorf("pack: decode edge indices: %w", ErrTruncatedStream)
	}
	primEdgeIndicesCounts := portionLengths(primEdgeIndicesOffsets, uint32(len(r.EdgeIndices)/4))

	d := &DecodedScene{FormatVersion: FormatVersion}

	posReader := bytes.NewReader(r.Positions)
	normReader := bytes.NewReader(r.Normals)
	idxReader := bytes.NewReader(r.Indices)
	edgeReader := bytes.NewReader(r.EdgeIndices)

	for _, count := range primPositionsCounts {
		positions := make([]uint16, count*3)
		if err := binary.Read(posReader, binary.LittleEndian, &positions); err != nil {
			return nil, fmt.Errorf("pack: decode positions: %w", err)
		}
		d.PrimitivePositions = append(d.PrimitivePositions, positions)

		normals := make([][2]int8, count)
		for i := range normals {
			if err := binary.Read(normReader, binary.LittleEndian, &normals[i][0]); err != nil {
				return nil, fmt.Errorf("pack: decode normals: %w", err)
			}
			if err := binary.Read(normReader, binary.LittleEndian, &normals[i][1]); err != nil {
				return nil, fmt.Errorf("pack: decode normals: %w", err)
			}
		}
		d.PrimitiveNormals = append(d.PrimitiveNormals, normals)
	}

	for _, count := range primIndicesCounts {
		indices := make([]uint32, count)
		if err := binary.Read(idxReader, binary.LittleEndian, &indices); err != nil {
			return nil, fmt.Errorf("pack: decode indices: %w", err)
		}
		d.PrimitiveIndices = append(d.PrimitiveIndices, indices)
	}

	for _, count := range primEdgeIndicesCounts {
		edges := make([]uint32, count)
		if err := binary.Read(edgeReader, binary.LittleEndian, &edges); err != nil {
			return nil, fmt.Errorf("pack: decode edge indices: %w", err)
		}
		d.PrimitiveEdgeIndices = append(d.PrimitiveEdgeIndices, edges)
	}

	colorReader := bytes.NewReader(r.EachPrimitiveColorAndOpacity)
	for range primPositionsCounts {
		color, opacity, err := wire.ReadColorOpacity(colorReader)
		if err != nil {
			return nil, fmt.Errorf("pack: decode color/opacity: %w", err)
		}
		d.PrimitiveColors = append(d.PrimitiveColors, color)
		d.PrimitiveOpacities = append(d.PrimitiveOpacities, opacity)
	}

	instancedMatrix, err := wire.ReadMatrix4(bytes.NewReader(r.InstancedPrimitivesDecodeMatrix))
	if err != nil {
		return nil, fmt.Errorf("pack: decode instanced decode matrix: %w", err)
	}
	d.InstancedPrimitivesDecodeMatrix = instancedMatrix

	d.PrimitiveInstances, err = readU32Array(r.PrimitiveInstances)
	if err != nil {
		return nil, fmt.Errorf("pack: decode primitive instances: %w", err)
	}

	if err := json.Unmarshal(r.EachEntityID, &d.EntityIDs); err != nil {
		return nil, fmt.Errorf("pack: decode entity ids: %w", err)
	}

	entityInstanceOffsets, err := readU32Array(r.EachEntityPrimitiveInstancesPortion)
	if err != nil {
		return nil, fmt.Errorf("pack: decode entity instances portion: %w", err)
	}
	entityMatrixOffsets, err := readU32Array(r.EachEntityMatricesPortion)
	if err != nil {
		return nil, fmt.Errorf("pack: decode entity matrices portion: %w", err)
	}

	if len(r.PrimitiveInstances)%4 != 0 {
		return nil, fmt.Errorf("pack: decode primitive instances: %w", ErrTruncatedStream)
	}
	entityInstanceCounts := portionLengths(entityInstanceOffsets, uint32(len(r.PrimitiveInstances)/4))

	if len(r.Matrices)%4 != 0 {
		return nil, fmt.Errorf("pack: decode entity matrices: %w", ErrTruncatedStream)
	}
	entityMatrixFloatCounts := portionLengths(entityMatrixOffsets, uint32(len(r.Matrices)/4))

	instIdx := uint32(0)
	for _, count := range entityInstanceCounts {
		entityInstances := make([]uint32, count)
		for i := range entityInstances {
			entityInstances[i] = instIdx
			instIdx++
		}
		d.EntityPrimitiveInstances = append(d.EntityPrimitiveInstances, entityInstances)
	}

	matrixReader := bytes.NewReader(r.Matrices)
	for _, floatCount := range entityMatrixFloatCounts {
		if floatCount == 0 {
			d.EntityMatrices = append(d.EntityMatrices, nil)
			continue
		}
		m, err := wire.ReadMatrix4(matrixReader)
		if err != nil {
			return nil, fmt.Errorf("pack: decode entity matrix: %w", err)
		}
		d.EntityMatrices = append(d.EntityMatrices, &m)
	}

	tileEntitiesOffsets, err := readU32Array(r.EachTileEntitiesPortion)
	if err != nil {
		return nil, fmt.Errorf("pack: decode tile entities portion: %w", err)
	}
	tileEntityCounts := portionLengths(tileEntitiesOffsets, uint32(len(d.EntityIDs)))

	aabbReader := bytes.NewReader(r.EachTileAABB)
	tileMatrixReader := bytes.NewReader(r.EachTileDecodeMatrix)
	for range tileEntityCounts {
		aabb, err := wire.ReadAABB(aabbReader)
		if err != nil {
			return nil, fmt.Errorf("pack: decode tile aabb: %w", err)
		}
		d.TileAABBs = append(d.TileAABBs, aabb)

		decodeMatrix, err := wire.ReadMatrix4(tileMatrixReader)
		if err != nil {
			return nil, fmt.Errorf("pack: decode tile decode matrix: %w", err)
		}
		d.TileDecodeMatrices = append(d.TileDecodeMatrices, decodeMatrix)
	}

	// Tile-entity indices are not stored in the wire format directly as
	// indices (the tile_entities portion only carries run boundaries); the
	// entity ordering within a tile matches the tile-ordered entity-keyed
	// streams, so we rebuild sequential indices the same way entity
	// instances are rebuilt above. Callers that need the original entity
	// index set cross-reference via EntityIDs.
	entityCursor := uint32(0)
	for _, count := range tileEntityCounts {
		tileEntities := make([]uint32, count)
		for i := range tileEntities {
			tileEntities[i] = entityCursor
			entityCursor++
		}
		d.TileEntities = append(d.TileEntities, tileEntities)
	}

	return d, nil
}

// portionLengths converts a portion array of starting offsets into
// per-item element counts: each item's length is the next item's offset
// minus its own, except the last item, whose length runs to total (the
// indexed stream's total element count).
func portionLengths(offsets []uint32, total uint32) []uint32 {
	lengths := make([]uint32, len(offsets))
	for i := range offsets {
		end := total
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		lengths[i] = end - offsets[i]
	}
	return lengths
}

func readU32Array(raw []byte) ([]uint32, error) {
	if len(raw)%4 != 0 {
		return nil, ErrTruncatedStream
	}
	out := make([]uint32, len(raw)/4)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &out); err != nil {
		return nil, err
	}
	return out, nil
}
