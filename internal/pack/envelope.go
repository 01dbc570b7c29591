package pack

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FormatVersion is the on-wire format version this package reads and
// writes (spec.md §9, Q4: carried outside the 17 compressed streams so it
// can be checked before any stream is decompressed).
const FormatVersion uint32 = 6

// Envelope is the top-level container: a format version followed by the 17
// independently DEFLATE-compressed streams of spec.md §6, in wire order.
// Each field holds that stream's compressed bytes.
type Envelope struct {
	FormatVersion uint32

	Positions                              []byte // u16 xyz triples
	Normals                                 []byte // i8 xy oct pairs
	Indices                                 []byte // u32 triangle indices
	EdgeIndices                             []byte // u32 edge vertex indices
	Matrices                                []byte // f32 row-major 4x4, one per entity with reused primitives
	InstancedPrimitivesDecodeMatrix         []byte // f32 row-major 4x4, single matrix
	EachPrimitivePositionsAndNormalsPortion []byte // u32 starting vertex offset, per primitive
	EachPrimitiveIndicesPortion             []byte // u32 starting index offset, per primitive
	EachPrimitiveEdgeIndicesPortion         []byte // u32 starting edge-index offset, per primitive
	EachPrimitiveColorAndOpacity            []byte // u8x4 per primitive
	PrimitiveInstances                      []byte // u32 primitive index, per instance
	EachEntityID                            []byte // JSON array of strings
	EachEntityPrimitiveInstancesPortion     []byte // u32 starting instance offset, per entity
	EachEntityMatricesPortion               []byte // u32 starting float offset into Matrices, per entity (divisible by 16; unchanged run = no matrix)
	EachTileAABB                            []byte // f32x6 per tile
	EachTileDecodeMatrix                    []byte // f32x16 per tile
	EachTileEntitiesPortion                 []byte // u32 starting entity offset, per tile
}

// streamFields returns pointers to the 17 stream byte slices in exactly
// the wire order of spec.md §6. Kept as a method so WriteTo, ReadEnvelope,
// Encode and Decode share one authoritative ordering.
func (e *Envelope) streamFields() []*[]byte {
	return []*[]byte{
		&e.Positions,
		&e.Normals,
		&e.Indices,
		&e.EdgeIndices,
		&e.Matrices,
		&e.InstancedPrimitivesDecodeMatrix,
		&e.EachPrimitivePositionsAndNormalsPortion,
		&e.EachPrimitiveIndicesPortion,
		&e.EachPrimitiveEdgeIndicesPortion,
		&e.EachPrimitiveColorAndOpacity,
		&e.PrimitiveInstances,
		&e.EachEntityID,
		&e.EachEntityPrimitiveInstancesPortion,
		&e.EachEntityMatricesPortion,
		&e.EachTileAABB,
		&e.EachTileDecodeMatrix,
		&e.EachTileEntitiesPortion,
	}
}

// WriteTo writes the envelope as: a uint32 format version, then for each of
// the 17 streams a uint32 length prefix followed by that many compressed
// bytes.
func (e *Envelope) WriteTo(w io.Writer) (int64, error) {
	var total int64

	if err := binary.Write(w, binary.LittleEndian, e.FormatVersion); err != nil {
		return total, fmt.Errorf("pack: write format version: %w", err)
	}
	total += 4

	for _, field := range e.streamFields() {
		n := uint32(len(*field))
		if err := binary.Write(w, binary.LittleEndian, n); err != nil {
			return total, fmt.Errorf("pack: write stream length: %w", err)
		}
		total += 4
		written, err := w.Write(*field)
		if err != nil {
			return total, fmt.Errorf("pack: write stream bytes: %w", err)
		}
		total += int64(written)
	}

	return total, nil
}

// ReadEnvelope reads an envelope previously written by WriteTo. It checks
// FormatVersion before touching any stream payload.
func ReadEnvelope(r io.Reader) (*Envelope, error) {
	e := &Envelope{}

	if err := binary.Read(r, binary.LittleEndian, &e.FormatVersion); err != nil {
		return nil, fmt.Errorf("pack: read format version: %w", err)
	}
	if e.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFormatVersionMismatch, e.FormatVersion, FormatVersion)
	}

	for _, field := range e.streamFields() {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("pack: read stream length: %w", err)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("pack: read stream bytes: %w", err)
		}
		*field = buf
	}

	return e, nil
}
