// Package wire holds the fixed-size binary records shared by the envelope
// streams: AABBs, 4x4 decode matrices, and per-primitive color/opacity quads.
// Records are packed with lunixbochs/struc, the same library the upstream
// module already carried as an unused indirect dependency — struc reads
// struct field order and fixed-width types directly, which keeps these
// records free of hand-rolled offset math.
package wire

import (
	"bytes"
	"io"

	"github.com/basaltgeo/geopack/internal/geomutil"
	"github.com/lunixbochs/struc"
)

// AABBRecord is the fixed 24-byte on-wire layout of one AABB: min xyz then
// max xyz, both float32.
type AABBRecord struct {
	MinX float32
	MinY float32
	MinZ float32
	MaxX float32
	MaxY float32
	MaxZ float32
}

// NewAABBRecord converts a geomutil.AABB to its wire record.
func NewAABBRecord(b geomutil.AABB) AABBRecord {
	return AABBRecord{
		MinX: b.Min[0], MinY: b.Min[1], MinZ: b.Min[2],
		MaxX: b.Max[0], MaxY: b.Max[1], MaxZ: b.Max[2],
	}
}

// AABB converts a wire record back to a geomutil.AABB.
func (r AABBRecord) AABB() geomutil.AABB {
	return geomutil.AABB{
		Min: [3]float32{r.MinX, r.MinY, r.MinZ},
		Max: [3]float32{r.MaxX, r.MaxY, r.MaxZ},
	}
}

// WriteAABB packs one AABBRecord onto w.
func WriteAABB(w io.Writer, b geomutil.AABB) error {
	rec := NewAABBRecord(b)
	return struc.Pack(w, &rec)
}

// ReadAABB unpacks one AABBRecord from r.
func ReadAABB(r io.Reader) (geomutil.AABB, error) {
	var rec AABBRecord
	if err := struc.Unpack(r, &rec); err != nil {
		return geomutil.AABB{}, err
	}
	return rec.AABB(), nil
}

// Matrix4Record is the fixed 64-byte row-major 4x4 matrix layout
// (spec.md §1: row-major storage, column-vector multiplication).
type Matrix4Record struct {
	M [16]float32
}

// WriteMatrix4 packs one row-major 4x4 matrix onto w.
func WriteMatrix4(w io.Writer, m [16]float32) error {
	rec := Matrix4Record{M: m}
	return struc.Pack(w, &rec)
}

// ReadMatrix4 unpacks one row-major 4x4 matrix from r.
func ReadMatrix4(r io.Reader) ([16]float32, error) {
	var rec Matrix4Record
	if err := struc.Unpack(r, &rec); err != nil {
		return [16]float32{}, err
	}
	return rec.M, nil
}

// ColorOpacityRecord is one primitive's RGB color plus opacity, packed as
// four consecutive bytes.
type ColorOpacityRecord struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// WriteColorOpacity packs one ColorOpacityRecord onto w.
func WriteColorOpacity(w io.Writer, color [3]uint8, opacity uint8) error {
	rec := ColorOpacityRecord{R: color[0], G: color[1], B: color[2], A: opacity}
	return struc.Pack(w, &rec)
}

// ReadColorOpacity unpacks one ColorOpacityRecord from r.
func ReadColorOpacity(r io.Reader) ([3]uint8, uint8, error) {
	var rec ColorOpacityRecord
	if err := struc.Unpack(r, &rec); err != nil {
		return [3]uint8{}, 0, err
	}
	return [3]uint8{rec.R, rec.G, rec.B}, rec.A, nil
}

// PackAll is a convenience for tests: packs v with struc into a fresh
// byte slice.
func PackAll(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.Pack(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
