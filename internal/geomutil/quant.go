package geomutil

import "fmt"

const quantMax = 65535

// QuantizePosition maps a world/object-space point to a 16-bit unsigned
// triple relative to box, per spec.md §4.1: q = round((p-min)/(max-min)*65535),
// clamped to [0,65535].
func QuantizePosition(p [3]float32, box AABB) [3]uint16 {
	var q [3]uint16
	for i := 0; i < 3; i++ {
		extent := box.Max[i] - box.Min[i]
		if extent <= 0 {
			q[i] = 0
			continue
		}
		normalized := (p[i] - box.Min[i]) / extent * quantMax
		q[i] = clampToUint16(roundHalfAway(normalized))
	}
	return q
}

// QuantizePositions batches QuantizePosition over a flat xyz-triple slice
// and fails with ErrQuantizationOverflow if any input point lies outside
// box by more than one LSB on any axis — the tiler must never hand the
// encoder a point outside the AABB it quantizes against.
func QuantizePositions(positions []float32, box AABB) ([]uint16, error) {
	count := len(positions) / 3
	out := make([]uint16, count*3)

	for i := 0; i < count; i++ {
		p := [3]float32{positions[i*3], positions[i*3+1], positions[i*3+2]}

		for axis := 0; axis < 3; axis++ {
			extent := box.Max[axis] - box.Min[axis]
			lsb := extent / quantMax
			if p[axis] < box.Min[axis]-lsb || p[axis] > box.Max[axis]+lsb {
				return nil, fmt.Errorf("%w: axis %d value %v outside [%v,%v]",
					ErrQuantizationOverflow, axis, p[axis], box.Min[axis], box.Max[axis])
			}
		}

		q := QuantizePosition(p, box)
		out[i*3], out[i*3+1], out[i*3+2] = q[0], q[1], q[2]
	}

	return out, nil
}

// DequantizePosition is the inverse of QuantizePosition.
func DequantizePosition(q [3]uint16, box AABB) [3]float32 {
	var p [3]float32
	for i := 0; i < 3; i++ {
		extent := box.Max[i] - box.Min[i]
		p[i] = box.Min[i] + float32(q[i])/quantMax*extent
	}
	return p
}

// DequantizePositions batches DequantizePosition over a flat uint16 triple
// slice.
func DequantizePositions(quantized []uint16, box AABB) []float32 {
	count := len(quantized) / 3
	out := make([]float32, count*3)
	for i := 0; i < count; i++ {
		q := [3]uint16{quantized[i*3], quantized[i*3+1], quantized[i*3+2]}
		p := DequantizePosition(q, box)
		out[i*3], out[i*3+1], out[i*3+2] = p[0], p[1], p[2]
	}
	return out
}

// DecodeMatrixFromAABB computes the row-major 4×4 affine matrix that maps
// a 16-bit-normalized coordinate back to world space: scale = (max-min)/65535,
// translation = min. Row-major with column vectors (v' = M·v), so
// translation occupies the last column of each row. It must be derived
// from the same AABB used to quantize, so dequantize(quantize(p)) = p ±
// one LSB per axis.
func DecodeMatrixFromAABB(box AABB) [16]float32 {
	sx := (box.Max[0] - box.Min[0]) / quantMax
	sy := (box.Max[1] - box.Min[1]) / quantMax
	sz := (box.Max[2] - box.Min[2]) / quantMax

	return [16]float32{
		sx, 0, 0, box.Min[0],
		0, sy, 0, box.Min[1],
		0, 0, sz, box.Min[2],
		0, 0, 0, 1,
	}
}

func roundHalfAway(v float32) float32 {
	if v >= 0 {
		return v + 0.5
	}
	return v - 0.5
}

func clampToUint16(v float32) uint16 {
	if v < 0 {
		return 0
	}
	if v > quantMax {
		return quantMax
	}
	return uint16(v)
}
