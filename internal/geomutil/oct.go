package geomutil

import "math"

// EncodeOctNormal maps a unit 3-vector to a signed 8-bit pair via
// octahedral projection (spec.md §4.1). The lower hemisphere (z < 0) is
// folded into the [-1,1]^2 square; ties at the fold boundary round away
// from zero so ±0 never appears.
func EncodeOctNormal(n [3]float32) (x, y int8) {
	n = normalize(n)

	l1 := abs32(n[0]) + abs32(n[1]) + abs32(n[2])
	if l1 == 0 {
		return 0, 0
	}

	px, py := n[0]/l1, n[1]/l1
	if n[2] < 0 {
		px, py = fold(px, py)
	}

	return quantizeOctComponent(px), quantizeOctComponent(py)
}

// DecodeOctNormal is the inverse of EncodeOctNormal: given a signed 8-bit
// pair, reconstruct a unit-length 3-vector.
func DecodeOctNormal(x, y int8) [3]float32 {
	fx := float32(x) / 127
	fy := float32(y) / 127
	fz := 1 - abs32(fx) - abs32(fy)

	if fz < 0 {
		fx, fy = fold(fx, fy)
	}

	return normalize([3]float32{fx, fy, fz})
}

// EncodeOctNormals batches EncodeOctNormal over a flat xyz-triple slice,
// returning one (x,y) pair per input vertex — the shape
// normals_oct_encoded requires on the wire (two i8 per vertex).
func EncodeOctNormals(normals []float32) [][2]int8 {
	count := len(normals) / 3
	out := make([][2]int8, count)
	for i := 0; i < count; i++ {
		n := [3]float32{normals[i*3], normals[i*3+1], normals[i*3+2]}
		x, y := EncodeOctNormal(n)
		out[i] = [2]int8{x, y}
	}
	return out
}

// fold reflects (px,py) across the diagonal, implementing the standard
// octahedral "lower hemisphere" projection.
func fold(px, py float32) (float32, float32) {
	return (1 - abs32(py)) * signNotZero(px), (1 - abs32(px)) * signNotZero(py)
}

// signNotZero returns 1 for v >= 0 and -1 for v < 0: ties round away from
// zero rather than producing a signed zero.
func signNotZero(v float32) float32 {
	if v >= 0 {
		return 1
	}
	return -1
}

func quantizeOctComponent(v float32) int8 {
	scaled := v * 127
	if scaled >= 0 {
		scaled += 0.5
	} else {
		scaled -= 0.5
	}
	if scaled > 127 {
		scaled = 127
	}
	if scaled < -127 {
		scaled = -127
	}
	return int8(scaled)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func normalize(n [3]float32) [3]float32 {
	length := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
	if length == 0 {
		return [3]float32{0, 0, 1}
	}
	return [3]float32{n[0] / length, n[1] / length, n[2] / length}
}
