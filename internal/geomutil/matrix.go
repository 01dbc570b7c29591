package geomutil

// Matrices in this package are row-major 4×4 with column vectors:
// v' = M·v. M[4*row+col] is the element at (row, col).

// Identity4 returns the row-major identity matrix.
func Identity4() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// TransformPoint applies m to p as an affine point (w=1).
func TransformPoint(m [16]float32, p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[1]*p[1] + m[2]*p[2] + m[3],
		m[4]*p[0] + m[5]*p[1] + m[6]*p[2] + m[7],
		m[8]*p[0] + m[9]*p[1] + m[10]*p[2] + m[11],
	}
}

// TransformDirection applies the upper-left 3×3 of m to v, ignoring
// translation — used for normal vectors once the correct normal matrix
// (see NormalMatrix3x3) has already been substituted in.
func TransformDirection(m [16]float32, v [3]float32) [3]float32 {
	return [3]float32{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2],
	}
}

// NormalMatrix3x3 returns the inverse-transpose of the upper-left 3×3 of
// m, the correct transform for normal vectors under non-uniform scale.
// If the 3×3 block is singular, the original (non-inverted) 3×3 is
// returned unchanged as a degenerate fallback.
func NormalMatrix3x3(m [16]float32) [16]float32 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[4], m[5], m[6]
	g, h, i := m[8], m[9], m[10]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det == 0 {
		return [16]float32{
			a, b, c, 0,
			d, e, f, 0,
			g, h, i, 0,
			0, 0, 0, 1,
		}
	}
	invDet := 1 / det

	// Adjugate (cofactor transpose) of the 3x3, scaled by 1/det, then
	// transposed again for the inverse-transpose — which cancels out to
	// the plain cofactor matrix scaled by 1/det.
	co00 := (e*i - f*h) * invDet
	co01 := (f*g - d*i) * invDet
	co02 := (d*h - e*g) * invDet
	co10 := (c*h - b*i) * invDet
	co11 := (a*i - c*g) * invDet
	co12 := (b*g - a*h) * invDet
	co20 := (b*f - c*e) * invDet
	co21 := (c*d - a*f) * invDet
	co22 := (a*e - b*d) * invDet

	return [16]float32{
		co00, co01, co02, 0,
		co10, co11, co12, 0,
		co20, co21, co22, 0,
		0, 0, 0, 1,
	}
}
