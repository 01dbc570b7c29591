package geomutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformPoint_Identity(t *testing.T) {
	p := [3]float32{1, 2, 3}
	out := TransformPoint(Identity4(), p)
	assert.Equal(t, p, out)
}

func TestTransformPoint_Translation(t *testing.T) {
	m := Identity4()
	m[3], m[7], m[11] = 10, 20, 30
	out := TransformPoint(m, [3]float32{1, 1, 1})
	assert.Equal(t, [3]float32{11, 21, 31}, out)
}

func TestNormalMatrix3x3_UniformScaleUnaffected(t *testing.T) {
	m := Identity4()
	m[0], m[5], m[10] = 2, 2, 2
	nm := NormalMatrix3x3(m)
	// Inverse-transpose of uniform scale 2*I is (1/2)*I.
	assert.InDelta(t, 0.5, nm[0], 1e-6)
	assert.InDelta(t, 0.5, nm[5], 1e-6)
	assert.InDelta(t, 0.5, nm[10], 1e-6)
}

func TestNormalMatrix3x3_SingularFallback(t *testing.T) {
	m := [16]float32{
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 1,
	}
	nm := NormalMatrix3x3(m)
	assert.Equal(t, float32(0), nm[0])
}
