package geomutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizeDequantizePosition_RoundTrip(t *testing.T) {
	box := AABB{Min: [3]float32{-0.5, -0.5, -0.5}, Max: [3]float32{0.5, 0.5, 0.5}}

	corners := [][3]float32{
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5},
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5},
	}

	lsb := (box.Max[0] - box.Min[0]) / quantMax

	for _, c := range corners {
		q := QuantizePosition(c, box)
		d := DequantizePosition(q, box)
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, c[axis], d[axis], float64(lsb), "axis %d", axis)
		}
	}
}

func TestQuantizePosition_Clamping(t *testing.T) {
	box := AABB{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}}

	q := QuantizePosition([3]float32{-10, 2, 0.5}, box)
	assert.Equal(t, uint16(0), q[0])
	assert.Equal(t, uint16(quantMax), q[1])
}

func TestQuantizePositions_OverflowError(t *testing.T) {
	box := AABB{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}}
	positions := []float32{0.5, 0.5, 5.0} // z way outside

	_, err := QuantizePositions(positions, box)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuantizationOverflow)
}

func TestQuantizePositions_Success(t *testing.T) {
	box := AABB{Min: [3]float32{0, 0, 0}, Max: [3]float32{10, 10, 10}}
	positions := []float32{0, 0, 0, 10, 10, 10, 5, 5, 5}

	quantized, err := QuantizePositions(positions, box)
	require.NoError(t, err)
	assert.Len(t, quantized, 9)
	assert.Equal(t, uint16(0), quantized[0])
	assert.Equal(t, uint16(quantMax), quantized[3])
}

func TestDecodeMatrixFromAABB(t *testing.T) {
	box := AABB{Min: [3]float32{-1, -2, -3}, Max: [3]float32{1, 2, 3}}
	m := DecodeMatrixFromAABB(box)

	// Translation column carries box.Min.
	assert.Equal(t, box.Min[0], m[3])
	assert.Equal(t, box.Min[1], m[7])
	assert.Equal(t, box.Min[2], m[11])

	// Decoding q=0 must reproduce box.Min exactly.
	p := DequantizePosition([3]uint16{0, 0, 0}, box)
	assert.Equal(t, box.Min[0], p[0])
	assert.Equal(t, box.Min[1], p[1])
	assert.Equal(t, box.Min[2], p[2])

	// Decoding q=65535 must reproduce box.Max within one LSB.
	pMax := DequantizePosition([3]uint16{quantMax, quantMax, quantMax}, box)
	assert.InDelta(t, box.Max[0], pMax[0], 1e-4)
}
