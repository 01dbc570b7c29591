package wire

import (
	"bytes"
	"testing"

	"github.com/basaltgeo/geopack/internal/geomutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAABBRoundTrip(t *testing.T) {
	box := geomutil.AABB{Min: [3]float32{-1, -2, -3}, Max: [3]float32{4, 5, 6}}

	var buf bytes.Buffer
	require.NoError(t, WriteAABB(&buf, box))

	got, err := ReadAABB(&buf)
	require.NoError(t, err)
	assert.Equal(t, box, got)
}

func TestMatrix4RoundTrip(t *testing.T) {
	var m [16]float32
	for i := range m {
		m[i] = float32(i) * 1.5
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMatrix4(&buf, m))

	got, err := ReadMatrix4(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestColorOpacityRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteColorOpacity(&buf, [3]uint8{10, 20, 30}, 128))

	color, opacity, err := ReadColorOpacity(&buf)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{10, 20, 30}, color)
	assert.Equal(t, uint8(128), opacity)
}
