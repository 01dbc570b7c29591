package geomutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cubePositionsAndIndices() ([]float32, []uint32) {
	// Unit cube centered at origin, 8 corners, 12 triangles (2 per face).
	positions := []float32{
		-0.5, -0.5, -0.5, // 0
		0.5, -0.5, -0.5, // 1
		0.5, 0.5, -0.5, // 2
		-0.5, 0.5, -0.5, // 3
		-0.5, -0.5, 0.5, // 4
		0.5, -0.5, 0.5, // 5
		0.5, 0.5, 0.5, // 6
		-0.5, 0.5, 0.5, // 7
	}
	indices := []uint32{
		// -z face
		0, 2, 1, 0, 3, 2,
		// +z face
		4, 5, 6, 4, 6, 7,
		// -y face
		0, 1, 5, 0, 5, 4,
		// +y face
		3, 7, 6, 3, 6, 2,
		// -x face
		0, 4, 7, 0, 7, 3,
		// +x face
		1, 2, 6, 1, 6, 5,
	}
	return positions, indices
}

func TestExtractEdgeIndices_Cube(t *testing.T) {
	positions, indices := cubePositionsAndIndices()
	edges := ExtractEdgeIndices(positions, indices, 10)

	assert.Len(t, edges, 24, "12 edges * 2 indices per edge")
	for _, idx := range edges {
		assert.Less(t, idx, uint32(8))
	}
}

func TestExtractEdgeIndices_CoplanarQuad(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	edges := ExtractEdgeIndices(positions, indices, 10)
	// 4 boundary edges emitted, the shared diagonal (dihedral 0) is not.
	assert.Len(t, edges, 8)
}

func TestExtractEdgeIndices_Deterministic(t *testing.T) {
	positions, indices := cubePositionsAndIndices()
	first := ExtractEdgeIndices(positions, indices, 10)
	second := ExtractEdgeIndices(positions, indices, 10)
	assert.Equal(t, first, second)
}

func TestExtractEdgeIndices_SmallerVertexFirst(t *testing.T) {
	positions, indices := cubePositionsAndIndices()
	edges := ExtractEdgeIndices(positions, indices, 10)
	for i := 0; i < len(edges); i += 2 {
		assert.Less(t, edges[i], edges[i+1])
	}
}
