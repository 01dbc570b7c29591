package tiler

import (
	"testing"

	"github.com/basaltgeo/geopack/internal/geomutil"
	"github.com/basaltgeo/geopack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitCubeMesh() ([]float32, []float32, []uint32) {
	positions := []float32{
		-0.5, -0.5, -0.5,
		0.5, -0.5, -0.5,
		0.5, 0.5, -0.5,
		-0.5, 0.5, -0.5,
		-0.5, -0.5, 0.5,
		0.5, -0.5, 0.5,
		0.5, 0.5, 0.5,
		-0.5, 0.5, 0.5,
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2,
		4, 5, 6, 4, 6, 7,
		0, 1, 5, 0, 5, 4,
		3, 7, 6, 3, 6, 2,
		0, 4, 7, 0, 7, 3,
		1, 2, 6, 1, 6, 5,
	}
	normals := make([]float32, len(positions))
	for i := 0; i < len(positions)/3; i++ {
		normals[i*3] = positions[i*3] * 2
		normals[i*3+1] = positions[i*3+1] * 2
		normals[i*3+2] = positions[i*3+2] * 2
	}
	return positions, normals, indices
}

func translation(x, y, z float32) [16]float32 {
	m := geomutil.Identity4()
	m[3] = x
	m[7] = y
	m[11] = z
	return m
}

// TestBuildTiles_SingleEntity matches spec scenario 1: one entity produces
// exactly one tile whose AABB equals the entity's own AABB.
func TestBuildTiles_SingleEntity(t *testing.T) {
	m := model.New()
	positions, normals, indices := unitCubeMesh()
	_, err := m.CreatePrimitive("cube", false, geomutil.Identity4(), [3]uint8{}, 255, positions, normals, indices, 10)
	require.NoError(t, err)
	_, err = m.CreateEntity("e1", geomutil.Identity4(), []string{"cube"}, false)
	require.NoError(t, err)

	require.NoError(t, BuildTiles(m, 5))

	require.Len(t, m.Tiles, 1)
	tile := m.Tiles[0]
	assert.InDelta(t, -0.5, tile.AABB.Min[0], 1e-6)
	assert.InDelta(t, 0.5, tile.AABB.Max[0], 1e-6)
	assert.Len(t, tile.Entities, 1)

	prim := m.Primitives[0]
	require.Len(t, prim.PositionsQuantized, prim.VertexCount()*3)
}

// TestBuildTiles_FarApartEntities matches spec scenario 3: two entities far
// apart in space end up in at least two distinct tiles.
func TestBuildTiles_FarApartEntities(t *testing.T) {
	m := model.New()
	positions, normals, indices := unitCubeMesh()
	// Non-reused primitives carry their placement baked into their positions;
	// the entity matrix is ignored for them.
	_, err := m.CreatePrimitive("p", false, translation(0, 0, 0), [3]uint8{}, 255, positions, normals, indices, 10)
	require.NoError(t, err)
	_, err = m.CreatePrimitive("q", false, translation(1000, 0, 0), [3]uint8{}, 255, positions, normals, indices, 10)
	require.NoError(t, err)

	_, err = m.CreateEntity("P", translation(0, 0, 0), []string{"p"}, false)
	require.NoError(t, err)
	_, err = m.CreateEntity("Q", translation(1000, 0, 0), []string{"q"}, false)
	require.NoError(t, err)

	require.NoError(t, BuildTiles(m, 5))

	assert.GreaterOrEqual(t, len(m.Tiles), 2)

	tileOf := func(entityIdx model.EntityIndex) int {
		for i, tile := range m.Tiles {
			for _, e := range tile.Entities {
				if e == entityIdx {
					return i
				}
			}
		}
		return -1
	}
	pTile := tileOf(0)
	qTile := tileOf(1)
	require.NotEqual(t, -1, pTile)
	require.NotEqual(t, -1, qTile)
	assert.NotEqual(t, pTile, qTile, "entities far apart should land in different tiles")
}

// TestBuildTiles_TileContainsAllMemberEntities checks the containment
// invariant: every tile's AABB fully contains every entity it holds.
func TestBuildTiles_TileContainsAllMemberEntities(t *testing.T) {
	m := model.New()
	positions, normals, indices := unitCubeMesh()
	offsets := [][3]float32{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}, {5, 5, 50}}
	for i, id := range []string{"a", "b", "c", "d"} {
		off := offsets[i]
		_, err := m.CreatePrimitive(id, false, translation(off[0], off[1], off[2]), [3]uint8{}, 255, positions, normals, indices, 10)
		require.NoError(t, err)
	}
	for i, id := range []string{"a", "b", "c", "d"} {
		off := offsets[i]
		_, err := m.CreateEntity("e-"+id, translation(off[0], off[1], off[2]), []string{id}, false)
		require.NoError(t, err)
	}

	require.NoError(t, BuildTiles(m, 5))

	for _, tile := range m.Tiles {
		for _, entityIdx := range tile.Entities {
			assert.True(t, tile.AABB.Contains(m.Entities[entityIdx].AABB),
				"tile must contain every entity placed in it")
		}
	}
}

// TestBuildTiles_ReusedPrimitiveQuantizedAgainstModelBox checks that a
// reused primitive is quantized against the model-wide instanced decode
// matrix rather than any single tile's AABB.
func TestBuildTiles_ReusedPrimitiveQuantizedAgainstModelBox(t *testing.T) {
	m := model.New()
	positions, normals, indices := unitCubeMesh()
	_, err := m.CreatePrimitive("bolt", true, geomutil.Identity4(), [3]uint8{}, 255, positions, normals, indices, 10)
	require.NoError(t, err)
	_, err = m.CreateEntity("A", translation(100, 0, 0), []string{"bolt"}, true)
	require.NoError(t, err)
	_, err = m.CreateEntity("B", translation(-100, 0, 0), []string{"bolt"}, true)
	require.NoError(t, err)

	require.NoError(t, BuildTiles(m, 5))

	assert.NotEqual(t, [16]float32{}, m.InstancedPrimitivesDecodeMatrix)
	bolt := m.Primitives[0]
	require.Len(t, bolt.PositionsQuantized, bolt.VertexCount()*3)
	// Object-space positions span [-0.5, 0.5]; the union box should match
	// that, not either entity's world-space translated AABB.
	assert.InDelta(t, -0.5, m.InstancedPrimitivesDecodeMatrix[3], 1e-4)
}

func TestBuildTiles_NoEntities(t *testing.T) {
	m := model.New()
	require.NoError(t, BuildTiles(m, 5))
	assert.Empty(t, m.Tiles)
}
