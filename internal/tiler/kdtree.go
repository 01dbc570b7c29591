// Package tiler implements the kd-tree spatial partitioner that groups
// entities into Tiles (spec.md §4.3), and the quantization pass that
// follows it: every non-reused primitive is quantized against its owning
// tile's AABB, every reused primitive against the model-wide
// instanced-primitives AABB.
package tiler

import (
	"github.com/basaltgeo/geopack/internal/geomutil"
	"github.com/basaltgeo/geopack/internal/model"
)

// node is one kd-tree node: an AABB that grows to contain every entity
// placed directly in it, plus up to two children along the node's
// longest-axis split.
type node struct {
	aabb     geomutil.AABB
	left     *node
	right    *node
	entities []model.EntityIndex
}

// insert implements the placement rule of spec.md §4.3.
func insert(n *node, idx model.EntityIndex, entityAABB geomutil.AABB, depth, maxDepth int) {
	if depth >= maxDepth {
		n.entities = append(n.entities, idx)
		n.aabb.ExpandAABB(entityAABB)
		return
	}

	if n.left != nil && n.left.aabb.Contains(entityAABB) {
		insert(n.left, idx, entityAABB, depth+1, maxDepth)
		return
	}
	if n.right != nil && n.right.aabb.Contains(entityAABB) {
		insert(n.right, idx, entityAABB, depth+1, maxDepth)
		return
	}

	axis := n.aabb.LongestAxis()
	lower, upper := n.aabb.SplitHalf(axis)

	if lower.Contains(entityAABB) {
		if n.left == nil {
			n.left = &node{aabb: lower}
		}
		insert(n.left, idx, entityAABB, depth+1, maxDepth)
		return
	}
	if upper.Contains(entityAABB) {
		if n.right == nil {
			n.right = &node{aabb: upper}
		}
		insert(n.right, idx, entityAABB, depth+1, maxDepth)
		return
	}

	// Neither half contains the entity: it stays at this node.
	n.entities = append(n.entities, idx)
	n.aabb.ExpandAABB(entityAABB)
}

// flatten walks the tree in pre-order, turning every node with a non-empty
// entity list into one Tile.
func flatten(n *node, tiles *[]model.Tile) {
	if n == nil {
		return
	}
	if len(n.entities) > 0 {
		*tiles = append(*tiles, model.Tile{
			AABB:                  n.aabb,
			PositionsDecodeMatrix: geomutil.DecodeMatrixFromAABB(n.aabb),
			Entities:              append([]model.EntityIndex(nil), n.entities...),
		})
	}
	flatten(n.left, tiles)
	flatten(n.right, tiles)
}
