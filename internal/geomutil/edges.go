package geomutil

import "math"

// edgeKey canonicalizes an edge so (a,b) and (b,a) collide; a < b always.
type edgeKey struct {
	a, b uint32
}

type edgeRecord struct {
	normals []([3]float32)
}

// ExtractEdgeIndices derives a line-index list from a triangle mesh by a
// dihedral-angle threshold (spec.md §4.1). For every pair of triangles
// sharing an edge, the edge is emitted iff the angle between the
// triangles' face normals exceeds thresholdDeg; every boundary edge
// (shared by exactly one triangle) is always emitted. Edges are emitted
// in triangle-scan order with the smaller vertex index first.
func ExtractEdgeIndices(positions []float32, indices []uint32, thresholdDeg float64) []uint32 {
	thresholdRad := thresholdDeg * math.Pi / 180

	records := make(map[edgeKey]*edgeRecord)
	var order []edgeKey

	triCount := len(indices) / 3
	for t := 0; t < triCount; t++ {
		i0, i1, i2 := indices[t*3], indices[t*3+1], indices[t*3+2]
		normal := faceNormal(positions, i0, i1, i2)

		for _, pair := range [3][2]uint32{{i0, i1}, {i1, i2}, {i2, i0}} {
			key := canonicalEdge(pair[0], pair[1])
			rec, ok := records[key]
			if !ok {
				rec = &edgeRecord{}
				records[key] = rec
				order = append(order, key)
			}
			rec.normals = append(rec.normals, normal)
		}
	}

	var out []uint32
	for _, key := range order {
		rec := records[key]
		if shouldEmitEdge(rec.normals, thresholdRad) {
			out = append(out, key.a, key.b)
		}
	}
	return out
}

func shouldEmitEdge(normals []([3]float32), thresholdRad float64) bool {
	if len(normals) <= 1 {
		return true // boundary edge
	}

	maxAngle := 0.0
	for i := 1; i < len(normals); i++ {
		angle := angleBetween(normals[0], normals[i])
		if angle > maxAngle {
			maxAngle = angle
		}
	}
	return maxAngle > thresholdRad
}

func canonicalEdge(a, b uint32) edgeKey {
	if a < b {
		return edgeKey{a, b}
	}
	return edgeKey{b, a}
}

func faceNormal(positions []float32, i0, i1, i2 uint32) [3]float32 {
	p0 := vertexAt(positions, i0)
	p1 := vertexAt(positions, i1)
	p2 := vertexAt(positions, i2)

	e1 := sub(p1, p0)
	e2 := sub(p2, p0)
	return normalize(cross(e1, e2))
}

func vertexAt(positions []float32, i uint32) [3]float32 {
	return [3]float32{positions[i*3], positions[i*3+1], positions[i*3+2]}
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// angleBetween returns the angle, in radians, between two unit vectors.
func angleBetween(a, b [3]float32) float64 {
	d := float64(dot(a, b))
	if d > 1 {
		d = 1
	}
	if d < -1 {
		d = -1
	}
	return math.Acos(d)
}
