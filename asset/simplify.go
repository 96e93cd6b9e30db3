// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package asset

import (
	"github.com/fogleman/simplify"

	"github.com/gviegas/sceneview/linear"
)

// Simplify reduces the triangle count of m to about
// factor times its current count, using quadric error
// metrics. Normals are discarded.
// factor must be in the interval (0, 1); other values
// leave m unchanged.
func (m *Model) Simplify(factor float32) {
	if !(factor > 0 && factor < 1) || len(m.Indices) < 3 {
		return
	}
	vec := func(i uint32) simplify.Vector {
		p := m.Positions[i]
		return simplify.Vector{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
	}
	tris := make([]*simplify.Triangle, 0, len(m.Indices)/3)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		idx := m.Indices[i : i+3]
		tris = append(tris, simplify.NewTriangle(vec(idx[0]), vec(idx[1]), vec(idx[2])))
	}
	out := simplify.NewMesh(tris).Simplify(float64(factor))
	if len(out.Triangles) == 0 {
		return
	}
	m.Positions = m.Positions[:0]
	m.Normals = nil
	m.Indices = m.Indices[:0]
	for _, t := range out.Triangles {
		for _, v := range [3]simplify.Vector{t.V1, t.V2, t.V3} {
			m.Indices = append(m.Indices, uint32(len(m.Positions)))
			m.Positions = append(m.Positions, linear.V3{float32(v.X), float32(v.Y), float32(v.Z)})
		}
	}
}
