// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"

	"github.com/chewxy/math32"

	"github.com/gviegas/sceneview/linear"
)

const meshPrefix = "mesh: "

func newMeshErr(reason string) error { return errors.New(meshPrefix + reason) }

// Mesh is an indexed triangle list.
// Triangles are counter-clockwise when seen from
// the front.
type Mesh struct {
	pos  []linear.V3
	norm []linear.V3
	idx  []uint32
	min  linear.V3
	max  linear.V3
}

// MeshData describes the geometry of a mesh.
// Normals is optional; if not provided, smooth
// normals are computed from the triangles.
// Indices is optional; if not provided, every three
// consecutive positions form a triangle.
type MeshData struct {
	Positions []linear.V3
	Normals   []linear.V3
	Indices   []uint32
}

// NewMesh creates a new mesh.
// The data is copied.
func NewMesh(data *MeshData) (m *Mesh, err error) {
	if err = validateMeshData(data); err != nil {
		return
	}
	m = &Mesh{pos: append([]linear.V3(nil), data.Positions...)}
	if len(data.Indices) > 0 {
		m.idx = append([]uint32(nil), data.Indices...)
	} else {
		m.idx = make([]uint32, len(data.Positions))
		for i := range m.idx {
			m.idx[i] = uint32(i)
		}
	}
	if len(data.Normals) > 0 {
		m.norm = append([]linear.V3(nil), data.Normals...)
	} else {
		m.computeNormals()
	}
	m.min, m.max = m.pos[0], m.pos[0]
	for _, p := range m.pos[1:] {
		for i := range p {
			m.min[i] = min(m.min[i], p[i])
			m.max[i] = max(m.max[i], p[i])
		}
	}
	return
}

// validateMeshData checks whether data is valid.
func validateMeshData(data *MeshData) error {
	switch {
	case data == nil:
		return newMeshErr("nil data")
	case len(data.Positions) == 0:
		return newMeshErr("no position data")
	case len(data.Normals) > 0 && len(data.Normals) != len(data.Positions):
		return newMeshErr("normal count differs from position count")
	}
	cnt := len(data.Positions)
	if x := len(data.Indices); x > 0 {
		cnt = x
		for _, i := range data.Indices {
			if int(i) >= len(data.Positions) {
				return newMeshErr("index out of bounds")
			}
		}
	}
	if cnt%3 != 0 {
		return newMeshErr("invalid count for triangle list")
	}
	return nil
}

// computeNormals sets m.norm to area-weighted vertex
// normals.
func (m *Mesh) computeNormals() {
	m.norm = make([]linear.V3, len(m.pos))
	for i := 0; i < len(m.idx); i += 3 {
		a, b, c := m.idx[i], m.idx[i+1], m.idx[i+2]
		var e1, e2, n linear.V3
		e1.Sub(&m.pos[b], &m.pos[a])
		e2.Sub(&m.pos[c], &m.pos[a])
		n.Cross(&e1, &e2)
		for _, j := range [3]uint32{a, b, c} {
			m.norm[j].Add(&m.norm[j], &n)
		}
	}
	for i := range m.norm {
		if m.norm[i].Len() > 0 {
			m.norm[i].Norm(&m.norm[i])
		}
	}
}

// Len returns the number of triangles in m.
func (m *Mesh) Len() int { return len(m.idx) / 3 }

// Triangle returns the positions and normals of the
// i-th triangle of m.
func (m *Mesh) Triangle(i int) (pos, norm [3]linear.V3) {
	for j := range 3 {
		k := m.idx[i*3+j]
		pos[j] = m.pos[k]
		norm[j] = m.norm[k]
	}
	return
}

// Bounds returns the axis-aligned bounding box of m.
func (m *Mesh) Bounds() (min, max linear.V3) { return m.min, m.max }

// NewCubeMesh creates an axis-aligned cube centered at
// the origin.
func NewCubeMesh(size float32) *Mesh {
	// Normal, u and v, such that u × v = normal.
	faces := [6][3]linear.V3{
		{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
	}
	h := size * 0.5
	var data MeshData
	for _, f := range faces {
		var c linear.V3
		c.Scale(h, &f[0])
		base := uint32(len(data.Positions))
		for _, s := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			var u, v, p linear.V3
			u.Scale(s[0]*h, &f[1])
			v.Scale(s[1]*h, &f[2])
			p.Add(&c, &u)
			p.Add(&p, &v)
			data.Positions = append(data.Positions, p)
			data.Normals = append(data.Normals, f[0])
		}
		data.Indices = append(data.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	m, err := NewMesh(&data)
	if err != nil {
		panic(err)
	}
	return m
}

// NewPlaneMesh creates a square on the XZ plane,
// centered at the origin and facing +Y.
func NewPlaneMesh(size float32) *Mesh {
	h := size * 0.5
	m, err := NewMesh(&MeshData{
		Positions: []linear.V3{{-h, 0, -h}, {-h, 0, h}, {h, 0, h}, {h, 0, -h}},
		Normals:   []linear.V3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	})
	if err != nil {
		panic(err)
	}
	return m
}

// NewSphereMesh creates a UV sphere centered at the
// origin.
func NewSphereMesh(radius float32, slices, stacks int) (*Mesh, error) {
	switch {
	case radius <= 0:
		return nil, newMeshErr("invalid sphere radius")
	case slices < 3, stacks < 2:
		return nil, newMeshErr("invalid sphere subdivision")
	}
	var data MeshData
	for i := 0; i <= stacks; i++ {
		st, ct := math32.Sincos(math32.Pi * float32(i) / float32(stacks))
		for j := 0; j <= slices; j++ {
			sp, cp := math32.Sincos(2 * math32.Pi * float32(j) / float32(slices))
			n := linear.V3{st * cp, ct, st * sp}
			var p linear.V3
			p.Scale(radius, &n)
			data.Positions = append(data.Positions, p)
			data.Normals = append(data.Normals, n)
		}
	}
	row := uint32(slices + 1)
	for i := range uint32(stacks) {
		for j := range uint32(slices) {
			a := i*row + j
			b := a + row
			data.Indices = append(data.Indices, a, b+1, b, a, a+1, b+1)
		}
	}
	return NewMesh(&data)
}
