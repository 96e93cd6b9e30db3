// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package asset

import (
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/linear"
)

// LoadGLTF loads a glTF 2.0 file, either JSON (.gltf)
// or binary (.glb).
// The meshes of the default scene are merged in world
// space. Only triangle list primitives are loaded.
// The base color and sidedness come from the material
// of the first primitive.
func LoadGLTF(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	l := gltfLoader{doc: doc}
	l.m.BaseColor = [4]float32{1, 1, 1, 1}
	l.m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var world linear.M4
	world.I()
	if len(doc.Scenes) == 0 {
		// No scene: every mesh, untransformed.
		for i := range doc.Meshes {
			if err = l.mesh(doc.Meshes[i], &world); err != nil {
				return nil, err
			}
		}
	} else {
		scn := doc.Scenes[0]
		if doc.Scene != nil {
			if int(*doc.Scene) >= len(doc.Scenes) {
				return nil, newErr("gltf: invalid scene index")
			}
			scn = doc.Scenes[*doc.Scene]
		}
		for _, n := range scn.Nodes {
			if err = l.node(int(n), &world, 0); err != nil {
				return nil, err
			}
		}
	}
	if len(l.m.Positions) == 0 {
		return nil, newErr("gltf: no triangles")
	}
	return &l.m, nil
}

type gltfLoader struct {
	doc     *gltf.Document
	m       Model
	colored bool
}

// Deeper node hierarchies are considered cyclic.
const maxGLTFDepth = 64

func (l *gltfLoader) node(i int, parent *linear.M4, depth int) error {
	if i < 0 || i >= len(l.doc.Nodes) {
		return newErr("gltf: invalid node index")
	}
	if depth > maxGLTFDepth {
		return newErr("gltf: node hierarchy too deep")
	}
	n := l.doc.Nodes[i]
	local := nodeMatrix(n)
	var world linear.M4
	world.Mul(parent, &local)
	if n.Mesh != nil {
		if int(*n.Mesh) >= len(l.doc.Meshes) {
			return newErr("gltf: invalid mesh index")
		}
		if err := l.mesh(l.doc.Meshes[*n.Mesh], &world); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := l.node(int(c), &world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeMatrix returns the local transform of n.
func nodeMatrix(n *gltf.Node) (m linear.M4) {
	var mat [16]float32
	identity := true
	for i, x := range n.Matrix {
		mat[i] = float32(x)
		if (i%5 == 0 && x != 1) || (i%5 != 0 && x != 0) {
			identity = false
		}
	}
	if !identity {
		for i := range m {
			m[i] = linear.V4{mat[i*4], mat[i*4+1], mat[i*4+2], mat[i*4+3]}
		}
		// An all-zero matrix is an unset one.
		if m != (linear.M4{}) {
			return
		}
	}
	var t, s linear.V3
	for i, x := range n.Translation {
		t[i] = float32(x)
	}
	for i, x := range n.Scale {
		s[i] = float32(x)
	}
	if s == (linear.V3{}) {
		s = linear.V3{1, 1, 1}
	}
	var q linear.Q
	for i, x := range n.Rotation {
		if i < 3 {
			q.V[i] = float32(x)
		} else {
			q.R = float32(x)
		}
	}
	if q.Len() == 0 {
		q.I()
	} else {
		q.Norm(&q)
	}
	var r linear.M4
	r.RotateQ(&q)
	m.Scale(s[0], s[1], s[2])
	m.Mul(&r, &m)
	r.Translate(t[0], t[1], t[2])
	m.Mul(&r, &m)
	return
}

func (l *gltfLoader) accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(l.doc.Accessors) {
		return nil, newErr("gltf: invalid accessor index")
	}
	return l.doc.Accessors[i], nil
}

func (l *gltfLoader) mesh(mesh *gltf.Mesh, world *linear.M4) error {
	var norm linear.M3
	norm.FromM4(world)
	norm.Invert(&norm)
	norm.Transpose(&norm)

	for _, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		pi, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		acc, err := l.accessor(int(pi))
		if err != nil {
			return err
		}
		pos, err := modeler.ReadPosition(l.doc, acc, nil)
		if err != nil {
			return err
		}
		var data engine.MeshData
		data.Positions = make([]linear.V3, len(pos))
		for i, p := range pos {
			v := linear.V4{p[0], p[1], p[2], 1}
			v.Mul(world, &v)
			data.Positions[i] = linear.V3{v[0], v[1], v[2]}
		}
		if ni, ok := prim.Attributes[gltf.NORMAL]; ok {
			if acc, err = l.accessor(int(ni)); err != nil {
				return err
			}
			ns, err := modeler.ReadNormal(l.doc, acc, nil)
			if err != nil {
				return err
			}
			if len(ns) == len(pos) {
				data.Normals = make([]linear.V3, len(ns))
				for i, n := range ns {
					v := linear.V3{n[0], n[1], n[2]}
					v.Mul(&norm, &v)
					if v.Len() > 0 {
						v.Norm(&v)
					}
					data.Normals[i] = v
				}
			}
		}
		if prim.Indices != nil {
			if acc, err = l.accessor(int(*prim.Indices)); err != nil {
				return err
			}
			if data.Indices, err = modeler.ReadIndices(l.doc, acc, nil); err != nil {
				return err
			}
			for _, i := range data.Indices {
				if int(i) >= len(pos) {
					return newErr("gltf: index out of bounds")
				}
			}
		}
		if len(data.Indices) == 0 && len(pos)%3 != 0 || len(data.Indices)%3 != 0 {
			return newErr("gltf: invalid triangle list")
		}
		if !l.colored {
			l.material(prim)
		}
		l.m.merge(&data)
	}
	return nil
}

// material sets the surface of l's model from the
// material of prim.
func (l *gltfLoader) material(prim *gltf.Primitive) {
	l.colored = true
	if prim.Material == nil || int(*prim.Material) >= len(l.doc.Materials) {
		return
	}
	mat := l.doc.Materials[*prim.Material]
	l.m.DoubleSided = mat.DoubleSided
	if pbr := mat.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
		for i, x := range *pbr.BaseColorFactor {
			l.m.BaseColor[i] = min(max(float32(x), 0), 1)
		}
	}
}
