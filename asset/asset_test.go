// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package asset

import (
	"slices"
	"strings"
	"testing"

	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/linear"
)

func TestLoadOBJ(t *testing.T) {
	m, err := Load("testdata/quad.obj")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "quad" {
		t.Fatalf("Model.Name:\nhave %q\nwant \"quad\"", m.Name)
	}
	if n := len(m.Indices); n != 6 {
		t.Fatalf("len(Model.Indices):\nhave %d\nwant 6", n)
	}
	want := []linear.V3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	if !slices.Equal(m.Positions, want) {
		t.Fatalf("Model.Positions:\nhave %v\nwant %v", m.Positions, want)
	}
	for _, n := range m.Normals {
		if n != (linear.V3{0, 0, 1}) {
			t.Fatalf("Model.Normals:\nhave %v\nwant [0 0 1]", n)
		}
	}
	if m.BaseColor != [4]float32{1, 1, 1, 1} {
		t.Fatalf("Model.BaseColor:\nhave %v\nwant [1 1 1 1]", m.BaseColor)
	}
	mesh, err := m.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if n := mesh.Len(); n != 2 {
		t.Fatalf("Mesh.Len:\nhave %d\nwant 2", n)
	}
}

func TestDecodeOBJ(t *testing.T) {
	// No normals: computed by engine.NewMesh.
	m, err := DecodeOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1 2 -1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Normals != nil {
		t.Fatalf("Model.Normals:\nhave %v\nwant nil", m.Normals)
	}
	if m.Positions[2] != (linear.V3{0, 1, 0}) {
		t.Fatalf("Model.Positions[2]:\nhave %v\nwant [0 1 0]", m.Positions[2])
	}

	for _, x := range [...]struct {
		src, reason string
	}{
		{"v 0 0 0\n", "no faces"},
		{"v 0 0\n", "line 1: expected 3 coordinates"},
		{"v 0 0 x\n", "line 1:"},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2\n", "line 4: face with fewer than 3 vertices"},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", "line 4: index 4 out of range"},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", "line 4: zero index"},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n", "line 4: index 1 out of range"},
	} {
		_, err := DecodeOBJ(strings.NewReader(x.src))
		if err == nil || !strings.Contains(err.Error(), x.reason) {
			t.Fatalf("DecodeOBJ(%q):\nhave %v\nwant %q", x.src, err, x.reason)
		}
	}
}

func TestLoadGLTF(t *testing.T) {
	m, err := Load("testdata/tri.gltf")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "tri" {
		t.Fatalf("Model.Name:\nhave %q\nwant \"tri\"", m.Name)
	}
	// Scaled by the mesh node, translated by its parent.
	want := []linear.V3{{0, 1, 0}, {2, 1, 0}, {0, 3, 0}}
	if !slices.Equal(m.Positions, want) {
		t.Fatalf("Model.Positions:\nhave %v\nwant %v", m.Positions, want)
	}
	if !slices.Equal(m.Indices, []uint32{0, 1, 2}) {
		t.Fatalf("Model.Indices:\nhave %v\nwant [0 1 2]", m.Indices)
	}
	if m.BaseColor != [4]float32{1, 0, 0, 1} || !m.DoubleSided {
		t.Fatalf("Model surface:\nhave %v, %t\nwant [1 0 0 1], true", m.BaseColor, m.DoubleSided)
	}
	mat, err := m.Material(engine.EnvRefract, engine.DefaultIOR)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.DoubleSided() || mat.EnvMode() != engine.EnvRefract {
		t.Fatal("Model.Material: surface not carried over")
	}
	mesh, err := m.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if _, norm := mesh.Triangle(0); norm[0] != (linear.V3{0, 0, 1}) {
		t.Fatalf("Mesh normal:\nhave %v\nwant [0 0 1]", norm[0])
	}
}

func TestLoad(t *testing.T) {
	if _, err := Load("testdata/model.fbx"); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("Load(model.fbx):\nhave %v\nwant unsupported file extension", err)
	}
	if _, err := Load("testdata/missing.obj"); err == nil {
		t.Fatal("Load(missing.obj):\nhave nil\nwant error")
	}
}

func TestMerge(t *testing.T) {
	var m Model
	m.merge(&engine.MeshData{
		Positions: []linear.V3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   []linear.V3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
	})
	if len(m.Normals) != 3 || !slices.Equal(m.Indices, []uint32{0, 1, 2}) {
		t.Fatalf("Model.merge:\nhave %v, %v", m.Normals, m.Indices)
	}
	m.merge(&engine.MeshData{
		Positions: []linear.V3{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}},
		Indices:   []uint32{2, 1, 0},
	})
	if m.Normals != nil {
		t.Fatalf("Model.merge: normals\nhave %v\nwant nil", m.Normals)
	}
	if !slices.Equal(m.Indices, []uint32{0, 1, 2, 5, 4, 3}) {
		t.Fatalf("Model.merge: indices\nhave %v\nwant [0 1 2 5 4 3]", m.Indices)
	}
}

func TestSimplify(t *testing.T) {
	sphere, err := engine.NewSphereMesh(1, 32, 16)
	if err != nil {
		t.Fatal(err)
	}
	var m Model
	for i := range sphere.Len() {
		pos, _ := sphere.Triangle(i)
		m.merge(&engine.MeshData{Positions: pos[:]})
	}
	n := len(m.Indices) / 3

	m.Simplify(1)
	if len(m.Indices)/3 != n {
		t.Fatalf("Model.Simplify(1): triangle count\nhave %d\nwant %d", len(m.Indices)/3, n)
	}
	m.Simplify(0.25)
	if k := len(m.Indices) / 3; k == 0 || k >= n {
		t.Fatalf("Model.Simplify(0.25): triangle count\nhave %d\nwant in (0, %d)", k, n)
	}
	if m.Normals != nil {
		t.Fatal("Model.Simplify: normals not discarded")
	}
	if _, err := m.Mesh(); err != nil {
		t.Fatal(err)
	}
}
