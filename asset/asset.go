// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package asset loads models from files.
//
// Wavefront OBJ (.obj) and glTF 2.0 (.gltf, .glb)
// files are supported. Every triangle of a file is
// merged into a single Model.
package asset

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gviegas/sceneview/engine"
)

const prefix = "asset: "

func newErr(reason string) error { return errors.New(prefix + reason) }

// Model is the geometry and the surface color of a
// model file.
type Model struct {
	Name string
	engine.MeshData
	BaseColor   [4]float32
	DoubleSided bool
}

// Mesh creates an engine.Mesh from m's geometry.
func (m *Model) Mesh() (*engine.Mesh, error) { return engine.NewMesh(&m.MeshData) }

// Material creates an engine.Material with m's
// surface color and the given environment mode.
func (m *Model) Material(envMode int, ior float32) (*engine.Material, error) {
	return engine.NewMaterial(&engine.MatProp{
		BaseColor:   m.BaseColor,
		EnvMode:     envMode,
		IOR:         ior,
		DoubleSided: m.DoubleSided,
	})
}

// loaders maps lowercase file extensions to the
// functions that load them.
var loaders = map[string]func(string) (*Model, error){
	".obj":  LoadOBJ,
	".gltf": LoadGLTF,
	".glb":  LoadGLTF,
}

// Load loads the model file at path.
// The format is chosen from the file extension.
func Load(path string) (*Model, error) {
	ext := strings.ToLower(filepath.Ext(path))
	load, ok := loaders[ext]
	if !ok {
		return nil, newErr("unsupported file extension " + ext)
	}
	return load(path)
}

// merge appends the triangles of d to m.
// Normals are kept only while every merged part
// provides them.
func (m *Model) merge(d *engine.MeshData) {
	base := uint32(len(m.Positions))
	keep := len(d.Normals) == len(d.Positions) && len(m.Normals) == len(m.Positions)
	m.Positions = append(m.Positions, d.Positions...)
	if keep {
		m.Normals = append(m.Normals, d.Normals...)
	} else {
		m.Normals = nil
	}
	if len(d.Indices) == 0 {
		for i := range d.Positions {
			m.Indices = append(m.Indices, base+uint32(i))
		}
	} else {
		for _, i := range d.Indices {
			m.Indices = append(m.Indices, base+i)
		}
	}
}
