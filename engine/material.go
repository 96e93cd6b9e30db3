// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
)

const matPrefix = "material: "

func newMatErr(reason string) error { return errors.New(matPrefix + reason) }

// Environment modes.
const (
	// The environment texture is ignored.
	EnvNone = iota
	// The environment is reflected about the
	// surface normal.
	EnvReflect
	// The environment is refracted through the
	// surface using the material's IOR.
	// Total internal reflection falls back
	// to EnvReflect.
	EnvRefract
)

// DefaultIOR is the default index of refraction ratio.
const DefaultIOR = 0.95

// Material defines the material properties to be applied
// to geometry during rendering.
type Material struct {
	prop MatProp
	env  *Texture
}

// MatProp defines the properties of a material.
// A BaseColor alpha less than 1 causes the geometry
// to be blended with the background.
type MatProp struct {
	BaseColor   [4]float32
	EnvMode     int
	IOR         float32
	DoubleSided bool
}

// NewMaterial creates a new material.
func NewMaterial(prop *MatProp) (*Material, error) {
	if err := prop.validate(); err != nil {
		return nil, err
	}
	return &Material{prop: *prop}, nil
}

// validate checks whether p is valid.
func (p *MatProp) validate() error {
	if p == nil {
		return newMatErr("nil prop")
	}
	for _, x := range p.BaseColor {
		if x < 0 || x > 1 {
			return newMatErr("base color not in [0, 1]")
		}
	}
	switch p.EnvMode {
	case EnvNone, EnvReflect:
	case EnvRefract:
		if p.IOR <= 0 {
			return newMatErr("invalid IOR")
		}
	default:
		return newMatErr("undefined environment mode")
	}
	return nil
}

// SetEnvironment sets the environment texture of m.
// tex must be a cube texture, or nil to remove the
// current environment.
// The material does not take ownership of tex.
func (m *Material) SetEnvironment(tex *Texture) error {
	if tex != nil && (!tex.IsValid() || !tex.IsCube()) {
		return newMatErr("environment is not a valid cube texture")
	}
	m.env = tex
	return nil
}

// Environment returns the environment texture of m.
// It returns nil if m has no environment.
func (m *Material) Environment() *Texture { return m.env }

// BaseColor returns the base color of m.
func (m *Material) BaseColor() [4]float32 { return m.prop.BaseColor }

// EnvMode returns the environment mode of m.
func (m *Material) EnvMode() int { return m.prop.EnvMode }

// IOR returns the index of refraction ratio of m.
func (m *Material) IOR() float32 { return m.prop.IOR }

// DoubleSided returns whether back faces of m are
// rendered.
func (m *Material) DoubleSided() bool { return m.prop.DoubleSided }

// IsBlended returns whether m is blended with the
// background.
func (m *Material) IsBlended() bool { return m.prop.BaseColor[3] < 1 }

// Model is a mesh with a material.
type Model struct {
	mesh *Mesh
	mat  *Material
}

// NewModel creates a new model.
// If mat is nil, an opaque white material is used.
func NewModel(mesh *Mesh, mat *Material) (*Model, error) {
	if mesh == nil {
		return nil, errors.New("model: nil mesh")
	}
	if mat == nil {
		mat = &Material{prop: MatProp{BaseColor: [4]float32{1, 1, 1, 1}}}
	}
	return &Model{mesh, mat}, nil
}

// Mesh returns the mesh of m.
func (m *Model) Mesh() *Mesh { return m.mesh }

// Material returns the material of m.
func (m *Model) Material() *Material { return m.mat }
