// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package viewer

import (
	"log/slog"

	"github.com/chewxy/math32"

	"github.com/gviegas/sceneview/asset"
	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/linear"
	"github.com/gviegas/sceneview/node"
	"github.com/gviegas/sceneview/scene"
)

// Names of the demo scene nodes.
const (
	DemoCamera = "camera"
	DemoSun    = "sun"
	DemoLamp   = "lamp"
	DemoFloor  = "floor"
	DemoProbe  = "glass"
	DemoMirror = "mirror"
)

// demoModel describes a model of the demo scene.
type demoModel struct {
	name  string
	mesh  func() (*engine.Mesh, error)
	color [4]float32
	env   int
	pos   linear.V3
	scale float32
}

func cubeMesh(size float32) func() (*engine.Mesh, error) {
	return func() (*engine.Mesh, error) { return engine.NewCubeMesh(size), nil }
}

func sphereMesh(radius float32) func() (*engine.Mesh, error) {
	return func() (*engine.Mesh, error) { return engine.NewSphereMesh(radius, 24, 16) }
}

var demoModels = [...]demoModel{
	{DemoFloor, func() (*engine.Mesh, error) { return engine.NewPlaneMesh(12), nil }, [4]float32{0.6, 0.6, 0.55, 1}, engine.EnvNone, linear.V3{0, 0, 0}, 1},
	{"crate", cubeMesh(1), [4]float32{0.8, 0.3, 0.2, 1}, engine.EnvNone, linear.V3{2, 0.5, -1}, 1},
	{"pillar", cubeMesh(1), [4]float32{0.2, 0.5, 0.8, 1}, engine.EnvNone, linear.V3{-2, 1, -2}, 2},
	{"ball", sphereMesh(0.5), [4]float32{0.3, 0.8, 0.3, 1}, engine.EnvNone, linear.V3{0.5, 0.5, 2}, 1},
	{DemoProbe, sphereMesh(0.8), [4]float32{0.9, 0.95, 1, 1}, engine.EnvRefract, linear.V3{0, 0.8, 0}, 1},
	{DemoMirror, sphereMesh(0.4), [4]float32{1, 1, 1, 1}, engine.EnvReflect, linear.V3{-1.5, 0.4, 1}, 1},
}

// LoadModel loads the model file described by mc into
// v's scene.
func (v *Viewer) LoadModel(mc *ModelConfig) (node.Node, error) {
	env, ok := mc.envMode()
	if !ok {
		return node.Nil, newErr("invalid env " + mc.Env)
	}
	a, err := asset.Load(mc.Path)
	if err != nil {
		return node.Nil, err
	}
	a.Simplify(mc.Simplify)
	mesh, err := a.Mesh()
	if err != nil {
		return node.Nil, err
	}
	mat, err := a.Material(env, v.cfg.IOR)
	if err != nil {
		return node.Nil, err
	}
	model, err := engine.NewModel(mesh, mat)
	if err != nil {
		return node.Nil, err
	}
	name := mc.Name
	if name == "" {
		name = a.Name
	}
	n := v.scene.AddModel(name, model, node.Nil)
	scale := mc.Scale
	if scale == 0 {
		scale = 1
	}
	xform := v.scene.Transform(n)
	xform.SetPosition((*linear.V3)(&mc.Position))
	xform.SetScale(&linear.V3{scale, scale, scale})
	slog.Debug("model loaded", "name", name, "path", mc.Path, "triangles", mesh.Len())
	return n, nil
}

// lookAt returns the rotation of a node at eye that
// looks towards center.
func lookAt(eye, center *linear.V3) (q linear.Q) {
	var view, world linear.M4
	view.LookAt(eye, center, &linear.V3{0, 1, 0})
	world.Invert(&view)
	var m linear.M3
	m.FromM4(&world)
	q.FromM3(&m)
	return
}

// BuildDemo populates v's scene with a camera, two
// lights and a few models around a refractive sphere.
// Models whose names are listed in v's configuration
// as refractive are registered with AddRefractive.
func BuildDemo(v *Viewer) error {
	s := v.scene
	aspect := float32(v.cfg.Width) / float32(v.cfg.Height)
	cam := s.AddCamera(DemoCamera, engine.NewCamera(math32.Pi/3, aspect, 0.1, 100), node.Nil)
	eye := linear.V3{4, 3, 6}
	rot := lookAt(&eye, &linear.V3{0, 0.5, 0})
	s.Transform(cam).SetPosition(&eye)
	s.Transform(cam).SetRotation(&rot)
	if err := v.SetCamera(cam); err != nil {
		return err
	}

	sun := (&engine.DistantLight{
		Direction: linear.V3{-0.3, -1, -0.3},
		Intensity: 0.7,
		R:         1,
		G:         0.95,
		B:         0.9,
	}).Light()
	s.AddLight(DemoSun, &sun, node.Nil)
	lamp := (&engine.PointLight{
		Position:  linear.V3{-1, 3, 2},
		Range:     10,
		Intensity: 4,
		R:         1,
		G:         0.8,
		B:         0.6,
	}).Light()
	s.AddLight(DemoLamp, &lamp, node.Nil)

	for _, x := range demoModels {
		mesh, err := x.mesh()
		if err != nil {
			return err
		}
		prop := engine.MatProp{BaseColor: x.color, EnvMode: x.env}
		if x.env == engine.EnvRefract {
			prop.IOR = v.cfg.IOR
		}
		mat, err := engine.NewMaterial(&prop)
		if err != nil {
			return err
		}
		model, err := engine.NewModel(mesh, mat)
		if err != nil {
			return err
		}
		n := s.AddModel(x.name, model, node.Nil)
		xform := s.Transform(n)
		xform.SetPosition(&x.pos)
		xform.SetScale(&linear.V3{x.scale, x.scale, x.scale})
	}

	for i := range v.cfg.Models {
		if _, err := v.LoadModel(&v.cfg.Models[i]); err != nil {
			return err
		}
	}

	for _, name := range v.cfg.Refractive {
		n := s.Lookup(name)
		if n == node.Nil || s.Kind(n) != scene.KindModel {
			return newErr("no refractive model named " + name)
		}
		if err := v.AddRefractive(n); err != nil {
			return err
		}
	}
	return nil
}
