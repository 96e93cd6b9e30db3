// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package viewer implements a headless scene viewer
// whose refractive objects display environment maps
// generated from the scene itself.
package viewer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/envmap"
	"github.com/gviegas/sceneview/linear"
	"github.com/gviegas/sceneview/node"
	"github.com/gviegas/sceneview/scene"
)

const prefix = "viewer: "

func newErr(reason string) error { return errors.New(prefix + reason) }

// probe is a refractive object and the environment
// map it owns.
type probe struct {
	node node.Node
	mat  *engine.Material
	// Generated by the last successful capture.
	// nil until then.
	env *engine.Texture
}

// release detaches the environment map of p from its
// material and frees it.
func (p *probe) release() {
	p.mat.SetEnvironment(nil)
	if p.env != nil {
		p.env.Free()
		p.env = nil
	}
}

// Viewer renders a scene from one of its camera nodes
// and keeps the environment maps of its refractive
// objects.
type Viewer struct {
	cfg    Config
	origin envmap.Origin
	scene  *scene.Scene
	rend   *engine.Offscreen
	sky    *engine.Texture
	camera node.Node
	probes []probe
}

// New creates a new Viewer with an empty scene.
func New(cfg *Config) (v *Viewer, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	origin, _ := envmap.ParseOrigin(cfg.Origin)
	var sky *engine.Texture
	if cfg.SkyDir != "" {
		sky, err = LoadSky(cfg.SkyDir)
	} else {
		sky, err = NewSky(cfg.SkySize)
	}
	if err != nil {
		return
	}
	rend, err := engine.NewOffscreen(cfg.Width, cfg.Height)
	if err != nil {
		sky.Free()
		return
	}
	rend.AddRenderPass(&engine.SkyboxPass{Texture: sky})
	rend.AddRenderPass(&engine.ForwardPass{})
	v = &Viewer{
		cfg:    *cfg,
		origin: origin,
		scene:  scene.New(),
		rend:   rend,
		sky:    sky,
	}
	v.cfg.Refractive = append([]string(nil), cfg.Refractive...)
	return
}

// Config returns v's configuration.
func (v *Viewer) Config() Config { return v.cfg }

// Scene returns v's scene.
func (v *Viewer) Scene() *scene.Scene { return v.scene }

// Renderer returns the renderer used to draw frames
// and capture environment maps.
func (v *Viewer) Renderer() *engine.Offscreen { return v.rend }

// Sky returns the cube texture used as background.
func (v *Viewer) Sky() *engine.Texture { return v.sky }

// Camera returns the node from which frames are
// rendered.
func (v *Viewer) Camera() node.Node { return v.camera }

// SetCamera sets the node from which frames are
// rendered. n must be a camera node.
func (v *Viewer) SetCamera(n node.Node) error {
	if !v.scene.Valid(n) || v.scene.Kind(n) != scene.KindCamera {
		return newErr("not a camera node")
	}
	v.camera = n
	return nil
}

// AddRefractive registers the model node n as a
// refractive object. Its material must use an
// environment mode and it displays the sky until the
// next call to RegenerateEnvMaps.
func (v *Viewer) AddRefractive(n node.Node) error {
	if !v.scene.Valid(n) || v.scene.Kind(n) != scene.KindModel {
		return newErr("not a model node")
	}
	for _, p := range v.probes {
		if p.node == n {
			return newErr("node already refractive")
		}
	}
	mat := v.scene.Model(n).Material()
	if mat.EnvMode() == engine.EnvNone {
		return newErr("material has no environment mode")
	}
	if mat.Environment() == nil {
		if err := mat.SetEnvironment(v.sky); err != nil {
			return err
		}
	}
	v.probes = append(v.probes, probe{node: n, mat: mat})
	return nil
}

// prune drops the refractive objects whose nodes were
// removed from the scene.
func (v *Viewer) prune() {
	live := v.probes[:0]
	for _, p := range v.probes {
		if v.scene.Valid(p.node) {
			live = append(live, p)
			continue
		}
		slog.Warn("refractive node removed", "node", int(p.node))
		p.release()
	}
	clear(v.probes[len(live):])
	v.probes = live
}

// Refractive returns the refractive model nodes.
// Nodes removed from the scene are no longer
// refractive.
func (v *Viewer) Refractive() []node.Node {
	v.prune()
	ns := make([]node.Node, len(v.probes))
	for i := range v.probes {
		ns[i] = v.probes[i].node
	}
	return ns
}

// EnvMap returns the environment map generated for the
// refractive node n, or nil if it has none.
func (v *Viewer) EnvMap(n node.Node) *engine.Texture {
	v.prune()
	for _, p := range v.probes {
		if p.node == n {
			return p.env
		}
	}
	return nil
}

// submitVisitor returns the scene.Visitor that submits
// a frame as seen from the camera node cam.
func submitVisitor(r *engine.Renderer, cam node.Node) *scene.Visitor {
	return &scene.Visitor{
		Camera: func(n node.Node, c *engine.Camera, world *linear.M4) {
			if n != cam {
				return
			}
			if world != nil {
				c.SetViewFromWorld(world)
			}
			r.SetCurrentCamera(c)
		},
		Light: func(_ node.Node, l *engine.Light, _ *linear.M4) {
			r.AddLight(l)
		},
		Model: func(_ node.Node, m *engine.Model, world *linear.M4) {
			if world == nil {
				panic("viewer: model node without transform")
			}
			r.AddModel(m, world)
		},
	}
}

// Frame renders the scene from the current camera.
// The result is available through Image.
func (v *Viewer) Frame() error {
	if !v.scene.Valid(v.camera) {
		return newErr("no camera")
	}
	v.scene.Accept(submitVisitor(&v.rend.Renderer, v.camera))
	return v.rend.Render()
}

// Image copies the last rendered frame.
func (v *Viewer) Image() (*image.RGBA, error) { return v.rend.Texture().Image(0, 0) }

// RegenerateEnvMaps generates a new environment map
// for every refractive object still in the scene.
// An object whose capture fails keeps displaying its
// previous environment map. The errors of all failed
// captures are joined.
func (v *Viewer) RegenerateEnvMaps() error {
	v.prune()
	var errs []error
	for i := range v.probes {
		if err := v.regenerate(&v.probes[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (v *Viewer) regenerate(p *probe) error {
	name := v.scene.Name(p.node)
	log := slog.With("node", name, "size", v.cfg.EnvMapSize, "origin", v.origin)
	fail := func(err error) error {
		log.Error("envmap capture failed", "err", err)
		return fmt.Errorf("viewer: %s: %w", name, err)
	}

	eye, err := envmap.EyeFor(v.scene, p.node, v.camera, v.origin)
	if err != nil {
		return fail(err)
	}
	log.Info("envmap capture", "eye", eye)
	param := envmap.Param{
		Size:    v.cfg.EnvMapSize,
		Eye:     eye,
		Exclude: p.node,
		Near:    v.cfg.Near,
		Far:     v.cfg.Far,
		Clear:   v.cfg.ClearColor,
	}
	tex, err := envmap.Generate(v.rend, v.scene, &param)
	if err != nil {
		return fail(err)
	}
	if err = p.mat.SetEnvironment(tex); err != nil {
		tex.Free()
		return fail(err)
	}
	if p.env != nil {
		p.env.Free()
	}
	p.env = tex
	log.Info("envmap captured", "levels", tex.Levels())
	return nil
}

// Close frees the resources owned by v.
// The scene is left intact, but refractive materials
// no longer reference an environment map.
func (v *Viewer) Close() {
	for i := range v.probes {
		v.probes[i].release()
	}
	v.rend.Free()
	v.sky.Free()
	*v = Viewer{}
}
