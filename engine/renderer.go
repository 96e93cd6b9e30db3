// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"log/slog"

	"github.com/gviegas/sceneview/linear"
)

func newRendErr(s string) error { return errors.New("renderer: " + s) }

// Renderer renders submitted lights and models from
// the point of view of its current camera.
// Submissions last for a single call to Render or
// RenderTo.
type Renderer struct {
	cam       *Camera
	lights    []Light
	drawables []Drawable
	passes    []RenderPass
	target    *Target
}

// Drawable is a model submitted for rendering.
type Drawable struct {
	Model *Model
	World linear.M4
}

// Frame is the input of a RenderPass.
type Frame struct {
	Camera    *Camera
	ViewProj  linear.M4
	Lights    []Light
	Drawables []Drawable
	Target    *Target
}

// RenderPass is the interface that wraps the Render
// method.
// Render passes are executed in the order in which
// they are added to a Renderer.
type RenderPass interface {
	Render(f *Frame) error
}

// NewRenderer creates a new renderer.
// It has no camera, no target and no render passes.
func NewRenderer() *Renderer { return new(Renderer) }

// SetCurrentCamera sets the camera used for rendering.
func (r *Renderer) SetCurrentCamera(cam *Camera) { r.cam = cam }

// CurrentCamera returns the camera used for rendering.
func (r *Renderer) CurrentCamera() *Camera { return r.cam }

// AddLight submits a light for the next rendering.
// The light is copied.
func (r *Renderer) AddLight(light *Light) {
	if len(r.lights) >= cfg.MaxLight {
		slog.Warn("renderer: light limit reached", "max", cfg.MaxLight)
		return
	}
	r.lights = append(r.lights, *light)
}

// AddModel submits a model for the next rendering.
// world is the model's world transform.
func (r *Renderer) AddModel(model *Model, world *linear.M4) {
	if len(r.drawables) >= cfg.MaxDrawable {
		slog.Warn("renderer: drawable limit reached", "max", cfg.MaxDrawable)
		return
	}
	r.drawables = append(r.drawables, Drawable{model, *world})
}

// Lights returns the lights submitted so far.
// The slice aliases r's storage and must not be
// retained.
func (r *Renderer) Lights() []Light { return r.lights }

// Drawables returns the models submitted so far.
// The slice aliases r's storage and must not be
// retained.
func (r *Renderer) Drawables() []Drawable { return r.drawables }

// AddRenderPass appends a render pass to r.
func (r *Renderer) AddRenderPass(pass RenderPass) {
	if pass == nil {
		panic("renderer: nil RenderPass")
	}
	r.passes = append(r.passes, pass)
}

// SetTarget sets r's own target.
func (r *Renderer) SetTarget(t *Target) { r.target = t }

// Target returns r's own target.
func (r *Renderer) Target() *Target { return r.target }

// Render clears r's own target and renders into it.
func (r *Renderer) Render() error {
	if r.target == nil {
		r.reset()
		return newRendErr("no target set")
	}
	r.target.Clear(cfg.ClearColor, 1)
	return r.RenderTo(r.target)
}

var dflPasses = []RenderPass{&ForwardPass{}}

// RenderTo renders into t.
// It does not clear t. Submissions are discarded when
// it returns, whether it succeeds or not.
// If r has no render passes, a ForwardPass is used.
func (r *Renderer) RenderTo(t *Target) error {
	defer r.reset()
	switch {
	case t == nil || t.fb == nil:
		return newRendErr("nil target")
	case t.color == nil:
		return newRendErr("target has no color attachment")
	case r.cam == nil:
		return newRendErr("no current camera")
	}
	f := Frame{
		Camera:    r.cam,
		ViewProj:  r.cam.ViewProj(),
		Lights:    r.lights,
		Drawables: r.drawables,
		Target:    t,
	}
	passes := r.passes
	if len(passes) == 0 {
		passes = dflPasses
	}
	for _, p := range passes {
		if err := p.Render(&f); err != nil {
			return err
		}
	}
	return nil
}

// reset discards submitted lights and models.
func (r *Renderer) reset() {
	clear(r.drawables)
	r.lights = r.lights[:0]
	r.drawables = r.drawables[:0]
}
