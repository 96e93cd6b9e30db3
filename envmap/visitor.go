// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package envmap

import (
	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/linear"
	"github.com/gviegas/sceneview/node"
	"github.com/gviegas/sceneview/scene"
)

// Renderer is the interface of the renderer that a
// capture submits to.
// *engine.Renderer implements it.
type Renderer interface {
	SetCurrentCamera(cam *engine.Camera)
	CurrentCamera() *engine.Camera
	AddLight(light *engine.Light)
	AddModel(model *engine.Model, world *linear.M4)
	RenderTo(t *engine.Target) error
}

// CaptureVisitor submits a scene to a Renderer, skipping
// one model node.
type CaptureVisitor struct {
	r    Renderer
	skip node.Node
}

// NewCaptureVisitor creates a new CaptureVisitor that
// submits to r every model except the one at node skip.
// It makes cam r's current camera.
// If skip is node.Nil, every model is submitted.
func NewCaptureVisitor(r Renderer, cam *engine.Camera, skip node.Node) *CaptureVisitor {
	r.SetCurrentCamera(cam)
	return &CaptureVisitor{r, skip}
}

// VisitCamera does nothing: the capture camera is
// already current.
func (v *CaptureVisitor) VisitCamera(node.Node, *engine.Camera, *linear.M4) {}

// VisitLight submits light.
func (v *CaptureVisitor) VisitLight(_ node.Node, light *engine.Light, _ *linear.M4) {
	v.r.AddLight(light)
}

// VisitModel submits model with its world transform,
// unless n is the skipped node.
// It panics if world is nil.
func (v *CaptureVisitor) VisitModel(n node.Node, model *engine.Model, world *linear.M4) {
	if n == v.skip {
		return
	}
	if world == nil {
		panic("envmap: model node without transform")
	}
	v.r.AddModel(model, world)
}

// Visitor returns the handlers of v.
func (v *CaptureVisitor) Visitor() scene.Visitor {
	return scene.Visitor{
		Camera: v.VisitCamera,
		Light:  v.VisitLight,
		Model:  v.VisitModel,
	}
}
