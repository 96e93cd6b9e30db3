// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package envmap generates dynamic environment maps.
//
// An environment map is a cube texture into which a scene
// is rendered six times from a single point, once per
// face. The object that will display the map is left out
// of the capture, so it does not occlude its own
// surroundings.
package envmap

import (
	"errors"
	"log/slog"

	"github.com/chewxy/math32"

	"github.com/gviegas/sceneview/driver"
	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/internal/ctxt"
	"github.com/gviegas/sceneview/linear"
	"github.com/gviegas/sceneview/node"
	"github.com/gviegas/sceneview/scene"
)

const prefix = "envmap: "

func newErr(reason string) error { return errors.New(prefix + reason) }

// Default clipping planes.
const (
	DefaultNear = 0.1
	DefaultFar  = 100
)

// Param describes a capture.
type Param struct {
	// Width and height of each face.
	Size int
	// Capture position in world space.
	Eye linear.V3
	// Model node left out of the capture.
	// node.Nil captures every model.
	Exclude node.Node
	// Clipping planes.
	Near, Far float32
	// Number of mip levels.
	// Zero means a full mip chain.
	Levels int
	// Color of what no model covers.
	Clear [4]float32
}

// DefaultParam returns a Param with the given size,
// default clipping planes, a full mip chain and an
// opaque black clear color.
func DefaultParam(size int) Param {
	return Param{
		Size:  size,
		Near:  DefaultNear,
		Far:   DefaultFar,
		Clear: [4]float32{0, 0, 0, 1},
	}
}

// validate checks whether p is valid for s.
func (p *Param) validate(s *scene.Scene) error {
	var reason string
	switch {
	case p == nil:
		reason = "nil param"
	case p.Size < 1:
		reason = "invalid size"
	case p.Size > ctxt.Limits().MaxImageCube:
		reason = "size too big"
	case !(p.Near > 0):
		reason = "invalid near plane"
	case !(p.Far > p.Near):
		reason = "invalid far plane"
	case p.Levels < 0, p.Levels > engine.ComputeLevels(driver.Dim3D{Width: p.Size, Height: p.Size}):
		reason = "invalid level count"
	case p.Exclude != node.Nil && !s.Valid(p.Exclude):
		reason = "excluded node not in scene"
	case math32.IsInf(p.Eye[0], 0), math32.IsInf(p.Eye[1], 0), math32.IsInf(p.Eye[2], 0),
		math32.IsNaN(p.Eye[0]), math32.IsNaN(p.Eye[1]), math32.IsNaN(p.Eye[2]):
		reason = "invalid eye position"
	default:
		return nil
	}
	return newErr(reason)
}

// Generate renders s into a new cube texture.
//
// Each face is cleared to p.Clear and rendered by r from
// p.Eye, with every light and every model except the one
// at p.Exclude. The faces are rendered in Face order,
// after which the mip chain is generated. The caller owns
// the returned texture.
//
// r's current camera is replaced during the call and
// restored before it returns. Intermediate resources never
// outlive the call. On failure, no texture is returned.
func Generate(r Renderer, s *scene.Scene, p *Param) (tex *engine.Texture, err error) {
	switch {
	case r == nil:
		return nil, newErr("nil renderer")
	case s == nil:
		return nil, newErr("nil scene")
	}
	if err = p.validate(s); err != nil {
		return
	}
	levels := p.Levels
	dim := driver.Dim3D{Width: p.Size, Height: p.Size}
	if levels == 0 {
		levels = engine.ComputeLevels(dim)
	}

	cube, err := engine.NewCube(&engine.TexParam{
		PixelFmt: driver.RGBA8un,
		Dim3D:    dim,
		Layers:   NumFaces,
		Levels:   levels,
	})
	if err != nil {
		return
	}
	depth, err := engine.NewTarget(&engine.TexParam{
		PixelFmt: driver.D32f,
		Dim3D:    dim,
		Layers:   1,
		Levels:   1,
	})
	if err != nil {
		cube.Free()
		return
	}
	rt, err := engine.NewRenderTarget()
	if err != nil {
		depth.Free()
		cube.Free()
		return
	}

	prev := r.CurrentCamera()
	defer func() {
		rt.Free()
		depth.Free()
		r.SetCurrentCamera(prev)
		if tex == nil {
			cube.Free()
		}
	}()

	cam := engine.NewCamera(math32.Pi/2, 1, p.Near, p.Far)
	views := FaceViews(&p.Eye)
	for f := range Face(NumFaces) {
		if err = rt.Attach(cube, int(f), 0, depth); err != nil {
			return
		}
		// Rows are stored bottom-up relative to the
		// face's up vector.
		vp := rt.Viewport()
		vp.Y += vp.Height
		vp.Height = -vp.Height
		rt.SetViewport(vp)
		rt.Clear(p.Clear, 1)
		cam.SetView(&views[f])
		v := NewCaptureVisitor(r, cam, p.Exclude)
		sv := v.Visitor()
		s.Accept(&sv)
		if err = r.RenderTo(rt); err != nil {
			return
		}
		slog.Debug("envmap: face rendered", "face", f)
	}
	if err = cube.GenMipmaps(); err != nil {
		return
	}
	tex = cube
	return
}
