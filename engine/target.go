// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"

	"github.com/gviegas/sceneview/driver"
	"github.com/gviegas/sceneview/internal/ctxt"
)

const targetPrefix = "target: "

// Target is a framebuffer and the viewport into
// which rendering is done.
// It does not own its attachments.
type Target struct {
	fb    driver.Framebuf
	vp    driver.Viewport
	color *Texture
	depth *Texture
}

// NewRenderTarget creates a new target with no
// attachments.
func NewRenderTarget() (*Target, error) {
	fb, err := ctxt.GPU().NewFramebuf()
	if err != nil {
		return nil, err
	}
	return &Target{fb: fb}, nil
}

// Attach attaches the given layer and level of color,
// and optionally depth, to t.
// The viewport is set to cover the whole level.
// color must have been created by NewCube or NewTarget.
// depth, if not nil, must be a depth texture created by
// NewTarget whose size matches the level's.
func (t *Target) Attach(color *Texture, layer, level int, depth *Texture) error {
	switch {
	case color == nil || !color.IsValid():
		return errors.New(targetPrefix + "invalid color texture")
	case depth != nil && !depth.IsValid():
		return errors.New(targetPrefix + "invalid depth texture")
	}
	t.fb.Detach()
	if err := t.fb.AttachColor(color.img, layer, level); err != nil {
		return err
	}
	if depth != nil {
		if err := t.fb.AttachDepth(depth.img); err != nil {
			t.fb.Detach()
			return err
		}
	}
	w, h := t.fb.Size()
	t.vp = driver.Viewport{Width: float32(w), Height: float32(h), Zfar: 1}
	t.color = color
	t.depth = depth
	return nil
}

// Detach removes every attachment of t.
func (t *Target) Detach() {
	t.fb.Detach()
	t.color = nil
	t.depth = nil
}

// Clear clears the attachments of t.
func (t *Target) Clear(color [4]float32, depth float32) { t.fb.Clear(color, depth) }

// Framebuf returns the driver.Framebuf of t.
func (t *Target) Framebuf() driver.Framebuf { return t.fb }

// Viewport returns the viewport of t.
func (t *Target) Viewport() driver.Viewport { return t.vp }

// SetViewport sets the viewport of t.
func (t *Target) SetViewport(vp driver.Viewport) { t.vp = vp }

// Color returns the color texture attached to t.
func (t *Target) Color() *Texture { return t.color }

// Depth returns the depth texture attached to t.
func (t *Target) Depth() *Texture { return t.depth }

// Free invalidates t and destroys the framebuffer.
// Attached textures are not freed.
func (t *Target) Free() {
	if t.fb != nil {
		t.fb.Detach()
		t.fb.Destroy()
	}
	*t = Target{}
}

// Offscreen is a Renderer that targets a Texture.
type Offscreen struct {
	Renderer
	rt    *Target
	color *Texture
	depth *Texture
}

// NewOffscreen creates a new offscreen renderer.
func NewOffscreen(width, height int) (*Offscreen, error) {
	param := TexParam{
		PixelFmt: driver.RGBA8un,
		Dim3D:    driver.Dim3D{Width: width, Height: height},
		Layers:   1,
		Levels:   1,
	}
	color, err := NewTarget(&param)
	if err != nil {
		return nil, err
	}
	param.PixelFmt = driver.D32f
	depth, err := NewTarget(&param)
	if err != nil {
		color.Free()
		return nil, err
	}
	rt, err := NewRenderTarget()
	if err != nil {
		depth.Free()
		color.Free()
		return nil, err
	}
	if err = rt.Attach(color, 0, 0, depth); err != nil {
		rt.Free()
		depth.Free()
		color.Free()
		return nil, err
	}
	r := &Offscreen{rt: rt, color: color, depth: depth}
	r.SetTarget(rt)
	return r, nil
}

// Texture returns the Texture into which r renders.
func (r *Offscreen) Texture() *Texture { return r.color }

// Free invalidates r and destroys its target.
func (r *Offscreen) Free() {
	r.rt.Free()
	r.depth.Free()
	r.color.Free()
	*r = Offscreen{}
}
