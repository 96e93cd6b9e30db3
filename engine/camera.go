// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/gviegas/sceneview/linear"
)

// Camera defines a view and a projection.
// The zero value for Camera is not valid; use
// NewCamera to create an initialized Camera.
type Camera struct {
	view linear.M4
	proj linear.M4
}

// NewCamera creates a new camera with an identity view
// and the given perspective projection.
func NewCamera(yfov, aspect, znear, zfar float32) *Camera {
	c := new(Camera)
	c.view.I()
	c.SetPerspective(yfov, aspect, znear, zfar)
	return c
}

// SetView sets the view matrix of c.
func (c *Camera) SetView(m *linear.M4) { c.view = *m }

// SetViewLookAt sets the view matrix of c to look from
// eye towards center.
func (c *Camera) SetViewLookAt(eye, center, up *linear.V3) { c.view.LookAt(eye, center, up) }

// SetViewFromWorld sets the view matrix of c to the
// inverse of the world matrix m.
func (c *Camera) SetViewFromWorld(m *linear.M4) { c.view.Invert(m) }

// SetPerspective sets c's projection to a perspective
// projection.
func (c *Camera) SetPerspective(yfov, aspect, znear, zfar float32) {
	c.proj.Perspective(yfov, aspect, znear, zfar)
}

// SetProjection sets the projection matrix of c.
func (c *Camera) SetProjection(m *linear.M4) { c.proj = *m }

// View returns the view matrix of c.
func (c *Camera) View() linear.M4 { return c.view }

// Projection returns the projection matrix of c.
func (c *Camera) Projection() linear.M4 { return c.proj }

// ViewProj returns the product of the projection
// and view matrices.
func (c *Camera) ViewProj() (m linear.M4) {
	m.Mul(&c.proj, &c.view)
	return
}

// Position returns the position of c in world space.
func (c *Camera) Position() linear.V3 {
	var w linear.M4
	w.Invert(&c.view)
	return w.Translation()
}
