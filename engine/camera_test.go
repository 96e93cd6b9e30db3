// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/gviegas/sceneview/linear"
)

func nearV3(v, w linear.V3) bool {
	for i := range v {
		if math32.Abs(v[i]-w[i]) > 1e-4 {
			return false
		}
	}
	return true
}

func TestCamera(t *testing.T) {
	c := NewCamera(math32.Pi/2, 1, 0.1, 100)
	var id linear.M4
	id.I()
	if v := c.View(); v != id {
		t.Fatalf("NewCamera: View\nhave %v\nwant %v", v, id)
	}
	var proj linear.M4
	proj.Perspective(math32.Pi/2, 1, 0.1, 100)
	if p := c.Projection(); p != proj {
		t.Fatalf("NewCamera: Projection\nhave %v\nwant %v", p, proj)
	}

	eye := linear.V3{1, 2, 3}
	c.SetViewLookAt(&eye, &linear.V3{}, &linear.V3{0, 1, 0})
	if p := c.Position(); !nearV3(p, eye) {
		t.Fatalf("Camera.Position:\nhave %v\nwant %v", p, eye)
	}
	var vp linear.M4
	view := c.View()
	vp.Mul(&proj, &view)
	if m := c.ViewProj(); m != vp {
		t.Fatalf("Camera.ViewProj:\nhave %v\nwant %v", m, vp)
	}

	var world linear.M4
	world.Translate(-4, 5, 6)
	c.SetViewFromWorld(&world)
	if p := c.Position(); !nearV3(p, linear.V3{-4, 5, 6}) {
		t.Fatalf("Camera.SetViewFromWorld: Position\nhave %v\nwant [-4 5 6]", p)
	}
	c.SetView(&id)
	if p := c.Position(); p != (linear.V3{}) {
		t.Fatalf("Camera.SetView: Position\nhave %v\nwant [0 0 0]", p)
	}
	c.SetProjection(&id)
	if p := c.Projection(); p != id {
		t.Fatalf("Camera.SetProjection:\nhave %v\nwant %v", p, id)
	}
}
