// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"cmp"
	"errors"
	"slices"

	"github.com/gviegas/sceneview/driver"
	"github.com/gviegas/sceneview/linear"
)

// ForwardPass renders drawables using per-vertex
// shading.
// Materials with an environment texture show the
// environment (reflected or refracted) tinted by the
// base color; other materials use a Lambertian model
// lit by the frame's lights and the ambient light.
// Opaque drawables are rendered first, followed by
// blended drawables from back to front.
type ForwardPass struct {
	vert  []driver.Vertex
	order []int
}

// Render implements RenderPass.
func (p *ForwardPass) Render(f *Frame) error {
	view := f.Camera.View()
	depth := func(d *Drawable) float32 {
		t := d.World.Translation()
		v := linear.V4{t[0], t[1], t[2], 1}
		v.Mul(&view, &v)
		return v[2]
	}
	p.order = p.order[:0]
	for i := range f.Drawables {
		p.order = append(p.order, i)
	}
	slices.SortStableFunc(p.order, func(a, b int) int {
		da, db := &f.Drawables[a], &f.Drawables[b]
		ba, bb := da.Model.mat.IsBlended(), db.Model.mat.IsBlended()
		switch {
		case ba && bb:
			// Farther first (more negative z).
			return cmp.Compare(depth(da), depth(db))
		case ba:
			return 1
		case bb:
			return -1
		}
		return 0
	})

	eye := f.Camera.Position()
	vp := f.Target.Viewport()
	fb := f.Target.Framebuf()
	for _, i := range p.order {
		d := &f.Drawables[i]
		p.vert = p.appendVertices(p.vert[:0], f, d, &eye)
		if err := fb.Draw(&vp, p.vert, d.Model.mat.DoubleSided()); err != nil {
			return err
		}
	}
	return nil
}

// appendVertices appends the shaded clip-space vertices
// of d to vert.
func (p *ForwardPass) appendVertices(vert []driver.Vertex, f *Frame, d *Drawable, eye *linear.V3) []driver.Vertex {
	var mvp linear.M4
	mvp.Mul(&f.ViewProj, &d.World)
	var norm linear.M3
	norm.FromM4(&d.World)
	norm.Invert(&norm)
	norm.Transpose(&norm)

	mesh := d.Model.mesh
	mat := d.Model.mat
	for i := range mesh.Len() {
		pos, nrm := mesh.Triangle(i)
		for j := range 3 {
			v := linear.V4{pos[j][0], pos[j][1], pos[j][2], 1}
			var w linear.V4
			w.Mul(&d.World, &v)
			wp := linear.V3{w[0], w[1], w[2]}
			var n linear.V3
			n.Mul(&norm, &nrm[j])
			if n.Len() > 0 {
				n.Norm(&n)
			}
			var clip linear.V4
			clip.Mul(&mvp, &v)
			vert = append(vert, driver.Vertex{
				Pos:   clip,
				Color: shade(f, mat, &wp, &n, eye),
			})
		}
	}
	return vert
}

// shade computes the color of a surface point pos with
// unit normal n, seen from eye.
func shade(f *Frame, mat *Material, pos, n, eye *linear.V3) [4]float32 {
	base := mat.BaseColor()
	var c linear.V3
	if env := mat.Environment(); env != nil && mat.EnvMode() != EnvNone {
		var i, r linear.V3
		i.Sub(pos, eye)
		if i.Len() > 0 {
			i.Norm(&i)
		}
		if mat.EnvMode() == EnvRefract {
			r.Refract(&i, n, mat.IOR())
		}
		if r == (linear.V3{}) {
			r.Reflect(&i, n)
		}
		if r == (linear.V3{}) {
			r = i
		}
		s := env.SampleCube(&r, 0)
		c = linear.V3{s[0], s[1], s[2]}
	} else {
		c = linear.V3(cfg.Ambient)
		for i := range f.Lights {
			l := f.Lights[i].Illuminate(pos, n)
			c.Add(&c, &l)
		}
	}
	return [4]float32{c[0] * base[0], c[1] * base[1], c[2] * base[2], base[3]}
}

// SkyboxPass fills the background with a cube texture.
// It only writes pixels that no geometry has covered,
// so it can run either before or after other passes.
type SkyboxPass struct {
	Texture *Texture
	// Mip level to sample.
	Lod float32
}

// Render implements RenderPass.
func (p *SkyboxPass) Render(f *Frame) error {
	if p.Texture == nil || !p.Texture.IsValid() || !p.Texture.IsCube() {
		return errors.New("skybox: invalid cube texture")
	}
	view := f.Camera.View()
	view[3] = linear.V4{0, 0, 0, 1}
	proj := f.Camera.Projection()
	var inv linear.M4
	inv.Mul(&proj, &view)
	inv.Invert(&inv)
	vp := f.Target.Viewport()
	return f.Target.Framebuf().Fill(&vp, func(x, y float32) [4]float32 {
		var q linear.V4
		q.Mul(&inv, &linear.V4{x, y, 1, 1})
		d := linear.V3{q[0] / q[3], q[1] / q[3], q[2] / q[3]}
		c := p.Texture.SampleCube(&d, p.Lod)
		c[3] = 1
		return c
	})
}
