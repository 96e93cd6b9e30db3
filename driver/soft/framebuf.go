// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"errors"

	"github.com/chewxy/math32"

	"github.com/gviegas/sceneview/driver"
	"github.com/gviegas/sceneview/linear"
)

const fbPrefix = "soft: framebuf: "

func newFBErr(reason string) error { return errors.New(fbPrefix + reason) }

// Framebuf implements driver.Framebuf.
type Framebuf struct {
	gpu   *GPU
	color *Image
	layer int
	level int
	depth *Image
}

// Destroy destroys the framebuffer.
// It does not destroy attached images.
func (f *Framebuf) Destroy() {
	if f.gpu == nil {
		return
	}
	f.gpu.stats.Framebufs--
	*f = Framebuf{}
}

// AttachColor sets the color attachment.
func (f *Framebuf) AttachColor(img driver.Image, layer, level int) error {
	m, ok := img.(*Image)
	var reason string
	switch {
	case !ok || m.gpu != f.gpu:
		reason = "image not created by this GPU"
	case m.usage&driver.URenderTarget == 0:
		reason = "image not created with URenderTarget"
	case !m.pf.IsColor():
		reason = "color attachment of non-color format"
	case layer < 0, layer >= m.layers:
		reason = "layer out of bounds"
	case level < 0, level >= m.levels:
		reason = "level out of bounds"
	default:
		f.color = m
		f.layer = layer
		f.level = level
		return nil
	}
	return newFBErr(reason)
}

// AttachDepth sets the depth attachment.
func (f *Framebuf) AttachDepth(img driver.Image) error {
	m, ok := img.(*Image)
	var reason string
	switch {
	case !ok || m.gpu != f.gpu:
		reason = "image not created by this GPU"
	case m.usage&driver.URenderTarget == 0:
		reason = "image not created with URenderTarget"
	case !m.pf.IsDepth():
		reason = "depth attachment of non-depth format"
	case f.color == nil:
		reason = "no color attachment"
	default:
		w, h := f.Size()
		if m.size.Width != w || m.size.Height != h {
			reason = "attachment size mismatch"
			break
		}
		f.depth = m
		return nil
	}
	return newFBErr(reason)
}

// Detach removes every attachment.
func (f *Framebuf) Detach() {
	f.color = nil
	f.depth = nil
}

// Size returns the size of the color attachment.
func (f *Framebuf) Size() (width, height int) {
	if f.color == nil {
		return
	}
	return levelSize(f.color.size, f.level)
}

// Clear clears the attachments.
func (f *Framebuf) Clear(color [4]float32, depth float32) {
	if f.color != nil {
		img := f.color.level(f.layer, f.level)
		c := toRGBA(color)
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
	if f.depth != nil {
		for i := range f.depth.depth {
			f.depth.depth[i] = depth
		}
	}
}

// bounds returns the pixel bounds of vp clamped to
// the attachment size.
func (f *Framebuf) bounds(vp *driver.Viewport) (x0, y0, x1, y1 int) {
	w, h := f.Size()
	x0 = max(0, int(math32.Floor(vp.X)))
	y0 = max(0, int(math32.Floor(min(vp.Y, vp.Y+vp.Height))))
	x1 = min(w, int(math32.Ceil(vp.X+vp.Width)))
	y1 = min(h, int(math32.Ceil(max(vp.Y, vp.Y+vp.Height))))
	return
}

// Fill shades every pixel not yet covered by geometry.
func (f *Framebuf) Fill(vp *driver.Viewport, shade func(x, y float32) [4]float32) error {
	if f.color == nil {
		return newFBErr("no color attachment")
	}
	img := f.color.level(f.layer, f.level)
	x0, y0, x1, y1 := f.bounds(vp)
	w, _ := f.Size()
	for y := y0; y < y1; y++ {
		ny := 1 - (float32(y)+0.5-vp.Y)/vp.Height*2
		for x := x0; x < x1; x++ {
			if f.depth != nil && f.depth.depth[y*w+x] < 1 {
				continue
			}
			nx := (float32(x)+0.5-vp.X)/vp.Width*2 - 1
			img.SetRGBA(x, y, toRGBA(shade(nx, ny)))
		}
	}
	return nil
}

// Draw draws a triangle list.
func (f *Framebuf) Draw(vp *driver.Viewport, vert []driver.Vertex, twoSided bool) error {
	switch {
	case f.color == nil:
		return newFBErr("no color attachment")
	case len(vert)%3 != 0:
		return newFBErr("vertex count not a multiple of 3")
	}
	var poly, tmp []driver.Vertex
	for i := 0; i < len(vert); i += 3 {
		poly = append(poly[:0], vert[i:i+3]...)
		// Near (z >= -w) and far (z <= w) planes.
		poly, tmp = clip(poly, tmp, 1), poly
		poly, tmp = clip(poly, tmp, -1), poly
		if len(poly) < 3 {
			continue
		}
		for j := 1; j+1 < len(poly); j++ {
			f.raster(vp, &poly[0], &poly[j], &poly[j+1], twoSided)
		}
	}
	return nil
}

// clip clips the polygon in against the plane
// s*z + w >= 0, writing the result to out.
// It returns out and reuses its storage.
func clip(in, out []driver.Vertex, s float32) []driver.Vertex {
	out = out[:0]
	dist := func(v *driver.Vertex) float32 { return s*v.Pos[2] + v.Pos[3] }
	for i := range in {
		a, b := &in[i], &in[(i+1)%len(in)]
		da, db := dist(a), dist(b)
		if da >= 0 {
			out = append(out, *a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			var v driver.Vertex
			v.Pos.Lerp(&a.Pos, &b.Pos, t)
			c := linear.V4(v.Color)
			c.Lerp((*linear.V4)(&a.Color), (*linear.V4)(&b.Color), t)
			v.Color = c
			out = append(out, v)
		}
	}
	return out
}

// screen is a vertex in window coordinates.
type screen struct {
	x, y, z float32
	// 1/w.
	iw float32
	// Color divided by w.
	c [4]float32
}

func toScreen(vp *driver.Viewport, v *driver.Vertex) (s screen) {
	s.iw = 1 / v.Pos[3]
	nx := v.Pos[0] * s.iw
	ny := v.Pos[1] * s.iw
	nz := v.Pos[2] * s.iw
	s.x = vp.X + (nx+1)*0.5*vp.Width
	s.y = vp.Y + (1-ny)*0.5*vp.Height
	s.z = vp.Znear + (nz+1)*0.5*(vp.Zfar-vp.Znear)
	for i := range s.c {
		s.c[i] = v.Color[i] * s.iw
	}
	return
}

// raster rasterizes a clipped triangle.
func (f *Framebuf) raster(vp *driver.Viewport, v0, v1, v2 *driver.Vertex, twoSided bool) {
	a, b, c := toScreen(vp, v0), toScreen(vp, v1), toScreen(vp, v2)
	edge := func(p, q *screen, x, y float32) float32 {
		return (q.x-p.x)*(y-p.y) - (q.y-p.y)*(x-p.x)
	}
	area := edge(&a, &b, c.x, c.y)
	// Window y points down, so counter-clockwise
	// triangles have negative area here, unless the
	// viewport is flipped.
	back := area > 0
	if vp.Height < 0 {
		back = !back
	}
	if area == 0 || back && !twoSided {
		return
	}
	x0, y0, x1, y1 := f.bounds(vp)
	x0 = max(x0, int(math32.Floor(min(a.x, b.x, c.x))))
	y0 = max(y0, int(math32.Floor(min(a.y, b.y, c.y))))
	x1 = min(x1, int(math32.Ceil(max(a.x, b.x, c.x))))
	y1 = min(y1, int(math32.Ceil(max(a.y, b.y, c.y))))
	img := f.color.level(f.layer, f.level)
	w, _ := f.Size()
	for y := y0; y < y1; y++ {
		py := float32(y) + 0.5
		for x := x0; x < x1; x++ {
			px := float32(x) + 0.5
			w0 := edge(&b, &c, px, py) / area
			w1 := edge(&c, &a, px, py) / area
			w2 := edge(&a, &b, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z
			if f.depth != nil {
				d := &f.depth.depth[y*w+x]
				if z >= *d {
					continue
				}
				*d = z
			}
			iw := w0*a.iw + w1*b.iw + w2*c.iw
			var col [4]float32
			for i := range col {
				col[i] = (w0*a.c[i] + w1*b.c[i] + w2*c.c[i]) / iw
			}
			if col[3] < 1 {
				dst := toFloat(img.RGBAAt(x, y))
				s := max(col[3], 0)
				for i := range 3 {
					col[i] = col[i]*s + dst[i]*(1-s)
				}
				col[3] = s + dst[3]*(1-s)
			}
			img.SetRGBA(x, y, toRGBA(col))
		}
	}
}
