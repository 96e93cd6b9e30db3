// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"errors"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"

	"github.com/gviegas/sceneview/driver"
)

const imgPrefix = "soft: image: "

func newImgErr(reason string) error { return errors.New(imgPrefix + reason) }

// Image implements driver.Image.
type Image struct {
	gpu    *GPU
	pf     driver.PixelFmt
	size   driver.Dim3D
	usage  driver.Usage
	layers int
	levels int
	nbyte  int64
	// One image per layer and level, indexed as
	// layer*levels + level.
	// Only used by color formats.
	color []*image.RGBA
	// Only used by depth formats.
	depth []float32
}

// levelSize returns the size of a given mip level.
func levelSize(size driver.Dim3D, level int) (w, h int) {
	w = max(1, size.Width>>level)
	h = max(1, size.Height>>level)
	return
}

// NewImage creates a new image.
func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels int, usg driver.Usage) (driver.Image, error) {
	var reason string
	switch {
	case !pf.IsColor() && !pf.IsDepth():
		reason = "invalid pixel format"
	case size.Width < 1, size.Height < 1, size.Depth != 0:
		reason = "invalid size"
	case size.Width > maxImage2D, size.Height > maxImage2D:
		reason = "size too big"
	case layers < 1, layers > maxLayers:
		reason = "invalid layer count"
	case levels < 1:
		reason = "invalid level count"
	case pf.IsDepth() && (layers != 1 || levels != 1):
		reason = "layered depth image"
	default:
		goto validParam
	}
	return nil, newImgErr(reason)
validParam:
	var nbyte int64
	for i := range levels {
		w, h := levelSize(size, i)
		nbyte += int64(w * h * pf.Size())
	}
	nbyte *= int64(layers)
	if g.stats.Memory+nbyte > g.memLimit {
		return nil, driver.ErrNoDeviceMemory
	}
	img := &Image{
		gpu:    g,
		pf:     pf,
		size:   size,
		usage:  usg,
		layers: layers,
		levels: levels,
		nbyte:  nbyte,
	}
	if pf.IsDepth() {
		img.depth = make([]float32, size.Width*size.Height)
	} else {
		img.color = make([]*image.RGBA, layers*levels)
		for i := range layers {
			for j := range levels {
				w, h := levelSize(size, j)
				img.color[i*levels+j] = image.NewRGBA(image.Rect(0, 0, w, h))
			}
		}
	}
	g.stats.Images++
	g.stats.Memory += nbyte
	return img, nil
}

// Destroy destroys the image.
func (m *Image) Destroy() {
	if m.gpu == nil {
		return
	}
	m.gpu.stats.Images--
	m.gpu.stats.Memory -= m.nbyte
	*m = Image{}
}

// PixelFmt returns the image's format.
func (m *Image) PixelFmt() driver.PixelFmt { return m.pf }

// Size returns the size of the first level.
func (m *Image) Size() driver.Dim3D { return m.size }

// Layers returns the number of layers.
func (m *Image) Layers() int { return m.layers }

// Levels returns the number of mip levels.
func (m *Image) Levels() int { return m.levels }

// level returns the image.RGBA of a given layer and level.
func (m *Image) level(layer, level int) *image.RGBA {
	if layer < 0 || layer >= m.layers || level < 0 || level >= m.levels {
		panic("soft: layer/level out of bounds")
	}
	return m.color[layer*m.levels+level]
}

// GenMipmaps generates the mip chain of every layer.
func (m *Image) GenMipmaps() error {
	switch {
	case m.usage&driver.UGenMipmap == 0:
		return newImgErr("image not created with UGenMipmap")
	case !m.pf.IsColor():
		return newImgErr("mipmap generation requires a color format")
	}
	for i := range m.layers {
		for j := 1; j < m.levels; j++ {
			src := m.level(i, j-1)
			dst := m.level(i, j)
			draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		}
	}
	return nil
}

// CopyToHost copies a layer/level to a new image.RGBA.
func (m *Image) CopyToHost(layer, level int) (*image.RGBA, error) {
	switch {
	case m.usage&driver.UCopySrc == 0:
		return nil, newImgErr("image not created with UCopySrc")
	case !m.pf.IsColor():
		return nil, newImgErr("copy of non-color image")
	}
	src := m.level(layer, level)
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst, nil
}

// CopyFromHost copies src into a layer/level.
func (m *Image) CopyFromHost(layer, level int, src image.Image) error {
	switch {
	case m.usage&driver.UCopyDst == 0:
		return newImgErr("image not created with UCopyDst")
	case !m.pf.IsColor():
		return newImgErr("copy to non-color image")
	}
	dst := m.level(layer, level)
	if src.Bounds().Size() == dst.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	return nil
}

// Sample returns the bilinearly filtered color at (u, v).
// Coordinates are clamped to the edge.
func (m *Image) Sample(layer int, u, v, lod float32) [4]float32 {
	if m.usage&driver.UShaderSample == 0 || !m.pf.IsColor() {
		panic("soft: image cannot be sampled")
	}
	level := int(math32.Round(min(max(lod, 0), float32(m.levels-1))))
	img := m.level(layer, level)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	x := min(max(u, 0), 1)*float32(w) - 0.5
	y := min(max(v, 0), 1)*float32(h) - 0.5
	x0, y0 := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	at := func(x, y int) [4]float32 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return toFloat(img.RGBAAt(x, y))
	}
	c00, c10 := at(ix, iy), at(ix+1, iy)
	c01, c11 := at(ix, iy+1), at(ix+1, iy+1)
	var c [4]float32
	for i := range c {
		t := c00[i] + (c10[i]-c00[i])*fx
		b := c01[i] + (c11[i]-c01[i])*fx
		c[i] = t + (b-t)*fy
	}
	return c
}

func toFloat(c color.RGBA) [4]float32 {
	return [4]float32{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

func toRGBA(c [4]float32) color.RGBA {
	b := func(x float32) uint8 { return uint8(min(max(x, 0), 1)*255 + 0.5) }
	return color.RGBA{b(c[0]), b(c[1]), b(c[2]), b(c[3])}
}
