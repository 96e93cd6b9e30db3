// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"image"

	"github.com/chewxy/math32"

	"github.com/gviegas/sceneview/driver"
	"github.com/gviegas/sceneview/internal/ctxt"
	"github.com/gviegas/sceneview/linear"
)

const texPrefix = "texture: "

func newTexErr(reason string) error { return errors.New(texPrefix + reason) }

// Texture wraps a driver.Image.
type Texture struct {
	img   driver.Image
	usage driver.Usage
	param TexParam
	cube  bool
}

// TexParam describes parameters of a texture.
type TexParam struct {
	driver.PixelFmt
	driver.Dim3D
	Layers int
	Levels int
}

// newTexture creates a driver.Image from param/usage.
// It assumes that the parameters are valid.
func newTexture(param *TexParam, usage driver.Usage, cube bool) (*Texture, error) {
	img, err := ctxt.GPU().NewImage(param.PixelFmt, param.Dim3D, param.Layers, param.Levels, usage)
	if err != nil {
		return nil, err
	}
	return &Texture{img, usage, *param, cube}, nil
}

// New2D creates a 2D texture.
func New2D(param *TexParam) (t *Texture, err error) {
	limits := ctxt.Limits()
	var reason string
	switch {
	case param == nil:
		reason = "nil param"
	case !param.PixelFmt.IsColor():
		reason = "invalid pixel format"
	case param.Dim3D.Width < 1, param.Dim3D.Height < 1, param.Dim3D.Depth != 0:
		reason = "invalid size"
	case param.Dim3D.Width > limits.MaxImage2D, param.Dim3D.Height > limits.MaxImage2D:
		reason = "size too big"
	case param.Layers < 1:
		reason = "invalid layer count"
	case param.Layers > limits.MaxLayers:
		reason = "too many layers"
	case param.Levels < 1, param.Levels > ComputeLevels(param.Dim3D):
		reason = "invalid level count"
	default:
		goto validParam
	}
	err = newTexErr(reason)
	return
validParam:
	usage := driver.UCopySrc | driver.UCopyDst | driver.UShaderSample | driver.UGenMipmap
	return newTexture(param, usage, false)
}

// NewCube creates a new cube texture.
// Cube textures can be rendered to, so they can
// be used as dynamic environment maps.
func NewCube(param *TexParam) (t *Texture, err error) {
	limits := ctxt.Limits()
	var reason string
	switch {
	case param == nil:
		reason = "nil param"
	case !param.PixelFmt.IsColor():
		reason = "invalid pixel format"
	case param.Dim3D.Width < 1, param.Dim3D.Height < 1, param.Dim3D.Depth != 0:
		reason = "invalid size"
	case param.Dim3D.Width != param.Dim3D.Height:
		reason = "cube's width and height differs"
	case param.Dim3D.Width > limits.MaxImageCube:
		reason = "size too big"
	case param.Layers < 1:
		reason = "invalid layer count"
	case param.Layers > limits.MaxLayers:
		reason = "too many layers"
	case param.Layers%6 != 0:
		reason = "cube's layer count not a multiple of 6"
	case param.Levels < 1, param.Levels > ComputeLevels(param.Dim3D):
		reason = "invalid level count"
	default:
		goto validParam
	}
	err = newTexErr(reason)
	return
validParam:
	usage := driver.UCopySrc | driver.UCopyDst | driver.UShaderSample | driver.URenderTarget | driver.UGenMipmap
	return newTexture(param, usage, true)
}

// NewTarget creates a new render target texture.
// Depth targets must have exactly one layer and one
// level.
func NewTarget(param *TexParam) (t *Texture, err error) {
	limits := ctxt.Limits()
	var reason string
	switch {
	case param == nil:
		reason = "nil param"
	case !param.PixelFmt.IsColor() && !param.PixelFmt.IsDepth():
		reason = "invalid pixel format"
	case param.Dim3D.Width < 1, param.Dim3D.Height < 1, param.Dim3D.Depth != 0:
		reason = "invalid size"
	case param.Width > limits.MaxRenderSize[0], param.Height > limits.MaxRenderSize[1]:
		reason = "size too big"
	case param.Layers < 1:
		reason = "invalid layer count"
	case param.Layers > limits.MaxLayers:
		reason = "too many layers"
	case param.Levels < 1, param.Levels > ComputeLevels(param.Dim3D):
		reason = "invalid level count"
	case param.PixelFmt.IsDepth() && (param.Layers != 1 || param.Levels != 1):
		reason = "layered depth target"
	default:
		goto validParam
	}
	err = newTexErr(reason)
	return
validParam:
	usage := driver.URenderTarget
	if param.PixelFmt.IsColor() {
		usage |= driver.UCopySrc | driver.UShaderSample
	}
	return newTexture(param, usage, false)
}

// PixelFmt returns the driver.PixelFmt of t.
func (t *Texture) PixelFmt() driver.PixelFmt { return t.param.PixelFmt }

// Width returns the width of t's first mip level.
func (t *Texture) Width() int { return t.param.Width }

// Height returns the height of t's first mip level.
func (t *Texture) Height() int { return t.param.Height }

// Layers returns the number of layers in t.
func (t *Texture) Layers() int { return t.param.Layers }

// Levels returns the number of levels in t.
func (t *Texture) Levels() int { return t.param.Levels }

// IsCube returns whether t was created by NewCube.
func (t *Texture) IsCube() bool { return t.cube }

// IsValid returns whether t can still be used
// (i.e., Free has not been called).
func (t *Texture) IsValid() bool { return t.img != nil }

// Free invalidates t and destroys the driver.Image.
func (t *Texture) Free() {
	if t.img != nil {
		t.img.Destroy()
	}
	*t = Texture{}
}

// GenMipmaps generates levels [1, t.Levels()) of every
// layer from the first level.
func (t *Texture) GenMipmaps() error {
	if t.param.Levels == 1 {
		return nil
	}
	return t.img.GenMipmaps()
}

// Image copies the given layer and level of t into
// a new image.RGBA.
func (t *Texture) Image(layer, level int) (*image.RGBA, error) {
	switch {
	case layer < 0, layer >= t.param.Layers:
		return nil, newTexErr("layer out of bounds")
	case level < 0, level >= t.param.Levels:
		return nil, newTexErr("level out of bounds")
	}
	return t.img.CopyToHost(layer, level)
}

// SetImage copies img into the given layer and level
// of t. img is scaled to fit.
func (t *Texture) SetImage(layer, level int, img image.Image) error {
	switch {
	case layer < 0, layer >= t.param.Layers:
		return newTexErr("layer out of bounds")
	case level < 0, level >= t.param.Levels:
		return newTexErr("level out of bounds")
	}
	return t.img.CopyFromHost(layer, level, img)
}

// Sample samples layer of t at the given coordinates.
func (t *Texture) Sample(layer int, u, v, lod float32) [4]float32 {
	return t.img.Sample(layer, u, v, lod)
}

// SampleCube samples the first cube of t in the
// direction d. d need not be normalized.
// t must be a cube texture.
func (t *Texture) SampleCube(d *linear.V3, lod float32) [4]float32 {
	if !t.cube {
		panic("texture: SampleCube on non-cube texture")
	}
	face, u, v := CubeCoord(d)
	return t.img.Sample(int(face), u, v, lod)
}

// CubeFace identifies a face of a cube texture.
// Its value is the layer that stores the face.
type CubeFace int

// Cube faces.
const (
	CubePosX CubeFace = iota
	CubeNegX
	CubePosY
	CubeNegY
	CubePosZ
	CubeNegZ
)

var cubeBasis = [6][2]linear.V3{
	CubePosX: {{1, 0, 0}, {0, -1, 0}},
	CubeNegX: {{-1, 0, 0}, {0, -1, 0}},
	CubePosY: {{0, 1, 0}, {0, 0, 1}},
	CubeNegY: {{0, -1, 0}, {0, 0, -1}},
	CubePosZ: {{0, 0, 1}, {0, -1, 0}},
	CubeNegZ: {{0, 0, -1}, {0, -1, 0}},
}

// Basis returns the viewing direction and the up
// vector of f.
// A face rendered with these vectors, a 90-degree
// square projection and a flipped viewport is sampled
// consistently by Texture.SampleCube.
func (f CubeFace) Basis() (dir, up linear.V3) {
	b := cubeBasis[f]
	return b[0], b[1]
}

// String implements fmt.Stringer.
func (f CubeFace) String() string {
	switch f {
	case CubePosX:
		return "+X"
	case CubeNegX:
		return "-X"
	case CubePosY:
		return "+Y"
	case CubeNegY:
		return "-Y"
	case CubePosZ:
		return "+Z"
	case CubeNegZ:
		return "-Z"
	}
	return "invalid CubeFace"
}

// CubeCoord maps the direction d to a cube face and
// normalized coordinates within that face.
// The layout is that of GL cube maps: u grows along
// dir × up and v grows along up, so image row 0 of a
// side face holds world +Y.
// d must not be the zero vector.
func CubeCoord(d *linear.V3) (f CubeFace, u, v float32) {
	ax, ay, az := math32.Abs(d[0]), math32.Abs(d[1]), math32.Abs(d[2])
	var m float32
	switch {
	case ax >= ay && ax >= az:
		m = ax
		if d[0] >= 0 {
			f = CubePosX
		} else {
			f = CubeNegX
		}
	case ay >= az:
		m = ay
		if d[1] >= 0 {
			f = CubePosY
		} else {
			f = CubeNegY
		}
	default:
		m = az
		if d[2] >= 0 {
			f = CubePosZ
		} else {
			f = CubeNegZ
		}
	}
	dir, up := f.Basis()
	var s, t linear.V3
	s.Cross(&dir, &up)
	s.Norm(&s)
	t.Cross(&s, &dir)
	x := s.Dot(d) / m
	y := t.Dot(d) / m
	u = (x + 1) * 0.5
	v = (y + 1) * 0.5
	return
}

// CubeDir is the inverse of CubeCoord.
// It returns a direction, not necessarily normalized,
// that maps to the given face coordinates.
func CubeDir(f CubeFace, u, v float32) (d linear.V3) {
	dir, up := f.Basis()
	var s linear.V3
	s.Cross(&dir, &up)
	s.Norm(&s)
	s.Scale(u*2-1, &s)
	up.Scale(v*2-1, &up)
	d.Add(&dir, &s)
	d.Add(&d, &up)
	return
}

// ComputeLevels returns the maximum number of mip levels
// for a given driver.Dim3D.
// It assumes that size is valid (i.e., neither negative
// nor the zero value).
func ComputeLevels(size driver.Dim3D) int {
	x := max(size.Width, size.Height, size.Depth)
	var l int
	for ; x > 0; l++ {
		x /= 2
	}
	return l
}
