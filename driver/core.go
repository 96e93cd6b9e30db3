// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"image"

	"github.com/gviegas/sceneview/linear"
)

// GPU is the main interface to an underlying driver
// implementation.
// It is used to create images and framebuffers.
// A GPU is obtained from a call to Driver.Open.
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// NewImage creates a new image.
	// Cube images are created with a multiple of six
	// layers; each group of six layers stores the
	// faces +X, -X, +Y, -Y, +Z and -Z, in this order.
	NewImage(pf PixelFmt, size Dim3D, layers, levels int, usg Usage) (Image, error)

	// NewFramebuf creates a new framebuffer with no
	// attachments.
	NewFramebuf() (Framebuf, error)

	// Limits returns the implementation limits.
	// They are immutable for the lifetime of the GPU.
	Limits() Limits
}

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be
// called explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// Usage is the type of image usage flags.
type Usage int

// Usage flags.
const (
	// The image can be sampled.
	UShaderSample Usage = 1 << iota
	// The image can be used as a framebuffer
	// attachment.
	URenderTarget
	// The image can be copied to host memory.
	UCopySrc
	// The image can be copied from host memory.
	UCopyDst
	// The image's mip chain can be generated
	// from its first level.
	UGenMipmap
)

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Pixel formats.
const (
	// Color, 8-bit unsigned normalized channels.
	RGBA8un PixelFmt = iota + 1
	// Depth, 32-bit float.
	D32f
)

// Size returns the number of bytes that a single
// pixel of format f occupies.
func (f PixelFmt) Size() int {
	switch f {
	case RGBA8un, D32f:
		return 4
	}
	return 0
}

// IsColor returns whether f is a color format.
func (f PixelFmt) IsColor() bool { return f == RGBA8un }

// IsDepth returns whether f is a depth format.
func (f PixelFmt) IsDepth() bool { return f == D32f }

// Dim3D is a three-dimensional size.
type Dim3D struct {
	Width, Height, Depth int
}

// Image is the interface that defines a GPU image.
type Image interface {
	Destroyer

	// PixelFmt returns the format of the image.
	PixelFmt() PixelFmt

	// Size returns the size of the first level.
	Size() Dim3D

	// Layers returns the number of layers.
	Layers() int

	// Levels returns the number of mip levels.
	Levels() int

	// GenMipmaps generates levels [1, Levels()) of every
	// layer from their first level.
	// The image must have been created with UGenMipmap.
	GenMipmaps() error

	// CopyToHost copies the given layer and level of a
	// color image into a new image.RGBA.
	// The image must have been created with UCopySrc.
	CopyToHost(layer, level int) (*image.RGBA, error)

	// CopyFromHost copies src into the given layer and
	// level of a color image. src is scaled if its bounds
	// do not match the size of the level.
	// The image must have been created with UCopyDst.
	CopyFromHost(layer, level int, src image.Image) error

	// Sample returns the color at the normalized
	// coordinates u and v of layer, filtered from the
	// mip level closest to lod.
	// The image must have been created with UShaderSample.
	Sample(layer int, u, v, lod float32) [4]float32
}

// Viewport defines the bounds of a viewport.
// NDC +Y maps to row Y. A negative Height flips the
// vertical axis, so Y is then the bottom edge and
// NDC +Y maps to the last row.
type Viewport struct {
	X, Y, Width, Height, Znear, Zfar float32
}

// Vertex is a clip-space vertex with an RGBA color.
type Vertex struct {
	Pos   linear.V4
	Color [4]float32
}

// Framebuf is the interface that defines the render
// targets of draw commands.
type Framebuf interface {
	Destroyer

	// AttachColor sets the color attachment to the given
	// layer and level of img.
	// img must have been created with URenderTarget and a
	// color format.
	AttachColor(img Image, layer, level int) error

	// AttachDepth sets the depth attachment.
	// Its size must match the color attachment's.
	AttachDepth(img Image) error

	// Detach removes every attachment.
	Detach()

	// Size returns the size of the color attachment.
	Size() (width, height int)

	// Clear clears the color attachment to color and the
	// depth attachment to depth.
	Clear(color [4]float32, depth float32)

	// Draw draws a list of triangles.
	// Triangles are clipped against the view volume,
	// depth-tested against the depth attachment (if any)
	// and blended using the source alpha.
	// Counter-clockwise triangles are front-facing; back
	// faces are culled unless twoSided is set.
	Draw(vp *Viewport, vert []Vertex, twoSided bool) error

	// Fill calls shade for every pixel of the viewport
	// whose depth equals the clear value, writing the
	// returned color. x and y are in normalized device
	// coordinates.
	Fill(vp *Viewport, shade func(x, y float32) [4]float32) error
}

// Limits describes implementation limits.
type Limits struct {
	// Maximum width and height of 2D images.
	MaxImage2D int
	// Maximum width and height of cube images.
	MaxImageCube int
	// Maximum number of layers in an image.
	MaxLayers int
	// Maximum width and height of framebuffer
	// attachments.
	MaxRenderSize [2]int
}
