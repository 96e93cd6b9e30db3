// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package viewer

import (
	"image"
	"image/color"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/chewxy/math32"

	"github.com/gviegas/sceneview/driver"
	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/linear"
)

// skyFiles are the file names of the faces of a sky
// cube, in layer order.
var skyFiles = [6]string{"px.png", "nx.png", "py.png", "ny.png", "pz.png", "nz.png"}

// Sky colors.
var (
	skyZenith  = [3]float32{0.2, 0.4, 0.9}
	skyHorizon = [3]float32{0.8, 0.9, 1}
	skyGround  = [3]float32{0.3, 0.25, 0.2}
)

// skyColor returns the color of the procedural sky in
// direction d.
func skyColor(d *linear.V3) color.RGBA {
	var n linear.V3
	n.Norm(d)
	var c [3]float32
	if y := n[1]; y >= 0 {
		t := math32.Sqrt(y)
		for i := range c {
			c[i] = skyHorizon[i] + (skyZenith[i]-skyHorizon[i])*t
		}
	} else {
		t := min(1, -y*4)
		for i := range c {
			c[i] = skyHorizon[i] + (skyGround[i]-skyHorizon[i])*t
		}
	}
	return color.RGBA{
		R: uint8(c[0]*255 + 0.5),
		G: uint8(c[1]*255 + 0.5),
		B: uint8(c[2]*255 + 0.5),
		A: 255,
	}
}

func newSkyCube(size int) (*engine.Texture, error) {
	return engine.NewCube(&engine.TexParam{
		PixelFmt: driver.RGBA8un,
		Dim3D:    driver.Dim3D{Width: size, Height: size},
		Layers:   6,
		Levels:   engine.ComputeLevels(driver.Dim3D{Width: size, Height: size}),
	})
}

// NewSky creates a cube texture containing a
// procedural sky.
func NewSky(size int) (*engine.Texture, error) {
	tex, err := newSkyCube(size)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for f := engine.CubePosX; f <= engine.CubeNegZ; f++ {
		for y := 0; y < size; y++ {
			v := (float32(y) + 0.5) / float32(size)
			for x := 0; x < size; x++ {
				u := (float32(x) + 0.5) / float32(size)
				d := engine.CubeDir(f, u, v)
				img.SetRGBA(x, y, skyColor(&d))
			}
		}
		if err = tex.SetImage(int(f), 0, img); err != nil {
			tex.Free()
			return nil, err
		}
	}
	if err = tex.GenMipmaps(); err != nil {
		tex.Free()
		return nil, err
	}
	return tex, nil
}

// LoadSky creates a cube texture from the six images
// in dir. The images must be square and have the same
// size.
func LoadSky(dir string) (*engine.Texture, error) {
	var imgs [6]image.Image
	for i, name := range skyFiles {
		img, err := imgio.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		imgs[i] = img
	}
	size := imgs[0].Bounds().Dx()
	for i, img := range imgs {
		if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
			return nil, newErr("sky image " + skyFiles[i] + " has mismatched size")
		}
	}
	tex, err := newSkyCube(size)
	if err != nil {
		return nil, err
	}
	for i, img := range imgs {
		if err = tex.SetImage(i, 0, img); err != nil {
			tex.Free()
			return nil, err
		}
	}
	if err = tex.GenMipmaps(); err != nil {
		tex.Free()
		return nil, err
	}
	return tex, nil
}

// SaveCube writes each face of the given level of tex
// to dir, using the names LoadSky expects, prefixed by
// prefix.
func SaveCube(tex *engine.Texture, level int, dir, prefix string) error {
	if !tex.IsCube() {
		return newErr("not a cube texture")
	}
	for i, name := range skyFiles {
		img, err := tex.Image(i, level)
		if err != nil {
			return err
		}
		if err = imgio.Save(filepath.Join(dir, prefix+name), img, imgio.PNGEncoder()); err != nil {
			return err
		}
	}
	return nil
}
