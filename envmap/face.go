// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package envmap

import (
	"github.com/chewxy/math32"

	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/linear"
)

// Face identifies a face of the cube. Its value is
// the cube layer into which the face is rendered.
type Face int

// Cube faces, in capture order.
const (
	PosX Face = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ

	NumFaces = 6
)

// String implements fmt.Stringer.
func (f Face) String() string { return engine.CubeFace(f).String() }

// FaceDirection returns the viewing direction and the
// up vector used to capture f.
//
//	+X: dir +X, up -Y
//	-X: dir -X, up -Y
//	+Y: dir +Y, up +Z
//	-Y: dir -Y, up -Z
//	+Z: dir +Z, up -Y
//	-Z: dir -Z, up -Y
func FaceDirection(f Face) (dir, up linear.V3) { return engine.CubeFace(f).Basis() }

// FaceViews returns the view matrices of the six faces
// seen from eye.
// They depend on nothing but eye.
func FaceViews(eye *linear.V3) (views [NumFaces]linear.M4) {
	for f := range Face(NumFaces) {
		dir, up := FaceDirection(f)
		var center linear.V3
		center.Add(eye, &dir)
		views[f].LookAt(eye, &center, &up)
	}
	return
}

// Projection returns the projection shared by every
// face: a 90-degree vertical field of view with a
// square aspect.
func Projection(near, far float32) (m linear.M4) {
	m.Perspective(math32.Pi/2, 1, near, far)
	return
}
