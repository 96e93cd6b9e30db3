// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package envmap

import (
	"strings"

	"github.com/gviegas/sceneview/linear"
	"github.com/gviegas/sceneview/node"
	"github.com/gviegas/sceneview/scene"
)

// Origin selects where a capture is taken from.
type Origin int

// Capture origins.
const (
	// The world position of the excluded object.
	OriginObject Origin = iota
	// The world position of the viewer's camera.
	OriginViewer
)

// String implements fmt.Stringer.
func (o Origin) String() string {
	switch o {
	case OriginObject:
		return "object"
	case OriginViewer:
		return "viewer"
	}
	return "invalid Origin"
}

// ParseOrigin parses the name of an Origin.
// It is case insensitive.
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(s) {
	case "", "object":
		return OriginObject, nil
	case "viewer":
		return OriginViewer, nil
	}
	return 0, newErr("undefined origin " + s)
}

// EyeFor returns the capture position for the excluded
// node exclude, given the viewer's camera node viewer.
// It updates the world transforms of s.
func EyeFor(s *scene.Scene, exclude, viewer node.Node, origin Origin) (linear.V3, error) {
	var n node.Node
	switch origin {
	case OriginObject:
		n = exclude
	case OriginViewer:
		n = viewer
	default:
		return linear.V3{}, newErr("undefined origin")
	}
	if !s.Valid(n) {
		return linear.V3{}, newErr("invalid " + origin.String() + " node")
	}
	s.Update()
	return s.World(n).Translation(), nil
}
