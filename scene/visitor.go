// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/linear"
	"github.com/gviegas/sceneview/node"
)

// Visitor is a set of handlers, one per payload kind,
// called by Scene.Accept.
// A nil handler is ignored.
// world is the node's world transform, or nil if the
// node has no transform. It must not be retained.
// Handlers must not add or remove nodes.
type Visitor struct {
	Camera func(n node.Node, cam *engine.Camera, world *linear.M4)
	Light  func(n node.Node, light *engine.Light, world *linear.M4)
	Model  func(n node.Node, model *engine.Model, world *linear.M4)
}

// Accept updates world transforms and then calls the
// handler of v that matches each node of s.
// Each node is visited exactly once, ancestors first.
func (s *Scene) Accept(v *Visitor) {
	s.graph.Update()
	s.graph.ForEach(node.Nil, func(n node.Node) {
		e := s.entity(n)
		var world *linear.M4
		if e.xform != nil {
			world = s.graph.World(n)
		}
		switch e.kind {
		case KindCamera:
			if v.Camera != nil {
				v.Camera(n, e.cam, world)
			}
		case KindLight:
			if v.Light != nil {
				v.Light(n, e.light, world)
			}
		case KindModel:
			if v.Model != nil {
				v.Model(n, e.model, world)
			}
		}
	})
}
