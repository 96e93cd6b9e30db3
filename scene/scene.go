// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package scene provides scene graphs whose nodes hold
// cameras, lights and models.
package scene

import (
	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/linear"
	"github.com/gviegas/sceneview/node"
)

// Kind is the kind of a node's payload.
type Kind int

// Payload kinds.
const (
	KindCamera Kind = iota + 1
	KindLight
	KindModel
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindCamera:
		return "camera"
	case KindLight:
		return "light"
	case KindModel:
		return "model"
	}
	return "invalid Kind"
}

// entity is what a Scene stores in its graph.
// Exactly one of cam, light and model is set,
// as indicated by kind.
type entity struct {
	name  string
	kind  Kind
	cam   *engine.Camera
	light *engine.Light
	model *engine.Model
	xform *Transform
	// Used when xform is nil.
	ident   linear.M4
	changed bool
}

// Local implements node.Interface.
func (e *entity) Local() *linear.M4 {
	if e.xform == nil {
		e.changed = false
		return &e.ident
	}
	return e.xform.Local()
}

// Changed implements node.Interface.
func (e *entity) Changed() bool {
	if e.xform == nil {
		return e.changed
	}
	return e.xform.Changed()
}

// Scene defines a scene graph.
type Scene struct {
	graph node.Graph
}

// New creates an empty scene.
func New() *Scene { return new(Scene) }

func (s *Scene) insert(e *entity, parent node.Node) node.Node {
	e.xform = NewTransform()
	e.ident.I()
	return s.graph.Insert(e, parent)
}

// AddCamera adds a camera node as a descendant of parent.
// If parent is node.Nil, the node is a root.
func (s *Scene) AddCamera(name string, cam *engine.Camera, parent node.Node) node.Node {
	if cam == nil {
		panic("scene: nil camera")
	}
	return s.insert(&entity{name: name, kind: KindCamera, cam: cam}, parent)
}

// AddLight adds a light node as a descendant of parent.
// If parent is node.Nil, the node is a root.
func (s *Scene) AddLight(name string, light *engine.Light, parent node.Node) node.Node {
	if light == nil {
		panic("scene: nil light")
	}
	return s.insert(&entity{name: name, kind: KindLight, light: light}, parent)
}

// AddModel adds a model node as a descendant of parent.
// If parent is node.Nil, the node is a root.
func (s *Scene) AddModel(name string, model *engine.Model, parent node.Node) node.Node {
	if model == nil {
		panic("scene: nil model")
	}
	return s.insert(&entity{name: name, kind: KindModel, model: model}, parent)
}

// Remove removes n and all of its descendants.
func (s *Scene) Remove(n node.Node) { s.graph.Remove(n) }

func (s *Scene) entity(n node.Node) *entity { return s.graph.Get(n).(*entity) }

// Valid checks whether n identifies a node of s.
func (s *Scene) Valid(n node.Node) bool { return s.graph.Valid(n) }

// Len returns the number of nodes in s.
func (s *Scene) Len() int { return s.graph.Len() }

// Name returns the name of n.
func (s *Scene) Name(n node.Node) string { return s.entity(n).name }

// Kind returns the payload kind of n.
func (s *Scene) Kind(n node.Node) Kind { return s.entity(n).kind }

// Parent returns the parent of n, or node.Nil if n is
// a root.
func (s *Scene) Parent(n node.Node) node.Node { return s.graph.Parent(n) }

// Camera returns the camera of n, or nil if n is not a
// camera node.
func (s *Scene) Camera(n node.Node) *engine.Camera { return s.entity(n).cam }

// Light returns the light of n, or nil if n is not a
// light node.
func (s *Scene) Light(n node.Node) *engine.Light { return s.entity(n).light }

// Model returns the model of n, or nil if n is not a
// model node.
func (s *Scene) Model(n node.Node) *engine.Model { return s.entity(n).model }

// Transform returns the transform of n.
// It returns nil if n has no transform.
func (s *Scene) Transform(n node.Node) *Transform { return s.entity(n).xform }

// SetTransform replaces the transform of n.
// If t is nil, n is left without a transform and
// traversals will report a nil world matrix for it.
func (s *Scene) SetTransform(n node.Node, t *Transform) {
	e := s.entity(n)
	e.xform = t
	e.changed = true
	if t != nil {
		t.changed = true
	}
}

// Lookup returns the first node, in traversal order,
// whose name is name.
// It returns node.Nil if there is no such node.
func (s *Scene) Lookup(name string) (n node.Node) {
	s.graph.Until(node.Nil, func(x node.Node) bool {
		if s.entity(x).name == name {
			n = x
			return false
		}
		return true
	})
	return
}

// Nodes returns every node of kind k, in traversal
// order.
func (s *Scene) Nodes(k Kind) (ns []node.Node) {
	s.graph.ForEach(node.Nil, func(n node.Node) {
		if s.entity(n).kind == k {
			ns = append(ns, n)
		}
	})
	return
}

// Update updates the world transforms of s.
func (s *Scene) Update() { s.graph.Update() }

// World returns the world transform of n.
// It is only current after a call to Update or Accept.
func (s *Scene) World(n node.Node) *linear.M4 { return s.graph.World(n) }

// SetWorld sets the transform applied to every root.
func (s *Scene) SetWorld(m *linear.M4) { s.graph.SetWorld(m) }
