// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/linear"
	"github.com/gviegas/sceneview/node"
)

func newModel(t *testing.T) *engine.Model {
	m, err := engine.NewModel(engine.NewCubeMesh(1), nil)
	if err != nil {
		t.Fatalf("engine.NewModel: unexpected error: %v", err)
	}
	return m
}

func TestNew(t *testing.T) {
	var z Scene
	s := New()
	if s.graph.Len() != z.graph.Len() {
		t.Fatal("New().graph.Len: New should not insert any nodes")
	}
	if *s.graph.World(node.Nil) != *z.graph.World(node.Nil) {
		t.Fatal("New().graph.World: New should not set the global world transform")
	}
}

func TestAdd(t *testing.T) {
	s := New()
	cam := engine.NewCamera(1, 1, 0.1, 100)
	light := (&engine.DistantLight{Direction: linear.V3{0, -1, 0}, Intensity: 1}).Light()
	model := newModel(t)

	nc := s.AddCamera("camera", cam, node.Nil)
	nl := s.AddLight("sun", &light, node.Nil)
	nm := s.AddModel("cube", model, nl)
	if n := s.Len(); n != 3 {
		t.Fatalf("Scene.Len:\nhave %d\nwant 3", n)
	}
	for _, x := range [...]struct {
		n    node.Node
		name string
		kind Kind
	}{
		{nc, "camera", KindCamera},
		{nl, "sun", KindLight},
		{nm, "cube", KindModel},
	} {
		if s.Name(x.n) != x.name || s.Kind(x.n) != x.kind {
			t.Fatalf("Scene: node %d\nhave %s, %v\nwant %s, %v", x.n, s.Name(x.n), s.Kind(x.n), x.name, x.kind)
		}
		if s.Transform(x.n) == nil {
			t.Fatalf("Scene.Transform(%d): unexpected nil", x.n)
		}
		if l := s.Lookup(x.name); l != x.n {
			t.Fatalf("Scene.Lookup(%s):\nhave %d\nwant %d", x.name, l, x.n)
		}
	}
	if s.Camera(nc) != cam || s.Light(nl) != &light || s.Model(nm) != model {
		t.Fatal("Scene: payload mismatch")
	}
	if s.Camera(nm) != nil || s.Model(nc) != nil {
		t.Fatal("Scene: payload of wrong kind")
	}
	if p := s.Parent(nm); p != nl {
		t.Fatalf("Scene.Parent:\nhave %d\nwant %d", p, nl)
	}
	if l := s.Lookup("none"); l != node.Nil {
		t.Fatalf("Scene.Lookup(none):\nhave %d\nwant node.Nil", l)
	}
	if ns := s.Nodes(KindModel); len(ns) != 1 || ns[0] != nm {
		t.Fatalf("Scene.Nodes:\nhave %v\nwant [%d]", ns, nm)
	}

	s.Remove(nl)
	if s.Valid(nl) || s.Valid(nm) || !s.Valid(nc) {
		t.Fatal("Scene.Remove: descendants not removed")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("Scene.AddModel: expected panic on nil model")
			}
		}()
		s.AddModel("nil", nil, node.Nil)
	}()
}

func TestTransform(t *testing.T) {
	s := New()
	parent := s.AddModel("parent", newModel(t), node.Nil)
	child := s.AddModel("child", newModel(t), parent)

	s.Transform(parent).SetPosition(&linear.V3{1, 2, 3})
	var q linear.Q
	q.Rotate(math32.Pi/2, &linear.V3{0, 1, 0})
	s.Transform(parent).SetRotation(&q)
	s.Transform(child).SetPosition(&linear.V3{1, 0, 0})
	s.Transform(child).SetScale(&linear.V3{2, 2, 2})
	s.Update()

	// The child's X axis is rotated onto -Z.
	p := s.World(child).Translation()
	want := linear.V3{1, 2, 2}
	for i := range p {
		if math32.Abs(p[i]-want[i]) > 1e-5 {
			t.Fatalf("Scene.World: translation\nhave %v\nwant %v", p, want)
		}
	}
	if sx := s.Transform(child).Scale(); sx != (linear.V3{2, 2, 2}) {
		t.Fatalf("Transform.Scale:\nhave %v\nwant [2 2 2]", sx)
	}
	if tf := s.Transform(parent); tf.Changed() {
		t.Fatal("Transform.Changed: true after Update")
	}
	s.Transform(parent).SetPosition(&linear.V3{})
	if !s.Transform(parent).Changed() {
		t.Fatal("Transform.Changed: false after SetPosition")
	}
	s.Update()
	p = s.World(child).Translation()
	want = linear.V3{0, 0, -1}
	for i := range p {
		if math32.Abs(p[i]-want[i]) > 1e-5 {
			t.Fatalf("Scene.World: after change\nhave %v\nwant %v", p, want)
		}
	}
}

func TestAccept(t *testing.T) {
	s := New()
	cam := s.AddCamera("camera", engine.NewCamera(1, 1, 0.1, 100), node.Nil)
	light := (&engine.PointLight{Intensity: 1}).Light()
	l := s.AddLight("light", &light, node.Nil)
	m1 := s.AddModel("m1", newModel(t), node.Nil)
	m2 := s.AddModel("m2", newModel(t), m1)
	s.Transform(m1).SetPosition(&linear.V3{0, 0, -5})

	var order []node.Node
	kinds := make(map[node.Node]Kind)
	worlds := make(map[node.Node]linear.M4)
	s.Accept(&Visitor{
		Camera: func(n node.Node, _ *engine.Camera, w *linear.M4) {
			order = append(order, n)
			kinds[n] = KindCamera
			worlds[n] = *w
		},
		Light: func(n node.Node, _ *engine.Light, w *linear.M4) {
			order = append(order, n)
			kinds[n] = KindLight
			worlds[n] = *w
		},
		Model: func(n node.Node, _ *engine.Model, w *linear.M4) {
			order = append(order, n)
			kinds[n] = KindModel
			worlds[n] = *w
		},
	})
	if len(order) != 4 {
		t.Fatalf("Scene.Accept: visited\nhave %v\nwant 4 nodes", order)
	}
	for _, n := range [...]node.Node{cam, l, m1, m2} {
		if kinds[n] != s.Kind(n) {
			t.Fatalf("Scene.Accept: node %d dispatched as %v", n, kinds[n])
		}
	}
	// Ancestors first.
	var i1, i2 int
	for i, n := range order {
		switch n {
		case m1:
			i1 = i
		case m2:
			i2 = i
		}
	}
	if i1 > i2 {
		t.Fatalf("Scene.Accept: descendant visited first\n%v", order)
	}
	if z := worlds[m2].Translation()[2]; z != -5 {
		t.Fatalf("Scene.Accept: world of descendant\nhave z=%v\nwant z=-5", z)
	}

	// Nil handlers are ignored.
	var n int
	s.Accept(&Visitor{Model: func(node.Node, *engine.Model, *linear.M4) { n++ }})
	if n != 2 {
		t.Fatalf("Scene.Accept: Model only\nhave %d calls\nwant 2", n)
	}
	s.Accept(&Visitor{})

	// A node without transform reports a nil world.
	s.SetTransform(m2, nil)
	s.Accept(&Visitor{Model: func(x node.Node, _ *engine.Model, w *linear.M4) {
		if (x == m2) != (w == nil) {
			t.Fatalf("Scene.Accept: node %d world\nhave %v", x, w)
		}
	}})
	if s.Transform(m2) != nil {
		t.Fatal("Scene.SetTransform(nil): transform still set")
	}
}

func TestKind(t *testing.T) {
	for k, s := range map[Kind]string{
		KindCamera: "camera",
		KindLight:  "light",
		KindModel:  "model",
		0:          "invalid Kind",
	} {
		if x := k.String(); x != s {
			t.Fatalf("Kind.String:\nhave %s\nwant %s", x, s)
		}
	}
}
