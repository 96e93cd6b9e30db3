// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/gviegas/sceneview/linear"
)

// Transform is a position, rotation and scale that
// produce a node's local transform.
type Transform struct {
	pos   linear.V3
	rot   linear.Q
	scale linear.V3
	local linear.M4
	// Whether local must be recomputed.
	dirty bool
	// Whether local has changed since the last
	// call to Local.
	changed bool
}

// NewTransform creates an identity transform.
func NewTransform() *Transform {
	t := &Transform{scale: linear.V3{1, 1, 1}}
	t.rot.I()
	t.local.I()
	t.changed = true
	return t
}

// SetPosition sets the translation of t.
func (t *Transform) SetPosition(p *linear.V3) { t.pos = *p; t.touch() }

// Position returns the translation of t.
func (t *Transform) Position() linear.V3 { return t.pos }

// SetRotation sets the rotation of t.
// q must be a unit quaternion.
func (t *Transform) SetRotation(q *linear.Q) { t.rot = *q; t.touch() }

// Rotation returns the rotation of t.
func (t *Transform) Rotation() linear.Q { return t.rot }

// SetScale sets the scale of t.
func (t *Transform) SetScale(s *linear.V3) { t.scale = *s; t.touch() }

// Scale returns the scale of t.
func (t *Transform) Scale() linear.V3 { return t.scale }

func (t *Transform) touch() {
	t.dirty = true
	t.changed = true
}

// Local returns the local transform T·R·S.
// It implements node.Interface.
func (t *Transform) Local() *linear.M4 {
	if t.dirty {
		var tr, r, s linear.M4
		tr.Translate(t.pos[0], t.pos[1], t.pos[2])
		r.RotateQ(&t.rot)
		s.Scale(t.scale[0], t.scale[1], t.scale[2])
		t.local.Mul(&r, &s)
		t.local.Mul(&tr, &t.local)
		t.dirty = false
	}
	t.changed = false
	return &t.local
}

// Changed implements node.Interface.
func (t *Transform) Changed() bool { return t.changed }
