// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import (
	"github.com/chewxy/math32"
)

// Q is a quaternion of float32.
type Q struct {
	V V3
	R float32
}

// I makes q an identity quaternion.
func (q *Q) I() { *q = Q{R: 1} }

// Mul sets q to contain l ⋅ r.
func (q *Q) Mul(l, r *Q) {
	var v, w V3
	v.Scale(r.R, &l.V)
	w.Scale(l.R, &r.V)
	v.Add(&v, &w)
	w.Cross(&l.V, &r.V)
	d := l.V.Dot(&r.V)
	q.V.Add(&v, &w)
	q.R = l.R*r.R - d
}

// Rotate sets q to contain a rotation of angle
// radians about axis.
// axis must have length 1.
func (q *Q) Rotate(angle float32, axis *V3) {
	s, c := math32.Sincos(angle * 0.5)
	q.V.Scale(s, axis)
	q.R = c
}

// Len returns the length of q.
func (q *Q) Len() float32 { return math32.Sqrt(q.V.Dot(&q.V) + q.R*q.R) }

// Norm sets q to contain p normalized.
func (q *Q) Norm(p *Q) {
	s := 1 / p.Len()
	q.V.Scale(s, &p.V)
	q.R = s * p.R
}

// FromM3 sets q to contain the rotation described by m.
// m must be a rotation matrix.
func (q *Q) FromM3(m *M3) {
	// m[c][r] is the element at row r, column c.
	m00, m11, m22 := m[0][0], m[1][1], m[2][2]
	switch tr := m00 + m11 + m22; {
	case tr > 0:
		s := math32.Sqrt(tr+1) * 2
		q.R = s / 4
		q.V = V3{(m[1][2] - m[2][1]) / s, (m[2][0] - m[0][2]) / s, (m[0][1] - m[1][0]) / s}
	case m00 > m11 && m00 > m22:
		s := math32.Sqrt(1+m00-m11-m22) * 2
		q.R = (m[1][2] - m[2][1]) / s
		q.V = V3{s / 4, (m[1][0] + m[0][1]) / s, (m[2][0] + m[0][2]) / s}
	case m11 > m22:
		s := math32.Sqrt(1+m11-m00-m22) * 2
		q.R = (m[2][0] - m[0][2]) / s
		q.V = V3{(m[1][0] + m[0][1]) / s, s / 4, (m[2][1] + m[1][2]) / s}
	default:
		s := math32.Sqrt(1+m22-m00-m11) * 2
		q.R = (m[0][1] - m[1][0]) / s
		q.V = V3{(m[2][0] + m[0][2]) / s, (m[2][1] + m[1][2]) / s, s / 4}
	}
}
