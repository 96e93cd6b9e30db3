// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/chewxy/math32"

	"github.com/gviegas/sceneview/linear"
)

const (
	distantLight = iota
	pointLight
	spotLight
)

// Light defines a light source.
// The zero value for Light is not valid; one must
// call DistantLight.Light, PointLight.Light or
// SpotLight.Light to create an initialized Light.
type Light struct {
	typ       int
	dir       linear.V3
	pos       linear.V3
	intensity float32
	rng       float32
	color     linear.V3
	angScale  float32
	angOffset float32
	// Used to reconstruct the inner/outer
	// cone angles.
	// Ignored if typ is not spotLight.
	cosOuter float32
}

// SetDirection sets the direction of l.
// It does not normalize d.
// Only applies to distant and spot lights.
func (l *Light) SetDirection(d *linear.V3) { l.dir = *d }

// Direction returns the direction of l.
// Only applies to distant and spot lights.
func (l *Light) Direction() linear.V3 { return l.dir }

// SetPosition sets the position of l.
// Only applies to point and spot lights.
func (l *Light) SetPosition(p *linear.V3) { l.pos = *p }

// Position returns the position of l.
// Only applies to point and spot lights.
func (l *Light) Position() linear.V3 { return l.pos }

// SetIntensity sets the intensity of l.
func (l *Light) SetIntensity(i float32) { l.intensity = max(0, i) }

// Intensity returns the intensity of l.
func (l *Light) Intensity() float32 { return l.intensity }

// SetRange sets the falloff range of l.
// Only applies to point and spot lights.
func (l *Light) SetRange(r float32) { l.rng = r }

// Range returns the falloff range of l.
// Only applies to point and spot lights.
func (l *Light) Range() float32 { return l.rng }

// SetColor sets the RGB color of l.
func (l *Light) SetColor(r, g, b float32) { l.color = linear.V3{r, g, b} }

// Color returns the RGB color of l.
func (l *Light) Color() (r, g, b float32) { return l.color[0], l.color[1], l.color[2] }

// SetConeAngles sets the inner/outer cone angles of l.
// Cone angles that exceed math.Pi/2, or that are less
// than zero, will be clamped. The inner angle will be
// adjusted such that it is less than the outer angle.
// Only applies to spot lights.
func (l *Light) SetConeAngles(inner, outer float32) {
	var (
		i      = max(0, min(inner, math32.Pi/2-1e-4))
		o      = max(i+1e-4, min(outer, math32.Pi/2))
		cosi   = math32.Cos(i)
		coso   = math32.Cos(o)
		scale  = 1 / (cosi - coso)
		offset = scale * -coso
	)
	l.angScale = scale
	l.angOffset = offset
	l.cosOuter = coso
}

// ConeAngles returns the inner/outer cone angles of l.
// Note that it returns the clamped angles (see the doc
// for Light.SetConeAngles).
// Only applies to spot lights.
func (l *Light) ConeAngles() (inner, outer float32) {
	coso := l.cosOuter
	cosi := (1 / l.angScale) + coso
	inner = math32.Acos(min(cosi, 1))
	outer = math32.Acos(coso)
	return
}

// Illuminate returns the light that l contributes to a
// surface point p with unit normal n, using a Lambertian
// term.
func (l *Light) Illuminate(p, n *linear.V3) (c linear.V3) {
	var toLight linear.V3
	atten := l.intensity
	switch l.typ {
	case distantLight:
		toLight.Scale(-1, &l.dir)
		if toLight.Len() == 0 {
			return
		}
		toLight.Norm(&toLight)
	default:
		toLight.Sub(&l.pos, p)
		d := toLight.Len()
		if d == 0 {
			return
		}
		toLight.Scale(1/d, &toLight)
		atten /= max(d*d, 1e-4)
		if l.rng > 0 {
			r := d / l.rng
			w := max(0, min(1-r*r*r*r, 1))
			atten *= w * w
		}
		if l.typ == spotLight {
			var dir, neg linear.V3
			dir.Norm(&l.dir)
			neg.Scale(-1, &toLight)
			cd := neg.Dot(&dir)
			a := max(0, min(cd*l.angScale+l.angOffset, 1))
			atten *= a * a
		}
	}
	ndl := max(0, n.Dot(&toLight))
	c.Scale(atten*ndl, &l.color)
	return
}

// DistantLight is a directional light.
// The light is emitted in the given Direction.
// It behaves as if located infinitely far way.
type DistantLight struct {
	Direction linear.V3
	Intensity float32
	R, G, B   float32
}

// Light creates the light source described by t.
// t.R/G/B must be in the range [0, 1].
// t.Direction is normalized.
func (t *DistantLight) Light() (light Light) {
	light.typ = distantLight
	light.SetIntensity(t.Intensity)
	light.SetColor(t.R, t.G, t.B)
	var d linear.V3
	if t.Direction.Len() > 0 {
		d.Norm(&t.Direction)
	}
	light.SetDirection(&d)
	return
}

// PointLight is an omnidirectional, positional light.
// The light is emitted in all directions from the
// given Position.
// Range determines the area affected by the light.
type PointLight struct {
	Position  linear.V3
	Range     float32
	Intensity float32
	R, G, B   float32
}

// Light creates the light source described by t.
// t.R/G/B must be in the range [0, 1].
// t.Range may be set to 0 or less to indicate an
// infinite range.
func (t *PointLight) Light() (light Light) {
	light.typ = pointLight
	light.SetIntensity(t.Intensity)
	light.SetRange(t.Range)
	light.SetColor(t.R, t.G, t.B)
	light.SetPosition(&t.Position)
	return
}

// SpotLight is a directional, positional light.
// The light is emitted in a cone in the given Direction
// from the given Position.
// InnerAngle and OuterAngle (in radians), alongside
// Range, determine the area affected by the light.
type SpotLight struct {
	Direction  linear.V3
	Position   linear.V3
	InnerAngle float32
	OuterAngle float32
	Range      float32
	Intensity  float32
	R, G, B    float32
}

// Light creates the light source described by t.
// t.Direction must have length 1.
// t.R/G/B must be in the range [0, 1].
// t.Range may be set to 0 or less to indicate an
// infinite range.
// The cone angles will be adjusted as per
// Light.SetConeAngles.
func (t *SpotLight) Light() (light Light) {
	light.typ = spotLight
	light.SetIntensity(t.Intensity)
	light.SetRange(t.Range)
	light.SetColor(t.R, t.G, t.B)
	light.SetConeAngles(t.InnerAngle, t.OuterAngle)
	light.SetPosition(&t.Position)
	light.SetDirection(&t.Direction)
	return
}
