// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package envmap

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/sceneview/driver"
	"github.com/gviegas/sceneview/driver/soft"
	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/internal/ctxt"
	"github.com/gviegas/sceneview/linear"
	"github.com/gviegas/sceneview/node"
	"github.com/gviegas/sceneview/scene"
)

// fakeRenderer records the calls made by a capture.
type fakeRenderer struct {
	log    *[]string
	cam    *engine.Camera
	lights []*engine.Light
	models []*engine.Model
	// Submissions of each RenderTo call.
	frames []frame
	// RenderTo call (1-based) that fails.
	failAt int
}

type frame struct {
	cam    *engine.Camera
	view   linear.M4
	lights []*engine.Light
	models []*engine.Model
}

func newFakeRenderer(log *[]string) *fakeRenderer {
	if log == nil {
		log = new([]string)
	}
	return &fakeRenderer{log: log}
}

func (r *fakeRenderer) SetCurrentCamera(cam *engine.Camera) {
	*r.log = append(*r.log, "SetCurrentCamera")
	r.cam = cam
}

func (r *fakeRenderer) CurrentCamera() *engine.Camera { return r.cam }

func (r *fakeRenderer) AddLight(light *engine.Light) {
	*r.log = append(*r.log, "AddLight")
	r.lights = append(r.lights, light)
}

func (r *fakeRenderer) AddModel(model *engine.Model, _ *linear.M4) {
	*r.log = append(*r.log, "AddModel")
	r.models = append(r.models, model)
}

func (r *fakeRenderer) RenderTo(t *engine.Target) error {
	*r.log = append(*r.log, "RenderTo")
	f := frame{cam: r.cam, lights: r.lights, models: r.models}
	if r.cam != nil {
		f.view = r.cam.View()
	}
	r.frames = append(r.frames, f)
	r.lights, r.models = nil, nil
	if len(r.frames) == r.failAt {
		return errors.New("render failed")
	}
	return nil
}

// traceGPU wraps the current GPU, recording image and
// framebuffer operations and injecting failures.
type traceGPU struct {
	driver.GPU
	log *[]string
	// NewImage call (1-based) that fails.
	failImage int
	failFB    bool
	images    int
}

type traceImage struct {
	driver.Image
	log *[]string
}

type traceFramebuf struct {
	driver.Framebuf
	log *[]string
}

func (g *traceGPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels int, usg driver.Usage) (driver.Image, error) {
	g.images++
	if g.images == g.failImage {
		return nil, driver.ErrNoDeviceMemory
	}
	img, err := g.GPU.NewImage(pf, size, layers, levels, usg)
	if err != nil {
		return nil, err
	}
	*g.log = append(*g.log, "NewImage")
	return &traceImage{img, g.log}, nil
}

func (g *traceGPU) NewFramebuf() (driver.Framebuf, error) {
	if g.failFB {
		return nil, driver.ErrNoHostMemory
	}
	fb, err := g.GPU.NewFramebuf()
	if err != nil {
		return nil, err
	}
	*g.log = append(*g.log, "NewFramebuf")
	return &traceFramebuf{fb, g.log}, nil
}

func (m *traceImage) GenMipmaps() error {
	*m.log = append(*m.log, "GenMipmaps")
	return m.Image.GenMipmaps()
}

func (m *traceImage) Destroy() {
	*m.log = append(*m.log, "DestroyImage")
	m.Image.Destroy()
}

func unwrap(img driver.Image) driver.Image {
	if t, ok := img.(*traceImage); ok {
		return t.Image
	}
	return img
}

func (f *traceFramebuf) AttachColor(img driver.Image, layer, level int) error {
	return f.Framebuf.AttachColor(unwrap(img), layer, level)
}

func (f *traceFramebuf) AttachDepth(img driver.Image) error {
	return f.Framebuf.AttachDepth(unwrap(img))
}

func (f *traceFramebuf) Destroy() {
	*f.log = append(*f.log, "DestroyFramebuf")
	f.Framebuf.Destroy()
}

// trace replaces the GPU with a traceGPU for the
// duration of the test.
func trace(t *testing.T, log *[]string) *traceGPU {
	g := &traceGPU{GPU: ctxt.GPU(), log: log}
	prev := ctxt.Replace(g)
	t.Cleanup(func() { ctxt.Replace(prev) })
	return g
}

// softStats returns the resources alive in the soft GPU.
func softStats(t *testing.T) soft.Stats {
	g := ctxt.GPU()
	if tg, ok := g.(*traceGPU); ok {
		g = tg.GPU
	}
	sg, ok := g.(*soft.GPU)
	if !ok {
		t.Skip("ctxt.GPU is not a soft.GPU")
	}
	return sg.Stats()
}

// fixture is a scene with a viewer camera, two lights
// and four cubes around the origin.
type fixture struct {
	s      *scene.Scene
	viewer node.Node
	lights []node.Node
	// probe, red (+X), green (+Y), blue (+Z).
	models []node.Node
}

func newMaterial(t *testing.T, r, g, b float32) *engine.Material {
	m, err := engine.NewMaterial(&engine.MatProp{BaseColor: [4]float32{r, g, b, 1}})
	require.NoError(t, err)
	return m
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{s: scene.New()}
	f.viewer = f.s.AddCamera("viewer", engine.NewCamera(1, 1, 0.1, 100), node.Nil)
	f.s.Transform(f.viewer).SetPosition(&linear.V3{0, 1, 5})

	sun := (&engine.DistantLight{Direction: linear.V3{-0.3, -1, -0.3}, Intensity: 1, R: 1, G: 1, B: 1}).Light()
	lamp := (&engine.PointLight{Position: linear.V3{0, 8, 0}, Intensity: 4, R: 1, G: 1, B: 1}).Light()
	f.lights = append(f.lights,
		f.s.AddLight("sun", &sun, node.Nil),
		f.s.AddLight("lamp", &lamp, node.Nil))

	for _, x := range [...]struct {
		name    string
		pos     linear.V3
		r, g, b float32
	}{
		{"probe", linear.V3{0, 0, -3}, 1, 1, 1},
		{"red", linear.V3{3, 0, 0}, 1, 0, 0},
		{"green", linear.V3{0, 3, 0}, 0, 1, 0},
		{"blue", linear.V3{0, 0, 3}, 0, 0, 1},
	} {
		m, err := engine.NewModel(engine.NewCubeMesh(2), newMaterial(t, x.r, x.g, x.b))
		require.NoError(t, err)
		n := f.s.AddModel(x.name, m, node.Nil)
		f.s.Transform(n).SetPosition(&x.pos)
		f.models = append(f.models, n)
	}
	return f
}

func TestFaces(t *testing.T) {
	names := [NumFaces]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}
	dirs := [NumFaces][2]linear.V3{
		{{1, 0, 0}, {0, -1, 0}},
		{{-1, 0, 0}, {0, -1, 0}},
		{{0, 1, 0}, {0, 0, 1}},
		{{0, -1, 0}, {0, 0, -1}},
		{{0, 0, 1}, {0, -1, 0}},
		{{0, 0, -1}, {0, -1, 0}},
	}
	for f := range Face(NumFaces) {
		assert.Equal(t, names[f], f.String())
		dir, up := FaceDirection(f)
		assert.Equal(t, dirs[f][0], dir, "direction of %v", f)
		assert.Equal(t, dirs[f][1], up, "up vector of %v", f)
	}
}

func TestFaceViews(t *testing.T) {
	eye := linear.V3{1, -2, 3}
	views := FaceViews(&eye)
	assert.Equal(t, views, FaceViews(&eye), "views must depend only on eye")
	assert.NotEqual(t, views, FaceViews(&linear.V3{}))

	for f := range Face(NumFaces) {
		dir, up := FaceDirection(f)
		var c, u linear.V3
		c.Add(&eye, &dir)
		u.Add(&eye, &up)
		// One unit ahead maps to -Z in view space
		// and the up vector maps to +Y.
		for _, x := range [...]struct {
			p    linear.V3
			want linear.V4
		}{
			{eye, linear.V4{0, 0, 0, 1}},
			{c, linear.V4{0, 0, -1, 1}},
			{u, linear.V4{0, 1, 0, 1}},
		} {
			var v linear.V4
			v.Mul(&views[f], &linear.V4{x.p[0], x.p[1], x.p[2], 1})
			for i := range v {
				assert.InDelta(t, x.want[i], v[i], 1e-5, "face %v, point %v", f, x.p)
			}
		}
	}

	var proj linear.M4
	proj.Perspective(math32.Pi/2, 1, 0.5, 50)
	assert.Equal(t, proj, Projection(0.5, 50))
}

func TestCaptureVisitor(t *testing.T) {
	f := newFixture(t)
	r := newFakeRenderer(nil)
	cam := engine.NewCamera(math32.Pi/2, 1, 0.1, 100)
	skip := f.models[0]

	v := NewCaptureVisitor(r, cam, skip)
	require.Same(t, cam, r.CurrentCamera(), "camera must be set on construction")
	require.Equal(t, []string{"SetCurrentCamera"}, *r.log)

	var world linear.M4
	world.I()
	v.VisitCamera(f.viewer, f.s.Camera(f.viewer), &world)
	assert.Len(t, *r.log, 1, "VisitCamera must not submit")
	assert.Same(t, cam, r.CurrentCamera())

	// Lights are submitted regardless of skip.
	v.VisitLight(skip, f.s.Light(f.lights[0]), nil)
	v.VisitLight(f.lights[1], f.s.Light(f.lights[1]), &world)
	assert.Len(t, r.lights, 2)

	v.VisitModel(skip, f.s.Model(skip), &world)
	assert.Empty(t, r.models, "skipped model submitted")
	v.VisitModel(f.models[1], f.s.Model(f.models[1]), &world)
	assert.Equal(t, []*engine.Model{f.s.Model(f.models[1])}, r.models)

	assert.PanicsWithValue(t, "envmap: model node without transform", func() {
		v.VisitModel(f.models[2], f.s.Model(f.models[2]), nil)
	})
	// The skipped node is never checked.
	assert.NotPanics(t, func() { v.VisitModel(skip, f.s.Model(skip), nil) })

	// Through scene traversal.
	r = newFakeRenderer(nil)
	sv := NewCaptureVisitor(r, cam, node.Nil).Visitor()
	f.s.Accept(&sv)
	assert.Len(t, r.models, len(f.models))
	assert.Len(t, r.lights, len(f.lights))
}

func TestGenerateSubmissions(t *testing.T) {
	f := newFixture(t)
	for _, exclude := range append([]node.Node{node.Nil}, f.models...) {
		r := newFakeRenderer(nil)
		p := DefaultParam(8)
		p.Exclude = exclude
		tex, err := Generate(r, f.s, &p)
		require.NoError(t, err)
		require.Len(t, r.frames, NumFaces)

		wantModels := len(f.models)
		if exclude != node.Nil {
			wantModels--
		}
		views := FaceViews(&p.Eye)
		for i, fr := range r.frames {
			assert.Len(t, fr.lights, len(f.lights), "face %v", Face(i))
			assert.Len(t, fr.models, wantModels, "face %v", Face(i))
			if exclude != node.Nil {
				assert.NotContains(t, fr.models, f.s.Model(exclude))
			}
			assert.Equal(t, views[i], fr.view, "face %v", Face(i))
			assert.Equal(t, Projection(p.Near, p.Far), fr.cam.Projection())
		}
		tex.Free()
	}
}

func TestGenerateSequence(t *testing.T) {
	f := newFixture(t)
	var log []string
	trace(t, &log)
	r := newFakeRenderer(&log)
	viewerCam := f.s.Camera(f.viewer)
	r.SetCurrentCamera(viewerCam)
	log = log[:0]

	p := DefaultParam(16)
	tex, err := Generate(r, f.s, &p)
	require.NoError(t, err)
	defer tex.Free()
	assert.Same(t, viewerCam, r.CurrentCamera(), "previous camera not restored")
	assert.Equal(t, 5, tex.Levels())
	assert.True(t, tex.IsCube())

	count := func(op string) (n int) {
		for _, x := range log {
			if x == op {
				n++
			}
		}
		return
	}
	assert.Equal(t, 2, count("NewImage"))
	assert.Equal(t, 1, count("NewFramebuf"))
	assert.Equal(t, NumFaces, count("RenderTo"))
	assert.Equal(t, 1, count("GenMipmaps"))
	assert.Equal(t, 1, count("DestroyFramebuf"))
	// Only the depth image.
	assert.Equal(t, 1, count("DestroyImage"))
	// One per face plus the restoration.
	assert.Equal(t, NumFaces+1, count("SetCurrentCamera"))

	var lastRender int
	for i, x := range log {
		if x == "RenderTo" {
			lastRender = i
		}
	}
	assert.Equal(t, []string{
		"GenMipmaps",
		"DestroyFramebuf",
		"DestroyImage",
		"SetCurrentCamera",
	}, log[lastRender+1:])
}

func TestGenerateInvalid(t *testing.T) {
	f := newFixture(t)
	var log []string
	trace(t, &log)
	before := softStats(t)
	valid := DefaultParam(8)
	for _, x := range [...]struct {
		mod    func(p *Param)
		reason string
	}{
		{func(p *Param) { p.Size = 0 }, "invalid size"},
		{func(p *Param) { p.Size = -16 }, "invalid size"},
		{func(p *Param) { p.Size = 1 << 20 }, "size too big"},
		{func(p *Param) { p.Near = 0 }, "invalid near plane"},
		{func(p *Param) { p.Near = float32(math32.NaN()) }, "invalid near plane"},
		{func(p *Param) { p.Far = p.Near }, "invalid far plane"},
		{func(p *Param) { p.Levels = -1 }, "invalid level count"},
		{func(p *Param) { p.Levels = 5 }, "invalid level count"},
		{func(p *Param) { p.Exclude = 1000 }, "excluded node not in scene"},
		{func(p *Param) { p.Eye[1] = math32.Inf(1) }, "invalid eye position"},
	} {
		r := newFakeRenderer(&log)
		p := valid
		x.mod(&p)
		tex, err := Generate(r, f.s, &p)
		require.Error(t, err)
		assert.Nil(t, tex)
		assert.Equal(t, prefix+x.reason, err.Error())
		assert.Empty(t, log, "allocation or submission on invalid param (%s)", x.reason)
		assert.Equal(t, before, softStats(t))
	}

	_, err := Generate(newFakeRenderer(&log), f.s, nil)
	assert.EqualError(t, err, prefix+"nil param")
	_, err = Generate(nil, f.s, &valid)
	assert.EqualError(t, err, prefix+"nil renderer")
	_, err = Generate(newFakeRenderer(&log), nil, &valid)
	assert.EqualError(t, err, prefix+"nil scene")
	assert.Empty(t, log)
}

func TestGenerateFailure(t *testing.T) {
	f := newFixture(t)
	viewerCam := f.s.Camera(f.viewer)
	p := DefaultParam(8)

	for i, x := range [...]struct {
		failImage int
		failFB    bool
		failAt    int
		want      error
	}{
		{failImage: 1, want: driver.ErrNoDeviceMemory},
		{failImage: 2, want: driver.ErrNoDeviceMemory},
		{failFB: true, want: driver.ErrNoHostMemory},
		{failAt: 1},
		{failAt: 4},
		{failAt: NumFaces},
	} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			var log []string
			g := trace(t, &log)
			before := softStats(t)
			g.failImage = x.failImage
			g.failFB = x.failFB
			r := newFakeRenderer(&log)
			r.failAt = x.failAt
			r.SetCurrentCamera(viewerCam)

			tex, err := Generate(r, f.s, &p)
			require.Error(t, err)
			assert.Nil(t, tex)
			if x.want != nil {
				assert.ErrorIs(t, err, x.want)
			}
			assert.Same(t, viewerCam, r.CurrentCamera(), "camera not restored")
			assert.Equal(t, before, softStats(t), "leak")
			if x.failAt > 0 {
				assert.Len(t, r.frames, x.failAt, "rendering continued after failure")
			}
			assert.NotContains(t, log, "GenMipmaps")
		})
	}
}

// faceImages returns the first level of each face.
func faceImages(t *testing.T, tex *engine.Texture) (imgs [NumFaces]*image.RGBA) {
	for i := range imgs {
		img, err := tex.Image(i, 0)
		require.NoError(t, err)
		imgs[i] = img
	}
	return
}

// pixel returns the color of img at (x, y).
func pixel(img *image.RGBA, x, y int) [4]uint8 {
	c := img.RGBAAt(x, y)
	return [4]uint8{c.R, c.G, c.B, c.A}
}

func TestGenerateGolden(t *testing.T) {
	f := newFixture(t)
	r := engine.NewRenderer()
	p := DefaultParam(16)
	p.Clear = [4]float32{0, 0, 0, 1}

	all, err := Generate(r, f.s, &p)
	require.NoError(t, err)
	defer all.Free()
	p.Exclude = f.models[0]
	excl, err := Generate(r, f.s, &p)
	require.NoError(t, err)
	defer excl.Free()

	a, b := faceImages(t, all), faceImages(t, excl)
	for i := range Face(NumFaces) {
		same := bytes.Equal(a[i].Pix, b[i].Pix)
		if i == NegZ {
			assert.False(t, same, "face %v shows the excluded object", i)
		} else {
			assert.True(t, same, "face %v does not show the excluded object", i)
		}
	}

	c := p.Size / 2
	black := [4]uint8{0, 0, 0, 255}
	at := func(img *image.RGBA) [4]uint8 { return pixel(img, c, c) }
	assert.NotEqual(t, black, at(a[NegZ]), "object missing without exclusion")
	assert.Equal(t, black, at(b[NegZ]), "excluded object rendered")
	assert.Equal(t, black, at(a[NegX]))
	assert.Equal(t, black, at(a[NegY]))
	red, green, blue := at(a[PosX]), at(a[PosY]), at(a[PosZ])
	assert.True(t, red[0] > 0 && red[1] == 0 && red[2] == 0, "+X: %v", red)
	assert.True(t, green[1] > 0 && green[0] == 0 && green[2] == 0, "+Y: %v", green)
	assert.True(t, blue[2] > 0 && blue[0] == 0 && blue[1] == 0, "+Z: %v", blue)

	// The mip chain is generated.
	last, err := excl.Image(int(PosX), excl.Levels()-1)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1, 1), last.Bounds().Size())
	assert.NotEqual(t, black, pixel(last, 0, 0))

	// The renderer is left without submissions.
	assert.Empty(t, r.Lights())
	assert.Empty(t, r.Drawables())
}

func TestGenerateLayout(t *testing.T) {
	// A cube above the horizon, in front of +X.
	s := scene.New()
	m, err := engine.NewModel(engine.NewCubeMesh(2), newMaterial(t, 1, 0, 0))
	require.NoError(t, err)
	n := s.AddModel("red", m, node.Nil)
	s.Transform(n).SetPosition(&linear.V3{4, 3, 0})

	p := DefaultParam(32)
	p.Clear = [4]float32{0, 0, 0, 1}
	tex, err := Generate(engine.NewRenderer(), s, &p)
	require.NoError(t, err)
	defer tex.Free()

	// Rows follow GL cube map addressing: row 0 of a
	// side face holds world +Y.
	img, err := tex.Image(int(PosX), 0)
	require.NoError(t, err)
	var top, bottom int
	for y := range p.Size {
		for x := range p.Size {
			if pixel(img, x, y)[0] == 0 {
				continue
			}
			if y < p.Size/2 {
				top++
			} else {
				bottom++
			}
		}
	}
	assert.Positive(t, top)
	assert.Zero(t, bottom)
	red := pixel(img, p.Size/2, 4)
	assert.True(t, red[0] > 0 && red[1] == 0 && red[2] == 0, "+X row 4: %v", red)

	// Sampling agrees with the stored layout.
	c := tex.SampleCube(&linear.V3{1, 0.72, 0}, 0)
	assert.Greater(t, c[0], float32(0))
	c = tex.SampleCube(&linear.V3{1, -0.72, 0}, 0)
	assert.Zero(t, c[0])
}

func TestGenerateIndependent(t *testing.T) {
	f := newFixture(t)
	r := engine.NewRenderer()
	probe, blue := f.models[0], f.models[3]

	p := DefaultParam(8)
	p.Exclude = probe
	t1, err := Generate(r, f.s, &p)
	require.NoError(t, err)
	p.Exclude = blue
	t2, err := Generate(r, f.s, &p)
	require.NoError(t, err)
	defer t2.Free()
	p.Exclude = probe
	t3, err := Generate(r, f.s, &p)
	require.NoError(t, err)
	defer t3.Free()

	a, b, c := faceImages(t, t1), faceImages(t, t2), faceImages(t, t3)
	for i := range Face(NumFaces) {
		assert.Equal(t, a[i].Pix, c[i].Pix, "face %v: capture not deterministic", i)
	}
	assert.NotEqual(t, a[NegZ].Pix, b[NegZ].Pix)
	assert.NotEqual(t, a[PosZ].Pix, b[PosZ].Pix)
	assert.Equal(t, a[PosX].Pix, b[PosX].Pix)

	// Freeing one does not affect the other.
	t1.Free()
	d := faceImages(t, t3)
	for i := range Face(NumFaces) {
		assert.Equal(t, c[i].Pix, d[i].Pix)
	}
}

func TestEyeFor(t *testing.T) {
	f := newFixture(t)
	eye, err := EyeFor(f.s, f.models[0], f.viewer, OriginObject)
	require.NoError(t, err)
	assert.Equal(t, linear.V3{0, 0, -3}, eye)
	eye, err = EyeFor(f.s, f.models[0], f.viewer, OriginViewer)
	require.NoError(t, err)
	assert.Equal(t, linear.V3{0, 1, 5}, eye)

	_, err = EyeFor(f.s, node.Nil, f.viewer, OriginObject)
	assert.Error(t, err)
	_, err = EyeFor(f.s, f.models[0], node.Nil, OriginViewer)
	assert.Error(t, err)
	_, err = EyeFor(f.s, f.models[0], f.viewer, Origin(7))
	assert.Error(t, err)
}

func TestParseOrigin(t *testing.T) {
	for s, want := range map[string]Origin{
		"":       OriginObject,
		"object": OriginObject,
		"Viewer": OriginViewer,
	} {
		o, err := ParseOrigin(s)
		require.NoError(t, err)
		assert.Equal(t, want, o)
	}
	_, err := ParseOrigin("camera")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), prefix))
	assert.Equal(t, "viewer", OriginViewer.String())
}
