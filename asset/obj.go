// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package asset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gviegas/sceneview/linear"
)

// LoadOBJ loads a Wavefront OBJ file.
// Faces are triangulated as fans. Material libraries
// and texture coordinates are ignored.
func LoadOBJ(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := DecodeOBJ(f)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

type objDecoder struct {
	line int
	vs   []linear.V3
	vns  []linear.V3
	m    Model
	// Whether every face vertex so far has a normal.
	normals bool
}

func (d *objDecoder) errorf(format string, args ...any) error {
	return newErr(fmt.Sprintf("obj: line %d: ", d.line) + fmt.Sprintf(format, args...))
}

func (d *objDecoder) vector(fields []string) (v linear.V3, err error) {
	if len(fields) < 3 {
		return v, d.errorf("expected 3 coordinates")
	}
	for i := range v {
		x, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, d.errorf("%v", err)
		}
		v[i] = float32(x)
	}
	return
}

// index resolves a 1-based, possibly negative, index
// into a list of length n.
func (d *objDecoder) index(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	switch {
	case err != nil:
		return 0, d.errorf("%v", err)
	case i < 0:
		i += n
	case i > 0:
		i--
	default:
		return 0, d.errorf("zero index")
	}
	if i < 0 || i >= n {
		return 0, d.errorf("index %s out of range", s)
	}
	return i, nil
}

func (d *objDecoder) face(fields []string) error {
	if len(fields) < 3 {
		return d.errorf("face with fewer than 3 vertices")
	}
	type corner struct {
		pos  linear.V3
		norm linear.V3
		ok   bool
	}
	cs := make([]corner, len(fields))
	for i, f := range fields {
		// v, v/vt, v//vn or v/vt/vn.
		parts := strings.Split(f, "/")
		vi, err := d.index(parts[0], len(d.vs))
		if err != nil {
			return err
		}
		cs[i].pos = d.vs[vi]
		if len(parts) > 2 && parts[2] != "" {
			ni, err := d.index(parts[2], len(d.vns))
			if err != nil {
				return err
			}
			cs[i].norm = d.vns[ni]
			cs[i].ok = true
		}
	}
	for i := 1; i < len(cs)-1; i++ {
		for _, c := range [3]corner{cs[0], cs[i], cs[i+1]} {
			d.m.Indices = append(d.m.Indices, uint32(len(d.m.Positions)))
			d.m.Positions = append(d.m.Positions, c.pos)
			d.m.Normals = append(d.m.Normals, c.norm)
			d.normals = d.normals && c.ok
		}
	}
	return nil
}

// DecodeOBJ decodes a Wavefront OBJ file from r.
func DecodeOBJ(r io.Reader) (*Model, error) {
	d := objDecoder{normals: true}
	d.m.BaseColor = [4]float32{1, 1, 1, 1}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		d.line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		var err error
		switch fields[0] {
		case "v":
			var v linear.V3
			if v, err = d.vector(fields[1:]); err == nil {
				d.vs = append(d.vs, v)
			}
		case "vn":
			var v linear.V3
			if v, err = d.vector(fields[1:]); err == nil {
				d.vns = append(d.vns, v)
			}
		case "f":
			err = d.face(fields[1:])
		case "o", "g":
			if d.m.Name == "" && len(fields) > 1 {
				d.m.Name = fields[1]
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(d.m.Positions) == 0 {
		return nil, newErr("obj: no faces")
	}
	if !d.normals {
		d.m.Normals = nil
	}
	return &d.m, nil
}
