// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package viewer

import (
	"errors"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/gviegas/sceneview/engine"
	"github.com/gviegas/sceneview/envmap"
)

const cfgPrefix = "viewer: config: "

func newCfgErr(reason string) error { return errors.New(cfgPrefix + reason) }

// Config configures a Viewer.
type Config struct {
	// Size of the rendered frame.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// Size of each face of the generated
	// environment maps.
	EnvMapSize int `toml:"envmap_size"`
	// Capture position: "object" or "viewer".
	Origin string `toml:"origin"`
	// Clipping planes used during capture.
	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`

	// Index of refraction of the refractive objects.
	IOR float32 `toml:"ior"`
	// Names of the objects that display a
	// generated environment map.
	Refractive []string `toml:"refractive"`

	// Size of each face of the procedural sky.
	SkySize int `toml:"sky_size"`
	// Directory containing px.png, nx.png, py.png,
	// ny.png, pz.png and nz.png.
	// If set, the sky is loaded from these images.
	SkyDir string `toml:"sky_dir"`

	ClearColor [4]float32 `toml:"clear_color"`

	// Models loaded from files into the demo scene.
	Models []ModelConfig `toml:"model"`
}

// ModelConfig describes a model file placed in the
// demo scene.
type ModelConfig struct {
	// Node name. Defaults to the name found in the file.
	Name string `toml:"name"`
	// Path of an .obj, .gltf or .glb file.
	Path     string     `toml:"path"`
	Position [3]float32 `toml:"position"`
	// Uniform scale. Zero means 1.
	Scale float32 `toml:"scale"`
	// Environment mode: "none", "reflect" or "refract".
	Env string `toml:"env"`
	// Fraction of triangles to keep, in (0, 1).
	// Zero keeps every triangle.
	Simplify float32 `toml:"simplify"`
}

// envMode parses c.Env.
func (c *ModelConfig) envMode() (int, bool) {
	switch strings.ToLower(c.Env) {
	case "", "none":
		return engine.EnvNone, true
	case "reflect":
		return engine.EnvReflect, true
	case "refract":
		return engine.EnvRefract, true
	}
	return 0, false
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Width:      256,
		Height:     256,
		EnvMapSize: 128,
		Origin:     envmap.OriginObject.String(),
		Near:       envmap.DefaultNear,
		Far:        envmap.DefaultFar,
		IOR:        engine.DefaultIOR,
		Refractive: []string{DemoProbe},
		SkySize:    64,
		ClearColor: [4]float32{0, 0, 0, 1},
	}
}

// LoadConfig reads a TOML configuration file.
// Keys missing from the file keep their default
// values. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, errors.Join(newCfgErr(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks whether c is valid.
func (c *Config) Validate() error {
	var reason string
	switch {
	case c.Width < 1 || c.Height < 1:
		reason = "invalid frame size"
	case c.EnvMapSize < 1:
		reason = "invalid envmap_size"
	case !(c.Near > 0):
		reason = "invalid near"
	case !(c.Far > c.Near):
		reason = "invalid far"
	case !(c.IOR > 0):
		reason = "invalid ior"
	case c.SkySize < 1:
		reason = "invalid sky_size"
	default:
		if _, err := envmap.ParseOrigin(c.Origin); err != nil {
			reason = "invalid origin " + c.Origin
			break
		}
		for i := range c.Models {
			m := &c.Models[i]
			if m.Path == "" {
				reason = "model without path"
			} else if _, ok := m.envMode(); !ok {
				reason = "invalid env " + m.Env + " for model " + m.Path
			} else if m.Scale < 0 {
				reason = "invalid scale for model " + m.Path
			} else if m.Simplify < 0 || m.Simplify >= 1 {
				reason = "invalid simplify for model " + m.Path
			} else {
				continue
			}
			return newCfgErr(reason)
		}
		return nil
	}
	return newCfgErr(reason)
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) { return toml.Marshal(c) }
