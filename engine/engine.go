// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package engine implements forward rendering of
// cameras, lights and models.
package engine

const (
	// The maximum number of lights per frame.
	MaxLight = 16

	dflMaxDrawable = 2048
)

// Config is used to configure the engine.
type Config struct {
	// The maximum number of lights per frame.
	// Lights added past this limit are ignored.
	//
	// Default is MaxLight.
	MaxLight int

	// The maximum number of drawables per frame.
	// Models added past this limit are ignored.
	//
	// Default is 2048.
	MaxDrawable int

	// The ambient light applied to every model.
	//
	// Default is 0.25 for every channel.
	Ambient [3]float32

	// The color used to clear a renderer's own
	// target.
	//
	// Default is opaque gray (0.5).
	ClearColor [4]float32
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxLight:    MaxLight,
		MaxDrawable: dflMaxDrawable,
		Ambient:     [3]float32{0.25, 0.25, 0.25},
		ClearColor:  [4]float32{0.5, 0.5, 0.5, 1},
	}
}

var cfg Config

// Configure replaces the engine's configuration
// with config.
// MaxLight is clamped to [0, MaxLight] and a
// non-positive MaxDrawable is replaced by the
// default.
func Configure(config *Config) {
	c := *config
	c.MaxLight = max(0, min(c.MaxLight, MaxLight))
	if c.MaxDrawable <= 0 {
		c.MaxDrawable = dflMaxDrawable
	}
	cfg = c
}

// Configuration returns the current configuration.
func Configuration() Config { return cfg }

func init() {
	config := DefaultConfig()
	Configure(&config)
}
