// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package soft implements a software driver.
// It rasterizes on the CPU, so it works headless and
// produces deterministic results, which makes it
// suitable for tests and offline capture.
package soft

import (
	"github.com/gviegas/sceneview/driver"
)

// Name is the name of the software driver.
const Name = "soft"

// Default limits.
const (
	maxImage2D   = 8192
	maxImageCube = 4096
	maxLayers    = 256

	// Default memory limit, in bytes.
	dflMemLimit = 1 << 30
)

// Driver implements driver.Driver.
type Driver struct {
	gpu *GPU
}

func init() {
	driver.Register(&Driver{})
}

// Open initializes the driver.
func (d *Driver) Open() (driver.GPU, error) {
	if d.gpu == nil {
		d.gpu = &GPU{drv: d, memLimit: dflMemLimit}
	}
	return d.gpu, nil
}

// Name returns the driver's name.
func (d *Driver) Name() string { return Name }

// Close deinitializes the driver.
func (d *Driver) Close() { d.gpu = nil }

// GPU implements driver.GPU.
type GPU struct {
	drv      *Driver
	memLimit int64
	stats    Stats
}

// Stats describes resources currently alive in a GPU.
type Stats struct {
	Images    int
	Framebufs int
	// Image memory in bytes.
	Memory int64
}

// Driver returns the Driver that owns g.
func (g *GPU) Driver() driver.Driver { return g.drv }

// Limits returns the implementation limits.
func (g *GPU) Limits() driver.Limits {
	return driver.Limits{
		MaxImage2D:    maxImage2D,
		MaxImageCube:  maxImageCube,
		MaxLayers:     maxLayers,
		MaxRenderSize: [2]int{maxImage2D, maxImage2D},
	}
}

// Stats returns the resources currently alive in g.
func (g *GPU) Stats() Stats { return g.stats }

// SetMemoryLimit sets the maximum amount of image memory,
// in bytes, that g can allocate.
// Allocations that would exceed n fail with
// driver.ErrNoDeviceMemory.
func (g *GPU) SetMemoryLimit(n int64) { g.memLimit = n }

// NewFramebuf creates a new framebuffer.
func (g *GPU) NewFramebuf() (driver.Framebuf, error) {
	g.stats.Framebufs++
	return &Framebuf{gpu: g}, nil
}
