// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package ctxt provides the GPU driver used by the
// engine.
package ctxt

import (
	"os"

	"github.com/gviegas/sceneview/driver"
	_ "github.com/gviegas/sceneview/driver/soft"
)

// EnvDriver is the environment variable that selects
// a driver by name.
const EnvDriver = "SCENEVIEW_DRIVER"

var (
	drv    driver.Driver
	gpu    driver.GPU
	limits driver.Limits
)

// loadDriver opens the driver selected by name (see
// driver.Open) and replaces the drv and gpu vars on
// success.
func loadDriver(name string) error {
	d, g, err := driver.Open(name)
	if err != nil {
		return err
	}
	drv = d
	gpu = g
	limits = gpu.Limits()
	return nil
}

func init() {
	if err := loadDriver(os.Getenv(EnvDriver)); err != nil {
		// Try all drivers.
		if err = loadDriver(""); err != nil {
			panic(err)
		}
	}
}

// Driver returns the driver.Driver.
func Driver() driver.Driver { return drv }

// GPU returns the driver.GPU.
func GPU() driver.GPU { return gpu }

// Limits returns GPU().Limits().
// This value is retrieved only once. It must not be
// changed by the caller.
func Limits() *driver.Limits { return &limits }

// Replace replaces the GPU with g and returns the
// previous one.
// It is meant for wrapping the current GPU (e.g., to
// trace or inject failures), so the Driver and Limits
// are left unchanged.
func Replace(g driver.GPU) (prev driver.GPU) {
	prev = gpu
	gpu = g
	return
}
