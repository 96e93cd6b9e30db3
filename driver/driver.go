// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver defines a set of interfaces encompassing
// the GPU functionality used by the renderer.
// It is designed to allow both hardware and software
// implementations behind the same rendering code.
package driver

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Driver is the interface that provides methods for
// loading and unloading an underlying implementation.
type Driver interface {
	// Open initializes the driver.
	// If it succeeds, further calls with the same receiver
	// have no effect and must return the same GPU instance.
	// Callers should assume that Open is not safe for
	// parallel execution.
	Open() (GPU, error)

	// Name returns the name of the driver.
	// It must not cause the driver to be opened.
	Name() string

	// Close deinitializes the driver.
	// Closing a driver that is not open has no effect.
	Close()
}

// ErrNoDevice means that no suitable device could be
// found.
var ErrNoDevice = errors.New("driver: no suitable device found")

// ErrNoHostMemory means that host memory could not be
// allocated.
var ErrNoHostMemory = errors.New("driver: out of host memory")

// ErrNoDeviceMemory means that device memory could not
// be allocated.
var ErrNoDeviceMemory = errors.New("driver: out of device memory")

// ErrFatal means that the driver is in an unrecoverable
// state. Upon encountering such an error, the application
// must destroy everything that it created using the
// driver's GPU and then call the Close method.
var ErrFatal = errors.New("driver: fatal error")

// ErrNotFound means that no registered driver matched
// the requested name.
var ErrNotFound = errors.New("driver: not found")

// registry holds the registered drivers in
// registration order.
var registry struct {
	sync.Mutex
	drivers []Driver
}

// Drivers returns a copy of the registered drivers,
// in registration order.
func Drivers() []Driver {
	registry.Lock()
	defer registry.Unlock()
	return slices.Clone(registry.drivers)
}

// Register registers drv.
// Implementations call it once, from an init function.
// A driver with the same name as drv is replaced.
func Register(drv Driver) {
	registry.Lock()
	defer registry.Unlock()
	name := drv.Name()
	i := slices.IndexFunc(registry.drivers, func(d Driver) bool { return d.Name() == name })
	if i >= 0 {
		registry.drivers[i] = drv
		slog.Warn("driver replaced", "name", name)
		return
	}
	registry.drivers = append(registry.drivers, drv)
	slog.Debug("driver registered", "name", name)
}

// Open opens the first registered driver whose name
// contains name, ignoring case.
// The empty name matches every driver.
// Drivers that fail to open are skipped. If none opens,
// the last error is returned (ErrNotFound if nothing
// matched).
func Open(name string) (Driver, GPU, error) {
	name = strings.ToLower(name)
	err := ErrNotFound
	for _, d := range Drivers() {
		if !strings.Contains(strings.ToLower(d.Name()), name) {
			continue
		}
		var gpu GPU
		if gpu, err = d.Open(); err != nil {
			slog.Debug("driver failed to open", "name", d.Name(), "err", err)
			continue
		}
		return d, gpu, nil
	}
	return nil, nil, err
}
