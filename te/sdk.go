// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package te

import (
	"fmt"
	"sort"
	"sync"
)

// HandleA is an opened engine core (TE-EQ1, TE-EV1, TE-EQ2, TE-EV2) as exposed
// by the vendor SDK. This interface can be mocked.
//
// Methods returning an int return the vendor status, 1 being success.
type HandleA interface {
	Width() int
	Height() int
	// RecvImage reads one frame of Width()*Height() samples. When agc is true,
	// the core applies its own gain control before sending.
	RecvImage(buf []uint16, agc bool) int
	// CalcTemp converts the last received frame into temperatures, in units of
	// 0.01°C offset by 50°C.
	CalcTemp(buf []uint16) int
	SetEmissivity(e float32)
	ShutterCalibrationOn() int
	Close()
}

// HandleB is an opened TE-Q1 or TE-V1 core as exposed by the vendor SDK. This
// interface can be mocked.
//
// Methods returning an int return the vendor status, 1 being success.
type HandleB interface {
	Width() int
	Height() int
	// RecvImage reads one frame with the core gain control applied.
	RecvImage(buf []uint16) int
	// RecvImageFloat reads one frame without gain control.
	RecvImageFloat(buf []float32) int
	// CalcEntireTemp converts the last received frame into °C.
	CalcEntireTemp(buf []float32) int
	SetEmissivity(e float32)
	ShutterCalibrationOn() int
	Close()
}

// ScanData is one slot as reported by Driver.ScanTE.
type ScanData struct {
	Connected bool
	Product   Product
	CoreID    uint32
}

// Driver is the vendor SDK entry point. This interface can be mocked, see
// package tetest.
type Driver interface {
	fmt.Stringer
	// ScanTE fills devs, up to MaxSlots entries, and returns the vendor status.
	ScanTE(devs []ScanData) int
	// OpenA returns nil on failure.
	OpenA(slot int) HandleA
	// OpenB returns nil on failure. m is either ModelQ1 or ModelV1.
	OpenB(m Model, slot int) HandleB
	// SetHotplugCallback registers the single USB event callback. It is called
	// from a thread owned by the SDK.
	SetHotplugCallback(fn func(HotplugEvent))
}

// Register makes a Driver available by name to OpenDriver.
//
// It is meant to be called from the init() function of the package
// implementing the vendor binding.
func Register(name string, d Driver) error {
	if name == "" || d == nil {
		return fmt.Errorf("te: invalid driver %q", name)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := byName[name]; ok {
		return fmt.Errorf("te: driver %q already registered", name)
	}
	byName[name] = d
	return nil
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	mu.Lock()
	defer mu.Unlock()
	return names()
}

// OpenDriver returns a registered Driver. An empty name selects the driver
// when exactly one is registered.
func OpenDriver(name string) (Driver, error) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" && len(byName) == 1 {
		for _, d := range byName {
			return d, nil
		}
	}
	d, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("te: unknown driver %q; registered: %v", name, names())
	}
	return d, nil
}

//

var (
	mu     sync.Mutex
	byName = map[string]Driver{}
)

func names() []string {
	out := make([]string, 0, len(byName))
	for n := range byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
