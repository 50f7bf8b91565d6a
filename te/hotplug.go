// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package te

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// HotplugEvent is a USB event reported by the SDK.
type HotplugEvent uint8

// Valid values for HotplugEvent.
const (
	Arrival HotplugEvent = 1
	Removal HotplugEvent = 2
)

func (e HotplugEvent) String() string {
	switch e {
	case Arrival:
		return "Arrival"
	case Removal:
		return "Removal"
	default:
		return fmt.Sprintf("HotplugEvent(%d)", uint8(e))
	}
}

// SetHotplugCallback sets the process wide USB event callback. The previous
// one is replaced; nil removes it.
//
// fn is called from a goroutine owned by the driver, concurrently with
// anything else. It must return quickly and must not block on a Dev.
func SetHotplugCallback(drv Driver, fn func(e HotplugEvent)) {
	hotplugMu.Lock()
	defer hotplugMu.Unlock()
	hotplugFn.Store(&hotplugSlot{fn: fn})
	if !hotplugSet[drv] {
		drv.SetHotplugCallback(onHotplug)
		hotplugSet[drv] = true
	}
}

//

type hotplugSlot struct {
	fn func(e HotplugEvent)
}

var (
	hotplugMu  sync.Mutex
	hotplugSet = map[Driver]bool{}
	hotplugFn  atomic.Pointer[hotplugSlot]
)

// onHotplug is the only function handed to drivers.
func onHotplug(e HotplugEvent) {
	if s := hotplugFn.Load(); s != nil && s.fn != nil {
		s.fn(e)
	}
}
