// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package te

import (
	"fmt"
	"image"

	"github.com/maruel/go-thermalexpert/te/internal"
)

// handle is the single place aware of the SDK family differences.
type handle struct {
	family Family
	a      HandleA
	b      HandleB
}

func openHandle(drv Driver, m Model, slot int) (handle, error) {
	var h handle
	switch m.Family() {
	case FamilyA:
		if a := drv.OpenA(slot); a != nil {
			h = handle{family: FamilyA, a: a}
		}
	case FamilyB:
		if b := drv.OpenB(m, slot); b != nil {
			h = handle{family: FamilyB, b: b}
		}
	}
	if h.family == 0 {
		return h, fmt.Errorf("te: %s: failed to open %s in slot %d", drv, m, slot)
	}
	if r := h.bounds(); r.Empty() {
		h.close()
		return handle{}, fmt.Errorf("te: %s: invalid frame size %dx%d", drv, r.Dx(), r.Dy())
	}
	return h, nil
}

func (h *handle) bounds() image.Rectangle {
	switch h.family {
	case FamilyA:
		return image.Rect(0, 0, h.a.Width(), h.a.Height())
	case FamilyB:
		return image.Rect(0, 0, h.b.Width(), h.b.Height())
	default:
		return image.Rectangle{}
	}
}

// recv reads one frame into dst.
//
// It returns true in agcApplied when the samples went through the core gain
// control. The Q1/V1 cores apply it on their 16 bits output; their float
// output is used otherwise.
func (h *handle) recv(agc bool, dst *RawFrame) (agcApplied, ok bool) {
	switch h.family {
	case FamilyA:
		return agc, h.a.RecvImage(dst.Pix, agc) == internal.Success
	case FamilyB:
		if agc {
			return true, h.b.RecvImage(dst.Pix) == internal.Success
		}
		buf := make([]float32, len(dst.Pix))
		if h.b.RecvImageFloat(buf) != internal.Success {
			return false, false
		}
		for i, v := range buf {
			dst.Pix[i] = internal.ClampU16(v)
		}
		return false, true
	default:
		return false, false
	}
}

// temperature converts the last received frame into dst.
func (h *handle) temperature(dst *TempFrame) bool {
	switch h.family {
	case FamilyA:
		buf := make([]uint16, len(dst.Pix))
		if h.a.CalcTemp(buf) != internal.Success {
			return false
		}
		for i, v := range buf {
			dst.Pix[i] = internal.RawUnit(v).ToT()
		}
		return true
	case FamilyB:
		buf := make([]float32, len(dst.Pix))
		if h.b.CalcEntireTemp(buf) != internal.Success {
			return false
		}
		for i, v := range buf {
			dst.Pix[i] = internal.CelsiusToT(v)
		}
		return true
	default:
		return false
	}
}

func (h *handle) setEmissivity(e float32) {
	switch h.family {
	case FamilyA:
		h.a.SetEmissivity(e)
	case FamilyB:
		h.b.SetEmissivity(e)
	}
}

func (h *handle) calibrate() bool {
	switch h.family {
	case FamilyA:
		return h.a.ShutterCalibrationOn() == internal.Success
	case FamilyB:
		return h.b.ShutterCalibrationOn() == internal.Success
	default:
		return false
	}
}

func (h *handle) close() {
	switch h.family {
	case FamilyA:
		h.a.Close()
	case FamilyB:
		h.b.Close()
	}
}
