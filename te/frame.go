// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package te

import (
	"image"
	"image/color"
	"time"

	"github.com/maruel/go-thermalexpert/gray16"
	"periph.io/x/periph/conn/physic"
)

// RawFrame implements image.Image. It is essentially a Gray16 holding the
// samples in native order as read from the camera.
//
// It is never modified once returned.
type RawFrame struct {
	Pix  []uint16
	Rect image.Rectangle
}

// NewRawFrame returns a zeroed frame.
func NewRawFrame(r image.Rectangle) *RawFrame {
	return &RawFrame{Pix: make([]uint16, r.Dx()*r.Dy()), Rect: r}
}

func (r *RawFrame) ColorModel() color.Model {
	return color.Gray16Model
}

func (r *RawFrame) Bounds() image.Rectangle {
	return r.Rect
}

func (r *RawFrame) At(x, y int) color.Color {
	return color.Gray16{r.Gray16At(x, y)}
}

// Gray16At returns 0 outside the bounds.
func (r *RawFrame) Gray16At(x, y int) uint16 {
	if !image.Pt(x, y).In(r.Rect) {
		return 0
	}
	return r.Pix[(y-r.Rect.Min.Y)*r.Rect.Dx()+x-r.Rect.Min.X]
}

// MinMax returns the smallest and the largest sample.
func (r *RawFrame) MinMax() (uint16, uint16) {
	return gray16.MinMax(r.Pix)
}

// TempFrame is the temperature of each pixel of a RawFrame.
type TempFrame struct {
	Pix  []physic.Temperature
	Rect image.Rectangle
}

// NewTempFrame returns a frame at absolute zero.
func NewTempFrame(r image.Rectangle) *TempFrame {
	return &TempFrame{Pix: make([]physic.Temperature, r.Dx()*r.Dy()), Rect: r}
}

// At returns 0 outside the bounds.
func (t *TempFrame) At(x, y int) physic.Temperature {
	if !image.Pt(x, y).In(t.Rect) {
		return 0
	}
	return t.Pix[(y-t.Rect.Min.Y)*t.Rect.Dx()+x-t.Rect.Min.X]
}

// Stats returns the coldest and hottest pixels in a single pass.
//
// On ties, the first one in row-major order wins.
func (t *TempFrame) Stats() TempStats {
	if len(t.Pix) == 0 {
		return TempStats{}
	}
	lo, hi := 0, 0
	for i := 1; i < len(t.Pix); i++ {
		v := t.Pix[i]
		if v < t.Pix[lo] {
			lo = i
		}
		if v > t.Pix[hi] {
			hi = i
		}
	}
	w := t.Rect.Dx()
	return TempStats{
		Min:    t.Pix[lo],
		Max:    t.Pix[hi],
		MinLoc: t.Rect.Min.Add(image.Pt(lo%w, lo/w)),
		MaxLoc: t.Rect.Min.Add(image.Pt(hi%w, hi/w)),
	}
}

// TempStats is the extrema of a frame.
type TempStats struct {
	Min    physic.Temperature
	Max    physic.Temperature
	MinLoc image.Point
	MaxLoc image.Point
}

// Metadata is constructed at each acquisition.
type Metadata struct {
	Seq      uint64     // Incremented at each acquisition of this Dev.
	Captured time.Time  //
	AGC      bool       // The core applied its gain control; the image is the 8 most significant bits.
	Attempts int        // Reads it took, at most Opts.Attempts.
	Temp     *TempStats // Set when Opts.Radiometry is set.
}

// Frame is a Thermal Expert frame, containing the 8 bits display image and the
// 16 bits samples it was derived from.
type Frame struct {
	*image.Gray
	Raw      *RawFrame
	Metadata Metadata
}
