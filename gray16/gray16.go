// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gray16 reduces 16 bits thermal samples to 8 bits intensity.
package gray16

import (
	"image"
	"image/color"
)

// MinMax returns the smallest and the largest sample.
//
// It returns 0, 0 for an empty slice.
func MinMax(src []uint16) (uint16, uint16) {
	if len(src) == 0 {
		return 0, 0
	}
	floor, ceil := src[0], src[0]
	for _, v := range src[1:] {
		if v < floor {
			floor = v
		}
		if v > ceil {
			ceil = v
		}
	}
	return floor, ceil
}

// Scale reduces samples that already went through a gain control by keeping
// the 8 most significant bits.
//
// dst must be at least as long as src.
func Scale(dst []uint8, src []uint16) {
	for i, v := range src {
		dst[i] = uint8(v >> 8)
	}
}

// Stretch maps the [min, max] range of src linearly onto [0, 255] very
// naively without gamma. A flat frame is all 0.
//
// dst must be at least as long as src. It returns the range used.
func Stretch(dst []uint8, src []uint16) (uint16, uint16) {
	floor, ceil := MinMax(src)
	delta := int(ceil - floor)
	if delta == 0 {
		for i := range src {
			dst[i] = 0
		}
		return floor, ceil
	}
	for i, v := range src {
		dst[i] = uint8(int(v-floor) * 255 / delta)
	}
	return floor, ceil
}

// Iron is a 256 colors false color palette going from black through blue,
// magenta, orange and yellow to white.
var Iron color.Palette

// PseudoColor maps each intensity of src to the Iron palette.
func PseudoColor(src *image.Gray) *image.RGBA {
	r := src.Bounds()
	dst := image.NewRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		s := src.Pix[(y-r.Min.Y)*src.Stride:]
		d := dst.Pix[(y-r.Min.Y)*dst.Stride:]
		for x := 0; x < r.Dx(); x++ {
			c := Iron[s[x]].(color.RGBA)
			d[4*x+0] = c.R
			d[4*x+1] = c.G
			d[4*x+2] = c.B
			d[4*x+3] = 0xFF
		}
	}
	return dst
}

//

// ironStops are evenly spaced.
var ironStops = []color.RGBA{
	{0x00, 0x00, 0x00, 0xFF},
	{0x20, 0x00, 0x8C, 0xFF},
	{0xB4, 0x00, 0x96, 0xFF},
	{0xFF, 0x64, 0x00, 0xFF},
	{0xFF, 0xD2, 0x00, 0xFF},
	{0xFF, 0xFF, 0xFF, 0xFF},
}

func init() {
	Iron = make(color.Palette, 256)
	n := len(ironStops) - 1
	for i := range Iron {
		// Position in units of 1/255 of the whole ramp, scaled by the number of
		// segments.
		p := i * n
		seg := p / 255
		if seg >= n {
			seg = n - 1
		}
		f := p - seg*255
		a, b := ironStops[seg], ironStops[seg+1]
		Iron[i] = color.RGBA{
			R: lerp(a.R, b.R, f),
			G: lerp(a.G, b.G, f),
			B: lerp(a.B, b.B, f),
			A: 0xFF,
		}
	}
}

// lerp interpolates between a and b, f being in [0, 255].
func lerp(a, b uint8, f int) uint8 {
	return uint8((int(a)*(255-f) + int(b)*f) / 255)
}
