// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gray16

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestMinMax(t *testing.T) {
	if floor, ceil := MinMax(nil); floor != 0 || ceil != 0 {
		t.Fatal(floor, ceil)
	}
	if floor, ceil := MinMax([]uint16{65535}); floor != 65535 || ceil != 65535 {
		t.Fatal(floor, ceil)
	}
	if floor, ceil := MinMax([]uint16{300, 7, 65000, 7, 12}); floor != 7 || ceil != 65000 {
		t.Fatal(floor, ceil)
	}
}

func TestScale(t *testing.T) {
	src := []uint16{0, 255, 256, 0x8000, 0xFFFF}
	dst := make([]uint8, len(src))
	Scale(dst, src)
	if !bytes.Equal(dst, []uint8{0, 0, 1, 128, 255}) {
		t.Fatal(dst)
	}
}

func TestStretch(t *testing.T) {
	src := []uint16{100, 200, 300, 400, 500, 600, 700, 800}
	dst := make([]uint8, len(src))
	floor, ceil := Stretch(dst, src)
	if floor != 100 || ceil != 800 {
		t.Fatal(floor, ceil)
	}
	if !bytes.Equal(dst, []uint8{0, 36, 72, 109, 145, 182, 218, 255}) {
		t.Fatal(dst)
	}
}

func TestStretch_flat(t *testing.T) {
	src := []uint16{4242, 4242, 4242}
	dst := []uint8{1, 2, 3}
	Stretch(dst, src)
	if !bytes.Equal(dst, []uint8{0, 0, 0}) {
		t.Fatal(dst)
	}
}

func TestPseudoColor(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.Pix[0] = 0
	src.Pix[1] = 255
	dst := PseudoColor(src)
	if c := dst.RGBAAt(0, 0); c != (color.RGBA{0, 0, 0, 255}) {
		t.Fatal(c)
	}
	if c := dst.RGBAAt(1, 0); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatal(c)
	}
}

func TestIron(t *testing.T) {
	if len(Iron) != 256 {
		t.Fatal(len(Iron))
	}
	// Each stop is hit exactly.
	for i, stop := range ironStops {
		if c := Iron[i*51]; c != stop {
			t.Fatalf("#%d: %v != %v", i, c, stop)
		}
	}
}
