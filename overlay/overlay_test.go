// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/maruel/go-thermalexpert/te"
	"periph.io/x/periph/conn/physic"
)

func TestMark(t *testing.T) {
	dst := RGBA(image.NewGray(image.Rect(0, 0, 100, 60)))
	black := color.RGBA{0, 0, 0, 0xFF}
	if c := dst.RGBAAt(50, 50); c != black {
		t.Fatal(c)
	}
	s := &te.TempStats{
		Min:    physic.ZeroCelsius + 20*physic.Celsius,
		Max:    physic.ZeroCelsius + 36500*physic.MilliCelsius,
		MinLoc: image.Pt(10, 10),
		MaxLoc: image.Pt(80, 40),
	}
	Mark(dst, s)
	for _, p := range []image.Point{{10, 10}, {5, 10}, {15, 10}, {10, 5}, {10, 15}} {
		if c := dst.RGBAAt(p.X, p.Y); c != Cold {
			t.Fatal(p, c)
		}
	}
	for _, p := range []image.Point{{80, 40}, {75, 40}, {85, 40}, {80, 35}, {80, 45}} {
		if c := dst.RGBAAt(p.X, p.Y); c != Hot {
			t.Fatal(p, c)
		}
	}
	for _, p := range []image.Point{{16, 10}, {10, 4}, {99, 0}, {0, 59}} {
		if c := dst.RGBAAt(p.X, p.Y); c != black {
			t.Fatal(p, c)
		}
	}
	// Both labels were drawn.
	if n := count(dst, image.Rect(17, 15, 53, 29), Cold); n == 0 {
		t.Fatal("no cold label")
	}
	if n := count(dst, image.Rect(38, 27, 74, 41), Hot); n == 0 {
		t.Fatal("no hot label")
	}
}

func TestCrosshair_edge(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	Crosshair(dst, image.Pt(0, 0), Hot)
	if c := dst.RGBAAt(3, 0); c != Hot {
		t.Fatal(c)
	}
	if c := dst.RGBAAt(1, 1); c == Hot {
		t.Fatal(c)
	}
	// Tiny images don't fit the label; it must not panic.
	Label(dst, image.Pt(2, 2), Hot, "36.5C")
}

func count(img *image.RGBA, r image.Rectangle, c color.RGBA) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}
