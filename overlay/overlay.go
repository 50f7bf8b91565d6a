// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package overlay annotates thermal images with their coldest and hottest
// points.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/maruel/go-thermalexpert/te"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Colors used by Mark.
var (
	Cold = color.RGBA{0, 0, 0xFF, 0xFF}
	Hot  = color.RGBA{0xFF, 0, 0, 0xFF}
)

// Arm is the length of a crosshair arm in pixels.
const Arm = 5

// RGBA returns a color copy of src, suitable for Mark.
func RGBA(src image.Image) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// Mark draws a blue crosshair on the coldest pixel and a red one on the
// hottest, each labeled with its temperature in °C.
func Mark(dst draw.Image, s *te.TempStats) {
	Crosshair(dst, s.MinLoc, Cold)
	Crosshair(dst, s.MaxLoc, Hot)
	Label(dst, s.MinLoc, Cold, fmt.Sprintf("%.1fC", te.Celsius(s.Min)))
	Label(dst, s.MaxLoc, Hot, fmt.Sprintf("%.1fC", te.Celsius(s.Max)))
}

// Crosshair draws a + centered on p. Pixels outside dst are skipped.
func Crosshair(dst draw.Image, p image.Point, c color.Color) {
	r := dst.Bounds()
	for i := -Arm; i <= Arm; i++ {
		if q := image.Pt(p.X+i, p.Y); q.In(r) {
			dst.Set(q.X, q.Y, c)
		}
		if q := image.Pt(p.X, p.Y+i); q.In(r) {
			dst.Set(q.X, q.Y, c)
		}
	}
}

// Label writes s next to p, moved to stay inside dst when possible.
func Label(dst draw.Image, p image.Point, c color.Color, s string) {
	face := basicfont.Face7x13
	r := dst.Bounds()
	w := font.MeasureString(face, s).Ceil()
	x := p.X + Arm + 2
	if x+w > r.Max.X {
		x = p.X - Arm - 2 - w
	}
	if x < r.Min.X {
		x = r.Min.X
	}
	y := p.Y - 2
	if y-face.Ascent < r.Min.Y {
		y = p.Y + Arm + face.Ascent
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
