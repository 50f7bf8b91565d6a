// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package te

import (
	"image"
	"image/color"
	"testing"
	"time"

	"periph.io/x/periph/conn/physic"
)

func TestRawFrame(t *testing.T) {
	r := NewRawFrame(image.Rect(0, 0, 4, 2))
	for i := range r.Pix {
		r.Pix[i] = uint16(100 * (i + 1))
	}
	if v := r.Gray16At(1, 1); v != 600 {
		t.Fatal(v)
	}
	if c := r.At(3, 0); c != (color.Gray16{400}) {
		t.Fatal(c)
	}
	if v := r.Gray16At(4, 0); v != 0 {
		t.Fatal(v)
	}
	if floor, ceil := r.MinMax(); floor != 100 || ceil != 800 {
		t.Fatal(floor, ceil)
	}
}

func TestTempFrame_Stats(t *testing.T) {
	data := []struct {
		pix      []physic.Temperature
		expected TempStats
	}{
		{
			[]physic.Temperature{1, 2, 3, 4, 5, 6, 7, 8},
			TempStats{Min: 1, Max: 8, MinLoc: image.Pt(0, 0), MaxLoc: image.Pt(3, 1)},
		},
		{
			// Ties are resolved to the first pixel in row-major order.
			[]physic.Temperature{5, 1, 1, 9, 9, 5, 1, 9},
			TempStats{Min: 1, Max: 9, MinLoc: image.Pt(1, 0), MaxLoc: image.Pt(3, 0)},
		},
		{
			[]physic.Temperature{3, 3, 3, 3, 3, 3, 3, 3},
			TempStats{Min: 3, Max: 3, MinLoc: image.Pt(0, 0), MaxLoc: image.Pt(0, 0)},
		},
		{
			[]physic.Temperature{9, 8, 7, 6, 5, 4, 3, 2},
			TempStats{Min: 2, Max: 9, MinLoc: image.Pt(3, 1), MaxLoc: image.Pt(0, 0)},
		},
	}
	for i, line := range data {
		f := &TempFrame{Pix: line.pix, Rect: image.Rect(0, 0, 4, 2)}
		if actual := f.Stats(); actual != line.expected {
			t.Fatalf("#%d: %+v != %+v", i, actual, line.expected)
		}
	}
}

func TestTempFrame_At(t *testing.T) {
	f := NewTempFrame(image.Rect(0, 0, 2, 2))
	f.Pix[3] = physic.ZeroCelsius
	if v := f.At(1, 1); v != physic.ZeroCelsius {
		t.Fatal(v)
	}
	for _, p := range []image.Point{{-1, 0}, {2, 0}, {0, 2}, {0, -1}} {
		if v := f.At(p.X, p.Y); v != 0 {
			t.Fatal(p, v)
		}
	}
}

func TestCelsius(t *testing.T) {
	if v := Celsius(physic.ZeroCelsius + 36500*physic.MilliCelsius); v != 36.5 {
		t.Fatal(v)
	}
	if v := Celsius(physic.ZeroCelsius - 10*physic.Celsius); v != -10 {
		t.Fatal(v)
	}
}

func TestPeriod(t *testing.T) {
	if p := period(30 * physic.Hertz); p != 33333333*time.Nanosecond {
		t.Fatal(p)
	}
	if p := period(physic.Hertz); p != time.Second {
		t.Fatal(p)
	}
}

func TestShot_frame(t *testing.T) {
	raw := NewRawFrame(image.Rect(0, 0, 3, 1))
	copy(raw.Pix, []uint16{0x1000, 0x8000, 0xFFFF})
	f := (&shot{raw: raw, agc: true, attempts: 2}).frame(7)
	if f.Pix[0] != 0x10 || f.Pix[1] != 0x80 || f.Pix[2] != 0xFF {
		t.Fatal(f.Pix)
	}
	if f.Metadata.Seq != 7 || f.Metadata.Attempts != 2 || !f.Metadata.AGC || f.Metadata.Temp != nil {
		t.Fatalf("%+v", f.Metadata)
	}
	f = (&shot{raw: raw}).frame(8)
	if f.Pix[0] != 0 || f.Pix[2] != 255 {
		t.Fatal(f.Pix)
	}
}

func TestModel(t *testing.T) {
	data := []struct {
		m        Model
		p        Product
		expected bool
	}{
		{ModelQ1, ProductQ1V1, true},
		{ModelV1, ProductQ1V1, true},
		{ModelEngine, ProductQ1V1, false},
		{ModelQ1, ProductEV2, false},
		{ModelEngine, ProductEQ1, true},
		{ModelEngine, ProductEV1, true},
		{ModelEngine, ProductEQ2, true},
		{ModelEngine, ProductEV2, true},
		{ModelEngine, Product(42), false},
		{Model(42), ProductQ1V1, false},
	}
	for i, line := range data {
		if actual := line.m.Accepts(line.p); actual != line.expected {
			t.Fatalf("#%d: %s.Accepts(%s) = %t", i, line.m, line.p, actual)
		}
	}
}

func TestParseModel(t *testing.T) {
	data := []struct {
		in       string
		expected Model
	}{
		{"q1", ModelQ1},
		{"TE-Q1", ModelQ1},
		{"V1", ModelV1},
		{"engine", ModelEngine},
	}
	for i, line := range data {
		m, err := ParseModel(line.in)
		if err != nil || m != line.expected {
			t.Fatalf("#%d: %s: %s, %v", i, line.in, m, err)
		}
	}
	if _, err := ParseModel("eq3"); err == nil {
		t.Fatal("expected error")
	}
}
