// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package statlog

import (
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/maruel/go-thermalexpert/te"
	"periph.io/x/periph/conn/physic"
)

func TestDB(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "sub", "stats.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	now := time.Unix(1500000000, 123)
	for i := 1; i <= 3; i++ {
		f := &te.Frame{
			Metadata: te.Metadata{
				Seq:      uint64(i),
				Captured: now.Add(time.Duration(i) * time.Second),
				Temp: &te.TempStats{
					Min:    physic.ZeroCelsius + physic.Temperature(i)*physic.Celsius,
					Max:    physic.ZeroCelsius + 40*physic.Celsius,
					MinLoc: image.Pt(i, 0),
					MaxLoc: image.Pt(0, i),
				},
			},
		}
		if err := d.Insert("s1", f); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.Insert("s1", &te.Frame{}); err == nil {
		t.Fatal("frame without temperature")
	}
	s, err := d.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 2 {
		t.Fatal(s)
	}
	if s[0].Seq != 3 || s[1].Seq != 2 || s[0].Session != "s1" {
		t.Fatalf("%+v", s)
	}
	if !s[0].Captured.Equal(now.Add(3 * time.Second)) {
		t.Fatal(s[0].Captured)
	}
	if s[0].Min != physic.ZeroCelsius+3*physic.Celsius || s[0].Max != physic.ZeroCelsius+40*physic.Celsius {
		t.Fatalf("%+v", s[0])
	}
	if s[0].MinLoc != image.Pt(3, 0) || s[0].MaxLoc != image.Pt(0, 3) {
		t.Fatalf("%+v", s[0])
	}
}

func TestOpen_reopen(t *testing.T) {
	p := filepath.Join(t.TempDir(), "stats.db")
	d, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	f := &te.Frame{Metadata: te.Metadata{Seq: 1, Temp: &te.TempStats{}}}
	if err := d.Insert("a", f); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if d, err = Open(p); err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	s, err := d.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 1 || s[0].Session != "a" {
		t.Fatalf("%+v", s)
	}
}
