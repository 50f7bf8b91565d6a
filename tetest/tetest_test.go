// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tetest

import (
	"testing"

	"github.com/maruel/go-thermalexpert/te"
)

func TestDriver(t *testing.T) {
	d := NewDriver()
	var _ te.Driver = d
	var events []te.HotplugEvent
	d.SetHotplugCallback(func(e te.HotplugEvent) { events = append(events, e) })
	c := NewEngine(2, 2)
	<-d.Plug(2, c)
	if d.OpenB(te.ModelQ1, 2) != nil {
		t.Fatal("wrong family")
	}
	if d.OpenA(1) != nil {
		t.Fatal("empty slot")
	}
	h := d.OpenA(2)
	if h == nil || !c.IsOpen() {
		t.Fatal("expected open")
	}
	if d.OpenA(2) != nil {
		t.Fatal("already opened")
	}
	<-d.Unplug(2)
	buf := make([]uint16, 4)
	if h.RecvImage(buf, false) == success {
		t.Fatal("camera is gone")
	}
	h.Close()
	if c.IsOpen() {
		t.Fatal("expected closed")
	}
	if len(events) != 2 || events[0] != te.Arrival || events[1] != te.Removal {
		t.Fatal(events)
	}
}

func TestEngine(t *testing.T) {
	c := NewEngine(2, 2)
	c.SetFrames([]uint16{5000, 6000, 7000, 9000}, []uint16{7500, 7500, 7500, 7500})
	c.open = true
	e := engine{c}
	buf := make([]uint16, 4)
	if e.RecvImage(buf, true) != success {
		t.Fatal("read failed")
	}
	if buf[0] != 0 || buf[3] != 65535 || buf[1] != 16383 {
		t.Fatal(buf)
	}
	if e.CalcTemp(buf) != success {
		t.Fatal("calc failed")
	}
	if buf[0] != 5000 || buf[3] != 9000 {
		t.Fatal(buf)
	}
	c.SetEmissivity(0.5)
	if e.CalcTemp(buf) != success || buf[3] != 13000 {
		t.Fatal(buf)
	}
	// The last frame repeats.
	for i := 0; i < 2; i++ {
		if e.RecvImage(buf, false) != success || buf[0] != 7500 {
			t.Fatal(buf)
		}
	}
	c.Fail(1)
	if e.RecvImage(buf, false) == success {
		t.Fatal("expected failure")
	}
	if e.RecvImage(buf, false) != success {
		t.Fatal("expected success")
	}
	if n := c.Reads(); n != 5 {
		t.Fatal(n)
	}
}

func TestQV(t *testing.T) {
	c := NewQ1V1(2, 1)
	c.SetFrames([]uint16{6000, 8000})
	c.open = true
	q := qv{c}
	f := make([]float32, 2)
	if q.RecvImageFloat(f) != success || f[0] != 6000 || f[1] != 8000 {
		t.Fatal(f)
	}
	if q.CalcEntireTemp(f) != success || f[0] != 10 || f[1] != 30 {
		t.Fatal(f)
	}
	if q.ShutterCalibrationOn() != success || c.Calibrations() != 1 {
		t.Fatal("calibration")
	}
	c.FailCalibration(true)
	if q.ShutterCalibrationOn() == success || c.Calibrations() != 1 {
		t.Fatal("calibration")
	}
}

func TestNoise(t *testing.T) {
	c := NewEngine(16, 12)
	c.open = true
	buf := make([]uint16, 16*12)
	if (engine{c}).RecvImage(buf, false) != success {
		t.Fatal("read failed")
	}
	for _, v := range buf {
		if v < 6000 || v > 9000 {
			t.Fatal(v)
		}
	}
}
