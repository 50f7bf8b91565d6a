// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package record

import (
	"bytes"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/go-thermalexpert/te"
	"github.com/maruel/go-thermalexpert/tetest"
	"github.com/vmihailenco/msgpack/v5"
	"periph.io/x/periph/conn/physic"
)

func TestWriter(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.terec")
	id := uuid.New()
	w, err := Create(p, id)
	if err != nil {
		t.Fatal(err)
	}
	if w.ID() != id {
		t.Fatal(w.ID())
	}
	now := time.Now()
	f := &te.Frame{
		Gray: image.NewGray(image.Rect(0, 0, 3, 2)),
		Raw:  te.NewRawFrame(image.Rect(0, 0, 3, 2)),
		Metadata: te.Metadata{
			Seq:      42,
			Captured: now,
			Temp: &te.TempStats{
				Min:    physic.ZeroCelsius,
				Max:    physic.ZeroCelsius + 37*physic.Celsius,
				MinLoc: image.Pt(2, 0),
				MaxLoc: image.Pt(1, 1),
			},
		},
	}
	copy(f.Pix, []uint8{1, 2, 3, 4, 5, 6})
	copy(f.Raw.Pix, []uint16{100, 200, 300, 400, 500, 600})
	if err := w.Record(f); err != nil {
		t.Fatal(err)
	}
	f2 := *f
	f2.Metadata.Seq = 43
	f2.Metadata.Temp = nil
	f2.Metadata.AGC = true
	if err := w.Record(&f2); err != nil {
		t.Fatal(err)
	}
	if n := w.Frames(); n != 2 {
		t.Fatal(n)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != os.ErrClosed {
		t.Fatal(err)
	}
	if err := w.Record(f); err != os.ErrClosed {
		t.Fatal(err)
	}

	r, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Header.ID != id.String() || r.Header.Version != Version {
		t.Fatalf("%+v", r.Header)
	}
	e, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if e.Seq != 42 || e.Width != 3 || e.Height != 2 || e.AGC || !e.Captured.Equal(now) {
		t.Fatalf("%+v", e)
	}
	if !bytes.Equal(e.Image().Pix, f.Pix) || e.Image().GrayAt(2, 1).Y != 6 {
		t.Fatal(e.Pix)
	}
	if len(e.Raw) != 6 || e.Raw[5] != 600 {
		t.Fatal(e.Raw)
	}
	if e.Temp == nil || e.Temp.Stats() != *f.Metadata.Temp {
		t.Fatalf("%+v", e.Temp)
	}
	e, err = r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if e.Seq != 43 || !e.AGC || e.Temp != nil {
		t.Fatalf("%+v", e)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatal(err)
	}
}

func TestOpen_invalid(t *testing.T) {
	d := t.TempDir()
	if _, err := Open(filepath.Join(d, "missing")); err == nil {
		t.Fatal("expected error")
	}
	p := filepath.Join(d, "bad")
	b, err := msgpack.Marshal(&Header{Magic: "NOPE", Version: Version})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(p); err == nil {
		t.Fatal("expected error")
	}
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(p); err == nil {
		t.Fatal("expected error")
	}
}

// TestStream records a live stream from the fake camera.
func TestStream(t *testing.T) {
	drv := tetest.NewDriver()
	c := tetest.NewEngine(8, 6)
	<-drv.Plug(0, c)
	d, err := te.New(drv, te.ModelEngine, 0, &te.Opts{Attempts: 1, Radiometry: true})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	got := make(chan struct{}, 100)
	if err := d.StartStream(func(*te.Frame) { got <- struct{}{} }, 200*physic.Hertz); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "s.terec")
	w, err := Create(p, d.StreamID())
	if err != nil {
		t.Fatal(err)
	}
	if err := d.StartRecording(w); err != nil {
		t.Fatal(err)
	}
	for d.Stats().Recorded < 3 {
		<-got
	}
	if err := d.StopStream(); err != nil {
		t.Fatal(err)
	}
	r, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Header.ID != w.ID().String() {
		t.Fatal(r.Header.ID)
	}
	n := 0
	last := uint64(0)
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if e.Seq <= last || e.Temp == nil || e.Width != 8 || len(e.Raw) != 48 {
			t.Fatalf("%+v", e)
		}
		last = e.Seq
		n++
	}
	if uint64(n) != d.Stats().Recorded {
		t.Fatal(n, d.Stats())
	}
}
