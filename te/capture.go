// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package te

import (
	"fmt"
	"image"
	"log"
	"time"

	"github.com/maruel/go-thermalexpert/gray16"
	"periph.io/x/periph/conn/physic"
)

// Celsius returns t in °C.
func Celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Celsius)
}

// Capture reads one frame, retrying on failure.
//
// The image is the 8 most significant bits when agc is true, otherwise it is
// stretched over the frame range. Metadata.Temp is set when Opts.Radiometry is
// set. It returns ErrNoFrame once all attempts failed and ErrStreaming while a
// stream is running.
func (d *Dev) Capture(agc bool) (*Frame, error) {
	if d.streaming.Load() {
		return nil, ErrStreaming
	}
	return d.capture(agc, d.opts.Radiometry)
}

// CaptureImage is Capture with the AGC flag set by SetAGC.
func (d *Dev) CaptureImage() (*Frame, error) {
	return d.Capture(d.agc.Load())
}

// TemperatureStats acquires a frame and returns its coldest and hottest
// pixels.
func (d *Dev) TemperatureStats(agc bool) (*TempStats, error) {
	if d.streaming.Load() {
		return nil, ErrStreaming
	}
	s, err := d.acquire(agc, true)
	if err != nil {
		return nil, err
	}
	st := s.temp.Stats()
	return &st, nil
}

// TemperatureFrame acquires a frame and returns the temperature of every
// pixel.
func (d *Dev) TemperatureFrame(agc bool) (*TempFrame, error) {
	if d.streaming.Load() {
		return nil, ErrStreaming
	}
	s, err := d.acquire(agc, true)
	if err != nil {
		return nil, err
	}
	return s.temp, nil
}

// TemperatureAt acquires a frame and returns the temperature at (x, y).
//
// It returns 0 without reaching the camera when the coordinates are outside
// Bounds().
func (d *Dev) TemperatureAt(x, y int, agc bool) (physic.Temperature, error) {
	if !image.Pt(x, y).In(d.rect) {
		return 0, nil
	}
	t, err := d.TemperatureFrame(agc)
	if err != nil {
		return 0, err
	}
	return t.At(x, y), nil
}

//

// shot is the result of one acquisition.
type shot struct {
	raw      *RawFrame
	temp     *TempFrame
	agc      bool
	attempts int
	captured time.Time
}

func (s *shot) frame(seq uint64) *Frame {
	img := image.NewGray(s.raw.Rect)
	if s.agc {
		gray16.Scale(img.Pix, s.raw.Pix)
	} else {
		gray16.Stretch(img.Pix, s.raw.Pix)
	}
	f := &Frame{
		Gray: img,
		Raw:  s.raw,
		Metadata: Metadata{
			Seq:      seq,
			Captured: s.captured,
			AGC:      s.agc,
			Attempts: s.attempts,
		},
	}
	if s.temp != nil {
		st := s.temp.Stats()
		f.Metadata.Temp = &st
	}
	return f
}

func (d *Dev) capture(agc, withTemp bool) (*Frame, error) {
	s, err := d.acquire(agc, withTemp)
	if err != nil {
		return nil, err
	}
	return s.frame(d.seq.Add(1)), nil
}

// acquire reads one frame, and its temperatures if requested, while holding
// the camera.
//
// A failed read is retried after Opts.RetryDelay, up to Opts.Attempts reads.
// There is no wait after the last one.
func (d *Dev) acquire(agc, withTemp bool) (*shot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.h.family == 0 {
		return nil, ErrClosed
	}
	raw := NewRawFrame(d.rect)
	for i := 1; ; i++ {
		applied, ok := d.h.recv(agc, raw)
		if ok {
			d.stats.goodFrames.Add(1)
			s := &shot{raw: raw, agc: applied, attempts: i, captured: time.Now()}
			if withTemp {
				s.temp = NewTempFrame(d.rect)
				if !d.h.temperature(s.temp) {
					d.stats.noFrames.Add(1)
					return nil, fmt.Errorf("%w: temperature calculation failed", ErrNoFrame)
				}
			}
			return s, nil
		}
		d.stats.failedReads.Add(1)
		if i >= d.opts.Attempts {
			d.stats.noFrames.Add(1)
			log.Printf("%s: no frame after %d attempts", d, i)
			return nil, ErrNoFrame
		}
		log.Printf("%s: read failed, retrying (%d/%d)", d, i, d.opts.Attempts)
		time.Sleep(d.opts.RetryDelay)
	}
}
