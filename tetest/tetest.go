// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tetest implements a fake Thermal Expert SDK.
package tetest

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/maruel/go-thermalexpert/gray16"
	"github.com/maruel/go-thermalexpert/te"
)

// Driver is a fake for te.Driver. Each slot can hold a Camera.
type Driver struct {
	mu       sync.Mutex
	cams     [te.MaxSlots]*Camera
	scanFail bool
	hotplug  func(e te.HotplugEvent)
}

// NewDriver returns a fake SDK with no camera plugged.
func NewDriver() *Driver {
	return &Driver{}
}

// Demo returns a fake SDK with an engine core in slot 0 and a Q1 core in slot
// 1, both rendering noise at about 9Hz.
func Demo() *Driver {
	d := NewDriver()
	a := NewEngine(384, 288)
	a.SetLatency(111 * time.Millisecond)
	b := NewQ1V1(384, 288)
	b.SetLatency(111 * time.Millisecond)
	d.cams[0] = a
	d.cams[1] = b
	return d
}

func (d *Driver) String() string {
	return "tetest"
}

// Plug puts c in slot and sends te.Arrival from a new goroutine. The
// returned channel is closed once the callback returned.
func (d *Driver) Plug(slot int, c *Camera) <-chan struct{} {
	d.mu.Lock()
	d.cams[slot] = c
	d.mu.Unlock()
	c.mu.Lock()
	c.gone = false
	c.mu.Unlock()
	return d.send(te.Arrival)
}

// Unplug empties slot and sends te.Removal from a new goroutine. The camera
// fails all calls from now on.
func (d *Driver) Unplug(slot int) <-chan struct{} {
	d.mu.Lock()
	c := d.cams[slot]
	d.cams[slot] = nil
	d.mu.Unlock()
	if c != nil {
		c.mu.Lock()
		c.gone = true
		c.mu.Unlock()
	}
	return d.send(te.Removal)
}

// FailScan makes ScanTE fail.
func (d *Driver) FailScan(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanFail = fail
}

func (d *Driver) ScanTE(devs []te.ScanData) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scanFail {
		return 0
	}
	for i := range devs {
		devs[i] = te.ScanData{}
		if i < len(d.cams) && d.cams[i] != nil {
			devs[i] = te.ScanData{Connected: true, Product: d.cams[i].product, CoreID: d.cams[i].coreID}
		}
	}
	return success
}

func (d *Driver) OpenA(slot int) te.HandleA {
	if c := d.open(slot, te.FamilyA); c != nil {
		return engine{c}
	}
	return nil
}

func (d *Driver) OpenB(m te.Model, slot int) te.HandleB {
	if c := d.open(slot, te.FamilyB); c != nil {
		return qv{c}
	}
	return nil
}

func (d *Driver) SetHotplugCallback(fn func(e te.HotplugEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hotplug = fn
}

func (d *Driver) open(slot int, f te.Family) *Camera {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot < 0 || slot >= len(d.cams) || d.cams[slot] == nil {
		return nil
	}
	c := d.cams[slot]
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.product.Family() != f || c.open || c.gone {
		return nil
	}
	c.open = true
	return c
}

// send calls the callback from another goroutine, like the SDK USB thread.
func (d *Driver) send(e te.HotplugEvent) <-chan struct{} {
	d.mu.Lock()
	fn := d.hotplug
	d.mu.Unlock()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if fn != nil {
			fn(e)
		}
	}()
	return done
}

// Camera is a fake core. Its samples are temperatures in 0.01°C offset by
// 50°C, like the engine cores calibration table.
type Camera struct {
	product te.Product
	coreID  uint32
	w, h    int

	mu         sync.Mutex
	frames     [][]uint16
	next       int
	latency    time.Duration
	noise      *noise
	last       []uint16
	fail       int
	calFail    bool
	emissivity float32
	reads      int
	cals       int
	open       bool
	gone       bool
}

// New returns a fake core reporting product p.
func New(p te.Product, w, h int) *Camera {
	return &Camera{product: p, coreID: 0x1234 + uint32(p), w: w, h: h, noise: makeNoise(w, h)}
}

// NewEngine returns a fake TE-EQ1.
func NewEngine(w, h int) *Camera {
	return New(te.ProductEQ1, w, h)
}

// NewQ1V1 returns a fake TE-Q1.
func NewQ1V1(w, h int) *Camera {
	return New(te.ProductQ1V1, w, h)
}

// SetFrames sets the frames returned in order by the reads; the last one
// repeats. Without frames, a moving noise pattern is rendered.
func (c *Camera) SetFrames(frames ...[]uint16) {
	for i, f := range frames {
		if len(f) != c.w*c.h {
			panic(fmt.Sprintf("frame %d: %d samples; expected %d", i, len(f), c.w*c.h))
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.next = 0
}

// SetLatency sets how long each read takes.
func (c *Camera) SetLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = d
}

// Fail makes the next n reads fail.
func (c *Camera) Fail(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = n
}

// FailCalibration makes the shutter calibration fail.
func (c *Camera) FailCalibration(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calFail = fail
}

// Reads returns the number of image reads, successful or not.
func (c *Camera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Calibrations returns the number of successful shutter calibrations.
func (c *Camera) Calibrations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cals
}

// Emissivity returns the last value set by the host, 0 if never set.
func (c *Camera) Emissivity() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emissivity
}

// IsOpen returns true while a handle is opened on the camera.
func (c *Camera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Camera) Width() int {
	return c.w
}

func (c *Camera) Height() int {
	return c.h
}

func (c *Camera) SetEmissivity(e float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emissivity = e
}

func (c *Camera) ShutterCalibrationOn() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calFail || c.gone {
		return 0
	}
	c.cals++
	return success
}

func (c *Camera) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

//

// success is the SDK status on success.
const success = 1

// read returns the next frame.
func (c *Camera) read() ([]uint16, bool) {
	c.mu.Lock()
	l := c.latency
	c.mu.Unlock()
	if l > 0 {
		time.Sleep(l)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.gone || !c.open {
		return nil, false
	}
	if c.fail > 0 {
		c.fail--
		return nil, false
	}
	if len(c.frames) != 0 {
		i := c.next
		if i < len(c.frames)-1 {
			c.next++
		}
		c.last = c.frames[i]
	} else {
		c.noise.update()
		c.last = c.noise.render()
	}
	return c.last, true
}

// celsius returns the temperature of the last frame.
func (c *Camera) celsius() ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gone || c.last == nil {
		return nil, false
	}
	out := make([]float32, len(c.last))
	for i, v := range c.last {
		t := (float32(v) - 5000) / 100
		if c.emissivity > 0 {
			t /= c.emissivity
		}
		out[i] = t
	}
	return out, true
}

// engine implements te.HandleA.
type engine struct {
	*Camera
}

func (e engine) RecvImage(buf []uint16, agc bool) int {
	f, ok := e.read()
	if !ok {
		return 0
	}
	if agc {
		stretch(buf, f)
	} else {
		copy(buf, f)
	}
	return success
}

func (e engine) CalcTemp(buf []uint16) int {
	t, ok := e.celsius()
	if !ok {
		return 0
	}
	for i, v := range t {
		r := v*100 + 5000
		switch {
		case r <= 0:
			buf[i] = 0
		case r >= 65535:
			buf[i] = 65535
		default:
			buf[i] = uint16(r + 0.5)
		}
	}
	return success
}

// qv implements te.HandleB.
type qv struct {
	*Camera
}

func (q qv) RecvImage(buf []uint16) int {
	f, ok := q.read()
	if !ok {
		return 0
	}
	stretch(buf, f)
	return success
}

func (q qv) RecvImageFloat(buf []float32) int {
	f, ok := q.read()
	if !ok {
		return 0
	}
	for i, v := range f {
		buf[i] = float32(v)
	}
	return success
}

func (q qv) CalcEntireTemp(buf []float32) int {
	t, ok := q.celsius()
	if !ok {
		return 0
	}
	copy(buf, t)
	return success
}

// stretch is the core gain control: the frame range is mapped over the whole
// 16 bits.
func stretch(dst, src []uint16) {
	floor, ceil := gray16.MinMax(src)
	delta := uint32(ceil - floor)
	for i, v := range src {
		if delta == 0 {
			dst[i] = 0
		} else {
			dst[i] = uint16(uint32(v-floor) * 65535 / delta)
		}
	}
}

type vector struct {
	intensity float64
	x         float64
	y         float64
}

// noise is cheezy but gets us going for testing without a device.
type noise struct {
	rand    *rand.Rand
	vectors []vector
	w, h    int
}

func makeNoise(w, h int) *noise {
	n := &noise{rand: rand.New(rand.NewSource(0)), w: w, h: h}
	n.vectors = make([]vector, 10)
	for i := range n.vectors {
		n.vectors[i].intensity = n.rand.NormFloat64() * 40000
		n.vectors[i].x = n.rand.NormFloat64()*float64(w)/6 + float64(w)/2
		n.vectors[i].y = n.rand.NormFloat64()*float64(h)/6 + float64(h)/2
	}
	return n
}

func (n *noise) update() {
	for i := range n.vectors {
		n.vectors[i].intensity += n.rand.NormFloat64() * 400
		n.vectors[i].x += n.rand.NormFloat64() * 0.5
		n.vectors[i].y += n.rand.NormFloat64() * 0.5
	}
}

// render returns a frame around 25°C, between 10°C and 40°C.
func (n *noise) render() []uint16 {
	const center = 7500
	const dynamicRange = 1500
	out := make([]uint16, n.w*n.h)
	for y := 0; y < n.h; y++ {
		fy := float64(y)
		for x := 0; x < n.w; x++ {
			fx := float64(x)
			value := float64(center)
			for _, vect := range n.vectors {
				distance := (vect.x-fx)*(vect.x-fx) + (vect.y-fy)*(vect.y-fy) + 1
				value += vect.intensity / distance
			}
			if value >= center+dynamicRange {
				value = center + dynamicRange
			}
			if value < center-dynamicRange {
				value = center - dynamicRange
			}
			out[y*n.w+x] = uint16(value)
		}
	}
	return out
}

var _ te.Driver = &Driver{}
var _ te.HandleA = engine{}
var _ te.HandleB = qv{}
