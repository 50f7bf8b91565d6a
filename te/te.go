// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package te takes video and temperature readings from i3system Thermal
// Expert USB cameras.
//
// Two families of cores are supported through the vendor SDK, which is
// abstracted by the Driver interface:
//
//   - the engine cores TE-EQ1, TE-EV1, TE-EQ2 and TE-EV2, opened as
//     ModelEngine;
//   - the TE-Q1 and TE-V1 cores, opened as ModelQ1 or ModelV1.
//
// A Dev hides the family differences. It captures single frames with retry,
// computes temperature statistics and runs a paced acquisition stream on
// which a recording can be nested.
//
// References:
//
// Product page:
//
//	http://www.i3system.com/
package te

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maruel/go-thermalexpert/te/internal"
	"periph.io/x/periph/conn"
)

// MaxSlots is the number of USB slots scanned by the SDK.
const MaxSlots = internal.MaxSlots

var (
	// ErrNoFrame is returned when the camera failed to produce a frame after
	// all the attempts.
	ErrNoFrame = errors.New("te: no frame")
	// ErrStreaming is returned when an operation conflicts with the running
	// stream.
	ErrStreaming = errors.New("te: streaming")
	// ErrNotStreaming is returned when starting a recording without a stream.
	ErrNotStreaming = errors.New("te: not streaming")
	// ErrRecording is returned when a recording is already in progress.
	ErrRecording = errors.New("te: already recording")
	// ErrEmissivity is returned for an emissivity outside [0, 1].
	ErrEmissivity = errors.New("te: emissivity must be between 0 and 1")
	// ErrCalibration is returned when the shutter calibration failed.
	ErrCalibration = errors.New("te: shutter calibration failed")
	// ErrClosed is returned once the Dev is closed.
	ErrClosed = errors.New("te: closed")
)

// Family is the SDK handle kind used for a model.
type Family uint8

// Valid values for Family.
const (
	FamilyA Family = 1 // Engine cores.
	FamilyB Family = 2 // Q1 and V1 cores.
)

func (f Family) String() string {
	switch f {
	case FamilyA:
		return "A"
	case FamilyB:
		return "B"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

// Model is what the user asks to open.
type Model uint8

// Valid values for Model.
const (
	ModelQ1     Model = 1
	ModelV1     Model = 2
	ModelEngine Model = 3
)

func (m Model) String() string {
	switch m {
	case ModelQ1:
		return "TE-Q1"
	case ModelV1:
		return "TE-V1"
	case ModelEngine:
		return "TE-Engine"
	default:
		return fmt.Sprintf("Model(%d)", uint8(m))
	}
}

// ParseModel parses "q1", "v1" or "engine", case insensitively.
func ParseModel(s string) (Model, error) {
	switch strings.TrimPrefix(strings.ToLower(s), "te-") {
	case "q1":
		return ModelQ1, nil
	case "v1":
		return ModelV1, nil
	case "engine":
		return ModelEngine, nil
	default:
		return 0, fmt.Errorf("te: unknown model %q; use q1, v1 or engine", s)
	}
}

// Family returns the handle kind needed for this model, or 0 if the model is
// unknown.
func (m Model) Family() Family {
	switch m {
	case ModelQ1, ModelV1:
		return FamilyB
	case ModelEngine:
		return FamilyA
	default:
		return 0
	}
}

// Accepts returns true if a device reporting this product can be opened as
// this model.
func (m Model) Accepts(p Product) bool {
	return m.Family() != 0 && m.Family() == p.Family()
}

// Product is the product version reported by ScanTE.
type Product uint32

// Valid values for Product.
//
// The Q1 and V1 cores both report 0 and can't be told apart.
const (
	ProductQ1V1 Product = 0
	ProductEQ1  Product = 1
	ProductEV1  Product = 2
	ProductEQ2  Product = 3
	ProductEV2  Product = 4
)

func (p Product) String() string {
	switch p {
	case ProductQ1V1:
		return "TE-Q1/V1"
	case ProductEQ1:
		return "TE-EQ1"
	case ProductEV1:
		return "TE-EV1"
	case ProductEQ2:
		return "TE-EQ2"
	case ProductEV2:
		return "TE-EV2"
	default:
		return fmt.Sprintf("Product(%d)", uint32(p))
	}
}

// Family returns the handle kind of this product, or 0 if unknown.
func (p Product) Family() Family {
	switch p {
	case ProductQ1V1:
		return FamilyB
	case ProductEQ1, ProductEV1, ProductEQ2, ProductEV2:
		return FamilyA
	default:
		return 0
	}
}

// DeviceInfo describes a connected camera.
type DeviceInfo struct {
	Slot    int
	Product Product
	Serial  uint32 // Core ID.
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf("#%d %s (core %d)", d.Slot, d.Product, d.Serial)
}

// Scan returns the connected cameras, ordered by slot.
func Scan(drv Driver) ([]DeviceInfo, error) {
	var devs [MaxSlots]ScanData
	if s := drv.ScanTE(devs[:]); s != internal.Success {
		return nil, fmt.Errorf("te: %s: scan failed with status %d", drv, s)
	}
	var out []DeviceInfo
	for i, d := range devs {
		if d.Connected {
			out = append(out, DeviceInfo{Slot: i, Product: d.Product, Serial: d.CoreID})
		}
	}
	return out, nil
}

// Opts is the tuning of a Dev.
type Opts struct {
	Attempts   int           // Reads per acquisition before giving up.
	RetryDelay time.Duration // Wait between two failed reads.
	Radiometry bool          // Compute TempStats for each captured or streamed frame.
}

// DefaultOpts is used when nil is passed to New.
var DefaultOpts = Opts{
	Attempts:   3,
	RetryDelay: 100 * time.Millisecond,
}

// Stats is the counters of a Dev.
type Stats struct {
	GoodFrames   uint64 // Successful reads.
	FailedReads  uint64 // Failed reads, including the retried ones.
	NoFrames     uint64 // Acquisitions that exhausted all attempts.
	Dropped      uint64 // Frames not queued because the Stream channel was full.
	Recorded     uint64
	RecordErrors uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d good, %d failed reads, %d no frame, %d dropped, %d recorded, %d record errors", s.GoodFrames, s.FailedReads, s.NoFrames, s.Dropped, s.Recorded, s.RecordErrors)
}

// Dev is an opened Thermal Expert camera.
//
// All methods are safe for concurrent use. Calls reaching the camera are
// serialized.
type Dev struct {
	name string
	info DeviceInfo
	opts Opts
	rect image.Rectangle

	mu sync.Mutex // Serializes SDK calls on h.
	h  handle     // Zero once closed.

	agc        atomic.Bool
	emissivity atomic.Uint32 // math.Float32bits.
	seq        atomic.Uint64
	stats      counters

	smu       sync.Mutex // Guards s.
	s         *stream
	streaming atomic.Bool
}

// New opens the camera in slot as model m.
//
// The slot must hold a device whose product matches m; a Q1/V1 slot can't be
// opened as ModelEngine and vice versa.
func New(drv Driver, m Model, slot int, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Attempts <= 0 {
		o.Attempts = DefaultOpts.Attempts
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if m.Family() == 0 {
		return nil, fmt.Errorf("te: unknown model %d", uint8(m))
	}
	infos, err := Scan(drv)
	if err != nil {
		return nil, err
	}
	var info *DeviceInfo
	for i := range infos {
		if infos[i].Slot == slot {
			info = &infos[i]
			break
		}
	}
	if info == nil {
		return nil, fmt.Errorf("te: no device in slot %d", slot)
	}
	if !m.Accepts(info.Product) {
		return nil, fmt.Errorf("te: slot %d holds a %s which can't be opened as %s", slot, info.Product, m)
	}
	h, err := openHandle(drv, m, slot)
	if err != nil {
		return nil, err
	}
	d := &Dev{
		name: fmt.Sprintf("te.Dev{%s, #%d}", m, slot),
		info: *info,
		opts: o,
		rect: h.bounds(),
		h:    h,
	}
	log.Printf("%s: opened %s, %dx%d", d, info, d.rect.Dx(), d.rect.Dy())
	return d, nil
}

func (d *Dev) String() string {
	return d.name
}

// Info returns the scan data of the opened device.
func (d *Dev) Info() DeviceInfo {
	return d.info
}

// Family returns the handle kind in use.
func (d *Dev) Family() Family {
	return d.info.Product.Family()
}

// Bounds returns the frame size. It doesn't change for the life of the Dev.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Halt implements conn.Resource. It stops the stream, if any.
func (d *Dev) Halt() error {
	return d.StopStream()
}

// Close stops the stream, if any, and releases the SDK handle.
func (d *Dev) Close() error {
	err := d.StopStream()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.h.family == 0 {
		return ErrClosed
	}
	d.h.close()
	d.h = handle{}
	log.Printf("%s: closed; %s", d, d.Stats())
	return err
}

// SetAGC selects hardware gain control for the next acquisitions, including
// the ones of a running stream.
func (d *Dev) SetAGC(on bool) {
	d.agc.Store(on)
}

// AGC returns the value set by SetAGC.
func (d *Dev) AGC() bool {
	return d.agc.Load()
}

// SetEmissivity sets the emissivity used by the next temperature
// calculations. It must be between 0 and 1.
func (d *Dev) SetEmissivity(e float32) error {
	if !(e >= 0 && e <= 1) {
		return ErrEmissivity
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.h.family == 0 {
		return ErrClosed
	}
	d.h.setEmissivity(e)
	d.emissivity.Store(math.Float32bits(e))
	return nil
}

// Emissivity returns the last value set with SetEmissivity, or 0 if it was
// never set, in which case the camera uses its factory value.
func (d *Dev) Emissivity() float32 {
	return math.Float32frombits(d.emissivity.Load())
}

// Calibrate runs a shutter calibration. It blocks until the camera is done.
//
// It can be called while streaming; the frames in flight wait for it.
func (d *Dev) Calibrate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.h.family == 0 {
		return ErrClosed
	}
	start := time.Now()
	if !d.h.calibrate() {
		return ErrCalibration
	}
	log.Printf("%s: calibrated in %s", d, time.Since(start).Round(time.Millisecond))
	return nil
}

// Stats returns a snapshot of the counters.
func (d *Dev) Stats() Stats {
	return d.stats.snapshot()
}

//

type counters struct {
	goodFrames   atomic.Uint64
	failedReads  atomic.Uint64
	noFrames     atomic.Uint64
	dropped      atomic.Uint64
	recorded     atomic.Uint64
	recordErrors atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		GoodFrames:   c.goodFrames.Load(),
		FailedReads:  c.failedReads.Load(),
		NoFrames:     c.noFrames.Load(),
		Dropped:      c.dropped.Load(),
		Recorded:     c.recorded.Load(),
		RecordErrors: c.recordErrors.Load(),
	}
}

var _ conn.Resource = &Dev{}
