// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package record stores a stream of frames in a file.
//
// The file is a sequence of MessagePack values: a Header followed by one
// Entry per frame.
package record

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/go-thermalexpert/te"
	"github.com/vmihailenco/msgpack/v5"
	"periph.io/x/periph/conn/physic"
)

// Magic identifies a recording.
const Magic = "TEREC"

// Version is the current file format version.
const Version = 1

// Header is the first value of a recording.
type Header struct {
	Magic   string    `msgpack:"magic"`
	Version int       `msgpack:"version"`
	ID      string    `msgpack:"id"`
	Created time.Time `msgpack:"created"`
}

// Entry is one frame.
type Entry struct {
	Seq      uint64    `msgpack:"seq"`
	Captured time.Time `msgpack:"t"`
	Width    int       `msgpack:"w"`
	Height   int       `msgpack:"h"`
	AGC      bool      `msgpack:"agc"`
	Pix      []byte    `msgpack:"pix"` // 8 bits image, row-major.
	Raw      []uint16  `msgpack:"raw"` // Camera samples, row-major.
	Temp     *Extrema  `msgpack:"temp,omitempty"`
}

// Extrema is te.TempStats in a stable encoding.
type Extrema struct {
	Min  physic.Temperature `msgpack:"min"`
	Max  physic.Temperature `msgpack:"max"`
	MinX int                `msgpack:"minx"`
	MinY int                `msgpack:"miny"`
	MaxX int                `msgpack:"maxx"`
	MaxY int                `msgpack:"maxy"`
}

// Stats returns the extrema as te.TempStats.
func (e *Extrema) Stats() te.TempStats {
	return te.TempStats{
		Min:    e.Min,
		Max:    e.Max,
		MinLoc: image.Pt(e.MinX, e.MinY),
		MaxLoc: image.Pt(e.MaxX, e.MaxY),
	}
}

// Image returns the 8 bits image.
func (e *Entry) Image() *image.Gray {
	return &image.Gray{Pix: e.Pix, Stride: e.Width, Rect: image.Rect(0, 0, e.Width, e.Height)}
}

// Writer implements te.Recorder.
type Writer struct {
	id uuid.UUID

	mu  sync.Mutex
	f   *os.File
	w   *bufio.Writer
	enc *msgpack.Encoder
	n   int
}

// Create creates a recording at path, identified by id.
func Create(path string, id uuid.UUID) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{id: id, f: f, w: bufio.NewWriterSize(f, 1024*1024)}
	w.enc = msgpack.NewEncoder(w.w)
	h := Header{Magic: Magic, Version: Version, ID: id.String(), Created: time.Now().UTC()}
	if err := w.enc.Encode(&h); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// ID returns the recording identifier.
func (w *Writer) ID() uuid.UUID {
	return w.id
}

// Frames returns the number of frames written.
func (w *Writer) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Record appends a frame.
func (w *Writer) Record(f *te.Frame) error {
	r := f.Bounds()
	e := Entry{
		Seq:      f.Metadata.Seq,
		Captured: f.Metadata.Captured,
		Width:    r.Dx(),
		Height:   r.Dy(),
		AGC:      f.Metadata.AGC,
		Pix:      make([]byte, 0, r.Dx()*r.Dy()),
	}
	for y := 0; y < r.Dy(); y++ {
		off := y * f.Stride
		e.Pix = append(e.Pix, f.Pix[off:off+r.Dx()]...)
	}
	if f.Raw != nil {
		e.Raw = f.Raw.Pix
	}
	if t := f.Metadata.Temp; t != nil {
		e.Temp = &Extrema{Min: t.Min, Max: t.Max, MinX: t.MinLoc.X, MinY: t.MinLoc.Y, MaxX: t.MaxLoc.X, MaxY: t.MaxLoc.Y}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return os.ErrClosed
	}
	if err := w.enc.Encode(&e); err != nil {
		return err
	}
	w.n++
	return nil
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return os.ErrClosed
	}
	err := w.w.Flush()
	if err2 := w.f.Close(); err == nil {
		err = err2
	}
	w.f = nil
	return err
}

// Reader reads back a recording.
type Reader struct {
	Header Header

	f   *os.File
	dec *msgpack.Decoder
}

// Open opens a recording and reads its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{f: f, dec: msgpack.NewDecoder(bufio.NewReader(f))}
	if err := r.dec.Decode(&r.Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("record: %s: invalid header: %w", path, err)
	}
	if r.Header.Magic != Magic || r.Header.Version != Version {
		_ = f.Close()
		return nil, fmt.Errorf("record: %s: not a version %d recording", path, Version)
	}
	return r, nil
}

// Next returns the next frame, or io.EOF at the end of the recording.
func (r *Reader) Next() (*Entry, error) {
	e := &Entry{}
	if err := r.dec.Decode(e); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	return e, nil
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.f.Close()
}

var _ te.Recorder = &Writer{}
