// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package te

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"periph.io/x/periph/conn/physic"
)

// DefaultRate is the stream rate used by the tools.
const DefaultRate = 30 * physic.Hertz

// Recorder persists the frames of a stream. See package record.
//
// Record is called from the stream goroutine before the frame is delivered.
// The Dev owns the Recorder once passed to StartRecording and closes it when
// the recording stops.
type Recorder interface {
	io.Closer
	Record(f *Frame) error
}

// StartStream acquires frames continuously at rate and calls fn with each
// one, from a single goroutine.
//
// fn must not call StopStream or Close. The stream stops on its own when the
// camera fails to produce a frame, for example when it is unplugged.
func (d *Dev) StartStream(fn func(f *Frame), rate physic.Frequency) error {
	if fn == nil {
		return errors.New("te: nil callback")
	}
	return d.startStream(funcSink(fn), rate)
}

// Stream is like StartStream but sends the frames on a channel of depth
// frames. A frame is dropped when the channel is full. The channel is closed
// when the stream stops.
func (d *Dev) Stream(rate physic.Frequency, depth int) (<-chan *Frame, error) {
	if depth < 1 {
		depth = 1
	}
	c := make(chan *Frame, depth)
	if err := d.startStream(chanSink(c), rate); err != nil {
		return nil, err
	}
	return c, nil
}

// StreamID returns the identifier of the current stream, or uuid.Nil.
func (d *Dev) StreamID() uuid.UUID {
	d.smu.Lock()
	defer d.smu.Unlock()
	if d.s == nil {
		return uuid.Nil
	}
	return d.s.id
}

// StopStream stops the stream and the recording, if any. It blocks until no
// more frame is delivered. It is fine to call it when not streaming.
//
// It returns the error of closing the Recorder.
func (d *Dev) StopStream() error {
	d.smu.Lock()
	s := d.s
	d.smu.Unlock()
	if s == nil {
		return nil
	}
	s.once.Do(func() { close(s.stop) })
	<-s.done
	d.smu.Lock()
	if d.s == s {
		d.s = nil
	}
	d.smu.Unlock()
	return s.err
}

// IsStreaming returns true while the stream goroutine runs.
func (d *Dev) IsStreaming() bool {
	return d.streaming.Load()
}

// StartRecording starts sending each streamed frame to r, before it is
// delivered.
//
// It fails with ErrNotStreaming without a stream and with ErrRecording if a
// recording is already in progress; r is left untouched in both cases. A
// failing Record stops the recording but not the stream.
func (d *Dev) StartRecording(r Recorder) error {
	if r == nil {
		return errors.New("te: nil recorder")
	}
	d.smu.Lock()
	s := d.s
	d.smu.Unlock()
	if s == nil {
		return ErrNotStreaming
	}
	s.rmu.Lock()
	defer s.rmu.Unlock()
	if s.ended {
		return ErrNotStreaming
	}
	if s.rec != nil {
		return ErrRecording
	}
	s.rec = r
	log.Printf("%s: recording stream %s", d, s.id)
	return nil
}

// StopRecording stops the recording and closes its Recorder. It is fine to
// call it when not recording.
func (d *Dev) StopRecording() error {
	d.smu.Lock()
	s := d.s
	d.smu.Unlock()
	if s == nil {
		return nil
	}
	return s.stopRecording(false)
}

// IsRecording returns true while frames are sent to a Recorder.
func (d *Dev) IsRecording() bool {
	d.smu.Lock()
	s := d.s
	d.smu.Unlock()
	if s == nil {
		return false
	}
	s.rmu.Lock()
	defer s.rmu.Unlock()
	return s.rec != nil
}

//

type sink interface {
	deliver(f *Frame) bool
	close()
}

type funcSink func(f *Frame)

func (fn funcSink) deliver(f *Frame) bool {
	fn(f)
	return true
}

func (fn funcSink) close() {
}

type chanSink chan *Frame

func (c chanSink) deliver(f *Frame) bool {
	select {
	case c <- f:
		return true
	default:
		return false
	}
}

func (c chanSink) close() {
	close(c)
}

type stream struct {
	id     uuid.UUID
	period time.Duration
	sink   sink
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	err    error // Set before done is closed.

	rmu   sync.Mutex // Guards rec and ended.
	rec   Recorder
	ended bool
}

func (d *Dev) startStream(sk sink, rate physic.Frequency) error {
	if rate <= 0 {
		return fmt.Errorf("te: invalid rate %s", rate)
	}
	d.smu.Lock()
	defer d.smu.Unlock()
	if d.s != nil {
		select {
		case <-d.s.done:
			// The previous stream stopped on its own.
			d.s = nil
		default:
			return ErrStreaming
		}
	}
	d.mu.Lock()
	closed := d.h.family == 0
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}
	s := &stream{
		id:     uuid.New(),
		period: period(rate),
		sink:   sk,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	d.s = s
	d.streaming.Store(true)
	log.Printf("%s: stream %s at %s", d, s.id, rate)
	go d.run(s)
	return nil
}

// run is the stream goroutine.
func (d *Dev) run(s *stream) {
	defer close(s.done)
	defer s.sink.close()
	defer func() {
		d.streaming.Store(false)
		s.err = s.stopRecording(true)
	}()
	t := time.NewTimer(0)
	if !t.Stop() {
		<-t.C
	}
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		start := time.Now()
		f, err := d.capture(d.agc.Load(), d.opts.Radiometry)
		if err != nil {
			log.Printf("%s: stream %s ended: %v", d, s.id, err)
			return
		}
		s.record(d, f)
		if !s.sink.deliver(f) {
			d.stats.dropped.Add(1)
		}
		if wait := s.period - time.Since(start); wait > 0 {
			t.Reset(wait)
			select {
			case <-s.stop:
				t.Stop()
				return
			case <-t.C:
			}
		}
	}
}

func (s *stream) record(d *Dev, f *Frame) {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	if s.rec == nil {
		return
	}
	if err := s.rec.Record(f); err != nil {
		d.stats.recordErrors.Add(1)
		log.Printf("%s: recording of stream %s stopped: %v", d, s.id, err)
		if err := s.rec.Close(); err != nil {
			log.Printf("%s: %v", d, err)
		}
		s.rec = nil
		return
	}
	d.stats.recorded.Add(1)
}

// period returns the duration of one cycle at rate.
func period(rate physic.Frequency) time.Duration {
	return time.Duration(int64(time.Second) * int64(physic.Hertz) / int64(rate))
}

// stopRecording closes the Recorder. When final is true, no recording can be
// started anymore on this stream.
func (s *stream) stopRecording(final bool) error {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	if final {
		s.ended = true
	}
	r := s.rec
	s.rec = nil
	if r == nil {
		return nil
	}
	return r.Close()
}
