// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/maruel/go-thermalexpert/gray16"
	"github.com/maruel/go-thermalexpert/overlay"
	"github.com/maruel/go-thermalexpert/record"
	"github.com/maruel/go-thermalexpert/statlog"
	"github.com/maruel/go-thermalexpert/te"
	"github.com/maruel/interrupt"
	"github.com/maruel/serve-dir/loghttp"
	"golang.org/x/net/websocket"
)

//go:embed static/root.html
var rootHTML []byte

// frameInfo is the metadata sent to the browser.
type frameInfo struct {
	Seq      uint64
	Captured time.Time
	AGC      bool
	Attempts int
	MinC     float64
	MaxC     float64
	MinLoc   image.Point
	MaxLoc   image.Point
}

func makeFrameInfo(f *te.Frame) *frameInfo {
	i := &frameInfo{Seq: f.Metadata.Seq, Captured: f.Metadata.Captured, AGC: f.Metadata.AGC, Attempts: f.Metadata.Attempts}
	if t := f.Metadata.Temp; t != nil {
		i.MinC = te.Celsius(t.Min)
		i.MaxC = te.Celsius(t.Max)
		i.MinLoc = t.MinLoc
		i.MaxLoc = t.MaxLoc
	}
	return i
}

// render returns the image shown to the user.
func render(f *te.Frame) *image.RGBA {
	img := gray16.PseudoColor(f.Gray)
	if f.Metadata.Temp != nil {
		overlay.Mark(img, f.Metadata.Temp)
	}
	return img
}

type webServer struct {
	dev       *te.Dev
	recordDir string
	db        *statlog.DB

	cond sync.Cond
	last *te.Frame
}

func newWebServer(dev *te.Dev, recordDir string, db *statlog.DB) *webServer {
	return &webServer{
		dev:       dev,
		recordDir: recordDir,
		db:        db,
		cond:      *sync.NewCond(&sync.Mutex{}),
	}
}

// handler returns the routes. The websocket isn't logged since loghttp
// doesn't support hijacking.
func (s *webServer) handler() http.Handler {
	pages := http.NewServeMux()
	pages.HandleFunc("/", s.root)
	pages.HandleFunc("/favicon.ico", s.still)
	pages.HandleFunc("/still.png", s.still)
	pages.HandleFunc("/still16.png", s.still16)
	pages.HandleFunc("/stats.json", s.stats)
	pages.HandleFunc("/record", s.record)
	pages.HandleFunc("/calibrate", s.calibrate)
	mux := http.NewServeMux()
	mux.Handle("/", &loghttp.Handler{Handler: pages})
	mux.Handle("/stream", websocket.Handler(s.stream))
	return mux
}

func (s *webServer) start(port int) {
	fmt.Printf("Listening on %d\n", port)
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), s.handler()); err != nil {
			log.Printf("http: %v", err)
		}
	}()
	go func() {
		<-interrupt.Channel
		s.cond.Broadcast()
	}()
}

func (s *webServer) addFrame(f *te.Frame) {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.last = f
	s.cond.Broadcast()
}

func (s *webServer) lastFrame() *te.Frame {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	return s.last
}

func (s *webServer) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write(rootHTML)
}

func (s *webServer) still(w http.ResponseWriter, r *http.Request) {
	f := s.lastFrame()
	if f == nil {
		http.Error(w, "No frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := png.Encode(w, render(f)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *webServer) still16(w http.ResponseWriter, r *http.Request) {
	f := s.lastFrame()
	if f == nil {
		http.Error(w, "No frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := png.Encode(w, f.Raw); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *webServer) stats(w http.ResponseWriter, r *http.Request) {
	out := struct {
		Stats     te.Stats
		Streaming bool
		Recording bool
		Stream    string
		Last      *frameInfo
		Recent    []statlog.Sample `json:",omitempty"`
	}{
		Stats:     s.dev.Stats(),
		Streaming: s.dev.IsStreaming(),
		Recording: s.dev.IsRecording(),
		Stream:    s.dev.StreamID().String(),
	}
	if f := s.lastFrame(); f != nil {
		out.Last = makeFrameInfo(f)
	}
	if s.db != nil {
		var err error
		if out.Recent, err = s.db.Recent(20); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&out)
}

// record starts a recording on POST and stops it on DELETE.
func (s *webServer) record(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		name, err := startRecording(s.dev, s.recordDir)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		fmt.Fprintf(w, "%s\n", name)
	case http.MethodDelete:
		if err := s.dev.StopRecording(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	default:
		http.Error(w, "Use POST or DELETE", http.StatusMethodNotAllowed)
	}
}

func (s *webServer) calibrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Use POST", http.StatusMethodNotAllowed)
		return
	}
	if err := s.dev.Calibrate(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// stream sends the most recent frame as PseudoColor PNG WebSocket frames,
// each followed by its metadata. Frames arriving faster than the client reads
// are skipped.
func (s *webServer) stream(w *websocket.Conn) {
	log.Printf("websocket from %s", w.Request().RemoteAddr)
	defer w.Close()
	buf := &bytes.Buffer{}
	var sent *te.Frame
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	for !interrupt.IsSet() {
		f := s.last
		if f == nil || f == sent {
			s.cond.Wait()
			continue
		}
		sent = f
		// Do the actual I/O without the lock.
		s.cond.L.Unlock()
		err := sendFrame(w, buf, f)
		s.cond.L.Lock()
		if err != nil {
			log.Printf("websocket err: %s", err)
			return
		}
	}
}

func sendFrame(w *websocket.Conn, buf *bytes.Buffer, f *te.Frame) error {
	// Frame I is for Image.
	buf.Reset()
	buf.WriteString("I")
	encoder := base64.NewEncoder(base64.StdEncoding, buf)
	if err := png.Encode(encoder, render(f)); err != nil {
		return err
	}
	encoder.Close()
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	// Frame M is for Metadata.
	buf.Reset()
	buf.WriteString("M")
	if err := json.NewEncoder(buf).Encode(makeFrameInfo(f)); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// startRecording records the current stream in dir. The file is named after
// the stream.
func startRecording(dev *te.Dev, dir string) (string, error) {
	if !dev.IsStreaming() {
		return "", te.ErrNotStreaming
	}
	if dev.IsRecording() {
		return "", te.ErrRecording
	}
	id := dev.StreamID()
	name := filepath.Join(dir, fmt.Sprintf("%s-%s.terec", time.Now().Format("20060102-150405"), id))
	rec, err := record.Create(name, id)
	if err != nil {
		return "", err
	}
	if err := dev.StartRecording(rec); err != nil {
		rec.Close()
		return "", err
	}
	log.Printf("recording to %s", name)
	return name, nil
}
