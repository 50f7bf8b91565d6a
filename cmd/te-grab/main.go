// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// te-grab captures a single image.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io/ioutil"
	"log"
	"os"

	"github.com/maruel/go-thermalexpert/gray16"
	"github.com/maruel/go-thermalexpert/overlay"
	"github.com/maruel/go-thermalexpert/te"
	"github.com/maruel/go-thermalexpert/tetest"
)

func mainImpl() error {
	drvName := flag.String("driver", "", "SDK driver to use")
	fake := flag.Bool("fake", false, "use a fake camera")
	slot := flag.Int("slot", 0, "slot of the camera")
	model := flag.String("model", "engine", "model to open the camera as: q1, v1 or engine")
	agc := flag.Bool("agc", false, "use the camera gain control instead of stretching each frame")
	raw := flag.Bool("raw", false, "save the 16 bits samples instead of the 8 bits image")
	pseudo := flag.Bool("color", false, "save in false colors")
	mark := flag.Bool("mark", false, "mark the coldest and hottest points")
	meta := flag.Bool("meta", false, "print metadata")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if flag.NArg() != 1 {
		return errors.New("supply path to PNG to save")
	}
	if *raw && (*pseudo || *mark) {
		return errors.New("-raw can't be used with -color or -mark")
	}
	m, err := te.ParseModel(*model)
	if err != nil {
		return err
	}

	var drv te.Driver
	if *fake {
		drv = tetest.Demo()
	} else if drv, err = te.OpenDriver(*drvName); err != nil {
		return fmt.Errorf("%s\nIf testing without hardware, use -fake to simulate a camera", err)
	}
	opts := te.DefaultOpts
	opts.Radiometry = *mark || *meta
	dev, err := te.New(drv, m, *slot, &opts)
	if err != nil {
		return err
	}
	defer dev.Close()
	frame, err := dev.Capture(*agc)
	if err != nil {
		return err
	}
	if *meta {
		fmt.Printf("Seq:      %d\n", frame.Metadata.Seq)
		fmt.Printf("Captured: %s\n", frame.Metadata.Captured)
		fmt.Printf("AGC:      %t\n", frame.Metadata.AGC)
		fmt.Printf("Attempts: %d\n", frame.Metadata.Attempts)
		floor, ceil := frame.Raw.MinMax()
		fmt.Printf("Range:    %d - %d\n", floor, ceil)
		if t := frame.Metadata.Temp; t != nil {
			fmt.Printf("Min:      %s at %s\n", t.Min, t.MinLoc)
			fmt.Printf("Max:      %s at %s\n", t.Max, t.MaxLoc)
		}
	}

	var img image.Image = frame.Gray
	switch {
	case *raw:
		img = frame.Raw
	case *pseudo || *mark:
		var rgba *image.RGBA
		if *pseudo {
			rgba = gray16.PseudoColor(frame.Gray)
		} else {
			rgba = overlay.RGBA(frame.Gray)
		}
		if *mark {
			overlay.Mark(rgba, frame.Metadata.Temp)
		}
		img = rgba
	}
	f, err := os.Create(flag.Args()[0])
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nte-grab: %s.\n", err)
		os.Exit(1)
	}
}
