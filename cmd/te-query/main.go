// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// te-query lists the connected Thermal Expert cameras and queries one.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/maruel/go-thermalexpert/te"
	"github.com/maruel/go-thermalexpert/tetest"
)

func mainImpl() error {
	drvName := flag.String("driver", "", "SDK driver to use")
	fake := flag.Bool("fake", false, "use a fake camera")
	slot := flag.Int("slot", -1, "slot of the camera to query; only list the cameras when -1")
	model := flag.String("model", "engine", "model to open the camera as: q1, v1 or engine")
	calibrate := flag.Bool("calibrate", false, "run a shutter calibration")
	emissivity := flag.Int("emissivity", -1, "emissivity to set, in percent")
	agc := flag.Bool("agc", false, "use the camera gain control")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	if *emissivity > 100 {
		return errors.New("-emissivity must be between 0 and 100")
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
	infos, err := te.Scan(drv)
	if err != nil {
		return err
	}
	if *slot == -1 {
		if len(infos) == 0 {
			fmt.Printf("No camera found\n")
		}
		for _, i := range infos {
			fmt.Printf("Slot %2d: %-8s core %d\n", i.Slot, i.Product, i.Serial)
		}
		return nil
	}

	dev, err := te.New(drv, m, *slot, nil)
	if err != nil {
		return err
	}
	defer dev.Close()
	info := dev.Info()
	fmt.Printf("Product:    %s\n", info.Product)
	fmt.Printf("Core:       %d\n", info.Serial)
	fmt.Printf("Family:     %s\n", dev.Family())
	fmt.Printf("Size:       %dx%d\n", dev.Bounds().Dx(), dev.Bounds().Dy())
	if *emissivity >= 0 {
		if err := dev.SetEmissivity(float32(*emissivity) / 100); err != nil {
			return err
		}
		fmt.Printf("Emissivity: %.2f\n", dev.Emissivity())
	}
	if *calibrate {
		if err := dev.Calibrate(); err != nil {
			return err
		}
		fmt.Printf("Calibrated\n")
	}
	s, err := dev.TemperatureStats(*agc)
	if err != nil {
		return err
	}
	fmt.Printf("Min:        %s at %s\n", s.Min, s.MinLoc)
	fmt.Printf("Max:        %s at %s\n", s.Max, s.MaxLoc)
	c := s.MinLoc.Add(s.MaxLoc).Div(2)
	t, err := dev.TemperatureAt(c.X, c.Y, *agc)
	if err != nil {
		return err
	}
	fmt.Printf("Midpoint:   %s at %s\n", t, c)
	st := dev.Stats()
	fmt.Printf("Stats:      %s\n", st)
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nte-query: %s.\n", err)
		os.Exit(1)
	}
}
