// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// te streams a Thermal Expert camera to a web page.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/maruel/go-thermalexpert/statlog"
	"github.com/maruel/go-thermalexpert/te"
	"github.com/maruel/go-thermalexpert/tetest"
	"github.com/maruel/interrupt"
	"periph.io/x/periph/conn/physic"
)

// pump streams frames from dev to the web server and the database.
type pump struct {
	dev  *te.Dev
	rate physic.Frequency
	web  *webServer
	db   *statlog.DB
}

// start starts a new stream and consumes it until it ends.
func (p *pump) start() error {
	c, err := p.dev.Stream(p.rate, 16)
	if err != nil {
		return err
	}
	session := p.dev.StreamID().String()
	go func() {
		for f := range c {
			p.web.addFrame(f)
			if p.db != nil && f.Metadata.Temp != nil {
				if err := p.db.Insert(session, f); err != nil {
					log.Printf("db: %v", err)
				}
			}
		}
		log.Printf("stream %s ended", session)
	}()
	return nil
}

// hotplug restarts the stream once the camera is back.
func (p *pump) hotplug(e te.HotplugEvent) {
	log.Printf("hotplug: %s", e)
	if e != te.Arrival || p.dev.IsStreaming() {
		return
	}
	if err := p.start(); err != nil {
		log.Printf("restart: %v", err)
	}
}

func configPath() string {
	usr, err := user.Current()
	if err != nil {
		return "te.yaml"
	}
	return filepath.Join(usr.HomeDir, ".config", "te", "te.yaml")
}

func mainImpl() error {
	cpuprofile := flag.String("cpuprofile", "", "dump CPU profile in file")
	cfgPath := flag.String("config", configPath(), "configuration file")
	writeConfig := flag.Bool("writeConfig", false, "write the current config file and exit")
	fake := flag.Bool("fake", false, "use a fake camera")
	rec := flag.Bool("record", false, "record the stream on startup")
	verbose := flag.Bool("v", false, "verbose mode")

	cfg := defaultConfig()
	port := flag.Int("port", cfg.Port, "http port to listen on")
	drvName := flag.String("driver", cfg.Driver, "SDK driver to use")
	model := flag.String("model", cfg.Model, "model to open the camera as: q1, v1 or engine")
	slot := flag.Int("slot", cfg.Slot, "slot of the camera")
	fps := flag.Float64("fps", cfg.FPS, "frames per second")
	agc := flag.Bool("agc", cfg.AGC, "use the camera gain control")
	emissivity := flag.Int("emissivity", cfg.Emissivity, "emissivity in percent; -1 to keep the camera value")
	radiometry := flag.Bool("radiometry", cfg.Radiometry, "compute the temperature of every frame")
	recordDir := flag.String("recordDir", cfg.RecordDir, "directory to save recordings in")
	db := flag.String("db", cfg.DB, "sqlite database to log temperature statistics into")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "driver":
			cfg.Driver = *drvName
		case "model":
			cfg.Model = *model
		case "slot":
			cfg.Slot = *slot
		case "fps":
			cfg.FPS = *fps
		case "agc":
			cfg.AGC = *agc
		case "emissivity":
			cfg.Emissivity = *emissivity
		case "radiometry":
			cfg.Radiometry = *radiometry
		case "recordDir":
			cfg.RecordDir = *recordDir
		case "db":
			cfg.DB = *db
		}
	})
	if *writeConfig {
		return cfg.write(*cfgPath)
	}
	if cfg.FPS <= 0 {
		return errors.New("fps must be positive")
	}
	if cfg.Emissivity > 100 {
		return errors.New("emissivity must be between 0 and 100")
	}
	m, err := te.ParseModel(cfg.Model)
	if err != nil {
		return err
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	interrupt.HandleCtrlC()

	var drv te.Driver
	if *fake {
		drv = tetest.Demo()
	} else if drv, err = te.OpenDriver(cfg.Driver); err != nil {
		return fmt.Errorf("%s\nIf testing without hardware, use -fake to simulate a camera", err)
	}
	opts := te.DefaultOpts
	opts.Radiometry = cfg.Radiometry
	dev, err := te.New(drv, m, cfg.Slot, &opts)
	if err != nil {
		return err
	}
	defer dev.Close()
	dev.SetAGC(cfg.AGC)
	if cfg.Emissivity >= 0 {
		if err := dev.SetEmissivity(float32(cfg.Emissivity) / 100); err != nil {
			return err
		}
	}

	var sl *statlog.DB
	if cfg.DB != "" {
		if sl, err = statlog.Open(cfg.DB); err != nil {
			return err
		}
		defer sl.Close()
	}

	web := newWebServer(dev, cfg.RecordDir, sl)
	p := &pump{
		dev:  dev,
		rate: physic.Frequency(cfg.FPS * float64(physic.Hertz)),
		web:  web,
		db:   sl,
	}
	te.SetHotplugCallback(drv, p.hotplug)
	defer te.SetHotplugCallback(drv, nil)
	if err := p.start(); err != nil {
		return err
	}
	if *rec {
		name, err := startRecording(dev, cfg.RecordDir)
		if err != nil {
			return err
		}
		fmt.Printf("Recording to %s\n", name)
	}
	web.start(cfg.Port)

	go func() {
		if err := watchFile(*cfgPath); err != nil {
			log.Printf("watch: %v", err)
		}
		interrupt.Set()
	}()

	for !interrupt.IsSet() {
		s := dev.Stats()
		state := "idle"
		if dev.IsStreaming() {
			state = "streaming"
		}
		if dev.IsRecording() {
			state = "recording"
		}
		fmt.Printf("\r%-9s %d frames %d failed %d missing %d dropped %d recorded", state, s.GoodFrames, s.FailedReads, s.NoFrames, s.Dropped, s.Recorded)
		select {
		case <-interrupt.Channel:
		case <-time.After(time.Second):
		}
	}
	fmt.Print("\n")
	return dev.StopStream()
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nte: %s.\n", err)
		os.Exit(1)
	}
}
