// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// config is stored in ~/.config/te/te.yaml. Command line flags override it.
type config struct {
	Port       int     `yaml:"port"`
	Driver     string  `yaml:"driver"`
	Model      string  `yaml:"model"`
	Slot       int     `yaml:"slot"`
	FPS        float64 `yaml:"fps"`
	AGC        bool    `yaml:"agc"`
	Emissivity int     `yaml:"emissivity"` // In percent; -1 keeps the camera value.
	Radiometry bool    `yaml:"radiometry"`
	RecordDir  string  `yaml:"record_dir"`
	DB         string  `yaml:"db"`
}

func defaultConfig() config {
	return config{
		Port:       8010,
		Model:      "engine",
		FPS:        30,
		Emissivity: -1,
		Radiometry: true,
		RecordDir:  ".",
	}
}

// loadConfig returns the defaults when path doesn't exist.
func loadConfig(path string) (config, error) {
	c := defaultConfig()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&c); err != nil {
		return c, err
	}
	return c, nil
}

func (c *config) write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
