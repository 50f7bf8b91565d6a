// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	d := t.TempDir()
	c, err := loadConfig(filepath.Join(d, "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if c != defaultConfig() {
		t.Fatalf("%+v", c)
	}
	p := filepath.Join(d, "te.yaml")
	if err := os.WriteFile(p, []byte("port: 9000\nmodel: q1\nemissivity: 95\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if c, err = loadConfig(p); err != nil {
		t.Fatal(err)
	}
	if c.Port != 9000 || c.Model != "q1" || c.Emissivity != 95 || c.FPS != 30 {
		t.Fatalf("%+v", c)
	}
	if err := os.WriteFile(p, []byte("port: [\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err = loadConfig(p); err == nil {
		t.Fatal("expected error")
	}
}

func TestConfig_write(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "te.yaml")
	c := defaultConfig()
	c.Slot = 3
	c.DB = "stats.db"
	if err := c.write(p); err != nil {
		t.Fatal(err)
	}
	got, err := loadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	if got != c {
		t.Fatalf("%+v != %+v", got, c)
	}
}
