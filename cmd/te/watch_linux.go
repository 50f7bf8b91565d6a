// Copyright 2016 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"time"

	"github.com/maruel/interrupt"
	fsnotify "gopkg.in/fsnotify.v1"
)

// watchFile returns once the executable or the config file is modified, so
// the process can be restarted by its supervisor.
func watchFile(cfgPath string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	mods := map[string]time.Time{}
	for _, p := range []string{exe, cfgPath} {
		fi, err := os.Stat(p)
		if err != nil {
			// The config file is optional.
			if p == cfgPath && os.IsNotExist(err) {
				continue
			}
			return err
		}
		if err = watcher.Add(p); err != nil {
			return err
		}
		mods[p] = fi.ModTime()
	}
	for {
		select {
		case <-interrupt.Channel:
			return nil
		case err = <-watcher.Errors:
			return err
		case e := <-watcher.Events:
			mod0, ok := mods[e.Name]
			if !ok {
				continue
			}
			if fi, err := os.Stat(e.Name); err != nil || !fi.ModTime().Equal(mod0) {
				return err
			}
		}
	}
}
