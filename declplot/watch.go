// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/declplot/declplot/chart"
)

// settle is how long watch waits for a burst of file events to end
// before re-rendering.
const settle = 200 * time.Millisecond

// watch re-renders c to out whenever the configuration or one of the
// chart's CSV files changes, until ctx is done. A changed
// configuration is reloaded; a changed data file only drops the
// cached sources.
func watch(ctx context.Context, c *chart.Chart, out string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch directories so editors that replace files are seen.
	watched := make(map[string]bool)
	addFiles := func(c *chart.Chart) map[string]bool {
		files := map[string]bool{filepath.Clean(flagConfig): true}
		for _, f := range c.Files() {
			files[filepath.Clean(f)] = true
		}
		for f := range files {
			dir := filepath.Dir(f)
			if watched[dir] {
				continue
			}
			if err := w.Add(dir); err != nil {
				logger.Warn("cannot watch", "dir", dir, "err", err)
				continue
			}
			watched[dir] = true
		}
		return files
	}
	files := addFiles(c)
	logger.Info("watching for changes", "files", len(files))

	var timer <-chan time.Time
	reload := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors:
			logger.Warn("watch error", "err", err)
		case ev := <-w.Events:
			name := filepath.Clean(ev.Name)
			if !files[name] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if name == filepath.Clean(flagConfig) {
				reload = true
			}
			timer = time.After(settle)
		case <-timer:
			timer = nil
			if reload {
				reload = false
				nc, err := loadChart()
				if err != nil {
					logger.Error("reloading configuration", "err", err)
					continue
				}
				c = nc
				files = addFiles(c)
			} else {
				c.CacheClear()
			}
			if err := render(ctx, c, out); err != nil {
				logger.Error("rendering", "err", err)
			}
		}
	}
}
