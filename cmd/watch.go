package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aryanA101a/lulu/vm"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// debounceDelay collapses the burst of events a single save produces.
const debounceDelay = 100 * time.Millisecond

// watchImages signals on the returned channel when any of paths is written
// or recreated. It stops watching when ctx is done.
func watchImages(ctx context.Context, log hclog.Logger, paths []string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// editors replace files, so watch the directories and filter by name
	names := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		names[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !names[filepath.Clean(event.Name)] {
					continue
				}
				if event.Op&fsnotify.Write == fsnotify.Write ||
					event.Op&fsnotify.Create == fsnotify.Create {
					log.Debug("image changed", "path", event.Name, "op", event.Op.String())
					debounce = time.After(debounceDelay)
				}
			case <-debounce:
				debounce = nil
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watcher", "error", err)
			}
		}
	}()
	return changes, nil
}

// runWatching runs m and starts it over from freshly loaded images whenever
// one of them changes. After HALT it waits for the next change. It returns
// when ctx is done or the machine fails.
func (a *app) runWatching(ctx context.Context, m *vm.Machine, paths []string) error {
	changes, err := watchImages(ctx, a.log, paths)
	if err != nil {
		return err
	}

	for {
		runCtx, cancel := context.WithCancel(ctx)
		reload := make(chan struct{})
		stopped := make(chan struct{})
		go func() {
			defer close(stopped)
			select {
			case <-changes:
				close(reload)
				cancel()
			case <-runCtx.Done():
			}
		}()

		err := m.Run(runCtx)
		cancel()
		<-stopped

		select {
		case <-reload:
		default:
			if err != nil {
				return err
			}
			a.log.Info("halted, waiting for changes", "steps", m.Steps())
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
			}
		}

		a.log.Info("reloading images")
		m.Memory.Reset()
		if err := a.loadImages(m, paths); err != nil {
			return err
		}
		m.Reset()
	}
}
