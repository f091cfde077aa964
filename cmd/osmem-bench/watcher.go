package main

import (
	"log"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// configStore holds the live WorkloadConfig behind an atomic pointer
// so the benchmark loop can read it without locking while the watcher
// goroutine swaps it out underneath.
type configStore struct {
	v atomic.Pointer[WorkloadConfig]
}

func newConfigStore(initial *WorkloadConfig) *configStore {
	s := &configStore{}
	s.v.Store(initial)

	return s
}

func (s *configStore) get() *WorkloadConfig { return s.v.Load() }

// watchConfig reloads path into store whenever it changes, rejecting
// (and logging, but not applying) any revision that fails validation
// so a bad edit never interrupts a running benchmark. Grounded on the
// teacher's FSNotifyWatcher (internal/runtime/vfs/watch_fsnotify.go):
// same fsnotify.Watcher + Events/Errors channel loop, narrowed to the
// single config file this tool cares about.
func watchConfig(path string, store *configStore) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				cfg, err := loadWorkloadConfig(path)
				if err != nil {
					log.Printf("osmem-bench: ignoring invalid config reload: %v", err)
					continue
				}

				store.v.Store(cfg)
				log.Printf("osmem-bench: reloaded workload config from %s", path)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("osmem-bench: config watcher error: %v", err)
			}
		}
	}()

	return w, nil
}
