package scenario

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"dispatch-voice-go/internal/logger"
)

// Watcher keeps a Registry in sync with a directory of YAML scenarios.
// Calls already in progress keep the definition they started with.
type Watcher struct {
	dir   string
	reg   *Registry
	log   *logger.Logger
	files map[string]string // path -> scenario id

	// Reloaded, when set, is called after every successful reload.
	Reloaded func(Definition)
}

func NewWatcher(dir string, reg *Registry, log *logger.Logger) *Watcher {
	return &Watcher{
		dir:   dir,
		reg:   reg,
		log:   log.Component("scenario_watcher"),
		files: map[string]string{},
	}
}

// Backfill loads every scenario file currently in the directory. Invalid
// files are logged and skipped.
func (w *Watcher) Backfill() error {
	entries, err := filepath.Glob(filepath.Join(w.dir, "*"))
	if err != nil {
		return err
	}
	for _, e := range entries {
		if IsScenarioFile(e) {
			w.load(e)
		}
	}
	return nil
}

// Start watches the directory until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if w.dir == "" {
		w.log.Info("scenario watcher disabled")
		return nil
	}
	if _, err := os.Stat(w.dir); err != nil {
		return err
	}
	if err := w.Backfill(); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				w.handle(evt)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.log.WithError(err).Warn("scenario watcher error")
			}
		}
	}()
	return watcher.Add(w.dir)
}

func (w *Watcher) handle(evt fsnotify.Event) {
	if !IsScenarioFile(evt.Name) {
		return
	}
	switch {
	case evt.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.load(evt.Name)
	case evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if id, ok := w.files[evt.Name]; ok {
			delete(w.files, evt.Name)
			w.reg.Remove(id)
			w.log.WithField("scenario", id).Info("scenario removed")
		}
	}
}

func (w *Watcher) load(path string) {
	d, err := LoadFile(path)
	if err != nil {
		w.log.WithError(err).WithField("file", filepath.Base(path)).Warn("scenario rejected")
		return
	}
	if err := w.reg.Put(d); err != nil {
		w.log.WithError(err).WithField("file", filepath.Base(path)).Warn("scenario rejected")
		return
	}
	w.files[path] = d.ID
	w.log.WithField("scenario", d.ID).Info("scenario loaded")
	if w.Reloaded != nil {
		w.Reloaded(d)
	}
}
