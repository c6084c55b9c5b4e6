package knobsfile

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"ctlmapper/internal/config"
	"ctlmapper/internal/diag"
)

// Watcher reloads a knobs file whenever something else writes it (the
// overlay process writing its own copy, or a user hand-editing the JSON),
// so a running mapper picks up the change without restarting.
type Watcher struct {
	fsw  *fsnotify.Watcher
	path string
	log  *diag.Logger
}

// Watch starts watching path's containing directory (fsnotify watches
// directories, not bare files, so an editor's rename-into-place still
// fires a Write/Create event for the target name) and returns a Watcher
// whose Changes channel is fed whenever path itself changes.
func Watch(path string, log *diag.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{fsw: fsw, path: path, log: log}, nil
}

// Changes streams decoded knob overrides every time the watched file is
// written. Decode errors are logged and skipped rather than sent, since a
// half-written file from an editor's save is a transient state, not a
// reason to stop watching.
func (w *Watcher) Changes() <-chan map[string]config.Value {
	out := make(chan map[string]config.Value)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(w.path) || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				values, err := Load(w.path)
				if err != nil {
					w.log.Printf(diag.Knobs, "reload %s: %v", w.path, err)
					continue
				}
				out <- values
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.log.Printf(diag.Knobs, "watch %s: %v", w.path, err)
			}
		}
	}()
	return out
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }
