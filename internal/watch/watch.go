// Package watch reports changes to Go sources below a set of directories,
// debounced so that an editor saving many files triggers one regeneration.
package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors source directories and signals when a rebuild is due.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	roots     []string
	debounce  time.Duration
	log       *slog.Logger
	onChange  chan struct{}
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Dirs are watched recursively.
	Dirs []string

	DebounceDur time.Duration
	Log         *slog.Logger
}

// DefaultConfig returns defaults for watching dirs.
func DefaultConfig(dirs ...string) Config {
	return Config{
		Dirs:        dirs,
		DebounceDur: 300 * time.Millisecond,
	}
}

// New creates a watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	debounce := cfg.DebounceDur
	if debounce <= 0 {
		debounce = DefaultConfig().DebounceDur
	}

	return &Watcher{
		fsWatcher: fsw,
		roots:     cfg.Dirs,
		debounce:  debounce,
		log:       log,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives a signal after
// relevant changes settle for the debounce duration.
func (w *Watcher) Start() (<-chan struct{}, error) {
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return nil, err
		}
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// addTree watches root and every directory below it that the go tool would
// consider part of the module.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(p); err != nil {
			return fmt.Errorf("watching directory %s: %w", p, err)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "testdata" || name == "vendor"
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() && !skipDir(filepath.Base(event.Name)) {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warn("watch: cannot watch new directory", "dir", event.Name, "err", err)
					}
					continue
				}
			}

			if !isRelevantEvent(event) {
				continue
			}
			w.log.Debug("watch: source changed", "file", event.Name, "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				// Non-blocking send; one queued signal is enough.
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch: fsnotify error", "err", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports whether event touches a hand-written Go source.
// Generated files are ignored so a regeneration does not trigger itself.
func isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	return strings.HasSuffix(base, ".go") &&
		!strings.HasSuffix(base, "_test.go") &&
		!strings.HasSuffix(base, ".gen.go")
}
