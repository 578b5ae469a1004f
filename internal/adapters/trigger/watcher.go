package trigger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/application"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const DefaultDebounce = 2 * time.Second

// Watcher signals SignalDataReceived when one of the watched paths changes.
// Files are watched through their parent directory so atomic replaces are
// seen too. A burst of changes yields one signal after Debounce.
type Watcher struct {
	paths    []string
	notifier Notifier
	log      logrus.FieldLogger
	Debounce time.Duration
}

func NewWatcher(paths []string, notifier Notifier, log logrus.FieldLogger) *Watcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Watcher{
		paths:    paths,
		notifier: notifier,
		log:      log.WithField("component", "watcher"),
		Debounce: DefaultDebounce,
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.paths) == 0 {
		return errors.New("no paths to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	targets, err := w.addPaths(fsw)
	if err != nil {
		return err
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.Debounce, func() {
			if ctx.Err() == nil {
				w.notifier.Notify(application.SignalDataReceived)
			}
		})
	}
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event, targets) {
				continue
			}
			w.log.WithFields(logrus.Fields{"path": event.Name, "op": event.Op.String()}).Debug("source changed")
			fire()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")
		}
	}
}

// addPaths registers the watched directories and returns the set of paths
// whose events count. A directory path maps to the empty name, meaning any
// entry inside it.
func (w *Watcher) addPaths(fsw *fsnotify.Watcher) (map[string]map[string]bool, error) {
	targets := make(map[string]map[string]bool)
	for _, path := range w.paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve watch path %q: %w", path, err)
		}

		dir, name := absPath, ""
		if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
			dir, name = filepath.Dir(absPath), filepath.Base(absPath)
		}
		if err := fsw.Add(dir); err != nil {
			return nil, fmt.Errorf("watch %q: %w", path, err)
		}

		if targets[dir] == nil {
			targets[dir] = make(map[string]bool)
		}
		targets[dir][name] = true
	}
	return targets, nil
}

func relevant(event fsnotify.Event, targets map[string]map[string]bool) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	names, ok := targets[filepath.Dir(event.Name)]
	if !ok {
		return false
	}
	return names[""] || names[filepath.Base(event.Name)]
}
