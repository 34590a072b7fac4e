package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/logger"
	"go.uber.org/zap"
)

// DefaultDebounce collapses editor save bursts into one reload
const DefaultDebounce = 500 * time.Millisecond

// ReloadCallback is called with the freshly loaded config
type ReloadCallback func(*Config) error

// LoadFunc produces a config on reload
type LoadFunc func() (*Config, error)

// Watcher watches config files and calls ReloadCallbacks after changes settle.
// Directories are watched rather than files so editors that replace the file
// on save (rename + create) keep being observed.
type Watcher struct {
	files    map[string]bool
	dirs     map[string][]string
	watcher  *fsnotify.Watcher
	load     LoadFunc
	log      *zap.SugaredLogger
	debounce time.Duration

	mu        sync.Mutex
	callbacks []ReloadCallback
	timer     *time.Timer
	done      chan struct{}
}

// NewWatcher watches files. load defaults to Reset followed by Load.
func NewWatcher(files []string, load LoadFunc, log *zap.SugaredLogger) (*Watcher, error) {
	if len(files) == 0 {
		return nil, errors.New("no config files to watch")
	}
	if load == nil {
		load = func() (*Config, error) {
			Reset()
			return Load()
		}
	}
	if log == nil {
		log = logger.Logger
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		dirs:     make(map[string][]string),
		watcher:  fw,
		load:     load,
		log:      log.With(logger.FieldComponent, "config-watcher"),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "resolve %s", f)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	return w, nil
}

// WatchDir also reloads when a file in dir whose base name matches one of
// patterns (filepath.Match syntax) changes or is removed. Call before Start.
func (w *Watcher) WatchDir(dir string, patterns ...string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", dir)
	}
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return errors.Wrapf(err, "bad pattern %q", p)
		}
	}
	if err := w.watcher.Add(abs); err != nil {
		return errors.Wrapf(err, "failed to watch %s", abs)
	}
	w.dirs[abs] = append(w.dirs[abs], patterns...)
	return nil
}

// matches reports whether an event on name concerns a watched file.
func (w *Watcher) matches(name string, op fsnotify.Op) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
	}
	for _, p := range w.dirs[filepath.Dir(name)] {
		if ok, _ := filepath.Match(p, filepath.Base(name)); ok {
			return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename) || op.Has(fsnotify.Remove)
		}
	}
	return false
}

// SetDebounce overrides the debounce period. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// OnReload registers a callback to be called when config is reloaded
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching for config file changes
func (w *Watcher) Start() {
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name, event.Op) {
				continue
			}
			w.log.Infow("Config change detected",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnw("Config watcher error", logger.FieldError, err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.reload(); err != nil {
			// Keep serving the previous config
			w.log.Errorw("Config reload failed", logger.FieldError, err)
		}
	})
}

func (w *Watcher) reload() error {
	cfg, err := w.load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "reloaded config is invalid")
	}

	w.mu.Lock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.log.Infow("Config reloaded", logger.FieldCount, len(callbacks))

	for _, cb := range callbacks {
		if err := cb(cfg); err != nil {
			w.log.Warnw("Config reload callback error", logger.FieldError, err)
		}
	}
	return nil
}

// Stop stops watching for config changes
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	w.mu.Unlock()
	return w.watcher.Close()
}
