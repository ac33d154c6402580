// Package watch implements a directory watcher used by the --watch CLI
// mode: it monitors a shard directory for changes and debounces them
// into a single re-analysis trigger, using fsnotify where available and
// falling back to polling.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDuration is how long Watcher waits after the last
// observed change before firing OnChange, coalescing bursts of shard
// writes (e.g. an exploration phase rewriting several files at once)
// into one re-analysis.
const DefaultDebounceDuration = 300 * time.Millisecond

// DefaultPollInterval is the polling interval used when fsnotify
// cannot be set up on the target directory.
const DefaultPollInterval = 2 * time.Second

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration overrides DefaultDebounceDuration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDuration = d }
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnChange sets the callback invoked, at most once per debounce
// window, when the directory's contents change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback invoked on a watch-level error (a
// removed directory, a permission failure). Analysis errors from the
// caller's own re-run are not routed through this.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll forces polling mode even when fsnotify is available,
// useful on filesystems (network mounts, some container overlays)
// where inotify events are unreliable.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// Watcher monitors a directory for shard changes, using fsnotify with
// a polling fallback, and debounces bursts of events into a single
// OnChange call.
type Watcher struct {
	dir              string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool

	fsWatcher   *fsnotify.Watcher
	useFallback bool

	mu        sync.Mutex
	timer     *time.Timer
	started   bool
	snapshot  map[string]time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	changeCh  chan struct{}
}

// New creates a Watcher for the directory containing the given shard
// path prefix (the directory part of the --states argument).
func New(prefix string, opts ...Option) (*Watcher, error) {
	dir := filepath.Dir(prefix)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:              abs,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. It is not safe to call twice.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.snapshot = w.statDir()

	if !w.forcePoll {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if err := fsw.Add(w.dir); err == nil {
				w.fsWatcher = fsw
				w.started = true
				go w.watchFsnotify()
				return nil
			}
			fsw.Close()
		}
	}

	w.useFallback = true
	w.started = true
	go w.watchPolling()
	return nil
}

// Stop ends watching and releases the fsnotify handle, if any.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.started = false
}

// Changed returns a channel that receives once per debounced change, as
// an alternative to the OnChange callback.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// IsPolling reports whether the watcher fell back to polling.
func (w *Watcher) IsPolling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.useFallback
}

func (w *Watcher) watchFsnotify() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.debounce()
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			current := w.statDir()
			w.mu.Lock()
			changed := !sameSnapshot(w.snapshot, current)
			w.snapshot = current
			w.mu.Unlock()
			if changed {
				w.debounce()
			}
		}
	}
}

func (w *Watcher) statDir() map[string]time.Time {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.onError(err)
		return nil
	}
	out := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out[e.Name()] = info.ModTime()
	}
	return out
}

func sameSnapshot(a, b map[string]time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for name, mtime := range a {
		if b[name] != mtime {
			return false
		}
	}
	return true
}

func (w *Watcher) debounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDuration, w.notifyChange)
}

func (w *Watcher) notifyChange() {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return
	}
	w.onChange()
	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
