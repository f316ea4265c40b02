package internal

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync"
)

var (
	ErrAlreadyWatching = errors.New("already watching a directory")
	ErrNotWatching     = errors.New("not watching a directory")
	ErrOs              = errors.New("os watch failure")
)

// OsError
// failure reported by the backend while starting a watch.
type OsError struct {
	Root string
	Err  error
}

func (e *OsError) Error() string {
	return fmt.Sprintf("watch %s: %v", e.Root, e.Err)
}

func (e *OsError) Unwrap() []error { return []error{ErrOs, e.Err} }

// WatchIdentity
// one active subtree watch.
type WatchIdentity struct {
	Handle Handle
	Root   string
}

type Option func(r *Registry)

func WithLogger(lg *log.Logger) Option {
	return func(r *Registry) {
		r.logger = lg
	}
}

// Registry
// owns at most one active watch and wires the backend notifications into
// the queue.
type Registry struct {
	backend Backend
	queue   *Queue
	logger  *log.Logger

	mu    sync.Mutex
	watch WatchIdentity
}

func NewRegistry(backend Backend, queue *Queue, options ...Option) *Registry {
	r := Registry{
		backend: backend,
		queue:   queue,
		logger:  log.New(io.Discard, "", 0),
	}

	for _, op := range options {
		op(&r)
	}

	return &r
}

// Start begins a recursive watch on root. A second Start without a Stop
// fails with ErrAlreadyWatching and leaves the first watch running.
func (r *Registry) Start(root string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watch.Handle != 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyWatching, r.watch.Root)
	}

	root = filepath.Clean(root)
	h, err := r.backend.Start(root, true, r.sink)
	if err != nil {
		r.logger.Printf("registry error :: start %s on %s backend failed %v\n", root, r.backend.Name(), err)
		return &OsError{Root: root, Err: err}
	}

	r.watch = WatchIdentity{Handle: h, Root: root}
	r.logger.Printf("registry :: watching %s, id %d\n", root, h)
	return nil
}

// Stop ends the active watch. Events already queued stay for the next drain.
func (r *Registry) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watch.Handle == 0 {
		return ErrNotWatching
	}

	w := r.watch
	r.watch = WatchIdentity{}
	if err := r.backend.Stop(w.Handle); err != nil {
		r.logger.Printf("registry error :: stop %s (id %d) returned %v\n", w.Root, w.Handle, err)
	}
	r.logger.Printf("registry :: unwatched %s, id %d\n", w.Root, w.Handle)
	return nil
}

func (r *Registry) Watching() (WatchIdentity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watch, r.watch.Handle != 0
}

// sink runs on backend goroutines, it only builds the event and queues it.
func (r *Registry) sink(action Action, root, path, oldPath string) {
	e := NewEvent(action, root, path, oldPath)
	if !e.Valid() {
		return
	}
	r.queue.Push(e)
}
