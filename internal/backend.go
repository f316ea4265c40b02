package internal

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPairWindow how long one half of a move waits for the other.
const DefaultPairWindow = 50 * time.Millisecond

const (
	FsnotifyBackend = "fsnotify"
	NotifyBackend   = "notify"
)

var (
	ErrUnsupportedBackend = errors.New("unsupported watch backend")
	ErrUnknownHandle      = errors.New("unknown watch handle")
	ErrNotDirectory       = errors.New("watch root is not a directory")
)

// Handle
// opaque watch id issued by a backend, zero means no watch.
type Handle uint64

// Sink receives normalized notifications, possibly from several goroutines at
// once. path and oldPath are relative to root.
type Sink func(action Action, root, path, oldPath string)

// Backend
// os level watch mechanism. Every backend turns its raw notifications into
// zero or more Sink calls; once Stop returns the sink is not called again for
// that handle.
type Backend interface {
	Name() string
	Start(root string, recursive bool, sink Sink) (Handle, error)
	Stop(h Handle) error
}

type backendConfig struct {
	window time.Duration
}

type BackendOption func(c *backendConfig)

// WithPairWindow sets how long half of a move is held waiting for the other
// half before it degrades into a delete or create. Only backends that can
// pair moves use it.
func WithPairWindow(d time.Duration) BackendOption {
	return func(c *backendConfig) {
		if d > 0 {
			c.window = d
		}
	}
}

func newBackendConfig(options []BackendOption) backendConfig {
	c := backendConfig{window: DefaultPairWindow}
	for _, op := range options {
		op(&c)
	}
	return c
}

// DefaultBackend is notify where moves can be paired exactly (linux),
// fsnotify elsewhere.
func DefaultBackend() string { return defaultBackend }

// NewBackend returns the backend registered under name, the empty name
// selects DefaultBackend.
func NewBackend(name string, lg *log.Logger, options ...BackendOption) (Backend, error) {
	if name == "" {
		name = defaultBackend
	}

	switch name {
	case FsnotifyBackend:
		return NewFsnotify(lg), nil
	case NotifyBackend:
		return newNotify(lg, options...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, name)
	}
}

// relative maps an absolute notification path onto root, using slash
// separators. ok is false when name is root itself or lies outside it.
func relative(root, name string) (string, bool) {
	rel, err := filepath.Rel(root, name)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func checkRoot(root string) error {
	fs, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !fs.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	return nil
}
