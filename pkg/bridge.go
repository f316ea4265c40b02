package pkg

import (
	"io"
	"log"

	"github.com/ManouchehrRasoulli/rfspoll/internal"
)

// Message
// event as handed to the poll handler, Old is empty unless Action is "move".
type Message struct {
	Action string `json:"action"`
	Root   string `json:"root"`
	File   string `json:"file"`
	Old    string `json:"old"`
}

func newMessage(e internal.Event) Message {
	return Message{
		Action: e.Action.String(),
		Root:   e.Root,
		File:   e.Path,
		Old:    e.OldPath,
	}
}

// Bridge
// watch / unwatch / poll surface over a registry and its queue. Poll is meant
// to be called from a single goroutine, once per tick.
type Bridge struct {
	queue    *internal.Queue
	registry *internal.Registry
	logger   *log.Logger
}

func NewBridge(cfg *Config, lg *log.Logger) (*Bridge, error) {
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.applyDefaults()

	backend, err := internal.NewBackend(cfg.Backend, lg, internal.WithPairWindow(cfg.PairWindow))
	if err != nil {
		return nil, err
	}

	q := internal.NewQueue()
	b := Bridge{
		queue:    q,
		registry: internal.NewRegistry(backend, q, internal.WithLogger(lg)),
		logger:   lg,
	}

	return &b, nil
}

func (b *Bridge) Watch(root string) error {
	return b.registry.Start(root)
}

func (b *Bridge) Unwatch() error {
	return b.registry.Stop()
}

// Poll dispatches every currently queued event to handler and returns how
// many were dispatched. It never blocks waiting for new events.
func (b *Bridge) Poll(handler func(m Message)) int {
	return b.queue.Drain(func(e internal.Event) {
		if handler != nil {
			handler(newMessage(e))
		}
	})
}

func (b *Bridge) Pending() int {
	return b.queue.Len()
}

// Root returns the watched root, empty when idle.
func (b *Bridge) Root() string {
	w, _ := b.registry.Watching()
	return w.Root
}
