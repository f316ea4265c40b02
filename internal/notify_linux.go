//go:build linux

package internal

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
	"golang.org/x/sys/unix"
)

const notifyBufferSize = 1024

const defaultBackend = NotifyBackend

// generic events are listed too, the recursive watchpoint may report a
// create only under the generic bit.
var notifyEvents = []notify.Event{
	notify.Create,
	notify.Remove,
	notify.Write,
	notify.InCreate,
	notify.InDelete,
	notify.InModify,
	notify.InMovedFrom,
	notify.InMovedTo,
}

// notifyBackend
// inotify through rjeczalik/notify. The two halves of a move are paired by
// their inotify cookie, whichever arrives first.
type notifyBackend struct {
	logger *log.Logger
	cfg    backendConfig

	mu      sync.Mutex
	last    Handle
	watches map[Handle]*notifyWatch
}

func newNotify(lg *log.Logger, options ...BackendOption) (Backend, error) {
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}

	return &notifyBackend{
		logger:  lg,
		cfg:     newBackendConfig(options),
		watches: make(map[Handle]*notifyWatch),
	}, nil
}

func (n *notifyBackend) Name() string { return NotifyBackend }

func (n *notifyBackend) Start(root string, recursive bool, sink Sink) (Handle, error) {
	if err := checkRoot(root); err != nil {
		return 0, err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}
	// notify reports paths with symlinks resolved.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return 0, err
	}

	w := &notifyWatch{
		c:        make(chan notify.EventInfo, notifyBufferSize),
		root:     root,
		abs:      abs,
		resolved: resolved,
		sink:     sink,
		window:   n.cfg.window,
		logger:   n.logger,
		closed:   make(chan struct{}),
		pending:  make(map[uint32]moveHalf),
	}

	path := abs
	if recursive {
		path = fmt.Sprintf("%s/...", abs)
	}
	if err := notify.Watch(path, w.c, notifyEvents...); err != nil {
		return 0, err
	}

	n.mu.Lock()
	n.last++
	h := n.last
	n.watches[h] = w
	n.mu.Unlock()

	w.wg.Add(1)
	go w.run()

	return h, nil
}

func (n *notifyBackend) Stop(h Handle) error {
	n.mu.Lock()
	w, ok := n.watches[h]
	delete(n.watches, h)
	n.mu.Unlock()

	if !ok {
		return ErrUnknownHandle
	}

	// after notify.Stop nothing else is sent on w.c
	notify.Stop(w.c)
	close(w.closed)
	w.wg.Wait()
	return nil
}

type notifyWatch struct {
	c        chan notify.EventInfo
	root     string
	abs      string
	resolved string
	sink     Sink
	window   time.Duration
	logger   *log.Logger
	closed   chan struct{}
	wg       sync.WaitGroup

	// reader goroutine only, cookie -> half of a move seen so far
	pending map[uint32]moveHalf
	seq     uint64
	timer   *time.Timer
	timeout <-chan time.Time
}

type moveHalf struct {
	path string
	from bool
	at   time.Time
	seq  uint64
}

func (w *notifyWatch) run() {
	defer w.wg.Done()

	for {
		select {
		case ei := <-w.c:
			w.handle(ei)
		case <-w.timeout:
			w.timer = nil
			w.timeout = nil
			w.flush(time.Now())
		case <-w.closed:
			// deliver what was already handed over before Stop
			for {
				select {
				case ei := <-w.c:
					w.handle(ei)
				default:
					w.flush(time.Time{})
					return
				}
			}
		}
	}
}

func (w *notifyWatch) relative(name string) (string, bool) {
	if rel, ok := relative(w.resolved, name); ok {
		return rel, true
	}
	return relative(w.abs, name)
}

// decode classifies by the raw inotify mask, the notify event value may carry
// generic and inotify bits at once. cookie is zero when unknown.
func decode(ei notify.EventInfo) (action Action, from, to bool, cookie uint32) {
	if sys, ok := ei.Sys().(*unix.InotifyEvent); ok {
		switch m := sys.Mask; {
		case m&unix.IN_MOVED_FROM != 0:
			return Delete, true, false, sys.Cookie
		case m&unix.IN_MOVED_TO != 0:
			return Create, false, true, sys.Cookie
		case m&unix.IN_CREATE != 0:
			return Create, false, false, 0
		case m&unix.IN_DELETE != 0:
			return Delete, false, false, 0
		case m&unix.IN_MODIFY != 0:
			return Modify, false, false, 0
		}
		return 0, false, false, 0
	}

	switch e := ei.Event(); {
	case e&notify.InMovedFrom != 0:
		return Delete, true, false, 0
	case e&notify.InMovedTo != 0:
		return Create, false, true, 0
	case e&(notify.InCreate|notify.Create) != 0:
		return Create, false, false, 0
	case e&(notify.InDelete|notify.Remove) != 0:
		return Delete, false, false, 0
	case e&(notify.InModify|notify.Write) != 0:
		return Modify, false, false, 0
	}
	return 0, false, false, 0
}

func (w *notifyWatch) handle(ei notify.EventInfo) {
	rel, ok := w.relative(ei.Path())
	if !ok {
		return
	}

	action, from, to, cookie := decode(ei)
	if action == 0 {
		return
	}
	if (!from && !to) || cookie == 0 {
		// nothing to pair with
		w.sink(action, w.root, rel, "")
		return
	}

	if other, ok := w.pending[cookie]; ok {
		delete(w.pending, cookie)
		switch {
		case other.from && to:
			w.sink(Move, w.root, rel, other.path)
			return
		case !other.from && from:
			w.sink(Move, w.root, other.path, rel)
			return
		}
		// same half twice, the older one stays unpaired
		w.emitHalf(other)
	}

	w.seq++
	w.pending[cookie] = moveHalf{path: rel, from: from, at: time.Now(), seq: w.seq}
	w.arm()
}

func (w *notifyWatch) emitHalf(h moveHalf) {
	if h.from {
		w.sink(Delete, w.root, h.path, "") // moved out of the tree
	} else {
		w.sink(Create, w.root, h.path, "") // moved in from outside
	}
}

// flush emits halves older than the pairing window as deletes / creates, a
// zero now flushes everything.
func (w *notifyWatch) flush(now time.Time) {
	expired := make([]uint32, 0, len(w.pending))
	for cookie, h := range w.pending {
		if now.IsZero() || now.Sub(h.at) >= w.window {
			expired = append(expired, cookie)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return w.pending[expired[i]].seq < w.pending[expired[j]].seq
	})

	for _, cookie := range expired {
		h := w.pending[cookie]
		delete(w.pending, cookie)
		w.emitHalf(h)
	}

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
		w.timeout = nil
	}
	w.arm()
}

// arm schedules the next expiry for the oldest pending half.
func (w *notifyWatch) arm() {
	if w.timer != nil || len(w.pending) == 0 {
		return
	}

	var oldest time.Time
	for _, h := range w.pending {
		if oldest.IsZero() || h.at.Before(oldest) {
			oldest = h.at
		}
	}
	d := w.window - time.Since(oldest)
	if d < 0 {
		d = 0
	}
	w.timer = time.NewTimer(d)
	w.timeout = w.timer.C
}
