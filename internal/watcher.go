package internal

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Fsnotify
// portable backend over fsnotify. Recursion is done by adding every directory
// of the subtree. fsnotify reports the two halves of a rename unrelated, so
// they come out as a Delete of the old path and a Create of the new one.
type Fsnotify struct {
	logger *log.Logger

	mu      sync.Mutex
	last    Handle
	watches map[Handle]*fsWatch
}

func NewFsnotify(lg *log.Logger) *Fsnotify {
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}

	return &Fsnotify{
		logger:  lg,
		watches: make(map[Handle]*fsWatch),
	}
}

func (f *Fsnotify) Name() string { return FsnotifyBackend }

func (f *Fsnotify) Start(root string, recursive bool, sink Sink) (Handle, error) {
	if err := checkRoot(root); err != nil {
		return 0, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return 0, err
	}

	w := &fsWatch{
		fw:        fw,
		root:      root,
		recursive: recursive,
		sink:      sink,
		logger:    f.logger,
		closed:    make(chan struct{}),
	}

	if recursive {
		err = w.watchPath(root)
	} else {
		err = fw.Add(root)
	}
	if err != nil {
		_ = fw.Close()
		return 0, err
	}

	f.mu.Lock()
	f.last++
	h := f.last
	f.watches[h] = w
	f.mu.Unlock()

	w.wg.Add(1)
	go w.run()

	return h, nil
}

// Stop closes the os watcher and waits for the reader goroutine, so the sink
// is not called once it returns.
func (f *Fsnotify) Stop(h Handle) error {
	f.mu.Lock()
	w, ok := f.watches[h]
	delete(f.watches, h)
	f.mu.Unlock()

	if !ok {
		return ErrUnknownHandle
	}

	close(w.closed)      // Close local threads
	err := w.fw.Close() // Close filesystem watcher
	w.wg.Wait()
	return err
}

type fsWatch struct {
	fw        *fsnotify.Watcher
	root      string
	recursive bool
	sink      Sink
	logger    *log.Logger
	closed    chan struct{}
	wg        sync.WaitGroup
}

func (w *fsWatch) watchPath(path string) error {
	files, err := os.ReadDir(path)
	if err != nil {
		return err
	}

	for _, f := range files {
		if f.IsDir() {
			err = w.watchPath(filepath.Join(path, f.Name()))
			if err != nil {
				return err
			}
		}
	}

	return w.fw.Add(path)
}

func (w *fsWatch) run() {
	defer w.wg.Done()

	for {
		select {
		case e, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(e)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("fsnotify error :: %v on %s\n", err, w.root)
		case <-w.closed:
			return
		}
	}
}

func (w *fsWatch) handle(e fsnotify.Event) {
	if len(e.Name) == 0 { // no event !
		return
	}

	rel, ok := relative(w.root, e.Name)
	if !ok {
		return
	}

	switch {
	case e.Has(fsnotify.Create):
		if w.recursive {
			fs, _ := os.Stat(e.Name)
			if fs != nil && fs.IsDir() {
				if err := w.watchPath(e.Name); err != nil {
					w.logger.Printf("fsnotify error :: add new directory %s got %v\n", e.Name, err)
				}
			}
		}
		w.sink(Create, w.root, rel, "")
	case e.Has(fsnotify.Remove), e.Has(fsnotify.Rename):
		w.sink(Delete, w.root, rel, "")
	case e.Has(fsnotify.Write):
		w.sink(Modify, w.root, rel, "")
	}
}
