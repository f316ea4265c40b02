package filehandler

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ManouchehrRasoulli/rfspoll/pkg"
)

type Meta struct {
	Name       string
	Size       int64
	ModifyTime time.Time
}

func (f Meta) String() string {
	return fmt.Sprintf("file meta :: file-name: %s, size: %d, modified_at: %v", f.Name, f.Size, f.ModifyTime.String())
}

// Handler
// file metadata index of a watched root, kept current by applying polled
// messages. Keys are slash separated paths relative to root.
type Handler struct {
	meta   map[string]Meta
	rwM    sync.RWMutex
	path   string
	logger *log.Logger
}

func NewHandler(path string, logger *log.Logger) (*Handler, error) {
	logger.Printf("NEW handler :: on path %s\n", path)

	h := Handler{
		meta:   make(map[string]Meta),
		rwM:    sync.RWMutex{},
		path:   filepath.Clean(path),
		logger: logger,
	}

	h.rwM.Lock()
	defer h.rwM.Unlock()
	if err := h.readDir(""); err != nil {
		return nil, err
	}

	return &h, nil
}

// readDir indexes every regular file below rel.
func (h *Handler) readDir(rel string) error {
	files, err := os.ReadDir(filepath.Join(h.path, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}

	for _, f := range files {
		name := path.Join(rel, f.Name())
		if f.IsDir() {
			if err = h.readDir(name); err != nil {
				return err
			}
			continue
		}

		info, err := f.Info()
		if err != nil {
			continue // gone since listing
		}
		h.meta[name] = Meta{
			Name:       name,
			Size:       info.Size(),
			ModifyTime: info.ModTime(),
		}
	}

	return nil
}

func (h *Handler) GetMeta(name string) *Meta {
	h.rwM.RLock()
	defer h.rwM.RUnlock()

	if m, c := h.meta[name]; c {
		metaCopy := m
		return &metaCopy
	}
	return nil
}

func (h *Handler) Len() int {
	h.rwM.RLock()
	defer h.rwM.RUnlock()
	return len(h.meta)
}

func (h *Handler) ListFiles() []Meta {
	h.rwM.RLock()
	defer h.rwM.RUnlock()

	files := make([]Meta, 0, len(h.meta))
	for _, meta := range h.meta {
		files = append(files, meta)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

// Apply
// poll handler keeping the index in line with the watched tree. Messages of
// another root are ignored.
func (h *Handler) Apply(m pkg.Message) {
	if filepath.Clean(m.Root) != h.path {
		return
	}

	h.rwM.Lock()
	defer h.rwM.Unlock()

	switch m.Action {
	case "create", "modify":
		h.refresh(m.File)
	case "delete":
		h.remove(m.File)
	case "move":
		h.remove(m.Old)
		h.refresh(m.File)
	default:
		h.logger.Printf("ERROR handler :: unknown action on message %v\n", m)
	}
}

func (h *Handler) refresh(name string) {
	fs, err := os.Stat(filepath.Join(h.path, filepath.FromSlash(name)))
	if err != nil {
		// removed again before this tick, a delete follows
		return
	}

	if fs.IsDir() {
		if err := h.readDir(name); err != nil {
			h.logger.Printf("ERROR handler :: got error %v reading directory %s\n", err, name)
		}
		return
	}

	if _, contains := h.meta[name]; contains {
		h.logger.Printf("handler :: got modification on file meta --> %s\n", h.meta[name])
	} else {
		h.logger.Printf("handler :: got new file --> %s\n", name)
	}
	h.meta[name] = Meta{
		Name:       name,
		Size:       fs.Size(),
		ModifyTime: fs.ModTime(),
	}
}

// remove drops name and, when name was a directory, everything below it.
func (h *Handler) remove(name string) {
	prefix := name + "/"
	for k := range h.meta {
		if k == name || strings.HasPrefix(k, prefix) {
			h.logger.Printf("handler :: remove file meta --> %s\n", h.meta[k])
			delete(h.meta, k)
		}
	}
}
