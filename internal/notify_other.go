//go:build !linux

package internal

import (
	"fmt"
	"log"
	"runtime"
)

const defaultBackend = FsnotifyBackend

func newNotify(_ *log.Logger, _ ...BackendOption) (Backend, error) {
	return nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedBackend, NotifyBackend, runtime.GOOS)
}
