package data

import (
	"errors"
	"sync"
)

// Standard errors that backend implementations should use.
var (
	// Path resolution errors
	ErrNotExist     = errors.New("initfs: path does not exist")
	ErrNotDirectory = errors.New("initfs: not a directory")
	ErrIsDirectory  = errors.New("initfs: is a directory")

	// Mount registry errors
	ErrNotMounted     = errors.New("initfs: path not mounted")
	ErrAlreadyMounted = errors.New("initfs: path already mounted")
	ErrMountBusy      = errors.New("initfs: mount point busy")
	ErrRootRequired   = errors.New("initfs: root mount required first")

	// Backend errors
	ErrUnsupported = errors.New("initfs: operation not supported by backend")
	ErrCorrupt     = errors.New("initfs: corrupt filesystem image")
	ErrIo          = errors.New("initfs: i/o failure")
	ErrDecompress  = errors.New("initfs: decompression failure")

	// Handle errors
	ErrClosed  = errors.New("initfs: file already closed")
	ErrInvalid = errors.New("initfs: invalid argument")
)

// Errors collects multiple errors from multi-step teardown paths.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
