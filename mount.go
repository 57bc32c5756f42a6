package vfs

import (
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/initfs/data"
)

// Mount is one mounted filesystem instance: a normalized mount path and
// the backend serving it. Mounts are recorded in insertion order; the
// root mount ("/", normalized to the empty string) is always first.
type Mount struct {
	ID        string
	Path      string
	Backend   FileSystemOps
	MountTime time.Time
}

func newMount(path string, backend FileSystemOps) *Mount {
	return &Mount{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Path:      path,
		Backend:   backend,
		MountTime: time.Now(),
	}
}

// Info returns the mount's public metadata.
func (m *Mount) Info() data.MountInfo {
	return data.MountInfo{
		ID:        m.ID,
		Path:      m.Path,
		MountTime: m.MountTime,
	}
}
