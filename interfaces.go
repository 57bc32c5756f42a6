package vfs

import (
	"context"

	"github.com/mwantia/initfs/data"
)

// FileSystemOps is the filesystem-level capability set. One
// implementation exists per backend type (archive image, memory,
// sqlite, ...) and is attached to the registry through Mount.
type FileSystemOps interface {
	// Mount is invoked by the registry once, right before the backend
	// is recorded. Backends prepare whatever per-mount state they need.
	Mount(ctx context.Context, path string) error

	// Unmount releases per-mount state. Invoked by the registry after
	// the mount has been detached.
	Unmount(ctx context.Context) error

	// Root returns a node for the backend's root directory.
	Root(ctx context.Context) (*Node, error)

	// StatFs returns filesystem-wide statistics.
	StatFs(ctx context.Context) (*data.StatFs, error)

	// Sync flushes any buffered state. Read-only backends return nil.
	Sync(ctx context.Context) error

	// Fid resolves a path into an opaque file identity.
	Fid(ctx context.Context, path string) (*data.FileID, error)

	// Vget turns a file identity obtained from Fid back into a node.
	Vget(ctx context.Context, fid data.FileID) (*Node, error)
}

// NodeOps is the per-node capability set. Backends that do not support
// an operation return data.ErrUnsupported; they never abort. The
// UnsupportedNodeOps embeddable provides that default for every method.
type NodeOps interface {
	// Open prepares the node for I/O. The registry calls it only on the
	// first reference (see File); subsequent opens adjust the count.
	Open(ctx context.Context, flags uint32, cred data.UserCred) error

	// Close is the counterpart of Open, called when the last reference
	// is dropped.
	Close(ctx context.Context, flags uint32, cred data.UserCred) error

	// Read returns count bytes starting at offset. Bounds are validated
	// by Node.Read before delegation, so implementations may assume
	// offset < Len() and offset+count <= Len().
	Read(ctx context.Context, count, offset int64, cred data.UserCred) ([]byte, error)

	Write(ctx context.Context, offset int64, buffer []byte, cred data.UserCred) (int, error)
	Ioctl(ctx context.Context, com uint32, buffer []byte, cred data.UserCred) error

	GetAttr(ctx context.Context, cred data.UserCred) (*data.Attributes, error)
	SetAttr(ctx context.Context, attr data.Attributes, cred data.UserCred) error
	Access(ctx context.Context, mode uint32, cred data.UserCred) error

	// Lookup resolves a single child name within a directory node.
	// Returns data.ErrNotExist on a miss and data.ErrNotDirectory when
	// the node cannot contain children.
	Lookup(ctx context.Context, name string, cred data.UserCred) (*Node, error)

	Create(ctx context.Context, name string, attr data.Attributes, cred data.UserCred) (*Node, error)
	Link(ctx context.Context, target *Node, name string, cred data.UserCred) error
	Rename(ctx context.Context, name string, target *Node, targetName string, cred data.UserCred) error
	Mkdir(ctx context.Context, name string, attr data.Attributes, cred data.UserCred) (*Node, error)

	// ReadDir lists the entries of a directory node.
	ReadDir(ctx context.Context, cred data.UserCred) ([]*data.DirEntry, error)

	Symlink(ctx context.Context, name string, target string, cred data.UserCred) error
	ReadLink(ctx context.Context, cred data.UserCred) (string, error)
	Fsync(ctx context.Context, cred data.UserCred) error

	// Len returns the node's size in bytes.
	Len() int64
}
