package vfs

import (
	"context"

	"github.com/mwantia/initfs/data"
)

// File is a live reference to a resolved node plus the credentials it
// was opened with. Construction bumped the node's reference count;
// Close drops it again and triggers the backend close on the last
// reference.
type File struct {
	fs     *VirtualFileSystem
	entry  *cacheEntry
	cred   data.UserCred
	closed bool
}

// Node exposes the underlying node handle.
func (f *File) Node() *Node {
	return f.entry.node
}

// Len returns the file size in bytes.
func (f *File) Len() int64 {
	return f.entry.node.Len()
}

// Read returns count bytes starting at offset. A count of zero means
// "read to the end from offset"; that convention lives here, in the
// caller-facing handle, not in the node contract.
func (f *File) Read(ctx context.Context, count, offset int64) ([]byte, error) {
	if f.closed {
		return nil, data.ErrClosed
	}

	size := f.entry.node.Len()
	if count == 0 {
		if offset > size {
			return nil, data.ErrInvalid
		}
		count = size - offset
	}

	if count == 0 {
		return []byte{}, nil
	}

	return f.entry.node.Read(ctx, count, offset, f.cred)
}

// ReadDir lists the entries when the file refers to a directory.
func (f *File) ReadDir(ctx context.Context) ([]*data.DirEntry, error) {
	if f.closed {
		return nil, data.ErrClosed
	}

	return f.entry.node.ReadDir(ctx, f.cred)
}

// Close releases the reference. Closing twice is an error.
func (f *File) Close(ctx context.Context) error {
	if f.closed {
		return data.ErrClosed
	}
	f.closed = true

	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	return f.entry.node.close(ctx, 0, f.cred)
}
