// Package mounts holds secondary backends for the virtual filesystem:
// an in-memory tree and a SQLite-backed store. Both speak the same
// node contract as the archive reader and stay read-only through it;
// their content is assembled up front through construction helpers.
package mounts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	vfs "github.com/mwantia/initfs"
	"github.com/mwantia/initfs/data"
)

// Memory is an in-memory filesystem backend. The tree is built with
// AddFile/AddDir before mounting; through the node contract it behaves
// exactly like any other read-only backend.
type Memory struct {
	mu   sync.RWMutex
	root *memoryNode
}

type memoryNode struct {
	name     string
	dir      bool
	content  []byte
	modTime  time.Time
	children map[string]*memoryNode
}

// NewMemory creates a backend holding only an empty root directory.
func NewMemory() *Memory {
	return &Memory{
		root: &memoryNode{
			dir:      true,
			modTime:  time.Now(),
			children: make(map[string]*memoryNode),
		},
	}
}

// AddDir creates a directory, including missing parents.
func (m *Memory) AddDir(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.makeDirs(data.Segments(path))
	return err
}

// AddFile stores content at path, creating missing parent directories.
func (m *Memory) AddFile(path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	segments := data.Segments(path)
	if len(segments) == 0 {
		return fmt.Errorf("%w: empty file path", data.ErrInvalid)
	}

	parent, err := m.makeDirs(segments[:len(segments)-1])
	if err != nil {
		return err
	}

	name := segments[len(segments)-1]
	if existing, exists := parent.children[name]; exists && existing.dir {
		return fmt.Errorf("%w: %s", data.ErrIsDirectory, path)
	}

	parent.children[name] = &memoryNode{
		name:    name,
		content: content,
		modTime: time.Now(),
	}

	return nil
}

func (m *Memory) makeDirs(segments []string) (*memoryNode, error) {
	current := m.root
	for _, segment := range segments {
		child, exists := current.children[segment]
		if !exists {
			child = &memoryNode{
				name:     segment,
				dir:      true,
				modTime:  time.Now(),
				children: make(map[string]*memoryNode),
			}
			current.children[segment] = child
		}
		if !child.dir {
			return nil, fmt.Errorf("%w: %s", data.ErrNotDirectory, segment)
		}
		current = child
	}

	return current, nil
}

// Mount implements vfs.FileSystemOps.
func (m *Memory) Mount(ctx context.Context, path string) error {
	return nil
}

func (m *Memory) Unmount(ctx context.Context) error {
	return nil
}

func (m *Memory) Root(ctx context.Context) (*vfs.Node, error) {
	return m.newNode(m.root), nil
}

func (m *Memory) StatFs(ctx context.Context) (*data.StatFs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files uint32
	var walk func(n *memoryNode)
	walk = func(n *memoryNode) {
		files++
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(m.root)

	return &data.StatFs{
		BlockSize: 1,
		Files:     files,
	}, nil
}

func (m *Memory) Sync(ctx context.Context) error {
	return nil
}

func (m *Memory) Fid(ctx context.Context, path string) (*data.FileID, error) {
	return nil, data.ErrUnsupported
}

func (m *Memory) Vget(ctx context.Context, fid data.FileID) (*vfs.Node, error) {
	return nil, data.ErrUnsupported
}

func (m *Memory) newNode(n *memoryNode) *vfs.Node {
	typ := data.NodeTypeFile
	if n.dir {
		typ = data.NodeTypeDirectory
	}

	return vfs.NewNode(&memoryNodeOps{fs: m, node: n}, typ)
}

type memoryNodeOps struct {
	vfs.UnsupportedNodeOps

	fs   *Memory
	node *memoryNode
}

func (ops *memoryNodeOps) Open(ctx context.Context, flags uint32, cred data.UserCred) error {
	return nil
}

func (ops *memoryNodeOps) Close(ctx context.Context, flags uint32, cred data.UserCred) error {
	return nil
}

func (ops *memoryNodeOps) Len() int64 {
	ops.fs.mu.RLock()
	defer ops.fs.mu.RUnlock()

	return int64(len(ops.node.content))
}

func (ops *memoryNodeOps) Read(ctx context.Context, count, offset int64, cred data.UserCred) ([]byte, error) {
	if ops.node.dir {
		return nil, data.ErrIsDirectory
	}

	ops.fs.mu.RLock()
	defer ops.fs.mu.RUnlock()

	content := ops.node.content
	if offset >= int64(len(content)) {
		return []byte{}, nil
	}
	if offset+count > int64(len(content)) {
		count = int64(len(content)) - offset
	}

	result := make([]byte, count)
	copy(result, content[offset:offset+count])

	return result, nil
}

func (ops *memoryNodeOps) Lookup(ctx context.Context, name string, cred data.UserCred) (*vfs.Node, error) {
	if !ops.node.dir {
		return nil, data.ErrNotDirectory
	}

	ops.fs.mu.RLock()
	defer ops.fs.mu.RUnlock()

	child, exists := ops.node.children[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, name)
	}

	return ops.fs.newNode(child), nil
}

func (ops *memoryNodeOps) ReadDir(ctx context.Context, cred data.UserCred) ([]*data.DirEntry, error) {
	if !ops.node.dir {
		return nil, data.ErrNotDirectory
	}

	ops.fs.mu.RLock()
	defer ops.fs.mu.RUnlock()

	entries := make([]*data.DirEntry, 0, len(ops.node.children))
	for _, child := range ops.node.children {
		typ := data.NodeTypeFile
		if child.dir {
			typ = data.NodeTypeDirectory
		}
		entries = append(entries, &data.DirEntry{Name: child.name, Type: typ})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

func (ops *memoryNodeOps) GetAttr(ctx context.Context, cred data.UserCred) (*data.Attributes, error) {
	ops.fs.mu.RLock()
	defer ops.fs.mu.RUnlock()

	typ := data.NodeTypeFile
	if ops.node.dir {
		typ = data.NodeTypeDirectory
	}

	return &data.Attributes{
		Type:       typ,
		Size:       int64(len(ops.node.content)),
		LinkCount:  1,
		ModifyTime: ops.node.modTime,
	}, nil
}

func (ops *memoryNodeOps) Access(ctx context.Context, mode uint32, cred data.UserCred) error {
	return nil
}
