package squash

import (
	"context"
	"time"

	vfs "github.com/mwantia/initfs"
	"github.com/mwantia/initfs/data"
)

// The archive is strictly read-only: lookup, read and attribute
// queries work, every mutating node operation answers with a typed
// unsupported error through the embedded defaults.

// Mount implements vfs.FileSystemOps. The reader validated the image
// at construction, so mounting has nothing left to prepare.
func (s *Squash) Mount(ctx context.Context, path string) error {
	return nil
}

func (s *Squash) Unmount(ctx context.Context) error {
	return nil
}

// Root decodes the root directory inode and wraps it into a node.
func (s *Squash) Root(ctx context.Context) (*vfs.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.readRoot()
	if err != nil {
		return nil, err
	}

	return s.newNode(root), nil
}

// StatFs fills filesystem statistics from the superblock. The archive
// is immutable, so free counts are zero.
func (s *Squash) StatFs(ctx context.Context) (*data.StatFs, error) {
	sb := s.superblock

	return &data.StatFs{
		Type:        Magic,
		BlockSize:   sb.BlockSize,
		TotalBlocks: uint32((sb.BytesUsed + uint64(sb.BlockSize) - 1) / uint64(sb.BlockSize)),
		Files:       sb.InodeCount,
		FsID:        sb.ModTime,
	}, nil
}

// Sync is a no-op: nothing is ever dirty.
func (s *Squash) Sync(ctx context.Context) error {
	return nil
}

func (s *Squash) Fid(ctx context.Context, path string) (*data.FileID, error) {
	return nil, data.ErrUnsupported
}

func (s *Squash) Vget(ctx context.Context, fid data.FileID) (*vfs.Node, error) {
	return nil, data.ErrUnsupported
}

func (s *Squash) newNode(in *inode) *vfs.Node {
	return vfs.NewNode(&squashNode{fs: s, inode: in}, in.nodeType())
}

// squashNode binds a decoded inode to its reader. All table access
// goes back through the owning Squash under its lock, since chunk
// decompression memoizes shared state.
type squashNode struct {
	vfs.UnsupportedNodeOps

	fs    *Squash
	inode *inode
}

// Open and Close have no backend state to manage; the handles only
// exist for reference counting upstream.
func (n *squashNode) Open(ctx context.Context, flags uint32, cred data.UserCred) error {
	return nil
}

func (n *squashNode) Close(ctx context.Context, flags uint32, cred data.UserCred) error {
	return nil
}

func (n *squashNode) Len() int64 {
	return n.inode.size()
}

func (n *squashNode) Read(ctx context.Context, count, offset int64, cred data.UserCred) ([]byte, error) {
	if n.inode.file == nil {
		return nil, data.ErrIsDirectory
	}

	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	return n.fs.readFileData(n.inode.file, count, offset)
}

func (n *squashNode) Lookup(ctx context.Context, name string, cred data.UserCred) (*vfs.Node, error) {
	if !n.inode.isDirectory() {
		return nil, data.ErrNotDirectory
	}

	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	child, err := n.fs.findEntry(n.inode, name)
	if err != nil {
		return nil, err
	}

	return n.fs.newNode(child), nil
}

func (n *squashNode) ReadDir(ctx context.Context, cred data.UserCred) ([]*data.DirEntry, error) {
	if !n.inode.isDirectory() {
		return nil, data.ErrNotDirectory
	}

	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	return n.fs.listEntries(n.inode)
}

func (n *squashNode) GetAttr(ctx context.Context, cred data.UserCred) (*data.Attributes, error) {
	header := n.inode.header

	var linkCount uint32
	switch {
	case n.inode.directory != nil:
		linkCount = n.inode.directory.LinkCount
	case n.inode.extendedDir != nil:
		linkCount = n.inode.extendedDir.LinkCount
	default:
		linkCount = 1
	}

	return &data.Attributes{
		Type:       n.inode.nodeType(),
		Mode:       header.Mode,
		UID:        header.UID,
		GID:        header.GID,
		NodeID:     header.InodeNum,
		LinkCount:  linkCount,
		Size:       n.inode.size(),
		BlockSize:  n.fs.superblock.BlockSize,
		ModifyTime: time.Unix(int64(header.ModTime), 0),
	}, nil
}

// Access always grants: the archive carries no enforcement and every
// credential may read.
func (n *squashNode) Access(ctx context.Context, mode uint32, cred data.UserCred) error {
	return nil
}
