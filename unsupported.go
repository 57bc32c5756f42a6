package vfs

import (
	"context"

	"github.com/mwantia/initfs/data"
)

// UnsupportedNodeOps implements every NodeOps method as a typed
// data.ErrUnsupported return. Read-only backends embed it and override
// the handful of operations they actually provide.
type UnsupportedNodeOps struct{}

func (UnsupportedNodeOps) Open(ctx context.Context, flags uint32, cred data.UserCred) error {
	return data.ErrUnsupported
}

func (UnsupportedNodeOps) Close(ctx context.Context, flags uint32, cred data.UserCred) error {
	return data.ErrUnsupported
}

func (UnsupportedNodeOps) Read(ctx context.Context, count, offset int64, cred data.UserCred) ([]byte, error) {
	return nil, data.ErrUnsupported
}

func (UnsupportedNodeOps) Write(ctx context.Context, offset int64, buffer []byte, cred data.UserCred) (int, error) {
	return 0, data.ErrUnsupported
}

func (UnsupportedNodeOps) Ioctl(ctx context.Context, com uint32, buffer []byte, cred data.UserCred) error {
	return data.ErrUnsupported
}

func (UnsupportedNodeOps) GetAttr(ctx context.Context, cred data.UserCred) (*data.Attributes, error) {
	return nil, data.ErrUnsupported
}

func (UnsupportedNodeOps) SetAttr(ctx context.Context, attr data.Attributes, cred data.UserCred) error {
	return data.ErrUnsupported
}

func (UnsupportedNodeOps) Access(ctx context.Context, mode uint32, cred data.UserCred) error {
	return data.ErrUnsupported
}

func (UnsupportedNodeOps) Lookup(ctx context.Context, name string, cred data.UserCred) (*Node, error) {
	return nil, data.ErrUnsupported
}

func (UnsupportedNodeOps) Create(ctx context.Context, name string, attr data.Attributes, cred data.UserCred) (*Node, error) {
	return nil, data.ErrUnsupported
}

func (UnsupportedNodeOps) Link(ctx context.Context, target *Node, name string, cred data.UserCred) error {
	return data.ErrUnsupported
}

func (UnsupportedNodeOps) Rename(ctx context.Context, name string, target *Node, targetName string, cred data.UserCred) error {
	return data.ErrUnsupported
}

func (UnsupportedNodeOps) Mkdir(ctx context.Context, name string, attr data.Attributes, cred data.UserCred) (*Node, error) {
	return nil, data.ErrUnsupported
}

func (UnsupportedNodeOps) ReadDir(ctx context.Context, cred data.UserCred) ([]*data.DirEntry, error) {
	return nil, data.ErrUnsupported
}

func (UnsupportedNodeOps) Symlink(ctx context.Context, name string, target string, cred data.UserCred) error {
	return data.ErrUnsupported
}

func (UnsupportedNodeOps) ReadLink(ctx context.Context, cred data.UserCred) (string, error) {
	return "", data.ErrUnsupported
}

func (UnsupportedNodeOps) Fsync(ctx context.Context, cred data.UserCred) error {
	return data.ErrUnsupported
}

func (UnsupportedNodeOps) Len() int64 {
	return 0
}

// UnsupportedFileSystemOps is the filesystem-level counterpart of
// UnsupportedNodeOps.
type UnsupportedFileSystemOps struct{}

func (UnsupportedFileSystemOps) Mount(ctx context.Context, path string) error {
	return nil
}

func (UnsupportedFileSystemOps) Unmount(ctx context.Context) error {
	return nil
}

func (UnsupportedFileSystemOps) Root(ctx context.Context) (*Node, error) {
	return nil, data.ErrUnsupported
}

func (UnsupportedFileSystemOps) StatFs(ctx context.Context) (*data.StatFs, error) {
	return nil, data.ErrUnsupported
}

func (UnsupportedFileSystemOps) Sync(ctx context.Context) error {
	return data.ErrUnsupported
}

func (UnsupportedFileSystemOps) Fid(ctx context.Context, path string) (*data.FileID, error) {
	return nil, data.ErrUnsupported
}

func (UnsupportedFileSystemOps) Vget(ctx context.Context, fid data.FileID) (*Node, error) {
	return nil, data.ErrUnsupported
}
