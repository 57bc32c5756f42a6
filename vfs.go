package vfs

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwantia/initfs/data"
	"github.com/mwantia/initfs/log"
)

// VirtualFileSystem is the mount registry plus the path-resolution
// cache over it. One RWMutex guards both; namespace operations are
// serialized behind it and the structure is safe for concurrent use,
// though backends keep their own guarantees.
type VirtualFileSystem struct {
	mu     sync.RWMutex
	logger *log.Logger

	mounts []*Mount
	root   *cacheEntry

	commands *CommandManager
}

// NewVirtualFileSystem creates an empty registry. Nothing resolves
// until a root mount ("/") is added.
func NewVirtualFileSystem(opts ...Option) (*VirtualFileSystem, error) {
	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	v := &VirtualFileSystem{
		logger: log.NewLogger("vfs", options.LogLevel, options.LogFile, options.NoTerminalLog),
	}
	v.commands = &CommandManager{
		fs:   v,
		cmds: make(map[string]Command),
	}

	return v, nil
}

// Commands exposes the command registry bound to this filesystem.
func (v *VirtualFileSystem) Commands() *CommandManager {
	return v.commands
}

// Mount attaches a backend at the given path. The root mount must be
// added first and exactly once; every other path must already resolve
// through the cache. On success the backend's Mount callback has run,
// the mount is recorded, and (for non-root mounts) the resolved target
// node carries the covering-mount link.
func (v *VirtualFileSystem) Mount(ctx context.Context, path string, backend FileSystemOps) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	normalized := data.NormalizeMountPath(path)

	v.logger.Debug("Mounting %s", displayPath(normalized))

	if normalized == "" {
		return v.mountRoot(ctx, backend)
	}

	if len(v.mounts) == 0 || v.root == nil {
		return fmt.Errorf("%w: cannot mount %s", data.ErrRootRequired, path)
	}

	for _, existing := range v.mounts {
		if existing.Path == normalized {
			return fmt.Errorf("%w: %s", data.ErrAlreadyMounted, path)
		}
	}

	// The mount target must already exist in the namespace.
	entry, err := v.resolve(ctx, normalized, data.RootCred)
	if err != nil {
		return fmt.Errorf("mount target %s: %w", path, err)
	}

	if err := backend.Mount(ctx, normalized); err != nil {
		return fmt.Errorf("%w: mount callback for %s: %w", data.ErrNotMounted, path, err)
	}

	mnt := newMount(normalized, backend)
	v.mounts = append(v.mounts, mnt)
	entry.node.covered = mnt

	// Anything cached below the target belongs to the covered tree.
	entry.invalidate()

	v.logger.Info("Mounted %s", displayPath(normalized))
	return nil
}

func (v *VirtualFileSystem) mountRoot(ctx context.Context, backend FileSystemOps) error {
	if len(v.mounts) > 0 {
		return fmt.Errorf("%w: /", data.ErrAlreadyMounted)
	}

	if err := backend.Mount(ctx, "/"); err != nil {
		return fmt.Errorf("%w: mount callback for /: %w", data.ErrNotMounted, err)
	}

	root, err := backend.Root(ctx)
	if err != nil {
		return fmt.Errorf("root node: %w", err)
	}

	v.mounts = append(v.mounts, newMount("", backend))
	v.root = newCacheEntry(root, nil)

	v.logger.Info("Mounted /")
	return nil
}

// Unmount detaches the mount at path. The root mount can only go when
// it is the last one; any other mount is busy while another mount's
// path extends it segment-wise.
func (v *VirtualFileSystem) Unmount(ctx context.Context, path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	normalized := data.NormalizeMountPath(path)

	index := -1
	for i, mnt := range v.mounts {
		if mnt.Path == normalized {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("%w: %s", data.ErrNotMounted, path)
	}

	if normalized == "" {
		if len(v.mounts) > 1 {
			return fmt.Errorf("%w: / has child mounts", data.ErrMountBusy)
		}
	} else {
		for _, other := range v.mounts {
			if other.Path == normalized {
				continue
			}
			if data.HasSegmentPrefix(other.Path, normalized) {
				return fmt.Errorf("%w: %s extends %s", data.ErrMountBusy, displayPath(other.Path), path)
			}
		}
	}

	mnt := v.mounts[index]
	if err := mnt.Backend.Unmount(ctx); err != nil {
		return fmt.Errorf("%w: unmount callback for %s: %w", data.ErrMountBusy, path, err)
	}

	v.mounts = append(v.mounts[:index], v.mounts[index+1:]...)

	if normalized == "" {
		v.root = nil
	} else if entry := v.resolveCached(normalized); entry != nil {
		entry.node.covered = nil
		entry.invalidate()
	}

	v.logger.Info("Unmounted %s", displayPath(normalized))
	return nil
}

// Shutdown unmounts everything, deepest mounts first, collecting every
// failure instead of stopping at the first.
func (v *VirtualFileSystem) Shutdown(ctx context.Context) error {
	v.mu.RLock()
	paths := make([]string, len(v.mounts))
	for i, mnt := range v.mounts {
		paths[i] = mnt.Path
	}
	v.mu.RUnlock()

	errs := data.Errors{}
	for i := len(paths) - 1; i >= 0; i-- {
		errs.Add(v.Unmount(ctx, paths[i]))
	}

	return errs.Errors()
}

// Mounts lists all mounted filesystems in insertion order.
func (v *VirtualFileSystem) Mounts() []data.MountInfo {
	v.mu.RLock()
	defer v.mu.RUnlock()

	infos := make([]data.MountInfo, 0, len(v.mounts))
	for _, mnt := range v.mounts {
		infos = append(infos, mnt.Info())
	}

	return infos
}

// Open resolves path through the cache and returns an open file handle
// carrying cred. The handle must be closed by the caller.
func (v *VirtualFileSystem) Open(ctx context.Context, path string, cred data.UserCred) (*File, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, err := v.resolve(ctx, path, cred)
	if err != nil {
		return nil, err
	}

	if err := entry.node.open(ctx, 0, cred); err != nil {
		return nil, err
	}

	v.logger.Debug("Opened %s", path)

	return &File{
		fs:    v,
		entry: entry,
		cred:  cred,
	}, nil
}

// ReadFile is a convenience wrapper: open, read count bytes at offset
// (count 0 reads to the end), close.
func (v *VirtualFileSystem) ReadFile(ctx context.Context, path string, count, offset int64) ([]byte, error) {
	file, err := v.Open(ctx, path, data.RootCred)
	if err != nil {
		return nil, err
	}
	defer file.Close(ctx)

	return file.Read(ctx, count, offset)
}

// ReadDirectory lists the entries of the directory at path.
func (v *VirtualFileSystem) ReadDirectory(ctx context.Context, path string) ([]*data.DirEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, err := v.resolve(ctx, path, data.RootCred)
	if err != nil {
		return nil, err
	}

	node := entry.node
	if covered := node.covered; covered != nil {
		root, err := covered.Backend.Root(ctx)
		if err != nil {
			return nil, err
		}
		node = root
	}

	return node.ReadDir(ctx, data.RootCred)
}

// Stat returns the attributes of the node at path.
func (v *VirtualFileSystem) Stat(ctx context.Context, path string) (*data.Attributes, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, err := v.resolve(ctx, path, data.RootCred)
	if err != nil {
		return nil, err
	}

	return entry.node.GetAttr(ctx, data.RootCred)
}

// StatFs returns filesystem statistics for the mount serving path.
func (v *VirtualFileSystem) StatFs(ctx context.Context, path string) (*data.StatFs, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	normalized := data.NormalizeMountPath(path)

	var best *Mount
	for _, mnt := range v.mounts {
		if !data.HasSegmentPrefix(normalized, mnt.Path) {
			continue
		}
		if best == nil || len(mnt.Path) > len(best.Path) {
			best = mnt
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s", data.ErrNotMounted, path)
	}

	return best.Backend.StatFs(ctx)
}

// resolve folds lookups left-to-right from the cache root, skipping
// empty segments and failing fast on the first miss. Caller holds the
// write lock: resolution inserts cache entries.
func (v *VirtualFileSystem) resolve(ctx context.Context, path string, cred data.UserCred) (*cacheEntry, error) {
	if v.root == nil {
		return nil, fmt.Errorf("%w: no root mount", data.ErrNotMounted)
	}

	current := v.root
	for _, segment := range data.Segments(path) {
		next, err := current.lookup(ctx, segment, cred)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		current = next
	}

	return current, nil
}

// resolveCached walks only already-memoized entries; it never touches a
// backend. Used by Unmount, where the target is known to be cached
// because mounting resolved it.
func (v *VirtualFileSystem) resolveCached(path string) *cacheEntry {
	if v.root == nil {
		return nil
	}

	current := v.root
	for _, segment := range data.Segments(path) {
		child, exists := current.children.Get(segment)
		if !exists {
			return nil
		}
		current = child
	}

	return current
}

func displayPath(normalized string) string {
	if normalized == "" {
		return "/"
	}
	return normalized
}
