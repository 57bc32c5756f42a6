package vfs

import (
	"context"
	"fmt"

	"github.com/mwantia/initfs/data"
	"github.com/tidwall/btree"
)

// cacheEntry memoizes one resolved path segment. Entries form a tree
// mirroring the namespace: resolved children are kept in a name-keyed
// index and never evicted, trading memory for amortized lookups.
// Mutation happens under the registry lock.
type cacheEntry struct {
	node     *Node
	parent   *cacheEntry
	children *btree.Map[string, *cacheEntry]
}

func newCacheEntry(node *Node, parent *cacheEntry) *cacheEntry {
	return &cacheEntry{
		node:     node,
		parent:   parent,
		children: btree.NewMap[string, *cacheEntry](0),
	}
}

// lookup resolves one child name. Cached children are returned as-is;
// a miss delegates to the backend and memoizes the result. When the
// entry's node is covered by a mount, resolution goes through that
// mount's root node instead, which is how traversal crosses a mount
// boundary even though the cache holds no record of the mounted
// filesystem's internal tree.
func (e *cacheEntry) lookup(ctx context.Context, name string, cred data.UserCred) (*cacheEntry, error) {
	if child, exists := e.children.Get(name); exists {
		return child, nil
	}

	var node *Node
	var err error

	if covered := e.node.covered; covered != nil {
		root, rerr := covered.Backend.Root(ctx)
		if rerr != nil {
			return nil, fmt.Errorf("root of mount %s: %w", covered.Path, rerr)
		}
		node, err = root.Lookup(ctx, name, cred)
	} else {
		node, err = e.node.Lookup(ctx, name, cred)
	}
	if err != nil {
		return nil, err
	}

	child := newCacheEntry(node, e)
	e.children.Set(name, child)

	return child, nil
}

// invalidate drops all memoized children, used when the mount covering
// this entry goes away and the cached subtree no longer exists.
func (e *cacheEntry) invalidate() {
	e.children = btree.NewMap[string, *cacheEntry](0)
}
