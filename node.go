package vfs

import (
	"context"
	"fmt"

	"github.com/mwantia/initfs/data"
)

// Node is a handle to one file or directory within a backend. Nodes are
// owned by exactly one cache entry; the registry lock serializes all
// access to the reference count and the covering-mount link.
type Node struct {
	typ data.NodeType
	ops NodeOps

	// covered points to the mount sitting on top of this node. When it
	// is set, traversal redirects to that mount's root instead of the
	// node's own children.
	covered *Mount

	refs int
}

// NewNode wraps a backend operation set into a node handle. Backends
// call this from Root and Lookup.
func NewNode(ops NodeOps, typ data.NodeType) *Node {
	return &Node{
		typ: typ,
		ops: ops,
	}
}

// Type returns what the node represents.
func (n *Node) Type() data.NodeType {
	return n.typ
}

// Len returns the node's size in bytes.
func (n *Node) Len() int64 {
	return n.ops.Len()
}

// Read validates the requested range against Len before delegating to
// the backend. The validation is independent of the backend so that no
// implementation has to repeat it.
func (n *Node) Read(ctx context.Context, count, offset int64, cred data.UserCred) ([]byte, error) {
	if count < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: negative read range", data.ErrInvalid)
	}

	size := n.ops.Len()
	if offset >= size || offset+count > size {
		return nil, fmt.Errorf("%w: read of %d bytes at offset %d exceeds size %d",
			data.ErrInvalid, count, offset, size)
	}

	return n.ops.Read(ctx, count, offset, cred)
}

// Lookup resolves a single child name on this node.
func (n *Node) Lookup(ctx context.Context, name string, cred data.UserCred) (*Node, error) {
	return n.ops.Lookup(ctx, name, cred)
}

// GetAttr returns the node's attributes.
func (n *Node) GetAttr(ctx context.Context, cred data.UserCred) (*data.Attributes, error) {
	return n.ops.GetAttr(ctx, cred)
}

// ReadDir lists the entries of a directory node.
func (n *Node) ReadDir(ctx context.Context, cred data.UserCred) ([]*data.DirEntry, error) {
	return n.ops.ReadDir(ctx, cred)
}

// open adjusts the reference count, delegating to the backend only on
// the 0 -> 1 transition. Caller holds the registry lock.
func (n *Node) open(ctx context.Context, flags uint32, cred data.UserCred) error {
	if n.refs == 0 {
		if err := n.ops.Open(ctx, flags, cred); err != nil {
			return err
		}
	}

	n.refs++
	return nil
}

// close is the counterpart of open; the backend sees only the 1 -> 0
// transition. Caller holds the registry lock.
func (n *Node) close(ctx context.Context, flags uint32, cred data.UserCred) error {
	if n.refs == 0 {
		return data.ErrClosed
	}

	n.refs--
	if n.refs == 0 {
		return n.ops.Close(ctx, flags, cred)
	}

	return nil
}
