package data

import "time"

// NodeType identifies what a node represents, independent of backend.
type NodeType int

const (
	NodeTypeNone NodeType = iota
	NodeTypeFile
	NodeTypeDirectory
	NodeTypeBlock
	NodeTypeCharacter
	NodeTypeLink
	NodeTypeSocket
	NodeTypeBad
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeFile:
		return "file"
	case NodeTypeDirectory:
		return "directory"
	case NodeTypeBlock:
		return "block"
	case NodeTypeCharacter:
		return "character"
	case NodeTypeLink:
		return "link"
	case NodeTypeSocket:
		return "socket"
	case NodeTypeBad:
		return "bad"
	default:
		return "none"
	}
}

// UserCred carries the identity an operation is performed with.
// The read-only backends ignore it, but it travels with every node
// operation so access checks stay possible per backend.
type UserCred struct {
	UID uint16
	GID uint16
}

// RootCred is the credential used for internal resolution steps.
var RootCred = UserCred{UID: 0, GID: 0}

// Attributes describes a single node, as returned by GetAttr.
type Attributes struct {
	Type       NodeType
	Mode       uint16
	UID        uint16
	GID        uint16
	NodeID     uint32
	LinkCount  uint32
	Size       int64
	BlockSize  uint32
	ModifyTime time.Time
}

// StatFs describes a mounted filesystem as a whole.
type StatFs struct {
	Type            uint32
	BlockSize       uint32
	TotalBlocks     uint32
	FreeBlocks      uint32
	AvailableBlocks uint32
	Files           uint32
	FreeNodes       uint32
	FsID            uint32
}

// FileID is an opaque, backend-specific file identity used by the
// Fid/Vget pair of the filesystem contract.
type FileID struct {
	Data []byte
}

// DirEntry is one directory listing entry, as returned by ReadDir.
type DirEntry struct {
	Name string
	Type NodeType
}
