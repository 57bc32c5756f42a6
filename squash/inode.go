package squash

import (
	"encoding/binary"
	"fmt"

	"github.com/mwantia/initfs/data"
)

// Inode type tags as stored on disk.
type inodeType uint16

const (
	inodeBasicDirectory    inodeType = 1
	inodeBasicFile         inodeType = 2
	inodeBasicSymlink      inodeType = 3
	inodeBasicBlockDevice  inodeType = 4
	inodeBasicCharDevice   inodeType = 5
	inodeBasicPipe         inodeType = 6
	inodeBasicSocket       inodeType = 7
	inodeExtendedDirectory inodeType = 8
	inodeExtendedFile      inodeType = 9
)

// On-disk record sizes per decoded inode variant.
const (
	inodeHeaderSize         = 16
	basicDirectoryInodeSize = inodeHeaderSize + 16
	extendedDirectorySize   = inodeHeaderSize + 24
	basicFileInodeSize      = inodeHeaderSize + 16
)

// inodeRef is the packed 64-bit inode address: the upper 48 bits hold
// the metadata block reference, the lower 16 the offset inside the
// decompressed block.
type inodeRef uint64

func (ref inodeRef) split() (block uint64, offset int) {
	return uint64(ref>>16) & 0x0000FFFFFFFFFFFF, int(ref & 0xFFFF)
}

func packInodeRef(block uint64, offset int) inodeRef {
	return inodeRef(block<<16 | uint64(offset)&0xFFFF)
}

// inodeHeader is the common 16-byte prefix of every inode record.
type inodeHeader struct {
	Type     inodeType
	Mode     uint16
	UID      uint16
	GID      uint16
	ModTime  uint32
	InodeNum uint32
}

func parseInodeHeader(record []byte) inodeHeader {
	le := binary.LittleEndian
	return inodeHeader{
		Type:     inodeType(le.Uint16(record[0:2])),
		Mode:     le.Uint16(record[2:4]),
		UID:      le.Uint16(record[4:6]),
		GID:      le.Uint16(record[6:8]),
		ModTime:  le.Uint32(record[8:12]),
		InodeNum: le.Uint32(record[12:16]),
	}
}

// inode is the decoded tagged variant. Exactly one of the variant
// pointers is set, matching the header type.
type inode struct {
	header inodeHeader

	file        *basicFileInode
	directory   *basicDirectoryInode
	extendedDir *extendedDirectoryInode
}

func (in *inode) isDirectory() bool {
	return in.directory != nil || in.extendedDir != nil
}

// directoryRef returns the packed directory-table address and byte
// size for either directory variant.
func (in *inode) directoryRef() (ref inodeRef, size int, err error) {
	switch {
	case in.directory != nil:
		d := in.directory
		return packInodeRef(uint64(d.BlockIndex), int(d.BlockOffset)), int(d.FileSize), nil
	case in.extendedDir != nil:
		d := in.extendedDir
		return packInodeRef(uint64(d.BlockIndex), int(d.BlockOffset)), int(d.FileSize), nil
	default:
		return 0, 0, fmt.Errorf("%w: not a directory inode", data.ErrNotDirectory)
	}
}

func (in *inode) size() int64 {
	switch {
	case in.file != nil:
		return int64(in.file.FileSize)
	case in.directory != nil:
		return int64(in.directory.FileSize)
	case in.extendedDir != nil:
		return int64(in.extendedDir.FileSize)
	default:
		return 0
	}
}

func (in *inode) nodeType() data.NodeType {
	if in.isDirectory() {
		return data.NodeTypeDirectory
	}
	return data.NodeTypeFile
}

// basicDirectoryInode: header + block_index u32, link_count u32,
// file_size u16, block_offset u16, parent_inode u32.
type basicDirectoryInode struct {
	BlockIndex  uint32
	LinkCount   uint32
	FileSize    uint16
	BlockOffset uint16
	ParentInode uint32
}

// extendedDirectoryInode: header + link_count u32, file_size u32,
// block_index u32, parent_inode u32, index_count u16, block_offset
// u16, xattr_index u32.
type extendedDirectoryInode struct {
	LinkCount   uint32
	FileSize    uint32
	BlockIndex  uint32
	ParentInode uint32
	IndexCount  uint16
	BlockOffset uint16
	XattrIndex  uint32
}

// basicFileInode: header + block_start u32, frag_index u32,
// block_offset u32, file_size u32. FragIndex of all-ones means the
// data lives entirely in the shared data table; otherwise the file
// tail is packed into the referenced fragment.
type basicFileInode struct {
	BlockStart  uint32
	FragIndex   uint32
	BlockOffset uint32
	FileSize    uint32
}

// fragAbsent marks a file without a tail-packed fragment.
const fragAbsent = ^uint32(0)

// recordSize returns the fixed decode size for a supported inode type
// tag. Unsupported tags (symlinks, devices, sockets, extended files)
// are an implementation limit, reported as data.ErrUnsupported and
// deliberately distinct from on-disk corruption.
func recordSize(t inodeType) (int, error) {
	switch t {
	case inodeBasicDirectory:
		return basicDirectoryInodeSize, nil
	case inodeExtendedDirectory:
		return extendedDirectorySize, nil
	case inodeBasicFile:
		return basicFileInodeSize, nil
	default:
		return 0, fmt.Errorf("%w: inode type %d", data.ErrUnsupported, t)
	}
}

// parseInode decodes one fixed-size inode record into its variant.
func parseInode(record []byte) (*inode, error) {
	header := parseInodeHeader(record)
	le := binary.LittleEndian
	body := record[inodeHeaderSize:]

	in := &inode{header: header}

	switch header.Type {
	case inodeBasicDirectory:
		in.directory = &basicDirectoryInode{
			BlockIndex:  le.Uint32(body[0:4]),
			LinkCount:   le.Uint32(body[4:8]),
			FileSize:    le.Uint16(body[8:10]),
			BlockOffset: le.Uint16(body[10:12]),
			ParentInode: le.Uint32(body[12:16]),
		}
	case inodeExtendedDirectory:
		in.extendedDir = &extendedDirectoryInode{
			LinkCount:   le.Uint32(body[0:4]),
			FileSize:    le.Uint32(body[4:8]),
			BlockIndex:  le.Uint32(body[8:12]),
			ParentInode: le.Uint32(body[12:16]),
			IndexCount:  le.Uint16(body[16:18]),
			BlockOffset: le.Uint16(body[18:20]),
			XattrIndex:  le.Uint32(body[20:24]),
		}
	case inodeBasicFile:
		in.file = &basicFileInode{
			BlockStart:  le.Uint32(body[0:4]),
			FragIndex:   le.Uint32(body[4:8]),
			BlockOffset: le.Uint32(body[8:12]),
			FileSize:    le.Uint32(body[12:16]),
		}
	default:
		return nil, fmt.Errorf("%w: inode type %d", data.ErrUnsupported, header.Type)
	}

	return in, nil
}
