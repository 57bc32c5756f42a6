package squash

import (
	"encoding/binary"
	"fmt"

	"github.com/mwantia/initfs/codec"
	"github.com/mwantia/initfs/data"
)

// Magic is the superblock magic ("hsqs" little-endian).
const Magic = 0x73717368

// SuperblockSize is the fixed on-disk size of the superblock.
const SuperblockSize = 96

// TableAbsent marks a table offset for a table the image does not
// carry (fragment, export and xattr tables are optional).
const TableAbsent = ^uint64(0)

// Superblock feature flag bits.
const (
	flagUncompressedInodes     = 0x0001
	flagUncompressedDataBlocks = 0x0002
	flagUncompressedFragments  = 0x0008
	flagNoFragments            = 0x0010
	flagAlwaysFragments        = 0x0020
	flagDeduplicated           = 0x0040
	flagExportable             = 0x0080
	flagUncompressedXattrs     = 0x0100
	flagNoXattrs               = 0x0200
	flagCompressorOptions      = 0x0400
	flagUncompressedIDs        = 0x0800
)

// Superblock is the fixed 96-byte archive header describing the image
// geometry and the six metadata table locations. All fields are stored
// little-endian.
type Superblock struct {
	Magic       uint32
	InodeCount  uint32
	ModTime     uint32
	BlockSize   uint32
	FragCount   uint32
	Compression codec.Compression
	BlockLog    uint16
	Flags       uint16
	IDCount     uint16
	VerMajor    uint16
	VerMinor    uint16
	RootInode   uint64
	BytesUsed   uint64
	IDTable     uint64
	XattrTable  uint64
	InodeTable  uint64
	DirTable    uint64
	FragTable   uint64
	ExportTable uint64
}

// ParseSuperblock decodes and validates the archive header. Every
// validation failure is data.ErrCorrupt; nothing here panics on
// malformed input.
func ParseSuperblock(image []byte) (*Superblock, error) {
	if len(image) < SuperblockSize {
		return nil, fmt.Errorf("%w: image shorter than superblock (%d bytes)", data.ErrCorrupt, len(image))
	}

	le := binary.LittleEndian
	sb := &Superblock{
		Magic:       le.Uint32(image[0:4]),
		InodeCount:  le.Uint32(image[4:8]),
		ModTime:     le.Uint32(image[8:12]),
		BlockSize:   le.Uint32(image[12:16]),
		FragCount:   le.Uint32(image[16:20]),
		Compression: codec.Compression(le.Uint16(image[20:22])),
		BlockLog:    le.Uint16(image[22:24]),
		Flags:       le.Uint16(image[24:26]),
		IDCount:     le.Uint16(image[26:28]),
		VerMajor:    le.Uint16(image[28:30]),
		VerMinor:    le.Uint16(image[30:32]),
		RootInode:   le.Uint64(image[32:40]),
		BytesUsed:   le.Uint64(image[40:48]),
		IDTable:     le.Uint64(image[48:56]),
		XattrTable:  le.Uint64(image[56:64]),
		InodeTable:  le.Uint64(image[64:72]),
		DirTable:    le.Uint64(image[72:80]),
		FragTable:   le.Uint64(image[80:88]),
		ExportTable: le.Uint64(image[88:96]),
	}

	if sb.Magic != Magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", data.ErrCorrupt, sb.Magic)
	}

	if sb.VerMajor != 4 || sb.VerMinor != 0 {
		return nil, fmt.Errorf("%w: unsupported version %d.%d", data.ErrCorrupt, sb.VerMajor, sb.VerMinor)
	}

	if sb.BlockSize > 1<<20 {
		return nil, fmt.Errorf("%w: block size %d exceeds 1 MiB", data.ErrCorrupt, sb.BlockSize)
	}

	if sb.BlockLog > 20 {
		return nil, fmt.Errorf("%w: block log %d exceeds 20", data.ErrCorrupt, sb.BlockLog)
	}

	if sb.BlockSize == 0 || sb.BlockSize != 1<<sb.BlockLog {
		return nil, fmt.Errorf("%w: block size %d does not match block log %d", data.ErrCorrupt, sb.BlockSize, sb.BlockLog)
	}

	if (sb.BlockSize-1)&sb.BlockSize != 0 {
		return nil, fmt.Errorf("%w: block size %d not a power of two", data.ErrCorrupt, sb.BlockSize)
	}

	return sb, nil
}

// Features decodes the superblock flag bits.
type Features struct {
	UncompressedInodes     bool
	UncompressedDataBlocks bool
	UncompressedFragments  bool
	NoFragments            bool
	AlwaysFragments        bool
	Deduplicated           bool
	Exportable             bool
	UncompressedXattrs     bool
	NoXattrs               bool
	CompressorOptions      bool
	UncompressedIDs        bool
}

func (sb *Superblock) Features() Features {
	return Features{
		UncompressedInodes:     sb.Flags&flagUncompressedInodes != 0,
		UncompressedDataBlocks: sb.Flags&flagUncompressedDataBlocks != 0,
		UncompressedFragments:  sb.Flags&flagUncompressedFragments != 0,
		NoFragments:            sb.Flags&flagNoFragments != 0,
		AlwaysFragments:        sb.Flags&flagAlwaysFragments != 0,
		Deduplicated:           sb.Flags&flagDeduplicated != 0,
		Exportable:             sb.Flags&flagExportable != 0,
		UncompressedXattrs:     sb.Flags&flagUncompressedXattrs != 0,
		NoXattrs:               sb.Flags&flagNoXattrs != 0,
		CompressorOptions:      sb.Flags&flagCompressorOptions != 0,
		UncompressedIDs:        sb.Flags&flagUncompressedIDs != 0,
	}
}
