// Package squash reads the immutable, compressed archive-image
// filesystem the kernel boots from. The image is parsed lazily: the
// superblock is validated up front, metadata chunks decompress on
// first touch, and file data is pulled out of the shared data table or
// a tail-packed fragment on demand.
package squash

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/mwantia/initfs/block"
	"github.com/mwantia/initfs/codec"
	"github.com/mwantia/initfs/data"
)

// Squash is the archive reader: one instance per image, usable as a
// vfs backend through its FileSystemOps implementation. The reader is
// internally locked because chunk decompression memoizes in place.
type Squash struct {
	mu sync.Mutex

	superblock   *Superblock
	image        []byte
	decompressor codec.Decompressor

	dataTable      []byte
	inodeTable     *chunkReader
	directoryTable *chunkReader
	fragmentTable  []byte
	exportTable    []byte
	idTable        []byte
	xattrTable     []byte
}

// New validates the superblock, locates the six metadata tables and
// prepares chunk readers over the inode and directory tables. The
// registry decides the decompressor from the superblock's compressor
// id; an unregistered id fails here, before anything is mounted.
func New(image []byte, registry *codec.Registry) (*Squash, error) {
	superblock, err := ParseSuperblock(image)
	if err != nil {
		return nil, err
	}

	if superblock.BytesUsed > uint64(len(image)) {
		return nil, fmt.Errorf("%w: superblock claims %d bytes, image has %d",
			data.ErrCorrupt, superblock.BytesUsed, len(image))
	}

	decompressor, err := registry.Lookup(superblock.Compression)
	if err != nil {
		return nil, err
	}

	s := &Squash{
		superblock:   superblock,
		image:        image,
		decompressor: decompressor,
	}

	if err := s.locateTables(); err != nil {
		return nil, err
	}

	return s, nil
}

// NewFromDevice reads the image off a block device: one sector for the
// superblock, then the remainder up to the superblock's byte count.
func NewFromDevice(ctx context.Context, device block.Device, registry *codec.Registry) (*Squash, error) {
	first, err := device.Read(ctx, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrIo, err)
	}

	superblock, err := ParseSuperblock(first)
	if err != nil {
		return nil, err
	}

	sectors := int((superblock.BytesUsed + block.SectorSize - 1) / block.SectorSize)
	image, err := device.Read(ctx, 0, sectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrIo, err)
	}

	return New(image[:superblock.BytesUsed], registry)
}

// locateTables bounds each table by its offset and the next table's
// offset in ascending order; the last present table runs to the end of
// the image. Fragment, export and xattr tables may be absent.
func (s *Squash) locateTables() error {
	sb := s.superblock

	if sb.InodeTable > uint64(len(s.image)) || sb.InodeTable < SuperblockSize {
		return fmt.Errorf("%w: inode table offset %d out of range", data.ErrCorrupt, sb.InodeTable)
	}

	// The data table needs no chunk bookkeeping: it spans from the end
	// of the superblock to the first metadata table.
	s.dataTable = s.image[SuperblockSize:sb.InodeTable]

	type table struct {
		offset uint64
		assign func(region []byte) error
	}

	tables := []table{
		{sb.InodeTable, func(region []byte) error {
			reader, err := newChunkReader(region, s.decompressor)
			s.inodeTable = reader
			return err
		}},
		{sb.DirTable, func(region []byte) error {
			reader, err := newChunkReader(region, s.decompressor)
			s.directoryTable = reader
			return err
		}},
		{sb.IDTable, func(region []byte) error {
			s.idTable = region
			return nil
		}},
	}

	if sb.FragTable != TableAbsent {
		tables = append(tables, table{sb.FragTable, func(region []byte) error {
			s.fragmentTable = region
			return nil
		}})
	}
	if sb.ExportTable != TableAbsent {
		tables = append(tables, table{sb.ExportTable, func(region []byte) error {
			s.exportTable = region
			return nil
		}})
	}
	if sb.XattrTable != TableAbsent {
		tables = append(tables, table{sb.XattrTable, func(region []byte) error {
			s.xattrTable = region
			return nil
		}})
	}

	sort.Slice(tables, func(i, j int) bool {
		return tables[i].offset < tables[j].offset
	})

	for i, t := range tables {
		end := uint64(len(s.image))
		if i < len(tables)-1 {
			end = tables[i+1].offset
		}

		if t.offset > end || end > uint64(len(s.image)) {
			return fmt.Errorf("%w: table offset %d out of order", data.ErrCorrupt, t.offset)
		}

		if err := t.assign(s.image[t.offset:end]); err != nil {
			return err
		}
	}

	return nil
}

// Superblock exposes the validated header.
func (s *Squash) Superblock() *Superblock {
	return s.superblock
}

// readInode reads the 2-byte type tag at the packed address, sizes the
// record from the tag, and decodes the matching variant.
func (s *Squash) readInode(ref inodeRef) (*inode, error) {
	blockRef, offset := ref.split()

	tag, err := s.inodeTable.GetSlice(blockRef, offset, 2)
	if err != nil {
		return nil, err
	}

	size, err := recordSize(inodeType(binary.LittleEndian.Uint16(tag)))
	if err != nil {
		return nil, err
	}

	record, err := s.inodeTable.GetSlice(blockRef, offset, size)
	if err != nil {
		return nil, err
	}

	return parseInode(record)
}

func (s *Squash) readRoot() (*inode, error) {
	return s.readInode(inodeRef(s.superblock.RootInode))
}

// decompressRegion inflates a whole table region when compressed is
// set, otherwise returns it as-is.
func (s *Squash) decompressRegion(region []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return region, nil
	}
	return s.decompressor(region)
}

// readFileData extracts count bytes at offset from a file inode,
// clamped to the file size. Files without a fragment read from the
// shared data table; tail-packed files resolve their fragment first.
func (s *Squash) readFileData(file *basicFileInode, count, offset int64) ([]byte, error) {
	size := int64(file.FileSize)
	if offset >= size {
		return []byte{}, nil
	}
	if offset+count > size {
		count = size - offset
	}

	features := s.superblock.Features()

	var table []byte
	var err error

	if file.FragIndex == fragAbsent {
		table, err = s.decompressRegion(s.dataTable, !features.UncompressedDataBlocks)
		if err != nil {
			return nil, err
		}
	} else {
		table, err = s.readFragmentBlock(file.FragIndex, features)
		if err != nil {
			return nil, err
		}
	}

	start := int64(file.BlockOffset) + offset
	if start+count > int64(len(table)) {
		return nil, fmt.Errorf("%w: file data at %d+%d beyond table end %d",
			data.ErrCorrupt, start, count, len(table))
	}

	result := make([]byte, count)
	copy(result, table[start:start+count])

	return result, nil
}

// Fragment lookup-table and entry geometry: the decompressed lookup
// table is a list of u64 pointers to fragment metadata blocks, each
// holding up to 512 entries of 16 bytes.
const (
	fragEntriesPerBlock = 512
	fragEntrySize       = 16
	fragStoredFlag      = uint32(1) << 24
	fragSizeMask        = 0xFEFFFFFF
)

// readFragmentBlock resolves a fragment index to its decompressed
// fragment block: lookup-table pointer -> fragment metadata chunk ->
// (start, size, compressed) entry -> data slice out of the image.
func (s *Squash) readFragmentBlock(index uint32, features Features) ([]byte, error) {
	if s.fragmentTable == nil {
		return nil, fmt.Errorf("%w: fragment reference without fragment table", data.ErrCorrupt)
	}

	lookup, err := s.decompressRegion(s.fragmentTable, !features.UncompressedFragments)
	if err != nil {
		return nil, err
	}

	pointerOffset := int(index/fragEntriesPerBlock) * 8
	if pointerOffset+8 > len(lookup) {
		return nil, fmt.Errorf("%w: fragment index %d beyond lookup table", data.ErrCorrupt, index)
	}
	pointer := binary.LittleEndian.Uint64(lookup[pointerOffset : pointerOffset+8])

	if pointer+chunkHeaderSize > uint64(len(s.image)) {
		return nil, fmt.Errorf("%w: fragment block pointer %d beyond image", data.ErrCorrupt, pointer)
	}

	// The fragment block is a metadata chunk: 2-byte header, then the
	// packed entries.
	header := binary.LittleEndian.Uint16(s.image[pointer : pointer+chunkHeaderSize])
	blockLen := uint64(header&0x7FFF) + chunkHeaderSize
	if pointer+blockLen > uint64(len(s.image)) {
		return nil, fmt.Errorf("%w: fragment block at %d overruns image", data.ErrCorrupt, pointer)
	}

	blockChunk := &chunk{raw: s.image[pointer : pointer+blockLen]}
	if err := blockChunk.decompress(s.decompressor); err != nil {
		return nil, err
	}
	entries := blockChunk.plain

	entryOffset := int(index%fragEntriesPerBlock) * fragEntrySize
	if entryOffset+fragEntrySize > len(entries) {
		return nil, fmt.Errorf("%w: fragment entry %d beyond fragment block", data.ErrCorrupt, index)
	}

	start := binary.LittleEndian.Uint64(entries[entryOffset : entryOffset+8])
	rawSize := binary.LittleEndian.Uint32(entries[entryOffset+8 : entryOffset+12])
	compressed := rawSize&fragStoredFlag == 0
	size := uint64(rawSize & fragSizeMask)

	if start+size > uint64(len(s.image)) {
		return nil, fmt.Errorf("%w: fragment data at %d+%d beyond image", data.ErrCorrupt, start, size)
	}

	return s.decompressRegion(s.image[start:start+size], compressed)
}
