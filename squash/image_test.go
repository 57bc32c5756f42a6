package squash

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// The synthetic test image holds this tree:
//
//	/
//	├── dir/
//	│   └── frag.txt   (tail-packed into fragment 0)
//	└── hello.txt      (stored in the shared data table)
//
// The root listing is deliberately split into two header runs so that
// walks have to follow a continuation header. Every fixture exists in
// a stored and a zlib-compressed variant.

var (
	helloContent = []byte("Hello from the data table!\n")
	fragContent  = []byte("tail packed fragment contents\n")
)

const (
	rootInodeOffset     = 0
	helloInodeOffset    = 32
	dirInodeOffset      = 64
	fragFileInodeOffset = 96

	rootListingOffset = 0
	rootListingSize   = 52
	dirListingOffset  = 52
	dirListingSize    = 28

	testModTime = 1700000000
)

func zlibCompress(t *testing.T, plain []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zlib.NewWriter(&buf)
	if _, err := writer.Write(plain); err != nil {
		t.Fatalf("compress fixture: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("compress fixture: %v", err)
	}

	return buf.Bytes()
}

// wrapChunk prefixes payload with a metadata chunk header, compressing
// the payload unless stored is set.
func wrapChunk(t *testing.T, payload []byte, stored bool) []byte {
	t.Helper()

	body := payload
	header := uint16(len(payload)) | chunkStoredFlag
	if !stored {
		body = zlibCompress(t, payload)
		header = uint16(len(body))
	}

	out := make([]byte, chunkHeaderSize+len(body))
	binary.LittleEndian.PutUint16(out[0:2], header)
	copy(out[chunkHeaderSize:], body)

	return out
}

type fieldWriter struct {
	buf bytes.Buffer
}

func (w *fieldWriter) u16(v uint16) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *fieldWriter) u32(v uint32) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *fieldWriter) u64(v uint64) { binary.Write(&w.buf, binary.LittleEndian, v) }

func buildInodeRecords() []byte {
	w := &fieldWriter{}

	// Root directory, inode 1.
	w.u16(uint16(inodeBasicDirectory))
	w.u16(0o755)
	w.u16(0)
	w.u16(0)
	w.u32(testModTime)
	w.u32(1)
	w.u32(0)               // block index
	w.u32(3)               // link count
	w.u16(rootListingSize) // file size
	w.u16(rootListingOffset)
	w.u32(0) // parent

	// hello.txt, inode 2, no fragment.
	w.u16(uint16(inodeBasicFile))
	w.u16(0o644)
	w.u16(0)
	w.u16(0)
	w.u32(testModTime)
	w.u32(2)
	w.u32(0)          // block start
	w.u32(fragAbsent) // frag index
	w.u32(0)          // block offset
	w.u32(uint32(len(helloContent)))

	// dir, inode 3.
	w.u16(uint16(inodeBasicDirectory))
	w.u16(0o755)
	w.u16(0)
	w.u16(0)
	w.u32(testModTime)
	w.u32(3)
	w.u32(0)
	w.u32(2)
	w.u16(dirListingSize)
	w.u16(dirListingOffset)
	w.u32(1)

	// frag.txt, inode 4, tail-packed into fragment 0.
	w.u16(uint16(inodeBasicFile))
	w.u16(0o644)
	w.u16(0)
	w.u16(0)
	w.u32(testModTime)
	w.u32(4)
	w.u32(0)
	w.u32(0) // frag index
	w.u32(0) // offset within fragment
	w.u32(uint32(len(fragContent)))

	return w.buf.Bytes()
}

func writeDirHeader(w *fieldWriter, entries uint32, inodeNum uint32) {
	w.u32(entries - 1)
	w.u32(0) // metadata block of the entries' inodes
	w.u32(inodeNum)
}

func writeDirEntry(w *fieldWriter, inodeOffset uint16, typ inodeType, name string) {
	w.u16(inodeOffset)
	w.u16(0)
	w.u16(uint16(typ))
	w.u16(uint16(len(name) - 1))
	w.buf.WriteString(name)
}

func buildDirectoryRecords() []byte {
	w := &fieldWriter{}

	// Root listing: one entry, continuation header, one more entry.
	writeDirHeader(w, 1, 1)
	writeDirEntry(w, dirInodeOffset, inodeBasicDirectory, "dir")
	writeDirHeader(w, 1, 1)
	writeDirEntry(w, helloInodeOffset, inodeBasicFile, "hello.txt")

	// dir listing.
	writeDirHeader(w, 1, 3)
	writeDirEntry(w, fragFileInodeOffset, inodeBasicFile, "frag.txt")

	return w.buf.Bytes()
}

// buildImage assembles a complete archive. With stored set, every
// region carries plain bytes; otherwise data, metadata chunks, the
// fragment lookup table and the fragment itself are zlib streams.
func buildImage(t *testing.T, stored bool) []byte {
	t.Helper()

	directData := helloContent
	fragData := fragContent
	if !stored {
		directData = zlibCompress(t, helloContent)
		fragData = zlibCompress(t, fragContent)
	}

	fragStart := uint64(SuperblockSize + len(directData))

	// Fragment entry: start, size with the stored bit, unused.
	entry := &fieldWriter{}
	entry.u64(fragStart)
	size := uint32(len(fragData))
	if stored {
		size |= fragStoredFlag
	}
	entry.u32(size)
	entry.u32(0)
	fragMeta := wrapChunk(t, entry.buf.Bytes(), stored)

	fragMetaStart := fragStart + uint64(len(fragData))

	dataRegion := bytes.Join([][]byte{directData, fragData, fragMeta}, nil)

	inodeChunk := wrapChunk(t, buildInodeRecords(), stored)
	dirChunk := wrapChunk(t, buildDirectoryRecords(), stored)

	lookup := &fieldWriter{}
	lookup.u64(fragMetaStart)
	lookupRegion := lookup.buf.Bytes()
	if !stored {
		lookupRegion = zlibCompress(t, lookupRegion)
	}

	idRegion := []byte{0, 0, 0, 0}

	inodeTable := uint64(SuperblockSize + len(dataRegion))
	dirTable := inodeTable + uint64(len(inodeChunk))
	fragTable := dirTable + uint64(len(dirChunk))
	idTable := fragTable + uint64(len(lookupRegion))
	bytesUsed := idTable + uint64(len(idRegion))

	var flags uint16
	if stored {
		flags = flagUncompressedInodes | flagUncompressedDataBlocks | flagUncompressedFragments
	}

	sb := &fieldWriter{}
	sb.u32(Magic)
	sb.u32(4)           // inode count
	sb.u32(testModTime) // mod time
	sb.u32(4096)        // block size
	sb.u32(1)           // frag count
	sb.u16(1)           // compression id (gzip)
	sb.u16(12)          // block log
	sb.u16(flags)
	sb.u16(1) // id count
	sb.u16(4) // version major
	sb.u16(0) // version minor
	sb.u64(uint64(packInodeRef(0, rootInodeOffset)))
	sb.u64(bytesUsed)
	sb.u64(idTable)
	sb.u64(TableAbsent) // xattr table
	sb.u64(inodeTable)
	sb.u64(dirTable)
	sb.u64(fragTable)
	sb.u64(TableAbsent) // export table

	image := bytes.Join([][]byte{
		sb.buf.Bytes(),
		dataRegion,
		inodeChunk,
		dirChunk,
		lookupRegion,
		idRegion,
	}, nil)

	if uint64(len(image)) != bytesUsed {
		t.Fatalf("fixture layout drifted: %d bytes built, %d declared", len(image), bytesUsed)
	}

	return image
}

// imageVariants runs a subtest against the stored and compressed
// builds of the fixture.
func imageVariants(t *testing.T, run func(t *testing.T, image []byte)) {
	t.Helper()

	for name, stored := range map[string]bool{
		"stored":     true,
		"compressed": false,
	} {
		t.Run(name, func(t *testing.T) {
			run(t, buildImage(t, stored))
		})
	}
}
