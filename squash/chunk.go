package squash

import (
	"encoding/binary"
	"fmt"

	"github.com/mwantia/initfs/codec"
	"github.com/mwantia/initfs/data"
)

// chunkHeaderSize is the 2-byte header preceding every metadata chunk:
// bit 15 set means the payload is stored uncompressed, bits 0-14 are
// the payload length excluding the header itself.
const chunkHeaderSize = 2

const chunkStoredFlag = 0x8000

// chunk is one self-delimited unit of a metadata region. plain holds
// the decompressed payload once the chunk has been touched.
type chunk struct {
	raw   []byte
	plain []byte
}

func (c *chunk) payloadLen() int {
	return int(binary.LittleEndian.Uint16(c.raw[0:chunkHeaderSize]) & 0x7FFF)
}

func (c *chunk) stored() bool {
	return binary.LittleEndian.Uint16(c.raw[0:chunkHeaderSize])&chunkStoredFlag != 0
}

// decompress materializes the plain payload on first touch and
// memoizes it in place.
func (c *chunk) decompress(decompressor codec.Decompressor) error {
	if c.plain != nil {
		return nil
	}

	if c.stored() {
		c.plain = c.raw[chunkHeaderSize:]
		return nil
	}

	plain, err := decompressor(c.raw[chunkHeaderSize:])
	if err != nil {
		return err
	}
	c.plain = plain

	return nil
}

// chunkReader owns one contiguous compressed metadata region (the
// inode or directory table) and answers logical byte-range reads
// across its chunks.
type chunkReader struct {
	chunks       []*chunk
	decompressor codec.Decompressor
}

// newChunkReader splits region into its self-delimited chunks without
// decompressing anything.
func newChunkReader(region []byte, decompressor codec.Decompressor) (*chunkReader, error) {
	var chunks []*chunk

	offset := 0
	for offset < len(region) {
		if offset+chunkHeaderSize > len(region) {
			return nil, fmt.Errorf("%w: truncated chunk header at %d", data.ErrCorrupt, offset)
		}

		length := int(binary.LittleEndian.Uint16(region[offset:offset+chunkHeaderSize])&0x7FFF) + chunkHeaderSize
		if offset+length > len(region) {
			return nil, fmt.Errorf("%w: chunk at %d overruns region", data.ErrCorrupt, offset)
		}

		chunks = append(chunks, &chunk{raw: region[offset : offset+length]})
		offset += length
	}

	return &chunkReader{
		chunks:       chunks,
		decompressor: decompressor,
	}, nil
}

// physicalIndex translates a block reference (the raw byte offset of a
// chunk start within the region, as stored in inode addresses) into a
// chunk index. Compressed chunks are not at a fixed stride, so the
// translation walks chunks from the start accumulating raw sizes.
func (r *chunkReader) physicalIndex(block uint64) (int, error) {
	var total uint64
	for i := range r.chunks {
		if total == block {
			return i, nil
		}
		total += uint64(r.chunks[i].payloadLen() + chunkHeaderSize)
	}

	if total == block {
		return len(r.chunks), nil
	}

	return 0, fmt.Errorf("%w: block reference %d is not a chunk boundary", data.ErrCorrupt, block)
}

// GetSlice returns size decompressed bytes starting at offset within
// the chunk referenced by block, accumulating across as many
// subsequent chunks as the range needs, in chunk order.
func (r *chunkReader) GetSlice(block uint64, offset, size int) ([]byte, error) {
	if offset < 0 || size < 0 {
		return nil, fmt.Errorf("%w: negative metadata range", data.ErrInvalid)
	}

	index, err := r.physicalIndex(block)
	if err != nil {
		return nil, err
	}

	result := make([]byte, 0, size)
	for len(result) < size {
		if index >= len(r.chunks) {
			return nil, fmt.Errorf("%w: metadata read of %d bytes at block %d exhausts table",
				data.ErrCorrupt, size, block)
		}

		current := r.chunks[index]
		if err := current.decompress(r.decompressor); err != nil {
			return nil, err
		}

		// Offsets past this chunk's payload address a later chunk of
		// the same logical stream.
		if offset >= len(current.plain) {
			offset -= len(current.plain)
			index++
			continue
		}

		remaining := size - len(result)
		available := current.plain[offset:]
		if len(available) > remaining {
			available = available[:remaining]
		}
		result = append(result, available...)

		offset = 0
		index++
	}

	return result, nil
}
