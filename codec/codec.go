// Package codec holds the decompressor collaborators injected into the
// archive reader, keyed by the on-disk compressor id.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/mwantia/initfs/data"
)

// Compression is the compressor id stored in an archive superblock.
type Compression uint16

const (
	Gzip Compression = 1
	Lzma Compression = 2
	Lzo  Compression = 3
	Xz   Compression = 4
	Lz4  Compression = 5
	Zstd Compression = 6
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Lzma:
		return "lzma"
	case Lzo:
		return "lzo"
	case Xz:
		return "xz"
	case Lz4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint16(c))
	}
}

// Decompressor turns a compressed byte stream into its plain form.
type Decompressor func(compressed []byte) ([]byte, error)

// Registry maps compressor ids to decompressors. Only gzip is wired;
// the remaining ids resolve to data.ErrUnsupported so that an archive
// using them fails with a typed error instead of a crash.
type Registry struct {
	decompressors map[Compression]Decompressor
}

// NewRegistry returns a registry with the default gzip decompressor.
func NewRegistry() *Registry {
	r := &Registry{
		decompressors: make(map[Compression]Decompressor),
	}
	r.Register(Gzip, inflate)

	return r
}

// Register wires a decompressor for a compressor id, replacing any
// previous registration.
func (r *Registry) Register(c Compression, d Decompressor) {
	r.decompressors[c] = d
}

// Lookup returns the decompressor for a compressor id.
func (r *Registry) Lookup(c Compression) (Decompressor, error) {
	d, exists := r.decompressors[c]
	if !exists {
		return nil, fmt.Errorf("%w: %s decompressor not registered", data.ErrUnsupported, c)
	}

	return d, nil
}

// inflate handles compressor id 1. The "gzip" streams of the archive
// format are zlib-framed deflate data.
func inflate(compressed []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrDecompress, err)
	}
	defer reader.Close()

	plain, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrDecompress, err)
	}

	return plain, nil
}
