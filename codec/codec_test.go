package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/mwantia/initfs/data"
)

func TestRegistry_GzipRoundtrip(t *testing.T) {
	plain := []byte("metadata chunk payload with some repetition repetition repetition")

	var buf bytes.Buffer
	writer := zlib.NewWriter(&buf)
	if _, err := writer.Write(plain); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	decompress, err := NewRegistry().Lookup(Gzip)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	got, err := decompress(buf.Bytes())
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("roundtrip = %q, want %q", got, plain)
	}
}

func TestRegistry_GarbageInput(t *testing.T) {
	decompress, err := NewRegistry().Lookup(Gzip)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if _, err := decompress([]byte{0x00, 0x01, 0x02}); !errors.Is(err, data.ErrDecompress) {
		t.Fatalf("err = %v, want ErrDecompress", err)
	}
}

func TestRegistry_Unregistered(t *testing.T) {
	registry := NewRegistry()

	for _, c := range []Compression{Lzma, Lzo, Xz, Lz4, Zstd} {
		if _, err := registry.Lookup(c); !errors.Is(err, data.ErrUnsupported) {
			t.Errorf("Lookup(%s) err = %v, want ErrUnsupported", c, err)
		}
	}
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Zstd, func(compressed []byte) ([]byte, error) {
		return compressed, nil
	})

	decompress, err := registry.Lookup(Zstd)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	got, err := decompress([]byte("as-is"))
	if err != nil || string(got) != "as-is" {
		t.Errorf("custom decompressor = %q, %v", got, err)
	}
}
