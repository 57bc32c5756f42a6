package block

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mwantia/initfs/data"
)

func TestMemoryDevice_Padding(t *testing.T) {
	device := NewMemoryDevice(make([]byte, SectorSize+1))

	if got := device.Sectors(); got != 2 {
		t.Fatalf("Sectors = %d, want 2", got)
	}
}

func TestMemoryDevice_ReadWrite(t *testing.T) {
	ctx := context.Background()
	device := NewMemoryDevice(make([]byte, 4*SectorSize))

	payload := bytes.Repeat([]byte{0xAB}, SectorSize)
	if err := device.Write(ctx, 2, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := device.Read(ctx, 2, 1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("read back mismatch")
	}

	// Neighboring sectors stay untouched.
	before, err := device.Read(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(before, make([]byte, SectorSize)) {
		t.Error("write leaked into sector 1")
	}
}

func TestMemoryDevice_Bounds(t *testing.T) {
	ctx := context.Background()
	device := NewMemoryDevice(make([]byte, 2*SectorSize))

	t.Run("read beyond end", func(t *testing.T) {
		if _, err := device.Read(ctx, 1, 2); !errors.Is(err, data.ErrIo) {
			t.Fatalf("err = %v, want ErrIo", err)
		}
	})

	t.Run("negative count", func(t *testing.T) {
		if _, err := device.Read(ctx, 0, -1); !errors.Is(err, data.ErrInvalid) {
			t.Fatalf("err = %v, want ErrInvalid", err)
		}
	})

	t.Run("write beyond end", func(t *testing.T) {
		if err := device.Write(ctx, 2, make([]byte, SectorSize)); !errors.Is(err, data.ErrIo) {
			t.Fatalf("err = %v, want ErrIo", err)
		}
	})

	t.Run("unaligned write", func(t *testing.T) {
		if err := device.Write(ctx, 0, make([]byte, 100)); !errors.Is(err, data.ErrInvalid) {
			t.Fatalf("err = %v, want ErrInvalid", err)
		}
	})
}
