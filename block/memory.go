package block

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwantia/initfs/data"
)

// MemoryDevice is a Device over an in-memory byte slice, padded up to a
// whole number of sectors. It stands in for real hardware in tests and
// when an archive image arrives preloaded in memory.
type MemoryDevice struct {
	mu      sync.RWMutex
	sectors []byte
}

// NewMemoryDevice copies image into a sector-aligned buffer.
func NewMemoryDevice(image []byte) *MemoryDevice {
	size := len(image)
	if rem := size % SectorSize; rem != 0 {
		size += SectorSize - rem
	}

	sectors := make([]byte, size)
	copy(sectors, image)

	return &MemoryDevice{sectors: sectors}
}

// Sectors returns the device capacity in sectors.
func (d *MemoryDevice) Sectors() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return uint64(len(d.sectors) / SectorSize)
}

func (d *MemoryDevice) Read(ctx context.Context, sector uint64, count int) ([]byte, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative sector count", data.ErrInvalid)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	start := sector * SectorSize
	end := start + uint64(count)*SectorSize
	if end > uint64(len(d.sectors)) {
		return nil, fmt.Errorf("%w: read of %d sectors at %d beyond device end",
			data.ErrIo, count, sector)
	}

	buffer := make([]byte, end-start)
	copy(buffer, d.sectors[start:end])

	return buffer, nil
}

func (d *MemoryDevice) Write(ctx context.Context, sector uint64, buffer []byte) error {
	if len(buffer)%SectorSize != 0 {
		return fmt.Errorf("%w: write length %d not sector aligned", data.ErrInvalid, len(buffer))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	start := sector * SectorSize
	end := start + uint64(len(buffer))
	if end > uint64(len(d.sectors)) {
		return fmt.Errorf("%w: write of %d bytes at sector %d beyond device end",
			data.ErrIo, len(buffer), sector)
	}

	copy(d.sectors[start:end], buffer)
	return nil
}
