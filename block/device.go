// Package block defines the block-device collaborator contract the
// filesystem backends read their images from.
package block

import "context"

// SectorSize is the fixed logical sector size of the device contract.
const SectorSize = 512

// Device is a sector-granular block device. Reads are synchronous and
// potentially unbounded: a device that never signals ready blocks its
// caller, so every Read must be treated as blocking. Neither side
// retries; failures surface unchanged.
type Device interface {
	// Read returns count sectors starting at sector.
	Read(ctx context.Context, sector uint64, count int) ([]byte, error)

	// Write stores len(buffer) bytes at sector. The buffer length must
	// be a multiple of SectorSize.
	Write(ctx context.Context, sector uint64, buffer []byte) error
}
