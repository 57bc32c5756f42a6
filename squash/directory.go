package squash

import (
	"encoding/binary"
	"fmt"

	"github.com/mwantia/initfs/data"
)

// directoryHeaderSize is the fixed size of a directory-table header.
const directoryHeaderSize = 12

// directoryEntryFixed is the fixed prefix of a directory entry; the
// name bytes follow immediately.
const directoryEntryFixed = 8

// directoryHeader prefixes a run of directory entries. The stored
// count is off by one: a header declaring 0 carries 1 entry. Start is
// the metadata-block reference the run's entries resolve against.
type directoryHeader struct {
	EntryCount uint32
	Start      uint32
	InodeNum   uint32
}

func parseDirectoryHeader(record []byte) directoryHeader {
	le := binary.LittleEndian
	return directoryHeader{
		EntryCount: le.Uint32(record[0:4]) + 1,
		Start:      le.Uint32(record[4:8]),
		InodeNum:   le.Uint32(record[8:12]),
	}
}

// directoryEntry is one variable-length directory record: 8 fixed
// bytes plus the name. The stored name length is off by one as well.
type directoryEntry struct {
	Offset      uint16
	InodeOffset int16
	Type        inodeType
	Name        string
}

func parseDirectoryEntry(record []byte) directoryEntry {
	le := binary.LittleEndian
	nameSize := int(le.Uint16(record[6:8])) + 1

	return directoryEntry{
		Offset:      le.Uint16(record[0:2]),
		InodeOffset: int16(le.Uint16(record[2:4])),
		Type:        inodeType(le.Uint16(record[4:6])),
		Name:        string(record[directoryEntryFixed : directoryEntryFixed+nameSize]),
	}
}

// walkDirectory iterates every entry of a directory, reading
// continuation headers whenever a header's declared count is exhausted
// before the directory's byte size is: metadata packing splits long
// directories into multiple header+entries runs. The visit callback
// receives the entry together with the header governing it; returning
// true stops the walk.
func (s *Squash) walkDirectory(dir *inode, visit func(header directoryHeader, entry directoryEntry) bool) error {
	ref, dirSize, err := dir.directoryRef()
	if err != nil {
		return err
	}

	// An empty directory has no header at all.
	if dirSize == 0 {
		return nil
	}

	block, blockOffset := ref.split()

	headerBytes, err := s.directoryTable.GetSlice(block, blockOffset, directoryHeaderSize)
	if err != nil {
		return err
	}
	header := parseDirectoryHeader(headerBytes)

	offset := directoryHeaderSize
	count := uint32(0)

	for {
		if count == header.EntryCount && offset != dirSize {
			// Continuation header immediately follows the last entry.
			headerBytes, err := s.directoryTable.GetSlice(block, blockOffset+offset, directoryHeaderSize)
			if err != nil {
				return fmt.Errorf("%w: directory continuation at %d: %w", data.ErrCorrupt, offset, err)
			}
			header = parseDirectoryHeader(headerBytes)

			count = 0
			offset += directoryHeaderSize
			continue
		}

		if offset >= dirSize {
			return nil
		}

		// The name length sits 6 bytes into the fixed entry prefix.
		sizeBytes, err := s.directoryTable.GetSlice(block, blockOffset+offset+6, 2)
		if err != nil {
			return err
		}
		nameSize := int(binary.LittleEndian.Uint16(sizeBytes)) + 1

		entryBytes, err := s.directoryTable.GetSlice(block, blockOffset+offset, directoryEntryFixed+nameSize)
		if err != nil {
			return err
		}
		entry := parseDirectoryEntry(entryBytes)

		offset += directoryEntryFixed + nameSize
		count++

		if visit(header, entry) {
			return nil
		}
	}
}

// findEntry scans a directory for a byte-exact name match, first match
// wins. A miss is data.ErrNotExist.
func (s *Squash) findEntry(dir *inode, name string) (*inode, error) {
	var found *inode
	var walkErr error

	err := s.walkDirectory(dir, func(header directoryHeader, entry directoryEntry) bool {
		if entry.Name != name {
			return false
		}

		ref := packInodeRef(uint64(header.Start), int(entry.Offset))
		found, walkErr = s.readInode(ref)
		return true
	})
	if err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %s", data.ErrNotExist, name)
	}

	return found, nil
}

// listEntries returns every entry name and type in directory order.
func (s *Squash) listEntries(dir *inode) ([]*data.DirEntry, error) {
	var entries []*data.DirEntry

	err := s.walkDirectory(dir, func(header directoryHeader, entry directoryEntry) bool {
		typ := data.NodeTypeFile
		if entry.Type == inodeBasicDirectory || entry.Type == inodeExtendedDirectory {
			typ = data.NodeTypeDirectory
		}

		entries = append(entries, &data.DirEntry{
			Name: entry.Name,
			Type: typ,
		})
		return false
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}
