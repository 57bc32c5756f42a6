package squash

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	vfs "github.com/mwantia/initfs"
	"github.com/mwantia/initfs/codec"
	"github.com/mwantia/initfs/data"
	"github.com/mwantia/initfs/log"
	"github.com/mwantia/initfs/mounts"
)

func newArchiveFS(t *testing.T, image []byte) *vfs.VirtualFileSystem {
	t.Helper()
	ctx := context.Background()

	fs, err := vfs.NewVirtualFileSystem(
		vfs.WithLogLevel(log.Error),
		vfs.WithoutTerminalLog(),
	)
	if err != nil {
		t.Fatalf("NewVirtualFileSystem: %v", err)
	}

	rootfs := mounts.NewMemory()
	if err := rootfs.AddDir("initrd"); err != nil {
		t.Fatalf("AddDir: %v", err)
	}
	if err := fs.Mount(ctx, "/", rootfs); err != nil {
		t.Fatalf("mount root: %v", err)
	}

	archive, err := New(image, codec.NewRegistry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := fs.Mount(ctx, "/initrd", archive); err != nil {
		t.Fatalf("mount archive: %v", err)
	}

	return fs
}

func TestSquash_MountedArchive(t *testing.T) {
	imageVariants(t, func(t *testing.T, image []byte) {
		ctx := context.Background()
		fs := newArchiveFS(t, image)

		t.Run("read across the mount boundary", func(t *testing.T) {
			got, err := fs.ReadFile(ctx, "/initrd/hello.txt", 0, 0)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if string(got) != string(helloContent) {
				t.Errorf("ReadFile = %q, want %q", got, helloContent)
			}
		})

		t.Run("fragment file through the mount", func(t *testing.T) {
			got, err := fs.ReadFile(ctx, "/initrd/dir/frag.txt", 0, 0)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if string(got) != string(fragContent) {
				t.Errorf("ReadFile = %q, want %q", got, fragContent)
			}
		})

		t.Run("archive listing", func(t *testing.T) {
			entries, err := fs.ReadDirectory(ctx, "/initrd")
			if err != nil {
				t.Fatalf("ReadDirectory: %v", err)
			}
			if len(entries) != 2 || entries[0].Name != "dir" || entries[1].Name != "hello.txt" {
				t.Errorf("entries = %+v", entries)
			}
		})

		t.Run("statfs of the archive mount", func(t *testing.T) {
			stat, err := fs.StatFs(ctx, "/initrd/dir")
			if err != nil {
				t.Fatalf("StatFs: %v", err)
			}
			if stat.Type != Magic {
				t.Errorf("type = 0x%08x, want archive magic", stat.Type)
			}
		})

		t.Run("unmount and read the covered tree", func(t *testing.T) {
			if err := fs.Unmount(ctx, "/initrd"); err != nil {
				t.Fatalf("Unmount: %v", err)
			}
			if _, err := fs.ReadFile(ctx, "/initrd/hello.txt", 0, 0); !errors.Is(err, data.ErrNotExist) {
				t.Fatalf("err = %v, want ErrNotExist after unmount", err)
			}
		})
	})
}

func TestSquash_CorruptImageNeverMounts(t *testing.T) {
	image := buildImage(t, true)
	binary.LittleEndian.PutUint32(image[0:4], 0)

	// Construction fails before any registry is involved.
	if _, err := New(image, codec.NewRegistry()); !errors.Is(err, data.ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}
