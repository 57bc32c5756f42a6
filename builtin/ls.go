// Package builtin holds the stock read-only commands for the virtual
// filesystem: listing, reading and inspecting nodes and mounts.
package builtin

import (
	"context"
	"fmt"
	"io"

	vfs "github.com/mwantia/initfs"
	"github.com/mwantia/initfs/data"
)

type LsCommand struct {
}

// Name returns the command identifier
func (ls *LsCommand) Name() string {
	return "ls"
}

// Description returns human-readable help text
func (ls *LsCommand) Description() string {
	return "List directory contents"
}

// Usage returns a usage string for help
func (ls *LsCommand) Usage() string {
	return "ls [-l] [path]"
}

// Execute runs the command with parsed arguments
func (ls *LsCommand) Execute(ctx context.Context, fs *vfs.VirtualFileSystem, args *vfs.CommandArgs, writer io.Writer) (int, error) {
	path := "/"
	if len(args.Args) > 0 {
		path = args.Args[0]
	}

	entries, err := fs.ReadDirectory(ctx, path)
	if err != nil {
		return 1, err
	}

	long, _ := args.Flags["long"].(bool)

	for _, entry := range entries {
		if !long {
			fmt.Fprintln(writer, entry.Name)
			continue
		}

		attr, err := fs.Stat(ctx, joinPath(path, entry.Name))
		if err != nil {
			return 1, err
		}

		fmt.Fprintf(writer, "%-9s %6d %s\n", entry.Type, attr.Size, entry.Name)
	}

	return 0, nil
}

// GetFlags returns the flag set for this command
func (ls *LsCommand) GetFlags() *vfs.CommandFlagSet {
	return &vfs.CommandFlagSet{
		Flags: map[string]*vfs.CommandFlag{
			"long": {
				Name:        "long",
				Short:       "l",
				Type:        "bool",
				Default:     false,
				Description: "Use long listing format",
			},
		},
	}
}

func joinPath(dir, name string) string {
	normalized := data.NormalizeMountPath(dir)
	return normalized + "/" + name
}
