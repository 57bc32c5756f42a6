package builtin

import (
	"context"
	"fmt"
	"io"

	vfs "github.com/mwantia/initfs"
)

type CatCommand struct {
}

// Name returns the command identifier
func (cat *CatCommand) Name() string {
	return "cat"
}

// Description returns human-readable help text
func (cat *CatCommand) Description() string {
	return "Print file contents"
}

// Usage returns a usage string for help
func (cat *CatCommand) Usage() string {
	return "cat <path>..."
}

// Execute runs the command with parsed arguments
func (cat *CatCommand) Execute(ctx context.Context, fs *vfs.VirtualFileSystem, args *vfs.CommandArgs, writer io.Writer) (int, error) {
	if len(args.Args) == 0 {
		return 1, fmt.Errorf("usage: %s", cat.Usage())
	}

	for _, path := range args.Args {
		content, err := fs.ReadFile(ctx, path, 0, 0)
		if err != nil {
			return 1, err
		}

		if _, err := writer.Write(content); err != nil {
			return 1, err
		}
	}

	return 0, nil
}

// GetFlags returns the flag set for this command
func (cat *CatCommand) GetFlags() *vfs.CommandFlagSet {
	return nil
}
