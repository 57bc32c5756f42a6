package builtin

import (
	"context"
	"fmt"
	"io"

	vfs "github.com/mwantia/initfs"
)

type StatCommand struct {
}

// Name returns the command identifier
func (st *StatCommand) Name() string {
	return "stat"
}

// Description returns human-readable help text
func (st *StatCommand) Description() string {
	return "Show node attributes"
}

// Usage returns a usage string for help
func (st *StatCommand) Usage() string {
	return "stat <path>"
}

// Execute runs the command with parsed arguments
func (st *StatCommand) Execute(ctx context.Context, fs *vfs.VirtualFileSystem, args *vfs.CommandArgs, writer io.Writer) (int, error) {
	if len(args.Args) != 1 {
		return 1, fmt.Errorf("usage: %s", st.Usage())
	}

	path := args.Args[0]
	attr, err := fs.Stat(ctx, path)
	if err != nil {
		return 1, err
	}

	fmt.Fprintf(writer, "  File: %s\n", path)
	fmt.Fprintf(writer, "  Type: %s\n", attr.Type)
	fmt.Fprintf(writer, "  Size: %d\n", attr.Size)
	fmt.Fprintf(writer, " Inode: %d\n", attr.NodeID)
	fmt.Fprintf(writer, " Links: %d\n", attr.LinkCount)
	fmt.Fprintf(writer, "  Mode: %04o\n", attr.Mode)
	fmt.Fprintf(writer, "Modify: %s\n", attr.ModifyTime.Format("2006-01-02 15:04:05"))

	return 0, nil
}

// GetFlags returns the flag set for this command
func (st *StatCommand) GetFlags() *vfs.CommandFlagSet {
	return nil
}
