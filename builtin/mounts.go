package builtin

import (
	"context"
	"fmt"
	"io"

	vfs "github.com/mwantia/initfs"
)

type MountsCommand struct {
}

// Name returns the command identifier
func (mc *MountsCommand) Name() string {
	return "mounts"
}

// Description returns human-readable help text
func (mc *MountsCommand) Description() string {
	return "List mounted filesystems"
}

// Usage returns a usage string for help
func (mc *MountsCommand) Usage() string {
	return "mounts"
}

// Execute runs the command with parsed arguments
func (mc *MountsCommand) Execute(ctx context.Context, fs *vfs.VirtualFileSystem, args *vfs.CommandArgs, writer io.Writer) (int, error) {
	for _, info := range fs.Mounts() {
		fmt.Fprintf(writer, "%s %s %s\n",
			info.ID, info.DisplayPath(), info.MountTime.Format("2006-01-02 15:04:05"))
	}

	return 0, nil
}

// GetFlags returns the flag set for this command
func (mc *MountsCommand) GetFlags() *vfs.CommandFlagSet {
	return nil
}

// RegisterAll wires every stock command into the manager.
func RegisterAll(cm *vfs.CommandManager) error {
	commands := []vfs.Command{
		&LsCommand{},
		&CatCommand{},
		&StatCommand{},
		&MountsCommand{},
	}

	for _, command := range commands {
		if err := cm.Register(command); err != nil {
			return err
		}
	}

	return nil
}
