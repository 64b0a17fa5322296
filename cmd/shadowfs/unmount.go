package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

func unmountMain(_ *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return fmt.Errorf("expected a mountpoint")
	}
	mountpoint := arguments[0]

	var command *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		command = exec.Command("umount", mountpoint)
	default:
		command = exec.Command("fusermount", "-u", mountpoint)
	}
	if output, err := command.CombinedOutput(); err != nil {
		return fmt.Errorf("unable to unmount %q: %w (%s)", mountpoint, err, output)
	}
	return nil
}

var unmountCommand = &cobra.Command{
	Use:          "unmount <mountpoint>",
	Short:        "Unmount a running shadowfs instance from another terminal",
	RunE:         unmountMain,
	SilenceUsage: true,
}

func init() {
	flags := unmountCommand.Flags()
	flags.SortFlags = false
	flags.BoolP("help", "h", false, "Show help information")
}
