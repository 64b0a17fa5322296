package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootMain is the entry point for the root command, invoked only when no
// subcommand is given.
func rootMain(command *cobra.Command, _ []string) {
	if rootConfiguration.version {
		fmt.Println(version)
		return
	}
	command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "shadowfs",
	Short: "shadowfs mounts a rule-filtered, transforming virtual filesystem",
	Run:   rootMain,
}

var rootConfiguration struct {
	version bool
}

// version is the build version, overridden at link time with -ldflags.
var version = "dev"

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		mountCommand,
		unmountCommand,
		statusCommand,
		configCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
