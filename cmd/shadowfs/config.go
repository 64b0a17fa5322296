package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andronics/shadowfs/pkg/shadowfs/config"
)

func configValidateMain(_ *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return fmt.Errorf("expected a configuration path")
	}
	cfg, err := config.Load(arguments[0])
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Printf("configuration is valid: %d source(s), %d rule(s), %d transform(s), %d virtual layer(s)\n",
		len(cfg.Sources), len(cfg.Rules), len(cfg.Transforms), len(cfg.VirtualLayers))
	return nil
}

var configValidateCommand = &cobra.Command{
	Use:          "validate <configuration>",
	Short:        "Validate a configuration file without mounting anything",
	RunE:         configValidateMain,
	SilenceUsage: true,
}

var configCommand = &cobra.Command{
	Use:   "config",
	Short: "Inspect or validate shadowfs configuration files",
	Run: func(command *cobra.Command, _ []string) {
		command.Help()
	},
}

func init() {
	configCommand.AddCommand(configValidateCommand)
}
