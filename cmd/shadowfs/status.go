package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var statusConfiguration struct {
	controlURL string
}

func statusMain(_ *cobra.Command, _ []string) error {
	resp, err := http.Get(statusConfiguration.controlURL + "/status")
	if err != nil {
		return fmt.Errorf("unable to reach control server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("unable to read response: %w", err)
	}

	var pretty map[string]interface{}
	if err := json.Unmarshal(body, &pretty); err != nil {
		return fmt.Errorf("unable to parse response: %w", err)
	}
	encoded, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to format response: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

var statusCommand = &cobra.Command{
	Use:          "status",
	Short:        "Query a running shadowfs instance's control server",
	RunE:         statusMain,
	SilenceUsage: true,
}

func init() {
	flags := statusCommand.Flags()
	flags.SortFlags = false
	flags.StringVar(&statusConfiguration.controlURL, "control-url", "http://127.0.0.1:9480", "Control server base URL")
	flags.BoolP("help", "h", false, "Show help information")
}
