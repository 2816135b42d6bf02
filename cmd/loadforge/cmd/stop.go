package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <run-id>",
	Short: "Stop a running run",
	Args:  cobra.ExactArgs(1),
	RunE:  stopRun,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func stopRun(_ *cobra.Command, args []string) error {
	runID := args[0]
	client := NewAPIClient(GetAPIBaseURL(), GetAPIKey())

	if err := client.StopRun(runID); err != nil {
		return fmt.Errorf("failed to stop run: %w", err)
	}

	printSuccess(fmt.Sprintf("Stop requested for run %s", runID))
	return nil
}
