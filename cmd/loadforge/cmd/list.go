package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listStatus string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known runs",
	Long: `List runs tracked by the server, with optional status filtering.

Examples:
  # List all runs
  loadforge list

  # List only running runs
  loadforge list --status running

  # List the last 5 runs
  loadforge list --limit 5`,
	RunE: listRuns,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 10, "maximum number of results")
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by status")
}

func listRuns(_ *cobra.Command, _ []string) error {
	client := NewAPIClient(GetAPIBaseURL(), GetAPIKey())

	printInfo("Fetching runs...")
	runs, err := client.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to fetch runs: %w", err)
	}

	if listStatus != "" {
		filtered := make([]RunSnapshot, 0, len(runs))
		for _, run := range runs {
			if run.Status == listStatus {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, color.New(color.Bold).Sprint("ID\tSCENARIO\tPATTERN\tSTATUS\tSTARTED"))

	count := 0
	for _, run := range runs {
		if count >= listLimit {
			break
		}

		t, err := time.Parse(time.RFC3339, run.StartedAt)
		if err != nil {
			t = time.Now()
		}

		statusStr := run.Status
		switch run.Status {
		case statusCompleted:
			statusStr = color.GreenString(run.Status)
		case statusRunning:
			statusStr = color.BlueString(run.Status)
		case statusFailed:
			statusStr = color.RedString(run.Status)
		case statusStopped:
			statusStr = color.YellowString(run.Status)
		}

		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			color.CyanString(id),
			truncate(run.ScenarioName, 30),
			truncate(run.PatternDesc, 24),
			statusStr,
			t.Format("2006-01-02 15:04"))

		count++
	}

	return nil
}
