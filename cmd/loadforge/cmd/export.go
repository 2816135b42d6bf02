package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a finished run's result",
	Long: `Export a run's result in various formats (JSON, CSV).

Examples:
  # Export as JSON
  loadforge export abc123 --format json -o result.json

  # Export as CSV
  loadforge export abc123 --format csv -o result.csv`,
	Args: cobra.ExactArgs(1),
	RunE: exportResult,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format (json, csv)")
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (required)")
	if err := exportCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}
}

func exportResult(_ *cobra.Command, args []string) error {
	runID := args[0]

	client := NewAPIClient(GetAPIBaseURL(), GetAPIKey())

	printInfo(fmt.Sprintf("Fetching result for run %s...", runID))
	result, err := client.GetRunResult(runID)
	if err != nil {
		return fmt.Errorf("failed to fetch result: %w", err)
	}

	switch exportFormat {
	case "json":
		err = exportResultJSON(result, outputFile)
	case "csv":
		err = exportResultCSV(result, outputFile)
	default:
		return fmt.Errorf("unsupported format: %s (use json or csv)", exportFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	printSuccess(fmt.Sprintf("Result exported to %s", outputFile))
	return nil
}

func exportResultJSON(result map[string]interface{}, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o600)
}

func exportResultCSV(result map[string]interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}

	final, _ := result["final"].(map[string]interface{})
	latencies, _ := final["latencies"].(map[string]interface{})

	rows := [][]string{
		{"Scenario", fmt.Sprintf("%v", result["scenario_name"])},
		{"Pattern", fmt.Sprintf("%v", result["pattern_description"])},
		{"Total Requests", fmt.Sprintf("%.0f", asFloat(final["total_requests"]))},
		{"Total Errors", fmt.Sprintf("%.0f", asFloat(final["total_errors"]))},
		{"Error Rate (%)", fmt.Sprintf("%.2f", asFloat(final["error_rate"])*100)},
		{"Requests/Second", fmt.Sprintf("%.2f", asFloat(final["requests_per_second"]))},
		{"P50 Latency (ms)", fmt.Sprintf("%.0f", asFloat(latencies["p50"]))},
		{"P95 Latency (ms)", fmt.Sprintf("%.0f", asFloat(latencies["p95"]))},
		{"P99 Latency (ms)", fmt.Sprintf("%.0f", asFloat(latencies["p99"]))},
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}
