package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
)

const (
	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"
	statusStopped   = "stopped"
)

func saveResult(result map[string]interface{}, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o600)
}

func printResultSummary(result map[string]interface{}) {
	fmt.Println()
	printHeader("Run Results Summary")
	fmt.Println()

	final, _ := result["final"].(map[string]interface{})
	if final == nil {
		fmt.Println("  (no final snapshot available)")
		return
	}

	totalReqs := asFloat(final["total_requests"])
	totalErrors := asFloat(final["total_errors"])
	errorRate := asFloat(final["error_rate"]) * 100
	rps := asFloat(final["requests_per_second"])

	latencies, _ := final["latencies"].(map[string]interface{})
	p50 := asFloat(latencies["p50"])
	p95 := asFloat(latencies["p95"])
	p99 := asFloat(latencies["p99"])

	fmt.Printf("  Total Requests:  %s\n", color.CyanString("%.0f", totalReqs))
	fmt.Printf("  Total Errors:    %s (%s)\n",
		color.RedString("%.0f", totalErrors),
		color.YellowString("%.2f%%", errorRate))
	fmt.Println()
	fmt.Printf("  P50 Latency:     %s\n", color.YellowString("%.0f ms", p50))
	fmt.Printf("  P95 Latency:     %s\n", color.YellowString("%.0f ms", p95))
	fmt.Printf("  P99 Latency:     %s\n", color.YellowString("%.0f ms", p99))
	fmt.Println()
	fmt.Printf("  Throughput:      %s\n", color.MagentaString("%.2f req/s", rps))
	fmt.Println()
}

func asFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func printInfo(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.BlueString("i"), msg)
}

func printSuccess(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.GreenString("+"), msg)
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("x"), msg)
}

func printHeader(msg string) {
	fmt.Println(color.New(color.Bold, color.Underline).Sprint(msg))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
