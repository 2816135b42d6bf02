package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

func watchRun(client *APIClient, runID string) error {
	printInfo("Watching live metrics... (Press Ctrl+C to stop watching)")
	fmt.Println()

	var bar *progressbar.ProgressBar
	firstUpdate := true

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		snap, err := client.GetRun(runID)
		if err != nil {
			if IsVerbose() {
				printError(fmt.Sprintf("Failed to get run: %v", err))
			}
			continue
		}

		if firstUpdate {
			bar = progressbar.NewOptions(durationSec,
				progressbar.OptionSetDescription("Progress"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
			firstUpdate = false
		}

		if elapsed, ok := snap.Latest["elapsed_sec"].(float64); ok && bar != nil {
			bar.Set(int(elapsed))
		}

		clearLines(4)
		printLiveStats(snap.Latest)

		if snap.Status == statusCompleted || snap.Status == statusFailed || snap.Status == statusStopped {
			fmt.Println()
			printSuccess(fmt.Sprintf("Run %s!", snap.Status))
			return nil
		}
	}
	return nil
}

func printLiveStats(latest map[string]interface{}) {
	totalReqs := asFloat(latest["total_requests"])
	totalErrors := asFloat(latest["total_errors"])
	rps := asFloat(latest["requests_per_second"])

	latencies, _ := latest["latencies"].(map[string]interface{})
	p95 := asFloat(latencies["p95"])

	fmt.Printf("\r  Requests: %s | Errors: %s | RPS: %s\n",
		color.CyanString("%6.0f", totalReqs),
		color.RedString("%6.0f", totalErrors),
		color.MagentaString("%.2f", rps))
	fmt.Printf("  P95 Latency (ms): %s\n", color.YellowString("%.0f", p95))
}

func clearLines(n int) {
	for i := 0; i < n; i++ {
		fmt.Print("\033[F\033[K")
	}
}
