package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	scenarioFile string
	durationSec  int
	patternName  string
	patternFrom  int
	patternTo    int
	stepSize     int
	stepHoldSec  int
	spikeBase    int
	spikePeak    int
	spikeHold    int
	peak         int
	trough       int
	workerCount  int
	watch        bool
	outputFile   string
	noColor      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch a load test run",
	Long: `Launch a load test run against a loadforge-server from a scenario file.

Examples:
  # Constant concurrency for 60s
  loadforge run -f scenario.yaml --duration 60 --pattern constant --to 50

  # Ramp from 10 to 200 users over the run
  loadforge run -f scenario.yaml --duration 120 --pattern ramp --from 10 --to 200

  # Run and watch live metrics
  loadforge run -f scenario.yaml --duration 60 --pattern constant --to 50 --watch`,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&scenarioFile, "file", "f", "", "scenario file path, resolved by the server (required)")
	runCmd.Flags().IntVar(&durationSec, "duration", 60, "run duration in seconds")
	runCmd.Flags().StringVar(&patternName, "pattern", "constant", "concurrency pattern: constant, ramp, step, spike, diurnal")
	runCmd.Flags().IntVar(&patternFrom, "from", 0, "starting concurrency (ramp/step)")
	runCmd.Flags().IntVar(&patternTo, "to", 10, "target concurrency (constant/ramp)")
	runCmd.Flags().IntVar(&stepSize, "step-size", 10, "concurrency increase per step (step)")
	runCmd.Flags().IntVar(&stepHoldSec, "step-hold", 10, "seconds to hold each step (step)")
	runCmd.Flags().IntVar(&spikeBase, "spike-base", 10, "baseline concurrency (spike)")
	runCmd.Flags().IntVar(&spikePeak, "spike-peak", 100, "peak concurrency (spike)")
	runCmd.Flags().IntVar(&spikeHold, "spike-hold", 5, "seconds to hold the spike (spike)")
	runCmd.Flags().IntVar(&peak, "peak", 100, "peak concurrency (diurnal)")
	runCmd.Flags().IntVar(&trough, "trough", 5, "trough concurrency (diurnal)")
	runCmd.Flags().IntVarP(&workerCount, "workers", "w", 1, "number of workers")
	runCmd.Flags().BoolVar(&watch, "watch", false, "watch live metrics during the run")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file for the final result (JSON)")
	runCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	if err := runCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}

func runTest(_ *cobra.Command, _ []string) error {
	if noColor {
		color.NoColor = true
	}

	client := NewAPIClient(GetAPIBaseURL(), GetAPIKey())

	printInfo(fmt.Sprintf("Launching run from %s...", scenarioFile))
	snap, err := client.StartRun(StartRunRequest{
		ScenarioPath: scenarioFile,
		DurationSec:  durationSec,
		Pattern:      patternName,
		From:         patternFrom,
		To:           patternTo,
		StepSize:     stepSize,
		StepHoldSec:  stepHoldSec,
		SpikeBase:    spikeBase,
		SpikePeak:    spikePeak,
		SpikeHoldSec: spikeHold,
		Peak:         peak,
		Trough:       trough,
		Workers:      workerCount,
	})
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}

	printSuccess(fmt.Sprintf("Run started! Run ID: %s", snap.ID))

	if watch {
		if err := watchRun(client, snap.ID); err != nil {
			return err
		}
	} else if err := waitForCompletion(client, snap.ID); err != nil {
		return err
	}

	result, err := client.GetRunResult(snap.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch result: %w", err)
	}

	printResultSummary(result)

	if outputFile != "" {
		if err := saveResult(result, outputFile); err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
		printSuccess(fmt.Sprintf("Result saved to %s", outputFile))
	}

	return nil
}

func waitForCompletion(client *APIClient, runID string) error {
	printInfo("Waiting for run completion...")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		snap, err := client.GetRun(runID)
		if err != nil {
			return fmt.Errorf("failed to check run status: %w", err)
		}

		if snap.Status == statusCompleted || snap.Status == statusFailed || snap.Status == statusStopped {
			printSuccess(fmt.Sprintf("Run %s", snap.Status))
			return nil
		}

		if IsVerbose() {
			printInfo(fmt.Sprintf("Run status: %s", snap.Status))
		}
	}
	return nil
}
