package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/loadforge/loadforge/internal/metricmodel"
)

// ExportFormat represents the export format type
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
	FormatHTML ExportFormat = "html"
)

// RunExport is the data structure handed to each format encoder.
type RunExport struct {
	RunID        string                   `json:"run_id"`
	Result       *metricmodel.TestResult  `json:"result"`
	ExportedAt   time.Time                `json:"exported_at"`
	ExportFormat string                   `json:"export_format"`
}

// Exporter renders a finished run's result in various formats.
type Exporter struct{}

// NewExporter creates a new Exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportRun exports a run's result to the specified format.
func (e *Exporter) ExportRun(writer io.Writer, format ExportFormat, runID string, result *metricmodel.TestResult) error {
	exportData := &RunExport{
		RunID:        runID,
		Result:       result,
		ExportedAt:   time.Now(),
		ExportFormat: string(format),
	}

	switch format {
	case FormatJSON:
		return e.exportJSON(writer, exportData)
	case FormatCSV:
		return e.exportCSV(writer, exportData)
	case FormatHTML:
		return e.exportHTML(writer, exportData)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func (e *Exporter) exportJSON(writer io.Writer, data *RunExport) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (e *Exporter) exportCSV(writer io.Writer, data *RunExport) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	headers := []string{
		"Run ID", "Scenario", "Pattern", "Started At", "Ended At", "Duration (s)",
		"Total Requests", "Total Errors", "Error Rate (%)", "Requests/Second",
		"P50 (ms)", "P95 (ms)", "P99 (ms)", "Max Concurrency",
	}
	if err := csvWriter.Write(headers); err != nil {
		return err
	}

	final := data.Result.Final
	row := []string{
		data.RunID,
		data.Result.ScenarioName,
		data.Result.PatternDesc,
		data.Result.StartedAt.Format(time.RFC3339),
		data.Result.EndedAt.Format(time.RFC3339),
		fmt.Sprintf("%.2f", data.Result.Duration.Seconds()),
		fmt.Sprintf("%d", final.TotalRequests),
		fmt.Sprintf("%d", final.TotalErrors),
		fmt.Sprintf("%.2f", final.ErrorRate*100),
		fmt.Sprintf("%.2f", final.RequestsPerSecond),
		fmt.Sprintf("%.2f", float64(final.Latencies.P50)),
		fmt.Sprintf("%.2f", float64(final.Latencies.P95)),
		fmt.Sprintf("%.2f", float64(final.Latencies.P99)),
		fmt.Sprintf("%d", final.TargetConcurrency),
	}

	return csvWriter.Write(row)
}

func (e *Exporter) exportHTML(writer io.Writer, data *RunExport) error {
	tmpl := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Run Report - {{.Result.ScenarioName}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; margin: 0; padding: 20px; background: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #333; border-bottom: 3px solid #007bff; padding-bottom: 10px; }
        h2 { color: #555; margin-top: 30px; border-bottom: 2px solid #e0e0e0; padding-bottom: 8px; }
        .summary-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 20px; margin: 20px 0; }
        .metric-card { background: #f8f9fa; padding: 20px; border-radius: 6px; border-left: 4px solid #007bff; }
        .metric-card.danger { border-left-color: #dc3545; }
        .metric-label { font-size: 12px; color: #666; text-transform: uppercase; font-weight: 600; }
        .metric-value { font-size: 28px; font-weight: bold; color: #333; margin-top: 5px; }
        .metric-unit { font-size: 14px; color: #888; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 12px; text-align: left; border-bottom: 1px solid #e0e0e0; }
        th { background: #f8f9fa; font-weight: 600; color: #555; }
        .footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #e0e0e0; text-align: center; color: #888; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Load Run Report</h1>

        <h2>Run Configuration</h2>
        <table>
            <tr><th>Run ID</th><td>{{.RunID}}</td></tr>
            <tr><th>Scenario</th><td>{{.Result.ScenarioName}}</td></tr>
            <tr><th>Pattern</th><td>{{.Result.PatternDesc}}</td></tr>
            <tr><th>Started At</th><td>{{.Result.StartedAt.Format "2006-01-02 15:04:05 MST"}}</td></tr>
            <tr><th>Ended At</th><td>{{.Result.EndedAt.Format "2006-01-02 15:04:05 MST"}}</td></tr>
            <tr><th>Duration</th><td>{{printf "%.2f" .Result.Duration.Seconds}} seconds</td></tr>
            {{if .Result.FailureReason}}
            <tr><th>Failure</th><td>{{.Result.FailureReason}}</td></tr>
            {{end}}
        </table>

        <h2>Summary</h2>
        <div class="summary-grid">
            <div class="metric-card">
                <div class="metric-label">Total Requests</div>
                <div class="metric-value">{{.Result.Final.TotalRequests}}</div>
            </div>
            <div class="metric-card danger">
                <div class="metric-label">Total Errors</div>
                <div class="metric-value">{{.Result.Final.TotalErrors}}</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">Requests/Second</div>
                <div class="metric-value">{{printf "%.2f" .Result.Final.RequestsPerSecond}}</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">Error Rate</div>
                <div class="metric-value">{{printf "%.2f" (mul .Result.Final.ErrorRate 100.0)}}<span class="metric-unit">%</span></div>
            </div>
        </div>

        <h2>Latency Percentiles</h2>
        <table>
            <thead><tr><th>Percentile</th><th>Milliseconds</th></tr></thead>
            <tbody>
                <tr><td>P50 (Median)</td><td>{{.Result.Final.Latencies.P50}}</td></tr>
                <tr><td>P95</td><td>{{.Result.Final.Latencies.P95}}</td></tr>
                <tr><td>P99</td><td>{{.Result.Final.Latencies.P99}}</td></tr>
                <tr><td>Max</td><td>{{.Result.Final.Latencies.Max}}</td></tr>
            </tbody>
        </table>

        {{if .Result.Final.Endpoints}}
        <h2>Per-Endpoint Breakdown</h2>
        <table>
            <thead><tr><th>Endpoint</th><th>Requests</th><th>RPS</th><th>Errors</th><th>P95 (ms)</th></tr></thead>
            <tbody>
                {{range $label, $ep := .Result.Final.Endpoints}}
                <tr>
                    <td>{{$label}}</td>
                    <td>{{$ep.Requests}}</td>
                    <td>{{printf "%.2f" $ep.RPS}}</td>
                    <td>{{$ep.Errors}}</td>
                    <td>{{$ep.Latencies.P95}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}

        <div class="footer">
            <p>Generated by loadforge on {{.ExportedAt.Format "2006-01-02 15:04:05 MST"}}</p>
        </div>
    </div>
</body>
</html>`

	t, err := template.New("report").Funcs(template.FuncMap{
		"mul": func(a, b float64) float64 { return a * b },
	}).Parse(tmpl)
	if err != nil {
		return err
	}

	return t.Execute(writer, data)
}
