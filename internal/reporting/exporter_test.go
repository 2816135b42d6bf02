package reporting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/loadforge/loadforge/internal/metricmodel"
)

func sampleResult() *metricmodel.TestResult {
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &metricmodel.TestResult{
		ScenarioName: "checkout-flow",
		PatternDesc:  "ramp 10->100 over 1m",
		StartedAt:    started,
		EndedAt:      started.Add(time.Minute),
		Duration:     time.Minute,
		Final: metricmodel.MetricSnapshot{
			TotalRequests:     1000,
			TotalErrors:       10,
			ErrorRate:         0.01,
			RequestsPerSecond: 16.6,
			TargetConcurrency: 100,
			Latencies: metricmodel.Latencies{
				P50: 50000,
				P95: 95000,
				P99: 99000,
				Max: 120000,
			},
			Endpoints: map[string]metricmodel.EndpointSnapshot{
				"GET /checkout": {
					Label:     "GET /checkout",
					Requests:  1000,
					RPS:       16.6,
					Errors:    10,
					ErrorRate: 0.01,
					Latencies: metricmodel.Latencies{P95: 95000},
				},
			},
		},
	}
}

func TestExportRunJSON(t *testing.T) {
	e := NewExporter()
	var buf bytes.Buffer
	if err := e.ExportRun(&buf, FormatJSON, "run-1", sampleResult()); err != nil {
		t.Fatalf("ExportRun error: %v", err)
	}

	var decoded RunExport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if decoded.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", decoded.RunID)
	}
	if decoded.Result.ScenarioName != "checkout-flow" {
		t.Errorf("ScenarioName = %q, want checkout-flow", decoded.Result.ScenarioName)
	}
}

func TestExportRunCSV(t *testing.T) {
	e := NewExporter()
	var buf bytes.Buffer
	if err := e.ExportRun(&buf, FormatCSV, "run-2", sampleResult()); err != nil {
		t.Fatalf("ExportRun error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a header row and one data row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "run-2") {
		t.Errorf("data row missing run ID: %q", lines[1])
	}
	if !strings.Contains(lines[1], "checkout-flow") {
		t.Errorf("data row missing scenario name: %q", lines[1])
	}
}

func TestExportRunHTML(t *testing.T) {
	e := NewExporter()
	var buf bytes.Buffer
	if err := e.ExportRun(&buf, FormatHTML, "run-3", sampleResult()); err != nil {
		t.Fatalf("ExportRun error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "checkout-flow") {
		t.Error("HTML output should contain the scenario name")
	}
	if !strings.Contains(out, "GET /checkout") {
		t.Error("HTML output should contain the per-endpoint breakdown")
	}
}

func TestExportRunRejectsUnknownFormat(t *testing.T) {
	e := NewExporter()
	var buf bytes.Buffer
	if err := e.ExportRun(&buf, ExportFormat("xml"), "run-4", sampleResult()); err == nil {
		t.Error("expected an error for an unsupported export format")
	}
}
