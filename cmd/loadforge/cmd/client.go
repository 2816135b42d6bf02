package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIClient talks to a loadforge-server's control-plane API.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIClient creates a new API client.
func NewAPIClient(baseURL, apiKey string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

func (c *APIClient) do(method, path string, body interface{}, target interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("API error: status %d (failed to read body): %w", resp.StatusCode, readErr)
		}
		return fmt.Errorf("API error: status %d: %s", resp.StatusCode, string(respBody))
	}

	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// StartRunRequest mirrors the server's run-launch request body.
type StartRunRequest struct {
	ScenarioPath string `json:"scenario_path"`
	DurationSec  int    `json:"duration_sec"`
	Pattern      string `json:"pattern"`
	From         int    `json:"from,omitempty"`
	To           int    `json:"to,omitempty"`
	StepSize     int    `json:"step_size,omitempty"`
	StepHoldSec  int    `json:"step_hold_sec,omitempty"`
	SpikeBase    int    `json:"spike_base,omitempty"`
	SpikePeak    int    `json:"spike_peak,omitempty"`
	SpikeHoldSec int    `json:"spike_hold_sec,omitempty"`
	Peak         int    `json:"peak,omitempty"`
	Trough       int    `json:"trough,omitempty"`
	Workers      int    `json:"workers,omitempty"`
}

// RunSnapshot mirrors runservice.Snapshot.
type RunSnapshot struct {
	ID           string                 `json:"id"`
	ScenarioName string                 `json:"scenario_name"`
	PatternDesc  string                 `json:"pattern_description"`
	Status       string                 `json:"status"`
	StartedAt    string                 `json:"started_at"`
	EndedAt      string                 `json:"ended_at,omitempty"`
	Latest       map[string]interface{} `json:"latest"`
	FailureError string                 `json:"failure_error,omitempty"`
}

// StartRun launches a run and returns its snapshot.
func (c *APIClient) StartRun(req StartRunRequest) (*RunSnapshot, error) {
	var snap RunSnapshot
	if err := c.do(http.MethodPost, "/api/v1/runs/start", req, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// StopRun stops a running run.
func (c *APIClient) StopRun(runID string) error {
	return c.do(http.MethodPost, "/api/v1/runs/"+runID+"/stop", nil, nil)
}

// GetRun fetches a run's current snapshot.
func (c *APIClient) GetRun(runID string) (*RunSnapshot, error) {
	var snap RunSnapshot
	if err := c.do(http.MethodGet, "/api/v1/runs/"+runID, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListRuns fetches all known runs.
func (c *APIClient) ListRuns() ([]RunSnapshot, error) {
	var resp struct {
		Runs []RunSnapshot `json:"runs"`
	}
	if err := c.do(http.MethodGet, "/api/v1/runs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

// GetRunResult fetches a finished run's full result.
func (c *APIClient) GetRunResult(runID string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.do(http.MethodGet, "/api/v1/runs/"+runID+"/result", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}
