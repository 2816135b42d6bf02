package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScenarioFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing scenario file: %v", err)
	}
	return path
}

func TestLoadFileValid(t *testing.T) {
	path := writeScenarioFile(t, `
name: checkout-flow
base_url: http://localhost:8080
allow_localhost: true
think_min_ms: 10
think_max_ms: 50
tasks:
  - name: view-cart
    weight: 3
    method: GET
    path: /cart
  - name: checkout
    weight: 1
    method: POST
    path: /checkout
    body: '{"confirm":true}'
`)

	spec, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if spec.Name != "checkout-flow" {
		t.Errorf("Name = %q, want checkout-flow", spec.Name)
	}
	if len(spec.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(spec.Tasks))
	}
}

func TestLoadFileMissingNameRejected(t *testing.T) {
	path := writeScenarioFile(t, `
base_url: http://localhost:8080
tasks:
  - name: a
    weight: 1
    path: /
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestLoadFileNoTasksRejected(t *testing.T) {
	path := writeScenarioFile(t, `
name: empty
base_url: http://localhost:8080
tasks: []
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for empty task list")
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	if _, err := LoadFile("/nonexistent/path/scenario.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolveRejectsDisallowedBaseURL(t *testing.T) {
	spec := &FileSpec{
		Name:    "no-localhost",
		BaseURL: "http://localhost:8080",
		Tasks:   []FileTask{{Name: "a", Weight: 1, Path: "/"}},
	}
	if _, err := spec.Resolve(); err == nil {
		t.Fatal("expected error: localhost base_url not allowed without allow_localhost")
	}
}

func TestResolveBuildsDescriptor(t *testing.T) {
	spec := &FileSpec{
		Name:           "allowed",
		BaseURL:        "http://localhost:8080",
		AllowLocalhost: true,
		DefaultHeaders: map[string]string{"X-Default": "1"},
		ThinkMinMs:     10,
		ThinkMaxMs:     20,
		Tasks: []FileTask{
			{Name: "get-root", Weight: 2, Method: "get", Path: "/"},
			{Name: "post-data", Weight: 1, Method: "POST", Path: "/data", Headers: map[string]string{"X-Task": "1"}, Body: "payload"},
		},
	}

	d, err := spec.Resolve()
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if d.Name != "allowed" {
		t.Errorf("Name = %q, want allowed", d.Name)
	}
	if len(d.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(d.Tasks))
	}
	if d.ThinkMin != 10_000_000 || d.ThinkMax != 20_000_000 { // nanoseconds
		t.Errorf("think range = [%s, %s], want [10ms, 20ms]", d.ThinkMin, d.ThinkMax)
	}
}

func TestMergeHeaders(t *testing.T) {
	merged := mergeHeaders(map[string]string{"A": "1", "B": "2"}, map[string]string{"B": "override"})
	if merged["A"] != "1" || merged["B"] != "override" {
		t.Errorf("mergeHeaders() = %+v, want A=1 B=override", merged)
	}

	if merged := mergeHeaders(nil, nil); merged != nil {
		t.Errorf("mergeHeaders(nil, nil) = %+v, want nil", merged)
	}
}
