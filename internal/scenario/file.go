package scenario

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/loadforge/loadforge/internal/httpclient"
	"github.com/loadforge/loadforge/internal/validation"
	"gopkg.in/yaml.v3"
)

// FileSpec is the on-disk scenario format: a set of templated HTTP
// tasks, not closures. The run service resolves it into a Descriptor
// once per run and hands that Descriptor to every in-process worker.
type FileSpec struct {
	Name           string            `yaml:"name"`
	BaseURL        string            `yaml:"base_url"`
	DefaultHeaders map[string]string `yaml:"default_headers"`
	ThinkMinMs     int               `yaml:"think_min_ms"`
	ThinkMaxMs     int               `yaml:"think_max_ms"`
	AllowLocalhost bool              `yaml:"allow_localhost"`
	Tasks          []FileTask        `yaml:"tasks"`
}

// FileTask is one task entry in a scenario file.
type FileTask struct {
	Name    string            `yaml:"name"`
	Weight  int               `yaml:"weight"`
	Method  string            `yaml:"method"`
	Path    string            `yaml:"path"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
}

// LoadFile reads and parses a scenario file from disk.
func LoadFile(path string) (*FileSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file %q: %w", path, err)
	}
	var spec FileSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parsing scenario file %q: %w", path, err)
	}
	if spec.Name == "" {
		return nil, fmt.Errorf("scenario file %q: name is required", path)
	}
	if len(spec.Tasks) == 0 {
		return nil, fmt.Errorf("scenario file %q: at least one task is required", path)
	}
	return &spec, nil
}

// Resolve builds an immutable Descriptor whose tasks issue HTTP calls
// against BaseURL+task.Path via the client passed to each virtual
// user at run time. Called once per run by the run service; the
// resulting Descriptor is shared by all of the run's workers.
func (spec *FileSpec) Resolve() (*Descriptor, error) {
	validator := validation.NewURLValidator().WithAllowLocalhost(spec.AllowLocalhost).WithAllowPrivateIPs(spec.AllowLocalhost)
	if _, err := validator.ValidateURL(spec.BaseURL); err != nil {
		return nil, fmt.Errorf("scenario base_url %q: %w", spec.BaseURL, err)
	}

	tasks := make([]Task, 0, len(spec.Tasks))
	for _, ft := range spec.Tasks {
		ft := ft
		method := strings.ToUpper(ft.Method)
		if method == "" {
			method = "GET"
		}
		url := spec.BaseURL + ft.Path
		headers := validation.SanitizeHeaders(mergeHeaders(spec.DefaultHeaders, ft.Headers))
		var body []byte
		if ft.Body != "" {
			body = []byte(ft.Body)
		}
		tasks = append(tasks, Task{
			Name:   ft.Name,
			Weight: ft.Weight,
			Run: func(ctx context.Context, client *httpclient.Client) error {
				return client.Do(ctx, method, url, ft.Name, headers, body)
			},
		})
	}

	return New(
		spec.Name,
		spec.BaseURL,
		spec.DefaultHeaders,
		tasks,
		nil, nil,
		time.Duration(spec.ThinkMinMs)*time.Millisecond,
		time.Duration(spec.ThinkMaxMs)*time.Millisecond,
	)
}

func mergeHeaders(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
