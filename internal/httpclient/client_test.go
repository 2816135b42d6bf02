package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/loadforge/loadforge/internal/metricmodel"
)

func TestNameHashStable(t *testing.T) {
	a := NameHash("GET /health")
	b := NameHash("GET /health")
	if a != b {
		t.Errorf("NameHash not stable across calls: %d != %d", a, b)
	}
	if NameHash("GET /other") == a {
		t.Error("expected different names to hash differently")
	}
}

func TestDoSuccessEmitsMetric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var mu sync.Mutex
	var got metricmodel.RequestMetric
	client := New(1, time.Second, func(m metricmodel.RequestMetric) {
		mu.Lock()
		got = m
		mu.Unlock()
	}, nil)

	if err := client.Get(context.Background(), srv.URL, "GET /", nil); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", got.StatusCode)
	}
	if got.ErrorCategory != metricmodel.ErrorNone {
		t.Errorf("ErrorCategory = %v, want ErrorNone", got.ErrorCategory)
	}
	if got.ContentLength != 2 {
		t.Errorf("ContentLength = %d, want 2", got.ContentLength)
	}
	if got.WorkerID != 1 {
		t.Errorf("WorkerID = %d, want 1", got.WorkerID)
	}
	if !got.Valid() {
		t.Error("metric should satisfy Valid()")
	}
}

func TestDoServerErrorCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var got metricmodel.RequestMetric
	client := New(0, time.Second, func(m metricmodel.RequestMetric) { got = m }, nil)

	if err := client.Get(context.Background(), srv.URL, "GET /err", nil); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.ErrorCategory != metricmodel.ErrorStatus5 {
		t.Errorf("ErrorCategory = %v, want ErrorStatus5", got.ErrorCategory)
	}
}

func TestDoClientErrorCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var got metricmodel.RequestMetric
	client := New(0, time.Second, func(m metricmodel.RequestMetric) { got = m }, nil)

	if err := client.Get(context.Background(), srv.URL, "GET /missing", nil); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.ErrorCategory != metricmodel.ErrorStatus4 {
		t.Errorf("ErrorCategory = %v, want ErrorStatus4", got.ErrorCategory)
	}
}

func TestDoConnectFailure(t *testing.T) {
	var got metricmodel.RequestMetric
	client := New(0, 200*time.Millisecond, func(m metricmodel.RequestMetric) { got = m }, nil)

	err := client.Get(context.Background(), "http://127.0.0.1:1", "GET /unreachable", nil)
	if err != nil {
		t.Fatalf("Do should swallow transport errors, got: %v", err)
	}
	if got.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 on connect failure", got.StatusCode)
	}
	if !got.Valid() {
		t.Error("connect-failure metric should satisfy Valid()")
	}
}

func TestDoInvokesOnLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var labeledName, labeledMethod string
	var labeledHash uint64
	client := New(0, time.Second, func(metricmodel.RequestMetric) {}, func(hash uint64, name, method string) {
		labeledHash, labeledName, labeledMethod = hash, name, method
	})

	if err := client.Post(context.Background(), srv.URL, "POST /submit", nil, []byte("{}")); err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if labeledName != "POST /submit" || labeledMethod != http.MethodPost {
		t.Errorf("onLabel called with (%q, %q), want (%q, %q)", labeledName, labeledMethod, "POST /submit", http.MethodPost)
	}
	if labeledHash != NameHash("POST /submit") {
		t.Error("onLabel hash mismatch with NameHash")
	}
}

func TestDoSetsHeaders(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Custom")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(0, time.Second, func(metricmodel.RequestMetric) {}, nil)
	err := client.Do(context.Background(), http.MethodGet, srv.URL, "GET /", map[string]string{"X-Custom": "value"}, nil)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if gotHeader != "value" {
		t.Errorf("server saw header %q, want %q", gotHeader, "value")
	}
}
