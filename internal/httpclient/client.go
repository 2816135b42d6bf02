// Package httpclient wraps net/http with the capability contract
// LoadForge's core depends on: connection pooling, per-request
// timeouts, and an on-complete callback invoked exactly once per
// attempt.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"hash/fnv"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/loadforge/loadforge/internal/metricmodel"
)

// methodCode enumerates the small set of HTTP methods the core
// assigns a wire-friendly byte to. Anything else maps to methodOther.
const (
	methodGet uint8 = iota
	methodPost
	methodPut
	methodPatch
	methodDelete
	methodHead
	methodOther
)

func methodCodeOf(method string) uint8 {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return methodGet
	case http.MethodPost:
		return methodPost
	case http.MethodPut:
		return methodPut
	case http.MethodPatch:
		return methodPatch
	case http.MethodDelete:
		return methodDelete
	case http.MethodHead:
		return methodHead
	default:
		return methodOther
	}
}

// NameHash computes the 64-bit FNV-1a hash of an endpoint label, the
// wire-efficient identifier a RequestMetric carries in place of the
// printable name.
func NameHash(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

// OnComplete is invoked exactly once per attempt, success or failure.
type OnComplete func(metricmodel.RequestMetric)

// OnLabel is invoked on every call with the endpoint's human-readable
// name and method, ahead of the metric itself; the worker dedups and
// forwards only the first sighting of each hash to the aggregator.
type OnLabel func(hash uint64, name, method string)

// Client wraps *http.Client with a pooled Transport (≥100 connections
// per worker per the capability contract) and a completion callback.
type Client struct {
	http       *http.Client
	workerID   uint8
	onComplete OnComplete
	onLabel    OnLabel
}

// New builds a Client with a connection pool sized for one worker's
// concurrent virtual users and the given per-request timeout.
func New(workerID uint8, timeout time.Duration, onComplete OnComplete, onLabel OnLabel) *Client {
	transport := &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		MaxConnsPerHost:     0, // unbounded; the rate limiter governs concurrency
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
	}
	return &Client{
		http:       &http.Client{Transport: transport, Timeout: timeout},
		workerID:   workerID,
		onComplete: onComplete,
		onLabel:    onLabel,
	}
}

// Get, Post, Put, Patch, Delete are thin wrappers around Do for the
// scenario author's convenience.
func (c *Client) Get(ctx context.Context, url, name string, headers map[string]string) error {
	return c.Do(ctx, http.MethodGet, url, name, headers, nil)
}

func (c *Client) Post(ctx context.Context, url, name string, headers map[string]string, body []byte) error {
	return c.Do(ctx, http.MethodPost, url, name, headers, body)
}

func (c *Client) Put(ctx context.Context, url, name string, headers map[string]string, body []byte) error {
	return c.Do(ctx, http.MethodPut, url, name, headers, body)
}

func (c *Client) Patch(ctx context.Context, url, name string, headers map[string]string, body []byte) error {
	return c.Do(ctx, http.MethodPatch, url, name, headers, body)
}

func (c *Client) Delete(ctx context.Context, url, name string, headers map[string]string) error {
	return c.Do(ctx, http.MethodDelete, url, name, headers, nil)
}

// Do issues one HTTP attempt, brackets it with a monotonic timer, and
// invokes OnComplete exactly once with the resulting RequestMetric.
// The returned error is non-nil only for caller-facing surfacing
// (e.g. request construction failure); transport failures are
// recorded in the metric, never propagated, per the core's
// never-retry-internally policy.
func (c *Client) Do(ctx context.Context, method, url, name string, headers map[string]string, body []byte) error {
	start := time.Now()
	nameHash := NameHash(name)
	methodCode := methodCodeOf(method)
	if c.onLabel != nil {
		c.onLabel(nameHash, name, method)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		c.emit(start, nameHash, methodCode, 0, 0, metricmodel.ErrorOther)
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.emit(start, nameHash, methodCode, 0, 0, categorize(err))
		return nil
	}
	defer resp.Body.Close()

	n, readErr := io.Copy(io.Discard, resp.Body)
	if readErr != nil {
		c.emit(start, nameHash, methodCode, 0, uint32(n), metricmodel.ErrorRead)
		return nil
	}

	category := metricmodel.ErrorNone
	switch {
	case resp.StatusCode >= 500:
		category = metricmodel.ErrorStatus5
	case resp.StatusCode >= 400:
		category = metricmodel.ErrorStatus4
	}
	c.emit(start, nameHash, methodCode, resp.StatusCode, uint32(n), category)
	return nil
}

func (c *Client) emit(start time.Time, nameHash uint64, methodCode uint8, statusCode int, contentLength uint32, category metricmodel.ErrorCategory) {
	if c.onComplete == nil {
		return
	}
	c.onComplete(metricmodel.RequestMetric{
		Timestamp:     start.Sub(processStart).Seconds(),
		NameHash:      nameHash,
		Method:        methodCode,
		StatusCode:    uint16(statusCode),
		LatencyMs:     float32(time.Since(start).Seconds() * 1000),
		ContentLength: contentLength,
		WorkerID:      c.workerID,
		ErrorCategory: category,
	})
}

// processStart anchors RequestMetric.Timestamp to a monotonic origin
// for the life of the process, matching the "monotonic seconds"
// contract without depending on wall-clock epoch.
var processStart = time.Now()

func categorize(err error) metricmodel.ErrorCategory {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return metricmodel.ErrorTimeout
	}
	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return metricmodel.ErrorTLS
	}
	if strings.Contains(err.Error(), "tls") || strings.Contains(err.Error(), "certificate") {
		return metricmodel.ErrorTLS
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return metricmodel.ErrorConnect
		}
		if opErr.Op == "write" {
			return metricmodel.ErrorWrite
		}
		if opErr.Op == "read" {
			return metricmodel.ErrorRead
		}
	}
	if strings.Contains(err.Error(), "connect") || strings.Contains(err.Error(), "refused") {
		return metricmodel.ErrorConnect
	}
	return metricmodel.ErrorOther
}
