// Package testutil provides testing utilities for the report engine.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockResponse defines the behavior of the mock API for one target URL.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockPSI is a configurable mock measurement API server. All measurement
// requests hit one endpoint; responses are keyed by the "url" query
// parameter (the measured target).
type MockPSI struct {
	server    *httptest.Server
	mu        sync.RWMutex
	responses map[string]MockResponse

	// Tracking
	RequestCount int
	TargetCounts map[string]int
	LastQuery    url.Values
}

// NewMockPSI creates a new mock measurement API server.
func NewMockPSI() *MockPSI {
	mock := &MockPSI{
		responses:    make(map[string]MockResponse),
		TargetCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("url")

		mock.mu.Lock()
		mock.RequestCount++
		mock.TargetCounts[target]++
		mock.LastQuery = r.URL.Query()
		resp, exists := mock.responses[target]
		mock.mu.Unlock()

		if !exists {
			resp = MockResponse{StatusCode: http.StatusOK, Body: ResultDoc(DefaultDocOptions())}
		}

		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}))

	return mock
}

// URL returns the mock server URL, usable as the client's Endpoint.
func (m *MockPSI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockPSI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockPSI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.TargetCounts = make(map[string]int)
	m.LastQuery = nil
}

// SetResponse configures the response for one measured target URL.
func (m *MockPSI) SetResponse(target string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[target] = resp
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockPSI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetTargetCount returns the number of requests for one target.
func (m *MockPSI) GetTargetCount(target string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TargetCounts[target]
}
