// Unit tests for the metrics HTTP server.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestHandleMetrics tests the /metrics endpoint.
func TestHandleMetrics(t *testing.T) {
	mm := NewMechMetrics()
	mm.RecordTriangulation(2*time.Millisecond, 4, "")
	mm.RecordSolve(5*time.Millisecond, 1e-10, 6, "")

	server := NewMetricsServer(mm, ":0")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("unexpected content type: %s", ct)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "mechlink_triangulation_seconds") {
		t.Error("missing triangulation duration metric")
	}
	if !strings.Contains(bodyStr, "mechlink_solve_seconds") {
		t.Error("missing solve duration metric")
	}
}

// TestHandleMetricsHead tests a HEAD request to /metrics.
func TestHandleMetricsHead(t *testing.T) {
	mm := NewMechMetrics()
	server := NewMetricsServer(mm, ":0")

	req := httptest.NewRequest(http.MethodHead, "/metrics", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Error("HEAD response should have empty body")
	}
}

// TestHandleMetricsMethodNotAllowed tests an unsupported method.
func TestHandleMetricsMethodNotAllowed(t *testing.T) {
	mm := NewMechMetrics()
	server := NewMetricsServer(mm, ":0")

	req := httptest.NewRequest(http.MethodPost, "/metrics", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", resp.StatusCode)
	}
}

// TestHandleHealth tests the /health endpoint.
func TestHandleHealth(t *testing.T) {
	mm := NewMechMetrics()
	server := NewMetricsServer(mm, ":0")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "OK") {
		t.Error("health check should return OK")
	}
}

// TestShutdown tests graceful shutdown of a running server.
func TestShutdown(t *testing.T) {
	mm := NewMechMetrics()
	server := NewMetricsServer(mm, ":0")

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("server error: %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Error("Start did not return after Shutdown")
	}
}

// BenchmarkHandleMetrics benchmarks the metrics endpoint.
func BenchmarkHandleMetrics(b *testing.B) {
	mm := NewMechMetrics()
	mm.RecordTriangulation(2*time.Millisecond, 4, "")
	mm.RecordSolve(5*time.Millisecond, 1e-10, 6, "")

	server := NewMetricsServer(mm, ":0")
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		server.mux.ServeHTTP(w, req)
	}
}
