// HTTP server for the mechanism engine's Prometheus metrics endpoint.
//
// Serves /metrics for Prometheus scraping and /health as a liveness
// check for whatever process supervisor runs `mechlink serve`.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// MetricsServer serves Prometheus metrics over HTTP.
type MetricsServer struct {
	mm     *MechMetrics
	addr   string
	server *http.Server
	mux    *http.ServeMux
}

// NewMetricsServer creates a metrics server bound to addr.
func NewMetricsServer(mm *MechMetrics, addr string) *MetricsServer {
	ms := &MetricsServer{mm: mm, addr: addr, mux: http.NewServeMux()}
	ms.mux.HandleFunc("/metrics", ms.handleMetrics)
	ms.mux.HandleFunc("/health", ms.handleHealth)
	ms.server = &http.Server{
		Addr:         addr,
		Handler:      ms.mux,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return ms
}

// Start starts the metrics server. It blocks until the server stops.
func (ms *MetricsServer) Start() error {
	err := ms.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

// handleMetrics serves Prometheus metrics in text format.
func (ms *MetricsServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	output := ms.mm.Gather()

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(output)))
		return
	}

	_, _ = w.Write([]byte(output))
}

// handleHealth provides a liveness check endpoint.
func (ms *MetricsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}
