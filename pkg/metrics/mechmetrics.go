// Mechanism-engine metrics definitions.
//
// Defines all metrics the linkage kinematics engine exposes: how long
// triangulation and numerical solves take, how a solve converged, and
// how many frames a driving-input sweep has produced.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package metrics

import (
	goruntime "runtime"
	"time"
)

// MechMetrics holds every metric the engine exposes.
type MechMetrics struct {
	// Triangulation
	TriangulationDuration *Histogram
	TriangulationJoints   *Gauge
	TriangulationFailures *Counter

	// Numerical solve
	SolveDuration        *Histogram
	SolveResidual        *Gauge
	SolveIterations      *Histogram
	SolveFailures        *Counter

	// Streaming sweeps
	SweepFramesEmitted *Counter
	StreamClients      *Gauge

	// System
	GoGoroutines  *Gauge
	GoMemoryHeap  *Gauge
	GoMemoryAlloc *Gauge
	GoGCCycles    *Counter
	HostUptime    *Counter

	startTime time.Time
	registry  *Registry
}

// NewMechMetrics creates and registers every mechanism-engine metric.
func NewMechMetrics() *MechMetrics {
	m := &MechMetrics{
		startTime: time.Now(),
		registry:  NewRegistry(),
	}

	m.TriangulationDuration = NewHistogram("mechlink_triangulation_seconds",
		"Time spent compiling a mechanism's construction stack", DefaultBuckets())
	m.TriangulationJoints = NewGauge("mechlink_triangulation_joints_resolved",
		"Joints resolved by the most recent triangulation sweep")
	m.TriangulationFailures = NewCounter("mechlink_triangulation_failures_total",
		"Triangulation failures by mechlerr code")

	m.SolveDuration = NewHistogram("mechlink_solve_seconds",
		"Time spent in the numerical constraint solver", DefaultBuckets())
	m.SolveResidual = NewGauge("mechlink_solve_residual",
		"Sum-of-squared-residuals of the most recent solve")
	m.SolveIterations = NewHistogram("mechlink_solve_iterations",
		"BFGS major iterations per solve", LinearBuckets(0, 5, 20))
	m.SolveFailures = NewCounter("mechlink_solve_failures_total",
		"Solve failures by mechlerr code")

	m.SweepFramesEmitted = NewCounter("mechlink_sweep_frames_emitted_total",
		"Solved joint frames emitted during an input sweep")
	m.StreamClients = NewGauge("mechlink_stream_clients",
		"Currently connected websocket stream clients")

	m.GoGoroutines = NewGauge("mechlink_go_goroutines", "Number of active goroutines")
	m.GoMemoryHeap = NewGauge("mechlink_go_memory_heap_bytes", "Go heap memory in use")
	m.GoMemoryAlloc = NewGauge("mechlink_go_memory_alloc_bytes", "Go total memory allocated")
	m.GoGCCycles = NewCounter("mechlink_go_gc_cycles_total", "Total Go garbage collection cycles")
	m.HostUptime = NewCounter("mechlink_host_uptime_seconds_total", "Total process uptime")

	m.registerAll()
	return m
}

func (m *MechMetrics) registerAll() {
	all := []Metric{
		m.TriangulationDuration, m.TriangulationJoints, m.TriangulationFailures,
		m.SolveDuration, m.SolveResidual, m.SolveIterations, m.SolveFailures,
		m.SweepFramesEmitted, m.StreamClients,
		m.GoGoroutines, m.GoMemoryHeap, m.GoMemoryAlloc, m.GoGCCycles, m.HostUptime,
	}
	for _, metric := range all {
		m.registry.MustRegister(metric)
	}
}

// UpdateSystemMetrics refreshes the Go-runtime gauges.
func (m *MechMetrics) UpdateSystemMetrics() {
	var stats goruntime.MemStats
	goruntime.ReadMemStats(&stats)

	m.GoGoroutines.Set(nil, float64(goruntime.NumGoroutine()))
	m.GoMemoryHeap.Set(nil, float64(stats.HeapAlloc))
	m.GoMemoryAlloc.Set(nil, float64(stats.Alloc))
	m.GoGCCycles.Add(nil, uint64(stats.NumGC)-m.GoGCCycles.Get(nil))
	m.HostUptime.Add(nil, uint64(time.Since(m.startTime).Seconds())-m.HostUptime.Get(nil))
}

// RecordTriangulation records one TConfig call's outcome.
func (m *MechMetrics) RecordTriangulation(duration time.Duration, resolved int, failCode string) {
	m.TriangulationDuration.Observe(nil, duration.Seconds())
	m.TriangulationJoints.Set(nil, float64(resolved))
	if failCode != "" {
		m.TriangulationFailures.Inc(Labels{"code": failCode})
	}
}

// RecordSolve records one Solve call's outcome.
func (m *MechMetrics) RecordSolve(duration time.Duration, residual float64, iterations int, failCode string) {
	m.SolveDuration.Observe(nil, duration.Seconds())
	m.SolveResidual.Set(nil, residual)
	m.SolveIterations.Observe(nil, float64(iterations))
	if failCode != "" {
		m.SolveFailures.Inc(Labels{"code": failCode})
	}
}

// RecordSweepFrame records one solved frame emitted to stream clients.
func (m *MechMetrics) RecordSweepFrame() {
	m.SweepFramesEmitted.Inc(nil)
}

// SetStreamClients reports the current websocket client count.
func (m *MechMetrics) SetStreamClients(n int) {
	m.StreamClients.Set(nil, float64(n))
}

// Gather returns all metrics in Prometheus text format.
func (m *MechMetrics) Gather() string {
	m.UpdateSystemMetrics()
	return m.registry.Gather()
}

// Registry returns the internal registry, for tests that want to
// inspect individual metrics directly.
func (m *MechMetrics) Registry() *Registry {
	return m.registry
}
