package infrastructure

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RunMetrics records the resources a report run used
type RunMetrics struct {
	heapAlloc    metric.Int64Gauge
	totalAlloc   metric.Int64Gauge
	memorySystem metric.Int64Gauge
	gcCount      metric.Int64Gauge
	runDuration  metric.Float64Gauge
}

// NewRunMetrics creates the run resource gauges on meter
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	heapAlloc, err := meter.Int64Gauge(
		"run_memory_heap_bytes",
		metric.WithDescription("Heap bytes in use at the end of the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"run_memory_allocated_bytes",
		metric.WithDescription("Cumulative bytes allocated during the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"run_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"run_gc_count",
		metric.WithDescription("Number of garbage collections during the run"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Gauge(
		"run_duration_seconds",
		metric.WithDescription("Wall clock duration of the run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		heapAlloc:    heapAlloc,
		totalAlloc:   totalAlloc,
		memorySystem: memorySystem,
		gcCount:      gcCount,
		runDuration:  runDuration,
	}, nil
}

// RunStats holds a snapshot of the process resources
type RunStats struct {
	HeapAlloc    int64
	TotalAlloc   int64
	MemorySystem int64
	GCCount      uint32
	Duration     time.Duration
}

// LogValue renders the stats as a log group
func (s RunStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("heap_mb", s.HeapAlloc/1024/1024),
		slog.Int64("allocated_mb", s.TotalAlloc/1024/1024),
		slog.Int64("system_mb", s.MemorySystem/1024/1024),
		slog.Int("gc_count", int(s.GCCount)),
		slog.Float64("duration_seconds", s.Duration.Seconds()),
	)
}

// Collect reads the runtime memory statistics and records them
func (m *RunMetrics) Collect(ctx context.Context, startTime time.Time) RunStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := RunStats{
		HeapAlloc:    int64(memStats.HeapAlloc),
		TotalAlloc:   int64(memStats.TotalAlloc),
		MemorySystem: int64(memStats.Sys),
		GCCount:      memStats.NumGC,
		Duration:     time.Since(startTime),
	}

	m.heapAlloc.Record(ctx, stats.HeapAlloc)
	m.totalAlloc.Record(ctx, stats.TotalAlloc)
	m.memorySystem.Record(ctx, stats.MemorySystem)
	m.gcCount.Record(ctx, int64(stats.GCCount))
	m.runDuration.Record(ctx, stats.Duration.Seconds())

	return stats
}
