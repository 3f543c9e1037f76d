// Package bench provides performance benchmarking utilities for gcompute.
//
// This package includes helpers for:
//   - Starting a fake compute API seeded with many resources
//   - Building clients and batch executors against it
//   - Measuring latency percentiles (p50, p95, p99)
//
// Benchmarks run against an in-process fake. Set BENCH_INSTANCES to change
// the number of seeded instances.
package bench

import (
	"math"
	"os"
	"sort"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/batch"
	"github.com/yaroslav/gcompute/internal/fakecompute"
	"github.com/yaroslav/gcompute/internal/fixtures"
	"github.com/yaroslav/gcompute/internal/operations"
	"github.com/yaroslav/gcompute/models"
)

const defaultInstances = 500

// InstanceCount returns the number of instances to seed.
func InstanceCount(tb testing.TB) int {
	tb.Helper()

	raw := os.Getenv("BENCH_INSTANCES")
	if raw == "" {
		return defaultInstances
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		tb.Fatalf("BENCH_INSTANCES must be a positive integer, got %q", raw)
	}
	return n
}

// SetupFakeCompute starts a fake compute API holding count instances, split
// across zone-a and zone-b, and returns a client for it.
func SetupFakeCompute(tb testing.TB, config fakecompute.Config, count int) (*fakecompute.Server, *compute.Client) {
	tb.Helper()

	srv, client := fixtures.NewFakeCompute(tb, config, "v1beta14")
	SeedInstances(srv, count)
	return srv, client
}

// SeedInstances stores count instances named instance-<n>, alternating
// between zone-a and zone-b.
func SeedInstances(srv *fakecompute.Server, count int) {
	machineType := fakecompute.CollectionPath(fixtures.TestProject, "", "machineTypes") + "/n1-standard-1"
	for i := 0; i < count; i++ {
		zone := "zone-a"
		if i%2 == 1 {
			zone = "zone-b"
		}
		srv.Seed(fakecompute.CollectionPath(fixtures.TestProject, "zones/"+zone, "instances"), models.Resource{
			"name":        "instance-" + strconv.Itoa(i),
			"machineType": machineType,
		})
	}
}

// NewExecutor builds a batch executor that waits for operations through
// client.
func NewExecutor(tb testing.TB, client *compute.Client, concurrency int) *batch.Executor {
	tb.Helper()

	logger := zap.NewNop()
	waiter := operations.NewWaiter(operations.WaiterConfig{
		Client:            client,
		Logger:            logger,
		SleepBetweenPolls: time.Millisecond,
		MaxWaitTime:       time.Minute,
	})
	executor, err := batch.NewExecutor(batch.ExecutorConfig{
		Concurrency: concurrency,
		Synchronous: true,
		Waiter:      waiter,
		Logger:      logger,
	})
	if err != nil {
		tb.Fatalf("Failed to create executor: %v", err)
	}
	return executor
}

// LatencyStats holds latency statistics.
type LatencyStats struct {
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Stddev time.Duration
}

// CalculateLatencyStats computes latency percentiles from a slice of durations.
func CalculateLatencyStats(latencies []time.Duration) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, lat := range sorted {
		sum += lat
	}
	mean := sum / time.Duration(len(sorted))

	var variance float64
	for _, lat := range sorted {
		diff := float64(lat - mean)
		variance += diff * diff
	}
	variance /= float64(len(sorted))

	return LatencyStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		P50:    sorted[len(sorted)/2],
		P95:    sorted[int(float64(len(sorted))*0.95)],
		P99:    sorted[int(float64(len(sorted))*0.99)],
		Stddev: time.Duration(math.Sqrt(variance)),
	}
}

// ReportLatency attaches the percentiles of latencies to b.
func ReportLatency(b *testing.B, latencies []time.Duration) {
	stats := CalculateLatencyStats(latencies)
	b.ReportMetric(float64(stats.P50.Microseconds()), "p50-us")
	b.ReportMetric(float64(stats.P95.Microseconds()), "p95-us")
	b.ReportMetric(float64(stats.P99.Microseconds()), "p99-us")
}
