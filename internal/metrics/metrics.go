// Package metrics provides Prometheus metrics for gcompute.
//
// The command line tool is short-lived, so metrics are not scraped. They are
// written to a text file in the Prometheus exposition format when
// --metrics_file is set, which node_exporter's textfile collector can pick up.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the global Prometheus registry for all metrics.
	Registry = prometheus.NewRegistry()

	// initialized tracks whether metrics have been initialized.
	initialized = false
)

// Init initializes the metrics registry with all collectors.
// This should be called once during application startup.
func Init() error {
	if initialized {
		return nil
	}

	if err := Registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}

	if err := registerAPIMetrics(); err != nil {
		return err
	}

	if err := registerOperationMetrics(); err != nil {
		return err
	}

	initialized = true
	return nil
}

// WriteTextfile writes every registered metric to path.
// The file is written atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

func register(metrics ...prometheus.Collector) error {
	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}
