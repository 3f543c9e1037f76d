package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultTimeout = "timeout"
)

var (
	// OperationsWaited counts operations the client waited on, by final result.
	OperationsWaited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcompute_operations_waited_total",
			Help: "Total number of operations waited on",
		},
		[]string{"collection", "result"},
	)

	// OperationPolls counts operation status polls.
	OperationPolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gcompute_operation_polls_total",
			Help: "Total number of operation status polls",
		},
	)

	// BatchRequests counts requests executed by the batch executor.
	BatchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcompute_batch_requests_total",
			Help: "Total number of batch requests",
		},
		[]string{"collection", "result"},
	)

	// MoveSteps counts the steps of instance moves.
	MoveSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcompute_move_steps_total",
			Help: "Total number of instance move steps",
		},
		[]string{"step", "result"},
	)
)

// registerOperationMetrics registers operation, batch and move metrics.
func registerOperationMetrics() error {
	return register(
		OperationsWaited,
		OperationPolls,
		BatchRequests,
		MoveSteps,
	)
}
