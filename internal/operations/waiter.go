// Package operations waits for asynchronous compute operations to finish.
package operations

import (
	"context"
	"strconv"
	"time"

	"github.com/tilinna/clock"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/metrics"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// OperationTypeDelete is the operationType of delete operations. Their
// target no longer exists once they finish.
const OperationTypeDelete = "delete"

// Client is the part of the compute client the Waiter needs.
type Client interface {
	// Get fetches a resource by URL.
	Get(ctx context.Context, path string) (models.Resource, error)

	// GetOperation re-fetches an operation from its zone or global collection.
	GetOperation(ctx context.Context, op models.Resource) (models.Resource, error)
}

// Waiter polls operations until they are DONE or MaxWaitTime passes.
type Waiter struct {
	// client fetches operations and their targets
	client Client

	// logger receives progress messages
	logger *zap.Logger

	// sleepBetweenPolls is the pause between two polls
	sleepBetweenPolls time.Duration

	// maxWaitTime bounds the total time spent waiting on one operation
	maxWaitTime time.Duration
}

// WaiterConfig holds configuration for creating a Waiter.
type WaiterConfig struct {
	// Client fetches operations
	Client Client

	// Logger is the structured logger
	Logger *zap.Logger

	// SleepBetweenPolls is the polling interval (default: 3 seconds)
	SleepBetweenPolls time.Duration

	// MaxWaitTime is the wait limit per operation (default: 240 seconds)
	MaxWaitTime time.Duration
}

// NewWaiter creates a new operation waiter.
func NewWaiter(config WaiterConfig) *Waiter {
	sleep := config.SleepBetweenPolls
	if sleep == 0 {
		sleep = 3 * time.Second
	}
	maxWait := config.MaxWaitTime
	if maxWait == 0 {
		maxWait = 240 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Waiter{
		client:            config.Client,
		logger:            logger,
		sleepBetweenPolls: sleep,
		maxWaitTime:       maxWait,
	}
}

// Wait waits for result to complete if it is an operation.
//
// The loop:
// 1. Returns non-operation results unchanged
// 2. Polls the operation every sleepBetweenPolls until it is DONE
// 3. Gives up with a warning once maxWaitTime has passed
// 4. Fetches the target of a successful non-delete operation
//
// Parameters:
//   - ctx: Context for cancellation; its clock drives the polling
//   - result: The value returned by an insert, delete or other mutation
//   - collection: The plural collection of the target, used in messages
//
// Returns:
//   - []models.Resource: The final operation, followed by the target
//     resource when it could be fetched
//   - error: A poll failure or context cancellation
func (w *Waiter) Wait(ctx context.Context, result models.Resource, collection string) ([]models.Resource, error) {
	if !result.IsOperation() {
		return []models.Resource{result}, nil
	}

	clck := clock.FromContext(ctx)
	start := clck.Now()
	operationType := result.String("operationType")
	target := names.DenormalizeResourceName(result.String("targetLink"))

	qualified := target
	if collection != "" {
		qualified = names.Singularize(collection) + " " + target
	}

	for result.Status() != models.OperationStatusDone {
		if clck.Now().Sub(start) >= w.maxWaitTime {
			w.logger.Warn("Timeout reached. " + operationType + " of " + target +
				" has not yet completed. The operation (" + result.Name() + ") is still " + result.Status() + ".")
			metrics.OperationsWaited.WithLabelValues(collection, metrics.ResultTimeout).Inc()
			return []models.Resource{result}, nil
		}

		w.logger.Info("Waiting for "+operationType+" of "+qualified+". Sleeping for "+seconds(w.sleepBetweenPolls)+".",
			zap.String(logging.FieldOperation, result.Name()),
		)
		if err := sleep(ctx, w.sleepBetweenPolls); err != nil {
			return nil, err
		}

		metrics.OperationPolls.Inc()
		polled, err := w.client.GetOperation(ctx, result)
		if err != nil {
			metrics.OperationsWaited.WithLabelValues(collection, metrics.ResultError).Inc()
			return nil, err
		}
		result = polled
	}

	if _, failed := result["error"]; failed {
		metrics.OperationsWaited.WithLabelValues(collection, metrics.ResultError).Inc()
		return []models.Resource{result}, nil
	}
	metrics.OperationsWaited.WithLabelValues(collection, metrics.ResultSuccess).Inc()

	if result.String("operationType") == OperationTypeDelete {
		return []models.Resource{result}, nil
	}

	resource, err := w.client.Get(ctx, result.String("targetLink"))
	if err != nil || resource == nil {
		w.logger.Debug("Could not fetch operation target",
			zap.String(logging.FieldResource, result.String("targetLink")),
			zap.Error(err),
		)
		return []models.Resource{result}, nil
	}
	return []models.Resource{result, resource}, nil
}

// sleep blocks for d on the context clock.
func sleep(ctx context.Context, d time.Duration) error {
	timer := clock.NewTimer(ctx, d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
