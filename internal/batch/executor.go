// Package batch runs independent API requests concurrently.
package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yaroslav/gcompute/internal/metrics"
	"github.com/yaroslav/gcompute/models"
)

// Concurrency bounds of the executor.
const (
	MinConcurrency     = 1
	MaxConcurrency     = 20
	DefaultConcurrency = 10
)

// Request performs one API call, usually an insert or delete.
type Request func(ctx context.Context) (models.Resource, error)

// Waiter waits for an operation to complete.
type Waiter interface {
	Wait(ctx context.Context, result models.Resource, collection string) ([]models.Resource, error)
}

// Executor runs requests in a bounded pool.
type Executor struct {
	// concurrency is the maximum number of requests in flight
	concurrency int

	// synchronous makes every request wait for its operation
	synchronous bool

	// waiter waits for operations when synchronous is set
	waiter Waiter

	// logger is the structured logger
	logger *zap.Logger
}

// ExecutorConfig holds configuration for creating an Executor.
type ExecutorConfig struct {
	// Concurrency is the pool size, clamped to 1..20 (default: 10)
	Concurrency int

	// Synchronous waits for each operation before reporting its result
	Synchronous bool

	// Waiter is required when Synchronous is set
	Waiter Waiter

	// Logger is the structured logger (optional)
	Logger *zap.Logger
}

// NewExecutor creates a new executor.
func NewExecutor(config ExecutorConfig) (*Executor, error) {
	concurrency := config.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency < MinConcurrency || concurrency > MaxConcurrency {
		return nil, fmt.Errorf("concurrent operations must be between %d and %d", MinConcurrency, MaxConcurrency)
	}
	if config.Synchronous && config.Waiter == nil {
		return nil, fmt.Errorf("synchronous execution requires a waiter")
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Executor{
		concurrency: concurrency,
		synchronous: config.Synchronous,
		waiter:      config.Waiter,
		logger:      logger,
	}, nil
}

// Execute runs every request and collects the outcomes. A failing request
// does not stop the others.
//
// Parameters:
//   - ctx: Context passed to every request
//   - requests: The calls to make
//   - collection: Plural collection name used in wait messages and metrics
//
// Returns:
//   - []models.Resource: Results in request order; a waited operation
//     contributes the operation followed by its target resource
//   - []error: Failures in request order
func (e *Executor) Execute(ctx context.Context, requests []Request, collection string) ([]models.Resource, []error) {
	type outcome struct {
		results []models.Resource
		err     error
	}
	outcomes := make([]outcome, len(requests))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, request := range requests {
		i, request := i, request
		g.Go(func() error {
			results, err := e.run(ctx, request, collection)
			outcomes[i] = outcome{results: results, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var (
		results []models.Resource
		errs    []error
	)
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, o.err)
			metrics.BatchRequests.WithLabelValues(collection, metrics.ResultError).Inc()
			continue
		}
		results = append(results, o.results...)
		metrics.BatchRequests.WithLabelValues(collection, metrics.ResultSuccess).Inc()
	}

	e.logger.Debug("Batch finished",
		zap.Int("requests", len(requests)),
		zap.Int("results", len(results)),
		zap.Int("errors", len(errs)),
	)
	return results, errs
}

func (e *Executor) run(ctx context.Context, request Request, collection string) ([]models.Resource, error) {
	result, err := request(ctx)
	if err != nil {
		return nil, err
	}
	if !e.synchronous {
		return []models.Resource{result}, nil
	}
	return e.waiter.Wait(ctx, result, collection)
}
