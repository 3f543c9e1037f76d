package command

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yaroslav/gcompute/internal/batch"
	"github.com/yaroslav/gcompute/internal/config"
	"github.com/yaroslav/gcompute/internal/fakecompute"
	"github.com/yaroslav/gcompute/internal/fixtures"
	"github.com/yaroslav/gcompute/internal/format"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/operations"
	"github.com/yaroslav/gcompute/internal/prompt"
	"github.com/yaroslav/gcompute/models"
)

// harness is an Invocation wired to a fake compute API.
type harness struct {
	srv    *fakecompute.Server
	inv    *Invocation
	ctx    context.Context
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T, serverConfig fakecompute.Config, input string) *harness {
	t.Helper()

	srv, client := fixtures.NewFakeCompute(t, serverConfig, "v1beta14")

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	waiter := operations.NewWaiter(operations.WaiterConfig{
		Client:            client,
		Logger:            logger,
		SleepBetweenPolls: time.Second,
		MaxWaitTime:       30 * time.Second,
	})
	executor, err := batch.NewExecutor(batch.ExecutorConfig{
		Concurrency: 2,
		Synchronous: true,
		Waiter:      waiter,
		Logger:      logger,
	})
	require.NoError(t, err)

	inv := &Invocation{
		Config: &config.Global{
			Format:                  format.FormatTable,
			LongValuesDisplayFormat: format.DisplayElided,
			SynchronousMode:         true,
			SleepBetweenPolls:       1,
			MaxWaitTime:             30,
			ConcurrentOperations:    2,
		},
		Client:   client,
		Namer:    client.Namer,
		Printer:  format.NewPrinter(stdout, format.FormatTable, format.NewPresenter(client.Namer, format.DisplayElided), logger),
		Prompter: prompt.New(strings.NewReader(input), stdout, logger),
		Executor: executor,
		Waiter:   waiter,
		Logger:   logger,
		Stdout:   stdout,
		Stderr:   stderr,
	}

	ctx, _, stop := fixtures.NewAdvancingClock(context.Background())
	t.Cleanup(stop)
	ctx = logging.WithLogger(ctx, logger)

	return &harness{
		srv:    srv,
		inv:    inv,
		ctx:    ctx,
		stdout: stdout,
		stderr: stderr,
		logs:   logs,
	}
}

func (h *harness) seedDisk(zone, name string) {
	h.srv.Seed(fakecompute.CollectionPath(fixtures.TestProject, "zones/"+zone, "disks"), models.Resource{
		"name":   name,
		"sizeGb": "10",
	})
}

func (h *harness) messages(level string) []string {
	var out []string
	for _, entry := range h.logs.All() {
		if entry.Level.String() == level {
			out = append(out, entry.Message)
		}
	}
	return out
}
