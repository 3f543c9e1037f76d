package move

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yaroslav/gcompute/internal/batch"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/config"
	"github.com/yaroslav/gcompute/internal/fakecompute"
	"github.com/yaroslav/gcompute/internal/fixtures"
	"github.com/yaroslav/gcompute/internal/format"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/operations"
	"github.com/yaroslav/gcompute/internal/prompt"
	"github.com/yaroslav/gcompute/models"
)

const ephemeralIP = "203.0.113.5"

type harness struct {
	srv    *fakecompute.Server
	inv    *command.Invocation
	ctx    context.Context
	opts   *Options
	stdout *bytes.Buffer
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T, serverConfig fakecompute.Config, version, input string) *harness {
	t.Helper()

	srv, client := fixtures.NewFakeCompute(t, serverConfig, version)

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	stdout := &bytes.Buffer{}

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

	inv := &command.Invocation{
		Config: &config.Global{
			Format:               format.FormatTable,
			SynchronousMode:      true,
			SleepBetweenPolls:    3,
			MaxWaitTime:          60,
			ConcurrentOperations: 2,
		},
		Client:   client,
		Namer:    client.Namer,
		Printer:  format.NewPrinter(stdout, format.FormatTable, format.NewPresenter(client.Namer, format.DisplayElided), logger),
		Prompter: prompt.New(strings.NewReader(input), stdout, logger),
		Executor: executor,
		Waiter:   waiter,
		Logger:   logger,
		Stdout:   stdout,
		Stderr:   &bytes.Buffer{},
	}

	ctx, _, stop := fixtures.NewAdvancingClock(context.Background())
	t.Cleanup(stop)
	ctx = logging.WithLogger(ctx, logger)

	return &harness{
		srv:    srv,
		inv:    inv,
		ctx:    ctx,
		opts:   &Options{LogDir: t.TempDir(), Version: "test"},
		stdout: stdout,
		logs:   logs,
	}
}

func zonePath(zone, collection string) string {
	return fakecompute.CollectionPath(fixtures.TestProject, "zones/"+zone, collection)
}

func globalPath(collection string) string {
	return fakecompute.CollectionPath(fixtures.TestProject, "global", collection)
}

func (h *harness) seedDisk(zone, name, sizeGb string) {
	h.srv.Seed(zonePath(zone, "disks"), models.Resource{"name": name, "sizeGb": sizeGb})
}

// seedInstance stores an instance with the given persistent disks and, when
// natIP is set, a one-to-one NAT access config.
func (h *harness) seedInstance(zone, name, machineType, natIP string, disks ...string) {
	var attached []interface{}
	for _, d := range disks {
		attached = append(attached, map[string]interface{}{
			"type":       "PERSISTENT",
			"mode":       "READ_WRITE",
			"deviceName": d,
			"source":     zonePath(zone, "disks") + "/" + d,
		})
	}
	accessConfig := map[string]interface{}{"name": "External NAT", "type": "ONE_TO_ONE_NAT"}
	if natIP != "" {
		accessConfig["natIP"] = natIP
	}
	h.srv.Seed(zonePath(zone, "instances"), models.Resource{
		"name":        name,
		"machineType": fakecompute.CollectionPath(fixtures.TestProject, "", "machineTypes") + "/" + machineType,
		"disks":       attached,
		"networkInterfaces": []interface{}{
			map[string]interface{}{
				"network":       globalPath("networks") + "/default",
				"accessConfigs": []interface{}{accessConfig},
			},
		},
	})
}

func (h *harness) names(path string) []string {
	var out []string
	for _, r := range h.srv.Store().List(path) {
		out = append(out, r.Name())
	}
	return out
}

func (h *harness) instance(t *testing.T, zone, name string) models.Resource {
	t.Helper()
	r, err := h.srv.Store().Get(zonePath(zone, "instances"), name)
	require.NoError(t, err)
	return r
}

// logFiles returns the move logs left in the log directory.
func (h *harness) logFiles(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(h.opts.LogDir, LogPrefix+"*"))
	require.NoError(t, err)
	return matches
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

func natIP(t *testing.T, instance models.Resource) interface{} {
	t.Helper()
	ip, ok := instance.Lookup("networkInterfaces")
	require.True(t, ok)
	iface, _ := models.AsMap(ip.([]interface{})[0])
	cfg, _ := models.AsMap(iface["accessConfigs"].([]interface{})[0])
	return cfg["natIP"]
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
