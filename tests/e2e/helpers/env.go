package helpers

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/yaroslav/gcompute/cmd/gcompute/cmd"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/fakecompute"
	"github.com/yaroslav/gcompute/internal/fixtures"
)

// Env is a fake compute API together with the means to drive it through
// raw HTTP and through the gcompute command line.
type Env struct {
	Server  *fakecompute.Server
	API     *APIClient
	APIHost string
	Version string
	t       *testing.T
}

// NewEnv starts a seeded fake compute API speaking version. HOME points at
// a temporary directory so that flag caches and move logs stay inside the
// test.
func NewEnv(t *testing.T, config fakecompute.Config, version string) *Env {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	if config.Logger == nil {
		config.Logger = TestLogger(t)
	}
	srv, client := fixtures.NewFakeCompute(t, config, version)

	return &Env{
		Server:  srv,
		API:     NewAPIClient(t, client.Namer.APIHost, fixtures.TestToken),
		APIHost: client.Namer.APIHost,
		Version: version,
		t:       t,
	}
}

// CLIResult is the outcome of one gcompute run.
type CLIResult struct {
	Code   int
	Stdout string
	Stderr string
	t      *testing.T
}

// Run runs gcompute with the connection flags of the environment followed
// by args, feeding it stdin.
func (e *Env) Run(stdin string, args ...string) *CLIResult {
	e.t.Helper()

	full := append([]string{
		"--api_host", e.APIHost,
		"--service_version", e.Version,
		"--access_token", fixtures.TestToken,
		"--project", fixtures.TestProject,
		"--sleep_between_polls", "1",
	}, args...)

	var stdout, stderr bytes.Buffer
	code := cmd.Run(context.Background(), full, strings.NewReader(stdin), &stdout, &stderr)
	return &CLIResult{Code: code, Stdout: stdout.String(), Stderr: stderr.String(), t: e.t}
}

// ZonePath returns the store path of a per-zone collection.
func (e *Env) ZonePath(zone, collection string) string {
	return fakecompute.CollectionPath(fixtures.TestProject, "zones/"+zone, collection)
}

// GlobalPath returns the store path of a global collection.
func (e *Env) GlobalPath(collection string) string {
	return fakecompute.CollectionPath(fixtures.TestProject, "global", collection)
}

// Names lists the names of the resources stored at path.
func (e *Env) Names(path string) []string {
	var out []string
	for _, r := range e.Server.Store().List(path) {
		out = append(out, r.Name())
	}
	return out
}

// AssertSuccess asserts that the run exited with status 0.
func (r *CLIResult) AssertSuccess() *CLIResult {
	r.t.Helper()
	assert.Equal(r.t, command.ExitSuccess, r.Code,
		"unexpected exit code\nStdout: %s\nStderr: %s", r.Stdout, r.Stderr)
	return r
}

// RequireSuccess requires that the run exited with status 0.
func (r *CLIResult) RequireSuccess() *CLIResult {
	r.t.Helper()
	require.Equal(r.t, command.ExitSuccess, r.Code,
		"unexpected exit code\nStdout: %s\nStderr: %s", r.Stdout, r.Stderr)
	return r
}

// AssertFailure asserts that the run failed and printed message to stderr.
func (r *CLIResult) AssertFailure(message string) *CLIResult {
	r.t.Helper()
	assert.Equal(r.t, command.ExitFailure, r.Code, "run should fail\nStdout: %s", r.Stdout)
	assert.Contains(r.t, r.Stderr, message)
	return r
}

// TestLogger creates a zap logger that writes through t.
func TestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}
