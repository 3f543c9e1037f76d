package fixtures

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/fakecompute"
)

// Test credentials of the fake compute API.
const (
	TestProject = "my-project"
	TestToken   = "secret"
)

// NewFakeCompute starts a fake compute API seeded with the default zones,
// machine types, images and kernels of TestProject. It returns the server
// and a client for it that speaks version.
func NewFakeCompute(t testing.TB, config fakecompute.Config, version string) (*fakecompute.Server, *compute.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.AccessToken = TestToken
	srv := fakecompute.New(config)
	srv.SeedDefaults(TestProject)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := compute.NewClient(compute.ClientConfig{
		APIHost:        ts.URL + "/",
		ServiceVersion: version,
		Project:        TestProject,
		AccessToken:    TestToken,
		RetryAttempts:  1,
		RetryWaitMin:   time.Millisecond,
		RetryWaitMax:   time.Millisecond,
	})
	require.NoError(t, err)
	return srv, client
}
