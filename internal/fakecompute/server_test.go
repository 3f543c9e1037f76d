package fakecompute

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/models"
)

const testProject = "my-project"

func newTestServer(t *testing.T, config Config) (*Server, *compute.Client) {
	t.Helper()
	return newVersionedTestServer(t, config, "v1beta14")
}

func newVersionedTestServer(t *testing.T, config Config, version string) (*Server, *compute.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if config.AccessToken == "" {
		config.AccessToken = "secret"
	}
	srv := New(config)
	srv.SeedDefaults(testProject)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := compute.NewClient(compute.ClientConfig{
		APIHost:        ts.URL + "/",
		ServiceVersion: version,
		Project:        testProject,
		AccessToken:    "secret",
		RetryAttempts:  1,
		RetryWaitMin:   time.Millisecond,
		RetryWaitMax:   time.Millisecond,
	})
	require.NoError(t, err)
	return srv, client
}

func seedInstance(srv *Server, zone, name, machineType string, disks ...string) {
	var attached []interface{}
	for _, d := range disks {
		attached = append(attached, map[string]interface{}{
			"type":   "PERSISTENT",
			"source": CollectionPath(testProject, "zones/"+zone, "disks") + "/" + d,
		})
	}
	srv.Seed(CollectionPath(testProject, "zones/"+zone, "instances"), models.Resource{
		"name":        name,
		"machineType": CollectionPath(testProject, "", "machineTypes") + "/" + machineType,
		"disks":       attached,
	})
}

func seedDisk(srv *Server, zone, name, sizeGb string) {
	srv.Seed(CollectionPath(testProject, "zones/"+zone, "disks"), models.Resource{
		"name":   name,
		"sizeGb": sizeGb,
	})
}

func quotaUsage(t *testing.T, r models.Resource) map[string]float64 {
	t.Helper()
	var typed models.Project
	require.NoError(t, r.Decode(&typed))
	usage := make(map[string]float64)
	for _, q := range typed.Quotas {
		usage[q.Metric] = q.Usage
	}
	return usage
}

func TestProjectQuotaUsage(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	seedDisk(srv, DefaultZoneA, "disk-1", "10")
	seedDisk(srv, DefaultZoneB, "disk-2", "25")
	seedInstance(srv, DefaultZoneA, "i-1", "n1-standard-2", "disk-1")
	seedInstance(srv, DefaultZoneB, "i-2", "n1-standard-1")

	project, err := client.GetProject(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{
		models.QuotaInstances:    2,
		models.QuotaCPUs:         3,
		models.QuotaDisks:        2,
		models.QuotaDisksTotalGB: 35,
		models.QuotaSnapshots:    0,
	}, quotaUsage(t, project))

	zone, err := client.GetZone(context.Background(), DefaultZoneA)
	require.NoError(t, err)
	usage := quotaUsage(t, zone)
	assert.Equal(t, 1.0, usage[models.QuotaInstances])
	assert.Equal(t, 2.0, usage[models.QuotaCPUs])
	assert.Equal(t, 10.0, usage[models.QuotaDisksTotalGB])
}

func TestInsertOperationLifecycle(t *testing.T) {
	srv, client := newTestServer(t, Config{OperationPolls: 2})
	ctx := context.Background()

	op, err := client.Insert(ctx, client.CollectionPath(DefaultZoneA, "disks"), models.Resource{
		"name":   "disk-1",
		"sizeGb": "20",
	})
	require.NoError(t, err)
	require.True(t, op.IsOperation())
	assert.Equal(t, "PENDING", op.Status())
	assert.Equal(t, "insert", op.String("operationType"))
	assert.Equal(t, client.Namer.BaseURL()+"/projects/my-project/zones/zone-a/disks/disk-1", op.String("targetLink"))

	op, err = client.GetOperation(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", op.Status())

	op, err = client.GetOperation(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, models.OperationStatusDone, op.Status())
	assert.False(t, op.HasOperationErrors())

	disk, err := client.Get(ctx, op.String("targetLink"))
	require.NoError(t, err)
	assert.Equal(t, "20", disk.String("sizeGb"))
	assert.Equal(t, "READY", disk.Status())

	assert.Contains(t, srv.Calls(), "POST projects/my-project/zones/zone-a/disks")
}

func TestListFilterAndPaging(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	for _, name := range []string{"i-1", "i-2", "i-3", "other-1", "other-2"} {
		seedInstance(srv, DefaultZoneA, name, "n1-standard-1")
	}
	ctx := context.Background()
	path := client.CollectionPath(DefaultZoneA, "instances")

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"no filter", "", []string{"i-1", "i-2", "i-3", "other-1", "other-2"}},
		{"eq", "name eq i-[12]", []string{"i-1", "i-2"}},
		{"eq is anchored", "name eq i", []string{}},
		{"alternatives", "name eq i-3|other-.*", []string{"i-3", "other-1", "other-2"}},
		{"ne", "name ne i-.*", []string{"other-1", "other-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.AllNames(ctx, path, compute.ListOptions{Filter: tt.filter, MaxResults: 0})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	page, err := client.ListPage(ctx, path, compute.ListOptions{MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items(), 2)
	assert.Equal(t, "2", page.String("nextPageToken"))
	assert.Equal(t, "compute#instanceList", page.Kind())

	page, err = client.ListPage(ctx, path, compute.ListOptions{MaxResults: 2, PageToken: "4"})
	require.NoError(t, err)
	assert.Len(t, page.Items(), 1)
	assert.Empty(t, page.String("nextPageToken"))

	_, err = client.ListPage(ctx, path, compute.ListOptions{Filter: "name eq ("})
	require.Error(t, err)
	assert.True(t, errors.Is(err, compute.ErrBadRequest))
}

func TestDeleteDiskInUse(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	seedDisk(srv, DefaultZoneA, "disk-1", "10")
	seedInstance(srv, DefaultZoneA, "i-1", "n1-standard-1", "disk-1")

	_, err := client.Delete(context.Background(), client.ResourcePath(DefaultZoneA, "disks", "disk-1"))
	require.Error(t, err)

	var httpErr *compute.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, httpErr.Error(), "is already being used by")
}

func TestSnapshotsBecomeReady(t *testing.T) {
	srv, client := newTestServer(t, Config{SnapshotPolls: 2})
	seedDisk(srv, DefaultZoneA, "disk-1", "42")
	ctx := context.Background()

	_, err := client.Insert(ctx, client.CollectionPath("global", "snapshots"), models.Resource{
		"name":       "snap-1",
		"sourceDisk": client.Namer.NormalizePerZoneResourceName(testProject, DefaultZoneA, "disks", "disk-1"),
	})
	require.NoError(t, err)

	// Fetching a single snapshot does not move it towards READY.
	for i := 0; i < 3; i++ {
		snapshot, err := client.Get(ctx, client.ResourcePath("global", "snapshots", "snap-1"))
		require.NoError(t, err)
		assert.Equal(t, "CREATING", snapshot.Status())
	}

	// A disk cannot be created from a snapshot that is not READY.
	_, err = client.Insert(ctx, client.CollectionPath(DefaultZoneB, "disks"), models.Resource{
		"name":           "disk-1",
		"sourceSnapshot": client.Namer.NormalizeGlobalResourceName(testProject, "snapshots", "snap-1"),
	})
	require.Error(t, err)

	list, err := client.All(ctx, client.CollectionPath("global", "snapshots"), compute.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list.Items(), 1)
	assert.Equal(t, "CREATING", list.Items()[0].Status())

	list, err = client.All(ctx, client.CollectionPath("global", "snapshots"), compute.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "READY", list.Items()[0].Status())
	assert.Equal(t, "42", list.Items()[0].String("diskSizeGb"))

	_, err = client.Insert(ctx, client.CollectionPath(DefaultZoneB, "disks"), models.Resource{
		"name":           "disk-1",
		"sourceSnapshot": client.Namer.NormalizeGlobalResourceName(testProject, "snapshots", "snap-1"),
	})
	require.NoError(t, err)

	disk, err := client.Get(ctx, client.ResourcePath(DefaultZoneB, "disks", "disk-1"))
	require.NoError(t, err)
	assert.Equal(t, "42", disk.String("sizeGb"))
}

func TestFailOperation(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	srv.FailOperation("disk-1", "QUOTA_EXCEEDED", "Quota 'DISKS' exceeded.")
	ctx := context.Background()

	op, err := client.Insert(ctx, client.CollectionPath(DefaultZoneA, "disks"), models.Resource{"name": "disk-1"})
	require.NoError(t, err)
	assert.Equal(t, models.OperationStatusDone, op.Status())
	assert.Equal(t, []models.OperationError{{Code: "QUOTA_EXCEEDED", Message: "Quota 'DISKS' exceeded."}}, op.OperationErrors())

	_, err = client.Get(ctx, client.ResourcePath(DefaultZoneA, "disks", "disk-1"))
	assert.True(t, compute.IsNotFound(err))
}

func TestInstanceInsertValidation(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	seedDisk(srv, DefaultZoneA, "disk-a", "10")
	ctx := context.Background()
	path := client.CollectionPath(DefaultZoneB, "instances")

	tests := []struct {
		name string
		body models.Resource
		want string
	}{
		{
			name: "missing disk",
			body: models.Resource{"name": "i-1", "disks": []interface{}{
				map[string]interface{}{"type": "PERSISTENT", "source": client.Namer.NormalizePerZoneResourceName(testProject, DefaultZoneB, "disks", "nope")},
			}},
			want: "was not found",
		},
		{
			name: "disk in another zone",
			body: models.Resource{"name": "i-1", "disks": []interface{}{
				map[string]interface{}{"type": "PERSISTENT", "source": client.Namer.NormalizePerZoneResourceName(testProject, DefaultZoneA, "disks", "disk-a")},
			}},
			want: "is not in the zone of the instance",
		},
		{
			name: "ephemeral ip",
			body: models.Resource{"name": "i-1", "networkInterfaces": []interface{}{
				map[string]interface{}{"accessConfigs": []interface{}{map[string]interface{}{"natIP": "203.0.113.7"}}},
			}},
			want: "is not reserved",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Insert(ctx, path, tt.body)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := client.Insert(ctx, path, models.Resource{"name": "i-1", "networkInterfaces": []interface{}{
		map[string]interface{}{"accessConfigs": []interface{}{map[string]interface{}{"natIP": DefaultReservedIP}}},
	}})
	require.NoError(t, err)
}

func TestDeleteOperation(t *testing.T) {
	_, client := newTestServer(t, Config{})
	ctx := context.Background()

	op, err := client.Insert(ctx, client.CollectionPath("global", "images"), models.Resource{"name": "img"})
	require.NoError(t, err)

	result, err := client.Delete(ctx, client.OperationPath("", op.Name()))
	require.NoError(t, err)
	assert.Nil(t, result)

	_, err = client.GetOperation(ctx, op)
	assert.True(t, compute.IsNotFound(err))
}

func TestUnscopedVersion(t *testing.T) {
	srv, client := newVersionedTestServer(t, Config{}, "v1beta13")
	seedInstance(srv, DefaultZoneA, "i-1", "n1-standard-1")
	seedInstance(srv, DefaultZoneB, "i-2", "n1-standard-1")
	ctx := context.Background()

	names, err := client.AllNames(ctx, client.CollectionPath(DefaultZoneA, "instances"), compute.ListOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"i-1", "i-2"}, names)

	op, err := client.Delete(ctx, client.ResourcePath(DefaultZoneB, "instances", "i-2"))
	require.NoError(t, err)
	assert.Contains(t, op.SelfLink(), "/compute/v1beta13/projects/my-project/zones/zone-b/operations/")

	op, err = client.GetOperation(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, models.OperationStatusDone, op.Status())
}

func TestAuthentication(t *testing.T) {
	srv := New(Config{AccessToken: "secret"})
	srv.SeedDefaults(testProject)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client, err := compute.NewClient(compute.ClientConfig{
		APIHost:        ts.URL,
		ServiceVersion: "v1beta14",
		Project:        testProject,
		AccessToken:    "wrong",
	})
	require.NoError(t, err)

	_, err = client.GetProject(context.Background())
	assert.True(t, errors.Is(err, compute.ErrUnauthorized))
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := New(Config{RequestsPerSecond: 0.001, Burst: 1})
	srv.SeedDefaults(testProject)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/compute/v1beta14/projects/my-project", nil)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestUnknownVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/compute/v2/projects/my-project", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
