package fixtures

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yaroslav/gcompute/internal/fakecompute"
	compfixtures "github.com/yaroslav/gcompute/internal/fixtures"
	"github.com/yaroslav/gcompute/models"
)

// DefaultMachineType is seeded by every fake compute API.
const DefaultMachineType = "n1-standard-1"

func zonePath(zone, collection string) string {
	return fakecompute.CollectionPath(compfixtures.TestProject, "zones/"+zone, collection)
}

// RandomName returns a resource name that is unique within a test run.
func RandomName(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// Disk seeds a READY persistent disk of sizeGb in zone.
func Disk(t *testing.T, srv *fakecompute.Server, zone, name, sizeGb string) models.Resource {
	t.Helper()

	disk := models.Resource{"name": name, "sizeGb": sizeGb}
	srv.Seed(zonePath(zone, "disks"), disk)
	return get(t, srv, zonePath(zone, "disks"), name)
}

// Instance seeds a RUNNING instance in zone with the named disks of that
// zone attached read-write.
func Instance(t *testing.T, srv *fakecompute.Server, zone, name string, disks ...string) models.Resource {
	t.Helper()

	attached := make([]interface{}, 0, len(disks))
	for i, d := range disks {
		attached = append(attached, map[string]interface{}{
			"type":       "PERSISTENT",
			"mode":       "READ_WRITE",
			"deviceName": d,
			"index":      float64(i),
			"source":     zonePath(zone, "disks") + "/" + d,
		})
	}
	srv.Seed(zonePath(zone, "instances"), models.Resource{
		"name":        name,
		"machineType": fakecompute.CollectionPath(compfixtures.TestProject, "", "machineTypes") + "/" + DefaultMachineType,
		"disks":       attached,
		"networkInterfaces": []interface{}{map[string]interface{}{
			"network": fakecompute.CollectionPath(compfixtures.TestProject, "global", "networks") + "/default",
		}},
	})
	return get(t, srv, zonePath(zone, "instances"), name)
}

// Snapshot seeds a READY snapshot of a disk of sizeGb.
func Snapshot(t *testing.T, srv *fakecompute.Server, name, sizeGb string) models.Resource {
	t.Helper()

	path := fakecompute.CollectionPath(compfixtures.TestProject, "global", "snapshots")
	srv.Seed(path, models.Resource{"name": name, "diskSizeGb": sizeGb})
	return get(t, srv, path, name)
}

func get(t *testing.T, srv *fakecompute.Server, path, name string) models.Resource {
	t.Helper()
	r, err := srv.Store().Get(path, name)
	if err != nil {
		t.Fatalf("failed to read seeded resource %s/%s: %v", path, name, err)
	}
	return r
}
