package move

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaroslav/gcompute/internal/fakecompute"
	"github.com/yaroslav/gcompute/models"
)

func TestMoveInstances(t *testing.T) {
	h := newHarness(t, fakecompute.Config{SnapshotPolls: 2}, "v1beta14", "")
	h.opts.SourceZone = "zone-a"
	h.opts.DestinationZone = "zones/zone-b"
	h.opts.Force = true

	h.seedDisk("zone-a", "d1", "10")
	h.seedDisk("zone-a", "d2", "20")
	h.seedInstance("zone-a", "i-1", "n1-standard-1", ephemeralIP, "d1")
	h.seedInstance("zone-a", "i-2", "n1-standard-2", fakecompute.DefaultReservedIP, "d2")
	h.seedInstance("zone-a", "other", "n1-standard-1", "")

	err := MoveInstances(h.ctx, h.inv, h.opts, []string{"i-.*"})
	require.NoError(t, err, h.stdout.String())

	assert.ElementsMatch(t, []string{"other"}, h.names(zonePath("zone-a", "instances")))
	assert.ElementsMatch(t, []string{"i-1", "i-2"}, h.names(zonePath("zone-b", "instances")))
	assert.Empty(t, h.names(zonePath("zone-a", "disks")))
	assert.ElementsMatch(t, []string{"d1", "d2"}, h.names(zonePath("zone-b", "disks")))
	assert.Empty(t, h.names(globalPath("snapshots")), "snapshots must be deleted")
	assert.Empty(t, h.logFiles(t), "log must be removed after a successful move")

	moved := h.instance(t, "zone-b", "i-1")
	assert.Equal(t, "projects/my-project/zones/zone-b", moved.String("zone"))
	assert.Nil(t, natIP(t, moved), "ephemeral IPs are cleared")
	assert.Equal(t, fakecompute.DefaultReservedIP, natIP(t, h.instance(t, "zone-b", "i-2")))

	disks, _ := moved["disks"].([]interface{})
	require.Len(t, disks, 1)
	disk, _ := models.AsMap(disks[0])
	assert.Equal(t, "projects/my-project/zones/zone-b/disks/d1", disk["source"])

	d2, err := h.srv.Store().Get(zonePath("zone-b", "disks"), "d2")
	require.NoError(t, err)
	assert.Equal(t, 20.0, d2.Float("sizeGb"))

	out := h.stdout.String()
	steps := []string{
		"Checking destination zone...",
		"Retrieving instances in zone-a matching: i-.*...",
		"Checking disk preconditions...",
		"Checking project and destination zone quotas...",
		"The following instances will be moved to zone-b:\n  i-1\n  i-2\n",
		"The following disks will be moved to zone-b:\n  d1\n  d2\n",
		"If the move fails, you can re-attempt it using:\n  gcompute resumemove ",
		"Deleting instances...",
		"Snapshotting disks...",
		"Deleting disks...",
		"Recreating disks from snapshots...",
		"Recreating instances in zone-b...",
		"Deleting snapshots...",
		"The move completed successfully.",
	}
	last := -1
	for _, step := range steps {
		i := strings.Index(out, step)
		require.GreaterOrEqual(t, i, 0, "missing %q in:\n%s", step, out)
		assert.Greater(t, i, last, "%q printed out of order", step)
		last = i
	}
	assert.NotContains(t, out, "already in")
	assert.Contains(t, h.messages("info"), "Waiting for snapshots to be READY. Sleeping for 3s")
}

func TestMoveInstancesKeepSnapshots(t *testing.T) {
	h := newHarness(t, fakecompute.Config{}, "v1beta14", "y\n")
	h.opts.SourceZone = "zone-a"
	h.opts.DestinationZone = "zone-b"
	h.opts.KeepSnapshots = true

	h.seedDisk("zone-a", "d1", "10")
	h.seedInstance("zone-a", "i-1", "n1-standard-1", "", "d1")

	require.NoError(t, MoveInstances(h.ctx, h.inv, h.opts, []string{"i-1"}))

	snapshots := h.srv.Store().List(globalPath("snapshots"))
	require.Len(t, snapshots, 1)
	assert.True(t, strings.HasPrefix(snapshots[0].Name(), SnapshotPrefix))
	assert.Equal(t, "Snapshot for moving disk d1 from zone-a to zone-b.", snapshots[0].String("description"))
	assert.Contains(t, h.stdout.String(), "Proceed? [y/N]")
	assert.NotContains(t, h.stdout.String(), "Deleting snapshots...")
}

func TestMoveInstancesValidation(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		dest    string
		regexes []string
		wantErr string
	}{
		{name: "no source", dest: "zone-b", regexes: []string{"i"}, wantErr: "You must specify a source zone through the --source_zone flag."},
		{name: "no destination", src: "zone-a", regexes: []string{"i"}, wantErr: "You must specify a destination zone through the --destination_zone flag."},
		{name: "same zones", src: "zone-a", dest: "zone-a", regexes: []string{"i"}, wantErr: "The destination and source zones cannot be equal."},
		{name: "no regexes", src: "zone-a", dest: "zone-b", wantErr: "You must specify at least one regex for instances to move."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, fakecompute.Config{}, "v1beta14", "")
			h.opts.SourceZone = tt.src
			h.opts.DestinationZone = tt.dest

			err := MoveInstances(h.ctx, h.inv, h.opts, tt.regexes)
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Empty(t, h.srv.Calls())
		})
	}
}

func TestMoveInstancesRequiresVersion(t *testing.T) {
	h := newHarness(t, fakecompute.Config{}, "v1beta13", "")
	h.opts.SourceZone = "zone-a"
	h.opts.DestinationZone = "zone-b"

	err := MoveInstances(h.ctx, h.inv, h.opts, []string{"i"})
	require.Error(t, err)
	assert.Equal(t, "This command requires using API version v1beta14 or higher.", err.Error())
}

func TestMoveInstancesPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		seed    func(h *harness)
		wantErr string
	}{
		{
			name:    "nothing matches",
			seed:    func(h *harness) { h.seedInstance("zone-a", "other", "n1-standard-1", "") },
			wantErr: "No matching instances were found.",
		},
		{
			name: "name collision",
			seed: func(h *harness) {
				h.seedInstance("zone-a", "i-1", "n1-standard-1", "")
				h.seedInstance("zone-a", "i-2", "n1-standard-1", "")
				h.seedInstance("zone-b", "i-2", "n1-standard-1", "")
			},
			wantErr: "Encountered name collisions. Instances with the following names exist in both the source and destination zones: \n  i-2",
		},
		{
			name: "disk shared with an instance left behind",
			seed: func(h *harness) {
				h.seedDisk("zone-a", "d1", "10")
				h.seedDisk("zone-a", "d2", "10")
				h.seedInstance("zone-a", "i-1", "n1-standard-1", "", "d1", "d2")
				h.seedInstance("zone-a", "other", "n1-standard-1", "", "d2", "d1")
			},
			wantErr: "Some of the instances you'd like to move have disks that are in use by other instances: (Offending instance: disks attached)\n  other: d2, d1",
		},
		{
			name: "not enough CPUs in the destination",
			seed: func(h *harness) {
				h.srv.Seed(fakecompute.CollectionPath("my-project", "", "zones"),
					models.Resource{"name": "zone-b", "quotas": fakecompute.ZoneQuotas(16, 1, 16, 1024)})
				h.seedInstance("zone-a", "i-1", "n1-standard-2", "")
			},
			wantErr: "You do not have enough quota for CPUS in zone-b or your project.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, fakecompute.Config{}, "v1beta14", "")
			h.opts.SourceZone = "zone-a"
			h.opts.DestinationZone = "zone-b"
			h.opts.Force = true
			tt.seed(h)

			err := MoveInstances(h.ctx, h.inv, h.opts, []string{"i-.*"})
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Empty(t, h.logFiles(t))
			assert.NotContains(t, h.stdout.String(), "Deleting instances...")
		})
	}
}

func TestMoveInstancesAborted(t *testing.T) {
	h := newHarness(t, fakecompute.Config{}, "v1beta14", "n\n")
	h.opts.SourceZone = "zone-a"
	h.opts.DestinationZone = "zone-b"
	h.seedInstance("zone-a", "i-1", "n1-standard-1", "")

	err := MoveInstances(h.ctx, h.inv, h.opts, []string{"i-1"})
	assert.Equal(t, ErrAborted, err)
	assert.Equal(t, "Move aborted.", err.Error())
	assert.ElementsMatch(t, []string{"i-1"}, h.names(zonePath("zone-a", "instances")))
	assert.Empty(t, h.logFiles(t))
}

func TestMoveInstancesOperationError(t *testing.T) {
	h := newHarness(t, fakecompute.Config{}, "v1beta14", "")
	h.opts.SourceZone = "zone-a"
	h.opts.DestinationZone = "zone-b"
	h.opts.Force = true
	h.seedInstance("zone-a", "i-1", "n1-standard-1", "")
	h.srv.FailOperation("i-1", "RESOURCE_IN_USE", "The instance is busy")

	err := MoveInstances(h.ctx, h.inv, h.opts, []string{"i-1"})
	require.Error(t, err)
	assert.Equal(t, "Encountered errors:\n  The instance is busy", err.Error())

	logs := h.logFiles(t)
	require.Len(t, logs, 1, "the log stays behind for resumemove")
	log, err := ReadLog(logs[0])
	require.NoError(t, err)
	assert.Equal(t, "zone-a", log.SrcZone)
	assert.Equal(t, "zone-b", log.DestZone)
	assert.Equal(t, "test", log.Version)
	require.Len(t, log.Instances, 1)
	assert.Equal(t, "i-1", log.Instances[0].Name())
	assert.Empty(t, log.SnapshotMappings)
}

func TestMoveInstancesSnapshotTimeout(t *testing.T) {
	h := newHarness(t, fakecompute.Config{SnapshotPolls: 1000}, "v1beta14", "")
	h.opts.SourceZone = "zone-a"
	h.opts.DestinationZone = "zone-b"
	h.opts.Force = true
	h.inv.Config.MaxWaitTime = 9
	h.seedDisk("zone-a", "d1", "10")
	h.seedInstance("zone-a", "i-1", "n1-standard-1", "", "d1")

	err := MoveInstances(h.ctx, h.inv, h.opts, []string{"i-1"})
	require.Error(t, err)
	assert.Equal(t, "Timeout reached while waiting for snapshots to be ready.", err.Error())

	assert.Contains(t, h.messages("info"), "Waiting for snapshots to be READY. Sleeping for 3s")
	assert.Empty(t, h.names(zonePath("zone-a", "instances")))
	assert.Equal(t, []string{"d1"}, h.names(zonePath("zone-a", "disks")), "disks are kept until their snapshots are READY")
	assert.Len(t, h.names(globalPath("snapshots")), 1)
	assert.NotContains(t, h.stdout.String(), "Deleting disks...")

	logs := h.logFiles(t)
	require.Len(t, logs, 1)
	log, err := ReadLog(logs[0])
	require.NoError(t, err)
	assert.Len(t, log.SnapshotMappings, 1)
}

func TestMoveInstancesRequestError(t *testing.T) {
	h := newHarness(t, fakecompute.Config{}, "v1beta14", "")
	h.opts.SourceZone = "zone-a"
	h.opts.DestinationZone = "zone-b"
	h.opts.Force = true
	h.seedDisk("zone-a", "d1", "10")
	h.seedInstance("zone-a", "i-1", "n1-standard-1", "", "d1")
	// A disk of the same name in the destination makes re-creation fail.
	h.seedDisk("zone-b", "d1", "10")

	err := MoveInstances(h.ctx, h.inv, h.opts, []string{"i-1"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Aborting due to errors while re-creating disks:\n  "), err.Error())
	assert.Len(t, h.logFiles(t), 1)
}

func TestLogPath(t *testing.T) {
	h := newHarness(t, fakecompute.Config{}, "v1beta14", "")

	path, err := LogPath(h.ctx, "/tmp/moves")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/tmp/moves/.gcompute.move.1970"), path)
	assert.Len(t, strings.TrimPrefix(path, "/tmp/moves/.gcompute.move."), len(logTimeFormat))

	home, err := os.UserHomeDir()
	if err == nil {
		path, err = LogPath(h.ctx, "")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(path, home), path)
	}
}
