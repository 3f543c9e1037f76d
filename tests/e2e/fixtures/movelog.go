package fixtures

import (
	"path/filepath"
	"testing"

	"github.com/yaroslav/gcompute/internal/move"
	"github.com/yaroslav/gcompute/models"
)

// MoveLog writes a move log of instances from srcZone to destZone into dir
// and returns its path.
func MoveLog(t *testing.T, dir, srcZone, destZone string, instances []models.Resource, mappings map[string]string) string {
	t.Helper()

	path := filepath.Join(dir, move.LogPrefix+"20130601120000")
	err := move.WriteLog(path, &move.Log{
		Version:          "e2e",
		SrcZone:          srcZone,
		DestZone:         destZone,
		Instances:        instances,
		SnapshotMappings: mappings,
	})
	if err != nil {
		t.Fatalf("failed to write move log: %v", err)
	}
	return path
}

// MoveLogs lists the move logs in dir.
func MoveLogs(t *testing.T, dir string) []string {
	t.Helper()

	paths, err := filepath.Glob(filepath.Join(dir, move.LogPrefix+"*"))
	if err != nil {
		t.Fatalf("failed to list move logs: %v", err)
	}
	return paths
}
