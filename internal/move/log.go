package move

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/tilinna/clock"

	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LogPrefix is the file name prefix of move logs.
const LogPrefix = ".gcompute.move."

const logTimeFormat = "20060102150405"

// Keys of a move log.
const (
	keyDestZone         = "dest_zone"
	keySrcZone          = "src_zone"
	keyInstances        = "instances"
	keySnapshotMappings = "snapshot_mappings"
)

// Log records an in-progress move so that it can be resumed.
type Log struct {
	Version          string            `json:"version"`
	DestZone         string            `json:"dest_zone"`
	SrcZone          string            `json:"src_zone"`
	Instances        []models.Resource `json:"instances"`
	SnapshotMappings map[string]string `json:"snapshot_mappings"`
}

// LogPath returns the path of a new move log in dir, named after the
// current UTC time.
func LogPath(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to find home directory: %w", err)
		}
		dir = home
	}
	now := clock.FromContext(ctx).Now().UTC()
	return filepath.Join(dir, LogPrefix+now.Format(logTimeFormat)), nil
}

// WriteLog writes log to path, readable only by the user.
func WriteLog(path string, log *Log) error {
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode move log: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write move log: %w", err)
	}
	return nil
}

// ReadLog parses the move log at path. Every key except the version must be
// present and non-null.
func ReadLog(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read move log: %w", err)
	}

	var raw models.Resource
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, command.Errorf("Could not parse log file %s: %v", path, err)
	}
	for _, key := range []string{keySrcZone, keyDestZone, keySnapshotMappings, keyInstances} {
		if raw[key] == nil {
			return nil, command.Errorf("The log file did not contain a '%s' key.", key)
		}
	}

	var log Log
	if err := raw.Decode(&log); err != nil {
		return nil, command.Errorf("Could not parse log file %s: %v", path, err)
	}
	return &log, nil
}
