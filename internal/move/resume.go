package move

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// ResumeMove finishes the move recorded in the log at logPath. It inspects
// the project to find out how far the move got and performs only the
// remaining steps.
func ResumeMove(ctx context.Context, inv *command.Invocation, opts *Options, logPath string) error {
	m, err := newMover(ctx, inv, opts)
	if err != nil {
		return err
	}
	if err := m.resumeMove(ctx, logPath); err != nil {
		return err
	}
	m.println("The move completed successfully.")
	return nil
}

func (m *mover) resumeMove(ctx context.Context, logPath string) error {
	if _, err := os.Stat(logPath); err != nil {
		return command.Errorf("File not found: %s", logPath)
	}
	m.println("Parsing log file...")
	log, err := ReadLog(logPath)
	if err != nil {
		return err
	}
	srcZone, destZone := log.SrcZone, log.DestZone
	m.printf("Source zone is %s.", srcZone)
	m.printf("Destination zone is %s.", destZone)

	inDest, err := m.listInstances(ctx, destZone, "")
	if err != nil {
		return err
	}
	inSource, err := m.listInstances(ctx, srcZone, "")
	if err != nil {
		return err
	}

	toIgnore := intersect(log.Instances, inDest)
	toMove := subtract(log.Instances, inDest)
	if len(toMove) == 0 {
		return command.Errorf("All instances are already in %s.", destZone)
	}

	disksInDest, err := m.listNames(ctx, destZone, compute.CollectionDisks)
	if err != nil {
		return err
	}
	disksInSource, err := m.listNames(ctx, srcZone, compute.CollectionDisks)
	if err != nil {
		return err
	}

	var disksToMove []string
	for disk := range log.SnapshotMappings {
		if disksInSource[disk] {
			disksToMove = append(disksToMove, disk)
		}
	}
	sort.Strings(disksToMove)

	toDelete := intersect(toMove, inSource)

	unmoved := make(map[string]string)
	if len(disksToMove) > 0 {
		snapshots, err := m.listNames(ctx, names.GlobalZone, compute.CollectionSnapshots)
		if err != nil {
			return err
		}
		for _, disk := range disksToMove {
			if snapshot := log.SnapshotMappings[disk]; !snapshots[snapshot] {
				unmoved[disk] = snapshot
			}
		}
	}

	if err := m.checkQuotas(ctx, toMove, disksToMove, len(unmoved), srcZone, destZone); err != nil {
		return err
	}
	if err := m.confirm(toMove, toIgnore, disksToMove, destZone); err != nil {
		return err
	}

	if err := m.deleteInstances(ctx, toDelete, srcZone); err != nil {
		return err
	}
	if err := m.createSnapshots(ctx, unmoved, srcZone, destZone); err != nil {
		return err
	}
	if err := m.deleteDisks(ctx, disksToMove, srcZone); err != nil {
		return err
	}

	snapshots, err := m.listNames(ctx, names.GlobalZone, compute.CollectionSnapshots)
	if err != nil {
		return err
	}
	toCreate := make(map[string]string)
	for disk, snapshot := range log.SnapshotMappings {
		if snapshots[snapshot] && !disksInDest[disk] {
			toCreate[disk] = snapshot
		}
	}
	if err := m.createDisksFromSnapshots(ctx, toCreate, destZone); err != nil {
		return err
	}
	if err := m.createInstances(ctx, toMove, srcZone, destZone); err != nil {
		return err
	}
	if err := m.deleteSnapshots(ctx, mappingValues(toCreate)); err != nil {
		return err
	}

	if !m.opts.KeepLogFile {
		if err := os.Remove(logPath); err != nil {
			return fmt.Errorf("failed to remove move log: %w", err)
		}
	}
	return nil
}

// intersect returns the resources of b whose names appear in a.
func intersect(a, b []models.Resource) []models.Resource {
	wanted := make(map[string]bool, len(a))
	for _, r := range a {
		wanted[r.Name()] = true
	}
	var result []models.Resource
	for _, r := range b {
		if wanted[r.Name()] {
			result = append(result, r)
		}
	}
	return result
}

// subtract returns the resources of a whose names do not appear in b.
func subtract(a, b []models.Resource) []models.Resource {
	unwanted := make(map[string]bool, len(b))
	for _, r := range b {
		unwanted[r.Name()] = true
	}
	var result []models.Resource
	for _, r := range a {
		if !unwanted[r.Name()] {
			result = append(result, r)
		}
	}
	return result
}

// ResumeMoveHandler adapts ResumeMove to a command handler taking the log
// path as its only argument.
func ResumeMoveHandler(opts *Options) command.Handler {
	return func(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
		if len(args) != 1 {
			return nil, command.Errorf("Expected exactly one argument: the path to the move log.")
		}
		return nil, ResumeMove(ctx, inv, opts, args[0])
	}
}
