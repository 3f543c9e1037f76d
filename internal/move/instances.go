package move

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// SnapshotPrefix starts the name of every snapshot taken by a move.
const SnapshotPrefix = "snapshot-"

// MoveInstances moves the instances of opts.SourceZone whose names match
// one of regexes to opts.DestinationZone, together with their persistent
// disks.
//
// Parameters:
//   - ctx: Context for cancellation and the clock
//   - inv: The invocation supplying the client, prompter and output
//   - opts: The move flags
//   - regexes: Instance name regular expressions
//
// Returns:
//   - error: A *command.Error for user-facing failures, or the API error
func MoveInstances(ctx context.Context, inv *command.Invocation, opts *Options, regexes []string) error {
	if opts.SourceZone == "" {
		return command.Errorf("You must specify a source zone through the --source_zone flag.")
	}
	if opts.DestinationZone == "" {
		return command.Errorf("You must specify a destination zone through the --destination_zone flag.")
	}
	if opts.SourceZone == opts.DestinationZone {
		return command.Errorf("The destination and source zones cannot be equal.")
	}
	if len(regexes) == 0 {
		return command.Errorf("You must specify at least one regex for instances to move.")
	}

	m, err := newMover(ctx, inv, opts)
	if err != nil {
		return err
	}
	if err := m.moveInstances(ctx, regexes); err != nil {
		return err
	}
	m.println("The move completed successfully.")
	return nil
}

func (m *mover) moveInstances(ctx context.Context, regexes []string) error {
	srcZone := m.opts.SourceZone
	destZone := names.DenormalizeResourceName(m.opts.DestinationZone)

	m.println("Checking destination zone...")
	if _, err := m.inv.Client.GetZone(ctx, destZone); err != nil {
		return err
	}

	m.printf("Retrieving instances in %s matching: %s...", srcZone, strings.Join(regexes, " "))
	matching := names.RegexesToFilterExpression(regexes, names.FilterEqual)
	toMove, err := m.listInstances(ctx, srcZone, matching)
	if err != nil {
		return err
	}
	inDest, err := m.listInstances(ctx, destZone, matching)
	if err != nil {
		return err
	}
	if err := checkInstancePreconditions(toMove, inDest); err != nil {
		return err
	}

	toIgnore, err := m.listInstances(ctx, srcZone, names.RegexesToFilterExpression(regexes, names.FilterNotEqual))
	if err != nil {
		return err
	}

	m.println("Checking disk preconditions...")
	disks := persistentDiskNames(toMove)
	if err := checkDiskPreconditions(toIgnore, disks); err != nil {
		return err
	}

	if err := m.checkQuotas(ctx, toMove, disks, len(disks), srcZone, destZone); err != nil {
		return err
	}
	if err := m.confirm(toMove, nil, disks, destZone); err != nil {
		return err
	}

	logPath, err := LogPath(ctx, m.opts.LogDir)
	if err != nil {
		return err
	}
	mappings := snapshotNames(disks)
	if err := m.writeLog(logPath, toMove, mappings, srcZone, destZone); err != nil {
		return err
	}

	if err := m.deleteInstances(ctx, toMove, srcZone); err != nil {
		return err
	}
	if err := m.createSnapshots(ctx, mappings, srcZone, destZone); err != nil {
		return err
	}
	if err := m.deleteDisks(ctx, disks, srcZone); err != nil {
		return err
	}
	if err := m.createDisksFromSnapshots(ctx, mappings, destZone); err != nil {
		return err
	}
	if err := m.createInstances(ctx, toMove, srcZone, destZone); err != nil {
		return err
	}
	if err := m.deleteSnapshots(ctx, mappingValues(mappings)); err != nil {
		return err
	}

	if err := os.Remove(logPath); err != nil {
		return fmt.Errorf("failed to remove move log: %w", err)
	}
	return nil
}

// listInstances lists every instance of zone matching filter.
func (m *mover) listInstances(ctx context.Context, zone, filter string) ([]models.Resource, error) {
	list, err := m.inv.Client.All(ctx, m.inv.Client.CollectionPath(zone, compute.CollectionInstances), compute.ListOptions{Filter: filter})
	if err != nil {
		return nil, err
	}
	return list.Items(), nil
}

// listNames lists the names of every resource of a collection in zone.
func (m *mover) listNames(ctx context.Context, zone, collection string) (map[string]bool, error) {
	all, err := m.inv.Client.AllNames(ctx, m.inv.Client.CollectionPath(zone, collection), compute.ListOptions{})
	if err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(all))
	for _, name := range all {
		result[name] = true
	}
	return result, nil
}

func (m *mover) writeLog(path string, instances []models.Resource, mappings map[string]string, srcZone, destZone string) error {
	m.println("If the move fails, you can re-attempt it using:")
	m.printf("  gcompute resumemove %s", path)

	m.logger.Debug("Writing move log", zap.String("path", path))
	return WriteLog(path, &Log{
		Version:          m.opts.Version,
		DestZone:         destZone,
		SrcZone:          srcZone,
		Instances:        instances,
		SnapshotMappings: mappings,
	})
}

func checkInstancePreconditions(toMove, inDest []models.Resource) error {
	if len(toMove) == 0 {
		return command.Errorf("No matching instances were found.")
	}
	if len(toMove) > MaxInstancesToMove {
		return command.Errorf("At most %d instances can be moved at a time. Refine your query and try again.", MaxInstancesToMove)
	}

	dest := make(map[string]bool, len(inDest))
	for _, instance := range inDest {
		dest[instance.Name()] = true
	}
	var collisions []string
	for _, instance := range toMove {
		if dest[instance.Name()] {
			collisions = append(collisions, instance.Name())
		}
	}
	if len(collisions) > 0 {
		return command.Errorf("Encountered name collisions. Instances with the following names exist in both the source and destination zones: \n%s",
			names.ListStrings(collisions))
	}
	return nil
}

// checkDiskPreconditions fails when too many disks would move or when one
// of them is attached to an instance that stays behind.
func checkDiskPreconditions(toIgnore []models.Resource, disks []string) error {
	if len(disks) > MaxDisksToMove {
		return command.Errorf("At most %d disks can be moved at a time. Refine your query and try again.", MaxDisksToMove)
	}

	moving := make(map[string]bool, len(disks))
	for _, d := range disks {
		moving[d] = true
	}

	offending := make(map[string][]string)
	for _, instance := range toIgnore {
		for _, disk := range attachedDisks(instance) {
			if moving[disk] {
				offending[instance.Name()] = append(offending[instance.Name()], disk)
			}
		}
	}
	if len(offending) == 0 {
		return nil
	}

	instances := make([]string, 0, len(offending))
	for name := range offending {
		instances = append(instances, name)
	}
	sort.Strings(instances)
	lines := make([]string, len(instances))
	for i, name := range instances {
		lines[i] = fmt.Sprintf("%s: %s", name, strings.Join(offending[name], ", "))
	}
	return command.Errorf("Some of the instances you'd like to move have disks that are in use by other instances: (Offending instance: disks attached)\n%s",
		names.ListStrings(lines))
}

// snapshotNames assigns every disk a unique snapshot name.
func snapshotNames(disks []string) map[string]string {
	mappings := make(map[string]string, len(disks))
	for _, disk := range disks {
		mappings[disk] = SnapshotPrefix + uuid.NewString()
	}
	return mappings
}

func mappingValues(mappings map[string]string) []string {
	values := make([]string, 0, len(mappings))
	for _, v := range mappings {
		values = append(values, v)
	}
	return values
}

// MoveInstancesHandler adapts MoveInstances to a command handler. The
// positional arguments are the name regexes.
func MoveInstancesHandler(opts *Options) command.Handler {
	return func(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
		return nil, MoveInstances(ctx, inv, opts, args)
	}
}
