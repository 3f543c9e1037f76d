// Package move moves instances and their persistent disks from one zone to
// another.
//
// A move deletes the instances, snapshots their disks, re-creates the disks
// from the snapshots in the destination zone and finally re-creates the
// instances there. Before changing anything, a log of what is about to be
// moved is written to the home directory so that an interrupted move can be
// finished with ResumeMove.
package move

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/tilinna/clock"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/batch"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/metrics"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// Limits of a single move.
const (
	MaxInstancesToMove = 100
	MaxDisksToMove     = 100
)

// RequiredVersion is the oldest API version with snapshots.
const RequiredVersion = "v1beta14"

const snapshotReady = "READY"

// Move steps, used as metric labels.
const (
	stepDeleteInstances = "delete_instances"
	stepCreateSnapshots = "create_snapshots"
	stepWaitSnapshots   = "wait_snapshots"
	stepDeleteDisks     = "delete_disks"
	stepCreateDisks     = "create_disks"
	stepCreateInstances = "create_instances"
	stepDeleteSnapshots = "delete_snapshots"
)

// ErrAborted is returned when the user declines the move.
var ErrAborted = &command.Error{Message: "Move aborted."}

// Options are the flags of the move verbs.
type Options struct {
	// SourceZone is the zone instances are moved from (moveinstances only)
	SourceZone string

	// DestinationZone is the zone instances are moved to (moveinstances only)
	DestinationZone string

	// Force skips the confirmation prompt
	Force bool

	// KeepSnapshots leaves the snapshots of the moved disks in place
	KeepSnapshots bool

	// KeepLogFile leaves the log in place after a successful resume
	KeepLogFile bool

	// LogDir is where move logs are written (default: the home directory)
	LogDir string

	// Version is recorded in the move log
	Version string
}

// mover carries the state shared by the steps of one move.
type mover struct {
	inv      *command.Invocation
	opts     *Options
	executor *batch.Executor
	project  models.Project
	out      io.Writer
	logger   *zap.Logger
}

// newMover checks the API version and fetches the project.
func newMover(ctx context.Context, inv *command.Invocation, opts *Options) (*mover, error) {
	ok, err := inv.Namer.IsUsingAtLeastAPIVersion(RequiredVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, command.Errorf("This command requires using API version %s or higher.", RequiredVersion)
	}

	// Every step depends on the previous one having finished, so operations
	// are always waited on.
	executor, err := batch.NewExecutor(batch.ExecutorConfig{
		Concurrency: inv.Config.ConcurrentOperations,
		Synchronous: true,
		Waiter:      inv.Waiter,
		Logger:      inv.Logger,
	})
	if err != nil {
		return nil, err
	}

	resource, err := inv.Client.GetProject(ctx)
	if err != nil {
		return nil, err
	}
	var project models.Project
	if err := resource.Decode(&project); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}

	return &mover{
		inv:      inv,
		opts:     opts,
		executor: executor,
		project:  project,
		out:      inv.Stdout,
		logger:   logging.FromContext(ctx),
	}, nil
}

func (m *mover) println(args ...interface{}) {
	fmt.Fprintln(m.out, args...)
}

func (m *mover) printf(format string, args ...interface{}) {
	fmt.Fprintf(m.out, format+"\n", args...)
}

// confirm shows what is about to happen and asks the user to proceed.
func (m *mover) confirm(toMove, toIgnore []models.Resource, disks []string, destZone string) error {
	if len(toIgnore) > 0 {
		m.printf("These instances are already in %s and will not be moved:", destZone)
		m.println(names.ListStrings(resourceNames(toIgnore)))
	}

	m.printf("The following instances will be moved to %s:", destZone)
	m.println(names.ListStrings(resourceNames(toMove)))

	if len(disks) > 0 {
		m.printf("The following disks will be moved to %s:", destZone)
		m.println(names.ListStrings(disks))
	}

	if !m.opts.Force && !m.inv.Prompter.Proceed("") {
		return ErrAborted
	}
	return nil
}

// runStep executes requests and fails if any request failed or any
// operation finished with errors.
func (m *mover) runStep(ctx context.Context, step, action string, requests []batch.Request, collection string) error {
	results, errs := m.executor.Execute(ctx, requests, collection)
	if len(errs) > 0 {
		metrics.MoveSteps.WithLabelValues(step, metrics.ResultError).Inc()
		messages := make([]string, len(errs))
		for i, err := range errs {
			messages[i] = err.Error()
		}
		return command.Errorf("Aborting due to errors while %s:\n%s", action, names.ListStrings(messages))
	}

	var messages []string
	for _, result := range results {
		if !result.IsOperation() {
			continue
		}
		if errs := result.OperationErrors(); len(errs) > 0 && errs[0].Message != "" {
			messages = append(messages, errs[0].Message)
		}
	}
	if len(messages) > 0 {
		metrics.MoveSteps.WithLabelValues(step, metrics.ResultError).Inc()
		return command.Errorf("Encountered errors:\n%s", names.ListStrings(messages))
	}

	metrics.MoveSteps.WithLabelValues(step, metrics.ResultSuccess).Inc()
	return nil
}

func (m *mover) deleteInstances(ctx context.Context, instances []models.Resource, zone string) error {
	if len(instances) == 0 {
		return nil
	}

	m.println("Deleting instances...")
	requests := make([]batch.Request, 0, len(instances))
	for _, instance := range instances {
		path := m.inv.Client.ResourcePath(zone, compute.CollectionInstances, instance.Name())
		requests = append(requests, deleteRequest(m.inv.Client, path))
	}
	return m.runStep(ctx, stepDeleteInstances, "deleting instances", requests, compute.CollectionInstances)
}

// createSnapshots snapshots every disk of mappings and waits until the
// snapshots are READY.
func (m *mover) createSnapshots(ctx context.Context, mappings map[string]string, srcZone, destZone string) error {
	if len(mappings) == 0 {
		return nil
	}

	m.println("Snapshotting disks...")
	collection := m.inv.Client.CollectionPath(names.GlobalZone, compute.CollectionSnapshots)
	var requests []batch.Request
	for _, disk := range sortedKeys(mappings) {
		body := models.Resource{
			"name":        mappings[disk],
			"sourceDisk":  m.inv.Namer.NormalizePerZoneResourceName(m.inv.Project(), srcZone, compute.CollectionDisks, disk),
			"description": fmt.Sprintf("Snapshot for moving disk %s from %s to %s.", disk, srcZone, destZone),
		}
		requests = append(requests, insertRequest(m.inv.Client, collection, body))
	}
	if err := m.runStep(ctx, stepCreateSnapshots, "creating snapshots", requests, compute.CollectionSnapshots); err != nil {
		return err
	}

	snapshots := make([]string, 0, len(mappings))
	for _, snapshot := range mappings {
		snapshots = append(snapshots, snapshot)
	}
	return m.waitForSnapshots(ctx, snapshots)
}

// waitForSnapshots polls the snapshot list until none of snapshots is
// still being created.
func (m *mover) waitForSnapshots(ctx context.Context, snapshots []string) error {
	wanted := make(map[string]bool, len(snapshots))
	for _, s := range snapshots {
		wanted[s] = true
	}

	clck := clock.FromContext(ctx)
	start := clck.Now()
	sleep := m.inv.Config.SleepInterval()
	for {
		if clck.Now().Sub(start) > m.inv.Config.MaxWait() {
			metrics.MoveSteps.WithLabelValues(stepWaitSnapshots, metrics.ResultTimeout).Inc()
			return command.Errorf("Timeout reached while waiting for snapshots to be ready.")
		}

		list, err := m.inv.Client.All(ctx, m.inv.Client.CollectionPath(names.GlobalZone, compute.CollectionSnapshots), compute.ListOptions{})
		if err != nil {
			return err
		}
		pending := 0
		for _, s := range list.Items() {
			if wanted[s.Name()] && s.Status() != snapshotReady {
				pending++
			}
		}
		if pending == 0 {
			metrics.MoveSteps.WithLabelValues(stepWaitSnapshots, metrics.ResultSuccess).Inc()
			return nil
		}

		m.logger.Info(fmt.Sprintf("Waiting for snapshots to be READY. Sleeping for %s", formatSeconds(sleep)),
			zap.Int("pending", pending),
		)
		timer := clock.NewTimer(ctx, sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (m *mover) deleteSnapshots(ctx context.Context, snapshots []string) error {
	if len(snapshots) == 0 || m.opts.KeepSnapshots {
		return nil
	}

	m.println("Deleting snapshots...")
	sort.Strings(snapshots)
	requests := make([]batch.Request, 0, len(snapshots))
	for _, name := range snapshots {
		path := m.inv.Client.ResourcePath(names.GlobalZone, compute.CollectionSnapshots, name)
		requests = append(requests, deleteRequest(m.inv.Client, path))
	}
	return m.runStep(ctx, stepDeleteSnapshots, "deleting snapshots", requests, compute.CollectionSnapshots)
}

// createDisksFromSnapshots re-creates every disk of mappings in zone under
// its previous name.
func (m *mover) createDisksFromSnapshots(ctx context.Context, mappings map[string]string, zone string) error {
	if len(mappings) == 0 {
		return nil
	}

	m.println("Recreating disks from snapshots...")
	collection := m.inv.Client.CollectionPath(zone, compute.CollectionDisks)
	var requests []batch.Request
	for _, disk := range sortedKeys(mappings) {
		body := models.Resource{
			"name":           disk,
			"sourceSnapshot": m.inv.Namer.NormalizeGlobalResourceName(m.inv.Project(), compute.CollectionSnapshots, mappings[disk]),
		}
		requests = append(requests, insertRequest(m.inv.Client, collection, body))
	}
	return m.runStep(ctx, stepCreateDisks, "re-creating disks", requests, compute.CollectionDisks)
}

func (m *mover) deleteDisks(ctx context.Context, disks []string, zone string) error {
	if len(disks) == 0 {
		return nil
	}

	m.println("Deleting disks...")
	requests := make([]batch.Request, 0, len(disks))
	for _, name := range disks {
		path := m.inv.Client.ResourcePath(zone, compute.CollectionDisks, name)
		requests = append(requests, deleteRequest(m.inv.Client, path))
	}
	return m.runStep(ctx, stepDeleteDisks, "deleting disks", requests, compute.CollectionDisks)
}

// createInstances re-creates instances in destZone. The zone and disk
// sources are rewritten and external IPs that are not reserved by the
// project are cleared.
func (m *mover) createInstances(ctx context.Context, instances []models.Resource, srcZone, destZone string) error {
	if len(instances) == 0 {
		return nil
	}

	m.printf("Recreating instances in %s...", destZone)
	collection := m.inv.Client.CollectionPath(destZone, compute.CollectionInstances)
	requests := make([]batch.Request, 0, len(instances))
	for _, instance := range instances {
		body := retarget(instance, m.inv.Namer.NormalizeTopLevelResourceName(m.inv.Project(), compute.CollectionZones, destZone), srcZone, destZone)
		clearEphemeralIPs(body, &m.project)
		requests = append(requests, insertRequest(m.inv.Client, collection, body))
	}
	return m.runStep(ctx, stepCreateInstances, "creating instances", requests, compute.CollectionInstances)
}

// retarget returns a copy of instance placed in zoneLink, with its disks
// moved from srcZone to destZone.
func retarget(instance models.Resource, zoneLink, srcZone, destZone string) models.Resource {
	body := instance.Clone()
	body["zone"] = zoneLink

	disks, _ := body["disks"].([]interface{})
	for _, d := range disks {
		disk, ok := models.AsMap(d)
		if !ok {
			continue
		}
		if source, ok := disk["source"].(string); ok {
			disk["source"] = replaceZone(source, srcZone, destZone)
		}
	}
	return body
}

// clearEphemeralIPs clears every natIP of instance that is not one of the
// project's reserved addresses.
func clearEphemeralIPs(instance models.Resource, project *models.Project) {
	interfaces, _ := instance["networkInterfaces"].([]interface{})
	for _, ni := range interfaces {
		iface, ok := models.AsMap(ni)
		if !ok {
			continue
		}
		configs, _ := iface["accessConfigs"].([]interface{})
		for _, ac := range configs {
			cfg, ok := models.AsMap(ac)
			if !ok {
				continue
			}
			if ip, has := cfg["natIP"]; has {
				if s, _ := ip.(string); !project.HasExternalIP(s) {
					cfg["natIP"] = nil
				}
			}
		}
	}
}

// replaceZone moves a per-zone link from srcZone to destZone.
func replaceZone(link, srcZone, destZone string) string {
	return strings.Replace(link, "zones/"+srcZone+"/", "zones/"+destZone+"/", 1)
}

func insertRequest(client *compute.Client, collection string, body models.Resource) batch.Request {
	return func(ctx context.Context) (models.Resource, error) {
		return client.Insert(ctx, collection, body)
	}
}

func deleteRequest(client *compute.Client, path string) batch.Request {
	return func(ctx context.Context) (models.Resource, error) {
		return client.Delete(ctx, path)
	}
}

// persistentDiskNames returns the names of the persistent disks attached to
// instances, each once.
func persistentDiskNames(instances []models.Resource) []string {
	var result []string
	seen := make(map[string]bool)
	for _, instance := range instances {
		for _, disk := range attachedDisks(instance) {
			if !seen[disk] {
				seen[disk] = true
				result = append(result, disk)
			}
		}
	}
	return result
}

// attachedDisks returns the names of the persistent disks of instance.
func attachedDisks(instance models.Resource) []string {
	var result []string
	disks, _ := instance["disks"].([]interface{})
	for _, d := range disks {
		disk, ok := models.AsMap(d)
		if !ok || disk["type"] != "PERSISTENT" {
			continue
		}
		if source, ok := disk["source"].(string); ok {
			result = append(result, names.DenormalizeResourceName(source))
		}
	}
	return result
}

func resourceNames(resources []models.Resource) []string {
	result := make([]string, len(resources))
	for i, r := range resources {
		result[i] = r.Name()
	}
	return result
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%gs", d.Seconds())
}
