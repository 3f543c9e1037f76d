package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// snapshotFlags are the flags of addsnapshot.
type snapshotFlags struct {
	sourceDisk  string
	description string
}

func snapshotCmds(a *app) []*cobra.Command {
	get := a.newVerb("getsnapshot <snapshot-name>", "Get a snapshot", cobra.ExactArgs(1), command.Spec{
		Name:       "getsnapshot",
		Collection: compute.CollectionSnapshots,
		Resource:   snapshotResource,
		Handler:    getHandler(globalPath(compute.CollectionSnapshots)),
	})

	list := a.newListVerb("listsnapshots", "List the snapshots of the project", command.Spec{
		Name:       "listsnapshots",
		Collection: compute.CollectionSnapshots,
		Resource:   snapshotResource,
		Handler:    command.ListHandler(compute.CollectionSnapshots, command.ScopeGlobal, &a.list),
	}, false)

	add := a.newVerb("addsnapshot <snapshot-name>", "Snapshot a persistent disk", cobra.ExactArgs(1), command.Spec{
		Name:       "addsnapshot",
		Collection: compute.CollectionSnapshots,
		Resource:   snapshotResource,
		Handler:    a.addSnapshot,
	})
	a.addZoneFlag(add)
	add.Flags().StringVar(&a.snapshot.sourceDisk, "source_disk", "", "The persistent disk to snapshot")
	add.Flags().StringVar(&a.snapshot.description, "description", "", "An optional description")

	del := a.newVerb("deletesnapshot <snapshot-name>...", "Delete one or more snapshots", cobra.MinimumNArgs(1), command.Spec{
		Name:         "deletesnapshot",
		Collection:   compute.CollectionSnapshots,
		SafetyPrompt: "Delete snapshot",
		Resource:     snapshotResource,
		Handler:      deleteHandler(compute.CollectionSnapshots, globalPath(compute.CollectionSnapshots)),
	})
	a.addForceFlag(del)

	return []*cobra.Command{get, list, add, del}
}

// addSnapshot snapshots --source_disk. The zone of the disk comes from the
// disk name, --zone or a search. Without --source_disk, a disk of --zone is
// asked for.
func (a *app) addSnapshot(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
	sourceDisk := a.snapshot.sourceDisk
	if sourceDisk == "" && inv.Zone != "" && inv.Zone != names.GlobalZone {
		chosen, err := inv.PromptForDisk(ctx, inv.Zone)
		if err != nil {
			return nil, err
		}
		if chosen != nil {
			sourceDisk = chosen.SelfLink()
		}
	}
	if sourceDisk == "" {
		return nil, command.Errorf("You must specify a source disk through the --source_disk flag.")
	}

	zone, err := inv.ZoneForResource(ctx, compute.CollectionDisks, sourceDisk, true)
	if err != nil {
		return nil, err
	}

	body := models.Resource{
		"name":       names.DenormalizeResourceName(args[0]),
		"sourceDisk": inv.Namer.NormalizePerZoneResourceName(inv.Project(), zone, compute.CollectionDisks, sourceDisk),
	}
	if a.snapshot.description != "" {
		body["description"] = a.snapshot.description
	}

	op, err := inv.Client.Insert(ctx, inv.Client.CollectionPath(names.GlobalZone, compute.CollectionSnapshots), body)
	if err != nil {
		return nil, err
	}
	return &command.Result{Value: op}, nil
}
