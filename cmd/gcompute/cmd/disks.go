package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/batch"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// diskFlags are the flags of adddisk.
type diskFlags struct {
	sizeGb         int
	sourceSnapshot string
	description    string
}

func diskCmds(a *app) []*cobra.Command {
	get := a.newVerb("getdisk <disk-name>", "Get a disk", cobra.ExactArgs(1), command.Spec{
		Name:       "getdisk",
		Collection: compute.CollectionDisks,
		Resource:   diskResource,
		Handler:    getHandler(perZonePath(compute.CollectionDisks)),
	})
	a.addZoneFlag(get)

	list := a.newListVerb("listdisks", "List the disks of the project", command.Spec{
		Name:       "listdisks",
		Collection: compute.CollectionDisks,
		Resource:   diskResource,
		Handler:    command.ListHandler(compute.CollectionDisks, command.ScopeZone, &a.list),
	}, true)

	add := a.newVerb("adddisk <disk-name>...", "Create one or more persistent disks", cobra.MinimumNArgs(1), command.Spec{
		Name:       "adddisk",
		Collection: compute.CollectionDisks,
		Resource:   diskResource,
		Handler:    a.addDisks,
	})
	a.addZoneFlag(add)
	add.Flags().IntVar(&a.disk.sizeGb, "size_gb", 0, "The size of the disks in GB")
	add.Flags().StringVar(&a.disk.sourceSnapshot, "source_snapshot", "", "The snapshot to restore the disks from")
	add.Flags().StringVar(&a.disk.description, "description", "", "An optional description")

	del := a.newVerb("deletedisk <disk-name>...", "Delete one or more persistent disks", cobra.MinimumNArgs(1), command.Spec{
		Name:         "deletedisk",
		Collection:   compute.CollectionDisks,
		SafetyPrompt: "Delete disk",
		Resource:     diskResource,
		Handler:      deleteHandler(compute.CollectionDisks, perZonePath(compute.CollectionDisks)),
	})
	a.addZoneFlag(del)
	a.addForceFlag(del)

	return []*cobra.Command{get, list, add, del}
}

// addDisks creates one disk per argument in the zone given by --zone, or
// one picked by the user.
func (a *app) addDisks(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
	if a.disk.sizeGb < 0 {
		return nil, command.Errorf("size_gb cannot be negative")
	}

	zone, err := inv.ResolveZone(ctx, inv.Zone)
	if err != nil {
		return nil, err
	}

	template := models.Resource{
		"zone": inv.Namer.NormalizeTopLevelResourceName(inv.Project(), compute.CollectionZones, zone),
	}
	if a.disk.sizeGb > 0 {
		template["sizeGb"] = strconv.Itoa(a.disk.sizeGb)
	}
	if a.disk.sourceSnapshot != "" {
		template["sourceSnapshot"] = inv.Namer.NormalizeGlobalResourceName(inv.Project(), compute.CollectionSnapshots, a.disk.sourceSnapshot)
	}
	if a.disk.description != "" {
		template["description"] = a.disk.description
	}

	path := inv.Client.CollectionPath(zone, compute.CollectionDisks)
	requests := make([]batch.Request, 0, len(args))
	for _, name := range args {
		body := template.Clone()
		body["name"] = names.DenormalizeResourceName(name)
		requests = append(requests, insertRequest(inv.Client, path, body))
	}
	return inv.ExecuteBatch(ctx, requests, compute.CollectionDisks), nil
}
