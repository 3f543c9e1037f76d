package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/tilinna/clock"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/zones"
	"github.com/yaroslav/gcompute/models"
)

// zoneCmds are the verbs of zones and of the project itself.
func zoneCmds(a *app) []*cobra.Command {
	return []*cobra.Command{
		a.newVerb("getzone <zone-name>", "Get a zone", cobra.ExactArgs(1), command.Spec{
			Name:       "getzone",
			Collection: compute.CollectionZones,
			Resource:   zoneResource,
			Handler:    getZone,
		}),
		a.newListVerb("listzones", "List the zones available to the project", command.Spec{
			Name:       "listzones",
			Collection: compute.CollectionZones,
			Resource:   zoneResource,
			Handler:    command.ListHandler(compute.CollectionZones, command.ScopeProject, &a.list),
		}, false),
		a.newVerb("getproject", "Get the project", cobra.NoArgs, command.Spec{
			Name:       "getproject",
			Collection: compute.CollectionProjects,
			Resource:   projectResource,
			Handler:    getProject,
		}),
	}
}

// getZone fetches a zone and logs a warning when it is about to go down
// for maintenance.
func getZone(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
	result, err := inv.Client.Get(ctx, inv.Namer.NormalizeTopLevelResourceName(inv.Project(), compute.CollectionZones, args[0]))
	if err != nil {
		return nil, err
	}

	var zone models.Zone
	if err := result.Decode(&zone); err == nil {
		if warning := zones.MaintenanceWarning(zone, clock.FromContext(ctx).Now()); warning != "" {
			logging.FromContext(ctx).Warn(warning, zap.String(logging.FieldZone, zone.Name))
		}
	}
	return &command.Result{Value: result}, nil
}

func getProject(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
	result, err := inv.Client.GetProject(ctx)
	if err != nil {
		return nil, err
	}
	return &command.Result{Value: result}, nil
}
