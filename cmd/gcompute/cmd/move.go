package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/move"
)

func moveCmds(a *app) []*cobra.Command {
	moveInstances := &cobra.Command{
		Use:   "moveinstances <name-regex>...",
		Short: "Move instances and their persistent disks to another zone",
		Long: `Move the instances of --source_zone whose names match one of the
regular expressions to --destination_zone.

The instances are deleted, their persistent disks are snapshotted and
re-created in the destination zone, and the instances are re-created with
the same settings. Ephemeral external IP addresses are not kept.

A log of the move is written before anything is deleted. If the move
fails, resumemove picks it up from that log.`,
		RunE: a.runE(command.Spec{
			Name:       "moveinstances",
			Collection: compute.CollectionInstances,
			Handler:    a.withMoveForce(move.MoveInstancesHandler(&a.move)),
		}),
	}
	f := moveInstances.Flags()
	f.StringVar(&a.move.SourceZone, "source_zone", "", "The zone to move the instances from")
	f.StringVar(&a.move.DestinationZone, "destination_zone", "", "The zone to move the instances to")
	f.BoolVar(&a.move.KeepSnapshots, "keep_snapshots", false, "Do not delete the snapshots taken during the move")
	f.StringVar(&a.move.LogDir, "log_dir", "", "Directory of the move log (default: the home directory)")
	a.addForceFlag(moveInstances)

	resumeMove := &cobra.Command{
		Use:   "resumemove <log-path>",
		Short: "Resume a failed move from its log",
		RunE: a.runE(command.Spec{
			Name:       "resumemove",
			Collection: compute.CollectionInstances,
			Handler:    a.withMoveForce(move.ResumeMoveHandler(&a.move)),
		}),
	}
	f = resumeMove.Flags()
	f.BoolVar(&a.move.KeepSnapshots, "keep_snapshots", false, "Do not delete the snapshots taken during the move")
	f.BoolVar(&a.move.KeepLogFile, "keep_log_file", false, "Do not delete the log after a successful resume")
	a.addForceFlag(resumeMove)

	return []*cobra.Command{moveInstances, resumeMove}
}

// withMoveForce copies --force and the build version into the move options
// before handler runs.
func (a *app) withMoveForce(handler command.Handler) command.Handler {
	return func(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
		a.move.Force = inv.Force
		a.move.Version = Version
		return handler(ctx, inv, args)
	}
}
