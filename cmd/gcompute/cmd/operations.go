package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/command"
)

func operationCmds(a *app) []*cobra.Command {
	get := a.newVerb("getoperation <operation-name>", "Get an operation", cobra.ExactArgs(1), command.Spec{
		Name:       "getoperation",
		Collection: compute.CollectionOperations,
		Resource:   operationResource,
		ForceAsync: true,
		Handler:    getHandler(operationPath),
	})
	a.addZoneFlag(get)

	list := a.newListVerb("listoperations", "List the operations of the project", command.Spec{
		Name:       "listoperations",
		Collection: compute.CollectionOperations,
		Resource:   operationResource,
		Handler:    command.ListHandler(compute.CollectionOperations, command.ScopeZoneAndGlobal, &a.list),
	}, true)

	del := a.newVerb("deleteoperation <operation-name>...", "Delete one or more operations", cobra.MinimumNArgs(1), command.Spec{
		Name:         "deleteoperation",
		Collection:   compute.CollectionOperations,
		SafetyPrompt: "Delete operation",
		Resource:     operationResource,
		Handler:      deleteOperations,
	})
	a.addZoneFlag(del)
	a.addForceFlag(del)

	return []*cobra.Command{get, list, del}
}

// operationPath locates an operation. Operations not found in any zone are
// global.
func operationPath(ctx context.Context, inv *command.Invocation, name string) (string, error) {
	zone, err := inv.ZoneForResource(ctx, compute.CollectionOperations, name, false)
	if err != nil {
		return "", err
	}
	return inv.Client.OperationPath(zone, name), nil
}

// deleteOperations deletes the operations and prints nothing but errors.
func deleteOperations(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
	result, err := deleteHandler(compute.CollectionOperations, operationPath)(ctx, inv, args)
	if err != nil {
		return nil, err
	}
	result.Silent = true
	return result, nil
}
