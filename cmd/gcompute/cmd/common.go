package cmd

import (
	"context"
	"strings"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/batch"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/models"
)

// pathFunc returns the REST path of the resource called name.
type pathFunc func(ctx context.Context, inv *command.Invocation, name string) (string, error)

// perZonePath locates a per-zone resource, searching every zone when
// neither the name nor --zone says where it lives.
func perZonePath(collection string) pathFunc {
	return func(ctx context.Context, inv *command.Invocation, name string) (string, error) {
		zone, err := inv.ZoneForResource(ctx, collection, name, true)
		if err != nil {
			return "", err
		}
		return inv.Client.ResourcePath(zone, collection, name), nil
	}
}

// globalPath locates a global resource. Qualified names may point into
// another project.
func globalPath(collection string) pathFunc {
	return func(ctx context.Context, inv *command.Invocation, name string) (string, error) {
		return inv.Namer.NormalizeGlobalResourceName(inv.Project(), collection, name), nil
	}
}

// topLevelPath locates a resource that lives directly under the project.
func topLevelPath(collection string) pathFunc {
	return func(ctx context.Context, inv *command.Invocation, name string) (string, error) {
		return inv.Namer.NormalizeTopLevelResourceName(inv.Project(), collection, name), nil
	}
}

// getHandler fetches the single resource named by the argument.
func getHandler(locate pathFunc) command.Handler {
	return func(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
		path, err := locate(ctx, inv, args[0])
		if err != nil {
			return nil, err
		}
		result, err := inv.Client.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		return &command.Result{Value: result}, nil
	}
}

// deleteHandler deletes every resource named by the arguments in one batch.
func deleteHandler(collection string, locate pathFunc) command.Handler {
	return func(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
		requests := make([]batch.Request, 0, len(args))
		for _, name := range args {
			path, err := locate(ctx, inv, name)
			if err != nil {
				return nil, err
			}
			requests = append(requests, deleteRequest(inv.Client, path))
		}
		return inv.ExecuteBatch(ctx, requests, collection), nil
	}
}

func insertRequest(client *compute.Client, path string, body models.Resource) batch.Request {
	return func(ctx context.Context) (models.Resource, error) {
		return client.Insert(ctx, path, body)
	}
}

func deleteRequest(client *compute.Client, path string) batch.Request {
	return func(ctx context.Context) (models.Resource, error) {
		return client.Delete(ctx, path)
	}
}

// isQualified reports whether name already carries its project.
func isQualified(name string) bool {
	return strings.Contains(strings.Trim(name, "/"), "/")
}
