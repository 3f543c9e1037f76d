package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/format"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// catalogCmds are the read-only verbs of images, kernels and machine types.
func catalogCmds(a *app) []*cobra.Command {
	return []*cobra.Command{
		a.newVerb("getimage <image-name>", "Get an image", cobra.ExactArgs(1), command.Spec{
			Name:       "getimage",
			Collection: compute.CollectionImages,
			Resource:   imageResource,
			Handler:    publicGetHandler(compute.CollectionImages),
		}),
		a.newListVerb("listimages", "List the images of the project and the public images", command.Spec{
			Name:       "listimages",
			Collection: compute.CollectionImages,
			Resource:   imageResource,
			Handler:    publicListHandler(compute.CollectionImages, &a.list),
		}, false),

		a.newVerb("getkernel <kernel-name>", "Get a kernel", cobra.ExactArgs(1), command.Spec{
			Name:       "getkernel",
			Collection: compute.CollectionKernels,
			Resource:   kernelResource,
			Handler:    publicGetHandler(compute.CollectionKernels),
		}),
		a.newListVerb("listkernels", "List the available kernels", command.Spec{
			Name:       "listkernels",
			Collection: compute.CollectionKernels,
			Resource:   kernelResource,
			Handler:    publicListHandler(compute.CollectionKernels, &a.list),
		}, false),

		a.newVerb("getmachinetype <machine-type-name>", "Get a machine type", cobra.ExactArgs(1), command.Spec{
			Name:       "getmachinetype",
			Collection: compute.CollectionMachineTypes,
			Resource:   machineTypeResource,
			Handler:    getHandler(topLevelPath(compute.CollectionMachineTypes)),
		}),
		a.newListVerb("listmachinetypes", "List the available machine types", command.Spec{
			Name:       "listmachinetypes",
			Collection: compute.CollectionMachineTypes,
			Resource:   machineTypeResource,
			Handler:    command.ListHandler(compute.CollectionMachineTypes, command.ScopeProject, &a.list),
		}, false),
	}
}

// publicGetHandler fetches an image or kernel. An unqualified name that the
// project does not have is looked up among the public resources.
func publicGetHandler(collection string) command.Handler {
	return func(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
		name := args[0]
		result, err := inv.Client.Get(ctx, inv.Namer.NormalizeGlobalResourceName(inv.Project(), collection, name))
		if compute.IsNotFound(err) && !isQualified(name) && inv.Project() != compute.GoogleProject {
			logging.FromContext(ctx).Debug("Falling back to the public resource",
				zap.String(logging.FieldCollection, collection),
				zap.String("name", name),
			)
			result, err = inv.Client.Get(ctx, inv.Namer.ResourcePath(compute.GoogleProject, names.GlobalZone, collection, name))
		}
		if err != nil {
			return nil, err
		}
		return &command.Result{Value: result}, nil
	}
}

// publicListHandler lists the resources of the project followed by the
// public resources of the google project.
func publicListHandler(collection string, flags *command.ListFlags) command.Handler {
	return func(ctx context.Context, inv *command.Invocation, args []string) (*command.Result, error) {
		opts := compute.ListOptions{Filter: flags.Filter}
		if flags.SortBy == "" && !flags.FetchAll {
			opts.MaxResults = flags.MaxResults
		}

		projects := []string{inv.Project()}
		if inv.Project() != compute.GoogleProject {
			projects = append(projects, compute.GoogleProject)
		}

		kind := models.KindPrefix + names.Singularize(collection) + "List"
		items := []models.Resource{}
		for _, project := range projects {
			list, err := inv.Client.All(ctx, inv.Namer.CollectionPath(project, names.GlobalZone, collection), opts)
			if err != nil {
				return nil, err
			}
			if list.Kind() != "" {
				kind = list.Kind()
			}
			items = append(items, list.Items()...)
		}

		return &command.Result{
			Value: models.NewList(kind, items),
			List: &format.ListOptions{
				SortBy:     flags.SortBy,
				MaxResults: flags.MaxResults,
				FetchAll:   flags.FetchAll,
			},
		}, nil
	}
}
