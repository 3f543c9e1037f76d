package compute

import (
	"context"
	"fmt"
	"strings"

	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// Collection names of the compute API.
const (
	CollectionInstances    = "instances"
	CollectionDisks        = "disks"
	CollectionSnapshots    = "snapshots"
	CollectionImages       = "images"
	CollectionKernels      = "kernels"
	CollectionMachineTypes = "machineTypes"
	CollectionZones        = "zones"
	CollectionOperations   = "operations"
	CollectionProjects     = "projects"
)

// GoogleProject hosts the public images and kernels.
const GoogleProject = "google"

var knownCollections = map[string]bool{
	CollectionInstances:    true,
	CollectionDisks:        true,
	CollectionSnapshots:    true,
	CollectionImages:       true,
	CollectionKernels:      true,
	CollectionMachineTypes: true,
	CollectionZones:        true,
	CollectionOperations:   true,
}

// collectionFromURL returns the collection a request URL addresses, used as
// a metrics label.
func collectionFromURL(u string) string {
	path := u
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if knownCollections[parts[i]] {
			return parts[i]
		}
	}
	return CollectionProjects
}

// CollectionPath returns the path of a collection of the client's project.
// zone is a zone name for per-zone collections, names.GlobalZone for the
// global scope and "" for top-level collections.
func (c *Client) CollectionPath(zone, collection string) string {
	return c.Namer.CollectionPath(c.Project, zone, collection)
}

// ResourcePath returns the path of a single resource of the client's project.
func (c *Client) ResourcePath(zone, collection, name string) string {
	return c.Namer.ResourcePath(c.Project, zone, collection, name)
}

// GetProject fetches the client's project.
func (c *Client) GetProject(ctx context.Context) (models.Resource, error) {
	project, err := c.Get(ctx, "projects/"+c.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// GetZone fetches a zone by name.
func (c *Client) GetZone(ctx context.Context, zone string) (models.Resource, error) {
	return c.Get(ctx, c.ResourcePath("", CollectionZones, zone))
}

// ListZones lists every zone of the project.
func (c *Client) ListZones(ctx context.Context) (models.Resource, error) {
	return c.All(ctx, c.CollectionPath("", CollectionZones), ListOptions{})
}

// ZoneNames returns the names of every zone of the project.
func (c *Client) ZoneNames(ctx context.Context) ([]string, error) {
	return c.AllNames(ctx, c.CollectionPath("", CollectionZones), ListOptions{})
}

// OperationPath returns the path of an operation. Operations of per-zone
// resources live in the zone, all others in the global scope.
func (c *Client) OperationPath(zone, name string) string {
	return c.Namer.OperationsPath(c.Project, zone) + "/" + names.DenormalizeResourceName(name)
}

// GetOperation re-fetches op from the collection it belongs to.
func (c *Client) GetOperation(ctx context.Context, op models.Resource) (models.Resource, error) {
	zone := c.Namer.ZoneFromSelfLink(op.SelfLink())
	if zone == "" {
		zone = names.DenormalizeResourceName(op.String("zone"))
	}
	return c.Get(ctx, c.OperationPath(zone, op.Name()))
}
