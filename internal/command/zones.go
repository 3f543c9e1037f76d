package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tilinna/clock"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/internal/prompt"
	"github.com/yaroslav/gcompute/internal/zones"
	"github.com/yaroslav/gcompute/models"
)

// ZoneForResource returns the zone a per-zone resource lives in.
//
// The zone comes from, in order:
// 1. The name itself, when it is qualified (projects/p/zones/z/...)
// 2. --zone, where "global" means no zone
// 3. A search of every zone for a resource with that name
//
// Parameters:
//   - ctx: Request context
//   - collection: Plural collection of the resource (e.g., "disks")
//   - name: Short or qualified resource name
//   - failIfNotFound: Return an error instead of "" when the search does not
//     find exactly one resource
//
// Returns:
//   - string: The unqualified zone name, or "" for none
//   - error: A listing error, or a user error when the zone is unknown
func (inv *Invocation) ZoneForResource(ctx context.Context, collection, name string, failIfNotFound bool) (string, error) {
	if name == "" {
		return "", nil
	}

	parts := strings.Split(inv.Namer.StripBaseURL(name), "/")
	if len(parts) > 3 && parts[0] == "projects" && parts[2] == "zones" {
		return parts[3], nil
	}

	if inv.Zone == names.GlobalZone {
		return "", nil
	}
	if inv.Zone != "" {
		return names.DenormalizeResourceName(inv.Zone), nil
	}
	if !inv.Namer.Scoped() {
		return "", nil
	}

	zoneNames, err := inv.Client.ZoneNames(ctx)
	if err != nil {
		return "", err
	}

	opts := compute.ListOptions{
		MaxResults: 2,
		Filter:     names.RegexesToFilterExpression([]string{names.DenormalizeResourceName(name)}, names.FilterEqual),
	}
	var items []models.Resource
	for _, zone := range zoneNames {
		sub, err := inv.Client.All(ctx, inv.Client.CollectionPath(zone, collection), opts)
		if err != nil {
			return "", err
		}
		items = append(items, sub.Items()...)
	}

	if len(items) == 1 {
		zone := inv.Namer.ZoneFromSelfLink(items[0].SelfLink())
		shown := zone
		if shown == "" {
			shown = names.GlobalZone
		}
		logger := logging.FromContext(ctx)
		logger.Info(fmt.Sprintf("Zone for '%s' detected as '%s'.", name, shown))
		logger.Warn(fmt.Sprintf("Consider passing '--zone=%s' to avoid the unnecessary zone lookup which requires extra API calls.", shown))
		return zone, nil
	}

	if failIfNotFound {
		return "", Errorf("Could not determine the zone of '%s'.", name)
	}
	return "", nil
}

// ResolveZone returns the zone to create a resource in. Without a zone the
// user picks one from a menu that notes upcoming maintenance. A given zone
// is fetched so that a maintenance warning can be logged.
func (inv *Invocation) ResolveZone(ctx context.Context, zone string) (string, error) {
	now := clock.FromContext(ctx).Now()

	if zone == "" {
		list, err := inv.Client.ListZones(ctx)
		if err != nil {
			return "", err
		}
		chosen, err := inv.Prompter.Choose(list.Items(), "zone", prompt.ChoiceOptions{
			AutoSelect: true,
			Text: func(r models.Resource) string {
				return zones.PromptText(toZone(r), now)
			},
		})
		if err != nil {
			return "", err
		}
		if chosen == nil {
			return "", Errorf("No zones are available to project %s.", inv.Project())
		}
		return names.DenormalizeResourceName(chosen.Name()), nil
	}

	zone = names.DenormalizeResourceName(zone)
	resource, err := inv.Client.GetZone(ctx, zone)
	if err != nil {
		return "", err
	}
	if warning := zones.MaintenanceWarning(toZone(resource), now); warning != "" {
		logging.FromContext(ctx).Warn(warning, zap.String(logging.FieldZone, zone))
	}
	return zone, nil
}

// toZone decodes the typed view of a zone resource. Fields that do not
// decode are left empty.
func toZone(r models.Resource) models.Zone {
	var zone models.Zone
	_ = r.Decode(&zone)
	if zone.Name == "" {
		zone.Name = r.Name()
	}
	return zone
}
