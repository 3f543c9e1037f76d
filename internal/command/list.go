package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/format"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// DefaultMaxResults is the default of --max_results.
const DefaultMaxResults = 100

// Scope is where the resources of a collection live.
type Scope int

const (
	// ScopeProject collections live directly under the project (zones,
	// machine types).
	ScopeProject Scope = iota

	// ScopeGlobal collections live in the global scope (images, kernels,
	// snapshots).
	ScopeGlobal

	// ScopeZone collections live in zones (instances, disks).
	ScopeZone

	// ScopeZoneAndGlobal collections live in zones and in the global scope
	// (operations).
	ScopeZoneAndGlobal
)

// ListFlags are the flags of every list verb.
type ListFlags struct {
	MaxResults int
	Filter     string
	FetchAll   bool
	SortBy     string
}

// AddFlags defines the list flags on fs.
func (f *ListFlags) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&f.MaxResults, "max_results", DefaultMaxResults, "Maximum number of items to list")
	fs.StringVar(&f.Filter, "filter", "", "Filter expression for the listed resources (e.g., \"name eq my-.*\")")
	fs.BoolVar(&f.FetchAll, "fetch_all_pages", false, "Whether to fetch all pages on truncated results")
	fs.StringVar(&f.SortBy, "sort_by", "", "Sort output by the given column. Prefix with \"-\" for descending order")
}

// Validate checks the flags against the columns of the listed collection.
func (f *ListFlags) Validate(fields format.Fields) error {
	if f.MaxResults < 1 {
		return Errorf("max_results must be at least 1")
	}
	if f.SortBy == "" {
		return nil
	}

	titles := fields.Titles()
	if fields.Index(strings.TrimPrefix(f.SortBy, "-")) >= 0 {
		return nil
	}

	allowed := make([]string, 0, 2*len(titles))
	for _, t := range titles {
		allowed = append(allowed, t, "-"+t)
	}
	msg := fmt.Sprintf("sort_by must be one of: %s", strings.Join(allowed, ", "))
	if s := format.Suggest(f.SortBy, allowed); s != "" {
		msg += fmt.Sprintf(". Did you mean '%s'?", s)
	}
	return &Error{Message: msg}
}

// serverLimit is the maxResults sent to the server. Sorting needs every
// item, so it disables the limit like --fetch_all_pages does.
func (f *ListFlags) serverLimit() int {
	if f.SortBy != "" || f.FetchAll {
		return 0
	}
	return f.MaxResults
}

// ListHandler returns the handler of a list verb.
//
// Zone-level collections are listed in the zone given by --zone. When the
// collection also has a global scope, --zone=global lists that scope.
// Without --zone, the global scope (if any) and every zone are combined.
func ListHandler(collection string, scope Scope, flags *ListFlags) Handler {
	return func(ctx context.Context, inv *Invocation, args []string) (*Result, error) {
		opts := compute.ListOptions{
			MaxResults: flags.serverLimit(),
			Filter:     flags.Filter,
		}

		var result models.Resource
		if (scope == ScopeZone || scope == ScopeZoneAndGlobal) && inv.Namer.Scoped() {
			zones, err := listZones(ctx, inv, scope)
			if err != nil {
				return nil, err
			}

			var (
				kind  = models.KindPrefix + names.Singularize(collection) + "List"
				items = []models.Resource{}
			)
			for _, zone := range zones {
				sub, err := inv.Client.All(ctx, inv.Client.CollectionPath(zone, collection), opts)
				if err != nil {
					return nil, err
				}
				if sub.Kind() != "" {
					kind = sub.Kind()
				}
				items = append(items, sub.Items()...)
			}
			result = models.NewList(kind, items)
		} else {
			zone := ""
			if scope != ScopeProject {
				zone = names.GlobalZone
			}
			list, err := inv.Client.All(ctx, inv.Client.CollectionPath(zone, collection), opts)
			if err != nil {
				return nil, err
			}
			result = list
		}

		logging.FromContext(ctx).Debug("Listed resources",
			zap.String(logging.FieldCollection, collection),
			zap.Int("items", len(result.Items())),
		)

		return &Result{
			Value: result,
			List: &format.ListOptions{
				SortBy:     flags.SortBy,
				MaxResults: flags.MaxResults,
				FetchAll:   flags.FetchAll,
			},
		}, nil
	}
}

// listZones returns the scopes a zone-level list covers. names.GlobalZone
// stands for the global scope.
func listZones(ctx context.Context, inv *Invocation, scope Scope) ([]string, error) {
	if inv.Zone != "" {
		if scope == ScopeZoneAndGlobal && inv.Zone == names.GlobalZone {
			return []string{names.GlobalZone}, nil
		}
		return []string{names.DenormalizeResourceName(inv.Zone)}, nil
	}

	var zones []string
	if scope == ScopeZoneAndGlobal {
		zones = append(zones, names.GlobalZone)
	}
	all, err := inv.Client.ZoneNames(ctx)
	if err != nil {
		return nil, err
	}
	return append(zones, all...), nil
}
