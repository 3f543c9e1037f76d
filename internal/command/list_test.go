package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/fakecompute"
	"github.com/yaroslav/gcompute/internal/fixtures"
	"github.com/yaroslav/gcompute/internal/format"
	"github.com/yaroslav/gcompute/models"
)

func itemNames(r models.Resource) []string {
	var out []string
	for _, item := range r.Items() {
		out = append(out, item.Name())
	}
	return out
}

func TestListHandlerZones(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		scope      Scope
		zone       string
		want       []string
	}{
		{name: "every zone", collection: compute.CollectionDisks, scope: ScopeZone, want: []string{"d1", "d2"}},
		{name: "one zone", collection: compute.CollectionDisks, scope: ScopeZone, zone: "zone-b", want: []string{"d2"}},
		{name: "qualified zone", collection: compute.CollectionDisks, scope: ScopeZone, zone: "zones/zone-a", want: []string{"d1"}},
		{name: "global and every zone", collection: compute.CollectionOperations, scope: ScopeZoneAndGlobal, want: []string{"op-global", "op-a"}},
		{name: "global only", collection: compute.CollectionOperations, scope: ScopeZoneAndGlobal, zone: "global", want: []string{"op-global"}},
		{name: "operations of a zone", collection: compute.CollectionOperations, scope: ScopeZoneAndGlobal, zone: "zone-a", want: []string{"op-a"}},
		{name: "top level", collection: compute.CollectionZones, scope: ScopeProject, want: []string{"zone-a", "zone-b"}},
		{name: "global", collection: compute.CollectionSnapshots, scope: ScopeGlobal, want: []string{"s1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, fakecompute.Config{}, "")
			h.seedDisk("zone-a", "d1")
			h.seedDisk("zone-b", "d2")
			h.srv.Seed(fakecompute.CollectionPath(fixtures.TestProject, "global", "operations"),
				models.Resource{"name": "op-global", "status": "DONE"})
			h.srv.Seed(fakecompute.CollectionPath(fixtures.TestProject, "zones/zone-a", "operations"),
				models.Resource{"name": "op-a", "status": "DONE"})
			h.srv.Seed(fakecompute.CollectionPath(fixtures.TestProject, "global", "snapshots"),
				models.Resource{"name": "s1", "status": "READY"})
			h.inv.Zone = tt.zone

			handler := ListHandler(tt.collection, tt.scope, &ListFlags{MaxResults: DefaultMaxResults})
			result, err := handler(h.ctx, h.inv, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.want, itemNames(result.Value))
			assert.True(t, result.Value.IsList())
			require.NotNil(t, result.List)
			assert.Equal(t, DefaultMaxResults, result.List.MaxResults)
		})
	}
}

func TestListHandlerServerLimit(t *testing.T) {
	h := newHarness(t, fakecompute.Config{}, "")
	for _, name := range []string{"d1", "d2", "d3"} {
		h.seedDisk("zone-a", name)
	}
	h.inv.Zone = "zone-a"

	result, err := ListHandler(compute.CollectionDisks, ScopeZone, &ListFlags{MaxResults: 2})(h.ctx, h.inv, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, itemNames(result.Value))

	result, err = ListHandler(compute.CollectionDisks, ScopeZone, &ListFlags{MaxResults: 2, SortBy: "-name"})(h.ctx, h.inv, nil)
	require.NoError(t, err)
	assert.Len(t, result.Value.Items(), 3, "sorting must fetch every item")
}

func TestRunListSortsAndTruncates(t *testing.T) {
	h := newHarness(t, fakecompute.Config{}, "")
	h.seedDisk("zone-a", "d1")
	h.seedDisk("zone-b", "d2")
	h.inv.Printer.Format = format.FormatNames

	flags := &ListFlags{MaxResults: 1, SortBy: "-name"}
	spec := Spec{
		Name:       "listdisks",
		Collection: compute.CollectionDisks,
		Resource:   diskResource,
		Handler:    ListHandler(compute.CollectionDisks, ScopeZone, flags),
	}

	require.Equal(t, ExitSuccess, Run(h.ctx, h.inv, spec, nil))
	// The names format prints every fetched item.
	assert.Equal(t, []string{"d1", "d2"}, strings.Fields(h.stdout.String()))

	h.stdout.Reset()
	h.inv.Printer.Format = format.FormatTable
	require.Equal(t, ExitSuccess, Run(h.ctx, h.inv, spec, nil))
	assert.Contains(t, h.stdout.String(), "d2")
	assert.NotContains(t, h.stdout.String(), "d1")
}

func TestListFlagsValidate(t *testing.T) {
	fields := format.Fields{format.F("name", "name"), format.F("zone", "zone")}

	tests := []struct {
		name    string
		flags   ListFlags
		wantErr string
	}{
		{name: "defaults", flags: ListFlags{MaxResults: DefaultMaxResults}},
		{name: "sort ascending", flags: ListFlags{MaxResults: 1, SortBy: "zone"}},
		{name: "sort descending", flags: ListFlags{MaxResults: 1, SortBy: "-name"}},
		{name: "zero max results", flags: ListFlags{MaxResults: 0}, wantErr: "max_results must be at least 1"},
		{name: "unknown column", flags: ListFlags{MaxResults: 1, SortBy: "status"}, wantErr: "sort_by must be one of: name, -name, zone, -zone"},
		{name: "typo", flags: ListFlags{MaxResults: 1, SortBy: "nmae"}, wantErr: "sort_by must be one of: name, -name, zone, -zone. Did you mean 'name'?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.flags.Validate(fields)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error %q, got nil", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}
