package cmd

import (
	"fmt"
	"sort"

	"github.com/yaroslav/gcompute/internal/format"
	"github.com/yaroslav/gcompute/models"
)

// How each collection is printed.
var (
	instanceResource = format.ResourceSpec{
		SummaryFields: format.Fields{
			format.F("name", "name"),
			format.F("machine-type", "machineType"),
			format.F("external-ip", "networkInterfaces.accessConfigs.natIP"),
			format.F("internal-ip", "networkInterfaces.networkIP"),
			format.F("zone", "zone"),
			format.F("status", "status"),
		},
		DetailFields: format.Fields{
			format.F("name", "name"),
			format.F("description", "description"),
			format.F("creation-time", "creationTimestamp"),
			format.F("machine-type", "machineType"),
			format.F("image", "image"),
			format.F("kernel", "kernel"),
			format.F("zone", "zone"),
			format.F("tags", "tags.items"),
			format.F("network", "networkInterfaces.network"),
			format.F("external-ip", "networkInterfaces.accessConfigs.natIP"),
			format.F("internal-ip", "networkInterfaces.networkIP"),
			format.F("disks", "disks.source"),
			format.F("status", "status"),
			format.F("status-message", "statusMessage"),
		},
		DefaultSortField: "name",
		Customize:        addMetadataRows,
	}

	diskResource = format.ResourceSpec{
		SummaryFields: format.Fields{
			format.F("name", "name"),
			format.F("zone", "zone"),
			format.F("status", "status"),
			format.F("source-snapshot", "sourceSnapshot"),
		},
		DetailFields: format.Fields{
			format.F("name", "name"),
			format.F("description", "description"),
			format.F("creation-time", "creationTimestamp"),
			format.F("zone", "zone"),
			format.F("status", "status"),
			format.F("source-snapshot", "sourceSnapshot"),
			format.F("size", "sizeGb"),
		},
		DefaultSortField: "name",
	}

	snapshotResource = format.ResourceSpec{
		SummaryFields: format.Fields{
			format.F("name", "name"),
			format.F("description", "description"),
			format.F("status", "status"),
			format.F("disk-size-gb", "diskSizeGb"),
			format.F("source-disk", "sourceDisk"),
		},
		DetailFields: format.Fields{
			format.F("name", "name"),
			format.F("description", "description"),
			format.F("creation-time", "creationTimestamp"),
			format.F("status", "status"),
			format.F("disk-size-gb", "diskSizeGb"),
			format.F("source-disk", "sourceDisk"),
		},
		DefaultSortField: "name",
	}

	imageResource = format.ResourceSpec{
		SummaryFields: format.Fields{
			format.F("name", "selfLink"),
			format.F("description", "description"),
			format.F("kernel", "preferredKernel"),
			format.F("deprecation", "deprecated.state"),
			format.F("status", "status"),
		},
		DetailFields: format.Fields{
			format.F("name", "name"),
			format.F("description", "description"),
			format.F("creation-time", "creationTimestamp"),
			format.F("kernel", "preferredKernel"),
			format.F("deprecation", "deprecated.state"),
			format.F("replacement", "deprecated.replacement"),
			format.F("status", "status"),
		},
		DefaultSortField: "name",
	}

	kernelResource = format.ResourceSpec{
		SummaryFields: format.Fields{
			format.F("name", "selfLink"),
			format.F("description", "description"),
		},
		DetailFields: format.Fields{
			format.F("name", "name"),
			format.F("description", "description"),
			format.F("creation-time", "creationTimestamp"),
		},
		DefaultSortField: "name",
	}

	machineTypeResource = format.ResourceSpec{
		SummaryFields: format.Fields{
			format.F("name", "name"),
			format.F("description", "description"),
			format.F("cpus", "guestCpus"),
			format.F("memory-mb", "memoryMb"),
			format.F("ephemeral-disk-size-gb", "ephemeralDisks.diskGb"),
			format.F("max-pds", "maximumPersistentDisks"),
			format.F("max-total-pd-size-gb", "maximumPersistentDisksSizeGb"),
		},
		DetailFields: format.Fields{
			format.F("name", "name"),
			format.F("description", "description"),
			format.F("creation-time", "creationTimestamp"),
			format.F("cpus", "guestCpus"),
			format.F("memory-mb", "memoryMb"),
			format.F("ephemeral-disk-size-gb", "ephemeralDisks.diskGb"),
			format.F("max-pds", "maximumPersistentDisks"),
			format.F("max-total-pd-size-gb", "maximumPersistentDisksSizeGb"),
			format.F("available-zones", "availableZone"),
		},
		DefaultSortField: "name",
	}

	zoneResource = format.ResourceSpec{
		SummaryFields: format.Fields{
			format.F("name", "name"),
			format.F("status", "status"),
			format.F("next-maintenance", "maintenanceWindows.beginTime"),
			format.F("deprecation", "deprecated.state"),
		},
		DetailFields: format.Fields{
			format.F("name", "name"),
			format.F("description", "description"),
			format.F("creation-time", "creationTimestamp"),
			format.F("status", "status"),
			format.F("deprecation", "deprecated.state"),
			format.F("replacement", "deprecated.replacement"),
		},
		DefaultSortField: "name",
		Customize:        addZoneRows,
	}

	projectResource = format.ResourceSpec{
		DetailFields: format.Fields{
			format.F("name", "name"),
			format.F("description", "description"),
			format.F("creation-time", "creationTimestamp"),
			format.F("ips", "externalIpAddresses"),
		},
		Customize: addQuotaRows,
	}

	operationResource = format.ResourceSpec{
		SummaryFields:    format.OperationSummaryFields,
		DetailFields:     format.OperationDetailFields,
		DefaultSortField: format.DefaultOperationSortField,
	}
)

// addMetadataRows lists the instance metadata keys below the detail rows.
func addMetadataRows(result models.Resource, table format.Table) {
	items, _ := result.Lookup("metadata.items")
	list, _ := items.([]interface{})
	if len(list) == 0 {
		return
	}
	table.AddRow([]string{"", ""})
	table.AddRow([]string{"metadata", ""})
	for _, item := range list {
		entry, ok := models.AsMap(item)
		if !ok {
			continue
		}
		table.AddRow([]string{"  " + fmt.Sprint(entry["key"]), fmt.Sprint(entry["value"])})
	}
}

// addZoneRows appends the maintenance windows and the zone quotas.
func addZoneRows(result models.Resource, table format.Table) {
	var zone models.Zone
	if err := result.Decode(&zone); err != nil {
		return
	}
	for _, window := range zone.MaintenanceWindows {
		table.AddRow([]string{"", ""})
		table.AddRow([]string{"maintenance-window", window.Name})
		table.AddRow([]string{"  description", window.Description})
		table.AddRow([]string{"  begin-time", window.BeginTime})
		table.AddRow([]string{"  end-time", window.EndTime})
	}
	addQuotas(zone.Quotas, table)
}

// addQuotaRows appends the project quotas.
func addQuotaRows(result models.Resource, table format.Table) {
	var project models.Project
	if err := result.Decode(&project); err != nil {
		return
	}
	addQuotas(project.Quotas, table)
}

func addQuotas(quotas []models.Quota, table format.Table) {
	if len(quotas) == 0 {
		return
	}
	sorted := append([]models.Quota(nil), quotas...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Metric < sorted[j].Metric })

	table.AddRow([]string{"", ""})
	table.AddRow([]string{"usage", ""})
	for _, q := range sorted {
		table.AddRow([]string{"  " + q.Metric, fmt.Sprintf("%g/%g", q.Usage, q.Limit)})
	}
}
