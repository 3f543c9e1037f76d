package move

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/models"
)

// quotaOrder fixes the order quotas are checked and reported in.
var quotaOrder = []string{
	models.QuotaInstances,
	models.QuotaCPUs,
	models.QuotaDisks,
	models.QuotaDisksTotalGB,
	models.QuotaSnapshots,
}

// checkQuotas fails when the project or the destination zone cannot hold
// what is about to be moved. snapshots is the number of snapshots the move
// creates.
func (m *mover) checkQuotas(ctx context.Context, instances []models.Resource, disks []string, snapshots int, srcZone, destZone string) error {
	m.println("Checking project and destination zone quotas...")

	zoneResource, err := m.inv.Client.GetZone(ctx, destZone)
	if err != nil {
		return err
	}
	var zone models.Zone
	if err := zoneResource.Decode(&zone); err != nil {
		return fmt.Errorf("failed to decode zone %s: %w", destZone, err)
	}

	required, err := m.requirements(ctx, instances, disks, snapshots, srcZone)
	if err != nil {
		return err
	}
	available := availableQuota(m.project.Quotas, zone.Quotas, required)

	m.logger.Debug("Checking move quotas",
		zap.Any("required", required),
		zap.Any("available", available),
	)

	for _, metric := range quotaOrder {
		need, ok := required[metric]
		if !ok {
			continue
		}
		if available[metric]-need < 0 {
			return command.Errorf("You do not have enough quota for %s in %s or your project.", metric, destZone)
		}
	}
	return nil
}

// requirements computes how much of each quota the moved resources take.
func (m *mover) requirements(ctx context.Context, instances []models.Resource, disks []string, snapshots int, srcZone string) (map[string]float64, error) {
	cpus, err := m.guestCPUs(ctx)
	if err != nil {
		return nil, err
	}
	var requiredCPUs float64
	for _, instance := range instances {
		machineType := instance.String("machineType")
		count, ok := cpus[machineType]
		if !ok {
			return nil, command.Errorf("Unknown machine type %s of instance %s.", machineType, instance.Name())
		}
		requiredCPUs += count
	}

	wanted := make(map[string]bool, len(disks))
	for _, d := range disks {
		wanted[d] = true
	}
	srcDisks, err := m.inv.Client.All(ctx, m.inv.Client.CollectionPath(srcZone, compute.CollectionDisks), compute.ListOptions{})
	if err != nil {
		return nil, err
	}
	var diskSize float64
	for _, disk := range srcDisks.Items() {
		if wanted[disk.Name()] {
			diskSize += disk.Float("sizeGb")
		}
	}

	return map[string]float64{
		models.QuotaInstances:    float64(len(instances)),
		models.QuotaCPUs:         requiredCPUs,
		models.QuotaDisks:        float64(len(disks)),
		models.QuotaDisksTotalGB: diskSize,
		models.QuotaSnapshots:    float64(snapshots),
	}, nil
}

// guestCPUs maps the selfLink of every machine type to its CPU count.
func (m *mover) guestCPUs(ctx context.Context) (map[string]float64, error) {
	list, err := m.inv.Client.All(ctx, m.inv.Client.CollectionPath("", compute.CollectionMachineTypes), compute.ListOptions{})
	if err != nil {
		return nil, err
	}
	cpus := make(map[string]float64)
	for _, mt := range list.Items() {
		cpus[mt.SelfLink()] = mt.Float("guestCpus")
	}
	return cpus, nil
}

// availableQuota returns, per required metric, the smaller of what is left
// in the project and in the zone. The resources being moved already count
// against the project, so their requirement is added back, except for
// snapshots which the move creates.
func availableQuota(project, zone []models.Quota, required map[string]float64) map[string]float64 {
	available := make(map[string]float64)
	for _, q := range project {
		need, ok := required[q.Metric]
		if !ok {
			continue
		}
		left := q.Limit - q.Usage
		if q.Metric != models.QuotaSnapshots {
			left += need
		}
		available[q.Metric] = left
	}

	for _, q := range zone {
		if _, ok := required[q.Metric]; !ok {
			continue
		}
		left := q.Limit - q.Usage
		if current, ok := available[q.Metric]; !ok || left < current {
			available[q.Metric] = left
		}
	}
	return available
}
