package fakecompute

import (
	"github.com/yaroslav/gcompute/models"
)

// Names used by SeedDefaults.
const (
	DefaultZoneA      = "zone-a"
	DefaultZoneB      = "zone-b"
	DefaultReservedIP = "192.0.2.10"
	GoogleProject     = "google"
)

// SeedDefaults creates project with two zones, a handful of machine types,
// and the public images and kernels of the google project.
func (s *Server) SeedDefaults(project string) {
	s.AddProject(models.Project{
		Name: project,
		Quotas: []models.Quota{
			{Metric: models.QuotaInstances, Limit: 24},
			{Metric: models.QuotaCPUs, Limit: 24},
			{Metric: models.QuotaDisks, Limit: 24},
			{Metric: models.QuotaDisksTotalGB, Limit: 2048},
			{Metric: models.QuotaSnapshots, Limit: 100},
		},
		ExternalIPAddresses: []string{DefaultReservedIP},
	})

	s.Seed(CollectionPath(project, "", collectionZones),
		models.Resource{"name": DefaultZoneA, "quotas": ZoneQuotas(16, 16, 16, 1024)},
		models.Resource{"name": DefaultZoneB, "quotas": ZoneQuotas(16, 16, 16, 1024)},
	)

	s.Seed(CollectionPath(project, "", collectionMachineTypes),
		models.Resource{"name": "n1-standard-1", "guestCpus": 1.0, "memoryMb": 3840.0},
		models.Resource{"name": "n1-standard-2", "guestCpus": 2.0, "memoryMb": 7680.0},
		models.Resource{"name": "n1-highcpu-2", "guestCpus": 2.0, "memoryMb": 1843.0},
		models.Resource{"name": "n1-highmem-2", "guestCpus": 2.0, "memoryMb": 13312.0},
		models.Resource{"name": "f1-micro", "guestCpus": 1.0, "memoryMb": 614.0,
			"deprecated": map[string]interface{}{"state": models.DeprecationStateDeprecated}},
	)

	s.Seed(CollectionPath(GoogleProject, "global", collectionImages),
		models.Resource{"name": "debian-7-wheezy-v20130617", "description": "Debian GNU/Linux 7.0 (wheezy)"},
		models.Resource{"name": "centos-6-v20130522", "description": "SCSI-enabled CentOS 6",
			"deprecated": map[string]interface{}{"state": models.DeprecationStateDeprecated}},
	)
	s.Seed(CollectionPath(GoogleProject, "global", collectionKernels),
		models.Resource{"name": "gce-v20130603", "description": "Linux 3.3.8"},
	)
}

// ZoneQuotas builds the quotas field of a zone resource.
func ZoneQuotas(instances, cpus, disks, disksTotalGb float64) []interface{} {
	quota := func(metric string, limit float64) interface{} {
		return map[string]interface{}{"metric": metric, "limit": limit, "usage": 0.0}
	}
	return []interface{}{
		quota(models.QuotaInstances, instances),
		quota(models.QuotaCPUs, cpus),
		quota(models.QuotaDisks, disks),
		quota(models.QuotaDisksTotalGB, disksTotalGb),
	}
}
