package models

// Project is the typed view of a compute project.
type Project struct {
	// Name is the project name (lowercase)
	Name string `json:"name"`

	// Description is an optional free-form description
	Description string `json:"description,omitempty"`

	// SelfLink is the fully qualified URL of the project
	SelfLink string `json:"selfLink,omitempty"`

	// Quotas lists the project-wide quota metrics
	Quotas []Quota `json:"quotas,omitempty"`

	// ExternalIPAddresses are the static external IPs reserved by the project
	// Instances being re-created keep their natIP only if it is listed here
	ExternalIPAddresses []string `json:"externalIpAddresses,omitempty"`
}

// Quota is a single quota metric of a project or zone.
type Quota struct {
	// Metric is the quota name (e.g., "CPUS", "DISKS_TOTAL_GB")
	Metric string `json:"metric"`

	// Limit is the maximum allowed value
	Limit float64 `json:"limit"`

	// Usage is the currently consumed value
	Usage float64 `json:"usage"`
}

// Quota metric names checked before moving instances.
const (
	QuotaInstances    = "INSTANCES"
	QuotaCPUs         = "CPUS"
	QuotaDisks        = "DISKS"
	QuotaDisksTotalGB = "DISKS_TOTAL_GB"
	QuotaSnapshots    = "SNAPSHOTS"
)

// HasExternalIP reports whether ip is one of the project's reserved addresses.
func (p *Project) HasExternalIP(ip string) bool {
	for _, addr := range p.ExternalIPAddresses {
		if addr == ip {
			return true
		}
	}
	return false
}
