package models

// Zone is the typed view of a compute zone.
type Zone struct {
	// Name is the zone name (e.g., "us-central1-a")
	Name string `json:"name"`

	// Status is UP or DOWN
	Status string `json:"status,omitempty"`

	// SelfLink is the fully qualified URL of the zone
	SelfLink string `json:"selfLink,omitempty"`

	// MaintenanceWindows lists the scheduled maintenance periods
	MaintenanceWindows []MaintenanceWindow `json:"maintenanceWindows,omitempty"`

	// Quotas lists the per-zone quota metrics
	Quotas []Quota `json:"quotas,omitempty"`

	// Deprecated is set when the zone is being retired
	Deprecated *Deprecation `json:"deprecated,omitempty"`
}

// MaintenanceWindow is a scheduled period during which a zone is unavailable.
// BeginTime and EndTime are ISO 8601 timestamps. The server may omit the
// timezone offset, in which case UTC is assumed.
type MaintenanceWindow struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BeginTime   string `json:"beginTime"`
	EndTime     string `json:"endTime"`
}

// Deprecation describes the deprecation status of a resource.
type Deprecation struct {
	// State is DEPRECATED, OBSOLETE or DELETED
	State string `json:"state"`

	// Replacement is the URL of the suggested replacement resource
	Replacement string `json:"replacement,omitempty"`
}

// DeprecationStateDeprecated marks resources that still work but should not
// be chosen for new workloads.
const DeprecationStateDeprecated = "DEPRECATED"
