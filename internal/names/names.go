// Package names converts between the short resource names users type and the
// fully qualified resource URLs the compute API expects.
package names

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultAPIHost is the API host used when --api_host is not given.
	DefaultAPIHost = "https://www.googleapis.com/"

	// DefaultServiceVersion is the API version used when --service_version is not given.
	DefaultServiceVersion = "v1beta14"

	// ScopedVersion is the first API version with zone and global scopes in
	// resource paths.
	ScopedVersion = "v1beta14"

	// GlobalZone is the --zone value that selects the global scope.
	GlobalZone = "global"
)

// SupportedVersions lists the known API versions, oldest first.
var SupportedVersions = []string{"v1beta13", "v1beta14"}

// Namer builds and strips resource names for one API host, version and project.
type Namer struct {
	// APIHost is the API host URL, always ending in "/"
	APIHost string

	// ServiceVersion is the API version (e.g., "v1beta14")
	ServiceVersion string

	// Project is the denormalized project name
	Project string

	// baseURLPattern matches any compute/<version>/ root under APIHost.
	baseURLPattern *regexp.Regexp
}

// NewNamer returns a Namer with apiHost normalized to end in "/".
func NewNamer(apiHost, serviceVersion, project string) *Namer {
	if !strings.HasSuffix(apiHost, "/") {
		apiHost += "/"
	}
	return &Namer{
		APIHost:        apiHost,
		ServiceVersion: serviceVersion,
		Project:        project,
		baseURLPattern: compileBaseURLPattern(apiHost),
	}
}

func compileBaseURLPattern(apiHost string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(apiHost) + `compute/\w*/`)
}

// BaseURL returns the API root, e.g. https://www.googleapis.com/compute/v1beta14.
func (n *Namer) BaseURL() string {
	return fmt.Sprintf("%scompute/%s", n.APIHost, n.ServiceVersion)
}

// IsUsingAtLeastAPIVersion reports whether the configured version is the same
// as or newer than required.
func (n *Namer) IsUsingAtLeastAPIVersion(required string) (bool, error) {
	current, given := -1, -1
	for i, v := range SupportedVersions {
		if v == n.ServiceVersion {
			current = i
		}
		if v == required {
			given = i
		}
	}
	if current < 0 || given < 0 {
		return false, fmt.Errorf("API version %s/%s unknown", required, n.ServiceVersion)
	}
	return current >= given, nil
}

// Scoped reports whether resource paths carry a zone or global scope.
func (n *Namer) Scoped() bool {
	ok, err := n.IsUsingAtLeastAPIVersion(ScopedVersion)
	return err == nil && ok
}

func (n *Namer) addBaseURLIfNecessary(path string) string {
	if !strings.Contains(path, n.BaseURL()) {
		return n.BaseURL() + "/" + path
	}
	return path
}

// StripBaseURL removes anything that looks like an API root from the start
// of value. The server does not always echo the exact version, so any
// compute/<version>/ prefix under the API host is removed.
func (n *Namer) StripBaseURL(value string) string {
	pattern := n.baseURLPattern
	if pattern == nil {
		// Namer built without NewNamer.
		pattern = compileBaseURLPattern(n.APIHost)
	}
	return pattern.ReplaceAllString(value, "")
}

// NormalizeResourceName returns the full URL of a resource.
// name may be relative ("my-disk") or already qualified
// ("projects/p/zones/z/disks/my-disk" or a full URL). The scope is ignored
// before ScopedVersion.
func (n *Namer) NormalizeResourceName(project, scope, collection, name string) string {
	name = strings.Trim(name, "/")

	if collection == "machine-types" {
		collection = "machineTypes"
	}

	if strings.HasPrefix(name, "projects/") ||
		strings.HasPrefix(name, collection+"/") ||
		strings.HasPrefix(name, n.APIHost) {
		return n.addBaseURLIfNecessary(name)
	}

	absolute := fmt.Sprintf("projects/%s/%s/%s", project, collection, name)
	if n.Scoped() && scope != "" {
		absolute = fmt.Sprintf("projects/%s/%s/%s/%s", project, scope, collection, name)
	}
	return n.addBaseURLIfNecessary(absolute)
}

// NormalizeTopLevelResourceName normalizes a resource that lives directly
// under the project, such as a zone or machine type.
func (n *Namer) NormalizeTopLevelResourceName(project, collection, name string) string {
	return n.NormalizeResourceName(project, "", collection, name)
}

// NormalizeGlobalResourceName normalizes a resource in the global scope,
// such as an image, kernel or snapshot.
func (n *Namer) NormalizeGlobalResourceName(project, collection, name string) string {
	return n.NormalizeResourceName(project, GlobalZone, collection, name)
}

// NormalizePerZoneResourceName normalizes a resource that lives in a zone,
// such as an instance or disk.
func (n *Namer) NormalizePerZoneResourceName(project, zone, collection, name string) string {
	return n.NormalizeResourceName(project, "zones/"+zone, collection, name)
}

// CollectionPath returns the relative REST path of a collection.
// zone selects a per-zone collection, GlobalZone the global scope and ""
// a top-level collection.
func (n *Namer) CollectionPath(project, zone, collection string) string {
	if !n.Scoped() || zone == "" {
		return fmt.Sprintf("projects/%s/%s", project, collection)
	}
	if zone == GlobalZone {
		return fmt.Sprintf("projects/%s/global/%s", project, collection)
	}
	return fmt.Sprintf("projects/%s/zones/%s/%s", project, zone, collection)
}

// ResourcePath returns the relative REST path of a single resource.
func (n *Namer) ResourcePath(project, zone, collection, name string) string {
	return n.CollectionPath(project, zone, collection) + "/" + DenormalizeResourceName(name)
}

// OperationsPath returns the collection of operations for zone.
// Before ScopedVersion all operations live in a single top-level collection.
func (n *Namer) OperationsPath(project, zone string) string {
	if !n.Scoped() {
		return fmt.Sprintf("projects/%s/operations", project)
	}
	if zone == "" || zone == GlobalZone {
		return fmt.Sprintf("projects/%s/global/operations", project)
	}
	return fmt.Sprintf("projects/%s/zones/%s/operations", project, zone)
}

// ZoneFromSelfLink returns the zone of a per-zone resource URL, or "".
func (n *Namer) ZoneFromSelfLink(selfLink string) string {
	parts := strings.Split(n.StripBaseURL(selfLink), "/")
	if len(parts) > 3 && parts[0] == "projects" && parts[2] == "zones" {
		return parts[3]
	}
	return ""
}

// DenormalizeResourceName returns the name of a resource relative to its
// collection.
func DenormalizeResourceName(name string) string {
	name = strings.Trim(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Errors returned by DenormalizeProjectName.
var (
	ErrMissingProject = errors.New(`You must specify a project name using the "--project" flag.`)
	ErrProjectSlash   = errors.New(`Project names can contain a '/' only when they begin with 'projects/'.`)
)

// DenormalizeProjectName returns the bare project name from the --project
// flag, falling back to the deprecated --project_id.
func DenormalizeProjectName(project, projectID string) (string, error) {
	if project == "" {
		project = projectID
	}
	if project == "" {
		return "", ErrMissingProject
	}
	if strings.ToLower(project) != project {
		return "", fmt.Errorf("Characters in project name must be lowercase: %s.", project)
	}

	project = strings.Trim(project, "/")
	project = strings.TrimPrefix(project, "projects/")
	if strings.Contains(project, "/") {
		return "", ErrProjectSlash
	}
	return project, nil
}
