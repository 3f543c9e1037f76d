package fakecompute

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

const (
	// defaultMaxResults is the page size when maxResults is not given.
	defaultMaxResults = 500

	// defaultDiskSizeGb is the size of disks created without a size.
	defaultDiskSizeGb = "10"
)

// readOnly collections cannot be inserted into or deleted from.
var readOnly = map[string]bool{
	collectionZones:        true,
	collectionMachineTypes: true,
	collectionKernels:      true,
}

// perZone collections live in a zone since v1beta14.
var perZone = map[string]bool{
	collectionInstances: true,
	collectionDisks:     true,
}

// topLevel collections live directly under the project.
var topLevel = map[string]bool{
	collectionZones:        true,
	collectionMachineTypes: true,
}

// listPage is one page of a list response.
type listPage struct {
	items         []models.Resource
	nextPageToken string
}

var filterPattern = regexp.MustCompile(`^\s*(\S+)\s+(eq|ne)\s+(.*?)\s*$`)

// compileFilter parses "<field> eq|ne <regex>". The regex must match the
// whole field value.
func compileFilter(expr string) (func(models.Resource) bool, error) {
	if strings.TrimSpace(expr) == "" {
		return func(models.Resource) bool { return true }, nil
	}
	m := filterPattern.FindStringSubmatch(expr)
	if m == nil {
		return nil, invalid("Invalid value for field 'filter': '%s'", expr)
	}
	re, err := regexp.Compile("^(?:" + m[3] + ")$")
	if err != nil {
		return nil, invalid("Invalid value for field 'filter': '%s'", expr)
	}

	field, equal := m[1], m[2] == "eq"
	return func(r models.Resource) bool {
		value := ""
		if v, ok := r.Lookup(field); ok {
			if s, ok := v.(string); ok {
				value = s
			}
		}
		return re.MatchString(value) == equal
	}, nil
}

// paginate filters items and returns the page selected by maxResults and
// pageToken. The page token is the offset of the first item.
func paginate(items []models.Resource, filter, maxResults, pageToken string) (listPage, error) {
	match, err := compileFilter(filter)
	if err != nil {
		return listPage{}, err
	}
	filtered := make([]models.Resource, 0, len(items))
	for _, item := range items {
		if match(item) {
			filtered = append(filtered, item)
		}
	}

	limit := defaultMaxResults
	if maxResults != "" {
		n, err := strconv.Atoi(maxResults)
		if err != nil || n < 0 {
			return listPage{}, invalid("Invalid value for field 'maxResults': '%s'", maxResults)
		}
		if n > 0 && n < defaultMaxResults {
			limit = n
		}
	}

	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 || n > len(filtered) {
			return listPage{}, invalid("Invalid value for field 'pageToken': '%s'", pageToken)
		}
		offset = n
	}

	end := offset + limit
	page := listPage{}
	if end < len(filtered) {
		page.nextPageToken = strconv.Itoa(end)
	} else {
		end = len(filtered)
	}
	page.items = filtered[offset:end]
	return page, nil
}

// get returns a single resource. An empty scope searches every scope of
// the project.
func (s *Server) get(project, scope, collectionName, name string) (models.Resource, error) {
	path, err := s.resolvePath(project, scope, collectionName, name)
	if err != nil {
		return nil, err
	}

	switch collectionName {
	case collectionOperations:
		return s.pollOperation(path, name)
	case collectionZones:
		r, err := s.store.Get(path, name)
		if err != nil {
			return nil, err
		}
		return s.withUsage(r, project, name), nil
	}
	return s.store.Get(path, name)
}

// list returns every resource of a collection. An empty scope lists every
// scope of the project for per-zone and global collections. Listing
// snapshots is what moves CREATING snapshots towards READY.
func (s *Server) list(project, scope, collectionName string) []models.Resource {
	if collectionName == collectionSnapshots {
		s.advanceSnapshots(project)
	}

	var items []models.Resource
	if scope == "" && !topLevel[collectionName] {
		items = s.store.ListAll(project, collectionName)
	} else {
		items = s.store.List(CollectionPath(project, scope, collectionName))
	}

	if collectionName == collectionZones {
		for _, zone := range items {
			s.withUsage(zone, project, zone.Name())
		}
	}
	return items
}

// resolvePath returns the collection path holding name.
func (s *Server) resolvePath(project, scope, collectionName, name string) (string, error) {
	if scope != "" || topLevel[collectionName] {
		return CollectionPath(project, scope, collectionName), nil
	}
	path, _, err := s.store.Find(project, collectionName, name)
	return path, err
}

// insert validates and stores a new resource and returns its operation.
//
// Parameters:
//   - project: Project of the collection
//   - scope: "zones/<zone>", "global", or "" for unscoped requests
//   - collectionName: Collection to insert into
//   - body: The resource as sent by the client
//
// Returns:
//   - models.Resource: The insert operation
//   - error: An apiError describing why the request was rejected
func (s *Server) insert(project, scope, collectionName string, body models.Resource) (models.Resource, error) {
	if readOnly[collectionName] || collectionName == collectionOperations {
		return nil, invalid("Collection '%s' does not support insert", collectionName)
	}

	r := relativize(body).(models.Resource)
	if r.Name() == "" {
		return nil, invalid("Required field 'resource.name' not specified")
	}

	scope, err := s.insertScope(scope, collectionName, r)
	if err != nil {
		return nil, err
	}
	path := CollectionPath(project, scope, collectionName)
	r["selfLink"] = path + "/" + r.Name()

	switch collectionName {
	case collectionInstances:
		err = s.prepareInstance(project, scope, r)
	case collectionDisks:
		err = s.prepareDisk(r)
	case collectionSnapshots:
		err = s.prepareSnapshot(r)
	}
	if err != nil {
		return nil, err
	}
	s.fillDefaults(r, project, scope, collectionName)

	return s.startOperation(project, scope, "insert", r.SelfLink(), func() error {
		if err := s.store.Insert(path, r); err != nil {
			return err
		}
		if collectionName == collectionSnapshots && r.Status() == snapshotCreating {
			s.mu.Lock()
			s.pendingSnapshots[r.SelfLink()] = s.config.SnapshotPolls
			s.mu.Unlock()
		}
		return nil
	})
}

// insertScope picks the scope of a new resource. Unscoped requests take the
// zone of per-zone resources from the body.
func (s *Server) insertScope(scope, collectionName string, r models.Resource) (string, error) {
	if scope != "" || topLevel[collectionName] {
		return scope, nil
	}
	if !perZone[collectionName] {
		return names.GlobalZone, nil
	}
	zone := lastSegment(r.String("zone"))
	if zone == "" {
		return "", invalid("Required field 'resource.zone' not specified")
	}
	return "zones/" + zone, nil
}

func (s *Server) prepareInstance(project, scope string, r models.Resource) error {
	disksPath := CollectionPath(project, scope, collectionDisks)

	disks, _ := r["disks"].([]interface{})
	for _, d := range disks {
		disk, ok := models.AsMap(d)
		if !ok || disk["type"] != "PERSISTENT" {
			continue
		}
		source, _ := disk["source"].(string)
		i := strings.LastIndex(source, "/")
		if i < 0 {
			return invalid("Invalid value for field 'resource.disks[].source': '%s'", source)
		}
		if _, err := s.store.Get(source[:i], source[i+1:]); err != nil {
			return err
		}
		if source[:i] != disksPath {
			return invalid("Disk '%s' is not in the zone of the instance", source)
		}
	}

	reserved := s.externalIPs(project)
	interfaces, _ := r["networkInterfaces"].([]interface{})
	for _, ni := range interfaces {
		m, ok := models.AsMap(ni)
		if !ok {
			continue
		}
		configs, _ := m["accessConfigs"].([]interface{})
		for _, ac := range configs {
			cfg, ok := models.AsMap(ac)
			if !ok {
				continue
			}
			if ip, _ := cfg["natIP"].(string); ip != "" && !reserved[ip] {
				return invalid("Requested IP address '%s' is not reserved in project '%s'", ip, project)
			}
		}
	}

	r["status"] = "RUNNING"
	return nil
}

func (s *Server) prepareDisk(r models.Resource) error {
	if link := r.String("sourceSnapshot"); link != "" {
		i := strings.LastIndex(link, "/")
		if i < 0 {
			return invalid("Invalid value for field 'resource.sourceSnapshot': '%s'", link)
		}
		snapshot, err := s.store.Get(link[:i], link[i+1:])
		if err != nil {
			return err
		}
		if snapshot.Status() != snapshotReady {
			return invalid("The snapshot '%s' is not ready", link)
		}
		r["sizeGb"] = snapshot.String("diskSizeGb")
	}
	if _, ok := r["sizeGb"]; !ok {
		r["sizeGb"] = defaultDiskSizeGb
	}
	r["status"] = snapshotReady
	return nil
}

func (s *Server) prepareSnapshot(r models.Resource) error {
	link := r.String("sourceDisk")
	i := strings.LastIndex(link, "/")
	if i < 0 {
		return invalid("Required field 'resource.sourceDisk' not specified")
	}
	disk, err := s.store.Get(link[:i], link[i+1:])
	if err != nil {
		return err
	}
	r["diskSizeGb"] = strconv.FormatFloat(disk.Float("sizeGb"), 'f', -1, 64)
	r["status"] = snapshotReady
	if s.config.SnapshotPolls > 0 {
		r["status"] = snapshotCreating
	}
	return nil
}

// remove deletes a resource and returns its operation. Deleting an
// operation returns nil.
func (s *Server) remove(project, scope, collectionName, name string) (models.Resource, error) {
	if readOnly[collectionName] {
		return nil, invalid("Collection '%s' does not support delete", collectionName)
	}

	path, err := s.resolvePath(project, scope, collectionName, name)
	if err != nil {
		return nil, err
	}
	if collectionName == collectionOperations {
		return nil, s.store.Delete(path, name)
	}
	if _, err := s.store.Get(path, name); err != nil {
		return nil, err
	}

	link := path + "/" + name
	if collectionName == collectionDisks {
		if user := s.diskUser(project, link); user != "" {
			return nil, &apiError{
				kind:    models.ErrResourceInUse,
				message: "The disk resource '" + link + "' is already being used by '" + user + "'",
			}
		}
	}

	_, scope, _ = splitCollectionPath(path)
	return s.startOperation(project, scope, "delete", link, func() error {
		return s.store.Delete(path, name)
	})
}

// diskUser returns the selfLink of an instance using the disk, or "".
func (s *Server) diskUser(project, diskLink string) string {
	for _, instance := range s.store.ListAll(project, collectionInstances) {
		disks, _ := instance["disks"].([]interface{})
		for _, d := range disks {
			if disk, ok := models.AsMap(d); ok && disk["source"] == diskLink {
				return instance.SelfLink()
			}
		}
	}
	return ""
}
