// Package fakecompute is an in-memory implementation of the compute REST API
// used by tests and local development.
//
// It serves projects, zones, machine types, kernels, images, instances,
// disks, snapshots and operations for both supported API versions. Inserts
// and deletes return operations that reach DONE after a configurable number
// of polls. New snapshots become READY after a configurable number of
// snapshot lists. Quota usage is computed from the stored resources.
package fakecompute

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

// Collections with special handling.
const (
	collectionInstances    = "instances"
	collectionDisks        = "disks"
	collectionSnapshots    = "snapshots"
	collectionImages       = "images"
	collectionKernels      = "kernels"
	collectionMachineTypes = "machineTypes"
	collectionZones        = "zones"
	collectionOperations   = "operations"

	// projectsPath is the store path holding project resources.
	projectsPath = "projects"

	// Snapshot states.
	snapshotCreating = "CREATING"
	snapshotReady    = "READY"

	// DefaultUser is reported as the user of every operation.
	DefaultUser = "user@example.com"
)

// Config holds configuration for creating a Server.
type Config struct {
	// Logger receives request logs (optional)
	Logger *zap.Logger

	// AccessToken, when set, is the only bearer token accepted
	AccessToken string

	// OperationPolls is the number of GETs an operation answers with
	// PENDING before it reports DONE. Zero completes operations at once.
	OperationPolls int

	// SnapshotPolls is the number of snapshot list reads a new snapshot
	// reports CREATING before it becomes READY. Single GETs do not count.
	// Zero creates READY snapshots.
	SnapshotPolls int

	// RequestsPerSecond limits requests per client IP. Zero disables
	// limiting.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size (default: 10)
	Burst int

	// Now returns the current time (default: time.Now)
	Now func() time.Time
}

// pendingOperation tracks an operation that is not DONE yet.
type pendingOperation struct {
	remaining int
	failure   *models.OperationError
}

// Server is a fake compute API.
type Server struct {
	config Config
	store  *Store
	logger *zap.Logger
	router *gin.Engine

	registry *prometheus.Registry
	metrics  *httpMetrics

	mu               sync.Mutex
	pendingOps       map[string]*pendingOperation
	pendingSnapshots map[string]int
	failures         map[string]models.OperationError
	calls            []string
}

// New creates a Server with an empty store.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Burst == 0 {
		config.Burst = 10
	}

	s := &Server{
		config:           config,
		store:            NewStore(),
		logger:           config.Logger,
		registry:         prometheus.NewRegistry(),
		pendingOps:       make(map[string]*pendingOperation),
		pendingSnapshots: make(map[string]int),
		failures:         make(map[string]models.OperationError),
	}
	s.metrics = newHTTPMetrics(s.registry)
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Calls returns every API request served so far as "METHOD relative-path".
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) recordCall(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

// FailOperation makes every later operation that targets a resource called
// target finish with the given error instead of taking effect.
func (s *Server) FailOperation(target, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[target] = models.OperationError{Code: code, Message: message}
}

// AddProject registers a project. Quota usage is filled in when the project
// is read.
func (s *Server) AddProject(project models.Project) {
	quotas := make([]interface{}, 0, len(project.Quotas))
	for _, q := range project.Quotas {
		quotas = append(quotas, map[string]interface{}{
			"metric": q.Metric,
			"limit":  q.Limit,
			"usage":  q.Usage,
		})
	}
	ips := make([]interface{}, 0, len(project.ExternalIPAddresses))
	for _, ip := range project.ExternalIPAddresses {
		ips = append(ips, ip)
	}

	s.store.Put(projectsPath, models.Resource{
		"kind":                "compute#project",
		"name":                project.Name,
		"description":         project.Description,
		"selfLink":            "projects/" + project.Name,
		"creationTimestamp":   s.timestamp(),
		"quotas":              quotas,
		"externalIpAddresses": ips,
	})
}

// Seed stores resources in the collection at path, e.g.
// "projects/p/zones/z/instances", filling in kind, selfLink, zone and status
// when they are missing.
func (s *Server) Seed(path string, resources ...models.Resource) {
	project, scope, collectionName := splitCollectionPath(path)
	for _, r := range resources {
		r = relativize(r.Clone()).(models.Resource)
		s.fillDefaults(r, project, scope, collectionName)
		s.store.Put(path, r)
	}
}

// splitCollectionPath is the inverse of CollectionPath.
func splitCollectionPath(path string) (project, scope, collectionName string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch len(parts) {
	case 3:
		return parts[1], "", parts[2]
	case 4:
		return parts[1], parts[2], parts[3]
	case 5:
		return parts[1], parts[2] + "/" + parts[3], parts[4]
	}
	return "", "", path
}

func (s *Server) fillDefaults(r models.Resource, project, scope, collectionName string) {
	path := CollectionPath(project, scope, collectionName)
	if r.Kind() == "" {
		r["kind"] = models.KindPrefix + names.Singularize(collectionName)
	}
	if r.SelfLink() == "" {
		r["selfLink"] = path + "/" + r.Name()
	}
	if _, ok := r["id"]; !ok {
		r["id"] = strconv.FormatUint(uint64(uuid.New().ID()), 10)
	}
	if _, ok := r["creationTimestamp"]; !ok {
		r["creationTimestamp"] = s.timestamp()
	}
	if strings.HasPrefix(scope, "zones/") && r.String("zone") == "" {
		r["zone"] = "projects/" + project + "/" + scope
	}

	if r.String("status") != "" {
		return
	}
	switch collectionName {
	case collectionInstances:
		r["status"] = "RUNNING"
	case collectionDisks, collectionSnapshots, collectionImages:
		r["status"] = snapshotReady
	case collectionZones:
		r["status"] = "UP"
	}
}

func (s *Server) timestamp() string {
	return s.config.Now().UTC().Format(time.RFC3339)
}

// operationScope is the scope whose operations collection records changes
// to resources in scope.
func operationScope(scope string) string {
	if strings.HasPrefix(scope, "zones/") {
		return scope
	}
	return names.GlobalZone
}

// startOperation records an operation on targetLink and applies the change
// unless a failure was registered for the target.
func (s *Server) startOperation(project, scope, operationType, targetLink string, apply func() error) (models.Resource, error) {
	s.mu.Lock()
	failure, failing := s.failures[lastSegment(targetLink)]
	s.mu.Unlock()

	if !failing {
		if err := apply(); err != nil {
			return nil, err
		}
	}

	opScope := operationScope(scope)
	path := CollectionPath(project, opScope, collectionOperations)
	name := "operation-" + uuid.New().String()
	now := s.timestamp()

	op := models.Resource{
		"kind":          "compute#operation",
		"id":            strconv.FormatUint(uint64(uuid.New().ID()), 10),
		"name":          name,
		"selfLink":      path + "/" + name,
		"operationType": operationType,
		"targetLink":    targetLink,
		"status":        "PENDING",
		"progress":      0,
		"user":          DefaultUser,
		"insertTime":    now,
		"startTime":     now,
	}
	if opScope != names.GlobalZone {
		op["zone"] = "projects/" + project + "/" + opScope
	}

	pending := &pendingOperation{remaining: s.config.OperationPolls}
	if failing {
		pending.failure = &failure
	}
	if pending.remaining <= 0 {
		s.completeOperation(op, pending.failure)
	} else {
		s.mu.Lock()
		s.pendingOps[path+"/"+name] = pending
		s.mu.Unlock()
	}

	s.store.Put(path, op)
	return op, nil
}

func (s *Server) completeOperation(op models.Resource, failure *models.OperationError) {
	op["status"] = models.OperationStatusDone
	op["progress"] = 100
	op["endTime"] = s.timestamp()
	if failure != nil {
		op["httpErrorStatusCode"] = http.StatusBadRequest
		op["httpErrorMessage"] = "BAD REQUEST"
		op["error"] = map[string]interface{}{
			"errors": []interface{}{
				map[string]interface{}{
					"code":    failure.Code,
					"message": failure.Message,
				},
			},
		}
	}
}

// pollOperation returns the operation and moves it one poll closer to DONE.
func (s *Server) pollOperation(path, name string) (models.Resource, error) {
	key := path + "/" + name

	s.mu.Lock()
	pending, ok := s.pendingOps[key]
	if ok {
		pending.remaining--
		if pending.remaining <= 0 {
			delete(s.pendingOps, key)
		}
	}
	s.mu.Unlock()

	if !ok || pending.remaining > 0 {
		return s.store.Get(path, name)
	}
	return s.store.Update(path, name, func(op models.Resource) {
		s.completeOperation(op, pending.failure)
	})
}

// advanceSnapshots moves every CREATING snapshot of project one list closer
// to READY.
func (s *Server) advanceSnapshots(project string) {
	prefix := "projects/" + project + "/"

	s.mu.Lock()
	var ready []string
	for link, remaining := range s.pendingSnapshots {
		if !strings.HasPrefix(link, prefix) {
			continue
		}
		remaining--
		if remaining <= 0 {
			delete(s.pendingSnapshots, link)
			ready = append(ready, link)
			continue
		}
		s.pendingSnapshots[link] = remaining
	}
	s.mu.Unlock()

	for _, link := range ready {
		i := strings.LastIndex(link, "/")
		_, _ = s.store.Update(link[:i], link[i+1:], func(r models.Resource) {
			r["status"] = snapshotReady
		})
	}
}

// usage computes the quota usage of project, limited to zone when set.
func (s *Server) usage(project, zone string) map[string]float64 {
	var instances, disks []models.Resource
	if zone != "" {
		instances = s.store.List(CollectionPath(project, "zones/"+zone, collectionInstances))
		disks = s.store.List(CollectionPath(project, "zones/"+zone, collectionDisks))
	} else {
		instances = s.store.ListAll(project, collectionInstances)
		disks = s.store.ListAll(project, collectionDisks)
	}

	cpus := make(map[string]float64)
	for _, mt := range s.store.ListAll(project, collectionMachineTypes) {
		cpus[mt.Name()] = mt.Float("guestCpus")
	}

	usage := map[string]float64{
		models.QuotaInstances:    float64(len(instances)),
		models.QuotaDisks:        float64(len(disks)),
		models.QuotaCPUs:         0,
		models.QuotaDisksTotalGB: 0,
	}
	for _, i := range instances {
		usage[models.QuotaCPUs] += cpus[lastSegment(i.String("machineType"))]
	}
	for _, d := range disks {
		usage[models.QuotaDisksTotalGB] += d.Float("sizeGb")
	}
	if zone == "" {
		usage[models.QuotaSnapshots] = float64(len(s.store.ListAll(project, collectionSnapshots)))
	}
	return usage
}

// withUsage fills in the usage of every quota of r that the server tracks.
func (s *Server) withUsage(r models.Resource, project, zone string) models.Resource {
	quotas, ok := r["quotas"].([]interface{})
	if !ok {
		return r
	}
	usage := s.usage(project, zone)
	for _, q := range quotas {
		m, ok := models.AsMap(q)
		if !ok {
			continue
		}
		metric, _ := m["metric"].(string)
		if value, tracked := usage[metric]; tracked {
			m["usage"] = value
		}
	}
	return r
}

// externalIPs returns the reserved addresses of project.
func (s *Server) externalIPs(project string) map[string]bool {
	result := make(map[string]bool)
	p, err := s.store.Get(projectsPath, project)
	if err != nil {
		return result
	}
	if ips, ok := p["externalIpAddresses"].([]interface{}); ok {
		for _, ip := range ips {
			if str, ok := ip.(string); ok {
				result[str] = true
			}
		}
	}
	return result
}
