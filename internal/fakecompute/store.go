package fakecompute

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yaroslav/gcompute/models"
)

// apiError is a store or handler failure with the message the compute API
// would return. Unwrap yields one of the models sentinel errors so the
// handlers can pick the status code.
type apiError struct {
	kind    error
	message string
}

func (e *apiError) Error() string { return e.message }

func (e *apiError) Unwrap() error { return e.kind }

func notFound(path string) error {
	return &apiError{kind: models.ErrNotFound, message: fmt.Sprintf("The resource '%s' was not found", path)}
}

func alreadyExists(path string) error {
	return &apiError{kind: models.ErrConflict, message: fmt.Sprintf("The resource '%s' already exists", path)}
}

func invalid(format string, args ...interface{}) error {
	return &apiError{kind: models.ErrInvalidRequest, message: fmt.Sprintf(format, args...)}
}

// collection holds the resources of one REST collection in insertion order.
type collection struct {
	order []string
	items map[string]models.Resource
}

// Store is an in-memory resource store keyed by relative collection path,
// e.g. "projects/p/zones/z/instances".
//
// Every value handed out is a deep copy, so callers may modify results
// freely.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// CollectionPath builds the relative path of a collection. scope is
// "zones/<zone>", "global" or "" for top-level collections.
func CollectionPath(project, scope, name string) string {
	if scope == "" {
		return "projects/" + project + "/" + name
	}
	return "projects/" + project + "/" + scope + "/" + name
}

// Get returns the resource called name in the collection at path.
func (s *Store) Get(path, name string) (models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[path]
	if !ok {
		return nil, notFound(path + "/" + name)
	}
	r, ok := col.items[name]
	if !ok {
		return nil, notFound(path + "/" + name)
	}
	return r.Clone(), nil
}

// List returns every resource of the collection at path in insertion order.
func (s *Store) List(path string) []models.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[path]
	if !ok {
		return nil
	}
	result := make([]models.Resource, 0, len(col.order))
	for _, name := range col.order {
		result = append(result, col.items[name].Clone())
	}
	return result
}

// Insert adds r to the collection at path. The name must be unused.
func (s *Store) Insert(path string, r models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := r.Name()
	if name == "" {
		return invalid("Required field 'resource.name' not specified")
	}
	col := s.collectionLocked(path)
	if _, exists := col.items[name]; exists {
		return alreadyExists(path + "/" + name)
	}
	col.order = append(col.order, name)
	col.items[name] = r.Clone()
	return nil
}

// Put inserts or replaces r in the collection at path.
func (s *Store) Put(path string, r models.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collectionLocked(path)
	name := r.Name()
	if _, exists := col.items[name]; !exists {
		col.order = append(col.order, name)
	}
	col.items[name] = r.Clone()
}

// Update applies fn to the stored resource and returns a copy of the result.
func (s *Store) Update(path, name string, fn func(models.Resource)) (models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[path]
	if !ok {
		return nil, notFound(path + "/" + name)
	}
	r, ok := col.items[name]
	if !ok {
		return nil, notFound(path + "/" + name)
	}
	fn(r)
	return r.Clone(), nil
}

// Delete removes the resource called name from the collection at path.
func (s *Store) Delete(path, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[path]
	if !ok {
		return notFound(path + "/" + name)
	}
	if _, ok := col.items[name]; !ok {
		return notFound(path + "/" + name)
	}
	delete(col.items, name)
	for i, n := range col.order {
		if n == name {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	return nil
}

// Paths returns the paths of every collection called name in project,
// whatever its scope, sorted.
func (s *Store) Paths(project, name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := "projects/" + project + "/"
	var paths []string
	for path := range s.collections {
		if strings.HasPrefix(path, prefix) && strings.HasSuffix(path, "/"+name) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// ListAll returns the resources of every collection called name in project.
func (s *Store) ListAll(project, name string) []models.Resource {
	var result []models.Resource
	for _, path := range s.Paths(project, name) {
		result = append(result, s.List(path)...)
	}
	return result
}

// Find locates the resource called name in any scope of project and
// returns the path of its collection.
func (s *Store) Find(project, collectionName, name string) (string, models.Resource, error) {
	for _, path := range s.Paths(project, collectionName) {
		if r, err := s.Get(path, name); err == nil {
			return path, r, nil
		}
	}
	return "", nil, notFound(CollectionPath(project, "", collectionName) + "/" + name)
}

func (s *Store) collectionLocked(path string) *collection {
	col, ok := s.collections[path]
	if !ok {
		col = &collection{items: make(map[string]models.Resource)}
		s.collections[path] = col
	}
	return col
}
