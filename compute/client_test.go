package compute

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		APIHost:        server.URL,
		ServiceVersion: "v1beta14",
		Project:        "my-project",
		AccessToken:    "secret-token",
		RetryWaitMin:   time.Millisecond,
		RetryWaitMax:   5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		config  ClientConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  ClientConfig{APIHost: "https://www.googleapis.com/", ServiceVersion: "v1beta14", Project: "p"},
			wantErr: false,
		},
		{
			name:    "host without trailing slash",
			config:  ClientConfig{APIHost: "http://localhost:8080", ServiceVersion: "v1beta13", Project: "p"},
			wantErr: false,
		},
		{
			name:    "missing host",
			config:  ClientConfig{ServiceVersion: "v1beta14", Project: "p"},
			wantErr: true,
		},
		{
			name:    "invalid scheme",
			config:  ClientConfig{APIHost: "ftp://host/", ServiceVersion: "v1beta14", Project: "p"},
			wantErr: true,
		},
		{
			name:    "unknown version",
			config:  ClientConfig{APIHost: "https://host/", ServiceVersion: "v2", Project: "p"},
			wantErr: true,
		},
		{
			name:    "missing project",
			config:  ClientConfig{APIHost: "https://host/", ServiceVersion: "v1beta14"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("NewClient() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient() unexpected error = %v", err)
			}
			if !strings.HasSuffix(client.Namer.APIHost, "/") {
				t.Errorf("api host %q should end in /", client.Namer.APIHost)
			}
		})
	}
}

func TestClient_GetSendsHeadersAndTrace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/compute/v1beta14/projects/my-project/zones/z1/instances/i1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("trace"); got != "token:abc" {
			t.Errorf("trace = %q, want token:abc", got)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"kind": "compute#instance", "name": "i1"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	client.TraceToken = "abc"

	got, err := client.Get(context.Background(), client.ResourcePath("z1", CollectionInstances, "i1"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name() != "i1" {
		t.Errorf("Get() name = %q, want i1", got.Name())
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"kind": "compute#project", "name": "my-project"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	project, err := client.GetProject(context.Background())
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if project.Name() != "my-project" {
		t.Errorf("GetProject() name = %q", project.Name())
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestClient_GivesUpAfterRetryAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Get(context.Background(), "projects/my-project")
	if !errors.Is(err, ErrServerError) {
		t.Fatalf("Get() error = %v, want ErrServerError", err)
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Errorf("server called %d times, want 4", got)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    404,
				"message": "The resource 'i1' was not found",
				"errors": []map[string]interface{}{
					{"reason": "notFound", "message": "The resource 'i1' was not found"},
					{"reason": "notFound", "message": "Second message"},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Get(context.Background(), "projects/my-project/zones/z1/instances/i1")

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Get() error = %v, want *HTTPError", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false, want true")
	}
	if got := httpErr.Error(); got != "The resource 'i1' was not found\nSecond message" {
		t.Errorf("Error() = %q", got)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server called %d times, want 1", got)
	}
}

func TestClient_ErrorWithoutBodyUsesReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Get(context.Background(), "projects/my-project")
	if err == nil || err.Error() != "Forbidden" {
		t.Errorf("Get() error = %v, want Forbidden", err)
	}
}

func TestClient_InsertSendsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if body["name"] != "d1" {
			t.Errorf("body name = %v", body["name"])
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"kind": "compute#operation", "name": "op-1", "status": "PENDING"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	op, err := client.Insert(context.Background(), client.CollectionPath("z1", CollectionDisks), map[string]interface{}{"name": "d1"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if !op.IsOperation() {
		t.Errorf("Insert() returned %v, want an operation", op)
	}
}

func TestClient_All(t *testing.T) {
	pages := map[string]map[string]interface{}{
		"":    {"kind": "numbers", "items": []interface{}{item("1"), item("2"), item("3")}, "nextPageToken": "abc"},
		"abc": {"kind": "numbers", "items": []interface{}{item("4"), item("5"), item("6")}},
	}

	tests := []struct {
		name       string
		paged      bool
		maxResults int
		want       []string
	}{
		{"no paging", false, 0, []string{"1", "2", "3"}},
		{"paging", true, 0, []string{"1", "2", "3", "4", "5", "6"}},
		{"no paging and slicing", false, 2, []string{"1", "2"}},
		{"paging and slicing", true, 5, []string{"1", "2", "3", "4", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if got := q.Get("filter"); got != "name eq i.*" {
					t.Errorf("filter = %q", got)
				}
				if tt.maxResults > 0 && q.Get("maxResults") == "" {
					t.Error("maxResults not sent")
				}
				page := pages[q.Get("pageToken")]
				if !tt.paged {
					page = map[string]interface{}{"kind": "numbers", "items": pages[""]["items"]}
				}
				writeJSON(w, http.StatusOK, page)
			}))
			defer server.Close()

			client := newTestClient(t, server)
			got, err := client.AllNames(context.Background(), "projects/my-project/global/images",
				ListOptions{MaxResults: tt.maxResults, Filter: "name eq i.*"})
			if err != nil {
				t.Fatalf("AllNames() error = %v", err)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("AllNames() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_AllEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"kind": "numbers"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	got, err := client.All(context.Background(), "projects/my-project/zones", ListOptions{})
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if got.Kind() != "numbers" || len(got.Items()) != 0 {
		t.Errorf("All() = %v, want empty numbers list", got)
	}
}

func TestClient_GetOperationUsesScope(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{"kind": "compute#operation", "status": "DONE"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	base := client.Namer.BaseURL()

	_, _ = client.GetOperation(context.Background(), map[string]interface{}{
		"name":     "op-1",
		"selfLink": base + "/projects/my-project/zones/z1/operations/op-1",
	})
	_, _ = client.GetOperation(context.Background(), map[string]interface{}{
		"name":     "op-2",
		"selfLink": base + "/projects/my-project/global/operations/op-2",
	})

	want := []string{
		"/compute/v1beta14/projects/my-project/zones/z1/operations/op-1",
		"/compute/v1beta14/projects/my-project/global/operations/op-2",
	}
	if strings.Join(paths, " ") != strings.Join(want, " ") {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestCollectionFromURL(t *testing.T) {
	tests := map[string]string{
		"https://h/compute/v1beta14/projects/p/zones/z/instances/i?trace=x": CollectionInstances,
		"https://h/compute/v1beta14/projects/p/zones/z":                     CollectionZones,
		"https://h/compute/v1beta14/projects/p/zones/z/operations/op":       CollectionOperations,
		"https://h/compute/v1beta14/projects/p":                             CollectionProjects,
	}
	for in, want := range tests {
		if got := collectionFromURL(in); got != want {
			t.Errorf("collectionFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func item(name string) map[string]interface{} {
	return map[string]interface{}{"name": name}
}
