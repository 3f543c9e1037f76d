package models

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind suffixes used by the compute API.
const (
	KindPrefix          = "compute#"
	OperationStatusDone = "DONE"

	operationSuffix = "#operation"
	listSuffix      = "List"
)

// ListResultNote is attached to list results that the client assembled from
// several API calls.
const ListResultNote = "This JSON result is based on multiple API calls. This object was created in the client."

// Resource is a single compute API object as decoded from JSON.
// Fields are kept verbatim so that output formats can render anything the
// server returns.
type Resource map[string]interface{}

// AsMap returns v as a plain JSON object if it is one.
// Both Resource and map[string]interface{} values are accepted because
// results built by the client hold Resource values while decoded responses
// hold plain maps.
func AsMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case Resource:
		return m, true
	case map[string]interface{}:
		return m, true
	}
	return nil, false
}

// String returns the string value stored under key, or "" when the key is
// missing or not a string.
func (r Resource) String(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// Float returns the numeric value stored under key. The API encodes 64-bit
// integers such as sizeGb as strings, so numeric strings are accepted too.
// It returns 0 when the key is missing or not a number.
func (r Resource) Float(key string) float64 {
	return ToFloat(r[key])
}

// ToFloat converts a decoded JSON number or numeric string to float64.
func ToFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case jsoniter.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Kind returns the resource kind, e.g. "compute#instance".
func (r Resource) Kind() string {
	return r.String("kind")
}

// Name returns the resource name.
func (r Resource) Name() string {
	return r.String("name")
}

// SelfLink returns the fully qualified URL of the resource.
func (r Resource) SelfLink() string {
	return r.String("selfLink")
}

// IsOperation reports whether the resource is an operation.
func (r Resource) IsOperation() bool {
	return strings.HasSuffix(r.Kind(), operationSuffix)
}

// IsList reports whether the resource is a list.
func (r Resource) IsList() bool {
	return strings.HasSuffix(r.Kind(), listSuffix)
}

// Lookup walks a dotted path through nested objects.
// Lists are not expanded; use the format package for that.
func (r Resource) Lookup(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(r)
	for _, key := range strings.Split(path, ".") {
		m, ok := AsMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Items returns the items of a list resource.
func (r Resource) Items() []Resource {
	var raw []interface{}
	switch v := r["items"].(type) {
	case []interface{}:
		raw = v
	case []Resource:
		return v
	default:
		return nil
	}

	items := make([]Resource, 0, len(raw))
	for _, item := range raw {
		if m, ok := AsMap(item); ok {
			items = append(items, Resource(m))
		}
	}
	return items
}

// DeprecationState returns deprecated.state, or "" for current resources.
func (r Resource) DeprecationState() string {
	if v, ok := r.Lookup("deprecated.state"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Clone returns a deep copy of the resource.
func (r Resource) Clone() Resource {
	if r == nil {
		return nil
	}
	return Resource(cloneValue(map[string]interface{}(r)).(map[string]interface{}))
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Resource:
		return cloneValue(map[string]interface{}(t))
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []Resource:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Decode converts the resource into a typed view such as Project or Zone.
func (r Resource) Decode(into interface{}) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, into)
}

// NewList builds a list resource holding items.
func NewList(kind string, items []Resource) Resource {
	raw := make([]interface{}, len(items))
	for i, item := range items {
		raw[i] = item
	}
	return Resource{
		"kind":  kind,
		"items": raw,
	}
}

// MakeListResult wraps results produced by several API calls into a single
// client-side list resource of kind compute#<kindBase>.
func MakeListResult(results []Resource, kindBase string) Resource {
	list := NewList(KindPrefix+kindBase, results)
	list["note"] = ListResultNote
	return list
}
