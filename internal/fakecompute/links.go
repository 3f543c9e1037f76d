package fakecompute

import (
	"regexp"
	"strings"

	"github.com/yaroslav/gcompute/models"
)

// The store keeps resource links relative ("projects/p/zones/z/disks/d") so
// the same state can be served for any host and API version. Links are made
// absolute on the way out and relative again on the way in.

var apiRootPattern = regexp.MustCompile(`^https?://[^/]+/compute/[^/]+/`)

// relativeLink strips the API root from an absolute resource URL.
func relativeLink(s string) string {
	return apiRootPattern.ReplaceAllString(s, "")
}

// lastSegment returns the part of a link after its last "/".
func lastSegment(s string) string {
	s = strings.Trim(s, "/")
	return s[strings.LastIndex(s, "/")+1:]
}

// relativize rewrites every absolute resource URL in v to a relative link.
func relativize(v interface{}) interface{} {
	return rewriteStrings(v, relativeLink)
}

// expand prefixes every relative link in v with root.
func expand(v interface{}, root string) interface{} {
	return rewriteStrings(v, func(s string) string {
		if strings.HasPrefix(s, "projects/") {
			return root + s
		}
		return s
	})
}

func rewriteStrings(v interface{}, fn func(string) string) interface{} {
	switch t := v.(type) {
	case string:
		return fn(t)
	case models.Resource:
		return models.Resource(rewriteStrings(map[string]interface{}(t), fn).(map[string]interface{}))
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = rewriteStrings(val, fn)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = rewriteStrings(val, fn)
		}
		return out
	case []models.Resource:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = rewriteStrings(val, fn)
		}
		return out
	}
	return v
}
