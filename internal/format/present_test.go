package format

import (
	"strings"
	"testing"

	"github.com/yaroslav/gcompute/internal/names"
)

func newPresenter(project, display string) *Presenter {
	return NewPresenter(names.NewNamer(names.DefaultAPIHost, "v1beta14", project), display)
}

func TestPresentElement(t *testing.T) {
	longValue := "I am the very model of a modern Major-General. I've " +
		"information vegetable, animal, and mineral. I know the kings " +
		"of England and quote the fights historical; from Marathon to " +
		"Waterloo in order categorical."

	tests := []struct {
		name    string
		display string
		value   interface{}
		want    interface{}
	}{
		{"project url", DisplayElided, "https://www.googleapis.com/compute/v1/projects/user", "user"},
		{"project resource", DisplayElided, "projects/user/machine-types/standard-2-cpu", "standard-2-cpu"},
		{"nested resource", DisplayElided, "projects/user/shared-fate-zones/foo/bar/baz", "foo/bar/baz"},
		{"relative", DisplayElided, "foo/bar/baz", "foo/bar/baz"},
		{"other project", DisplayElided, "projects/google/global/images/debian", "projects/google/global/images/debian"},
		{"elided", DisplayElided, longValue, "I am the very model of a modern.. Waterloo in order categorical."},
		{"full", DisplayFull, longValue, longValue},
		{"number", DisplayElided, 42.0, 42.0},
		{"nil", DisplayElided, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPresenter("user", tt.display)
			if got := p.PresentElement(tt.value); got != tt.want {
				t.Errorf("PresentElement(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestFlattenObjectToList(t *testing.T) {
	elided := strings.Repeat("n", 31) + ".." + strings.Repeat("n", 31)
	want := []string{"foo", "bar", "a,b", "800,800", "1,2,3", elided, "", ""}

	tests := []struct {
		name   string
		fields Fields
		data   map[string]interface{}
	}{
		{
			name: "single targets",
			fields: Fields{
				F("name", "id"),
				F("simple", "path.to.object"),
				F("multiple", "more.elements"),
				F("multiple", "even_more.elements"),
				F("repeated", "things"),
				F("long", "l"),
				F("does not exist", "dne"),
				F("partial match", "path.to.nowhere"),
			},
			data: map[string]interface{}{
				"id":        "https://www.googleapis.com/compute/v1beta1/projects/test/object/foo",
				"path":      map[string]interface{}{"to": map[string]interface{}{"object": "bar"}},
				"more":      []interface{}{map[string]interface{}{"elements": "a"}, map[string]interface{}{"elements": "b"}},
				"even_more": []interface{}{map[string]interface{}{"elements": 800.0}, map[string]interface{}{"elements": 800.0}},
				"things":    []interface{}{1.0, 2.0, 3.0},
				"l":         strings.Repeat("n", 80),
			},
		},
		{
			name: "multiple targets",
			fields: Fields{
				F("name", "name", "id"),
				F("simple", "path.to.object", "foo"),
				F("multiple", "more.elements"),
				F("multiple", "even_more.elements"),
				F("repeated", "things"),
				F("long", "l", "longer"),
				F("does not exist", "dne"),
				F("partial match", "path.to.nowhere"),
			},
			data: map[string]interface{}{
				"name":      "https://www.googleapis.com/compute/v1beta1/projects/test/object/foo",
				"path":      map[string]interface{}{"to": map[string]interface{}{"object": "bar"}},
				"more":      []interface{}{map[string]interface{}{"elements": "a"}, map[string]interface{}{"elements": "b"}},
				"even_more": []interface{}{map[string]interface{}{"elements": 800.0}, map[string]interface{}{"elements": 800.0}},
				"things":    []interface{}{1, 2, 3},
				"longer":    strings.Repeat("n", 80),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPresenter("test", DisplayElided)
			got := p.FlattenObjectToList(tt.data, tt.fields)
			if len(got) != len(want) {
				t.Fatalf("FlattenObjectToList() returned %d cells, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("cell %d (%s) = %q, want %q", i, tt.fields[i].Title, got[i], want[i])
				}
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{nil, ""},
		{"x", "x"},
		{1.5, "1.5"},
		{10.0, "10"},
		{true, "true"},
		{map[string]interface{}{"a": 1.0}, `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stringify(tt.value); got != tt.want {
			t.Errorf("stringify(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
