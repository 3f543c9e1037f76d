package format

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Long value display modes.
const (
	DisplayElided = "elided"
	DisplayFull   = "full"
)

const (
	maxColumnWidth = 64
	elidedHalf     = 31
)

// Presenter shortens values for display: API roots and the user's own
// project prefix are stripped and long values are elided.
type Presenter struct {
	Namer   *names.Namer
	Project string
	Display string
}

// NewPresenter returns a Presenter for namer's project.
func NewPresenter(namer *names.Namer, display string) *Presenter {
	return &Presenter{Namer: namer, Project: namer.Project, Display: display}
}

// PresentElement formats a single JSON value for a table cell.
// Non-string values are returned unchanged.
func (p *Presenter) PresentElement(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}

	s = strings.Trim(p.Namer.StripBaseURL(s), "/")
	if strings.HasPrefix(s, "projects/"+p.Project) {
		parts := strings.Split(s, "/")
		if len(parts) > 3 {
			s = strings.Join(parts[3:], "/")
		} else {
			s = parts[len(parts)-1]
		}
	}

	if p.Display == DisplayElided && len(s) > maxColumnWidth {
		return s[:elidedHalf] + ".." + s[len(s)-elidedHalf:]
	}
	return s
}

// FlattenObjectToList extracts one cell per field from obj. Lists met on a
// path are expanded and their values joined with ",". A path that matches
// nothing yields "".
func (p *Presenter) FlattenObjectToList(obj interface{}, fields Fields) []string {
	row := make([]string, 0, len(fields))
	for _, field := range fields {
		var elements []interface{}
		for _, path := range field.Paths {
			elements = p.extract(obj, strings.Split(path, "."))
			if len(elements) > 0 {
				break
			}
		}

		cells := make([]string, len(elements))
		for i, e := range elements {
			cells[i] = stringify(e)
		}
		row = append(row, strings.Join(cells, ","))
	}
	return row
}

func (p *Presenter) extract(obj interface{}, path []string) []interface{} {
	if len(path) == 0 {
		return []interface{}{p.PresentElement(obj)}
	}

	m, ok := models.AsMap(obj)
	if !ok {
		return nil
	}
	element, ok := m[path[0]]
	if !ok {
		return nil
	}

	switch list := element.(type) {
	case []interface{}:
		var out []interface{}
		for _, item := range list {
			out = append(out, p.extract(item, path[1:])...)
		}
		return out
	case []models.Resource:
		var out []interface{}
		for _, item := range list {
			out = append(out, p.extract(item, path[1:])...)
		}
		return out
	}
	return p.extract(element, path[1:])
}

// stringify renders a leaf value. Whole numbers print without a fraction.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case jsoniter.Number:
		return t.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
