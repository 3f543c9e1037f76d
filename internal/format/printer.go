package format

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yaroslav/gcompute/models"
)

// Output formats.
const (
	FormatTable  = "table"
	FormatSparse = "sparse"
	FormatJSON   = "json"
	FormatCSV    = "csv"
	FormatNames  = "names"
	FormatYAML   = "yaml"
)

// Section headers printed when a list mixes resources and operations.
const (
	ResourcesHeader  = "\nTable of resources:\n"
	OperationsHeader = "\nTable of operations:\n"
)

// ResourceSpec describes how one collection is printed.
type ResourceSpec struct {
	// SummaryFields are the columns of a list.
	SummaryFields Fields

	// DetailFields are the rows of a single resource. Nothing is printed
	// for a single resource when empty.
	DetailFields Fields

	// DefaultSortField orders lists when no --sort_by is given.
	DefaultSortField string

	// Customize adds rows to the detail table of a non-operation resource.
	Customize func(result models.Resource, table Table)
}

// ListOptions control how a list command prints its result.
type ListOptions struct {
	// SortBy is a column title, prefixed with "-" for descending order.
	SortBy string

	// MaxResults truncates the printed rows unless FetchAll is set.
	MaxResults int

	// FetchAll disables truncation.
	FetchAll bool
}

// Printer writes results in the configured format.
type Printer struct {
	Out       io.Writer
	Format    string
	Presenter *Presenter
	Logger    *zap.Logger
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, format string, presenter *Presenter, logger *zap.Logger) *Printer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Printer{Out: out, Format: format, Presenter: presenter, Logger: logger}
}

// PrintResult prints the result of a command.
//
// Lists are split into resources and operations and printed as up to two
// tables. A single resource is printed as a property/value table.
func (p *Printer) PrintResult(result models.Resource, spec ResourceSpec) error {
	if done, err := p.printRaw(result); done {
		return err
	}
	if result.IsList() {
		p.printList(result, spec)
		return nil
	}
	p.printDetail(result, spec)
	return nil
}

// PrintList prints the result of a list command: a single table sorted by
// opts.SortBy or spec.DefaultSortField and truncated to opts.MaxResults.
func (p *Printer) PrintList(result models.Resource, spec ResourceSpec, opts ListOptions) error {
	if done, err := p.printRaw(result); done {
		return err
	}

	rows := make([][]string, 0)
	for _, item := range result.Items() {
		rows = append(rows, p.Presenter.FlattenObjectToList(item, spec.SummaryFields))
	}

	sortCol := opts.SortBy
	if sortCol == "" {
		sortCol = spec.DefaultSortField
	}
	if sortCol != "" {
		rows = p.sortRows(rows, spec.SummaryFields, sortCol)
	}

	if !opts.FetchAll && opts.MaxResults > 0 && len(rows) > opts.MaxResults {
		rows = rows[:opts.MaxResults]
	}

	table := NewTable(p.Format)
	table.AddColumns(spec.SummaryFields.Titles())
	for _, row := range rows {
		table.AddRow(row)
	}
	fmt.Fprintln(p.Out, table.String())
	return nil
}

// printRaw handles the formats that do not build a table. It reports
// whether the result was fully handled.
func (p *Printer) printRaw(result models.Resource) (bool, error) {
	switch p.Format {
	case FormatJSON:
		data, err := json.Marshal(result)
		if err != nil {
			return true, fmt.Errorf("failed to encode result: %w", err)
		}
		// jsoniter does not indent nested map values consistently.
		var buf bytes.Buffer
		if err := stdjson.Indent(&buf, data, "", "  "); err != nil {
			return true, fmt.Errorf("failed to indent result: %w", err)
		}
		fmt.Fprintln(p.Out, buf.String())
		return true, nil
	case FormatYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return true, fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprint(p.Out, string(data))
		return true, nil
	}

	if len(result) == 0 {
		return true, nil
	}
	if p.Format == FormatNames {
		p.printNames(result)
		return true, nil
	}
	return false, nil
}

func (p *Printer) printNames(result models.Resource) {
	items := []models.Resource{result}
	if result.IsList() {
		items = result.Items()
	}
	for _, item := range items {
		if name := item.Name(); name != "" {
			fmt.Fprintln(p.Out, name)
		}
	}
}

func (p *Printer) printList(result models.Resource, spec ResourceSpec) {
	var res, ops []models.Resource
	for _, item := range result.Items() {
		if item.IsOperation() {
			ops = append(ops, item)
		} else {
			res = append(res, item)
		}
	}

	resHeader, opsHeader := "", ""
	if len(res) > 0 && len(ops) > 0 {
		resHeader, opsHeader = ResourcesHeader, OperationsHeader
	}

	if len(res) > 0 || len(ops) == 0 {
		p.printTable(res, resHeader, spec.SummaryFields)
	}
	if len(ops) > 0 {
		p.printTable(ops, opsHeader, OperationSummaryFields)
	}
}

func (p *Printer) printTable(values []models.Resource, header string, fields Fields) {
	table := NewTable(p.Format)
	table.AddColumns(fields.Titles())
	for _, v := range values {
		table.AddRow(p.Presenter.FlattenObjectToList(v, fields))
	}

	if header != "" {
		fmt.Fprintln(p.Out, header)
	}
	fmt.Fprintln(p.Out, table.String())
}

func (p *Printer) printDetail(result models.Resource, spec ResourceSpec) {
	fields := spec.DetailFields
	if result.IsOperation() {
		fields = OperationDetailFields
	}
	if len(fields) == 0 {
		return
	}

	table := NewTable(p.Format)
	table.AddColumns([]string{"property", "value"})
	for i, v := range p.Presenter.FlattenObjectToList(result, fields) {
		table.AddRow([]string{fields[i].Title, v})
	}

	if result.IsOperation() {
		addOperationErrors(result, table)
	} else if spec.Customize != nil {
		spec.Customize(result, table)
	}

	fmt.Fprintln(p.Out, table.String())
}

func addOperationErrors(op models.Resource, table Table) {
	if _, ok := op["error"]; !ok {
		return
	}

	table.AddRow([]string{"", ""})
	table.AddRow([]string{"errors", ""})
	for _, e := range op.OperationErrors() {
		table.AddRow([]string{"", ""})
		table.AddRow([]string{"  error", e.Code})
		table.AddRow([]string{"  message", e.Message})
	}
}

func (p *Printer) sortRows(rows [][]string, fields Fields, sortCol string) [][]string {
	desc := strings.HasPrefix(sortCol, "-")
	sortCol = strings.TrimPrefix(sortCol, "-")

	idx := fields.Index(sortCol)
	if idx < 0 {
		logFields := []zap.Field{}
		if s := Suggest(sortCol, fields.Titles()); s != "" {
			logFields = append(logFields, zap.String("suggestion", s))
		}
		p.Logger.Warn("Invalid sort column: "+sortCol, logFields...)
		return rows
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return rows[i][idx] > rows[j][idx]
		}
		return rows[i][idx] < rows[j][idx]
	})
	return rows
}

// Suggest returns the candidate closest to s by edit distance, or "" when
// none is close enough to be a likely typo.
func Suggest(s string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(s, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > len(s)/2+1 {
		return ""
	}
	return best
}
