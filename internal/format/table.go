package format

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode/utf8"
)

// Table collects rows and renders them in one of the table formats.
type Table interface {
	// AddColumns sets the header row.
	AddColumns(columns []string)

	// AddRow appends a row. Missing cells render empty.
	AddRow(row []string)

	// String renders the table without a trailing newline.
	String() string
}

// NewTable returns the table renderer for format. Unknown formats get the
// bordered layout.
func NewTable(format string) Table {
	switch format {
	case FormatSparse:
		return &textTable{}
	case FormatCSV:
		return &csvTable{}
	default:
		return &textTable{border: true}
	}
}

type rowSet struct {
	columns []string
	data    [][]string
}

func (r *rowSet) AddColumns(columns []string) {
	r.columns = append([]string(nil), columns...)
}

func (r *rowSet) AddRow(row []string) {
	r.data = append(r.data, append([]string(nil), row...))
}

func (r *rowSet) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// textTable draws aligned columns, with +---+ rules when border is set.
type textTable struct {
	rowSet
	border bool
}

func (t *textTable) widths() []int {
	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.data {
		for i := range widths {
			if n := utf8.RuneCountInString(t.cell(row, i)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

func (t *textTable) String() string {
	widths := t.widths()

	var rule strings.Builder
	rule.WriteString("+")
	for _, w := range widths {
		rule.WriteString(strings.Repeat("-", w+2))
		rule.WriteString("+")
	}

	var lines []string
	if t.border {
		lines = append(lines, rule.String())
	}

	header := make([]string, len(t.columns))
	for i, c := range t.columns {
		header[i] = center(c, widths[i])
	}
	lines = append(lines, t.line(header))

	if t.border {
		lines = append(lines, rule.String())
	}
	for _, row := range t.data {
		cells := make([]string, len(widths))
		for i, w := range widths {
			cells[i] = padRight(t.cell(row, i), w)
		}
		lines = append(lines, t.line(cells))
	}
	if t.border {
		lines = append(lines, rule.String())
	}
	return strings.Join(lines, "\n")
}

func (t *textTable) line(cells []string) string {
	if !t.border {
		var b strings.Builder
		for _, c := range cells {
			b.WriteString(" " + c + " ")
		}
		return strings.TrimRight(b.String(), " ")
	}

	var b strings.Builder
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" " + c + " |")
	}
	return b.String()
}

// center pads s to width, putting the odd space on the right.
func center(s string, width int) string {
	extra := width - utf8.RuneCountInString(s)
	if extra <= 0 {
		return s
	}
	left := extra / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", extra-left)
}

func padRight(s string, width int) string {
	if extra := width - utf8.RuneCountInString(s); extra > 0 {
		return s + strings.Repeat(" ", extra)
	}
	return s
}

// csvTable renders a header line followed by one line per row.
type csvTable struct {
	rowSet
}

func (t *csvTable) String() string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(t.columns)
	for _, row := range t.data {
		cells := make([]string, len(t.columns))
		for i := range cells {
			cells[i] = t.cell(row, i)
		}
		_ = w.Write(cells)
	}
	w.Flush()
	return strings.TrimRight(buf.String(), "\r\n")
}
