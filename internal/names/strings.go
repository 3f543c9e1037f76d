package names

import (
	"fmt"
	"sort"
	"strings"
)

// Filter operators understood by the list filter expression.
const (
	FilterEqual    = "eq"
	FilterNotEqual = "ne"
)

// RegexesToFilterExpression builds a name filter from regular expressions.
// Resource names cannot contain whitespace, so every regex is also split on
// whitespace. It returns "" when there is nothing to filter on.
func RegexesToFilterExpression(regexes []string, op string) string {
	var parts []string
	for _, regex := range regexes {
		parts = append(parts, strings.Fields(regex)...)
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("name %s %s", op, strings.Join(parts, "|"))
}

// Singularize turns a collection name into its singular form.
func Singularize(collection string) string {
	return strings.TrimSuffix(collection, "s")
}

// ListStrings returns the sorted strings, one per line, each indented by
// two spaces.
func ListStrings(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)

	var b strings.Builder
	for _, s := range sorted {
		b.WriteString("  ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}
