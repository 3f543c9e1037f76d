// Package format renders compute API results as tables, JSON, YAML, CSV or
// plain names.
package format

// Field is one column of a table. Paths are dotted JSON paths tried in
// order; the first one that yields a value wins. Several paths exist because
// API versions renamed some properties.
type Field struct {
	Title string
	Paths []string
}

// F is shorthand for building a Field.
func F(title string, paths ...string) Field {
	return Field{Title: title, Paths: paths}
}

// Fields is an ordered list of table columns.
type Fields []Field

// Titles returns the column titles in order.
func (fs Fields) Titles() []string {
	titles := make([]string, len(fs))
	for i, f := range fs {
		titles[i] = f.Title
	}
	return titles
}

// Index returns the position of the column titled title, or -1.
func (fs Fields) Index(title string) int {
	for i, f := range fs {
		if f.Title == title {
			return i
		}
	}
	return -1
}

// OperationSummaryFields are the columns of an operation list.
var OperationSummaryFields = Fields{
	F("name", "name"),
	F("zone", "zone"),
	F("status", "status"),
	F("status-message", "statusMessage"),
	F("target", "targetLink"),
	F("insert-time", "insertTime"),
	F("operation-type", "operationType"),
	F("error", "error.errors.code"),
	F("warning", "warnings.code"),
}

// OperationDetailFields are the rows of a single operation.
var OperationDetailFields = Fields{
	F("name", "name"),
	F("zone", "zone"),
	F("creation-time", "creationTimestamp"),
	F("status", "status"),
	F("progress", "progress"),
	F("status-message", "statusMessage"),
	F("target", "targetLink"),
	F("target-id", "targetId"),
	F("client-operation-id", "clientOperationId"),
	F("insert-time", "insertTime"),
	F("user", "user"),
	F("start-time", "startTime"),
	F("end-time", "endTime"),
	F("operation-type", "operationType"),
	F("error-code", "httpErrorStatusCode"),
	F("error-message", "httpErrorMessage"),
	F("warning", "warnings.code"),
	F("warning-message", "warnings.message"),
}

// DefaultOperationSortField orders operation lists.
const DefaultOperationSortField = "insert-time"
