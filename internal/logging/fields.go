// Package logging provides structured logging utilities for gcompute.
package logging

// Standard field names for consistent logging across the application.
const (
	// FieldProject is the project a command operates on.
	FieldProject = "project"

	// FieldZone is the zone of the resource being handled.
	FieldZone = "zone"

	// FieldCollection is the API collection (instances, disks, ...).
	FieldCollection = "collection"

	// FieldResource is the name of the resource being handled.
	FieldResource = "resource"

	// FieldOperation is the name of a compute operation.
	FieldOperation = "operation"

	// FieldStatus is the status of an operation or snapshot.
	FieldStatus = "status"

	// FieldMethod is the HTTP method of a request.
	FieldMethod = "method"

	// FieldURL is the URL of an API request.
	FieldURL = "url"

	// FieldStatusCode is the HTTP status code of a response.
	FieldStatusCode = "status_code"

	// FieldAttempt is the retry attempt number of a request.
	FieldAttempt = "attempt"

	// FieldDuration is the duration of an operation in milliseconds.
	FieldDuration = "duration_ms"

	// FieldCommand is the CLI verb being executed.
	FieldCommand = "command"
)
