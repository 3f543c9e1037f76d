package models

// OperationError is a single entry of an operation's error.errors list.
type OperationError struct {
	// Code is the machine readable error code (e.g., "RESOURCE_NOT_FOUND")
	Code string `json:"code"`

	// Location is the field or resource the error refers to
	Location string `json:"location,omitempty"`

	// Message is the human-readable error message
	Message string `json:"message"`
}

// Status returns the operation status (PENDING, RUNNING or DONE).
func (r Resource) Status() string {
	return r.String("status")
}

// OperationErrors returns the entries of error.errors, if any.
func (r Resource) OperationErrors() []OperationError {
	v, ok := r.Lookup("error.errors")
	if !ok {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}

	errs := make([]OperationError, 0, len(raw))
	for _, item := range raw {
		m, ok := AsMap(item)
		if !ok {
			continue
		}
		e := OperationError{}
		if s, ok := m["code"].(string); ok {
			e.Code = s
		}
		if s, ok := m["location"].(string); ok {
			e.Location = s
		}
		if s, ok := m["message"].(string); ok {
			e.Message = s
		}
		errs = append(errs, e)
	}
	return errs
}

// HasOperationErrors reports whether the operation finished with errors.
func (r Resource) HasOperationErrors() bool {
	return len(r.OperationErrors()) > 0
}
