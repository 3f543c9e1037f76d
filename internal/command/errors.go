package command

import "fmt"

// Error is a user-facing failure. Its message is printed as it is, without
// any prefix.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds an Error from a format string.
func Errorf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// ErrAborted is returned when the user declines a safety prompt.
var ErrAborted = &Error{Message: "Operation aborted"}
