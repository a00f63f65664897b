package db

import "errors"

// ErrEmptyReply is returned when the server answers with a nil bulk string.
var ErrEmptyReply = errors.New("db: empty reply")

// Op constants name the wire operations for error context.
const (
	OpDo     = "DO"
	OpPing   = "PING"
	OpOutput = "OUTPUT"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
