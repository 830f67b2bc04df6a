package db

import "errors"

// ErrKeyNotFound is returned by cache lookups that miss.
var ErrKeyNotFound = errors.New("db: key not found")

// Op constants name the failing command or query for error context.
const (
	OpGet    = "GET"
	OpSet    = "SET"
	OpPing   = "PING"
	OpQuery  = "QUERY"
	OpExec   = "EXEC"
	OpScan   = "SCAN"
	OpBegin  = "BEGIN"
	OpCommit = "COMMIT"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// IsUnavailable reports whether err came from the database layer itself
// rather than from a missing key.
func IsUnavailable(err error) bool {
	if err == nil || errors.Is(err, ErrKeyNotFound) {
		return false
	}
	var dbErr *Error
	return errors.As(err, &dbErr)
}
