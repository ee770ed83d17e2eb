// internal/panel/errors.go
package panel

import (
	"errors"
	"fmt"
)

// AuthError means the panel rejected the supplied credentials, or the
// login response carried no token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// RemoteError is a transport failure or an unexpected payload from the
// panel. It carries the operation name for logging context.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("panel %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// ErrNoInstanceTable is returned when the instance list document has no
// table at all. The panel renders this when the account has never had an
// instance, so callers treat it as "no instances" rather than a parse bug.
var ErrNoInstanceTable = errors.New("no instance table in document")

func remoteErr(op string, err error) error {
	return &RemoteError{Op: op, Err: err}
}
