package remote

import (
	"errors"
	"fmt"
)

// ErrContentUnavailable indicates the remote system could return neither the
// attachment bytes nor a download link. Treated as a skip by callers, not a
// failure.
var ErrContentUnavailable = errors.New("attachment content unavailable")

// Fault is a business-level fault reported by the remote system: the request
// was accepted over HTTP but the response carried a fault string.
type Fault struct {
	Call    string
	Message string
}

func (e *Fault) Error() string {
	return fmt.Sprintf("remote fault on %s: %s", e.Call, e.Message)
}

// TransportError is a network/HTTP-level failure reaching the remote system,
// including per-call timeouts.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
