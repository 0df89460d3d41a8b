package remote

import (
	"errors"
	"fmt"
)

// RemoteError is a failure reported by the remote store itself through the
// "error" field of its JSON response.
type RemoteError struct {
	Action  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %s", e.Action, e.Message)
}

// TransportError covers everything between us and a decoded response:
// network failures, non-2xx statuses and malformed JSON.
type TransportError struct {
	Action string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport %s: status %d: %v", e.Action, e.Status, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

var errBadStatus = errors.New("unexpected status")

// IsRemote reports whether err is a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
