package remotestore

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/millkeeper/internal/common"
)

// ErrRecordNotFound is wrapped in a TransportError when a point write
// targets an id that does not exist in the collection.
var ErrRecordNotFound = errors.New("record not found")

// TransportError describes a failed call to the remote collection.
// It matches common.ErrTransport with errors.Is.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == common.ErrTransport
}

func transportErr(op string, status int, err error) error {
	return &TransportError{Op: op, StatusCode: status, Err: err}
}
