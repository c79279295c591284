// Package common defines shared constants and sentinel errors used across
// the millkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrValidation is returned before any I/O when a request is malformed:
	// a missing record id or an unknown origin tag.
	ErrValidation = errors.New("validation error")

	// ErrTransport marks failures talking to the remote record store
	// (network errors, rejected or non-2xx calls).
	ErrTransport = errors.New("transport error")

	// ErrUnauthorized is returned when the identity service rejects credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
