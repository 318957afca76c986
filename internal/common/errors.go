// Package common defines shared constants and sentinel errors used across
// the worker layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Transport errors: fetch failed or the backend answered with a body
	// that is not JSON.
	ErrNetwork = errors.New("network error")

	// Auth errors. ErrAuthExpired is a 401 from an authenticated endpoint;
	// ErrAuthRequired means no token is present or the single retry is spent.
	ErrAuthExpired  = errors.New("authentication expired")
	ErrAuthRequired = errors.New("authentication required")

	// Storage errors. Readers treat them as "value absent".
	ErrStorage = errors.New("storage unavailable")

	// Session errors.
	ErrInvalidSession = errors.New("token and user must be set together")

	// Router errors.
	ErrUnknownAction = errors.New("unknown action")
	ErrValidation    = errors.New("validation error")
)
