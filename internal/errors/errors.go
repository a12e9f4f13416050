package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session gateway, grouped by how they surface:
// client errors become 4xx responses, auth rejections become inactive
// decisions or redirect-safe failures, upstream/internal errors become 5xx.
var (
	// Client errors
	ErrMissingParameters = errors.New("missing required parameters")

	// Auth rejections
	ErrIdPError        = errors.New("identity provider returned an error")
	ErrStateNotFound   = errors.New("state not found or already used")
	ErrInvalidIDToken  = errors.New("invalid id token")
	ErrNoSession       = errors.New("no session cookie")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidSession  = errors.New("invalid session")

	// Upstream errors
	ErrNoIDToken = errors.New("no id_token in token response")
	ErrUpstream  = errors.New("upstream call failed")

	// General errors
	ErrInternal = errors.New("internal error")
)

// Machine-readable reason codes surfaced to callers. These are deliberately
// coarse so that a failure does not leak which specific check rejected it.
const (
	ReasonIdPError          = "idp_error"
	ReasonMissingParameters = "missing_parameters"
	ReasonInvalidState      = "invalid_state"
	ReasonNoIDToken         = "no_id_token"
	ReasonInvalidIDToken    = "invalid_id_token"
	ReasonNoSession         = "no_session"
	ReasonSessionNotFound   = "session_not_found"
	ReasonSessionExpired    = "session_expired"
	ReasonInvalidSession    = "invalid_session"
	ReasonCacheError        = "cache_error"
	ReasonSecretsError      = "secrets_error"
	ReasonInternalError     = "internal_error"
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
