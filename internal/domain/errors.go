package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidQuery         = errors.New("invalid query")
	ErrEntitlementDenied    = errors.New("entitlement denied")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrProviderFailure      = errors.New("provider failure")
)
