package domain

import "errors"

var (
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidField     = errors.New("invalid_field")
	ErrInvalidValue     = errors.New("invalid_value")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidSoldValue = errors.New("invalid_sold_value")
	ErrInvalidPageToken = errors.New("invalid_page_token")

	ErrPropertyNotFound = errors.New("property_not_found")

	// ErrStorageUnavailable signals a transient backing-store failure. The
	// caller may retry; the write may or may not have committed.
	ErrStorageUnavailable = errors.New("storage_unavailable")

	// ErrConflictLost signals the write lost a race to a concurrent write on
	// the same (user, property, field) triple.
	ErrConflictLost = errors.New("conflict_lost")
)
