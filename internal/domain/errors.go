package domain

import "errors"

var (
	// ErrMapping is returned when a raw log is missing a required field or a field has the wrong type
	ErrMapping = errors.New("mapping error")

	// ErrUnknownEvent is returned when no mapper is registered for a contract or event name
	ErrUnknownEvent = errors.New("unknown event")

	// ErrSkipEvent is returned by mappers for known events that produce no activity
	ErrSkipEvent = errors.New("event skipped")

	// ErrStaleUpdate is returned when an activity is older than the aggregate it targets.
	// It is swallowed by the reconciler and never surfaced.
	ErrStaleUpdate = errors.New("stale update")

	// ErrBadCursor is returned when a continuation token cannot be decoded
	ErrBadCursor = errors.New("bad cursor")

	// ErrReferenceNotFound is returned when an activity references an order, lot or item that doesn't exist
	ErrReferenceNotFound = errors.New("reference not found")

	// ErrStoreUnavailable is returned on transient persistence failures; the event must be redelivered
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidAddress is returned when a Flow address cannot be parsed
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidLogID is returned when a log id cannot be built from a transaction hash and event index
	ErrInvalidLogID = errors.New("invalid log id")

	// ErrInvalidEventType is returned when a Flow event type string is malformed
	ErrInvalidEventType = errors.New("invalid event type")

	// ErrInvalidItemID is returned when an item id string is malformed
	ErrInvalidItemID = errors.New("invalid item id")
)
