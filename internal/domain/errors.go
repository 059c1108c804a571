package domain

import "errors"

var (
	// ErrNotFound means a referenced project or entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means the caller sent a malformed or empty payload.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransientStore means the backing store could not be reached.
	// Callers may retry; nothing in logbook retries on their behalf.
	ErrTransientStore = errors.New("store unavailable")

	// ErrBroadcastDelivery marks a live event that did not reach a
	// subscriber. It is logged, never returned to the ingesting caller.
	ErrBroadcastDelivery = errors.New("broadcast delivery failed")
)
