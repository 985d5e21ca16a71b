package models

import "errors"

// Error taxonomy shared by services and mapped to HTTP codes in handlers.
// Validation and conflict errors are rejected synchronously and never retried
// by the core; storage errors propagate wrapped and fail the request.
var (
	ErrInvalidPayload    = errors.New("invalid command payload for mode")
	ErrInvalidTolerance  = errors.New("tolerance percent must be in (0, 100]")
	ErrCommandConflict   = errors.New("a pending command already exists for this device")
	ErrUnknownCommand    = errors.New("unknown command id")
	ErrThresholdNotFound = errors.New("threshold not found")
	ErrAlertNotFound     = errors.New("alert not found")
)
