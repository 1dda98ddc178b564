// ABOUTME: Domain-level sentinel errors for the pharma-radar service
// ABOUTME: These errors are used with errors.Is() for error type checking
package domain

import "errors"

// Classifier errors
var (
	// ErrClassifierUnavailable indicates the classifier endpoint is unset or unreachable
	ErrClassifierUnavailable = errors.New("classifier service unavailable")

	// ErrInvalidClassifierResponse indicates the classifier returned a malformed result
	ErrInvalidClassifierResponse = errors.New("invalid classifier response")
)

// Scheduler errors
var (
	// ErrCycleInProgress indicates a fetch cycle is already running and the
	// new invocation was skipped. Not a failure condition.
	ErrCycleInProgress = errors.New("fetch cycle already in progress")

	// ErrSchedulerActive indicates the scheduler jobs are already registered
	ErrSchedulerActive = errors.New("scheduler already active")

	// ErrSchedulerPaused indicates the scheduler jobs are not registered
	ErrSchedulerPaused = errors.New("scheduler not active")
)

// Validation errors
var (
	// ErrEmptyText indicates text field is required but empty
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptySource indicates source field is required but empty
	ErrEmptySource = errors.New("source cannot be empty")
)

// Store errors
var (
	// ErrEventNotFound indicates the requested event does not exist
	ErrEventNotFound = errors.New("event not found")
)
