package usecase

import (
	"fmt"
	"strings"
)

// maxConflictDates is how many conflicting occurrence dates are named in a conflict message.
const maxConflictDates = 5

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

func newValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "validation failed", Fields: fields}
}

func invalidField(field, msg string) *ValidationError {
	return &ValidationError{Message: msg, Fields: map[string]string{field: msg}}
}

// PastDateError reports an attempt to book, block or accept a slot that has started.
type PastDateError struct {
	Message string
}

func (e *PastDateError) Error() string { return e.Message }

// ConflictError reports an overlap with an active timeslot.
type ConflictError struct {
	Message string
	// Range and Reason describe the colliding slot of a single request.
	Range  string
	Reason string
	// Dates lists the first conflicting occurrences of a recurring request; Remaining
	// counts the ones left out.
	Dates     []string
	Remaining int
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError reports a missing booking, pattern, timeslot or room.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ForbiddenError reports an actor acting outside its role or ownership.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// StateError reports an operation that does not apply to the target's current status.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

func seriesConflict(dates []string) *ConflictError {
	shown := dates
	remaining := 0
	if len(shown) > maxConflictDates {
		remaining = len(shown) - maxConflictDates
		shown = shown[:maxConflictDates]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recurring booking conflicts with existing bookings on %d date(s): %s",
		len(dates), strings.Join(shown, ", "))
	if remaining > 0 {
		fmt.Fprintf(&b, " and %d more", remaining)
	}

	return &ConflictError{
		Message:   b.String(),
		Dates:     shown,
		Remaining: remaining,
	}
}
