package apperrors

import (
	"fmt"
	"strings"

	"barangay-services-backend/models"
)

// ValidationError: the submission is incomplete, the resident corrects and
// resubmits. Missing lists unmet requirement categories when evidence caused it.
type ValidationError struct {
	Message string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%v: missing %v", e.Message, strings.Join(e.Missing, ", "))
	}
	return e.Message
}

func NewValidationError(message string, missing ...string) *ValidationError {
	return &ValidationError{Message: message, Missing: missing}
}

// IllegalTransitionError: the requested lifecycle step is not a legal edge of
// the state machine. Never coerced, always surfaced.
type IllegalTransitionError struct {
	Kind models.RequestKind
	From models.RequestStatus
	To   models.RequestStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %v -> %v for %v request", e.From, e.To, e.Kind)
}

// StatusCounts breaks referencing requests down by status for delete conflicts.
type StatusCounts map[models.RequestStatus]int64

func (c StatusCounts) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// ConflictError: the current state of another record blocks the operation.
// Category deletion conflicts carry the per-status breakdown so the caller can
// confirm a forced deletion.
type ConflictError struct {
	Message string
	Counts  StatusCounts
}

func (e *ConflictError) Error() string {
	if len(e.Counts) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%v (%d referencing requests)", e.Message, e.Counts.Total())
}

// StaleStateError: the record changed under the caller, re-fetch and retry.
type StaleStateError struct {
	Entity string
	ID     string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("%v %v was modified concurrently, re-fetch and retry", e.Entity, e.ID)
}

// DependencyTimeoutError: evidence store or artifact generator did not answer
// in time. Retryable, the request state is unchanged.
type DependencyTimeoutError struct {
	Dependency string
	Err        error
}

func (e *DependencyTimeoutError) Error() string {
	return fmt.Sprintf("%v did not respond in time: %v", e.Dependency, e.Err)
}

func (e *DependencyTimeoutError) Unwrap() error {
	return e.Err
}

// ForbiddenError: the caller is authenticated but not allowed to do this.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%v not found", e.Entity)
	}
	return fmt.Sprintf("%v %v not found", e.Entity, e.ID)
}
