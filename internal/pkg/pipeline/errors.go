package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/airenas/dubly/internal/pkg/status"
)

// IllegalTransitionError - target is neither the immediate successor nor failed
type IllegalTransitionError struct {
	From, To status.Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

// IncompleteAssignmentError - some speakers have no voice
type IncompleteAssignmentError struct {
	Labels []string
}

func (e *IncompleteAssignmentError) Error() string {
	return "no voice assigned for " + strings.Join(e.Labels, ", ")
}

// UnknownSpeakerError - label does not belong to the project
type UnknownSpeakerError struct {
	Label string
}

func (e *UnknownSpeakerError) Error() string {
	return fmt.Sprintf("unknown speaker '%s'", e.Label)
}

// StageMismatchError - operation is not allowed in the current project stage
type StageMismatchError struct {
	Want, Have status.Status
}

func (e *StageMismatchError) Error() string {
	return fmt.Sprintf("wrong stage: want %s, have %s", e.Want, e.Have)
}

// ConflictError - another command is outstanding for the project
type ConflictError struct {
	Project, Command string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("command '%s' is in progress for %s", e.Command, e.Project)
}

// ExternalServiceError - engine failure after retries
type ExternalServiceError struct {
	Err error
}

func (e *ExternalServiceError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// InvalidInputError - malformed request data
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string {
	return e.Msg
}

// IsValidation returns true for errors caused by the caller's request
func IsValidation(err error) bool {
	var (
		e1 *IllegalTransitionError
		e2 *IncompleteAssignmentError
		e3 *UnknownSpeakerError
		e4 *StageMismatchError
		e5 *InvalidInputError
	)
	return errors.As(err, &e1) || errors.As(err, &e2) || errors.As(err, &e3) ||
		errors.As(err, &e4) || errors.As(err, &e5)
}

// IsConflict returns true for ConflictError
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}
