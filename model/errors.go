package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrMalformedField      = errors.New("malformed field")
	ErrValidationFailed    = errors.New("validation failed")
	ErrNetworkFailure      = errors.New("network failure")

	ErrInvalidDocument    = errors.Wrap(ErrConstraintViolation, "invalid document")
	ErrSubmissionInFlight = errors.New("submission already in flight")
)

// MalformedFieldError reports a JSON-encoded field that could not be parsed
// and was replaced by an empty object.
type MalformedFieldError struct {
	Field string
	Raw   string
	Err   error
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed field %s: %v", e.Field, e.Err)
}

func (e *MalformedFieldError) Is(target error) bool { return target == ErrMalformedField }

func (e *MalformedFieldError) Unwrap() error { return e.Err }

// ValidationError holds one message per failing question id.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	ids := make([]string, 0, len(e.Errors))
	for id := range e.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("validation failed: %s", strings.Join(ids, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// NetworkError wraps a failed backend call. Status is zero when no response
// was received.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Is(target error) bool { return target == ErrNetworkFailure }

func (e *NetworkError) Unwrap() error { return e.Err }
