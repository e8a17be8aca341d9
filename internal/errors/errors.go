package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrSystem           = new(ErrCodeSystemError, "system error")

	// Scheduling errors
	ErrUnresolvedAddress   = new(ErrCodeUnresolvedAddress, "address is outside the service area")
	ErrNoBillableItems     = new(ErrCodeNoBillableItems, "phase has no billable items")
	ErrMalformedChunk      = new(ErrCodeMalformedChunk, "malformed compact rule chunk")
	ErrPhaseCountExceeded  = new(ErrCodePhaseCountExceeded, "phase count exceeds provider ceiling")
	ErrProviderUnavailable = new(ErrCodeProviderUnavailable, "billing provider unavailable")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrNotFound:            http.StatusNotFound,
		ErrAlreadyExists:       http.StatusConflict,
		ErrValidation:          http.StatusBadRequest,
		ErrInvalidOperation:    http.StatusBadRequest,
		ErrUnresolvedAddress:   http.StatusUnprocessableEntity,
		ErrProviderUnavailable: http.StatusBadGateway,
		ErrNoBillableItems:     http.StatusInternalServerError,
		ErrSystem:              http.StatusInternalServerError,
	}
)

const (
	ErrCodeSystemError         = "system_error"
	ErrCodeNotFound            = "not_found"
	ErrCodeAlreadyExists       = "already_exists"
	ErrCodeValidation          = "validation_error"
	ErrCodeInvalidOperation    = "invalid_operation"
	ErrCodeUnresolvedAddress   = "unresolved_address"
	ErrCodeNoBillableItems     = "no_billable_items"
	ErrCodeMalformedChunk      = "malformed_compact_rule_chunk"
	ErrCodePhaseCountExceeded  = "phase_count_exceeded"
	ErrCodeProviderUnavailable = "provider_unavailable"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is reports whether err carries the given mark or is the given sentinel
func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnresolvedAddress checks if an error reports addresses outside the service area
func IsUnresolvedAddress(err error) bool {
	return errors.Is(err, ErrUnresolvedAddress)
}

// IsNoBillableItems checks if an error reports an item-less first phase
func IsNoBillableItems(err error) bool {
	return errors.Is(err, ErrNoBillableItems)
}

// IsProviderUnavailable checks if an error came from the billing provider
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
