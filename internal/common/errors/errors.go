// Package errors provides standardized error handling for the flight bot.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Credential issuance failed or returned no usable token.
	ErrCodeAuthFailed ErrorCode = "AUTH_FAILED"

	// Location resolution returned zero candidates or the lookup call failed.
	ErrCodeLookupFailed ErrorCode = "LOOKUP_FAILED"

	// Flight-offer search call failed (status, timeout, malformed body).
	ErrCodeSearchFailed ErrorCode = "SEARCH_FAILED"

	// The provider answered but carried zero usable offers.
	ErrCodeNoOffersFound ErrorCode = "NO_OFFERS_FOUND"

	// User input did not match the expected shape for the current step.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// An event arrived for a conversation key with no active record.
	ErrCodeStateNotFound ErrorCode = "STATE_NOT_FOUND"

	// Conversation store read/write failed.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match on the code of two StandardErrors.
func (e *StandardError) Is(target error) bool {
	other, ok := target.(*StandardError)
	return ok && other.Code == e.Code
}

// CodeOf extracts the ErrorCode from any error, or empty for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return ""
}

// NewAuthFailedError creates a retryable credential error.
func NewAuthFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthFailed,
		Message:   "Failed to obtain provider access token",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLookupFailedError creates a non-retryable location lookup error.
func NewLookupFailedError(keyword string, err error) *StandardError {
	details := fmt.Sprintf("keyword: %s", keyword)
	if err != nil {
		details = fmt.Sprintf("keyword: %s, error: %s", keyword, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeLookupFailed,
		Message:   "Location lookup returned no candidates",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchFailedError creates a retryable flight search error.
func NewSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Flight offer search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoOffersError creates a non-retryable empty result error.
func NewNoOffersError(origin, destination string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoOffersFound,
		Message:   "No flight offers available for the requested route",
		Details:   fmt.Sprintf("route: %s-%s", origin, destination),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(step, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "User input rejected for current step",
		Details:   fmt.Sprintf("step: %s, %s", step, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStateNotFoundError creates a non-retryable missing conversation error.
func NewStateNotFoundError(conversationKey string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStateNotFound,
		Message:   "No active conversation for key",
		Details:   fmt.Sprintf("conversationKey: %s", conversationKey),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable conversation store error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Conversation store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
