package scraper

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType categorizes different types of stage errors
type ErrorType string

const (
	ErrorTypeServiceUnavailable ErrorType = "service_unavailable"
	ErrorTypeTimeout            ErrorType = "timeout"
	ErrorTypeNetwork            ErrorType = "network"
	ErrorTypeExtraction         ErrorType = "extraction"
	ErrorTypeInvalidURL         ErrorType = "invalid_url"
	ErrorTypeInvalidResponse    ErrorType = "invalid_response"
	ErrorTypeCancelled          ErrorType = "cancelled"
)

// StageError represents a structured failure of one processing stage
type StageError struct {
	Type    ErrorType
	Stage   ScrapeStage
	Message string
	Cause   error
}

// Error implements the error interface
func (e *StageError) Error() string {
	prefix := string(e.Type)
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s[%s]", e.Type, e.Stage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *StageError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error is likely to succeed on retry
func (e *StageError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeServiceUnavailable, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// UserMessage returns a user-friendly error message
func (e *StageError) UserMessage() string {
	switch e.Type {
	case ErrorTypeServiceUnavailable:
		return "Scraper service unavailable. Please check if the service is running."
	case ErrorTypeTimeout:
		return "Scraping timed out. The URL may be slow to load or the service may be busy."
	case ErrorTypeNetwork:
		return "Network error occurred while scraping. Please check your connection and try again."
	case ErrorTypeExtraction:
		return fmt.Sprintf("Failed to extract content from URL: %s", e.Message)
	case ErrorTypeInvalidURL:
		return fmt.Sprintf("Invalid URL: %s", e.Message)
	case ErrorTypeInvalidResponse:
		return "Received invalid response from scraper service. Please try again."
	case ErrorTypeCancelled:
		return "Scraping was cancelled."
	default:
		return e.Message
	}
}

// IsRetryable reports whether err wraps a retryable StageError.
func IsRetryable(err error) bool {
	var se *StageError
	if errors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}

// UserMessage returns the friendly message for StageErrors and err.Error() otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.UserMessage()
	}
	return err.Error()
}

func newServiceUnavailableError(cause error) *StageError {
	return &StageError{
		Type:    ErrorTypeServiceUnavailable,
		Stage:   StageFetching,
		Message: "Service not available",
		Cause:   cause,
	}
}

func newTimeoutError(cause error) *StageError {
	return &StageError{
		Type:    ErrorTypeTimeout,
		Stage:   StageFetching,
		Message: "Request timed out",
		Cause:   cause,
	}
}

func newNetworkError(cause error) *StageError {
	return &StageError{
		Type:    ErrorTypeNetwork,
		Stage:   StageFetching,
		Message: "Network error",
		Cause:   cause,
	}
}

func newExtractionError(message string) *StageError {
	return &StageError{
		Type:    ErrorTypeExtraction,
		Stage:   StageFetching,
		Message: message,
	}
}

func newInvalidResponseError(message string, cause error) *StageError {
	return &StageError{
		Type:    ErrorTypeInvalidResponse,
		Stage:   StageFetching,
		Message: message,
		Cause:   cause,
	}
}

func newCancelledError(cause error) *StageError {
	return &StageError{
		Type:    ErrorTypeCancelled,
		Message: "Operation cancelled",
		Cause:   cause,
	}
}

// contextError converts a finished context into a StageError.
func contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newTimeoutError(ctx.Err())
	}
	return newCancelledError(ctx.Err())
}
