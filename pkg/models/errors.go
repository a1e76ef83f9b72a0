package models

// ErrorKind classifies why an item failed or why a coordinator call was rejected.
type ErrorKind string

const (
	KindEmptyInput        ErrorKind = "empty_input"
	KindMalformedURL      ErrorKind = "malformed_url"
	KindUnsupportedScheme ErrorKind = "unsupported_scheme"
	KindSimulatedFailure  ErrorKind = "simulated_failure"
	KindTimeout           ErrorKind = "timeout"
	KindAlreadyRunning    ErrorKind = "already_running"
	KindCancelled         ErrorKind = "cancelled"
	KindStageFailed       ErrorKind = "stage_failed"
	KindInternal          ErrorKind = "internal_error"
)

// IsValidation reports whether k was produced by URL validation.
func (k ErrorKind) IsValidation() bool {
	switch k {
	case KindEmptyInput, KindMalformedURL, KindUnsupportedScheme:
		return true
	}
	return false
}

// Message returns a short user-facing description of k.
func (k ErrorKind) Message() string {
	switch k {
	case KindEmptyInput:
		return "URL is required"
	case KindMalformedURL:
		return "Please enter a valid URL"
	case KindUnsupportedScheme:
		return "URL must use HTTP or HTTPS protocol"
	case KindSimulatedFailure:
		return "Extraction failed for this URL"
	case KindTimeout:
		return "Processing timed out"
	case KindAlreadyRunning:
		return "Batch is already running"
	case KindCancelled:
		return "Processing was cancelled"
	case KindStageFailed:
		return "A processing stage failed"
	case KindInternal:
		return "Internal processing error"
	default:
		return string(k)
	}
}
