package provider

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of error that occurred while fetching one symbol.
type ErrorType string

const (
	// ErrorTypeNetwork indicates a network-level error (connection refused, DNS, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit indicates the request was rejected due to rate limiting (HTTP 429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates a server error (HTTP 5xx)
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient indicates a client error (HTTP 4xx except 429), e.g. an unknown symbol
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeNoData indicates the response was received but carried no usable bars
	ErrorTypeNoData ErrorType = "no_data"
	// ErrorTypeDecode indicates a 2xx response whose body is not a chart payload
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeTimeout indicates the request timed out
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeUnknown indicates an error of unknown type
	ErrorTypeUnknown ErrorType = "unknown"
)

// FetchError represents a structured error from fetching one symbol.
//
// Transient errors (Transient == true) are transport-class: the provider could not
// answer. The others mean the provider answered that it has nothing for the symbol.
type FetchError struct {
	Type       ErrorType
	Transient  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error
func NewNetworkError(cause error) *FetchError {
	return &FetchError{Type: ErrorTypeNetwork, Transient: true, Message: "network request failed", Cause: cause}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(cause error) *FetchError {
	return &FetchError{Type: ErrorTypeTimeout, Transient: true, Message: "request timed out", Cause: cause}
}

// NewDecodeError creates an error for a 2xx body that could not be decoded
func NewDecodeError(cause error) *FetchError {
	return &FetchError{Type: ErrorTypeDecode, Transient: true, Message: "undecodable chart payload", Cause: cause}
}

// NewNoDataError creates an error for a well-formed answer without bars
func NewNoDataError(message string) *FetchError {
	return &FetchError{Type: ErrorTypeNoData, Message: message}
}

// ClassifyHTTPError classifies a non-2xx HTTP status code into a FetchError
func ClassifyHTTPError(statusCode int) *FetchError {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &FetchError{Type: ErrorTypeRateLimit, Transient: true, StatusCode: statusCode, Message: "rate limit exceeded"}
	case statusCode >= 500:
		return &FetchError{Type: ErrorTypeServer, Transient: true, StatusCode: statusCode, Message: "server returned an error"}
	case statusCode >= 400:
		return &FetchError{Type: ErrorTypeClient, StatusCode: statusCode, Message: fmt.Sprintf("client error: HTTP %d", statusCode)}
	default:
		return &FetchError{Type: ErrorTypeUnknown, StatusCode: statusCode, Message: fmt.Sprintf("unexpected status code: %d", statusCode)}
	}
}
