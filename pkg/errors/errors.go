package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the different kinds of failures a run can hit
type ErrorType string

const (
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeRemote   ErrorType = "remote"
	ErrorTypeDownload ErrorType = "download"
	ErrorTypeParse    ErrorType = "parse"
	ErrorTypeNetwork  ErrorType = "network"
	ErrorTypeStorage  ErrorType = "storage"
	ErrorTypeAborted  ErrorType = "aborted"
)

// Error is the single error type used across tumbledee.
// Code carries the HTTP status when one was received, 0 otherwise.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	msg += ": " + e.Message
	if e.URL != "" {
		msg += " [" + e.URL + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigError reports missing or malformed configuration or credentials
func NewConfigError(message string, err error) *Error {
	return &Error{Type: ErrorTypeConfig, Message: message, Err: err}
}

// NewRemoteError reports a non-200 answer from the blog API
func NewRemoteError(url string, code int, reason string) *Error {
	return &Error{Type: ErrorTypeRemote, Message: reason, Code: code, URL: url}
}

// NewDownloadError reports a failed image fetch. Code is 0 for transport failures.
func NewDownloadError(url string, code int, message string, err error) *Error {
	return &Error{Type: ErrorTypeDownload, Message: message, Code: code, URL: url, Err: err}
}

// NewParseError reports content that could not be parsed
func NewParseError(message string, err error) *Error {
	return &Error{Type: ErrorTypeParse, Message: message, Err: err}
}

// NewNetworkError reports a transport level failure
func NewNetworkError(url string, err error) *Error {
	return &Error{Type: ErrorTypeNetwork, Message: "request failed", URL: url, Err: err}
}

// NewStorageError reports a filesystem failure
func NewStorageError(message string, err error) *Error {
	return &Error{Type: ErrorTypeStorage, Message: message, Err: err}
}

// NewAborted reports a run stopped by an interrupt
func NewAborted(err error) *Error {
	return &Error{Type: ErrorTypeAborted, Message: "interrupted", Err: err}
}

// IsType checks whether err, or anything it wraps, is an *Error of the given type
func IsType(err error, errorType ErrorType) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Type == errorType
}

// IsFatal reports whether err must end the process with a non-zero status.
// Remote, network and download failures are logged and survived.
// Errors that are not *Error are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if !stderrors.As(err, &e) {
		return true
	}

	switch e.Type {
	case ErrorTypeRemote, ErrorTypeNetwork, ErrorTypeDownload:
		return false
	default:
		return true
	}
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}
