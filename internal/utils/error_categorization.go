package utils

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorCategory classifies a failure of an outbound provider call.
type ErrorCategory string

const (
	ErrorCategoryTimeout    ErrorCategory = "TIMEOUT"
	ErrorCategoryNetwork    ErrorCategory = "NETWORK"
	ErrorCategoryDNS        ErrorCategory = "DNS"
	ErrorCategoryConnection ErrorCategory = "CONNECTION"
	ErrorCategorySSL        ErrorCategory = "SSL"
	ErrorCategoryUnknown    ErrorCategory = "UNKNOWN"
)

// CategorizedError carries the classification of a transport-level error
// together with guidance on whether the same call could succeed elsewhere.
type CategorizedError struct {
	Type        ErrorCategory
	Message     string
	ShouldRetry bool
	Err         error
}

func (e *CategorizedError) Error() string {
	return e.Message
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// CategorizeError analyzes a transport error from a provider call and returns
// its classification. Concrete error types are checked before falling back to
// string heuristics.
func CategorizeError(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return &CategorizedError{
			Type:        ErrorCategoryTimeout,
			Message:     "request timed out",
			ShouldRetry: true,
			Err:         err,
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &CategorizedError{
			Type:        ErrorCategoryConnection,
			Message:     "connection refused",
			ShouldRetry: true,
			Err:         err,
		}
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return &CategorizedError{
			Type:        ErrorCategoryTimeout,
			Message:     "request timed out",
			ShouldRetry: true,
			Err:         err,
		}
	case strings.Contains(msg, "no such host"),
		strings.Contains(msg, "name resolution"):
		return &CategorizedError{
			Type:        ErrorCategoryDNS,
			Message:     "DNS resolution failed",
			ShouldRetry: true,
			Err:         err,
		}
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no route to host"):
		return &CategorizedError{
			Type:        ErrorCategoryConnection,
			Message:     "connection refused",
			ShouldRetry: true,
			Err:         err,
		}
	case strings.Contains(msg, "tls"),
		strings.Contains(msg, "certificate"),
		strings.Contains(msg, "x509"):
		return &CategorizedError{
			Type:        ErrorCategorySSL,
			Message:     "TLS handshake failed",
			ShouldRetry: false,
			Err:         err,
		}
	case strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "network is unreachable"),
		strings.Contains(msg, "unexpected eof"):
		return &CategorizedError{
			Type:        ErrorCategoryNetwork,
			Message:     "network error",
			ShouldRetry: true,
			Err:         err,
		}
	}

	return &CategorizedError{
		Type:        ErrorCategoryUnknown,
		Message:     "unexpected error: " + err.Error(),
		ShouldRetry: false,
		Err:         err,
	}
}

// ShouldRetryHTTPStatus reports whether an HTTP status from a provider should
// let the cascade move on to the next provider.
func ShouldRetryHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
