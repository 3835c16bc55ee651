package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// ErrorKind classifies a failed request. The kind determines both the
// retry behavior and how the failure is reported per account.
type ErrorKind string

const (
	// KindNotFound means the account or resource does not exist. Terminal.
	KindNotFound ErrorKind = "not_found"

	// KindAuth means the token is bad or missing for a privileged call. Terminal.
	KindAuth ErrorKind = "auth"

	// KindRateLimited means the request budget is exhausted. Resolved by
	// waiting for the window reset, not by the backoff loop.
	KindRateLimited ErrorKind = "rate_limited"

	// KindNetwork covers transport failures and timeouts. Retried.
	KindNetwork ErrorKind = "network"

	// KindServer covers 5xx responses. Retried.
	KindServer ErrorKind = "server"
)

// APIError is a classified request failure.
type APIError struct {
	StatusCode int
	Kind       ErrorKind
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("github %s error (status %d): %s: %v",
			e.Kind, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("github %s error (status %d): %s",
		e.Kind, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind from any error in the chain.
// Returns an empty kind for non-API errors.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// classify maps an HTTP status to an error kind. GitHub signals a spent
// budget as 403 (or 429) with X-RateLimit-Remaining: 0; a 403 with budget
// left is an authorization problem.
func classify(statusCode int, rateLimitRemaining string) ErrorKind {
	switch {
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode == http.StatusUnauthorized:
		return KindAuth
	case statusCode == http.StatusForbidden, statusCode == http.StatusTooManyRequests:
		if rateLimitRemaining == "0" {
			return KindRateLimited
		}
		return KindAuth
	case statusCode >= 500:
		return KindServer
	default:
		return KindAuth
	}
}

// shouldRetry determines if an error kind belongs in the backoff loop.
// Rate limiting is handled by the tracker wait instead, and terminal
// kinds surface immediately.
func shouldRetry(kind ErrorKind) bool {
	switch kind {
	case KindNetwork, KindServer:
		return true
	default:
		return false
	}
}
