package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Cause classifies why a backend call failed.
type Cause string

const (
	CauseHTTPStatus Cause = "http-status"
	CauseTransport  Cause = "transport-failure"
	CauseMalformed  Cause = "malformed-response"
)

// SessionExpiredMessage is returned for every 401 response, whatever the body says.
const SessionExpiredMessage = "Session expired. Please log in again."

// APIError is the single error shape returned by the backend client.
type APIError struct {
	Cause      Cause
	Status     int
	StatusText string
	Message    string
	Err        error
}

// Error returns the human-readable message.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying transport or decode error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// SessionExpired reports whether the backend rejected the bearer credential.
func (e *APIError) SessionExpired() bool {
	return e.Cause == CauseHTTPStatus && e.Status == http.StatusUnauthorized
}

// SessionExpired builds the distinguished 401 error.
func SessionExpired() *APIError {
	return &APIError{
		Cause:      CauseHTTPStatus,
		Status:     http.StatusUnauthorized,
		StatusText: http.StatusText(http.StatusUnauthorized),
		Message:    SessionExpiredMessage,
	}
}

// HTTPFailure normalizes a non-2xx response. def is the operation's fallback
// message for bodies that parse but carry no recognizable field; when empty the
// status-derived message is used instead.
func HTTPFailure(status int, body []byte, def string) *APIError {
	if status == http.StatusUnauthorized {
		return SessionExpired()
	}
	text := http.StatusText(status)
	return &APIError{
		Cause:      CauseHTTPStatus,
		Status:     status,
		StatusText: text,
		Message:    Message(HTTP{Status: status, StatusText: text, Body: body}, def),
	}
}

// TransportFailure reports that no response was obtained from baseURL.
func TransportFailure(baseURL string, err error) *APIError {
	return &APIError{
		Cause:   CauseTransport,
		Message: Message(Transport{BaseURL: baseURL, Err: err}, ""),
		Err:     err,
	}
}

// MalformedResponse reports a 2xx response whose body could not be decoded.
func MalformedResponse(status int, err error) *APIError {
	return &APIError{
		Cause:      CauseMalformed,
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    fmt.Sprintf("Unexpected response from server (%d %s)", status, http.StatusText(status)),
		Err:        err,
	}
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsSessionExpired reports whether err carries a 401 from the backend.
func IsSessionExpired(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.SessionExpired()
}

// IsTransport reports whether err is a connectivity failure.
func IsTransport(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Cause == CauseTransport
}
