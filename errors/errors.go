// Package errors defines the failures the gateway reports for upstream calls.
//
// Both error types implement Extensions, so graphql-go copies their code and
// status into the "extensions" member of the field error it returns to clients.
package errors

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Codes reported under extensions.code.
const (
	CodeNotFound    = "NOT_FOUND"
	CodeUpstream    = "UPSTREAM_ERROR"
	CodeUnavailable = "UPSTREAM_UNAVAILABLE"
)

// UpstreamError is returned when the REST store answered with a non-2xx status.
type UpstreamError struct {
	Method     string
	URL        string
	StatusCode int
	// Body is a truncated copy of the response body.
	Body string
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("upstream: %s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// NotFound reports whether the store did not know the requested record.
func (e *UpstreamError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *UpstreamError) Extensions() map[string]interface{} {
	code := CodeUpstream
	if e.NotFound() {
		code = CodeNotFound
	}
	return map[string]interface{}{
		"code":   code,
		"status": e.StatusCode,
	}
}

// UnavailableError is returned when no response was received from the store:
// connection refused, timeout, cancelled context, or an undecodable body.
type UnavailableError struct {
	Method string
	URL    string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("upstream: %s %s: %v", e.Method, e.URL, e.Err)
}

// Cause lets pkg/errors.Cause reach the transport failure.
func (e *UnavailableError) Cause() error { return e.Err }

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code": CodeUnavailable,
	}
}

// IsNotFound reports whether err, or an error it wraps, is a 404 from the store.
func IsNotFound(err error) bool {
	var ue *UpstreamError
	return pkgerrors.As(err, &ue) && ue.NotFound()
}

// HasResponse reports whether err carries an HTTP response from the store, as
// opposed to a transport failure.
func HasResponse(err error) bool {
	var ue *UpstreamError
	return pkgerrors.As(err, &ue)
}
