// Package response provides the JSON envelope of the plugin host API. A
// successful response carries data, a failed one carries an error with a
// machine-readable code.
package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/agentstation/dsplugin/pkg/errors"
)

// Response is the envelope of every JSON endpoint.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error is an API error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success creates a successful response.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

// JSON writes resp with the given status.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// BadRequest writes a 400.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusUnauthorized, Fail("UNAUTHORIZED", message, details))
}

// Forbidden writes a 403.
func Forbidden(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusForbidden, Fail("FORBIDDEN", message, details))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// MethodNotAllowed writes a 405.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// RateLimited writes a 429.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail("RATE_LIMITED", "Rate limit exceeded", message))
}

// InternalError writes a 500 without exposing err.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// NotImplemented writes a 501.
func NotImplemented(w http.ResponseWriter, message string) {
	JSON(w, http.StatusNotImplemented, Fail("NOT_IMPLEMENTED", message, ""))
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail("SERVICE_UNAVAILABLE", "Service unavailable", message))
}

// ErrorFromType maps the plugin's typed errors to responses.
func ErrorFromType(w http.ResponseWriter, err error) {
	var resourceErr *errors.ResourceError
	switch {
	case stderrors.As(err, &resourceErr):
		status := resourceErr.StatusCode()
		switch {
		case status == http.StatusNotFound:
			NotFound(w, err.Error(), "")
		case status >= http.StatusInternalServerError:
			InternalError(w, err)
		default:
			JSON(w, status, Fail(codeFor(status), err.Error(), ""))
		}
	case errors.IsNotFound(err):
		NotFound(w, err.Error(), "")
	case errors.IsValidationError(err):
		BadRequest(w, err.Error(), "")
	case errors.IsNotImplemented(err):
		NotImplemented(w, err.Error())
	case errors.IsPermissionDenied(err):
		Forbidden(w, err.Error(), "")
	case errors.IsCanceled(err):
		ServiceUnavailable(w, err.Error())
	default:
		InternalError(w, err)
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "ERROR"
	}
}
