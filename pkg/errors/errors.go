// Package errors provides custom error types for the dsplugin system.
// These errors enable programmatic error checking across the plugin
// services, the host transport and the CLI.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the dsplugin system
var (
	// ErrNotFound indicates that a requested stream, resource or query was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates that a plugin does not provide a capability
	ErrNotImplemented = errors.New("not implemented")

	// ErrPermissionDenied indicates that an operation is not allowed on a stream
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrClosed indicates use of a stream handle after it was closed
	ErrClosed = errors.New("stream closed")
)

// NotFoundError represents an error when a stream path, resource or query is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// QueryError is a failure of a single data query. It carries the refID so the
// host can line the failure up with the query that produced it.
type QueryError struct {
	RefID string
	Err   error
}

// Error implements the error interface
func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error querying backend for %s: %v", e.RefID, e.Err)
	}
	return fmt.Sprintf("error querying backend for %s", e.RefID)
}

// Unwrap implements errors.Unwrap
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError creates a new QueryError
func NewQueryError(refID string, err error) *QueryError {
	return &QueryError{RefID: refID, Err: err}
}

// StreamError represents a failure producing a stream packet
type StreamError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *StreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error streaming %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("error streaming %s: %s", e.Path, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *StreamError) Unwrap() error {
	return e.Err
}

// NewStreamError creates a new StreamError
func NewStreamError(path, message string, err error) *StreamError {
	return &StreamError{Path: path, Message: message, Err: err}
}

// ResourceError represents an error from a resource call. It maps to an
// HTTP status code for the host transport.
type ResourceError struct {
	Path   string
	Status int
	Err    error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resource %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("resource %s: %s", e.Path, http.StatusText(e.StatusCode()))
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error, defaulting to 500.
func (e *ResourceError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// Is implements errors.Is support
func (e *ResourceError) Is(target error) bool {
	return e.Status == http.StatusNotFound && target == ErrNotFound
}

// NewResourceError creates a new ResourceError
func NewResourceError(path string, status int, err error) *ResourceError {
	return &ResourceError{Path: path, Status: status, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// CapabilityError reports a call to a capability the plugin does not provide
type CapabilityError struct {
	Capability string
}

// Error implements the error interface
func (e *CapabilityError) Error() string {
	return fmt.Sprintf("plugin does not implement %s", e.Capability)
}

// Is implements errors.Is support
func (e *CapabilityError) Is(target error) bool {
	return target == ErrNotImplemented
}

// NewCapabilityError creates a new CapabilityError
func NewCapabilityError(capability string) *CapabilityError {
	return &CapabilityError{Capability: capability}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotImplemented checks if an error reports a missing capability
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

// IsPermissionDenied checks if an error is a permission error
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsClosed checks if an error reports use of a closed stream
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapQuery wraps an error as a QueryError
func WrapQuery(refID string, err error) error {
	if err == nil {
		return nil
	}
	return NewQueryError(refID, err)
}

// WrapStream wraps an error as a StreamError
func WrapStream(path, message string, err error) error {
	if err == nil {
		return nil
	}
	return NewStreamError(path, message, err)
}
