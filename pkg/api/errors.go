package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType identifies the category of an error on the wire.
type ErrorType string

const (
	ErrorTypeProviderNotFound     ErrorType = "provider_not_found"
	ErrorTypeUnsupportedModel     ErrorType = "unsupported_model"
	ErrorTypeMissingInput         ErrorType = "missing_input"
	ErrorTypeInvalidParameterType ErrorType = "invalid_parameter_type"
	ErrorTypeConfiguration        ErrorType = "configuration_error"
	ErrorTypeUpstream             ErrorType = "upstream_error"
	ErrorTypeInvalidRequest       ErrorType = "invalid_request"
	ErrorTypeUnauthorized         ErrorType = "unauthorized"
	ErrorTypeNotFound             ErrorType = "not_found"
	ErrorTypeTooManyRequests      ErrorType = "too_many_requests"
	ErrorTypeServerError          ErrorType = "server_error"
)

// ProviderNotFoundError is returned by registry lookups for names that were
// never registered. Known carries the sorted set of registered names so the
// caller can see what was available.
type ProviderNotFoundError struct {
	Provider string
	Known    []string
}

func (e *ProviderNotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("provider %q not registered", e.Provider)
	}
	return fmt.Sprintf("provider %q not registered (known providers: %s)",
		e.Provider, strings.Join(e.Known, ", "))
}

// UnsupportedModelError is returned when a model name is not in the
// provider's supported set. Model validity is provider-scoped: the same
// name may be valid for one provider and invalid for another.
type UnsupportedModelError struct {
	Provider  string
	Model     string
	Supported []string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("model %q not supported by provider %q (supported models: %s)",
		e.Model, e.Provider, strings.Join(e.Supported, ", "))
}

// MissingInputError is returned when a call supplies neither "prompt" nor
// "messages".
type MissingInputError struct {
	Provider string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: parameter %q or %q is required", e.Provider, "prompt", "messages")
}

// InvalidParameterTypeError is returned when a declared numeric parameter
// cannot be coerced to its numeric type. Value holds the rejected input.
type InvalidParameterTypeError struct {
	Field string
	Value any
}

func (e *InvalidParameterTypeError) Error() string {
	return fmt.Sprintf("parameter %q has invalid value %v (%T)", e.Field, e.Value, e.Value)
}

// ConfigurationError is returned when a provider cannot perform a call
// because required configuration (typically the API key) is unset. It is
// raised at call time, not at construction, so a partially configured
// gateway can still serve its other providers.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

// UpstreamError normalizes every transport, authentication, or
// upstream-declared failure behind one type. StatusCode is the upstream
// HTTP status (0 for transport-level failures); Message carries the
// upstream's diagnostic text when one could be extracted; Err wraps the
// transport cause when there is one.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: upstream returned HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: upstream call failed: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: upstream error: %s", e.Provider, e.Message)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ClassifyError returns the wire error type for an error produced anywhere
// in the call path. Unrecognized errors classify as server_error.
func ClassifyError(err error) ErrorType {
	var (
		notFound   *ProviderNotFoundError
		unsupp     *UnsupportedModelError
		missing    *MissingInputError
		invalid    *InvalidParameterTypeError
		config     *ConfigurationError
		upstream   *UpstreamError
		wireDetail *ErrorDetail
	)
	switch {
	case errors.As(err, &notFound):
		return ErrorTypeProviderNotFound
	case errors.As(err, &unsupp):
		return ErrorTypeUnsupportedModel
	case errors.As(err, &missing):
		return ErrorTypeMissingInput
	case errors.As(err, &invalid):
		return ErrorTypeInvalidParameterType
	case errors.As(err, &config):
		return ErrorTypeConfiguration
	case errors.As(err, &upstream):
		return ErrorTypeUpstream
	case errors.As(err, &wireDetail):
		return wireDetail.Type
	default:
		return ErrorTypeServerError
	}
}

// ErrorDetail is the wire form of an error, serialized inside ErrorResponse.
type ErrorDetail struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Param   string    `json:"param,omitempty"`
}

// Error implements the error interface so transport-boundary validation can
// return ErrorDetail values directly.
func (e *ErrorDetail) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an ErrorDetail for JSON serialization as the
// top-level error response body.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// NewInvalidRequestError creates an ErrorDetail for malformed requests.
func NewInvalidRequestError(param, message string) *ErrorDetail {
	return &ErrorDetail{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewUnauthorizedError creates an ErrorDetail for failed authentication.
func NewUnauthorizedError(message string) *ErrorDetail {
	return &ErrorDetail{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewNotFoundError creates an ErrorDetail for resources that cannot be found.
func NewNotFoundError(message string) *ErrorDetail {
	return &ErrorDetail{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewTooManyRequestsError creates an ErrorDetail for rate limiting.
func NewTooManyRequestsError(message string) *ErrorDetail {
	return &ErrorDetail{
		Type:    ErrorTypeTooManyRequests,
		Message: message,
	}
}

// NewServerError creates an ErrorDetail for internal server errors.
func NewServerError(message string) *ErrorDetail {
	return &ErrorDetail{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}
