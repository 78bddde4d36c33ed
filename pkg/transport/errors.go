package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/modelgate/modelgate/pkg/api"
)

// HTTPStatusForType maps a wire error type to the corresponding HTTP status
// code. Transport-level errors (body too large, unsupported content type)
// are handled separately by the HTTP adapter.
func HTTPStatusForType(t api.ErrorType) int {
	switch t {
	case api.ErrorTypeProviderNotFound, api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeUnsupportedModel, api.ErrorTypeMissingInput,
		api.ErrorTypeInvalidParameterType, api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	case api.ErrorTypeUpstream:
		return http.StatusBadGateway
	case api.ErrorTypeConfiguration, api.ErrorTypeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorDetailFromError converts any error from the call path into its wire
// form. ErrorDetail values pass through unchanged; typed provider and
// registry errors are classified and keep their message text. The param
// field is filled when a specific request field is at fault.
func ErrorDetailFromError(err error) *api.ErrorDetail {
	var detail *api.ErrorDetail
	if errors.As(err, &detail) {
		return detail
	}

	d := &api.ErrorDetail{
		Type:    api.ClassifyError(err),
		Message: err.Error(),
	}

	var invalidParam *api.InvalidParameterTypeError
	var unsupported *api.UnsupportedModelError
	switch {
	case errors.As(err, &invalidParam):
		d.Param = invalidParam.Field
	case errors.As(err, &unsupported):
		d.Param = "model"
	}

	return d
}

// WriteErrorResponse writes a JSON error response using the ErrorResponse
// envelope from pkg/api. It sets the Content-Type header and writes the
// HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, detail *api.ErrorDetail, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: detail})
}

// WriteError converts err to its wire form and writes it, deriving the HTTP
// status code from the error type.
func WriteError(w http.ResponseWriter, err error) {
	detail := ErrorDetailFromError(err)
	WriteErrorResponse(w, detail, HTTPStatusForType(detail.Type))
}
