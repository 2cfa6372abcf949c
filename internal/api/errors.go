package api

import (
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfwise/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// Its body has the same shape as errors.Error.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	Status     int                 `json:"status" doc:"HTTP status code"`
	MessageKey string              `json:"messageKey" doc:"Machine-readable error key"`
	Message    string              `json:"message" doc:"Human-readable error message"`
	Details    []errors.FieldError `json:"errorDetails,omitempty" doc:"Per-field validation failures"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.Status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// fromDomain converts a domain error, masking internal messages.
func fromDomain(e *errors.Error) *APIError {
	msg := e.Message
	if e.MessageKey == errors.KeyInternal {
		msg = "internal server error"
	}
	return &APIError{
		Status:     e.Status,
		MessageKey: string(e.MessageKey),
		Message:    msg,
		Details:    e.Details,
	}
}

// RegisterErrorHandler configures huma to report every failure in the
// domain error shape. Request validation failures become error.validation.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var details []errors.FieldError
		for _, err := range errs {
			var domainErr *errors.Error
			if errors.As(err, &domainErr) {
				return fromDomain(domainErr)
			}

			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				details = append(details, errors.FieldError{
					FieldName:  detail.Location,
					FieldValue: fmt.Sprint(detail.Value),
					MessageKey: errors.KeyValidation,
					Message:    detail.Message,
				})
			}
		}

		key := statusToKey(status)
		switch key {
		case errors.KeyValidation:
			status = key.Status()
		case errors.KeyInternal:
			message = "internal server error"
		}
		return &APIError{
			Status:     status,
			MessageKey: string(key),
			Message:    message,
			Details:    details,
		}
	}
}

// statusToKey maps HTTP status codes produced by huma itself to error keys.
func statusToKey(status int) errors.Key {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.KeyValidation
	case http.StatusUnauthorized:
		return errors.KeyUnauthorized
	case http.StatusNotFound:
		return errors.KeyNotFound
	case http.StatusRequestTimeout:
		return errors.KeyTimeout
	case http.StatusUnsupportedMediaType:
		return errors.KeyInvalidContentType
	}
	if status >= http.StatusInternalServerError {
		return errors.KeyInternal
	}
	return errors.KeyGeneric
}
