// Package response writes JSON responses for the plain chi handlers of the
// document store server.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"

	"github.com/listenupapp/shelfwise/internal/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Status     int    `json:"status"`
	MessageKey string `json:"messageKey"`
	Message    string `json:"message"`
}

// JSON writes data as a JSON response with the given status code using json/v2.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, data); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// Raw writes pre-encoded JSON.
func Raw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// Created writes a created response (201 Created).
func Created(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusCreated, data, logger)
}

// NoContent writes a no content response (204 No Content).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes an error response for e.
func Error(w http.ResponseWriter, e *errors.Error, logger *slog.Logger) {
	JSON(w, e.Status, ErrorBody{
		Status:     e.Status,
		MessageKey: string(e.MessageKey),
		Message:    e.Message,
	}, logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Unknown errors become 500 and are logged.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	e := errors.From(err)
	if e.Status >= http.StatusInternalServerError && logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	if e.MessageKey == errors.KeyInternal {
		e = errors.Internal("internal server error")
	}
	Error(w, e, logger)
}
