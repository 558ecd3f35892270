package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// ErrorDetail describes one field-level problem in a rejected request.
type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ErrorResponse is the stable wire error shape. Code is a machine-readable
// error identifier (e.g. VALIDATION_ERROR), Message is safe for clients,
// and CorrelationID joins the response with the server-side log entry.
type ErrorResponse struct {
	Code          string        `json:"code"`
	Message       string        `json:"message"`
	Details       []ErrorDetail `json:"details,omitempty"`
	CorrelationID string        `json:"correlationId,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// CorrelationID returns the request's trace ID when present, otherwise a
// fresh identifier, so every error response carries one.
func CorrelationID(r *http.Request) string {
	if traceID := GetTraceID(r.Context()); traceID != "" {
		return traceID
	}
	return uuid.New().String()
}

// RespondWithError writes a JSON error response with the given status,
// stable error code and client-safe message.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	RespondWithErrorDetails(w, r, status, code, message, nil)
}

// RespondWithErrorDetails writes a JSON error response including per-field
// details.
func RespondWithErrorDetails(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	code, message string,
	details []ErrorDetail,
) {
	correlationID := CorrelationID(r)

	errorResponse := ErrorResponse{
		Code:          code,
		Message:       message,
		Details:       details,
		CorrelationID: correlationID,
	}

	slog.Debug("sending error response",
		"status_code", status,
		"code", code,
		"message", message,
		"correlation_id", correlationID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, errorResponse)
}

// RespondWithErrorAndLog writes a JSON error response and also logs the
// detailed error. The raw error never reaches the client; only the safe
// message does, while the log entry carries the full diagnostic context
// under the same correlation ID.
//
// Log level strategy:
// - 5xx errors: logged at ERROR level
// - 4xx errors: logged at WARN level
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	code, userMessage string,
	err error,
) {
	correlationID := CorrelationID(r)

	errorResponse := ErrorResponse{
		Code:          code,
		Message:       userMessage,
		CorrelationID: correlationID,
	}

	logAttrs := []slog.Attr{
		slog.String("correlation_id", correlationID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("code", code),
		slog.String("user_message", userMessage),
	}

	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", err.Error()),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	logLevel := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}

	slog.LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, errorResponse)
}
