package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/quix-it/entity-api/internal/api/shared"
	"github.com/quix-it/entity-api/internal/domain"
	"github.com/quix-it/entity-api/internal/service/auth"
	"github.com/quix-it/entity-api/internal/store"
)

// Stable wire-level error codes.
const (
	CodeResourceNotFound      = "RESOURCE_NOT_FOUND"
	CodeValidationError       = "VALIDATION_ERROR"
	CodeBusinessRuleViolation = "BUSINESS_RULE_VIOLATION"
	CodeForbidden             = "FORBIDDEN"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInternalServerError   = "INTERNAL_SERVER_ERROR"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrNoIdentity):
		return http.StatusUnauthorized

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Uniqueness conflicts are the one business-rule violation that maps
	// to 409 rather than 400
	case store.IsDuplicateError(err):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidSortField),
		errors.Is(err, domain.ErrInvalidPageRequest),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToCode maps internal errors to the stable wire error code.
func MapErrorToCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrNoIdentity):
		return CodeUnauthorized

	case store.IsNotFoundError(err):
		return CodeResourceNotFound

	case store.IsDuplicateError(err):
		return CodeBusinessRuleViolation

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidSortField),
		errors.Is(err, domain.ErrInvalidPageRequest),
		errors.Is(err, store.ErrInvalidEntity):
		return CodeValidationError

	default:
		return CodeInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrNoIdentity):
		return "Authentication required"

	case errors.Is(err, store.ErrEntityNotFound):
		return "Entity not found"

	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, store.ErrCodeExists):
		return "An entity with this code already exists (conflict)"

	case store.IsDuplicateError(err):
		return "Resource already exists (conflict)"

	// Domain validation sentinel errors carry no internal detail, so their
	// message is safe to surface as-is
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidSortField),
		errors.Is(err, domain.ErrInvalidPageRequest):
		return err.Error()

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// ValidationDetails converts a validator error into per-field wire details.
// Unknown error shapes produce a single generic detail rather than leaking
// the raw message.
func ValidationDetails(err error) []shared.ErrorDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []shared.ErrorDetail{{Field: "request", Issue: "malformed request body"}}
	}

	details := make([]shared.ErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, shared.ErrorDetail{
			Field: strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
			Issue: validationIssue(fe),
		})
	}
	return details
}

// respondServiceError writes the mapped error response for a failed service
// call. Domain validation failures carry per-field details like their
// adapter-level counterparts; everything else goes through the standard
// status/code/safe-message mapping with server-side logging.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if details := DomainValidationDetails(err); details != nil {
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			CodeValidationError, "Request validation failed", details)
		return
	}
	shared.RespondWithErrorAndLog(w, r,
		MapErrorToStatusCode(err), MapErrorToCode(err), GetSafeErrorMessage(err), err)
}

// DomainValidationDetails maps a domain validation sentinel to the same
// per-field wire details the struct validator produces, so a value the
// service rejects (e.g. blank after trimming) reports which field failed.
// Returns nil for errors that are not field-level validation failures.
func DomainValidationDetails(err error) []shared.ErrorDetail {
	switch {
	case errors.Is(err, domain.ErrEntityCodeEmpty):
		return []shared.ErrorDetail{{Field: "code", Issue: "cannot be blank"}}
	case errors.Is(err, domain.ErrEntityCodeTooLong):
		return []shared.ErrorDetail{{
			Field: "code",
			Issue: fmt.Sprintf("must not exceed %d characters", domain.MaxCodeLength),
		}}
	case errors.Is(err, domain.ErrEntityDescriptionEmpty):
		return []shared.ErrorDetail{{Field: "description", Issue: "cannot be blank"}}
	case errors.Is(err, domain.ErrEntityDescriptionTooLong):
		return []shared.ErrorDetail{{
			Field: "description",
			Issue: fmt.Sprintf("must not exceed %d characters", domain.MaxDescriptionLength),
		}}
	default:
		return nil
	}
}

// validationIssue maps a validator tag to a user-friendly issue description.
func validationIssue(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return "is invalid"
	}
}
