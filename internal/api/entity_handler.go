// Package api provides HTTP handlers for the API.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/quix-it/entity-api/internal/api/shared"
	"github.com/quix-it/entity-api/internal/domain"
	"github.com/quix-it/entity-api/internal/platform/logger"
	"github.com/quix-it/entity-api/internal/service"
)

// EntityHandler handles entity-related HTTP requests.
type EntityHandler struct {
	entityService service.EntityLifecycle
	logger        *slog.Logger
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(entityService service.EntityLifecycle, logger *slog.Logger) *EntityHandler {
	if entityService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("entityService cannot be nil for EntityHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for EntityHandler")
	}

	return &EntityHandler{
		entityService: entityService,
		logger:        logger.With(slog.String("component", "entity_handler")),
	}
}

// CreateEntity handles POST /entities requests.
// On success it responds 201 with the created record and a Location header.
func (h *EntityHandler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		log.Warn("identity not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized,
			CodeUnauthorized, "Authentication required")
		return
	}

	var req CreateEntityRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", err.Error()))
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			CodeValidationError, "Request validation failed",
			[]shared.ErrorDetail{{Field: "request", Issue: "malformed request body"}})
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		log.Warn("validation error", slog.String("error", err.Error()))
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			CodeValidationError, "Request validation failed", ValidationDetails(err))
		return
	}

	entity, err := h.entityService.Create(r.Context(), identity, service.CreateEntityRequest{
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("entity created",
		slog.String("entity_id", entity.ID.String()),
		slog.String("actor", identity.Username))

	w.Header().Set("Location", fmt.Sprintf("/entities/%s", entity.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, entityToResponse(entity))
}

// GetEntity handles GET /entities/{id} requests.
// Canceled entities are returned like any other.
func (h *EntityHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.entityIDFromPath(w, r)
	if !ok {
		return
	}

	entity, err := h.entityService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("entity retrieved", slog.String("entity_id", id.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, entityToResponse(entity))
}

// ListEntities handles GET /entities requests with pagination and sorting.
// Query parameters: page (default 0), size (default 20), sortBy (default
// code), sortDirection (asc|desc, default asc), includeCanceled (default
// true). An unknown sortBy value is rejected before any query runs.
func (h *EntityHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	pageReq, filter, err := parseListQuery(r)
	if err != nil {
		log.Warn("invalid list query", slog.String("error", err.Error()))
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			CodeValidationError, "Request validation failed",
			[]shared.ErrorDetail{{Field: "query", Issue: err.Error()}})
		return
	}

	page, err := h.entityService.List(r.Context(), pageReq, filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("entities listed",
		slog.Int("page", page.Number),
		slog.Int64("total", page.TotalElements))
	shared.RespondWithJSON(w, r, http.StatusOK, pageToResponse(page))
}

// UpdateEntity handles PUT /entities/{id} requests.
func (h *EntityHandler) UpdateEntity(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.entityIDFromPath(w, r)
	if !ok {
		return
	}

	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		log.Warn("identity not found in request context",
			slog.String("entity_id", id.String()))
		shared.RespondWithError(w, r, http.StatusUnauthorized,
			CodeUnauthorized, "Authentication required")
		return
	}

	var req UpdateEntityRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", err.Error()),
			slog.String("entity_id", id.String()))
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			CodeValidationError, "Request validation failed",
			[]shared.ErrorDetail{{Field: "request", Issue: "malformed request body"}})
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		log.Warn("validation error",
			slog.String("error", err.Error()),
			slog.String("entity_id", id.String()))
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			CodeValidationError, "Request validation failed", ValidationDetails(err))
		return
	}

	entity, err := h.entityService.Update(r.Context(), identity, id, service.UpdateEntityRequest{
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("entity updated",
		slog.String("entity_id", id.String()),
		slog.String("actor", identity.Username))
	shared.RespondWithJSON(w, r, http.StatusOK, entityToResponse(entity))
}

// DeleteEntity handles DELETE /entities/{id} requests.
// Deletion is logical: the record is flagged canceled and stays readable.
func (h *EntityHandler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.entityIDFromPath(w, r)
	if !ok {
		return
	}

	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		log.Warn("identity not found in request context",
			slog.String("entity_id", id.String()))
		shared.RespondWithError(w, r, http.StatusUnauthorized,
			CodeUnauthorized, "Authentication required")
		return
	}

	if err := h.entityService.Delete(r.Context(), identity, id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("entity canceled",
		slog.String("entity_id", id.String()),
		slog.String("actor", identity.Username))
	w.WriteHeader(http.StatusNoContent)
}

// entityIDFromPath extracts and parses the {id} path parameter, writing a
// validation error response when it is missing or malformed.
func (h *EntityHandler) entityIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	pathID := chi.URLParam(r, "id")
	if pathID == "" {
		log.Warn("entity ID not found in URL path")
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			CodeValidationError, "Request validation failed",
			[]shared.ErrorDetail{{Field: "id", Issue: "is required"}})
		return uuid.Nil, false
	}

	id, err := uuid.Parse(pathID)
	if err != nil {
		log.Warn("invalid entity ID format", slog.String("entity_id", pathID))
		shared.RespondWithErrorDetails(w, r, http.StatusBadRequest,
			CodeValidationError, "Request validation failed",
			[]shared.ErrorDetail{{Field: "id", Issue: "must be a valid UUID"}})
		return uuid.Nil, false
	}

	return id, true
}

// parseListQuery reads pagination, sorting and filter query parameters,
// applying the documented defaults. Structural problems (non-numeric page,
// unknown direction) are reported here; the sort-field allow-list check
// happens in the service, before query construction.
func parseListQuery(r *http.Request) (domain.PageRequest, domain.ListFilter, error) {
	q := r.URL.Query()

	req := domain.PageRequest{
		SortField:     q.Get("sortBy"),
		SortDirection: domain.SortDirection(q.Get("sortDirection")),
	}
	filter := domain.ListFilter{}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return req, filter, fmt.Errorf("page must be an integer")
		}
		req.Number = page
	}

	if raw := q.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return req, filter, fmt.Errorf("size must be an integer")
		}
		// Normalize only fills in an absent size; an explicit non-positive
		// one is a caller error.
		if size <= 0 {
			return req, filter, fmt.Errorf("size must be positive")
		}
		req.Size = size
	}

	if raw := q.Get("includeCanceled"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return req, filter, fmt.Errorf("includeCanceled must be a boolean")
		}
		filter.ExcludeCanceled = !include
	}

	return req, filter, nil
}
