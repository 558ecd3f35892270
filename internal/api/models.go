package api

import (
	"time"

	"github.com/quix-it/entity-api/internal/domain"
)

// CreateEntityRequest is the request body for POST /entities.
type CreateEntityRequest struct {
	Code        string `json:"code"        validate:"required,max=50"`
	Description string `json:"description" validate:"required,max=255"`
}

// UpdateEntityRequest is the request body for PUT /entities/{id}.
// Constraints match CreateEntityRequest.
type UpdateEntityRequest struct {
	Code        string `json:"code"        validate:"required,max=50"`
	Description string `json:"description" validate:"required,max=255"`
}

// EntityResponse is the wire representation of an entity record.
// Timestamps are serialized as ISO-8601 UTC; the last-update pair is null
// until the record's first mutation.
type EntityResponse struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	Description    string     `json:"description"`
	CreateDate     time.Time  `json:"createDate"`
	CreateUser     string     `json:"createUser"`
	LastUpdateDate *time.Time `json:"lastUpdateDate"`
	LastUpdateUser *string    `json:"lastUpdateUser"`
	Canceled       bool       `json:"canceled"`
}

// EntityPageResponse is the wire representation of one page of entities.
type EntityPageResponse struct {
	Content       []EntityResponse `json:"content"`
	PageNumber    int              `json:"pageNumber"`
	PageSize      int              `json:"pageSize"`
	TotalElements int64            `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
}

// entityToResponse converts a domain.Entity to its wire representation.
// Both timestamps are normalized to UTC regardless of the scan location.
func entityToResponse(entity *domain.Entity) EntityResponse {
	var lastUpdateDate *time.Time
	if entity.LastUpdateDate != nil {
		utc := entity.LastUpdateDate.UTC()
		lastUpdateDate = &utc
	}

	return EntityResponse{
		ID:             entity.ID.String(),
		Code:           entity.Code,
		Description:    entity.Description,
		CreateDate:     entity.CreateDate.UTC(),
		CreateUser:     entity.CreateUser,
		LastUpdateDate: lastUpdateDate,
		LastUpdateUser: entity.LastUpdateUser,
		Canceled:       entity.Canceled,
	}
}

// pageToResponse converts a domain.EntityPage to its wire representation.
func pageToResponse(page *domain.EntityPage) EntityPageResponse {
	content := make([]EntityResponse, 0, len(page.Items))
	for _, entity := range page.Items {
		content = append(content, entityToResponse(entity))
	}

	return EntityPageResponse{
		Content:       content,
		PageNumber:    page.Number,
		PageSize:      page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
	}
}
