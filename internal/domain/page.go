package domain

import "fmt"

// SortDirection is the ordering direction of a list query.
type SortDirection string

// Allowed sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Defaults and bounds for list queries.
const (
	DefaultPageSize  = 20
	MaxPageSize      = 100
	DefaultSortField = "code"
)

// allowedSortFields is the fixed set of field names permitted as a sort
// key. Sort fields are validated against this set before any query is
// constructed, so no caller-supplied value ever reaches the query layer
// as a column name.
var allowedSortFields = map[string]struct{}{
	"code":           {},
	"description":    {},
	"createDate":     {},
	"createUser":     {},
	"lastUpdateDate": {},
	"lastUpdateUser": {},
	"canceled":       {},
}

// IsValidSortField reports whether the given field name is an allowed sort
// key. The check is case-sensitive.
func IsValidSortField(field string) bool {
	_, ok := allowedSortFields[field]
	return ok
}

// PageRequest describes the pagination and ordering of a list query.
// It is the only pagination value that crosses layer boundaries; transport
// and storage representations are converted at the respective edges.
type PageRequest struct {
	Number        int // zero-based page index
	Size          int
	SortField     string
	SortDirection SortDirection
}

// Normalize fills in defaults for zero-valued fields and clamps the page
// size to MaxPageSize. It does not validate; call Validate afterwards.
func (p PageRequest) Normalize() PageRequest {
	if p.Size == 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.SortField == "" {
		p.SortField = DefaultSortField
	}
	if p.SortDirection == "" {
		p.SortDirection = SortAsc
	}
	return p
}

// Validate checks page bounds, the sort direction and the sort field
// against the allow-list.
func (p PageRequest) Validate() error {
	if p.Number < 0 {
		return fmt.Errorf("%w: page number must not be negative", ErrInvalidPageRequest)
	}
	if p.Size <= 0 {
		return fmt.Errorf("%w: page size must be positive", ErrInvalidPageRequest)
	}
	if p.SortDirection != SortAsc && p.SortDirection != SortDesc {
		return fmt.Errorf("%w: sort direction must be %q or %q",
			ErrInvalidPageRequest, SortAsc, SortDesc)
	}
	if !IsValidSortField(p.SortField) {
		return fmt.Errorf(
			"%w: %q. Allowed fields: code, description, createDate, createUser, "+
				"lastUpdateDate, lastUpdateUser, canceled",
			ErrInvalidSortField, p.SortField)
	}
	return nil
}

// Offset returns the row offset corresponding to the page number and size.
func (p PageRequest) Offset() int {
	return p.Number * p.Size
}

// ListFilter narrows a list query. The zero value includes canceled
// records, matching Get semantics: cancellation is not deletion.
type ListFilter struct {
	ExcludeCanceled bool
}

// EntityPage is one page of a list query result.
type EntityPage struct {
	Items         []*Entity
	Number        int
	Size          int
	TotalElements int64
	TotalPages    int
}

// NewEntityPage builds an EntityPage from a result slice and total count,
// deriving the page count. Zero elements yield zero pages.
func NewEntityPage(items []*Entity, req PageRequest, totalElements int64) *EntityPage {
	if items == nil {
		items = []*Entity{}
	}

	totalPages := 0
	if totalElements > 0 {
		totalPages = int((totalElements + int64(req.Size) - 1) / int64(req.Size))
	}

	return &EntityPage{
		Items:         items,
		Number:        req.Number,
		Size:          req.Size,
		TotalElements: totalElements,
		TotalPages:    totalPages,
	}
}
