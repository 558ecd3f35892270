package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/quix-it/entity-api/internal/domain"
)

// EntityStore defines the interface for entity data persistence.
//
// Implementations translate between the storage row representation and the
// domain record; the row type never crosses this boundary. No business
// rules are enforced here beyond what the database schema itself
// guarantees (not-null and uniqueness constraints).
type EntityStore interface {
	// Save inserts a new entity.
	// Returns ErrCodeExists if a non-canceled entity with the same code
	// already exists.
	Save(ctx context.Context, entity *domain.Entity) error

	// GetByID retrieves an entity by its unique ID, including canceled ones.
	// Returns ErrEntityNotFound if no entity with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Entity, error)

	// FindPage retrieves one page of entities ordered per the page request.
	// The sort field is assumed to be pre-validated against the domain
	// allow-list by the caller; implementations map it to a column through
	// a fixed translation table and never interpolate it directly.
	FindPage(
		ctx context.Context,
		req domain.PageRequest,
		filter domain.ListFilter,
	) (*domain.EntityPage, error)

	// Update persists changes to an existing entity.
	// Returns ErrEntityNotFound if the entity does not exist and
	// ErrCodeExists if the new code collides with another non-canceled
	// entity's code.
	Update(ctx context.Context, entity *domain.Entity) error

	// ExistsByID reports whether an entity with the given ID exists,
	// canceled or not.
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// WithTx returns an EntityStore bound to the given transaction, for use
	// with RunInTransaction when a load and a write must share one tx.
	WithTx(tx *sql.Tx) EntityStore
}
