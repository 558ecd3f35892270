// Package service implements the business use cases of the application.
package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/quix-it/entity-api/internal/domain"
	"github.com/quix-it/entity-api/internal/platform/logger"
	"github.com/quix-it/entity-api/internal/service/auth"
	"github.com/quix-it/entity-api/internal/store"
)

// CreateEntityRequest carries the caller-supplied fields for Create.
type CreateEntityRequest struct {
	Code        string
	Description string
}

// UpdateEntityRequest carries the caller-supplied fields for Update.
// The constraints are the same as for Create.
type UpdateEntityRequest struct {
	Code        string
	Description string
}

// EntityLifecycle defines the entity use cases exposed to the transport
// layer. Implemented by EntityService; handlers depend on this interface so
// tests can substitute a fake.
type EntityLifecycle interface {
	Create(ctx context.Context, actor auth.Identity, req CreateEntityRequest) (*domain.Entity, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Entity, error)
	List(ctx context.Context, req domain.PageRequest, filter domain.ListFilter) (*domain.EntityPage, error)
	Update(ctx context.Context, actor auth.Identity, id uuid.UUID, req UpdateEntityRequest) (*domain.Entity, error)
	Delete(ctx context.Context, actor auth.Identity, id uuid.UUID) error
}

// EntityService implements the entity lifecycle: create, get, list, update
// and logical delete. All business rules live here; the acting identity is
// an explicit parameter on every mutating operation, never ambient state.
type EntityService struct {
	db          *sql.DB
	entityStore store.EntityStore
	logger      *slog.Logger
}

// NewEntityService creates a new EntityService with the given dependencies.
// db may be nil in tests that don't exercise transactional paths through a
// real database; entityStore and logger are required.
func NewEntityService(
	db *sql.DB,
	entityStore store.EntityStore,
	logger *slog.Logger,
) *EntityService {
	if entityStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("entityStore cannot be nil for EntityService")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for EntityService")
	}

	return &EntityService{
		db:          db,
		entityStore: entityStore,
		logger:      logger.With(slog.String("component", "entity_service")),
	}
}

// Ensure EntityService implements the EntityLifecycle interface
var _ EntityLifecycle = (*EntityService)(nil)

// Create validates the request, builds a new entity stamped with the acting
// username and persists it. Structural validation happens at the transport
// boundary, but blank-after-trim values are re-checked here so the rule
// holds for every caller.
// Returns store.ErrCodeExists if the code collides with another
// non-canceled entity's code.
func (s *EntityService) Create(
	ctx context.Context,
	actor auth.Identity,
	req CreateEntityRequest,
) (*domain.Entity, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if actor.IsZero() {
		log.Warn("create entity called without an authenticated identity")
		return nil, auth.ErrNoIdentity
	}

	entity, err := domain.NewEntity(req.Code, req.Description, actor.Username)
	if err != nil {
		log.Warn("entity validation failed during create",
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.entityStore.Save(ctx, entity); err != nil {
		return nil, err
	}

	log.Info("entity created",
		slog.String("entity_id", entity.ID.String()),
		slog.String("code", entity.Code),
		slog.String("actor", actor.Username))
	return entity, nil
}

// Get retrieves an entity by ID. Canceled entities are returned like any
// other: cancellation is not deletion.
// Returns store.ErrEntityNotFound if no entity with that ID exists.
func (s *EntityService) Get(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	return s.entityStore.GetByID(ctx, id)
}

// List retrieves one page of entities. The sort field is validated against
// the domain allow-list before any query is constructed; an unknown field
// is rejected as a validation failure, keeping caller input out of the
// query layer. Canceled entities are included unless the filter excludes
// them.
func (s *EntityService) List(
	ctx context.Context,
	req domain.PageRequest,
	filter domain.ListFilter,
) (*domain.EntityPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	req = req.Normalize()
	if err := req.Validate(); err != nil {
		log.Warn("invalid page request",
			slog.String("error", err.Error()),
			slog.String("sort_field", req.SortField))
		return nil, err
	}

	return s.entityStore.FindPage(ctx, req, filter)
}

// Update loads the entity, overwrites code and description (trimmed) and
// stamps the last-update audit fields with the acting username. The
// creation audit fields and the canceled flag are untouched. Load and
// write share one transaction so the write applies to the row that was
// read; there is no version check, so concurrent updates remain
// last-write-wins.
func (s *EntityService) Update(
	ctx context.Context,
	actor auth.Identity,
	id uuid.UUID,
	req UpdateEntityRequest,
) (*domain.Entity, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if actor.IsZero() {
		log.Warn("update entity called without an authenticated identity",
			slog.String("entity_id", id.String()))
		return nil, auth.ErrNoIdentity
	}

	var updated *domain.Entity
	err := s.inTransaction(ctx, func(ctx context.Context, txStore store.EntityStore) error {
		entity, err := txStore.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if err := entity.UpdateDetails(req.Code, req.Description, actor.Username); err != nil {
			log.Warn("entity validation failed during update",
				slog.String("error", err.Error()),
				slog.String("entity_id", id.String()))
			return err
		}

		if err := txStore.Update(ctx, entity); err != nil {
			return err
		}

		updated = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("entity updated",
		slog.String("entity_id", id.String()),
		slog.String("actor", actor.Username))
	return updated, nil
}

// Delete performs a logical delete: the entity is flagged canceled and the
// last-update audit fields are stamped, exactly as Update stamps them.
// Nothing is removed from storage. Deleting an already-canceled entity
// succeeds and re-stamps the audit fields.
// Returns store.ErrEntityNotFound if no entity with that ID exists.
func (s *EntityService) Delete(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if actor.IsZero() {
		log.Warn("delete entity called without an authenticated identity",
			slog.String("entity_id", id.String()))
		return auth.ErrNoIdentity
	}

	err := s.inTransaction(ctx, func(ctx context.Context, txStore store.EntityStore) error {
		entity, err := txStore.GetByID(ctx, id)
		if err != nil {
			return err
		}

		entity.Cancel(actor.Username)

		return txStore.Update(ctx, entity)
	})
	if err != nil {
		return err
	}

	log.Info("entity canceled",
		slog.String("entity_id", id.String()),
		slog.String("actor", actor.Username))
	return nil
}

// inTransaction runs fn against a transaction-bound store when a database
// handle is available, and against the plain store otherwise (fake stores
// in tests manage their own consistency).
func (s *EntityService) inTransaction(
	ctx context.Context,
	fn func(ctx context.Context, txStore store.EntityStore) error,
) error {
	if s.db == nil {
		return fn(ctx, s.entityStore)
	}

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.entityStore.WithTx(tx))
	})
}
