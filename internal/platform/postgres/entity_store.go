package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/quix-it/entity-api/internal/domain"
	"github.com/quix-it/entity-api/internal/platform/logger"
	"github.com/quix-it/entity-api/internal/store"
)

// sortColumns translates domain sort field names to column names. Only
// fields present here can ever appear in an ORDER BY clause; the service
// layer validates against the domain allow-list first, this map is the
// second line of defense.
var sortColumns = map[string]string{
	"code":           "code",
	"description":    "description",
	"createDate":     "create_date",
	"createUser":     "create_user",
	"lastUpdateDate": "last_update_date",
	"lastUpdateUser": "last_update_user",
	"canceled":       "canceled",
}

// PostgresEntityStore implements the store.EntityStore interface
// using a PostgreSQL database as the storage backend.
type PostgresEntityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEntityStore creates a new PostgreSQL implementation of the
// EntityStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresEntityStore(db store.DBTX, logger *slog.Logger) *PostgresEntityStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresEntityStore{
		db:     db,
		logger: logger.With(slog.String("component", "entity_store")),
	}
}

// Ensure PostgresEntityStore implements store.EntityStore interface
var _ store.EntityStore = (*PostgresEntityStore)(nil)

// WithTx implements store.EntityStore.WithTx
// It returns a store bound to the given transaction.
func (s *PostgresEntityStore) WithTx(tx *sql.Tx) store.EntityStore {
	return &PostgresEntityStore{
		db:     tx,
		logger: s.logger,
	}
}

// Save implements store.EntityStore.Save
// It inserts a new entity row, handling domain validation.
// Returns store.ErrCodeExists if a non-canceled entity with the same code
// already exists (unique constraint violation).
func (s *PostgresEntityStore) Save(ctx context.Context, entity *domain.Entity) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entity.Validate(); err != nil {
		log.Warn("entity validation failed during save",
			slog.String("error", err.Error()),
			slog.String("entity_id", entity.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO entities
			(id, code, description, create_date, create_user,
			 last_update_date, last_update_user, canceled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entity.ID,
		entity.Code,
		entity.Description,
		entity.CreateDate,
		entity.CreateUser,
		entity.LastUpdateDate,
		entity.LastUpdateUser,
		entity.Canceled,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate code during entity creation",
				slog.String("entity_id", entity.ID.String()),
				slog.String("code", entity.Code))
			return store.ErrCodeExists
		}

		log.Error("failed to create entity",
			slog.String("error", err.Error()),
			slog.String("entity_id", entity.ID.String()))
		return store.NewStoreError("entity", "create", "insert failed", err)
	}

	log.Info("entity created successfully",
		slog.String("entity_id", entity.ID.String()),
		slog.String("code", entity.Code))
	return nil
}

// GetByID implements store.EntityStore.GetByID
// It retrieves an entity by its unique ID, canceled or not.
// Returns store.ErrEntityNotFound if the entity does not exist.
func (s *PostgresEntityStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, code, description, create_date, create_user,
		       last_update_date, last_update_user, canceled
		FROM entities
		WHERE id = $1
	`

	entity, err := scanEntity(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("entity not found", slog.String("entity_id", id.String()))
			return nil, store.ErrEntityNotFound
		}
		log.Error("failed to get entity by ID",
			slog.String("error", err.Error()),
			slog.String("entity_id", id.String()))
		return nil, store.NewStoreError("entity", "get", "query failed", err)
	}

	return entity, nil
}

// FindPage implements store.EntityStore.FindPage
// It retrieves one page of entities ordered per the page request, plus the
// total element count. The sort field is mapped through the fixed column
// table; an unmapped field is a programming error upstream and is rejected.
func (s *PostgresEntityStore) FindPage(
	ctx context.Context,
	req domain.PageRequest,
	filter domain.ListFilter,
) (*domain.EntityPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	column, ok := sortColumns[req.SortField]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSortField, req.SortField)
	}

	direction := "ASC"
	if req.SortDirection == domain.SortDesc {
		direction = "DESC"
	}

	where := ""
	if filter.ExcludeCanceled {
		where = "WHERE canceled = FALSE"
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM entities %s`, where)

	var total int64
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		log.Error("failed to count entities", slog.String("error", err.Error()))
		return nil, store.NewStoreError("entity", "list", "count failed", err)
	}

	// column and direction come from fixed tables above, never from input.
	// Secondary id ordering keeps pagination stable across equal keys.
	pageQuery := fmt.Sprintf(`
		SELECT id, code, description, create_date, create_user,
		       last_update_date, last_update_user, canceled
		FROM entities
		%s
		ORDER BY %s %s, id ASC
		LIMIT $1 OFFSET $2
	`, where, column, direction)

	rows, err := s.db.QueryContext(ctx, pageQuery, req.Size, req.Offset())
	if err != nil {
		log.Error("failed to query entity page",
			slog.String("error", err.Error()),
			slog.String("sort_field", req.SortField))
		return nil, store.NewStoreError("entity", "list", "page query failed", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var entities []*domain.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			log.Error("failed to scan entity row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("entity", "list", "row scan failed", err)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("entity", "list", "row iteration failed", err)
	}

	log.Debug("found entity page",
		slog.Int("count", len(entities)),
		slog.Int64("total", total),
		slog.Int("page", req.Number))
	return domain.NewEntityPage(entities, req, total), nil
}

// Update implements store.EntityStore.Update
// It persists changes to an existing entity.
// Returns store.ErrEntityNotFound if the entity does not exist and
// store.ErrCodeExists if the new code collides with another non-canceled
// entity's code.
func (s *PostgresEntityStore) Update(ctx context.Context, entity *domain.Entity) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entity.Validate(); err != nil {
		log.Warn("entity validation failed during update",
			slog.String("error", err.Error()),
			slog.String("entity_id", entity.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE entities
		SET code = $1, description = $2,
		    last_update_date = $3, last_update_user = $4, canceled = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		entity.Code,
		entity.Description,
		entity.LastUpdateDate,
		entity.LastUpdateUser,
		entity.Canceled,
		entity.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate code during entity update",
				slog.String("entity_id", entity.ID.String()),
				slog.String("code", entity.Code))
			return store.ErrCodeExists
		}

		log.Error("failed to update entity",
			slog.String("error", err.Error()),
			slog.String("entity_id", entity.ID.String()))
		return store.NewStoreError("entity", "update", "update failed", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("entity_id", entity.ID.String()))
		return store.NewStoreError("entity", "update", "rows affected failed", err)
	}

	if rowsAffected == 0 {
		log.Debug("entity not found for update",
			slog.String("entity_id", entity.ID.String()))
		return store.ErrEntityNotFound
	}

	log.Info("entity updated successfully",
		slog.String("entity_id", entity.ID.String()),
		slog.Bool("canceled", entity.Canceled))
	return nil
}

// ExistsByID implements store.EntityStore.ExistsByID
func (s *PostgresEntityStore) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT EXISTS (SELECT 1 FROM entities WHERE id = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		log.Error("failed to check entity existence",
			slog.String("error", err.Error()),
			slog.String("entity_id", id.String()))
		return false, store.NewStoreError("entity", "exists", "query failed", err)
	}

	return exists, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntity maps one entities row to a domain record, converting the
// nullable audit columns.
func scanEntity(row rowScanner) (*domain.Entity, error) {
	var entity domain.Entity
	var lastUpdateDate sql.NullTime
	var lastUpdateUser sql.NullString

	err := row.Scan(
		&entity.ID,
		&entity.Code,
		&entity.Description,
		&entity.CreateDate,
		&entity.CreateUser,
		&lastUpdateDate,
		&lastUpdateUser,
		&entity.Canceled,
	)
	if err != nil {
		return nil, err
	}

	if lastUpdateDate.Valid {
		t := lastUpdateDate.Time
		entity.LastUpdateDate = &t
	}
	if lastUpdateUser.Valid {
		u := lastUpdateUser.String
		entity.LastUpdateUser = &u
	}

	return &entity, nil
}
