package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quix-it/entity-api/internal/api/shared"
	"github.com/quix-it/entity-api/internal/domain"
	"github.com/quix-it/entity-api/internal/service"
	"github.com/quix-it/entity-api/internal/service/auth"
	"github.com/quix-it/entity-api/internal/store"
)

// fakeLifecycle implements service.EntityLifecycle with per-call function
// fields so each test controls exactly the behavior it needs.
type fakeLifecycle struct {
	createFn func(ctx context.Context, actor auth.Identity, req service.CreateEntityRequest) (*domain.Entity, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*domain.Entity, error)
	listFn   func(ctx context.Context, req domain.PageRequest, filter domain.ListFilter) (*domain.EntityPage, error)
	updateFn func(ctx context.Context, actor auth.Identity, id uuid.UUID, req service.UpdateEntityRequest) (*domain.Entity, error)
	deleteFn func(ctx context.Context, actor auth.Identity, id uuid.UUID) error
}

var _ service.EntityLifecycle = (*fakeLifecycle)(nil)

func (f *fakeLifecycle) Create(
	ctx context.Context, actor auth.Identity, req service.CreateEntityRequest,
) (*domain.Entity, error) {
	return f.createFn(ctx, actor, req)
}

func (f *fakeLifecycle) Get(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	return f.getFn(ctx, id)
}

func (f *fakeLifecycle) List(
	ctx context.Context, req domain.PageRequest, filter domain.ListFilter,
) (*domain.EntityPage, error) {
	return f.listFn(ctx, req, filter)
}

func (f *fakeLifecycle) Update(
	ctx context.Context, actor auth.Identity, id uuid.UUID, req service.UpdateEntityRequest,
) (*domain.Entity, error) {
	return f.updateFn(ctx, actor, id, req)
}

func (f *fakeLifecycle) Delete(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	return f.deleteFn(ctx, actor, id)
}

// newTestRouter mounts the handler the way the server does, with a stub
// middleware injecting the given identity instead of the real auth chain.
func newTestRouter(t *testing.T, lifecycle service.EntityLifecycle, identity auth.Identity) http.Handler {
	t.Helper()

	handler := NewEntityHandler(lifecycle, slog.Default())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if !identity.IsZero() {
				ctx = shared.WithIdentity(ctx, identity)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/entities", handler.CreateEntity)
	r.Get("/entities", handler.ListEntities)
	r.Get("/entities/{id}", handler.GetEntity)
	r.Put("/entities/{id}", handler.UpdateEntity)
	r.Delete("/entities/{id}", handler.DeleteEntity)

	return r
}

func testEntity(t *testing.T) *domain.Entity {
	t.Helper()
	entity, err := domain.NewEntity("TEST-1", "A test entity", "alice")
	require.NoError(t, err)
	return entity
}

func decodeError(t *testing.T, body *bytes.Buffer) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestCreateEntity(t *testing.T) {
	t.Parallel()

	aliceIdentity := auth.Identity{Username: "alice", Roles: []string{"user"}}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		entity := testEntity(t)
		lifecycle := &fakeLifecycle{
			createFn: func(_ context.Context, actor auth.Identity, req service.CreateEntityRequest) (*domain.Entity, error) {
				assert.Equal(t, "alice", actor.Username)
				assert.Equal(t, "TEST-1", req.Code)
				return entity, nil
			},
		}
		router := newTestRouter(t, lifecycle, aliceIdentity)

		body := `{"code":"TEST-1","description":"A test entity"}`
		req := httptest.NewRequest(http.MethodPost, "/entities", strings.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, fmt.Sprintf("/entities/%s", entity.ID), rr.Header().Get("Location"))

		var resp EntityResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, entity.ID.String(), resp.ID)
		assert.Equal(t, "TEST-1", resp.Code)
		assert.Equal(t, "alice", resp.CreateUser)
		assert.Nil(t, resp.LastUpdateDate)
		assert.Nil(t, resp.LastUpdateUser)
		assert.False(t, resp.Canceled)
	})

	t.Run("missing identity", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t, &fakeLifecycle{}, auth.Identity{})

		req := httptest.NewRequest(http.MethodPost, "/entities",
			strings.NewReader(`{"code":"X","description":"y"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		resp := decodeError(t, rr.Body)
		assert.Equal(t, CodeUnauthorized, resp.Code)
		assert.NotEmpty(t, resp.CorrelationID)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t, &fakeLifecycle{}, aliceIdentity)

		req := httptest.NewRequest(http.MethodPost, "/entities", strings.NewReader("{not json"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr.Body)
		assert.Equal(t, CodeValidationError, resp.Code)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "request", resp.Details[0].Field)
	})

	t.Run("missing code", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t, &fakeLifecycle{}, aliceIdentity)

		req := httptest.NewRequest(http.MethodPost, "/entities",
			strings.NewReader(`{"description":"no code"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr.Body)
		assert.Equal(t, CodeValidationError, resp.Code)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "code", resp.Details[0].Field)
		assert.Equal(t, "is required", resp.Details[0].Issue)
	})

	t.Run("code too long", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t, &fakeLifecycle{}, aliceIdentity)

		body := fmt.Sprintf(`{"code":%q,"description":"x"}`, strings.Repeat("a", 51))
		req := httptest.NewRequest(http.MethodPost, "/entities", strings.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr.Body)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "code", resp.Details[0].Field)
		assert.Equal(t, "must not exceed 50 characters", resp.Details[0].Issue)
	})

	t.Run("whitespace-only code reports the field", func(t *testing.T) {
		t.Parallel()

		// "   " passes the adapter's required tag; only the service's
		// trim-then-validate step rejects it.
		lifecycle := &fakeLifecycle{
			createFn: func(context.Context, auth.Identity, service.CreateEntityRequest) (*domain.Entity, error) {
				return nil, domain.ErrEntityCodeEmpty
			},
		}
		router := newTestRouter(t, lifecycle, aliceIdentity)

		req := httptest.NewRequest(http.MethodPost, "/entities",
			strings.NewReader(`{"code":"   ","description":"x"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr.Body)
		assert.Equal(t, CodeValidationError, resp.Code)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "code", resp.Details[0].Field)
		assert.Equal(t, "cannot be blank", resp.Details[0].Issue)
	})

	t.Run("duplicate code", func(t *testing.T) {
		t.Parallel()

		lifecycle := &fakeLifecycle{
			createFn: func(context.Context, auth.Identity, service.CreateEntityRequest) (*domain.Entity, error) {
				return nil, store.ErrCodeExists
			},
		}
		router := newTestRouter(t, lifecycle, aliceIdentity)

		req := httptest.NewRequest(http.MethodPost, "/entities",
			strings.NewReader(`{"code":"DUP","description":"x"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusConflict, rr.Code)
		resp := decodeError(t, rr.Body)
		assert.Equal(t, CodeBusinessRuleViolation, resp.Code)
		assert.Equal(t, "An entity with this code already exists (conflict)", resp.Message)
	})
}

func TestGetEntity(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		entity := testEntity(t)
		lifecycle := &fakeLifecycle{
			getFn: func(_ context.Context, id uuid.UUID) (*domain.Entity, error) {
				assert.Equal(t, entity.ID, id)
				return entity, nil
			},
		}
		router := newTestRouter(t, lifecycle, auth.Identity{Username: "alice"})

		req := httptest.NewRequest(http.MethodGet, "/entities/"+entity.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp EntityResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, entity.ID.String(), resp.ID)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		lifecycle := &fakeLifecycle{
			getFn: func(context.Context, uuid.UUID) (*domain.Entity, error) {
				return nil, store.ErrEntityNotFound
			},
		}
		router := newTestRouter(t, lifecycle, auth.Identity{Username: "alice"})

		req := httptest.NewRequest(http.MethodGet, "/entities/"+uuid.NewString(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		resp := decodeError(t, rr.Body)
		assert.Equal(t, CodeResourceNotFound, resp.Code)
		assert.Equal(t, "Entity not found", resp.Message)
		assert.NotEmpty(t, resp.CorrelationID)
	})

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t, &fakeLifecycle{}, auth.Identity{Username: "alice"})

		req := httptest.NewRequest(http.MethodGet, "/entities/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr.Body)
		assert.Equal(t, CodeValidationError, resp.Code)
		require.Len(t, resp.Details, 1)
		assert.Equal(t, "id", resp.Details[0].Field)
		assert.Equal(t, "must be a valid UUID", resp.Details[0].Issue)
	})
}

func TestListEntities(t *testing.T) {
	t.Parallel()

	aliceIdentity := auth.Identity{Username: "alice"}

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		var gotReq domain.PageRequest
		var gotFilter domain.ListFilter
		lifecycle := &fakeLifecycle{
			listFn: func(_ context.Context, req domain.PageRequest, filter domain.ListFilter) (*domain.EntityPage, error) {
				gotReq = req
				gotFilter = filter
				normalized := req.Normalize()
				return domain.NewEntityPage(nil, normalized, 0), nil
			},
		}
		router := newTestRouter(t, lifecycle, aliceIdentity)

		req := httptest.NewRequest(http.MethodGet, "/entities", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, domain.PageRequest{}, gotReq)
		assert.False(t, gotFilter.ExcludeCanceled)

		var resp EntityPageResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.PageNumber)
		assert.Equal(t, domain.DefaultPageSize, resp.PageSize)
		assert.Equal(t, int64(0), resp.TotalElements)
		assert.Equal(t, 0, resp.TotalPages)
		assert.NotNil(t, resp.Content)
	})

	t.Run("query parameters are forwarded", func(t *testing.T) {
		t.Parallel()

		var gotReq domain.PageRequest
		var gotFilter domain.ListFilter
		lifecycle := &fakeLifecycle{
			listFn: func(_ context.Context, req domain.PageRequest, filter domain.ListFilter) (*domain.EntityPage, error) {
				gotReq = req
				gotFilter = filter
				return domain.NewEntityPage(nil, req, 0), nil
			},
		}
		router := newTestRouter(t, lifecycle, aliceIdentity)

		target := "/entities?page=1&size=2&sortBy=description&sortDirection=desc&includeCanceled=false"
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, gotReq.Number)
		assert.Equal(t, 2, gotReq.Size)
		assert.Equal(t, "description", gotReq.SortField)
		assert.Equal(t, domain.SortDesc, gotReq.SortDirection)
		assert.True(t, gotFilter.ExcludeCanceled)
	})

	t.Run("structural query problems", func(t *testing.T) {
		t.Parallel()

		for _, target := range []string{
			"/entities?page=abc",
			"/entities?size=abc",
			"/entities?size=0",
			"/entities?size=-1",
			"/entities?includeCanceled=maybe",
		} {
			router := newTestRouter(t, &fakeLifecycle{}, aliceIdentity)

			req := httptest.NewRequest(http.MethodGet, target, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, http.StatusBadRequest, rr.Code, "target %s", target)
			resp := decodeError(t, rr.Body)
			assert.Equal(t, CodeValidationError, resp.Code)
		}
	})

	t.Run("unknown sort field", func(t *testing.T) {
		t.Parallel()

		lifecycle := &fakeLifecycle{
			listFn: func(_ context.Context, req domain.PageRequest, _ domain.ListFilter) (*domain.EntityPage, error) {
				return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSortField, req.SortField)
			},
		}
		router := newTestRouter(t, lifecycle, aliceIdentity)

		req := httptest.NewRequest(http.MethodGet, "/entities?sortBy=password", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr.Body)
		assert.Equal(t, CodeValidationError, resp.Code)
	})
}

func TestUpdateEntity(t *testing.T) {
	t.Parallel()

	aliceIdentity := auth.Identity{Username: "alice"}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		entity := testEntity(t)
		require.NoError(t, entity.UpdateDetails("NEW", "updated", "alice"))

		lifecycle := &fakeLifecycle{
			updateFn: func(_ context.Context, actor auth.Identity, id uuid.UUID, req service.UpdateEntityRequest) (*domain.Entity, error) {
				assert.Equal(t, "alice", actor.Username)
				assert.Equal(t, entity.ID, id)
				assert.Equal(t, "NEW", req.Code)
				return entity, nil
			},
		}
		router := newTestRouter(t, lifecycle, aliceIdentity)

		req := httptest.NewRequest(http.MethodPut, "/entities/"+entity.ID.String(),
			strings.NewReader(`{"code":"NEW","description":"updated"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp EntityResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "NEW", resp.Code)
		require.NotNil(t, resp.LastUpdateUser)
		assert.Equal(t, "alice", *resp.LastUpdateUser)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		lifecycle := &fakeLifecycle{
			updateFn: func(context.Context, auth.Identity, uuid.UUID, service.UpdateEntityRequest) (*domain.Entity, error) {
				return nil, store.ErrEntityNotFound
			},
		}
		router := newTestRouter(t, lifecycle, aliceIdentity)

		req := httptest.NewRequest(http.MethodPut, "/entities/"+uuid.NewString(),
			strings.NewReader(`{"code":"X","description":"y"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
		resp := decodeError(t, rr.Body)
		assert.Equal(t, CodeResourceNotFound, resp.Code)
	})

	t.Run("missing identity", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t, &fakeLifecycle{}, auth.Identity{})

		req := httptest.NewRequest(http.MethodPut, "/entities/"+uuid.NewString(),
			strings.NewReader(`{"code":"X","description":"y"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestDeleteEntity(t *testing.T) {
	t.Parallel()

	aliceIdentity := auth.Identity{Username: "alice"}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		id := uuid.New()
		var gotID uuid.UUID
		lifecycle := &fakeLifecycle{
			deleteFn: func(_ context.Context, actor auth.Identity, entityID uuid.UUID) error {
				assert.Equal(t, "alice", actor.Username)
				gotID = entityID
				return nil
			},
		}
		router := newTestRouter(t, lifecycle, aliceIdentity)

		req := httptest.NewRequest(http.MethodDelete, "/entities/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
		assert.Equal(t, id, gotID)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		lifecycle := &fakeLifecycle{
			deleteFn: func(context.Context, auth.Identity, uuid.UUID) error {
				return store.ErrEntityNotFound
			},
		}
		router := newTestRouter(t, lifecycle, aliceIdentity)

		req := httptest.NewRequest(http.MethodDelete, "/entities/"+uuid.NewString(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(t, &fakeLifecycle{}, aliceIdentity)

		req := httptest.NewRequest(http.MethodDelete, "/entities/42", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
