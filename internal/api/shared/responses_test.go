package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()

	t.Run("with body", func(t *testing.T) {
		t.Parallel()

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/entities", nil)

		RespondWithJSON(rr, req, http.StatusOK, map[string]string{"hello": "world"})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"hello":"world"}`, rr.Body.String())
	})

	t.Run("nil data writes headers only", func(t *testing.T) {
		t.Parallel()

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/entities/42", nil)

		RespondWithJSON(rr, req, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
	})
}

func TestCorrelationID(t *testing.T) {
	t.Parallel()

	t.Run("uses the request trace ID", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/entities", nil)
		ctx := SetTraceID(req.Context())
		req = req.WithContext(ctx)

		assert.Equal(t, GetTraceID(ctx), CorrelationID(req))
	})

	t.Run("generates one when absent", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/entities", nil)
		assert.NotEmpty(t, CorrelationID(req))
	})
}

func TestRespondWithErrorDetails(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/entities", nil)

	RespondWithErrorDetails(rr, req, http.StatusBadRequest,
		"VALIDATION_ERROR", "Request validation failed",
		[]ErrorDetail{{Field: "code", Issue: "is required"}})

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Equal(t, "Request validation failed", resp.Message)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "code", resp.Details[0].Field)
	assert.NotEmpty(t, resp.CorrelationID)
}

func TestRespondWithErrorAndLogHidesInternalDetail(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/entities", nil)

	internal := errors.New("pq: relation entities does not exist")
	RespondWithErrorAndLog(rr, req, http.StatusInternalServerError,
		"INTERNAL_SERVER_ERROR", "An unexpected error occurred", internal)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "An unexpected error occurred", resp.Message)
	assert.NotContains(t, rr.Body.String(), "relation entities")
	assert.NotEmpty(t, resp.CorrelationID)
}

func TestErrorResponseWireShape(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(ErrorResponse{
		Code:          "RESOURCE_NOT_FOUND",
		Message:       "Entity not found",
		CorrelationID: "abc-123",
	})
	require.NoError(t, err)

	// Details is omitted when empty; the other keys use the documented names.
	assert.JSONEq(t,
		`{"code":"RESOURCE_NOT_FOUND","message":"Entity not found","correlationId":"abc-123"}`,
		string(payload))
}
