package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestErrorHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		debug      bool
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{
			name:       "app error",
			err:        NewValidationError("comment cannot be empty"),
			wantStatus: http.StatusBadRequest,
			wantType:   "VALIDATION",
			wantDetail: "comment cannot be empty",
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("get concept: %w", ErrConceptNotFound.WithDetail("concept_id", "c1")),
			wantStatus: http.StatusNotFound,
			wantType:   "NOT_FOUND",
			wantDetail: "Concept not found",
		},
		{
			name:       "duplicate name",
			err:        ErrDuplicateConceptName,
			wantStatus: http.StatusConflict,
			wantType:   "CONFLICT",
			wantDetail: "Concept with this name already exists",
		},
		{
			name:       "unknown error hides its message",
			err:        fmt.Errorf("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "INTERNAL",
			wantDetail: "An internal error occurred",
		},
		{
			name:       "unknown error in debug mode",
			err:        fmt.Errorf("connection reset"),
			debug:      true,
			wantStatus: http.StatusInternalServerError,
			wantType:   "INTERNAL",
			wantDetail: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewErrorHandler(zap.NewNop(), tt.debug)
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodGet, "/concept/all", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeResponse(t, rec)
			assert.Equal(t, tt.wantType, body.Type)
			assert.Equal(t, tt.wantDetail, body.Detail)
		})
	}
}

func TestErrorHandler_HandleStatus(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodPost, "/link/create", nil), http.StatusTooManyRequests, "slow down")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "RATE_LIMIT", body.Type)
	assert.Equal(t, "slow down", body.Detail)
}

func TestErrorHandler_MiddlewareRecoversPanics(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	handler := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL", decodeResponse(t, rec).Type)
}

func TestDomainError_WithDetailLeavesSentinelUntouched(t *testing.T) {
	err := ErrDocumentNotFound.WithDetail("id", "d1")

	assert.Equal(t, "d1", err.Details["id"])
	assert.Nil(t, ErrDocumentNotFound.Details)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.NotErrorIs(t, err, ErrConceptNotFound)
}

func TestClassifiers(t *testing.T) {
	notFound := fmt.Errorf("wrapped: %w", ErrAnnotationNotFound)
	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(NewNotFoundError("document")))
	assert.False(t, IsNotFound(NewConflictError("x")))

	assert.True(t, IsConflict(ErrDuplicateLink))
	assert.True(t, IsValidation(ErrSelfLink))

	rejection := NewServerRejection(http.StatusBadRequest, "Concept with this name already exists")
	assert.True(t, IsServerRejection(rejection))
	assert.Equal(t, "Concept with this name already exists", rejection.Message)
	assert.Equal(t, "request failed with status 502", NewServerRejection(502, "").Message)

	assert.True(t, IsStale(NewStaleError("create concept")))
	assert.True(t, IsNetwork(NewNetworkError("dial", fmt.Errorf("refused"))))

	assert.Equal(t, http.StatusNotFound, StatusOf(notFound))
	assert.Equal(t, http.StatusBadRequest, StatusOf(rejection))
	assert.Equal(t, 0, StatusOf(fmt.Errorf("plain")))
}

func TestValidationErrors_AsAppError(t *testing.T) {
	verrs := NewValidationErrors()
	assert.NoError(t, verrs.AsAppError())

	verrs.Add("comment", "comment cannot be empty")
	verrs.Add("highlight_areas", "at least one highlight area is required")

	err := verrs.AsAppError()
	require.Error(t, err)
	appErr := GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeValidation, appErr.Type)
	assert.Contains(t, appErr.Message, "comment cannot be empty; at least one highlight area is required")
	assert.Equal(t, []string{"comment cannot be empty"}, appErr.Details["comment"])
}
