package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/bookings-api/internal/apperror"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondAppError_Classified(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondAppError(rec, fmt.Errorf("register: %w", apperror.Duplicate("email already registered")), "failed")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeError(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "email already registered", body.Error)
	assert.Equal(t, CodeDuplicateResource, body.Code)
}

func TestRespondAppError_UnclassifiedHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondAppError(rec, errors.New("pq: password authentication failed for user postgres"), "server error")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "server error", body.Error)
	assert.Equal(t, CodeInternalError, body.Code)
}

func TestRespondData(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondData(rec, map[string]string{}, http.StatusOK)

	assert.JSONEq(t, `{"success":true,"data":{}}`, rec.Body.String())
}
