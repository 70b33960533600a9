package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/refferq/refferq/domain/error"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestFromError_MapsKindAndMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, apperr.ErrAdminRequired())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Admin access required", body.Message)
	assert.Equal(t, "Admin access required", body.Error)
	assert.Equal(t, "SEC_7002", body.Code)
}

func TestFromError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, apperr.ErrDatabaseError("delete user", errors.New("pq: connection reset")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestFromError_PlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, decode(t, rec).Code)
}
