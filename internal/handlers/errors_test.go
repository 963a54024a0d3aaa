package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newErrorContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestRespondError_BodyCarriesOnlyMessage(t *testing.T) {
	c, w := newErrorContext()
	cause := errors.New("webhook #1 (discord.com) returned 500")

	respondError(c, http.StatusInternalServerError, models.MsgDeliveryFailed, cause)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"`+models.MsgDeliveryFailed+`"}`, w.Body.String())
	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, cause)
}

func TestRespondError_NilCauseIsNotAttached(t *testing.T) {
	c, w := newErrorContext()

	respondError(c, http.StatusBadRequest, MsgRedirectMissing, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, c.Errors)
}

func TestRespondErrorWithDetails(t *testing.T) {
	c, w := newErrorContext()
	details := []ValidationError{{Field: "month", Message: "month must be at most 12"}}

	respondErrorWithDetails(c, http.StatusBadRequest, MsgInvalidQuery, details, errors.New("bad month"))

	var body struct {
		Error   string            `json:"error"`
		Details []ValidationError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, MsgInvalidQuery, body.Error)
	assert.Equal(t, details, body.Details)
}

func TestRespondInternalError_HidesCause(t *testing.T) {
	c, w := newErrorContext()

	respondInternalError(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Equal(t, models.MsgInternalServerError, errorBody(t, w))
}
