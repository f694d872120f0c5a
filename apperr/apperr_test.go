package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Status(Validation("bad")))
	assert.Equal(t, http.StatusNotFound, Status(NotFound("gone")))
	assert.Equal(t, http.StatusForbidden, Status(Forbidden("no")))
	assert.Equal(t, http.StatusUnauthorized, Status(Unauthorized("who")))
	assert.Equal(t, http.StatusConflict, Status(Conflict("dup")))
	assert.Equal(t, http.StatusInternalServerError, Status(Internal("boom")))
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("plain")))
}

func TestStatusUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NotFound("missing"))
	assert.Equal(t, http.StatusNotFound, Status(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(Validation("x")))
}

func TestInsufficientStockMessage(t *testing.T) {
	err := InsufficientStock(3)
	assert.Equal(t, "Only 3 items left in stock", err.Error())
	assert.Equal(t, http.StatusBadRequest, Status(err))
}

func TestWrite(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, NotFound("Order not found"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Order not found")
}
