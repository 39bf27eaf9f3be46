package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"supplychain-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWriteErrorStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient stock", &service.InsufficientStockError{VariantID: 1, Requested: 5, Available: 2}, http.StatusConflict},
		{"unknown variant", &service.UnknownVariantError{VariantID: 7}, http.StatusUnprocessableEntity},
		{"empty order", service.ErrEmptyOrder, http.StatusBadRequest},
		{"invalid quantity", service.ErrInvalidQuantity, http.StatusBadRequest},
		{"invalid status", service.ErrInvalidStatus, http.StatusBadRequest},
		{"unauthorized", service.ErrUnauthorized, http.StatusForbidden},
		{"order not found", service.ErrOrderNotFound, http.StatusNotFound},
		{"product not found", service.ErrProductNotFound, http.StatusNotFound},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			writeError(c, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestPathID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	id, ok := pathID(c)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	_, ok = pathID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
