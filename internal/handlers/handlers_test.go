package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dojoflow/tuition-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"Not found", services.ErrNotFound, http.StatusNotFound},
		{"Stale record", services.ErrStaleRecord, http.StatusConflict},
		{"Invalid amount", services.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{"Invalid adjustment", services.ErrInvalidAdjustment, http.StatusUnprocessableEntity},
		{"Below mandatory floor", services.ErrInsufficientForMandatory, http.StatusUnprocessableEntity},
		{"Schedule order", services.ErrInvalidScheduleOrder, http.StatusUnprocessableEntity},
		{"Invalid category", services.ErrInvalidCategory, http.StatusUnprocessableEntity},
		{"Validation", services.ErrValidation, http.StatusUnprocessableEntity},
		{"Unknown", errors.New("database down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRespondErrorMapsWrappedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, fmt.Errorf("%w: debt record #3 is settled", services.ErrStaleRecord))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uint(0), getUserID(c))

	c.Set("userID", uint(7))
	assert.Equal(t, uint(7), getUserID(c))

	// JWT claims decode numbers as float64
	c.Set("userID", float64(9))
	assert.Equal(t, uint(9), getUserID(c))

	c.Set("userID", "not a number")
	assert.Equal(t, uint(0), getUserID(c))
}

func TestPaymentRequestPaidOn(t *testing.T) {
	req := &PaymentRequest{Amount: 100, Method: "cash", PaidOn: "2026-09-01"}
	parsed := req.paidOn()
	assert.Equal(t, 2026, parsed.Year())
	assert.Equal(t, time.September, parsed.Month())
	assert.Equal(t, 1, parsed.Day())

	// Missing or malformed dates fall back to today
	for _, raw := range []string{"", "01/09/2026"} {
		req := &PaymentRequest{Amount: 100, Method: "cash", PaidOn: raw}
		assert.WithinDuration(t, time.Now(), req.paidOn(), time.Minute)
	}
}
