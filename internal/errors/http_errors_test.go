package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	recorder := httptest.NewRecorder()
	HandleHTTPError(recorder, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return recorder.Code, body
}

func TestHandleHTTPError(t *testing.T) {
	t.Run("bad request", func(t *testing.T) {
		status, body := handle(t, NewBadRequestError("Amount must be a positive number"))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Amount must be a positive number", body["error"])
	})

	t.Run("unauthorized", func(t *testing.T) {
		status, body := handle(t, NewUnauthorizedError("Invalid webhook signature"))
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid webhook signature", body["error"])
	})

	t.Run("not found", func(t *testing.T) {
		status, body := handle(t, NewNotFoundError("Withdrawal"))
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Withdrawal not found", body["error"])
	})

	t.Run("invalid state carries the current status", func(t *testing.T) {
		status, body := handle(t, NewInvalidStateError("Only pending withdrawals can be cancelled", "completed"))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid_state", body["code"])
		details := body["details"].(map[string]interface{})
		assert.Equal(t, "completed", details["currentStatus"])
	})

	t.Run("limit exceeded carries the quota context", func(t *testing.T) {
		status, body := handle(t, NewLimitExceededError(
			decimal.NewFromInt(100),
			decimal.NewFromInt(9900),
			decimal.NewFromInt(9950),
		))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "daily_limit_exceeded", body["code"])
		details := body["details"].(map[string]interface{})
		assert.Equal(t, "100", details["withdrawnToday"])
		assert.Equal(t, "9900", details["remaining"])
		assert.Equal(t, "9950", details["requested"])
	})

	t.Run("processor error", func(t *testing.T) {
		status, body := handle(t, NewProcessorError("Failed to verify payment"))
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "processor_error", body["code"])
	})

	t.Run("unexpected errors never leak internals", func(t *testing.T) {
		status, body := handle(t, errors.New("pq: connection refused on 10.0.0.3"))
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Internal server error", body["error"])
		assert.NotContains(t, body, "details")
	})
}
