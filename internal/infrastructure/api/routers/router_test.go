package routers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/veltmarket/wallet-service/internal/config"
	"github.com/veltmarket/wallet-service/internal/di"
)

func newTestRouter() *chi.Mux {
	container := di.NewContainer(nil, config.Load())
	return NewRouter(container, nil)
}

func TestRouterPaymentPaths(t *testing.T) {
	router := newTestRouter()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/wallet/transactions/deposit/initiate"},
		{http.MethodGet, "/api/v1/wallet/transactions/deposit/status/abc"},
		{http.MethodPost, "/api/v1/wallet/transactions/withdraw/initiate"},
		{http.MethodPost, "/api/v1/wallet/transactions/withdraw/confirm"},
		{http.MethodGet, "/api/v1/wallet/transactions/withdraw/status/abc"},
		{http.MethodPost, "/api/v1/wallet/transactions/withdraw/cancel/abc"},
		// aliases
		{http.MethodPost, "/api/v1/wallet/transactions/deposit"},
		{http.MethodGet, "/api/v1/wallet/transactions/deposit/abc/status"},
		{http.MethodPost, "/api/v1/wallet/transactions/withdraw"},
		{http.MethodGet, "/api/v1/wallet/transactions/withdraw/abc/status"},
		{http.MethodPost, "/api/v1/wallet/transactions/abc/cancel"},
	}
	for _, route := range paths {
		assert.True(t, router.Match(chi.NewRouteContext(), route.method, route.path),
			"%s %s is not routed", route.method, route.path)
	}

	t.Run("initiate paths reach the handlers", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/wallet/transactions/deposit/initiate",
			"/api/v1/wallet/transactions/withdraw/initiate",
		} {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{`))
			request.Header.Set("X-User-ID", "user-1")

			router.ServeHTTP(recorder, request)
			// a malformed body means the handler ran, not a 404
			assert.Equal(t, http.StatusBadRequest, recorder.Code, path)
			assert.Contains(t, recorder.Body.String(), "Invalid request body")
		}
	})
}

func TestRouterAuthBoundary(t *testing.T) {
	router := newTestRouter()

	t.Run("user routes require an identity", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/v1/wallet/transactions/", nil)

		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("invalid deposit body is rejected before any processing", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/transactions/deposit", strings.NewReader(`{`))
		request.Header.Set("X-User-ID", "user-1")

		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Invalid request body")
	})

	t.Run("webhook routes skip user auth but enforce signatures", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/transactions/deposit/paystack-webhook", strings.NewReader(`{}`))

		router.ServeHTTP(recorder, request)
		// no configured secret and no signature header
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Invalid webhook signature")
	})

	t.Run("metrics endpoint is public", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/metrics", nil)

		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}
