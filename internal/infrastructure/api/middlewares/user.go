package middlewares

import (
	"net/http"

	"github.com/veltmarket/wallet-service/internal/errors"
	http2 "github.com/veltmarket/wallet-service/internal/infrastructure/api/http"
	"github.com/veltmarket/wallet-service/pkg/log"
)

// UserAuthMiddleware resolves the caller's user id from the session header
// with a query-parameter fallback. Webhook routes are mounted outside this
// middleware; everything else requires an identity.
func UserAuthMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.GetLogger()

			userID := r.Header.Get(http2.UserIDHeader)
			if userID == "" {
				userID = r.URL.Query().Get(http2.UserIDQueryParam)
			}
			if userID == "" {
				logger.Error().Str("path", r.URL.Path).Msg(errors.ErrUserIDRequired)
				errors.HandleHTTPError(w, errors.NewUnauthorizedError(errors.ErrUserIDRequired))
				return
			}

			next.ServeHTTP(w, r.WithContext(http2.WithUserID(r.Context(), userID)))
		})
	}
}
