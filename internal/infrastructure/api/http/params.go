package http

import (
	"context"
	"net/http"
)

const (
	TransactionIDParam = "id"
	DepositIDParam     = "depositId"
	WithdrawalIDParam  = "withdrawalId"

	// UserIDHeader is set by the session layer in front of this service;
	// UserIDQueryParam is the development fallback.
	UserIDHeader     = "X-User-ID"
	UserIDQueryParam = "userId"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// WithUserID stores the resolved user id on the request context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserID returns the authenticated user id resolved by the middleware.
func UserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDContextKey).(string)
	return userID
}
