package middleware

import (
	"context"
	"net/http"
)

const userIDKey ctxKey = "user_id"

// Identity resolves the caller from the X-User-ID header set by the
// authenticating frontend. Session mechanics live outside this service;
// requests without an identity are rejected here so handlers can assume one.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID returns the resolved user id from ctx, or "" when absent.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
