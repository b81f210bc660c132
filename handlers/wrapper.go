package handlers

import (
	"context"
	"net/http"

	jwt_service "taskmanager/JWT"
	"taskmanager/store"
)

type HandlerFunc func(http.ResponseWriter, *http.Request, store.Store)

func WithStore(handler HandlerFunc, s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handler(w, r, s)
	}
}

type ctxKey int

const (
	userIDKey ctxKey = iota
	loggerKey
)

// RequireAuth rejects requests without a valid bearer token and stores the
// token's user id on the request context. A nil service disables the check.
func RequireAuth(tokens *jwt_service.Service, next http.HandlerFunc) http.HandlerFunc {
	if tokens == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := jwt_service.BearerToken(r)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, capitalize(err.Error()))
			return
		}

		userID, err := tokens.ParseJWT(tokenString)
		if err != nil {
			loggerFrom(r).WithField("error", err).Debug("rejected bearer token")
			writeMessage(w, http.StatusUnauthorized, "Invalid JWT token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// ownerID is the authenticated user id, or "" when auth is disabled.
func ownerID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
