package handlers

import (
	"errors"
	"net/http"

	jwt_service "taskmanager/JWT"
	"taskmanager/models"
	"taskmanager/store"
)

// CheckAuthHandler returns the current user with a freshly issued token.
func CheckAuthHandler(tokens *jwt_service.Service) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s store.Store) {
		user, err := s.GetUserByID(r.Context(), ownerID(r))
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidID) {
			writeMessage(w, http.StatusUnauthorized, "User no longer exists")
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		token, err := tokens.GenerateJWT(user.ID, user.Username)
		if err != nil {
			loggerFrom(r).WithField("error", err).Error("failed to generate jwt")
			writeMessage(w, http.StatusInternalServerError, "Failed to generate JWT")
			return
		}

		writeJSON(w, http.StatusOK, authResponse{User: user.Public(), Token: token})
	}
}
