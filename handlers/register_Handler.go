package handlers

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	jwt_service "taskmanager/JWT"
	"taskmanager/models"
	"taskmanager/store"
)

// bcryptCost is lowered by tests.
var bcryptCost = bcrypt.DefaultCost

type authResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func RegisterHandler(tokens *jwt_service.Service) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s store.Store) {
		var creds models.Credentials
		if !decodeJSON(w, r, &creds) {
			return
		}
		creds.Normalize()
		if err := creds.Validate(); err != nil {
			writeError(w, r, err)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcryptCost)
		if err != nil {
			loggerFrom(r).WithField("error", err).Error("failed to hash password")
			writeMessage(w, http.StatusInternalServerError, "Failed to hash password")
			return
		}

		user := &models.User{Username: creds.Username, PasswordHash: string(hashedPassword)}
		if err := s.CreateUser(r.Context(), user); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				writeMessage(w, http.StatusConflict, "Username already exists")
				return
			}
			writeError(w, r, err)
			return
		}

		token, err := tokens.GenerateJWT(user.ID, user.Username)
		if err != nil {
			loggerFrom(r).WithField("error", err).Error("failed to generate jwt")
			writeMessage(w, http.StatusInternalServerError, "Failed to generate JWT")
			return
		}

		loggerFrom(r).WithField("user_id", user.ID).Info("user registered")
		writeJSON(w, http.StatusCreated, authResponse{User: user.Public(), Token: token})
	}
}
