package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	jwt_service "taskmanager/JWT"
	"taskmanager/models"
	"taskmanager/store"
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// dummyPasswordHash is compared against when the username is unknown so
// both failure paths pay for one bcrypt comparison.
func dummyPasswordHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	})
	return dummyHash
}

func LoginHandler(tokens *jwt_service.Service) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, s store.Store) {
		var creds models.Credentials
		if !decodeJSON(w, r, &creds) {
			return
		}
		creds.Username = strings.TrimSpace(creds.Username)

		user, err := s.GetUserByUsername(r.Context(), creds.Username)
		if errors.Is(err, models.ErrNotFound) {
			bcrypt.CompareHashAndPassword(dummyPasswordHash(), []byte(creds.Password))
			writeError(w, r, models.ErrInvalidCredentials)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password))
		if err != nil {
			writeError(w, r, models.ErrInvalidCredentials)
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
