package handlers

import (
	"context"
	"net/http"
	"time"

	"taskmanager/store"
)

const healthTimeout = 2 * time.Second

func HealthHandler(w http.ResponseWriter, r *http.Request, s store.Store) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		loggerFrom(r).WithField("error", err).Warn("database ping failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}
