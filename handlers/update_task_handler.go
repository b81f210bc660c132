package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"taskmanager/models"
	"taskmanager/store"
)

// UpdateTaskHandler applies a partial update; absent fields keep their values.
func UpdateTaskHandler(w http.ResponseWriter, r *http.Request, s store.Store) {
	taskID := mux.Vars(r)["id"]

	var patch models.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	patch.Normalize()
	if patch.Empty() {
		writeMessage(w, http.StatusBadRequest, "No updatable fields provided")
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := s.UpdateTask(r.Context(), taskID, ownerID(r), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
