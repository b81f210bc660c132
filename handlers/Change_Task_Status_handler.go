package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"taskmanager/models"
	"taskmanager/store"
)

func ChangeStatus(w http.ResponseWriter, r *http.Request, s store.Store) {
	taskID := mux.Vars(r)["id"]
	completed := true

	task, err := s.UpdateTask(r.Context(), taskID, ownerID(r), models.TaskPatch{Completed: &completed})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
