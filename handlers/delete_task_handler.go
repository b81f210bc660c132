package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"taskmanager/store"
)

func DeleteTaskHandler(w http.ResponseWriter, r *http.Request, s store.Store) {
	taskID := mux.Vars(r)["id"]

	if err := s.DeleteTask(r.Context(), taskID, ownerID(r)); err != nil {
		writeError(w, r, err)
		return
	}

	loggerFrom(r).WithField("task_id", taskID).Debug("task deleted")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}
