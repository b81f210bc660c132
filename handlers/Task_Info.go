package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"taskmanager/store"
)

func TaskInfo(w http.ResponseWriter, r *http.Request, s store.Store) {
	taskID := mux.Vars(r)["id"]

	task, err := s.GetTask(r.Context(), taskID, ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
