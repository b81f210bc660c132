package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"taskmanager/models"
	"taskmanager/store"
)

// MyTasksHandler lists tasks, newest first, filtered by the query string.
func MyTasksHandler(w http.ResponseWriter, r *http.Request, s store.Store) {
	filter, err := parseTaskFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.OwnerID = ownerID(r)

	tasks, err := s.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func parseTaskFilter(q url.Values) (models.TaskFilter, error) {
	var filter models.TaskFilter
	verr := &models.ValidationError{Fields: map[string]string{}}

	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			verr.Fields["completed"] = "must be true or false"
		} else {
			filter.Completed = &completed
		}
	}
	filter.Priority = strings.ToLower(strings.TrimSpace(q.Get("priority")))

	for key, dst := range map[string]*int{"limit": &filter.Limit, "skip": &filter.Skip} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Fields[key] = "must be an integer"
			continue
		}
		*dst = n
	}

	if len(verr.Fields) > 0 {
		return filter, verr
	}
	return filter, filter.Validate()
}
