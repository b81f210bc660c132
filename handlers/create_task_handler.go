package handlers

import (
	"net/http"
	"time"

	"taskmanager/models"
	"taskmanager/store"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

func CreateTaskHandler(w http.ResponseWriter, r *http.Request, s store.Store) {
	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		OwnerID:     ownerID(r),
	}
	task.Normalize()
	if err := task.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.CreateTask(r.Context(), task); err != nil {
		writeError(w, r, err)
		return
	}

	loggerFrom(r).WithField("task_id", task.ID).Debug("task created")
	writeJSON(w, http.StatusCreated, task)
}
