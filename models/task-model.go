package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxListLimit         = 100
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	OwnerID     string     `json:"owner,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskPatch is a partial update. Nil fields are left untouched.
// ClearDueDate is set when the payload carries "dueDate": null.
type TaskPatch struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Completed    *bool      `json:"completed"`
	Priority     *string    `json:"priority"`
	DueDate      *time.Time `json:"dueDate"`
	ClearDueDate bool       `json:"-"`
}

// UnmarshalJSON tells an absent dueDate apart from an explicit null.
func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	type plain TaskPatch
	var raw struct {
		plain
		DueDate json.RawMessage `json:"dueDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = TaskPatch(raw.plain)

	switch {
	case raw.DueDate == nil:
	case bytes.Equal(bytes.TrimSpace(raw.DueDate), []byte("null")):
		p.ClearDueDate = true
	default:
		var due time.Time
		if err := json.Unmarshal(raw.DueDate, &due); err != nil {
			return err
		}
		p.DueDate = &due
	}
	return nil
}

type TaskFilter struct {
	OwnerID   string
	Completed *bool
	Priority  string
	Limit     int
	Skip      int
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Normalize trims text fields and fills defaults.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Priority = strings.ToLower(strings.TrimSpace(t.Priority))
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

func (t *Task) Validate() error {
	verr := &ValidationError{}
	checkTitle(verr, t.Title)
	checkDescription(verr, t.Description)
	if !ValidPriority(t.Priority) {
		verr.add("priority", "must be one of low, medium, high")
	}
	return verr.orNil()
}

// Apply copies the set fields of p onto t and bumps UpdatedAt.
func (t *Task) Apply(p TaskPatch, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
	t.UpdatedAt = now
}

func (p *TaskPatch) Normalize() {
	if p.Title != nil {
		s := strings.TrimSpace(*p.Title)
		p.Title = &s
	}
	if p.Description != nil {
		s := strings.TrimSpace(*p.Description)
		p.Description = &s
	}
	if p.Priority != nil {
		s := strings.ToLower(strings.TrimSpace(*p.Priority))
		p.Priority = &s
	}
}

func (p *TaskPatch) Validate() error {
	verr := &ValidationError{}
	if p.Title != nil {
		checkTitle(verr, *p.Title)
	}
	if p.Description != nil {
		checkDescription(verr, *p.Description)
	}
	if p.Priority != nil && !ValidPriority(*p.Priority) {
		verr.add("priority", "must be one of low, medium, high")
	}
	return verr.orNil()
}

func (p *TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil && p.Priority == nil &&
		p.DueDate == nil && !p.ClearDueDate
}

func (f TaskFilter) Validate() error {
	verr := &ValidationError{}
	if f.Priority != "" && !ValidPriority(f.Priority) {
		verr.add("priority", "must be one of low, medium, high")
	}
	if f.Limit < 0 || f.Limit > MaxListLimit {
		verr.add("limit", "must be between 0 and 100")
	}
	if f.Skip < 0 {
		verr.add("skip", "must not be negative")
	}
	return verr.orNil()
}

func checkTitle(verr *ValidationError, title string) {
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		verr.add("title", "is required")
	case n > MaxTitleLength:
		verr.add("title", "must be at most 100 characters")
	}
}

func checkDescription(verr *ValidationError, desc string) {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		verr.add("description", "must be at most 500 characters")
	}
}
