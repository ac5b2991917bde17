package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task represents one to-do item in the domain model.
// This is a pure domain model without database-specific concerns.
type Task struct {
	ID          uuid.UUID
	Title       string
	IsCompleted bool
	CreatedDate *time.Time
	DueDate     *time.Time
	Priority    int16
}

// NewTask creates a new Task with a fresh identifier, not completed, created at now.
func NewTask(title string, priority int16, dueDate *time.Time, now time.Time) Task {
	created := now
	return Task{
		ID:          uuid.New(),
		Title:       title,
		Priority:    priority,
		DueDate:     dueDate,
		CreatedDate: &created,
	}.Normalize()
}

// Normalize returns a copy whose timestamps are in UTC with the monotonic
// clock reading stripped, so a task read back from storage compares equal.
func (t Task) Normalize() Task {
	t.CreatedDate = normalizeTime(t.CreatedDate)
	t.DueDate = normalizeTime(t.DueDate)
	return t
}

// IsValid checks if the task has valid data.
func (t Task) IsValid() bool {
	return t.ID != uuid.Nil && t.Title != ""
}

// HasDueDate reports whether a due date is set.
func (t Task) HasDueDate() bool {
	return t.DueDate != nil
}

// IsOverdue reports whether the task is open and its due date is before now.
func (t Task) IsOverdue(now time.Time) bool {
	return !t.IsCompleted && t.DueDate != nil && t.DueDate.Before(now)
}

// Equal compares every field; timestamps are compared as instants.
func (t Task) Equal(other Task) bool {
	return t.ID == other.ID &&
		t.Title == other.Title &&
		t.IsCompleted == other.IsCompleted &&
		t.Priority == other.Priority &&
		equalTimePtr(t.CreatedDate, other.CreatedDate) &&
		equalTimePtr(t.DueDate, other.DueDate)
}

// String returns the task title for display purposes.
func (t Task) String() string {
	return t.Title
}

func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := t.UTC().Round(0)
	return &n
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
