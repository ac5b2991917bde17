package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Predicate filters tasks. Zero-valued fields do not constrain; the zero
// Predicate matches every task.
type Predicate struct {
	IDs           []uuid.UUID
	Completed     *bool
	Priority      *int16
	MinPriority   *int16
	TitleContains string     // case-insensitive for ASCII letters only
	DueBefore     *time.Time // strictly before; tasks without a due date never match
	DueAfter      *time.Time // at or after; tasks without a due date never match
	HasDueDate    *bool
}

// Match evaluates the predicate against a task in memory.
func (p Predicate) Match(t Task) bool {
	if len(p.IDs) > 0 {
		found := false
		for _, id := range p.IDs {
			if id == t.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if p.Completed != nil && t.IsCompleted != *p.Completed {
		return false
	}
	if p.Priority != nil && t.Priority != *p.Priority {
		return false
	}
	if p.MinPriority != nil && t.Priority < *p.MinPriority {
		return false
	}
	if p.TitleContains != "" && !strings.Contains(foldASCII(t.Title), foldASCII(p.TitleContains)) {
		return false
	}
	if p.HasDueDate != nil && t.HasDueDate() != *p.HasDueDate {
		return false
	}
	if p.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*p.DueBefore)) {
		return false
	}
	if p.DueAfter != nil && (t.DueDate == nil || t.DueDate.Before(*p.DueAfter)) {
		return false
	}
	return true
}

// foldASCII lower-cases A-Z only, the same folding SQLite's LIKE applies, so
// pending and stored tasks match a title filter alike.
func foldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// ByID is the predicate used for identifier lookups.
func ByID(id uuid.UUID) Predicate {
	return Predicate{IDs: []uuid.UUID{id}}
}

// SortKey names an orderable task field.
type SortKey string

const (
	SortKeyDueDate     SortKey = "due_date"
	SortKeyCreatedDate SortKey = "created_date"
	SortKeyTitle       SortKey = "title"
	SortKeyPriority    SortKey = "priority"
)

// SortDescriptor orders by one key. Missing timestamps always sort last,
// whatever the direction.
type SortDescriptor struct {
	Key       SortKey
	Ascending bool
}

// Query is a typed fetch request: predicate, ordering and an optional limit.
// Limit <= 0 means unlimited.
type Query struct {
	Predicate Predicate
	Sort      []SortDescriptor
	Limit     int
}

// DueDateAscending is the ordering used by the task list.
var DueDateAscending = []SortDescriptor{{Key: SortKeyDueDate, Ascending: true}}
