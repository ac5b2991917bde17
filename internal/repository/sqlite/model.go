package sqlite

import (
	"time"

	"github.com/google/uuid"
)

// Task is one row of the tasks table.
type Task struct {
	ID          uuid.UUID
	Title       string
	IsCompleted bool
	CreatedDate *time.Time // NULL when unknown
	DueDate     *time.Time // NULL when not scheduled
	Priority    int16
}

// OrderBy is one ORDER BY term. Column must be one of the task columns.
type OrderBy struct {
	Column     string
	Descending bool
}

// SearchOptions contains all possible search parameters
type SearchOptions struct {
	IDs           []uuid.UUID
	Completed     *bool
	Priority      *int16
	MinPriority   *int16
	TitleContains *string
	DueBefore     *time.Time
	DueAfter      *time.Time
	HasDueDate    *bool

	OrderBy []OrderBy
	Limit   int // <= 0 means unlimited
}

// ChangeBatch is a set of writes applied in a single transaction.
type ChangeBatch struct {
	Inserts []*Task
	Updates []*Task
	Deletes []uuid.UUID
}

// IsEmpty reports whether the batch has nothing to write.
func (b ChangeBatch) IsEmpty() bool {
	return len(b.Inserts) == 0 && len(b.Updates) == 0 && len(b.Deletes) == 0
}
