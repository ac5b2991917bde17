package domain

import "github.com/google/uuid"

// TaskSet is a set of tasks keyed by identifier.
type TaskSet map[uuid.UUID]Task

// NewTaskSet builds a set from tasks; later duplicates replace earlier ones.
func NewTaskSet(tasks ...Task) TaskSet {
	set := make(TaskSet, len(tasks))
	for _, t := range tasks {
		set[t.ID] = t
	}
	return set
}

// Add inserts or replaces a task.
func (s TaskSet) Add(t Task) {
	s[t.ID] = t
}

// Has reports membership by identifier.
func (s TaskSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of tasks in the set.
func (s TaskSet) Len() int {
	return len(s)
}

// Slice returns the members ordered by due date, tasks without one last.
func (s TaskSet) Slice() []Task {
	tasks := make([]Task, 0, len(s))
	for _, t := range s {
		tasks = append(tasks, t)
	}
	SortByDueDate(tasks)
	return tasks
}

// IDs returns the member identifiers in the same order as Slice.
func (s TaskSet) IDs() []uuid.UUID {
	tasks := s.Slice()
	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
