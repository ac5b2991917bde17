package domain

import (
	"bytes"
	"sort"
	"strings"
	"time"
)

// SortTasks orders tasks in place by the descriptors, then by ID so the
// result is deterministic. Storage queries apply the same tie-break.
func SortTasks(tasks []Task, sorts []SortDescriptor) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return CompareTasks(tasks[i], tasks[j], sorts) < 0
	})
}

// SortByDueDate orders tasks by due date ascending, tasks without one last.
func SortByDueDate(tasks []Task) {
	SortTasks(tasks, DueDateAscending)
}

// CompareTasks returns -1, 0 or 1.
func CompareTasks(a, b Task, sorts []SortDescriptor) int {
	for _, s := range sorts {
		c := compareKey(a, b, s)
		if c != 0 {
			return c
		}
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

func compareKey(a, b Task, s SortDescriptor) int {
	var c int
	switch s.Key {
	case SortKeyDueDate:
		return compareOptionalTime(a.DueDate, b.DueDate, s.Ascending)
	case SortKeyCreatedDate:
		return compareOptionalTime(a.CreatedDate, b.CreatedDate, s.Ascending)
	case SortKeyTitle:
		c = strings.Compare(a.Title, b.Title)
	case SortKeyPriority:
		c = compareInt(int(a.Priority), int(b.Priority))
	}
	if !s.Ascending {
		c = -c
	}
	return c
}

// compareOptionalTime keeps nil values last in both directions.
func compareOptionalTime(a, b *time.Time, ascending bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := a.Compare(*b)
	if !ascending {
		c = -c
	}
	return c
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
