package domain

import "sort"

// Observed priority buckets. The field itself has no enforced range.
const (
	PriorityLow    int16 = 0
	PriorityMedium int16 = 1
	PriorityHigh   int16 = 2
)

// PriorityLabel returns the section title for a priority value.
func PriorityLabel(p int16) string {
	switch {
	case p >= PriorityHigh:
		return "High Priority"
	case p == PriorityMedium:
		return "Medium Priority"
	case p == PriorityLow:
		return "Low Priority"
	default:
		return "No Priority"
	}
}

// PriorityName is the short name used in pickers and CLI output.
func PriorityName(p int16) string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// PriorityGroup is one rendered section of the task list.
type PriorityGroup struct {
	Priority  int16
	Label     string
	Tasks     []Task
	Completed int
}

// Progress returns the completed fraction of the group, 0 when nothing is done.
func (g PriorityGroup) Progress() float64 {
	if g.Completed == 0 || len(g.Tasks) == 0 {
		return 0
	}
	return float64(g.Completed) / float64(len(g.Tasks))
}

// GroupByPriority buckets tasks by their exact priority value, highest first.
// Task order within a group follows the input order.
func GroupByPriority(tasks []Task) []PriorityGroup {
	index := make(map[int16]int)
	var groups []PriorityGroup
	for _, task := range tasks {
		i, ok := index[task.Priority]
		if !ok {
			i = len(groups)
			index[task.Priority] = i
			groups = append(groups, PriorityGroup{
				Priority: task.Priority,
				Label:    PriorityLabel(task.Priority),
			})
		}
		groups[i].Tasks = append(groups[i].Tasks, task)
		if task.IsCompleted {
			groups[i].Completed++
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Priority > groups[j].Priority
	})
	return groups
}
