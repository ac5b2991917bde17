package observer

import (
	"todo-list/internal/domain"
	"todo-list/internal/store"
)

// ChangeEvent is one save's worth of changes, split into three disjoint sets.
type ChangeEvent struct {
	Inserted domain.TaskSet
	Updated  domain.TaskSet
	Deleted  domain.TaskSet
}

// IsEmpty reports whether the event carries no changes.
func (e ChangeEvent) IsEmpty() bool {
	return e.Inserted.Len() == 0 && e.Updated.Len() == 0 && e.Deleted.Len() == 0
}

func newChangeEvent(n store.Notification) ChangeEvent {
	return ChangeEvent{
		Inserted: domain.NewTaskSet(n.Inserted...),
		Updated:  domain.NewTaskSet(n.Updated...),
		Deleted:  domain.NewTaskSet(n.Deleted...),
	}
}
