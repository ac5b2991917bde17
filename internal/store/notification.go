package store

import "todo-list/internal/domain"

// Notification reports the objects one save changed. Deleted tasks carry
// the last value the context held for them.
type Notification struct {
	Inserted []domain.Task
	Updated  []domain.Task
	Deleted  []domain.Task
}

// IsEmpty reports whether the notification carries no changes.
func (n Notification) IsEmpty() bool {
	return len(n.Inserted) == 0 && len(n.Updated) == 0 && len(n.Deleted) == 0
}

// Len returns the total number of objects in the notification.
func (n Notification) Len() int {
	return len(n.Inserted) + len(n.Updated) + len(n.Deleted)
}

// Listener receives notifications on the goroutine that owns the context.
// It must not call Perform on the same context.
type Listener func(Notification)

func notificationFor(changes []change) Notification {
	var n Notification
	for _, c := range changes {
		switch c.kind {
		case changeInsert:
			n.Inserted = append(n.Inserted, c.task)
		case changeUpdate:
			n.Updated = append(n.Updated, c.task)
		case changeDelete:
			n.Deleted = append(n.Deleted, c.task)
		}
	}
	return n
}
