package store

import (
	"time"

	"github.com/google/uuid"

	"todo-list/internal/domain"
)

type changeKind int

const (
	changeInsert changeKind = iota
	changeUpdate
	changeDelete
)

// field is a bit in a changed-field mask.
type field uint8

const (
	fieldTitle field = 1 << iota
	fieldCompleted
	fieldCreatedDate
	fieldDueDate
	fieldPriority

	allFields = fieldTitle | fieldCompleted | fieldCreatedDate | fieldDueDate | fieldPriority
)

// diffFields returns the mask of fields that differ between a and b.
func diffFields(a, b domain.Task) field {
	var mask field
	if a.Title != b.Title {
		mask |= fieldTitle
	}
	if a.IsCompleted != b.IsCompleted {
		mask |= fieldCompleted
	}
	if !sameTime(a.CreatedDate, b.CreatedDate) {
		mask |= fieldCreatedDate
	}
	if !sameTime(a.DueDate, b.DueDate) {
		mask |= fieldDueDate
	}
	if a.Priority != b.Priority {
		mask |= fieldPriority
	}
	return mask
}

// applyFields copies the masked fields of src onto dst.
func applyFields(dst, src domain.Task, mask field) domain.Task {
	if mask&fieldTitle != 0 {
		dst.Title = src.Title
	}
	if mask&fieldCompleted != 0 {
		dst.IsCompleted = src.IsCompleted
	}
	if mask&fieldCreatedDate != 0 {
		dst.CreatedDate = src.CreatedDate
	}
	if mask&fieldDueDate != 0 {
		dst.DueDate = src.DueDate
	}
	if mask&fieldPriority != 0 {
		dst.Priority = src.Priority
	}
	return dst
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// change is the pending state of one object in a context.
type change struct {
	kind   changeKind
	task   domain.Task // current value; the last known value for deletes
	fields field       // fields written since the last save, updates only
}

// pendingSet keeps pending changes in first-touched order so saves and
// notifications are deterministic.
type pendingSet struct {
	byID  map[uuid.UUID]*change
	order []uuid.UUID
}

func newPendingSet() *pendingSet {
	return &pendingSet{byID: make(map[uuid.UUID]*change)}
}

func (p *pendingSet) len() int {
	return len(p.order)
}

func (p *pendingSet) get(id uuid.UUID) (*change, bool) {
	c, ok := p.byID[id]
	return c, ok
}

func (p *pendingSet) put(c *change) {
	id := c.task.ID
	if _, ok := p.byID[id]; !ok {
		p.order = append(p.order, id)
	}
	p.byID[id] = c
}

func (p *pendingSet) remove(id uuid.UUID) {
	if _, ok := p.byID[id]; !ok {
		return
	}
	delete(p.byID, id)
	for i, o := range p.order {
		if o == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// changes returns the pending changes in order.
func (p *pendingSet) changes() []change {
	out := make([]change, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.byID[id])
	}
	return out
}

func (p *pendingSet) clone() *pendingSet {
	out := newPendingSet()
	for _, id := range p.order {
		c := *p.byID[id]
		out.put(&c)
	}
	return out
}

func (p *pendingSet) reset() {
	p.byID = make(map[uuid.UUID]*change)
	p.order = nil
}
