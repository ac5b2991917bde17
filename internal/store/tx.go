package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"todo-list/internal/domain"
	"todo-list/internal/errors"
	"todo-list/internal/repository/sqlite"
)

// Tx is the handle fn receives from Perform. It reads the context's view of
// the graph (its pending changes over its source) and stages writes.
type Tx struct {
	c   *Context
	ctx context.Context
}

// Fetch returns the tasks matching q as this context sees them.
// No rows is an empty result, not an error.
func (tx *Tx) Fetch(q domain.Query) ([]domain.Task, error) {
	c := tx.c
	c.metrics.Fetches.WithLabelValues(c.name).Inc()

	if c.pending.len() == 0 {
		tasks, err := c.src.fetch(tx.ctx, q)
		if err != nil {
			return nil, fetchFailed(err)
		}
		return tasks, nil
	}

	// Pending changes may move tasks in or out of the result and change
	// their order, so the limit and ordering are applied after the overlay.
	base, err := c.src.fetch(tx.ctx, domain.Query{Predicate: q.Predicate})
	if err != nil {
		return nil, fetchFailed(err)
	}

	result := make([]domain.Task, 0, len(base))
	for _, t := range base {
		if _, ok := c.pending.get(t.ID); ok {
			continue
		}
		result = append(result, t)
	}
	for _, ch := range c.pending.changes() {
		if ch.kind != changeDelete && q.Predicate.Match(ch.task) {
			result = append(result, ch.task)
		}
	}

	domain.SortTasks(result, q.Sort)
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

// Get returns the task with id, or a not found error.
func (tx *Tx) Get(id uuid.UUID) (domain.Task, error) {
	if ch, ok := tx.c.pending.get(id); ok {
		if ch.kind == changeDelete {
			return domain.Task{}, errors.NewNotFoundError("task", id.String())
		}
		return ch.task, nil
	}

	task, err := tx.c.src.get(tx.ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return domain.Task{}, err
		}
		return domain.Task{}, fetchFailed(err)
	}
	return task, nil
}

// Insert stages a new task. Identifiers are never reused, so inserting an
// ID this context has seen before is rejected.
func (tx *Tx) Insert(task domain.Task) error {
	task = task.Normalize()
	if task.ID == uuid.Nil {
		return errors.NewValidationError("task identifier is required", nil)
	}

	if _, ok := tx.c.pending.get(task.ID); ok {
		return errors.NewInvalidInputError("id", task.ID.String(), "task already exists")
	}
	_, err := tx.c.src.get(tx.ctx, task.ID)
	switch {
	case err == nil:
		return errors.NewInvalidInputError("id", task.ID.String(), "task already exists")
	case !errors.IsNotFound(err):
		return fetchFailed(err)
	}

	tx.c.pending.put(&change{kind: changeInsert, task: task})
	return nil
}

// Update stages new field values for an existing task. Only the fields that
// differ from the current value are recorded as changed.
func (tx *Tx) Update(task domain.Task) error {
	task = task.Normalize()
	current, err := tx.Get(task.ID)
	if err != nil {
		return err
	}

	mask := diffFields(current, task)
	if mask == 0 {
		return nil
	}

	if ch, ok := tx.c.pending.get(task.ID); ok {
		ch.task = task
		if ch.kind == changeUpdate {
			ch.fields |= mask
		}
		return nil
	}
	tx.c.pending.put(&change{kind: changeUpdate, task: task, fields: mask})
	return nil
}

// Delete stages removal of a task. Deleting a task inserted since the last
// save cancels the insert.
func (tx *Tx) Delete(id uuid.UUID) error {
	current, err := tx.Get(id)
	if err != nil {
		return err
	}

	if ch, ok := tx.c.pending.get(id); ok && ch.kind == changeInsert {
		tx.c.pending.remove(id)
		return nil
	}
	tx.c.pending.put(&change{kind: changeDelete, task: current})
	return nil
}

// HasChanges reports whether anything is staged.
func (tx *Tx) HasChanges() bool {
	return tx.c.pending.len() > 0
}

// Rollback discards everything staged since the last save.
func (tx *Tx) Rollback() {
	if n := tx.c.pending.len(); n > 0 {
		tx.c.logger.WithField("changes", n).Debug("Rolled back pending changes")
	}
	tx.c.pending.reset()
}

// Savepoint marks what is staged now so RollbackTo can return to it.
type Savepoint struct {
	pending *pendingSet
}

// Savepoint captures the staged changes.
func (tx *Tx) Savepoint() Savepoint {
	return Savepoint{pending: tx.c.pending.clone()}
}

// RollbackTo discards everything staged after sp was taken. Changes staged
// before it are kept.
func (tx *Tx) RollbackTo(sp Savepoint) {
	if sp.pending == nil {
		tx.Rollback()
		return
	}
	tx.c.pending = sp.pending.clone()
}

// Save commits staged changes. The main context writes them to the backing
// file in one transaction; a background context merges them into its parent.
// On success listeners get one notification. On failure the changes stay
// staged so the caller can retry or roll back.
func (tx *Tx) Save() error {
	c := tx.c
	if c.pending.len() == 0 {
		return nil
	}

	changes := c.pending.changes()
	var err error
	if c.parent != nil {
		err = tx.mergeIntoParent(changes)
	} else {
		err = tx.persist(changes)
	}
	if err != nil {
		c.metrics.SaveFailures.Inc()
		c.logger.WithError(err).WithField("changes", len(changes)).Error("Save failed")
		return errors.NewSaveFailedError(err)
	}

	c.pending.reset()
	c.metrics.Saves.WithLabelValues(c.name).Inc()
	c.notify(notificationFor(changes))
	return nil
}

func (tx *Tx) persist(changes []change) error {
	c := tx.c
	var batch sqlite.ChangeBatch
	for _, ch := range changes {
		switch ch.kind {
		case changeInsert:
			batch.Inserts = append(batch.Inserts, c.mapper.Task.ToDatabase(ch.task))
		case changeUpdate:
			batch.Updates = append(batch.Updates, c.mapper.Task.ToDatabase(ch.task))
		case changeDelete:
			batch.Deletes = append(batch.Deletes, ch.task.ID)
		}
	}

	start := time.Now()
	err := c.repo.ApplyChanges(tx.ctx, batch)
	c.metrics.SaveDuration.Observe(time.Since(start).Seconds())
	return err
}

func (tx *Tx) mergeIntoParent(changes []change) error {
	return tx.c.parent.Perform(tx.ctx, func(ptx *Tx) error {
		return ptx.merge(changes)
	})
}

// SaveThrough saves a background context and then its parent in a single
// turn of the parent, so nothing else can run on the parent between the
// merge and the write. If either step fails the parent keeps exactly what it
// had staged before the merge, and this context keeps its changes staged.
// On the main context it is Save.
func (tx *Tx) SaveThrough() error {
	c := tx.c
	if c.parent == nil {
		return tx.Save()
	}
	if c.pending.len() == 0 {
		return nil
	}

	changes := c.pending.changes()
	err := c.parent.Perform(tx.ctx, func(ptx *Tx) error {
		sp := ptx.Savepoint()
		if err := ptx.merge(changes); err != nil {
			return err
		}
		if err := ptx.Save(); err != nil {
			ptx.RollbackTo(sp)
			return err
		}
		return nil
	})
	if err != nil {
		c.metrics.SaveFailures.Inc()
		c.logger.WithError(err).WithField("changes", len(changes)).Error("Save through parent failed")
		if errors.IsErrorType(err, errors.ErrorTypeSaveFailed) {
			return err
		}
		return errors.NewSaveFailedError(err)
	}

	c.pending.reset()
	c.metrics.Saves.WithLabelValues(c.name).Inc()
	c.notify(notificationFor(changes))
	return nil
}

// merge applies a child's changes to this context. Updated fields from the
// child win; fields the child did not touch keep this context's value. The
// merge is all or nothing.
func (tx *Tx) merge(changes []change) error {
	snapshot := tx.c.pending.clone()

	for _, ch := range changes {
		var err error
		switch ch.kind {
		case changeInsert:
			err = tx.Insert(ch.task)
		case changeUpdate:
			var current domain.Task
			current, err = tx.Get(ch.task.ID)
			if errors.IsNotFound(err) {
				// Deleted here after the child read it.
				err = nil
				continue
			}
			if err == nil {
				err = tx.Update(applyFields(current, ch.task, ch.fields))
			}
		case changeDelete:
			err = tx.Delete(ch.task.ID)
			if errors.IsNotFound(err) {
				err = nil
			}
		}
		if err != nil {
			tx.c.pending = snapshot
			return err
		}
	}
	return nil
}

func fetchFailed(err error) error {
	if errors.IsErrorType(err, errors.ErrorTypeFetchFailed) || errors.IsErrorType(err, errors.ErrorTypeStoreClosed) {
		return err
	}
	return errors.NewFetchFailedError("task", err)
}
