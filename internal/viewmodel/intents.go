package viewmodel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"todo-list/internal/domain"
	"todo-list/internal/store"
	"todo-list/internal/validation"
)

// Validator checks user input before it is written.
type Validator interface {
	GetValidTitle(title string) (string, error)
	ValidateTaskID(id uuid.UUID) error
	ValidateTask(task domain.Task) error
}

// AddTask creates an open task with a fresh identifier and saves it.
func (vm *ViewModel) AddTask(ctx context.Context, title string, priority int16, due *time.Time) (domain.Task, error) {
	title, err := vm.validator.GetValidTitle(title)
	if err != nil {
		return domain.Task{}, userError(err)
	}

	task := domain.NewTask(title, priority, due, vm.now())
	if err := vm.validator.ValidateTask(task); err != nil {
		return domain.Task{}, userError(err)
	}
	if err := vm.manager.Commit(ctx, func(tx *store.Tx) error {
		return tx.Insert(task)
	}); err != nil {
		vm.intentFailed("add", task.ID, err)
		return domain.Task{}, err
	}

	vm.logger.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"priority": task.Priority,
	}).Info("Task added")
	return task, nil
}

// UpdateTaskTitle renames task.
func (vm *ViewModel) UpdateTaskTitle(ctx context.Context, task domain.Task, title string) error {
	title, err := vm.validator.GetValidTitle(title)
	if err != nil {
		return userError(err)
	}
	return vm.modify(ctx, "rename", task, func(t *domain.Task) {
		t.Title = title
	})
}

// ToggleCompletion flips the stored completion state of task. The current
// value is read inside the write, so a stale task argument still toggles.
func (vm *ViewModel) ToggleCompletion(ctx context.Context, task domain.Task) error {
	return vm.modify(ctx, "toggle", task, func(t *domain.Task) {
		t.IsCompleted = !t.IsCompleted
	})
}

// Reschedule sets or clears the due date of task.
func (vm *ViewModel) Reschedule(ctx context.Context, task domain.Task, due *time.Time) error {
	return vm.modify(ctx, "reschedule", task, func(t *domain.Task) {
		t.DueDate = due
	})
}

// SetPriority changes the priority of task. Any value is accepted.
func (vm *ViewModel) SetPriority(ctx context.Context, task domain.Task, priority int16) error {
	return vm.modify(ctx, "priority", task, func(t *domain.Task) {
		t.Priority = priority
	})
}

// DeleteTask removes task.
func (vm *ViewModel) DeleteTask(ctx context.Context, task domain.Task) error {
	if err := vm.validator.ValidateTaskID(task.ID); err != nil {
		return userError(err)
	}
	if err := vm.manager.Commit(ctx, func(tx *store.Tx) error {
		return tx.Delete(task.ID)
	}); err != nil {
		vm.intentFailed("delete", task.ID, err)
		return err
	}
	vm.logger.WithField("task_id", task.ID).Info("Task deleted")
	return nil
}

// CompleteAll marks every open task as completed, or only those with the
// given priority, in one background batch. It returns how many changed.
func (vm *ViewModel) CompleteAll(ctx context.Context, priority *int16) (int, error) {
	open := false
	p := domain.Predicate{Completed: &open, Priority: priority}

	n, err := vm.manager.BatchUpdate(ctx, p, func(t *domain.Task) {
		t.IsCompleted = true
	})
	if err != nil {
		vm.logger.WithError(err).Warn("Complete all failed")
		return 0, err
	}
	vm.logger.WithField("completed", n).Info("Tasks completed")
	return n, nil
}

func (vm *ViewModel) modify(ctx context.Context, intent string, task domain.Task, fn func(*domain.Task)) error {
	if err := vm.validator.ValidateTaskID(task.ID); err != nil {
		return userError(err)
	}
	err := vm.manager.Commit(ctx, func(tx *store.Tx) error {
		current, err := tx.Get(task.ID)
		if err != nil {
			return err
		}
		fn(&current)
		if err := vm.validator.ValidateTask(current); err != nil {
			return err
		}
		return tx.Update(current)
	})
	if err != nil {
		vm.intentFailed(intent, task.ID, err)
		return userError(err)
	}
	vm.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"intent":  intent,
	}).Info("Task updated")
	return nil
}

func (vm *ViewModel) intentFailed(intent string, id uuid.UUID, err error) {
	vm.logger.WithFields(logrus.Fields{
		"task_id": id,
		"intent":  intent,
	}).WithError(err).Warn("Intent failed")
}

func userError(err error) error {
	if ve, ok := err.(*validation.ValidationError); ok {
		return ve.ToAppError()
	}
	return err
}
