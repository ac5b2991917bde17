package manager

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"todo-list/internal/domain"
	"todo-list/internal/errors"
	"todo-list/internal/logging"
	"todo-list/internal/metrics"
	"todo-list/internal/observer"
	"todo-list/internal/store"
)

// Manager is the only way the rest of the app reaches the store. It runs
// everything on the store's main context and relays the observer's events.
type Manager struct {
	store    *store.Store
	observer *observer.Observer
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
}

// New creates a Manager. logger and m may be nil.
func New(s *store.Store, o *observer.Observer, logger logrus.FieldLogger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Manager{
		store:    s,
		observer: o,
		logger:   logger.WithField("component", "manager"),
		metrics:  m,
	}
}

// Fetch runs q on the main context. An empty result is not an error.
func (m *Manager) Fetch(ctx context.Context, q domain.Query) ([]domain.Task, error) {
	var tasks []domain.Task
	err := m.store.Context().Perform(ctx, func(tx *store.Tx) error {
		var err error
		tasks, err = tx.Fetch(q)
		return err
	})
	if err != nil {
		return nil, asFetchFailed(err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// FetchByID returns the task with id or a NotFound error.
func (m *Manager) FetchByID(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	var task domain.Task
	err := m.store.Context().Perform(ctx, func(tx *store.Tx) error {
		var err error
		task, err = tx.Get(id)
		return err
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return domain.Task{}, err
		}
		return domain.Task{}, asFetchFailed(err)
	}
	return task, nil
}

// Save persists whatever is staged on the main context.
func (m *Manager) Save(ctx context.Context) error {
	if err := m.store.Save(ctx); err != nil {
		return asSaveFailed(err)
	}
	return nil
}

// Perform runs fn on the main context without saving.
func (m *Manager) Perform(ctx context.Context, fn func(*store.Tx) error) error {
	return m.store.Context().Perform(ctx, fn)
}

// Commit stages fn's writes and saves them in the same turn on the main
// context. If fn or the save fails, what fn staged is rolled back; changes
// staged before Commit was called are left alone.
func (m *Manager) Commit(ctx context.Context, fn func(*store.Tx) error) error {
	return m.store.Context().Perform(ctx, func(tx *store.Tx) error {
		sp := tx.Savepoint()
		if err := fn(tx); err != nil {
			tx.RollbackTo(sp)
			return err
		}
		if err := tx.Save(); err != nil {
			tx.RollbackTo(sp)
			return asSaveFailed(err)
		}
		return nil
	})
}

// Rollback discards whatever is staged on the main context.
func (m *Manager) Rollback(ctx context.Context) error {
	return m.store.Context().Perform(ctx, func(tx *store.Tx) error {
		tx.Rollback()
		return nil
	})
}

// BatchUpdate applies fn to every task matching p on a background context,
// then merges the result into the main context and saves it in one turn of
// the main context. It returns the number of tasks fn actually changed. fn
// cannot change a task's identifier. On failure nothing from the batch stays
// staged on the main context.
func (m *Manager) BatchUpdate(ctx context.Context, p domain.Predicate, fn func(*domain.Task)) (int, error) {
	child, err := m.store.NewBackgroundContext()
	if err != nil {
		return 0, m.batchFailed(err)
	}
	defer child.Close()

	var count int
	err = child.Perform(ctx, func(tx *store.Tx) error {
		tasks, err := tx.Fetch(domain.Query{Predicate: p})
		if err != nil {
			return err
		}
		for _, original := range tasks {
			updated := original
			fn(&updated)
			updated.ID = original.ID
			if updated.Equal(original) {
				continue
			}
			if err := tx.Update(updated); err != nil {
				return err
			}
			count++
		}
		return tx.SaveThrough()
	})
	if err != nil {
		return 0, m.batchFailed(err)
	}

	m.metrics.BatchUpdates.WithLabelValues("success").Inc()
	m.metrics.BatchTouched.Add(float64(count))
	m.logger.WithField("updated", count).Debug("Batch update saved")
	return count, nil
}

// Subscribe relays the observer's change events.
func (m *Manager) Subscribe(buffer int) *observer.Subscription {
	return m.observer.Subscribe(buffer)
}

func (m *Manager) batchFailed(err error) error {
	m.metrics.BatchUpdates.WithLabelValues("failure").Inc()
	m.logger.WithError(err).Error("Batch update failed")
	return errors.NewBatchUpdateFailedError("task", err)
}

func asFetchFailed(err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return errors.NewFetchFailedError("task", err)
}

func asSaveFailed(err error) error {
	if errors.IsErrorType(err, errors.ErrorTypeSaveFailed) || errors.IsErrorType(err, errors.ErrorTypeStoreClosed) {
		return err
	}
	return errors.NewSaveFailedError(err)
}
