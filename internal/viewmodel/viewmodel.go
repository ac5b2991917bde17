package viewmodel

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"todo-list/internal/domain"
	"todo-list/internal/logging"
	"todo-list/internal/manager"
	"todo-list/internal/metrics"
	"todo-list/internal/observer"
)

// Options configures a ViewModel. Every field is optional.
type Options struct {
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
	Buffer  int              // subscription channel depth, observer.DefaultBuffer when zero
	Now     func() time.Time // clock used for created and relative due dates
}

// ViewModel keeps a sorted copy of every task for rendering and turns user
// intents into writes through the manager.
//
// Intents never touch the cache. It changes only when a change event comes
// back from the store, so an entity is never counted twice.
type ViewModel struct {
	manager   *manager.Manager
	validator Validator
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu      sync.RWMutex
	tasks   []domain.Task
	version uint64

	sub       *observer.Subscription
	changed   chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New loads every task ordered by due date and starts following the
// manager's change events.
func New(ctx context.Context, m *manager.Manager, v Validator, opts Options) (*ViewModel, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	if opts.Buffer <= 0 {
		opts.Buffer = observer.DefaultBuffer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	vm := &ViewModel{
		manager:   m,
		validator: v,
		logger:    opts.Logger.WithField("component", "viewmodel"),
		metrics:   opts.Metrics,
		now:       opts.Now,
		changed:   make(chan struct{}, 1),
		stopped:   make(chan struct{}),
	}

	// Subscribe before the fetch so a save landing in between is replayed
	// onto the fetched list. Inserts of known IDs are skipped.
	vm.sub = m.Subscribe(opts.Buffer)

	tasks, err := m.Fetch(ctx, domain.Query{Sort: domain.DueDateAscending})
	if err != nil {
		vm.sub.Unsubscribe()
		return nil, err
	}
	vm.tasks = tasks
	vm.metrics.CachedTasks.Set(float64(len(tasks)))
	vm.logger.WithField("tasks", len(tasks)).Debug("Task list loaded")

	go vm.run()
	return vm, nil
}

func (vm *ViewModel) run() {
	defer close(vm.stopped)
	for evt := range vm.sub.C {
		vm.apply(evt)
	}
}

func (vm *ViewModel) apply(evt observer.ChangeEvent) {
	vm.mu.Lock()
	vm.tasks = Reconcile(vm.tasks, evt)
	vm.version++
	n := len(vm.tasks)
	// Counted before readers can see the new list.
	vm.metrics.Reconciliations.Inc()
	vm.metrics.CachedTasks.Set(float64(n))
	vm.mu.Unlock()

	vm.logger.WithFields(logrus.Fields{
		"inserted": evt.Inserted.Len(),
		"updated":  evt.Updated.Len(),
		"deleted":  evt.Deleted.Len(),
		"tasks":    n,
	}).Debug("Task list reconciled")

	select {
	case vm.changed <- struct{}{}:
	default:
	}
}

// Reconcile applies one change event to a task list and returns the list
// re-sorted by due date. Deleted IDs are dropped, inserts whose ID is already
// present are ignored and updates replace the entry with the same ID.
func Reconcile(tasks []domain.Task, evt observer.ChangeEvent) []domain.Task {
	out := make([]domain.Task, 0, len(tasks)+evt.Inserted.Len())
	present := make(map[uuid.UUID]struct{}, len(tasks))
	for _, t := range tasks {
		if evt.Deleted.Has(t.ID) {
			continue
		}
		if updated, ok := evt.Updated[t.ID]; ok {
			t = updated
		}
		present[t.ID] = struct{}{}
		out = append(out, t)
	}
	for _, t := range evt.Inserted.Slice() {
		if _, ok := present[t.ID]; ok || evt.Deleted.Has(t.ID) {
			continue
		}
		out = append(out, t)
	}
	domain.SortByDueDate(out)
	return out
}

// Tasks returns a copy of the cached list ordered by due date.
func (vm *ViewModel) Tasks() []domain.Task {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]domain.Task, len(vm.tasks))
	copy(out, vm.tasks)
	return out
}

// Groups returns the cached list bucketed by priority, highest first.
func (vm *ViewModel) Groups() []domain.PriorityGroup {
	return domain.GroupByPriority(vm.Tasks())
}

// Version increases by one for every applied change event.
func (vm *ViewModel) Version() uint64 {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.version
}

// Changed receives a value after the cache changes. Several changes between
// reads collapse into one signal. The channel is closed by Close.
func (vm *ViewModel) Changed() <-chan struct{} {
	return vm.changed
}

// Close stops following change events.
func (vm *ViewModel) Close() {
	vm.closeOnce.Do(func() {
		vm.sub.Unsubscribe()
		<-vm.stopped
		close(vm.changed)
	})
}
