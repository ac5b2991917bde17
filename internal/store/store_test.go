package store

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-list/internal/domain"
	"todo-list/internal/errors"
	"todo-list/internal/logging"
	"todo-list/internal/metrics"
	"todo-list/internal/repository/sqlite"
)

type failingRepo struct {
	sqlite.Repository
	failApply  bool
	failSearch bool
}

func (r *failingRepo) ApplyChanges(ctx context.Context, batch sqlite.ChangeBatch) error {
	if r.failApply {
		return stderrors.New("disk full")
	}
	return r.Repository.ApplyChanges(ctx, batch)
}

func (r *failingRepo) SearchTasks(ctx context.Context, opts sqlite.SearchOptions) ([]*sqlite.Task, error) {
	if r.failSearch {
		return nil, stderrors.New("file is not a database")
	}
	return r.Repository.SearchTasks(ctx, opts)
}

func setupStore(t *testing.T) (*Store, *failingRepo, *metrics.Metrics) {
	t.Helper()
	base, err := sqlite.New(":memory:")
	require.NoError(t, err)

	repo := &failingRepo{Repository: base}
	m := metrics.New(prometheus.NewRegistry())
	s, err := Open(context.Background(), repo, Options{Logger: logging.Discard(), Metrics: m})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, repo, m
}

func day(n int) *time.Time {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return &d
}

func task(title string, due *time.Time) domain.Task {
	return domain.NewTask(title, domain.PriorityMedium, due, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
}

func perform(t *testing.T, c *Context, fn func(*Tx) error) {
	t.Helper()
	require.NoError(t, c.Perform(context.Background(), fn))
}

func fetchAll(t *testing.T, c *Context) []domain.Task {
	t.Helper()
	var out []domain.Task
	perform(t, c, func(tx *Tx) error {
		var err error
		out, err = tx.Fetch(domain.Query{Sort: domain.DueDateAscending})
		return err
	})
	return out
}

func collect(c *Context) *[]Notification {
	var got []Notification
	c.AddListener(func(n Notification) { got = append(got, n) })
	return &got
}

func TestOpen_LoadFailure(t *testing.T) {
	base, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer base.Close()

	_, err = Open(context.Background(), &failingRepo{Repository: base, failSearch: true}, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeDatabase))
}

func TestInsertSaveAndGet(t *testing.T) {
	s, repo, _ := setupStore(t)
	notes := collect(s.Context())
	milk := task("Buy milk", day(1))

	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(milk))
		assert.True(t, tx.HasChanges())
		return tx.Save()
	})

	require.Len(t, *notes, 1)
	require.Len(t, (*notes)[0].Inserted, 1)
	assert.True(t, milk.Equal((*notes)[0].Inserted[0]))

	row, err := repo.GetTask(context.Background(), milk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", row.Title)

	perform(t, s.Context(), func(tx *Tx) error {
		assert.False(t, tx.HasChanges())
		got, err := tx.Get(milk.ID)
		require.NoError(t, err)
		assert.True(t, milk.Equal(got))
		return nil
	})
}

func TestGet_NotFound(t *testing.T) {
	s, _, _ := setupStore(t)

	err := s.Context().Perform(context.Background(), func(tx *Tx) error {
		_, err := tx.Get(uuid.New())
		return err
	})
	assert.True(t, errors.IsNotFound(err))
}

func TestFetch_OverlaysPendingChanges(t *testing.T) {
	s, _, _ := setupStore(t)
	a := task("A", day(3))
	b := task("B", day(1))
	undated := task("Undated", nil)

	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(a))
		require.NoError(t, tx.Insert(undated))
		return tx.Save()
	})

	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(b))

		moved := a
		moved.DueDate = day(0)
		require.NoError(t, tx.Update(moved))

		tasks, err := tx.Fetch(domain.Query{Sort: domain.DueDateAscending})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "Undated"}, titlesOf(tasks))

		limited, err := tx.Fetch(domain.Query{Sort: domain.DueDateAscending, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, titlesOf(limited))

		require.NoError(t, tx.Delete(undated.ID))
		tasks, err = tx.Fetch(domain.Query{Sort: domain.DueDateAscending})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, titlesOf(tasks))

		tx.Rollback()
		return nil
	})

	assert.Equal(t, []string{"A", "Undated"}, titlesOf(fetchAll(t, s.Context())))
}

func TestFetch_PredicateSeesPendingValues(t *testing.T) {
	s, _, _ := setupStore(t)
	a := task("A", nil)

	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(a))
		return tx.Save()
	})

	done := true
	perform(t, s.Context(), func(tx *Tx) error {
		completed := a
		completed.IsCompleted = true
		require.NoError(t, tx.Update(completed))

		tasks, err := tx.Fetch(domain.Query{Predicate: domain.Predicate{Completed: &done}})
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, titlesOf(tasks))
		return nil
	})
}

func TestFetch_TitleFilterSameWithPendingChanges(t *testing.T) {
	s, _, _ := setupStore(t)
	lower := task("Café noir", nil)
	upper := task("CAFÉ AU LAIT", nil)
	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(lower))
		require.NoError(t, tx.Insert(upper))
		return tx.Save()
	})

	q := domain.Query{Predicate: domain.Predicate{TitleContains: "café"}, Sort: domain.DueDateAscending}
	var stored, overlaid []string
	perform(t, s.Context(), func(tx *Tx) error {
		tasks, err := tx.Fetch(q)
		stored = titlesOf(tasks)
		return err
	})

	perform(t, s.Context(), func(tx *Tx) error {
		for _, tk := range []domain.Task{lower, upper} {
			tk.Priority = domain.PriorityHigh
			require.NoError(t, tx.Update(tk))
		}
		tasks, err := tx.Fetch(q)
		overlaid = titlesOf(tasks)
		tx.Rollback()
		return err
	})

	assert.Equal(t, []string{"Café noir"}, stored)
	assert.Equal(t, stored, overlaid)
}

func TestInsertThenDelete_NeverReachesDisk(t *testing.T) {
	s, repo, m := setupStore(t)
	notes := collect(s.Context())
	temp := task("Temp", nil)

	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(temp))
		require.NoError(t, tx.Delete(temp.ID))
		assert.False(t, tx.HasChanges())
		return tx.Save()
	})

	assert.Empty(t, *notes)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Saves.WithLabelValues(metrics.ContextMain)))

	_, err := repo.GetTask(context.Background(), temp.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestInsertThenUpdate_StaysInsert(t *testing.T) {
	s, _, _ := setupStore(t)
	notes := collect(s.Context())
	draft := task("Draft", nil)

	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(draft))
		final := draft
		final.Title = "Final"
		require.NoError(t, tx.Update(final))
		return tx.Save()
	})

	require.Len(t, *notes, 1)
	n := (*notes)[0]
	require.Len(t, n.Inserted, 1)
	assert.Equal(t, "Final", n.Inserted[0].Title)
	assert.Empty(t, n.Updated)
}

func TestUpdateThenDelete_BecomesDelete(t *testing.T) {
	s, repo, _ := setupStore(t)
	doomed := task("Doomed", nil)
	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(doomed))
		return tx.Save()
	})

	notes := collect(s.Context())
	perform(t, s.Context(), func(tx *Tx) error {
		renamed := doomed
		renamed.Title = "Renamed"
		require.NoError(t, tx.Update(renamed))
		require.NoError(t, tx.Delete(doomed.ID))

		_, err := tx.Get(doomed.ID)
		assert.True(t, errors.IsNotFound(err))
		return tx.Save()
	})

	require.Len(t, *notes, 1)
	n := (*notes)[0]
	assert.Empty(t, n.Updated)
	require.Len(t, n.Deleted, 1)
	assert.Equal(t, doomed.ID, n.Deleted[0].ID)

	_, err := repo.GetTask(context.Background(), doomed.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdate_NoChangeIsNoop(t *testing.T) {
	s, _, _ := setupStore(t)
	same := task("Same", nil)
	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(same))
		return tx.Save()
	})

	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Update(same))
		assert.False(t, tx.HasChanges())
		return nil
	})
}

func TestUpdateAndDelete_Missing(t *testing.T) {
	s, _, _ := setupStore(t)
	ghost := task("Ghost", nil)

	err := s.Context().Perform(context.Background(), func(tx *Tx) error {
		return tx.Update(ghost)
	})
	assert.True(t, errors.IsNotFound(err))

	err = s.Context().Perform(context.Background(), func(tx *Tx) error {
		return tx.Delete(ghost.ID)
	})
	assert.True(t, errors.IsNotFound(err))
}

func TestInsert_Rejected(t *testing.T) {
	s, _, _ := setupStore(t)
	existing := task("Existing", nil)
	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(existing))
		return tx.Save()
	})

	tests := []struct {
		name    string
		task    domain.Task
		errType errors.ErrorType
	}{
		{"nil identifier", domain.Task{Title: "No id"}, errors.ErrorTypeValidation},
		{"duplicate identifier", existing, errors.ErrorTypeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Context().Perform(context.Background(), func(tx *Tx) error {
				return tx.Insert(tt.task)
			})
			assert.True(t, errors.IsErrorType(err, tt.errType), "got %v", err)
		})
	}
}

func TestSaveFailure_KeepsPendingChanges(t *testing.T) {
	s, repo, m := setupStore(t)
	notes := collect(s.Context())
	milk := task("Buy milk", nil)

	repo.failApply = true
	err := s.Context().Perform(context.Background(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(milk))
		return tx.Save()
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeSaveFailed))
	assert.ErrorIs(t, err, errors.ErrSaveFailed)
	assert.Empty(t, *notes)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SaveFailures))

	perform(t, s.Context(), func(tx *Tx) error {
		assert.True(t, tx.HasChanges())
		tx.Rollback()
		assert.False(t, tx.HasChanges())
		return nil
	})
	repo.failApply = false

	assert.Empty(t, fetchAll(t, s.Context()))
}

func TestListeners_OneNotificationPerSaveInOrder(t *testing.T) {
	s, _, m := setupStore(t)
	notes := collect(s.Context())
	a := task("A", nil)

	require.NoError(t, s.Context().Perform(context.Background(), func(tx *Tx) error {
		return tx.Insert(a)
	}))
	require.NoError(t, s.Save(context.Background()))

	perform(t, s.Context(), func(tx *Tx) error {
		renamed := a
		renamed.Title = "A2"
		return tx.Update(renamed)
	})
	require.NoError(t, s.Save(context.Background()))
	require.NoError(t, s.Save(context.Background()))

	require.Len(t, *notes, 2)
	assert.Len(t, (*notes)[0].Inserted, 1)
	require.Len(t, (*notes)[1].Updated, 1)
	assert.Equal(t, "A2", (*notes)[1].Updated[0].Title)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Notifications))
}

func TestAddListener_Remove(t *testing.T) {
	s, _, _ := setupStore(t)
	var count int
	remove := s.Context().AddListener(func(Notification) { count++ })

	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(task("one", nil)))
		return tx.Save()
	})
	remove()
	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(task("two", nil)))
		return tx.Save()
	})

	assert.Equal(t, 1, count)
}

func TestBackgroundContext_MergesFieldByField(t *testing.T) {
	s, repo, _ := setupStore(t)
	shared := task("Original", day(1))
	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(shared))
		return tx.Save()
	})

	// Unsaved title edit on the main context.
	perform(t, s.Context(), func(tx *Tx) error {
		renamed := shared
		renamed.Title = "Renamed in main"
		return tx.Update(renamed)
	})

	child, err := s.NewBackgroundContext()
	require.NoError(t, err)
	defer child.Close()
	assert.True(t, child.IsBackground())

	childNotes := collect(child)
	perform(t, child, func(tx *Tx) error {
		current, err := tx.Get(shared.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed in main", current.Title, "child reads through parent")

		current.Priority = domain.PriorityHigh
		current.IsCompleted = true
		return tx.Update(current)
	})
	perform(t, child, func(tx *Tx) error { return tx.Save() })
	assert.Len(t, *childNotes, 1)

	// Merged into main but not yet on disk.
	row, err := repo.GetTask(context.Background(), shared.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", row.Title)
	assert.False(t, row.IsCompleted)

	require.NoError(t, s.Save(context.Background()))

	row, err = repo.GetTask(context.Background(), shared.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed in main", row.Title)
	assert.True(t, row.IsCompleted)
	assert.Equal(t, domain.PriorityHigh, row.Priority)
}

func TestBackgroundContext_ParentFieldsSurviveMerge(t *testing.T) {
	s, _, _ := setupStore(t)
	shared := task("Original", nil)
	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(shared))
		return tx.Save()
	})

	child, err := s.NewBackgroundContext()
	require.NoError(t, err)
	defer child.Close()

	// Child reads before the parent edits the title.
	perform(t, child, func(tx *Tx) error {
		current, err := tx.Get(shared.ID)
		require.NoError(t, err)
		current.Priority = domain.PriorityHigh
		return tx.Update(current)
	})

	perform(t, s.Context(), func(tx *Tx) error {
		renamed := shared
		renamed.Title = "Parent title"
		return tx.Update(renamed)
	})

	perform(t, child, func(tx *Tx) error { return tx.Save() })

	perform(t, s.Context(), func(tx *Tx) error {
		got, err := tx.Get(shared.ID)
		require.NoError(t, err)
		assert.Equal(t, "Parent title", got.Title)
		assert.Equal(t, domain.PriorityHigh, got.Priority)
		return nil
	})
}

func TestBackgroundContext_InsertAndDeleteMerge(t *testing.T) {
	s, _, _ := setupStore(t)
	gone := task("Gone", nil)
	perform(t, s.Context(), func(tx *Tx) error {
		require.NoError(t, tx.Insert(gone))
		return tx.Save()
	})

	child, err := s.NewBackgroundContext()
	require.NoError(t, err)
	defer child.Close()

	fresh := task("Fresh", nil)
	perform(t, child, func(tx *Tx) error {
		require.NoError(t, tx.Insert(fresh))
		require.NoError(t, tx.Delete(gone.ID))
		return tx.Save()
	})

	notes := collect(s.Context())
	require.NoError(t, s.Save(context.Background()))

	require.Len(t, *notes, 1)
	assert.Len(t, (*notes)[0].Inserted, 1)
	assert.Len(t, (*notes)[0].Deleted, 1)
	assert.Equal(t, []string{"Fresh"}, titlesOf(fetchAll(t, s.Context())))
}

func TestPerform_RecoversPanic(t *testing.T) {
	s, _, _ := setupStore(t)

	err := s.Context().Perform(context.Background(), func(tx *Tx) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	// Context still serves requests.
	assert.Empty(t, fetchAll(t, s.Context()))
}

func TestPerform_PanicDiscardsWhatItStaged(t *testing.T) {
	s, repo, _ := setupStore(t)
	kept := task("Kept", nil)
	perform(t, s.Context(), func(tx *Tx) error { return tx.Insert(kept) })

	ghost := task("Ghost", nil)
	err := s.Context().Perform(context.Background(), func(tx *Tx) error {
		if err := tx.Insert(ghost); err != nil {
			return err
		}
		panic("boom")
	})
	require.Error(t, err)

	require.NoError(t, s.Save(context.Background()))
	_, err = repo.GetTask(context.Background(), ghost.ID)
	assert.True(t, errors.IsNotFound(err), "writes staged before a panic must not be saved")
	_, err = repo.GetTask(context.Background(), kept.ID)
	assert.NoError(t, err, "changes staged by earlier calls survive")
}

func TestPerform_DeadlineWhileRunning(t *testing.T) {
	s, _, _ := setupStore(t)
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = s.Context().Perform(context.Background(), func(tx *Tx) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	begin := time.Now()
	err := s.Context().Perform(ctx, func(tx *Tx) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(begin), time.Second)

	close(release)
	assert.Empty(t, fetchAll(t, s.Context()))
}

func TestSavepoint_RollbackToKeepsEarlierChanges(t *testing.T) {
	s, _, _ := setupStore(t)
	first := task("First", nil)
	second := task("Second", nil)

	perform(t, s.Context(), func(tx *Tx) error {
		if err := tx.Insert(first); err != nil {
			return err
		}
		sp := tx.Savepoint()
		if err := tx.Insert(second); err != nil {
			return err
		}
		renamed := first
		renamed.Title = "Renamed"
		if err := tx.Update(renamed); err != nil {
			return err
		}
		tx.RollbackTo(sp)
		return nil
	})

	assert.Equal(t, []string{"First"}, titlesOf(fetchAll(t, s.Context())))
}

func TestSaveThrough_MergesAndPersistsInOneStep(t *testing.T) {
	s, repo, _ := setupStore(t)
	shared := task("Shared", nil)
	perform(t, s.Context(), func(tx *Tx) error {
		if err := tx.Insert(shared); err != nil {
			return err
		}
		return tx.Save()
	})

	child, err := s.NewBackgroundContext()
	require.NoError(t, err)
	defer child.Close()

	notes := collect(s.Context())
	perform(t, child, func(tx *Tx) error {
		current, err := tx.Get(shared.ID)
		if err != nil {
			return err
		}
		current.IsCompleted = true
		if err := tx.Update(current); err != nil {
			return err
		}
		return tx.SaveThrough()
	})

	row, err := repo.GetTask(context.Background(), shared.ID)
	require.NoError(t, err)
	assert.True(t, row.IsCompleted, "no separate parent save needed")
	assert.Len(t, *notes, 1)
}

func TestSaveThrough_FailureRestoresParent(t *testing.T) {
	s, repo, _ := setupStore(t)
	shared := task("Shared", nil)
	perform(t, s.Context(), func(tx *Tx) error {
		if err := tx.Insert(shared); err != nil {
			return err
		}
		return tx.Save()
	})

	staged := task("Staged in main", nil)
	perform(t, s.Context(), func(tx *Tx) error { return tx.Insert(staged) })

	child, err := s.NewBackgroundContext()
	require.NoError(t, err)
	defer child.Close()

	repo.failApply = true
	err = child.Perform(context.Background(), func(tx *Tx) error {
		current, err := tx.Get(shared.ID)
		if err != nil {
			return err
		}
		current.IsCompleted = true
		if err := tx.Update(current); err != nil {
			return err
		}
		return tx.SaveThrough()
	})
	repo.failApply = false
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeSaveFailed))

	perform(t, s.Context(), func(tx *Tx) error {
		got, err := tx.Get(shared.ID)
		require.NoError(t, err)
		assert.False(t, got.IsCompleted, "merged batch is taken back out")
		_, err = tx.Get(staged.ID)
		assert.NoError(t, err, "parent's own staged changes stay")
		return nil
	})
}

func TestPerform_CancelledContext(t *testing.T) {
	s, _, _ := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Context().Perform(ctx, func(tx *Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestClose(t *testing.T) {
	s, _, _ := setupStore(t)
	child, err := s.NewBackgroundContext()
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err = s.Context().Perform(context.Background(), func(tx *Tx) error { return nil })
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeStoreClosed))

	err = child.Perform(context.Background(), func(tx *Tx) error { return nil })
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeStoreClosed))

	_, err = s.NewBackgroundContext()
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeStoreClosed))
}

func TestMetrics_CountFetchesByContext(t *testing.T) {
	s, _, m := setupStore(t)
	fetchAll(t, s.Context())

	child, err := s.NewBackgroundContext()
	require.NoError(t, err)
	defer child.Close()
	fetchAll(t, child)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Fetches.WithLabelValues(metrics.ContextMain)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues(metrics.ContextBackground)))
}

func titlesOf(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}
