package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"todo-list/internal/config"
	"todo-list/internal/domain"
	"todo-list/internal/logging"
	"todo-list/internal/manager"
	"todo-list/internal/metrics"
	"todo-list/internal/observer"
	"todo-list/internal/repository/sqlite"
	"todo-list/internal/store"
	"todo-list/internal/validation"
	"todo-list/internal/viewmodel"
)

var ctx = context.Background()

// openTestApp wires a full stack on an in-memory database.
func openTestApp(t *testing.T, cfg *config.Config) (*App, *bytes.Buffer) {
	t.Helper()
	if cfg == nil {
		cfg = config.NewConfig()
	}

	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	logger := logging.Discard()

	s, err := store.Open(ctx, repo, store.Options{Logger: logger, Metrics: m})
	require.NoError(t, err)
	obs := observer.New(s.Context(), observer.Options{Logger: logger})
	mgr := manager.New(s, obs, logger, m)
	vm, err := viewmodel.New(ctx, mgr, validation.NewTaskValidatorWithConfig(cfg), viewmodel.Options{Logger: logger, Metrics: m})
	require.NoError(t, err)

	app := NewApp(vm, cfg, registry)
	app.OnClose(func() { s.Close() })
	app.OnClose(obs.Close)
	app.OnClose(vm.Close)
	t.Cleanup(app.Close)

	var out bytes.Buffer
	app.SetOutput(&out)
	return app, &out
}

// settle waits until the cache reflects every change made so far.
func settle(t *testing.T, app *App, version uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return app.vm.Version() >= version
	}, 2*time.Second, 5*time.Millisecond)
}

func addTask(t *testing.T, app *App, title string, priority int16, due string) domain.Task {
	t.Helper()
	v := app.vm.Version()
	cmd := NewAddCommand(app)
	cmd.Priority, cmd.Due = priority, due
	require.NoError(t, cmd.Execute(ctx, []string{title}))
	settle(t, app, v+1)

	for _, task := range app.vm.Tasks() {
		if task.Title == title {
			return task
		}
	}
	t.Fatalf("task %q not in cache", title)
	return domain.Task{}
}

func freezeTime(t *testing.T, now time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })
}
