package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"todo-list/internal/config"
	"todo-list/internal/domain"
	"todo-list/internal/errors"
	"todo-list/internal/validation"
	"todo-list/internal/viewmodel"
)

// timeNow is a variable that can be replaced in tests
var timeNow = time.Now

// App carries what every command needs: the view-model, input parsing and
// display settings.
type App struct {
	vm       *viewmodel.ViewModel
	input    *validation.Validator
	config   *config.Config
	gatherer prometheus.Gatherer
	out      io.Writer
	closers  []func()
}

// NewApp creates a CLI application around an open view-model. gatherer may be
// nil when metrics are not exported.
func NewApp(vm *viewmodel.ViewModel, cfg *config.Config, gatherer prometheus.Gatherer) *App {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &App{
		vm:       vm,
		input:    validation.NewValidatorWithConfig(cfg),
		config:   cfg,
		gatherer: gatherer,
		out:      os.Stdout,
	}
}

// SetOutput redirects command output.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// OnClose registers fn to run when the app is closed. Functions run in
// reverse registration order.
func (a *App) OnClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases everything registered with OnClose.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

// resolveTask finds the cached task whose identifier starts with prefix.
func (a *App) resolveTask(prefix string) (domain.Task, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return domain.Task{}, errors.NewInvalidInputError("id", prefix, "task id is required")
	}

	var matches []domain.Task
	for _, task := range a.vm.Tasks() {
		if strings.HasPrefix(task.ID.String(), prefix) {
			matches = append(matches, task)
		}
	}

	switch len(matches) {
	case 0:
		return domain.Task{}, errors.NewNotFoundError("task", prefix)
	case 1:
		return matches[0], nil
	default:
		return domain.Task{}, errors.NewInvalidInputError("id", prefix,
			fmt.Sprintf("matches %d tasks, use more characters", len(matches)))
	}
}

// parseDue reads a due date argument relative to now.
func (a *App) parseDue(s string) (*time.Time, error) {
	due, err := a.input.ParseDueDate(s, timeNow())
	if err != nil {
		if ve, ok := err.(*validation.ValidationError); ok {
			return nil, ve.ToAppError()
		}
		return nil, err
	}
	return due, nil
}

// shortID returns the displayed prefix of a task identifier.
func (a *App) shortID(task domain.Task) string {
	id := task.ID.String()
	if n := a.config.Display.IDLength; n > 0 && n < len(id) {
		return id[:n]
	}
	return id
}

func (a *App) formatDue(task domain.Task) string {
	if task.DueDate == nil {
		return ""
	}
	return task.DueDate.In(time.Local).Format(a.config.Display.DateFormat)
}

// Command is a CLI command handler
type Command interface {
	Execute(ctx context.Context, args []string) error
}
