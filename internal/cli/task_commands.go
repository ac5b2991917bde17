package cli

import (
	"context"
	"strconv"
	"strings"

	"todo-list/internal/errors"
)

// RenameCommand handles the rename command
type RenameCommand struct {
	app *App
}

// NewRenameCommand creates a new rename command handler
func NewRenameCommand(app *App) *RenameCommand {
	return &RenameCommand{app: app}
}

// Execute renames the task named by args[0] to the remaining arguments
func (c *RenameCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.NewInvalidInputError("args", args, "usage: rename <id> <title>")
	}
	task, err := c.app.resolveTask(args[0])
	if err != nil {
		return err
	}
	title := strings.Join(args[1:], " ")
	if err := c.app.vm.UpdateTaskTitle(ctx, task, title); err != nil {
		return err
	}
	c.app.printf("Renamed %s: %s\n", c.app.shortID(task), strings.TrimSpace(title))
	return nil
}

// ToggleCommand handles the toggle command
type ToggleCommand struct {
	app *App
}

// NewToggleCommand creates a new toggle command handler
func NewToggleCommand(app *App) *ToggleCommand {
	return &ToggleCommand{app: app}
}

// Execute flips the completion state of the task named by args[0]
func (c *ToggleCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("args", args, "usage: toggle <id>")
	}
	task, err := c.app.resolveTask(args[0])
	if err != nil {
		return err
	}
	if err := c.app.vm.ToggleCompletion(ctx, task); err != nil {
		return err
	}

	state := "completed"
	if task.IsCompleted {
		state = "reopened"
	}
	c.app.printf("Task %s %s: %s\n", c.app.shortID(task), state, task.Title)
	return nil
}

// RescheduleCommand handles the reschedule command
type RescheduleCommand struct {
	app *App
}

// NewRescheduleCommand creates a new reschedule command handler
func NewRescheduleCommand(app *App) *RescheduleCommand {
	return &RescheduleCommand{app: app}
}

// Execute sets the due date of args[0] to args[1]; "none" clears it
func (c *RescheduleCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.NewInvalidInputError("args", args, "usage: reschedule <id> <date|none>")
	}
	task, err := c.app.resolveTask(args[0])
	if err != nil {
		return err
	}
	due, err := c.app.parseDue(args[1])
	if err != nil {
		return err
	}
	if err := c.app.vm.Reschedule(ctx, task, due); err != nil {
		return err
	}

	if due == nil {
		c.app.printf("Cleared due date of %s: %s\n", c.app.shortID(task), task.Title)
		return nil
	}
	task.DueDate = due
	c.app.printf("Rescheduled %s to %s: %s\n", c.app.shortID(task), c.app.formatDue(task), task.Title)
	return nil
}

// PriorityCommand handles the priority command
type PriorityCommand struct {
	app *App
}

// NewPriorityCommand creates a new priority command handler
func NewPriorityCommand(app *App) *PriorityCommand {
	return &PriorityCommand{app: app}
}

// Execute sets the priority of args[0] to args[1]
func (c *PriorityCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.NewInvalidInputError("args", args, "usage: priority <id> <n>")
	}
	task, err := c.app.resolveTask(args[0])
	if err != nil {
		return err
	}
	priority, err := parsePriority(args[1])
	if err != nil {
		return err
	}
	if err := c.app.vm.SetPriority(ctx, task, priority); err != nil {
		return err
	}
	c.app.printf("Set priority of %s to %d: %s\n", c.app.shortID(task), priority, task.Title)
	return nil
}

func parsePriority(s string) (int16, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, errors.NewInvalidInputError("priority", s, "must be a whole number")
	}
	return int16(n), nil
}
