package cli

import (
	"context"

	"todo-list/internal/errors"
)

// DeleteCommand handles the delete command
type DeleteCommand struct {
	app *App
}

// NewDeleteCommand creates a new delete command handler
func NewDeleteCommand(app *App) *DeleteCommand {
	return &DeleteCommand{app: app}
}

// Execute deletes the task named by args[0]. This cannot be undone.
func (c *DeleteCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("args", args, "usage: delete <id>")
	}
	task, err := c.app.resolveTask(args[0])
	if err != nil {
		return err
	}
	if err := c.app.vm.DeleteTask(ctx, task); err != nil {
		return err
	}
	c.app.printf("Deleted task: %s\n", task.Title)
	return nil
}
