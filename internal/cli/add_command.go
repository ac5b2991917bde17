package cli

import (
	"context"
	"strings"
)

// AddCommand handles the add command
type AddCommand struct {
	app      *App
	Priority int16
	Due      string
}

// NewAddCommand creates a new add command handler
func NewAddCommand(app *App) *AddCommand {
	return &AddCommand{app: app}
}

// Execute creates a task titled by the joined arguments
func (c *AddCommand) Execute(ctx context.Context, args []string) error {
	due, err := c.app.parseDue(c.Due)
	if err != nil {
		return err
	}

	task, err := c.app.vm.AddTask(ctx, strings.Join(args, " "), c.Priority, due)
	if err != nil {
		return err
	}

	c.app.printf("Added %s: %s\n", c.app.shortID(task), task.Title)
	return nil
}
