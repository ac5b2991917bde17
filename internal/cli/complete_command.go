package cli

import (
	"context"
)

// CompleteCommand handles the complete command
type CompleteCommand struct {
	app      *App
	Priority *int16
}

// NewCompleteCommand creates a new complete command handler
func NewCompleteCommand(app *App) *CompleteCommand {
	return &CompleteCommand{app: app}
}

// Execute marks every open task done, limited to one priority when set
func (c *CompleteCommand) Execute(ctx context.Context, args []string) error {
	n, err := c.app.vm.CompleteAll(ctx, c.Priority)
	if err != nil {
		return err
	}

	switch n {
	case 0:
		c.app.printf("No open tasks to complete\n")
	case 1:
		c.app.printf("Completed 1 task\n")
	default:
		c.app.printf("Completed %d tasks\n", n)
	}
	return nil
}
