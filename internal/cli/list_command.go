package cli

import (
	"context"
	"fmt"
	"math"
	"time"

	"todo-list/internal/domain"
)

// ListCommand handles the list command
type ListCommand struct {
	app *App
	All bool
}

// NewListCommand creates a new list command handler
func NewListCommand(app *App) *ListCommand {
	return &ListCommand{app: app}
}

// Execute prints the cached tasks grouped by priority, highest first.
// Completed tasks are hidden unless All or the display config asks for them;
// group counts always include them.
func (c *ListCommand) Execute(ctx context.Context, args []string) error {
	groups := c.app.vm.Groups()
	if len(groups) == 0 {
		c.app.printf("No tasks found\n")
		return nil
	}

	showCompleted := c.All || c.app.config.Display.ShowCompleted
	now := timeNow()

	for i, group := range groups {
		if i > 0 {
			c.app.printf("\n")
		}
		c.app.printf("%s (%d/%d done, %d%%)\n",
			group.Label, group.Completed, len(group.Tasks), int(math.Round(group.Progress()*100)))

		for _, task := range group.Tasks {
			if task.IsCompleted && !showCompleted {
				continue
			}
			c.printTask(task, now)
		}
	}
	return nil
}

// printTask prints one line: checkbox, short id, title and due date.
func (c *ListCommand) printTask(task domain.Task, now time.Time) {
	mark := " "
	if task.IsCompleted {
		mark = "x"
	}

	line := fmt.Sprintf("  [%s] %s  %s", mark, c.app.shortID(task), task.Title)
	if due := c.app.formatDue(task); due != "" {
		line += "  due " + due
		if task.IsOverdue(now) {
			line += " (overdue)"
		}
	}
	c.app.printf("%s\n", line)
}
