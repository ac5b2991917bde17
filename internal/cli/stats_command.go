package cli

import (
	"context"

	"github.com/prometheus/common/expfmt"

	"todo-list/internal/errors"
)

// StatsCommand handles the stats command
type StatsCommand struct {
	app     *App
	Metrics bool
}

// NewStatsCommand creates a new stats command handler
func NewStatsCommand(app *App) *StatsCommand {
	return &StatsCommand{app: app}
}

// Execute prints task totals and per-priority progress. With Metrics set it
// also dumps the process metrics in the Prometheus text format.
func (c *StatsCommand) Execute(ctx context.Context, args []string) error {
	tasks := c.app.vm.Tasks()
	now := timeNow()

	var completed, overdue, undated int
	for _, task := range tasks {
		if task.IsCompleted {
			completed++
		}
		if task.IsOverdue(now) {
			overdue++
		}
		if !task.HasDueDate() {
			undated++
		}
	}

	c.app.printf("Tasks:       %d\n", len(tasks))
	c.app.printf("Open:        %d\n", len(tasks)-completed)
	c.app.printf("Completed:   %d\n", completed)
	c.app.printf("Overdue:     %d\n", overdue)
	c.app.printf("No due date: %d\n", undated)

	if groups := c.app.vm.Groups(); len(groups) > 0 {
		c.app.printf("\n")
		for _, group := range groups {
			c.app.printf("%-16s %d/%d done\n", group.Label, group.Completed, len(group.Tasks))
		}
	}

	if c.Metrics {
		return c.writeMetrics()
	}
	return nil
}

func (c *StatsCommand) writeMetrics() error {
	if c.app.gatherer == nil {
		return errors.NewInvalidInputError("metrics", true, "metrics are not enabled")
	}
	families, err := c.app.gatherer.Gather()
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeInvalidInput, "failed to gather metrics")
	}

	c.app.printf("\n")
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(c.app.out, family); err != nil {
			return errors.WrapError(err, errors.ErrorTypeInvalidInput, "failed to write metrics")
		}
	}
	return nil
}
