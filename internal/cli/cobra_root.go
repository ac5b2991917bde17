package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"todo-list/internal/config"
)

// Opener builds the application for a loaded configuration. It is called
// once per invocation, after flags have been applied.
type Opener func(ctx context.Context, cfg *config.Config) (*App, error)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd    *cobra.Command
	loader *config.Loader
	open   Opener
	config *config.Config
	app    *App
	errors *ErrorHandler
}

// NewRootCommand creates the root cobra command with global flags
func NewRootCommand(loader *config.Loader, open Opener, errorHandler *ErrorHandler) *RootCommand {
	if errorHandler == nil {
		errorHandler = NewErrorHandler(nil)
	}
	root := &RootCommand{
		loader: loader,
		open:   open,
		errors: errorHandler,
	}

	root.cmd = &cobra.Command{
		Use:   "todo",
		Short: "A command-line to-do list",
		Long: `todo keeps a single-user to-do list in a local SQLite file.

Tasks have a title, an optional due date and a priority. The list is shown
grouped by priority (high, medium, low) and ordered by due date, with tasks
that have no due date last.

EXAMPLES:
  todo add "Buy milk" --priority 1 --due tomorrow
  todo list                                # Open tasks by priority
  todo list --all                          # Include completed tasks
  todo toggle 1a2b                         # Complete or reopen by id prefix
  todo reschedule 1a2b 2w                  # Due in two weeks
  todo complete --priority 2               # Complete every high priority task
  todo stats --metrics                     # Totals and process metrics

DUE DATES:
  YYYY-MM-DD, today, tomorrow, none, or a shorthand: 3d, 2w, 1mo, 1y

CONFIGURATION:
  Priority order: command-line flags > environment variables > .env file > defaults

    TODO_DB_DIR                            Database directory (default: ~/.todo)
    TODO_DB_FILENAME                       Database filename (default: todo.db)
    TODO_DB_QUERY_TIMEOUT                  Query timeout (default: 10s)
    TODO_DB_WRITE_TIMEOUT                  Write timeout (default: 5s)
    TODO_VALIDATION_TITLE_MIN              Min title length (default: 1)
    TODO_VALIDATION_TITLE_MAX              Max title length (default: 255)
    TODO_DISPLAY_DATE_FORMAT               Due date format (default: 2006-01-02)
    TODO_DISPLAY_SHOW_COMPLETED            List completed tasks (default: false)
    TODO_APP_TIMEOUT                       Command timeout (default: 60s)
    TODO_LOG_LEVEL                         Log level (default: warn)
    TODO_LOG_FORMAT                        text or json (default: text)
    TODO_ENV                               development, testing or production`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return root.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			root.Close()
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()
	return root
}

// Execute runs the root command with os.Args
func (r *RootCommand) Execute(ctx context.Context) error {
	defer r.Close()
	return r.cmd.ExecuteContext(ctx)
}

// Command exposes the cobra command, for tests and completion generation
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// Close releases the application opened for this invocation
func (r *RootCommand) Close() {
	if r.app != nil {
		r.app.Close()
		r.app = nil
	}
}

func (r *RootCommand) setup(ctx context.Context) error {
	if r.app != nil {
		return nil
	}
	cfg, err := r.loader.LoadWithOverrides(r.getOverridesFromFlags())
	if err != nil {
		return err
	}
	r.config = cfg

	app, err := r.open(ctx, cfg)
	if err != nil {
		return err
	}
	r.app = app
	return nil
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	flags.String("db-dir", "", "Database directory (overrides TODO_DB_DIR)")
	flags.String("db-filename", "", "Database filename (overrides TODO_DB_FILENAME)")
	flags.Duration("db-query-timeout", 0, "Database query timeout (overrides TODO_DB_QUERY_TIMEOUT)")
	flags.Duration("db-write-timeout", 0, "Database write timeout (overrides TODO_DB_WRITE_TIMEOUT)")

	flags.String("date-format", "", "Due date display format (overrides TODO_DISPLAY_DATE_FORMAT)")

	flags.Duration("app-timeout", 0, "Command timeout (overrides TODO_APP_TIMEOUT)")
	flags.BoolP("verbose", "v", false, "Log at debug level (overrides TODO_APP_VERBOSE)")
	flags.String("log-level", "", "Log level (overrides TODO_LOG_LEVEL)")
	flags.String("log-format", "", "Log format, text or json (overrides TODO_LOG_FORMAT)")
}

// getOverridesFromFlags collects the flags the user actually set
func (r *RootCommand) getOverridesFromFlags() *config.ConfigOverrides {
	flags := r.cmd.PersistentFlags()
	o := &config.ConfigOverrides{}

	if flags.Changed("db-dir") {
		v, _ := flags.GetString("db-dir")
		o.DBDir = &v
	}
	if flags.Changed("db-filename") {
		v, _ := flags.GetString("db-filename")
		o.DBFilename = &v
	}
	if flags.Changed("db-query-timeout") {
		v, _ := flags.GetDuration("db-query-timeout")
		o.DBQueryTimeout = &v
	}
	if flags.Changed("db-write-timeout") {
		v, _ := flags.GetDuration("db-write-timeout")
		o.DBWriteTimeout = &v
	}
	if flags.Changed("date-format") {
		v, _ := flags.GetString("date-format")
		o.DateFormat = &v
	}
	if flags.Changed("app-timeout") {
		v, _ := flags.GetDuration("app-timeout")
		o.Timeout = &v
	}
	if flags.Changed("verbose") {
		v, _ := flags.GetBool("verbose")
		o.Verbose = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		o.LogLevel = &v
	}
	if flags.Changed("log-format") {
		v, _ := flags.GetString("log-format")
		o.LogFormat = &v
	}
	return o
}

// run wraps a command handler with the configured timeout and error mapping
func (r *RootCommand) run(operation string, handler func(*App) Command) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), r.getAppTimeout())
		defer cancel()

		app := r.app
		app.SetOutput(cmd.OutOrStdout())
		return r.errors.Handle(operation, handler(app).Execute(ctx, args))
	}
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	var (
		addPriority      int16
		addDue           string
		listAll          bool
		completePriority int16
		statsMetrics     bool
	)

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: r.run("add task", func(app *App) Command {
			c := NewAddCommand(app)
			c.Priority, c.Due = addPriority, addDue
			return c
		}),
	}
	addCmd.Flags().Int16VarP(&addPriority, "priority", "p", 0, "Priority: 0 low, 1 medium, 2 or more high")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", "Due date (YYYY-MM-DD, today, tomorrow, 3d, 2w, 1mo)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks grouped by priority",
		Args:  cobra.NoArgs,
		RunE: r.run("list tasks", func(app *App) Command {
			c := NewListCommand(app)
			c.All = listAll
			return c
		}),
	}
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include completed tasks")

	renameCmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Change the title of a task",
		Args:  cobra.MinimumNArgs(2),
		RunE:  r.run("rename task", func(app *App) Command { return NewRenameCommand(app) }),
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Complete or reopen a task",
		Args:  cobra.ExactArgs(1),
		RunE:  r.run("toggle task", func(app *App) Command { return NewToggleCommand(app) }),
	}

	rescheduleCmd := &cobra.Command{
		Use:   "reschedule <id> <date|none>",
		Short: "Set or clear the due date of a task",
		Args:  cobra.ExactArgs(2),
		RunE:  r.run("reschedule task", func(app *App) Command { return NewRescheduleCommand(app) }),
	}

	priorityCmd := &cobra.Command{
		Use:   "priority <id> <n>",
		Short: "Set the priority of a task",
		Args:  cobra.ExactArgs(2),
		RunE:  r.run("set priority", func(app *App) Command { return NewPriorityCommand(app) }),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Long:  "Delete a task. This operation cannot be undone.",
		Args:  cobra.ExactArgs(1),
		RunE:  r.run("delete task", func(app *App) Command { return NewDeleteCommand(app) }),
	}

	completeCmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete every open task",
		Args:  cobra.NoArgs,
	}
	completeCmd.Flags().Int16VarP(&completePriority, "priority", "p", 0, "Only complete tasks with this priority")
	completeCmd.RunE = r.run("complete tasks", func(app *App) Command {
		c := NewCompleteCommand(app)
		if completeCmd.Flags().Changed("priority") {
			p := completePriority
			c.Priority = &p
		}
		return c
	})

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task totals",
		Args:  cobra.NoArgs,
		RunE: r.run("show stats", func(app *App) Command {
			c := NewStatsCommand(app)
			c.Metrics = statsMetrics
			return c
		}),
	}
	statsCmd.Flags().BoolVar(&statsMetrics, "metrics", false, "Also print process metrics")

	r.cmd.AddCommand(
		addCmd,
		listCmd,
		renameCmd,
		toggleCmd,
		rescheduleCmd,
		priorityCmd,
		deleteCmd,
		completeCmd,
		statsCmd,
	)
}

// getAppTimeout returns the configured application timeout
func (r *RootCommand) getAppTimeout() time.Duration {
	if r.config != nil && r.config.Application.Timeout > 0 {
		return r.config.Application.Timeout
	}
	return 60 * time.Second
}
