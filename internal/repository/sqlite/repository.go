package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"todo-list/internal/errors"
	"todo-list/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// Repository defines the interface for database operations
type Repository interface {
	// Read operations
	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)
	SearchTasks(ctx context.Context, opts SearchOptions) ([]*Task, error)

	// Write operations; every batch is one transaction
	ApplyChanges(ctx context.Context, batch ChangeBatch) error

	// Utility
	Path() string
	Close() error
}

// Options tunes a repository. Zero timeouts disable the per-call deadline.
type Options struct {
	QueryTimeout time.Duration
	WriteTimeout time.Duration
	BusyTimeout  time.Duration
}

// SQLiteRepository implements the Repository interface
type SQLiteRepository struct {
	db   *sql.DB
	path string
	opts Options
}

// New creates a new SQLite repository instance
func New(dbPath string) (*SQLiteRepository, error) {
	return NewWithOptions(dbPath, Options{})
}

// NewWithOptions opens the database file, verifies it is usable and runs migrations.
func NewWithOptions(dbPath string, opts Options) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}

	// One connection: all writes are serialized, and ":memory:" databases
	// would otherwise be private to whichever pooled connection created them.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("open database", err)
	}

	if opts.BusyTimeout > 0 {
		pragma := fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds())
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.NewDatabaseError("set busy timeout", err)
		}
	}

	// Run migrations
	if err := migrations.RunMigrations(db); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	return &SQLiteRepository{db: db, path: dbPath, opts: opts}, nil
}

// Path returns the database location this repository was opened with
func (r *SQLiteRepository) Path() string {
	return r.path
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// GetTask retrieves a task by ID
func (r *SQLiteRepository) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	ctx, cancel := r.withTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return QuerySingle(ctx, r.db, query, ScanTask, "task", id.String(), id.String())
}

// SearchTasks retrieves the tasks matching opts in the requested order
func (r *SQLiteRepository) SearchTasks(ctx context.Context, opts SearchOptions) ([]*Task, error) {
	ctx, cancel := r.withTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	query, args, err := buildSearchQuery(opts)
	if err != nil {
		return nil, err
	}
	return QueryMultiple(ctx, r.db, query, ScanTasks, "tasks", args...)
}

// ApplyChanges writes inserts, updates and deletes atomically. An update or
// delete of a missing row aborts the whole batch with a not found error.
func (r *SQLiteRepository) ApplyChanges(ctx context.Context, batch ChangeBatch) error {
	if batch.IsEmpty() {
		return nil
	}

	ctx, cancel := r.withTimeout(ctx, r.opts.WriteTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return HandleDatabaseError("begin transaction", err)
	}

	if err := applyBatch(ctx, tx, batch); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return HandleDatabaseError("commit transaction", err)
	}
	return nil
}

func applyBatch(ctx context.Context, tx *sql.Tx, batch ChangeBatch) error {
	for _, task := range batch.Inserts {
		query := `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?)`
		err := Execute(ctx, tx, "insert task", query,
			task.ID.String(), task.Title, task.IsCompleted,
			FormatTimePtrForDB(task.CreatedDate), FormatTimePtrForDB(task.DueDate), task.Priority)
		if err != nil {
			return err
		}
	}

	for _, task := range batch.Updates {
		query := `
	UPDATE tasks
	SET title = ?, is_completed = ?, created_date = ?, due_date = ?, priority = ?
	WHERE id = ?`
		err := ExecuteWithRowsAffected(ctx, tx, query, "task", task.ID.String(),
			task.Title, task.IsCompleted,
			FormatTimePtrForDB(task.CreatedDate), FormatTimePtrForDB(task.DueDate), task.Priority,
			task.ID.String())
		if err != nil {
			return err
		}
	}

	for _, id := range batch.Deletes {
		query := `DELETE FROM tasks WHERE id = ?`
		if err := ExecuteWithRowsAffected(ctx, tx, query, "task", id.String(), id.String()); err != nil {
			return err
		}
	}

	return nil
}

var sortableColumns = map[string]bool{
	"id":           true,
	"title":        true,
	"is_completed": true,
	"created_date": true,
	"due_date":     true,
	"priority":     true,
}

var nullableColumns = map[string]bool{
	"created_date": true,
	"due_date":     true,
}

// buildSearchQuery compiles opts into SQL. Nullable columns sort NULLs last
// in either direction and rows are always tie-broken by id.
func buildSearchQuery(opts SearchOptions) (string, []interface{}, error) {
	var conditions []string
	var args []interface{}

	if len(opts.IDs) > 0 {
		placeholders := make([]string, len(opts.IDs))
		for i, id := range opts.IDs {
			placeholders[i] = "?"
			args = append(args, id.String())
		}
		conditions = append(conditions, "id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if opts.Completed != nil {
		conditions = append(conditions, "is_completed = ?")
		args = append(args, *opts.Completed)
	}
	if opts.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *opts.Priority)
	}
	if opts.MinPriority != nil {
		conditions = append(conditions, "priority >= ?")
		args = append(args, *opts.MinPriority)
	}
	if opts.TitleContains != nil && *opts.TitleContains != "" {
		conditions = append(conditions, `title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(*opts.TitleContains)+"%")
	}
	if opts.HasDueDate != nil {
		if *opts.HasDueDate {
			conditions = append(conditions, "due_date IS NOT NULL")
		} else {
			conditions = append(conditions, "due_date IS NULL")
		}
	}
	if opts.DueBefore != nil {
		conditions = append(conditions, "(due_date IS NOT NULL AND due_date < ?)")
		args = append(args, FormatTimePtrForDB(opts.DueBefore))
	}
	if opts.DueAfter != nil {
		conditions = append(conditions, "(due_date IS NOT NULL AND due_date >= ?)")
		args = append(args, FormatTimePtrForDB(opts.DueAfter))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var order []string
	for _, o := range opts.OrderBy {
		if !sortableColumns[o.Column] {
			return "", nil, errors.NewInvalidInputError("order by", o.Column, "unknown column")
		}
		dir := "ASC"
		if o.Descending {
			dir = "DESC"
		}
		if nullableColumns[o.Column] {
			order = append(order, fmt.Sprintf("(%s IS NULL) ASC", o.Column))
		}
		order = append(order, o.Column+" "+dir)
	}
	order = append(order, "id ASC")
	query += " ORDER BY " + strings.Join(order, ", ")

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	return query, args, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *SQLiteRepository) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
