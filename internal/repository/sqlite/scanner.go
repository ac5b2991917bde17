package sqlite

import (
	"database/sql"
	"fmt"
)

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// taskColumns is the column list every task query selects, in scan order.
const taskColumns = `id, title, is_completed, created_date, due_date, priority`

// ScanTask scans a single task from a database row
func ScanTask(scanner Scanner) (*Task, error) {
	task := &Task{}
	var createdDate, dueDate sql.NullString

	err := scanner.Scan(
		&task.ID,
		&task.Title,
		&task.IsCompleted,
		&createdDate,
		&dueDate,
		&task.Priority,
	)
	if err != nil {
		return nil, err
	}

	if task.CreatedDate, err = ParseNullTimeFromDB(createdDate); err != nil {
		return nil, fmt.Errorf("parse created_date for %s: %w", task.ID, err)
	}
	if task.DueDate, err = ParseNullTimeFromDB(dueDate); err != nil {
		return nil, fmt.Errorf("parse due_date for %s: %w", task.ID, err)
	}

	return task, nil
}

// ScanTasks scans multiple tasks from database rows
func ScanTasks(rows Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		task, err := ScanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}
