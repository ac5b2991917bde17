package domain

import (
	"todo-list/internal/repository/sqlite"
)

// TaskMapper handles conversion between domain and database Task models.
type TaskMapper struct{}

// NewTaskMapper creates a new TaskMapper instance.
func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

// ToDatabase converts a domain Task to a database Task.
func (m *TaskMapper) ToDatabase(domainTask Task) *sqlite.Task {
	t := domainTask.Normalize()
	return &sqlite.Task{
		ID:          t.ID,
		Title:       t.Title,
		IsCompleted: t.IsCompleted,
		CreatedDate: t.CreatedDate,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
	}
}

// FromDatabase converts a database Task to a domain Task.
func (m *TaskMapper) FromDatabase(dbTask *sqlite.Task) Task {
	return Task{
		ID:          dbTask.ID,
		Title:       dbTask.Title,
		IsCompleted: dbTask.IsCompleted,
		CreatedDate: dbTask.CreatedDate,
		DueDate:     dbTask.DueDate,
		Priority:    dbTask.Priority,
	}.Normalize()
}

// ToDatabaseSlice converts a slice of domain Tasks to database Tasks.
func (m *TaskMapper) ToDatabaseSlice(domainTasks []Task) []*sqlite.Task {
	dbTasks := make([]*sqlite.Task, len(domainTasks))
	for i, task := range domainTasks {
		dbTasks[i] = m.ToDatabase(task)
	}
	return dbTasks
}

// FromDatabaseSlice converts a slice of database Tasks to domain Tasks.
func (m *TaskMapper) FromDatabaseSlice(dbTasks []*sqlite.Task) []Task {
	domainTasks := make([]Task, len(dbTasks))
	for i, task := range dbTasks {
		domainTasks[i] = m.FromDatabase(task)
	}
	return domainTasks
}

// QueryMapper translates a domain Query into repository search options.
type QueryMapper struct{}

// NewQueryMapper creates a new QueryMapper instance.
func NewQueryMapper() *QueryMapper {
	return &QueryMapper{}
}

// ToDatabase converts a domain Query to database SearchOptions.
func (m *QueryMapper) ToDatabase(q Query) sqlite.SearchOptions {
	p := q.Predicate
	opts := sqlite.SearchOptions{
		IDs:         p.IDs,
		Completed:   p.Completed,
		Priority:    p.Priority,
		MinPriority: p.MinPriority,
		DueBefore:   p.DueBefore,
		DueAfter:    p.DueAfter,
		HasDueDate:  p.HasDueDate,
		Limit:       q.Limit,
	}
	if p.TitleContains != "" {
		title := p.TitleContains
		opts.TitleContains = &title
	}
	for _, s := range q.Sort {
		opts.OrderBy = append(opts.OrderBy, sqlite.OrderBy{
			Column:     string(s.Key),
			Descending: !s.Ascending,
		})
	}
	return opts
}

// Mapper provides a unified interface for all mapping operations.
type Mapper struct {
	Task  *TaskMapper
	Query *QueryMapper
}

// NewMapper creates a new Mapper instance with all sub-mappers.
func NewMapper() *Mapper {
	return &Mapper{
		Task:  NewTaskMapper(),
		Query: NewQueryMapper(),
	}
}
