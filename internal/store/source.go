package store

import (
	"context"

	"github.com/google/uuid"

	"todo-list/internal/domain"
	"todo-list/internal/repository/sqlite"
)

// source is what a context reads through when an object has no pending
// change: the backing file for the main context, the parent for children.
type source interface {
	fetch(ctx context.Context, q domain.Query) ([]domain.Task, error)
	get(ctx context.Context, id uuid.UUID) (domain.Task, error)
}

type repoSource struct {
	repo   sqlite.Repository
	mapper *domain.Mapper
}

func (s *repoSource) fetch(ctx context.Context, q domain.Query) ([]domain.Task, error) {
	rows, err := s.repo.SearchTasks(ctx, s.mapper.Query.ToDatabase(q))
	if err != nil {
		return nil, err
	}
	return s.mapper.Task.FromDatabaseSlice(rows), nil
}

func (s *repoSource) get(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	row, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	return s.mapper.Task.FromDatabase(row), nil
}

type parentSource struct {
	parent *Context
}

func (s *parentSource) fetch(ctx context.Context, q domain.Query) ([]domain.Task, error) {
	var tasks []domain.Task
	err := s.parent.Perform(ctx, func(tx *Tx) error {
		var err error
		tasks, err = tx.Fetch(q)
		return err
	})
	return tasks, err
}

func (s *parentSource) get(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	var task domain.Task
	err := s.parent.Perform(ctx, func(tx *Tx) error {
		var err error
		task, err = tx.Get(id)
		return err
	})
	return task, err
}
