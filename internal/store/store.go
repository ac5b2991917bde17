package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"todo-list/internal/domain"
	"todo-list/internal/errors"
	"todo-list/internal/logging"
	"todo-list/internal/metrics"
	"todo-list/internal/repository/sqlite"
)

// Options configures a Store. Nil fields get working defaults.
type Options struct {
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

// Store owns the backing file and the main context that confines access
// to it.
type Store struct {
	repo    sqlite.Repository
	main    *Context
	logger  logrus.FieldLogger
	metrics *metrics.Metrics

	mu       sync.Mutex
	children map[*Context]struct{}
	closed   bool
}

// Open loads the store from repo. A repository that cannot be read is a load
// failure; the caller owns what happens next.
func Open(ctx context.Context, repo sqlite.Repository, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}

	if _, err := repo.SearchTasks(ctx, sqlite.SearchOptions{Limit: 1}); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeDatabase, "failed to load task store")
	}

	s := &Store{
		repo:     repo,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		children: make(map[*Context]struct{}),
	}
	s.main = newContext(metrics.ContextMain, &repoSource{repo: repo, mapper: domain.NewMapper()}, repo, nil, opts.Logger, opts.Metrics)

	opts.Logger.WithField("path", repo.Path()).Info("Task store loaded")
	return s, nil
}

// Context returns the main context.
func (s *Store) Context() *Context {
	return s.main
}

// Save writes the main context's pending changes, if any.
func (s *Store) Save(ctx context.Context) error {
	return s.main.Perform(ctx, func(tx *Tx) error {
		return tx.Save()
	})
}

// NewBackgroundContext returns a context parented to the main one. Saving it
// merges into the main context, which still has to be saved to reach the
// file; Tx.SaveThrough does both at once. Close it when done.
func (s *Store) NewBackgroundContext() (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.NewStoreClosedError("new background context")
	}

	child := newContext(metrics.ContextBackground, &parentSource{parent: s.main}, nil, s.main, s.logger, s.metrics)
	child.onClose = func() {
		s.mu.Lock()
		delete(s.children, child)
		s.mu.Unlock()
	}
	s.children[child] = struct{}{}
	return child, nil
}

// Close stops every context and closes the backing file. Unsaved changes are
// lost.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	children := make([]*Context, 0, len(s.children))
	for c := range s.children {
		children = append(children, c)
	}
	s.mu.Unlock()

	for _, c := range children {
		c.Close()
	}
	s.main.Close()
	return s.repo.Close()
}
