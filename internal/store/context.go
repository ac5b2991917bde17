package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"todo-list/internal/domain"
	"todo-list/internal/errors"
	"todo-list/internal/metrics"
	"todo-list/internal/repository/sqlite"
)

type request struct {
	ctx  context.Context
	fn   func(*Tx) error
	done chan error
}

type listenerEntry struct {
	id int
	fn Listener
}

// Context is a confined view of the task graph. A single goroutine owns its
// pending changes; every read and write goes through Perform.
//
// The main context reads and saves to the backing file. A background context
// reads through its parent and saving it merges into the parent.
type Context struct {
	name    string
	src     source
	repo    sqlite.Repository // main context only
	parent  *Context          // background contexts only
	mapper  *domain.Mapper
	pending *pendingSet

	requests  chan request
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	onClose   func()

	mu        sync.Mutex
	listeners []listenerEntry
	nextID    int

	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

func newContext(name string, src source, repo sqlite.Repository, parent *Context, logger logrus.FieldLogger, m *metrics.Metrics) *Context {
	c := &Context{
		name:     name,
		src:      src,
		repo:     repo,
		parent:   parent,
		mapper:   domain.NewMapper(),
		pending:  newPendingSet(),
		requests: make(chan request),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		logger:   logger.WithField("context", name),
		metrics:  m,
	}
	go c.run()
	return c
}

// Name returns "main" or "background".
func (c *Context) Name() string {
	return c.name
}

// IsBackground reports whether saves merge into a parent context.
func (c *Context) IsBackground() bool {
	return c.parent != nil
}

func (c *Context) run() {
	defer close(c.stopped)
	for {
		select {
		case req := <-c.requests:
			req.done <- c.exec(req)
		case <-c.quit:
			return
		}
	}
}

// exec runs one request. A panic in fn discards whatever fn staged before
// it panicked.
func (c *Context) exec(req request) (err error) {
	tx := &Tx{c: c, ctx: req.ctx}
	sp := tx.Savepoint()
	defer func() {
		if r := recover(); r != nil {
			tx.RollbackTo(sp)
			c.logger.WithField("panic", r).Error("Recovered panic in perform")
			err = fmt.Errorf("store: panic in perform: %v", r)
		}
	}()
	return req.fn(tx)
}

// Perform runs fn on the goroutine that owns the context and waits for it.
// The Tx is only valid inside fn. fn must not call Perform on the same
// context. ctx is handed to the backing file for its reads and writes.
//
// If ctx is done before fn finishes, Perform returns ctx.Err() at once. fn
// still runs to completion on the owning goroutine, so anything it captures
// must not be read after an error.
func (c *Context) Perform(ctx context.Context, fn func(*Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := request{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case c.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.quit:
		return errors.NewStoreClosedError("perform")
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddListener registers l for every notification this context emits and
// returns a function that removes it.
func (c *Context) AddListener(l Listener) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: l})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, e := range c.listeners {
			if e.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Context) notify(n Notification) {
	c.mu.Lock()
	listeners := make([]listenerEntry, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	c.metrics.Notifications.Inc()
	c.logger.WithFields(logrus.Fields{
		"inserted": len(n.Inserted),
		"updated":  len(n.Updated),
		"deleted":  len(n.Deleted),
	}).Debug("Objects changed")

	for _, l := range listeners {
		l.fn(n)
	}
}

// Close stops the owning goroutine. Pending changes are discarded. Calls to
// Perform after Close return a store closed error.
func (c *Context) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		<-c.stopped
		if c.onClose != nil {
			c.onClose()
		}
	})
}
