package observer

import (
	"sync"

	"github.com/sirupsen/logrus"

	"todo-list/internal/logging"
	"todo-list/internal/store"
)

// DefaultBuffer is the channel depth subscribers usually ask for.
const DefaultBuffer = 64

// Options configures an Observer.
type Options struct {
	Logger logrus.FieldLogger
}

// Observer listens to one store context and republishes every notification
// as a ChangeEvent to its subscribers, in the order the saves happened.
//
// Each subscription has its own unbounded queue, so a subscriber that stops
// reading never holds up the store or the other subscribers.
type Observer struct {
	detach func()
	logger logrus.FieldLogger

	closeOnce sync.Once

	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// Subscription delivers events on C until it is unsubscribed or the observer
// closes, at which point C is closed. Only saves that finish after Subscribe
// returns are delivered.
type Subscription struct {
	C <-chan ChangeEvent

	c        chan ChangeEvent
	wake     chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	doneOnce sync.Once
	obs      *Observer

	mu    sync.Mutex
	queue []ChangeEvent
}

// New subscribes to c.
func New(c *store.Context, opts Options) *Observer {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	o := &Observer{logger: opts.Logger}
	o.detach = c.AddListener(o.handle)
	return o
}

// handle runs on the store context's goroutine and never blocks on a
// subscriber.
func (o *Observer) handle(n store.Notification) {
	if n.IsEmpty() {
		return
	}
	evt := newChangeEvent(n)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	o.logger.WithFields(logrus.Fields{
		"inserted":    evt.Inserted.Len(),
		"updated":     evt.Updated.Len(),
		"deleted":     evt.Deleted.Len(),
		"subscribers": len(o.subs),
	}).Debug("Dispatching change event")

	for _, s := range o.subs {
		if backlog := s.push(evt); backlog > 0 && backlog%DefaultBuffer == 0 {
			o.logger.WithField("backlog", backlog).Warn("Subscriber is falling behind")
		}
	}
}

// Subscribe registers a new subscriber whose channel holds up to buffer
// undelivered events; anything beyond that waits in the subscriber's queue.
// Subscribing to a closed observer returns a subscription whose channel is
// already closed.
func (o *Observer) Subscribe(buffer int) *Subscription {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan ChangeEvent, buffer)
	s := &Subscription{
		C:       ch,
		c:       ch,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		obs:     o,
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		s.doneOnce.Do(func() { close(s.done) })
		close(s.c)
		close(s.stopped)
		return s
	}
	o.subs = append(o.subs, s)
	go s.pump()
	return s
}

// push queues evt and returns the queue length.
func (s *Subscription) push(evt ChangeEvent) int {
	s.mu.Lock()
	s.queue = append(s.queue, evt)
	n := len(s.queue)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return n
}

func (s *Subscription) next() (ChangeEvent, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			evt := s.queue[0]
			s.queue[0] = ChangeEvent{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return evt, true
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-s.done:
			return ChangeEvent{}, false
		}
	}
}

// pump owns s.c: it is the only sender and closes it on the way out.
func (s *Subscription) pump() {
	defer close(s.stopped)
	defer close(s.c)
	for {
		evt, ok := s.next()
		if !ok {
			return
		}
		select {
		case s.c <- evt:
		case <-s.done:
			return
		}
	}
}

// Unsubscribe stops delivery to s and closes its channel before returning.
// Events still queued are dropped. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.obs.unsubscribe(s)
}

func (o *Observer) unsubscribe(s *Subscription) {
	o.mu.Lock()
	for i, sub := range o.subs {
		if sub == s {
			o.subs = append(o.subs[:i], o.subs[i+1:]...)
			break
		}
	}
	o.mu.Unlock()

	s.doneOnce.Do(func() { close(s.done) })
	<-s.stopped
}

// Close detaches from the store context and closes every subscription.
// Events still queued are dropped.
func (o *Observer) Close() {
	o.closeOnce.Do(func() {
		o.detach()

		o.mu.Lock()
		subs := o.subs
		o.subs = nil
		o.closed = true
		o.mu.Unlock()

		for _, s := range subs {
			s.doneOnce.Do(func() { close(s.done) })
			<-s.stopped
		}
	})
}
