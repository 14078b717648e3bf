package scheduler

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"sync"
	"time"
	"warden/pkg/log"
)

// Callback performs a scheduled reversal. Its error is logged and never retried.
type Callback func(ctx context.Context) error

type Option func(*Scheduler)

// WithPendingObserver registers fn to be called with the number of pending callbacks whenever it changes.
func WithPendingObserver(fn func(pending int)) Option {
	return func(s *Scheduler) {
		s.observe = fn
	}
}

type entry struct {
	token  string
	fireAt time.Time
	timer  *time.Timer
}

// Scheduler holds at most one pending callback per key. Scheduling, cancelling and firing for the same
// key are mutually exclusive.
type Scheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	locks   *xsync.MapOf[string, *sync.Mutex]
	mu      sync.Mutex
	idle    *sync.Cond
	entries map[string]*entry
	running int
	closed  bool
	observe func(pending int)
}

func New(ctx context.Context, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)

	s := &Scheduler{
		ctx:     ctx,
		cancel:  cancel,
		locks:   xsync.NewMapOf[string, *sync.Mutex](),
		entries: make(map[string]*entry),
	}
	s.idle = sync.NewCond(&s.mu)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Scheduler) lock(key string) func() {
	m, _ := s.locks.LoadOrCompute(key, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	m.Lock()
	return m.Unlock
}

// Schedule registers fn to run at fireAt, replacing any callback pending for key. A fireAt in the past
// runs fn right away.
func (s *Scheduler) Schedule(key string, fireAt time.Time, fn Callback) {
	unlock := s.lock(key)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		log.Logger().Warningf(nil, "scheduler closed, dropping %s", key)
		return
	}

	if prior, ok := s.entries[key]; ok {
		prior.timer.Stop()
	}

	token := uuid.NewString()
	e := &entry{token: token, fireAt: fireAt}
	s.entries[key] = e
	e.timer = time.AfterFunc(time.Until(fireAt), func() {
		s.fire(key, token, fn)
	})

	s.changed()
}

// Cancel removes the callback pending for key without running it. If the callback is already running,
// Cancel waits for it to finish and reports false.
func (s *Scheduler) Cancel(key string) bool {
	unlock := s.lock(key)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}

	e.timer.Stop()
	delete(s.entries, key)
	s.changed()
	return true
}

// FireAt reports when the callback pending for key is due.
func (s *Scheduler) FireAt(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.fireAt, true
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Wait blocks until no callback is pending or running.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.entries) > 0 || s.running > 0 {
		s.idle.Wait()
	}
}

// Close drops every pending callback and waits for running ones. Callbacks see their context cancelled.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for key, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, key)
	}
	s.changed()
	s.mu.Unlock()

	s.cancel()

	s.mu.Lock()
	for s.running > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()
}

func (s *Scheduler) fire(key, token string, fn Callback) {
	unlock := s.lock(key)
	defer unlock()

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.token != token {
		// cancelled or superseded after the timer went off
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	s.running++
	s.changed()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running--
		s.idle.Broadcast()
		s.mu.Unlock()
	}()

	if err := s.run(fn); err != nil {
		log.Logger().Errorf(nil, "error running scheduled callback for %s, %s", key, err)
	}
}

func (s *Scheduler) run(fn Callback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic, %v", r)
		}
	}()

	return fn(s.ctx)
}

// changed must be called with mu held.
func (s *Scheduler) changed() {
	s.idle.Broadcast()
	if s.observe != nil {
		s.observe(len(s.entries))
	}
}
