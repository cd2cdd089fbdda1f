package board

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Fetch when a newer fetch, a cancel or a local
// write replaced the request before its answer arrived and nothing is cached
// yet. The answer is dropped.
var ErrSuperseded = errors.New("fetch superseded")

type Fetcher[T any] func(ctx context.Context) (T, error)

// Query caches the result of one fetcher. Every write bumps a generation
// counter; an answer is stored only if the generation it started with is
// still current, so a cancelled fetch can never overwrite a newer value.
type Query[T any] struct {
	fetch Fetcher[T]
	clone func(T) T

	mu       sync.Mutex
	data     T
	loaded   bool
	err      error
	gen      uint64
	inflight context.CancelFunc
	subs     map[int]chan T
	nextID   int
	closed   bool
}

func NewQuery[T any](fetch Fetcher[T], clone func(T) T) *Query[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Query[T]{fetch: fetch, clone: clone, subs: make(map[int]chan T)}
}

// Get returns a copy of the cached value and whether one was ever loaded.
func (q *Query[T]) Get() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.clone(q.data), q.loaded
}

func (q *Query[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Fetch runs the fetcher and stores its answer. A fetch already in flight
// is cancelled first. A superseded fetch returns the cached value instead.
func (q *Query[T]) Fetch(ctx context.Context) (T, error) {
	q.mu.Lock()
	q.cancelLocked()
	fetchCtx, cancel := context.WithCancel(ctx)
	q.inflight = cancel
	gen := q.gen
	q.mu.Unlock()
	defer cancel()

	value, err := q.fetch(fetchCtx)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.gen != gen {
		if q.loaded {
			return q.clone(q.data), nil
		}
		var zero T
		return zero, ErrSuperseded
	}
	q.inflight = nil
	if err != nil {
		q.err = err
		var zero T
		return zero, err
	}
	q.data, q.loaded, q.err = value, true, nil
	q.publishLocked()
	return q.clone(value), nil
}

// Ensure returns the cached value, fetching only when nothing is loaded yet.
func (q *Query[T]) Ensure(ctx context.Context) (T, error) {
	if value, ok := q.Get(); ok {
		return value, nil
	}
	return q.Fetch(ctx)
}

// Cancel aborts the in-flight fetch and makes its answer stale.
func (q *Query[T]) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked()
}

func (q *Query[T]) cancelLocked() {
	q.gen++
	if q.inflight != nil {
		q.inflight()
		q.inflight = nil
	}
}

// Set replaces the cached value. Any fetch still in flight is dropped.
func (q *Query[T]) Set(value T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelLocked()
	q.data, q.loaded, q.err = q.clone(value), true, nil
	q.publishLocked()
}

// Update applies fn to the cached value under the query lock and reports
// whether it ran. Nothing happens before the first load. fn must not call
// back into the query.
func (q *Query[T]) Update(fn func(T) T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.loaded {
		return false
	}
	q.cancelLocked()
	q.data = fn(q.clone(q.data))
	q.publishLocked()
	return true
}

func (q *Query[T]) Subscribe() (<-chan T, func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch := make(chan T, 1)
	if q.closed {
		close(ch)
		return ch, func() {}
	}
	id := q.nextID
	q.nextID++
	q.subs[id] = ch
	if q.loaded {
		ch <- q.clone(q.data)
	}
	return ch, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if sub, ok := q.subs[id]; ok {
			delete(q.subs, id)
			close(sub)
		}
	}
}

func (q *Query[T]) publishLocked() {
	if q.closed {
		return
	}
	for _, ch := range q.subs {
		select {
		case <-ch:
		default:
		}
		ch <- q.clone(q.data)
	}
}

// Close cancels the in-flight fetch and releases subscribers.
func (q *Query[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.cancelLocked()
	q.closed = true
	for id, ch := range q.subs {
		delete(q.subs, id)
		close(ch)
	}
}
