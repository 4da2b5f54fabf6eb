package gosequence

import (
	"sync"

	"github.com/sasha-s/go-deadlock"
)

// broadcaster fans values out from a single writer to any number of
// subscribers. Each subscriber owns an ordered, unbounded queue, so a slow
// consumer never blocks the writer or its siblings. Subscribers attached
// after a value was published do not receive it.
type broadcaster[T any] struct {
	mu     deadlock.Mutex
	subs   map[int]*subscriber[T]
	nextID int
	closed bool
}

func newBroadcaster[T any]() *broadcaster[T] {
	return &broadcaster[T]{subs: make(map[int]*subscriber[T])}
}

// Subscribe registers a new consumer and returns its channel along with a
// cancel function. The channel closes once every value published before
// Close has been delivered, or immediately after cancel. Subscribing to a
// closed broadcaster yields an already-closed channel.
func (b *broadcaster[T]) Subscribe() (<-chan T, func()) {
	sub := &subscriber[T]{
		out:  make(chan T),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.out)
		return sub.out, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	go sub.pump()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.stop)
		}
		b.mu.Unlock()
	}
	return sub.out, cancel
}

// Publish delivers v to every current subscriber in subscription order.
// Publishing on a closed broadcaster is a no-op.
func (b *broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subs := make([]*subscriber[T], 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.push(v)
	}
}

// Close stops accepting values. Each subscriber still receives everything
// published before the close, then its channel closes. Close is idempotent.
func (b *broadcaster[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*subscriber[T], 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = nil
	b.mu.Unlock()

	for _, sub := range subs {
		sub.finish()
	}
}

// subscriber buffers published values until its consumer reads them. The
// pump goroutine is the only writer of out and the only reader of pending.
type subscriber[T any] struct {
	mu      sync.Mutex
	pending []T
	done    bool

	out  chan T
	wake chan struct{}
	stop chan struct{}
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, v)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) finish() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			done := s.done
			s.mu.Unlock()
			if done {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}
		v := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.out <- v:
		case <-s.stop:
			return
		}
	}
}
