package gosequence

import (
	"context"
	"fmt"

	"github.com/sasha-s/go-deadlock"
)

// Inbox is a multicast mailbox for advisory control messages. Every
// listener observes every message: latched-flag pollers, blocking waiters,
// raw subscribers, and forwarded downstream inboxes all see the same
// stream.
//
// Messages never preempt a running action; the action must poll or await
// the inbox itself to react. The owning sequence creates the inbox at
// construction and closes it when the run ends, after which further sends
// fail with ErrInboxClosed.
type Inbox struct {
	mu     deadlock.Mutex
	skip   bool
	stop   bool
	closed bool

	skipWaiters []chan struct{}
	stopWaiters []chan struct{}

	bus  *broadcaster[Message]
	done chan struct{}
}

// NewInbox creates an open, empty inbox.
func NewInbox() *Inbox {
	return &Inbox{
		bus:  newBroadcaster[Message](),
		done: make(chan struct{}),
	}
}

// Leave delivers a message to every listener. Skip and Stop additionally
// latch their flag and release any blocked waiters.
func (in *Inbox) Leave(msg Message) error {
	var waiters []chan struct{}

	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return fmt.Errorf("leave %q: %w", msg, ErrInboxClosed)
	}
	switch msg {
	case MessageSkip:
		in.skip = true
		waiters = in.skipWaiters
		in.skipWaiters = nil
	case MessageStop:
		in.stop = true
		waiters = in.stopWaiters
		in.stopWaiters = nil
	}
	in.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
	in.bus.Publish(msg)
	return nil
}

// CheckSkip reports whether a Skip has arrived since the last resetting
// check. With reset, the latch is cleared.
func (in *Inbox) CheckSkip(reset bool) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	v := in.skip
	if reset {
		in.skip = false
	}
	return v
}

// CheckStop reports whether a Stop has arrived since the last resetting
// check. With reset, the latch is cleared.
func (in *Inbox) CheckStop(reset bool) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	v := in.stop
	if reset {
		in.stop = false
	}
	return v
}

// WaitForSkip blocks until the next Skip message arrives. It returns
// ErrInboxClosed if the inbox closes first, or the context's error if it is
// done first. A Skip latched before the call does not satisfy the wait.
func (in *Inbox) WaitForSkip(ctx context.Context) error {
	return in.wait(ctx, MessageSkip)
}

// WaitForStop blocks until the next Stop message arrives, with the same
// termination rules as WaitForSkip.
func (in *Inbox) WaitForStop(ctx context.Context) error {
	return in.wait(ctx, MessageStop)
}

func (in *Inbox) wait(ctx context.Context, msg Message) error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return fmt.Errorf("wait for %q: %w", msg, ErrInboxClosed)
	}
	w := make(chan struct{})
	if msg == MessageSkip {
		in.skipWaiters = append(in.skipWaiters, w)
	} else {
		in.stopWaiters = append(in.stopWaiters, w)
	}
	in.mu.Unlock()

	select {
	case <-w:
		return nil
	case <-in.done:
		return fmt.Errorf("wait for %q: %w", msg, ErrInboxClosed)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers a raw listener receiving every subsequent message.
// The returned cancel function detaches it; the channel closes when the
// inbox closes.
func (in *Inbox) Subscribe() (<-chan Message, func()) {
	return in.bus.Subscribe()
}

// Forward relays every message subsequently received on from into this
// inbox, fanning an upstream sequence's signals into this one. Relaying
// stops when either inbox closes.
func (in *Inbox) Forward(from *Inbox) {
	ch, cancel := from.Subscribe()
	go func() {
		defer cancel()
		for msg := range ch {
			if err := in.Leave(msg); err != nil {
				return
			}
		}
	}()
}

// Close seals the inbox. Blocked waiters fail with ErrInboxClosed,
// subscriber channels close, and further sends are rejected. Close is
// idempotent; only the owning sequence should call it.
func (in *Inbox) Close() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.closed = true
	in.skipWaiters = nil
	in.stopWaiters = nil
	in.mu.Unlock()

	close(in.done)
	in.bus.Close()
}
