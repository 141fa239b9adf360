// Package signal provides a renewable one-shot broadcast.
//
// A Signal hands out Watchers. SignalAndRearm wakes every Watcher handed out
// since the previous SignalAndRearm and starts a fresh generation, so later
// watchers wait for the next occurrence. Watchers carry no payload: after
// waking, callers re-query whatever state they care about.
//
// Implementation: each generation is a channel that SignalAndRearm closes.
// Closing wakes all receivers at once and keeps them woken, which gives the
// resolve-exactly-once behavior without tracking individual watchers.
// Dropping a Watcher before it fires needs no cleanup.
package signal

import (
	"context"
	"sync"
)

// Signal is safe for concurrent use. The zero value is ready to use.
type Signal struct {
	mu sync.Mutex
	ch chan struct{}
}

// New creates a Signal.
func New() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// generation returns the current channel, creating it on first use.
// Caller holds s.mu.
func (s *Signal) generation() chan struct{} {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// Watch returns a Watcher that fires on the next SignalAndRearm.
func (s *Signal) Watch() *Watcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Watcher{done: s.generation()}
}

// SignalAndRearm wakes all current watchers and rearms for the next
// occurrence.
func (s *Signal) SignalAndRearm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.generation())
	s.ch = make(chan struct{})
}

// Watcher waits for one occurrence of a Signal.
type Watcher struct {
	done <-chan struct{}
}

// Done returns a channel closed when the watched occurrence happens.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Fired reports whether the occurrence already happened, without blocking.
func (w *Watcher) Fired() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the occurrence or until ctx is done.
// Returns ctx.Err() in the latter case.
func (w *Watcher) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
