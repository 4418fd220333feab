// Package event provides a broadcast notification safe to signal from
// interrupt context.
package event

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Infinite waits without a timeout.
const Infinite time.Duration = -1

// ErrTimeout is returned when Wait expires before a Signal.
var ErrTimeout = errors.New("event wait timeout")

// Event wakes every goroutine waiting at the time of Signal.
// Signals are not remembered: a waiter that starts listening after a
// Signal only observes later ones.
//
// To avoid missing a Signal between checking a condition and parking,
// call Listen first, then check, then wait on the returned channel.
//
// The zero value is ready to use.
type Event struct {
	ch      atomic.Pointer[chan struct{}]
	signals atomic.Uint64
}

// New creates an unsignaled Event.
func New() *Event {
	e := &Event{}
	e.Init()
	return e
}

// Init resets e to a fresh unsignaled state. Must not race with waiters.
func (e *Event) Init() {
	ch := make(chan struct{})
	e.ch.Store(&ch)
	e.signals.Store(0)
}

func (e *Event) current() chan struct{} {
	for {
		if p := e.ch.Load(); p != nil {
			return *p
		}
		ch := make(chan struct{})
		if e.ch.CompareAndSwap(nil, &ch) {
			return ch
		}
	}
}

// Listen returns a channel closed by the next Signal.
func (e *Event) Listen() <-chan struct{} {
	return e.current()
}

// Signal wakes all current waiters. It never blocks and may be called
// from interrupt context.
func (e *Event) Signal() {
	ch := make(chan struct{})
	if old := e.ch.Swap(&ch); old != nil {
		close(*old)
	}
	e.signals.Add(1)
}

// Signals returns how many times Signal was called since Init.
func (e *Event) Signals() uint64 {
	return e.signals.Load()
}

// Wait blocks until the next Signal or until timeout elapses.
// Use Infinite to wait forever.
func (e *Event) Wait(timeout time.Duration) error {
	ch := e.Listen()
	if timeout < 0 {
		<-ch
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-timer.C:
		return ErrTimeout
	}
}

// WaitContext blocks until the next Signal or until ctx is done.
func (e *Event) WaitContext(ctx context.Context) error {
	select {
	case <-e.Listen():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
