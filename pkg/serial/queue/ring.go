package queue

import (
	"runtime"
	"sync/atomic"
)

// Notify is called by a queue after a task-side transfer. It may be nil.
type Notify func()

func (n Notify) call() {
	if n != nil {
		n()
	}
}

// ring is a single-producer single-consumer byte ring over caller memory.
// rd is owned by the consumer and wr by the producer; count is the only
// field both sides touch and it publishes the slot write to the reader.
type ring struct {
	buf   []byte
	rd    int
	wr    int
	count atomic.Int32
}

func (r *ring) init(buf []byte) {
	r.buf, r.rd, r.wr = buf, 0, 0
	r.count.Store(0)
}

func (r *ring) size() int {
	return len(r.buf)
}

func (r *ring) used() int {
	return int(r.count.Load())
}

func (r *ring) put(b byte) bool {
	if int(r.count.Load()) >= len(r.buf) {
		return false
	}
	r.buf[r.wr] = b
	if r.wr++; r.wr == len(r.buf) {
		r.wr = 0
	}
	r.count.Add(1)
	return true
}

func (r *ring) get() (byte, bool) {
	if r.count.Load() == 0 {
		return 0, false
	}
	b := r.buf[r.rd]
	if r.rd++; r.rd == len(r.buf) {
		r.rd = 0
	}
	r.count.Add(-1)
	return b, true
}

// reset drops all content. Only valid while both sides are excluded.
func (r *ring) reset() int {
	n := int(r.count.Swap(0))
	r.rd, r.wr = 0, 0
	return n
}

// critical is a short busy-wait section shared by task and interrupt
// context. Holders must not block while inside it.
type critical struct {
	held atomic.Bool
}

func (c *critical) enter() {
	for !c.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (c *critical) leave() {
	c.held.Store(false)
}
