package queue

import "sync"

// InputQueue is fed by the receive interrupt and drained by tasks.
type InputQueue struct {
	ring   ring
	notify Notify
	lock   sync.Mutex
}

// NewInputQueue creates an InputQueue over buf. notify is called after
// tasks remove data.
func NewInputQueue(buf []byte, notify Notify) *InputQueue {
	q := &InputQueue{}
	q.Init(buf, notify)
	return q
}

// Init (re)initializes the queue. Not safe against concurrent use.
func (q *InputQueue) Init(buf []byte, notify Notify) {
	q.ring.init(buf)
	q.notify = notify
}

// Size returns the capacity in bytes.
func (q *InputQueue) Size() int { return q.ring.size() }

// Len returns the number of buffered bytes.
func (q *InputQueue) Len() int { return q.ring.used() }

// Put stores b. Interrupt context. Returns false when the queue is full.
func (q *InputQueue) Put(b byte) bool {
	return q.ring.put(b)
}

// Get removes the oldest byte. Task context.
func (q *InputQueue) Get() (byte, bool) {
	q.lock.Lock()
	b, ok := q.ring.get()
	q.lock.Unlock()
	if ok {
		q.notify.call()
	}
	return b, ok
}

// Read copies up to len(p) buffered bytes into p without blocking.
// Task context.
func (q *InputQueue) Read(p []byte) int {
	q.lock.Lock()
	n := 0
	for n < len(p) {
		b, ok := q.ring.get()
		if !ok {
			break
		}
		p[n] = b
		n++
	}
	q.lock.Unlock()
	if n > 0 {
		q.notify.call()
	}
	return n
}

// OutputQueue is filled by tasks and drained by the transmit interrupt.
type OutputQueue struct {
	ring   ring
	notify Notify
	lock   sync.Mutex
}

// NewOutputQueue creates an OutputQueue over buf. notify is called after
// tasks add data, usually to start the transmitter.
func NewOutputQueue(buf []byte, notify Notify) *OutputQueue {
	q := &OutputQueue{}
	q.Init(buf, notify)
	return q
}

// Init (re)initializes the queue. Not safe against concurrent use.
func (q *OutputQueue) Init(buf []byte, notify Notify) {
	q.ring.init(buf)
	q.notify = notify
}

// Size returns the capacity in bytes.
func (q *OutputQueue) Size() int { return q.ring.size() }

// Len returns the number of bytes waiting for transmission.
func (q *OutputQueue) Len() int { return q.ring.used() }

// Put appends b. Task context. Returns false when the queue is full.
func (q *OutputQueue) Put(b byte) bool {
	q.lock.Lock()
	ok := q.ring.put(b)
	q.lock.Unlock()
	if ok {
		q.notify.call()
	}
	return ok
}

// Write appends as much of p as fits without blocking. Task context.
func (q *OutputQueue) Write(p []byte) int {
	q.lock.Lock()
	n := 0
	for n < len(p) && q.ring.put(p[n]) {
		n++
	}
	q.lock.Unlock()
	if n > 0 {
		q.notify.call()
	}
	return n
}

// Get removes the next byte to transmit. Interrupt context.
func (q *OutputQueue) Get() (byte, bool) {
	return q.ring.get()
}
