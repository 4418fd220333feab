package queue

import "sync"

// Direction is the current role of a HalfDuplexQueue.
type Direction int

const (
	// Receiving accepts bytes from the receive interrupt.
	Receiving Direction = iota
	// Transmitting serves bytes to the transmit interrupt.
	Transmitting
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Transmitting {
		return "transmitting"
	}
	return "receiving"
}

// HalfDuplexQueue is a single buffer shared by both directions.
//
// The queue starts Receiving. A task write switches it to Transmitting and
// discards received bytes nobody has read yet. When the transmit interrupt
// finds nothing left to send, the queue returns to Receiving. While
// Transmitting, PutReceive fails and the driver reports an overrun.
type HalfDuplexQueue struct {
	ring      ring
	dir       Direction
	discarded uint64
	inotify   Notify
	onotify   Notify

	sys  critical
	lock sync.Mutex
}

// NewHalfDuplexQueue creates a HalfDuplexQueue over buf.
func NewHalfDuplexQueue(buf []byte, inotify, onotify Notify) *HalfDuplexQueue {
	q := &HalfDuplexQueue{}
	q.Init(buf, inotify, onotify)
	return q
}

// Init (re)initializes the queue. Not safe against concurrent use.
func (q *HalfDuplexQueue) Init(buf []byte, inotify, onotify Notify) {
	q.ring.init(buf)
	q.dir, q.discarded = Receiving, 0
	q.inotify, q.onotify = inotify, onotify
}

// Size returns the capacity in bytes.
func (q *HalfDuplexQueue) Size() int { return q.ring.size() }

// Len returns the number of buffered bytes in the current direction.
func (q *HalfDuplexQueue) Len() int { return q.ring.used() }

// Pending returns the number of bytes waiting for transmission.
func (q *HalfDuplexQueue) Pending() int {
	q.sys.enter()
	defer q.sys.leave()
	if q.dir != Transmitting {
		return 0
	}
	return q.ring.used()
}

// Direction returns the current direction.
func (q *HalfDuplexQueue) Direction() Direction {
	q.sys.enter()
	defer q.sys.leave()
	return q.dir
}

// Discarded returns how many unread received bytes were dropped by a
// switch to Transmitting.
func (q *HalfDuplexQueue) Discarded() uint64 {
	q.sys.enter()
	defer q.sys.leave()
	return q.discarded
}

// PutReceive stores a received byte. Interrupt context.
func (q *HalfDuplexQueue) PutReceive(b byte) bool {
	q.sys.enter()
	defer q.sys.leave()
	if q.dir != Receiving {
		return false
	}
	return q.ring.put(b)
}

// GetTransmit returns the next byte to send. Interrupt context.
// An empty result while Transmitting turns the line around.
func (q *HalfDuplexQueue) GetTransmit() (byte, bool) {
	q.sys.enter()
	defer q.sys.leave()
	if q.dir != Transmitting {
		return 0, false
	}
	b, ok := q.ring.get()
	if !ok {
		q.dir = Receiving
	}
	return b, ok
}

// GetReceive removes the oldest received byte. Task context.
func (q *HalfDuplexQueue) GetReceive() (byte, bool) {
	var p [1]byte
	if q.Read(p[:]) == 0 {
		return 0, false
	}
	return p[0], true
}

// Read copies up to len(p) received bytes into p. Task context.
func (q *HalfDuplexQueue) Read(p []byte) int {
	q.lock.Lock()
	q.sys.enter()
	n := 0
	if q.dir == Receiving {
		for n < len(p) {
			b, ok := q.ring.get()
			if !ok {
				break
			}
			p[n] = b
			n++
		}
	}
	q.sys.leave()
	q.lock.Unlock()
	if n > 0 {
		q.inotify.call()
	}
	return n
}

// PutTransmit queues b for transmission. Task context.
func (q *HalfDuplexQueue) PutTransmit(b byte) bool {
	return q.Write([]byte{b}) == 1
}

// Write queues as much of p as fits for transmission. Task context.
func (q *HalfDuplexQueue) Write(p []byte) int {
	if len(p) == 0 {
		return 0
	}
	q.lock.Lock()
	q.sys.enter()
	if q.dir == Receiving {
		q.discarded += uint64(q.ring.reset())
		q.dir = Transmitting
	}
	n := 0
	for n < len(p) && q.ring.put(p[n]) {
		n++
	}
	q.sys.leave()
	q.lock.Unlock()
	if n > 0 {
		q.onotify.call()
	}
	return n
}
