package serial

import (
	"sync/atomic"

	"github.com/robotalks/serial.go/pkg/serial/event"
)

// Queues is the queue layout a Driver runs on: two independent queues
// for full duplex, one shared queue for half duplex.
type Queues interface {
	// PutReceive stores an incoming byte. Interrupt context.
	PutReceive(b byte) bool
	// GetTransmit fetches the next outgoing byte. Interrupt context.
	GetTransmit() (byte, bool)
	// Read copies received bytes without blocking. Task context.
	Read(p []byte) int
	// Write queues outgoing bytes without blocking. Task context.
	Write(p []byte) int
	// Pending returns the number of bytes not yet handed to the transmitter.
	Pending() int
}

// Stats counts driver activity since construction.
type Stats struct {
	RxBytes       uint64 // bytes accepted by IncomingData
	TxBytes       uint64 // bytes handed out by RequestData
	Overruns      uint64 // bytes dropped because the receive side was full
	Drains        uint64 // RequestData calls that found nothing to send
	StatusSignals uint64 // AddFlags calls
}

type driverStats struct {
	rxBytes       atomic.Uint64
	txBytes       atomic.Uint64
	overruns      atomic.Uint64
	drains        atomic.Uint64
	statusSignals atomic.Uint64
}

// Driver is the part shared by both serial driver variants. It turns queue
// results and line conditions into events.
//
// IncomingData, RequestData and AddFlags are the interrupt-side entry
// points: they never block and may run concurrently with each other and
// with task-side calls. Everything else is task context.
type Driver[Q Queues] struct {
	queues Q

	inputEvent  event.Event
	outputEvent event.Event
	statusEvent event.Event

	flags atomic.Uint32
	stats driverStats
}

func (d *Driver[Q]) setup(q Q) {
	d.queues = q
	d.inputEvent.Init()
	d.outputEvent.Init()
	d.statusEvent.Init()
	d.flags.Store(uint32(NoError))
	d.stats.reset()
}

func (s *driverStats) reset() {
	s.rxBytes.Store(0)
	s.txBytes.Store(0)
	s.overruns.Store(0)
	s.drains.Store(0)
	s.statusSignals.Store(0)
}

// IncomingData enqueues a received byte and signals the input event.
// If there is no room the byte is dropped and OverrunError is raised.
// Interrupt context.
func (d *Driver[Q]) IncomingData(b byte) {
	if !d.queues.PutReceive(b) {
		d.stats.overruns.Add(1)
		d.AddFlags(OverrunError)
		return
	}
	d.stats.rxBytes.Add(1)
	d.inputEvent.Signal()
}

// RequestData returns the next byte to transmit. When nothing is left it
// signals the output event and returns false; the binding should then
// stop its transmit source. Interrupt context.
func (d *Driver[Q]) RequestData() (byte, bool) {
	b, ok := d.queues.GetTransmit()
	if !ok {
		d.stats.drains.Add(1)
		d.outputEvent.Signal()
		return 0, false
	}
	d.stats.txBytes.Add(1)
	return b, true
}

// AddFlags raises condition flags and signals the status event.
// Safe from interrupt context.
func (d *Driver[Q]) AddFlags(mask Flags) {
	d.flags.Or(uint32(mask))
	d.stats.statusSignals.Add(1)
	d.statusEvent.Signal()
}

// GetAndClearFlags returns the flags raised since the previous call and
// resets them to NoError.
func (d *Driver[Q]) GetAndClearFlags() Flags {
	return Flags(d.flags.Swap(uint32(NoError)))
}

// InputEvent is signaled after each byte enqueued by IncomingData.
func (d *Driver[Q]) InputEvent() *event.Event { return &d.inputEvent }

// OutputEvent is signaled whenever RequestData finds nothing to send.
func (d *Driver[Q]) OutputEvent() *event.Event { return &d.outputEvent }

// StatusEvent is signaled by every AddFlags.
func (d *Driver[Q]) StatusEvent() *event.Event { return &d.statusEvent }

// Stats returns a snapshot of the counters.
func (d *Driver[Q]) Stats() Stats {
	return Stats{
		RxBytes:       d.stats.rxBytes.Load(),
		TxBytes:       d.stats.txBytes.Load(),
		Overruns:      d.stats.overruns.Load(),
		Drains:        d.stats.drains.Load(),
		StatusSignals: d.stats.statusSignals.Load(),
	}
}
