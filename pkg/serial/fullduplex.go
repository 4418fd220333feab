package serial

import (
	"github.com/golang/glog"

	"github.com/robotalks/serial.go/pkg/serial/queue"
)

type duplexQueues struct {
	in  *queue.InputQueue
	out *queue.OutputQueue
}

func (q *duplexQueues) PutReceive(b byte) bool    { return q.in.Put(b) }
func (q *duplexQueues) GetTransmit() (byte, bool) { return q.out.Get() }
func (q *duplexQueues) Read(p []byte) int         { return q.in.Read(p) }
func (q *duplexQueues) Write(p []byte) int        { return q.out.Write(p) }
func (q *duplexQueues) Pending() int              { return q.out.Len() }

// FullDuplexDriver owns independent receive and transmit queues.
type FullDuplexDriver struct {
	Driver[*duplexQueues]

	iqueue queue.InputQueue
	oqueue queue.OutputQueue
	layout duplexQueues
}

// NewFullDuplexDriver creates a driver over caller-owned buffers.
// inotify runs after tasks read from the input queue; onotify runs after
// tasks write to the output queue and is where a binding starts
// transmission. Either may be nil.
func NewFullDuplexDriver(ib []byte, inotify queue.Notify, ob []byte, onotify queue.Notify) *FullDuplexDriver {
	d := &FullDuplexDriver{}
	d.Init(ib, inotify, ob, onotify)
	return d
}

// Init (re)initializes d. It must complete before any interrupt-side call.
func (d *FullDuplexDriver) Init(ib []byte, inotify queue.Notify, ob []byte, onotify queue.Notify) {
	d.iqueue.Init(ib, inotify)
	d.oqueue.Init(ob, onotify)
	d.layout = duplexQueues{in: &d.iqueue, out: &d.oqueue}
	d.setup(&d.layout)
	glog.V(2).Infof("serial: full duplex driver input=%d output=%d", len(ib), len(ob))
}

// InputQueue returns the receive queue.
func (d *FullDuplexDriver) InputQueue() *queue.InputQueue { return &d.iqueue }

// OutputQueue returns the transmit queue.
func (d *FullDuplexDriver) OutputQueue() *queue.OutputQueue { return &d.oqueue }
