package serial

import (
	"github.com/golang/glog"

	"github.com/robotalks/serial.go/pkg/serial/queue"
)

// HalfDuplexDriver shares one queue between receive and transmit. The
// queue decides the direction; the driver never looks at it.
type HalfDuplexDriver struct {
	Driver[*queue.HalfDuplexQueue]

	hqueue queue.HalfDuplexQueue
}

// NewHalfDuplexDriver creates a driver over a caller-owned buffer.
func NewHalfDuplexDriver(buf []byte, inotify, onotify queue.Notify) *HalfDuplexDriver {
	d := &HalfDuplexDriver{}
	d.Init(buf, inotify, onotify)
	return d
}

// Init (re)initializes d. It must complete before any interrupt-side call.
func (d *HalfDuplexDriver) Init(buf []byte, inotify, onotify queue.Notify) {
	d.hqueue.Init(buf, inotify, onotify)
	d.setup(&d.hqueue)
	glog.V(2).Infof("serial: half duplex driver size=%d", len(buf))
}

// Queue returns the shared queue.
func (d *HalfDuplexDriver) Queue() *queue.HalfDuplexQueue { return &d.hqueue }
