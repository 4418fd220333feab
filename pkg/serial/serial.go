// Package serial implements interrupt-driven serial drivers.
//
// A driver sits between a hardware binding and application tasks. The
// binding calls IncomingData for every received byte, RequestData whenever
// the transmitter wants a byte, and AddFlags for line conditions it
// detects. Tasks read and write through the driver and wait on its
// events: the input event after every received byte, the output event
// when the transmit side runs dry, and the status event when a flag is
// raised. Flags accumulate until GetAndClearFlags.
//
// A driver must be fully constructed before the binding starts calling
// it, and each driver belongs to exactly one binding.
package serial

import (
	"context"
	"io"

	"github.com/robotalks/serial.go/pkg/serial/event"
)

// InterruptHandler is the surface a hardware binding drives.
type InterruptHandler interface {
	IncomingData(b byte)
	RequestData() (byte, bool)
	AddFlags(mask Flags)
}

// Stream is the task-side surface of a driver.
type Stream interface {
	io.ReadWriter
	ReadContext(ctx context.Context, p []byte) (int, error)
	WriteContext(ctx context.Context, p []byte) (int, error)
	TryRead(p []byte) int
	TryWrite(p []byte) int
	Drain(ctx context.Context) error
	GetAndClearFlags() Flags
	InputEvent() *event.Event
	OutputEvent() *event.Event
	StatusEvent() *event.Event
	Stats() Stats
}

// Device is a complete driver, either variant.
type Device interface {
	InterruptHandler
	Stream
}

var (
	_ Device = (*FullDuplexDriver)(nil)
	_ Device = (*HalfDuplexDriver)(nil)
)
