// Package port binds serial drivers to byte streams.
//
// A Port stands in for the receive and transmit interrupts of a UART: one
// goroutine feeds every byte read from the stream into the driver, the
// other pulls bytes out of the driver whenever transmission is started and
// writes them to the stream.
package port

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/serial.go/pkg/serial"
)

var (
	// ErrNoDriver indicates Run was called before Attach.
	ErrNoDriver = errors.New("no driver attached")
	// ErrClosed indicates the stream was closed.
	ErrClosed = errors.New("stream closed")
)

// LineError is returned by a stream Read to report line conditions.
// The Port raises them on the driver and keeps reading.
type LineError struct {
	Flags serial.Flags
}

// Error implements error.
func (e *LineError) Error() string {
	return fmt.Sprintf("line error: %s", e.Flags)
}

// DefaultChunkSize is the default number of bytes moved per stream call.
const DefaultChunkSize = 64

// Port drives a serial.InterruptHandler from a stream. The Port owns the
// stream and closes it when Run returns.
type Port struct {
	Stream    io.ReadWriteCloser
	Driver    serial.InterruptHandler
	ChunkSize int

	txKick chan struct{}
}

// New creates a Port over stream. Attach a driver before Run.
func New(stream io.ReadWriteCloser) *Port {
	return &Port{
		Stream:    stream,
		ChunkSize: DefaultChunkSize,
		txKick:    make(chan struct{}, 1),
	}
}

// Attach sets the driver.
func (p *Port) Attach(d serial.InterruptHandler) *Port {
	p.Driver = d
	return p
}

// StartTransmit enables the transmitter. It never blocks and is meant to
// be the output notify callback of the attached driver.
func (p *Port) StartTransmit() {
	select {
	case p.txKick <- struct{}{}:
	default:
	}
}

// ReportLineStatus raises flags detected outside the stream.
func (p *Port) ReportLineStatus(mask serial.Flags) {
	p.Driver.AddFlags(mask)
}

// Run implements framework.Runnable. It returns on the first stream error
// or when ctx is done. The stream is closed to release a blocked Read, and
// Run returns only after both loops have stopped calling the driver.
func (p *Port) Run(ctx context.Context) error {
	if p.Driver == nil {
		return ErrNoDriver
	}
	chunk := p.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	glog.V(2).Info("port: started")
	defer glog.V(2).Info("port: stopped")

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	go func() {
		errCh <- p.transmitLoop(subCtx, chunk)
	}()
	go func() {
		errCh <- p.receiveLoop(chunk)
	}()

	var err error
	running := 2
	select {
	case err = <-errCh:
		running--
	case <-ctx.Done():
		err = ctx.Err()
	}
	cancel()
	p.Stream.Close()
	// the remaining loops exit on the canceled context or the closed stream
	for ; running > 0; running-- {
		<-errCh
	}
	if err != nil && err != context.Canceled {
		glog.Warningf("port: %v", err)
	}
	return err
}

func (p *Port) receiveLoop(chunk int) error {
	buf := make([]byte, chunk)
	for {
		n, err := p.Stream.Read(buf)
		for _, b := range buf[:n] {
			p.Driver.IncomingData(b)
		}
		if err == nil {
			continue
		}
		var lineErr *LineError
		if errors.As(err, &lineErr) {
			p.Driver.AddFlags(lineErr.Flags)
			continue
		}
		if os.IsTimeout(err) {
			continue
		}
		return err
	}
}

func (p *Port) transmitLoop(ctx context.Context, chunk int) error {
	out := make([]byte, 0, chunk)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.txKick:
		}
		for drained := false; !drained; {
			out = out[:0]
			for len(out) < chunk {
				b, ok := p.Driver.RequestData()
				if !ok {
					drained = true
					break
				}
				out = append(out, b)
			}
			if len(out) == 0 {
				continue
			}
			if _, err := p.Stream.Write(out); err != nil {
				return err
			}
		}
	}
}
