package port

import (
	"io"
	"sync"

	"github.com/robotalks/serial.go/pkg/serial"
)

// Line is an in-memory serial line end. Bytes written to it appear on the
// Read side of its peer.
type Line struct {
	rx     <-chan byte
	tx     chan<- byte
	errCh  chan error
	closed chan struct{}
	once   sync.Once
}

func newLine(rx <-chan byte, tx chan<- byte) *Line {
	return &Line{
		rx:     rx,
		tx:     tx,
		errCh:  make(chan error, 1),
		closed: make(chan struct{}),
	}
}

// NewLoopback creates a Line whose writes are read back by itself.
func NewLoopback(size int) *Line {
	ch := make(chan byte, size)
	return newLine(ch, ch)
}

// NewNullModem creates two cross-connected Line ends.
func NewNullModem(size int) (*Line, *Line) {
	ab, ba := make(chan byte, size), make(chan byte, size)
	return newLine(ba, ab), newLine(ab, ba)
}

// Read blocks for at least one byte, then returns whatever else is
// immediately available.
func (l *Line) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	select {
	case err := <-l.errCh:
		return 0, err
	case b := <-l.rx:
		p[0] = b
		n := 1
		for n < len(p) {
			select {
			case b = <-l.rx:
				p[n] = b
				n++
			default:
				return n, nil
			}
		}
		return n, nil
	case <-l.closed:
		return 0, io.EOF
	}
}

// Write blocks until all of p is on the line or the Line is closed.
func (l *Line) Write(p []byte) (int, error) {
	for n, b := range p {
		select {
		case <-l.closed:
			return n, ErrClosed
		default:
		}
		select {
		case l.tx <- b:
		case <-l.closed:
			return n, ErrClosed
		}
	}
	return len(p), nil
}

// InjectLineError makes a pending or the next Read report flags.
func (l *Line) InjectLineError(flags serial.Flags) {
	select {
	case l.errCh <- &LineError{Flags: flags}:
	case <-l.closed:
	}
}

// Close implements io.Closer.
func (l *Line) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}
