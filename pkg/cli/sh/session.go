package sh

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/serial.go/pkg/serial"
	"github.com/robotalks/serial.go/pkg/serial/port"
)

// ErrAttached indicates an interrupt-side command while a port owns the
// interrupt side of the driver.
var ErrAttached = errors.New("driver is attached to a port")

// Session is a driver the shell operates on. Without a port the shell
// plays the hardware itself.
type Session struct {
	Device serial.Device
	Port   *port.Port
	Name   string

	cancel func()
	errCh  chan error
}

// NewSession creates a detached session.
func NewSession(name string, d serial.Device) *Session {
	return &Session{Device: d, Name: name}
}

// Attached tells whether a port drives the interrupt side.
func (s *Session) Attached() bool {
	return s.Port != nil
}

// Start runs the port in background.
func (s *Session) Start(ctx context.Context) {
	if s.Port == nil || s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	go func() { s.errCh <- s.Port.Run(ctx) }()
}

// Close stops the port.
func (s *Session) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.cancel = nil
	if err := <-s.errCh; err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// Inject feeds data as received bytes and returns how many were dropped.
func (s *Session) Inject(data []byte) (int, error) {
	if s.Attached() {
		return 0, ErrAttached
	}
	before := s.Device.Stats().Overruns
	for _, b := range data {
		s.Device.IncomingData(b)
	}
	return int(s.Device.Stats().Overruns - before), nil
}

// Pull takes up to max bytes the transmitter would send, all when max <= 0.
func (s *Session) Pull(max int) ([]byte, error) {
	if s.Attached() {
		return nil, ErrAttached
	}
	var out []byte
	for max <= 0 || len(out) < max {
		b, ok := s.Device.RequestData()
		if !ok {
			break
		}
		out = append(out, b)
	}
	return out, nil
}

// Raise adds line conditions.
func (s *Session) Raise(flags serial.Flags) error {
	if s.Attached() {
		return ErrAttached
	}
	s.Device.AddFlags(flags)
	return nil
}

// Queues describes the queue state.
func (s *Session) Queues() string {
	switch d := s.Device.(type) {
	case *serial.FullDuplexDriver:
		return fmt.Sprintf("rx %d/%d tx %d/%d",
			d.InputQueue().Len(), d.InputQueue().Size(),
			d.OutputQueue().Len(), d.OutputQueue().Size())
	case *serial.HalfDuplexDriver:
		q := d.Queue()
		return fmt.Sprintf("%s %d/%d discarded %d", q.Direction(), q.Len(), q.Size(), q.Discarded())
	}
	return "unknown"
}

// ParseData converts command arguments into bytes. Arguments are joined
// by a space and may contain Go escapes like \n or \x00.
func ParseData(args []string) ([]byte, error) {
	s := strings.Join(args, " ")
	unquoted, err := strconv.Unquote(`"` + escapeQuotes(s) + `"`)
	if err != nil {
		return nil, fmt.Errorf("invalid data %q: %v", s, err)
	}
	return []byte(unquoted), nil
}

// escapeQuotes escapes double quotes not already escaped by a backslash.
func escapeQuotes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			sb.WriteByte(s[i])
			if i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			}
		case '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// FormatData quotes bytes for display.
func FormatData(data []byte) string {
	return strconv.Quote(string(data))
}
