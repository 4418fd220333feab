package port

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bugst "go.bug.st/serial"

	"github.com/robotalks/serial.go/pkg/serial"
)

type portTestEnv struct {
	t      *testing.T
	ctx    context.Context
	cancel func()
	errCh  chan error
}

func newPortTestEnv(t *testing.T) *portTestEnv {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	return &portTestEnv{t: t, ctx: ctx, cancel: cancel, errCh: make(chan error, 2)}
}

func (e *portTestEnv) fullDuplex(stream *Line) *serial.FullDuplexDriver {
	p := New(stream)
	d := serial.NewFullDuplexDriver(make([]byte, 32), nil, make([]byte, 8), p.StartTransmit)
	p.Attach(d)
	go func() { e.errCh <- p.Run(e.ctx) }()
	return d
}

func (e *portTestEnv) halfDuplex(stream *Line) *serial.HalfDuplexDriver {
	p := New(stream)
	d := serial.NewHalfDuplexDriver(make([]byte, 16), nil, p.StartTransmit)
	p.Attach(d)
	go func() { e.errCh <- p.Run(e.ctx) }()
	return d
}

func (e *portTestEnv) readN(s serial.Stream, n int) string {
	buf := make([]byte, n)
	got := 0
	for got < n {
		cnt, err := s.ReadContext(e.ctx, buf[got:])
		require.NoError(e.t, err)
		got += cnt
	}
	return string(buf)
}

func (e *portTestEnv) stop(ports int) {
	e.cancel()
	for i := 0; i < ports; i++ {
		select {
		case err := <-e.errCh:
			require.Equal(e.t, context.Canceled, err)
		case <-time.After(time.Second):
			e.t.Fatal("port did not stop")
		}
	}
}

func TestLoopbackEcho(t *testing.T) {
	env := newPortTestEnv(t)
	d := env.fullDuplex(NewLoopback(4))

	msg := "the quick brown fox"
	n, err := d.WriteContext(env.ctx, []byte(msg))
	require.NoError(t, err)
	require.Equal(t, len(msg), n)
	require.Equal(t, msg, env.readN(d, len(msg)))
	require.NoError(t, d.Drain(env.ctx))

	stats := d.Stats()
	require.Equal(t, uint64(len(msg)), stats.RxBytes)
	require.Equal(t, uint64(len(msg)), stats.TxBytes)
	require.Equal(t, serial.NoError, d.GetAndClearFlags())
	env.stop(1)
}

func TestLineErrorRaisesFlags(t *testing.T) {
	env := newPortTestEnv(t)
	line := NewLoopback(4)
	d := env.fullDuplex(line)

	status := d.StatusEvent().Listen()
	line.InjectLineError(serial.FramingError | serial.ParityError)
	select {
	case <-status:
	case <-time.After(time.Second):
		t.Fatal("status event not signaled")
	}
	require.Equal(t, serial.FramingError|serial.ParityError, d.GetAndClearFlags())

	// the port keeps receiving after a line error
	_, err := d.WriteContext(env.ctx, []byte("ok"))
	require.NoError(t, err)
	require.Equal(t, "ok", env.readN(d, 2))
	env.stop(1)
}

func TestNullModemHalfDuplex(t *testing.T) {
	env := newPortTestEnv(t)
	a, b := NewNullModem(8)
	full := env.fullDuplex(a)
	half := env.halfDuplex(b)

	_, err := full.WriteContext(env.ctx, []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, "ping", env.readN(half, 4))

	_, err = half.WriteContext(env.ctx, []byte("pong"))
	require.NoError(t, err)
	require.Equal(t, "pong", env.readN(full, 4))
	require.NoError(t, half.Drain(env.ctx))
	require.Zero(t, half.Queue().Discarded())
	env.stop(2)
}

func TestRunWithoutDriver(t *testing.T) {
	require.Equal(t, ErrNoDriver, New(NewLoopback(1)).Run(context.Background()))
}

func TestStreamErrorStopsPort(t *testing.T) {
	line := NewLoopback(1)
	p := New(line)
	p.Attach(serial.NewFullDuplexDriver(make([]byte, 4), nil, nil, nil))
	line.Close()
	require.Equal(t, io.EOF, p.Run(context.Background()))

	n, err := line.Write([]byte{1})
	require.Zero(t, n)
	require.Equal(t, ErrClosed, err)
}

func TestReportLineStatus(t *testing.T) {
	p := New(NewLoopback(1))
	d := serial.NewFullDuplexDriver(make([]byte, 4), nil, make([]byte, 4), p.StartTransmit)
	p.Attach(d)

	status := d.StatusEvent().Listen()
	p.ReportLineStatus(serial.BreakDetected)
	select {
	case <-status:
	default:
		t.Fatal("status event not signaled")
	}
	require.Equal(t, serial.BreakDetected, d.GetAndClearFlags())
	require.Equal(t, serial.NoError, d.GetAndClearFlags())
}

// slowCloseStream delays the Read unblocked by Close.
type slowCloseStream struct {
	closed     chan struct{}
	once       sync.Once
	readExited atomic.Bool
}

func (s *slowCloseStream) Read(p []byte) (int, error) {
	<-s.closed
	time.Sleep(20 * time.Millisecond)
	s.readExited.Store(true)
	return 0, io.EOF
}

func (s *slowCloseStream) Write(p []byte) (int, error) {
	return len(p), nil
}

func (s *slowCloseStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func TestRunWaitsForReceiveLoop(t *testing.T) {
	stream := &slowCloseStream{closed: make(chan struct{})}
	p := New(stream)
	p.Attach(serial.NewFullDuplexDriver(make([]byte, 4), nil, make([]byte, 4), p.StartTransmit))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("port did not stop")
	}
	require.True(t, stream.readExited.Load())
}

func TestConfigMode(t *testing.T) {
	mode, err := Config{Name: "/dev/null", Parity: "even", StopBits: "2"}.Mode()
	require.NoError(t, err)
	require.Equal(t, &bugst.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   bugst.EvenParity,
		StopBits: bugst.TwoStopBits,
	}, mode)

	require.Equal(t, "115200 8E2", FormatMode(mode))

	_, err = Config{Parity: "weird"}.Mode()
	require.Error(t, err)
	_, err = Config{StopBits: "3"}.Mode()
	require.Error(t, err)
}
