package serial

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/serial.go/pkg/serial/event"
)

// waiter parks on an event and reports whether it was woken.
func waiter(e *event.Event) <-chan bool {
	ch := e.Listen()
	woken := make(chan bool, 1)
	go func() {
		select {
		case <-ch:
			woken <- true
		case <-time.After(100 * time.Millisecond):
			woken <- false
		}
	}()
	return woken
}

func TestOverrunScenario(t *testing.T) {
	d := NewFullDuplexDriver(make([]byte, 4), nil, make([]byte, 4), nil)
	for b := byte(1); b <= 5; b++ {
		d.IncomingData(b)
	}
	require.Equal(t, OverrunError, d.GetAndClearFlags())
	var got []byte
	for {
		b, ok := d.InputQueue().Get()
		if !ok {
			break
		}
		got = append(got, b)
	}
	require.Equal(t, []byte{1, 2, 3, 4}, got)
	require.Equal(t, Stats{RxBytes: 4, Overruns: 1, StatusSignals: 1}, d.Stats())
}

func TestEmptyOutputScenario(t *testing.T) {
	d := NewFullDuplexDriver(make([]byte, 4), nil, make([]byte, 4), nil)
	woken := waiter(d.OutputEvent())
	_, ok := d.RequestData()
	require.False(t, ok)
	require.True(t, <-woken)
	require.Equal(t, uint64(1), d.OutputEvent().Signals())
}

func TestFlagsAccumulate(t *testing.T) {
	cases := []struct {
		name   string
		masks  []Flags
		expect Flags
	}{
		{"overrun and framing", []Flags{OverrunError, FramingError}, OverrunError | FramingError},
		{"same bit twice", []Flags{ParityError, ParityError}, ParityError},
		{"binding defined bit", []Flags{BreakDetected, 1 << 8}, BreakDetected | 1<<8},
		{"nothing raised", nil, NoError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewHalfDuplexDriver(make([]byte, 4), nil, nil)
			for _, m := range tc.masks {
				d.AddFlags(m)
			}
			require.Equal(t, tc.expect, d.GetAndClearFlags())
			require.Equal(t, NoError, d.GetAndClearFlags())
			require.Equal(t, uint64(len(tc.masks)), d.StatusEvent().Signals())
		})
	}
}

func TestNoLostOverrun(t *testing.T) {
	d := NewFullDuplexDriver(make([]byte, 1), nil, nil, nil)
	d.IncomingData(0)

	var wg sync.WaitGroup
	var isr sync.WaitGroup
	isr.Add(2)
	stop := make(chan struct{})
	go func() {
		defer isr.Done()
		for {
			select {
			case <-stop:
				return
			default:
				d.AddFlags(FramingError)
			}
		}
	}()
	go func() {
		defer isr.Done()
		for {
			select {
			case <-stop:
				return
			default:
				d.AddFlags(ParityError)
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			d.IncomingData(byte(i))
			// every failed put must be visible at the next read
			var seen Flags
			for n := 0; n < 2 && !seen.Has(OverrunError); n++ {
				seen |= d.GetAndClearFlags()
			}
			if !seen.Has(OverrunError) {
				t.Errorf("overrun %d lost", i)
				return
			}
		}
	}()
	wg.Wait()
	close(stop)
	isr.Wait()
	require.Equal(t, uint64(1000), d.Stats().Overruns)
}

func TestFlagsConcurrentNoBitsLost(t *testing.T) {
	d := NewFullDuplexDriver(nil, nil, nil, nil)
	const bits = 16
	var wg sync.WaitGroup
	for i := 0; i < bits; i++ {
		wg.Add(1)
		go func(bit Flags) {
			defer wg.Done()
			d.AddFlags(bit)
		}(Flags(1) << uint(i))
	}
	var acc Flags
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		acc |= d.GetAndClearFlags()
		select {
		case <-done:
			acc |= d.GetAndClearFlags()
			require.Equal(t, Flags(1<<bits-1), acc)
			return
		default:
		}
	}
}

func TestInputEventOnlyOnEnqueue(t *testing.T) {
	d := NewFullDuplexDriver(make([]byte, 1), nil, nil, nil)

	woken := waiter(d.InputEvent())
	d.IncomingData(0x42)
	require.True(t, <-woken)
	b, ok := d.InputQueue().Get()
	require.True(t, ok)
	require.Equal(t, byte(0x42), b)

	d.IncomingData(1)
	woken = waiter(d.InputEvent())
	d.IncomingData(2)
	require.False(t, <-woken, "full queue must not signal input")
	require.Equal(t, OverrunError, d.GetAndClearFlags())
}

func TestOutputFIFOWithoutSignal(t *testing.T) {
	d := NewFullDuplexDriver(nil, nil, make([]byte, 8), nil)
	n, err := d.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	woken := waiter(d.OutputEvent())
	for _, want := range []byte("abc") {
		b, ok := d.RequestData()
		require.True(t, ok)
		require.Equal(t, want, b)
	}
	require.False(t, <-woken, "non-empty requests must not signal output")
	require.Zero(t, d.OutputEvent().Signals())

	_, ok := d.RequestData()
	require.False(t, ok)
	require.Equal(t, uint64(1), d.OutputEvent().Signals())
	require.Equal(t, uint64(3), d.Stats().TxBytes)
}

func TestHalfDuplexTurnaround(t *testing.T) {
	var starts int
	d := NewHalfDuplexDriver(make([]byte, 8), nil, func() { starts++ })

	for _, b := range []byte{1, 2, 3} {
		d.IncomingData(b)
	}
	buf := make([]byte, 2)
	n := d.TryRead(buf)
	require.Equal(t, []byte{1, 2}, buf[:n])

	// received bytes never leak into the transmit direction
	_, ok := d.RequestData()
	require.False(t, ok)

	n = d.TryWrite([]byte{7, 8, 9})
	require.Equal(t, 3, n)
	require.Equal(t, 1, starts)
	require.Equal(t, uint64(1), d.Queue().Discarded())

	d.IncomingData(4)
	require.Equal(t, OverrunError, d.GetAndClearFlags())

	var sent []byte
	for {
		b, ok := d.RequestData()
		if !ok {
			break
		}
		sent = append(sent, b)
	}
	require.Equal(t, []byte{7, 8, 9}, sent)
	require.Zero(t, d.TryRead(buf), "transmitted bytes never come back as received")

	d.IncomingData(5)
	n = d.TryRead(buf)
	require.Equal(t, []byte{5}, buf[:n])
	require.Equal(t, Stats{RxBytes: 4, TxBytes: 3, Overruns: 1, Drains: 2, StatusSignals: 1}, d.Stats())
}

func TestReadContextWakesOnIncoming(t *testing.T) {
	d := NewFullDuplexDriver(make([]byte, 16), nil, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		for _, b := range []byte("hi") {
			d.IncomingData(b)
		}
	}()
	buf := make([]byte, 4)
	got := 0
	for got < 2 {
		n, err := d.ReadContext(ctx, buf[got:])
		require.NoError(t, err)
		got += n
	}
	require.Equal(t, "hi", string(buf[:got]))

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := d.ReadContext(ctx, buf)
	require.Equal(t, context.DeadlineExceeded, err)
}

func TestWriteContextWaitsForDrain(t *testing.T) {
	txKick := make(chan struct{}, 1)
	d := NewFullDuplexDriver(nil, nil, make([]byte, 2), func() {
		select {
		case txKick <- struct{}{}:
		default:
		}
	})

	sent := make(chan byte, 64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-txKick:
			}
			for {
				b, ok := d.RequestData()
				if !ok {
					break
				}
				sent <- b
			}
		}
	}()

	msg := []byte("hello, world")
	wctx, wcancel := context.WithTimeout(ctx, time.Second)
	defer wcancel()
	n, err := d.WriteContext(wctx, msg)
	require.NoError(t, err)
	require.Equal(t, len(msg), n)
	require.NoError(t, d.Drain(wctx))

	for i, want := range msg {
		select {
		case b := <-sent:
			require.Equalf(t, want, b, "byte %d", i)
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("byte %d not transmitted", i)
		}
	}
}

func TestWriteContextTimeout(t *testing.T) {
	d := NewFullDuplexDriver(nil, nil, make([]byte, 2), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	n, err := d.WriteContext(ctx, []byte{1, 2, 3})
	require.Equal(t, 2, n)
	require.Equal(t, context.DeadlineExceeded, err)
	require.Equal(t, context.DeadlineExceeded, d.Drain(ctx))
}
