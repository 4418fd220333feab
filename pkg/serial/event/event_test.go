package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignalWakesAllWaiters(t *testing.T) {
	var e Event
	const waiters = 8
	var started, done sync.WaitGroup
	started.Add(waiters)
	done.Add(waiters)
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer done.Done()
			ch := e.Listen()
			started.Done()
			select {
			case <-ch:
				errs <- nil
			case <-time.After(time.Second):
				errs <- ErrTimeout
			}
		}()
	}
	started.Wait()
	e.Signal()
	done.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, uint64(1), e.Signals())
}

func TestSignalIsNotSticky(t *testing.T) {
	e := New()
	e.Signal()
	require.Equal(t, ErrTimeout, e.Wait(20*time.Millisecond))
}

func TestListenBeforeCheck(t *testing.T) {
	e := New()
	ch := e.Listen()
	// a signal between the check and the park is still observed
	e.Signal()
	select {
	case <-ch:
	default:
		t.Fatal("signal lost between listen and wait")
	}
	select {
	case <-e.Listen():
		t.Fatal("new listener must not see an earlier signal")
	default:
	}
}

func TestWaitTimeoutAndContext(t *testing.T) {
	e := New()
	go func() {
		time.Sleep(10 * time.Millisecond)
		e.Signal()
	}()
	require.NoError(t, e.Wait(Infinite))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Equal(t, context.DeadlineExceeded, e.WaitContext(ctx))
}

func TestConcurrentSignals(t *testing.T) {
	e := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				e.Signal()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, uint64(1600), e.Signals())
}
