package serial

import "context"

// TryRead copies up to len(p) received bytes into p without blocking.
func (d *Driver[Q]) TryRead(p []byte) int {
	return d.queues.Read(p)
}

// TryWrite queues as much of p as fits without blocking.
func (d *Driver[Q]) TryWrite(p []byte) int {
	return d.queues.Write(p)
}

// ReadContext blocks until at least one byte is received or ctx is done.
func (d *Driver[Q]) ReadContext(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		// listen before checking so a byte arriving in between still wakes us
		ch := d.inputEvent.Listen()
		if n := d.queues.Read(p); n > 0 {
			return n, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Read implements io.Reader. It blocks until data is available and never
// returns io.EOF.
func (d *Driver[Q]) Read(p []byte) (int, error) {
	return d.ReadContext(context.Background(), p)
}

// WriteContext blocks until all of p is queued or ctx is done. When the
// queue is full it waits for the transmitter to drain it.
func (d *Driver[Q]) WriteContext(ctx context.Context, p []byte) (int, error) {
	sent := 0
	for sent < len(p) {
		ch := d.outputEvent.Listen()
		if n := d.queues.Write(p[sent:]); n > 0 {
			sent += n
			continue
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return sent, ctx.Err()
		}
	}
	return sent, nil
}

// Write implements io.Writer. It returns once p is queued, not once it is
// on the wire; use Drain for that.
func (d *Driver[Q]) Write(p []byte) (int, error) {
	return d.WriteContext(context.Background(), p)
}

// Drain blocks until every queued byte has been handed to the transmitter.
func (d *Driver[Q]) Drain(ctx context.Context) error {
	for {
		ch := d.outputEvent.Listen()
		if d.queues.Pending() == 0 {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
