// Package bridge exposes a serial driver over a publish/subscribe queue.
//
// Bytes received by the driver are published on TopicRx, payloads arriving
// on TopicTx are written to the driver, and raised line conditions are
// published on TopicStatus. All payloads are msgs protobuf messages.
package bridge

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/serial.go/pkg/comm/mqtt"
	"github.com/robotalks/serial.go/pkg/msgs"
	"github.com/robotalks/serial.go/pkg/serial"
)

// Topics relative to the queue prefix.
const (
	TopicRx     = "rx"
	TopicTx     = "tx"
	TopicStatus = "status"
)

// DefaultChunkSize is the largest DataChunk published on TopicRx.
const DefaultChunkSize = 256

// DefaultTxBacklog is how many TopicTx messages wait for the driver before
// new ones are dropped.
const DefaultTxBacklog = 64

// PubSub is the queue a Bridge talks to. mqtt.Queue implements it.
type PubSub interface {
	Publish(topic string, payload []byte) error
	Subscribe(filter string, handler mqtt.Handler) (io.Closer, error)
}

var _ PubSub = (*mqtt.Queue)(nil)

// Bridge connects a Stream to a PubSub.
type Bridge struct {
	Stream    serial.Stream
	PubSub    PubSub
	ChunkSize int
	TxBacklog int

	txDropped atomic.Uint64
}

// New creates a Bridge.
func New(stream serial.Stream, pubsub PubSub) *Bridge {
	return &Bridge{Stream: stream, PubSub: pubsub, ChunkSize: DefaultChunkSize, TxBacklog: DefaultTxBacklog}
}

// TxDropped returns how many TopicTx messages were dropped on a full backlog.
func (b *Bridge) TxDropped() uint64 {
	return b.txDropped.Load()
}

// Run implements framework.Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	backlog := b.TxBacklog
	if backlog <= 0 {
		backlog = DefaultTxBacklog
	}
	// the subscription handler runs on the client's delivery goroutine and
	// must not wait for the driver
	txCh := make(chan []byte, backlog)
	sub, err := b.PubSub.Subscribe(TopicTx, func(topic string, payload []byte) {
		select {
		case txCh <- payload:
		default:
			b.txDropped.Add(1)
			glog.Warningf("bridge: %s backlog full, message dropped", TopicTx)
		}
	})
	if err != nil {
		return err
	}
	defer sub.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.publishStatus(ctx)
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case payload := <-txCh:
				b.transmit(ctx, payload)
			case <-ctx.Done():
				return
			}
		}
	}()
	b.publishReceived(ctx)
	cancel()
	wg.Wait()
	return ctx.Err()
}

func (b *Bridge) transmit(ctx context.Context, payload []byte) {
	chunk, err := msgs.DecodeDataChunk(payload)
	if err != nil {
		glog.Warningf("bridge: bad %s message: %v", TopicTx, err)
		return
	}
	if _, err = b.Stream.WriteContext(ctx, chunk.Data); err != nil {
		glog.V(2).Infof("bridge: write aborted: %v", err)
	}
}

func (b *Bridge) publishReceived(ctx context.Context) {
	size := b.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	for {
		n, err := b.Stream.ReadContext(ctx, buf)
		if err != nil {
			return
		}
		b.publish(TopicRx, &msgs.DataChunk{Data: buf[:n]})
	}
}

func (b *Bridge) publishStatus(ctx context.Context) {
	for {
		ch := b.Stream.StatusEvent().Listen()
		if flags := b.Stream.GetAndClearFlags(); flags != serial.NoError {
			glog.V(2).Infof("bridge: status %s", flags)
			b.publish(TopicStatus, msgs.NewStatusReport(flags, b.Stream.Stats()))
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bridge) publish(topic string, m proto.Message) {
	payload, err := msgs.Encode(m)
	if err == nil {
		err = b.PubSub.Publish(topic, payload)
	}
	if err != nil {
		glog.Warningf("bridge: publish %s: %v", topic, err)
	}
}
