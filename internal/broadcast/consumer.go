package broadcast

import (
	"context"
	"fmt"

	"github.com/annel0/netcode-core/internal/eventbus"
	"github.com/annel0/netcode-core/internal/logging"
)

// Consumer listens for batched SnapshotBatch events from other shards and
// hands each decoded Delta to an ApplyFunc for dispatch to locally
// connected clients.
type Consumer struct {
	sub        eventbus.Subscription
	compressor Compressor
	apply      ApplyFunc
}

// ApplyFunc receives one decoded cross-shard Delta. The caller is
// responsible for decoding d.Data with the relevant protocol.Codec and
// routing it to the right transport.Channel(s).
type ApplyFunc func(d Delta) error

// NewConsumer subscribes to SnapshotBatch events. A nil compressor defaults
// to passthrough, which must match the Producer side's.
func NewConsumer(bus eventbus.EventBus, compressor Compressor, apply ApplyFunc) (*Consumer, error) {
	if compressor == nil {
		compressor = NewPassthroughCompressor()
	}
	c := &Consumer{compressor: compressor, apply: apply}
	sub, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{"SnapshotBatch"}}, c.handle)
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return c, nil
}

func (c *Consumer) handle(ctx context.Context, ev *eventbus.Envelope) {
	logging.Debug("broadcast: batch size=%d bytes from %s", len(ev.Payload), ev.Source)

	deltas, err := c.compressor.Decompress(ev.Payload)
	if err != nil {
		logging.Warn("broadcast: batch decompress error: %v", err)
		return
	}

	for i, d := range deltas {
		if err := c.applyOne(&d); err != nil {
			logging.Warn("broadcast: delta %d apply error: %v", i, err)
		}
	}
}

func (c *Consumer) applyOne(d *Delta) error {
	if d == nil {
		return fmt.Errorf("broadcast: delta is nil")
	}
	if len(d.Data) == 0 {
		return fmt.Errorf("broadcast: delta payload is empty")
	}
	if c.apply == nil {
		return nil
	}
	return c.apply(*d)
}

// Stop unsubscribes from the event bus.
func (c *Consumer) Stop() { c.sub.Unsubscribe() }
