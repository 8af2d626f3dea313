package broadcast

import (
	"context"

	"github.com/annel0/netcode-core/internal/eventbus"
)

// Producer listens for locally published Snapshot/ActionAck events and
// forwards their already-encoded payload into a BatchManager for batched
// cross-shard fan-out.
type Producer struct {
	bus eventbus.EventBus
	bm  *BatchManager
	sub eventbus.Subscription
}

// NewProducer subscribes to the snapshot and action-ack event types.
func NewProducer(bus eventbus.EventBus, bm *BatchManager) (*Producer, error) {
	p := &Producer{bus: bus, bm: bm}
	sub, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{"Snapshot", "ActionAck"}}, p.handle)
	if err != nil {
		return nil, err
	}
	p.sub = sub
	return p, nil
}

func (p *Producer) handle(ctx context.Context, ev *eventbus.Envelope) {
	p.bm.AddChange(Delta{Data: ev.Payload, Priority: 3, Kind: ev.EventType, Source: ev.Source})
}

// Stop unsubscribes from the event bus.
func (p *Producer) Stop() { p.sub.Unsubscribe() }
