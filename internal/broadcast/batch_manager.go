package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/netcode-core/internal/eventbus"
	"github.com/annel0/netcode-core/internal/logging"
)

// BatchManager accumulates outbound Deltas and flushes them as a single
// compressed event-bus message on a fixed interval, so a high tick rate
// doesn't turn into one event-bus publish per tick per shard.
type BatchManager struct {
	mu       sync.Mutex
	buf      []Delta
	capacity int

	flushEvery time.Duration
	bus        eventbus.EventBus
	source     string
	compressor Compressor

	quit chan struct{}
}

// NewBatchManager creates a manager bounded to capacity pending deltas,
// flushing every flushEvery. A nil compressor defaults to passthrough.
func NewBatchManager(bus eventbus.EventBus, source string, capacity int, flushEvery time.Duration, compressor Compressor) *BatchManager {
	if compressor == nil {
		compressor = NewPassthroughCompressor()
	}
	bm := &BatchManager{
		capacity:   capacity,
		flushEvery: flushEvery,
		bus:        bus,
		source:     source,
		compressor: compressor,
		quit:       make(chan struct{}),
	}
	go bm.loop()
	return bm
}

// AddChange buffers d, replacing the lowest-priority buffered delta if the
// buffer is full and d outranks it; otherwise d is dropped.
func (bm *BatchManager) AddChange(d Delta) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if len(bm.buf) >= bm.capacity {
		lowIdx := -1
		lowPri := d.Priority
		for i, c := range bm.buf {
			if c.Priority < lowPri {
				lowPri = c.Priority
				lowIdx = i
			}
		}
		if lowIdx >= 0 {
			bm.buf[lowIdx] = d
		}
		return
	}
	bm.buf = append(bm.buf, d)
}

func (bm *BatchManager) loop() {
	ticker := time.NewTicker(bm.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bm.flush()
		case <-bm.quit:
			return
		}
	}
}

func (bm *BatchManager) flush() {
	bm.mu.Lock()
	if len(bm.buf) == 0 {
		bm.mu.Unlock()
		return
	}
	deltas := make([]Delta, len(bm.buf))
	copy(deltas, bm.buf)
	bm.buf = bm.buf[:0]
	bm.mu.Unlock()

	payload, err := bm.compressor.Compress(deltas)
	if err != nil {
		logging.Warn("broadcast: batch compress error: %v", err)
		return
	}

	env := &eventbus.Envelope{
		ID:        time.Now().Format("20060102150405.000000000"),
		Timestamp: time.Now().UTC(),
		Source:    bm.source,
		EventType: "SnapshotBatch",
		Version:   1,
		Priority:  5,
		Payload:   payload,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := bm.bus.Publish(ctx, env); err != nil {
		logging.Warn("broadcast: batch publish error: %v", err)
	}
}

// Stop flushes any remaining deltas and halts the flush loop.
func (bm *BatchManager) Stop() {
	close(bm.quit)
	bm.flush()
}
