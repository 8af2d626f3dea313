package broadcast

import (
	"time"

	"github.com/annel0/netcode-core/internal/eventbus"
	"github.com/annel0/netcode-core/internal/logging"
)

// Manager wires BatchManager, Producer and Consumer together for one
// shard's cross-shard snapshot fan-out.
type Manager struct {
	bm       *BatchManager
	producer *Producer
	consumer *Consumer
}

// Config configures a Manager.
type Config struct {
	ShardID    string
	Bus        eventbus.EventBus
	BatchSize  int
	FlushEvery time.Duration
	UseZstd    bool
	Apply      ApplyFunc
}

// NewManager builds and starts a Manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	var compressor Compressor
	if cfg.UseZstd {
		zc, err := NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		compressor = zc
		logging.Info("broadcast: manager using zstd compression")
	} else {
		compressor = NewPassthroughCompressor()
		logging.Info("broadcast: manager using passthrough (no compression)")
	}

	bm := NewBatchManager(cfg.Bus, cfg.ShardID, cfg.BatchSize, cfg.FlushEvery, compressor)
	producer, err := NewProducer(cfg.Bus, bm)
	if err != nil {
		return nil, err
	}

	consumer, err := NewConsumer(cfg.Bus, compressor, cfg.Apply)
	if err != nil {
		producer.Stop()
		return nil, err
	}

	logging.Info("broadcast: manager initialized shard=%s batch=%d flush=%v", cfg.ShardID, cfg.BatchSize, cfg.FlushEvery)

	return &Manager{bm: bm, producer: producer, consumer: consumer}, nil
}

// Stop tears down producer, consumer and the batch manager in order.
func (m *Manager) Stop() {
	m.producer.Stop()
	m.consumer.Stop()
	m.bm.Stop()
	logging.Info("broadcast: manager stopped")
}
