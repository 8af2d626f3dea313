package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/netcode-core/internal/eventbus"
)

func TestBatchManager_FlushesBufferedDeltasOnInterval(t *testing.T) {
	bus := eventbus.NewMemoryBus(16)
	received := make(chan *eventbus.Envelope, 4)
	_, err := bus.Subscribe(context.TODO(), eventbus.Filter{Types: []string{"SnapshotBatch"}}, func(ctx context.Context, ev *eventbus.Envelope) {
		received <- ev
	})
	require.NoError(t, err)

	bm := NewBatchManager(bus, "shard-1", 16, 20*time.Millisecond, nil)
	defer bm.Stop()

	bm.AddChange(Delta{Data: []byte("hello"), Priority: 3})

	select {
	case ev := <-received:
		assert.Equal(t, "SnapshotBatch", ev.EventType)
		assert.Equal(t, "shard-1", ev.Source)
		assert.NotEmpty(t, ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for batch flush")
	}
}

func TestBatchManager_OverflowReplacesLowestPriority(t *testing.T) {
	bus := eventbus.NewMemoryBus(16)
	bm := NewBatchManager(bus, "shard-1", 2, time.Hour, NewPassthroughCompressor())
	defer bm.Stop()

	bm.AddChange(Delta{Data: []byte("low"), Priority: 1})
	bm.AddChange(Delta{Data: []byte("mid"), Priority: 5})
	bm.AddChange(Delta{Data: []byte("high"), Priority: 9}) // buffer full, should evict "low"

	require.Len(t, bm.buf, 2)
	var datas []string
	for _, d := range bm.buf {
		datas = append(datas, string(d.Data))
	}
	assert.ElementsMatch(t, []string{"mid", "high"}, datas)
}
