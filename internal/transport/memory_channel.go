package transport

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrClosed is returned by Send once this end has been closed, and by
// Receive once the peer end has been closed.
var ErrClosed = errors.New("transport: channel closed")

// MemoryChannel is an in-process Channel backed by a Go channel, for
// linking a server and a client inside one process (the demo cmd/ binaries
// use KCP instead). NewMemoryChannelPair returns both ends already linked.
type MemoryChannel struct {
	out    chan []byte
	in     chan []byte
	remote string
	closed int32
	stats  ConnectionStats
}

// NewMemoryChannelPair returns two linked channels: messages sent on a are
// received on b and vice versa.
func NewMemoryChannelPair(bufSize int) (a, b *MemoryChannel) {
	c1 := make(chan []byte, bufSize)
	c2 := make(chan []byte, bufSize)
	a = &MemoryChannel{out: c1, in: c2, remote: "peer-b"}
	b = &MemoryChannel{out: c2, in: c1, remote: "peer-a"}
	return a, b
}

func (m *MemoryChannel) Send(ctx context.Context, payload []byte) error {
	if atomic.LoadInt32(&m.closed) == 1 {
		return ErrClosed
	}
	select {
	case m.out <- payload:
		atomic.AddUint64(&m.stats.MessagesSent, 1)
		atomic.AddUint64(&m.stats.BytesSent, uint64(len(payload)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MemoryChannel) Receive(ctx context.Context) ([]byte, error) {
	select {
	case payload, ok := <-m.in:
		if !ok {
			return nil, ErrClosed
		}
		atomic.AddUint64(&m.stats.MessagesReceived, 1)
		atomic.AddUint64(&m.stats.BytesReceived, uint64(len(payload)))
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *MemoryChannel) Close() error {
	if atomic.CompareAndSwapInt32(&m.closed, 0, 1) {
		close(m.out)
	}
	return nil
}

func (m *MemoryChannel) IsConnected() bool { return atomic.LoadInt32(&m.closed) == 0 }
func (m *MemoryChannel) RemoteAddr() string { return m.remote }
func (m *MemoryChannel) Stats() ConnectionStats {
	return ConnectionStats{
		BytesSent:        atomic.LoadUint64(&m.stats.BytesSent),
		BytesReceived:    atomic.LoadUint64(&m.stats.BytesReceived),
		MessagesSent:     atomic.LoadUint64(&m.stats.MessagesSent),
		MessagesReceived: atomic.LoadUint64(&m.stats.MessagesReceived),
		LastActivity:     time.Now(),
	}
}

var _ Channel = (*MemoryChannel)(nil)
