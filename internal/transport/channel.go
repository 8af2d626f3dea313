// Package transport carries opaque framed byte messages between server and
// client processes. It knows nothing about input/snapshot/action shapes —
// those are encoded by internal/protocol.Codec before a Send and decoded
// after a Receive. Modeled on the teacher's internal/network NetChannel
// abstraction, generalized away from protobuf-specific payloads.
package transport

import (
	"context"
	"time"
)

// ChannelType distinguishes how a channel is used, mirroring the teacher's
// ChannelType enum.
type ChannelType int

const (
	ChannelGame ChannelType = iota
	ChannelAdmin
)

// ConnectionStats is a point-in-time snapshot of a channel's traffic counters.
type ConnectionStats struct {
	BytesSent       uint64
	BytesReceived   uint64
	MessagesSent    uint64
	MessagesReceived uint64
	RTT             time.Duration
	LastActivity    time.Time
}

// Channel is a bidirectional, message-framed byte pipe. Implementations
// (KCP-backed, in-memory) guarantee per-sender ordering but not delivery,
// matching spec §5's "ordered, reliable-enough" assumption.
type Channel interface {
	Send(ctx context.Context, payload []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
	IsConnected() bool
	RemoteAddr() string
	Stats() ConnectionStats
}

// Config tunes a Channel's buffering and timeouts.
type Config struct {
	SendBufferSize int
	RecvBufferSize int
	DialTimeout    time.Duration
	KeepAlive      time.Duration
}

// DefaultConfig mirrors the teacher's DefaultChannelConfig values, tuned for
// a fast-paced real-time game rather than bulk transfer.
func DefaultConfig() Config {
	return Config{
		SendBufferSize: 256,
		RecvBufferSize: 256,
		DialTimeout:    5 * time.Second,
		KeepAlive:      10 * time.Second,
	}
}
