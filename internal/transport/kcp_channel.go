package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/netcode-core/internal/logging"
	"github.com/klauspost/compress/zstd"
	kcp "github.com/xtaci/kcp-go/v5"
)

// KCPChannel is a Channel over a reliable-unordered KCP session, tuned the
// same way the teacher's KCPChannel tunes it: stream mode on (each frame
// carries its own 4-byte length prefix), no write
// delay, aggressive fast-retransmit, a wide send/receive window. This trades
// bandwidth for latency, appropriate for a tick-rate-bound game loop.
type KCPChannel struct {
	conn   *kcp.UDPSession
	cfg    Config
	logger *logging.Logger

	compress     bool
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder

	mu        sync.RWMutex
	connected bool
	stats     ConnectionStats

	ctx    context.Context
	cancel context.CancelFunc
}

// DialKCP opens a client-side KCP session to addr.
func DialKCP(addr string, cfg Config, compress bool) (*KCPChannel, error) {
	conn, err := kcp.DialWithOptions(addr, nil, 10, 3)
	if err != nil {
		return nil, fmt.Errorf("kcp dial %s: %w", addr, err)
	}
	return newKCPChannel(conn, cfg, compress)
}

// NewKCPChannelFromConn wraps a server-accepted KCP session.
func NewKCPChannelFromConn(conn *kcp.UDPSession, cfg Config, compress bool) (*KCPChannel, error) {
	return newKCPChannel(conn, cfg, compress)
}

func newKCPChannel(conn *kcp.UDPSession, cfg Config, compress bool) (*KCPChannel, error) {
	conn.SetStreamMode(true)
	conn.SetWriteDelay(false)
	conn.SetNoDelay(1, 20, 2, 1)
	conn.SetWindowSize(512, 512)
	conn.SetMtu(1400)
	if cfg.KeepAlive > 0 {
		conn.SetReadDeadline(time.Time{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := &KCPChannel{
		conn:      conn,
		cfg:       cfg,
		logger:    logging.GetComponentLogger("transport"),
		compress:  compress,
		connected: true,
		ctx:       ctx,
		cancel:    cancel,
	}

	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
		if err != nil {
			cancel()
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			enc.Close()
			cancel()
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		ch.compressor = enc
		ch.decompressor = dec
	}

	return ch, nil
}

// Send writes a length-prefixed, optionally zstd-compressed frame.
func (c *KCPChannel) Send(ctx context.Context, payload []byte) error {
	if c.compress {
		payload = c.compressor.EncodeAll(payload, nil)
	}

	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(len(payload)))

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
	}

	if _, err := c.conn.Write(header); err != nil {
		return fmt.Errorf("kcp write header: %w", err)
	}
	if _, err := c.conn.Write(payload); err != nil {
		return fmt.Errorf("kcp write payload: %w", err)
	}

	atomic.AddUint64(&c.stats.MessagesSent, 1)
	atomic.AddUint64(&c.stats.BytesSent, uint64(len(header)+len(payload)))
	return nil
}

// Receive blocks until a full frame arrives or ctx is done.
func (c *KCPChannel) Receive(ctx context.Context) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, fmt.Errorf("kcp read header: %w", err)
	}
	size := binary.LittleEndian.Uint32(header)

	payload := make([]byte, size)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, fmt.Errorf("kcp read payload: %w", err)
	}

	if c.compress {
		raw, err := c.decompressor.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		payload = raw
	}

	atomic.AddUint64(&c.stats.MessagesReceived, 1)
	atomic.AddUint64(&c.stats.BytesReceived, uint64(len(header)+len(payload)))
	return payload, nil
}

func (c *KCPChannel) Close() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.cancel()
	if c.compressor != nil {
		c.compressor.Close()
	}
	if c.decompressor != nil {
		c.decompressor.Close()
	}
	return c.conn.Close()
}

func (c *KCPChannel) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *KCPChannel) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *KCPChannel) Stats() ConnectionStats {
	return ConnectionStats{
		BytesSent:        atomic.LoadUint64(&c.stats.BytesSent),
		BytesReceived:    atomic.LoadUint64(&c.stats.BytesReceived),
		MessagesSent:     atomic.LoadUint64(&c.stats.MessagesSent),
		MessagesReceived: atomic.LoadUint64(&c.stats.MessagesReceived),
		LastActivity:     time.Now(),
	}
}
