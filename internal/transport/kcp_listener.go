package transport

import (
	"fmt"

	"github.com/annel0/netcode-core/internal/logging"
	kcp "github.com/xtaci/kcp-go/v5"
)

// KCPListener accepts inbound KCP sessions and wraps each as a Channel.
type KCPListener struct {
	listener *kcp.Listener
	cfg      Config
	compress bool
	logger   *logging.Logger
}

// ListenKCP binds a UDP address for incoming game traffic.
func ListenKCP(addr string, cfg Config, compress bool) (*KCPListener, error) {
	l, err := kcp.ListenWithOptions(addr, nil, 10, 3)
	if err != nil {
		return nil, fmt.Errorf("kcp listen %s: %w", addr, err)
	}
	return &KCPListener{listener: l, cfg: cfg, compress: compress, logger: logging.GetComponentLogger("transport")}, nil
}

// Accept blocks for the next inbound session and wraps it as a Channel.
func (l *KCPListener) Accept() (Channel, error) {
	conn, err := l.listener.AcceptKCP()
	if err != nil {
		return nil, fmt.Errorf("kcp accept: %w", err)
	}
	ch, err := NewKCPChannelFromConn(conn, l.cfg, l.compress)
	if err != nil {
		conn.Close()
		return nil, err
	}
	l.logger.Info("accepted connection from %s", ch.RemoteAddr())
	return ch, nil
}

// Close stops accepting new connections.
func (l *KCPListener) Close() error {
	return l.listener.Close()
}
