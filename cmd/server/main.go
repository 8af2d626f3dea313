package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annel0/netcode-core/internal/auth"
	"github.com/annel0/netcode-core/internal/broadcast"
	"github.com/annel0/netcode-core/internal/config"
	"github.com/annel0/netcode-core/internal/demo/arena"
	"github.com/annel0/netcode-core/internal/eventbus"
	"github.com/annel0/netcode-core/internal/logging"
	"github.com/annel0/netcode-core/internal/metrics"
	"github.com/annel0/netcode-core/internal/middleware"
	netserver "github.com/annel0/netcode-core/internal/netcode/server"
	"github.com/annel0/netcode-core/internal/observability"
	"github.com/annel0/netcode-core/internal/protocol"
	"github.com/annel0/netcode-core/internal/transport"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("starting netcode-core demo server")

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logging.Error("failed to load config: %v", err)
		os.Exit(1)
	}
	if cfg == nil {
		cfg = &config.Config{Netcode: config.Defaults()}
	}

	shutdownTelemetry, err := observability.InitTelemetry(context.Background(), "netcode-server")
	if err != nil {
		logging.Warn("telemetry init failed, continuing without tracing: %v", err)
	} else {
		defer shutdownTelemetry(context.Background())
	}

	reg := metrics.NewRegistry("netcode")
	reg.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()))
	defer reg.Stop()

	bus := newEventBus(cfg.EventBus)
	eventbus.Init(bus)
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("event bus logging listener failed to start: %v", err)
	}
	bcastMgr, err := newBroadcastManager(cfg.Broadcast, bus)
	if err != nil {
		logging.Warn("broadcast manager init failed, cross-shard fan-out disabled: %v", err)
	} else {
		defer bcastMgr.Stop()
	}

	srv := newDemoServer(cfg, reg, bus)

	go srv.serveAdminHTTP(cfg.Server.GetAdminAddr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.strategy.Start(ctx)
	defer srv.strategy.Stop()

	if err := srv.listenGame(cfg.Server.GetGameAddr()); err != nil {
		logging.Error("failed to start game listener: %v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logging.Info("shutting down")
}

// newEventBus builds the cross-shard event bus: a JetStream-backed bus when
// an EventBusConfig URL is configured, falling back to an in-memory bus (no
// external NATS dependency) so the demo runs standalone by default.
func newEventBus(cfg config.EventBusConfig) eventbus.EventBus {
	if cfg.URL == "" {
		return eventbus.NewMemoryBus(256)
	}
	retention := time.Duration(cfg.Retention) * time.Hour
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, retention)
	if err != nil {
		logging.Warn("jetstream bus connect failed (%v), falling back to in-memory bus", err)
		return eventbus.NewMemoryBus(256)
	}
	return bus
}

// newBroadcastManager wires Producer/BatchManager/Consumer so local
// Snapshot/ActionAck events get batched and fanned out to other shards, and
// batches arriving from other shards get logged (this demo runs a single
// shard, so there is no local world to merge a remote delta into).
func newBroadcastManager(cfg config.BroadcastConfig, bus eventbus.EventBus) (*broadcast.Manager, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}
	flushEvery := time.Duration(cfg.FlushEvery) * time.Millisecond
	if flushEvery <= 0 {
		flushEvery = 50 * time.Millisecond
	}
	regionID := cfg.RegionID
	if regionID == "" {
		regionID = "region-default"
	}

	return broadcast.NewManager(broadcast.Config{
		ShardID:    regionID,
		Bus:        bus,
		BatchSize:  batchSize,
		FlushEvery: flushEvery,
		UseZstd:    cfg.UseZstd,
		Apply: func(d broadcast.Delta) error {
			logging.Debug("broadcast: received %s batch entry from %s (%d bytes)", d.Kind, d.Source, len(d.Data))
			return nil
		},
	})
}

// demoServer wires the arena demo game into the netcode-core server
// Strategy and a KCP transport, broadcasting snapshots to every connected
// client and routing inbound frames back into the Strategy.
type demoServer struct {
	strategy *netserver.Strategy[arena.World, arena.Input, arena.Action, arena.Result]

	mu      sync.RWMutex
	clients map[string]*clientConn

	inputCodec    *protocol.GobZstdCodec[protocol.InputMessage[arena.Input]]
	actionCodec   *protocol.GobZstdCodec[protocol.ActionMessage[arena.Action]]
	ackCodec      *protocol.GobZstdCodec[protocol.ActionAckMessage[arena.Result]]
	snapCodec     *protocol.GobZstdCodec[protocol.SnapshotMessage[arena.World]]
	joinCodec     *protocol.GobZstdCodec[protocol.JoinRequest]
	joinRespCodec *protocol.GobZstdCodec[protocol.JoinMessage[arena.World]]

	reg    *metrics.Registry
	logger *logging.Logger
	bus    eventbus.EventBus
}

type clientConn struct {
	id string
	ch transport.Channel
}

func newDemoServer(cfg *config.Config, reg *metrics.Registry, bus eventbus.EventBus) *demoServer {
	inputCodec, _ := protocol.NewGobZstdCodec[protocol.InputMessage[arena.Input]]()
	actionCodec, _ := protocol.NewGobZstdCodec[protocol.ActionMessage[arena.Action]]()
	ackCodec, _ := protocol.NewGobZstdCodec[protocol.ActionAckMessage[arena.Result]]()
	snapCodec, _ := protocol.NewGobZstdCodec[protocol.SnapshotMessage[arena.World]]()
	joinCodec, _ := protocol.NewGobZstdCodec[protocol.JoinRequest]()
	joinRespCodec, _ := protocol.NewGobZstdCodec[protocol.JoinMessage[arena.World]]()

	s := &demoServer{
		clients:       make(map[string]*clientConn),
		inputCodec:    inputCodec,
		actionCodec:   actionCodec,
		ackCodec:      ackCodec,
		snapCodec:     snapCodec,
		joinCodec:     joinCodec,
		joinRespCodec: joinRespCodec,
		reg:           reg,
		logger:        logging.GetServerLogger(),
		bus:           bus,
	}

	strategyCfg := netserver.StrategyConfig{
		TickRate:            cfg.Netcode.TickRate,
		SnapshotHistorySize: cfg.Netcode.SnapshotHistorySize,
		MaxRewindMs:         int64(cfg.Netcode.MaxRewindMs),
	}

	s.strategy = netserver.NewStrategy[arena.World, arena.Input, arena.Action, arena.Result](
		arena.Definition(),
		arena.World{},
		arena.Input{},
		netserver.LastWins[arena.Input],
		strategyCfg,
		s.broadcastSnapshot,
		s.sendAck,
		s.logger,
	)
	return s
}

func (s *demoServer) broadcastSnapshot(msg protocol.SnapshotMessage[arena.World]) {
	payload, err := s.snapCodec.Encode(msg)
	if err != nil {
		s.logger.Warn("snapshot encode error: %v", err)
		return
	}
	env, err := protocol.EncodeEnvelope(protocol.Envelope{Kind: protocol.KindSnapshot, Payload: payload})
	if err != nil {
		s.logger.Warn("envelope encode error: %v", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if err := c.ch.Send(context.Background(), env); err != nil {
			s.logger.Debug("snapshot send to %s failed: %v", c.id, err)
		}
	}
	if s.reg != nil {
		s.reg.ConnectedClients.Set(float64(len(s.clients)))
	}
	s.publishToBus("Snapshot", env)
}

// publishToBus forwards an already-encoded envelope onto the cross-shard
// event bus, where broadcast.Producer picks it up for batched fan-out.
func (s *demoServer) publishToBus(eventType string, payload []byte) {
	if s.bus == nil {
		return
	}
	ev := &eventbus.Envelope{
		Timestamp: time.Now().UTC(),
		Source:    "netcode-server",
		EventType: eventType,
		Payload:   payload,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Debug("event bus publish (%s) failed: %v", eventType, err)
	}
}

func (s *demoServer) sendAck(clientID string, ack protocol.ActionAckMessage[arena.Result]) {
	s.mu.RLock()
	c, ok := s.clients[clientID]
	s.mu.RUnlock()
	if !ok {
		return
	}

	payload, err := s.ackCodec.Encode(ack)
	if err != nil {
		s.logger.Warn("ack encode error: %v", err)
		return
	}
	env, err := protocol.EncodeEnvelope(protocol.Envelope{Kind: protocol.KindActionAck, Payload: payload})
	if err != nil {
		s.logger.Warn("envelope encode error: %v", err)
		return
	}
	if err := c.ch.Send(context.Background(), env); err != nil {
		s.logger.Debug("ack send to %s failed: %v", clientID, err)
	}
	s.publishToBus("ActionAck", env)
}

func (s *demoServer) listenGame(addr string) error {
	listener, err := transport.ListenKCP(addr, transport.DefaultConfig(), true)
	if err != nil {
		return fmt.Errorf("listen kcp %s: %w", addr, err)
	}
	s.logger.Info("game listener bound to %s", addr)

	go func() {
		for {
			ch, err := listener.Accept()
			if err != nil {
				s.logger.Warn("accept error: %v", err)
				continue
			}
			go s.handleConnection(ch)
		}
	}()
	return nil
}

func (s *demoServer) handleConnection(ch transport.Channel) {
	ctx := context.Background()

	raw, err := ch.Receive(ctx)
	if err != nil {
		s.logger.Warn("connection %s: failed to receive join request: %v", ch.RemoteAddr(), err)
		ch.Close()
		return
	}
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil || env.Kind != protocol.KindJoinRequest {
		s.logger.Warn("connection %s: expected join request", ch.RemoteAddr())
		ch.Close()
		return
	}
	req, err := s.joinCodec.Decode(env.Payload)
	if err != nil {
		s.logger.Warn("connection %s: bad join request payload: %v", ch.RemoteAddr(), err)
		ch.Close()
		return
	}

	clientID, valid, _ := auth.ValidateJoinToken(req.Token)
	if !valid {
		s.logger.Warn("connection %s: invalid join token", ch.RemoteAddr())
		ch.Close()
		return
	}

	s.mu.Lock()
	s.clients[clientID] = &clientConn{id: clientID, ch: ch}
	s.mu.Unlock()

	world := s.strategy.AddClient(clientID)
	s.sendJoinResponse(ch, clientID, world)
	s.logger.Info("client %s joined from %s", clientID, ch.RemoteAddr())

	defer func() {
		s.mu.Lock()
		delete(s.clients, clientID)
		s.mu.Unlock()
		s.strategy.RemoveClient(clientID)
		ch.Close()
		s.logger.Info("client %s disconnected", clientID)
	}()

	for {
		raw, err := ch.Receive(ctx)
		if err != nil {
			return
		}
		s.dispatch(clientID, raw)
	}
}

func (s *demoServer) sendJoinResponse(ch transport.Channel, clientID string, world arena.World) {
	msg := protocol.JoinMessage[arena.World]{PlayerID: clientID, State: &world}
	payload, err := s.joinRespCodec.Encode(msg)
	if err != nil {
		s.logger.Warn("join response encode error: %v", err)
		return
	}
	env, err := protocol.EncodeEnvelope(protocol.Envelope{Kind: protocol.KindJoin, Payload: payload})
	if err != nil {
		s.logger.Warn("envelope encode error: %v", err)
		return
	}
	if err := ch.Send(context.Background(), env); err != nil {
		s.logger.Warn("join response send error: %v", err)
	}
}

func (s *demoServer) dispatch(clientID string, raw []byte) {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		s.logger.Debug("client %s: bad envelope: %v", clientID, err)
		return
	}

	switch env.Kind {
	case protocol.KindInput:
		msg, err := s.inputCodec.Decode(env.Payload)
		if err != nil {
			s.logger.Debug("client %s: bad input payload: %v", clientID, err)
			return
		}
		s.strategy.OnClientInput(clientID, msg)
	case protocol.KindAction:
		msg, err := s.actionCodec.Decode(env.Payload)
		if err != nil {
			s.logger.Debug("client %s: bad action payload: %v", clientID, err)
			return
		}
		s.strategy.OnClientAction(clientID, msg)
	default:
		s.logger.Debug("client %s: unexpected envelope kind %s", clientID, env.Kind)
	}
}

func (s *demoServer) serveAdminHTTP(addr string) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.NewRequestLogger().Handler())

	pm := middleware.NewPrometheusMiddleware("admin")
	r.Use(pm.Handler())
	pm.RegisterMetricsEndpoint(r)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"tick":    s.strategy.GetTick(),
			"clients": len(s.clients),
		})
	})

	r.POST("/join-token", func(c *gin.Context) {
		var req struct {
			ClientID string `json:"client_id"`
			IsAdmin  bool   `json:"is_admin"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		token, err := auth.GenerateJoinToken(req.ClientID, req.IsAdmin, time.Hour)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"token": token})
	})

	s.logger.Info("admin HTTP listening on %s", addr)
	if err := r.Run(addr); err != nil {
		s.logger.Error("admin HTTP server error: %v", err)
	}
}
