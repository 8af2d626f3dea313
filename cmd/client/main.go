// Command client is a headless demo client for the arena game: it dials the
// demo server over KCP, joins with a token, drives synthetic input so the
// prediction/reconciliation/interpolation pipeline has something to do, and
// periodically logs the rendered world so the pipeline's effect is visible
// without a real renderer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/netcode-core/internal/auth"
	"github.com/annel0/netcode-core/internal/config"
	"github.com/annel0/netcode-core/internal/demo/arena"
	"github.com/annel0/netcode-core/internal/logging"
	"github.com/annel0/netcode-core/internal/netcode/client"
	"github.com/annel0/netcode-core/internal/protocol"
	"github.com/annel0/netcode-core/internal/transport"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:7777", "game server address")
	clientID := flag.String("id", "", "client id (client-<pid> if empty)")
	token := flag.String("token", "", "join token (a mock token is generated if empty)")
	flag.Parse()

	if *clientID == "" {
		*clientID = fmt.Sprintf("client-%d", os.Getpid())
	}
	if *token == "" {
		*token = auth.GenerateMockJoinToken(*clientID, false)
	}

	if err := logging.InitDefaultLogger("client"); err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	defer logging.CloseDefaultLogger()
	logger := logging.GetClientLogger()

	cfg, err := config.Load("")
	if err != nil {
		logger.Error("failed to load config: %v", err)
		os.Exit(1)
	}
	netcodeCfg := config.Defaults()
	if cfg != nil {
		netcodeCfg = cfg.Netcode
	}

	ch, err := transport.DialKCP(*serverAddr, transport.DefaultConfig(), true)
	if err != nil {
		logger.Error("dial %s: %v", *serverAddr, err)
		os.Exit(1)
	}
	defer ch.Close()

	c := newDemoClient(*clientID, ch, netcodeCfg, logger)
	if err := c.join(*token); err != nil {
		logger.Error("join failed: %v", err)
		os.Exit(1)
	}
	logger.Info("joined server %s as %s", *serverAddr, *clientID)

	go c.receiveLoop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.driveLoop(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
}

// demoClient wires the arena demo game into the netcode-core client Strategy
// over a single transport.Channel, multiplexing all message kinds through
// protocol.Envelope the same way the demo server does.
type demoClient struct {
	id       string
	ch       transport.Channel
	strategy *client.Strategy[arena.World, arena.Input, arena.Action, arena.Result]

	inputCodec    *protocol.GobZstdCodec[protocol.InputMessage[arena.Input]]
	actionCodec   *protocol.GobZstdCodec[protocol.ActionMessage[arena.Action]]
	ackCodec      *protocol.GobZstdCodec[protocol.ActionAckMessage[arena.Result]]
	snapCodec     *protocol.GobZstdCodec[protocol.SnapshotMessage[arena.World]]
	joinCodec     *protocol.GobZstdCodec[protocol.JoinRequest]
	joinRespCodec *protocol.GobZstdCodec[protocol.JoinMessage[arena.World]]

	dtMs   float64
	logger *logging.Logger
}

func newDemoClient(id string, ch transport.Channel, cfg config.NetcodeConfig, logger *logging.Logger) *demoClient {
	inputCodec, _ := protocol.NewGobZstdCodec[protocol.InputMessage[arena.Input]]()
	actionCodec, _ := protocol.NewGobZstdCodec[protocol.ActionMessage[arena.Action]]()
	ackCodec, _ := protocol.NewGobZstdCodec[protocol.ActionAckMessage[arena.Result]]()
	snapCodec, _ := protocol.NewGobZstdCodec[protocol.SnapshotMessage[arena.World]]()
	joinCodec, _ := protocol.NewGobZstdCodec[protocol.JoinRequest]()
	joinRespCodec, _ := protocol.NewGobZstdCodec[protocol.JoinMessage[arena.World]]()

	c := &demoClient{
		id:            id,
		ch:            ch,
		inputCodec:    inputCodec,
		actionCodec:   actionCodec,
		ackCodec:      ackCodec,
		snapCodec:     snapCodec,
		joinCodec:     joinCodec,
		joinRespCodec: joinRespCodec,
		dtMs:          1000.0 / float64(cfg.TickRate),
		logger:        logger,
	}

	strategyCfg := client.Config{
		DtMs:                    c.dtMs,
		MaxInputBufferSize:      cfg.MaxInputBufferSize,
		InterpolationHistory:    cfg.SnapshotHistorySize,
		InterpolationDelayMs:    int64(cfg.InterpolationDelayMs),
		SmoothingDurationFrames: cfg.SmoothingDurationFrames,
	}
	c.strategy = client.NewStrategy[arena.World, arena.Input, arena.Action, arena.Result](
		id, arena.PredictionScope(), strategyCfg, c.sendInput, c.sendAction, logger,
	)
	c.strategy.SetInterpolate(arena.Definition().Interpolate)
	return c
}

func (c *demoClient) join(token string) error {
	payload, err := c.joinCodec.Encode(protocol.JoinRequest{Token: token})
	if err != nil {
		return fmt.Errorf("encode join request: %w", err)
	}
	env, err := protocol.EncodeEnvelope(protocol.Envelope{Kind: protocol.KindJoinRequest, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := c.ch.Send(context.Background(), env); err != nil {
		return fmt.Errorf("send join request: %w", err)
	}

	raw, err := c.ch.Receive(context.Background())
	if err != nil {
		return fmt.Errorf("receive join response: %w", err)
	}
	env, err = protocol.DecodeEnvelope(raw)
	if err != nil || env.Kind != protocol.KindJoin {
		return fmt.Errorf("expected join response, got kind=%v err=%v", env.Kind, err)
	}
	msg, err := c.joinRespCodec.Decode(env.Payload)
	if err != nil {
		return fmt.Errorf("decode join response: %w", err)
	}
	if msg.State == nil {
		return fmt.Errorf("join response missing world state")
	}
	c.strategy.OnJoin(*msg.State)
	return nil
}

func (c *demoClient) sendInput(msg protocol.InputMessage[arena.Input]) error {
	payload, err := c.inputCodec.Encode(msg)
	if err != nil {
		return err
	}
	env, err := protocol.EncodeEnvelope(protocol.Envelope{Kind: protocol.KindInput, Payload: payload})
	if err != nil {
		return err
	}
	return c.ch.Send(context.Background(), env)
}

func (c *demoClient) sendAction(msg protocol.ActionMessage[arena.Action]) error {
	payload, err := c.actionCodec.Encode(msg)
	if err != nil {
		return err
	}
	env, err := protocol.EncodeEnvelope(protocol.Envelope{Kind: protocol.KindAction, Payload: payload})
	if err != nil {
		return err
	}
	return c.ch.Send(context.Background(), env)
}

func (c *demoClient) receiveLoop() {
	for {
		raw, err := c.ch.Receive(context.Background())
		if err != nil {
			c.logger.Warn("receive loop exiting: %v", err)
			return
		}
		env, err := protocol.DecodeEnvelope(raw)
		if err != nil {
			c.logger.Debug("bad envelope: %v", err)
			continue
		}

		switch env.Kind {
		case protocol.KindSnapshot:
			msg, err := c.snapCodec.Decode(env.Payload)
			if err != nil {
				c.logger.Debug("bad snapshot payload: %v", err)
				continue
			}
			c.strategy.OnSnapshot(msg)
		case protocol.KindActionAck:
			msg, err := c.ackCodec.Decode(env.Payload)
			if err != nil {
				c.logger.Debug("bad ack payload: %v", err)
				continue
			}
			c.logger.Debug("action %d ack: success=%v result=%+v", msg.Seq, msg.Success, msg.Result)
		default:
			c.logger.Debug("unexpected envelope kind %s", env.Kind)
		}
	}
}

// driveLoop samples synthetic input at the configured tick rate (a gentle
// circular wander, since this demo has no real input device) and renders the
// predicted/interpolated world once a second for visibility.
func (c *demoClient) driveLoop(ctx context.Context) {
	tickPeriod := time.Duration(c.dtMs) * time.Millisecond
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	renderTicker := time.NewTicker(time.Second)
	defer renderTicker.Stop()

	var tick int64
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick++
			angle := float64(tick) * 0.05
			input := arena.Input{MoveX: math.Cos(angle), MoveY: math.Sin(angle)}
			nowMs := time.Since(start).Milliseconds()
			if err := c.strategy.SendLocalInput(input, nowMs); err != nil {
				c.logger.Debug("send input failed: %v", err)
			}
		case <-renderTicker.C:
			nowMs := time.Since(start).Milliseconds()
			world, dx, dy := c.strategy.Render(nowMs)
			if p, ok := world.Players[c.id]; ok {
				c.logger.Info("render: pos=(%.1f,%.1f) smooth-offset=(%.1f,%.1f)", p.Pos.X+dx, p.Pos.Y+dy, dx, dy)
			}
		}
	}
}
