package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/netcode-core/internal/logging"
)

// GameLoop drives the fixed-timestep tick at TICK_RATE Hz (spec §4.4). A
// slow tick is never allowed to overlap the next: ticks run one at a time
// on the loop goroutine, and the ticker keeps at most one overdue fire, so
// after a tick that overran its period the next one starts immediately and
// every further fire that elapsed meanwhile is skipped and counted as a
// dropped tick rather than queued, so load shedding never builds an
// unbounded backlog.
type GameLoop struct {
	tickRate   int
	period     time.Duration
	onTick     func(tick uint64, dtMs float64)
	logger     *logging.Logger
	running    int32
	tick       atomic.Uint64
	dropped    atomic.Uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewGameLoop creates a loop at tickRate Hz invoking onTick once per tick.
func NewGameLoop(tickRate int, onTick func(tick uint64, dtMs float64), logger *logging.Logger) *GameLoop {
	return &GameLoop{
		tickRate: tickRate,
		period:   time.Second / time.Duration(tickRate),
		onTick:   onTick,
		logger:   logger,
	}
}

// Start begins ticking in a background goroutine. Calling Start twice on a
// running loop is a no-op.
func (g *GameLoop) Start(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&g.running, 0, 1) {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel

	g.wg.Add(1)
	go g.run(ctx)
}

func (g *GameLoop) run(ctx context.Context) {
	defer g.wg.Done()
	defer atomic.StoreInt32(&g.running, 0)

	ticker := time.NewTicker(g.period)
	defer ticker.Stop()

	dtMs := 1000.0 / float64(g.tickRate)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := g.tick.Load() + 1
			start := time.Now()
			g.onTick(n, dtMs)
			g.tick.Store(n)
			if missed := uint64(time.Since(start) / g.period); missed > 1 {
				g.dropped.Add(missed - 1)
				if g.logger != nil {
					g.logger.Warn("game loop: %d tick(s) dropped, tick %d overran its period", missed-1, n)
				}
			}
		}
	}
}

// Stop halts the loop and blocks until the in-flight tick (if any) returns.
func (g *GameLoop) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
	g.wg.Wait()
}

// Tick reports the last completed tick number.
func (g *GameLoop) Tick() uint64 { return g.tick.Load() }

// Dropped reports how many ticks were skipped due to tick overlap.
func (g *GameLoop) Dropped() uint64 { return g.dropped.Load() }
