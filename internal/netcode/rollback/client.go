// Package rollback implements the GGPO-style alternative netcode strategy
// (spec §4.14): every peer simulates every frame immediately using its own
// locally-delayed input plus a predicted guess at remote input, and
// resimulates from a remote input's frame up to the current frame whenever
// that input arrives for a frame that has already been simulated.
package rollback

import (
	"sync"

	"github.com/annel0/netcode-core/internal/netcode/snapshot"
)

// Simulate advances world by one frame given the per-peer inputs for that
// frame (confirmed or predicted).
type Simulate[W any, I any] func(world W, inputs map[string]I, dtMs float64) W

// PredictInput guesses a peer's input for a frame it hasn't reported yet,
// typically "repeat the last confirmed input".
type PredictInput[I any] func(peerID string, lastConfirmed I) I

const keepFramesBehindConfirmed = 10

// Client drives one peer's view of a rollback session (spec §4.14): it
// keeps a frame-indexed history of world states and per-peer inputs, and
// rewinds-and-resimulates whenever a remote input lands after a frame that
// guessed at it.
type Client[W any, I any] struct {
	mu sync.Mutex

	localID   string
	peers     []string
	inputDelay int
	dtMs      float64

	simulate Simulate[W, I]
	predict  PredictInput[I]
	idle     I

	currentFrame   uint64
	confirmedFrame uint64

	stateHistory        *snapshot.Buffer[W]
	localInputHistory   map[uint64]I
	remoteInputHistory  map[string]map[uint64]I
	remoteConfirmed     map[string]uint64 // highest frame with a real (non-predicted) input per peer
	lastRealInput       map[string]I
}

// NewClient creates a rollback client seeded at frame 0 with initialWorld.
// inputDelay is how many frames ahead of the current simulated frame local
// input is scheduled to apply, trading input latency for fewer rollbacks
// (spec §4.14's INPUT_DELAY_FRAMES).
func NewClient[W any, I any](
	localID string,
	peers []string,
	initialWorld W,
	inputDelay int,
	dtMs float64,
	historySize int,
	simulate Simulate[W, I],
	predict PredictInput[I],
	idle I,
) *Client[W, I] {
	c := &Client[W, I]{
		localID:            localID,
		peers:              peers,
		inputDelay:         inputDelay,
		dtMs:               dtMs,
		simulate:           simulate,
		predict:            predict,
		idle:               idle,
		stateHistory:       snapshot.NewBuffer[W](historySize),
		localInputHistory:  make(map[uint64]I),
		remoteInputHistory: make(map[string]map[uint64]I),
		remoteConfirmed:    make(map[string]uint64),
		lastRealInput:      make(map[string]I),
	}
	for _, p := range peers {
		c.remoteInputHistory[p] = make(map[uint64]I)
		c.lastRealInput[p] = idle
	}
	_ = c.stateHistory.Add(snapshot.Snapshot[W]{Tick: 0, State: initialWorld})
	return c
}

// CurrentFrame reports the last frame this client has simulated.
func (c *Client[W, I]) CurrentFrame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentFrame
}

// ConfirmedFrame reports the highest frame for which every peer's input is
// known (non-predicted).
func (c *Client[W, I]) ConfirmedFrame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmedFrame
}

// OnLocalInput schedules input to apply at currentFrame+inputDelay.
func (c *Client[W, I]) OnLocalInput(input I) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localInputHistory[c.currentFrame+uint64(c.inputDelay)] = input
}

// OnRemoteInput records a confirmed input for peerID at frame. If frame has
// already been simulated with a predicted guess, every frame from there to
// currentFrame is rewound and resimulated with the real input in place of
// the guess.
func (c *Client[W, I]) OnRemoteInput(peerID string, frame uint64, input I) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hist, ok := c.remoteInputHistory[peerID]; ok {
		hist[frame] = input
	}
	c.lastRealInput[peerID] = input
	if frame > c.remoteConfirmed[peerID] || c.remoteConfirmed[peerID] == 0 {
		c.remoteConfirmed[peerID] = frame
	}

	if frame <= c.currentFrame {
		c.rewindAndResimulateFrom(frame)
	}
	c.advanceConfirmedFrame()
}

// AdvanceFrame simulates exactly one new frame using the scheduled local
// input (or idle if none was scheduled yet) and each peer's latest known or
// predicted input, then evicts input history far enough behind
// confirmedFrame.
func (c *Client[W, I]) AdvanceFrame() W {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.currentFrame + 1
	world := c.simulateFrame(next)
	c.currentFrame = next
	c.advanceConfirmedFrame()
	c.evictOldFrames()
	return world
}

// inputsFor resolves the per-peer input map for frame, predicting any peer
// input not yet confirmed.
func (c *Client[W, I]) inputsFor(frame uint64) map[string]I {
	inputs := make(map[string]I, len(c.peers)+1)

	if in, ok := c.localInputHistory[frame]; ok {
		inputs[c.localID] = in
	} else {
		inputs[c.localID] = c.idle
	}

	for _, peer := range c.peers {
		if in, ok := c.remoteInputHistory[peer][frame]; ok {
			inputs[peer] = in
		} else {
			inputs[peer] = c.predict(peer, c.lastRealInput[peer])
		}
	}
	return inputs
}

func (c *Client[W, I]) simulateFrame(frame uint64) W {
	prev, _ := c.stateHistory.AtTick(frame - 1)
	world := c.simulate(prev.State, c.inputsFor(frame), c.dtMs)
	_ = c.stateHistory.Add(snapshot.Snapshot[W]{Tick: frame, State: world})
	return world
}

// rewindAndResimulateFrom re-derives every frame from (frame-1)'s state
// through currentFrame using now-corrected input history.
func (c *Client[W, I]) rewindAndResimulateFrom(frame uint64) {
	base, ok := c.stateHistory.AtTick(frame - 1)
	if !ok {
		return
	}
	world := base.State
	for f := frame; f <= c.currentFrame; f++ {
		world = c.simulate(world, c.inputsFor(f), c.dtMs)
		c.overwriteFrame(f, world)
	}
}

func (c *Client[W, I]) overwriteFrame(frame uint64, world W) {
	// Buffer.Add rejects non-increasing ticks, so a resimulated frame that
	// already exists is replaced by rebuilding the buffer's tail in place.
	c.stateHistory.Replace(frame, snapshot.Snapshot[W]{Tick: frame, State: world})
}

// advanceConfirmedFrame advances confirmedFrame past every frame for which
// all peers now have a real (non-predicted) input recorded.
func (c *Client[W, I]) advanceConfirmedFrame() {
	for {
		next := c.confirmedFrame + 1
		if next > c.currentFrame {
			return
		}
		allConfirmed := true
		for _, peer := range c.peers {
			if _, ok := c.remoteInputHistory[peer][next]; !ok {
				allConfirmed = false
				break
			}
		}
		if !allConfirmed {
			return
		}
		c.confirmedFrame = next
	}
}

func (c *Client[W, I]) evictOldFrames() {
	if c.confirmedFrame < keepFramesBehindConfirmed {
		return
	}
	floor := c.confirmedFrame - keepFramesBehindConfirmed
	for _, peer := range c.peers {
		hist := c.remoteInputHistory[peer]
		for f := range hist {
			if f < floor {
				delete(hist, f)
			}
		}
	}
	for f := range c.localInputHistory {
		if f < floor {
			delete(c.localInputHistory, f)
		}
	}
}
