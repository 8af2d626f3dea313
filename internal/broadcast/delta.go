// Package broadcast batches outgoing snapshot/action-ack payloads onto the
// event bus so a game-server instance can fan them out to observers, replay
// recorders or other shards without serializing every one individually.
package broadcast

import "time"

// Delta carries one already-encoded outbound payload (a protocol.Envelope
// produced by a Codec) tagged for batching and priority-based shedding.
type Delta struct {
	Data      []byte    // codec-encoded protocol.Envelope bytes
	Priority  int       // higher survives buffer overflow; Producer gives every delta 3
	Timestamp time.Time
	Source    string // originating server/shard id
	Kind      string // "Snapshot", "ActionAck", "Join", "Leave"
}
