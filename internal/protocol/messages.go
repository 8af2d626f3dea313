// Package protocol defines the wire-level message shapes exchanged between
// netcode-core's server and client strategies (spec §6). Encoding is
// pluggable via Codec; the shapes themselves are plain generic structs so a
// game can serialize them however its transport requires.
package protocol

// InputMessage is sent client -> server for every sampled input.
// Seq is monotonically increasing per client, starting at 0.
type InputMessage[I any] struct {
	Seq         uint32 `json:"seq"`
	Input       I      `json:"input"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// ActionMessage is sent client -> server for a discrete, lag-compensated
// event (e.g. "attack").
type ActionMessage[A any] struct {
	Seq         uint32 `json:"seq"`
	Action      A      `json:"action"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// SnapshotMessage is broadcast server -> client every tick.
type SnapshotMessage[W any] struct {
	Tick        uint64           `json:"tick"`
	TimestampMs int64            `json:"timestamp_ms"`
	State       W                `json:"state"`
	InputAcks   map[string]uint32 `json:"input_acks"`
}

// ActionAckMessage reports the outcome of a validated action back to the
// issuing client.
type ActionAckMessage[R any] struct {
	Seq     uint32 `json:"seq"`
	Success bool   `json:"success"`
	Result  R      `json:"result,omitempty"`
}

// JoinMessage / LeaveMessage announce player membership changes so a
// client's Interpolator can seed or evict its remote-entity map.
type JoinMessage[W any] struct {
	PlayerID string `json:"player_id"`
	State    *W     `json:"state,omitempty"`
}

type LeaveMessage struct {
	PlayerID string `json:"player_id"`
}

// JoinRequest is the first message a client sends over a freshly dialed
// channel: the join token issued by an out-of-band auth step (see
// internal/auth), which the server validates before admitting the client
// to the World Manager.
type JoinRequest struct {
	Token string `json:"token"`
}

// Kind identifies which of the message shapes above an Envelope carries,
// letting a single transport channel multiplex all of them.
type Kind string

const (
	KindInput       Kind = "input"
	KindAction      Kind = "action"
	KindSnapshot    Kind = "snapshot"
	KindJoin        Kind = "join"
	KindLeave       Kind = "leave"
	KindActionAck   Kind = "action_ack"
	KindJoinRequest Kind = "join_request"
)

// Envelope is the outermost frame put on the wire: Kind says how to decode
// Payload, which was produced by a Codec.
type Envelope struct {
	Kind    Kind   `json:"kind"`
	Payload []byte `json:"payload"`
}

// envelopeCodec encodes Envelope itself. Payload bytes are already encoded
// (and, where the game chooses, compressed) by a type-specific Codec, so
// the envelope wrapper stays plain gob rather than paying for a second
// round of compression.
var envelopeCodec = NewGobCodec[Envelope]()

// EncodeEnvelope serializes e for handoff to a transport.Channel.
func EncodeEnvelope(e Envelope) ([]byte, error) { return envelopeCodec.Encode(e) }

// DecodeEnvelope deserializes bytes received from a transport.Channel.
func DecodeEnvelope(data []byte) (Envelope, error) { return envelopeCodec.Decode(data) }
