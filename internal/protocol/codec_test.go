package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGobZstdCodec_RoundTrip(t *testing.T) {
	codec, err := NewGobZstdCodec[InputMessage[int]]()
	require.NoError(t, err)
	defer codec.Close()

	msg := InputMessage[int]{Seq: 7, Input: 42, TimestampMs: 12345}
	payload, err := codec.Encode(msg)
	require.NoError(t, err)

	got, err := codec.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestGobZstdCodec_DecodeGarbageErrors(t *testing.T) {
	codec, err := NewGobZstdCodec[InputMessage[int]]()
	require.NoError(t, err)
	defer codec.Close()

	_, err = codec.Decode([]byte("not a valid zstd frame"))
	assert.Error(t, err)
}

func TestGobCodec_RoundTrip(t *testing.T) {
	codec := NewGobCodec[Envelope]()
	env := Envelope{Kind: KindSnapshot, Payload: []byte{1, 2, 3}}

	data, err := codec.Encode(env)
	require.NoError(t, err)

	got, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env, got)
}

func TestEncodeDecodeEnvelope(t *testing.T) {
	env := Envelope{Kind: KindJoinRequest, Payload: []byte("token-bytes")}

	data, err := EncodeEnvelope(env)
	require.NoError(t, err)

	got, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env, got)
}

func TestGobZstdCodec_CompressesRepetitiveData(t *testing.T) {
	codec, err := NewGobZstdCodec[SnapshotMessage[[]byte]]()
	require.NoError(t, err)
	defer codec.Close()

	big := make([]byte, 4096)
	msg := SnapshotMessage[[]byte]{Tick: 1, State: big}
	payload, err := codec.Encode(msg)
	require.NoError(t, err)

	// A zero-filled 4KB payload should compress well below its raw size.
	assert.Less(t, len(payload), len(big))
}
