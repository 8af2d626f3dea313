package protocol

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Codec turns a value into wire bytes and back. Games that need a specific
// cross-language wire format (protobuf, flatbuffers, a hand-rolled binary
// layout) supply their own Codec via the optional serialize/deserialize
// hooks in spec §6; GobZstdCodec below is the default for Go-to-Go links.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// GobZstdCodec encodes with encoding/gob and compresses with zstd, mirroring
// the teacher's MessageSerializer (zstd.SpeedDefault, single-threaded
// encoder/decoder tuned for low latency over throughput).
type GobZstdCodec[T any] struct {
	mu  sync.Mutex
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewGobZstdCodec builds a codec ready for concurrent use.
func NewGobZstdCodec[T any]() (*GobZstdCodec[T], error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &GobZstdCodec[T]{enc: enc, dec: dec}, nil
}

// Encode gob-serializes v, then compresses the result.
func (c *GobZstdCodec[T]) Encode(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}

	c.mu.Lock()
	compressed := c.enc.EncodeAll(buf.Bytes(), nil)
	c.mu.Unlock()
	return compressed, nil
}

// Decode reverses Encode.
func (c *GobZstdCodec[T]) Decode(data []byte) (T, error) {
	var zero T

	c.mu.Lock()
	raw, err := c.dec.DecodeAll(data, nil)
	c.mu.Unlock()
	if err != nil {
		return zero, fmt.Errorf("zstd decode: %w", err)
	}

	var v T
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&v); err != nil {
		return zero, fmt.Errorf("gob decode: %w", err)
	}
	return v, nil
}

// Close releases the codec's zstd resources.
func (c *GobZstdCodec[T]) Close() {
	c.enc.Close()
	c.dec.Close()
}

// GobCodec encodes with encoding/gob only, no compression. Used for the
// outermost Envelope, whose Payload has typically already been compressed
// by the inner message's own Codec.
type GobCodec[T any] struct{}

// NewGobCodec builds a GobCodec. It never fails, unlike NewGobZstdCodec,
// since gob needs no encoder/decoder setup.
func NewGobCodec[T any]() *GobCodec[T] { return &GobCodec[T]{} }

func (c *GobCodec[T]) Encode(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *GobCodec[T]) Decode(data []byte) (T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return v, fmt.Errorf("gob decode: %w", err)
	}
	return v, nil
}
