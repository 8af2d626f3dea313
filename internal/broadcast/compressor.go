package broadcast

import (
	"github.com/klauspost/compress/zstd"
)

// Compressor packs/unpacks a batch of Deltas into a single wire payload.
// Passthrough is cheap and used for small or already-compressed batches;
// Zstd trades CPU for bandwidth on larger ones.
type Compressor interface {
	Compress(deltas []Delta) ([]byte, error)
	Decompress(payload []byte) ([]Delta, error)
}

type passthroughCompressor struct{}

// NewPassthroughCompressor concatenates deltas with a 4-byte length prefix
// and no compression.
func NewPassthroughCompressor() Compressor { return &passthroughCompressor{} }

func (p *passthroughCompressor) Compress(deltas []Delta) ([]byte, error) {
	buf := make([]byte, 0)
	for _, d := range deltas {
		n := uint32(len(d.Data))
		buf = append(buf, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
		buf = append(buf, d.Data...)
	}
	return buf, nil
}

func (p *passthroughCompressor) Decompress(payload []byte) ([]Delta, error) {
	var res []Delta
	i := 0
	for i < len(payload) {
		if i+4 > len(payload) {
			break
		}
		n := uint32(payload[i])<<24 | uint32(payload[i+1])<<16 | uint32(payload[i+2])<<8 | uint32(payload[i+3])
		i += 4
		if i+int(n) > len(payload) {
			break
		}
		res = append(res, Delta{Data: payload[i : i+int(n)]})
		i += int(n)
	}
	return res, nil
}

// zstdCompressor wraps the passthrough wire format with zstd, used for
// larger cross-shard batches where bandwidth matters more than CPU.
type zstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstdCompressor creates a Compressor backed by klauspost/compress/zstd.
func NewZstdCompressor() (Compressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &zstdCompressor{enc: enc, dec: dec}, nil
}

func (z *zstdCompressor) Compress(deltas []Delta) ([]byte, error) {
	passthrough := &passthroughCompressor{}
	raw, err := passthrough.Compress(deltas)
	if err != nil {
		return nil, err
	}
	return z.enc.EncodeAll(raw, nil), nil
}

func (z *zstdCompressor) Decompress(payload []byte) ([]Delta, error) {
	raw, err := z.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, err
	}
	passthrough := &passthroughCompressor{}
	return passthrough.Decompress(raw)
}

// Close releases the underlying zstd encoder's resources.
func (z *zstdCompressor) Close() error {
	z.enc.Close()
	return nil
}
