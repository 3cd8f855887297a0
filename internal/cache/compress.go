package cache

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compressedSuffix is appended to the audio extension of compressed entries.
const compressedSuffix = ".zst"

// codec compresses entries at rest. Encoder and decoder are safe for
// concurrent EncodeAll/DecodeAll calls.
type codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newCodec(level int) (*codec, error) {
	if level <= 0 {
		level = 3
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &codec{encoder: enc, decoder: dec}, nil
}

func (c *codec) encode(data []byte) []byte {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func (c *codec) decode(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

func (c *codec) close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}
