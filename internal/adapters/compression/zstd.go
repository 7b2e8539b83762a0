// Package compression provides data compression functionality using the zstd algorithm.
// It offers a thread-safe implementation with configurable compression levels
// and automatic optimization for small data sizes.
package compression

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pramitgaha21/upload-file/internal/core/domain"
)

type Options struct {
	Level              uint8
	EncoderConcurrency uint8
	DecoderConcurrency uint8
}

// ZstdCompression implements CompressionPort using the zstd compression algorithm.
// Payloads that are too small or do not shrink are kept as is and marked raw.
type ZstdCompression struct {
	level   uint8         // Current encoder level (1-4)
	mu      sync.RWMutex  // Protects concurrent access to compression state
	closed  bool          // Set once Close has released the encoder and decoder
	decoder *zstd.Decoder // Thread-safe decoder instance for decompression
	encoder *zstd.Encoder // Thread-safe encoder instance for compression
}

// Compression level constants map onto zstd.EncoderLevel.
const (
	FastestLevel uint8 = uint8(zstd.SpeedFastest)
	DefaultLevel uint8 = uint8(zstd.SpeedDefault)
	BestLevel    uint8 = uint8(zstd.SpeedBestCompression)
)

// Payloads shorter than this are never compressed.
const minCompressSize = 64

// NewZstdCompression creates a new zstd compression instance with the specified level.
//
// Returns an error if:
// - The compression level is invalid
// - The encoder or decoder initialization fails
func NewZstdCompression(opts Options) (*ZstdCompression, error) {
	if err := Validate(
		&domain.CompressionOptions{
			Level:              opts.Level,
			EncoderConcurrency: opts.EncoderConcurrency,
			DecoderConcurrency: opts.DecoderConcurrency,
		},
	); err != nil {
		return nil, err
	}

	encoderOpts := []zstd.EOption{zstd.WithEncoderLevel(zstd.EncoderLevel(opts.Level))}
	if opts.EncoderConcurrency > 0 {
		encoderOpts = append(encoderOpts, zstd.WithEncoderConcurrency(int(opts.EncoderConcurrency)))
	}

	encoder, err := zstd.NewWriter(nil, encoderOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(int(opts.DecoderConcurrency)))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &ZstdCompression{encoder: encoder, decoder: decoder, level: opts.Level}, nil
}

// Compress compresses the input data using zstd compression.
// Data shorter than 64 bytes, or data that zstd cannot shrink, is returned
// marked raw. The operation is thread-safe.
func (z *ZstdCompression) Compress(data []byte) ([]byte, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	if z.closed {
		return nil, ErrClosed
	}

	if len(data) < minCompressSize {
		return frame(flagRaw, data), nil
	}

	compressed := z.encoder.EncodeAll(data, []byte{flagZstd})
	if len(compressed)-1 < len(data) {
		return compressed, nil
	}

	return frame(flagRaw, data), nil
}

// Decompress restores the original data from the output of Compress.
// The operation is thread-safe.
//
// Returns an error if:
// - The input carries no marker byte or an unknown one
// - The input is not valid zstd compressed data
func (z *ZstdCompression) Decompress(data []byte) ([]byte, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	if z.closed {
		return nil, ErrClosed
	}

	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	switch data[0] {
	case flagRaw:
		return data[1:], nil
	case flagZstd:
		decompressed, err := z.decoder.DecodeAll(data[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("decompression failed: %w", err)
		}
		return decompressed, nil
	default:
		return nil, fmt.Errorf("unknown payload marker %d", data[0])
	}
}

// Level returns the current compression level.
func (z *ZstdCompression) Level() uint8 {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.level
}

// Close releases all resources used by the compression instance.
// After closing, the instance cannot be used for compression or decompression.
func (z *ZstdCompression) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.closed {
		return nil
	}
	z.closed = true

	if err := z.encoder.Close(); err != nil {
		return fmt.Errorf("error closing encoder : %w", err)
	}

	z.decoder.Close()
	return nil
}
